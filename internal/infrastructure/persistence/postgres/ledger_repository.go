// Package postgres - LedgerRepository implementation. Ledger entries are
// append-only: there is no Update or Delete here by design, matching the
// domain invariant that a posted entry is never revised.
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/entities"
)

var _ ports.LedgerRepository = (*LedgerRepository)(nil)

type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) AppendEntries(ctx context.Context, entries []*entities.LedgerEntry) error {
	q := getQuerier(ctx, r.pool)

	batch := &pgx.Batch{}
	query := `
		INSERT INTO ledger_entries (id, transaction_id, wallet_id, asset_type_id, entry_type, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, entry := range entries {
		batch.Queue(query,
			entry.ID(), entry.TransactionID(), entry.WalletID(), entry.AssetTypeID(),
			string(entry.Type()), entry.Amount().Units(), entry.CreatedAt(),
		)
	}

	br, ok := q.(interface {
		SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	})
	if !ok {
		return fmt.Errorf("querier does not support batched execution")
	}

	results := br.SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
	}

	return nil
}

// AggregateBalance sums CREDIT entries minus DEBIT entries for one
// wallet/asset pair, relying on the ledger_entries (wallet_id) index
// rather than any cached balance column.
func (r *LedgerRepository) AggregateBalance(ctx context.Context, walletID, assetTypeID uuid.UUID) (int64, error) {
	q := getQuerier(ctx, r.pool)

	query := `
		SELECT COALESCE(SUM(
			CASE WHEN entry_type = 'CREDIT' THEN amount ELSE -amount END
		), 0)
		FROM ledger_entries
		WHERE wallet_id = $1 AND asset_type_id = $2
	`

	var balance int64
	if err := q.QueryRow(ctx, query, walletID, assetTypeID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("aggregate wallet balance: %w", err)
	}

	return balance, nil
}

// ListUserBalances left-joins every wallet a user owns against its ledger
// entries, so an asset with no postings yet still surfaces at balance
// zero instead of being silently omitted.
func (r *LedgerRepository) ListUserBalances(ctx context.Context, userID uuid.UUID) ([]ports.WalletBalance, error) {
	q := getQuerier(ctx, r.pool)

	query := `
		SELECT w.id, a.code, a.display_name,
			COALESCE(SUM(
				CASE WHEN e.entry_type = 'CREDIT' THEN e.amount
				     WHEN e.entry_type = 'DEBIT' THEN -e.amount
				     ELSE 0 END
			), 0) AS balance
		FROM wallets w
		JOIN asset_types a ON a.id = w.asset_type_id
		LEFT JOIN ledger_entries e ON e.wallet_id = w.id
		WHERE w.owner_type = 'USER' AND w.user_id = $1
		GROUP BY w.id, a.code, a.display_name
		ORDER BY a.code ASC
	`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user balances: %w", err)
	}
	defer rows.Close()

	var balances []ports.WalletBalance
	for rows.Next() {
		var b ports.WalletBalance
		if err := rows.Scan(&b.WalletID, &b.AssetCode, &b.AssetName, &b.Balance); err != nil {
			return nil, fmt.Errorf("scan user balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user balances: %w", err)
	}

	return balances, nil
}
