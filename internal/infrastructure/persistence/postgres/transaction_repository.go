// Package postgres - TransactionRepository implementation with
// idempotency-key-backed insert-or-replay semantics.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/apperrors"
	"github.com/wallethub/ledgercore/internal/domain/entities"
	"github.com/wallethub/ledgercore/internal/domain/valueobjects"
)

var _ ports.TransactionRepository = (*TransactionRepository)(nil)

// TransactionRepository implements ports.TransactionRepository. The
// unique index on idempotency_key is the sole source of truth for
// idempotency: InsertProcessing inserts with ON CONFLICT (idempotency_key)
// DO NOTHING and reports a conflict as CodeIdempotencyKeyReused without
// aborting the surrounding database transaction, so the caller can resolve
// the conflict with FindByIdempotencyKey — it never overwrites an existing
// row.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `
	id, idempotency_key, request_fingerprint, transaction_type, status,
	amount, asset_type_id, source_wallet_id, destination_wallet_id,
	response_code, response_body, error_code, created_at, updated_at
`

func scanTransaction(scanner interface{ Scan(dest ...any) error }) (*entities.Transaction, error) {
	var (
		id, assetTypeID, sourceWalletID, destinationWalletID uuid.UUID
		idempotencyKey, requestFingerprint                   string
		transactionType, status                              string
		amountUnits                                          int64
		responseCode                                         *int
		responseBody, errorCode                              *string
		createdAt, updatedAt                                  time.Time
	)

	err := scanner.Scan(
		&id, &idempotencyKey, &requestFingerprint, &transactionType, &status,
		&amountUnits, &assetTypeID, &sourceWalletID, &destinationWalletID,
		&responseCode, &responseBody, &errorCode, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	amount, err := valueobjects.NewAmount(amountUnits)
	if err != nil {
		return nil, fmt.Errorf("stored transaction has invalid amount: %w", err)
	}

	return entities.ReconstructTransaction(
		id, idempotencyKey, requestFingerprint,
		entities.TransactionType(transactionType),
		entities.TransactionStatus(status),
		amount, assetTypeID, sourceWalletID, destinationWalletID,
		responseCode, responseBody, errorCode,
		createdAt, updatedAt,
	), nil
}

func (r *TransactionRepository) InsertProcessing(ctx context.Context, tx *entities.Transaction) error {
	q := getQuerier(ctx, r.pool)

	query := `
		INSERT INTO transactions (
			id, idempotency_key, request_fingerprint, transaction_type, status,
			amount, asset_type_id, source_wallet_id, destination_wallet_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (idempotency_key) DO NOTHING
	`

	tag, err := q.Exec(ctx, query,
		tx.ID(), tx.IdempotencyKey(), tx.RequestFingerprint(), string(tx.Type()), string(tx.Status()),
		tx.Amount().Units(), tx.AssetTypeID(), tx.SourceWalletID(), tx.DestinationWalletID(),
		tx.CreatedAt(), tx.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("insert processing transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewIdempotencyKeyReused()
	}

	return nil
}

func (r *TransactionRepository) FindByIdempotencyKey(ctx context.Context, idempotencyKey string) (*entities.Transaction, error) {
	q := getQuerier(ctx, r.pool)

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE idempotency_key = $1`

	tx, err := scanTransaction(q.QueryRow(ctx, query, idempotencyKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewIdempotencyStateNotFound()
		}
		return nil, fmt.Errorf("find transaction by idempotency key: %w", err)
	}

	return tx, nil
}

func (r *TransactionRepository) UpdateTerminalStatus(ctx context.Context, tx *entities.Transaction) error {
	q := getQuerier(ctx, r.pool)

	query := `
		UPDATE transactions
		SET status = $2, response_code = $3, response_body = $4, error_code = $5, updated_at = $6
		WHERE id = $1
	`

	_, err := q.Exec(ctx, query,
		tx.ID(), string(tx.Status()), tx.ResponseCode(), tx.ResponseBody(), tx.ErrorCode(), tx.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("update transaction terminal status: %w", err)
	}

	return nil
}
