// Package postgres - WalletRepository implementation with row-level and
// optimistic locking.
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
)

var _ ports.WalletRepository = (*WalletRepository)(nil)

// WalletRepository implements ports.WalletRepository. A wallet row never
// carries a balance column: only identity and the optimistic-concurrency
// version are persisted.
type WalletRepository struct {
	pool *pgxpool.Pool
}

func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

const walletColumns = `id, owner_type, user_id, system_code, asset_type_id, version, created_at, updated_at`

func scanWallet(scanner interface{ Scan(dest ...any) error }) (*entities.Wallet, error) {
	var (
		id, assetTypeID      uuid.UUID
		ownerType            string
		userID               *uuid.UUID
		systemCode           *string
		version              int64
		createdAt, updatedAt time.Time
	)

	if err := scanner.Scan(&id, &ownerType, &userID, &systemCode, &assetTypeID, &version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	code := ""
	if systemCode != nil {
		code = *systemCode
	}

	return entities.ReconstructWallet(
		id,
		entities.OwnerType(ownerType),
		userID,
		code,
		assetTypeID,
		version,
		createdAt,
		updatedAt,
	), nil
}

func (r *WalletRepository) Create(ctx context.Context, wallet *entities.Wallet) error {
	q := getQuerier(ctx, r.pool)

	query := `
		INSERT INTO wallets (id, owner_type, user_id, system_code, asset_type_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var userID *uuid.UUID
	var systemCode *string
	if wallet.IsUserOwned() {
		userID = wallet.UserID()
	} else {
		code := wallet.SystemCode()
		systemCode = &code
	}

	_, err := q.Exec(ctx, query,
		wallet.ID(), string(wallet.OwnerType()), userID, systemCode, wallet.AssetTypeID(),
		wallet.Version(), wallet.CreatedAt(), wallet.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err, "wallets_owner_asset") {
			return apperrors.NewValidation("wallet already exists for this owner and asset")
		}
		if isForeignKeyViolation(err) {
			return apperrors.NewValidation("wallet references an asset type or user that does not exist")
		}
		return fmt.Errorf("create wallet: %w", err)
	}

	return nil
}

func (r *WalletRepository) FindUserWallet(ctx context.Context, userID, assetTypeID uuid.UUID) (*entities.Wallet, error) {
	q := getQuerier(ctx, r.pool)

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_type = 'USER' AND user_id = $1 AND asset_type_id = $2`

	wallet, err := scanWallet(q.QueryRow(ctx, query, userID, assetTypeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user wallet: %w", err)
	}

	return wallet, nil
}

func (r *WalletRepository) FindSystemWallet(ctx context.Context, systemCode string, assetTypeID uuid.UUID) (*entities.Wallet, error) {
	q := getQuerier(ctx, r.pool)

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_type = 'SYSTEM' AND system_code = $1 AND asset_type_id = $2`

	wallet, err := scanWallet(q.QueryRow(ctx, query, systemCode, assetTypeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find system wallet: %w", err)
	}

	return wallet, nil
}

// LockWallets takes `SELECT ... FOR UPDATE` row locks on walletIDs in
// ascending id order. Callers must pass walletIDs already sorted via
// walletlock.SortUniqueWalletIDs so that two mutations contending for an
// overlapping pair of wallets always request their DB row locks in the
// same order, which is what keeps this step deadlock-free alongside the
// cross-instance lock.
func (r *WalletRepository) LockWallets(ctx context.Context, walletIDs []uuid.UUID) ([]*entities.Wallet, error) {
	if len(walletIDs) == 0 {
		return nil, apperrors.NewLockKeysMissing()
	}

	q := getQuerier(ctx, r.pool)

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = ANY($1) ORDER BY id ASC FOR UPDATE`

	rows, err := q.Query(ctx, query, walletIDs)
	if err != nil {
		return nil, fmt.Errorf("lock wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*entities.Wallet
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan locked wallet: %w", err)
		}
		wallets = append(wallets, wallet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locked wallets: %w", err)
	}

	if len(wallets) != len(walletIDs) {
		return nil, apperrors.NewLockedWalletMismatch()
	}

	return wallets, nil
}

// BumpVersion issues `UPDATE wallets SET version = version + 1, updated_at = now()
// WHERE id = ? AND version = ?` and reports whether the row was affected.
// A false return with no error means another transaction changed the
// wallet's version between LockWallets and this call — which row-level
// locking inside the same transaction should make impossible, but the
// condition is still checked explicitly rather than assumed.
func (r *WalletRepository) BumpVersion(ctx context.Context, walletID uuid.UUID, expectedVersion int64) (bool, error) {
	q := getQuerier(ctx, r.pool)

	query := `UPDATE wallets SET version = version + 1, updated_at = now() WHERE id = $1 AND version = $2`

	tag, err := q.Exec(ctx, query, walletID, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("bump wallet version: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
