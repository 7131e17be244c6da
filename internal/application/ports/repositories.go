// Package ports declares the interfaces the application layer depends on
// and the infrastructure layer implements — the repository side of the
// dependency-inversion boundary.
package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/entities"
)

// UserRepository persists and retrieves users.
type UserRepository interface {
	Save(ctx context.Context, user *entities.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
}

// AssetTypeRepository persists and retrieves asset types.
type AssetTypeRepository interface {
	Save(ctx context.Context, assetType *entities.AssetType) error
	FindByCode(ctx context.Context, code string) (*entities.AssetType, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entities.AssetType, error)
}

// WalletRepository persists wallets and provides the row-locking and
// optimistic-version primitives the mutation engine builds on.
type WalletRepository interface {
	Create(ctx context.Context, wallet *entities.Wallet) error
	FindUserWallet(ctx context.Context, userID, assetTypeID uuid.UUID) (*entities.Wallet, error)
	FindSystemWallet(ctx context.Context, systemCode string, assetTypeID uuid.UUID) (*entities.Wallet, error)

	// LockWallets takes row locks (SELECT ... FOR UPDATE) on the given
	// wallet ids, in ascending id order, and returns their current rows.
	// Callers must already have sorted walletIDs via
	// walletlock.SortUniqueWalletIDs to keep lock order consistent with
	// the cross-instance distributed lock.
	LockWallets(ctx context.Context, walletIDs []uuid.UUID) ([]*entities.Wallet, error)

	// BumpVersion advances a wallet's version with
	// `UPDATE ... WHERE id = ? AND version = ?`, returning true if the
	// row was affected (i.e. the expected version still held).
	BumpVersion(ctx context.Context, walletID uuid.UUID, expectedVersion int64) (bool, error)
}

// TransactionRepository persists the idempotency/audit record.
type TransactionRepository interface {
	// InsertProcessing inserts a new PROCESSING transaction row. Returns
	// an *apperrors.AppError with CodeIdempotencyKeyReused when a row with
	// the same idempotencyKey already exists; it does not tell a different
	// request from an in-progress or finished one — the caller calls
	// FindByIdempotencyKey on that error to decide which case applies.
	InsertProcessing(ctx context.Context, tx *entities.Transaction) error

	FindByIdempotencyKey(ctx context.Context, idempotencyKey string) (*entities.Transaction, error)

	// UpdateTerminalStatus persists the status/response/error fields of
	// a transaction that has just been marked POSTED or FAILED.
	UpdateTerminalStatus(ctx context.Context, tx *entities.Transaction) error
}

// WalletBalance is one row of a user's per-asset balance listing.
type WalletBalance struct {
	WalletID  uuid.UUID
	AssetCode string
	AssetName string
	Balance   int64
}

// LedgerRepository appends ledger postings and derives balances from them.
type LedgerRepository interface {
	AppendEntries(ctx context.Context, entries []*entities.LedgerEntry) error

	// AggregateBalance sums CREDIT entries minus DEBIT entries for one
	// wallet/asset pair. A wallet with no entries has balance zero.
	AggregateBalance(ctx context.Context, walletID, assetTypeID uuid.UUID) (int64, error)

	// ListUserBalances derives the balance of every asset-type wallet a
	// user owns, sorted by asset code ascending. A user with a wallet but
	// zero ledger entries for it still appears, at balance zero.
	ListUserBalances(ctx context.Context, userID uuid.UUID) ([]WalletBalance, error)
}
