// Package entities - Wallet identifies an owner/asset pair that the ledger
// tracks balances for. The wallet itself carries no balance: balances are
// always derived by summing the ledger entries posted against it. The only
// mutable state a wallet carries is its optimistic-concurrency version.
package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/apperrors"
)

// OwnerType distinguishes a user-owned wallet from an operator-owned
// system wallet (e.g. TREASURY, the source of TOPUP/BONUS credits).
type OwnerType string

const (
	OwnerTypeUser   OwnerType = "USER"
	OwnerTypeSystem OwnerType = "SYSTEM"
)

func (t OwnerType) IsValid() bool {
	return t == OwnerTypeUser || t == OwnerTypeSystem
}

// Wallet is the (owner, asset) pair a ledger entry debits or credits.
// Exactly one of userID / systemCode is set, matching ownerType.
type Wallet struct {
	id          uuid.UUID
	ownerType   OwnerType
	userID      *uuid.UUID
	systemCode  string
	assetTypeID uuid.UUID
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewUserWallet creates a wallet owned by a user for a given asset type.
func NewUserWallet(userID, assetTypeID uuid.UUID) (*Wallet, error) {
	now := time.Now()
	return &Wallet{
		id:          uuid.New(),
		ownerType:   OwnerTypeUser,
		userID:      &userID,
		assetTypeID: assetTypeID,
		version:     0,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// NewSystemWallet creates an operator-owned wallet identified by a system
// code such as "TREASURY" or "ISSUANCE" rather than a user id.
func NewSystemWallet(systemCode string, assetTypeID uuid.UUID) (*Wallet, error) {
	systemCode = strings.ToUpper(strings.TrimSpace(systemCode))
	if systemCode == "" {
		return nil, apperrors.NewValidation("system wallet code is required")
	}

	now := time.Now()
	return &Wallet{
		id:          uuid.New(),
		ownerType:   OwnerTypeSystem,
		systemCode:  systemCode,
		assetTypeID: assetTypeID,
		version:     0,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructWallet hydrates a Wallet from stored data.
func ReconstructWallet(
	id uuid.UUID,
	ownerType OwnerType,
	userID *uuid.UUID,
	systemCode string,
	assetTypeID uuid.UUID,
	version int64,
	createdAt, updatedAt time.Time,
) *Wallet {
	return &Wallet{
		id:          id,
		ownerType:   ownerType,
		userID:      userID,
		systemCode:  systemCode,
		assetTypeID: assetTypeID,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (w *Wallet) ID() uuid.UUID          { return w.id }
func (w *Wallet) OwnerType() OwnerType   { return w.ownerType }
func (w *Wallet) UserID() *uuid.UUID     { return w.userID }
func (w *Wallet) SystemCode() string     { return w.systemCode }
func (w *Wallet) AssetTypeID() uuid.UUID { return w.assetTypeID }
func (w *Wallet) Version() int64         { return w.version }
func (w *Wallet) CreatedAt() time.Time   { return w.createdAt }
func (w *Wallet) UpdatedAt() time.Time   { return w.updatedAt }

func (w *Wallet) IsUserOwned() bool   { return w.ownerType == OwnerTypeUser }
func (w *Wallet) IsSystemOwned() bool { return w.ownerType == OwnerTypeSystem }

// BumpVersion advances the optimistic-concurrency version after a
// successful ledger posting against this wallet. The caller persists the
// new version via a conditional UPDATE keyed on the previous one.
func (w *Wallet) BumpVersion() {
	w.version++
	w.updatedAt = time.Now()
}
