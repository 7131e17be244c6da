package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/apperrors"
	"github.com/wallethub/ledgercore/internal/domain/valueobjects"
)

// EntryType is the double-entry leg classifier: a DEBIT reduces the
// source wallet's derived balance, a CREDIT increases the destination
// wallet's derived balance.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

func (e EntryType) IsValid() bool {
	return e == EntryTypeDebit || e == EntryTypeCredit
}

// LedgerEntry is a single, append-only posting. No balance is ever stored
// directly: a wallet's balance for an asset is the sum of its CREDIT
// entries minus the sum of its DEBIT entries.
type LedgerEntry struct {
	id            uuid.UUID
	transactionID uuid.UUID
	walletID      uuid.UUID
	assetTypeID   uuid.UUID
	entryType     EntryType
	amount        valueobjects.Amount
	createdAt     time.Time
}

// NewLedgerEntry constructs one leg of a posting.
func NewLedgerEntry(transactionID, walletID, assetTypeID uuid.UUID, entryType EntryType, amount valueobjects.Amount) (*LedgerEntry, error) {
	if !entryType.IsValid() {
		return nil, apperrors.NewValidation("invalid ledger entry type")
	}

	return &LedgerEntry{
		id:            uuid.New(),
		transactionID: transactionID,
		walletID:      walletID,
		assetTypeID:   assetTypeID,
		entryType:     entryType,
		amount:        amount,
		createdAt:     time.Now(),
	}, nil
}

// ReconstructLedgerEntry hydrates a LedgerEntry from stored data.
func ReconstructLedgerEntry(
	id, transactionID, walletID, assetTypeID uuid.UUID,
	entryType EntryType,
	amount valueobjects.Amount,
	createdAt time.Time,
) *LedgerEntry {
	return &LedgerEntry{
		id:            id,
		transactionID: transactionID,
		walletID:      walletID,
		assetTypeID:   assetTypeID,
		entryType:     entryType,
		amount:        amount,
		createdAt:     createdAt,
	}
}

func (e *LedgerEntry) ID() uuid.UUID            { return e.id }
func (e *LedgerEntry) TransactionID() uuid.UUID { return e.transactionID }
func (e *LedgerEntry) WalletID() uuid.UUID      { return e.walletID }
func (e *LedgerEntry) AssetTypeID() uuid.UUID   { return e.assetTypeID }
func (e *LedgerEntry) Type() EntryType          { return e.entryType }

func (e *LedgerEntry) Amount() valueobjects.Amount { return e.amount }
func (e *LedgerEntry) CreatedAt() time.Time        { return e.createdAt }

// SignedUnits returns the amount as a positive value for CREDIT and a
// negative value for DEBIT, so a plain sum over entries yields a balance.
func (e *LedgerEntry) SignedUnits() int64 {
	if e.entryType == EntryTypeDebit {
		return -e.amount.Units()
	}
	return e.amount.Units()
}
