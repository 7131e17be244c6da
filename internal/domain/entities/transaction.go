// Package entities - Transaction is the audit and idempotency record for a
// single wallet mutation. It never holds a balance itself; balances are
// derived from the LedgerEntry rows it produces once POSTED.
package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/apperrors"
	"github.com/wallethub/ledgercore/internal/domain/valueobjects"
)

// TransactionType is the caller-facing reason for a mutation. TOPUP and
// BONUS both credit a user wallet from TREASURY and share a code path at
// the ledger level, but are kept distinct for reporting.
type TransactionType string

const (
	TransactionTypeTopup TransactionType = "TOPUP"
	TransactionTypeBonus TransactionType = "BONUS"
	TransactionTypeSpend TransactionType = "SPEND"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeTopup, TransactionTypeBonus, TransactionTypeSpend:
		return true
	default:
		return false
	}
}

// TransactionStatus is the transaction's terminal classification. There is
// no PENDING state: a transaction is either being processed in the current
// request, or it has already reached a terminal, replayable outcome.
type TransactionStatus string

const (
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusPosted     TransactionStatus = "POSTED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
)

func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusProcessing, TransactionStatusPosted, TransactionStatusFailed:
		return true
	default:
		return false
	}
}

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusPosted || s == TransactionStatusFailed
}

// Transaction is the idempotency and audit record for one mutation
// request. It is inserted as PROCESSING before any ledger entry is
// written, and moved to a terminal status (with response fields set) in
// the same database transaction that posts (or declines to post) entries.
type Transaction struct {
	id                  uuid.UUID
	idempotencyKey      string
	requestFingerprint  string
	transactionType     TransactionType
	status              TransactionStatus
	amount              valueobjects.Amount
	assetTypeID         uuid.UUID
	sourceWalletID      uuid.UUID
	destinationWalletID uuid.UUID
	responseCode        *int
	responseBody        *string
	errorCode           *string
	createdAt           time.Time
	updatedAt           time.Time
}

// NewTransaction creates a transaction row in PROCESSING status. The
// caller has already resolved source/destination wallets and validated
// the amount; this constructor only enforces the type/amount invariants
// intrinsic to the entity itself.
func NewTransaction(
	idempotencyKey, requestFingerprint string,
	transactionType TransactionType,
	amount valueobjects.Amount,
	assetTypeID, sourceWalletID, destinationWalletID uuid.UUID,
) (*Transaction, error) {
	if idempotencyKey == "" {
		return nil, apperrors.NewValidation("idempotency key is required")
	}
	if !transactionType.IsValid() {
		return nil, apperrors.NewValidation("invalid transaction type")
	}

	now := time.Now()
	return &Transaction{
		id:                  uuid.New(),
		idempotencyKey:      idempotencyKey,
		requestFingerprint:  requestFingerprint,
		transactionType:     transactionType,
		status:              TransactionStatusProcessing,
		amount:              amount,
		assetTypeID:         assetTypeID,
		sourceWalletID:      sourceWalletID,
		destinationWalletID: destinationWalletID,
		createdAt:           now,
		updatedAt:           now,
	}, nil
}

// ReconstructTransaction hydrates a Transaction from stored data.
func ReconstructTransaction(
	id uuid.UUID,
	idempotencyKey, requestFingerprint string,
	transactionType TransactionType,
	status TransactionStatus,
	amount valueobjects.Amount,
	assetTypeID, sourceWalletID, destinationWalletID uuid.UUID,
	responseCode *int,
	responseBody *string,
	errorCode *string,
	createdAt, updatedAt time.Time,
) *Transaction {
	return &Transaction{
		id:                  id,
		idempotencyKey:      idempotencyKey,
		requestFingerprint:  requestFingerprint,
		transactionType:     transactionType,
		status:              status,
		amount:              amount,
		assetTypeID:         assetTypeID,
		sourceWalletID:      sourceWalletID,
		destinationWalletID: destinationWalletID,
		responseCode:        responseCode,
		responseBody:        responseBody,
		errorCode:           errorCode,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}
}

func (t *Transaction) ID() uuid.UUID                  { return t.id }
func (t *Transaction) IdempotencyKey() string         { return t.idempotencyKey }
func (t *Transaction) RequestFingerprint() string     { return t.requestFingerprint }
func (t *Transaction) Type() TransactionType           { return t.transactionType }
func (t *Transaction) Status() TransactionStatus       { return t.status }
func (t *Transaction) Amount() valueobjects.Amount     { return t.amount }
func (t *Transaction) AssetTypeID() uuid.UUID          { return t.assetTypeID }
func (t *Transaction) SourceWalletID() uuid.UUID       { return t.sourceWalletID }
func (t *Transaction) DestinationWalletID() uuid.UUID  { return t.destinationWalletID }
func (t *Transaction) ResponseCode() *int              { return t.responseCode }
func (t *Transaction) ResponseBody() *string           { return t.responseBody }
func (t *Transaction) ErrorCode() *string              { return t.errorCode }
func (t *Transaction) CreatedAt() time.Time            { return t.createdAt }
func (t *Transaction) UpdatedAt() time.Time            { return t.updatedAt }

func (t *Transaction) IsProcessing() bool { return t.status == TransactionStatusProcessing }
func (t *Transaction) IsPosted() bool     { return t.status == TransactionStatusPosted }
func (t *Transaction) IsFailed() bool     { return t.status == TransactionStatusFailed }

// MarkPosted finalizes a successful mutation: entries have already been
// appended by the caller in the same database transaction, and this just
// records the terminal response envelope.
func (t *Transaction) MarkPosted(responseCode int, responseBody string) {
	t.status = TransactionStatusPosted
	t.responseCode = &responseCode
	t.responseBody = &responseBody
	t.updatedAt = time.Now()
}

// MarkFailed finalizes a declined mutation (e.g. insufficient funds). No
// ledger entries exist for this transaction id.
func (t *Transaction) MarkFailed(responseCode int, responseBody, errorCode string) {
	t.status = TransactionStatusFailed
	t.responseCode = &responseCode
	t.responseBody = &responseBody
	t.errorCode = &errorCode
	t.updatedAt = time.Now()
}
