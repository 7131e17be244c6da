package entities_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/entities"
	"github.com/wallethub/ledgercore/internal/domain/valueobjects"
)

func newTestAmount(t *testing.T, units int64) valueobjects.Amount {
	amount, err := valueobjects.NewAmount(units)
	if err != nil {
		t.Fatalf("NewAmount(%d) error = %v", units, err)
	}
	return amount
}

func TestNewTransaction_Success(t *testing.T) {
	amount := newTestAmount(t, 1000)
	source, destination, assetTypeID := uuid.New(), uuid.New(), uuid.New()

	tx, err := entities.NewTransaction("idem-key-1", "fingerprint-1", entities.TransactionTypeTopup, amount, assetTypeID, source, destination)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if tx.Status() != entities.TransactionStatusProcessing {
		t.Errorf("Status = %v, want PROCESSING", tx.Status())
	}
	if !tx.IsProcessing() {
		t.Error("IsProcessing() should be true for a new transaction")
	}
	if tx.IsPosted() || tx.IsFailed() {
		t.Error("A new transaction must not already be terminal")
	}
}

func TestNewTransaction_MissingIdempotencyKey(t *testing.T) {
	amount := newTestAmount(t, 100)
	_, err := entities.NewTransaction("", "fp", entities.TransactionTypeTopup, amount, uuid.New(), uuid.New(), uuid.New())
	if err == nil {
		t.Error("Expected error for missing idempotency key")
	}
}

func TestNewTransaction_InvalidType(t *testing.T) {
	amount := newTestAmount(t, 100)
	_, err := entities.NewTransaction("idem-key", "fp", entities.TransactionType("INVALID"), amount, uuid.New(), uuid.New(), uuid.New())
	if err == nil {
		t.Error("Expected error for invalid transaction type")
	}
}

func TestTransaction_MarkPosted(t *testing.T) {
	amount := newTestAmount(t, 500)
	tx, _ := entities.NewTransaction("idem-key", "fp", entities.TransactionTypeSpend, amount, uuid.New(), uuid.New(), uuid.New())

	tx.MarkPosted(201, `{"ok":true}`)

	if !tx.IsPosted() {
		t.Error("IsPosted() should be true after MarkPosted")
	}
	if tx.ResponseCode() == nil || *tx.ResponseCode() != 201 {
		t.Error("ResponseCode mismatch after MarkPosted")
	}
	if tx.ResponseBody() == nil || *tx.ResponseBody() != `{"ok":true}` {
		t.Error("ResponseBody mismatch after MarkPosted")
	}
}

func TestTransaction_MarkFailed(t *testing.T) {
	amount := newTestAmount(t, 500)
	tx, _ := entities.NewTransaction("idem-key", "fp", entities.TransactionTypeSpend, amount, uuid.New(), uuid.New(), uuid.New())

	tx.MarkFailed(409, `{"error":"insufficient_funds"}`, "INSUFFICIENT_FUNDS")

	if !tx.IsFailed() {
		t.Error("IsFailed() should be true after MarkFailed")
	}
	if tx.ErrorCode() == nil || *tx.ErrorCode() != "INSUFFICIENT_FUNDS" {
		t.Error("ErrorCode mismatch after MarkFailed")
	}
}

func TestTransactionType_IsValid(t *testing.T) {
	tests := []struct {
		txType entities.TransactionType
		valid  bool
	}{
		{entities.TransactionTypeTopup, true},
		{entities.TransactionTypeBonus, true},
		{entities.TransactionTypeSpend, true},
		{entities.TransactionType("REFUND"), false},
		{entities.TransactionType(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.txType), func(t *testing.T) {
			if got := tt.txType.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestTransactionStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   entities.TransactionStatus
		terminal bool
	}{
		{entities.TransactionStatusProcessing, false},
		{entities.TransactionStatusPosted, true},
		{entities.TransactionStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestReconstructTransaction(t *testing.T) {
	amount := newTestAmount(t, 250)
	id, assetTypeID, source, destination := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	code := 200
	body := `{"ok":true}`
	now := time.Now()

	tx := entities.ReconstructTransaction(
		id,
		"idem-key", "fp",
		entities.TransactionTypeBonus,
		entities.TransactionStatusPosted,
		amount,
		assetTypeID, source, destination,
		&code, &body, nil,
		now, now,
	)

	if tx.ID() != id {
		t.Error("ID mismatch after reconstruction")
	}
	if tx.Status() != entities.TransactionStatusPosted {
		t.Error("Status mismatch after reconstruction")
	}
	if tx.Amount().Units() != 250 {
		t.Errorf("Amount = %v, want 250", tx.Amount().Units())
	}
}
