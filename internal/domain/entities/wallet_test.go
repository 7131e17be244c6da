package entities_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/entities"
)

func TestNewUserWallet(t *testing.T) {
	userID := uuid.New()
	assetTypeID := uuid.New()

	wallet, err := entities.NewUserWallet(userID, assetTypeID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if wallet.OwnerType() != entities.OwnerTypeUser {
		t.Errorf("OwnerType = %v, want USER", wallet.OwnerType())
	}
	if wallet.UserID() == nil || *wallet.UserID() != userID {
		t.Error("UserID mismatch")
	}
	if wallet.SystemCode() != "" {
		t.Error("SystemCode should be empty for a user wallet")
	}
	if wallet.Version() != 0 {
		t.Errorf("Version = %v, want 0", wallet.Version())
	}
	if !wallet.IsUserOwned() {
		t.Error("IsUserOwned() should be true")
	}
	if wallet.IsSystemOwned() {
		t.Error("IsSystemOwned() should be false")
	}
}

func TestNewSystemWallet(t *testing.T) {
	assetTypeID := uuid.New()

	wallet, err := entities.NewSystemWallet("treasury", assetTypeID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Business rule: system codes are normalized to uppercase.
	if wallet.SystemCode() != "TREASURY" {
		t.Errorf("SystemCode = %v, want TREASURY", wallet.SystemCode())
	}
	if wallet.UserID() != nil {
		t.Error("UserID should be nil for a system wallet")
	}
	if !wallet.IsSystemOwned() {
		t.Error("IsSystemOwned() should be true")
	}
}

func TestNewSystemWallet_EmptyCode(t *testing.T) {
	_, err := entities.NewSystemWallet("   ", uuid.New())
	if err == nil {
		t.Error("Expected error for empty system code")
	}
}

func TestWallet_BumpVersion(t *testing.T) {
	wallet, _ := entities.NewUserWallet(uuid.New(), uuid.New())

	wallet.BumpVersion()
	if wallet.Version() != 1 {
		t.Errorf("Version = %v, want 1", wallet.Version())
	}

	wallet.BumpVersion()
	if wallet.Version() != 2 {
		t.Errorf("Version = %v, want 2", wallet.Version())
	}
}

func TestReconstructWallet(t *testing.T) {
	id := uuid.New()
	userID := uuid.New()
	assetTypeID := uuid.New()

	wallet, _ := entities.NewUserWallet(userID, assetTypeID)
	reconstructed := entities.ReconstructWallet(
		id,
		entities.OwnerTypeUser,
		&userID,
		"",
		assetTypeID,
		3,
		wallet.CreatedAt(),
		wallet.UpdatedAt(),
	)

	if reconstructed.ID() != id {
		t.Error("ID mismatch after reconstruction")
	}
	if reconstructed.Version() != 3 {
		t.Errorf("Version = %v, want 3", reconstructed.Version())
	}
}
