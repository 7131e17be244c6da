// Package entities_test demonstrates testing domain entities.
// Focus on business rules, state transitions, and invariants.
package entities_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/entities"
)

func TestNewUser_Success(t *testing.T) {
	user, err := entities.NewUser("test@example.com")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if user.Email() != "test@example.com" {
		t.Errorf("Email = %v, want test@example.com", user.Email())
	}

	if user.ID() == uuid.Nil {
		t.Error("User ID should not be nil")
	}

	if user.CreatedAt().IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestNewUser_InvalidEmail(t *testing.T) {
	invalidEmails := []string{
		"",
		"not-an-email",
		"missing@domain",
		"@example.com",
		"user@",
		"user space@example.com",
	}

	for _, email := range invalidEmails {
		t.Run(email, func(t *testing.T) {
			_, err := entities.NewUser(email)
			if err == nil {
				t.Errorf("Expected error for invalid email %q", email)
			}
		})
	}
}

func TestReconstructUser(t *testing.T) {
	id := uuid.New()
	now := time.Now()

	user := entities.ReconstructUser(id, "reconstructed@example.com", now, now)

	if user.ID() != id {
		t.Error("ID mismatch after reconstruction")
	}
	if user.Email() != "reconstructed@example.com" {
		t.Error("Email mismatch after reconstruction")
	}
	if !user.CreatedAt().Equal(now) {
		t.Error("CreatedAt mismatch after reconstruction")
	}
}
