// Package entities contains domain entities with identity and lifecycle.
// Entities are mutable and compared by their ID, not by their attributes.
package entities

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/apperrors"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User identifies a wallet owner. It carries no KYC, balance, or profile
// state — those concerns live on Wallet and Transaction respectively.
type User struct {
	id        uuid.UUID
	email     string
	createdAt time.Time
	updatedAt time.Time
}

// NewUser creates a new User, normalizing and validating the email.
func NewUser(email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return nil, apperrors.NewValidation("invalid email address")
	}

	now := time.Now()
	return &User{
		id:        uuid.New(),
		email:     email,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructUser hydrates a User from stored data without re-validating.
func ReconstructUser(id uuid.UUID, email string, createdAt, updatedAt time.Time) *User {
	return &User{id: id, email: email, createdAt: createdAt, updatedAt: updatedAt}
}

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) Email() string        { return u.email }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }
