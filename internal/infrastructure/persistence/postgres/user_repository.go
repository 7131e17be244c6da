// Package postgres - UserRepository implementation.
package postgres

import (
	"errors"
	"fmt"
	"time"

	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/apperrors"
	"github.com/wallethub/ledgercore/internal/domain/entities"
)

var _ ports.UserRepository = (*UserRepository)(nil)

// UserRepository implements ports.UserRepository against Postgres.
// Thread-safe: built on a connection pool. Transaction-aware: uses the
// transaction injected into ctx by UnitOfWork when present.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, created_at, updated_at`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*entities.User, error) {
	var (
		id                   uuid.UUID
		email                string
		createdAt, updatedAt time.Time
	)

	if err := scanner.Scan(&id, &email, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	return entities.ReconstructUser(id, email, createdAt, updatedAt), nil
}

func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	q := getQuerier(ctx, r.pool)

	query := `
		INSERT INTO users (id, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := q.Exec(ctx, query, user.ID(), user.Email(), user.CreatedAt(), user.UpdatedAt())
	if err != nil {
		if isUniqueViolation(err, "users_email") {
			return apperrors.NewValidation(fmt.Sprintf("user with email %s already exists", user.Email()))
		}
		return fmt.Errorf("save user: %w", err)
	}

	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	q := getQuerier(ctx, r.pool)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUserNotFound(id.String())
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	q := getQuerier(ctx, r.pool)

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(q.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUserNotFound(email)
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	return user, nil
}
