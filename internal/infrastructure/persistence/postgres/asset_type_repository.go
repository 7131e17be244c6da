// Package postgres - AssetTypeRepository implementation.
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

var _ ports.AssetTypeRepository = (*AssetTypeRepository)(nil)

// AssetTypeRepository implements ports.AssetTypeRepository against
// Postgres. AssetType rows are effectively immutable once created:
// Save is a plain insert, never an update.
type AssetTypeRepository struct {
	pool *pgxpool.Pool
}

func NewAssetTypeRepository(pool *pgxpool.Pool) *AssetTypeRepository {
	return &AssetTypeRepository{pool: pool}
}

const assetTypeColumns = `id, code, display_name, created_at`

func scanAssetType(scanner interface{ Scan(dest ...any) error }) (*entities.AssetType, error) {
	var (
		id          uuid.UUID
		code        string
		displayName string
		createdAt   time.Time
	)

	if err := scanner.Scan(&id, &code, &displayName, &createdAt); err != nil {
		return nil, err
	}

	return entities.ReconstructAssetType(id, code, displayName, createdAt), nil
}

func (r *AssetTypeRepository) Save(ctx context.Context, assetType *entities.AssetType) error {
	q := getQuerier(ctx, r.pool)

	query := `
		INSERT INTO asset_types (id, code, display_name, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := q.Exec(ctx, query, assetType.ID(), assetType.Code(), assetType.DisplayName(), assetType.CreatedAt())
	if err != nil {
		if isUniqueViolation(err, "asset_types_code") {
			return apperrors.NewValidation(fmt.Sprintf("asset type %s already exists", assetType.Code()))
		}
		return fmt.Errorf("save asset type: %w", err)
	}

	return nil
}

func (r *AssetTypeRepository) FindByCode(ctx context.Context, code string) (*entities.AssetType, error) {
	q := getQuerier(ctx, r.pool)

	query := `SELECT ` + assetTypeColumns + ` FROM asset_types WHERE code = $1`

	assetType, err := scanAssetType(q.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewAssetTypeNotFound(code)
		}
		return nil, fmt.Errorf("find asset type by code: %w", err)
	}

	return assetType, nil
}

func (r *AssetTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.AssetType, error) {
	q := getQuerier(ctx, r.pool)

	query := `SELECT ` + assetTypeColumns + ` FROM asset_types WHERE id = $1`

	assetType, err := scanAssetType(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewAssetTypeNotFound(id.String())
		}
		return nil, fmt.Errorf("find asset type by id: %w", err)
	}

	return assetType, nil
}
