package entities

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/apperrors"
)

var assetCodePattern = regexp.MustCompile(`^[A-Z0-9_]{1,50}$`)

// AssetType names a ledger-tracked unit of value (points, credits, an
// in-game currency). Unlike the closed set of fiat/crypto currencies a
// general-purpose wallet might support, asset codes are operator-defined
// and open-ended, so AssetType is a persisted entity rather than a fixed
// enum.
type AssetType struct {
	id          uuid.UUID
	code        string
	displayName string
	createdAt   time.Time
}

// NewAssetType validates and constructs a new AssetType. code must be
// uppercase alphanumeric/underscore, at most 50 characters.
func NewAssetType(code, displayName string) (*AssetType, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !assetCodePattern.MatchString(code) {
		return nil, apperrors.NewValidation("asset code must be 1-50 uppercase alphanumeric or underscore characters")
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = code
	}

	return &AssetType{
		id:          uuid.New(),
		code:        code,
		displayName: displayName,
		createdAt:   time.Now(),
	}, nil
}

// ReconstructAssetType hydrates an AssetType from stored data.
func ReconstructAssetType(id uuid.UUID, code, displayName string, createdAt time.Time) *AssetType {
	return &AssetType{id: id, code: code, displayName: displayName, createdAt: createdAt}
}

func (a *AssetType) ID() uuid.UUID          { return a.id }
func (a *AssetType) Code() string           { return a.code }
func (a *AssetType) DisplayName() string    { return a.displayName }
func (a *AssetType) CreatedAt() time.Time   { return a.createdAt }
