package walletlock

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallethub/ledgercore/internal/domain/apperrors"
)

func TestSortUniqueWalletIDs_DeterministicAcrossInputOrder(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	forward, err := SortUniqueWalletIDs(a, b, c)
	require.NoError(t, err)

	backward, err := SortUniqueWalletIDs(c, b, a)
	require.NoError(t, err)

	assert.Equal(t, forward, backward)
}

func TestSortUniqueWalletIDs_DedupesRepeatedID(t *testing.T) {
	a := uuid.New()
	result, err := SortUniqueWalletIDs(a, a, a)
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestSortUniqueWalletIDs_EmptyReturnsLockKeysMissing(t *testing.T) {
	_, err := SortUniqueWalletIDs()
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeLockKeysMissing, appErr.Code)
}

func TestToWalletLockKeys(t *testing.T) {
	id := uuid.New()
	keys := ToWalletLockKeys([]uuid.UUID{id})
	require.Len(t, keys, 1)
	assert.Equal(t, "lock:wallet:"+id.String(), keys[0])
}

func TestAssertOptimisticUpdates_Success(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	locked := []WalletVersion{{WalletID: a, Version: 1}, {WalletID: b, Version: 4}}
	updated := map[uuid.UUID]struct{}{a: {}, b: {}}

	assert.NoError(t, AssertOptimisticUpdates(locked, updated))
}

func TestAssertOptimisticUpdates_PartialFailureNamesOffendingWallet(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	locked := []WalletVersion{{WalletID: a, Version: 1}, {WalletID: b, Version: 4}}
	updated := map[uuid.UUID]struct{}{a: {}}

	err := AssertOptimisticUpdates(locked, updated)
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeOptimisticLockConflict, appErr.Code)
	assert.Equal(t, b.String(), appErr.Details["walletId"])
}

func TestAssertOptimisticUpdates_MissingWalletIsConflict(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	locked := []WalletVersion{{WalletID: a, Version: 1}, {WalletID: b, Version: 4}}
	updated := map[uuid.UUID]struct{}{a: {}, uuid.New(): {}}

	err := AssertOptimisticUpdates(locked, updated)
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeOptimisticLockConflict, appErr.Code)
}
