// Package walletlock provides the small, pure helper functions the
// concurrency control stack shares: deterministic wallet lock ordering
// (to avoid cross-instance and cross-transaction deadlocks) and the
// version-bump assertion used after a row-locked update.
package walletlock

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/apperrors"
)

// SortUniqueWalletIDs returns the distinct wallet ids from ids, sorted by
// their string form. Every lock and row-lock acquisition path in the
// engine must go through this function first: two requests that touch
// the same pair of wallets in different orders are the classic deadlock,
// and a single deterministic ordering eliminates it.
func SortUniqueWalletIDs(ids ...uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, apperrors.NewLockKeysMissing()
	}

	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	sort.Slice(unique, func(i, j int) bool {
		return unique[i].String() < unique[j].String()
	})

	return unique, nil
}

// ToWalletLockKeys renders sorted wallet ids into the Redis key namespace
// C3 acquires SET NX locks under.
func ToWalletLockKeys(ids []uuid.UUID) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf("lock:wallet:%s", id.String())
	}
	return keys
}

// WalletVersion pairs a wallet id with the version observed when it was
// row-locked, for comparison against the version a conditional UPDATE
// reports having affected.
type WalletVersion struct {
	WalletID uuid.UUID
	Version  int64
}

// AssertOptimisticUpdates verifies that every wallet locked at the start
// of a mutation was still at its observed version at update time, i.e.
// that the conditional `UPDATE ... WHERE id = ? AND version = ?` affected
// exactly the rows expected. updated is the set of wallet ids the
// conditional update actually touched; locked is what was expected to be
// touched. A mismatch means another transaction raced between the row
// lock being taken and the update being issued — which row-level locking
// should make impossible, but the assertion exists so a violation is
// raised as a typed error instead of silently producing a wrong balance.
func AssertOptimisticUpdates(locked []WalletVersion, updated map[uuid.UUID]struct{}) error {
	for _, lv := range locked {
		if _, ok := updated[lv.WalletID]; !ok {
			return apperrors.NewOptimisticLockConflict(lv.WalletID.String())
		}
	}
	return nil
}
