package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/apperrors"
)

// MemoryWalletLock is an in-process WalletLock double exercising the same
// two Redis primitives the production implementation relies on: a
// SET-if-not-exists-with-TTL acquire and a token-scoped compare-and-delete
// release. Used by engine tests in place of a live Redis instance.
type MemoryWalletLock struct {
	mu         sync.Mutex
	held       map[string]memoryLockEntry
	ttl        time.Duration
	retryCount int
	retryDelay time.Duration
}

type memoryLockEntry struct {
	token     string
	expiresAt time.Time
}

func NewMemoryWalletLock(cfg Config) *MemoryWalletLock {
	return &MemoryWalletLock{
		held:       make(map[string]memoryLockEntry),
		ttl:        cfg.TTL,
		retryCount: cfg.RetryCount,
		retryDelay: cfg.RetryDelay,
	}
}

func (l *MemoryWalletLock) Acquire(ctx context.Context, keys []string) (string, error) {
	if len(keys) == 0 {
		return "", apperrors.NewLockKeysMissing()
	}

	token := uuid.New().String()

	for attempt := 0; attempt <= l.retryCount; attempt++ {
		if l.tryAcquireAll(keys, token) {
			return token, nil
		}

		if attempt < l.retryCount {
			backoff := time.Duration(attempt+1) * l.retryDelay
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return "", apperrors.NewDistributedLockNotAcquired()
}

func (l *MemoryWalletLock) tryAcquireAll(keys []string, token string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for _, key := range keys {
		if entry, ok := l.held[key]; ok && now.Before(entry.expiresAt) {
			return false
		}
	}

	for _, key := range keys {
		l.held[key] = memoryLockEntry{token: token, expiresAt: now.Add(l.ttl)}
	}
	return true
}

func (l *MemoryWalletLock) Release(_ context.Context, keys []string, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, key := range keys {
		if entry, ok := l.held[key]; ok && entry.token == token {
			delete(l.held, key)
		}
	}
}
