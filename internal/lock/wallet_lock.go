// Package lock implements the cross-instance distributed lock that
// serializes mutations against the same set of wallets. It builds on the
// same go-redis client as the idempotency cache (cache.RedisIdempotencyCache)
// and the constructor-with-config shape of middleware.RateLimitConfig,
// adapted to compare-and-set locking semantics.
package lock

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/wallethub/ledgercore/internal/domain/apperrors"
)

// WalletLock is the C3 port: acquire a cross-instance lock over a set of
// wallet ids (already sorted via walletlock.SortUniqueWalletIDs, to keep
// lock ordering deterministic across every caller), and release it with
// the token returned by Acquire.
type WalletLock interface {
	Acquire(ctx context.Context, keys []string) (token string, err error)
	Release(ctx context.Context, keys []string, token string)
}

// releaseScript deletes key only if its current value still matches the
// token that acquired it, so a lock released after its TTL already
// expired and was re-acquired by another instance is a harmless no-op.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// Config tunes acquisition retry behavior.
type Config struct {
	TTL        time.Duration // how long a held lock key survives unreleased
	RetryCount int           // number of additional attempts after the first
	RetryDelay time.Duration // linear backoff unit: attempt N waits N*RetryDelay
}

func DefaultConfig() Config {
	return Config{
		TTL:        5 * time.Second,
		RetryCount: 5,
		RetryDelay: 50 * time.Millisecond,
	}
}

// RedisWalletLock acquires one Redis key per wallet id with SET NX PX,
// and releases with a token-scoped compare-and-delete Lua script.
type RedisWalletLock struct {
	client  *redis.Client
	cfg     Config
	release *redis.Script
	logger  *slog.Logger
}

func NewRedisWalletLock(client *redis.Client, cfg Config, logger *slog.Logger) *RedisWalletLock {
	return &RedisWalletLock{
		client:  client,
		cfg:     cfg,
		release: redis.NewScript(releaseScript),
		logger:  logger,
	}
}

// Acquire takes every key or none: if any key in the set is already held,
// whatever was acquired in this attempt is released before the next
// retry, so two callers racing for an overlapping wallet set never
// deadlock against each other.
func (l *RedisWalletLock) Acquire(ctx context.Context, keys []string) (string, error) {
	if len(keys) == 0 {
		return "", apperrors.NewLockKeysMissing()
	}

	token := uuid.New().String()

	for attempt := 0; attempt <= l.cfg.RetryCount; attempt++ {
		acquired, err := l.tryAcquireAll(ctx, keys, token)
		if err == nil && acquired {
			return token, nil
		}
		if err != nil {
			l.logger.WarnContext(ctx, "wallet lock acquisition error", "error", err, "attempt", attempt)
		}

		if attempt < l.cfg.RetryCount {
			backoff := time.Duration(attempt+1) * l.cfg.RetryDelay
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return "", apperrors.NewDistributedLockNotAcquired()
}

func (l *RedisWalletLock) tryAcquireAll(ctx context.Context, keys []string, token string) (bool, error) {
	acquiredKeys := make([]string, 0, len(keys))

	for _, key := range keys {
		ok, err := l.client.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil {
			l.Release(ctx, acquiredKeys, token)
			return false, err
		}
		if !ok {
			l.Release(ctx, acquiredKeys, token)
			return false, nil
		}
		acquiredKeys = append(acquiredKeys, key)
	}

	return true, nil
}

// Release compare-and-deletes every key this token acquired. Errors are
// logged and swallowed: by the time release runs the mutation has
// already committed or rolled back, so a Redis hiccup here must not
// surface as a request failure.
func (l *RedisWalletLock) Release(ctx context.Context, keys []string, token string) {
	for _, key := range keys {
		if err := l.release.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			l.logger.WarnContext(ctx, "wallet lock release failed", "error", err, "key", key)
		}
	}
}
