// Package cache implements the fast, non-authoritative idempotency gate.
// A hit here lets a replayed mutation short-circuit before touching
// Postgres at all; a miss or error always falls through to the
// authoritative transactions row, so nothing about correctness depends
// on this cache being available.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedResponse is the payload stored under idem:response:{key}. It is
// compared against the inbound request's fingerprint before being served
// back as a replay, never trusted blindly.
type CachedResponse struct {
	Fingerprint string `json:"fingerprint"`
	StatusCode  int    `json:"statusCode"`
	Body        string `json:"body"`
}

// IdempotencyCache is the C2 port: a best-effort lookaside in front of
// the authoritative transactions row.
type IdempotencyCache interface {
	Get(ctx context.Context, idempotencyKey string) (*CachedResponse, bool)
	Set(ctx context.Context, idempotencyKey string, response CachedResponse, ttl time.Duration)
}

// RedisIdempotencyCache is the production IdempotencyCache, backed by a
// single Redis key per idempotency key. Every method swallows and logs
// its own errors: a Redis outage must never fail a mutation that the
// database itself can still authoritatively decide.
type RedisIdempotencyCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisIdempotencyCache(client *redis.Client, logger *slog.Logger) *RedisIdempotencyCache {
	return &RedisIdempotencyCache{client: client, logger: logger}
}

func (c *RedisIdempotencyCache) key(idempotencyKey string) string {
	return fmt.Sprintf("idem:response:%s", idempotencyKey)
}

func (c *RedisIdempotencyCache) Get(ctx context.Context, idempotencyKey string) (*CachedResponse, bool) {
	raw, err := c.client.Get(ctx, c.key(idempotencyKey)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "idempotency cache get failed", "error", err, "idempotencyKey", idempotencyKey)
		}
		return nil, false
	}

	var resp CachedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.WarnContext(ctx, "idempotency cache payload corrupt", "error", err, "idempotencyKey", idempotencyKey)
		return nil, false
	}

	return &resp, true
}

func (c *RedisIdempotencyCache) Set(ctx context.Context, idempotencyKey string, response CachedResponse, ttl time.Duration) {
	raw, err := json.Marshal(response)
	if err != nil {
		c.logger.WarnContext(ctx, "idempotency cache marshal failed", "error", err, "idempotencyKey", idempotencyKey)
		return
	}

	if err := c.client.SetEx(ctx, c.key(idempotencyKey), raw, ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "idempotency cache set failed", "error", err, "idempotencyKey", idempotencyKey)
	}
}
