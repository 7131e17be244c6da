package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryIdempotencyCache is an in-process IdempotencyCache double used by
// engine tests in place of a live Redis instance. It
// implements the same get/set-with-ttl semantics as the Redis-backed
// implementation, including passive expiry on read.
type MemoryIdempotencyCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	response  CachedResponse
	expiresAt time.Time
}

func NewMemoryIdempotencyCache() *MemoryIdempotencyCache {
	return &MemoryIdempotencyCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryIdempotencyCache) Get(_ context.Context, idempotencyKey string) (*CachedResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[idempotencyKey]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, idempotencyKey)
		return nil, false
	}

	resp := entry.response
	return &resp, true
}

func (c *MemoryIdempotencyCache) Set(_ context.Context, idempotencyKey string, response CachedResponse, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[idempotencyKey] = memoryEntry{
		response:  response,
		expiresAt: time.Now().Add(ttl),
	}
}
