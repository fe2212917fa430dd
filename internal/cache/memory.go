package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

type memoryCounter struct {
	n         int64
	expiresAt time.Time
}

// MemoryCache is an in-process Cache. Nothing survives a restart.
type MemoryCache struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	lists    map[string][][]byte
	counters map[string]memoryCounter
	now      func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:  make(map[string]memoryEntry),
		lists:    make(map[string][][]byte),
		counters: make(map[string]memoryCounter),
		now:      time.Now,
	}
}

func (c *MemoryCache) Ping(_ context.Context) error { return nil }
func (c *MemoryCache) Close() error                 { return nil }

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := memoryEntry{value: clone(value)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return clone(e.value), true, nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		delete(c.entries, k)
		delete(c.lists, k)
		delete(c.counters, k)
	}
	return nil
}

func (c *MemoryCache) PushCapped(_ context.Context, key string, value []byte, max int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := append([][]byte{clone(value)}, c.lists[key]...)
	if max > 0 && len(list) > max {
		list = list[:max]
	}
	c.lists[key] = list
	return nil
}

func (c *MemoryCache) Range(_ context.Context, key string) ([][]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.lists[key]
	out := make([][]byte, len(list))
	for i, v := range list {
		out[i] = clone(v)
	}
	return out, nil
}

func (c *MemoryCache) IncrWithExpiry(_ context.Context, key string, expiry time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	ctr := c.counters[key]
	if !now.Before(ctr.expiresAt) {
		ctr = memoryCounter{expiresAt: now.Add(expiry)}
	}
	ctr.n++
	c.counters[key] = ctr
	return ctr.n, nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var _ Cache = (*MemoryCache)(nil)
