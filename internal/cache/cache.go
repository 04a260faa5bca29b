package cache

import (
	"context"
	"sync"
	"time"
)

// Clearer wipes the downstream API response cache. The session manager
// clears it on every logout so no authenticated data survives into the next
// session, even when the next user on the device differs.
type Clearer interface {
	Clear(ctx context.Context) error
}

type NoopClearer struct{}

func NewNoopClearer() *NoopClearer { return &NoopClearer{} }

func (*NoopClearer) Clear(context.Context) error { return nil }

// MemoryQueryCache is the in-process response cache used when no redis is
// configured.
type MemoryQueryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

func NewMemoryQueryCache() *MemoryQueryCache {
	return &MemoryQueryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryQueryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.payload, true, nil
}

func (c *MemoryQueryCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{payload: payload, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *MemoryQueryCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
	return nil
}
