package pushclient

import (
	"context"
	"log"
	"sync"
)

// KeySource fetches the application server's public VAPID key.
type KeySource interface {
	VAPIDPublicKey(ctx context.Context) (string, error)
}

// KeyCache memoizes the VAPID public key for the lifetime of the process.
// It is an explicit value handed to the flow rather than a package global,
// so tests start from a clean slate. Nothing is persisted across restarts:
// the agent always re-syncs with whatever key the backend is configured
// with rather than trusting a stale one.
type KeyCache struct {
	source KeySource

	mu  sync.Mutex
	key string
}

func NewKeyCache(source KeySource) *KeyCache {
	return &KeyCache{source: source}
}

// Get returns the cached key, fetching it on first use. A fetch failure is
// logged and reported as an empty key: push is unavailable, not broken. A
// later call may fetch again; only success is cached.
func (c *KeyCache) Get(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key != "" {
		return c.key
	}
	key, err := c.source.VAPIDPublicKey(ctx)
	if err != nil {
		log.Printf("VAPID key fetch failed: %v", err)
		return ""
	}
	if key == "" {
		log.Println("VAPID key endpoint returned an empty key")
		return ""
	}
	c.key = key
	return key
}

// Set primes the cache with a known key.
func (c *KeyCache) Set(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = key
}
