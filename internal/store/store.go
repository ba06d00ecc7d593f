package store

import (
	"context"
	"sync"

	"estate-notify-go/internal/models"
	"estate-notify-go/internal/platform"
)

// NotificationCache is the query-cache layer the reconciler reads through.
// Implementations hold the last fetched list verbatim. Read-state changes
// go through invalidate-and-refetch, never in-place edits, so the cache
// can't drift from server truth.
type NotificationCache interface {
	// Get returns the cached list and whether the cache was warm.
	Get(ctx context.Context) ([]models.Notification, bool, error)
	Set(ctx context.Context, records []models.Notification) error
	Invalidate(ctx context.Context) error
}

// MemoryCache is an in-process NotificationCache, used by tests and by
// deployments that run without Redis.
type MemoryCache struct {
	mu      sync.Mutex
	records []models.Notification
	warm    bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(ctx context.Context) ([]models.Notification, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.warm {
		return nil, false, nil
	}
	out := make([]models.Notification, len(c.records))
	copy(out, c.records)
	return out, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, records []models.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make([]models.Notification, len(records))
	copy(c.records, records)
	c.warm = true
	return nil
}

func (c *MemoryCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
	c.warm = false
	return nil
}

// MemoryProfileStore keeps a device profile in memory. Test use only; real
// deployments persist profiles in PostgreSQL so permission stickiness and
// subscription identity survive restarts.
type MemoryProfileStore struct {
	mu      sync.Mutex
	profile *platform.Profile
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{}
}

func (s *MemoryProfileStore) Load(ctx context.Context) (*platform.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil, nil
	}
	p := *s.profile
	if s.profile.Subscription != nil {
		sub := *s.profile.Subscription
		p.Subscription = &sub
	}
	return &p, nil
}

func (s *MemoryProfileStore) Save(ctx context.Context, p *platform.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	if p.Subscription != nil {
		sub := *p.Subscription
		cp.Subscription = &sub
	}
	s.profile = &cp
	return nil
}
