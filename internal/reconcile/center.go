package reconcile

import (
	"context"
	"fmt"
	"log"
	"time"

	"estate-notify-go/internal/metrics"
	"estate-notify-go/internal/models"
	"estate-notify-go/internal/store"
)

// Fetcher is the slice of the backend API the reconciler needs.
type Fetcher interface {
	Notifications(ctx context.Context) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
}

// Center reconciles server-side notification state with the local query
// cache. The cache only ever holds what the server returned; read-state
// mutations invalidate and refetch instead of editing cached records.
type Center struct {
	api   Fetcher
	cache store.NotificationCache
}

func NewCenter(api Fetcher, cache store.NotificationCache) *Center {
	return &Center{api: api, cache: cache}
}

// Refresh fetches the feed and replaces the cache with it. A cache write
// failure is logged, not fatal; the fetched records are still returned.
func (c *Center) Refresh(ctx context.Context) ([]models.Notification, error) {
	records, err := c.api.Notifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch notifications: %w", err)
	}
	if err := c.cache.Set(ctx, records); err != nil {
		log.Printf("Failed to cache notifications: %v", err)
	}
	return records, nil
}

// Notifications returns the cached feed, refreshing when the cache is cold
// or unreadable.
func (c *Center) Notifications(ctx context.Context) ([]models.Notification, error) {
	records, warm, err := c.cache.Get(ctx)
	if err != nil {
		log.Printf("Notification cache read failed: %v", err)
	} else if warm {
		return records, nil
	}
	return c.Refresh(ctx)
}

// MarkRead flips one record server-side, then invalidates and refetches so
// the next read reflects server truth. On failure nothing changes locally:
// the record stays unread on screen and the operator may simply try again.
func (c *Center) MarkRead(ctx context.Context, id string) error {
	if err := c.api.MarkRead(ctx, id); err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	metrics.MarkReads.WithLabelValues("single").Inc()
	c.resync(ctx)
	return nil
}

// MarkAllRead is the bulk variant. It never partially applies: either the
// backend call succeeds and every record reads as read on the next fetch,
// or it fails and none are assumed read.
func (c *Center) MarkAllRead(ctx context.Context) error {
	if err := c.api.MarkAllRead(ctx); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	metrics.MarkReads.WithLabelValues("all").Inc()
	c.resync(ctx)
	return nil
}

func (c *Center) resync(ctx context.Context) {
	if err := c.cache.Invalidate(ctx); err != nil {
		log.Printf("Failed to invalidate notification cache: %v", err)
	}
	if _, err := c.Refresh(ctx); err != nil {
		// The cache is cold now, so the next reader refetches anyway.
		log.Printf("Post-mutation refetch failed: %v", err)
	}
}

// DefaultPollInterval matches the front end's notification poll.
const DefaultPollInterval = 30 * time.Second

// Poller refetches the feed on a fixed interval. Polling is the only way
// server-side notifications reach this client — there is no real-time
// channel — so the display can lag the server by up to one interval.
type Poller struct {
	center   *Center
	interval time.Duration
}

func NewPoller(center *Center, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{center: center, interval: interval}
}

// Run polls until the context is cancelled, starting with an immediate
// refresh.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	records, err := p.center.Refresh(ctx)
	if err != nil {
		log.Printf("Notification poll failed: %v", err)
		metrics.PollFailures.Inc()
		return
	}
	metrics.PollCycles.Inc()
	metrics.UnreadNotifications.Set(float64(UnreadCount(records)))
}
