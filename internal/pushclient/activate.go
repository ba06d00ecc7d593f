package pushclient

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	webpush "github.com/SherClockHolmes/webpush-go"

	"estate-notify-go/internal/platform"
)

// Status classifies an activation attempt.
type Status int

const (
	// StatusRegistered: a subscription exists and was serialized. The
	// backend registration callback may still have failed; that is logged,
	// not fatal.
	StatusRegistered Status = iota
	// StatusUnavailable: push is not usable right now (missing capability,
	// no VAPID key, permission denied). Best-effort feature, not an error.
	StatusUnavailable
	// StatusFailed: the platform broke after every precondition passed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRegistered:
		return "registered"
	case StatusUnavailable:
		return "unavailable"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Unavailability reasons reported in Outcome.Reason.
const (
	ReasonNotSupported     = "not supported"
	ReasonKeyUnavailable   = "vapid key unavailable"
	ReasonPermissionDenied = "permission denied"
)

// Outcome is the tagged result of one activation: registered with a
// payload, unavailable for a named reason, or failed with an error.
type Outcome struct {
	Status  Status
	Payload *webpush.Subscription
	Reason  string
	Err     error
}

// RegisterFunc persists a serialized subscription server-side, associated
// with whatever identity the caller is operating as.
type RegisterFunc func(ctx context.Context, payload *webpush.Subscription) error

// Flow runs the push activation sequence: capability check, VAPID key,
// worker registration, permission, get-or-create subscription, serialize,
// backend registration.
type Flow struct {
	platform platform.Platform
	keys     *KeyCache
	register RegisterFunc

	mu       sync.Mutex
	inflight chan struct{}
	last     Outcome
}

func NewFlow(p platform.Platform, keys *KeyCache, register RegisterFunc) *Flow {
	return &Flow{platform: p, keys: keys, register: register}
}

// Activate runs the flow. Concurrent calls coalesce onto a single in-flight
// run and share its outcome, so a double trigger can't race two backend
// registrations.
func (f *Flow) Activate(ctx context.Context) Outcome {
	f.mu.Lock()
	if f.inflight != nil {
		done := f.inflight
		f.mu.Unlock()
		<-done
		f.mu.Lock()
		out := f.last
		f.mu.Unlock()
		return out
	}
	done := make(chan struct{})
	f.inflight = done
	f.mu.Unlock()

	out := f.run(ctx)

	f.mu.Lock()
	f.last = out
	f.inflight = nil
	f.mu.Unlock()
	close(done)
	return out
}

func (f *Flow) run(ctx context.Context) Outcome {
	perms := f.platform.Permissions()
	sw := f.platform.ServiceWorker()
	if perms == nil || sw == nil {
		log.Println("Push is not supported on this platform")
		return Outcome{Status: StatusUnavailable, Reason: ReasonNotSupported}
	}

	key := f.keys.Get(ctx)
	if key == "" {
		log.Println("No VAPID key available, skipping push activation")
		return Outcome{Status: StatusUnavailable, Reason: ReasonKeyUnavailable}
	}

	reg, err := EnsureRegistration(ctx, sw)
	if err != nil {
		if errors.Is(err, platform.ErrNotSupported) {
			return Outcome{Status: StatusUnavailable, Reason: ReasonNotSupported}
		}
		return Outcome{Status: StatusFailed, Err: fmt.Errorf("service worker: %w", err)}
	}

	if err := RequestPermission(ctx, perms); err != nil {
		switch {
		case errors.Is(err, platform.ErrPermissionDenied):
			log.Println("Notification permission denied, push stays off")
			return Outcome{Status: StatusUnavailable, Reason: ReasonPermissionDenied}
		case errors.Is(err, platform.ErrNotSupported):
			return Outcome{Status: StatusUnavailable, Reason: ReasonNotSupported}
		default:
			return Outcome{Status: StatusFailed, Err: err}
		}
	}

	sub, err := GetOrCreateSubscription(ctx, reg, key)
	if err != nil {
		if errors.Is(err, ErrKeyMissing) {
			return Outcome{Status: StatusUnavailable, Reason: ReasonKeyUnavailable}
		}
		return Outcome{Status: StatusFailed, Err: err}
	}

	payload, err := ToWireFormat(sub)
	if err != nil {
		return Outcome{Status: StatusFailed, Err: err}
	}

	if f.register != nil {
		if err := f.register(ctx, payload); err != nil {
			// The local subscription is valid whether or not the backend
			// stored it; a later activation can re-register without
			// re-subscribing.
			log.Printf("Backend subscription registration failed: %v", err)
		}
	}

	return Outcome{Status: StatusRegistered, Payload: payload}
}
