package platform

import (
	"context"
	"errors"
)

// PermissionState is the three-state notification permission model.
type PermissionState string

const (
	PermissionDefault PermissionState = "default"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

var (
	// ErrNotSupported means the runtime has no notification or push capability.
	ErrNotSupported = errors.New("platform: capability not supported")

	// ErrPermissionDenied means notifications were denied. Denial is sticky;
	// callers must not prompt again.
	ErrPermissionDenied = errors.New("platform: notification permission denied")

	// ErrNoRegistration means no service worker registration exists yet.
	ErrNoRegistration = errors.New("platform: no service worker registration")

	// ErrNoSubscription means the registration has no push subscription yet.
	ErrNoSubscription = errors.New("platform: no push subscription")
)

// Permissions is the notification-permission surface.
type Permissions interface {
	State(ctx context.Context) (PermissionState, error)
	// Request shows the permission prompt and returns the resulting state.
	// Callers only invoke it from the default state.
	Request(ctx context.Context) (PermissionState, error)
}

// Subscription is one push channel: an opaque endpoint plus the key
// material a sender needs to encrypt payloads for it.
type Subscription struct {
	Endpoint string
	P256dh   []byte
	Auth     []byte
}

// SubscribeOptions mirror the push manager's subscribe options.
type SubscribeOptions struct {
	UserVisibleOnly      bool
	ApplicationServerKey []byte
}

// PushManager issues and returns subscriptions for one registration. At
// most one subscription exists per registration; Subscribe with one
// already present returns it unchanged.
type PushManager interface {
	// Subscription returns the existing subscription, or ErrNoSubscription.
	Subscription(ctx context.Context) (*Subscription, error)
	Subscribe(ctx context.Context, opts SubscribeOptions) (*Subscription, error)
	Unsubscribe(ctx context.Context) error
}

// Registration is an active service worker registration.
type Registration interface {
	ScriptPath() string
	Scope() string
	Push() PushManager
}

// Registrar manages the service worker lifecycle for one profile.
type Registrar interface {
	// Ready returns the active registration, or ErrNoRegistration.
	Ready(ctx context.Context) (Registration, error)
	Register(ctx context.Context, scriptPath, scope string) (Registration, error)
}

// Platform bundles the capability surfaces. A nil surface means the
// capability is absent from the runtime.
type Platform interface {
	Permissions() Permissions
	ServiceWorker() Registrar
}

// Profile is the durable state of one device: its permission decision, its
// worker registration, and its push subscription, if any.
type Profile struct {
	Permission   PermissionState
	WorkerScript string
	WorkerScope  string
	Subscription *Subscription
}

// ProfileStore persists a device profile across restarts, so permission
// stickiness and subscription idempotence outlive the process.
type ProfileStore interface {
	// Load returns the saved profile, or nil when none exists yet.
	Load(ctx context.Context) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
}
