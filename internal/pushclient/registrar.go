package pushclient

import (
	"context"
	"errors"
	"fmt"

	"estate-notify-go/internal/platform"
)

// The worker lives at a fixed well-known path with root scope.
const (
	WorkerScript = "/sw.js"
	WorkerScope  = "/"
)

// EnsureRegistration returns the active service worker registration,
// registering the worker if none exists. An already-ready registration is
// always reused so repeated activations don't re-register.
func EnsureRegistration(ctx context.Context, sw platform.Registrar) (platform.Registration, error) {
	if sw == nil {
		return nil, platform.ErrNotSupported
	}

	reg, err := sw.Ready(ctx)
	if err == nil {
		return reg, nil
	}
	if !errors.Is(err, platform.ErrNoRegistration) {
		return nil, fmt.Errorf("service worker ready: %w", err)
	}

	reg, regErr := sw.Register(ctx, WorkerScript, WorkerScope)
	if regErr == nil {
		return reg, nil
	}

	// Another context may have registered the worker while our attempt
	// failed; check readiness once more before giving up.
	if reg, err := sw.Ready(ctx); err == nil {
		return reg, nil
	}
	return nil, fmt.Errorf("register service worker: %w", regErr)
}
