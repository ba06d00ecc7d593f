package pushclient

import (
	"context"
	"fmt"

	"estate-notify-go/internal/platform"
)

// RequestPermission reduces the three-state permission model to a single
// capability check. Granted passes immediately without re-prompting.
// Denied fails immediately with platform.ErrPermissionDenied — denial is
// sticky and the prompt must never be shown again; the caller can tell the
// operator to change it in settings instead of silently retrying. Only the
// default state fires the prompt, exactly once.
func RequestPermission(ctx context.Context, perms platform.Permissions) error {
	if perms == nil {
		return platform.ErrNotSupported
	}

	state, err := perms.State(ctx)
	if err != nil {
		return fmt.Errorf("query notification permission: %w", err)
	}
	switch state {
	case platform.PermissionGranted:
		return nil
	case platform.PermissionDenied:
		return platform.ErrPermissionDenied
	}

	state, err = perms.Request(ctx)
	if err != nil {
		return fmt.Errorf("request notification permission: %w", err)
	}
	if state != platform.PermissionGranted {
		return platform.ErrPermissionDenied
	}
	return nil
}
