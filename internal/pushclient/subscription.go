package pushclient

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"

	"estate-notify-go/internal/platform"
)

var (
	// ErrKeyMissing means no VAPID key was available at subscribe time. It
	// short-circuits before any platform call.
	ErrKeyMissing = errors.New("pushclient: VAPID key missing")

	// ErrKeysMissing means a subscription came back without its p256dh or
	// auth material. A valid subscription always has both, but platform
	// inconsistencies happen.
	ErrKeysMissing = errors.New("pushclient: subscription keys missing")
)

// GetOrCreateSubscription returns the registration's existing subscription
// untouched, or creates one bound to the given VAPID key. An existing
// subscription is never replaced here, even if it was created under a
// different key; unsubscribing first is the caller's call to make.
func GetOrCreateSubscription(ctx context.Context, reg platform.Registration, vapidKey string) (*platform.Subscription, error) {
	pm := reg.Push()

	sub, err := pm.Subscription(ctx)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, platform.ErrNoSubscription) {
		return nil, fmt.Errorf("read subscription: %w", err)
	}

	if vapidKey == "" {
		return nil, ErrKeyMissing
	}
	rawKey, err := DecodeVAPIDKey(vapidKey)
	if err != nil {
		return nil, fmt.Errorf("decode VAPID key: %w", err)
	}

	sub, err = pm.Subscribe(ctx, platform.SubscribeOptions{
		UserVisibleOnly:      true, // mandatory on every major browser
		ApplicationServerKey: rawKey,
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return sub, nil
}

// DecodeVAPIDKey decodes a URL-safe base64 VAPID key into raw bytes,
// restoring padding and substituting the URL-safe alphabet first.
func DecodeVAPIDKey(key string) ([]byte, error) {
	if pad := len(key) % 4; pad != 0 {
		key += strings.Repeat("=", 4-pad)
	}
	key = strings.ReplaceAll(key, "-", "+")
	key = strings.ReplaceAll(key, "_", "/")
	return base64.StdEncoding.DecodeString(key)
}

// ToWireFormat serializes a platform subscription into the payload the
// backend registration endpoints expect, with both keys standard-base64
// encoded.
func ToWireFormat(sub *platform.Subscription) (*webpush.Subscription, error) {
	if len(sub.P256dh) == 0 || len(sub.Auth) == 0 {
		return nil, ErrKeysMissing
	}
	return &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: base64.StdEncoding.EncodeToString(sub.P256dh),
			Auth:   base64.StdEncoding.EncodeToString(sub.Auth),
		},
	}, nil
}
