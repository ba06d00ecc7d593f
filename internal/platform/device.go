package platform

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// PromptDecision is what the device answers when the permission prompt
// fires. A headless agent has no user to ask, so the answer is configured
// up front.
type PromptDecision string

const (
	PromptAccept PromptDecision = "accept"
	PromptDeny   PromptDecision = "deny"
)

// DeviceConfig configures the headless device.
type DeviceConfig struct {
	// PushServiceURL is the base URL minted endpoints live under.
	PushServiceURL string
	// Decision is the configured answer to the permission prompt.
	Decision PromptDecision
}

// Device is a headless stand-in for the browser platform: one profile with
// a three-state permission, at most one worker registration, and at most
// one push subscription. All state round-trips through a ProfileStore so
// it survives restarts.
type Device struct {
	cfg   DeviceConfig
	store ProfileStore

	mu      sync.Mutex
	profile Profile
	loaded  bool
}

func NewDevice(cfg DeviceConfig, store ProfileStore) *Device {
	return &Device{cfg: cfg, store: store}
}

func (d *Device) Permissions() Permissions { return (*devicePermissions)(d) }
func (d *Device) ServiceWorker() Registrar { return (*deviceRegistrar)(d) }

// load pulls the profile from the store on first use.
func (d *Device) load(ctx context.Context) error {
	if d.loaded {
		return nil
	}
	p, err := d.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load device profile: %w", err)
	}
	if p != nil {
		d.profile = *p
	}
	if d.profile.Permission == "" {
		d.profile.Permission = PermissionDefault
	}
	d.loaded = true
	return nil
}

func (d *Device) save(ctx context.Context) error {
	p := d.profile
	if err := d.store.Save(ctx, &p); err != nil {
		return fmt.Errorf("save device profile: %w", err)
	}
	return nil
}

type devicePermissions Device

func (dp *devicePermissions) State(ctx context.Context) (PermissionState, error) {
	d := (*Device)(dp)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.load(ctx); err != nil {
		return "", err
	}
	return d.profile.Permission, nil
}

func (dp *devicePermissions) Request(ctx context.Context) (PermissionState, error) {
	d := (*Device)(dp)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.load(ctx); err != nil {
		return "", err
	}
	// Granted and denied are both final; the prompt only fires from default.
	if d.profile.Permission != PermissionDefault {
		return d.profile.Permission, nil
	}
	if d.cfg.Decision == PromptDeny {
		d.profile.Permission = PermissionDenied
	} else {
		d.profile.Permission = PermissionGranted
	}
	if err := d.save(ctx); err != nil {
		return "", err
	}
	return d.profile.Permission, nil
}

type deviceRegistrar Device

func (dr *deviceRegistrar) Ready(ctx context.Context) (Registration, error) {
	d := (*Device)(dr)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.load(ctx); err != nil {
		return nil, err
	}
	if d.profile.WorkerScript == "" {
		return nil, ErrNoRegistration
	}
	return &deviceRegistration{device: d}, nil
}

func (dr *deviceRegistrar) Register(ctx context.Context, scriptPath, scope string) (Registration, error) {
	d := (*Device)(dr)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.load(ctx); err != nil {
		return nil, err
	}
	if scriptPath == "" {
		return nil, errors.New("platform: worker script path is required")
	}
	if scope == "" {
		scope = "/"
	}
	d.profile.WorkerScript = scriptPath
	d.profile.WorkerScope = scope
	if err := d.save(ctx); err != nil {
		return nil, err
	}
	return &deviceRegistration{device: d}, nil
}

type deviceRegistration struct {
	device *Device
}

func (r *deviceRegistration) ScriptPath() string {
	r.device.mu.Lock()
	defer r.device.mu.Unlock()
	return r.device.profile.WorkerScript
}

func (r *deviceRegistration) Scope() string {
	r.device.mu.Lock()
	defer r.device.mu.Unlock()
	return r.device.profile.WorkerScope
}

func (r *deviceRegistration) Push() PushManager {
	return &devicePushManager{device: r.device}
}

type devicePushManager struct {
	device *Device
}

func (pm *devicePushManager) Subscription(ctx context.Context) (*Subscription, error) {
	d := pm.device
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.load(ctx); err != nil {
		return nil, err
	}
	if d.profile.Subscription == nil {
		return nil, ErrNoSubscription
	}
	sub := *d.profile.Subscription
	return &sub, nil
}

func (pm *devicePushManager) Subscribe(ctx context.Context, opts SubscribeOptions) (*Subscription, error) {
	d := pm.device
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.load(ctx); err != nil {
		return nil, err
	}
	// One subscription per profile. A second subscribe returns the existing
	// one untouched, as the browser push manager does.
	if d.profile.Subscription != nil {
		sub := *d.profile.Subscription
		return &sub, nil
	}
	if !opts.UserVisibleOnly {
		return nil, errors.New("platform: subscriptions must be user visible")
	}
	if err := validateServerKey(opts.ApplicationServerKey); err != nil {
		return nil, err
	}

	sub, err := mintSubscription(d.cfg.PushServiceURL)
	if err != nil {
		return nil, err
	}
	d.profile.Subscription = sub
	if err := d.save(ctx); err != nil {
		d.profile.Subscription = nil
		return nil, err
	}
	out := *sub
	return &out, nil
}

func (pm *devicePushManager) Unsubscribe(ctx context.Context) error {
	d := pm.device
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.load(ctx); err != nil {
		return err
	}
	if d.profile.Subscription == nil {
		return nil
	}
	d.profile.Subscription = nil
	return d.save(ctx)
}

// validateServerKey checks the application server key is an uncompressed
// P-256 point, which is what a VAPID public key decodes to.
func validateServerKey(key []byte) error {
	if len(key) == 0 {
		return errors.New("platform: application server key is required")
	}
	if len(key) != 65 || key[0] != 0x04 {
		return fmt.Errorf("platform: application server key is not an uncompressed P-256 point (%d bytes)", len(key))
	}
	return nil
}

// mintSubscription creates fresh channel credentials: a random endpoint
// under the push service, a P-256 key pair for message encryption, and a
// 16-byte auth secret. The private half of the key pair is not retained;
// this agent never decrypts payloads.
func mintSubscription(pushServiceURL string) (*Subscription, error) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate subscription key: %w", err)
	}

	auth := make([]byte, 16)
	if _, err := rand.Read(auth); err != nil {
		return nil, fmt.Errorf("generate auth secret: %w", err)
	}

	token := make([]byte, 24)
	if _, err := rand.Read(token); err != nil {
		return nil, fmt.Errorf("generate endpoint token: %w", err)
	}

	base := strings.TrimRight(pushServiceURL, "/")
	if base == "" {
		base = "https://push.invalid"
	}

	return &Subscription{
		Endpoint: base + "/wp/" + base64.RawURLEncoding.EncodeToString(token),
		P256dh:   priv.PublicKey().Bytes(),
		Auth:     auth,
	}, nil
}
