package pushclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate-notify-go/internal/platform"
)

// fakeRegistrar scripts successive Ready results and one Register result.
type fakeRegistrar struct {
	readyResults []error // nil means Ready succeeds on that call
	readyCalls   int
	registerErr  error
	registerCalls int
	reg          platform.Registration
}

func (f *fakeRegistrar) Ready(ctx context.Context) (platform.Registration, error) {
	idx := f.readyCalls
	f.readyCalls++
	if idx >= len(f.readyResults) {
		idx = len(f.readyResults) - 1
	}
	if err := f.readyResults[idx]; err != nil {
		return nil, err
	}
	return f.reg, nil
}

func (f *fakeRegistrar) Register(ctx context.Context, scriptPath, scope string) (platform.Registration, error) {
	f.registerCalls++
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.reg, nil
}

func TestEnsureRegistrationReusesReady(t *testing.T) {
	reg := &fakeRegistration{pm: &fakePushManager{}}
	sw := &fakeRegistrar{readyResults: []error{nil}, reg: reg}

	got, err := EnsureRegistration(context.Background(), sw)
	require.NoError(t, err)
	assert.Same(t, platform.Registration(reg), got)
	assert.Zero(t, sw.registerCalls, "an existing registration must be reused")
}

func TestEnsureRegistrationRegisters(t *testing.T) {
	reg := &fakeRegistration{pm: &fakePushManager{}}
	sw := &fakeRegistrar{readyResults: []error{platform.ErrNoRegistration}, reg: reg}

	got, err := EnsureRegistration(context.Background(), sw)
	require.NoError(t, err)
	assert.Same(t, platform.Registration(reg), got)
	assert.Equal(t, 1, sw.registerCalls)
}

func TestEnsureRegistrationRaceFallback(t *testing.T) {
	// Register fails, but a second readiness check finds a registration
	// that appeared in the meantime.
	reg := &fakeRegistration{pm: &fakePushManager{}}
	sw := &fakeRegistrar{
		readyResults: []error{platform.ErrNoRegistration, nil},
		registerErr:  errors.New("registration rejected"),
		reg:          reg,
	}

	got, err := EnsureRegistration(context.Background(), sw)
	require.NoError(t, err)
	assert.Same(t, platform.Registration(reg), got)
}

func TestEnsureRegistrationPropagatesRegisterError(t *testing.T) {
	registerErr := errors.New("registration rejected")
	sw := &fakeRegistrar{
		readyResults: []error{platform.ErrNoRegistration, platform.ErrNoRegistration},
		registerErr:  registerErr,
	}

	_, err := EnsureRegistration(context.Background(), sw)
	require.Error(t, err)
	assert.ErrorIs(t, err, registerErr)
}

func TestEnsureRegistrationUnexpectedReadyError(t *testing.T) {
	readyErr := errors.New("worker crashed")
	sw := &fakeRegistrar{readyResults: []error{readyErr}}

	_, err := EnsureRegistration(context.Background(), sw)
	require.Error(t, err)
	assert.ErrorIs(t, err, readyErr)
	assert.Zero(t, sw.registerCalls)
}

func TestEnsureRegistrationNilRegistrar(t *testing.T) {
	_, err := EnsureRegistration(context.Background(), nil)
	assert.ErrorIs(t, err, platform.ErrNotSupported)
}
