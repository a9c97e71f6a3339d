package bridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-ctap/biometry/pkg/biometry"
	"github.com/go-ctap/biometry/pkg/biometrytypes"
	"github.com/go-ctap/biometry/pkg/manifest"
	"github.com/go-ctap/biometry/pkg/options"
	"github.com/go-ctap/biometry/pkg/platform"
)

type fakeEvaluator struct {
	capability platform.Capability
	evalErr    error
	lastOpts   platform.EvaluateOptions
}

func (f *fakeEvaluator) CanEvaluate(_ context.Context) platform.Capability {
	return f.capability
}

func (f *fakeEvaluator) Evaluate(_ context.Context, opts platform.EvaluateOptions) error {
	f.lastOpts = opts
	return f.evalErr
}

func newTestRegistry(fake *fakeEvaluator) *Registry {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := biometry.NewClient(
		options.WithLogger(logger),
		options.WithEvaluator(fake),
		options.WithManifest(manifest.Static{}),
	)
	return NewRegistry(client, options.WithLogger(logger))
}

func TestRegistry_UnknownOperation(t *testing.T) {
	registry := newTestRegistry(&fakeEvaluator{})

	_, err := registry.Handle(context.Background(), "enrollFingerprint", nil)
	assert.ErrorIs(t, err, ErrUnknownOperation)

	assert.ElementsMatch(t, []string{OperationCheckBiometry, OperationAuthenticate}, registry.Operations())
}

func TestRegistry_CheckBiometry(t *testing.T) {
	registry := newTestRegistry(&fakeEvaluator{capability: platform.Capability{
		Available: true,
		Kind:      biometrytypes.BiometryTypeFingerprint,
	}})

	payload, err := registry.Handle(context.Background(), OperationCheckBiometry, nil)
	require.NoError(t, err)

	var result biometrytypes.AvailabilityResult
	require.NoError(t, cbor.Unmarshal(payload, &result))
	assert.True(t, result.IsAvailable)
	assert.Equal(t, biometrytypes.BiometryTypeFingerprint, result.BiometryType)
	assert.Equal(t, []biometrytypes.BiometryType{biometrytypes.BiometryTypeFingerprint}, result.BiometryTypes)
}

func TestRegistry_Authenticate_KeepsAbsentAndEmptyApart(t *testing.T) {
	fake := &fakeEvaluator{capability: platform.Capability{
		Available: true,
		Kind:      biometrytypes.BiometryTypeFingerprint,
	}}
	registry := newTestRegistry(fake)

	// Absent fallbackTitle: the default label is used.
	payload, err := cbor.Marshal(map[string]any{
		"reason": "Unlock vault",
	})
	require.NoError(t, err)

	result, err := registry.Handle(context.Background(), OperationAuthenticate, payload)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, "Unlock vault", fake.lastOpts.Reason)
	title, ok := fake.lastOpts.FallbackTitle.Get()
	assert.True(t, ok)
	assert.Equal(t, biometry.DefaultFallbackTitle, title)

	// Empty fallbackTitle with the device credential allowed: no label.
	payload, err = cbor.Marshal(map[string]any{
		"fallbackTitle":         "",
		"allowDeviceCredential": true,
	})
	require.NoError(t, err)

	_, err = registry.Handle(context.Background(), OperationAuthenticate, payload)
	require.NoError(t, err)
	assert.True(t, fake.lastOpts.FallbackTitle.IsAbsent())
	assert.True(t, fake.lastOpts.AllowDeviceCredential)
}

func TestRegistry_Authenticate_Rejection(t *testing.T) {
	fake := &fakeEvaluator{
		capability: platform.Capability{
			Available: true,
			Kind:      biometrytypes.BiometryTypeFingerprint,
		},
		evalErr: &biometrytypes.PlatformError{
			Code:        biometrytypes.PlatformCodeUserCancel,
			Description: "Canceled by user.",
		},
	}
	registry := newTestRegistry(fake)

	_, err := registry.Handle(context.Background(), OperationAuthenticate, nil)
	require.Error(t, err)

	var authErr *biometrytypes.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, biometrytypes.ErrorCodeUserCancel, authErr.Code)
}

func TestRegistry_Authenticate_MalformedPayload(t *testing.T) {
	registry := newTestRegistry(&fakeEvaluator{})

	_, err := registry.Handle(context.Background(), OperationAuthenticate, []byte{0xff, 0x00})
	require.Error(t, err)

	var authErr *biometrytypes.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, biometrytypes.ErrorCodeInvalidContext, authErr.Code)
}

func TestEnvelopeFromError(t *testing.T) {
	env := EnvelopeFromError(&biometrytypes.AuthError{
		Message: "Biometry is locked out.",
		Code:    biometrytypes.ErrorCodeBiometryLockout,
	})
	assert.Equal(t, "Biometry is locked out.", env.Message)
	assert.Equal(t, "biometryLockout", env.Code)

	env = EnvelopeFromError(errors.New("plumbing failure"))
	assert.Equal(t, "plumbing failure", env.Message)
	assert.Empty(t, env.Code)
}
