package bridgeproxy

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-ctap/biometry/pkg/biometry"
	"github.com/go-ctap/biometry/pkg/biometrytypes"
	"github.com/go-ctap/biometry/pkg/bridge"
	"github.com/go-ctap/biometry/pkg/manifest"
	"github.com/go-ctap/biometry/pkg/options"
	"github.com/go-ctap/biometry/pkg/platform"
)

type fakeEvaluator struct {
	capability platform.Capability
	evalErr    error
}

func (f *fakeEvaluator) CanEvaluate(_ context.Context) platform.Capability {
	return f.capability
}

func (f *fakeEvaluator) Evaluate(_ context.Context, _ platform.EvaluateOptions) error {
	return f.evalErr
}

func newTestServer(fake *fakeEvaluator) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := biometry.NewClient(
		options.WithLogger(logger),
		options.WithEvaluator(fake),
		options.WithManifest(manifest.Static{}),
	)
	registry := bridge.NewRegistry(client, options.WithLogger(logger))
	return NewServer(registry, options.WithLogger(logger))
}

func call(t *testing.T, server *Server, request *Message) *Message {
	t.Helper()

	hostSide, pluginSide := net.Pipe()
	defer func() {
		_ = hostSide.Close()
	}()
	go server.serveConn(context.Background(), pluginSide)

	_, err := request.WriteTo(hostSide)
	require.NoError(t, err)

	response, err := ParseMessage(hostSide)
	require.NoError(t, err)
	return response
}

func TestServer_CheckBiometry(t *testing.T) {
	server := newTestServer(&fakeEvaluator{capability: platform.Capability{
		Available: true,
		Kind:      biometrytypes.BiometryTypeFace,
	}})

	response := call(t, server, NewRawMessage(CommandCheckBiometry, nil))
	require.Equal(t, CommandOK, response.Command)

	var result biometrytypes.AvailabilityResult
	require.NoError(t, cbor.Unmarshal(response.Data, &result))
	// No disclosure string is configured, so face capability is reported
	// unavailable with the specific diagnostic code.
	assert.False(t, result.IsAvailable)
	assert.Equal(t, biometrytypes.BiometryTypeFace, result.BiometryType)
	assert.Equal(t, biometrytypes.ErrorCodeBiometryNotAvailable, result.Code)
}

func TestServer_AuthenticateSuccess(t *testing.T) {
	server := newTestServer(&fakeEvaluator{capability: platform.Capability{
		Available: true,
		Kind:      biometrytypes.BiometryTypeFingerprint,
	}})

	request, err := NewMessage(CommandAuthenticate, map[string]any{
		"reason": "Unlock vault",
	})
	require.NoError(t, err)

	response := call(t, server, request)
	assert.Equal(t, CommandOK, response.Command)
	assert.Empty(t, response.Data)
}

func TestServer_AuthenticateRejection(t *testing.T) {
	server := newTestServer(&fakeEvaluator{
		capability: platform.Capability{
			Available: true,
			Kind:      biometrytypes.BiometryTypeFingerprint,
		},
		evalErr: &biometrytypes.PlatformError{
			Code:        biometrytypes.PlatformCodeBiometryLockout,
			Description: "Biometry is locked out.",
		},
	})

	response := call(t, server, NewRawMessage(CommandAuthenticate, nil))
	require.Equal(t, CommandError, response.Command)

	var envelope bridge.ErrorEnvelope
	require.NoError(t, cbor.Unmarshal(response.Data, &envelope))
	assert.Equal(t, "biometryLockout", envelope.Code)
	assert.Equal(t, "Biometry is locked out.", envelope.Message)
}

func TestServer_UnknownCommand(t *testing.T) {
	server := newTestServer(&fakeEvaluator{})

	// A response-class command is not dispatchable.
	response := call(t, server, NewRawMessage(CommandOK, nil))
	require.Equal(t, CommandError, response.Command)

	var envelope bridge.ErrorEnvelope
	require.NoError(t, cbor.Unmarshal(response.Data, &envelope))
	assert.Equal(t, bridge.ErrUnknownOperation.Error(), envelope.Message)
	assert.Empty(t, envelope.Code)
}
