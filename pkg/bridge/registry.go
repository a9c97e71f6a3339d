// Package bridge maps host-shell operation names onto the biometry client
// through an explicit registration table built at construction time; no
// reflection or annotation binding is involved.
package bridge

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fxamacker/cbor/v2"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/go-ctap/biometry/pkg/biometry"
	"github.com/go-ctap/biometry/pkg/biometrytypes"
	"github.com/go-ctap/biometry/pkg/options"
)

const (
	OperationCheckBiometry = "checkBiometry"
	OperationAuthenticate  = "authenticate"
)

var ErrUnknownOperation = errors.New("bridge: unknown operation")

// Handler consumes a CBOR-encoded request payload and produces a
// CBOR-encoded result payload. A nil result with a nil error is a success
// with an empty payload.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

type Registry struct {
	logger   *slog.Logger
	handlers map[string]Handler
}

func NewRegistry(client *biometry.Client, opts ...options.Option) *Registry {
	oo := options.NewOptions(opts...)

	r := &Registry{
		logger:   oo.Logger,
		handlers: make(map[string]Handler),
	}
	r.Register(OperationCheckBiometry, checkBiometryHandler(client))
	r.Register(OperationAuthenticate, authenticateHandler(client))

	return r
}

// Register binds an operation name to a handler, replacing any previous
// binding for that name.
func (r *Registry) Register(operation string, handler Handler) {
	r.handlers[operation] = handler
}

// Operations lists the registered operation names.
func (r *Registry) Operations() []string {
	return lo.Keys(r.handlers)
}

// Handle dispatches one operation call.
func (r *Registry) Handle(ctx context.Context, operation string, payload []byte) ([]byte, error) {
	handler, ok := r.handlers[operation]
	if !ok {
		r.logger.Debug("operation not registered", "operation", operation)
		return nil, ErrUnknownOperation
	}

	return handler(ctx, payload)
}

func checkBiometryHandler(client *biometry.Client) Handler {
	return func(ctx context.Context, _ []byte) ([]byte, error) {
		result := client.CheckBiometry(ctx)
		return cbor.Marshal(result)
	}
}

// authenticateRequest is the wire shape of the authenticate operation.
// Pointer fields keep the absent/empty distinction the prompt copy
// contract depends on.
type authenticateRequest struct {
	Reason                string  `cbor:"reason,omitempty"`
	FallbackTitle         *string `cbor:"fallbackTitle,omitempty"`
	CancelTitle           *string `cbor:"cancelTitle,omitempty"`
	AllowDeviceCredential bool    `cbor:"allowDeviceCredential,omitempty"`
}

func authenticateHandler(client *biometry.Client) Handler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req authenticateRequest
		if len(payload) > 0 {
			if err := cbor.Unmarshal(payload, &req); err != nil {
				return nil, &biometrytypes.AuthError{
					Message: "malformed authenticate payload: " + err.Error(),
					Code:    biometrytypes.ErrorCodeInvalidContext,
				}
			}
		}

		if err := client.Authenticate(ctx, biometrytypes.AuthenticateRequest{
			Reason:                req.Reason,
			FallbackTitle:         mo.PointerToOption(req.FallbackTitle),
			CancelTitle:           mo.PointerToOption(req.CancelTitle),
			AllowDeviceCredential: req.AllowDeviceCredential,
		}); err != nil {
			return nil, err
		}

		return nil, nil
	}
}

// ErrorEnvelope is the wire shape of a rejected operation.
type ErrorEnvelope struct {
	Message string `cbor:"message"`
	Code    string `cbor:"code,omitempty"`
}

// EnvelopeFromError flattens any handler error into the wire shape,
// preserving the code token when one is present.
func EnvelopeFromError(err error) ErrorEnvelope {
	var authErr *biometrytypes.AuthError
	if errors.As(err, &authErr) {
		return ErrorEnvelope{
			Message: authErr.Message,
			Code:    string(authErr.Code),
		}
	}

	return ErrorEnvelope{Message: err.Error()}
}
