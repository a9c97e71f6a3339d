package platform

import (
	"context"
	"errors"
	"time"

	"github.com/go-ctap/biometry/pkg/biometrytypes"
	"github.com/samber/mo"
)

var ErrUnrecognizedPlatformFailure = errors.New("platform: unrecognized platform failure")

// Capability is the platform's answer to "can device-owner authentication
// with biometrics be evaluated right now".
type Capability struct {
	Available bool
	Kind      biometrytypes.BiometryType
	Err       *biometrytypes.PlatformError
}

// EvaluateOptions configures a single prompt evaluation. A fresh value is
// passed per call; nothing is shared between evaluations.
type EvaluateOptions struct {
	Reason                string
	FallbackTitle         mo.Option[string]
	CancelTitle           mo.Option[string]
	AllowDeviceCredential bool
	// ReuseDuration is the biometric-reuse grace window. The client always
	// passes zero so a recent unlock never silently satisfies a new call.
	ReuseDuration time.Duration
}

// Evaluator is the outbound interface to the host platform's
// authentication service.
type Evaluator interface {
	// CanEvaluate queries biometric capability. It never blocks on user
	// interaction.
	CanEvaluate(ctx context.Context) Capability

	// Evaluate renders the system authentication prompt and blocks until
	// its single completion. A nil return means the user proved their
	// identity; a *biometrytypes.PlatformError carries the platform's
	// failure; ErrUnrecognizedPlatformFailure wraps anything else.
	Evaluate(ctx context.Context, opts EvaluateOptions) error
}

// New returns the Evaluator for the current operating system.
func New() Evaluator {
	return newPlatformEvaluator()
}
