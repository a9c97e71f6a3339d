// Package biometry exposes the host operating system's biometric
// authentication capability: a synchronous availability check and a
// single-shot, platform-rendered authentication prompt.
package biometry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/go-ctap/biometry/pkg/biometrytypes"
	"github.com/go-ctap/biometry/pkg/manifest"
	"github.com/go-ctap/biometry/pkg/options"
	"github.com/go-ctap/biometry/pkg/platform"
)

const (
	// DefaultReason is used when the caller supplies no prompt message.
	DefaultReason = "Access requires authentication"
	// DefaultFallbackTitle labels the passcode affordance when the caller
	// supplies none.
	DefaultFallbackTitle = "Enter Passcode"
)

// missingFaceDisclosureReason is reported when the device supports face
// recognition but the application manifest lacks the required
// usage-disclosure string. The platform does not enforce the declaration
// at evaluation time, it fails later at prompt time, so the checker
// pre-empts it here.
const missingFaceDisclosureReason = "device supports face recognition, " +
	"but the usage-disclosure string is missing from configuration"

type Client struct {
	logger    *slog.Logger
	evaluator platform.Evaluator
	manifest  manifest.Source
}

func NewClient(opts ...options.Option) *Client {
	oo := options.NewOptions(opts...)

	return &Client{
		logger:    oo.Logger,
		evaluator: oo.Evaluator,
		manifest:  oo.Manifest,
	}
}

// CheckBiometry reports whether biometric authentication can be evaluated
// right now and, if not, why. It never blocks on user interaction and
// never fails; every outcome is data in the result.
func (c *Client) CheckBiometry(ctx context.Context) biometrytypes.AvailabilityResult {
	capability := c.evaluator.CanEvaluate(ctx)

	result := biometrytypes.AvailabilityResult{
		IsAvailable:   capability.Available,
		BiometryType:  capability.Kind,
		BiometryTypes: []biometrytypes.BiometryType{},
	}
	if capability.Kind != biometrytypes.BiometryTypeNone {
		result.BiometryTypes = []biometrytypes.BiometryType{capability.Kind}
	}

	if capability.Available && capability.Kind == biometrytypes.BiometryTypeFace {
		if _, declared := c.manifest.FaceUsageDescription(); !declared {
			result.IsAvailable = false
			result.Reason = missingFaceDisclosureReason
			result.Code = biometrytypes.ErrorCodeBiometryNotAvailable
			return result
		}
	}

	if !capability.Available && capability.Err != nil {
		result.Reason = capability.Err.Error()
		result.Code = biometrytypes.MapPlatformCode(capability.Err.Code)
	}

	return result
}

// Authenticate renders the system authentication prompt and blocks until
// its single completion. A nil return means the user proved their
// identity; every failure is a *biometrytypes.AuthError carrying a
// message and a stable code token.
func (c *Client) Authenticate(ctx context.Context, req biometrytypes.AuthenticateRequest) error {
	callID := uuid.New()

	// Diagnostic snapshot only. The prompt is attempted regardless of the
	// outcome: the snapshot can already be stale (e.g. the user enrolls a
	// fingerprint between check and prompt).
	availability := c.CheckBiometry(ctx)
	c.logger.Debug("starting authentication prompt",
		"call_id", callID,
		"available", availability.IsAvailable,
		"biometry_type", availability.BiometryType.String(),
		"code", string(availability.Code),
	)

	opts := platform.EvaluateOptions{
		Reason:                lo.Ternary(req.Reason != "", req.Reason, DefaultReason),
		FallbackTitle:         resolveFallbackTitle(req),
		CancelTitle:           req.CancelTitle,
		AllowDeviceCredential: req.AllowDeviceCredential,
		// Zero grace window: a recent successful unlock never silently
		// satisfies a new call.
		ReuseDuration: 0,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- c.evaluator.Evaluate(ctx, opts)
	}()

	var err error
	select {
	case <-ctx.Done():
		// The platform owns the open prompt; the call is abandoned on the
		// application's side.
		err = ctx.Err()
	case err = <-errc:
	}

	if err == nil {
		c.logger.Debug("authentication prompt resolved", "call_id", callID)
		return nil
	}

	rejection := rejectionFromError(err)
	c.logger.Debug("authentication prompt rejected",
		"call_id", callID,
		"code", string(rejection.Code),
		"message", rejection.Message,
	)

	return rejection
}

// resolveFallbackTitle applies the tri-state fallback-title contract:
// absent means the fixed default, an empty title with the device
// credential allowed means the fallback stays reachable without a visible
// button, anything else passes through verbatim.
func resolveFallbackTitle(req biometrytypes.AuthenticateRequest) mo.Option[string] {
	title, supplied := req.FallbackTitle.Get()
	if !supplied {
		return mo.Some(DefaultFallbackTitle)
	}
	if title == "" && req.AllowDeviceCredential {
		return mo.None[string]()
	}
	return req.FallbackTitle
}

func rejectionFromError(err error) *biometrytypes.AuthError {
	var perr *biometrytypes.PlatformError
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return &biometrytypes.AuthError{
			Message: "authentication was canceled by the application",
			Code:    biometrytypes.ErrorCodeAppCancel,
		}
	case errors.As(err, &perr):
		return &biometrytypes.AuthError{
			Message: perr.Error(),
			Code:    biometrytypes.MapPlatformCode(perr.Code),
		}
	default:
		return &biometrytypes.AuthError{
			Message: "authentication failed",
			Code:    biometrytypes.ErrorCodeAuthenticationFailed,
		}
	}
}
