package biometrytypes

import (
	"github.com/samber/mo"
)

// PlatformError carries a failure reported by the platform authentication
// service: a canonical code plus the platform's own developer-facing text.
type PlatformError struct {
	Code          PlatformCode
	Description   string
	FailureReason string
}

func (e *PlatformError) Error() string {
	if e.FailureReason != "" {
		return e.Description + ": " + e.FailureReason
	}
	return e.Description
}

// AuthError is the rejection contract of an authentication attempt:
// a human-readable message and a stable ErrorCode token.
type AuthError struct {
	Message string
	Code    ErrorCode
}

func (e *AuthError) Error() string {
	if e.Code != ErrorCodeNone {
		return e.Message + " (" + string(e.Code) + ")"
	}
	return e.Message
}

// AvailabilityResult describes whether biometric authentication can be
// evaluated right now and, if not, why. Constructed fresh on every check,
// never persisted.
type AvailabilityResult struct {
	IsAvailable   bool           `cbor:"isAvailable"`
	BiometryType  BiometryType   `cbor:"biometryType"`
	BiometryTypes []BiometryType `cbor:"biometryTypes"`
	Reason        string         `cbor:"reason"`
	Code          ErrorCode      `cbor:"code"`
}

// AuthenticateRequest is the caller-supplied prompt configuration.
// FallbackTitle and CancelTitle are tri-state: absent (platform default),
// empty (suppress the affordance label) or a concrete label.
type AuthenticateRequest struct {
	Reason                string
	FallbackTitle         mo.Option[string]
	CancelTitle           mo.Option[string]
	AllowDeviceCredential bool
}
