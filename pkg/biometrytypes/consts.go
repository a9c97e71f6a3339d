package biometrytypes

// BiometryType represents the kind of biometric sensor reported by the
// platform authentication service.
type BiometryType int

const (
	BiometryTypeNone BiometryType = iota
	BiometryTypeFingerprint
	BiometryTypeFace
)

func (t BiometryType) String() string {
	switch t {
	case BiometryTypeFingerprint:
		return "fingerprint"
	case BiometryTypeFace:
		return "face"
	default:
		return "none"
	}
}

// ErrorCode is a stable string token identifying why an availability check
// or an authentication attempt failed. Hosts key their own localized
// messaging off these tokens instead of raw platform text.
type ErrorCode string

const (
	ErrorCodeNone                 ErrorCode = ""
	ErrorCodeAppCancel            ErrorCode = "appCancel"
	ErrorCodeAuthenticationFailed ErrorCode = "authenticationFailed"
	ErrorCodeInvalidContext       ErrorCode = "invalidContext"
	ErrorCodeNotInteractive       ErrorCode = "notInteractive"
	ErrorCodePasscodeNotSet       ErrorCode = "passcodeNotSet"
	ErrorCodeSystemCancel         ErrorCode = "systemCancel"
	ErrorCodeUserCancel           ErrorCode = "userCancel"
	ErrorCodeUserFallback         ErrorCode = "userFallback"
	ErrorCodeBiometryLockout      ErrorCode = "biometryLockout"
	ErrorCodeBiometryNotAvailable ErrorCode = "biometryNotAvailable"
	ErrorCodeBiometryNotEnrolled  ErrorCode = "biometryNotEnrolled"
)

// PlatformCode is the canonical numeric error space shared by all backends.
// The values mirror the LocalAuthentication error domain; non-darwin
// backends translate their native failures into this space so a single
// mapping table serves every platform.
type PlatformCode int64

const (
	PlatformCodeAuthenticationFailed PlatformCode = -1
	PlatformCodeUserCancel           PlatformCode = -2
	PlatformCodeUserFallback         PlatformCode = -3
	PlatformCodeSystemCancel         PlatformCode = -4
	PlatformCodePasscodeNotSet       PlatformCode = -5
	PlatformCodeBiometryNotAvailable PlatformCode = -6
	PlatformCodeBiometryNotEnrolled  PlatformCode = -7
	PlatformCodeBiometryLockout      PlatformCode = -8
	PlatformCodeAppCancel            PlatformCode = -9
	PlatformCodeInvalidContext       PlatformCode = -10
	PlatformCodeNotInteractive       PlatformCode = -1004
)

var errorCodeByPlatformCode = map[PlatformCode]ErrorCode{
	PlatformCodeAppCancel:            ErrorCodeAppCancel,
	PlatformCodeAuthenticationFailed: ErrorCodeAuthenticationFailed,
	PlatformCodeInvalidContext:       ErrorCodeInvalidContext,
	PlatformCodeNotInteractive:       ErrorCodeNotInteractive,
	PlatformCodePasscodeNotSet:       ErrorCodePasscodeNotSet,
	PlatformCodeSystemCancel:         ErrorCodeSystemCancel,
	PlatformCodeUserCancel:           ErrorCodeUserCancel,
	PlatformCodeUserFallback:         ErrorCodeUserFallback,
	PlatformCodeBiometryLockout:      ErrorCodeBiometryLockout,
	PlatformCodeBiometryNotAvailable: ErrorCodeBiometryNotAvailable,
	PlatformCodeBiometryNotEnrolled:  ErrorCodeBiometryNotEnrolled,
}

// MapPlatformCode translates a canonical platform error code into its
// ErrorCode token. Codes outside the table resolve to
// ErrorCodeBiometryNotAvailable so callers always receive a defined token.
func MapPlatformCode(code PlatformCode) ErrorCode {
	if ec, ok := errorCodeByPlatformCode[code]; ok {
		return ec
	}
	return ErrorCodeBiometryNotAvailable
}
