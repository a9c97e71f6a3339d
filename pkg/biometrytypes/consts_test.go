package biometrytypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapPlatformCode(t *testing.T) {
	tests := []struct {
		name string
		code PlatformCode
		want ErrorCode
	}{
		{"authenticationFailed", PlatformCodeAuthenticationFailed, ErrorCodeAuthenticationFailed},
		{"userCancel", PlatformCodeUserCancel, ErrorCodeUserCancel},
		{"userFallback", PlatformCodeUserFallback, ErrorCodeUserFallback},
		{"systemCancel", PlatformCodeSystemCancel, ErrorCodeSystemCancel},
		{"passcodeNotSet", PlatformCodePasscodeNotSet, ErrorCodePasscodeNotSet},
		{"biometryNotAvailable", PlatformCodeBiometryNotAvailable, ErrorCodeBiometryNotAvailable},
		{"biometryNotEnrolled", PlatformCodeBiometryNotEnrolled, ErrorCodeBiometryNotEnrolled},
		{"biometryLockout", PlatformCodeBiometryLockout, ErrorCodeBiometryLockout},
		{"appCancel", PlatformCodeAppCancel, ErrorCodeAppCancel},
		{"invalidContext", PlatformCodeInvalidContext, ErrorCodeInvalidContext},
		{"notInteractive", PlatformCodeNotInteractive, ErrorCodeNotInteractive},
		{"unmapped defaults to biometryNotAvailable", PlatformCode(-424242), ErrorCodeBiometryNotAvailable},
		{"zero defaults to biometryNotAvailable", PlatformCode(0), ErrorCodeBiometryNotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapPlatformCode(tt.code))
		})
	}
}

func TestPlatformError_Error(t *testing.T) {
	withReason := &PlatformError{
		Code:          PlatformCodeBiometryLockout,
		Description:   "Biometry is locked out.",
		FailureReason: "too many failed attempts",
	}
	assert.Equal(t, "Biometry is locked out.: too many failed attempts", withReason.Error())

	withoutReason := &PlatformError{
		Code:        PlatformCodeUserCancel,
		Description: "Canceled by user.",
	}
	assert.Equal(t, "Canceled by user.", withoutReason.Error())
}

func TestAuthError_Error(t *testing.T) {
	withCode := &AuthError{Message: "Canceled by user.", Code: ErrorCodeUserCancel}
	assert.Equal(t, "Canceled by user. (userCancel)", withCode.Error())

	withoutCode := &AuthError{Message: "authentication failed"}
	assert.Equal(t, "authentication failed", withoutCode.Error())
}

func TestBiometryType_String(t *testing.T) {
	assert.Equal(t, "none", BiometryTypeNone.String())
	assert.Equal(t, "fingerprint", BiometryTypeFingerprint.String())
	assert.Equal(t, "face", BiometryTypeFace.String())
	assert.Equal(t, "none", BiometryType(42).String())
}
