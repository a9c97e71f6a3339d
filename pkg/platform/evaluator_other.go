//go:build (!darwin && !windows && !linux) || (darwin && !cgo)

package platform

import (
	"context"

	"github.com/go-ctap/biometry/pkg/biometrytypes"
)

type unsupportedEvaluator struct{}

func newPlatformEvaluator() Evaluator {
	return &unsupportedEvaluator{}
}

func (e *unsupportedEvaluator) CanEvaluate(_ context.Context) Capability {
	return Capability{
		Kind: biometrytypes.BiometryTypeNone,
		Err: &biometrytypes.PlatformError{
			Code:        biometrytypes.PlatformCodeBiometryNotAvailable,
			Description: "biometric authentication is not supported in this build",
		},
	}
}

func (e *unsupportedEvaluator) Evaluate(_ context.Context, _ EvaluateOptions) error {
	return &biometrytypes.PlatformError{
		Code:        biometrytypes.PlatformCodeBiometryNotAvailable,
		Description: "biometric authentication is not supported in this build",
	}
}
