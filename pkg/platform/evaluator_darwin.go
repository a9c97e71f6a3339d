//go:build darwin && cgo

package platform

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework Foundation -framework LocalAuthentication

#include <stdbool.h>
#include <stdlib.h>
#include <string.h>

#import <Foundation/Foundation.h>
#import <LocalAuthentication/LocalAuthentication.h>

typedef struct {
	bool available;
	long biometryType;
	bool hasError;
	long errorCode;
	char *errorDescription;
	char *errorReason;
} CanEvaluateReply;

static CanEvaluateReply biometry_can_evaluate(void) {
	CanEvaluateReply reply = {false, 0, false, 0, NULL, NULL};

	LAContext *context = [[LAContext alloc] init];
	NSError *error = nil;
	reply.available = [context canEvaluatePolicy:LAPolicyDeviceOwnerAuthenticationWithBiometrics
	                                       error:&error];
	reply.biometryType = (long)context.biometryType;

	if (error != nil) {
		reply.hasError = true;
		reply.errorCode = (long)error.code;
		reply.errorDescription = strdup([[error localizedDescription] UTF8String]);
		NSString *failureReason = [error localizedFailureReason];
		if (failureReason != nil) {
			reply.errorReason = strdup([failureReason UTF8String]);
		}
	}

	return reply;
}

typedef struct {
	bool success;
	bool recognized;
	long errorCode;
	char *errorDescription;
} EvaluateReply;

static EvaluateReply biometry_evaluate(
	bool allowDeviceCredential,
	const char *reason,
	bool hasFallbackTitle,
	const char *fallbackTitle,
	bool hasCancelTitle,
	const char *cancelTitle,
	long reuseDurationSeconds
) {
	EvaluateReply reply = {false, false, 0, NULL};

	LAContext *context = [[LAContext alloc] init];
	context.touchIDAuthenticationAllowableReuseDuration = reuseDurationSeconds;
	if (hasFallbackTitle) {
		context.localizedFallbackTitle = [NSString stringWithUTF8String:fallbackTitle];
	}
	if (hasCancelTitle) {
		context.localizedCancelTitle = [NSString stringWithUTF8String:cancelTitle];
	}

	LAPolicy policy = allowDeviceCredential
		? LAPolicyDeviceOwnerAuthentication
		: LAPolicyDeviceOwnerAuthenticationWithBiometrics;

	dispatch_semaphore_t sema = dispatch_semaphore_create(0);
	__block BOOL blockSuccess = NO;
	__block NSError *blockError = nil;

	[context evaluatePolicy:policy
	        localizedReason:[NSString stringWithUTF8String:reason]
	                  reply:^(BOOL success, NSError *error) {
		blockSuccess = success;
		blockError = error;
		dispatch_semaphore_signal(sema);
	}];
	dispatch_semaphore_wait(sema, DISPATCH_TIME_FOREVER);

	reply.success = (bool)blockSuccess;
	if (!blockSuccess && blockError != nil) {
		reply.recognized = [blockError.domain isEqualToString:LAErrorDomain];
		reply.errorCode = (long)blockError.code;
		reply.errorDescription = strdup([[blockError localizedDescription] UTF8String]);
	}

	return reply;
}
*/
import "C"
import (
	"context"
	"unsafe"

	"github.com/go-ctap/biometry/pkg/biometrytypes"
)

type darwinEvaluator struct{}

func newPlatformEvaluator() Evaluator {
	return &darwinEvaluator{}
}

func (e *darwinEvaluator) CanEvaluate(_ context.Context) Capability {
	reply := C.biometry_can_evaluate()

	capability := Capability{
		Available: bool(reply.available),
		Kind:      biometryTypeFromLA(int64(reply.biometryType)),
	}

	if bool(reply.hasError) {
		perr := &biometrytypes.PlatformError{
			Code:        biometrytypes.PlatformCode(reply.errorCode),
			Description: C.GoString(reply.errorDescription),
		}
		C.free(unsafe.Pointer(reply.errorDescription))

		if reply.errorReason != nil {
			perr.FailureReason = C.GoString(reply.errorReason)
			C.free(unsafe.Pointer(reply.errorReason))
		}

		capability.Err = perr
	}

	return capability
}

func (e *darwinEvaluator) Evaluate(_ context.Context, opts EvaluateOptions) error {
	cReason := C.CString(opts.Reason)
	defer C.free(unsafe.Pointer(cReason))

	var (
		cFallbackTitle *C.char
		cCancelTitle   *C.char
	)
	fallbackTitle, hasFallbackTitle := opts.FallbackTitle.Get()
	if hasFallbackTitle {
		cFallbackTitle = C.CString(fallbackTitle)
		defer C.free(unsafe.Pointer(cFallbackTitle))
	}
	cancelTitle, hasCancelTitle := opts.CancelTitle.Get()
	if hasCancelTitle {
		cCancelTitle = C.CString(cancelTitle)
		defer C.free(unsafe.Pointer(cCancelTitle))
	}

	reply := C.biometry_evaluate(
		C.bool(opts.AllowDeviceCredential),
		cReason,
		C.bool(hasFallbackTitle),
		cFallbackTitle,
		C.bool(hasCancelTitle),
		cCancelTitle,
		C.long(int64(opts.ReuseDuration.Seconds())),
	)

	if bool(reply.success) {
		return nil
	}

	if reply.errorDescription == nil {
		return ErrUnrecognizedPlatformFailure
	}

	description := C.GoString(reply.errorDescription)
	C.free(unsafe.Pointer(reply.errorDescription))

	if !bool(reply.recognized) {
		return ErrUnrecognizedPlatformFailure
	}

	return &biometrytypes.PlatformError{
		Code:        biometrytypes.PlatformCode(reply.errorCode),
		Description: description,
	}
}

// biometryTypeFromLA converts an LABiometryType raw value.
func biometryTypeFromLA(raw int64) biometrytypes.BiometryType {
	switch raw {
	case 1:
		return biometrytypes.BiometryTypeFingerprint
	case 2:
		return biometrytypes.BiometryTypeFace
	default:
		return biometrytypes.BiometryTypeNone
	}
}
