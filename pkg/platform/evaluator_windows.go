package platform

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/go-ctap/biometry/pkg/biometrytypes"
	"golang.org/x/sys/windows"
)

var (
	modWebAuthn = windows.NewLazyDLL("webauthn.dll")

	procWebAuthNIsUserVerifyingPlatformAuthenticatorAvailable = modWebAuthn.NewProc("WebAuthNIsUserVerifyingPlatformAuthenticatorAvailable")
)

type windowsEvaluator struct{}

func newPlatformEvaluator() Evaluator {
	return &windowsEvaluator{}
}

// CanEvaluate asks the WebAuthn platform API whether a user-verifying
// platform authenticator (Windows Hello) is present. The API does not
// report which modality is enrolled, so an available verifier is surfaced
// as a fingerprint-class sensor.
func (e *windowsEvaluator) CanEvaluate(_ context.Context) Capability {
	var available int32
	r1, _, err := procWebAuthNIsUserVerifyingPlatformAuthenticatorAvailable.Call(
		uintptr(unsafe.Pointer(&available)),
	)
	if windows.Handle(r1) != windows.S_OK {
		return Capability{
			Kind: biometrytypes.BiometryTypeNone,
			Err: &biometrytypes.PlatformError{
				Code:          biometrytypes.PlatformCodeBiometryNotAvailable,
				Description:   "Windows Hello availability query failed",
				FailureReason: err.Error(),
			},
		}
	}

	if available == 0 {
		return Capability{
			Kind: biometrytypes.BiometryTypeNone,
			Err: &biometrytypes.PlatformError{
				Code:        biometrytypes.PlatformCodeBiometryNotAvailable,
				Description: "no user-verifying platform authenticator is available",
			},
		}
	}

	return Capability{
		Available: true,
		Kind:      biometrytypes.BiometryTypeFingerprint,
	}
}

// Evaluate renders the Windows Hello consent prompt through the
// UserConsentVerifier runtime class. Windows owns the fallback behavior
// (PIN is always offered by the verifier), so the fallback and cancel
// titles have no platform equivalent here.
func (e *windowsEvaluator) Evaluate(ctx context.Context, opts EvaluateOptions) error {
	result, err := requestVerification(ctx, opts.Reason)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %s", ErrUnrecognizedPlatformFailure, err.Error())
	}

	if perr := platformErrorFromConsentResult(result); perr != nil {
		return perr
	}

	return nil
}

// UserConsentVerificationResult values.
// https://learn.microsoft.com/en-us/uwp/api/windows.security.credentials.ui.userconsentverificationresult
const (
	consentResultVerified             = 0
	consentResultDeviceNotPresent     = 1
	consentResultNotConfiguredForUser = 2
	consentResultDisabledByPolicy     = 3
	consentResultDeviceBusy           = 4
	consentResultRetriesExhausted     = 5
	consentResultCanceled             = 6
)

func platformErrorFromConsentResult(result int32) *biometrytypes.PlatformError {
	switch result {
	case consentResultVerified:
		return nil
	case consentResultDeviceNotPresent:
		return &biometrytypes.PlatformError{
			Code:        biometrytypes.PlatformCodeBiometryNotAvailable,
			Description: "no biometric verification device is present",
		}
	case consentResultNotConfiguredForUser:
		return &biometrytypes.PlatformError{
			Code:        biometrytypes.PlatformCodeBiometryNotEnrolled,
			Description: "the current user has not enrolled for biometric verification",
		}
	case consentResultDisabledByPolicy:
		return &biometrytypes.PlatformError{
			Code:        biometrytypes.PlatformCodeBiometryNotAvailable,
			Description: "biometric verification is disabled by group policy",
		}
	case consentResultDeviceBusy:
		return &biometrytypes.PlatformError{
			Code:        biometrytypes.PlatformCodeSystemCancel,
			Description: "the biometric verification device is busy",
		}
	case consentResultRetriesExhausted:
		return &biometrytypes.PlatformError{
			Code:        biometrytypes.PlatformCodeBiometryLockout,
			Description: "too many failed biometric verification attempts",
		}
	case consentResultCanceled:
		return &biometrytypes.PlatformError{
			Code:        biometrytypes.PlatformCodeUserCancel,
			Description: "the verification operation was canceled",
		}
	default:
		return &biometrytypes.PlatformError{
			Code:        biometrytypes.PlatformCodeAuthenticationFailed,
			Description: fmt.Sprintf("verification failed with result %d", result),
		}
	}
}

var (
	modCombase = windows.NewLazyDLL("combase.dll")

	procRoInitialize           = modCombase.NewProc("RoInitialize")
	procRoGetActivationFactory = modCombase.NewProc("RoGetActivationFactory")
	procWindowsCreateString    = modCombase.NewProc("WindowsCreateString")
	procWindowsDeleteString    = modCombase.NewProc("WindowsDeleteString")
)

const userConsentVerifierClassID = "Windows.Security.Credentials.UI.UserConsentVerifier"

// IUserConsentVerifierStatics
var iidUserConsentVerifierStatics = windows.GUID{
	Data1: 0xaf4f3f91,
	Data2: 0x564c,
	Data3: 0x4ddc,
	Data4: [8]byte{0xb8, 0xb5, 0x97, 0x34, 0x47, 0x62, 0x7c, 0x65},
}

// IAsyncInfo
var iidAsyncInfo = windows.GUID{
	Data1: 0x00000036,
	Data2: 0x0000,
	Data3: 0x0000,
	Data4: [8]byte{0xc0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46},
}

const (
	roInitMultithreaded = 1

	asyncStatusStarted   = 0
	asyncStatusCompleted = 1
	asyncStatusCanceled  = 2
	asyncStatusError     = 3
)

// HRESULTs tolerated from RoInitialize when the apartment is already set up.
const (
	hrSFalse         = windows.Handle(0x00000001)
	hrRPCChangedMode = windows.Handle(0x80010106)
)

type comObject struct{}

type inspectableVtbl struct {
	QueryInterface      uintptr
	AddRef              uintptr
	Release             uintptr
	GetIids             uintptr
	GetRuntimeClassName uintptr
	GetTrustLevel       uintptr
}

type consentVerifierStaticsVtbl struct {
	inspectableVtbl
	CheckAvailabilityAsync   uintptr
	RequestVerificationAsync uintptr
}

type asyncOperationVtbl struct {
	inspectableVtbl
	PutCompleted uintptr
	GetCompleted uintptr
	GetResults   uintptr
}

type asyncInfoVtbl struct {
	inspectableVtbl
	GetId        uintptr
	GetStatus    uintptr
	GetErrorCode uintptr
	Cancel       uintptr
	Close        uintptr
}

func hstring(s string) (uintptr, func(), error) {
	buf, err := windows.UTF16FromString(s)
	if err != nil {
		return 0, nil, err
	}

	var h uintptr
	r1, _, _ := procWindowsCreateString.Call(
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)-1),
		uintptr(unsafe.Pointer(&h)),
	)
	if windows.Handle(r1) != windows.S_OK {
		return 0, nil, windows.Errno(r1)
	}

	return h, func() {
		_, _, _ = procWindowsDeleteString.Call(h)
	}, nil
}

func release(obj *comObject) {
	vtbl := *(**inspectableVtbl)(unsafe.Pointer(obj))
	_, _, _ = windows.SyscallN(vtbl.Release, uintptr(unsafe.Pointer(obj)))
}

// requestVerification drives UserConsentVerifier.RequestVerificationAsync
// and waits for the single async completion, polling IAsyncInfo status.
// The context cancels the pending operation through IAsyncInfo::Cancel.
func requestVerification(ctx context.Context, message string) (int32, error) {
	r1, _, _ := procRoInitialize.Call(uintptr(roInitMultithreaded))
	// S_FALSE and RPC_E_CHANGED_MODE mean the apartment is already set up.
	if hr := windows.Handle(r1); hr != windows.S_OK && hr != hrSFalse && hr != hrRPCChangedMode {
		return 0, windows.Errno(r1)
	}

	hClass, dropClass, err := hstring(userConsentVerifierClassID)
	if err != nil {
		return 0, err
	}
	defer dropClass()

	var statics *comObject
	r1, _, _ = procRoGetActivationFactory.Call(
		hClass,
		uintptr(unsafe.Pointer(&iidUserConsentVerifierStatics)),
		uintptr(unsafe.Pointer(&statics)),
	)
	if windows.Handle(r1) != windows.S_OK {
		return 0, windows.Errno(r1)
	}
	defer release(statics)

	hMessage, dropMessage, err := hstring(message)
	if err != nil {
		return 0, err
	}
	defer dropMessage()

	staticsVtbl := *(**consentVerifierStaticsVtbl)(unsafe.Pointer(statics))

	var operation *comObject
	r1, _, _ = windows.SyscallN(
		staticsVtbl.RequestVerificationAsync,
		uintptr(unsafe.Pointer(statics)),
		hMessage,
		uintptr(unsafe.Pointer(&operation)),
	)
	if windows.Handle(r1) != windows.S_OK {
		return 0, windows.Errno(r1)
	}
	defer release(operation)

	opVtbl := *(**asyncOperationVtbl)(unsafe.Pointer(operation))

	var info *comObject
	r1, _, _ = windows.SyscallN(
		opVtbl.QueryInterface,
		uintptr(unsafe.Pointer(operation)),
		uintptr(unsafe.Pointer(&iidAsyncInfo)),
		uintptr(unsafe.Pointer(&info)),
	)
	if windows.Handle(r1) != windows.S_OK {
		return 0, windows.Errno(r1)
	}
	defer release(info)

	infoVtbl := *(**asyncInfoVtbl)(unsafe.Pointer(info))

	status := int32(asyncStatusStarted)
	for status == asyncStatusStarted {
		select {
		case <-ctx.Done():
			_, _, _ = windows.SyscallN(infoVtbl.Cancel, uintptr(unsafe.Pointer(info)))
			return 0, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}

		r1, _, _ = windows.SyscallN(
			infoVtbl.GetStatus,
			uintptr(unsafe.Pointer(info)),
			uintptr(unsafe.Pointer(&status)),
		)
		if windows.Handle(r1) != windows.S_OK {
			return 0, windows.Errno(r1)
		}
	}

	if status != asyncStatusCompleted {
		var opErr int32
		_, _, _ = windows.SyscallN(
			infoVtbl.GetErrorCode,
			uintptr(unsafe.Pointer(info)),
			uintptr(unsafe.Pointer(&opErr)),
		)
		return 0, fmt.Errorf("verification operation ended with status %d (hresult %#x)", status, uint32(opErr))
	}

	var result int32
	r1, _, _ = windows.SyscallN(
		opVtbl.GetResults,
		uintptr(unsafe.Pointer(operation)),
		uintptr(unsafe.Pointer(&result)),
	)
	if windows.Handle(r1) != windows.S_OK {
		return 0, windows.Errno(r1)
	}

	return result, nil
}
