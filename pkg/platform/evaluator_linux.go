package platform

import (
	"context"

	"github.com/go-ctap/biometry/pkg/biometrytypes"
	"github.com/godbus/dbus/v5"
)

const (
	fprintdService      = "net.reactivated.Fprint"
	fprintdManagerPath  = "/net/reactivated/Fprint/Manager"
	fprintdManagerIface = "net.reactivated.Fprint.Manager"
	fprintdDeviceIface  = "net.reactivated.Fprint.Device"
)

// Verification status tokens emitted by fprintd's VerifyStatus signal.
const (
	verifyStatusMatch        = "verify-match"
	verifyStatusNoMatch      = "verify-no-match"
	verifyStatusRetryScan    = "verify-retry-scan"
	verifyStatusSwipeShort   = "verify-swipe-too-short"
	verifyStatusRemoveFinger = "verify-remove-finger"
	verifyStatusNotCentered  = "verify-finger-not-centered"
	verifyStatusDisconnected = "verify-disconnected"
	verifyStatusUnknownError = "verify-unknown-error"
)

type linuxEvaluator struct{}

func newPlatformEvaluator() Evaluator {
	return &linuxEvaluator{}
}

func (e *linuxEvaluator) CanEvaluate(ctx context.Context) Capability {
	conn, err := dbus.SystemBus()
	if err != nil {
		return Capability{
			Kind: biometrytypes.BiometryTypeNone,
			Err: &biometrytypes.PlatformError{
				Code:          biometrytypes.PlatformCodeBiometryNotAvailable,
				Description:   "system bus is unavailable",
				FailureReason: err.Error(),
			},
		}
	}

	devicePath, perr := defaultFprintDevice(ctx, conn)
	if perr != nil {
		return Capability{Kind: biometrytypes.BiometryTypeNone, Err: perr}
	}

	// An empty username means the caller's own user.
	var fingers []string
	device := conn.Object(fprintdService, devicePath)
	if err := device.CallWithContext(ctx, fprintdDeviceIface+".ListEnrolledFingers", 0, "").Store(&fingers); err != nil {
		return Capability{
			Kind: biometrytypes.BiometryTypeFingerprint,
			Err:  platformErrorFromDBus(err),
		}
	}
	if len(fingers) == 0 {
		return Capability{
			Kind: biometrytypes.BiometryTypeFingerprint,
			Err: &biometrytypes.PlatformError{
				Code:        biometrytypes.PlatformCodeBiometryNotEnrolled,
				Description: "no fingerprints are enrolled for the current user",
			},
		}
	}

	return Capability{
		Available: true,
		Kind:      biometrytypes.BiometryTypeFingerprint,
	}
}

// Evaluate runs a single fprintd verification round. fprintd offers no
// passcode fallback and no prompt copy, so everything in opts except the
// implicit "verify the device owner" request is platform-owned here.
func (e *linuxEvaluator) Evaluate(ctx context.Context, opts EvaluateOptions) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return &biometrytypes.PlatformError{
			Code:          biometrytypes.PlatformCodeBiometryNotAvailable,
			Description:   "system bus is unavailable",
			FailureReason: err.Error(),
		}
	}

	devicePath, perr := defaultFprintDevice(ctx, conn)
	if perr != nil {
		return perr
	}
	device := conn.Object(fprintdService, devicePath)

	if err := device.CallWithContext(ctx, fprintdDeviceIface+".Claim", 0, "").Err; err != nil {
		return platformErrorFromDBus(err)
	}
	defer func() {
		_ = device.Call(fprintdDeviceIface+".Release", 0).Err
	}()

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(devicePath),
		dbus.WithMatchInterface(fprintdDeviceIface),
		dbus.WithMatchMember("VerifyStatus"),
	); err != nil {
		return platformErrorFromDBus(err)
	}
	defer func() {
		_ = conn.RemoveMatchSignal(
			dbus.WithMatchObjectPath(devicePath),
			dbus.WithMatchInterface(fprintdDeviceIface),
			dbus.WithMatchMember("VerifyStatus"),
		)
	}()

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	if err := device.CallWithContext(ctx, fprintdDeviceIface+".VerifyStart", 0, "any").Err; err != nil {
		return platformErrorFromDBus(err)
	}
	defer func() {
		_ = device.Call(fprintdDeviceIface+".VerifyStop", 0).Err
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-signals:
			if sig == nil || len(sig.Body) < 2 {
				continue
			}
			status, ok := sig.Body[0].(string)
			if !ok {
				continue
			}
			done, ok := sig.Body[1].(bool)
			if !ok || !done {
				// Retry hints (finger not centered, swipe too short, ...)
				// keep the round open.
				continue
			}

			switch status {
			case verifyStatusMatch:
				return nil
			case verifyStatusNoMatch:
				return &biometrytypes.PlatformError{
					Code:        biometrytypes.PlatformCodeAuthenticationFailed,
					Description: "fingerprint did not match",
				}
			case verifyStatusDisconnected:
				return &biometrytypes.PlatformError{
					Code:        biometrytypes.PlatformCodeSystemCancel,
					Description: "fingerprint reader disconnected during verification",
				}
			default:
				return &biometrytypes.PlatformError{
					Code:          biometrytypes.PlatformCodeAuthenticationFailed,
					Description:   "fingerprint verification failed",
					FailureReason: status,
				}
			}
		}
	}
}

func defaultFprintDevice(ctx context.Context, conn *dbus.Conn) (dbus.ObjectPath, *biometrytypes.PlatformError) {
	var devicePath dbus.ObjectPath
	manager := conn.Object(fprintdService, fprintdManagerPath)
	if err := manager.CallWithContext(ctx, fprintdManagerIface+".GetDefaultDevice", 0).Store(&devicePath); err != nil {
		return "", platformErrorFromDBus(err)
	}
	return devicePath, nil
}

// platformErrorFromDBus translates fprintd D-Bus errors into the canonical
// platform code space.
func platformErrorFromDBus(err error) *biometrytypes.PlatformError {
	perr := &biometrytypes.PlatformError{
		Code:        biometrytypes.PlatformCodeBiometryNotAvailable,
		Description: "fingerprint service request failed",
	}

	dbusErr, ok := err.(dbus.Error)
	if !ok {
		perr.FailureReason = err.Error()
		return perr
	}

	perr.FailureReason = dbusErr.Error()
	switch dbusErr.Name {
	case "net.reactivated.Fprint.Error.NoEnrolledPrints":
		perr.Code = biometrytypes.PlatformCodeBiometryNotEnrolled
		perr.Description = "no fingerprints are enrolled for the current user"
	case "net.reactivated.Fprint.Error.NoSuchDevice":
		perr.Description = "no fingerprint reader is present"
	case "net.reactivated.Fprint.Error.AlreadyInUse",
		"net.reactivated.Fprint.Error.ClaimDevice":
		perr.Code = biometrytypes.PlatformCodeSystemCancel
		perr.Description = "fingerprint reader is busy"
	case "net.reactivated.Fprint.Error.PermissionDenied":
		perr.Code = biometrytypes.PlatformCodeNotInteractive
		perr.Description = "not allowed to use the fingerprint reader from this session"
	}

	return perr
}
