package motion

import (
	"errors"
	"fmt"
)

// Reason classifies a DeviceError
type Reason int

const (
	NotConnected Reason = iota + 1
	ReadTimeout
	IOFailure
	ConnectFailed
)

func (r Reason) String() string {
	switch r {
	case NotConnected:
		return "not connected"
	case ReadTimeout:
		return "read timeout"
	case IOFailure:
		return "I/O failure"
	case ConnectFailed:
		return "connect failed"
	default:
		return "unknown"
	}
}

var (
	// ErrNotConnected matches any DeviceError with reason NotConnected
	ErrNotConnected = &DeviceError{Reason: NotConnected}

	// ErrReadTimeout matches any DeviceError with reason ReadTimeout
	ErrReadTimeout = &DeviceError{Reason: ReadTimeout}

	// ErrIOFailure matches any DeviceError with reason IOFailure
	ErrIOFailure = &DeviceError{Reason: IOFailure}

	// ErrConnectFailed matches any DeviceError with reason ConnectFailed
	ErrConnectFailed = &DeviceError{Reason: ConnectFailed}
)

// DeviceError is returned by a Source when the device cannot be used
type DeviceError struct {
	Reason Reason
	Device string
	Err    error
}

// NewDeviceError wraps err with a reason
func NewDeviceError(reason Reason, device string, err error) *DeviceError {
	return &DeviceError{Reason: reason, Device: device, Err: err}
}

func (e *DeviceError) Error() string {
	msg := "device: " + e.Reason.String()
	if e.Device != "" {
		msg = fmt.Sprintf("device %s: %s", e.Device, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Is matches another DeviceError with the same reason, so the Err* values
// above work with errors.Is.
func (e *DeviceError) Is(target error) bool {
	var de *DeviceError
	if !errors.As(target, &de) {
		return false
	}
	return de.Reason == e.Reason
}

// ReasonOf extracts the reason from err, or 0 if err is not a DeviceError
func ReasonOf(err error) Reason {
	var de *DeviceError
	if errors.As(err, &de) {
		return de.Reason
	}
	return 0
}
