// Package input turns intent transitions into synthetic key presses and
// releases and delivers them to the operating system.
package input

import (
	"errors"
	"fmt"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/intent"
)

// Action is the direction of a key event
type Action int

const (
	Press Action = iota + 1
	Release
)

func (a Action) String() string {
	switch a {
	case Press:
		return "press"
	case Release:
		return "release"
	default:
		return "unknown"
	}
}

// KeyEvent is one synthetic key transition
type KeyEvent struct {
	Key    string        `json:"key"`
	Action Action        `json:"action"`
	Intent intent.Intent `json:"intent"`
}

func (e KeyEvent) String() string {
	return fmt.Sprintf("%s(%s)", e.Action, e.Key)
}

// Sink delivers key transitions to the operating system. Keys are canonical
// names from package keys.
type Sink interface {
	KeyDown(key string) error
	KeyUp(key string) error
	Close() error
}

// EmitReason classifies an EmitError
type EmitReason int

const (
	PermissionDenied EmitReason = iota + 1
	UnsupportedKey
	Failed
)

func (r EmitReason) String() string {
	switch r {
	case PermissionDenied:
		return "permission denied"
	case UnsupportedKey:
		return "unsupported key"
	case Failed:
		return "dispatch failed"
	default:
		return "unknown"
	}
}

// VirtualKeyboardName is the device name of the Linux uinput keyboard
const VirtualKeyboardName = "spacepad virtual keyboard"

// InjectedMarker tags events posted on macOS so input hooks can skip them
const InjectedMarker = 0x53504144

var (
	// ErrPermissionDenied matches any EmitError with reason PermissionDenied
	ErrPermissionDenied = &EmitError{Reason: PermissionDenied}

	// ErrUnsupportedKey matches any EmitError with reason UnsupportedKey
	ErrUnsupportedKey = &EmitError{Reason: UnsupportedKey}

	// ErrUnsupportedPlatform is returned by NewSystemSink where no injection backend exists
	ErrUnsupportedPlatform = errors.New("key injection is not supported on this platform")
)

// EmitError is returned when a key event could not be delivered
type EmitError struct {
	Reason EmitReason
	Key    string
	Action Action
	Err    error
}

func (e *EmitError) Error() string {
	msg := "emit: " + e.Reason.String()
	if e.Key != "" {
		msg = fmt.Sprintf("emit %s %s: %s", e.Action, e.Key, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EmitError) Unwrap() error { return e.Err }

// Is matches another EmitError with the same reason
func (e *EmitError) Is(target error) bool {
	var ee *EmitError
	if !errors.As(target, &ee) {
		return false
	}
	return ee.Reason == e.Reason
}

// emitError wraps a sink error, keeping the reason a sink already assigned
func emitError(key string, action Action, err error) *EmitError {
	var ee *EmitError
	if errors.As(err, &ee) {
		return &EmitError{Reason: ee.Reason, Key: key, Action: action, Err: ee.Err}
	}
	return &EmitError{Reason: Failed, Key: key, Action: action, Err: err}
}
