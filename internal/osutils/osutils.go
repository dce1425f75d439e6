// Package osutils wraps operating system queries used by the agent.
package osutils

import "errors"

// ErrUnsupported is returned by queries not available on this platform
var ErrUnsupported = errors.New("not supported on this platform")

// ErrNoForegroundWindow is returned when no window has focus
var ErrNoForegroundWindow = errors.New("no foreground window")
