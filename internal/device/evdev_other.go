//go:build !linux

package device

import (
	"errors"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/motion"
)

var errNoEvdev = errors.New("the evdev backend is only available on Linux")

// NewEvdevSource is not available on this platform
func NewEvdevSource(opts Options) (motion.Source, error) {
	return nil, errNoEvdev
}

// ListEvdev is not available on this platform
func ListEvdev() ([]Info, error) {
	return nil, errNoEvdev
}
