//go:build !windows

package osutils

import (
	"os"
)

// IsAdmin reports whether the process runs as root
func IsAdmin() bool {
	return os.Geteuid() == 0
}

// ForegroundProcessID is only implemented on Windows
func ForegroundProcessID() (int32, error) {
	return 0, ErrUnsupported
}
