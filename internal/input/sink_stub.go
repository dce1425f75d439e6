//go:build !linux && !windows && !darwin

package input

import (
	"go.uber.org/zap"
)

// NewSystemSink reports that this platform has no injection backend.
// Use NewLogSink to run without injecting keys.
func NewSystemSink(logger *zap.SugaredLogger) (Sink, error) {
	return nil, ErrUnsupportedPlatform
}
