package input

import (
	"go.uber.org/zap"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/keys"
)

// LogSink logs key transitions instead of injecting them. It backs the
// --dry-run mode and works on every platform.
type LogSink struct {
	logger *zap.SugaredLogger
}

// NewLogSink creates a sink that writes every transition to logger
func NewLogSink(logger *zap.SugaredLogger) *LogSink {
	return &LogSink{logger: logger}
}

// KeyDown logs a press
func (s *LogSink) KeyDown(key string) error {
	if !keys.Known(key) {
		return &EmitError{Reason: UnsupportedKey, Key: key, Action: Press}
	}
	s.logger.Infof("Keys: down %s", key)
	return nil
}

// KeyUp logs a release
func (s *LogSink) KeyUp(key string) error {
	if !keys.Known(key) {
		return &EmitError{Reason: UnsupportedKey, Key: key, Action: Release}
	}
	s.logger.Infof("Keys: up %s", key)
	return nil
}

func (s *LogSink) Close() error { return nil }
