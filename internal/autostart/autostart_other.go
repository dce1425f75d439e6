//go:build !windows

package autostart

func enableWindows(string) error { return nil }
func disableWindows() error      { return nil }
func isEnabledWindows() bool     { return false }
