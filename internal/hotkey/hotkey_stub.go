//go:build !windows && !darwin && !linux

package hotkey

func (m *Manager) startPlatform() error {
	return ErrUnsupported
}
