//go:build linux

package hotkey

import (
	"fmt"
	"strings"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/input"
)

// linuxKeyName converts an evdev key code to a hotkey name
func linuxKeyName(code uint16) string {
	name, ok := evdev.KEY[int(code)]
	if !ok {
		return ""
	}
	name = strings.TrimPrefix(name, "KEY_")
	switch name {
	case "LEFTCTRL", "RIGHTCTRL":
		return "CTRL"
	case "LEFTALT", "RIGHTALT":
		return "ALT"
	case "LEFTSHIFT", "RIGHTSHIFT":
		return "SHIFT"
	case "LEFTMETA", "RIGHTMETA":
		return "CMD"
	}
	return name
}

// isKeyboard reports whether dev has letter keys
func isKeyboard(dev *evdev.InputDevice) bool {
	for ct, codes := range dev.Capabilities {
		if ct.Type != evdev.EV_KEY {
			continue
		}
		for _, c := range codes {
			if c.Code == evdev.KEY_A {
				return true
			}
		}
	}
	return false
}

// startPlatform reads every physical keyboard under /dev/input. The uinput
// keyboard created for output is skipped.
func (m *Manager) startPlatform() error {
	devs, err := evdev.ListInputDevices()
	if err != nil {
		return err
	}

	var keyboards []*evdev.InputDevice
	for _, d := range devs {
		if d.Name != input.VirtualKeyboardName && isKeyboard(d) {
			keyboards = append(keyboards, d)
		} else {
			d.File.Close()
		}
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no readable keyboard under /dev/input (join the input group): %w", ErrUnsupported)
	}

	for _, kbd := range keyboards {
		m.logger.Infof("Hotkey: Listening on %s (%s)", kbd.Name, kbd.Fn)
		go m.readKeyboard(kbd)
	}
	return nil
}

func (m *Manager) readKeyboard(dev *evdev.InputDevice) {
	defer dev.File.Close()
	for {
		events, err := dev.Read()
		if err != nil {
			m.logger.Warnf("Hotkey: Stopped reading %s: %v", dev.Fn, err)
			return
		}
		for _, ev := range events {
			if ev.Type != evdev.EV_KEY {
				continue
			}
			if name := linuxKeyName(ev.Code); name != "" {
				// value 2 is autorepeat
				m.UpdateState(name, ev.Value != 0)
			}
		}
	}
}
