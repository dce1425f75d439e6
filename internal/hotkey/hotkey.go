// Package hotkey watches the physical keyboard for global hotkeys.
package hotkey

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrUnsupported is returned by Start where no global keyboard hook exists
var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

var (
	modifiers  = map[string]bool{"CTRL": true, "ALT": true, "SHIFT": true, "CMD": true}
	namedKeys  = map[string]bool{"SPACE": true, "ENTER": true, "ESC": true, "BACKSPACE": true, "TAB": true, "CAPSLOCK": true, "PAGEUP": true, "PAGEDOWN": true, "END": true, "HOME": true, "LEFT": true, "UP": true, "RIGHT": true, "DOWN": true, "INSERT": true, "DELETE": true, "PAUSE": true, "SCROLLLOCK": true}
	simpleKeys = regexp.MustCompile(`^([A-Z0-9]|F([1-9]|1[0-2]))$`)
)

// Parse splits a hotkey such as "Ctrl+Alt+P" into upper-case key names.
// A hotkey needs at least one modifier and exactly one other key.
func Parse(combo string) ([]string, error) {
	var parts []string
	nonModifiers := 0
	for _, p := range strings.Split(strings.ToUpper(combo), "+") {
		p = strings.TrimSpace(p)
		switch p {
		case "CONTROL":
			p = "CTRL"
		case "OPTION":
			p = "ALT"
		case "WIN", "META", "SUPER":
			p = "CMD"
		}
		switch {
		case modifiers[p]:
		case namedKeys[p] || simpleKeys.MatchString(p):
			nonModifiers++
		default:
			return nil, fmt.Errorf("hotkey %q: unknown key %q", combo, p)
		}
		parts = append(parts, p)
	}
	if nonModifiers != 1 || len(parts) < 2 {
		return nil, fmt.Errorf("hotkey %q: needs one or more modifiers and one key", combo)
	}
	return parts, nil
}

// Manager handles global hotkey registration and matching
type Manager struct {
	mu           sync.Mutex
	hotkeys      []*registeredHotkey
	currentState map[string]bool // map of current keys pressed
	logger       *zap.SugaredLogger
}

type registeredHotkey struct {
	parts    []string // e.g., ["CTRL", "ALT", "P"]
	original string
	callback func()
	// fired latches until a part of the combination is released, so key
	// repeat does not trigger the callback again
	fired bool
}

// NewManager creates a new hotkey manager
func NewManager(logger *zap.SugaredLogger) *Manager {
	return &Manager{
		currentState: make(map[string]bool),
		logger:       logger,
	}
}

// Register adds a hotkey string (e.g. "Ctrl+Alt+P") and its callback
func (m *Manager) Register(combo string, callback func()) error {
	parts, err := Parse(combo)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = append(m.hotkeys, &registeredHotkey{
		parts:    parts,
		original: combo,
		callback: callback,
	})
	return nil
}

// UpdateState records a key transition and runs the callback of every
// hotkey completed by it.
func (m *Manager) UpdateState(key string, isDown bool) {
	key = strings.ToUpper(key)

	m.mu.Lock()
	if isDown {
		m.currentState[key] = true
	} else {
		delete(m.currentState, key)
	}

	var triggered []*registeredHotkey
	for _, hk := range m.hotkeys {
		match := true
		// All parts of the hotkey must be in currentState
		for _, part := range hk.parts {
			if !m.currentState[part] {
				match = false
				break
			}
		}
		switch {
		case !match:
			hk.fired = false
		case isDown && !hk.fired:
			hk.fired = true
			triggered = append(triggered, hk)
		}
	}
	m.mu.Unlock()

	for _, hk := range triggered {
		m.logger.Infof("Hotkey: %s pressed", hk.original)
		go hk.callback()
	}
}

// Start installs the platform keyboard hook. Keys injected by this process
// are ignored.
func (m *Manager) Start() error {
	return m.startPlatform()
}
