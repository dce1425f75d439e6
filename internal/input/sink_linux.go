//go:build linux

package input

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bendahl/uinput"
	evdev "github.com/gvalkov/golang-evdev"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

const uinputPath = "/dev/uinput"

// linuxKeyCodes maps key names to Linux input event codes
var linuxKeyCodes = map[string]int{
	"a": evdev.KEY_A, "b": evdev.KEY_B, "c": evdev.KEY_C, "d": evdev.KEY_D,
	"e": evdev.KEY_E, "f": evdev.KEY_F, "g": evdev.KEY_G, "h": evdev.KEY_H,
	"i": evdev.KEY_I, "j": evdev.KEY_J, "k": evdev.KEY_K, "l": evdev.KEY_L,
	"m": evdev.KEY_M, "n": evdev.KEY_N, "o": evdev.KEY_O, "p": evdev.KEY_P,
	"q": evdev.KEY_Q, "r": evdev.KEY_R, "s": evdev.KEY_S, "t": evdev.KEY_T,
	"u": evdev.KEY_U, "v": evdev.KEY_V, "w": evdev.KEY_W, "x": evdev.KEY_X,
	"y": evdev.KEY_Y, "z": evdev.KEY_Z,

	"0": evdev.KEY_0, "1": evdev.KEY_1, "2": evdev.KEY_2, "3": evdev.KEY_3, "4": evdev.KEY_4,
	"5": evdev.KEY_5, "6": evdev.KEY_6, "7": evdev.KEY_7, "8": evdev.KEY_8, "9": evdev.KEY_9,

	"f1": evdev.KEY_F1, "f2": evdev.KEY_F2, "f3": evdev.KEY_F3, "f4": evdev.KEY_F4,
	"f5": evdev.KEY_F5, "f6": evdev.KEY_F6, "f7": evdev.KEY_F7, "f8": evdev.KEY_F8,
	"f9": evdev.KEY_F9, "f10": evdev.KEY_F10, "f11": evdev.KEY_F11, "f12": evdev.KEY_F12,

	"space":     evdev.KEY_SPACE,
	"enter":     evdev.KEY_ENTER,
	"tab":       evdev.KEY_TAB,
	"escape":    evdev.KEY_ESC,
	"backspace": evdev.KEY_BACKSPACE,
	"shift":     evdev.KEY_LEFTSHIFT,
	"rshift":    evdev.KEY_RIGHTSHIFT,
	"ctrl":      evdev.KEY_LEFTCTRL,
	"rctrl":     evdev.KEY_RIGHTCTRL,
	"alt":       evdev.KEY_LEFTALT,
	"ralt":      evdev.KEY_RIGHTALT,
	"capslock":  evdev.KEY_CAPSLOCK,
	"up":        evdev.KEY_UP,
	"down":      evdev.KEY_DOWN,
	"left":      evdev.KEY_LEFT,
	"right":     evdev.KEY_RIGHT,
	"insert":    evdev.KEY_INSERT,
	"delete":    evdev.KEY_DELETE,
	"home":      evdev.KEY_HOME,
	"end":       evdev.KEY_END,
	"pageup":    evdev.KEY_PAGEUP,
	"pagedown":  evdev.KEY_PAGEDOWN,

	"minus":        evdev.KEY_MINUS,
	"equal":        evdev.KEY_EQUAL,
	"leftbracket":  evdev.KEY_LEFTBRACE,
	"rightbracket": evdev.KEY_RIGHTBRACE,
	"backslash":    evdev.KEY_BACKSLASH,
	"semicolon":    evdev.KEY_SEMICOLON,
	"apostrophe":   evdev.KEY_APOSTROPHE,
	"grave":        evdev.KEY_GRAVE,
	"comma":        evdev.KEY_COMMA,
	"period":       evdev.KEY_DOT,
	"slash":        evdev.KEY_SLASH,

	"kp0": evdev.KEY_KP0, "kp1": evdev.KEY_KP1, "kp2": evdev.KEY_KP2, "kp3": evdev.KEY_KP3, "kp4": evdev.KEY_KP4,
	"kp5": evdev.KEY_KP5, "kp6": evdev.KEY_KP6, "kp7": evdev.KEY_KP7, "kp8": evdev.KEY_KP8, "kp9": evdev.KEY_KP9,
}

// uinputSink injects keys through a virtual uinput keyboard
type uinputSink struct {
	mu     sync.Mutex
	kbd    uinput.Keyboard
	logger *zap.SugaredLogger
}

// NewSystemSink creates a virtual keyboard on /dev/uinput. Writing to it needs
// write access to the device node, usually through a udev rule or the input group.
func NewSystemSink(logger *zap.SugaredLogger) (Sink, error) {
	if err := unix.Access(uinputPath, unix.W_OK); err != nil {
		return nil, &EmitError{
			Reason: PermissionDenied,
			Err:    fmt.Errorf("%s is not writable, add a udev rule or join the input group: %w", uinputPath, err),
		}
	}
	kbd, err := uinput.CreateKeyboard(uinputPath, []byte(VirtualKeyboardName))
	if err != nil {
		return nil, &EmitError{Reason: Failed, Err: fmt.Errorf("create virtual keyboard: %w", err)}
	}
	logger.Infof("Keys: Created virtual keyboard on %s", uinputPath)
	return &uinputSink{kbd: kbd, logger: logger}, nil
}

func (s *uinputSink) code(key string, action Action) (int, error) {
	code, ok := linuxKeyCodes[key]
	if !ok {
		return 0, &EmitError{Reason: UnsupportedKey, Key: key, Action: action}
	}
	return code, nil
}

func (s *uinputSink) KeyDown(key string) error {
	code, err := s.code(key, Press)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return classifyErrno(s.kbd.KeyDown(code))
}

func (s *uinputSink) KeyUp(key string) error {
	code, err := s.code(key, Release)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return classifyErrno(s.kbd.KeyUp(code))
}

func (s *uinputSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kbd.Close()
}

func classifyErrno(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM) {
		return &EmitError{Reason: PermissionDenied, Err: err}
	}
	return err
}
