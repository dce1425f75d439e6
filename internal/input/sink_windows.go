//go:build windows

package input

import (
	"fmt"
	"sync"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/osutils"
)

const (
	inputKeyboard        = 1
	keyeventfExtendedKey = 0x0001
	keyeventfKeyUp       = 0x0002
	keyeventfScancode    = 0x0008

	// extended marks scancodes sent with the E0 prefix
	extended = 0xE000
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

// windowsScancodes maps key names to set 1 scancodes. Games read scancodes,
// not virtual key codes, so events are sent with KEYEVENTF_SCANCODE.
var windowsScancodes = map[string]uint16{
	"a": 0x1E, "b": 0x30, "c": 0x2E, "d": 0x20, "e": 0x12, "f": 0x21, "g": 0x22,
	"h": 0x23, "i": 0x17, "j": 0x24, "k": 0x25, "l": 0x26, "m": 0x32, "n": 0x31,
	"o": 0x18, "p": 0x19, "q": 0x10, "r": 0x13, "s": 0x1F, "t": 0x14, "u": 0x16,
	"v": 0x2F, "w": 0x11, "x": 0x2D, "y": 0x15, "z": 0x2C,

	"1": 0x02, "2": 0x03, "3": 0x04, "4": 0x05, "5": 0x06,
	"6": 0x07, "7": 0x08, "8": 0x09, "9": 0x0A, "0": 0x0B,

	"f1": 0x3B, "f2": 0x3C, "f3": 0x3D, "f4": 0x3E, "f5": 0x3F, "f6": 0x40,
	"f7": 0x41, "f8": 0x42, "f9": 0x43, "f10": 0x44, "f11": 0x57, "f12": 0x58,

	"space":     0x39,
	"enter":     0x1C,
	"tab":       0x0F,
	"escape":    0x01,
	"backspace": 0x0E,
	"shift":     0x2A,
	"rshift":    0x36,
	"ctrl":      0x1D,
	"rctrl":     extended | 0x1D,
	"alt":       0x38,
	"ralt":      extended | 0x38,
	"capslock":  0x3A,
	"up":        extended | 0x48,
	"down":      extended | 0x50,
	"left":      extended | 0x4B,
	"right":     extended | 0x4D,
	"insert":    extended | 0x52,
	"delete":    extended | 0x53,
	"home":      extended | 0x47,
	"end":       extended | 0x4F,
	"pageup":    extended | 0x49,
	"pagedown":  extended | 0x51,

	"minus":        0x0C,
	"equal":        0x0D,
	"leftbracket":  0x1A,
	"rightbracket": 0x1B,
	"backslash":    0x2B,
	"semicolon":    0x27,
	"apostrophe":   0x28,
	"grave":        0x29,
	"comma":        0x33,
	"period":       0x34,
	"slash":        0x35,

	"kp0": 0x52, "kp1": 0x4F, "kp2": 0x50, "kp3": 0x51, "kp4": 0x4B,
	"kp5": 0x4C, "kp6": 0x4D, "kp7": 0x47, "kp8": 0x48, "kp9": 0x49,
}

// keybdInput mirrors KEYBDINPUT
type keybdInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

// sendInput mirrors INPUT for the keyboard case; the padding keeps the
// union as large as MOUSEINPUT.
type sendInput struct {
	inputType uint32
	ki        keybdInput
	padding   [8]byte
}

type sendInputSink struct {
	mu     sync.Mutex
	logger *zap.SugaredLogger
	admin  bool
}

// NewSystemSink creates a sink that injects scancodes with SendInput
func NewSystemSink(logger *zap.SugaredLogger) (Sink, error) {
	if err := procSendInput.Find(); err != nil {
		return nil, &EmitError{Reason: Failed, Err: err}
	}
	admin := osutils.IsAdmin()
	if !admin {
		logger.Infof("Keys: Not elevated; games running as administrator will not receive keys")
	}
	return &sendInputSink{logger: logger, admin: admin}, nil
}

func (s *sendInputSink) send(key string, action Action) error {
	code, ok := windowsScancodes[key]
	if !ok {
		return &EmitError{Reason: UnsupportedKey, Key: key, Action: action}
	}

	in := sendInput{inputType: inputKeyboard}
	in.ki.wScan = code &^ extended
	in.ki.dwFlags = keyeventfScancode
	if code&extended != 0 {
		in.ki.dwFlags |= keyeventfExtendedKey
	}
	if action == Release {
		in.ki.dwFlags |= keyeventfKeyUp
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n, _, callErr := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if n == 1 {
		return nil
	}
	// SendInput returns 0 without an error code when UIPI blocks the event
	if !s.admin {
		return &EmitError{Reason: PermissionDenied, Err: fmt.Errorf("SendInput blocked, the foreground app may be elevated: %v", callErr)}
	}
	return fmt.Errorf("SendInput: %v", callErr)
}

func (s *sendInputSink) KeyDown(key string) error { return s.send(key, Press) }

func (s *sendInputSink) KeyUp(key string) error { return s.send(key, Release) }

func (s *sendInputSink) Close() error { return nil }
