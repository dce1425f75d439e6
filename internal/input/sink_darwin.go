//go:build darwin

package input

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ApplicationServices

#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <ApplicationServices/ApplicationServices.h>

bool hasAccessibilityPermissions() {
    return AXIsProcessTrusted();
}

bool postKey(CGKeyCode keyCode, bool pressed, int64_t marker) {
    CGEventRef event = CGEventCreateKeyboardEvent(NULL, keyCode, pressed);
    if (event == NULL) {
        return false;
    }
    CGEventSetIntegerValueField(event, kCGEventSourceUserData, marker);
    CGEventPost(kCGHIDEventTap, event);
    CFRelease(event);
    return true;
}
*/
import "C"
import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// macKeyCodes maps key names to CGKeyCode (kVK_*) values
var macKeyCodes = map[string]uint16{
	"a": 0x00, "b": 0x0B, "c": 0x08, "d": 0x02, "e": 0x0E, "f": 0x03, "g": 0x05,
	"h": 0x04, "i": 0x22, "j": 0x26, "k": 0x28, "l": 0x25, "m": 0x2E, "n": 0x2D,
	"o": 0x1F, "p": 0x23, "q": 0x0C, "r": 0x0F, "s": 0x01, "t": 0x11, "u": 0x20,
	"v": 0x09, "w": 0x0D, "x": 0x07, "y": 0x10, "z": 0x06,

	"0": 0x1D, "1": 0x12, "2": 0x13, "3": 0x14, "4": 0x15,
	"5": 0x17, "6": 0x16, "7": 0x1A, "8": 0x1C, "9": 0x19,

	"f1": 0x7A, "f2": 0x78, "f3": 0x63, "f4": 0x76, "f5": 0x60, "f6": 0x61,
	"f7": 0x62, "f8": 0x64, "f9": 0x65, "f10": 0x6D, "f11": 0x67, "f12": 0x6F,

	"space":     0x31,
	"enter":     0x24,
	"tab":       0x30,
	"escape":    0x35,
	"backspace": 0x33,
	"shift":     0x38,
	"rshift":    0x3C,
	"ctrl":      0x3B,
	"rctrl":     0x3E,
	"alt":       0x3A, // option
	"ralt":      0x3D,
	"capslock":  0x39,
	"up":        0x7E,
	"down":      0x7D,
	"left":      0x7B,
	"right":     0x7C,
	"insert":    0x72, // help
	"delete":    0x75, // forward delete
	"home":      0x73,
	"end":       0x77,
	"pageup":    0x74,
	"pagedown":  0x79,

	"minus":        0x1B,
	"equal":        0x18,
	"leftbracket":  0x21,
	"rightbracket": 0x1E,
	"backslash":    0x2A,
	"semicolon":    0x29,
	"apostrophe":   0x27,
	"grave":        0x32,
	"comma":        0x2B,
	"period":       0x2F,
	"slash":        0x2C,

	"kp0": 0x52, "kp1": 0x53, "kp2": 0x54, "kp3": 0x55, "kp4": 0x56,
	"kp5": 0x57, "kp6": 0x58, "kp7": 0x59, "kp8": 0x5B, "kp9": 0x5C,
}

var errNoAccessibility = errors.New("grant Accessibility access in System Settings > Privacy & Security")

// quartzSink posts keyboard events through CoreGraphics
type quartzSink struct {
	mu     sync.Mutex
	logger *zap.SugaredLogger
}

// NewSystemSink creates a CoreGraphics sink. The process needs Accessibility
// permission, without it macOS silently drops posted events.
func NewSystemSink(logger *zap.SugaredLogger) (Sink, error) {
	if !bool(C.hasAccessibilityPermissions()) {
		return nil, &EmitError{Reason: PermissionDenied, Err: errNoAccessibility}
	}
	return &quartzSink{logger: logger}, nil
}

func (s *quartzSink) post(key string, action Action) error {
	code, ok := macKeyCodes[key]
	if !ok {
		return &EmitError{Reason: UnsupportedKey, Key: key, Action: action}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// permission can be revoked while running
	if !bool(C.hasAccessibilityPermissions()) {
		return &EmitError{Reason: PermissionDenied, Err: errNoAccessibility}
	}
	if !bool(C.postKey(C.CGKeyCode(code), C.bool(action == Press), C.int64_t(InjectedMarker))) {
		return errors.New("CGEventCreateKeyboardEvent failed")
	}
	return nil
}

func (s *quartzSink) KeyDown(key string) error { return s.post(key, Press) }

func (s *quartzSink) KeyUp(key string) error { return s.post(key, Release) }

func (s *quartzSink) Close() error { return nil }
