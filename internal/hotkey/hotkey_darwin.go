//go:build darwin

package hotkey

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ApplicationServices
#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>

CGEventRef eventCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon);

// createTap returns NULL without Accessibility permission
static inline CFMachPortRef createTap(uintptr_t refcon) {
    CGEventMask mask = CGEventMaskBit(kCGEventKeyDown) | CGEventMaskBit(kCGEventKeyUp) | CGEventMaskBit(kCGEventFlagsChanged);
    return CGEventTapCreate(
        kCGSessionEventTap,
        kCGHeadInsertEventTap,
        kCGEventTapOptionListenOnly,
        mask,
        eventCallback,
        (void*)refcon
    );
}

static inline void runTap(CFMachPortRef tap) {
    CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
    CFRunLoopAddSource(CFRunLoopGetCurrent(), source, kCFRunLoopCommonModes);
    CGEventTapEnable(tap, true);
    CFRunLoopRun();
}
*/
import "C"
import (
	"errors"
	"runtime"
	"runtime/cgo"
	"unsafe"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/input"
)

//export eventCallback
func eventCallback(proxy C.CGEventTapProxy, eventType C.CGEventType, event C.CGEventRef, refcon unsafe.Pointer) C.CGEventRef {
	h := cgo.Handle(uintptr(refcon))
	m := h.Value().(*Manager)

	if int64(C.CGEventGetIntegerValueField(event, C.kCGEventSourceUserData)) == input.InjectedMarker {
		return event
	}

	keyCode := uint16(C.CGEventGetIntegerValueField(event, C.kCGKeyboardEventKeycode))
	switch eventType {
	case C.kCGEventKeyDown, C.kCGEventKeyUp:
		if keyName := macKeyNames[keyCode]; keyName != "" {
			m.UpdateState(keyName, eventType == C.kCGEventKeyDown)
		}

	case C.kCGEventFlagsChanged:
		// modifiers only report the new flag state
		flags := C.CGEventGetFlags(event)
		switch keyCode {
		case 55, 54:
			m.UpdateState("CMD", (flags&C.kCGEventFlagMaskCommand) != 0)
		case 56, 60:
			m.UpdateState("SHIFT", (flags&C.kCGEventFlagMaskShift) != 0)
		case 58, 61:
			m.UpdateState("ALT", (flags&C.kCGEventFlagMaskAlternate) != 0)
		case 59, 62:
			m.UpdateState("CTRL", (flags&C.kCGEventFlagMaskControl) != 0)
		}
	}
	return event
}

func (m *Manager) startPlatform() error {
	started := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		handle := cgo.NewHandle(m)
		tap := C.createTap(C.uintptr_t(handle))
		if tap == nil {
			handle.Delete()
			started <- errors.New("CGEventTapCreate failed, grant Accessibility access in System Settings > Privacy & Security")
			return
		}
		started <- nil
		m.logger.Infof("Hotkey: macOS event tap installed")
		C.runTap(tap)
	}()
	return <-started
}

// macKeyNames maps kVK_* key codes to hotkey names
var macKeyNames = map[uint16]string{
	49: "SPACE", 36: "ENTER", 53: "ESC", 51: "BACKSPACE", 48: "TAB", 57: "CAPSLOCK",
	116: "PAGEUP", 121: "PAGEDOWN", 119: "END", 115: "HOME",
	123: "LEFT", 126: "UP", 124: "RIGHT", 125: "DOWN", 117: "DELETE",

	0: "A", 11: "B", 8: "C", 2: "D", 14: "E", 3: "F", 5: "G", 4: "H", 34: "I",
	38: "J", 40: "K", 37: "L", 46: "M", 45: "N", 31: "O", 35: "P", 12: "Q",
	15: "R", 1: "S", 17: "T", 32: "U", 9: "V", 13: "W", 7: "X", 16: "Y", 6: "Z",

	29: "0", 18: "1", 19: "2", 20: "3", 21: "4", 23: "5", 22: "6", 26: "7", 28: "8", 25: "9",

	122: "F1", 120: "F2", 99: "F3", 118: "F4", 96: "F5", 97: "F6",
	98: "F7", 100: "F8", 101: "F9", 109: "F10", 103: "F11", 111: "F12",
}
