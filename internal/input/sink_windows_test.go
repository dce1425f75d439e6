//go:build windows

package input

import (
	"testing"
	"unsafe"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/keys"
)

func TestWindowsScancodesCoverEveryKey(t *testing.T) {
	for _, name := range keys.Names() {
		if _, ok := windowsScancodes[name]; !ok {
			t.Errorf("No scancode for %q", name)
		}
	}
}

func TestSendInputLayout(t *testing.T) {
	want := uintptr(28)
	if unsafe.Sizeof(uintptr(0)) == 8 {
		want = 40
	}
	if got := unsafe.Sizeof(sendInput{}); got != want {
		t.Errorf("INPUT size %d, want %d", got, want)
	}
}
