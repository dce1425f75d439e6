//go:build darwin

package input

import (
	"testing"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/keys"
)

func TestMacKeyCodesCoverEveryKey(t *testing.T) {
	for _, name := range keys.Names() {
		if _, ok := macKeyCodes[name]; !ok {
			t.Errorf("No key code for %q", name)
		}
	}
}
