//go:build linux || darwin

package autostart

import (
	"os"
	"runtime"
	"strings"
	"testing"
)

func TestEnableDisable(t *testing.T) {
	home := t.TempDir()
	userHomeDir = func() (string, error) { return home, nil }
	t.Cleanup(func() { userHomeDir = os.UserHomeDir })
	t.Setenv("XDG_CONFIG_HOME", "")

	if IsEnabled() {
		t.Fatal("Expected auto-start disabled in a fresh home")
	}
	if err := Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if !IsEnabled() {
		t.Fatal("Expected auto-start enabled")
	}

	path, _, _ := entryFile()
	if !strings.HasPrefix(path, home) {
		t.Errorf("Entry %s outside home %s", path, home)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	exe, _ := os.Executable()
	if !strings.Contains(string(data), exe) {
		t.Errorf("Entry does not reference the executable:\n%s", data)
	}
	if runtime.GOOS == "darwin" && !strings.Contains(string(data), "<string>"+Label+"</string>") {
		t.Errorf("Plist missing label:\n%s", data)
	}

	if err := Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if IsEnabled() {
		t.Error("Expected auto-start disabled")
	}
	if err := Disable(); err != nil {
		t.Errorf("Second Disable should be a no-op, got %v", err)
	}
}
