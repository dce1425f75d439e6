package switcher

import (
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/config"
)

func newTestSwitcher(t *testing.T) (*Switcher, *config.Manager) {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	dir := t.TempDir()
	mgr, err := config.NewManagerAt(dir, logger)
	if err != nil {
		t.Fatal(err)
	}
	store, err := config.NewStore(filepath.Join(dir, "profiles"), logger)
	if err != nil {
		t.Fatal(err)
	}
	live, err := config.NewLive(config.DefaultProfile())
	if err != nil {
		t.Fatal(err)
	}
	return New(store, live, mgr, logger), mgr
}

func TestSwitchToProfile(t *testing.T) {
	s, mgr := newTestSwitcher(t)
	p := config.DefaultProfile()
	p.Name = "fps"
	p.Sensitivity = 1.4
	if err := s.SaveProfile(p); err != nil {
		t.Fatal(err)
	}

	var switched []string
	s.OnSwitch(func(name string) { switched = append(switched, name) })

	if err := s.SwitchToProfile("fps"); err != nil {
		t.Fatalf("SwitchToProfile: %v", err)
	}
	if s.GetCurrentProfile() != "fps" || s.Current().Sensitivity != 1.4 {
		t.Errorf("Profile not applied: %+v", s.Current())
	}
	if mgr.Get().ActiveProfile != "fps" {
		t.Errorf("Active profile not saved, got %q", mgr.Get().ActiveProfile)
	}
	if len(switched) != 1 || switched[0] != "fps" {
		t.Errorf("Expected one switch callback, got %v", switched)
	}
}

func TestSwitchToMissingProfile(t *testing.T) {
	s, _ := newTestSwitcher(t)
	if err := s.SwitchToProfile("nope"); !errors.Is(err, config.ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound, got %v", err)
	}
	if s.GetCurrentProfile() != config.DefaultProfileName {
		t.Error("Failed switch must keep the current profile")
	}
}

func TestSaveActiveProfileAppliesImmediately(t *testing.T) {
	s, _ := newTestSwitcher(t)
	p := config.DefaultProfile()
	p.Deadzone = 0.2
	if err := s.SaveProfile(p); err != nil {
		t.Fatal(err)
	}
	if s.Current().Deadzone != 0.2 {
		t.Errorf("Expected active profile updated, got deadzone %v", s.Current().Deadzone)
	}

	other := config.DefaultProfile()
	other.Name = "other"
	other.Deadzone = 0.3
	if err := s.SaveProfile(other); err != nil {
		t.Fatal(err)
	}
	if s.Current().Deadzone != 0.2 {
		t.Error("Saving an inactive profile must not change the active one")
	}
}

func TestSaveInvalidProfile(t *testing.T) {
	s, _ := newTestSwitcher(t)
	p := config.DefaultProfile()
	p.Sensitivity = 5
	if err := s.SaveProfile(p); !errors.Is(err, config.ErrInvalidProfile) {
		t.Errorf("Expected ErrInvalidProfile, got %v", err)
	}
}

func TestReloadPublishesStoredActiveProfile(t *testing.T) {
	s, _ := newTestSwitcher(t)
	p := config.DefaultProfile()
	p.Deadzone = 0.25
	if err := s.store.Save(p); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(config.DefaultProfileName); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if s.Current().Deadzone != 0.25 {
		t.Errorf("Expected reloaded deadzone 0.25, got %v", s.Current().Deadzone)
	}
}

func TestReloadAfterSwitchKeepsNewProfile(t *testing.T) {
	s, _ := newTestSwitcher(t)
	fps := config.DefaultProfile()
	fps.Name = "fps"
	if err := s.SaveProfile(fps); err != nil {
		t.Fatal(err)
	}

	// a reload that started for default finishes after the switch
	name := s.GetCurrentProfile()
	if err := s.SwitchToProfile("fps"); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(name); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := s.GetCurrentProfile(); got != "fps" {
		t.Errorf("Stale reload replaced the active profile with %s", got)
	}
}
