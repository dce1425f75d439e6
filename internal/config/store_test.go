package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "profiles"), zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestNewStoreWritesDefault(t *testing.T) {
	s := newTestStore(t)

	p, err := s.Load(DefaultProfileName)
	if err != nil {
		t.Fatalf("Load default: %v", err)
	}
	if diff := cmp.Diff(DefaultProfile(), p); diff != "" {
		t.Errorf("Default profile mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreSaveListLoad(t *testing.T) {
	s := newTestStore(t)

	p := DefaultProfile()
	p.Name = "tarkov"
	p.Sensitivity = 1.5
	p.Bindings[0].Key = "Up"
	if err := s.Save(p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	names, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"default", "tarkov"}, names); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}

	got, err := s.Load("tarkov")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Sensitivity != 1.5 || got.Bindings[0].Key != "up" {
		t.Errorf("Unexpected loaded profile %+v", got)
	}
}

func TestStoreSaveRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	p := DefaultProfile()
	p.Name = "broken"
	p.Deadzone = 0.6

	if err := s.Save(p); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("Expected ErrInvalidProfile, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "broken.json")); !os.IsNotExist(err) {
		t.Error("Invalid profile must not be written")
	}
}

func TestStoreLoadErrors(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Load("missing"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound, got %v", err)
	}
	if _, err := s.Load("../etc"); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("Expected ErrInvalidProfile for a path name, got %v", err)
	}

	os.WriteFile(filepath.Join(s.Dir(), "garbage.json"), []byte(`{"name": "garbage", "wat": 1}`), 0644)
	if _, err := s.Load("garbage"); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("Expected ErrInvalidProfile for unknown fields, got %v", err)
	}
}

func TestStoreDeleteAndRename(t *testing.T) {
	s := newTestStore(t)
	p := DefaultProfile()
	p.Name = "a"
	if err := s.Save(p); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(DefaultProfileName); !errors.Is(err, ErrDefaultProfile) {
		t.Errorf("Expected ErrDefaultProfile, got %v", err)
	}
	if err := s.Rename(DefaultProfileName, "x"); !errors.Is(err, ErrDefaultProfile) {
		t.Errorf("Expected ErrDefaultProfile on rename, got %v", err)
	}
	if err := s.Rename("a", DefaultProfileName); !errors.Is(err, ErrProfileExists) {
		t.Errorf("Expected ErrProfileExists, got %v", err)
	}
	if err := s.Rename("a", "b"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := s.Load("a"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Old name should be gone, got %v", err)
	}
	b, err := s.Load("b")
	if err != nil || b.Name != "b" {
		t.Fatalf("Renamed profile not loadable: %v", err)
	}
	if err := s.Delete("b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete("b"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound on second delete, got %v", err)
	}
}

func TestStoreImportExport(t *testing.T) {
	s := newTestStore(t)
	out := filepath.Join(t.TempDir(), "export.json")

	if err := s.Export(DefaultProfileName, out); err != nil {
		t.Fatalf("Export: %v", err)
	}
	p, err := s.Import(out, "imported")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if p.Name != "imported" {
		t.Errorf("Expected imported name, got %s", p.Name)
	}
	if _, err := s.Import(out, "imported"); !errors.Is(err, ErrProfileExists) {
		t.Errorf("Expected ErrProfileExists on second import, got %v", err)
	}
}

func TestStoreLinkAndLoadAll(t *testing.T) {
	s := newTestStore(t)
	p := DefaultProfile()
	p.Name = "game"
	if err := s.Save(p); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Link("game", " Game.exe "); err != nil {
		t.Fatalf("Link: %v", err)
	}
	os.WriteFile(filepath.Join(s.Dir(), "corrupt.json"), []byte(`{`), 0644)

	all := s.LoadAll()
	if len(all) != 2 {
		t.Fatalf("Expected 2 loadable profiles, got %d", len(all))
	}
	if all[1].Name != "game" || all[1].Process != "Game.exe" {
		t.Errorf("Unexpected linked profile %+v", all[1])
	}
}

func TestNameFromPath(t *testing.T) {
	s := newTestStore(t)
	if name, ok := s.NameFromPath(filepath.Join(s.Dir(), "fps.json")); !ok || name != "fps" {
		t.Errorf("Expected fps, got %q (%v)", name, ok)
	}
	if _, ok := s.NameFromPath(filepath.Join(s.Dir(), "fps.json.123.tmp")); ok {
		t.Error("Temp files are not profiles")
	}
	if _, ok := s.NameFromPath(filepath.Join(t.TempDir(), "fps.json")); ok {
		t.Error("Files outside the store are not profiles")
	}
}
