package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrProfileNotFound is returned when a named profile has no file
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileExists is returned when a rename or import would overwrite a profile
	ErrProfileExists = errors.New("profile already exists")

	// ErrDefaultProfile is returned when deleting or renaming the default profile
	ErrDefaultProfile = errors.New("the default profile cannot be deleted or renamed")
)

const profileExt = ".json"

// ValidateName checks that a profile name is usable as a file name
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("profile name is empty")
	case name != strings.TrimSpace(name):
		return fmt.Errorf("profile name %q has surrounding spaces", name)
	case strings.ContainsAny(name, `/\:*?"<>|`) || strings.Contains(name, ".."):
		return fmt.Errorf("profile name %q contains reserved characters", name)
	case len(name) > 64:
		return fmt.Errorf("profile name %q is longer than 64 characters", name)
	}
	return nil
}

// Store persists profiles as one JSON file per profile
type Store struct {
	mu     sync.Mutex
	dir    string
	logger *zap.SugaredLogger
}

// NewStore creates a store in dir and writes the default profile if it is missing
func NewStore(dir string, logger *zap.SugaredLogger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	s := &Store{dir: dir, logger: logger}
	if _, err := os.Stat(s.path(DefaultProfileName)); os.IsNotExist(err) {
		logger.Infof("Profiles: Writing default profile to %s", s.path(DefaultProfileName))
		if err := s.Save(DefaultProfile()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Dir returns the profiles directory
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+profileExt)
}

// NameFromPath returns the profile name for a file in the store, or false
func (s *Store) NameFromPath(path string) (string, bool) {
	if filepath.Clean(filepath.Dir(path)) != filepath.Clean(s.dir) {
		return "", false
	}
	base := filepath.Base(path)
	if !strings.HasSuffix(base, profileExt) {
		return "", false
	}
	return strings.TrimSuffix(base, profileExt), true
}

// List returns the stored profile names, default first
func (s *Store) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), profileExt) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), profileExt)
		if name != DefaultProfileName {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{DefaultProfileName}, names...), nil
}

// Load reads and validates a profile
func (s *Store) Load(name string) (*Profile, error) {
	if err := ValidateName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(s.path(name), name)
}

func (s *Store) read(path, name string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	p, err := decodeProfile(data)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidProfile, name, err)
	}
	// the file name wins over the stored name
	p.Name = name
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p.Normalize(), nil
}

func decodeProfile(data []byte) (*Profile, error) {
	p := &Profile{}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Save validates and writes a profile
func (s *Store) Save(p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p.Normalize(), "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Debugf("Profiles: Saving %s (%d bytes)", p.Name, len(data))
	return writeFileAtomic(s.path(p.Name), data)
}

// Delete removes a profile. The default profile cannot be deleted.
func (s *Store) Delete(name string) error {
	if name == DefaultProfileName {
		return ErrDefaultProfile
	}
	if err := ValidateName(name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
		}
		return err
	}
	return nil
}

// Rename moves a profile to a new name
func (s *Store) Rename(oldName, newName string) error {
	if oldName == DefaultProfileName {
		return ErrDefaultProfile
	}
	if err := ValidateName(newName); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	p, err := s.Load(oldName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path(newName)); err == nil {
		return fmt.Errorf("%w: %s", ErrProfileExists, newName)
	}
	p.Name = newName
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path(newName), data); err != nil {
		return err
	}
	return os.Remove(s.path(oldName))
}

// Import validates a profile file from anywhere on disk and stores it under name
func (s *Store) Import(path, name string) (*Profile, error) {
	if err := ValidateName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := decodeProfile(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	p.Name = name

	s.mu.Lock()
	_, statErr := os.Stat(s.path(name))
	s.mu.Unlock()
	if statErr == nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileExists, name)
	}
	if err := s.Save(p); err != nil {
		return nil, err
	}
	return p.Normalize(), nil
}

// Export writes a stored profile to path
func (s *Store) Export(name, path string) error {
	p, err := s.Load(name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Link associates a profile with a process name for automatic switching.
// An empty process removes the link.
func (s *Store) Link(name, process string) (*Profile, error) {
	p, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	p.Process = strings.TrimSpace(process)
	if err := s.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadAll returns every profile that loads cleanly; broken files are logged and skipped
func (s *Store) LoadAll() []*Profile {
	names, err := s.List()
	if err != nil {
		s.logger.Warnf("Profiles: Failed to list %s: %v", s.dir, err)
		return nil
	}
	var out []*Profile
	for _, name := range names {
		p, err := s.Load(name)
		if err != nil {
			s.logger.Warnf("Profiles: Skipping %s: %v", name, err)
			continue
		}
		out = append(out, p)
	}
	return out
}
