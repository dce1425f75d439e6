// Package switcher activates mapping profiles.
package switcher

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/config"
)

// Switcher coordinates the active profile between the profile store, the
// live snapshot read by the polling loop and the saved settings.
type Switcher struct {
	mu        sync.Mutex
	store     *config.Store
	live      *config.Live
	configMgr *config.Manager
	logger    *zap.SugaredLogger

	// Callbacks for UI notifications
	onSwitch []func(profileName string)
}

// New creates a Switcher
func New(store *config.Store, live *config.Live, configMgr *config.Manager, logger *zap.SugaredLogger) *Switcher {
	return &Switcher{
		store:     store,
		live:      live,
		configMgr: configMgr,
		logger:    logger,
	}
}

// OnSwitch adds a callback for profile switches
func (s *Switcher) OnSwitch(callback func(profileName string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSwitch = append(s.onSwitch, callback)
}

// SwitchToProfile loads a stored profile, publishes it to the polling loop
// and remembers it as the startup profile.
func (s *Switcher) SwitchToProfile(profileName string) error {
	s.mu.Lock()
	p, err := s.store.Load(profileName)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.live.Publish(p); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.configMgr.Update(func(c *config.Config) { c.ActiveProfile = profileName }); err != nil {
		s.logger.Warnf("Switcher: Failed to save config: %v", err)
	}
	callbacks := slices.Clone(s.onSwitch)
	s.mu.Unlock()

	s.logger.Infof("Switcher: Switched to profile '%s'", profileName)
	for _, fn := range callbacks {
		fn(profileName)
	}
	return nil
}

// SaveProfile validates and stores p. When p is the active profile it is
// published immediately.
func (s *Switcher) SaveProfile(p *config.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(p); err != nil {
		return err
	}
	if p.Name == s.live.Load().Name {
		if err := s.live.Publish(p); err != nil {
			return fmt.Errorf("saved but not applied: %w", err)
		}
	}
	return nil
}

// Reload publishes the stored version of name if it is still the active
// profile. A switch that happened in the meantime wins.
func (s *Switcher) Reload(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live.Load().Name != name {
		s.logger.Debugf("Switcher: Skipping reload of %s, active profile changed", name)
		return nil
	}
	p, err := s.store.Load(name)
	if err != nil {
		return err
	}
	return s.live.Publish(p)
}

// GetCurrentProfile returns the active profile name
func (s *Switcher) GetCurrentProfile() string {
	return s.live.Load().Name
}

// Current returns the active profile snapshot
func (s *Switcher) Current() *config.Profile {
	return s.live.Load()
}

// ListProfiles returns the stored profile names
func (s *Switcher) ListProfiles() ([]string, error) {
	return s.store.List()
}

// Profiles returns every stored profile that loads cleanly
func (s *Switcher) Profiles() []*config.Profile {
	return s.store.LoadAll()
}
