// Package autoswitch activates the profile linked to the foreground process.
package autoswitch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/config"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/osutils"
)

// DefaultInterval is the foreground check period
const DefaultInterval = 2 * time.Second

// Switcher activates profiles
type Switcher interface {
	SwitchToProfile(name string) error
	GetCurrentProfile() string
	Profiles() []*config.Profile
}

// Options configures a Watcher
type Options struct {
	Interval time.Duration
	Clock    clock.Clock
	Logger   *zap.SugaredLogger

	// Foreground returns the executable name of the focused process
	Foreground func() (string, error)
}

// Watcher polls the foreground process and switches profiles
type Watcher struct {
	sw   Switcher
	opts Options
	last string
}

// New creates a Watcher
func New(sw Switcher, opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Foreground == nil {
		opts.Foreground = ForegroundProcessName
	}
	return &Watcher{sw: sw, opts: opts}
}

// ForegroundProcessName returns the executable name of the process owning
// the focused window
func ForegroundProcessName() (string, error) {
	pid, err := osutils.ForegroundProcessID()
	if err != nil {
		return "", err
	}
	proc, err := process.NewProcess(pid)
	if err != nil {
		return "", err
	}
	return proc.Name()
}

// Supported reports whether the foreground process can be queried here
func Supported() bool {
	_, err := osutils.ForegroundProcessID()
	return !errors.Is(err, osutils.ErrUnsupported)
}

// Run checks the foreground process every interval until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	ticker := w.opts.Clock.Ticker(w.opts.Interval)
	defer ticker.Stop()
	w.opts.Logger.Infof("AutoSwitch: Watching foreground process every %v", w.opts.Interval)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Check()
		}
	}
}

// Check switches to the profile linked to the foreground process, if any.
// Without a match the active profile is kept. It returns the profile
// switched to, or "" when nothing changed.
func (w *Watcher) Check() string {
	name, err := w.opts.Foreground()
	if err != nil {
		w.opts.Logger.Debugf("AutoSwitch: No foreground process: %v", err)
		return ""
	}
	if name != w.last {
		w.opts.Logger.Debugf("AutoSwitch: Foreground process is %s", name)
		w.last = name
	}

	target := Match(w.sw.Profiles(), name)
	if target == "" || target == w.sw.GetCurrentProfile() {
		return ""
	}
	if err := w.sw.SwitchToProfile(target); err != nil {
		w.opts.Logger.Warnf("AutoSwitch: Failed to switch to %s for %s: %v", target, name, err)
		return ""
	}
	w.opts.Logger.Infof("AutoSwitch: %s is in the foreground, switched to %s", name, target)
	return target
}

// Match returns the first profile linked to the process name, compared
// case-insensitively
func Match(profiles []*config.Profile, processName string) string {
	if processName == "" {
		return ""
	}
	for _, p := range profiles {
		if p.Process != "" && strings.EqualFold(p.Process, processName) {
			return p.Name
		}
	}
	return ""
}
