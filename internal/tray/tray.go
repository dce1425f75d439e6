// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"fmt"
	"strings"
	"sync"

	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/controller"
)

// Controller is the part of the translation loop driven from the menu
type Controller interface {
	Status() controller.Status
	Connect() error
	Disconnect() error
	TogglePaused() (bool, error)
	Paused() bool
}

// Profiles lists and activates profiles
type Profiles interface {
	ListProfiles() ([]string, error)
	SwitchToProfile(name string) error
	GetCurrentProfile() string
}

// Tray manages the system tray icon and menu
type Tray struct {
	ctl      Controller
	profiles Profiles
	logger   *zap.SugaredLogger

	mu           sync.Mutex
	ready        bool
	statusItem   *systray.MenuItem
	pauseItem    *systray.MenuItem
	connectItem  *systray.MenuItem
	profileItems map[string]*systray.MenuItem
	connected    bool
	quitCh       chan struct{}
}

// New creates a new system tray
func New(ctl Controller, profiles Profiles, logger *zap.SugaredLogger) *Tray {
	return &Tray{
		ctl:          ctl,
		profiles:     profiles,
		logger:       logger,
		profileItems: make(map[string]*systray.MenuItem),
		quitCh:       make(chan struct{}),
	}
}

// Run starts the tray event loop and blocks until Quit is chosen or Stop is
// called. It must be called from the main goroutine.
func (t *Tray) Run(onQuit func()) {
	systray.Run(t.setupMenu, func() {
		close(t.quitCh)
		if onQuit != nil {
			onQuit()
		}
	})
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	systray.SetTitle("SpacePad")
	systray.SetTooltip("SpacePad: SpaceMouse to keyboard")
	systray.SetIcon(makeIcon(disconnectedColor))

	t.mu.Lock()
	t.statusItem = systray.AddMenuItem("Starting...", "")
	t.statusItem.Disable()
	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItemCheckbox("Pause output", "Stop sending keys", t.ctl.Paused())
	t.connectItem = systray.AddMenuItem("Disconnect", "Close the device")
	profilesMenu := systray.AddMenuItem("Profile", "Active mapping profile")

	names, err := t.profiles.ListProfiles()
	if err != nil {
		t.logger.Warnf("Tray: Failed to list profiles: %v", err)
	}
	active := t.profiles.GetCurrentProfile()
	for _, name := range names {
		item := profilesMenu.AddSubMenuItemCheckbox(name, "", name == active)
		t.profileItems[name] = item
		go t.onClick(item, func() { t.switchProfile(name) })
	}

	systray.AddSeparator()
	quit := systray.AddMenuItem("Quit", "Release keys and exit")
	t.ready = true
	t.mu.Unlock()

	go t.onClick(t.pauseItem, t.togglePause)
	go t.onClick(t.connectItem, t.toggleConnect)
	go t.onClick(quit, systray.Quit)

	t.Update(t.ctl.Status())
}

func (t *Tray) onClick(item *systray.MenuItem, fn func()) {
	for {
		select {
		case <-item.ClickedCh:
			fn()
		case <-t.quitCh:
			return
		}
	}
}

func (t *Tray) togglePause() {
	if _, err := t.ctl.TogglePaused(); err != nil {
		t.logger.Warnf("Tray: Pause: %v", err)
	}
}

func (t *Tray) toggleConnect() {
	var err error
	if t.ctl.Status().Connected {
		err = t.ctl.Disconnect()
	} else {
		err = t.ctl.Connect()
	}
	if err != nil {
		t.logger.Warnf("Tray: %v", err)
	}
}

func (t *Tray) switchProfile(name string) {
	if err := t.profiles.SwitchToProfile(name); err != nil {
		t.logger.Warnf("Tray: Failed to switch to %s: %v", name, err)
	}
}

// Update refreshes the menu from a status change
func (t *Tray) Update(st controller.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return
	}

	t.statusItem.SetTitle(statusLine(st))
	systray.SetTooltip("SpacePad: " + statusLine(st))
	if st.Paused {
		t.pauseItem.Check()
	} else {
		t.pauseItem.Uncheck()
	}
	if st.Connected {
		t.connectItem.SetTitle("Disconnect")
	} else {
		t.connectItem.SetTitle("Connect")
	}
	if st.Connected != t.connected {
		t.connected = st.Connected
		if st.Connected {
			systray.SetIcon(makeIcon(connectedColor))
		} else {
			systray.SetIcon(makeIcon(disconnectedColor))
		}
	}
	t.checkProfileLocked(st.Profile)
}

// ProfileChanged marks name as the active profile
func (t *Tray) ProfileChanged(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ready {
		t.checkProfileLocked(name)
	}
}

func (t *Tray) checkProfileLocked(active string) {
	for name, item := range t.profileItems {
		if name == active {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// statusLine summarizes st in one menu line
func statusLine(st controller.Status) string {
	var b strings.Builder
	switch {
	case !st.Connected && st.LastError != "":
		fmt.Fprintf(&b, "Disconnected (%s)", st.LastError)
	case !st.Connected:
		b.WriteString("Disconnected")
	case st.Device != "":
		b.WriteString(st.Device)
	default:
		b.WriteString("Connected")
	}
	if st.Paused {
		b.WriteString(", paused")
	} else if len(st.Keys) > 0 {
		fmt.Fprintf(&b, ", holding %s", strings.Join(st.Keys, "+"))
	}
	return b.String()
}
