// Package config provides settings, mapping profiles and profile persistence.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds the application settings
type Config struct {
	// ActiveProfile is the profile loaded at startup
	ActiveProfile string `json:"active_profile"`

	// PollIntervalMs is the polling loop period in milliseconds
	PollIntervalMs int `json:"poll_interval_ms"`

	// DisconnectAfter is the number of consecutive poll failures before the
	// device is reported disconnected and held keys are released
	DisconnectAfter int `json:"disconnect_after"`

	// ReconnectIntervalMs is the delay between reconnect attempts
	ReconnectIntervalMs int `json:"reconnect_interval_ms"`

	// IdleTimeoutMs reports a read timeout when a deflected device goes silent (0 disables)
	IdleTimeoutMs int `json:"idle_timeout_ms"`

	// Backend selects the device reader: "hid" or "evdev" (Linux only)
	Backend string `json:"backend"`

	// Device optionally selects a device by product name or path
	Device string `json:"device,omitempty"`

	// APIEnabled enables the local HTTP status API
	APIEnabled bool `json:"api_enabled"`

	// APIPort is the port for the status API
	APIPort int `json:"api_port"`

	// APIToken is an optional bearer token for API requests
	APIToken string `json:"api_token,omitempty"`

	// MQTTBroker enables status publishing when set (e.g. "tcp://localhost:1883")
	MQTTBroker string `json:"mqtt_broker,omitempty"`

	// MQTTClientID is the MQTT client identifier
	MQTTClientID string `json:"mqtt_client_id,omitempty"`

	// MQTTTopic is the topic prefix for status, profile and command topics
	MQTTTopic string `json:"mqtt_topic,omitempty"`

	// LogFile adds a rotating log file when set
	LogFile string `json:"log_file,omitempty"`

	// StartOnBoot registers the app to start on login
	StartOnBoot bool `json:"start_on_boot"`

	// AutoSwitch activates the profile linked to the foreground process
	AutoSwitch bool `json:"auto_switch"`

	// PauseHotkey toggles key output from the keyboard, e.g. "Ctrl+Alt+P" (empty disables)
	PauseHotkey string `json:"pause_hotkey"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ActiveProfile:       DefaultProfileName,
		PollIntervalMs:      10,
		DisconnectAfter:     3,
		ReconnectIntervalMs: 1000,
		IdleTimeoutMs:       2000,
		Backend:             "hid",
		APIEnabled:          true,
		APIPort:             18181,
		MQTTClientID:        "spacepad",
		MQTTTopic:           "spacepad",
		AutoSwitch:          true,
		PauseHotkey:         "Ctrl+Alt+P",
	}
}

// PollInterval returns the loop period
func (c *Config) PollInterval() time.Duration {
	return durationOr(c.PollIntervalMs, 10)
}

// ReconnectInterval returns the delay between reconnect attempts
func (c *Config) ReconnectInterval() time.Duration {
	return durationOr(c.ReconnectIntervalMs, 1000)
}

// IdleTimeout returns the silence window for a deflected device, 0 when disabled
func (c *Config) IdleTimeout() time.Duration {
	if c.IdleTimeoutMs <= 0 {
		return 0
	}
	return time.Duration(c.IdleTimeoutMs) * time.Millisecond
}

func durationOr(ms, def int) time.Duration {
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}

// Manager handles loading and saving the settings file
type Manager struct {
	mu         sync.Mutex
	dir        string
	configPath string
	config     *Config
	onChanged  func()
	logger     *zap.SugaredLogger
}

// NewManager creates a manager rooted at the per-user config directory
func NewManager(logger *zap.SugaredLogger) (*Manager, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(dir, logger)
}

// NewManagerAt creates a manager rooted at dir
func NewManagerAt(dir string, logger *zap.SugaredLogger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Manager{
		dir:        dir,
		configPath: filepath.Join(dir, "config.json"),
		config:     DefaultConfig(),
		logger:     logger,
	}, nil
}

// configDir returns the per-OS configuration directory
func configDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "spacepad"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "spacepad"), nil
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "spacepad"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "spacepad"), nil
	}
}

// Dir returns the configuration directory
func (m *Manager) Dir() string {
	return m.dir
}

// ProfilesDir returns the directory holding profile files
func (m *Manager) ProfilesDir() string {
	return filepath.Join(m.dir, "profiles")
}

// Load reads the configuration from disk
func (m *Manager) Load() error {
	m.mu.Lock()
	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		// No config file, use defaults
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		m.mu.Unlock()
		return err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		m.mu.Unlock()
		return err
	}
	m.config = cfg
	onChanged := m.onChanged
	m.mu.Unlock()

	if onChanged != nil {
		onChanged()
	}
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}

	m.logger.Debugf("Config: Saving configuration to %s (%d bytes)", m.configPath, len(data))
	return writeFileAtomic(m.configPath, data)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.config
}

// Set replaces the configuration
func (m *Manager) Set(cfg Config) {
	m.mu.Lock()
	m.config = &cfg
	onChanged := m.onChanged
	m.mu.Unlock()
	if onChanged != nil {
		onChanged()
	}
}

// Update applies fn to the configuration and saves it
func (m *Manager) Update(fn func(*Config)) error {
	m.mu.Lock()
	cfg := *m.config
	fn(&cfg)
	m.config = &cfg
	onChanged := m.onChanged
	m.mu.Unlock()

	if onChanged != nil {
		onChanged()
	}
	return m.Save()
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}

// writeFileAtomic writes through a temp file so a crash never leaves a truncated file
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
