package controller

import (
	"slices"
	"time"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/intent"
)

// Status is the state of the translation loop after a cycle
type Status struct {
	Connected bool       `json:"connected"`
	Device    string     `json:"device,omitempty"`
	Paused    bool       `json:"paused"`
	Profile   string     `json:"profile"`
	Intents   intent.Set `json:"intents"`
	Keys      []string   `json:"keys"`
	Axes      [6]float64 `json:"axes"`
	Buttons   []int      `json:"buttons"`
	LastError string     `json:"last_error,omitempty"`
	Failures  int        `json:"failures"`
	Cycle     uint64     `json:"cycle"`
	Time      time.Time  `json:"time"`
}

// differs reports whether b changes anything a listener displays.
// Axes, cycle and time change every cycle and are not compared.
func (s Status) differs(b Status) bool {
	return s.Connected != b.Connected ||
		s.Device != b.Device ||
		s.Paused != b.Paused ||
		s.Profile != b.Profile ||
		s.LastError != b.LastError ||
		!s.Intents.Equal(b.Intents) ||
		!slices.Equal(s.Keys, b.Keys)
}
