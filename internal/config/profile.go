package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/intent"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/keys"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/motion"
)

// Value ranges accepted for a profile
const (
	MaxSensitivity = 2.0
	MaxDeadzone    = 0.5
	MaxThreshold   = 1.0
)

// DefaultProfileName is the profile that always exists and cannot be deleted
const DefaultProfileName = "default"

// ErrInvalidProfile is wrapped by every validation failure
var ErrInvalidProfile = errors.New("invalid profile")

// Binding maps one intent to a device axis and an output key
type Binding struct {
	// Intent is the logical action driven by this binding
	Intent intent.Intent `json:"intent"`

	// Axis is the source axis
	Axis motion.Axis `json:"axis"`

	// Direction is +1 or -1; the intent only triggers on deflection in this direction
	Direction int `json:"direction"`

	// Threshold is the scaled magnitude the axis must exceed
	Threshold float64 `json:"threshold"`

	// Key is the output key name (see package keys)
	Key string `json:"key"`

	// Disabled bindings never activate
	Disabled bool `json:"disabled,omitempty"`
}

// ButtonBinding maps a device button to an output key
type ButtonBinding struct {
	// Button is the 0-based device button index
	Button int `json:"button"`

	// Key is the output key name
	Key string `json:"key"`
}

// Intent returns the intent that represents this button
func (b ButtonBinding) Intent() intent.Intent {
	return intent.Button(b.Button)
}

// Profile is a named mapping from device motion to keys. Values handed to the
// translation layer are treated as immutable; build a new Profile to change one.
type Profile struct {
	// Name is the profile name, also its file name in the profiles directory
	Name string `json:"name" jsonschema:"required"`

	// Sensitivity scales axis values after the deadzone is applied (0 - 2)
	Sensitivity float64 `json:"sensitivity" jsonschema:"minimum=0,maximum=2"`

	// Deadzone suppresses axis values at or below this magnitude (0 - 0.5)
	Deadzone float64 `json:"deadzone" jsonschema:"minimum=0"`

	// Bindings drive the movement intents
	Bindings []Binding `json:"bindings"`

	// Buttons map device buttons to keys
	Buttons []ButtonBinding `json:"buttons,omitempty"`

	// Process links the profile to a game executable for automatic switching
	Process string `json:"process,omitempty"`
}

// DefaultProfile returns the built-in profile: tilt for WASD, lift/push for
// jump/crouch, a deep push for prone, full tilt for sprint.
func DefaultProfile() *Profile {
	return &Profile{
		Name:        DefaultProfileName,
		Sensitivity: 1.0,
		Deadzone:    0.1,
		Bindings: []Binding{
			{Intent: intent.Forward, Axis: motion.AxisPitch, Direction: 1, Threshold: 0.5, Key: "w"},
			{Intent: intent.Back, Axis: motion.AxisPitch, Direction: -1, Threshold: 0.5, Key: "s"},
			{Intent: intent.Left, Axis: motion.AxisRoll, Direction: -1, Threshold: 0.5, Key: "a"},
			{Intent: intent.Right, Axis: motion.AxisRoll, Direction: 1, Threshold: 0.5, Key: "d"},
			{Intent: intent.Jump, Axis: motion.AxisZ, Direction: 1, Threshold: 0.5, Key: "space"},
			{Intent: intent.Crouch, Axis: motion.AxisZ, Direction: -1, Threshold: 0.5, Key: "c"},
			{Intent: intent.Prone, Axis: motion.AxisZ, Direction: -1, Threshold: 0.9, Key: "x"},
			{Intent: intent.Sprint, Axis: motion.AxisPlanar, Direction: 1, Threshold: 0.9, Key: "shift"},
		},
		Buttons: []ButtonBinding{
			{Button: 0, Key: "1"},
			{Button: 1, Key: "2"},
		},
	}
}

// Clone returns a deep copy
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Bindings = append([]Binding(nil), p.Bindings...)
	c.Buttons = append([]ButtonBinding(nil), p.Buttons...)
	return &c
}

// Binding returns the binding for an intent
func (p *Profile) Binding(i intent.Intent) (Binding, bool) {
	for _, b := range p.Bindings {
		if b.Intent == i {
			return b, true
		}
	}
	return Binding{}, false
}

// KeyFor returns the output key bound to an intent, for axis and button intents
func (p *Profile) KeyFor(i intent.Intent) (string, bool) {
	if b, ok := p.Binding(i); ok {
		return b.Key, true
	}
	if idx, ok := i.ButtonIndex(); ok {
		for _, bb := range p.Buttons {
			if bb.Button == idx {
				return bb.Key, true
			}
		}
	}
	return "", false
}

// Order returns every intent the profile can produce, in binding order
func (p *Profile) Order() []intent.Intent {
	out := make([]intent.Intent, 0, len(p.Bindings)+len(p.Buttons))
	for _, b := range p.Bindings {
		out = append(out, b.Intent)
	}
	for _, bb := range p.Buttons {
		out = append(out, bb.Intent())
	}
	return out
}

// Validate checks every field and returns all violations combined. The
// returned error wraps ErrInvalidProfile.
func (p *Profile) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil profile", ErrInvalidProfile)
	}

	var errs error
	fail := func(format string, args ...interface{}) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if err := ValidateName(p.Name); err != nil {
		fail("%v", err)
	}
	if p.Sensitivity < 0 || p.Sensitivity > MaxSensitivity {
		fail("sensitivity %.2f outside [0, %.1f]", p.Sensitivity, MaxSensitivity)
	}
	if p.Deadzone < 0 || p.Deadzone > MaxDeadzone {
		fail("deadzone %.2f outside [0, %.1f]", p.Deadzone, MaxDeadzone)
	}

	seen := make(map[intent.Intent]bool)
	for i, b := range p.Bindings {
		if !b.Intent.Valid() {
			fail("binding %d: unknown intent %q", i, b.Intent)
		} else if _, isButton := b.Intent.ButtonIndex(); isButton {
			fail("binding %d: %s must be bound in buttons", i, b.Intent)
		}
		if seen[b.Intent] {
			fail("binding %d: duplicate intent %s", i, b.Intent)
		}
		seen[b.Intent] = true
		if !b.Axis.Valid() {
			fail("binding %s: unknown axis %q", b.Intent, b.Axis)
		}
		if b.Direction != 1 && b.Direction != -1 {
			fail("binding %s: direction must be 1 or -1, got %d", b.Intent, b.Direction)
		}
		if b.Axis == motion.AxisPlanar && b.Direction != 1 {
			fail("binding %s: planar axis only supports direction 1", b.Intent)
		}
		if b.Threshold <= 0 || b.Threshold > MaxThreshold {
			fail("binding %s: threshold %.2f outside (0, %.1f]", b.Intent, b.Threshold, MaxThreshold)
		}
		if !b.Disabled && b.Threshold <= p.Deadzone {
			fail("binding %s: threshold %.2f must be greater than deadzone %.2f", b.Intent, b.Threshold, p.Deadzone)
		}
		if !keys.Known(b.Key) {
			fail("binding %s: unknown key %q", b.Intent, b.Key)
		}
	}

	seenButtons := make(map[int]bool)
	for _, bb := range p.Buttons {
		if bb.Button < 0 {
			fail("button %d: index must not be negative", bb.Button)
		}
		if seenButtons[bb.Button] {
			fail("button %d: duplicate binding", bb.Button)
		}
		seenButtons[bb.Button] = true
		if !keys.Known(bb.Key) {
			fail("button %d: unknown key %q", bb.Button, bb.Key)
		}
	}

	if errs != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidProfile, p.Name, errs)
	}
	return nil
}

// Normalize returns a copy with canonical key names. Call after Validate.
func (p *Profile) Normalize() *Profile {
	c := p.Clone()
	for i := range c.Bindings {
		if k, ok := keys.Normalize(c.Bindings[i].Key); ok {
			c.Bindings[i].Key = k
		}
	}
	for i := range c.Buttons {
		if k, ok := keys.Normalize(c.Buttons[i].Key); ok {
			c.Buttons[i].Key = k
		}
	}
	return c
}
