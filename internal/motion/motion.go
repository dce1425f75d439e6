// Package motion defines the 6-axis samples produced by a 3D input device.
package motion

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Axis identifies one channel of a motion sample
type Axis string

const (
	AxisX     Axis = "x"
	AxisY     Axis = "y"
	AxisZ     Axis = "z"
	AxisRoll  Axis = "roll"
	AxisPitch Axis = "pitch"
	AxisYaw   Axis = "yaw"

	// AxisPlanar is derived from roll and pitch: sqrt(roll² + pitch²).
	// It is never negative.
	AxisPlanar Axis = "planar"
)

// Axes lists the six physical axes in sample order
var Axes = [6]Axis{AxisX, AxisY, AxisZ, AxisRoll, AxisPitch, AxisYaw}

// ParseAxis converts a name into an Axis
func ParseAxis(name string) (Axis, error) {
	a := Axis(strings.ToLower(strings.TrimSpace(name)))
	if a.Valid() {
		return a, nil
	}
	return "", fmt.Errorf("unknown axis %q", name)
}

// Valid reports whether a is a known physical or derived axis
func (a Axis) Valid() bool {
	if a == AxisPlanar {
		return true
	}
	return a.index() >= 0
}

func (a Axis) index() int {
	for i, ax := range Axes {
		if ax == a {
			return i
		}
	}
	return -1
}

// Sample is one reading of the device. Values are normalized to [-1, 1].
type Sample struct {
	Axes    [6]float64 `json:"axes"`
	Buttons []int      `json:"buttons"` // 0-based indices of pressed buttons, ascending
	Time    time.Time  `json:"time"`
}

// NewSample builds a sample, clamping every axis and normalizing the button list.
// The buttons slice is copied.
func NewSample(axes [6]float64, buttons []int, t time.Time) Sample {
	s := Sample{Time: t}
	for i, v := range axes {
		s.Axes[i] = Clamp(v)
	}
	if len(buttons) > 0 {
		s.Buttons = append([]int(nil), buttons...)
		sort.Ints(s.Buttons)
		s.Buttons = dedupSorted(s.Buttons)
	}
	return s
}

// Value returns the value of the given axis. Unknown axes read as 0.
func (s Sample) Value(a Axis) float64 {
	if a == AxisPlanar {
		roll := s.Axes[AxisRoll.index()]
		pitch := s.Axes[AxisPitch.index()]
		return math.Hypot(roll, pitch)
	}
	i := a.index()
	if i < 0 {
		return 0
	}
	return s.Axes[i]
}

// Pressed reports whether the button with the given 0-based index is held
func (s Sample) Pressed(button int) bool {
	i := sort.SearchInts(s.Buttons, button)
	return i < len(s.Buttons) && s.Buttons[i] == button
}

// Neutral reports whether no axis is deflected and no button is held
func (s Sample) Neutral() bool {
	if len(s.Buttons) > 0 {
		return false
	}
	for _, v := range s.Axes {
		if v != 0 {
			return false
		}
	}
	return true
}

func (s Sample) String() string {
	return fmt.Sprintf("x=%+.2f y=%+.2f z=%+.2f roll=%+.2f pitch=%+.2f yaw=%+.2f buttons=%v",
		s.Axes[0], s.Axes[1], s.Axes[2], s.Axes[3], s.Axes[4], s.Axes[5], s.Buttons)
}

// Clamp limits v to [-1, 1]. NaN reads as 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}

func dedupSorted(in []int) []int {
	out := in[:1]
	for _, v := range in[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
