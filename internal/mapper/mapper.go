// Package mapper turns motion samples into the set of active intents.
package mapper

import (
	"math"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/config"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/intent"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/motion"
)

// MapToIntents returns the intents active for sample under profile p.
// An axis value at or inside the deadzone never contributes. Outside it the
// value is scaled by the sensitivity and must exceed the binding threshold in
// the binding direction. Buttons map directly to their button intents.
func MapToIntents(sample motion.Sample, p *config.Profile) intent.Set {
	if p == nil {
		return intent.Set{}
	}

	var active []intent.Intent
	for _, b := range p.Bindings {
		if Active(sample, p, b) {
			active = append(active, b.Intent)
		}
	}
	for _, bb := range p.Buttons {
		if sample.Pressed(bb.Button) {
			active = append(active, bb.Intent())
		}
	}
	return intent.NewSet(active...)
}

// Active reports whether a single binding triggers for sample
func Active(sample motion.Sample, p *config.Profile, b config.Binding) bool {
	if b.Disabled {
		return false
	}
	s, ok := axisValue(sample, b.Axis, p)
	if !ok {
		return false
	}
	if b.Direction < 0 {
		s = -s
	}
	return s > b.Threshold
}

// axisValue returns the scaled value of axis a. The planar axis combines
// roll and pitch after the deadzone is applied to each of them.
func axisValue(sample motion.Sample, a motion.Axis, p *config.Profile) (float64, bool) {
	if a != motion.AxisPlanar {
		return Scaled(sample.Value(a), p)
	}
	roll, rollOK := Scaled(sample.Value(motion.AxisRoll), p)
	pitch, pitchOK := Scaled(sample.Value(motion.AxisPitch), p)
	if !rollOK && !pitchOK {
		return 0, false
	}
	return math.Hypot(roll, pitch), true
}

// Scaled applies the deadzone and sensitivity of p to an axis value.
// ok is false when v is inside the deadzone.
func Scaled(v float64, p *config.Profile) (scaled float64, ok bool) {
	if math.Abs(v) <= p.Deadzone {
		return 0, false
	}
	return v * p.Sensitivity, true
}
