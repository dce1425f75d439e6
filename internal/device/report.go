package device

import (
	"encoding/binary"
	"math/bits"
	"time"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/motion"
)

// HID report IDs
const (
	reportTranslation = 1
	reportRotation    = 2
	reportButtons     = 3
)

// axisScale is the raw value treated as full deflection
const axisScale = 350.0

// axisSigns flips raw device axes into the motion convention: lifting is +z,
// tilting forward is +pitch, tilting right is +roll.
var axisSigns = [6]float64{1, -1, -1, -1, -1, 1}

// reportState accumulates the latest value of every channel across reports
type reportState struct {
	raw     [6]int16
	buttons uint32
}

// apply decodes one HID report and reports whether it was understood
func (s *reportState) apply(report []byte) bool {
	if len(report) == 0 {
		return false
	}
	data := report[1:]
	switch report[0] {
	case reportTranslation:
		if len(data) < 6 {
			return false
		}
		s.readAxes(data, 0, 3)
		// newer devices send all six axes in one report
		if len(data) >= 12 {
			s.readAxes(data[6:], 3, 3)
		}
	case reportRotation:
		if len(data) < 6 {
			return false
		}
		s.readAxes(data, 3, 3)
	case reportButtons:
		var mask uint32
		for i := 0; i < len(data) && i < 4; i++ {
			mask |= uint32(data[i]) << (8 * i)
		}
		s.buttons = mask
	default:
		return false
	}
	return true
}

// readAxes reads n little-endian int16 values into raw[first:]. The rotation
// block is sent as pitch, roll, yaw; it maps onto sample order roll, pitch, yaw.
func (s *reportState) readAxes(data []byte, first, n int) {
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[2*i:]))
		idx := first + i
		if first == 3 {
			idx = rotationOrder[i]
		}
		s.raw[idx] = v
	}
}

// rotationOrder maps the device's pitch, roll, yaw onto sample indices
var rotationOrder = [3]int{4, 3, 5}

// neutral reports whether the device is at rest with no buttons held
func (s *reportState) neutral() bool {
	return s.raw == [6]int16{} && s.buttons == 0
}

// sample converts the accumulated state into a normalized sample
func (s *reportState) sample(t time.Time) motion.Sample {
	var axes [6]float64
	for i, v := range s.raw {
		axes[i] = float64(v) / axisScale * axisSigns[i]
	}
	buttons := make([]int, 0, bits.OnesCount32(s.buttons))
	for b := 0; b < 32; b++ {
		if s.buttons&(1<<b) != 0 {
			buttons = append(buttons, b)
		}
	}
	return motion.NewSample(axes, buttons, t)
}
