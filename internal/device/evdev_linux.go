//go:build linux

package device

import (
	"errors"
	"sync"
	"time"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/motion"
)

// evdev reports the six axes as codes 0-5 (X, Y, Z, RX, RY, RZ) of either
// EV_REL or EV_ABS depending on the kernel driver. RX is pitch, RY is roll.
var evdevAxisIndex = map[uint16]int{
	evdev.REL_X:  0,
	evdev.REL_Y:  1,
	evdev.REL_Z:  2,
	evdev.REL_RX: 4,
	evdev.REL_RY: 3,
	evdev.REL_RZ: 5,
}

// relDecay zeroes a relative axis that has not been reported for this long.
// The kernel drops zero-valued EV_REL events, so a return to rest is silent.
const relDecay = 60 * time.Millisecond

// ListEvdev enumerates supported devices under /dev/input
func ListEvdev() ([]Info, error) {
	devs, err := evdev.ListInputDevices()
	if err != nil {
		return nil, err
	}
	var out []Info
	for _, d := range devs {
		if IsSupported(d.Vendor, d.Product) {
			out = append(out, Info{Name: d.Name, Path: d.Fn, VendorID: d.Vendor, ProductID: d.Product})
		}
		d.File.Close()
	}
	return out, nil
}

// EvdevSource reads a SpaceMouse through the Linux input subsystem. A reader
// goroutine accumulates events; Poll returns the latest state.
type EvdevSource struct {
	mu   sync.Mutex
	opts Options

	dev        *evdev.InputDevice
	info       Info
	state      reportState
	lastReport time.Time
	relSeen    [6]time.Time
	readErr    error
	done       chan struct{}
}

// NewEvdevSource creates an unconnected evdev source
func NewEvdevSource(opts Options) (*EvdevSource, error) {
	return &EvdevSource{opts: opts.withDefaults()}, nil
}

// Name returns the connected device name, or "" when disconnected
func (s *EvdevSource) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return ""
	}
	return s.info.Name
}

// Connect opens the first supported event node
func (s *EvdevSource) Connect() error {
	s.Disconnect()

	infos, err := ListEvdev()
	if err != nil {
		return motion.NewDeviceError(motion.ConnectFailed, "", err)
	}
	for _, info := range infos {
		if !matches(info, s.opts.Match) {
			continue
		}
		dev, err := evdev.Open(info.Path)
		if err != nil {
			s.opts.Logger.Debugf("Device: Failed to open %s: %v", info, err)
			continue
		}

		s.mu.Lock()
		s.dev = dev
		s.info = info
		s.state = reportState{}
		s.relSeen = [6]time.Time{}
		s.readErr = nil
		s.lastReport = s.opts.Clock.Now()
		s.done = make(chan struct{})
		go s.readLoop(dev, s.done)
		s.mu.Unlock()

		s.opts.Logger.Infof("Device: Connected to %s", info)
		return nil
	}
	return motion.NewDeviceError(motion.ConnectFailed, s.opts.Match, errors.New("no SpaceMouse event device found"))
}

func (s *EvdevSource) readLoop(dev *evdev.InputDevice, done chan struct{}) {
	defer close(done)
	for {
		events, err := dev.Read()
		if err != nil {
			s.mu.Lock()
			if s.dev == dev {
				s.readErr = err
			}
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		for _, ev := range events {
			s.applyEvent(ev)
		}
		s.mu.Unlock()
	}
}

func (s *EvdevSource) applyEvent(ev evdev.InputEvent) {
	switch ev.Type {
	case evdev.EV_REL, evdev.EV_ABS:
		if idx, ok := evdevAxisIndex[ev.Code]; ok {
			now := s.opts.Clock.Now()
			s.state.raw[idx] = int16(ev.Value)
			s.lastReport = now
			if ev.Type == evdev.EV_REL {
				s.relSeen[idx] = now
			}
		}
	case evdev.EV_KEY:
		b := int(ev.Code) - evdev.BTN_0
		if b < 0 || b >= 32 {
			return
		}
		if ev.Value != 0 {
			s.state.buttons |= 1 << b
		} else {
			s.state.buttons &^= 1 << b
		}
		s.lastReport = s.opts.Clock.Now()
	}
}

// Disconnect closes the event node and waits for the reader to stop
func (s *EvdevSource) Disconnect() error {
	s.mu.Lock()
	dev, done := s.dev, s.done
	s.dev = nil
	s.state = reportState{}
	s.mu.Unlock()

	if dev == nil {
		return nil
	}
	err := dev.File.Close()
	<-done
	s.opts.Logger.Infof("Device: Disconnected from %s", s.info.Name)
	if err != nil {
		return motion.NewDeviceError(motion.IOFailure, s.info.Name, err)
	}
	return nil
}

// Poll returns the latest accumulated state
func (s *EvdevSource) Poll() (motion.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return motion.Sample{}, motion.ErrNotConnected
	}
	if s.readErr != nil {
		return motion.Sample{}, motion.NewDeviceError(motion.IOFailure, s.info.Name, s.readErr)
	}
	now := s.opts.Clock.Now()
	for i, seen := range s.relSeen {
		if !seen.IsZero() && now.Sub(seen) > relDecay {
			s.state.raw[i] = 0
			s.relSeen[i] = time.Time{}
		}
	}
	if s.opts.IdleTimeout > 0 && !s.state.neutral() && now.Sub(s.lastReport) > s.opts.IdleTimeout {
		return motion.Sample{}, motion.NewDeviceError(motion.ReadTimeout, s.info.Name, errors.New("no events while deflected"))
	}
	return s.state.sample(now), nil
}
