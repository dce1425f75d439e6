package device

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sstallion/go-hid"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/motion"
)

const (
	// firstReadTimeout bounds how long one Poll waits for the first report
	firstReadTimeout = 2 * time.Millisecond
	// maxReportsPerPoll caps how many queued reports one Poll drains
	maxReportsPerPoll = 64
	reportSize        = 64
)

// reportReader is the subset of *hid.Device a source needs
type reportReader interface {
	ReadWithTimeout(p []byte, timeout time.Duration) (int, error)
	Close() error
}

var (
	hidInitOnce sync.Once
	hidInitErr  error
)

func initHID() error {
	hidInitOnce.Do(func() { hidInitErr = hid.Init() })
	return hidInitErr
}

// ListHID enumerates supported devices through hidapi
func ListHID() ([]Info, error) {
	if err := initHID(); err != nil {
		return nil, fmt.Errorf("hid init: %w", err)
	}
	var out []Info
	err := hid.Enumerate(hid.VendorIDAny, hid.ProductIDAny, func(d *hid.DeviceInfo) error {
		if !IsSupported(d.VendorID, d.ProductID) {
			return nil
		}
		name := d.ProductStr
		if name == "" {
			name = ProductName(d.ProductID)
		}
		out = append(out, Info{Name: name, Path: d.Path, VendorID: d.VendorID, ProductID: d.ProductID})
		return nil
	})
	return out, err
}

// HIDSource reads a SpaceMouse through hidapi. The device only sends reports
// when its state changes, so Poll returns the accumulated state.
type HIDSource struct {
	mu   sync.Mutex
	opts Options

	// swapped out in tests
	list func() ([]Info, error)
	open func(path string) (reportReader, error)

	dev        reportReader
	info       Info
	state      reportState
	lastReport time.Time
	buf        [reportSize]byte
}

// NewHIDSource creates an unconnected HID source
func NewHIDSource(opts Options) *HIDSource {
	return &HIDSource{
		opts: opts.withDefaults(),
		list: ListHID,
		open: func(path string) (reportReader, error) {
			if err := initHID(); err != nil {
				return nil, err
			}
			return hid.OpenPath(path)
		},
	}
}

// Name returns the connected device name, or "" when disconnected
func (s *HIDSource) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return ""
	}
	return s.info.Name
}

// Connect opens the first supported device matching the options. An open
// device is closed and reopened.
func (s *HIDSource) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev != nil {
		s.closeLocked()
	}

	infos, err := s.list()
	if err != nil {
		return motion.NewDeviceError(motion.ConnectFailed, "", err)
	}
	var candidates []Info
	for _, info := range infos {
		if matches(info, s.opts.Match) {
			candidates = append(candidates, info)
		}
	}
	if len(candidates) == 0 {
		if s.opts.Match != "" {
			return motion.NewDeviceError(motion.ConnectFailed, s.opts.Match, errors.New("no matching SpaceMouse found"))
		}
		return motion.NewDeviceError(motion.ConnectFailed, "", errors.New("no SpaceMouse found"))
	}

	var errs []error
	for _, info := range candidates {
		dev, err := s.open(info.Path)
		if err != nil {
			// receivers expose several interfaces, not all of them readable
			s.opts.Logger.Debugf("Device: Failed to open %s: %v", info, err)
			errs = append(errs, err)
			continue
		}
		s.dev = dev
		s.info = info
		s.state = reportState{}
		s.lastReport = s.opts.Clock.Now()
		s.opts.Logger.Infof("Device: Connected to %s", info)
		return nil
	}
	return motion.NewDeviceError(motion.ConnectFailed, candidates[0].Name, errors.Join(errs...))
}

// Disconnect closes the device. It is safe to call when not connected.
func (s *HIDSource) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *HIDSource) closeLocked() error {
	if s.dev == nil {
		return nil
	}
	err := s.dev.Close()
	s.opts.Logger.Infof("Device: Disconnected from %s", s.info.Name)
	s.dev = nil
	s.state = reportState{}
	if err != nil {
		return motion.NewDeviceError(motion.IOFailure, s.info.Name, err)
	}
	return nil
}

// Poll drains queued reports and returns the current device state
func (s *HIDSource) Poll() (motion.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return motion.Sample{}, motion.ErrNotConnected
	}

	now := s.opts.Clock.Now()
	timeout := firstReadTimeout
	for i := 0; i < maxReportsPerPoll; i++ {
		n, err := s.dev.ReadWithTimeout(s.buf[:], timeout)
		if errors.Is(err, hid.ErrTimeout) || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return motion.Sample{}, motion.NewDeviceError(motion.IOFailure, s.info.Name, err)
		}
		if s.state.apply(s.buf[:n]) {
			s.lastReport = now
		}
		// only the first read waits
		timeout = 0
	}

	if s.opts.IdleTimeout > 0 && !s.state.neutral() && now.Sub(s.lastReport) > s.opts.IdleTimeout {
		return motion.Sample{}, motion.NewDeviceError(motion.ReadTimeout, s.info.Name,
			fmt.Errorf("no report for %s while deflected", now.Sub(s.lastReport).Round(time.Millisecond)))
	}
	return s.state.sample(now), nil
}
