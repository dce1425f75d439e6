// Package controller runs the polling loop that turns device motion into keys.
package controller

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/config"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/input"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/intent"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/mapper"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/motion"
)

// errorLogInterval limits how often repeated cycle errors are logged
const errorLogInterval = time.Second

// Options tunes the loop
type Options struct {
	PollInterval      time.Duration
	ReconnectInterval time.Duration
	// DisconnectAfter consecutive poll failures mark the device disconnected
	DisconnectAfter int
	Clock           clock.Clock
	Logger          *zap.SugaredLogger
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 10 * time.Millisecond
	}
	if o.ReconnectInterval <= 0 {
		o.ReconnectInterval = time.Second
	}
	if o.DisconnectAfter <= 0 {
		o.DisconnectAfter = 3
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
	return o
}

// Controller owns the device source and the key dispatcher. Step, Connect,
// Disconnect and SetPaused are serialized so a poll never overlaps a
// connection change.
type Controller struct {
	mu     sync.Mutex
	opts   Options
	source motion.Source
	keys   *input.Dispatcher
	live   *config.Live

	connected   bool
	manualOff   bool // disconnected on request; no automatic reconnect
	paused      bool
	prev        intent.Set
	failures    int
	lastAttempt time.Time
	lastErrLog  time.Time
	lastErr     string
	cycle       uint64

	statusMu  sync.RWMutex
	status    Status
	listeners []func(Status)
}

// New creates a controller reading from source and writing to sink. The
// profile is read from live once per cycle.
func New(source motion.Source, sink input.Sink, live *config.Live, opts Options) *Controller {
	opts = opts.withDefaults()
	return &Controller{
		opts:   opts,
		source: source,
		keys:   input.NewDispatcher(sink, opts.Logger),
		live:   live,
	}
}

// OnStatus registers fn to be called when the displayed status changes
func (c *Controller) OnStatus(fn func(Status)) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Status returns the status of the latest cycle
func (c *Controller) Status() Status {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

// Connect opens the device and re-enables automatic reconnects
func (c *Controller) Connect() error {
	c.mu.Lock()
	c.manualOff = false
	err := c.connectLocked()
	st, changed := c.publishLocked(motion.Sample{})
	c.mu.Unlock()

	c.notify(st, changed)
	return err
}

// Disconnect releases held keys and closes the device. The controller stays
// disconnected until Connect is called.
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	c.manualOff = true
	err := c.dropLocked()
	c.lastErr = ""
	st, changed := c.publishLocked(motion.Sample{})
	c.mu.Unlock()

	c.notify(st, changed)
	return err
}

// SetPaused stops emitting keys while still polling the device. Pausing
// releases every held key.
func (c *Controller) SetPaused(paused bool) error {
	c.mu.Lock()
	return c.setPausedAndUnlock(paused)
}

// TogglePaused flips the paused state and returns the new one
func (c *Controller) TogglePaused() (bool, error) {
	c.mu.Lock()
	paused := !c.paused
	return paused, c.setPausedAndUnlock(paused)
}

func (c *Controller) setPausedAndUnlock(paused bool) error {
	var err error
	if paused && !c.paused {
		err = c.keys.ReleaseAll()
		c.prev = intent.Set{}
	}
	c.paused = paused
	st, changed := c.publishLocked(motion.Sample{})
	c.mu.Unlock()

	c.opts.Logger.Infof("Controller: Paused=%v", paused)
	c.notify(st, changed)
	return err
}

// Paused reports whether key emission is paused
func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *Controller) connectLocked() error {
	c.lastAttempt = c.opts.Clock.Now()
	if err := c.source.Connect(); err != nil {
		c.connected = false
		c.setErrorLocked(err)
		return err
	}
	c.connected = true
	c.failures = 0
	c.lastErr = ""
	c.prev = intent.Set{}
	return nil
}

// dropLocked releases every key and closes the device
func (c *Controller) dropLocked() error {
	err := multierr.Combine(c.keys.ReleaseAll(), c.source.Disconnect())
	c.connected = false
	c.prev = intent.Set{}
	c.lastAttempt = c.opts.Clock.Now()
	return err
}

func (c *Controller) setErrorLocked(err error) {
	c.lastErr = err.Error()
	now := c.opts.Clock.Now()
	if now.Sub(c.lastErrLog) >= errorLogInterval {
		c.lastErrLog = now
		c.opts.Logger.Warnf("Controller: %v", err)
	}
}

// Step runs one cycle: retry failed releases, read the profile snapshot,
// poll, map, emit and publish the status. Errors are reported in the status
// and returned; they never stop later cycles.
func (c *Controller) Step() error {
	c.mu.Lock()
	sample, err := c.stepLocked()
	st, changed := c.publishLocked(sample)
	c.mu.Unlock()

	c.notify(st, changed)
	return err
}

func (c *Controller) stepLocked() (motion.Sample, error) {
	c.cycle++
	retryErr := c.keys.RetryPending()
	if retryErr != nil {
		c.setErrorLocked(retryErr)
	}

	if !c.connected {
		if c.manualOff || c.opts.Clock.Since(c.lastAttempt) < c.opts.ReconnectInterval {
			return motion.Sample{}, retryErr
		}
		if err := c.connectLocked(); err != nil {
			return motion.Sample{}, err
		}
		c.opts.Logger.Infof("Controller: Connected to %s", c.source.Name())
	}

	p := c.live.Load()
	sample, err := c.source.Poll()
	if err != nil {
		c.failures++
		c.setErrorLocked(err)
		if c.failures >= c.opts.DisconnectAfter || errors.Is(err, motion.ErrNotConnected) {
			c.opts.Logger.Warnf("Controller: Device lost after %d failed polls, releasing keys", c.failures)
			if dropErr := c.dropLocked(); dropErr != nil {
				c.opts.Logger.Warnf("Controller: %v", dropErr)
			}
		}
		return motion.Sample{}, err
	}
	c.failures = 0

	next := mapper.MapToIntents(sample, p)
	if c.paused {
		next = intent.Set{}
	}
	_, emitErr := c.keys.Update(next, c.prev, p)
	// a failed press is not retried, so the new set is taken either way
	c.prev = next
	if emitErr != nil {
		c.setErrorLocked(emitErr)
		return sample, emitErr
	}
	if retryErr == nil {
		c.lastErr = ""
	}
	return sample, retryErr
}

func (c *Controller) publishLocked(sample motion.Sample) (Status, bool) {
	st := Status{
		Connected: c.connected,
		Device:    c.source.Name(),
		Paused:    c.paused,
		Profile:   c.live.Load().Name,
		Intents:   c.prev,
		Keys:      c.keys.Held(),
		Axes:      sample.Axes,
		Buttons:   sample.Buttons,
		LastError: c.lastErr,
		Failures:  c.failures,
		Cycle:     c.cycle,
		Time:      c.opts.Clock.Now(),
	}

	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	changed := st.differs(c.status) || c.status.Time.IsZero()
	c.status = st
	return st, changed
}

func (c *Controller) notify(st Status, changed bool) {
	if !changed {
		return
	}
	c.statusMu.RLock()
	listeners := slices.Clone(c.listeners)
	c.statusMu.RUnlock()
	for _, fn := range listeners {
		fn(st)
	}
}

// Run connects and polls every PollInterval until ctx is done, then releases
// every held key and closes the device.
func (c *Controller) Run(ctx context.Context) error {
	ticker := c.opts.Clock.Ticker(c.opts.PollInterval)
	defer ticker.Stop()

	if err := c.Connect(); err != nil {
		c.opts.Logger.Warnf("Controller: Initial connect failed, retrying every %s: %v", c.opts.ReconnectInterval, err)
	}
	c.opts.Logger.Infof("Controller: Polling every %s", c.opts.PollInterval)

	for {
		select {
		case <-ctx.Done():
			return c.Shutdown()
		case <-ticker.C:
			c.Step()
		}
	}
}

// Shutdown releases every held key and closes the device
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	err := c.dropLocked()
	st, changed := c.publishLocked(motion.Sample{})
	c.mu.Unlock()

	c.notify(st, changed)
	c.opts.Logger.Infof("Controller: Stopped, all keys released")
	return err
}
