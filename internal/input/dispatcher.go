package input

import (
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/config"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/intent"
)

// Dispatcher applies key events to a Sink and tracks what the OS holds.
//
// A key bound to several active intents is pressed once and released when
// the last of them goes inactive. A release the sink rejects stays pending
// and is retried by RetryPending until it succeeds. A rejected press leaves
// the key up and is not retried; the matching release is then skipped.
type Dispatcher struct {
	mu      sync.Mutex
	sink    Sink
	logger  *zap.SugaredLogger
	held    map[string]int           // key -> number of intents holding it
	owners  map[intent.Intent]string // intent -> key pressed for it
	pending map[string]bool          // keys whose release failed
}

// NewDispatcher creates a dispatcher writing to sink
func NewDispatcher(sink Sink, logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		sink:    sink,
		logger:  logger,
		held:    make(map[string]int),
		owners:  make(map[intent.Intent]string),
		pending: make(map[string]bool),
	}
}

// Update computes the events for the transition prev -> next and applies them.
// An intent active in both sets whose key changed in p is moved to the new
// key. It returns the planned events and every EmitError combined.
func (d *Dispatcher) Update(next, prev intent.Set, p *config.Profile) ([]KeyEvent, error) {
	var releases, presses []KeyEvent
	for _, ev := range append(d.rebinds(next, prev, p), Diff(next, prev, p)...) {
		if ev.Action == Release {
			releases = append(releases, ev)
		} else {
			presses = append(presses, ev)
		}
	}
	events := append(releases, presses...)
	return events, d.Apply(events)
}

// rebinds returns a release of the held key and a press of the bound key for
// every intent that stays active while p binds it to a different key
func (d *Dispatcher) rebinds(next, prev intent.Set, p *config.Profile) []KeyEvent {
	if p == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var events []KeyEvent
	for _, i := range next.Items() {
		held, ok := d.owners[i]
		if !ok || !prev.Has(i) {
			continue
		}
		key, bound := p.KeyFor(i)
		if bound && key == held {
			continue
		}
		events = append(events, KeyEvent{Key: held, Action: Release, Intent: i})
		if bound {
			events = append(events, KeyEvent{Key: key, Action: Press, Intent: i})
		}
	}
	return events
}

// Apply delivers events in order
func (d *Dispatcher) Apply(events []KeyEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs error
	for _, ev := range events {
		switch ev.Action {
		case Release:
			errs = multierr.Append(errs, d.release(ev.Intent))
		case Press:
			errs = multierr.Append(errs, d.press(ev))
		}
	}
	return errs
}

func (d *Dispatcher) release(i intent.Intent) error {
	key, ok := d.owners[i]
	if !ok {
		// never reached the OS
		return nil
	}
	delete(d.owners, i)
	d.held[key]--
	if d.held[key] > 0 {
		return nil
	}
	delete(d.held, key)
	return d.keyUp(key)
}

func (d *Dispatcher) press(ev KeyEvent) error {
	if _, ok := d.owners[ev.Intent]; ok || ev.Key == "" {
		return nil
	}
	if d.held[ev.Key] == 0 {
		if err := d.sink.KeyDown(ev.Key); err != nil {
			return emitError(ev.Key, Press, err)
		}
		// a successful press supersedes an earlier failed release
		delete(d.pending, ev.Key)
	}
	d.held[ev.Key]++
	d.owners[ev.Intent] = ev.Key
	return nil
}

func (d *Dispatcher) keyUp(key string) error {
	if err := d.sink.KeyUp(key); err != nil {
		d.pending[key] = true
		return emitError(key, Release, err)
	}
	delete(d.pending, key)
	return nil
}

// RetryPending retries every release that failed earlier
func (d *Dispatcher) RetryPending() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs error
	for _, key := range sortedKeys(d.pending) {
		if d.held[key] > 0 {
			// pressed again since; nothing to release
			delete(d.pending, key)
			continue
		}
		if err := d.keyUp(key); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		d.logger.Infof("Keys: Released %s on retry", key)
	}
	return errs
}

// ReleaseAll releases every held or pending key and forgets all intents
func (d *Dispatcher) ReleaseAll() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	toRelease := make(map[string]bool, len(d.held)+len(d.pending))
	for key := range d.held {
		toRelease[key] = true
	}
	for key := range d.pending {
		toRelease[key] = true
	}
	d.held = make(map[string]int)
	d.owners = make(map[intent.Intent]string)

	var errs error
	for _, key := range sortedKeys(toRelease) {
		errs = multierr.Append(errs, d.keyUp(key))
	}
	if len(toRelease) > 0 {
		d.logger.Debugf("Keys: Released all (%d keys)", len(toRelease))
	}
	return errs
}

// Held returns the keys currently held down, sorted
func (d *Dispatcher) Held() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.held))
	for key := range d.held {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Pending returns the keys whose release is still outstanding, sorted
func (d *Dispatcher) Pending() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return sortedKeys(d.pending)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
