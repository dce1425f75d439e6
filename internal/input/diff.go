package input

import (
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/config"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/intent"
)

// Diff returns the key events for moving from prev to next under profile p.
// Every release comes before every press so that two intents sharing a key
// end with the key held. Intents in next with no bound key produce no event;
// a release for an intent p no longer binds carries an empty Key and is
// resolved by the Dispatcher from what it pressed. Diff has no side effects.
func Diff(next, prev intent.Set, p *config.Profile) []KeyEvent {
	released := prev.Difference(next)
	pressed := next.Difference(prev)

	events := make([]KeyEvent, 0, released.Len()+pressed.Len())
	for _, i := range released.Items() {
		key := ""
		if p != nil {
			key, _ = p.KeyFor(i)
		}
		events = append(events, KeyEvent{Key: key, Action: Release, Intent: i})
	}
	if p == nil {
		return events
	}
	for _, i := range pressed.Items() {
		key, ok := p.KeyFor(i)
		if !ok {
			continue
		}
		events = append(events, KeyEvent{Key: key, Action: Press, Intent: i})
	}
	return events
}
