package input

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/config"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/intent"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *recordingSink) {
	sink := newRecordingSink()
	return NewDispatcher(sink, zaptest.NewLogger(t).Sugar()), sink
}

func sharedKeyProfile() *config.Profile {
	p := config.DefaultProfile()
	for i := range p.Bindings {
		if p.Bindings[i].Intent == intent.Prone {
			p.Bindings[i].Key = "c"
		}
	}
	return p
}

func TestDispatcherPressAndRelease(t *testing.T) {
	d, sink := newTestDispatcher(t)
	p := config.DefaultProfile()

	fwd := intent.NewSet(intent.Forward)
	if _, err := d.Update(fwd, intent.NewSet(), p); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Update(intent.NewSet(), fwd, p); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"down w", "up w"}, sink.take()); diff != "" {
		t.Errorf("Calls mismatch (-want +got):\n%s", diff)
	}
	if len(d.Held()) != 0 {
		t.Errorf("Expected nothing held, got %v", d.Held())
	}
}

func TestDispatcherSharedKeySwap(t *testing.T) {
	d, sink := newTestDispatcher(t)
	p := sharedKeyProfile()

	crouch := intent.NewSet(intent.Crouch)
	prone := intent.NewSet(intent.Prone)
	d.Update(crouch, intent.NewSet(), p)
	sink.take()

	if _, err := d.Update(prone, crouch, p); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"up c", "down c"}, sink.take()); diff != "" {
		t.Errorf("Calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c"}, d.Held()); diff != "" {
		t.Errorf("Expected c held (-want +got):\n%s", diff)
	}
}

func TestDispatcherSharedKeyHeldUntilLastIntent(t *testing.T) {
	d, sink := newTestDispatcher(t)
	p := sharedKeyProfile()

	both := intent.NewSet(intent.Crouch, intent.Prone)
	crouch := intent.NewSet(intent.Crouch)

	d.Update(both, intent.NewSet(), p)
	d.Update(crouch, both, p)
	if diff := cmp.Diff([]string{"down c"}, sink.take()); diff != "" {
		t.Errorf("Key must stay down while crouch is active (-want +got):\n%s", diff)
	}
	d.Update(intent.NewSet(), crouch, p)
	if diff := cmp.Diff([]string{"up c"}, sink.take()); diff != "" {
		t.Errorf("Calls mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcherFailedReleaseIsRetried(t *testing.T) {
	d, sink := newTestDispatcher(t)
	p := config.DefaultProfile()
	fwd := intent.NewSet(intent.Forward)

	d.Update(fwd, intent.NewSet(), p)
	sink.take()

	sink.failUp["w"] = errDenied
	_, err := d.Update(intent.NewSet(), fwd, p)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Expected permission denied, got %v", err)
	}
	var ee *EmitError
	if !errors.As(err, &ee) || ee.Key != "w" || ee.Action != Release {
		t.Errorf("Expected release error for w, got %#v", err)
	}
	if diff := cmp.Diff([]string{"w"}, d.Pending()); diff != "" {
		t.Errorf("Pending mismatch (-want +got):\n%s", diff)
	}

	if err := d.RetryPending(); err == nil {
		t.Error("Expected retry to fail while the sink still rejects")
	}

	delete(sink.failUp, "w")
	if err := d.RetryPending(); err != nil {
		t.Fatalf("RetryPending: %v", err)
	}
	if diff := cmp.Diff([]string{"up w"}, sink.take()); diff != "" {
		t.Errorf("Calls mismatch (-want +got):\n%s", diff)
	}
	if len(d.Pending()) != 0 {
		t.Errorf("Expected no pending releases, got %v", d.Pending())
	}
}

func TestDispatcherFailedPressIsNotReleased(t *testing.T) {
	d, sink := newTestDispatcher(t)
	p := config.DefaultProfile()
	fwd := intent.NewSet(intent.Forward)

	sink.failDown["w"] = errors.New("boom")
	_, err := d.Update(fwd, intent.NewSet(), p)
	var ee *EmitError
	if !errors.As(err, &ee) || ee.Reason != Failed {
		t.Fatalf("Expected a Failed EmitError, got %v", err)
	}

	delete(sink.failDown, "w")
	d.Update(intent.NewSet(), fwd, p)
	if calls := sink.take(); len(calls) != 0 {
		t.Errorf("Expected no OS calls for a key never pressed, got %v", calls)
	}
}

func TestDispatcherUnsupportedKeyDoesNotStopOthers(t *testing.T) {
	d, sink := newTestDispatcher(t)
	p := config.DefaultProfile()
	sink.failDown["space"] = &EmitError{Reason: UnsupportedKey}

	_, err := d.Update(intent.NewSet(intent.Forward, intent.Jump), intent.NewSet(), p)
	if !errors.Is(err, ErrUnsupportedKey) {
		t.Fatalf("Expected unsupported key, got %v", err)
	}
	if diff := cmp.Diff([]string{"down w"}, sink.take()); diff != "" {
		t.Errorf("Calls mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcherReleaseUsesPressedKeyAfterProfileSwap(t *testing.T) {
	d, sink := newTestDispatcher(t)
	old := config.DefaultProfile()
	fwd := intent.NewSet(intent.Forward)
	d.Update(fwd, intent.NewSet(), old)
	sink.take()

	next := config.DefaultProfile()
	next.Bindings = next.Bindings[1:] // forward no longer bound
	d.Update(intent.NewSet(), fwd, next)

	if diff := cmp.Diff([]string{"up w"}, sink.take()); diff != "" {
		t.Errorf("Calls mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcherProfileSwapMovesHeldKey(t *testing.T) {
	d, sink := newTestDispatcher(t)
	fwd := intent.NewSet(intent.Forward, intent.Jump)
	d.Update(fwd, intent.NewSet(), config.DefaultProfile())
	sink.take()

	next := config.DefaultProfile()
	next.Bindings[0].Key = "up"
	events, err := d.Update(fwd, fwd, next)
	if err != nil {
		t.Fatal(err)
	}
	want := []KeyEvent{
		{Key: "w", Action: Release, Intent: intent.Forward},
		{Key: "up", Action: Press, Intent: intent.Forward},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("Events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"up w", "down up"}, sink.take()); diff != "" {
		t.Errorf("Calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"space", "up"}, d.Held()); diff != "" {
		t.Errorf("Held mismatch (-want +got):\n%s", diff)
	}

	// unchanged profile: nothing to do
	d.Update(fwd, fwd, next)
	if calls := sink.take(); len(calls) != 0 {
		t.Errorf("Expected no calls, got %v", calls)
	}
}

func TestDispatcherProfileSwapUnbindsActiveIntent(t *testing.T) {
	d, sink := newTestDispatcher(t)
	fwd := intent.NewSet(intent.Forward)
	d.Update(fwd, intent.NewSet(), config.DefaultProfile())
	sink.take()

	next := config.DefaultProfile()
	next.Bindings = next.Bindings[1:]
	d.Update(fwd, fwd, next)
	if diff := cmp.Diff([]string{"up w"}, sink.take()); diff != "" {
		t.Errorf("Calls mismatch (-want +got):\n%s", diff)
	}
	if len(d.Held()) != 0 {
		t.Errorf("Expected nothing held, got %v", d.Held())
	}
}

func TestDispatcherReleaseAll(t *testing.T) {
	d, sink := newTestDispatcher(t)
	p := config.DefaultProfile()

	d.Update(intent.NewSet(intent.Forward, intent.Jump), intent.NewSet(), p)
	sink.take()

	if err := d.ReleaseAll(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"up space", "up w"}, sink.take()); diff != "" {
		t.Errorf("Calls mismatch (-want +got):\n%s", diff)
	}
	if err := d.ReleaseAll(); err != nil {
		t.Fatal(err)
	}
	if calls := sink.take(); len(calls) != 0 {
		t.Errorf("Second ReleaseAll should be a no-op, got %v", calls)
	}
}

func TestDispatcherReleaseAllKeepsFailuresPending(t *testing.T) {
	d, sink := newTestDispatcher(t)
	p := config.DefaultProfile()
	d.Update(intent.NewSet(intent.Forward), intent.NewSet(), p)

	sink.failUp["w"] = errDenied
	if err := d.ReleaseAll(); err == nil {
		t.Fatal("Expected error")
	}
	delete(sink.failUp, "w")
	sink.take()
	if err := d.ReleaseAll(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"up w"}, sink.take()); diff != "" {
		t.Errorf("Calls mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcherPressReleaseBalance(t *testing.T) {
	d, sink := newTestDispatcher(t)
	p := sharedKeyProfile()
	r := rand.New(rand.NewSource(7))
	all := append(append([]intent.Intent(nil), intent.Movement...), intent.Button(0), intent.Button(1))

	prev := intent.NewSet()
	for i := 0; i < 500; i++ {
		var active []intent.Intent
		for _, it := range all {
			if r.Intn(2) == 0 {
				active = append(active, it)
			}
		}
		next := intent.NewSet(active...)
		if _, err := d.Update(next, prev, p); err != nil {
			t.Fatal(err)
		}
		prev = next
	}

	downs := map[string]int{}
	ups := map[string]int{}
	for _, c := range sink.take() {
		action, key, _ := strings.Cut(c, " ")
		if action == "down" {
			downs[key]++
		} else {
			ups[key]++
		}
	}
	held := map[string]bool{}
	for _, k := range d.Held() {
		held[k] = true
	}
	for key, n := range downs {
		want := ups[key]
		if held[key] {
			want++
		}
		if n != want {
			t.Errorf("Key %s: %d presses, %d releases, held=%v", key, n, ups[key], held[key])
		}
	}
}
