package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/atomic"
	"go.uber.org/zap/zaptest"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/config"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/intent"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/motion"
)

type harness struct {
	c      *Controller
	source *fakeSource
	sink   *fakeSink
	live   *config.Live
	clock  *clock.Mock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	live, err := config.NewLive(config.DefaultProfile())
	if err != nil {
		t.Fatal(err)
	}
	h := &harness{source: &fakeSource{}, sink: &fakeSink{}, live: live, clock: clock.NewMock()}
	h.c = New(h.source, h.sink, live, Options{Clock: h.clock, Logger: zaptest.NewLogger(t).Sugar()})
	return h
}

// tilt returns a sample with the given z, roll and pitch
func tilt(z, roll, pitch float64) motion.Sample {
	return motion.NewSample([6]float64{0, 0, z, roll, pitch, 0}, nil, time.Time{})
}

var rest = motion.Sample{}

func TestStepMapsAndEmits(t *testing.T) {
	h := newHarness(t)
	if err := h.c.Connect(); err != nil {
		t.Fatal(err)
	}

	h.source.queue(tilt(0, 0, 0.7), tilt(0.8, 0, 0.7), rest)
	for i := 0; i < 3; i++ {
		if err := h.c.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}

	want := []string{"down w", "down space", "up w", "up space"}
	if diff := cmp.Diff(want, h.sink.take()); diff != "" {
		t.Errorf("Key calls mismatch (-want +got):\n%s", diff)
	}
	if st := h.c.Status(); !st.Connected || st.Intents.Len() != 0 || st.Cycle != 3 {
		t.Errorf("Unexpected status %+v", st)
	}
}

func TestStepBelowDeadzoneReleasesForward(t *testing.T) {
	h := newHarness(t)
	p := config.DefaultProfile()
	p.Bindings[0].Threshold = 0.3
	if err := h.live.Publish(p); err != nil {
		t.Fatal(err)
	}
	h.c.Connect()

	h.source.queue(tilt(0, 0, 0.5), tilt(0, 0, 0.05))
	h.c.Step()
	h.c.Step()

	if diff := cmp.Diff([]string{"down w", "up w"}, h.sink.take()); diff != "" {
		t.Errorf("Key calls mismatch (-want +got):\n%s", diff)
	}
}

func TestProfileSwapTakesEffectNextCycle(t *testing.T) {
	h := newHarness(t)
	h.c.Connect()

	h.source.queue(tilt(0, 0, 0.7))
	h.c.Step()

	p := config.DefaultProfile()
	p.Bindings[0].Key = "up"
	if err := h.live.Publish(p); err != nil {
		t.Fatal(err)
	}
	// forward stays active; its key was pressed under the old profile
	h.c.Step()
	h.source.queue(rest)
	h.c.Step()
	h.source.queue(tilt(0, 0, 0.7))
	h.c.Step()

	want := []string{"down w", "up w", "down up"}
	if diff := cmp.Diff(want, h.sink.take()); diff != "" {
		t.Errorf("Key calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRepeatedPollFailuresDisconnectAndRelease(t *testing.T) {
	h := newHarness(t)
	h.c.Connect()
	h.source.queue(tilt(0, 0, 0.7))
	h.c.Step()
	h.sink.take()

	h.source.setPollErr(motion.NewDeviceError(motion.IOFailure, "fake", errors.New("pipe")))
	for i := 0; i < 2; i++ {
		if err := h.c.Step(); !errors.Is(err, motion.ErrIOFailure) {
			t.Fatalf("Expected IOFailure, got %v", err)
		}
		if !h.c.Status().Connected {
			t.Fatalf("Should stay connected after %d failures", i+1)
		}
	}
	if calls := h.sink.take(); len(calls) != 0 {
		t.Errorf("Keys must stay held during transient failures, got %v", calls)
	}

	h.c.Step()
	st := h.c.Status()
	if st.Connected || st.LastError == "" {
		t.Errorf("Expected disconnected status with error, got %+v", st)
	}
	if diff := cmp.Diff([]string{"up w"}, h.sink.take()); diff != "" {
		t.Errorf("Expected held keys released (-want +got):\n%s", diff)
	}
}

func TestReconnectAfterInterval(t *testing.T) {
	h := newHarness(t)
	h.source.connectErr = motion.NewDeviceError(motion.ConnectFailed, "", errors.New("no device"))

	if err := h.c.Connect(); !errors.Is(err, motion.ErrConnectFailed) {
		t.Fatalf("Expected ConnectFailed, got %v", err)
	}
	h.c.Step()
	if h.source.connectCount() != 1 {
		t.Errorf("Reconnect must wait for the interval, got %d attempts", h.source.connectCount())
	}

	h.source.mu.Lock()
	h.source.connectErr = nil
	h.source.mu.Unlock()
	h.clock.Add(time.Second)
	h.c.Step()

	if h.source.connectCount() != 2 || !h.c.Status().Connected {
		t.Errorf("Expected reconnect, attempts=%d status=%+v", h.source.connectCount(), h.c.Status())
	}
}

func TestManualDisconnectStaysDisconnected(t *testing.T) {
	h := newHarness(t)
	h.c.Connect()
	h.source.queue(tilt(0.8, 0, 0))
	h.c.Step()

	if err := h.c.Disconnect(); err != nil {
		t.Fatal(err)
	}
	h.clock.Add(time.Minute)
	h.c.Step()

	if h.source.connectCount() != 1 {
		t.Errorf("Expected no automatic reconnect, got %d attempts", h.source.connectCount())
	}
	if diff := cmp.Diff([]string{"down space", "up space"}, h.sink.take()); diff != "" {
		t.Errorf("Key calls mismatch (-want +got):\n%s", diff)
	}
}

func TestPauseReleasesAndSuppresses(t *testing.T) {
	h := newHarness(t)
	h.c.Connect()
	h.source.queue(tilt(0, 0, 0.7))
	h.c.Step()

	h.c.SetPaused(true)
	h.c.Step()
	h.c.Step()
	if diff := cmp.Diff([]string{"down w", "up w"}, h.sink.take()); diff != "" {
		t.Errorf("Key calls mismatch (-want +got):\n%s", diff)
	}

	h.c.SetPaused(false)
	h.c.Step()
	if diff := cmp.Diff([]string{"down w"}, h.sink.take()); diff != "" {
		t.Errorf("Expected forward pressed again after resume (-want +got):\n%s", diff)
	}
}

func TestTogglePausedIsAtomic(t *testing.T) {
	h := newHarness(t)
	var pausedCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			paused, err := h.c.TogglePaused()
			if err != nil {
				t.Errorf("TogglePaused: %v", err)
			}
			if paused {
				pausedCount.Inc()
			}
		}()
	}
	wg.Wait()

	if pausedCount.Load() != 50 {
		t.Errorf("Expected 50 toggles to pause, got %d", pausedCount.Load())
	}
	if h.c.Paused() || h.c.Status().Paused {
		t.Error("An even number of toggles must leave the controller running")
	}
}

func TestEmitErrorsDoNotStopLoop(t *testing.T) {
	h := newHarness(t)
	h.c.Connect()
	h.sink.setFail(errors.New("denied"))

	h.source.queue(tilt(0, 0, 0.7))
	if err := h.c.Step(); err == nil {
		t.Fatal("Expected emit error")
	}
	if h.c.Status().LastError == "" {
		t.Error("Expected error in status")
	}

	h.sink.setFail(nil)
	h.source.queue(rest, tilt(0, 0, 0.7))
	h.c.Step()
	if err := h.c.Step(); err != nil {
		t.Fatalf("Expected recovery, got %v", err)
	}
	if diff := cmp.Diff([]string{"down w"}, h.sink.take()); diff != "" {
		t.Errorf("Key calls mismatch (-want +got):\n%s", diff)
	}
	if h.c.Status().LastError != "" {
		t.Errorf("Expected error cleared, got %q", h.c.Status().LastError)
	}
}

func TestStatusListenersOnlyOnChange(t *testing.T) {
	h := newHarness(t)
	var got []Status
	h.c.OnStatus(func(s Status) { got = append(got, s) })

	h.c.Connect()
	h.source.queue(tilt(0, 0, 0.7))
	h.c.Step()
	h.c.Step()
	h.c.Step()

	if len(got) != 2 {
		t.Fatalf("Expected 2 notifications (connect, forward), got %d", len(got))
	}
	if !got[1].Intents.Equal(intent.NewSet(intent.Forward)) {
		t.Errorf("Unexpected intents %v", got[1].Intents)
	}
}

func TestRunReleasesOnShutdown(t *testing.T) {
	h := newHarness(t)
	h.source.queue(tilt(0.8, 0, 0.7))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.c.Run(ctx) }()

	// the ticker exists once Run has connected
	deadline := time.Now().Add(5 * time.Second)
	for h.source.connectCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Run never connected")
		}
		time.Sleep(time.Millisecond)
	}
	for h.c.Status().Cycle == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Run never stepped")
		}
		h.clock.Add(10 * time.Millisecond)
		time.Sleep(time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	calls := h.sink.take()
	want := []string{"down w", "down space", "up space", "up w"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("Key calls mismatch (-want +got):\n%s", diff)
	}
	if st := h.c.Status(); st.Connected || len(st.Keys) != 0 {
		t.Errorf("Expected released and disconnected, got %+v", st)
	}
}
