package controller

import (
	"fmt"
	"sync"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/motion"
)

// fakeSource returns queued samples; an empty queue repeats the last one
type fakeSource struct {
	mu         sync.Mutex
	connectErr error
	pollErr    error
	samples    []motion.Sample
	last       motion.Sample
	connected  bool
	connects   int
	disconnect int
}

func (s *fakeSource) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	if s.connectErr != nil {
		return s.connectErr
	}
	s.connected = true
	return nil
}

func (s *fakeSource) Poll() (motion.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return motion.Sample{}, motion.ErrNotConnected
	}
	if s.pollErr != nil {
		return motion.Sample{}, s.pollErr
	}
	if len(s.samples) > 0 {
		s.last = s.samples[0]
		s.samples = s.samples[1:]
	}
	return s.last, nil
}

func (s *fakeSource) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnect++
	s.connected = false
	return nil
}

func (s *fakeSource) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return ""
	}
	return "Fake SpaceMouse"
}

func (s *fakeSource) queue(samples ...motion.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, samples...)
}

func (s *fakeSource) setPollErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollErr = err
}

func (s *fakeSource) connectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects
}

// fakeSink records key transitions
type fakeSink struct {
	mu    sync.Mutex
	calls []string
	fail  error
}

func (s *fakeSink) KeyDown(key string) error { return s.record("down", key) }

func (s *fakeSink) KeyUp(key string) error { return s.record("up", key) }

func (s *fakeSink) record(action, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.calls = append(s.calls, fmt.Sprintf("%s %s", action, key))
	return nil
}

func (s *fakeSink) Close() error { return nil }

func (s *fakeSink) take() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.calls
	s.calls = nil
	return out
}

func (s *fakeSink) setFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}
