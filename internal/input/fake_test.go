package input

import (
	"errors"
	"fmt"
	"sync"
)

// recordingSink records every call and can be told to fail
type recordingSink struct {
	mu       sync.Mutex
	calls    []string
	failDown map[string]error
	failUp   map[string]error
	closed   bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{failDown: map[string]error{}, failUp: map[string]error{}}
}

func (s *recordingSink) KeyDown(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failDown[key]; err != nil {
		return err
	}
	s.calls = append(s.calls, fmt.Sprintf("down %s", key))
	return nil
}

func (s *recordingSink) KeyUp(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failUp[key]; err != nil {
		return err
	}
	s.calls = append(s.calls, fmt.Sprintf("up %s", key))
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func (s *recordingSink) take() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.calls
	s.calls = nil
	return out
}

var errDenied = &EmitError{Reason: PermissionDenied, Err: errors.New("denied")}
