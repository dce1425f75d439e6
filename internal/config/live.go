package config

import (
	"slices"
	"sync"

	"go.uber.org/atomic"
)

// Live holds the profile the polling loop reads. Writers publish a complete new
// profile; readers load one snapshot per cycle and never observe a partial update.
type Live struct {
	current *atomic.Pointer[Profile]

	mu   sync.Mutex
	subs []func(*Profile)
}

// NewLive validates p and makes it the current snapshot
func NewLive(p *Profile) (*Live, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Live{current: atomic.NewPointer(p.Normalize())}, nil
}

// Load returns the current snapshot. Callers must not modify it.
func (l *Live) Load() *Profile {
	return l.current.Load()
}

// Publish validates p and swaps it in. Invalid profiles are rejected and the
// current snapshot is kept. Subscribers are called after the swap.
func (l *Live) Publish(p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	snap := p.Normalize()
	l.current.Store(snap)

	l.mu.Lock()
	subs := slices.Clone(l.subs)
	l.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
	return nil
}

// Subscribe registers fn to be called with every published profile
func (l *Live) Subscribe(fn func(*Profile)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, fn)
}
