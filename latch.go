package rocketbot

import (
	"sync"
)

// latch is a resettable one-shot signal. Set is idempotent; Wait
// returns a channel closed once the latch is set. The channel swap in
// Reset gives waiters on the old channel a consistent view: a latch set
// before Reset stays observable through the channel they hold.
type latch struct {
	mu  sync.Mutex
	ch  chan struct{}
	set bool
}

func newLatch() *latch {
	return &latch{ch: make(chan struct{})}
}

// Set marks the latch. Safe to call from any goroutine, any number of
// times.
func (l *latch) Set() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.set {
		return
	}
	l.set = true
	close(l.ch)
}

// Wait returns a channel that is closed once the latch is set.
func (l *latch) Wait() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.ch
}

// IsSet reports whether the latch has been set.
func (l *latch) IsSet() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.set
}

// Reset returns the latch to the unset state.
func (l *latch) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.set {
		l.set = false
		l.ch = make(chan struct{})
	}
}
