// Package breaker provides a minimal, thread-safe circuit breaker used to
// stop hammering a cache layer that keeps failing.
//
// States:
//   - Closed: calls flow normally; consecutive failures are counted.
//   - Open: calls are rejected with ErrOpen until OpenTimeout has passed.
//   - HalfOpen: probe calls are let through; HalfOpenMaxSuccess consecutive
//     successes close the breaker, any failure reopens it.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Do while the breaker rejects calls.
var ErrOpen = errors.New("breaker: open")

// State represents the current circuit breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Config holds the circuit breaker parameters.
type Config struct {
	// FailureThreshold is the number of consecutive failures in Closed state
	// before the breaker trips to Open.
	FailureThreshold int

	// OpenTimeout is how long the breaker stays Open before letting probes through.
	OpenTimeout time.Duration

	// HalfOpenMaxSuccess is the number of consecutive probe successes
	// required to close the breaker again.
	HalfOpenMaxSuccess int
}

// Breaker is a circuit breaker. All methods are safe for concurrent use.
type Breaker struct {
	mu  sync.Mutex
	cfg Config

	state     State
	failures  int
	successes int
	openedAt  time.Time
	nowFunc   func() time.Time
}

// New creates a Closed Breaker with the given configuration.
func New(cfg Config) *Breaker {
	return &Breaker{cfg: cfg, nowFunc: time.Now}
}

// Do runs fn when the breaker allows it and records the outcome. It returns
// ErrOpen without calling fn while the breaker is open.
func (b *Breaker) Do(fn func() error) error {
	if !b.Allow() {
		return ErrOpen
	}
	if err := fn(); err != nil {
		b.OnFailure()
		return err
	}
	b.OnSuccess()
	return nil
}

// State returns the current state, moving from Open to HalfOpen first if
// OpenTimeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()
	return b.state
}

// Allow reports whether a call may proceed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()

	switch b.state {
	case Open:
		return false
	case HalfOpen:
		return b.successes < b.cfg.HalfOpenMaxSuccess
	}
	return true
}

// OnSuccess records a successful call.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failures = 0
	case HalfOpen:
		b.successes++
		if b.successes >= b.cfg.HalfOpenMaxSuccess {
			b.state, b.failures, b.successes = Closed, 0, 0
		}
	}
}

// OnFailure records a failed call.
func (b *Breaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.trip()
		}
	case HalfOpen:
		b.trip()
	}
}

// refresh must be called with b.mu held.
func (b *Breaker) refresh() {
	if b.state == Open && b.nowFunc().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.state = HalfOpen
		b.successes = 0
	}
}

func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = b.nowFunc()
	b.successes = 0
}
