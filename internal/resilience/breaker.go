// Package resilience guards the object-storage and notifier boundaries with
// a circuit breaker and a bounded retry helper.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while a breaker is rejecting calls.
var ErrCircuitOpen = errors.New("circuit open")

// Breaker states, exposed for health reporting and tests.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half-open"
)

// Breaker trips after a run of consecutive failures and rejects calls until
// a cooldown elapses. The first call after the cooldown probes the
// dependency: success closes the circuit, failure re-opens it. Each guarded
// boundary gets its own named breaker so one flapping dependency never
// blocks the others.
type Breaker struct {
	name     string
	trip     int
	cooldown time.Duration

	mu       sync.Mutex
	state    string
	failures int
	openedAt time.Time
	clock    func() time.Time // for tests
}

// NewBreaker creates a named breaker that opens after trip consecutive
// failures and stays open for the cooldown.
func NewBreaker(name string, trip int, cooldown time.Duration) *Breaker {
	return &Breaker{
		name:     name,
		trip:     trip,
		cooldown: cooldown,
		state:    StateClosed,
		clock:    time.Now,
	}
}

// Execute runs fn unless the circuit is open, in which case the error wraps
// ErrCircuitOpen and names the breaker.
func (b *Breaker) Execute(fn func() error) error {
	if !b.admit() {
		return fmt.Errorf("%s: %w", b.name, ErrCircuitOpen)
	}
	err := fn()
	b.record(err)
	return err
}

// State reports the current state name.
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.clock().Sub(b.openedAt) >= b.cooldown {
		b.state = StateHalfOpen
	}
	return b.state != StateOpen
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.state != StateClosed {
			slog.Info("breaker closed", "breaker", b.name)
		}
		b.failures = 0
		b.state = StateClosed
		return
	}

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.trip {
		if b.state != StateOpen {
			slog.Warn("breaker opened", "breaker", b.name, "failures", b.failures)
		}
		b.state = StateOpen
		b.openedAt = b.clock()
	}
}
