package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryConfig controls the exponential backoff schedule.
type RetryConfig struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetry is the schedule used for blob and notifier calls.
var DefaultRetry = RetryConfig{
	Attempts:  3,
	BaseDelay: 100 * time.Millisecond,
	MaxDelay:  2 * time.Second,
}

// Retry runs fn up to cfg.Attempts times with jittered exponential backoff.
// It must only wrap idempotent operations. A context cancellation stops the
// schedule immediately, and an ErrCircuitOpen result is returned without
// further attempts since retrying into an open breaker cannot succeed.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	var err error
	delay := cfg.BaseDelay
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if attempt > 0 {
			jittered := delay/2 + time.Duration(rand.Int64N(int64(delay/2)+1))
			select {
			case <-ctx.Done():
				return errors.Join(ctx.Err(), err)
			case <-time.After(jittered):
			}
			delay *= 2
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, ErrCircuitOpen) {
			return err
		}
	}
	return err
}
