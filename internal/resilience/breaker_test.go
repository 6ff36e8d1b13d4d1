package resilience

import (
	"errors"
	"testing"
	"time"
)

var errTest = errors.New("service unavailable")

func TestBreaker_ClosedAllowsCalls(t *testing.T) {
	b := NewBreaker("blob", 3, time.Second)
	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
}

func TestBreaker_OpensAfterTripFailures(t *testing.T) {
	b := NewBreaker("blob", 3, time.Second)

	for i := 0; i < 3; i++ {
		_ = b.Execute(func() error { return errTest })
	}

	err := b.Execute(func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %q, want open", b.State())
	}
}

func TestBreaker_ProbeAfterCooldownCloses(t *testing.T) {
	now := time.Now()
	b := NewBreaker("notify", 2, time.Second)
	b.clock = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_ = b.Execute(func() error { return errTest })
	}

	// Still inside the cooldown.
	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	now = now.Add(2 * time.Second)

	// The first call after the cooldown is the probe.
	called := false
	if err := b.Execute(func() error { called = true; return nil }); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !called {
		t.Fatal("expected the probe to run")
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %q, want closed after probe success", b.State())
	}
}

func TestBreaker_ProbeFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker("notify", 2, time.Second)
	b.clock = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_ = b.Execute(func() error { return errTest })
	}
	now = now.Add(2 * time.Second)

	_ = b.Execute(func() error { return errTest })

	if b.State() != StateOpen {
		t.Fatalf("state = %q, want open after probe failure", b.State())
	}
	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen after reopen, got %v", err)
	}
}

func TestBreaker_SuccessResetsFailureRun(t *testing.T) {
	b := NewBreaker("blob", 3, time.Second)

	_ = b.Execute(func() error { return errTest })
	_ = b.Execute(func() error { return errTest })
	_ = b.Execute(func() error { return nil })
	_ = b.Execute(func() error { return errTest })
	_ = b.Execute(func() error { return errTest })

	// Only two consecutive failures since the success; still closed.
	if b.State() != StateClosed {
		t.Fatalf("state = %q, want closed", b.State())
	}
}

func TestBreaker_OpenErrorNamesTheBoundary(t *testing.T) {
	b := NewBreaker("blob", 1, time.Minute)
	_ = b.Execute(func() error { return errTest })

	err := b.Execute(func() error { return nil })
	if err == nil || err.Error() != "blob: circuit open" {
		t.Fatalf("err = %v, want the breaker name in the message", err)
	}
}
