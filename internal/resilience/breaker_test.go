package resilience

import (
	"errors"
	"testing"
	"time"
)

func transientErr() error {
	return NewTransientError(errors.New("service down"), 503)
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("call %d should be allowed: %v", i, err)
		}
		b.Record(transientErr())
	}

	if err := b.Allow(); err == nil {
		t.Fatal("breaker should be open after threshold failures")
	} else if !IsTransient(err) {
		t.Errorf("open-breaker rejection should be transient, got %v", err)
	}
}

func TestBreaker_SuccessResetsStreak(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	b.Record(transientErr())
	b.Record(transientErr())
	b.Record(nil) // healthy call
	b.Record(transientErr())
	b.Record(transientErr())

	if err := b.Allow(); err != nil {
		t.Fatalf("breaker should still be closed: %v", err)
	}
}

func TestBreaker_NotFoundDoesNotTrip(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})

	// A definitive answer proves the service is up, whatever the answer is.
	for i := 0; i < 5; i++ {
		b.Record(errors.New("compound not found"))
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("breaker should be closed: %v", err)
	}
}

func TestBreaker_ProbeAfterResetTimeout(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	now := time.Now()
	b.now = func() time.Time { return now }

	b.Record(transientErr())
	if err := b.Allow(); err == nil {
		t.Fatal("breaker should be open")
	}

	// Advance past the reset timeout: exactly one probe gets through.
	now = now.Add(2 * time.Minute)
	if err := b.Allow(); err != nil {
		t.Fatalf("probe should be allowed: %v", err)
	}
	if err := b.Allow(); err == nil {
		t.Fatal("second concurrent probe should be rejected")
	}

	// Successful probe closes the breaker.
	b.Record(nil)
	if err := b.Allow(); err != nil {
		t.Fatalf("breaker should be closed after successful probe: %v", err)
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	now := time.Now()
	b.now = func() time.Time { return now }

	b.Record(transientErr())
	now = now.Add(2 * time.Minute)
	if err := b.Allow(); err != nil {
		t.Fatalf("probe should be allowed: %v", err)
	}
	b.Record(transientErr())

	if err := b.Allow(); err == nil {
		t.Fatal("breaker should stay open after failed probe")
	}
}

func TestBreakerDo_NilBreakerPassesThrough(t *testing.T) {
	v, err := Do(nil, func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("expected 7, nil; got %d, %v", v, err)
	}
}
