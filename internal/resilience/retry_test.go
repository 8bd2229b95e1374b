package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestRetry_SuccessFirstAttempt(t *testing.T) {
	var calls int
	v, err := Retry(context.Background(), fastPolicy(), "test", func(_ context.Context) (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_SuccessAfterTransientFailures(t *testing.T) {
	var calls int
	v, err := Retry(context.Background(), fastPolicy(), "test", func(_ context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(errors.New("temporary"), 503)
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "ok" {
		t.Errorf("expected ok, got %q", v)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	var calls int
	_, err := Retry(context.Background(), fastPolicy(), "test", func(_ context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errors.New("always down"), 500)
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_NonTransientReturnsImmediately(t *testing.T) {
	var calls int
	_, err := Retry(context.Background(), fastPolicy(), "test", func(_ context.Context) (int, error) {
		calls++
		return 0, errors.New("compound not found")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	_, err := Retry(ctx, fastPolicy(), "test", func(_ context.Context) (int, error) {
		calls++
		cancel()
		return 0, NewTransientError(errors.New("temporary"), 503)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call after cancel, got %d", calls)
	}
}

func TestBackoff_ExponentialWithCap(t *testing.T) {
	p := Policy{
		MaxAttempts:    5,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     300 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0, // deterministic for this test
	}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 300 * time.Millisecond}, // capped
		{3, 300 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := p.Backoff(tc.attempt); got != tc.want {
			t.Errorf("Backoff(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil should not be transient")
	}
	if !IsTransient(NewTransientError(errors.New("x"), 503)) {
		t.Error("TransientError should be transient")
	}
	if !IsTransient(context.DeadlineExceeded) {
		t.Error("deadline exceeded should be transient")
	}
	if IsTransient(errors.New("no such compound")) {
		t.Error("plain error should not be transient")
	}
	if !IsTransient(errors.New("dial tcp: i/o timeout")) {
		t.Error("i/o timeout message should be transient")
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("status %d should be transient", code)
		}
	}
	for _, code := range []int{200, 400, 404} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("status %d should not be transient", code)
		}
	}
}
