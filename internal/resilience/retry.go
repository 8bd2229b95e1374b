package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Policy controls retry behavior for outbound compound lookups. Backoff is
// exponential with jitter, capped both in duration and attempt count.
type Policy struct {
	// MaxAttempts is the total number of tries including the first.
	// A value of 1 disables retries. Default: 3.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry. Default: 250ms.
	InitialBackoff time.Duration

	// MaxBackoff caps any single delay. Default: 5s.
	MaxBackoff time.Duration

	// Multiplier scales the delay after each attempt. Default: 2.0.
	Multiplier float64

	// JitterFraction randomizes each delay by ±this fraction. Default: 0.2.
	JitterFraction float64
}

// DefaultPolicy returns the retry policy used for compound database calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.2,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = d.InitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = d.MaxBackoff
	}
	if p.Multiplier <= 0 {
		p.Multiplier = d.Multiplier
	}
	if p.JitterFraction < 0 {
		p.JitterFraction = 0
	}
	return p
}

// Backoff returns the delay to sleep after the given zero-based attempt.
// Pure in everything but jitter, so the schedule is testable without a
// transport: Backoff(0) is the delay between attempt 1 and attempt 2.
func (p Policy) Backoff(attempt int) time.Duration {
	p = p.withDefaults()
	delay := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt))
	if delay > float64(p.MaxBackoff) {
		delay = float64(p.MaxBackoff)
	}
	if p.JitterFraction > 0 {
		delay += (rand.Float64()*2 - 1) * delay * p.JitterFraction
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Retry runs fn until it succeeds, returns a non-transient error, the
// attempt budget is spent, or ctx is done. Only transient failures are
// retried: a definitive "compound not found" returns immediately.
func Retry[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsTransient(err) {
			return zero, lastErr
		}
		if attempt >= p.MaxAttempts-1 {
			break
		}

		delay := p.Backoff(attempt)
		zap.L().Warn("retrying lookup",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}
