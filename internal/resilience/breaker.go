package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrBreakerOpen is returned when a lookup is rejected because the compound
// database has been failing consistently and the breaker has opened.
var ErrBreakerOpen = eris.New("resilience: breaker open")

// BreakerConfig controls when the circuit guarding the compound database
// opens and how it probes for recovery.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive transient failures
	// before the breaker opens. Default: 5.
	FailureThreshold int

	// ResetTimeout is how long the breaker stays open before allowing a
	// probe call through. Default: 30s.
	ResetTimeout time.Duration
}

// Breaker is a circuit breaker for the compound database. While open, every
// call fails fast with ErrBreakerOpen (itself transient, so callers demote
// it the same way as any other connectivity failure) instead of walking the
// full retry ladder against a service that is known to be down.
type Breaker struct {
	cfg BreakerConfig

	mu            sync.Mutex
	failures      int
	openedAt      time.Time
	open          bool
	probeInFlight bool

	now func() time.Time
}

// NewBreaker creates a breaker with the given config, applying defaults for
// zero values.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Allow reports whether a call may proceed. After ResetTimeout, one probe
// call is let through; its result decides whether the breaker closes.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return nil
	}
	if b.now().Sub(b.openedAt) >= b.cfg.ResetTimeout && !b.probeInFlight {
		b.probeInFlight = true
		return nil
	}
	return NewTransientError(ErrBreakerOpen, 0)
}

// Record reports a call result to the breaker. Only transient failures count
// toward the threshold: a clean "not found" answer proves the service is
// healthy and resets the streak.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil || !IsTransient(err) {
		if b.open {
			zap.L().Info("breaker closed", zap.Int("failures", b.failures))
		}
		b.open = false
		b.probeInFlight = false
		b.failures = 0
		return
	}

	b.probeInFlight = false
	b.failures++
	if b.failures >= b.cfg.FailureThreshold && !b.open {
		b.open = true
		b.openedAt = b.now()
		zap.L().Warn("breaker opened",
			zap.Int("consecutive_failures", b.failures),
			zap.Duration("reset_timeout", b.cfg.ResetTimeout),
		)
	} else if b.open {
		// Failed probe: stay open, restart the reset clock.
		b.openedAt = b.now()
	}
}

// Do runs fn through the breaker.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if b == nil {
		return fn()
	}
	if err := b.Allow(); err != nil {
		return zero, err
	}
	val, err := fn()
	b.Record(err)
	return val, err
}
