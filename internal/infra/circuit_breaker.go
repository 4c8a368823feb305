package infra

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Closed → Open → Half-Open. Guards background work (the scheduled reconciliation sweep) so that
// a database outage turns into fast skips instead of a stream of failing sweeps.
//
//   - Closed:    calls pass through
//   - Open:      calls fail with ErrCircuitOpen until OpenTimeout has elapsed
//   - Half-Open: calls pass; SuccessThreshold successes close, one failure re-opens

type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int           // consecutive failures that trip the breaker (default 3)
	SuccessThreshold int           // half-open successes needed to close (default 1)
	OpenTimeout      time.Duration // time spent open before probing (default 5m)
}

type CircuitBreaker struct {
	mu           sync.Mutex
	cfg          CircuitBreakerConfig
	state        CBState
	failureCount int
	successCount int
	openedAt     time.Time
	now          func() time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 5 * time.Minute
	}
	return &CircuitBreaker{cfg: cfg, state: CBClosed, now: time.Now}
}

// State returns the current state, moving open → half-open once OpenTimeout has passed.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentLocked()
}

func (cb *CircuitBreaker) currentLocked() CBState {
	if cb.state == CBOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.transitionLocked(CBHalfOpen)
	}
	return cb.state
}

// Execute runs fn unless the breaker is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	cb.mu.Lock()
	state := cb.currentLocked()
	cb.mu.Unlock()
	if state == CBOpen {
		return ErrCircuitOpen
	}

	err := fn(ctx)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failureCount++
		if cb.state == CBHalfOpen || cb.failureCount >= cb.cfg.FailureThreshold {
			cb.openedAt = cb.now()
			cb.transitionLocked(CBOpen)
		}
		return err
	}

	switch cb.state {
	case CBClosed:
		cb.failureCount = 0
	case CBHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.cfg.SuccessThreshold {
			cb.transitionLocked(CBClosed)
		}
	}
	return nil
}

func (cb *CircuitBreaker) transitionLocked(to CBState) {
	if cb.state == to {
		return
	}
	log.Warn().
		Str("breaker", cb.cfg.Name).
		Str("from", cb.state.String()).
		Str("to", to.String()).
		Msg("circuit breaker state change")
	cb.state = to
	cb.failureCount = 0
	cb.successCount = 0
}
