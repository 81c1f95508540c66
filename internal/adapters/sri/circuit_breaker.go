package sri

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without contacting the SRI while the breaker
// is open.
var ErrCircuitOpen = errors.New("servicio del SRI no disponible temporalmente")

// BreakerState is the state of the circuit breaker.
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // Normal operation
	BreakerOpen                         // Calls fail fast
	BreakerHalfOpen                     // Probing whether the SRI recovered
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// CircuitBreaker stops calling the SRI web service after repeated transport
// failures. Only errors for which the isFailure predicate holds count; a
// voucher that is simply not authorized is a valid answer, not an outage.
type CircuitBreaker struct {
	maxFailures      int
	cooldown         time.Duration
	successThreshold int
	isFailure        func(error) bool
	now              func() time.Time

	mu              sync.Mutex
	state           BreakerState
	failures        int
	successes       int
	lastStateChange time.Time
}

// NewCircuitBreaker creates a breaker that opens after maxFailures
// consecutive failures and probes again after cooldown.
func NewCircuitBreaker(maxFailures int, cooldown time.Duration, isFailure func(error) bool) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	if isFailure == nil {
		isFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{
		maxFailures:      maxFailures,
		cooldown:         cooldown,
		successThreshold: 2,
		isFailure:        isFailure,
		now:              time.Now,
		state:            BreakerClosed,
	}
}

// Execute runs fn unless the breaker is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !cb.allow() {
		return ErrCircuitOpen
	}

	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != BreakerOpen {
		return true
	}
	if cb.now().Sub(cb.lastStateChange) < cb.cooldown {
		return false
	}
	cb.setState(BreakerHalfOpen)
	return true
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.isFailure(err) {
		cb.failures++
		cb.successes = 0
		if cb.state == BreakerHalfOpen || cb.failures >= cb.maxFailures {
			cb.setState(BreakerOpen)
		}
		return
	}

	cb.failures = 0
	if cb.state == BreakerHalfOpen {
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.setState(BreakerClosed)
		}
	}
}

func (cb *CircuitBreaker) setState(s BreakerState) {
	cb.state = s
	cb.successes = 0
	cb.lastStateChange = cb.now()
	if s == BreakerClosed {
		cb.failures = 0
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
