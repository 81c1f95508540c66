package sri

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Limiter bounds both the number of in-flight SRI requests and their rate.
// The SRI throttles clients that open too many simultaneous connections.
type Limiter struct {
	slots  chan struct{}
	rate   *rate.Limiter
	active atomic.Int64
}

// NewLimiter allows at most maxConcurrent requests in flight and rps
// requests per second. rps <= 0 disables rate limiting.
func NewLimiter(maxConcurrent, rps int) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	l := &Limiter{slots: make(chan struct{}, maxConcurrent)}
	if rps > 0 {
		l.rate = rate.NewLimiter(rate.Limit(rps), rps)
	}
	return l
}

// Acquire blocks until a request may start or ctx is done. Every successful
// Acquire must be paired with Release.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.rate != nil {
		if err := l.rate.Wait(ctx); err != nil {
			return err
		}
	}
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *Limiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Active returns the number of requests currently in flight.
func (l *Limiter) Active() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the configured concurrency bound.
func (l *Limiter) MaxConcurrent() int {
	return cap(l.slots)
}
