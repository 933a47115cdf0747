package sources

import (
	"context"
	"sync"
	"time"
)

const (
	breakerFailureLimit = 3
	breakerCooldown     = 5 * time.Minute
)

type sourceState struct {
	lastCall     time.Time
	failures     int
	openUntil    time.Time
	totalCalls   int
	totalSkipped int
}

// RateLimiter enforces a minimum inter-call delay per source and opens a
// circuit after repeated consecutive failures. One instance is owned by the
// pipeline and shared across layers; the mutex is the only synchronization.
type RateLimiter struct {
	mu       sync.Mutex
	minDelay map[string]time.Duration
	state    map[string]*sourceState
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter builds a limiter from per-source minimum delays in seconds.
func NewRateLimiter(minDelaySeconds map[string]float64) *RateLimiter {
	delays := make(map[string]time.Duration, len(minDelaySeconds))
	for source, seconds := range minDelaySeconds {
		if seconds > 0 {
			delays[source] = time.Duration(seconds * float64(time.Second))
		}
	}
	return &RateLimiter{
		minDelay: delays,
		state:    make(map[string]*sourceState),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *RateLimiter) stateFor(source string) *sourceState {
	s, ok := r.state[source]
	if !ok {
		s = &sourceState{}
		r.state[source] = s
	}
	return s
}

// Available reports whether the source's circuit is closed.
func (r *RateLimiter) Available(source string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now().After(r.stateFor(source).openUntil)
}

// Wait blocks until the source's inter-call budget permits another call,
// honoring context cancellation. It returns false without blocking when the
// source's circuit is open.
func (r *RateLimiter) Wait(ctx context.Context, source string) (bool, error) {
	r.mu.Lock()
	s := r.stateFor(source)
	now := r.now()
	if now.Before(s.openUntil) {
		s.totalSkipped++
		r.mu.Unlock()
		return false, nil
	}
	var wait time.Duration
	if delay, ok := r.minDelay[source]; ok && !s.lastCall.IsZero() {
		elapsed := now.Sub(s.lastCall)
		if elapsed < delay {
			wait = delay - elapsed
		}
	}
	// Reserve the slot before sleeping so a concurrent caller backs off
	// behind this one.
	s.lastCall = now.Add(wait)
	s.totalCalls++
	r.mu.Unlock()

	if wait > 0 {
		if err := r.sleep(ctx, wait); err != nil {
			return false, err
		}
	}
	return true, nil
}

// ReportSuccess closes the source's failure streak.
func (r *RateLimiter) ReportSuccess(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stateFor(source)
	s.failures = 0
	s.openUntil = time.Time{}
}

// ReportFailure counts a consecutive failure; at the limit the circuit opens
// for a cooldown so a dead provider stops delaying every item.
func (r *RateLimiter) ReportFailure(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stateFor(source)
	s.failures++
	if s.failures >= breakerFailureLimit {
		s.openUntil = r.now().Add(breakerCooldown)
		s.failures = 0
	}
}

// CallStats returns calls attempted and calls skipped for a source, for
// worker-loop budget logging.
func (r *RateLimiter) CallStats(source string) (calls, skipped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stateFor(source)
	return s.totalCalls, s.totalSkipped
}
