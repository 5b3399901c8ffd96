// Package breaker holds one circuit breaker per upstream source, gating the
// source pipelines' fetch calls so a consistently failing upstream stops
// being hammered.
package breaker

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/geosafe-net/geosafe/internal/geosafeerr"
	"github.com/geosafe-net/geosafe/internal/sources"
)

// Config controls breaker thresholds.
type Config struct {
	// FailureThreshold is the number of consecutive failures that trips the
	// breaker from CLOSED to OPEN.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays OPEN before allowing a single
	// HALF_OPEN probe.
	OpenTimeout time.Duration
}

// DefaultConfig is the reference tuning: five consecutive failures open the
// breaker for one minute.
var DefaultConfig = Config{FailureThreshold: 5, OpenTimeout: 60 * time.Second}

// breakerEntry pairs a gobreaker instance with the last-failure timestamp
// gobreaker itself doesn't expose (its Counts carries ConsecutiveFailures but
// not when the last one happened).
type breakerEntry struct {
	cb          *gobreaker.CircuitBreaker
	mu          sync.RWMutex
	lastFailure time.Time
}

// Registry holds one gobreaker.CircuitBreaker per source id. Reset is
// implemented by replacing the breaker instance for that key, since gobreaker
// doesn't expose an imperative reset.
type Registry struct {
	mu       sync.RWMutex
	cfg      Config
	breakers map[sources.ID]*breakerEntry
}

// NewRegistry builds a Registry with one breaker per id in sources.All.
func NewRegistry(cfg Config) *Registry {
	r := &Registry{cfg: cfg, breakers: make(map[sources.ID]*breakerEntry)}
	for _, id := range sources.All {
		r.breakers[id] = r.newBreaker(id)
	}
	return r
}

func (r *Registry) newBreaker(id sources.ID) *breakerEntry {
	entry := &breakerEntry{}
	settings := gobreaker.Settings{
		Name:        string(id),
		MaxRequests: 1, // exactly one probe while HALF_OPEN
		Interval:    0, // never reset failure counts while CLOSED on a timer
		Timeout:     r.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= r.cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				entry.mu.Lock()
				entry.lastFailure = time.Now()
				entry.mu.Unlock()
			}
		},
	}
	entry.cb = gobreaker.NewCircuitBreaker(settings)
	return entry
}

func (r *Registry) breakerFor(id sources.ID) *breakerEntry {
	r.mu.RLock()
	b, ok := r.breakers[id]
	r.mu.RUnlock()
	if ok {
		return b
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok = r.breakers[id]; ok {
		return b
	}
	b = r.newBreaker(id)
	r.breakers[id] = b
	return b
}

// Execute runs fn through the breaker for id. If the breaker is open it
// returns geosafeerr.BreakerOpen(id) without calling fn.
func (r *Registry) Execute(ctx context.Context, id sources.ID, fn func(ctx context.Context) ([]sources.Event, error)) ([]sources.Event, error) {
	entry := r.breakerFor(id)
	v, err := entry.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, geosafeerr.BreakerOpen(string(id))
		}
		entry.mu.Lock()
		entry.lastFailure = time.Now()
		entry.mu.Unlock()
		return nil, err
	}
	return v.([]sources.Event), nil
}

// State reports the current state of the breaker for id.
func (r *Registry) State(id sources.ID) gobreaker.State {
	return r.breakerFor(id).cb.State()
}

// Open reports whether the breaker for id is currently refusing requests.
// An open breaker whose timeout has elapsed reads as half-open and returns
// false, so callers naturally fall through to the single probe.
func (r *Registry) Open(id sources.ID) bool {
	return r.breakerFor(id).cb.State() == gobreaker.StateOpen
}

// Counts reports the consecutive-failure count and the last time this
// breaker recorded a failure, for the introspection views.
func (r *Registry) Counts(id sources.ID) (failures uint32, lastFailure time.Time) {
	entry := r.breakerFor(id)
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return entry.cb.Counts().ConsecutiveFailures, entry.lastFailure
}

// Reset replaces the breaker for id with a fresh CLOSED one.
func (r *Registry) Reset(id sources.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakers[id] = r.newBreaker(id)
}

// ResetAll replaces every breaker in the registry.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.breakers {
		r.breakers[id] = r.newBreaker(id)
	}
}

// StateString renders a gobreaker.State in the operator-facing naming.
func StateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "CLOSED"
	case gobreaker.StateHalfOpen:
		return "HALF_OPEN"
	case gobreaker.StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}
