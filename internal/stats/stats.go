// Package stats tracks fetch/cache/retry counters per source and in
// aggregate, snapshotted for the introspection API.
package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/geosafe-net/geosafe/internal/sources"
)

// SourceStats counts outcomes for one upstream.
type SourceStats struct {
	hits         atomic.Uint64
	misses       atomic.Uint64
	fetches      atomic.Uint64
	failures     atomic.Uint64
	staleServes  atomic.Uint64
	retrySuccess atomic.Uint64
	retryAttempt atomic.Uint64

	mu          sync.RWMutex
	lastError   string
	lastFailure time.Time
}

// Snapshot is a point-in-time, self-consistent copy of one source's counters.
type Snapshot struct {
	Hits          uint64    `json:"hits"`
	Misses        uint64    `json:"misses"`
	Fetches       uint64    `json:"fetches"`
	Failures      uint64    `json:"failures"`
	StaleServes   uint64    `json:"staleServes"`
	RetrySuccess  uint64    `json:"retrySuccesses"`
	RetryAttempts uint64    `json:"retryAttempts"`
	LastError     string    `json:"lastError,omitempty"`
	LastFailure   time.Time `json:"lastFailure,omitempty"`
}

func (s *SourceStats) RecordHit()        { s.hits.Add(1) }
func (s *SourceStats) RecordMiss()       { s.misses.Add(1) }
func (s *SourceStats) RecordFetch()      { s.fetches.Add(1) }
func (s *SourceStats) RecordStaleServe() { s.staleServes.Add(1) }

func (s *SourceStats) RecordFailure(err error) {
	s.failures.Add(1)
	s.mu.Lock()
	s.lastError = err.Error()
	s.lastFailure = time.Now()
	s.mu.Unlock()
}

func (s *SourceStats) RecordRetrySuccess(_ sources.ID) { s.retrySuccess.Add(1) }
func (s *SourceStats) RecordRetryAttempt(_ sources.ID) { s.retryAttempt.Add(1) }

// Snapshot returns a self-consistent copy of the counters.
func (s *SourceStats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Hits:          s.hits.Load(),
		Misses:        s.misses.Load(),
		Fetches:       s.fetches.Load(),
		Failures:      s.failures.Load(),
		StaleServes:   s.staleServes.Load(),
		RetrySuccess:  s.retrySuccess.Load(),
		RetryAttempts: s.retryAttempt.Load(),
		LastError:     s.lastError,
		LastFailure:   s.lastFailure,
	}
}

// Reset zeroes every counter for this source.
func (s *SourceStats) Reset() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.fetches.Store(0)
	s.failures.Store(0)
	s.staleServes.Store(0)
	s.retrySuccess.Store(0)
	s.retryAttempt.Store(0)
	s.mu.Lock()
	s.lastError = ""
	s.lastFailure = time.Time{}
	s.mu.Unlock()
}

// Registry holds one SourceStats per upstream plus combined-cache counters.
type Registry struct {
	perSource          map[sources.ID]*SourceStats
	combinedStaleServe atomic.Uint64
	combinedFailures   atomic.Uint64
}

// NewRegistry builds a Registry with one SourceStats per id in sources.All.
func NewRegistry() *Registry {
	r := &Registry{perSource: make(map[sources.ID]*SourceStats)}
	for _, id := range sources.All {
		r.perSource[id] = &SourceStats{}
	}
	return r
}

// For returns the SourceStats for id, creating one if it's not a known
// upstream (defensive; every call site should use a sources.All member).
func (r *Registry) For(id sources.ID) *SourceStats {
	if s, ok := r.perSource[id]; ok {
		return s
	}
	return &SourceStats{}
}

func (r *Registry) RecordCombinedStaleServe() { r.combinedStaleServe.Add(1) }
func (r *Registry) RecordCombinedFailure()    { r.combinedFailures.Add(1) }

// RegistrySnapshot describes the full registry for the Introspection API.
type RegistrySnapshot struct {
	PerSource           map[sources.ID]Snapshot `json:"perSource"`
	CombinedStaleServes uint64                  `json:"combinedStaleServes"`
	CombinedFailures    uint64                  `json:"combinedFailures"`
}

func (r *Registry) Snapshot() RegistrySnapshot {
	out := RegistrySnapshot{PerSource: make(map[sources.ID]Snapshot, len(r.perSource))}
	for id, s := range r.perSource {
		out.PerSource[id] = s.Snapshot()
	}
	out.CombinedStaleServes = r.combinedStaleServe.Load()
	out.CombinedFailures = r.combinedFailures.Load()
	return out
}

// ResetAll zeroes every counter in the registry.
func (r *Registry) ResetAll() {
	for _, s := range r.perSource {
		s.Reset()
	}
	r.combinedStaleServe.Store(0)
	r.combinedFailures.Store(0)
}
