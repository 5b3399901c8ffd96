// Package cache holds the per-source cache slots: one mutable slot per
// upstream plus one for the combined result. With exactly six slots and no
// unbounded keyspace, a plain mutex-guarded struct is all that's needed.
package cache

import (
	"sync"
	"time"

	"github.com/geosafe-net/geosafe/internal/sources"
)

// Config carries the freshness and stale-usability windows.
type Config struct {
	TTL      time.Duration
	StaleTTL time.Duration
}

// DefaultConfig is the reference tuning: data is fresh for 5 minutes and
// still usable as a stale fallback for 30.
var DefaultConfig = Config{TTL: 5 * time.Minute, StaleTTL: 30 * time.Minute}

// SourceSlot holds the last successfully fetched batch for one upstream.
type SourceSlot struct {
	mu        sync.RWMutex
	cfg       Config
	events    []sources.Event
	fetchedAt time.Time
	hasData   bool
	nowFunc   func() time.Time
}

// NewSourceSlot builds an empty slot.
func NewSourceSlot(cfg Config) *SourceSlot {
	return &SourceSlot{cfg: cfg, nowFunc: time.Now}
}

// Get returns the cached events, their age, and whether there is any data at
// all. Callers decide freshness themselves via Fresh/StaleUsable, since the
// pipeline needs both checks against the same snapshot.
func (s *SourceSlot) Get() (events []sources.Event, age time.Duration, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasData {
		return nil, 0, false
	}
	return s.events, s.nowFunc().Sub(s.fetchedAt), true
}

// Fresh reports whether the cached data is within TTL.
func (s *SourceSlot) Fresh() bool {
	_, age, ok := s.Get()
	return ok && age < s.cfg.TTL
}

// StaleUsable reports whether there is cached data younger than STALE_TTL,
// i.e. usable as a stale-while-revalidate fallback. Fresh data also counts.
func (s *SourceSlot) StaleUsable() bool {
	_, age, ok := s.Get()
	return ok && age < s.cfg.StaleTTL
}

// Set replaces the cached events and resets the fetch timestamp.
func (s *SourceSlot) Set(events []sources.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
	s.fetchedAt = s.nowFunc()
	s.hasData = true
}

// Clear empties the slot, as if it had never been populated.
func (s *SourceSlot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.hasData = false
	s.fetchedAt = time.Time{}
}

// CombinedSlot holds the last ranked, merged event list across all sources.
type CombinedSlot struct {
	mu        sync.RWMutex
	cfg       Config
	events    []sources.Event
	fetchedAt time.Time
	hasData   bool
	nowFunc   func() time.Time
}

// NewCombinedSlot builds an empty combined slot.
func NewCombinedSlot(cfg Config) *CombinedSlot {
	return &CombinedSlot{cfg: cfg, nowFunc: time.Now}
}

func (s *CombinedSlot) Get() (events []sources.Event, age time.Duration, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasData {
		return nil, 0, false
	}
	return s.events, s.nowFunc().Sub(s.fetchedAt), true
}

// Fresh reports whether the merged list is within TTL.
func (s *CombinedSlot) Fresh() bool {
	_, age, ok := s.Get()
	return ok && age < s.cfg.TTL
}

func (s *CombinedSlot) StaleUsable() bool {
	_, age, ok := s.Get()
	return ok && age < s.cfg.StaleTTL
}

func (s *CombinedSlot) Set(events []sources.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
	s.fetchedAt = s.nowFunc()
	s.hasData = true
}

func (s *CombinedSlot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.hasData = false
	s.fetchedAt = time.Time{}
}
