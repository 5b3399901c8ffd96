package aggregator

import (
	"time"

	"github.com/geosafe-net/geosafe/internal/sources"
	"github.com/geosafe-net/geosafe/internal/stats"
)

// BreakerView is the breaker portion of a SlotView.
type BreakerView struct {
	State       string    `json:"state"`
	Failures    uint32    `json:"failures"`
	LastFailure time.Time `json:"lastFailure,omitempty"`
}

// SlotView is the read shape for one source's cache+breaker state.
type SlotView struct {
	Source      sources.ID  `json:"source"`
	HasData     bool        `json:"hasData"`
	ItemCount   int         `json:"itemCount"`
	LastFetch   time.Time   `json:"lastFetch,omitempty"`
	LastSuccess time.Time   `json:"lastSuccess,omitempty"`
	AgeSeconds  float64     `json:"ageSeconds"`
	IsFresh     bool        `json:"isFresh"`
	IsStale     bool        `json:"isStale"`
	Breaker     BreakerView `json:"breaker"`
}

// CacheStatus returns a SlotView per upstream source. lastFetch and
// lastSuccess are always equal here: the pipeline only ever advances either
// timestamp together, on a successful fetch. A failed attempt records the
// failure on the breaker and stats but never touches the slot's timestamps.
func (a *Aggregator) CacheStatus() []SlotView {
	views := make([]SlotView, 0, len(a.pipelines))
	for _, p := range a.pipelines {
		events, age, ok := p.Slot().Get()
		failures, lastFailure := p.BreakerCounts()
		var lastFetch time.Time
		if ok {
			lastFetch = time.Now().Add(-age)
		}
		views = append(views, SlotView{
			Source:      p.ID(),
			HasData:     ok,
			ItemCount:   len(events),
			LastFetch:   lastFetch,
			LastSuccess: lastFetch,
			AgeSeconds:  age.Seconds(),
			IsFresh:     p.Slot().Fresh(),
			IsStale:     ok && !p.Slot().Fresh(),
			Breaker:     BreakerView{State: p.BreakerState(), Failures: failures, LastFailure: lastFailure},
		})
	}
	return views
}

// ClearCache empties one source's cache slot.
func (a *Aggregator) ClearCache(id sources.ID) bool {
	for _, p := range a.pipelines {
		if p.ID() == id {
			p.ClearCache()
			return true
		}
	}
	return false
}

// ClearAllCaches empties every source's cache slot plus the combined slot.
func (a *Aggregator) ClearAllCaches() {
	for _, p := range a.pipelines {
		p.ClearCache()
	}
	a.combined.Clear()
}

// ResetBreaker resets one source's circuit breaker.
func (a *Aggregator) ResetBreaker(id sources.ID) bool {
	for _, p := range a.pipelines {
		if p.ID() == id {
			p.ResetBreaker()
			return true
		}
	}
	return false
}

// ResetAllBreakers resets every source's circuit breaker.
func (a *Aggregator) ResetAllBreakers() {
	for _, p := range a.pipelines {
		p.ResetBreaker()
	}
}

// Stats returns a snapshot of the process-wide counters.
func (a *Aggregator) Stats() stats.RegistrySnapshot {
	if a.statsReg == nil {
		return stats.RegistrySnapshot{}
	}
	return a.statsReg.Snapshot()
}

// ResetStats zeroes every counter in the Stats Counter.
func (a *Aggregator) ResetStats() {
	if a.statsReg != nil {
		a.statsReg.ResetAll()
	}
}

// PipelineIDs returns the upstream ids this aggregator dispatches to, in
// fan-out order.
func (a *Aggregator) PipelineIDs() []sources.ID {
	ids := make([]sources.ID, 0, len(a.pipelines))
	for _, p := range a.pipelines {
		ids = append(ids, p.ID())
	}
	return ids
}
