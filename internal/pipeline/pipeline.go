// Package pipeline composes, for one upstream source, the cache, circuit
// breaker, and retrying fetch into a fresh/stale/breaker-open/fetch decision
// procedure, with single-flight coalescing so concurrent callers share one
// upstream call.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/geosafe-net/geosafe/internal/breaker"
	"github.com/geosafe-net/geosafe/internal/cache"
	"github.com/geosafe-net/geosafe/internal/geosafeerr"
	"github.com/geosafe-net/geosafe/internal/metrics"
	"github.com/geosafe-net/geosafe/internal/sources"
	"github.com/geosafe-net/geosafe/internal/stats"
)

// Pipeline fetches, caches, and breaker-gates one upstream source.
type Pipeline struct {
	adapter  sources.Adapter
	cache    *cache.SourceSlot
	breakers *breaker.Registry
	fetch    sources.FetchFunc
	stats    *stats.SourceStats
	metrics  *metrics.Metrics
	sf       singleflight.Group
	log      *slog.Logger
}

// New builds a Pipeline for adapter, using fetch as the (already retrying)
// FetchFunc and breakers to gate upstream calls. log should already be scoped
// to this source (logging.ForSource); m and log may be nil to disable
// Prometheus observation and logging (e.g. in tests).
func New(adapter sources.Adapter, slot *cache.SourceSlot, breakers *breaker.Registry, fetch sources.FetchFunc, st *stats.SourceStats, m *metrics.Metrics, log *slog.Logger) *Pipeline {
	return &Pipeline{adapter: adapter, cache: slot, breakers: breakers, fetch: fetch, stats: st, metrics: m, log: log}
}

// ID returns the upstream id this pipeline serves.
func (p *Pipeline) ID() sources.ID { return p.adapter.ID() }

// Fetch returns the current event batch for this source. If force is false
// and the cache is fresh, the cached batch is returned with no upstream
// call. An open breaker short-circuits next: cached data of any age is
// served if present, with no network attempt. Otherwise a single-flight-
// coalesced fetch runs; on failure, a stale-usable cached batch is returned
// instead of the error. force skips only the freshness check, never the
// breaker gate.
func (p *Pipeline) Fetch(ctx context.Context, force bool) ([]sources.Event, error) {
	defer p.observeBreakerState()

	if !force {
		if events, _, ok := p.cache.Get(); ok && p.cache.Fresh() {
			if p.stats != nil {
				p.stats.RecordHit()
			}
			if p.metrics != nil {
				p.metrics.CacheHitsTotal.WithLabelValues(metrics.SourceLabel(p.adapter.ID())).Inc()
			}
			return events, nil
		}
	}
	if p.stats != nil {
		p.stats.RecordMiss()
	}

	// An open breaker past its timeout reads as HALF_OPEN and falls through
	// to the probe below; only a still-open breaker refuses here.
	if p.breakers.Open(p.adapter.ID()) {
		if cached, _, ok := p.cache.Get(); ok {
			return cached, nil
		}
		return nil, geosafeerr.BreakerOpen(string(p.adapter.ID()))
	}

	v, err, _ := p.sf.Do(string(p.adapter.ID()), func() (interface{}, error) {
		if p.stats != nil {
			p.stats.RecordFetch()
		}
		if p.metrics != nil {
			p.metrics.FetchesTotal.WithLabelValues(metrics.SourceLabel(p.adapter.ID())).Inc()
		}
		events, ferr := p.breakers.Execute(ctx, p.adapter.ID(), func(ctx context.Context) ([]sources.Event, error) {
			return p.adapter.Fetch(ctx, p.fetch)
		})
		if ferr != nil {
			return nil, ferr
		}
		p.cache.Set(events)
		return events, nil
	})

	if err != nil {
		// The breaker can still refuse inside Execute when it flips open (or
		// the single half-open probe slot is taken) between the gate above and
		// the call. A local refusal is not a fetch failure.
		if geosafeerr.IsBreakerOpen(err) {
			if cached, _, ok := p.cache.Get(); ok {
				return cached, nil
			}
			return nil, err
		}
		if p.stats != nil {
			p.stats.RecordFailure(err)
		}
		if p.metrics != nil {
			p.metrics.FailuresTotal.WithLabelValues(metrics.SourceLabel(p.adapter.ID())).Inc()
		}
		if p.log != nil {
			p.log.Warn("source fetch failed", "error", err)
		}
		if cached, _, ok := p.cache.Get(); ok && p.cache.StaleUsable() {
			if p.stats != nil {
				p.stats.RecordStaleServe()
			}
			if p.metrics != nil {
				p.metrics.StaleServesTotal.WithLabelValues(metrics.SourceLabel(p.adapter.ID())).Inc()
			}
			return cached, nil
		}
		return nil, err
	}
	return v.([]sources.Event), nil
}

func (p *Pipeline) observeBreakerState() {
	if p.metrics == nil {
		return
	}
	p.metrics.BreakerState.WithLabelValues(metrics.SourceLabel(p.adapter.ID())).Set(metrics.BreakerStateValue(p.BreakerState()))
}

// BreakerState reports the current breaker state for this source.
func (p *Pipeline) BreakerState() string {
	return breaker.StateString(p.breakers.State(p.adapter.ID()))
}

// BreakerCounts reports the consecutive-failure count and last-failure time
// for this source's breaker, for the introspection views.
func (p *Pipeline) BreakerCounts() (failures uint32, lastFailure time.Time) {
	return p.breakers.Counts(p.adapter.ID())
}

// ClearCache empties this source's cache slot.
func (p *Pipeline) ClearCache() { p.cache.Clear() }

// ResetBreaker resets this source's circuit breaker to CLOSED.
func (p *Pipeline) ResetBreaker() { p.breakers.Reset(p.adapter.ID()) }

// Slot exposes the underlying cache slot for read-only introspection.
func (p *Pipeline) Slot() *cache.SourceSlot { return p.cache }
