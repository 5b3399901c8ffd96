// Package aggregator fans out to all source pipelines concurrently, merges
// their batches, cross-source deduplicates, ranks, and maintains the combined
// cache with a stale fallback of last resort.
package aggregator

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/geosafe-net/geosafe/internal/cache"
	"github.com/geosafe-net/geosafe/internal/geosafeerr"
	"github.com/geosafe-net/geosafe/internal/metrics"
	"github.com/geosafe-net/geosafe/internal/pipeline"
	"github.com/geosafe-net/geosafe/internal/sources"
	"github.com/geosafe-net/geosafe/internal/stats"
)

// dedupWindowDegrees is the cross-source de-duplication threshold,
// intentionally coarse so near-coincident reports of the same incident from
// different providers collapse into one.
const dedupWindowDegrees = 0.1

// Result is what the Aggregator returns to its caller (the HTTP layer adds
// the surrounding envelope).
type Result struct {
	Disasters      []sources.Event
	Sources        []sources.ID
	TotalDisasters int
	FromStaleCache bool
}

// Aggregator merges the five Source Pipelines into one ranked catalog.
type Aggregator struct {
	pipelines []*pipeline.Pipeline
	combined  *cache.CombinedSlot
	statsReg  *stats.Registry
	metrics   *metrics.Metrics
	sf        singleflight.Group
	log       *slog.Logger
}

// New builds an Aggregator over pipelines, one per upstream source. m may be
// nil to disable Prometheus observation (e.g. in tests).
func New(pipelines []*pipeline.Pipeline, combined *cache.CombinedSlot, statsReg *stats.Registry, m *metrics.Metrics, log *slog.Logger) *Aggregator {
	return &Aggregator{pipelines: pipelines, combined: combined, statsReg: statsReg, metrics: m, log: log}
}

// Fetch returns the merged, ranked event catalog. If force is false and the
// combined cache is fresh by the same TTL rule the per-source slots use, it
// is returned without dispatching any pipeline.
func (a *Aggregator) Fetch(ctx context.Context, force bool) (Result, error) {
	if !force {
		if events, _, ok := a.combined.Get(); ok && a.combined.Fresh() {
			return a.resultFrom(events, false), nil
		}
	}

	start := time.Now()
	v, err, _ := a.sf.Do("combined", func() (interface{}, error) {
		defer a.observeDuration(start)
		events, succeeded := a.fanOut(ctx)

		deduped := dedup(events)
		rank(deduped)
		assignSequenceIDs(deduped)

		if len(deduped) == 0 {
			if cached, _, ok := a.combined.Get(); ok && a.combined.StaleUsable() {
				if a.statsReg != nil {
					a.statsReg.RecordCombinedStaleServe()
				}
				return a.resultFrom(cached, true), nil
			}
			// An empty catalog from sources that answered is a valid result;
			// zero answering sources with nothing cached is not.
			if succeeded == 0 {
				return nil, geosafeerr.NoData("combined")
			}
			a.combined.Set(deduped)
			return a.resultFrom(deduped, false), nil
		}

		a.combined.Set(deduped)
		return a.resultFrom(deduped, false), nil
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (a *Aggregator) resultFrom(events []sources.Event, stale bool) Result {
	ids := make([]sources.ID, 0, len(a.pipelines))
	for _, p := range a.pipelines {
		ids = append(ids, p.ID())
	}
	if a.metrics != nil {
		a.metrics.AggregateDisasters.Set(float64(len(events)))
	}
	return Result{Disasters: events, Sources: ids, TotalDisasters: len(events), FromStaleCache: stale}
}

func (a *Aggregator) observeDuration(start time.Time) {
	if a.metrics != nil {
		a.metrics.AggregateDuration.Observe(time.Since(start).Seconds())
	}
}

// fanOut dispatches every pipeline concurrently and collects each outcome as
// it settles, never failing fast on one pipeline's error. If ctx expires
// first, whatever has arrived so far is returned; the in-flight goroutines
// are not cancelled and still update their per-source caches for later
// callers. Events that fail the catalog invariants are dropped at the merge,
// so one adapter's bad decode can't leak a malformed event downstream.
func (a *Aggregator) fanOut(ctx context.Context) (merged []sources.Event, succeeded int) {
	type outcome struct {
		idx    int
		events []sources.Event
		err    error
	}
	ch := make(chan outcome, len(a.pipelines))
	for i, p := range a.pipelines {
		go func(i int, p *pipeline.Pipeline) {
			events, err := p.Fetch(context.WithoutCancel(ctx), false)
			ch <- outcome{idx: i, events: events, err: err}
		}(i, p)
	}

	results := make([][]sources.Event, len(a.pipelines))
collect:
	for pending := len(a.pipelines); pending > 0; pending-- {
		select {
		case o := <-ch:
			if o.err != nil {
				if a.log != nil {
					a.log.Warn("pipeline failed during aggregation", "source", a.pipelines[o.idx].ID(), "error", o.err)
				}
				if a.statsReg != nil && !geosafeerr.IsBreakerOpen(o.err) {
					a.statsReg.RecordCombinedFailure()
				}
				continue
			}
			results[o.idx] = o.events
			succeeded++
		case <-ctx.Done():
			if a.log != nil {
				a.log.Warn("aggregation deadline expired, returning partial result", "pending", pending, "error", ctx.Err())
			}
			break collect
		}
	}

	for i, r := range results {
		for _, e := range r {
			if !e.Valid() {
				if a.log != nil {
					a.log.Warn("dropping invalid event", "source", a.pipelines[i].ID(), "sourceId", e.SourceID, "lat", e.Lat, "lng", e.Lng, "severity", e.Severity)
				}
				continue
			}
			merged = append(merged, e)
		}
	}
	return merged, succeeded
}

// dedup drops events in arrival order whose type and coordinates are within
// dedupWindowDegrees of an earlier-kept event.
func dedup(events []sources.Event) []sources.Event {
	kept := make([]sources.Event, 0, len(events))
	for _, e := range events {
		duplicate := false
		for _, k := range kept {
			if k.Type == e.Type && math.Abs(k.Lat-e.Lat) < dedupWindowDegrees && math.Abs(k.Lng-e.Lng) < dedupWindowDegrees {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, e)
		}
	}
	return kept
}

// rank sorts events by (severity desc, timestamp desc) in place.
func rank(events []sources.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Severity != events[j].Severity {
			return events[i].Severity > events[j].Severity
		}
		return events[i].Timestamp.After(events[j].Timestamp)
	})
}

// assignSequenceIDs numbers events 1..N in their current (ranked) order.
func assignSequenceIDs(events []sources.Event) {
	for i := range events {
		events[i].SequenceID = i + 1
	}
}
