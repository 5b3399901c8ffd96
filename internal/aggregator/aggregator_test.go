package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geosafe-net/geosafe/internal/breaker"
	"github.com/geosafe-net/geosafe/internal/cache"
	"github.com/geosafe-net/geosafe/internal/geosafeerr"
	"github.com/geosafe-net/geosafe/internal/pipeline"
	"github.com/geosafe-net/geosafe/internal/sources"
	"github.com/geosafe-net/geosafe/internal/stats"
)

type fakeAdapter struct {
	id     sources.ID
	events []sources.Event
	err    error
	delay  time.Duration
}

func (f *fakeAdapter) ID() sources.ID { return f.id }

func (f *fakeAdapter) Fetch(ctx context.Context, fetch sources.FetchFunc) ([]sources.Event, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func noopFetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	return nil, nil
}

func pipelineFor(adapter *fakeAdapter) *pipeline.Pipeline {
	cacheCfg := cache.Config{TTL: 50 * time.Millisecond, StaleTTL: time.Minute}
	breakerCfg := breaker.Config{FailureThreshold: 5, OpenTimeout: time.Minute}
	statsReg := stats.NewRegistry()
	return pipeline.New(adapter, cache.NewSourceSlot(cacheCfg), breaker.NewRegistry(breakerCfg), noopFetch, statsReg.For(adapter.id), nil, nil)
}

func newTestAggregator(pipelines ...*pipeline.Pipeline) *Aggregator {
	combined := cache.NewCombinedSlot(cache.Config{TTL: 50 * time.Millisecond, StaleTTL: time.Minute})
	return New(pipelines, combined, stats.NewRegistry(), nil, nil)
}

func TestAggregatorMergesAllSources(t *testing.T) {
	p1 := pipelineFor(&fakeAdapter{id: sources.USGS, events: []sources.Event{
		{SourceID: "a", Type: sources.TypeEarthquake, Severity: 5, Lat: 1, Lng: 1, Radius: 10},
	}})
	p2 := pipelineFor(&fakeAdapter{id: sources.NASAEonet, events: []sources.Event{
		{SourceID: "b", Type: sources.TypeWildfire, Severity: 7, Lat: 50, Lng: 50, Radius: 10},
	}})
	agg := newTestAggregator(p1, p2)

	result, err := agg.Fetch(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalDisasters)
	assert.Equal(t, 7, result.Disasters[0].Severity)
	assert.Equal(t, 1, result.Disasters[0].SequenceID)
	assert.Equal(t, 2, result.Disasters[1].SequenceID)
}

func TestAggregatorDedupesNearCoincidentEvents(t *testing.T) {
	p1 := pipelineFor(&fakeAdapter{id: sources.USGS, events: []sources.Event{
		{SourceID: "a", Type: sources.TypeEarthquake, Severity: 5, Lat: 10.00, Lng: 20.00, Radius: 10},
	}})
	p2 := pipelineFor(&fakeAdapter{id: sources.GDACS, events: []sources.Event{
		{SourceID: "b", Type: sources.TypeEarthquake, Severity: 6, Lat: 10.01, Lng: 20.01, Radius: 10},
	}})
	agg := newTestAggregator(p1, p2)

	result, err := agg.Fetch(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalDisasters)
}

func TestAggregatorRanksBySeverityThenTimestamp(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	p1 := pipelineFor(&fakeAdapter{id: sources.USGS, events: []sources.Event{
		{SourceID: "a", Type: sources.TypeEarthquake, Severity: 5, Lat: 1, Lng: 1, Radius: 10, Timestamp: older},
		{SourceID: "b", Type: sources.TypeFlood, Severity: 5, Lat: 60, Lng: 60, Radius: 10, Timestamp: newer},
	}})
	agg := newTestAggregator(p1)

	result, err := agg.Fetch(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, result.Disasters, 2)
	assert.Equal(t, "b", result.Disasters[0].SourceID)
}

func TestAggregatorPartialFailureStillReturnsOtherSources(t *testing.T) {
	p1 := pipelineFor(&fakeAdapter{id: sources.USGS, err: errors.New("boom")})
	p2 := pipelineFor(&fakeAdapter{id: sources.NWS, events: []sources.Event{
		{SourceID: "ok", Type: sources.TypeTornado, Severity: 6, Lat: 1, Lng: 1, Radius: 10},
	}})
	agg := newTestAggregator(p1, p2)

	result, err := agg.Fetch(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalDisasters)
}

func TestAggregatorAllSourcesFailWithNoCacheReturnsError(t *testing.T) {
	p1 := pipelineFor(&fakeAdapter{id: sources.USGS, err: errors.New("boom")})
	p2 := pipelineFor(&fakeAdapter{id: sources.NWS, err: errors.New("also boom")})
	agg := newTestAggregator(p1, p2)

	_, err := agg.Fetch(context.Background(), false)
	require.Error(t, err)
	kind, ok := geosafeerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, geosafeerr.KindNoData, kind)
}

func TestAggregatorAllSourcesFailServesStaleCombinedCache(t *testing.T) {
	adapter := &fakeAdapter{id: sources.USGS, events: []sources.Event{
		{SourceID: "a", Type: sources.TypeEarthquake, Severity: 5, Lat: 1, Lng: 1, Radius: 10},
	}}
	p1 := pipelineFor(adapter)
	agg := newTestAggregator(p1)

	first, err := agg.Fetch(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, first.TotalDisasters)

	adapter.err = errors.New("upstream down")
	adapter.events = nil
	p1.ClearCache()

	time.Sleep(60 * time.Millisecond)
	second, err := agg.Fetch(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, second.TotalDisasters)
	assert.True(t, second.FromStaleCache)
}

func TestAggregatorDropsInvalidEvents(t *testing.T) {
	p1 := pipelineFor(&fakeAdapter{id: sources.USGS, events: []sources.Event{
		{SourceID: "good", Type: sources.TypeEarthquake, Severity: 5, Lat: 1, Lng: 1, Radius: 10},
		{SourceID: "bad-lat", Type: sources.TypeEarthquake, Severity: 5, Lat: 95, Lng: 50, Radius: 10},
		{SourceID: "bad-severity", Type: sources.TypeFlood, Severity: 11, Lat: 60, Lng: 60, Radius: 10},
		{SourceID: "", Type: sources.TypeFlood, Severity: 5, Lat: 70, Lng: 70, Radius: 10},
	}})
	agg := newTestAggregator(p1)

	result, err := agg.Fetch(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalDisasters)
	assert.Equal(t, "good", result.Disasters[0].SourceID)
}

func TestAggregatorDeadlineExpiryReturnsPartialResult(t *testing.T) {
	fast := pipelineFor(&fakeAdapter{id: sources.USGS, events: []sources.Event{
		{SourceID: "fast", Type: sources.TypeEarthquake, Severity: 5, Lat: 1, Lng: 1, Radius: 10},
	}})
	slow := pipelineFor(&fakeAdapter{id: sources.GDACS, delay: 500 * time.Millisecond, events: []sources.Event{
		{SourceID: "slow", Type: sources.TypeFlood, Severity: 5, Lat: 60, Lng: 60, Radius: 10},
	}})
	agg := newTestAggregator(fast, slow)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := agg.Fetch(ctx, false)
	require.NoError(t, err)
	require.Len(t, result.Disasters, 1)
	assert.Equal(t, "fast", result.Disasters[0].SourceID)
}

func TestAggregatorServesFreshCombinedCacheWithoutFanOut(t *testing.T) {
	p1 := pipelineFor(&fakeAdapter{id: sources.USGS, events: []sources.Event{
		{SourceID: "a", Type: sources.TypeEarthquake, Severity: 5, Lat: 1, Lng: 1, Radius: 10},
	}})
	agg := newTestAggregator(p1)

	first, err := agg.Fetch(context.Background(), false)
	require.NoError(t, err)
	second, err := agg.Fetch(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, first.TotalDisasters, second.TotalDisasters)
	assert.False(t, second.FromStaleCache)
}
