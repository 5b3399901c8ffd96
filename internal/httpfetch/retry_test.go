package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geosafe-net/geosafe/internal/sources"
)

type recordingStats struct {
	attempts  int32
	successes int32
}

func (r *recordingStats) RecordRetryAttempt(source sources.ID) { atomic.AddInt32(&r.attempts, 1) }
func (r *recordingStats) RecordRetrySuccess(source sources.ID) { atomic.AddInt32(&r.successes, 1) }

func TestRetryingFetcherSucceedsAfterTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	fetcher := NewFetcher(time.Second, "")
	stats := &recordingStats{}
	rf := NewRetryingFetcher(fetcher, RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}, stats)

	body, err := rf.Fetch(sources.USGS)(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&stats.attempts))
	assert.Equal(t, int32(1), atomic.LoadInt32(&stats.successes))
}

func TestRetryingFetcherExhaustsAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	fetcher := NewFetcher(time.Second, "")
	rf := NewRetryingFetcher(fetcher, RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}, nil)

	_, err := rf.Fetch(sources.USGS)(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetryingFetcherRetries4xxLikeAnyOtherError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	fetcher := NewFetcher(time.Second, "")
	rf := NewRetryingFetcher(fetcher, RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}, nil)

	_, err := rf.Fetch(sources.USGS)(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
