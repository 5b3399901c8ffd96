package httpfetch

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/geosafe-net/geosafe/internal/sources"
)

// RetryConfig controls the bounded backoff schedule.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig is the reference tuning: up to three attempts with a
// 1s, 2s doubling delay between them.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
	MaxDelay:    4 * time.Second,
}

// RetryStats counts retry outcomes.
type RetryStats interface {
	RecordRetrySuccess(source sources.ID)
	RecordRetryAttempt(source sources.ID)
}

// RetryingFetcher wraps a Fetcher with bounded exponential backoff. Every
// error kind is retried identically, 4xx included: upstreams have been seen
// answering transient 503s, so there is no backoff.Permanent short-circuit
// on status class.
type RetryingFetcher struct {
	fetcher *Fetcher
	cfg     RetryConfig
	stats   RetryStats
}

// NewRetryingFetcher builds a RetryingFetcher. stats may be nil if retry
// counters aren't needed (e.g. in tests).
func NewRetryingFetcher(fetcher *Fetcher, cfg RetryConfig, stats RetryStats) *RetryingFetcher {
	return &RetryingFetcher{fetcher: fetcher, cfg: cfg, stats: stats}
}

// Fetch returns a sources.FetchFunc bound to source that retries fetcher.Do
// up to cfg.MaxAttempts times with doubling delay, giving up only when the
// context is done or attempts are exhausted.
func (r *RetryingFetcher) Fetch(source sources.ID) sources.FetchFunc {
	return func(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = r.cfg.BaseDelay
		bo.Multiplier = 2
		bo.RandomizationFactor = 0 // exact 1s, 2s, 4s schedule, no jitter
		bo.MaxInterval = r.cfg.MaxDelay
		bo.MaxElapsedTime = 0 // bounded by attempt count, not wall clock
		bo.Reset()

		attempts := 0
		var lastErr error
		var result []byte

		operation := func() error {
			attempts++
			if attempts > 1 && r.stats != nil {
				r.stats.RecordRetryAttempt(source)
			}
			body, err := r.fetcher.Do(ctx, string(source), url, headers)
			if err != nil {
				lastErr = err
				return err
			}
			result = body
			lastErr = nil
			if attempts > 1 && r.stats != nil {
				r.stats.RecordRetrySuccess(source)
			}
			return nil
		}

		bounded := backoff.WithMaxRetries(bo, uint64(r.cfg.MaxAttempts-1))
		if err := backoff.Retry(operation, backoff.WithContext(bounded, ctx)); err != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, err
		}
		return result, nil
	}
}
