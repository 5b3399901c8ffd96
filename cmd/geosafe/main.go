// Command geosafe starts the disaster-aggregation gateway: it wires the
// five upstream source pipelines into an aggregator and serves the HTTP API
// over it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/geosafe-net/geosafe/internal/aggregator"
	"github.com/geosafe-net/geosafe/internal/api"
	"github.com/geosafe-net/geosafe/internal/api/handlers"
	"github.com/geosafe-net/geosafe/internal/breaker"
	"github.com/geosafe-net/geosafe/internal/cache"
	"github.com/geosafe-net/geosafe/internal/config"
	"github.com/geosafe-net/geosafe/internal/httpfetch"
	"github.com/geosafe-net/geosafe/internal/logging"
	"github.com/geosafe-net/geosafe/internal/metrics"
	"github.com/geosafe-net/geosafe/internal/pipeline"
	"github.com/geosafe-net/geosafe/internal/safezones"
	"github.com/geosafe-net/geosafe/internal/sources"
	"github.com/geosafe-net/geosafe/internal/stats"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	configPath string
	port       int
	debug      bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to YAML config file")
	flag.IntVar(&f.port, "port", 0, "Override the HTTP listen port")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.Parse()
	return f
}

func run() error {
	flags := parseFlags()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// Bare PORT is honored for parity with common PaaS conventions; the
	// --port flag still wins.
	if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil && p > 0 {
		cfg.Server.Port = p
	}
	if flags.port != 0 {
		cfg.Server.Port = flags.port
	}
	if flags.debug {
		cfg.Logging.Level = "DEBUG"
	}

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
	})
	logger.Info("geosafe gateway starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"sources", cfg.Sources.Enabled,
	)

	var m *metrics.Metrics
	if cfg.API.MetricsEnabled {
		m = metrics.New(prometheus.DefaultRegisterer)
	}

	agg, err := buildAggregator(cfg, m, logger)
	if err != nil {
		return fmt.Errorf("failed to build aggregator: %w", err)
	}

	zones := safezones.Load(cfg.API.SafeZonesFile)
	logger.Info("safe zones loaded", "count", len(zones), "path", cfg.API.SafeZonesFile)

	h := handlers.New(agg, zones, cfg, logger, m)
	apiSrv := api.New(cfg, h, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("gateway listening", "addr", apiSrv.Addr())
	go func() {
		if serveErr := apiSrv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("http server error", "err", serveErr)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	logger.Info("gateway stopped")
	return nil
}

// retryMetricsStats decorates a stats.SourceStats with the Prometheus retry
// counter, so the retrying fetcher's single RetryStats interface drives both
// the process-wide counters and the observability surface.
type retryMetricsStats struct {
	inner *stats.SourceStats
	m     *metrics.Metrics
}

func (r retryMetricsStats) RecordRetrySuccess(id sources.ID) {
	r.inner.RecordRetrySuccess(id)
}

func (r retryMetricsStats) RecordRetryAttempt(id sources.ID) {
	r.inner.RecordRetryAttempt(id)
	if r.m != nil {
		r.m.RetriesTotal.WithLabelValues(metrics.SourceLabel(id)).Inc()
	}
}

// buildAggregator constructs one source pipeline per enabled upstream and
// composes them into the aggregator. Everything is built here and passed
// down explicitly; there are no package-level singletons.
func buildAggregator(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*aggregator.Aggregator, error) {
	httpTimeout, err := time.ParseDuration(cfg.HTTP.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid http.timeout: %w", err)
	}
	cacheTTL, err := time.ParseDuration(cfg.Cache.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid cache.ttl: %w", err)
	}
	staleTTL, err := time.ParseDuration(cfg.Cache.StaleTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid cache.stale_ttl: %w", err)
	}
	breakerTimeout, err := time.ParseDuration(cfg.Breaker.OpenTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid breaker.open_timeout: %w", err)
	}
	retryBase, err := time.ParseDuration(cfg.Retry.BaseDelay)
	if err != nil {
		return nil, fmt.Errorf("invalid retry.base_delay: %w", err)
	}
	retryMax, err := time.ParseDuration(cfg.Retry.MaxDelay)
	if err != nil {
		return nil, fmt.Errorf("invalid retry.max_delay: %w", err)
	}

	cacheCfg := cache.Config{TTL: cacheTTL, StaleTTL: staleTTL}
	breakerCfg := breaker.Config{FailureThreshold: uint32(cfg.Breaker.FailureThreshold), OpenTimeout: breakerTimeout}
	retryCfg := httpfetch.RetryConfig{MaxAttempts: cfg.Retry.MaxAttempts, BaseDelay: retryBase, MaxDelay: retryMax}

	fetcher := httpfetch.NewFetcher(httpTimeout, cfg.HTTP.UserAgent)
	breakers := breaker.NewRegistry(breakerCfg)
	statsReg := stats.NewRegistry()

	enabled := enabledSet(cfg.Sources.Enabled)
	allAdapters := map[sources.ID]sources.Adapter{
		sources.USGS:      sources.NewUSGSAdapter(),
		sources.NASAEonet: sources.NewEONETAdapter(),
		sources.GDACS:     sources.NewGDACSAdapter(),
		sources.ReliefWeb: sources.NewReliefWebAdapter(),
		sources.NWS:       sources.NewNWSAdapter(),
	}

	var pipelines []*pipeline.Pipeline
	for _, id := range sources.All {
		if !enabled[id] {
			continue
		}
		adapter := allAdapters[id]
		sourceStats := statsReg.For(id)
		retrying := httpfetch.NewRetryingFetcher(fetcher, retryCfg, retryMetricsStats{inner: sourceStats, m: m})
		p := pipeline.New(adapter, cache.NewSourceSlot(cacheCfg), breakers, retrying.Fetch(id), sourceStats, m, logging.ForSource(logger, string(id)))
		pipelines = append(pipelines, p)
	}

	combined := cache.NewCombinedSlot(cacheCfg)
	return aggregator.New(pipelines, combined, statsReg, m, logger), nil
}

func enabledSet(ids []string) map[sources.ID]bool {
	out := make(map[sources.ID]bool, len(ids))
	for _, s := range ids {
		out[sources.ID(s)] = true
	}
	return out
}
