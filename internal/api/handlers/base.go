// Package handlers implements the REST API endpoint handlers for the
// gateway: a single Handler struct holding every dependency, constructed once
// in cmd/geosafe/main.go and wired into the router by routes.go.
//
// @title GeoSafe Aggregation Gateway API
// @version 1.0
// @description Read-through aggregation of disaster event feeds from five
// @description upstream providers into one normalized, ranked catalog.
//
// @license.name MIT
//
// @host localhost:3000
// @BasePath /
package handlers

import (
	"log/slog"
	"time"

	"github.com/geosafe-net/geosafe/internal/aggregator"
	"github.com/geosafe-net/geosafe/internal/api/models"
	"github.com/geosafe-net/geosafe/internal/config"
	"github.com/geosafe-net/geosafe/internal/metrics"
	"github.com/geosafe-net/geosafe/internal/safezones"
)

// Handler holds every dependency the API surface needs to serve a request.
type Handler struct {
	agg       *aggregator.Aggregator
	safeZones []safezones.Zone
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
	startTime time.Time
}

// New creates a Handler over the already-constructed Aggregator.
func New(agg *aggregator.Aggregator, safeZones []safezones.Zone, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		agg:       agg,
		safeZones: safeZones,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		startTime: time.Now(),
	}
}

// configConstants renders the effective configuration's timing constants
// for GET /api/cache/stats.
func (h *Handler) configConstants() models.ConfigConstants {
	if h.cfg == nil {
		return models.ConfigConstants{}
	}
	return models.ConfigConstants{
		TTLSeconds:            parseSecondsOr(h.cfg.Cache.TTL, 5*time.Minute),
		StaleTTLSeconds:       parseSecondsOr(h.cfg.Cache.StaleTTL, 30*time.Minute),
		RetryAttempts:         h.cfg.Retry.MaxAttempts,
		RetryBaseDelaySeconds: parseSecondsOr(h.cfg.Retry.BaseDelay, time.Second),
		BreakerThreshold:      uint32(h.cfg.Breaker.FailureThreshold),
		BreakerTimeoutSeconds: parseSecondsOr(h.cfg.Breaker.OpenTimeout, 60*time.Second),
		HTTPTimeoutSeconds:    parseSecondsOr(h.cfg.HTTP.Timeout, 10*time.Second),
	}
}

func parseSecondsOr(raw string, fallback time.Duration) float64 {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback.Seconds()
	}
	return d.Seconds()
}
