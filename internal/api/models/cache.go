package models

import (
	"github.com/geosafe-net/geosafe/internal/aggregator"
	"github.com/geosafe-net/geosafe/internal/stats"
)

// CacheStatusResponse is the body of GET /api/cache/status.
type CacheStatusResponse struct {
	Sources []aggregator.SlotView `json:"sources"`
}

// CacheStatsResponse is the body of GET /api/cache/stats: the counter
// snapshot plus the immutable configuration constants.
type CacheStatsResponse struct {
	Stats  stats.RegistrySnapshot `json:"stats"`
	Config ConfigConstants        `json:"config"`
}

// ConfigConstants exposes the gateway's timing constants read-only.
type ConfigConstants struct {
	TTLSeconds            float64 `json:"ttlSeconds"`
	StaleTTLSeconds       float64 `json:"staleTtlSeconds"`
	RetryAttempts         int     `json:"retryAttempts"`
	RetryBaseDelaySeconds float64 `json:"retryBaseDelaySeconds"`
	BreakerThreshold      uint32  `json:"breakerThreshold"`
	BreakerTimeoutSeconds float64 `json:"breakerTimeoutSeconds"`
	HTTPTimeoutSeconds    float64 `json:"httpTimeoutSeconds"`
}

// ValidAPIsResponse is the 400 body for an unrecognized :api path param.
type ValidAPIsResponse struct {
	Error     string   `json:"error"`
	ValidAPIs []string `json:"validApis"`
}
