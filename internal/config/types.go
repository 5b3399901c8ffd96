// Package config provides configuration loading for the gateway using Viper.
// Configuration is loaded from YAML files with automatic environment variable
// binding.
//
// Environment variables use the GEOSAFE_ prefix and underscore-separated
// keys:
//   - GEOSAFE_SERVER_PORT -> server.port
//   - GEOSAFE_CACHE_TTL -> cache.ttl
//   - GEOSAFE_BREAKER_FAILURE_THRESHOLD -> breaker.failure_threshold
package config

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string `yaml:"host"          mapstructure:"host"`
	Port         int    `yaml:"port"          mapstructure:"port"`
	ReadTimeout  string `yaml:"read_timeout"  mapstructure:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// SourcesConfig controls which upstream sources are active.
type SourcesConfig struct {
	Enabled []string `yaml:"enabled" mapstructure:"enabled"`
}

// CacheConfig holds the cache freshness windows.
type CacheConfig struct {
	TTL      string `yaml:"ttl"       mapstructure:"ttl"`
	StaleTTL string `yaml:"stale_ttl" mapstructure:"stale_ttl"`
}

// BreakerConfig holds the circuit breaker tuning.
type BreakerConfig struct {
	FailureThreshold int    `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	OpenTimeout      string `yaml:"open_timeout"       mapstructure:"open_timeout"`
}

// RetryConfig holds the Retrying Fetcher's bounded backoff constants.
type RetryConfig struct {
	MaxAttempts int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelay   string `yaml:"base_delay"   mapstructure:"base_delay"`
	MaxDelay    string `yaml:"max_delay"    mapstructure:"max_delay"`
}

// HTTPConfig holds the HTTP Fetcher's hard wall-clock deadline.
type HTTPConfig struct {
	Timeout   string `yaml:"timeout"    mapstructure:"timeout"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level            string            `yaml:"level"             mapstructure:"level"             json:"level"`
	Structured       bool              `yaml:"structured"        mapstructure:"structured"        json:"structured"`
	StructuredFormat string            `yaml:"structured_format" mapstructure:"structured_format" json:"structured_format"`
	IncludePID       bool              `yaml:"include_pid"       mapstructure:"include_pid"       json:"include_pid"`
	ExtraFields      map[string]string `yaml:"extra_fields"      mapstructure:"extra_fields"      json:"extra_fields,omitempty"`
}

// APIConfig controls the HTTP surface's own behavior, separate from the
// server's listen address.
type APIConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled" mapstructure:"metrics_enabled"`
	SafeZonesFile  string `yaml:"safe_zones_file" mapstructure:"safe_zones_file"`
}

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"  mapstructure:"server"`
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Cache   CacheConfig   `yaml:"cache"   mapstructure:"cache"`
	Breaker BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	Retry   RetryConfig   `yaml:"retry"   mapstructure:"retry"`
	HTTP    HTTPConfig    `yaml:"http"    mapstructure:"http"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	API     APIConfig     `yaml:"api"     mapstructure:"api"`
}

// Load loads configuration from an optional YAML file with environment
// variable overrides.
//
// Configuration priority (highest to lowest):
//  1. Environment variables (GEOSAFE_*)
//  2. Config file values
//  3. Default values
func Load(path string) (*Config, error) {
	return loadFromSource(path)
}
