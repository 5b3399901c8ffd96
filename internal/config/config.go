// Package config provides configuration loading and validation for the
// gateway.
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Command-line flags (not handled here, see cmd/geosafe/main.go)
//  2. Environment variables (GEOSAFE_* prefix)
//  3. YAML config file (if specified with --config)
//  4. Hardcoded defaults
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func initConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GEOSAFE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// setDefaults configures every default value.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "15s")

	v.SetDefault("sources.enabled", []string{"USGS", "NASA_EONET", "GDACS", "RELIEFWEB", "NWS"})

	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.stale_ttl", "30m")

	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.open_timeout", "60s")

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "1s")
	v.SetDefault("retry.max_delay", "4s")

	v.SetDefault("http.timeout", "10s")
	v.SetDefault("http.user_agent", "geosafe-gateway/1.0")

	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.structured", true)
	v.SetDefault("logging.structured_format", "json")
	v.SetDefault("logging.include_pid", false)
	v.SetDefault("logging.extra_fields", map[string]string{})

	v.SetDefault("api.metrics_enabled", true)
	v.SetDefault("api.safe_zones_file", "data/safezones.json")
}

func loadFromSource(configPath string) (*Config, error) {
	v, err := initConfig(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	loadServerConfig(v, cfg)
	loadSourcesConfig(v, cfg)
	loadCacheConfig(v, cfg)
	loadBreakerConfig(v, cfg)
	loadRetryConfig(v, cfg)
	loadHTTPConfig(v, cfg)
	loadLoggingConfig(v, cfg)
	loadAPIConfig(v, cfg)

	if err := normalizeConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadServerConfig(v *viper.Viper, cfg *Config) {
	cfg.Server.Host = v.GetString("server.host")
	cfg.Server.Port = v.GetInt("server.port")
	cfg.Server.ReadTimeout = v.GetString("server.read_timeout")
	cfg.Server.WriteTimeout = v.GetString("server.write_timeout")
}

func loadSourcesConfig(v *viper.Viper, cfg *Config) {
	cfg.Sources.Enabled = getStringSliceOrSplit(v, "sources.enabled")
}

func loadCacheConfig(v *viper.Viper, cfg *Config) {
	cfg.Cache.TTL = v.GetString("cache.ttl")
	cfg.Cache.StaleTTL = v.GetString("cache.stale_ttl")
}

func loadBreakerConfig(v *viper.Viper, cfg *Config) {
	cfg.Breaker.FailureThreshold = v.GetInt("breaker.failure_threshold")
	cfg.Breaker.OpenTimeout = v.GetString("breaker.open_timeout")
}

func loadRetryConfig(v *viper.Viper, cfg *Config) {
	cfg.Retry.MaxAttempts = v.GetInt("retry.max_attempts")
	cfg.Retry.BaseDelay = v.GetString("retry.base_delay")
	cfg.Retry.MaxDelay = v.GetString("retry.max_delay")
}

func loadHTTPConfig(v *viper.Viper, cfg *Config) {
	cfg.HTTP.Timeout = v.GetString("http.timeout")
	cfg.HTTP.UserAgent = v.GetString("http.user_agent")
}

func loadLoggingConfig(v *viper.Viper, cfg *Config) {
	cfg.Logging.Level = strings.ToUpper(v.GetString("logging.level"))
	cfg.Logging.Structured = v.GetBool("logging.structured")
	cfg.Logging.StructuredFormat = v.GetString("logging.structured_format")
	cfg.Logging.IncludePID = v.GetBool("logging.include_pid")
	cfg.Logging.ExtraFields = v.GetStringMapString("logging.extra_fields")
}

func loadAPIConfig(v *viper.Viper, cfg *Config) {
	cfg.API.MetricsEnabled = v.GetBool("api.metrics_enabled")
	cfg.API.SafeZonesFile = v.GetString("api.safe_zones_file")
}

func getStringSliceOrSplit(v *viper.Viper, key string) []string {
	if slice := v.GetStringSlice(key); len(slice) > 0 {
		result := make([]string, 0, len(slice))
		for _, s := range slice {
			if s = strings.TrimSpace(s); s != "" {
				result = append(result, s)
			}
		}
		return result
	}
	if s := v.GetString(key); s != "" {
		parts := strings.Split(s, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		return result
	}
	return nil
}

// normalizeConfig validates and normalizes the configuration.
func normalizeConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return errors.New("server.port must be 1..65535")
	}
	if len(cfg.Sources.Enabled) == 0 {
		cfg.Sources.Enabled = []string{"USGS", "NASA_EONET", "GDACS", "RELIEFWEB", "NWS"}
	}
	if cfg.Breaker.FailureThreshold <= 0 {
		cfg.Breaker.FailureThreshold = 5
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.StructuredFormat == "" {
		cfg.Logging.StructuredFormat = "json"
	}
	if cfg.Logging.ExtraFields == nil {
		cfg.Logging.ExtraFields = map[string]string{}
	}
	if cfg.API.SafeZonesFile == "" {
		cfg.API.SafeZonesFile = "data/safezones.json"
	}
	return nil
}
