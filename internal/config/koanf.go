// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/salesight/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8001,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Data: DataConfig{
			Sales:       "data/sales_train.csv",
			Catalog:     "data/items.csv",
			CoPurchases: "data/sales_prod.csv",
			Events:      "data/all_recommendations.csv",
		},
		Recommend: RecommendConfig{
			TopN:                10,
			PopularityThreshold: 50,
			CoUserMinRows:       10,
			BuildTimeout:        20 * time.Second,
			CacheSize:           64,
			CacheTTL:            5 * time.Minute,
		},
		Forecast: ForecastConfig{
			Alpha:           0.05,
			MaxDiffOrder:    5,
			AROrder:         1,
			MAOrder:         7,
			AnnualInflation: 0.04,
			FloorRatio:      0.5,
			FitTimeout:      30 * time.Second,
			MaxIterations:   2000,
		},
		EventLog: EventLogConfig{
			BufferSize:      1024,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Ingest: IngestConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "data/nats",
			DurableName:    "salesight-ingest",
			QueueGroup:     "ingest",
			RetryCount:     3,
			RetryInterval:  100 * time.Millisecond,
			CloseTimeout:   30 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration with layered sources:
//  1. built-in defaults
//  2. the YAML file at path, or the first file found via CONFIG_PATH / DefaultConfigPaths
//  3. environment variables listed in envMappings
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath, err := findConfigFile(path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile resolves the config file. An explicit path must exist;
// the fallbacks are optional.
func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"sales_csv":        "data.sales",
	"catalog_csv":      "data.catalog",
	"co_purchases_csv": "data.co_purchases",
	"events_csv":       "data.events",

	"recommend_top_n":                "recommend.top_n",
	"recommend_popularity_threshold": "recommend.popularity_threshold",
	"recommend_couser_min_rows":      "recommend.couser_min_rows",
	"recommend_build_timeout":        "recommend.build_timeout",
	"recommend_cache_size":           "recommend.cache_size",
	"recommend_cache_ttl":            "recommend.cache_ttl",
	"recommend_cache_purge_schedule": "recommend.cache_purge_schedule",
	"recommend_seed":                 "recommend.seed",

	"forecast_alpha":            "forecast.alpha",
	"forecast_max_diff_order":   "forecast.max_diff_order",
	"forecast_ar_order":         "forecast.ar_order",
	"forecast_ma_order":         "forecast.ma_order",
	"forecast_annual_inflation": "forecast.annual_inflation",
	"forecast_floor_ratio":      "forecast.floor_ratio",
	"forecast_fit_timeout":      "forecast.fit_timeout",
	"forecast_max_iterations":   "forecast.max_iterations",

	"eventlog_buffer_size":      "eventlog.buffer_size",
	"eventlog_breaker_failures": "eventlog.breaker_failures",
	"eventlog_breaker_timeout":  "eventlog.breaker_timeout",

	"ingest_enabled":        "ingest.enabled",
	"nats_url":              "ingest.url",
	"nats_embedded":         "ingest.embedded_server",
	"nats_store_dir":        "ingest.store_dir",
	"nats_durable_name":     "ingest.durable_name",
	"nats_queue_group":      "ingest.queue_group",
	"ingest_retry_count":    "ingest.retry_count",
	"ingest_retry_interval": "ingest.retry_interval",
	"ingest_close_timeout":  "ingest.close_timeout",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
