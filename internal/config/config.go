// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

// Package config loads Salesight configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Data      DataConfig      `koanf:"data"`
	Recommend RecommendConfig `koanf:"recommend"`
	Forecast  ForecastConfig  `koanf:"forecast"`
	EventLog  EventLogConfig  `koanf:"eventlog"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DataConfig points at the CSV datasets the service reads and appends to.
type DataConfig struct {
	// Sales is the transaction log used for popularity, seasonality and forecasts.
	Sales string `koanf:"sales"`

	// Catalog maps item ids to categories and names.
	Catalog string `koanf:"catalog"`

	// CoPurchases is the transaction log with user ids, used for co-user similarity.
	CoPurchases string `koanf:"co_purchases"`

	// Events is the append-only recommendation event log.
	Events string `koanf:"events"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	TopN                int           `koanf:"top_n"`
	PopularityThreshold int           `koanf:"popularity_threshold"`
	CoUserMinRows       int           `koanf:"couser_min_rows"`
	BuildTimeout        time.Duration `koanf:"build_timeout"`
	CacheSize           int           `koanf:"cache_size"`
	CacheTTL            time.Duration `koanf:"cache_ttl"`

	// CachePurgeSchedule is a cron spec for purging expired matrices.
	// Empty means every half CacheTTL.
	CachePurgeSchedule string `koanf:"cache_purge_schedule"`

	// Seed fixes the bucket assignment sequence. Zero seeds from the clock.
	Seed int64 `koanf:"seed"`
}

// ForecastConfig holds price forecaster settings.
type ForecastConfig struct {
	Alpha           float64       `koanf:"alpha"`
	MaxDiffOrder    int           `koanf:"max_diff_order"`
	AROrder         int           `koanf:"ar_order"`
	MAOrder         int           `koanf:"ma_order"`
	AnnualInflation float64       `koanf:"annual_inflation"`
	FloorRatio      float64       `koanf:"floor_ratio"`
	FitTimeout      time.Duration `koanf:"fit_timeout"`
	MaxIterations   int           `koanf:"max_iterations"`
}

// EventLogConfig controls the recommendation event writer.
type EventLogConfig struct {
	BufferSize int `koanf:"buffer_size"`

	// BreakerFailures consecutive write failures open the circuit.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// IngestConfig controls the catalog/order event consumer.
type IngestConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	DurableName    string        `koanf:"durable_name"`
	QueueGroup     string        `koanf:"queue_group"`
	RetryCount     int           `koanf:"retry_count"`
	RetryInterval  time.Duration `koanf:"retry_interval"`
	CloseTimeout   time.Duration `koanf:"close_timeout"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
