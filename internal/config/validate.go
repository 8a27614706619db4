// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/salesight/internal/logging"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateData(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateForecast(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if c.EventLog.BufferSize <= 0 {
		return fmt.Errorf("EVENTLOG_BUFFER_SIZE must be positive, got %d", c.EventLog.BufferSize)
	}
	if !c.Security.RateLimitDisabled && (c.Security.RateLimitReqs <= 0 || c.Security.RateLimitWindow <= 0) {
		return fmt.Errorf("rate limit requires positive RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW")
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateData() error {
	paths := map[string]string{
		"SALES_CSV":        c.Data.Sales,
		"CATALOG_CSV":      c.Data.Catalog,
		"CO_PURCHASES_CSV": c.Data.CoPurchases,
		"EVENTS_CSV":       c.Data.Events,
	}
	for name, p := range paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.TopN <= 0 {
		return fmt.Errorf("RECOMMEND_TOP_N must be positive, got %d", r.TopN)
	}
	if r.PopularityThreshold < 0 {
		return fmt.Errorf("RECOMMEND_POPULARITY_THRESHOLD must not be negative, got %d", r.PopularityThreshold)
	}
	if r.CoUserMinRows < 0 {
		return fmt.Errorf("RECOMMEND_COUSER_MIN_ROWS must not be negative, got %d", r.CoUserMinRows)
	}
	if r.BuildTimeout <= 0 {
		return fmt.Errorf("RECOMMEND_BUILD_TIMEOUT must be positive")
	}
	if r.CacheSize < 0 {
		return fmt.Errorf("RECOMMEND_CACHE_SIZE must not be negative, got %d", r.CacheSize)
	}
	return nil
}

func (c *Config) validateForecast() error {
	f := c.Forecast
	if f.Alpha <= 0 || f.Alpha >= 1 {
		return fmt.Errorf("FORECAST_ALPHA must be in (0, 1), got %g", f.Alpha)
	}
	if f.MaxDiffOrder < 0 {
		return fmt.Errorf("FORECAST_MAX_DIFF_ORDER must not be negative, got %d", f.MaxDiffOrder)
	}
	if f.AROrder < 0 || f.MAOrder < 0 {
		return fmt.Errorf("FORECAST_AR_ORDER and FORECAST_MA_ORDER must not be negative")
	}
	if f.AnnualInflation <= -1 {
		return fmt.Errorf("FORECAST_ANNUAL_INFLATION must be greater than -1, got %g", f.AnnualInflation)
	}
	if f.FloorRatio < 0 {
		return fmt.Errorf("FORECAST_FLOOR_RATIO must not be negative, got %g", f.FloorRatio)
	}
	if f.FitTimeout <= 0 {
		return fmt.Errorf("FORECAST_FIT_TIMEOUT must be positive")
	}
	if f.MaxIterations <= 0 {
		return fmt.Errorf("FORECAST_MAX_ITERATIONS must be positive, got %d", f.MaxIterations)
	}
	return nil
}

func (c *Config) validateIngest() error {
	if !c.Ingest.Enabled {
		return nil
	}
	u, err := url.Parse(c.Ingest.URL)
	if err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if u.Scheme != "nats" && u.Scheme != "tls" {
		return fmt.Errorf("NATS_URL must use nats:// or tls://, got %q", c.Ingest.URL)
	}
	if c.Ingest.DurableName == "" {
		return fmt.Errorf("NATS_DURABLE_NAME is required when INGEST_ENABLED=true")
	}
	if c.Ingest.RetryCount < 0 {
		return fmt.Errorf("INGEST_RETRY_COUNT must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
