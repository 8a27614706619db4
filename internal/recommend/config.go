// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package recommend

import (
	"fmt"
	"time"
)

// Config contains the engine settings.
type Config struct {
	// TopN is the list length used when a caller does not ask for one.
	TopN int

	// PopularityThreshold is the aggregate quantity an item must exceed to
	// enter a similarity matrix without being in the caller's history.
	PopularityThreshold float64

	// CoUserMinRows is the co-purchase log size from which bucket 3 becomes
	// eligible.
	CoUserMinRows int

	// BuildTimeout bounds one similarity build. Zero disables the bound.
	BuildTimeout time.Duration

	// CacheSize is the number of similarity matrices kept. Zero disables caching.
	CacheSize int

	// CacheTTL is how long a cached matrix stays usable.
	CacheTTL time.Duration

	// Seed fixes the bucket draw sequence. Zero seeds from the clock.
	Seed int64
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		TopN:                10,
		PopularityThreshold: 50,
		CoUserMinRows:       10,
		BuildTimeout:        20 * time.Second,
		CacheSize:           8,
		CacheTTL:            5 * time.Minute,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.TopN <= 0 {
		return fmt.Errorf("top_n must be positive, got %d", c.TopN)
	}
	if c.PopularityThreshold < 0 {
		return fmt.Errorf("popularity_threshold must be non-negative, got %v", c.PopularityThreshold)
	}
	if c.CoUserMinRows < 0 {
		return fmt.Errorf("couser_min_rows must be non-negative, got %d", c.CoUserMinRows)
	}
	if c.BuildTimeout < 0 {
		return fmt.Errorf("build_timeout must be non-negative, got %v", c.BuildTimeout)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", c.CacheSize)
	}
	if c.CacheSize > 0 && c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive when caching is enabled, got %v", c.CacheTTL)
	}
	return nil
}
