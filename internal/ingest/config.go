// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package ingest

import (
	"errors"
	"fmt"
	"time"
)

// Topics consumed by the ingest router.
const (
	TopicCreateItem     = "create_item_queue"
	TopicCreateCategory = "create_category_queue"
	TopicCreateOrder    = "create_order_queue"
)

// Topics returns every consumed topic.
func Topics() []string {
	return []string{TopicCreateItem, TopicCreateCategory, TopicCreateOrder}
}

// ErrNATSNotAvailable is returned by the NATS constructors in builds without
// the nats tag.
var ErrNATSNotAvailable = errors.New("NATS transport not available: build with -tags=nats")

// RouterConfig holds configuration for the ingest router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	// Retry configuration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// Deduplication of redelivered messages by UUID
	DedupCapacity int
	DedupTTL      time.Duration
}

// DefaultRouterConfig returns production defaults for the router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     30 * time.Second,
		RetryMultiplier:      2.0,
		DedupCapacity:        10000,
		DedupTTL:             10 * time.Minute,
	}
}

// Validate checks the configuration for invalid values.
func (c *RouterConfig) Validate() error {
	if c.CloseTimeout <= 0 {
		return fmt.Errorf("close timeout must be positive, got %v", c.CloseTimeout)
	}
	if c.RetryMaxRetries < 0 {
		return fmt.Errorf("retry count must be non-negative, got %d", c.RetryMaxRetries)
	}
	if c.RetryMaxRetries > 0 && c.RetryInitialInterval <= 0 {
		return fmt.Errorf("retry interval must be positive, got %v", c.RetryInitialInterval)
	}
	if c.DedupCapacity <= 0 {
		return fmt.Errorf("dedup capacity must be positive, got %d", c.DedupCapacity)
	}
	return nil
}

// NATSConfig holds the JetStream subscriber and embedded server settings.
type NATSConfig struct {
	URL            string
	EmbeddedServer bool
	StoreDir       string
	DurableName    string
	QueueGroup     string

	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration
}

// DefaultNATSConfig returns production defaults for the subscriber.
func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{
		URL:              url,
		DurableName:      "salesight-ingest",
		QueueGroup:       "ingest",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		MaxDeliver:       5,
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
	}
}
