// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package services

import (
	"context"
	"fmt"
	"time"
)

// IngestRunner is the lifecycle of *ingest.Components.
type IngestRunner interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	IsRunning() bool
}

// IngestService supervises the ingest pipeline. A failed Start is returned
// so suture retries it with backoff, which covers a broker that is not yet
// reachable.
type IngestService struct {
	components      IngestRunner
	shutdownTimeout time.Duration
}

// NewIngestService wraps components. A non-positive shutdownTimeout means 10s.
func NewIngestService(components IngestRunner, shutdownTimeout time.Duration) *IngestService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &IngestService{
		components:      components,
		shutdownTimeout: shutdownTimeout,
	}
}

// Serve implements suture.Service.
func (s *IngestService) Serve(ctx context.Context) error {
	if err := s.components.Start(ctx); err != nil {
		return fmt.Errorf("ingest start failed: %w", err)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.components.Shutdown(shutdownCtx)

	return ctx.Err()
}

// String names the service in supervisor logs.
func (s *IngestService) String() string {
	return "ingest"
}
