// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

//go:build !nats

package ingest

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// NewSubscriber returns ErrNATSNotAvailable. Build with -tags=nats to enable
// JetStream consumption.
func NewSubscriber(_ NATSConfig, _ watermill.LoggerAdapter) (message.Subscriber, error) {
	return nil, ErrNATSNotAvailable
}

// EmbeddedServer is a stub when NATS dependencies are not available.
type EmbeddedServer struct{}

// NewEmbeddedServer returns ErrNATSNotAvailable.
func NewEmbeddedServer(_ string) (*EmbeddedServer, error) {
	return nil, ErrNATSNotAvailable
}

// ClientURL returns an empty string for the stub.
func (s *EmbeddedServer) ClientURL() string {
	return ""
}

// Shutdown is a no-op stub.
func (s *EmbeddedServer) Shutdown(_ context.Context) error {
	return nil
}
