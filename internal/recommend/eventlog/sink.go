// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

// Package eventlog persists recommendation events through a single writer.
//
// Recommendation calls hand events to Sink.Record, which only enqueues. One
// goroutine (Sink.Serve, run under the supervisor) drains the queue and
// appends batches to the event store, so concurrent calls never interleave
// rows. Write failures trip a circuit breaker and are logged and counted;
// they never reach the recommendation caller.
package eventlog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/salesight/internal/logging"
	"github.com/tomtom215/salesight/internal/metrics"
	"github.com/tomtom215/salesight/internal/models"
)

// ErrQueueFull is returned by Record when the writer cannot keep up.
var ErrQueueFull = errors.New("event log queue full")

// EventStore persists a batch of events atomically with respect to other batches.
// Implementations must not retain the slice.
type EventStore interface {
	WriteEvents(ctx context.Context, events []models.RecommendationEvent) error
}

// Config controls the sink.
type Config struct {
	// BufferSize is the queue capacity.
	BufferSize int

	// BatchSize caps how many queued events are written together.
	BatchSize int

	// BreakerFailures consecutive failed writes open the breaker.
	BreakerFailures uint32

	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration
}

// DefaultConfig returns sink defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:      1024,
		BatchSize:       64,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// Stats is a snapshot of sink counters.
type Stats struct {
	Received int64
	Written  int64
	Dropped  int64
	Failed   int64
	Queued   int
}

// Sink serializes event writes through one goroutine.
type Sink struct {
	store   EventStore
	cfg     Config
	events  chan models.RecommendationEvent
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  zerolog.Logger

	received atomic.Int64
	written  atomic.Int64
	dropped  atomic.Int64
	failed   atomic.Int64
}

// NewSink creates a sink writing to store.
func NewSink(store EventStore, cfg Config) (*Sink, error) {
	if store == nil {
		return nil, fmt.Errorf("event store required")
	}
	defaults := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaults.BufferSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaults.BreakerFailures
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = defaults.BreakerTimeout
	}

	s := &Sink{
		store:  store,
		cfg:    cfg,
		events: make(chan models.RecommendationEvent, cfg.BufferSize),
		logger: logging.With().Str("component", "eventlog").Logger(),
	}
	s.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "eventlog",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("event log circuit breaker state changed")
		},
	})
	return s, nil
}

// Record enqueues ev without blocking.
func (s *Sink) Record(_ context.Context, ev models.RecommendationEvent) error {
	s.received.Add(1)
	select {
	case s.events <- ev:
		metrics.EventLogQueueDepth.Set(float64(len(s.events)))
		return nil
	default:
		s.dropped.Add(1)
		metrics.RecordEventLogFailure("queue_full", 1)
		return ErrQueueFull
	}
}

// Serve is the single writer loop. It returns after draining the queue once
// ctx is cancelled.
func (s *Sink) Serve(ctx context.Context) error {
	s.logger.Info().Int("buffer_size", s.cfg.BufferSize).Msg("event log writer started")
	batch := make([]models.RecommendationEvent, 0, s.cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			s.drain(batch[:0])
			s.logger.Info().Int64("written", s.written.Load()).Msg("event log writer stopped")
			return ctx.Err()
		case ev := <-s.events:
			batch = append(batch[:0], ev)
			batch = s.fill(batch)
			s.flush(ctx, batch)
		}
	}
}

// fill appends queued events to batch without blocking, up to BatchSize.
func (s *Sink) fill(batch []models.RecommendationEvent) []models.RecommendationEvent {
	for len(batch) < s.cfg.BatchSize {
		select {
		case ev := <-s.events:
			batch = append(batch, ev)
		default:
			return batch
		}
	}
	return batch
}

// drain writes whatever is still queued during shutdown.
func (s *Sink) drain(batch []models.RecommendationEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		batch = s.fill(batch[:0])
		if len(batch) == 0 {
			return
		}
		s.flush(ctx, batch)
	}
}

func (s *Sink) flush(ctx context.Context, batch []models.RecommendationEvent) {
	metrics.EventLogQueueDepth.Set(float64(len(s.events)))

	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.store.WriteEvents(ctx, batch)
	})
	if err != nil {
		reason := "write"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			reason = "breaker_open"
		}
		s.failed.Add(int64(len(batch)))
		metrics.RecordEventLogFailure(reason, len(batch))
		s.logger.Error().Err(err).Int("events", len(batch)).Str("reason", reason).
			Msg("failed to persist recommendation events")
		return
	}
	s.written.Add(int64(len(batch)))
	metrics.RecordEventLogWrite(len(batch))
}

// Stats returns a snapshot of the sink counters.
func (s *Sink) Stats() Stats {
	return Stats{
		Received: s.received.Load(),
		Written:  s.written.Load(),
		Dropped:  s.dropped.Load(),
		Failed:   s.failed.Load(),
		Queued:   len(s.events),
	}
}

// String names the service for the supervisor.
func (s *Sink) String() string {
	return "eventlog-writer"
}
