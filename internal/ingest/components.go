// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/salesight/internal/logging"
)

// SubscriberFactory opens a subscriber for one run of the router.
type SubscriberFactory func(logger watermill.LoggerAdapter) (message.Subscriber, error)

// Components owns the ingest pipeline: the optional embedded server, the
// subscriber and the router. Start and Shutdown may be called repeatedly;
// every Start builds a fresh subscriber and router.
type Components struct {
	routerCfg    RouterConfig
	handlers     *Handlers
	newSub       SubscriberFactory
	wmLogger     watermill.LoggerAdapter
	logger       zerolog.Logger
	startTimeout time.Duration

	mu       sync.Mutex
	embedded *EmbeddedServer
	sub      message.Subscriber
	router   *Router
	cancel   context.CancelFunc
	done     chan error
	running  bool
}

// NewComponents builds the NATS JetStream pipeline. With EmbeddedServer set
// an in-process server is started on the first Start and its URL replaces
// cfg.URL.
func NewComponents(store Writer, natsCfg NATSConfig, routerCfg RouterConfig) (*Components, error) {
	c, err := newComponents(store, routerCfg, nil)
	if err != nil {
		return nil, err
	}
	c.newSub = func(logger watermill.LoggerAdapter) (message.Subscriber, error) {
		cfg := natsCfg
		if natsCfg.EmbeddedServer {
			if c.embedded == nil {
				srv, err := NewEmbeddedServer(natsCfg.StoreDir)
				if err != nil {
					return nil, fmt.Errorf("start embedded server: %w", err)
				}
				c.embedded = srv
			}
			cfg.URL = c.embedded.ClientURL()
		}
		return NewSubscriber(cfg, logger)
	}
	return c, nil
}

// NewComponentsWithSubscriber builds a pipeline over an arbitrary Watermill
// subscriber, such as an in-memory gochannel.
func NewComponentsWithSubscriber(store Writer, routerCfg RouterConfig, newSub SubscriberFactory) (*Components, error) {
	if newSub == nil {
		return nil, fmt.Errorf("subscriber factory required")
	}
	return newComponents(store, routerCfg, newSub)
}

func newComponents(store Writer, routerCfg RouterConfig, newSub SubscriberFactory) (*Components, error) {
	if err := routerCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid router config: %w", err)
	}
	handlers, err := NewHandlers(store, routerCfg)
	if err != nil {
		return nil, err
	}
	return &Components{
		routerCfg:    routerCfg,
		handlers:     handlers,
		newSub:       newSub,
		wmLogger:     watermill.NewSlogLogger(logging.NewSlogLogger()),
		logger:       logging.With().Str("component", "ingest").Logger(),
		startTimeout: 30 * time.Second,
	}, nil
}

// Start opens the subscriber and runs the router in the background. It
// returns once the router is consuming.
func (c *Components) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}

	sub, err := c.newSub(c.wmLogger)
	if err != nil {
		return fmt.Errorf("open subscriber: %w", err)
	}
	router, err := NewRouter(c.routerCfg, c.wmLogger)
	if err != nil {
		_ = sub.Close()
		return err
	}
	router.Register(sub, c.handlers)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- router.Run(runCtx)
	}()

	select {
	case <-router.Running():
	case err := <-done:
		cancel()
		_ = sub.Close()
		if err == nil {
			err = errors.New("router stopped before running")
		}
		return fmt.Errorf("run router: %w", err)
	case <-time.After(c.startTimeout):
		cancel()
		_ = router.Close()
		_ = sub.Close()
		return fmt.Errorf("router not running within %v", c.startTimeout)
	}

	c.handlers.StartCleanup(runCtx, c.routerCfg.DedupTTL/2)

	c.sub, c.router, c.cancel, c.done = sub, router, cancel, done
	c.running = true
	c.logger.Info().Strs("topics", Topics()).Msg("Ingest router started")
	return nil
}

// Shutdown stops the router, closes the subscriber and the embedded server.
func (c *Components) Shutdown(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		if err := c.router.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("Ingest router close failed")
		}
		c.cancel()
		select {
		case err := <-c.done:
			if err != nil {
				c.logger.Warn().Err(err).Msg("Ingest router exited with error")
			}
		case <-ctx.Done():
			c.logger.Warn().Msg("Ingest router shutdown timed out")
		}
		if err := c.sub.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("Ingest subscriber close failed")
		}
		c.running = false
		c.logger.Info().Msg("Ingest router stopped")
	}

	if c.embedded != nil {
		if err := c.embedded.Shutdown(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("Embedded NATS shutdown failed")
		}
		c.embedded = nil
	}
}

// IsRunning reports whether the router is consuming.
func (c *Components) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
