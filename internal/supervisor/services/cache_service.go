// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CachePurger drops expired cache entries. *recommend.Engine implements it.
type CachePurger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// EverySchedule returns a cron descriptor running every interval, or every
// minute for a non-positive interval. cron rounds intervals below one second
// up to one second.
func EverySchedule(interval time.Duration) string {
	if interval <= 0 {
		interval = time.Minute
	}
	return "@every " + interval.String()
}

// CacheMaintenanceService purges expired similarity matrices on a cron
// schedule so memory is released without waiting for eviction.
type CacheMaintenanceService struct {
	purger   CachePurger
	schedule cron.Schedule
	spec     string
	logger   zerolog.Logger
}

// NewCacheMaintenanceService parses spec (standard five-field cron or a
// descriptor such as "@every 5m") and creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCacheMaintenanceService(purger CachePurger, spec string, logger zerolog.Logger) (*CacheMaintenanceService, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cache purge schedule %q: %w", spec, err)
	}
	return &CacheMaintenanceService{
		purger:   purger,
		schedule: schedule,
		spec:     spec,
		logger:   logger.With().Str("service", "cache-maintenance").Logger(),
	}, nil
}

// Serve implements suture.Service. Purge errors are logged and the schedule
// continues. A purge in progress at shutdown is waited for.
func (s *CacheMaintenanceService) Serve(ctx context.Context) error {
	c := cron.New()
	c.Schedule(s.schedule, cron.FuncJob(func() { s.purge(ctx) }))
	c.Start()
	s.logger.Debug().Str("schedule", s.spec).Msg("cache maintenance scheduled")

	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

func (s *CacheMaintenanceService) purge(ctx context.Context) {
	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache purge failed")
		return
	}
	if n > 0 {
		s.logger.Debug().Int("purged", n).Msg("expired similarity matrices purged")
	}
}

// String names the service in supervisor logs.
func (s *CacheMaintenanceService) String() string {
	return "cache-maintenance"
}
