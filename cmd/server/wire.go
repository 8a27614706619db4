// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package main

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/tomtom215/salesight/internal/api"
	"github.com/tomtom215/salesight/internal/config"
	"github.com/tomtom215/salesight/internal/forecast"
	"github.com/tomtom215/salesight/internal/ingest"
	"github.com/tomtom215/salesight/internal/logging"
	"github.com/tomtom215/salesight/internal/recommend"
	"github.com/tomtom215/salesight/internal/recommend/eventlog"
	"github.com/tomtom215/salesight/internal/store"
	"github.com/tomtom215/salesight/internal/supervisor"
	"github.com/tomtom215/salesight/internal/supervisor/services"
)

// app holds the constructed components before they are handed to the tree.
type app struct {
	store    *store.Store
	sink     *eventlog.Sink
	engine   *recommend.Engine
	server   *http.Server
	ingest   *ingest.Components
	shutdown config.ServerConfig

	// purgeSchedule is the cron spec for similarity cache purges.
	purgeSchedule string
}

// buildApp constructs every component from cfg without starting any of them.
func buildApp(cfg *config.Config) (*app, error) {
	st := store.New(store.Paths{
		Sales:       cfg.Data.Sales,
		Catalog:     cfg.Data.Catalog,
		CoPurchases: cfg.Data.CoPurchases,
	})

	sinkCfg := eventlog.DefaultConfig()
	sinkCfg.BufferSize = cfg.EventLog.BufferSize
	sinkCfg.BreakerFailures = cfg.EventLog.BreakerFailures
	sinkCfg.BreakerTimeout = cfg.EventLog.BreakerTimeout
	sink, err := eventlog.NewSink(eventlog.NewCSVStore(cfg.Data.Events), sinkCfg)
	if err != nil {
		return nil, fmt.Errorf("event sink: %w", err)
	}

	engine, err := recommend.NewEngine(st, recommend.Config{
		TopN:                cfg.Recommend.TopN,
		PopularityThreshold: float64(cfg.Recommend.PopularityThreshold),
		CoUserMinRows:       cfg.Recommend.CoUserMinRows,
		BuildTimeout:        cfg.Recommend.BuildTimeout,
		CacheSize:           cfg.Recommend.CacheSize,
		CacheTTL:            cfg.Recommend.CacheTTL,
		Seed:                cfg.Recommend.Seed,
	}, recommend.WithEventSink(sink))
	if err != nil {
		return nil, fmt.Errorf("recommendation engine: %w", err)
	}

	forecaster, err := forecast.NewForecaster(st, forecast.Config{
		Alpha:           cfg.Forecast.Alpha,
		MaxDiffOrder:    cfg.Forecast.MaxDiffOrder,
		AROrder:         cfg.Forecast.AROrder,
		MAOrder:         cfg.Forecast.MAOrder,
		AnnualInflation: cfg.Forecast.AnnualInflation,
		FloorRatio:      cfg.Forecast.FloorRatio,
		FitTimeout:      cfg.Forecast.FitTimeout,
		MaxIterations:   cfg.Forecast.MaxIterations,
	})
	if err != nil {
		return nil, fmt.Errorf("forecaster: %w", err)
	}

	handler := api.NewHandler(engine, forecaster, api.HealthCheck{Name: "datasets", Check: st.Check})
	mw := api.NewChiMiddlewareFromSecurity(
		cfg.Security.CORSOrigins,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
	)
	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           api.NewRouter(handler, mw).Setup(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	a := &app{
		store:    st,
		sink:     sink,
		engine:   engine,
		server:   server,
		shutdown: cfg.Server,

		purgeSchedule: cfg.Recommend.CachePurgeSchedule,
	}
	if a.purgeSchedule == "" {
		a.purgeSchedule = services.EverySchedule(cfg.Recommend.CacheTTL / 2)
	}

	if cfg.Ingest.Enabled {
		a.ingest, err = buildIngest(st, &cfg.Ingest)
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

func buildIngest(st *store.Store, cfg *config.IngestConfig) (*ingest.Components, error) {
	natsCfg := ingest.DefaultNATSConfig(cfg.URL)
	natsCfg.EmbeddedServer = cfg.EmbeddedServer
	natsCfg.StoreDir = cfg.StoreDir
	if cfg.DurableName != "" {
		natsCfg.DurableName = cfg.DurableName
	}
	if cfg.QueueGroup != "" {
		natsCfg.QueueGroup = cfg.QueueGroup
	}

	routerCfg := ingest.DefaultRouterConfig()
	routerCfg.RetryMaxRetries = cfg.RetryCount
	if cfg.RetryInterval > 0 {
		routerCfg.RetryInitialInterval = cfg.RetryInterval
	}
	if cfg.CloseTimeout > 0 {
		routerCfg.CloseTimeout = cfg.CloseTimeout
		natsCfg.CloseTimeout = cfg.CloseTimeout
	}

	components, err := ingest.NewComponents(st, natsCfg, routerCfg)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	return components, nil
}

// register adds the components to their supervisor layers.
func (a *app) register(tree *supervisor.SupervisorTree) error {
	maintenance, err := services.NewCacheMaintenanceService(a.engine, a.purgeSchedule, logging.Logger())
	if err != nil {
		return err
	}
	tree.AddDataService(a.sink)
	tree.AddDataService(maintenance)

	if a.ingest != nil {
		tree.AddMessagingService(services.NewIngestService(a.ingest, a.shutdown.ShutdownTimeout))
		logging.Info().Strs("topics", ingest.Topics()).Msg("Ingest added to supervisor tree")
	} else {
		logging.Info().Msg("Ingest disabled")
	}

	tree.AddAPIService(services.NewHTTPServerService(a.server, a.shutdown.ShutdownTimeout))
	logging.Info().Str("addr", a.server.Addr).Msg("HTTP server service added")
	return nil
}
