// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package api

import (
	"context"
	"time"

	"github.com/tomtom215/salesight/internal/models"
	"github.com/tomtom215/salesight/internal/recommend"
)

// Recommender produces recommendations. recommend.Engine implements it.
type Recommender interface {
	Recommend(ctx context.Context, userID string, history []int, topN int) (*recommend.Result, error)
	DefaultTopN() int
}

// Forecaster predicts prices. forecast.Forecaster implements it.
type Forecaster interface {
	Forecast(ctx context.Context, itemID int, asOf time.Time) (*models.ForecastResult, error)
}

// HealthCheck is one readiness dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// readinessTimeout bounds all readiness checks of one probe.
const readinessTimeout = 2 * time.Second

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_model.go: ping, recommendation and price prediction
//   - handlers_health.go: liveness and readiness probes
type Handler struct {
	recommender Recommender
	forecaster  Forecaster
	checks      []HealthCheck
	startTime   time.Time
	now         func() time.Time
}

// NewHandler creates a new API handler. checks are run by the readiness probe
// in order.
//
// Example:
//
//	handler := api.NewHandler(engine, forecaster, api.HealthCheck{Name: "sales", Check: salesReadable})
//	router := api.NewRouter(handler, api.NewChiMiddleware(nil))
//	http.ListenAndServe(":8001", router.Setup())
func NewHandler(rec Recommender, fc Forecaster, checks ...HealthCheck) *Handler {
	return &Handler{
		recommender: rec,
		forecaster:  fc,
		checks:      checks,
		startTime:   time.Now(),
		now:         time.Now,
	}
}
