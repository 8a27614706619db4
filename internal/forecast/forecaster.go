// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

// Package forecast predicts item prices from the sales log.
//
// A forecast takes the daily median price of the item, places it on a daily
// grid, finds the differencing order that makes it stationary, fits an
// ARIMA(1,d,7) model and projects it to the requested date. The projection
// is floored at half the lowest observed price and adjusted for inflation.
// Every forecast is refitted from scratch and involves no randomness.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/salesight/internal/logging"
	"github.com/tomtom215/salesight/internal/metrics"
	"github.com/tomtom215/salesight/internal/models"
)

var (
	// ErrNotFound means the item has no sales history.
	ErrNotFound = errors.New("no price history for item")

	// ErrForecastUnavailable means the item has history but no forecast can
	// be produced from it. It wraps ErrInsufficientData or ErrModelFit.
	ErrForecastUnavailable = errors.New("forecast unavailable")

	// ErrInsufficientData means a series is too short to test or model.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrModelFit means the model could not be fitted.
	ErrModelFit = errors.New("model fit failed")
)

// DataSource provides the sales log.
type DataSource interface {
	LoadTransactions(ctx context.Context) ([]models.TransactionRecord, error)
}

// Config holds the forecasting parameters.
type Config struct {
	// Alpha is the ADF p-value at or below which a series is stationary.
	Alpha float64

	// MaxDiffOrder bounds the number of differencing passes.
	MaxDiffOrder int

	AROrder int
	MAOrder int

	// AnnualInflation is compounded daily over the forecast horizon.
	AnnualInflation float64

	// FloorRatio times the lowest observed price is the forecast floor.
	FloorRatio float64

	// FitTimeout bounds one model fit. Zero disables the bound.
	FitTimeout time.Duration

	// MaxIterations bounds the optimizer.
	MaxIterations int
}

// DefaultConfig returns the forecasting defaults.
func DefaultConfig() Config {
	return Config{
		Alpha:           0.05,
		MaxDiffOrder:    DefaultMaxDiffOrder,
		AROrder:         1,
		MAOrder:         7,
		AnnualInflation: 0.04,
		FloorRatio:      0.5,
		FitTimeout:      30 * time.Second,
		MaxIterations:   2000,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf("alpha must be in (0, 1), got %v", c.Alpha)
	}
	if c.MaxDiffOrder <= 0 {
		return fmt.Errorf("max_diff_order must be positive, got %d", c.MaxDiffOrder)
	}
	if c.AROrder < 0 || c.MAOrder < 0 {
		return fmt.Errorf("ar and ma orders must be non-negative, got %d and %d", c.AROrder, c.MAOrder)
	}
	if c.AnnualInflation <= -1 {
		return fmt.Errorf("annual_inflation must be greater than -1, got %v", c.AnnualInflation)
	}
	if c.FloorRatio < 0 {
		return fmt.Errorf("floor_ratio must be non-negative, got %v", c.FloorRatio)
	}
	if c.FitTimeout < 0 {
		return fmt.Errorf("fit_timeout must be non-negative, got %v", c.FitTimeout)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	return nil
}

// Forecaster predicts item prices. It is safe for concurrent use.
type Forecaster struct {
	cfg    Config
	data   DataSource
	logger zerolog.Logger
}

// NewForecaster creates a forecaster reading from data.
func NewForecaster(data DataSource, cfg Config) (*Forecaster, error) {
	if data == nil {
		return nil, fmt.Errorf("data source required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Forecaster{
		cfg:    cfg,
		data:   data,
		logger: logging.With().Str("component", "forecast").Logger(),
	}, nil
}

// Forecast predicts the price of itemID on asOf.
func (f *Forecaster) Forecast(ctx context.Context, itemID int, asOf time.Time) (*models.ForecastResult, error) {
	start := time.Now()
	res, err := f.forecast(ctx, itemID, asOf)
	metrics.RecordForecast(outcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	metrics.ForecastDiffOrder.Observe(float64(res.DiffOrder))
	return res, nil
}

func (f *Forecaster) forecast(ctx context.Context, itemID int, asOf time.Time) (*models.ForecastResult, error) {
	records, err := f.data.LoadTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	daily, maxDate := DailyMedians(records, itemID)
	if len(daily) == 0 {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, itemID)
	}
	floor := f.cfg.FloorRatio * daily.MinPrice()

	series := Resample(Anchor(daily, maxDate))
	last := series.Last()
	asOf = dateOf(asOf)
	result := &models.ForecastResult{
		ItemID:       itemID,
		AsOf:         asOf,
		LastObserved: last.Date,
	}

	steps := daysBetween(last.Date, asOf)
	if steps <= 0 {
		result.PredictedPrice = round2(last.Price)
		return result, nil
	}
	result.Steps = steps

	values := series.Values()
	_, d := DifferenceUntilStationary(values, f.cfg.Alpha, f.cfg.MaxDiffOrder)
	result.DiffOrder = d

	fitCtx := ctx
	if f.cfg.FitTimeout > 0 {
		var cancel context.CancelFunc
		fitCtx, cancel = context.WithTimeout(ctx, f.cfg.FitTimeout)
		defer cancel()
	}

	order := Order{P: f.cfg.AROrder, D: d, Q: f.cfg.MAOrder}
	model, err := FitARIMA(fitCtx, values, order, f.cfg.MaxIterations)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: item %d: %w", ErrForecastUnavailable, itemID, err)
	}

	path := model.Forecast(steps)
	price := f.adjust(path[len(path)-1], floor, steps-1)
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, fmt.Errorf("%w: item %d: %w: non-finite forecast", ErrForecastUnavailable, itemID, ErrModelFit)
	}
	result.PredictedPrice = round2(price)

	f.logger.Debug().
		Int("item_id", itemID).
		Int("points", len(values)).
		Int("diff_order", d).
		Int("steps", steps).
		Float64("price", result.PredictedPrice).
		Msg("forecast complete")
	return result, nil
}

// adjust floors a forecast point and compounds daily inflation for step i,
// counted from zero.
func (f *Forecaster) adjust(v, floor float64, i int) float64 {
	if v < floor {
		v = floor
	}
	return v * math.Pow(1+f.cfg.AnnualInflation/365, float64(i))
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForecastUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
