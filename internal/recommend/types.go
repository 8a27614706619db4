// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package recommend

import (
	"context"
	"errors"

	"github.com/tomtom215/salesight/internal/models"
)

// StrategyPopularity names the popularity ranking in Result.Strategy.
const StrategyPopularity = "popularity"

// ErrInvalidTopN is returned when the requested list length is not positive.
var ErrInvalidTopN = errors.New("top_n must be positive")

// Result is the outcome of one recommendation call.
type Result struct {
	// Items are the recommended item ids, best first.
	Items []int `json:"items"`

	// Bucket is the experiment bucket the call was assigned to.
	Bucket int `json:"bucket"`

	// Strategy is the ranking that produced Items: a projection name or
	// StrategyPopularity.
	Strategy string `json:"strategy"`

	// Fallback is true when a similarity bucket produced nothing and the
	// popularity ranking was served instead.
	Fallback bool `json:"fallback"`
}

// DataSource provides the datasets. store.Store implements it.
type DataSource interface {
	LoadTransactions(ctx context.Context) ([]models.TransactionRecord, error)
	LoadCoPurchases(ctx context.Context) ([]models.TransactionRecord, error)

	// CoPurchaseRows counts the data rows of the co-purchase log, including
	// rows LoadCoPurchases drops.
	CoPurchaseRows(ctx context.Context) (int, error)

	LoadCatalog(ctx context.Context) ([]models.CatalogEntry, error)

	// DataVersion changes whenever any dataset changes.
	DataVersion() string
}

// EventSink receives one event per served recommendation.
type EventSink interface {
	Record(ctx context.Context, ev models.RecommendationEvent) error
}
