// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package models

import "time"

// Experiment buckets. BucketPopularity is used whenever the caller supplies no history.
const (
	BucketPopularity = 0
	BucketSeasonal   = 1
	BucketCategory   = 2
	BucketCoUser     = 3
)

// RecommendationEvent records one served recommendation for later bucket evaluation.
type RecommendationEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	UserID         string    `json:"user_id"`
	RecommendedIDs []int     `json:"recommendations"`
	BucketID       int       `json:"bucket_id"`
}

// ForecastResult is the outcome of one price forecast.
type ForecastResult struct {
	ItemID         int       `json:"item_id"`
	AsOf           time.Time `json:"as_of_date"`
	PredictedPrice float64   `json:"predicted_price"`
	LastObserved   time.Time `json:"last_observed"`
	Steps          int       `json:"steps"`
	DiffOrder      int       `json:"diff_order"`
}
