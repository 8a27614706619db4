// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// maxBodyBytes limits request bodies.
const maxBodyBytes = 1 << 20

// AsOfLayout is the date format of the as_of query parameter.
const AsOfLayout = "2006-01-02"

// maxHorizonYears bounds how far past today as_of may lie.
const maxHorizonYears = 10

// minAsOf is the earliest accepted as_of date.
var minAsOf = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	errMissingItemID = errors.New("item_id is required")
	errInvalidItemID = errors.New("item_id must be a non-negative integer")
	errInvalidAsOf   = errors.New("as_of must be a date in YYYY-MM-DD format")
	errAsOfRange     = fmt.Errorf("as_of must be between %s and %d years from today", minAsOf.Format(AsOfLayout), maxHorizonYears)
)

// RecommendationRequest is the body of POST /model/recommendation/.
type RecommendationRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`

	// History is the user's purchase history, most relevant first. Empty
	// history is served from the popularity ranking.
	History []int `json:"history" validate:"omitempty,max=1000,dive,gte=0"`

	// TopN overrides the configured list length.
	TopN int `json:"top_n" validate:"omitempty,gte=1,lte=100"`
}

// RecommendationResponse is the body returned by POST /model/recommendation/.
type RecommendationResponse struct {
	RecommendedProducts []string `json:"recommended_products"`
	BucketID            int      `json:"bucket_id"`
	Fallback            bool     `json:"fallback"`
}

// PredictResponse is the body returned by GET /model/predict.
type PredictResponse struct {
	ItemID         int     `json:"item_id"`
	PredictedPrice float64 `json:"predicted_price"`
	AsOf           string  `json:"as_of_date"`
}

// decodeJSONBody decodes a size-limited JSON body into v.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// parsePredictParams reads item_id and the optional as_of date. as_of
// defaults to the calendar day of now in UTC and may not lie before 1900 or
// more than maxHorizonYears after today.
func parsePredictParams(r *http.Request, now time.Time) (int, time.Time, error) {
	q := r.URL.Query()

	raw := strings.TrimSpace(q.Get("item_id"))
	if raw == "" {
		return 0, time.Time{}, errMissingItemID
	}
	itemID, err := strconv.Atoi(raw)
	if err != nil || itemID < 0 {
		return 0, time.Time{}, errInvalidItemID
	}

	now = now.UTC()
	asOf := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if rawAsOf := strings.TrimSpace(q.Get("as_of")); rawAsOf != "" {
		today := asOf
		asOf, err = time.Parse(AsOfLayout, rawAsOf)
		if err != nil {
			return 0, time.Time{}, errInvalidAsOf
		}
		if asOf.Before(minAsOf) || asOf.After(today.AddDate(maxHorizonYears, 0, 0)) {
			return 0, time.Time{}, errAsOfRange
		}
	}
	return itemID, asOf, nil
}
