// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package eventlog

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/salesight/internal/models"
	"github.com/tomtom215/salesight/internal/store"
)

// TimestampLayout is the timestamp format of the event log.
const TimestampLayout = "2006-01-02 15:04:05"

var csvHeader = []string{"timestamp", "user_id", "recommendations", "bucket_id"}

// CSVStore appends events to a CSV file with columns
// timestamp, user_id, recommendations (JSON list), bucket_id.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

// NewCSVStore creates a store appending to path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// WriteEvents appends all events in one write.
func (c *CSVStore) WriteEvents(ctx context.Context, events []models.RecommendationEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := make([][]string, 0, len(events))
	for i := range events {
		row, err := encodeEvent(&events[i])
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return store.AppendCSV(&c.mu, c.path, csvHeader, rows)
}

func encodeEvent(ev *models.RecommendationEvent) ([]string, error) {
	ids := ev.RecommendedIDs
	if ids == nil {
		ids = []int{}
	}
	list, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("encode recommendations: %w", err)
	}
	return []string{
		ev.Timestamp.Format(TimestampLayout),
		ev.UserID,
		string(list),
		strconv.Itoa(ev.BucketID),
	}, nil
}
