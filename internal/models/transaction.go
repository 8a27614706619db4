// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

// Package models holds the value types shared by the store, the recommender,
// the forecaster and the HTTP layer.
package models

import "time"

// DateLayout is the on-disk date format of the transaction logs (dd.mm.yyyy).
const DateLayout = "02.01.2006"

// TransactionRecord is one sales log row. UnitPrice and Quantity are always
// positive once loaded; rows violating that are dropped by the store.
type TransactionRecord struct {
	ItemID    int       `json:"item_id"`
	Date      time.Time `json:"date"`
	UnitPrice float64   `json:"item_price"`
	Quantity  int       `json:"item_cnt_day"`
	UserID    string    `json:"user_id,omitempty"` // empty in the sales log, set in the co-purchase log
}

// Month returns the calendar month the record belongs to (1-12).
func (r TransactionRecord) Month() int {
	return int(r.Date.Month())
}

// CatalogEntry maps an item to its category.
type CatalogEntry struct {
	ItemID     int    `json:"item_id"`
	CategoryID int    `json:"item_category_id"`
	Name       string `json:"name"`
}
