// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

// Package store reads and appends the CSV datasets behind Salesight: the
// sales log, the co-purchase log and the item catalog.
//
// Readers never cache. Every Load call re-reads the file, so callers that
// need a consistent view across several computations load once and pass the
// slice down. DataVersion fingerprints the files for callers that cache
// derived results.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ErrMalformedInput marks a dataset that cannot be parsed. It is fatal for
// the whole load; no row is skipped silently.
var ErrMalformedInput = errors.New("malformed input")

// Column names of the on-disk formats.
const (
	colDate       = "date"
	colItemID     = "item_id"
	colItemPrice  = "item_price"
	colItemCount  = "item_cnt_day"
	colUserID     = "user_id"
	colItemName   = "item_name"
	colCategoryID = "item_category_id"
)

var (
	transactionHeader = []string{colDate, colItemID, colItemPrice, colItemCount, colUserID}
	catalogHeader     = []string{colItemName, colItemID, colCategoryID}
)

// Paths locates the datasets.
type Paths struct {
	Sales       string
	Catalog     string
	CoPurchases string
}

// Store gives access to the CSV datasets. Appends to the same file are serialized.
type Store struct {
	paths Paths

	catalogMu    sync.Mutex
	coPurchaseMu sync.Mutex
}

// New creates a Store over the given files. Files are not opened until used.
func New(paths Paths) *Store {
	return &Store{paths: paths}
}

// Paths returns the configured dataset locations.
func (s *Store) Paths() Paths {
	return s.paths
}

// DataVersion fingerprints the sales, catalog and co-purchase files by size
// and modification time. Any append or rewrite changes the result.
func (s *Store) DataVersion() string {
	return fingerprint(s.paths.Sales, s.paths.Catalog, s.paths.CoPurchases)
}

// Check reports whether the sales log and the catalog exist. The
// co-purchase log is optional.
func (s *Store) Check(_ context.Context) error {
	for _, p := range []string{s.paths.Sales, s.paths.Catalog} {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("dataset unavailable: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("dataset unavailable: %s is a directory", p)
		}
	}
	return nil
}

func fingerprint(paths ...string) string {
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			parts = append(parts, "absent")
			continue
		}
		parts = append(parts, fmt.Sprintf("%d.%d", info.Size(), info.ModTime().UnixNano()))
	}
	return strings.Join(parts, "/")
}

func malformed(path string, line int, format string, args ...any) error {
	return fmt.Errorf("%w: %s line %d: %s", ErrMalformedInput, path, line, fmt.Sprintf(format, args...))
}
