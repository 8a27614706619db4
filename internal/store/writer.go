// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/tomtom215/salesight/internal/models"
)

// AppendCatalogEntry appends one row to the catalog, writing the header first
// when the file is new or empty.
func (s *Store) AppendCatalogEntry(entry models.CatalogEntry) error {
	row := []string{
		entry.Name,
		strconv.Itoa(entry.ItemID),
		strconv.Itoa(entry.CategoryID),
	}
	return appendRows(&s.catalogMu, s.paths.Catalog, catalogHeader, [][]string{row})
}

// AppendTransaction appends one row to the co-purchase log.
func (s *Store) AppendTransaction(rec models.TransactionRecord) error {
	if rec.UnitPrice <= 0 || rec.Quantity <= 0 {
		return fmt.Errorf("%w: price and quantity must be positive", ErrMalformedInput)
	}
	row := []string{
		rec.Date.Format(models.DateLayout),
		strconv.Itoa(rec.ItemID),
		strconv.FormatFloat(rec.UnitPrice, 'f', -1, 64),
		strconv.Itoa(rec.Quantity),
		rec.UserID,
	}
	return appendRows(&s.coPurchaseMu, s.paths.CoPurchases, transactionHeader, [][]string{row})
}

// AppendCSV appends rows to path under mu, writing header when the file is empty.
// Each call is flushed as one write so concurrent readers never see half a row.
func AppendCSV(mu *sync.Mutex, path string, header []string, rows [][]string) error {
	return appendRows(mu, path, header, rows)
}

func appendRows(mu *sync.Mutex, path string, header []string, rows [][]string) error {
	mu.Lock()
	defer mu.Unlock()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create directory for %s: %w", path, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open %s for append: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close() //nolint:errcheck // error path
		return fmt.Errorf("stat %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 && len(header) > 0 {
		if err := w.Write(header); err != nil {
			f.Close() //nolint:errcheck // error path
			return fmt.Errorf("write header to %s: %w", path, err)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close() //nolint:errcheck // error path
		return fmt.Errorf("append to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
