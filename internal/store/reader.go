// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/salesight/internal/models"
)

// ctxCheckInterval is how many rows are parsed between cancellation checks.
const ctxCheckInterval = 4096

// LoadTransactions reads the sales log. Rows with a non-positive price or
// quantity are dropped.
func (s *Store) LoadTransactions(ctx context.Context) ([]models.TransactionRecord, error) {
	return readTransactions(ctx, s.paths.Sales, false)
}

// LoadCoPurchases reads the co-purchase log, the transaction log that carries
// user ids. A missing file is an empty log.
func (s *Store) LoadCoPurchases(ctx context.Context) ([]models.TransactionRecord, error) {
	records, err := readTransactions(ctx, s.paths.CoPurchases, true)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return records, err
}

// CoPurchaseRows counts the data rows of the co-purchase log without parsing
// them. Returns and zero-priced rows are counted. A missing file has no rows.
func (s *Store) CoPurchaseRows(ctx context.Context) (int, error) {
	f, err := os.Open(s.paths.CoPurchases)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open co-purchases: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	r := newReader(f)
	r.FieldsPerRecord = -1
	rows := 0
	for line := 1; ; line++ {
		_, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, malformed(s.paths.CoPurchases, line, "%v", err)
		}
		if line%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		if line > 1 {
			rows++
		}
	}
	return rows, nil
}

// LoadCatalog reads the item catalog. A missing file is an empty catalog.
func (s *Store) LoadCatalog(ctx context.Context) ([]models.CatalogEntry, error) {
	f, err := os.Open(s.paths.Catalog)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	path := s.paths.Catalog
	r := newReader(f)
	cols, err := readHeader(r, path, colItemName, colItemID, colCategoryID)
	if err != nil || cols == nil {
		return nil, err
	}

	var entries []models.CatalogEntry
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(path, line, "%v", err)
		}
		if line%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		itemID, err := parseID(row[cols[colItemID]])
		if err != nil {
			return nil, malformed(path, line, "item_id: %v", err)
		}
		categoryID, err := parseID(row[cols[colCategoryID]])
		if err != nil {
			return nil, malformed(path, line, "item_category_id: %v", err)
		}
		entries = append(entries, models.CatalogEntry{
			ItemID:     itemID,
			CategoryID: categoryID,
			Name:       row[cols[colItemName]],
		})
	}
	return entries, nil
}

func readTransactions(ctx context.Context, path string, requireUser bool) ([]models.TransactionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transactions: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	required := []string{colDate, colItemID, colItemPrice, colItemCount}
	if requireUser {
		required = append(required, colUserID)
	}

	r := newReader(f)
	cols, err := readHeader(r, path, required...)
	if err != nil || cols == nil {
		return nil, err
	}
	userCol, hasUser := cols[colUserID]

	var records []models.TransactionRecord
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(path, line, "%v", err)
		}
		if line%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		date, err := time.Parse(models.DateLayout, strings.TrimSpace(row[cols[colDate]]))
		if err != nil {
			return nil, malformed(path, line, "date %q is not dd.mm.yyyy", row[cols[colDate]])
		}
		itemID, err := parseID(row[cols[colItemID]])
		if err != nil {
			return nil, malformed(path, line, "item_id: %v", err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(row[cols[colItemPrice]]), 64)
		if err != nil {
			return nil, malformed(path, line, "item_price: %v", err)
		}
		count, err := strconv.ParseFloat(strings.TrimSpace(row[cols[colItemCount]]), 64)
		if err != nil {
			return nil, malformed(path, line, "item_cnt_day: %v", err)
		}
		if count != math.Trunc(count) || math.IsInf(count, 0) {
			return nil, malformed(path, line, "item_cnt_day %q is not a whole number", row[cols[colItemCount]])
		}

		// Returns and zero-priced rows are dropped, not repaired.
		qty := int(count)
		if price <= 0 || qty <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			continue
		}

		rec := models.TransactionRecord{
			ItemID:    itemID,
			Date:      date,
			UnitPrice: price,
			Quantity:  qty,
		}
		if hasUser {
			rec.UserID = strings.TrimSpace(row[userCol])
		}
		records = append(records, rec)
	}
	return records, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	return cr
}

// readHeader maps column names to indexes and checks the required ones exist.
// An empty file yields a nil map and no error.
func readHeader(r *csv.Reader, path string, required ...string) (map[string]int, error) {
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, malformed(path, 1, "header: %v", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		cols[name] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, malformed(path, 1, "missing column %q", name)
		}
	}
	return cols, nil
}

// parseID accepts integer ids, including the "12.0" form produced by some exporters.
func parseID(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.Atoi(raw); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not an integer id", raw)
	}
	return int(f), nil
}
