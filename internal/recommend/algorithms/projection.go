// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package algorithms

import (
	"context"
	"sort"
	"strconv"

	"github.com/tomtom215/salesight/internal/models"
)

// Projection names, also used as cache keys and metric labels.
const (
	ProjectionSeasonal = "seasonal"
	ProjectionCategory = "category"
	ProjectionCoUser   = "couser"
)

// FeatureMatrix is a sparse item x feature table of summed quantities.
// Items is sorted ascending; every item has at least one non-zero cell.
type FeatureMatrix struct {
	Items   []int
	Columns []string
	cells   map[int]map[string]float64
}

// Row returns the dense feature vector of itemID in Columns order.
func (f *FeatureMatrix) Row(itemID int) []float64 {
	row := make([]float64, len(f.Columns))
	cells := f.cells[itemID]
	for j, col := range f.Columns {
		row[j] = cells[col]
	}
	return row
}

// Total returns the aggregate quantity of itemID across all features.
func (f *FeatureMatrix) Total(itemID int) float64 {
	var total float64
	for _, v := range f.cells[itemID] {
		total += v
	}
	return total
}

// Projection maps transaction records to item features.
type Projection interface {
	Name() string
	Project(ctx context.Context, records []models.TransactionRecord) (*FeatureMatrix, error)
}

// SeasonalProjection uses the calendar month of each sale as the feature.
type SeasonalProjection struct{}

// Name returns the projection identifier.
func (SeasonalProjection) Name() string { return ProjectionSeasonal }

// Project builds the item x month matrix.
func (SeasonalProjection) Project(ctx context.Context, records []models.TransactionRecord) (*FeatureMatrix, error) {
	return pivot(ctx, records, func(r *models.TransactionRecord) (string, bool) {
		return strconv.Itoa(r.Month()), true
	})
}

// CategoryProjection uses the catalog category of each sold item as the feature.
// Sales of items missing from the catalog are dropped.
type CategoryProjection struct {
	categories map[int]int
}

// NewCategoryProjection indexes the catalog. Later duplicates of an item id win.
func NewCategoryProjection(catalog []models.CatalogEntry) *CategoryProjection {
	categories := make(map[int]int, len(catalog))
	for _, e := range catalog {
		categories[e.ItemID] = e.CategoryID
	}
	return &CategoryProjection{categories: categories}
}

// Name returns the projection identifier.
func (*CategoryProjection) Name() string { return ProjectionCategory }

// Project builds the item x category matrix.
func (c *CategoryProjection) Project(ctx context.Context, records []models.TransactionRecord) (*FeatureMatrix, error) {
	return pivot(ctx, records, func(r *models.TransactionRecord) (string, bool) {
		category, ok := c.categories[r.ItemID]
		if !ok {
			return "", false
		}
		return strconv.Itoa(category), true
	})
}

// CoUserProjection uses the purchasing user as the feature. Records without
// a user id are dropped.
type CoUserProjection struct{}

// Name returns the projection identifier.
func (CoUserProjection) Name() string { return ProjectionCoUser }

// Project builds the item x user matrix.
func (CoUserProjection) Project(ctx context.Context, records []models.TransactionRecord) (*FeatureMatrix, error) {
	return pivot(ctx, records, func(r *models.TransactionRecord) (string, bool) {
		return r.UserID, r.UserID != ""
	})
}

func pivot(ctx context.Context, records []models.TransactionRecord, key func(*models.TransactionRecord) (string, bool)) (*FeatureMatrix, error) {
	cells := make(map[int]map[string]float64)
	columns := make(map[string]struct{})

	for i := range records {
		if i%4096 == 0 && ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		rec := &records[i]
		col, ok := key(rec)
		if !ok {
			continue
		}
		row, ok := cells[rec.ItemID]
		if !ok {
			row = make(map[string]float64)
			cells[rec.ItemID] = row
		}
		row[col] += float64(rec.Quantity)
		columns[col] = struct{}{}
	}

	fm := &FeatureMatrix{
		Items:   make([]int, 0, len(cells)),
		Columns: make([]string, 0, len(columns)),
		cells:   cells,
	}
	for id := range cells {
		fm.Items = append(fm.Items, id)
	}
	for col := range columns {
		fm.Columns = append(fm.Columns, col)
	}
	sort.Ints(fm.Items)
	sort.Strings(fm.Columns)
	return fm, nil
}

// ContextCancelled reports whether ctx is done without blocking.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
