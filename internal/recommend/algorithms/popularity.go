// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package algorithms

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/salesight/internal/models"
)

// Popularity ranks items by total quantity sold. It serves users without
// history and is the fallback whenever similarity yields nothing.
//
// Ties are broken by item id ascending so the ranking is reproducible.
type Popularity struct {
	mu        sync.RWMutex
	trained   bool
	totals    map[int]int
	sortedIDs []int
}

// NewPopularity creates an untrained popularity ranker.
func NewPopularity() *Popularity {
	return &Popularity{totals: make(map[int]int)}
}

// Name returns the algorithm identifier.
func (p *Popularity) Name() string { return "popularity" }

// Train recomputes totals from records, replacing any previous state.
func (p *Popularity) Train(ctx context.Context, records []models.TransactionRecord) error {
	totals := make(map[int]int)
	for i := range records {
		if i%4096 == 0 && ContextCancelled(ctx) {
			return ctx.Err()
		}
		totals[records[i].ItemID] += records[i].Quantity
	}

	sorted := make([]int, 0, len(totals))
	for id := range totals {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if totals[a] != totals[b] {
			return totals[a] > totals[b]
		}
		return a < b
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.totals = totals
	p.sortedIDs = sorted
	p.trained = true
	return nil
}

// IsTrained reports whether Train has completed at least once.
func (p *Popularity) IsTrained() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trained
}

// Total returns the aggregate quantity sold of itemID.
func (p *Popularity) Total(itemID int) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.totals[itemID]
}

// GetTopK returns the k most popular item ids.
func (p *Popularity) GetTopK(k int) []int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if k <= 0 || len(p.sortedIDs) == 0 {
		return nil
	}
	if k > len(p.sortedIDs) {
		k = len(p.sortedIDs)
	}
	result := make([]int, k)
	copy(result, p.sortedIDs[:k])
	return result
}
