// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package algorithms

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/salesight/internal/models"
)

// Neighbor is an item and its similarity to a reference item.
type Neighbor struct {
	ItemID int
	Score  float64
}

// SimilarityMatrix holds pairwise cosine similarity over the qualifying items.
// It is symmetric with a unit diagonal and immutable once built.
type SimilarityMatrix struct {
	projection string
	items      []int
	index      map[int]int
	sim        *mat.SymDense
}

// Projection returns the name of the projection the matrix was built from.
func (m *SimilarityMatrix) Projection() string { return m.projection }

// Items returns the indexed item ids in ascending order.
func (m *SimilarityMatrix) Items() []int {
	out := make([]int, len(m.items))
	copy(out, m.items)
	return out
}

// Len returns the number of indexed items.
func (m *SimilarityMatrix) Len() int { return len(m.items) }

// Degenerate reports whether the matrix has fewer than two items and
// therefore cannot produce neighbors.
func (m *SimilarityMatrix) Degenerate() bool { return len(m.items) < 2 }

// Contains reports whether itemID is indexed.
func (m *SimilarityMatrix) Contains(itemID int) bool {
	_, ok := m.index[itemID]
	return ok
}

// At returns the similarity between two items.
func (m *SimilarityMatrix) At(a, b int) (float64, bool) {
	i, okA := m.index[a]
	j, okB := m.index[b]
	if !okA || !okB {
		return 0, false
	}
	return m.sim.At(i, j), true
}

// Neighbors returns the n items most similar to itemID, excluding itemID
// itself, ordered by score descending then item id ascending. The boolean is
// false when itemID is not indexed.
func (m *SimilarityMatrix) Neighbors(itemID, n int) ([]Neighbor, bool) {
	i, ok := m.index[itemID]
	if !ok {
		return nil, false
	}
	if n <= 0 || len(m.items) < 2 {
		return nil, true
	}

	candidates := make([]Neighbor, 0, len(m.items)-1)
	for j, other := range m.items {
		if j == i {
			continue
		}
		candidates = append(candidates, Neighbor{ItemID: other, Score: m.sim.At(i, j)})
	}
	sortNeighbors(candidates)
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, true
}

// QualifyingItems returns the items of fm whose aggregate quantity exceeds
// threshold or that appear in history, in ascending order.
func QualifyingItems(fm *FeatureMatrix, threshold float64, history []int) []int {
	inHistory := make(map[int]struct{}, len(history))
	for _, id := range history {
		inHistory[id] = struct{}{}
	}

	var items []int
	for _, id := range fm.Items {
		if _, ok := inHistory[id]; ok || fm.Total(id) > threshold {
			items = append(items, id)
		}
	}
	return items
}

// Build projects records and computes the similarity matrix over the
// qualifying items.
func Build(ctx context.Context, p Projection, records []models.TransactionRecord, history []int, threshold float64) (*SimilarityMatrix, error) {
	fm, err := p.Project(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", p.Name(), err)
	}
	return BuildSimilarity(ctx, p.Name(), fm, history, threshold)
}

// BuildSimilarity computes cosine similarity between the qualifying rows of fm.
func BuildSimilarity(ctx context.Context, projection string, fm *FeatureMatrix, history []int, threshold float64) (*SimilarityMatrix, error) {
	items := QualifyingItems(fm, threshold, history)
	m := &SimilarityMatrix{
		projection: projection,
		items:      items,
		index:      make(map[int]int, len(items)),
	}
	for i, id := range items {
		m.index[id] = i
	}

	n, cols := len(items), len(fm.Columns)
	if n == 0 || cols == 0 {
		m.sim = &mat.SymDense{}
		return m, nil
	}

	// Unit-normalize every row; the Gram matrix of the result is the cosine matrix.
	data := make([]float64, 0, n*cols)
	for i, id := range items {
		if i%256 == 0 && ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		row := fm.Row(id)
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
		data = append(data, row...)
	}
	normalized := mat.NewDense(n, cols, data)

	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}
	sim := mat.NewSymDense(n, nil)
	sim.SymOuterK(1, normalized)

	for i := 0; i < n; i++ {
		sim.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			v := sim.At(i, j)
			switch {
			case v > 1:
				sim.SetSym(i, j, 1)
			case v < -1:
				sim.SetSym(i, j, -1)
			}
		}
	}
	m.sim = sim
	return m, nil
}

// MergeNeighbors unions neighbor lists keeping each item's best score, drops
// excluded items and returns at most n ids ordered by score descending then
// item id ascending.
func MergeNeighbors(lists [][]Neighbor, exclude []int, n int) []int {
	if n <= 0 {
		return nil
	}
	skip := make(map[int]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	best := make(map[int]float64)
	for _, list := range lists {
		for _, nb := range list {
			if _, ok := skip[nb.ItemID]; ok {
				continue
			}
			if cur, ok := best[nb.ItemID]; !ok || nb.Score > cur {
				best[nb.ItemID] = nb.Score
			}
		}
	}

	merged := make([]Neighbor, 0, len(best))
	for id, score := range best {
		merged = append(merged, Neighbor{ItemID: id, Score: score})
	}
	sortNeighbors(merged)
	if len(merged) > n {
		merged = merged[:n]
	}

	ids := make([]int, len(merged))
	for i, nb := range merged {
		ids[i] = nb.ItemID
	}
	return ids
}

func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Score != ns[j].Score {
			return ns[i].Score > ns[j].Score
		}
		return ns[i].ItemID < ns[j].ItemID
	})
}
