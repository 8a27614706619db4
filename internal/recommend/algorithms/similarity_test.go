// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package algorithms

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/salesight/internal/models"
)

func rec(item int, month time.Month, qty int, user string) models.TransactionRecord {
	return models.TransactionRecord{
		ItemID:    item,
		Date:      time.Date(2021, month, 10, 0, 0, 0, 0, time.UTC),
		UnitPrice: 10,
		Quantity:  qty,
		UserID:    user,
	}
}

// seasonalFixture: item 1 sells only in January, item 3 only in February,
// item 2 evenly in both, item 4 is a small January seller.
func seasonalFixture() []models.TransactionRecord {
	return []models.TransactionRecord{
		rec(1, time.January, 60, ""),
		rec(2, time.January, 30, ""),
		rec(2, time.February, 30, ""),
		rec(3, time.February, 40, ""),
		rec(3, time.February, 15, ""),
		rec(4, time.January, 5, ""),
	}
}

func TestQualifyingItems(t *testing.T) {
	fm, err := SeasonalProjection{}.Project(context.Background(), seasonalFixture())
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	tests := []struct {
		name    string
		history []int
		want    []int
	}{
		{"threshold only", nil, []int{1, 2, 3}},
		{"history keeps unpopular item", []int{4}, []int{1, 2, 3, 4}},
		{"history item without sales is ignored", []int{99}, []int{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QualifyingItems(fm, 50, tt.history)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("QualifyingItems() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildSeasonalSimilarity(t *testing.T) {
	m, err := Build(context.Background(), SeasonalProjection{}, seasonalFixture(), []int{4}, 50)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if m.Projection() != ProjectionSeasonal {
		t.Errorf("Projection() = %q", m.Projection())
	}
	if m.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", m.Len())
	}

	checks := []struct {
		a, b int
		want float64
	}{
		{1, 2, 1 / math.Sqrt2},
		{1, 3, 0},
		{2, 3, 1 / math.Sqrt2},
		{1, 4, 1},
		{3, 4, 0},
	}
	for _, c := range checks {
		got, ok := m.At(c.a, c.b)
		if !ok {
			t.Fatalf("At(%d, %d) not indexed", c.a, c.b)
		}
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("At(%d, %d) = %v, want %v", c.a, c.b, got, c.want)
		}
	}

	neighbors, ok := m.Neighbors(1, 2)
	if !ok {
		t.Fatal("item 1 should be indexed")
	}
	if len(neighbors) != 2 || neighbors[0].ItemID != 4 || neighbors[1].ItemID != 2 {
		t.Errorf("Neighbors(1, 2) = %+v, want items [4 2]", neighbors)
	}
}

func TestNeighborsTieBreakByItemID(t *testing.T) {
	m, err := Build(context.Background(), SeasonalProjection{}, seasonalFixture(), []int{4}, 50)
	if err != nil {
		t.Fatal(err)
	}

	// Item 2 is equally similar to 1, 3 and 4.
	neighbors, _ := m.Neighbors(2, 10)
	var ids []int
	for _, n := range neighbors {
		ids = append(ids, n.ItemID)
	}
	if !reflect.DeepEqual(ids, []int{1, 3, 4}) {
		t.Errorf("Neighbors(2) = %v, want [1 3 4]", ids)
	}
	for _, n := range neighbors {
		if n.ItemID == 2 {
			t.Error("an item must not be its own neighbor")
		}
	}

	if _, ok := m.Neighbors(42, 3); ok {
		t.Error("unindexed item should report ok=false")
	}
}

func TestSimilarityIsSymmetricWithUnitDiagonal(t *testing.T) {
	var records []models.TransactionRecord
	for item := 1; item <= 12; item++ {
		for month := time.January; month <= time.December; month++ {
			qty := (item*7+int(month)*3)%11 + 1
			records = append(records, rec(item, month, qty, ""))
		}
	}

	m, err := Build(context.Background(), SeasonalProjection{}, records, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	items := m.Items()
	if len(items) != 12 {
		t.Fatalf("expected 12 items, got %d", len(items))
	}
	for _, a := range items {
		diag, _ := m.At(a, a)
		if diag != 1 {
			t.Errorf("diagonal for %d = %v, want 1", a, diag)
		}
		for _, b := range items {
			ab, _ := m.At(a, b)
			ba, _ := m.At(b, a)
			if ab != ba {
				t.Errorf("At(%d,%d)=%v != At(%d,%d)=%v", a, b, ab, b, a, ba)
			}
			if ab < -1 || ab > 1 {
				t.Errorf("At(%d,%d)=%v out of range", a, b, ab)
			}
		}
	}
}

func TestCategoryProjectionInnerJoin(t *testing.T) {
	records := []models.TransactionRecord{
		rec(1, time.March, 60, ""),
		rec(2, time.April, 70, ""),
		rec(3, time.May, 80, ""),
		rec(5, time.May, 100, ""), // not in catalog
	}
	catalog := []models.CatalogEntry{
		{ItemID: 1, CategoryID: 10, Name: "a"},
		{ItemID: 2, CategoryID: 10, Name: "b"},
		{ItemID: 3, CategoryID: 20, Name: "c"},
	}

	m, err := Build(context.Background(), NewCategoryProjection(catalog), records, nil, 50)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m.Items(), []int{1, 2, 3}) {
		t.Fatalf("Items() = %v, want [1 2 3]", m.Items())
	}
	if m.Contains(5) {
		t.Error("item absent from catalog must be excluded")
	}
	if v, _ := m.At(1, 2); v != 1 {
		t.Errorf("same category similarity = %v, want 1", v)
	}
	if v, _ := m.At(1, 3); v != 0 {
		t.Errorf("different category similarity = %v, want 0", v)
	}
}

func TestCoUserProjection(t *testing.T) {
	records := []models.TransactionRecord{
		rec(1, time.June, 30, "alice"),
		rec(1, time.June, 30, "bob"),
		rec(2, time.June, 60, "alice"),
		rec(3, time.June, 60, "carol"),
		rec(4, time.June, 90, ""),
	}
	m, err := Build(context.Background(), CoUserProjection{}, records, nil, 50)
	if err != nil {
		t.Fatal(err)
	}
	if m.Contains(4) {
		t.Error("records without a user must not form a row")
	}
	if v, _ := m.At(1, 2); math.Abs(v-1/math.Sqrt2) > 1e-9 {
		t.Errorf("At(1,2) = %v, want %v", v, 1/math.Sqrt2)
	}
	if v, _ := m.At(2, 3); v != 0 {
		t.Errorf("At(2,3) = %v, want 0", v)
	}
}

func TestDegenerateMatrix(t *testing.T) {
	records := []models.TransactionRecord{rec(1, time.January, 60, "")}

	m, err := Build(context.Background(), SeasonalProjection{}, records, nil, 50)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Degenerate() {
		t.Error("single item matrix should be degenerate")
	}
	neighbors, ok := m.Neighbors(1, 5)
	if !ok || len(neighbors) != 0 {
		t.Errorf("expected no neighbors, got %v (ok=%v)", neighbors, ok)
	}

	empty, err := Build(context.Background(), SeasonalProjection{}, nil, nil, 50)
	if err != nil {
		t.Fatal(err)
	}
	if empty.Len() != 0 || !empty.Degenerate() {
		t.Errorf("empty input should give an empty matrix, got %d items", empty.Len())
	}
}

func TestBuildHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Build(ctx, SeasonalProjection{}, seasonalFixture(), nil, 0); err == nil {
		t.Fatal("expected context error")
	}
}

func TestMergeNeighbors(t *testing.T) {
	lists := [][]Neighbor{
		{{ItemID: 5, Score: 0.9}, {ItemID: 6, Score: 0.5}},
		{{ItemID: 6, Score: 0.95}, {ItemID: 7, Score: 0.5}, {ItemID: 1, Score: 0.99}},
	}

	tests := []struct {
		name    string
		exclude []int
		n       int
		want    []int
	}{
		{"best score wins and history excluded", []int{1}, 2, []int{6, 5}},
		{"all", []int{1}, 10, []int{6, 5, 7}},
		{"zero n", nil, 0, nil},
		{"nothing excluded", nil, 1, []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeNeighbors(lists, tt.exclude, tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MergeNeighbors() = %v, want %v", got, tt.want)
			}
		})
	}
}
