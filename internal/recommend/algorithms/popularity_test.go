// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package algorithms

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/salesight/internal/models"
)

func TestPopularity_GetTopK(t *testing.T) {
	records := []models.TransactionRecord{
		rec(3, time.January, 10, ""),
		rec(1, time.January, 10, ""),
		rec(2, time.February, 25, ""),
		rec(3, time.March, 5, ""),
		rec(4, time.March, 15, ""),
	}

	p := NewPopularity()
	if p.IsTrained() {
		t.Fatal("new ranker should not be trained")
	}
	if err := p.Train(context.Background(), records); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	tests := []struct {
		name string
		k    int
		want []int
	}{
		// 2:25, then 3 and 4 tie at 15 (id ascending), then 1:10
		{"all", 10, []int{2, 3, 4, 1}},
		{"top two", 2, []int{2, 3}},
		{"zero", 0, nil},
		{"negative", -1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.GetTopK(tt.k); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GetTopK(%d) = %v, want %v", tt.k, got, tt.want)
			}
		})
	}

	if p.Total(3) != 15 {
		t.Errorf("Total(3) = %d, want 15", p.Total(3))
	}
}

func TestPopularity_NonIncreasingTotals(t *testing.T) {
	var records []models.TransactionRecord
	for i := 1; i <= 30; i++ {
		records = append(records, rec(i, time.May, (i*13)%17+1, ""))
	}
	p := NewPopularity()
	if err := p.Train(context.Background(), records); err != nil {
		t.Fatal(err)
	}

	top := p.GetTopK(30)
	for i := 1; i < len(top); i++ {
		if p.Total(top[i]) > p.Total(top[i-1]) {
			t.Fatalf("ranking not non-increasing at %d: %v", i, top)
		}
	}
}

func TestPopularity_RetrainReplacesState(t *testing.T) {
	p := NewPopularity()
	if err := p.Train(context.Background(), []models.TransactionRecord{rec(1, time.May, 5, "")}); err != nil {
		t.Fatal(err)
	}
	if err := p.Train(context.Background(), []models.TransactionRecord{rec(2, time.May, 5, "")}); err != nil {
		t.Fatal(err)
	}
	if got := p.GetTopK(5); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("GetTopK() = %v, want [2]", got)
	}
}
