// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package ingest

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/salesight/internal/models"
)

// fakeWriter records appended rows. The first failures appends fail.
type fakeWriter struct {
	mu       sync.Mutex
	entries  []models.CatalogEntry
	txs      []models.TransactionRecord
	failures int
	calls    int
}

var errStoreDown = errors.New("store down")

func (w *fakeWriter) AppendCatalogEntry(entry models.CatalogEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.failures > 0 {
		w.failures--
		return errStoreDown
	}
	w.entries = append(w.entries, entry)
	return nil
}

func (w *fakeWriter) AppendTransaction(rec models.TransactionRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.failures > 0 {
		w.failures--
		return errStoreDown
	}
	w.txs = append(w.txs, rec)
	return nil
}

func (w *fakeWriter) counts() (entries, txs, calls int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries), len(w.txs), w.calls
}

func newTestHandlers(t *testing.T, w *fakeWriter) *Handlers {
	t.Helper()
	h, err := NewHandlers(w, DefaultRouterConfig())
	if err != nil {
		t.Fatalf("NewHandlers() error = %v", err)
	}
	return h
}

func TestNewHandlers_RequiresStore(t *testing.T) {
	if _, err := NewHandlers(nil, DefaultRouterConfig()); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestHandleItem(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantEntries int
	}{
		{"valid", `{"name":"Lamp","item_id":7,"item_category_id":3}`, 1},
		{"zero ids are valid", `{"name":"Lamp","item_id":0,"item_category_id":0}`, 1},
		{"missing item id", `{"name":"Lamp","item_category_id":3}`, 0},
		{"negative category", `{"name":"Lamp","item_id":7,"item_category_id":-1}`, 0},
		{"missing name", `{"item_id":7,"item_category_id":3}`, 0},
		{"not json", `item 7`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWriter{}
			h := newTestHandlers(t, w)

			if err := h.HandleItem(message.NewMessage("m-1", []byte(tt.payload))); err != nil {
				t.Fatalf("HandleItem() error = %v, want nil", err)
			}
			if entries, _, _ := w.counts(); entries != tt.wantEntries {
				t.Errorf("entries = %d, want %d", entries, tt.wantEntries)
			}
		})
	}
}

func TestHandleItem_StoresFields(t *testing.T) {
	w := &fakeWriter{}
	h := newTestHandlers(t, w)

	msg := message.NewMessage("m-1", []byte(`{"name":"Desk Lamp","item_id":42,"item_category_id":5}`))
	if err := h.HandleItem(msg); err != nil {
		t.Fatalf("HandleItem() error = %v", err)
	}

	want := models.CatalogEntry{ItemID: 42, CategoryID: 5, Name: "Desk Lamp"}
	if len(w.entries) != 1 || w.entries[0] != want {
		t.Errorf("entries = %+v, want [%+v]", w.entries, want)
	}
}

func TestHandleOrder(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantTxs int
	}{
		{"valid", `{"date":"05.03.2021","item_id":7,"item_price":19.5,"item_cnt_day":2,"user_id":"u1"}`, 1},
		{"iso date", `{"date":"2021-03-05","item_id":7,"item_price":19.5,"item_cnt_day":2,"user_id":"u1"}`, 0},
		{"zero price", `{"date":"05.03.2021","item_id":7,"item_price":0,"item_cnt_day":2,"user_id":"u1"}`, 0},
		{"zero quantity", `{"date":"05.03.2021","item_id":7,"item_price":19.5,"item_cnt_day":0,"user_id":"u1"}`, 0},
		{"missing user", `{"date":"05.03.2021","item_id":7,"item_price":19.5,"item_cnt_day":2}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWriter{}
			h := newTestHandlers(t, w)

			if err := h.HandleOrder(message.NewMessage("m-1", []byte(tt.payload))); err != nil {
				t.Fatalf("HandleOrder() error = %v, want nil", err)
			}
			if _, txs, _ := w.counts(); txs != tt.wantTxs {
				t.Errorf("transactions = %d, want %d", txs, tt.wantTxs)
			}
		})
	}
}

func TestHandleOrder_StoresFields(t *testing.T) {
	w := &fakeWriter{}
	h := newTestHandlers(t, w)

	payload := `{"date":"05.03.2021","item_id":7,"item_price":19.5,"item_cnt_day":2,"user_id":"u1"}`
	if err := h.HandleOrder(message.NewMessage("m-1", []byte(payload))); err != nil {
		t.Fatalf("HandleOrder() error = %v", err)
	}

	want := models.TransactionRecord{
		ItemID:    7,
		Date:      time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC),
		UnitPrice: 19.5,
		Quantity:  2,
		UserID:    "u1",
	}
	if len(w.txs) != 1 || w.txs[0] != want {
		t.Errorf("transactions = %+v, want [%+v]", w.txs, want)
	}
}

func TestHandleCategory_DoesNotStore(t *testing.T) {
	w := &fakeWriter{}
	h := newTestHandlers(t, w)

	if err := h.HandleCategory(message.NewMessage("m-1", []byte(`{"category_id":3,"name":"Lighting"}`))); err != nil {
		t.Fatalf("HandleCategory() error = %v", err)
	}
	if _, _, calls := w.counts(); calls != 0 {
		t.Errorf("store calls = %d, want 0", calls)
	}
}

func TestHandle_SkipsDuplicates(t *testing.T) {
	w := &fakeWriter{}
	h := newTestHandlers(t, w)

	payload := []byte(`{"name":"Lamp","item_id":7,"item_category_id":3}`)
	for i := 0; i < 3; i++ {
		if err := h.HandleItem(message.NewMessage("same-uuid", payload)); err != nil {
			t.Fatalf("HandleItem() #%d error = %v", i, err)
		}
	}
	if entries, _, _ := w.counts(); entries != 1 {
		t.Errorf("entries = %d, want 1", entries)
	}
}

func TestHandle_StoreErrorAllowsRetry(t *testing.T) {
	w := &fakeWriter{failures: 1}
	h := newTestHandlers(t, w)

	payload := []byte(`{"name":"Lamp","item_id":7,"item_category_id":3}`)
	err := h.HandleItem(message.NewMessage("m-1", payload))
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("first HandleItem() error = %v, want %v", err, errStoreDown)
	}

	if err := h.HandleItem(message.NewMessage("m-1", payload)); err != nil {
		t.Fatalf("retried HandleItem() error = %v", err)
	}
	if entries, _, calls := w.counts(); entries != 1 || calls != 2 {
		t.Errorf("entries = %d, calls = %d, want 1 and 2", entries, calls)
	}
}
