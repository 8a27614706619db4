// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

type mockPurger struct {
	calls atomic.Int32
	err   error
}

func (m *mockPurger) PurgeExpired(context.Context) (int, error) {
	m.calls.Add(1)
	return 1, m.err
}

func TestEverySchedule(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{2*time.Minute + 30*time.Second, "@every 2m30s"},
		{0, "@every 1m0s"},
		{-time.Second, "@every 1m0s"},
	}
	for _, tt := range tests {
		if got := EverySchedule(tt.in); got != tt.want {
			t.Errorf("EverySchedule(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewCacheMaintenanceService_Schedule(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"@every 5m", false},
		{"*/10 * * * *", false},
		{"@hourly", false},
		{"every five minutes", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			_, err := NewCacheMaintenanceService(&mockPurger{}, tt.spec, zerolog.Nop())
			if (err != nil) != tt.wantErr {
				t.Errorf("NewCacheMaintenanceService(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
		})
	}
}

func TestCacheMaintenanceService_Purges(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"success", nil},
		{"errors do not stop the schedule", errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			purger := &mockPurger{err: tt.err}
			svc, err := NewCacheMaintenanceService(purger, "@every 1s", zerolog.Nop())
			if err != nil {
				t.Fatal(err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			errCh := serveAsync(ctx, svc)

			deadline := time.Now().Add(5 * time.Second)
			for purger.calls.Load() < 2 && time.Now().Before(deadline) {
				time.Sleep(50 * time.Millisecond)
			}
			cancel()

			select {
			case err := <-errCh:
				if !errors.Is(err, context.Canceled) {
					t.Errorf("Serve() error = %v, want context.Canceled", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("Serve did not return")
			}
			if n := purger.calls.Load(); n < 2 {
				t.Errorf("PurgeExpired calls = %d, want at least 2", n)
			}
		})
	}
}

func TestCacheMaintenanceService_Interface(t *testing.T) {
	var _ suture.Service = (*CacheMaintenanceService)(nil)
	svc, err := NewCacheMaintenanceService(&mockPurger{}, "@daily", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if got := svc.String(); got != "cache-maintenance" {
		t.Errorf("String() = %q, want %q", got, "cache-maintenance")
	}
}
