// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

// Package services adapts server components to suture.Service.
//
// Each wrapper translates a component's own lifecycle into Serve(ctx):
//
//   - HTTPServerService: ListenAndServe / Shutdown of an *http.Server
//   - IngestService: Start / Shutdown of the ingest pipeline
//   - CacheMaintenanceService: periodic similarity cache purge
//
// The recommendation event sink implements suture.Service itself and is
// added to the tree directly.
package services
