// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

// Package recommend implements the bucketed item recommender.
//
// # Buckets
//
// Every call is assigned to an experiment bucket:
//
//   - 0: the caller supplied no history; items are ranked by popularity
//   - 1: seasonal similarity (items sold in the same months)
//   - 2: category similarity (items sharing a catalog category)
//   - 3: co-purchase similarity (items bought by the same users)
//
// Buckets 1 to 3 are drawn at random for callers with history. Bucket 3 is
// only eligible once the co-purchase log holds enough rows to be meaningful.
// The draw is an A/B assignment; the random source can be fixed with
// WithRand for reproducible runs.
//
// # Neighbor Aggregation
//
// For each history item the engine takes its top-N most similar items,
// unions them keeping the best score per item, orders the union by score
// descending then item id ascending, removes the history items and truncates
// to N. When nothing survives, the popularity ranking is served instead.
//
// # Event Log
//
// Each served recommendation is handed to an EventSink. Sink failures are
// logged and never fail the call.
//
// # Thread Safety
//
// Engine is safe for concurrent use. Similarity matrices are cached per
// projection, data version and history, so appends to the underlying files
// always invalidate them.
package recommend
