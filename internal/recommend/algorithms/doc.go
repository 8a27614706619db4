// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

// Package algorithms implements the item-to-item building blocks of the
// recommendation engine.
//
// # Feature Projections
//
// A Projection turns transaction records into an item x feature matrix of
// summed quantities:
//
//   - SeasonalProjection: one column per calendar month
//   - CategoryProjection: one column per catalog category (inner join)
//   - CoUserProjection: one column per purchasing user
//
// BuildSimilarity applies the shared qualifying mask (aggregate quantity above
// the popularity threshold, or present in the caller's history) and computes
// pairwise cosine similarity with gonum.
//
// # Ordering
//
// Every ranking in this package is deterministic: score descending, then
// item id ascending.
package algorithms
