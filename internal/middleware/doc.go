// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

// Package middleware provides HTTP middleware shared by the API router.
//
//   - RequestID: assigns or propagates X-Request-ID and stores it in the
//     request context so logging.Ctx can attach it to log lines.
//   - PrometheusMetrics: counts requests and observes latency, labelled by
//     method, chi route pattern and status code.
//   - RateLimitExceeded: httprate limit handler that counts rejections per
//     route group.
//
// Middleware is written as func(http.HandlerFunc) http.HandlerFunc; the api
// package adapts it for chi's r.Use.
package middleware
