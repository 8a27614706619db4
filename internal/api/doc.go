// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

// Package api provides the HTTP surface of Salesight using the chi router.
//
// # Endpoints
//
//	GET  /ping                     liveness string "pong"
//	POST /model/recommendation/    recommendations for a user
//	GET  /model/predict            price forecast for an item
//	GET  /health/live              process liveness
//	GET  /health/ready             dependency readiness
//	GET  /metrics                  Prometheus exposition
//
// The model endpoints keep the plain response bodies their clients expect:
//
//	POST /model/recommendation/ {"user_id": "u-1", "history": [12, 40]}
//	200 {"recommended_products": ["7", "3"], "bucket_id": 1, "fallback": false}
//
//	GET /model/predict?item_id=12&as_of=2021-02-10
//	200 {"item_id": 12, "predicted_price": 100.32, "as_of_date": "2021-02-10"}
//
// Errors and health responses use the APIResponse envelope:
//
//	{"success": false, "error": {"code": "NOT_FOUND", "message": "...", "request_id": "..."}, "meta": {...}}
//
// # Status Codes
//
//   - 400: malformed body, failed validation, missing or non-integer item_id,
//     bad as_of date
//   - 404: item has no price history
//   - 503: FORECAST_UNAVAILABLE when the item history cannot be modelled
//   - 429: rate limit exceeded
//   - 500: data or internal failures
//
// # Middleware
//
// Every request gets an X-Request-ID, panic recovery, CORS handling and
// response compression. Route groups add httprate limits, security headers
// and Prometheus instrumentation.
package api
