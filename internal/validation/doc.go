// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

// Package validation provides struct validation using go-playground/validator v10.
//
// The package wraps a thread-safe singleton validator that reports field names
// by their json tag and translates failures into human-readable messages. It
// validates HTTP request bodies and the JSON payloads read from the ingest
// queues.
//
// # Usage
//
//	var msg models.OrderCreated
//	if err := json.Unmarshal(payload, &msg); err != nil {
//	    // handle decode error
//	}
//	if verr := validation.ValidateStruct(&msg); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // respond or drop
//	}
//
// # Custom Tags
//
//   - salesdate: string in the dd.mm.yyyy layout used by the sales log
//
// # Thread Safety
//
// GetValidator and ValidateStruct are safe for concurrent use. The validator
// caches struct metadata after the first call for each type.
package validation
