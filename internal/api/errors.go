// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package api

// Error codes for API responses
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	ErrCodeForecastUnavailable = "FORECAST_UNAVAILABLE"
	ErrCodeInvalidItemID       = "INVALID_ITEM_ID"
	ErrCodeInvalidDate         = "INVALID_DATE"
	ErrCodeDataError           = "DATA_ERROR"
)
