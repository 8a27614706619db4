// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package forecast

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

// DefaultMaxDiffOrder bounds differencing when the caller passes no limit.
const DefaultMaxDiffOrder = 5

// Difference returns the first difference of series, one point shorter.
func Difference(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	out := make([]float64, len(series)-1)
	floats.SubTo(out, series[1:], series[:len(series)-1])
	return out
}

// DifferenceUntilStationary differences series while the ADF p-value exceeds
// alpha. It stops at maxOrder, when the series becomes too short to test, or
// when it is constant, and always returns len(series)-d points.
func DifferenceUntilStationary(series []float64, alpha float64, maxOrder int) ([]float64, int) {
	if maxOrder <= 0 {
		maxOrder = DefaultMaxDiffOrder
	}
	current := series
	d := 0
	for d < maxOrder && len(current) >= 2 {
		if isConstant(current) {
			break
		}
		res, err := ADFTest(current, -1)
		if err != nil && !errors.Is(err, errDegenerateRegression) {
			break
		}
		if err == nil && res.PValue <= alpha {
			break
		}
		current = Difference(current)
		d++
	}
	return current, d
}

func isConstant(series []float64) bool {
	if len(series) == 0 {
		return true
	}
	return floats.Max(series)-floats.Min(series) == 0
}
