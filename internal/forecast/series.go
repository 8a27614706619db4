// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package forecast

import (
	"sort"
	"time"

	"github.com/tomtom215/salesight/internal/models"
)

const day = 24 * time.Hour

// PricePoint is one day of a price series.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// PriceSeries is a daily price series ordered by date.
type PriceSeries []PricePoint

// Values returns the prices in date order.
func (s PriceSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}

// Last returns the final point. It panics on an empty series.
func (s PriceSeries) Last() PricePoint {
	return s[len(s)-1]
}

// MinPrice returns the lowest price in the series.
func (s PriceSeries) MinPrice() float64 {
	lowest := s[0].Price
	for _, p := range s[1:] {
		if p.Price < lowest {
			lowest = p.Price
		}
	}
	return lowest
}

// dateOf truncates t to its calendar day in UTC.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole days from a to b.
func daysBetween(a, b time.Time) int {
	return int(dateOf(b).Sub(dateOf(a)) / day)
}

// DailyMedians groups the records of itemID by day and takes the median
// price of each day. It also returns the latest date of any record.
func DailyMedians(records []models.TransactionRecord, itemID int) (PriceSeries, time.Time) {
	byDay := make(map[time.Time][]float64)
	var maxDate time.Time
	for i := range records {
		d := dateOf(records[i].Date)
		if d.After(maxDate) {
			maxDate = d
		}
		if records[i].ItemID == itemID {
			byDay[d] = append(byDay[d], records[i].UnitPrice)
		}
	}

	series := make(PriceSeries, 0, len(byDay))
	for d, prices := range byDay {
		series = append(series, PricePoint{Date: d, Price: median(prices)})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series, maxDate
}

// Anchor extends a single-point series with the same price at maxDate so
// that it spans at least two days. Longer series are returned unchanged.
func Anchor(series PriceSeries, maxDate time.Time) PriceSeries {
	if len(series) != 1 || !maxDate.After(series[0].Date) {
		return series
	}
	return PriceSeries{series[0], {Date: dateOf(maxDate), Price: series[0].Price}}
}

// Resample places series on a daily grid from its first to its last date,
// filling missing days by linear interpolation.
func Resample(series PriceSeries) PriceSeries {
	if len(series) < 2 {
		return series
	}
	span := daysBetween(series[0].Date, series.Last().Date)
	out := make(PriceSeries, 0, span+1)
	for i := 0; i < len(series)-1; i++ {
		a, b := series[i], series[i+1]
		gap := daysBetween(a.Date, b.Date)
		for k := 0; k < gap; k++ {
			frac := float64(k) / float64(gap)
			out = append(out, PricePoint{
				Date:  a.Date.AddDate(0, 0, k),
				Price: a.Price + frac*(b.Price-a.Price),
			})
		}
	}
	return append(out, series.Last())
}

// median averages the two middle values for even counts.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
