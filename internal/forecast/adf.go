// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// errDegenerateRegression marks an ADF regression that cannot be solved or
// fits exactly, which happens for trending or perfectly periodic series.
var errDegenerateRegression = errors.New("degenerate ADF regression")

// exactFitTolerance is the residual share below which a regression counts as
// an exact fit.
const exactFitTolerance = 1e-12

// MacKinnon (1994) response surface for the constant-only regression with
// one integrated variable.
const (
	adfTauMax  = 2.74
	adfTauMin  = -18.83
	adfTauStar = -1.61
)

var (
	adfSmallP = [...]float64{2.1659, 1.4412, 3.8269e-2}
	adfLargeP = [...]float64{1.7339, 9.3202e-1, -1.2745e-1, -1.0368e-2}
)

// ADFResult is the outcome of an augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic float64
	PValue    float64
	UsedLag   int
	NObs      int
}

// ADFTest runs an augmented Dickey-Fuller test with a constant term.
// A negative maxLag selects the Schwert bound 12*(n/100)^(1/4); the lag used
// is then chosen by AIC between 0 and that bound.
func ADFTest(series []float64, maxLag int) (ADFResult, error) {
	n := len(series)
	limit := n/2 - 2
	if maxLag < 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if maxLag > limit {
		maxLag = limit
	}
	if maxLag < 0 {
		return ADFResult{}, fmt.Errorf("%w: %d observations", ErrInsufficientData, n)
	}

	diff := Difference(series)

	// Select the lag on a common sample so AIC values are comparable.
	bestLag, bestAIC := 0, math.Inf(1)
	for lag := 0; lag <= maxLag; lag++ {
		x, y := adfDesign(series, diff, maxLag, lag, true)
		fit, err := ols(x, y)
		if err != nil {
			continue
		}
		if fit.aic < bestAIC {
			bestLag, bestAIC = lag, fit.aic
		}
	}
	if math.IsInf(bestAIC, 1) {
		return ADFResult{}, errDegenerateRegression
	}

	x, y := adfDesign(series, diff, bestLag, bestLag, false)
	fit, err := ols(x, y)
	if err != nil {
		return ADFResult{}, err
	}
	stat := fit.tvalue(0)
	if math.IsNaN(stat) || math.IsInf(stat, 0) {
		return ADFResult{}, errDegenerateRegression
	}
	return ADFResult{
		Statistic: stat,
		PValue:    mackinnonP(stat),
		UsedLag:   bestLag,
		NObs:      y.Len(),
	}, nil
}

// adfDesign builds the regression of Δy_t on y_{t-1}, Δy_{t-1..t-lags} and a
// constant over the sample that window lags allow. The constant is the first
// column when constFirst is set and the last otherwise.
func adfDesign(series, diff []float64, window, lags int, constFirst bool) (*mat.Dense, *mat.VecDense) {
	rows := len(diff) - window
	cols := lags + 2
	x := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)

	for r := 0; r < rows; r++ {
		t := window + r // index into diff
		y.SetVec(r, diff[t])

		c := 0
		if constFirst {
			x.Set(r, c, 1)
			c++
		}
		x.Set(r, c, series[t])
		c++
		for j := 1; j <= lags; j++ {
			x.Set(r, c, diff[t-j])
			c++
		}
		if !constFirst {
			x.Set(r, c, 1)
		}
	}
	return x, y
}

type olsFit struct {
	beta   *mat.VecDense
	stdErr []float64
	aic    float64
}

func (f *olsFit) tvalue(i int) float64 {
	return f.beta.AtVec(i) / f.stdErr[i]
}

// ols solves y = X·b by QR and derives standard errors from (XᵀX)⁻¹.
func ols(x *mat.Dense, y *mat.VecDense) (*olsFit, error) {
	n, k := x.Dims()
	if n <= k {
		return nil, fmt.Errorf("%w: %d rows for %d regressors", ErrInsufficientData, n, k)
	}

	var qr mat.QR
	qr.Factorize(x)
	beta := mat.NewVecDense(k, nil)
	if err := qr.SolveVecTo(beta, false, y); err != nil {
		return nil, errDegenerateRegression
	}

	var fitted, resid mat.VecDense
	fitted.MulVec(x, beta)
	resid.SubVec(y, &fitted)
	ssr := mat.Dot(&resid, &resid)
	if ssr <= exactFitTolerance*math.Max(1, mat.Dot(y, y)) {
		return nil, errDegenerateRegression
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	var chol mat.Cholesky
	if !chol.Factorize(&xtx) {
		return nil, errDegenerateRegression
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, errDegenerateRegression
	}

	sigma2 := ssr / float64(n-k)
	stdErr := make([]float64, k)
	for i := range stdErr {
		stdErr[i] = math.Sqrt(sigma2 * inv.At(i, i))
	}

	nf := float64(n)
	llf := -nf / 2 * (math.Log(2*math.Pi) + math.Log(ssr/nf) + 1)
	return &olsFit{
		beta:   beta,
		stdErr: stdErr,
		aic:    -2*llf + 2*float64(k),
	}, nil
}

// mackinnonP approximates the p-value of an ADF statistic.
func mackinnonP(stat float64) float64 {
	switch {
	case stat > adfTauMax:
		return 1
	case stat < adfTauMin:
		return 0
	}
	coef := adfLargeP[:]
	if stat <= adfTauStar {
		coef = adfSmallP[:]
	}
	var z, pow float64 = 0, 1
	for _, c := range coef {
		z += c * pow
		pow *= stat
	}
	return distuv.UnitNormal.CDF(z)
}
