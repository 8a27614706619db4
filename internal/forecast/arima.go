// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package forecast

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// penalty is the objective value of parameters outside the stationary and
// invertible region.
const penalty = math.MaxFloat64

// Order is an ARIMA(p,d,q) specification.
type Order struct {
	P, D, Q int
}

func (o Order) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// ARIMAModel is a fitted ARIMA model. The ARMA part is fitted by conditional
// sum of squares on the d-times differenced series; a mean is estimated only
// when d is zero.
type ARIMAModel struct {
	order  Order
	mean   float64
	ar     []float64
	ma     []float64
	sigma2 float64

	w     []float64 // differenced series
	resid []float64
	tails []float64 // last value of each differencing level below d
}

// FitARIMA fits order to series. maxIter bounds the optimizer's iterations;
// running out of iterations is reported as ErrModelFit. ctx cancellation
// stops the optimizer.
func FitARIMA(ctx context.Context, series []float64, order Order, maxIter int) (*ARIMAModel, error) {
	if order.P < 0 || order.D < 0 || order.Q < 0 {
		return nil, fmt.Errorf("invalid order %s", order)
	}

	w := series
	tails := make([]float64, order.D)
	for k := 0; k < order.D; k++ {
		if len(w) == 0 {
			break
		}
		tails[k] = w[len(w)-1]
		w = Difference(w)
	}
	if len(w) == 0 {
		return nil, fmt.Errorf("%w: nothing left after %d differences", ErrInsufficientData, order.D)
	}

	m := &ARIMAModel{order: order, w: w, tails: tails}

	// A constant series is its own forecast.
	if isConstant(w) {
		m.mean = w[0]
		m.resid = make([]float64, len(w))
		return m, nil
	}
	if len(w) < order.P+order.Q+2 {
		return nil, fmt.Errorf("%w: %d points for %s", ErrInsufficientData, len(w), order)
	}

	obj := &cssObjective{w: w, p: order.P, q: order.Q, withMean: order.D == 0}
	x0 := make([]float64, obj.dim())
	if obj.withMean {
		x0[0] = stat.Mean(w, nil)
	}

	problem := optimize.Problem{
		Func: obj.value,
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		MajorIterations: maxIter,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-8,
			Iterations: 50,
		},
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelFit, err)
	}
	if result.Status.Early() {
		return nil, fmt.Errorf("%w: %s did not converge: %s", ErrModelFit, order, result.Status)
	}
	if result.F >= penalty || math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return nil, fmt.Errorf("%w: no admissible parameters for %s", ErrModelFit, order)
	}

	m.mean, m.ar, m.ma = obj.unpack(result.X)
	m.resid = make([]float64, len(w))
	m.sigma2 = obj.residuals(m.resid, m.mean, m.ar, m.ma)
	return m, nil
}

// Order returns the fitted order.
func (m *ARIMAModel) Order() Order { return m.order }

// Params returns the mean, AR and MA coefficients.
func (m *ARIMAModel) Params() (mean float64, ar, ma []float64) {
	return m.mean, append([]float64(nil), m.ar...), append([]float64(nil), m.ma...)
}

// Sigma2 returns the residual variance of the fit.
func (m *ARIMAModel) Sigma2() float64 { return m.sigma2 }

// Forecast returns the next steps values of the original series.
func (m *ARIMAModel) Forecast(steps int) []float64 {
	if steps <= 0 {
		return nil
	}
	hist := append(make([]float64, 0, len(m.w)+steps), m.w...)
	resid := append(make([]float64, 0, len(m.resid)+steps), m.resid...)

	out := make([]float64, steps)
	for h := 0; h < steps; h++ {
		t := len(hist)
		v := m.mean
		for i, phi := range m.ar {
			v += phi * (hist[t-1-i] - m.mean)
		}
		for j, theta := range m.ma {
			if idx := t - 1 - j; idx >= 0 {
				v += theta * resid[idx]
			}
		}
		out[h] = v
		hist = append(hist, v)
		resid = append(resid, 0)
	}

	// Undo the differencing, innermost level first.
	for k := len(m.tails) - 1; k >= 0; k-- {
		level := m.tails[k]
		for i := range out {
			level += out[i]
			out[i] = level
		}
	}
	return out
}

type cssObjective struct {
	w        []float64
	p, q     int
	withMean bool
}

func (o *cssObjective) dim() int {
	n := o.p + o.q
	if o.withMean {
		n++
	}
	return n
}

func (o *cssObjective) unpack(x []float64) (mean float64, ar, ma []float64) {
	if o.withMean {
		mean, x = x[0], x[1:]
	}
	return mean, x[:o.p:o.p], x[o.p : o.p+o.q : o.p+o.q]
}

func (o *cssObjective) value(x []float64) float64 {
	mean, ar, ma := o.unpack(x)
	if !insideUnitCircle(ar, 1) || !insideUnitCircle(ma, -1) {
		return penalty
	}
	v := o.residuals(nil, mean, ar, ma)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return penalty
	}
	return v
}

// residuals runs the ARMA recursion with pre-sample errors set to zero and
// returns the mean squared residual. When dst is non-nil the residuals are
// stored in it.
func (o *cssObjective) residuals(dst []float64, mean float64, ar, ma []float64) float64 {
	n := len(o.w)
	e := dst
	if e == nil {
		e = make([]float64, n)
	}
	var ss float64
	for t := 0; t < n; t++ {
		if t < o.p {
			e[t] = 0
			continue
		}
		v := o.w[t] - mean
		for i, phi := range ar {
			v -= phi * (o.w[t-1-i] - mean)
		}
		for j, theta := range ma {
			if t-1-j >= 0 {
				v -= theta * e[t-1-j]
			}
		}
		e[t] = v
		ss += v * v
	}
	return ss / float64(n-o.p)
}

// insideUnitCircle reports whether the companion matrix with first row
// sign*coef has all eigenvalues strictly inside the unit circle. With sign 1
// this is AR stationarity; with sign -1 it is MA invertibility.
func insideUnitCircle(coef []float64, sign float64) bool {
	k := len(coef)
	switch k {
	case 0:
		return true
	case 1:
		return math.Abs(coef[0]) < 1
	}

	companion := mat.NewDense(k, k, nil)
	for j, c := range coef {
		companion.Set(0, j, sign*c)
	}
	for i := 1; i < k; i++ {
		companion.Set(i, i-1, 1)
	}
	var eig mat.Eigen
	if !eig.Factorize(companion, mat.EigenNone) {
		return false
	}
	for _, v := range eig.Values(nil) {
		if cmplx.Abs(v) >= 1 {
			return false
		}
	}
	return true
}
