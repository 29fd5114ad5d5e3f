/*
Copyright © 2024 the radas authors.
This file is part of radas.

radas is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

radas is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with radas.  If not, see <http://www.gnu.org/licenses/>.
*/

package radas

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// boundsTolerance is the fraction by which interpolation queries may
// extend past the edges of the source grid.
const boundsTolerance = 0.01

// InterpolationOrder selects the 1-D spline used along each axis of the
// tensor-product interpolation.
type InterpolationOrder int

const (
	// Cubic uses not-a-knot cubic splines.
	Cubic InterpolationOrder = iota
	// Linear uses piecewise linear interpolation.
	Linear
	// Akima uses Akima splines, which do not overshoot near steep changes.
	Akima
)

func (o InterpolationOrder) String() string {
	switch o {
	case Cubic:
		return "cubic"
	case Linear:
		return "linear"
	case Akima:
		return "akima"
	default:
		return fmt.Sprintf("InterpolationOrder(%d)", int(o))
	}
}

// ParseInterpolationOrder parses "cubic", "linear" or "akima".
func ParseInterpolationOrder(s string) (InterpolationOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cubic", "":
		return Cubic, nil
	case "linear":
		return Linear, nil
	case "akima":
		return Akima, nil
	default:
		return -1, fmt.Errorf("radas: invalid interpolation order %q", s)
	}
}

// predictor returns an unfitted 1-D interpolator for n points. Orders
// that need more points than are available fall back to linear.
func (o InterpolationOrder) predictor(n int) interp.FittablePredictor {
	switch {
	case n == 1:
		return new(constant)
	case o == Cubic && n >= 4:
		return new(interp.NotAKnotCubic)
	case o == Akima && n >= 5:
		return new(interp.AkimaSpline)
	default:
		return new(interp.PiecewiseLinear)
	}
}

// constant interpolates a single point.
type constant float64

func (c *constant) Fit(xs, ys []float64) error {
	if len(ys) != 1 {
		return fmt.Errorf("radas: constant interpolator needs 1 point, got %d", len(ys))
	}
	*c = constant(ys[0])
	return nil
}

func (c *constant) Predict(float64) float64 { return float64(*c) }

// BoundViolation describes one interpolation bound that a query exceeds.
type BoundViolation struct {
	Axis  string  // "density" or "temperature"
	Bound string  // "lower" or "upper"
	Query float64 // the most extreme query value
	Limit float64 // the tolerance-padded grid limit
}

// OutOfBoundsError is returned when interpolation queries fall outside
// the source grid by more than the allowed tolerance.
type OutOfBoundsError struct {
	Kind       ReactionKind
	Violations []BoundViolation
}

func (e OutOfBoundsError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "radas: %s interpolation out of bounds:", e.Kind)
	for i, v := range e.Violations {
		if i > 0 {
			b.WriteString(";")
		}
		fmt.Fprintf(&b, " %s %s limit %.3e exceeded by %.3e (query %.3e)",
			v.Axis, v.Bound, v.Limit, math.Abs(v.Query-v.Limit), v.Query)
	}
	return b.String()
}

// checkBounds returns an OutOfBoundsError listing every violated bound.
func checkBounds(kind ReactionKind, density, temperature, qDensity, qTemperature []float64) error {
	var v []BoundViolation
	check := func(axis string, grid, q []float64) {
		lo := (1 - boundsTolerance) * floats.Min(grid)
		hi := (1 + boundsTolerance) * floats.Max(grid)
		if qmin := floats.Min(q); !(qmin >= lo) {
			v = append(v, BoundViolation{Axis: axis, Bound: "lower", Query: qmin, Limit: lo})
		}
		if qmax := floats.Max(q); !(qmax <= hi) {
			v = append(v, BoundViolation{Axis: axis, Bound: "upper", Query: qmax, Limit: hi})
		}
	}
	check("density", density, qDensity)
	check("temperature", temperature, qTemperature)
	if len(v) > 0 {
		return OutOfBoundsError{Kind: kind, Violations: v}
	}
	return nil
}

func log10Slice(x []float64) []float64 {
	o := make([]float64, len(x))
	for i, v := range x {
		o[i] = math.Log10(v)
	}
	return o
}

// Interpolate resamples t onto the given density [m**-3] and
// temperature [eV] grids. Each charge state is interpolated independently
// with a tensor-product spline of the given order in
// (log10 density, log10 temperature, log10 value) space, so the result
// passes through the source values at the source grid points.
//
// A charge state whose values are all exactly zero gives zeros on the new
// grid. A charge state with only some values zero or negative is an error.
func Interpolate(t *RateTable, density, temperature []float64, order InterpolationOrder) (*InterpolatedRateField, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := checkGrid("query density", density); err != nil {
		return nil, fmt.Errorf("radas: interpolating %s: %v", t.Kind, err)
	}
	if err := checkGrid("query temperature", temperature); err != nil {
		return nil, fmt.Errorf("radas: interpolating %s: %v", t.Kind, err)
	}
	if err := checkBounds(t.Kind, t.Density, t.Temperature, density, temperature); err != nil {
		return nil, err
	}

	nc, nt, nd := t.Values.Shape[0], len(t.Temperature), len(t.Density)
	out := sparse.ZerosDense(nc, len(temperature), len(density))

	x, y := log10Slice(t.Density), log10Slice(t.Temperature)
	qx, qy := log10Slice(density), log10Slice(temperature)

	z := make([]float64, nd)
	col := make([]float64, nt)
	w := make([][]float64, nt) // (source temperature, query density)
	for j := range w {
		w[j] = make([]float64, len(density))
	}

	for k := 0; k < nc; k++ {
		zero, err := checkSlice(t, k)
		if err != nil {
			return nil, err
		}
		if zero {
			continue
		}
		for j := 0; j < nt; j++ {
			for i := 0; i < nd; i++ {
				z[i] = math.Log10(t.Values.Get(k, j, i))
			}
			p := order.predictor(nd)
			if err := p.Fit(x, z); err != nil {
				return nil, fmt.Errorf("radas: interpolating %s charge state %d along density: %v", t.Kind, k, err)
			}
			for qi, v := range qx {
				w[j][qi] = p.Predict(v)
			}
		}
		for qi := range density {
			for j := 0; j < nt; j++ {
				col[j] = w[j][qi]
			}
			p := order.predictor(nt)
			if err := p.Fit(y, col); err != nil {
				return nil, fmt.Errorf("radas: interpolating %s charge state %d along temperature: %v", t.Kind, k, err)
			}
			for qj, v := range qy {
				out.Set(math.Pow(10, p.Predict(v)), k, qj, qi)
			}
		}
	}

	return &InterpolatedRateField{
		Kind:        t.Kind,
		Density:     append([]float64(nil), density...),
		Temperature: append([]float64(nil), temperature...),
		Values:      out,
		Units:       t.Units,
	}, nil
}

// checkSlice reports whether charge state k of t is all zeros, and
// returns an error if it is only partly non-positive.
func checkSlice(t *RateTable, k int) (allZero bool, err error) {
	nt, nd := t.Values.Shape[1], t.Values.Shape[2]
	allZero = true
	nonPositive := false
	for j := 0; j < nt; j++ {
		for i := 0; i < nd; i++ {
			v := t.Values.Get(k, j, i)
			if v != 0 {
				allZero = false
			}
			if v <= 0 {
				nonPositive = true
			}
		}
	}
	if !allZero && nonPositive {
		return false, fmt.Errorf("radas: %s charge state %d has zero-valued entries among non-zero values and cannot be interpolated in log space", t.Kind, k)
	}
	return allZero, nil
}
