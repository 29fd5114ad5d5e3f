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

package ode

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Coefficients of the two-stage Radau IIA method, which is of order 3,
// L-stable and stiffly accurate.
var (
	radauC = [2]float64{1.0 / 3, 1}
	radauA = [2][2]float64{
		{5.0 / 12, -1.0 / 12},
		{3.0 / 4, 1.0 / 4},
	}
)

const (
	order = 3

	safety    = 0.9
	minFactor = 0.2
	maxFactor = 5.0
)

var errNewton = errors.New("ode: stage equations did not converge")

// Radau integrates sys from y0 at times[0] and returns the solution at
// each of times, which must be strictly increasing. The local error of
// each step is estimated by comparing one full step with two half steps,
// and the step size is adapted to keep it within the tolerances.
func Radau(sys System, y0, times []float64, s Settings) (*Result, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("ode: no output times")
	}
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return nil, fmt.Errorf("ode: output times must be strictly increasing but %g follows %g", times[i], times[i-1])
		}
	}
	n := len(y0)
	if n == 0 {
		return nil, fmt.Errorf("ode: empty initial state")
	}

	r := newRadau(sys, n, s)
	res := &Result{
		Times: append([]float64(nil), times...),
		Y:     mat.NewDense(n, len(times), nil),
	}
	res.Y.SetCol(0, y0)

	y := append([]float64(nil), y0...)
	t := times[0]
	h, err := r.initialStep(t, y, times[len(times)-1]-t)
	if err != nil {
		res.Stats = r.stats
		return res, err
	}

	yBig := make([]float64, n)
	yHalf := make([]float64, n)
	ySmall := make([]float64, n)
	scale := make([]float64, n)
	var luFull, luHalf mat.LU

	for next := 1; next < len(times); {
		if r.stats.Steps+r.stats.Rejected >= s.MaxSteps {
			res.Stats = r.stats
			return res, ConvergenceError{T: t, Step: h, Reason: fmt.Sprintf("exceeded %d steps", s.MaxSteps)}
		}
		if h < 16*epsilon(t) {
			res.Stats = r.stats
			return res, ConvergenceError{T: t, Step: h, Reason: "step size too small"}
		}
		target := times[next]
		proposed := h
		clamped := false
		// Stretch the step slightly rather than leave a sliver before target.
		if t+1.1*h >= target {
			h = target - t
			clamped = true
		}

		for i, v := range y {
			scale[i] = s.AbsTol + s.RelTol*math.Abs(v)
		}
		r.jacobian(t, y)

		ok := r.factorize(&luFull, h) == nil &&
			r.factorize(&luHalf, h/2) == nil &&
			r.step(&luFull, t, h, y, yBig, scale) == nil &&
			r.step(&luHalf, t, h/2, y, yHalf, scale) == nil &&
			r.step(&luHalf, t+h/2, h/2, yHalf, ySmall, scale) == nil
		if !ok {
			r.stats.Rejected++
			h *= 0.5
			continue
		}

		errNorm := 0.0
		for i := range y {
			sc := s.AbsTol + s.RelTol*math.Max(math.Abs(y[i]), math.Abs(ySmall[i]))
			e := (ySmall[i] - yBig[i]) / (math.Pow(2, order) - 1) / sc
			errNorm += e * e
		}
		errNorm = math.Sqrt(errNorm / float64(n))
		if math.IsNaN(errNorm) || math.IsInf(errNorm, 0) {
			res.Stats = r.stats
			return res, ConvergenceError{T: t, Step: h, Reason: "non-finite solution"}
		}

		factor := maxFactor
		if errNorm > 0 {
			factor = math.Min(maxFactor, math.Max(minFactor, safety*math.Pow(errNorm, -1.0/(order+1))))
		}
		if errNorm > 1 {
			r.stats.Rejected++
			h *= math.Min(1, factor)
			continue
		}

		r.stats.Steps++
		copy(y, ySmall)
		if clamped {
			t = target
			res.Y.SetCol(next, y)
			next++
		} else {
			t += h
		}
		h *= factor
		if clamped && h < proposed {
			h = proposed
		}
		if s.MaxStep > 0 {
			h = math.Min(h, s.MaxStep)
		}
	}
	res.Stats = r.stats
	return res, nil
}

// epsilon returns the spacing of floating point numbers near t.
func epsilon(t float64) float64 {
	t = math.Abs(t)
	return math.Nextafter(t, math.Inf(1)) - t
}

type radau struct {
	sys   System
	n     int
	s     Settings
	stats Stats

	jac   *mat.Dense
	m     *mat.Dense
	f     [2][]float64
	ys    []float64
	z     []float64
	g, dz *mat.VecDense
}

func newRadau(sys System, n int, s Settings) *radau {
	return &radau{
		sys: sys,
		n:   n,
		s:   s,
		jac: mat.NewDense(n, n, nil),
		m:   mat.NewDense(2*n, 2*n, nil),
		f:   [2][]float64{make([]float64, n), make([]float64, n)},
		ys:  make([]float64, n),
		z:   make([]float64, 2*n),
		g:   mat.NewVecDense(2*n, nil),
		dz:  mat.NewVecDense(2*n, nil),
	}
}

func (r *radau) derivative(t float64, y, dy []float64) {
	r.sys.Derivative(t, y, dy)
	r.stats.Evaluations++
}

func (r *radau) jacobian(t float64, y []float64) {
	r.jac.Zero()
	r.sys.Jacobian(t, y, r.jac)
	r.stats.JacobianEvaluations++
}

// initialStep estimates a first step size from the size of the initial
// derivative relative to the error scale.
func (r *radau) initialStep(t float64, y []float64, span float64) (float64, error) {
	h := r.s.InitialStep
	if h == 0 {
		f0 := r.f[0]
		r.derivative(t, y, f0)
		var d0, d1 float64
		for i, v := range y {
			sc := r.s.AbsTol + r.s.RelTol*math.Abs(v)
			d0 += (v / sc) * (v / sc)
			d1 += (f0[i] / sc) * (f0[i] / sc)
		}
		if math.IsNaN(d1) || math.IsInf(d1, 0) {
			return 0, ConvergenceError{T: t, Reason: "non-finite derivative at initial state"}
		}
		d0 = math.Sqrt(d0 / float64(r.n))
		d1 = math.Sqrt(d1 / float64(r.n))
		if d0 < 1e-5 || d1 < 1e-5 {
			h = 1e-6 * span
		} else {
			h = 0.01 * d0 / d1
		}
	}
	h = math.Min(h, span)
	if r.s.MaxStep > 0 {
		h = math.Min(h, r.s.MaxStep)
	}
	return h, nil
}

// factorize computes the LU factorization of the stage iteration matrix
// I - h (A ⊗ J) for the current Jacobian.
func (r *radau) factorize(lu *mat.LU, h float64) error {
	n := r.n
	for bi := 0; bi < 2; bi++ {
		for bj := 0; bj < 2; bj++ {
			a := radauA[bi][bj]
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					v := -h * a * r.jac.At(i, j)
					if bi == bj && i == j {
						v++
					}
					r.m.Set(bi*n+i, bj*n+j, v)
				}
			}
		}
	}
	lu.Factorize(r.m)
	r.stats.Factorizations++
	if math.IsInf(lu.Cond(), 1) {
		return errors.New("ode: singular stage iteration matrix")
	}
	return nil
}

// newtonFloor scales the Newton tolerance below which a correction is
// accepted without a convergence rate estimate.
const newtonFloor = 1e-3

// step takes one Radau step of size h from (t, y) and stores the
// result in ynew.
func (r *radau) step(lu *mat.LU, t, h float64, y, ynew, scale []float64) error {
	n := r.n
	tol := math.Max(10*epsilon(1)/r.s.RelTol, math.Min(0.03, math.Sqrt(r.s.RelTol)))
	for i := range r.z {
		r.z[i] = 0
	}
	prev := -1.0
	for it := 0; it < r.s.MaxNewtonIterations; it++ {
		for j := 0; j < 2; j++ {
			for i := 0; i < n; i++ {
				r.ys[i] = y[i] + r.z[j*n+i]
			}
			r.derivative(t+radauC[j]*h, r.ys, r.f[j])
		}
		for j := 0; j < 2; j++ {
			for i := 0; i < n; i++ {
				r.g.SetVec(j*n+i, -r.z[j*n+i]+h*(radauA[j][0]*r.f[0][i]+radauA[j][1]*r.f[1][i]))
			}
		}
		if err := lu.SolveVecTo(r.dz, false, r.g); err != nil {
			var c mat.Condition
			if !errors.As(err, &c) || math.IsInf(float64(c), 1) {
				return err
			}
		}
		norm := 0.0
		for i := range r.z {
			d := r.dz.AtVec(i)
			r.z[i] += d
			e := d / scale[i%n]
			norm += e * e
		}
		norm = math.Sqrt(norm / float64(2*n))
		switch {
		case math.IsNaN(norm) || math.IsInf(norm, 0):
			return errNewton
		case norm < newtonFloor*tol:
			// Corrections at round-off level give meaningless rates.
			return r.finish(y, ynew)
		case prev > 0:
			rate := norm / prev
			if rate >= 1 {
				return errNewton
			}
			if rate/(1-rate)*norm < tol {
				return r.finish(y, ynew)
			}
		}
		prev = norm
	}
	return errNewton
}

// finish sets ynew to the last stage value, which is the step result for
// a stiffly accurate method.
func (r *radau) finish(y, ynew []float64) error {
	for i := range y {
		ynew[i] = y[i] + r.z[r.n+i]
	}
	return nil
}
