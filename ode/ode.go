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

// Package ode integrates stiff systems of ordinary differential equations
// with an adaptive implicit Runge-Kutta method.
package ode

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// System is a set of first-order ordinary differential equations
// dy/dt = f(t, y) with a known Jacobian.
type System interface {
	// Derivative sets dy to f(t, y).
	Derivative(t float64, y, dy []float64)

	// Jacobian sets jac to the partial derivatives of f(t, y) with
	// respect to y, where jac[i][j] = ∂f_i/∂y_j.
	Jacobian(t float64, y []float64, jac *mat.Dense)
}

// Settings control the integration.
type Settings struct {
	// RelTol and AbsTol are the relative and absolute local error
	// tolerances. Each component i of the local error must satisfy
	// |err_i| <= AbsTol + RelTol*|y_i| in a root-mean-square sense.
	RelTol, AbsTol float64

	// InitialStep is the first step size to try. If zero, it is
	// estimated from the initial derivative.
	InitialStep float64

	// MaxStep is the largest allowed step size. Zero means unbounded.
	MaxStep float64

	// MaxSteps is the maximum number of attempted steps.
	MaxSteps int

	// MaxNewtonIterations is the maximum number of simplified Newton
	// iterations per stage solve.
	MaxNewtonIterations int
}

// DefaultSettings returns the settings used when none are specified.
func DefaultSettings() Settings {
	return Settings{
		RelTol:              1e-3,
		AbsTol:              1e-12,
		MaxSteps:            100000,
		MaxNewtonIterations: 7,
	}
}

func (s Settings) validate() error {
	if !(s.RelTol > 0) || !(s.AbsTol >= 0) {
		return fmt.Errorf("ode: invalid tolerances RelTol=%g, AbsTol=%g", s.RelTol, s.AbsTol)
	}
	if s.MaxSteps < 1 {
		return fmt.Errorf("ode: MaxSteps=%d but should be >0", s.MaxSteps)
	}
	if s.MaxNewtonIterations < 1 {
		return fmt.Errorf("ode: MaxNewtonIterations=%d but should be >0", s.MaxNewtonIterations)
	}
	if s.InitialStep < 0 || s.MaxStep < 0 {
		return fmt.Errorf("ode: InitialStep=%g and MaxStep=%g should not be negative", s.InitialStep, s.MaxStep)
	}
	return nil
}

// Stats holds counters describing an integration.
type Stats struct {
	Steps, Rejected     int
	Evaluations         int
	JacobianEvaluations int
	Factorizations      int
}

// Result holds the solution at the requested output times.
type Result struct {
	Times []float64

	// Y holds the solution with one row per equation and one column per
	// output time.
	Y *mat.Dense

	Stats Stats
}

// ConvergenceError is returned when the integrator cannot continue.
type ConvergenceError struct {
	T, Step float64
	Reason  string
}

func (e ConvergenceError) Error() string {
	return fmt.Sprintf("ode: integration failed at t=%g with step size %g: %s", e.T, e.Step, e.Reason)
}
