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
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/ctessum/sparse"
	"github.com/plasmatools/radas/ode"
	"gonum.org/v1/gonum/mat"
)

// DefaultNumTimes is the default number of output times of a time evolution.
const DefaultNumTimes = 50

// ChargeStateBalance holds the rate equations for the charge state
// fractions of one species at one (density, temperature) point.
// It implements ode.System.
type ChargeStateBalance struct {
	// Ionisation holds the k->k+1 coefficients indexed by k [m**3/s].
	Ionisation []float64

	// Recombination holds the k+1->k coefficients indexed by k [m**3/s],
	// as returned by AlignedDataset.RecombinationFromAbove.
	Recombination []float64

	// Density is the electron density [m**-3].
	Density float64

	// NeTau is the product of electron density and impurity residence
	// time [m**-3 s]. Every charge state is lost at rate 1/NeTau and
	// neutrals are reinjected at the same total rate. +Inf disables
	// refuelling.
	NeTau float64
}

// Derivative sets dy to the rate of change of the charge state
// fractions y. The four ionisation and recombination fluxes of each
// charge state are combined with NeumaierSum.
func (b *ChargeStateBalance) Derivative(_ float64, y, dy []float64) {
	n := len(y)
	for i := 0; i < n; i++ {
		toAbove := b.Ionisation[i] * y[i]
		var fromBelow, fromAbove, toBelow float64
		if i > 0 {
			fromBelow = b.Ionisation[i-1] * y[i-1]
			toBelow = b.Recombination[i-1] * y[i]
		}
		if i < n-1 {
			fromAbove = b.Recombination[i] * y[i+1]
		}
		dy[i] = NeumaierSum(-toAbove, fromBelow, fromAbove, -toBelow)
	}
	for i := range dy {
		dy[i] -= y[i] / b.NeTau
	}
	dy[0] += 1 / b.NeTau
	for i := range dy {
		dy[i] *= b.Density
	}
}

// Jacobian sets the non-zero, tridiagonal elements of jac.
func (b *ChargeStateBalance) Jacobian(_ float64, y []float64, jac *mat.Dense) {
	n := len(y)
	for i := 0; i < n; i++ {
		d := -b.Ionisation[i] - 1/b.NeTau
		if i > 0 {
			d -= b.Recombination[i-1]
			jac.Set(i, i-1, b.Density*b.Ionisation[i-1])
		}
		if i < n-1 {
			jac.Set(i, i+1, b.Density*b.Recombination[i])
		}
		jac.Set(i, i, b.Density*d)
	}
}

// IntegrationFailureError is returned when the time evolution at a
// grid point cannot be integrated.
type IntegrationFailureError struct {
	Species     string
	NeTau       float64 // [m**-3 s]
	Temperature float64 // [eV]
	Density     float64 // [m**-3]
	Err         error
}

func (e IntegrationFailureError) Error() string {
	return fmt.Sprintf("radas: %s time evolution failed at ne_tau=%g m**-3 s, Te=%g eV, ne=%g m**-3: %v",
		e.Species, e.NeTau, e.Temperature, e.Density, e.Err)
}

func (e IntegrationFailureError) Unwrap() error { return e.Err }

// EvolutionConfig holds the settings of a time evolution.
type EvolutionConfig struct {
	// Start and Stop are the first and last output times [s].
	Start, Stop float64

	// NumTimes is the number of logarithmically spaced output times.
	// Zero means DefaultNumTimes.
	NumTimes int

	// NeTau holds the refuelling parameters to evolve for [m**-3 s].
	// An empty slice means no refuelling.
	NeTau []float64

	// Settings control the ODE integrator. The zero value means
	// ode.DefaultSettings.
	Settings ode.Settings
}

func (c *EvolutionConfig) normalize() error {
	if c.NumTimes == 0 {
		c.NumTimes = DefaultNumTimes
	}
	if c.NumTimes < 2 {
		return fmt.Errorf("radas: NumTimes=%d but should be >1", c.NumTimes)
	}
	if !(c.Start > 0) || !(c.Stop > c.Start) || math.IsInf(c.Stop, 0) {
		return fmt.Errorf("radas: evolution time span [%g, %g] s is invalid", c.Start, c.Stop)
	}
	if len(c.NeTau) == 0 {
		c.NeTau = []float64{math.Inf(1)}
	}
	for _, v := range c.NeTau {
		if !(v > 0) {
			return fmt.Errorf("radas: ne_tau=%g but should be >0", v)
		}
	}
	if c.Settings == (ode.Settings{}) {
		c.Settings = ode.DefaultSettings()
	}
	return nil
}

// TimeEvolution holds charge state fractions as a function of time.
type TimeEvolution struct {
	Times []float64 // [s]
	NeTau []float64 // [m**-3 s]

	// Fraction has dimensions
	// (charge state, ne_tau, temperature, density, time).
	Fraction *ChargeStateFraction
}

// Equilibrium returns the fractions at the final time, with dimensions
// (charge state, ne_tau, temperature, density).
func (e *TimeEvolution) Equilibrium() *ChargeStateFraction { return e.Fraction.Last() }

// Evolve integrates the charge state fractions at every (ne_tau,
// temperature, density) point of a, starting with all of the population
// in the neutral state at c.Start. Points are solved in parallel. The
// first point that fails to integrate aborts the whole evolution with an
// IntegrationFailureError.
func (a *AlignedDataset) Evolve(ctx context.Context, c EvolutionConfig) (*TimeEvolution, error) {
	if err := c.normalize(); err != nil {
		return nil, err
	}
	for _, kind := range []ReactionKind{EffectiveIonisation, EffectiveRecombination} {
		if !a.Has(kind) {
			return nil, fmt.Errorf("radas: %s: no %s coefficients", a.Species, kind)
		}
	}
	times, err := LogGrid(c.Start, c.Stop, c.NumTimes)
	if err != nil {
		return nil, err
	}

	n := a.NumChargeStates()
	nn, nt, nd, ntime := len(c.NeTau), len(a.Temperature), len(a.Density), len(times)
	out := sparse.ZerosDense(n, nn, nt, nd, ntime)
	npoints := nn * nt * nd

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		once     sync.Once
		firstErr error
		wg       sync.WaitGroup
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	nprocs := runtime.GOMAXPROCS(0)
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			y0 := make([]float64, n)
			var ion, rec []float64
			for ii := pp; ii < npoints; ii += nprocs {
				if ctx.Err() != nil {
					return
				}
				in, it, id := ii/(nt*nd), (ii/nd)%nt, ii%nd
				var err error
				if ion, err = a.Coefficients(EffectiveIonisation, it, id, ion); err != nil {
					fail(err)
					return
				}
				if rec, err = a.RecombinationFromAbove(it, id, rec); err != nil {
					fail(err)
					return
				}
				b := &ChargeStateBalance{
					Ionisation:    ion,
					Recombination: rec,
					Density:       a.Density[id],
					NeTau:         c.NeTau[in],
				}
				for k := range y0 {
					y0[k] = 0
				}
				y0[0] = 1
				res, err := ode.Radau(b, y0, times, c.Settings)
				if err != nil {
					fail(IntegrationFailureError{
						Species:     a.Species,
						NeTau:       c.NeTau[in],
						Temperature: a.Temperature[it],
						Density:     a.Density[id],
						Err:         err,
					})
					return
				}
				for k := 0; k < n; k++ {
					for ti := 0; ti < ntime; ti++ {
						out.Set(res.Y.At(k, ti), k, in, it, id, ti)
					}
				}
			}
		}(pp)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("radas: %s time evolution: %w", a.Species, err)
	}
	return &TimeEvolution{
		Times: times,
		NeTau: append([]float64(nil), c.NeTau...),
		Fraction: &ChargeStateFraction{
			Dims:   []string{DimChargeState, DimNeTau, DimTemperature, DimDensity, DimTime},
			Values: out,
		},
	}, nil
}
