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

	"github.com/ctessum/sparse"
)

// CoronalRatios returns the ratio of the populations of adjacent charge
// states in coronal equilibrium: ratio[k] = n[k+1]/n[k] =
// ionisation[k]/recombinationAbove[k], where ionisation is indexed by the
// reactant charge state and recombinationAbove[k] is the k+1->k
// coefficient. The fully stripped ion, whose coefficients are the zero
// padding, always has a ratio of exactly zero. Below it the ratio is the
// plain quotient: zero recombination gives an infinite ratio, 0/0 and NaN
// inputs give NaN.
func CoronalRatios(ionisation, recombinationAbove []float64) []float64 {
	if len(ionisation) != len(recombinationAbove) {
		panic(fmt.Errorf("radas: %d ionisation coefficients but %d recombination coefficients",
			len(ionisation), len(recombinationAbove)))
	}
	r := make([]float64, len(ionisation))
	if len(r) == 0 {
		return r
	}
	top := len(r) - 1
	for k := 0; k < top; k++ {
		r[k] = ionisation[k] / recombinationAbove[k]
	}
	return r
}

// CoronalFractions returns the coronal-equilibrium charge state
// fractions given aligned ionisation and k+1->k recombination
// coefficients at a single point. fraction[0] is set to 1, each
// following fraction is the previous one times the corresponding ratio,
// and the result is normalised to sum to one. The products are
// accumulated as logarithms so that long chains of large or small
// ratios do not overflow. Non-finite ratios propagate into the result.
func CoronalFractions(ionisation, recombinationAbove []float64) []float64 {
	ratio := CoronalRatios(ionisation, recombinationAbove)
	n := len(ratio)
	f := make([]float64, n)
	if n == 0 {
		return f
	}
	// f holds log fractions until the final pass.
	max := 0.0
	for k := 0; k < n-1; k++ {
		f[k+1] = f[k] + math.Log(ratio[k])
		if f[k+1] > max {
			max = f[k+1]
		}
	}
	for k := range f {
		f[k] = math.Exp(f[k] - max)
	}
	sum := NeumaierSum(f...)
	for k := range f {
		f[k] /= sum
	}
	return f
}

// Coronal returns the coronal-equilibrium charge state fractions at
// every (temperature, density) point of a, with dimensions
// (charge state, temperature, density).
func (a *AlignedDataset) Coronal() (*ChargeStateFraction, error) {
	n := a.NumChargeStates()
	nt, nd := len(a.Temperature), len(a.Density)
	out := sparse.ZerosDense(n, nt, nd)
	ion := make([]float64, n)
	rec := make([]float64, n)
	var err error
	for it := 0; it < nt; it++ {
		for id := 0; id < nd; id++ {
			if ion, err = a.Coefficients(EffectiveIonisation, it, id, ion); err != nil {
				return nil, err
			}
			if rec, err = a.RecombinationFromAbove(it, id, rec); err != nil {
				return nil, err
			}
			for k, v := range CoronalFractions(ion, rec) {
				out.Set(v, k, it, id)
			}
		}
	}
	return &ChargeStateFraction{
		Dims:   []string{DimChargeState, DimTemperature, DimDensity},
		Values: out,
	}, nil
}
