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

	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
)

// LzUnits are the units of the radiated power coefficient.
const LzUnits = "W m**3"

// MeanChargeState returns the population-weighted mean charge state
// of the fractions of a single point.
func MeanChargeState(frac []float64) float64 {
	terms := make([]float64, len(frac))
	for k, v := range frac {
		terms[k] = float64(k) * v
	}
	return NeumaierSum(terms...)
}

// RadiatedPower returns the radiated power coefficient of a single point,
// which is the sum over charge states of the line and continuum emission
// coefficients weighted by the charge state fractions. The electron
// radiated power density is then ne * nz * RadiatedPower, where nz is the
// total impurity density.
func RadiatedPower(line, continuum, frac []float64) float64 {
	if len(line) != len(frac) || len(continuum) != len(frac) {
		panic(fmt.Errorf("radas: %d line, %d continuum and %d fraction values",
			len(line), len(continuum), len(frac)))
	}
	terms := make([]float64, len(frac))
	for k, v := range frac {
		terms[k] = (line[k] + continuum[k]) * v
	}
	return NeumaierSum(terms...)
}

// Lz returns the radiated power coefficient [W m**3] for the charge
// state fractions f, which must have the charge state as the first axis
// and the temperature and density of a as the last two axes. Any axes in
// between, such as ne_tau or time, are carried through to the result.
// Charge exchange emission is not included.
func (a *AlignedDataset) Lz(f *ChargeStateFraction, uc *UnitConverter) (*sparse.DenseArray, error) {
	nt, nd := len(a.Temperature), len(a.Density)
	shape := f.Values.Shape
	nf := len(f.Dims)
	if nf < 3 || len(shape) != nf || shape[0] != a.NumChargeStates() ||
		f.Dims[nf-2] != DimTemperature || f.Dims[nf-1] != DimDensity ||
		shape[nf-2] != nt || shape[nf-1] != nd {
		return nil, fmt.Errorf("radas: %s: fractions with dimensions %v and shape %v do not match the dataset grid",
			a.Species, f.Dims, shape)
	}
	var emission [2]*sparse.DenseArray
	var factor [2]float64
	for i, kind := range []ReactionKind{LineEmission, ContinuumEmission} {
		r, err := a.Rate(kind)
		if err != nil {
			return nil, err
		}
		u := a.Units(kind)
		if u == "" {
			u = kind.Units()
		}
		if factor[i], err = uc.Factor(u, LzUnits); err != nil {
			return nil, fmt.Errorf("radas: %s: %v", a.Species, err)
		}
		emission[i] = r
	}
	ntd := nt * nd
	return f.reduce(func(k, i int, v float64) float64 {
		j := k*ntd + i%ntd
		return (emission[0].Elements[j]*factor[0] + emission[1].Elements[j]*factor[1]) * v
	}), nil
}

// ResidenceTime returns the impurity residence time tau = ne_tau/ne [s]
// with dimensions (ne_tau, density), given ne_tau in units
// neTauUnits and density in units densityUnits.
func ResidenceTime(neTau []float64, neTauUnits string, density []float64, densityUnits string, uc *UnitConverter) (*sparse.DenseArray, error) {
	nt, err := uc.Quantity(1, neTauUnits)
	if err != nil {
		return nil, err
	}
	ne, err := uc.Quantity(1, densityUnits)
	if err != nil {
		return nil, err
	}
	q := unit.Div(nt, ne)
	if err := q.Check(unit.Second); err != nil {
		return nil, fmt.Errorf("radas: residence time from %s and %s: %v", neTauUnits, densityUnits, err)
	}
	factor := q.Value()
	out := sparse.ZerosDense(len(neTau), len(density))
	for i, v := range neTau {
		for j, d := range density {
			out.Set(factor*v/d, i, j)
		}
	}
	return out, nil
}
