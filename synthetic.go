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

// rydberg is the ionisation potential of hydrogen [eV].
const rydberg = 13.6

// syntheticPotential returns the ionisation potential of charge state k
// of a hydrogenic ion [eV].
func syntheticPotential(k int) float64 {
	q := float64(k + 1)
	return rydberg * q * q
}

// syntheticRecombination is the radiative recombination coefficient of
// k+1 into k, with a weak density dependence standing in for
// collisional-radiative effects [m**3/s].
func syntheticRecombination(k int, te, ne float64) float64 {
	q := float64(k + 1)
	return 2.6e-19 * q * q * math.Sqrt(syntheticPotential(k)/te) * math.Pow(ne/1e19, 0.02)
}

// syntheticRates holds the closed-form rate coefficients used to build
// synthetic tables. Each function takes the stored charge-state index k,
// the electron temperature [eV] and the electron density [m**-3].
var syntheticRates = map[ReactionKind]func(k int, te, ne float64) float64{
	// Lotz-type ionisation of charge state k [m**3/s].
	EffectiveIonisation: func(k int, te, _ float64) float64 {
		e := syntheticPotential(k)
		x := te / e
		return 1e-11 * math.Sqrt(x) * math.Exp(-1/x) / (math.Pow(e, 1.5) * (6 + x))
	},
	EffectiveRecombination: syntheticRecombination,

	ChargeExchangeCrossCoupling: func(k int, _, _ float64) float64 {
		return 1e-15 * float64(k+1)
	},
	// Excitation line power of charge state k [W m**3].
	LineEmission: func(k int, te, _ float64) float64 {
		e := syntheticPotential(k)
		return 1e-31 * math.Exp(-e/(3*te)) / math.Sqrt(1+te/e)
	},
	// Recombination energy loss plus bremsstrahlung of k+1 [W m**3].
	ContinuumEmission: func(k int, te, ne float64) float64 {
		q := float64(k + 1)
		return syntheticRecombination(k, te, ne)*syntheticPotential(k)*electronVolt + 1.5e-38*q*q*math.Sqrt(te)
	},
	ChargeExchangeEmission: func(k int, _, _ float64) float64 {
		return 1e-33 * float64(k+1)
	},
	MeanIonisationPotential: func(k int, _, _ float64) float64 {
		return syntheticPotential(k)
	},
}

// SyntheticRateTables returns one rate table of every reaction kind for
// a hydrogenic model ion with the given atomic number, tabulated on the
// given density [m**-3] and temperature [eV] grids. The coefficients are
// smooth, strictly positive closed-form approximations in the working
// units of each kind and in the stored charge-state layout. They are
// meant for testing and demonstration, not for physics.
func SyntheticRateTables(atomicNumber int, density, temperature []float64) ([]*RateTable, error) {
	if atomicNumber < 1 {
		return nil, fmt.Errorf("radas: atomic number %d must be at least 1", atomicNumber)
	}
	if err := checkGrid("density", density); err != nil {
		return nil, fmt.Errorf("radas: synthetic tables: %v", err)
	}
	if err := checkGrid("temperature", temperature); err != nil {
		return nil, fmt.Errorf("radas: synthetic tables: %v", err)
	}
	var tables []*RateTable
	for _, kind := range ReactionKinds() {
		f := syntheticRates[kind]
		v := sparse.ZerosDense(atomicNumber, len(temperature), len(density))
		for k := 0; k < atomicNumber; k++ {
			for j, te := range temperature {
				for i, ne := range density {
					v.Set(f(k, te, ne), k, j, i)
				}
			}
		}
		tables = append(tables, &RateTable{
			Kind:        kind,
			Density:     append([]float64(nil), density...),
			Temperature: append([]float64(nil), temperature...),
			Values:      v,
			Units:       kind.Units(),
		})
	}
	return tables, nil
}

// SyntheticSpecies returns SyntheticRateTables as the input data of a
// species.
func SyntheticSpecies(name string, atomicNumber int, density, temperature []float64) (*SpeciesData, error) {
	tables, err := SyntheticRateTables(atomicNumber, density, temperature)
	if err != nil {
		return nil, err
	}
	return &SpeciesData{Name: name, AtomicNumber: atomicNumber, Tables: tables}, nil
}
