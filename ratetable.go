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

// RateTable is one tabulated quantity for one species and reaction kind.
type RateTable struct {
	Kind ReactionKind

	// Density holds the electron density grid [m**-3], strictly increasing.
	Density []float64

	// Temperature holds the electron temperature grid [eV], strictly increasing.
	Temperature []float64

	// Values holds the coefficients with shape
	// (charge state, temperature, density).
	Values *sparse.DenseArray

	// Units are the units of Values.
	Units string
}

// InterpolatedRateField is a RateTable resampled onto a requested
// (density, temperature) grid. It has the same layout as RateTable.
type InterpolatedRateField struct {
	Kind        ReactionKind
	Density     []float64 // [m**-3]
	Temperature []float64 // [eV]
	Values      *sparse.DenseArray
	Units       string
}

// NumChargeStates returns the length of the charge-state axis of t.
func (t *RateTable) NumChargeStates() int { return t.Values.Shape[0] }

// NumChargeStates returns the length of the charge-state axis of f.
func (f *InterpolatedRateField) NumChargeStates() int { return f.Values.Shape[0] }

// Validate checks that the grids and values of t are consistent.
// NaN values are allowed through.
func (t *RateTable) Validate() error {
	if err := checkGrid("density", t.Density); err != nil {
		return fmt.Errorf("radas: %s table: %v", t.Kind, err)
	}
	if err := checkGrid("temperature", t.Temperature); err != nil {
		return fmt.Errorf("radas: %s table: %v", t.Kind, err)
	}
	if t.Values == nil || len(t.Values.Shape) != 3 {
		return fmt.Errorf("radas: %s table: values must have 3 dimensions (charge, temperature, density)", t.Kind)
	}
	if t.Values.Shape[1] != len(t.Temperature) || t.Values.Shape[2] != len(t.Density) {
		return fmt.Errorf("radas: %s table: values shape %v does not match grid lengths (temperature=%d, density=%d)",
			t.Kind, t.Values.Shape, len(t.Temperature), len(t.Density))
	}
	if len(t.Values.Elements) != t.Values.Shape[0]*t.Values.Shape[1]*t.Values.Shape[2] {
		return fmt.Errorf("radas: %s table: %d values for shape %v", t.Kind, len(t.Values.Elements), t.Values.Shape)
	}
	for i, v := range t.Values.Elements {
		if v < 0 {
			return fmt.Errorf("radas: %s table: negative value %g at index %v", t.Kind, v, t.Values.IndexNd(i))
		}
	}
	return nil
}

func checkGrid(name string, g []float64) error {
	if len(g) == 0 {
		return fmt.Errorf("empty %s grid", name)
	}
	for i, v := range g {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%s grid value %g at index %d must be positive and finite", name, v, i)
		}
		if i > 0 && v <= g[i-1] {
			return fmt.Errorf("%s grid must be strictly increasing but %g follows %g", name, v, g[i-1])
		}
	}
	return nil
}

// DecodeStored builds a RateTable from values in their stored form.
// logDensity holds log10 of the electron density in cm**-3 and
// logTemperature holds log10 of the electron temperature in eV.
// stored has shape (charge state, temperature, density), is
// exponentiated if kind is stored as log10, and is converted from
// the stored units of kind to its working units.
func DecodeStored(kind ReactionKind, logDensity, logTemperature []float64, stored *sparse.DenseArray, uc *UnitConverter) (*RateTable, error) {
	if !kind.valid() {
		return nil, UnsupportedReactionKindError{Code: int(kind)}
	}
	dens := make([]float64, len(logDensity))
	for i, v := range logDensity {
		dens[i] = math.Pow(10, v)
	}
	if err := uc.ConvertSlice(dens, "cm**-3", "m**-3"); err != nil {
		return nil, err
	}
	temp := make([]float64, len(logTemperature))
	for i, v := range logTemperature {
		temp[i] = math.Pow(10, v)
	}
	vals := stored.Copy()
	if kind.Log10Stored() {
		for i, v := range vals.Elements {
			vals.Elements[i] = math.Pow(10, v)
		}
	}
	if err := uc.ConvertSlice(vals.Elements, kind.StoredUnits(), kind.Units()); err != nil {
		return nil, fmt.Errorf("radas: decoding %s: %v", kind, err)
	}
	t := &RateTable{
		Kind:        kind,
		Density:     dens,
		Temperature: temp,
		Values:      vals,
		Units:       kind.Units(),
	}
	return t, t.Validate()
}

// gridTolerance is the relative tolerance for deciding two grids are the same.
const gridTolerance = 1e-9

func sameGrid(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > gridTolerance*math.Abs(a[i]) {
			return false
		}
	}
	return true
}

// CheckCommonGrid returns an error if the tables do not all share the
// density and temperature grids of the first table.
func CheckCommonGrid(tables ...*RateTable) error {
	if len(tables) == 0 {
		return nil
	}
	ref := tables[0]
	for _, t := range tables[1:] {
		if !sameGrid(ref.Density, t.Density) {
			return fmt.Errorf("radas: %s density grid differs from %s density grid", t.Kind, ref.Kind)
		}
		if !sameGrid(ref.Temperature, t.Temperature) {
			return fmt.Errorf("radas: %s temperature grid differs from %s temperature grid", t.Kind, ref.Kind)
		}
	}
	return nil
}
