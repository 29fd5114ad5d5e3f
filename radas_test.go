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
	"math"
	"testing"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func absDifferent(a, b, tolerance float64) bool {
	if math.Abs(a-b) > tolerance {
		return true
	}
	return false
}

// alignedSynthetic returns the aligned synthetic dataset of a species
// with atomic number z on the given grid, without interpolation.
func alignedSynthetic(t *testing.T, z int, density, temperature []float64) *AlignedDataset {
	t.Helper()
	tables, err := SyntheticRateTables(z, density, temperature)
	if err != nil {
		t.Fatal(err)
	}
	fields := make([]*InterpolatedRateField, len(tables))
	for i, tb := range tables {
		fields[i] = &InterpolatedRateField{
			Kind:        tb.Kind,
			Density:     tb.Density,
			Temperature: tb.Temperature,
			Values:      tb.Values,
			Units:       tb.Units,
		}
	}
	ds, err := NewDataset("synthetic", z, fields...)
	if err != nil {
		t.Fatal(err)
	}
	a, err := ds.Align()
	if err != nil {
		t.Fatal(err)
	}
	return a
}
