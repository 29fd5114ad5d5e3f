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
	"github.com/sirupsen/logrus"
)

// Axis names used for result fields and in output files.
const (
	DimChargeState = "dim_charge_state"
	DimTemperature = "dim_electron_temp"
	DimDensity     = "dim_electron_density"
	DimNeTau       = "dim_ne_tau"
	DimTime        = "dim_time"
)

// NormalizationTolerance is the largest allowed deviation of the sum of
// charge state fractions from one before a NormalizationWarning is raised.
const NormalizationTolerance = 1e-6

// ChargeStateFraction holds the fractional abundance of each charge state.
// The first axis of Values is the charge state; Dims names every axis.
type ChargeStateFraction struct {
	Dims   []string
	Values *sparse.DenseArray
}

// NumChargeStates returns the length of the charge-state axis.
func (f *ChargeStateFraction) NumChargeStates() int { return f.Values.Shape[0] }

// stride returns the number of elements per charge state.
func (f *ChargeStateFraction) stride() int {
	return len(f.Values.Elements) / f.Values.Shape[0]
}

// reduce returns an array over all axes but the charge-state axis whose
// elements are g(k, v) summed over charge states k.
func (f *ChargeStateFraction) reduce(g func(k, i int, v float64) float64) *sparse.DenseArray {
	out := sparse.ZerosDense(append([]int(nil), f.Values.Shape[1:]...)...)
	s := f.stride()
	terms := make([]float64, f.NumChargeStates())
	for i := 0; i < s; i++ {
		for k := range terms {
			terms[k] = g(k, i, f.Values.Elements[k*s+i])
		}
		out.Elements[i] = NeumaierSum(terms...)
	}
	return out
}

// Sum returns the sum over charge states at every point.
func (f *ChargeStateFraction) Sum() *sparse.DenseArray {
	return f.reduce(func(_, _ int, v float64) float64 { return v })
}

// MeanChargeState returns the population-weighted mean charge state at
// every point.
func (f *ChargeStateFraction) MeanChargeState() *sparse.DenseArray {
	return f.reduce(func(k, _ int, v float64) float64 { return float64(k) * v })
}

// Last returns the fractions at the final index of the last axis, for
// example the final time of a time evolution.
func (f *ChargeStateFraction) Last() *ChargeStateFraction {
	shape := f.Values.Shape
	nl := shape[len(shape)-1]
	out := sparse.ZerosDense(append([]int(nil), shape[:len(shape)-1]...)...)
	for i := range out.Elements {
		out.Elements[i] = f.Values.Elements[i*nl+nl-1]
	}
	return &ChargeStateFraction{
		Dims:   append([]string(nil), f.Dims[:len(f.Dims)-1]...),
		Values: out,
	}
}

// NormalizationWarning reports charge state fractions that do not sum
// to one. It is logged rather than returned by the pipeline.
type NormalizationWarning struct {
	Species string
	Index   []int // index of the point, excluding the charge-state axis
	Sum     float64
}

func (w NormalizationWarning) Error() string {
	return fmt.Sprintf("radas: %s charge state fractions at %v sum to %.9g", w.Species, w.Index, w.Sum)
}

// CheckNormalization returns a warning for every point where the
// fractions do not sum to one within NormalizationTolerance, including
// points where the sum is not finite.
func (f *ChargeStateFraction) CheckNormalization(species string) []NormalizationWarning {
	var w []NormalizationWarning
	sum := f.Sum()
	for i, v := range sum.Elements {
		if !(math.Abs(v-1) <= NormalizationTolerance) {
			w = append(w, NormalizationWarning{Species: species, Index: sum.IndexNd(i), Sum: v})
		}
	}
	return w
}

// maxLoggedWarnings limits the number of individual normalization
// warnings logged per field.
const maxLoggedWarnings = 10

// logNormalization logs the normalization warnings of f under name.
func logNormalization(log logrus.FieldLogger, species, name string, f *ChargeStateFraction) {
	warnings := f.CheckNormalization(species)
	for i, w := range warnings {
		if i == maxLoggedWarnings {
			log.WithFields(logrus.Fields{
				"species": species,
				"field":   name,
				"count":   len(warnings),
			}).Warn("further normalization warnings suppressed")
			break
		}
		log.WithFields(logrus.Fields{
			"species": species,
			"field":   name,
			"index":   w.Index,
			"sum":     w.Sum,
		}).Warn(w.Error())
	}
}
