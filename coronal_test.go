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

func TestCoronalFractions(t *testing.T) {
	t.Run("three states", func(t *testing.T) {
		ion := []float64{1e-14, 5e-15, 0}
		rec := []float64{2e-13, 1e-13, 0}
		ratio := CoronalRatios(ion, rec)
		if ratio[2] != 0 {
			t.Errorf("top ratio %g, want 0", ratio[2])
		}
		want := []float64{1 / 1.0525, 0.05 / 1.0525, 0.0025 / 1.0525}
		got := CoronalFractions(ion, rec)
		for k := range want {
			if different(got[k], want[k], 1e-12) {
				t.Errorf("fraction %d: got %g, want %g", k, got[k], want[k])
			}
		}
		if s := NeumaierSum(got...); absDifferent(s, 1, 1e-14) {
			t.Errorf("sum %g", s)
		}
	})
	t.Run("no overflow", func(t *testing.T) {
		n := 80
		ion := make([]float64, n)
		rec := make([]float64, n)
		for k := 0; k < n-1; k++ {
			ion[k], rec[k] = 1e-6, 1e-16
		}
		got := CoronalFractions(ion, rec)
		if absDifferent(got[n-1], 1, 1e-9) || got[0] != 0 {
			t.Errorf("bottom fraction %g, top fraction %g", got[0], got[n-1])
		}
	})
	t.Run("zero rates below the top", func(t *testing.T) {
		ratio := CoronalRatios([]float64{0, 0, 1, 0}, []float64{1, 0, 0, 0})
		if ratio[0] != 0 {
			t.Errorf("zero ionisation: ratio %g, want 0", ratio[0])
		}
		if !math.IsNaN(ratio[1]) {
			t.Errorf("0/0: ratio %g, want NaN", ratio[1])
		}
		if !math.IsInf(ratio[2], 1) {
			t.Errorf("zero recombination: ratio %g, want +Inf", ratio[2])
		}
		if ratio[3] != 0 {
			t.Errorf("top ratio %g, want 0", ratio[3])
		}
		for k, v := range CoronalFractions([]float64{1, 0, 0}, []float64{1, 0, 0}) {
			if !math.IsNaN(v) {
				t.Errorf("fraction %d: got %g, want NaN", k, v)
			}
		}
	})
	t.Run("NaN", func(t *testing.T) {
		got := CoronalFractions([]float64{math.NaN(), 1, 0}, []float64{1, 1, 0})
		for k, v := range got {
			if !math.IsNaN(v) {
				t.Errorf("fraction %d: got %g, want NaN", k, v)
			}
		}
	})
}

func TestCoronalMonotonic(t *testing.T) {
	temperature := []float64{1, 2, 5, 10, 20, 50, 100, 1000, 10000}
	a := alignedSynthetic(t, 2, []float64{1e20}, temperature)
	f, err := a.Coronal()
	if err != nil {
		t.Fatal(err)
	}
	if w := f.CheckNormalization("synthetic"); len(w) > 0 {
		t.Errorf("normalization: %v", w)
	}
	mean := f.MeanChargeState()
	want := map[int]float64{0: 0.0109, 1: 0.951, 2: 1.006, 3: 1.747, 4: 1.989, 8: 2.0}
	for it, w := range want {
		if got := mean.Get(it, 0); absDifferent(got, w, 2e-3) {
			t.Errorf("Te=%g: mean charge state %g, want %g", temperature[it], got, w)
		}
	}
	for it := 1; it < len(temperature); it++ {
		if mean.Get(it, 0) < mean.Get(it-1, 0) {
			t.Errorf("mean charge state decreases from %g at %g eV to %g at %g eV",
				mean.Get(it-1, 0), temperature[it-1], mean.Get(it, 0), temperature[it])
		}
	}
}
