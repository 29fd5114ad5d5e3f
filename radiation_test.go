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
	"testing"
)

func TestMeanChargeState(t *testing.T) {
	if got := MeanChargeState([]float64{0.25, 0.5, 0.25}); got != 1 {
		t.Errorf("got %g, want 1", got)
	}
}

func TestRadiatedPower(t *testing.T) {
	got := RadiatedPower([]float64{1e-31, 2e-31, 0}, []float64{0, 1e-32, 3e-32}, []float64{0.5, 0.25, 0.25})
	want := 0.5*1e-31 + 0.25*2.1e-31 + 0.25*3e-32
	if different(got, want, 1e-12) {
		t.Errorf("got %g, want %g", got, want)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for mismatched lengths")
		}
	}()
	RadiatedPower([]float64{1}, []float64{1}, []float64{1, 0})
}

func TestLz(t *testing.T) {
	a := alignedSynthetic(t, 2, []float64{1e20}, []float64{5})
	f, err := a.Coronal()
	if err != nil {
		t.Fatal(err)
	}
	uc := NewUnitConverter()
	lz, err := a.Lz(f, uc)
	if err != nil {
		t.Fatal(err)
	}
	if len(lz.Shape) != 2 {
		t.Fatalf("shape %v", lz.Shape)
	}
	if got, want := lz.Get(0, 0), 2.5422101e-33; different(got, want, 1e-6) {
		t.Errorf("got %g, want %g", got, want)
	}

	t.Run("point", func(t *testing.T) {
		line, _ := a.Coefficients(LineEmission, 0, 0, nil)
		cont, _ := a.Coefficients(ContinuumEmission, 0, 0, nil)
		frac := []float64{f.Values.Get(0, 0, 0), f.Values.Get(1, 0, 0), f.Values.Get(2, 0, 0)}
		if got, want := lz.Get(0, 0), RadiatedPower(line, cont, frac); different(got, want, 1e-12) {
			t.Errorf("got %g, want %g", got, want)
		}
	})
	t.Run("extra axes", func(t *testing.T) {
		evo, err := a.Evolve(context.Background(), EvolutionConfig{Start: 1e-8, Stop: 1, NumTimes: 3})
		if err != nil {
			t.Fatal(err)
		}
		eq := evo.Equilibrium()
		lz2, err := a.Lz(eq, uc)
		if err != nil {
			t.Fatal(err)
		}
		if len(lz2.Shape) != 3 || lz2.Shape[0] != 1 {
			t.Fatalf("shape %v", lz2.Shape)
		}
		if different(lz2.Get(0, 0, 0), lz.Get(0, 0), 1e-2) {
			t.Errorf("equilibrium Lz %g, coronal Lz %g", lz2.Get(0, 0, 0), lz.Get(0, 0))
		}
		if _, err := a.Lz(evo.Fraction, uc); err == nil {
			t.Error("expected an error for fractions with a trailing time axis")
		}
	})
}

func TestResidenceTime(t *testing.T) {
	uc := NewUnitConverter()
	tau, err := ResidenceTime([]float64{1e16, 1e17}, "m**-3 s", []float64{1e19, 1e20}, "m**-3", uc)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]float64{{1e-3, 1e-4}, {1e-2, 1e-3}}
	for i := range want {
		for j := range want[i] {
			if got := tau.Get(i, j); different(got, want[i][j], 1e-12) {
				t.Errorf("tau[%d][%d] = %g, want %g", i, j, got, want[i][j])
			}
		}
	}
	t.Run("units", func(t *testing.T) {
		tau, err := ResidenceTime([]float64{1e16}, "cm**-3 s", []float64{1e20}, "m**-3", uc)
		if err != nil {
			t.Fatal(err)
		}
		if got := tau.Get(0, 0); different(got, 100, 1e-12) {
			t.Errorf("got %g, want 100", got)
		}
	})
	t.Run("dimensions", func(t *testing.T) {
		if _, err := ResidenceTime([]float64{1}, "eV", []float64{1}, "m**-3", uc); err == nil {
			t.Error("expected an error")
		}
	})
}
