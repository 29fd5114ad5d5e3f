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
	"errors"
	"testing"

	"github.com/ctessum/sparse"
)

// chargeField returns a field on a 1x1 grid whose value for stored
// charge state k is values[k].
func chargeField(kind ReactionKind, values ...float64) *InterpolatedRateField {
	v := sparse.ZerosDense(len(values), 1, 1)
	copy(v.Elements, values)
	return &InterpolatedRateField{
		Kind:        kind,
		Density:     []float64{1e19},
		Temperature: []float64{10},
		Values:      v,
		Units:       kind.Units(),
	}
}

func TestAlign(t *testing.T) {
	ds, err := NewDataset("test", 3,
		chargeField(EffectiveIonisation, 1, 2, 3),
		chargeField(EffectiveRecombination, 10, 20, 30),
	)
	if err != nil {
		t.Fatal(err)
	}
	a, err := ds.Align()
	if err != nil {
		t.Fatal(err)
	}
	if a.NumChargeStates() != 4 {
		t.Fatalf("got %d charge states", a.NumChargeStates())
	}
	check := func(name string, got, want []float64) {
		t.Helper()
		if len(got) != len(want) {
			t.Fatalf("%s: got %v, want %v", name, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s: got %v, want %v", name, got, want)
				return
			}
		}
	}
	ion, err := a.Coefficients(EffectiveIonisation, 0, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	check("ionisation", ion, []float64{1, 2, 3, 0})
	rec, err := a.Coefficients(EffectiveRecombination, 0, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	check("recombination", rec, []float64{0, 10, 20, 30})
	above, err := a.RecombinationFromAbove(0, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	check("recombination from above", above, []float64{10, 20, 30, 0})

	if _, err := ds.Align(); err != ErrAlreadyAligned {
		t.Errorf("second alignment: got %v, want ErrAlreadyAligned", err)
	}
	if ds.Fields[EffectiveRecombination].Values.Elements[0] != 10 {
		t.Error("alignment modified the dataset")
	}
	if _, err := a.Rate(LineEmission); err == nil {
		t.Error("expected an error for a missing kind")
	}
}

func TestNewDatasetErrors(t *testing.T) {
	t.Run("shape", func(t *testing.T) {
		_, err := NewDataset("test", 3, chargeField(EffectiveIonisation, 1, 2))
		if err == nil {
			t.Error("expected an error")
		}
	})
	t.Run("duplicate", func(t *testing.T) {
		_, err := NewDataset("test", 1, chargeField(EffectiveIonisation, 1), chargeField(EffectiveIonisation, 2))
		if err == nil {
			t.Error("expected an error")
		}
	})
	t.Run("grid", func(t *testing.T) {
		f := chargeField(EffectiveRecombination, 1)
		f.Temperature = []float64{11}
		_, err := NewDataset("test", 1, chargeField(EffectiveIonisation, 1), f)
		if err == nil {
			t.Error("expected an error")
		}
	})
	t.Run("kind", func(t *testing.T) {
		_, err := NewDataset("test", 1, chargeField(ReactionKind(42), 1))
		var e UnsupportedReactionKindError
		if !errors.As(err, &e) {
			t.Errorf("got %v, want UnsupportedReactionKindError", err)
		}
	})
}
