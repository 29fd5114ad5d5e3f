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


package reference

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/kr/pretty"
	"github.com/plasmatools/radas"
	"github.com/sirupsen/logrus"
)

const testFits = `
[helium_Lz]
Tmin_eV = [1.0, 10.0]
Tmax_eV = [10.0, 1000.0]
A0 = [-31.0, -32.0]
A1 = [0.0, 1.0]
A2 = [0.0, 0.0]
A3 = [0.0, 0.0]
A4 = [0.0, 0.0]
A5 = [0.0, 0.0]
A6 = [0.0, 0.0]
A7 = [0.0, 0.0]
A8 = [0.0, 0.0]
A9 = [0.0, 0.0]
ylims = [1e-35, 1e-30]

[helium_mean_charge]
Tmin_eV = [1.0]
Tmax_eV = [1000.0]
A0 = [0.0]
A1 = [0.0]
A2 = [0.0]
A3 = [0.0]
A4 = [0.0]
A5 = [0.0]
A6 = [0.0]
A7 = [0.0]
A8 = [0.0]
A9 = [0.0]

[neon_Lz]
Tmin_eV = [1.0]
Tmax_eV = [1000.0]
A0 = [-30.0]
A1 = [0.0]
A2 = [1.0]
A3 = [0.0]
A4 = [0.0]
A5 = [0.0]
A6 = [0.0]
A7 = [0.0]
A8 = [0.0]
A9 = [0.0]
`

func different(a, b, tol float64) bool {
	return math.Abs(a-b)/math.Abs(b) > tol || math.IsNaN(a) || math.IsNaN(b)
}

func readTestFits(t *testing.T) Set {
	s, err := Read(strings.NewReader(testFits))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestEvaluate(t *testing.T) {
	s := readTestFits(t)
	heLz, _ := s.Get("helium", Lz)
	neLz, _ := s.Get("neon", Lz)

	t.Run("first bin", func(t *testing.T) {
		v, err := heLz.Evaluate(5, 1e17)
		if err != nil {
			t.Fatal(err)
		}
		if different(v, 1e-31, 1e-12) {
			t.Errorf("got %g, want 1e-31", v)
		}
	})
	t.Run("second bin", func(t *testing.T) {
		v, err := heLz.Evaluate(100, 1e17)
		if err != nil {
			t.Fatal(err)
		}
		// 10^(-32 + log10(100))
		if different(v, 1e-30, 1e-12) {
			t.Errorf("got %g, want 1e-30", v)
		}
	})
	t.Run("ne_tau", func(t *testing.T) {
		v, err := neLz.Evaluate(10, 1e17)
		if err != nil {
			t.Fatal(err)
		}
		if different(v, 1e-32, 1e-12) {
			t.Errorf("got %g, want 1e-32", v)
		}
	})
	t.Run("coronal clamp", func(t *testing.T) {
		v, err := neLz.Evaluate(10, 1e21)
		var w RangeWarning
		if !errors.As(err, &w) {
			t.Fatalf("got error %v, want a RangeWarning", err)
		}
		if different(v, 1e-30, 1e-12) {
			t.Errorf("got %g, want the value at ne_tau=1e19", v)
		}
	})
	for _, c := range []struct {
		name      string
		te, neTau float64
	}{
		{"below temperature", 0.5, 1e17},
		{"above temperature", 2000, 1e17},
		{"below ne_tau", 10, 1e14},
	} {
		t.Run(c.name, func(t *testing.T) {
			v, err := heLz.Evaluate(c.te, c.neTau)
			if !math.IsNaN(v) {
				t.Errorf("got %g, want NaN", v)
			}
			var w RangeWarning
			if !errors.As(err, &w) {
				t.Fatalf("got error %v, want a RangeWarning", err)
			}
			if w.Te != c.te || w.NeTau != c.neTau {
				t.Errorf("warning %+v", w)
			}
		})
	}
	t.Run("gap", func(t *testing.T) {
		f := &Fit{
			Tmin: []float64{1, 20}, Tmax: []float64{10, 100},
			A0: []float64{0, 0}, A1: []float64{0, 0}, A2: []float64{0, 0}, A3: []float64{0, 0}, A4: []float64{0, 0},
			A5: []float64{0, 0}, A6: []float64{0, 0}, A7: []float64{0, 0}, A8: []float64{0, 0}, A9: []float64{0, 0},
		}
		if v, err := f.Evaluate(15, 1e17); err == nil || !math.IsNaN(v) {
			t.Errorf("got %g, %v", v, err)
		}
	})
}

func TestValidate(t *testing.T) {
	base := func() *Fit {
		z := func() []float64 { return []float64{0} }
		return &Fit{Tmin: []float64{1}, Tmax: []float64{10},
			A0: z(), A1: z(), A2: z(), A3: z(), A4: z(), A5: z(), A6: z(), A7: z(), A8: z(), A9: z()}
	}
	if err := base().Validate(); err != nil {
		t.Fatal(err)
	}
	for _, c := range []struct {
		name   string
		modify func(f *Fit)
	}{
		{"no bins", func(f *Fit) { f.Tmin, f.Tmax = nil, nil }},
		{"Tmax", func(f *Fit) { f.Tmax = []float64{10, 20} }},
		{"A7", func(f *Fit) { f.A7 = nil }},
		{"empty bin", func(f *Fit) { f.Tmax = []float64{1} }},
	} {
		t.Run(c.name, func(t *testing.T) {
			f := base()
			c.modify(f)
			if err := f.Validate(); err == nil {
				t.Error("expected an error")
			}
		})
	}
	t.Run("read", func(t *testing.T) {
		_, err := Read(strings.NewReader("[x_Lz]\nTmin_eV = [1.0]\nTmax_eV = [2.0]\n"))
		if err == nil || !strings.Contains(err.Error(), "x_Lz") {
			t.Errorf("got error %v", err)
		}
	})
}

func TestSpecies(t *testing.T) {
	s := readTestFits(t)
	if diff := pretty.Diff(s.Species(), []string{"helium", "neon"}); len(diff) > 0 {
		t.Error(diff)
	}
	if _, ok := s.Get("neon", MeanCharge); ok {
		t.Error("neon should have no mean charge fit")
	}
}

func TestCompare(t *testing.T) {
	s := readTestFits(t)
	r := &radas.Results{
		Species:     "helium",
		Density:     []float64{1e19, 1e20},
		Temperature: []float64{5},
		NeTau:       []float64{1e17, 1e14},
	}
	lz := sparse.ZerosDense(2, 1, 2)
	lz.Set(1.1e-31, 0, 0, 1)
	lz.Set(5e-31, 0, 0, 0)
	mean := sparse.ZerosDense(2, 1, 2)
	mean.Set(1, 0, 0, 1)
	dims := []string{radas.DimNeTau, radas.DimTemperature, radas.DimDensity}
	r.Fields = []*radas.Field{
		{Name: radas.EquilibriumLz, Dims: dims, Data: lz},
		{Name: radas.EquilibriumMeanCharge, Dims: dims, Data: mean},
	}
	log := logrus.New()
	log.SetOutput(io.Discard)

	cmp, err := Compare(r, s, 2e20, log)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmp) != 2 {
		t.Fatalf("got %d comparisons, want 2", len(cmp))
	}
	for _, c := range cmp {
		if c.Species != "helium" || c.Density != 1e20 || c.Points != 1 || c.Skipped != 1 {
			t.Errorf("comparison %+v", c)
		}
	}
	if cmp[0].Quantity != Lz || math.Abs(cmp[0].MaxRelativeDeviation-0.1) > 1e-9 {
		t.Errorf("Lz comparison %+v", cmp[0])
	}
	if cmp[1].Quantity != MeanCharge || cmp[1].MaxRelativeDeviation != 0 {
		t.Errorf("mean charge comparison %+v", cmp[1])
	}

	r.Fields = r.Fields[1:]
	if _, err := Compare(r, s, 1e20, log); err == nil {
		t.Error("expected an error for a missing Lz field")
	}
	r.Species = "argon"
	if cmp, err := Compare(r, s, 1e20, log); err != nil || len(cmp) != 0 {
		t.Errorf("got %v, %v for a species without fits", cmp, err)
	}
}
