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
	"errors"
	"testing"
)

func TestRegridderCache(t *testing.T) {
	tables, err := SyntheticRateTables(2, testDensity, testTemperature)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRegridder(Cubic, 10)
	ctx := context.Background()
	qd := []float64{1e18, 1e19}
	qt := []float64{3, 30, 300}

	f1, err := r.Regrid(ctx, "helium", tables[0], qd, qt)
	if err != nil {
		t.Fatal(err)
	}
	f2, err := r.Regrid(ctx, "helium", tables[0], qd, qt)
	if err != nil {
		t.Fatal(err)
	}
	if f1 != f2 {
		t.Error("repeated request was not served from the cache")
	}
	if n := r.Computed(); n != 1 {
		t.Errorf("computed %d, want 1", n)
	}
	if _, err := r.Regrid(ctx, "helium", tables[0], qd, []float64{3, 30}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Regrid(ctx, "helium", tables[1], qd, qt); err != nil {
		t.Fatal(err)
	}
	if n := r.Computed(); n != 3 {
		t.Errorf("computed %d, want 3", n)
	}

	t.Run("error", func(t *testing.T) {
		_, err := r.Regrid(ctx, "helium", tables[0], []float64{1e10}, qt)
		var e OutOfBoundsError
		if !errors.As(err, &e) {
			t.Errorf("got %v, want OutOfBoundsError", err)
		}
	})
}

func TestLogGrid(t *testing.T) {
	g, err := LogGrid(1, 1e4, 5)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 10, 100, 1000, 1e4}
	for i := range want {
		if different(g[i], want[i], 1e-12) {
			t.Errorf("got %v, want %v", g, want)
			break
		}
	}
	if g[0] != 1 || g[4] != 1e4 {
		t.Errorf("end points %g, %g", g[0], g[4])
	}
	if g, err := LogGrid(3, 7, 1); err != nil || len(g) != 1 || g[0] != 3 {
		t.Errorf("single point: %v, %v", g, err)
	}
	for _, c := range [][3]float64{{0, 1, 3}, {2, 1, 3}, {1, 2, 0}} {
		if _, err := LogGrid(c[0], c[1], int(c[2])); err == nil {
			t.Errorf("%v: expected an error", c)
		}
	}
}
