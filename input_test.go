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
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
)

// writeSyntheticFile writes a synthetic species file to dir and returns
// its path.
func writeSyntheticFile(t *testing.T, dir, name string, z int) string {
	t.Helper()
	s, err := SyntheticSpecies(name, z, testDensity, testTemperature)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name+".nc")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := WriteSpecies(f, s); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadWriteSpecies(t *testing.T) {
	path := writeSyntheticFile(t, t.TempDir(), "helium", 2)
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	s, err := ReadSpecies(f, NewUnitConverter())
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "helium" || s.AtomicNumber != 2 {
		t.Errorf("got species %s with atomic number %d", s.Name, s.AtomicNumber)
	}
	want, err := SyntheticRateTables(2, testDensity, testTemperature)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Tables) != len(want) {
		t.Fatalf("got %d tables, want %d", len(s.Tables), len(want))
	}
	for _, w := range want {
		got := s.Table(w.Kind)
		if got == nil {
			t.Errorf("missing %s", w.Kind)
			continue
		}
		if got.Units != w.Kind.Units() {
			t.Errorf("%s: units %q", w.Kind, got.Units)
		}
		for i := range w.Values.Elements {
			if got.Values.Elements[i] != w.Values.Elements[i] {
				t.Errorf("%s: element %d is %g, want %g", w.Kind, i, got.Values.Elements[i], w.Values.Elements[i])
				break
			}
		}
		if !sameGrid(got.Density, testDensity) || !sameGrid(got.Temperature, testTemperature) {
			t.Errorf("%s: grids differ", w.Kind)
		}
	}
}

// writeRaw writes a species file with arbitrary variables, units and
// attributes. Every variable is on the (charge, temperature, density)
// grid of testDensity and testTemperature except the coordinates.
func writeRaw(t *testing.T, vars map[string]string, densityUnits, version string) string {
	t.Helper()
	nc, nt, nd := 1, len(testTemperature), len(testDensity)
	h := cdf.NewHeader([]string{DimChargeState, DimTemperature, DimDensity}, []int{nc, nt, nd})
	h.AddAttribute("", "species_name", "hydrogen")
	h.AddAttribute("", "atomic_number", []int32{1})
	h.AddAttribute("", "data_version", version)
	h.AddVariable(densityVar, []string{DimDensity}, []float64{0})
	h.AddAttribute(densityVar, "units", densityUnits)
	h.AddVariable(temperatureVar, []string{DimTemperature}, []float64{0})
	h.AddAttribute(temperatureVar, "units", "eV")
	for v, u := range vars {
		h.AddVariable(v, []string{DimChargeState, DimTemperature, DimDensity}, []float64{0})
		h.AddAttribute(v, "units", u)
	}
	h.Define()
	path := filepath.Join(t.TempDir(), "raw.nc")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	ff, err := cdf.Create(f, h)
	if err != nil {
		t.Fatal(err)
	}
	dens := make([]float64, nd)
	for i, d := range testDensity {
		dens[i] = d
		if densityUnits == "cm**-3" {
			dens[i] = d / 1e6
		}
	}
	if err := writeVariable(ff, densityVar, dens); err != nil {
		t.Fatal(err)
	}
	if err := writeVariable(ff, temperatureVar, testTemperature); err != nil {
		t.Fatal(err)
	}
	for v := range vars {
		vals := make([]float64, nc*nt*nd)
		for i := range vals {
			vals[i] = 2
		}
		if err := writeVariable(ff, v, vals); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func readRaw(t *testing.T, path string) (*SpeciesData, error) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	return ReadSpecies(f, NewUnitConverter())
}

func TestReadSpeciesConversion(t *testing.T) {
	path := writeRaw(t, map[string]string{
		"effective_ionisation":          "cm**3/s",
		"line_emission_from_excitation": "W cm**3",
	}, "cm**-3", DataVersion)
	s, err := readRaw(t, path)
	if err != nil {
		t.Fatal(err)
	}
	for i, d := range s.Tables[0].Density {
		if different(d, testDensity[i], 1e-12) {
			t.Errorf("density %d: got %g, want %g", i, d, testDensity[i])
		}
	}
	for _, kind := range []ReactionKind{EffectiveIonisation, LineEmission} {
		tb := s.Table(kind)
		if tb == nil {
			t.Fatalf("missing %s", kind)
		}
		if got := tb.Values.Elements[0]; different(got, 2e-6, 1e-12) {
			t.Errorf("%s: got %g, want 2e-6", kind, got)
		}
	}
}

func TestReadSpeciesErrors(t *testing.T) {
	t.Run("unsupported kind", func(t *testing.T) {
		path := writeRaw(t, map[string]string{"dielectronic_magic": "m**3/s"}, "m**-3", DataVersion)
		_, err := readRaw(t, path)
		var e UnsupportedReactionKindError
		if !errors.As(err, &e) || e.Name != "dielectronic_magic" {
			t.Errorf("got %v, want UnsupportedReactionKindError", err)
		}
	})
	t.Run("version", func(t *testing.T) {
		path := writeRaw(t, map[string]string{"effective_ionisation": "m**3/s"}, "m**-3", "0")
		if _, err := readRaw(t, path); err == nil {
			t.Error("expected an error")
		}
	})
	t.Run("units", func(t *testing.T) {
		path := writeRaw(t, map[string]string{"effective_ionisation": "eV"}, "m**-3", DataVersion)
		if _, err := readRaw(t, path); err == nil {
			t.Error("expected an error")
		}
	})
}
