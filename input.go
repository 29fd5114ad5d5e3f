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

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Names of the coordinate variables in rate coefficient and result files.
const (
	densityVar     = "electron_density"
	temperatureVar = "electron_temp"
	neTauVar       = "ne_tau"
	timeVar        = "time"
	chargeVar      = "charge_state"
)

// ReadSpecies reads the rate coefficient tables of a species from a
// NetCDF file written by WriteSpecies. Each table is converted to the
// working units of its reaction kind, and the density grid to m**-3.
// A rate variable whose name is not a known reaction kind is an
// UnsupportedReactionKindError.
func ReadSpecies(rw cdf.ReaderWriterAt, uc *UnitConverter) (*SpeciesData, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("radas: reading species: %v", err)
	}
	h := f.Header
	if v, ok := h.GetAttribute("", "data_version").(string); !ok || v != DataVersion {
		return nil, fmt.Errorf("radas: reading species: data version %q is incompatible with the required version %s", v, DataVersion)
	}
	s := new(SpeciesData)
	if s.Name, _ = h.GetAttribute("", "species_name").(string); s.Name == "" {
		return nil, fmt.Errorf("radas: reading species: missing species_name attribute")
	}
	z, ok := h.GetAttribute("", "atomic_number").([]int32)
	if !ok || len(z) != 1 {
		return nil, fmt.Errorf("radas: reading species %s: missing atomic_number attribute", s.Name)
	}
	s.AtomicNumber = int(z[0])

	density, err := readVariable(f, densityVar)
	if err != nil {
		return nil, err
	}
	if err := uc.ConvertSlice(density.Elements, unitsAttribute(h, densityVar), "m**-3"); err != nil {
		return nil, fmt.Errorf("radas: reading species %s: %v", s.Name, err)
	}
	temperature, err := readVariable(f, temperatureVar)
	if err != nil {
		return nil, err
	}
	if err := uc.ConvertSlice(temperature.Elements, unitsAttribute(h, temperatureVar), "eV"); err != nil {
		return nil, fmt.Errorf("radas: reading species %s: %v", s.Name, err)
	}

	for _, v := range h.Variables() {
		if v == densityVar || v == temperatureVar {
			continue
		}
		kind, err := ParseReactionKind(v)
		if err != nil {
			return nil, err
		}
		data, err := readVariable(f, v)
		if err != nil {
			return nil, err
		}
		t := &RateTable{
			Kind:        kind,
			Density:     density.Elements,
			Temperature: temperature.Elements,
			Values:      data,
			Units:       kind.Units(),
		}
		if err := uc.ConvertSlice(data.Elements, unitsAttribute(h, v), kind.Units()); err != nil {
			return nil, fmt.Errorf("radas: reading species %s %s: %v", s.Name, kind, err)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("radas: reading species %s: %v", s.Name, err)
		}
		s.Tables = append(s.Tables, t)
	}
	if len(s.Tables) == 0 {
		return nil, fmt.Errorf("radas: reading species %s: no rate coefficient variables", s.Name)
	}
	return s, nil
}

// WriteSpecies writes the rate coefficient tables of s, which must share
// a common grid, to a NetCDF file.
func WriteSpecies(w cdf.ReaderWriterAt, s *SpeciesData) error {
	if len(s.Tables) == 0 {
		return fmt.Errorf("radas: writing species %s: no rate tables", s.Name)
	}
	if err := CheckCommonGrid(s.Tables...); err != nil {
		return fmt.Errorf("radas: writing species %s: %w", s.Name, err)
	}
	t0 := s.Tables[0]
	h := cdf.NewHeader(
		[]string{DimChargeState, DimTemperature, DimDensity},
		[]int{s.AtomicNumber, len(t0.Temperature), len(t0.Density)})
	h.AddAttribute("", "comment", "radas rate coefficient file")
	h.AddAttribute("", "species_name", s.Name)
	h.AddAttribute("", "atomic_number", []int32{int32(s.AtomicNumber)})
	h.AddAttribute("", "data_version", DataVersion)

	h.AddVariable(densityVar, []string{DimDensity}, []float64{0})
	h.AddAttribute(densityVar, "units", "m**-3")
	h.AddVariable(temperatureVar, []string{DimTemperature}, []float64{0})
	h.AddAttribute(temperatureVar, "units", "eV")
	for _, t := range s.Tables {
		name := t.Kind.String()
		h.AddVariable(name, []string{DimChargeState, DimTemperature, DimDensity}, []float64{0})
		h.AddAttribute(name, "description", t.Kind.Description())
		if t.Units != "" {
			h.AddAttribute(name, "units", t.Units)
		}
	}
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("radas: writing species %s: %v", s.Name, err)
	}
	if err := writeVariable(f, densityVar, t0.Density); err != nil {
		return err
	}
	if err := writeVariable(f, temperatureVar, t0.Temperature); err != nil {
		return err
	}
	for _, t := range s.Tables {
		if err := writeVariable(f, t.Kind.String(), t.Values.Elements); err != nil {
			return err
		}
	}
	return nil
}

// unitsAttribute returns the units attribute of variable v, or "" if it
// has none.
func unitsAttribute(h *cdf.Header, v string) string {
	u, _ := h.GetAttribute(v, "units").(string)
	return u
}

// readVariable reads variable v out of netcdf file f.
func readVariable(f *cdf.File, v string) (*sparse.DenseArray, error) {
	dims := f.Header.Lengths(v)
	if len(dims) == 0 {
		return nil, fmt.Errorf("radas: read netcdf: variable %v not in file", v)
	}
	r := f.Reader(v, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("radas: read netcdf variable %s: %v", v, err)
	}
	vals, ok := buf.([]float64)
	if !ok {
		return nil, fmt.Errorf("radas: read netcdf variable %s: values are %T, not []float64", v, buf)
	}
	data := sparse.ZerosDense(append([]int(nil), dims...)...)
	copy(data.Elements, vals)
	return data, nil
}

// writeVariable writes data to variable v of netcdf file f.
func writeVariable(f *cdf.File, v string, data []float64) error {
	end := f.Header.Lengths(v)
	n := 1
	for _, d := range end {
		n *= d
	}
	if len(data) != n {
		return fmt.Errorf("radas: writing variable %s: dims are %d but array length is %d", v, n, len(data))
	}
	start := make([]int, len(end))
	w := f.Writer(v, start, end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("radas: writing variable %s to netcdf file: %v", v, err)
	}
	return nil
}
