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
	"os"
	"path/filepath"

	"github.com/ctessum/cdf"
)

// WriteResults writes r to a NetCDF file, with one variable per result
// field and coordinate variables for every axis.
func WriteResults(w cdf.ReaderWriterAt, r *Results) error {
	if len(r.NeTau) == 0 || len(r.Times) == 0 {
		return fmt.Errorf("radas: writing results for %s: no time evolution", r.Species)
	}
	nc := r.AtomicNumber + 1
	charge := make([]float64, nc)
	for k := range charge {
		charge[k] = float64(k)
	}
	coords := []struct {
		dim, name, units string
		data             []float64
	}{
		{DimChargeState, chargeVar, "", charge},
		{DimTemperature, temperatureVar, "eV", r.Temperature},
		{DimDensity, densityVar, "m**-3", r.Density},
		{DimNeTau, neTauVar, "m**-3 s", r.NeTau},
		{DimTime, timeVar, "s", r.Times},
	}
	dims := make([]string, len(coords))
	lengths := make([]int, len(coords))
	for i, c := range coords {
		dims[i], lengths[i] = c.dim, len(c.data)
	}
	h := cdf.NewHeader(dims, lengths)
	h.AddAttribute("", "comment", "radas charge state distribution and radiated power results")
	h.AddAttribute("", "species_name", r.Species)
	h.AddAttribute("", "atomic_number", []int32{int32(r.AtomicNumber)})
	h.AddAttribute("", "radas_version", Version)
	h.AddAttribute("", "data_version", DataVersion)

	for _, c := range coords {
		h.AddVariable(c.name, []string{c.dim}, []float64{0})
		if c.units != "" {
			h.AddAttribute(c.name, "units", c.units)
		}
	}
	names := map[string]bool{}
	for _, c := range coords {
		names[c.name] = true
	}
	for _, f := range r.Fields {
		if names[f.Name] {
			return fmt.Errorf("radas: writing results for %s: repeated variable %s", r.Species, f.Name)
		}
		names[f.Name] = true
		if len(f.Dims) != len(f.Data.Shape) {
			return fmt.Errorf("radas: writing results for %s: field %s has %d dims but %d axes",
				r.Species, f.Name, len(f.Dims), len(f.Data.Shape))
		}
		h.AddVariable(f.Name, f.Dims, []float64{0})
		if f.Description != "" {
			h.AddAttribute(f.Name, "description", f.Description)
		}
		if f.Units != "" {
			h.AddAttribute(f.Name, "units", f.Units)
		}
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("radas: writing results for %s: %v", r.Species, errs[0])
	}

	ff, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("radas: writing results for %s: %v", r.Species, err)
	}
	for _, c := range coords {
		if err := writeVariable(ff, c.name, c.data); err != nil {
			return err
		}
	}
	for _, f := range r.Fields {
		if err := writeVariable(ff, f.Name, f.Data.Elements); err != nil {
			return err
		}
	}
	return nil
}

// Save writes r to <species>.nc in dir, creating dir if necessary, and
// returns the path of the file.
func (r *Results) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("radas: %v", err)
	}
	path := filepath.Join(dir, r.Species+".nc")
	w, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("radas: %v", err)
	}
	if err := WriteResults(w, r); err != nil {
		w.Close()
		return "", err
	}
	return path, w.Close()
}

// ReadResults reads results written by WriteResults.
func ReadResults(rw cdf.ReaderWriterAt) (*Results, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("radas: reading results: %v", err)
	}
	h := f.Header
	r := new(Results)
	r.Species, _ = h.GetAttribute("", "species_name").(string)
	z, ok := h.GetAttribute("", "atomic_number").([]int32)
	if !ok || len(z) != 1 {
		return nil, fmt.Errorf("radas: reading results for %s: missing atomic_number attribute", r.Species)
	}
	r.AtomicNumber = int(z[0])

	coords := map[string]*[]float64{
		temperatureVar: &r.Temperature,
		densityVar:     &r.Density,
		neTauVar:       &r.NeTau,
		timeVar:        &r.Times,
	}
	for _, v := range h.Variables() {
		data, err := readVariable(f, v)
		if err != nil {
			return nil, err
		}
		if dst, ok := coords[v]; ok {
			*dst = data.Elements
			continue
		}
		if v == chargeVar {
			continue
		}
		desc, _ := h.GetAttribute(v, "description").(string)
		r.add(&Field{
			Name:        v,
			Dims:        h.Dimensions(v),
			Units:       unitsAttribute(h, v),
			Description: desc,
			Data:        data,
		})
	}
	return r, nil
}
