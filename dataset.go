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
	"fmt"
	"sort"
	"sync"

	"github.com/ctessum/sparse"
)

// ErrAlreadyAligned is returned when a Dataset is aligned a second time.
var ErrAlreadyAligned = errors.New("radas: dataset has already been aligned")

// Dataset holds the rate coefficients of one species on a common
// (density, temperature) grid, with the charge-state axis as stored:
// AtomicNumber entries per field, where recombination-type fields are
// indexed by the product charge state.
type Dataset struct {
	Species      string
	AtomicNumber int
	Density      []float64 // [m**-3]
	Temperature  []float64 // [eV]
	Fields       map[ReactionKind]*InterpolatedRateField

	mu      sync.Mutex
	aligned bool
}

// NewDataset checks that fields share a common grid and have one
// entry per charge state from 0 to atomicNumber-1, and returns them
// as a Dataset.
func NewDataset(species string, atomicNumber int, fields ...*InterpolatedRateField) (*Dataset, error) {
	if atomicNumber < 1 {
		return nil, fmt.Errorf("radas: %s: atomic number %d must be at least 1", species, atomicNumber)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("radas: %s: no rate coefficient fields", species)
	}
	d := &Dataset{
		Species:      species,
		AtomicNumber: atomicNumber,
		Density:      fields[0].Density,
		Temperature:  fields[0].Temperature,
		Fields:       make(map[ReactionKind]*InterpolatedRateField, len(fields)),
	}
	if err := checkGrid("density", d.Density); err != nil {
		return nil, fmt.Errorf("radas: %s: %v", species, err)
	}
	if err := checkGrid("temperature", d.Temperature); err != nil {
		return nil, fmt.Errorf("radas: %s: %v", species, err)
	}
	for _, f := range fields {
		if !f.Kind.valid() {
			return nil, UnsupportedReactionKindError{Code: int(f.Kind)}
		}
		if _, ok := d.Fields[f.Kind]; ok {
			return nil, fmt.Errorf("radas: %s: duplicate %s field", species, f.Kind)
		}
		if !sameGrid(d.Density, f.Density) || !sameGrid(d.Temperature, f.Temperature) {
			return nil, fmt.Errorf("radas: %s: %s field is not on the common grid", species, f.Kind)
		}
		want := []int{atomicNumber, len(d.Temperature), len(d.Density)}
		if len(f.Values.Shape) != 3 || f.Values.Shape[0] != want[0] || f.Values.Shape[1] != want[1] || f.Values.Shape[2] != want[2] {
			return nil, fmt.Errorf("radas: %s: %s field has shape %v but should have shape %v",
				species, f.Kind, f.Values.Shape, want)
		}
		d.Fields[f.Kind] = f
	}
	return d, nil
}

// Kinds returns the reaction kinds present in d, in canonical order.
func (d *Dataset) Kinds() []ReactionKind {
	k := make([]ReactionKind, 0, len(d.Fields))
	for kind := range d.Fields {
		k = append(k, kind)
	}
	sort.Slice(k, func(i, j int) bool { return k[i] < k[j] })
	return k
}

// Align puts every field of d onto the charge-state axis 0..AtomicNumber.
// Each field is padded with a zero-valued top charge state, and
// recombination-type fields are then rolled up by one position so that
// entry k describes the transition with charge state k as the reactant.
// Entry 0 of recombination-type fields is therefore the zero padding.
//
// Align may only be called once per Dataset; later calls return
// ErrAlreadyAligned. d is not modified.
func (d *Dataset) Align() (*AlignedDataset, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.aligned {
		return nil, ErrAlreadyAligned
	}
	a := &AlignedDataset{
		Species:      d.Species,
		AtomicNumber: d.AtomicNumber,
		Density:      d.Density,
		Temperature:  d.Temperature,
		rates:        make(map[ReactionKind]*sparse.DenseArray, len(d.Fields)),
		units:        make(map[ReactionKind]string, len(d.Fields)),
	}
	n := d.AtomicNumber + 1
	nt, nd := len(d.Temperature), len(d.Density)
	for kind, f := range d.Fields {
		shift := 0
		if kind.Alignment() == RecombinationType {
			shift = 1
		}
		r := sparse.ZerosDense(n, nt, nd)
		for k := 0; k < d.AtomicNumber; k++ {
			dst := (k + shift) % n
			for j := 0; j < nt; j++ {
				for i := 0; i < nd; i++ {
					r.Set(f.Values.Get(k, j, i), dst, j, i)
				}
			}
		}
		a.rates[kind] = r
		a.units[kind] = f.Units
	}
	d.aligned = true
	return a, nil
}

// AlignedDataset holds rate coefficients on the aligned charge-state
// axis 0..AtomicNumber. It can only be created by Dataset.Align.
type AlignedDataset struct {
	Species      string
	AtomicNumber int
	Density      []float64 // [m**-3]
	Temperature  []float64 // [eV]

	rates map[ReactionKind]*sparse.DenseArray // (charge, temperature, density)
	units map[ReactionKind]string
}

// NumChargeStates returns AtomicNumber+1.
func (a *AlignedDataset) NumChargeStates() int { return a.AtomicNumber + 1 }

// Has reports whether a holds coefficients for kind.
func (a *AlignedDataset) Has(kind ReactionKind) bool {
	_, ok := a.rates[kind]
	return ok
}

// Rate returns the aligned coefficients for kind, with shape
// (charge state, temperature, density). The returned array must not be
// modified.
func (a *AlignedDataset) Rate(kind ReactionKind) (*sparse.DenseArray, error) {
	r, ok := a.rates[kind]
	if !ok {
		return nil, fmt.Errorf("radas: %s: no %s coefficients", a.Species, kind)
	}
	return r, nil
}

// Units returns the units of the coefficients of kind, or "" if a
// holds none.
func (a *AlignedDataset) Units(kind ReactionKind) string { return a.units[kind] }

// Coefficients fills dst with the aligned coefficients of kind at
// temperature index it and density index id, indexed by charge state,
// and returns it. dst is allocated if it is too short.
func (a *AlignedDataset) Coefficients(kind ReactionKind, it, id int, dst []float64) ([]float64, error) {
	r, err := a.Rate(kind)
	if err != nil {
		return nil, err
	}
	n := a.NumChargeStates()
	if len(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	for k := range dst {
		dst[k] = r.Get(k, it, id)
	}
	return dst, nil
}

// RecombinationFromAbove fills dst with the effective recombination
// coefficients at temperature index it and density index id, shifted
// down by one charge state so that entry k is the k+1->k coefficient.
// The last entry, for the fully stripped ion, is the zero padding
// rolled round from the bottom of the aligned axis.
func (a *AlignedDataset) RecombinationFromAbove(it, id int, dst []float64) ([]float64, error) {
	r, err := a.Rate(EffectiveRecombination)
	if err != nil {
		return nil, err
	}
	n := a.NumChargeStates()
	if len(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	for k := range dst {
		dst[k] = r.Get((k+1)%n, it, id)
	}
	return dst, nil
}
