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

package radasutil

import (
	"context"
	"fmt"
	"os"

	"github.com/plasmatools/radas"
	"github.com/plasmatools/radas/reference"
	"github.com/sirupsen/logrus"
)

// Run reads the input files of the configured species, computes their
// results and writes one file per species to c.OutputDir. It returns the
// paths of the files written. Species that fail are logged and skipped;
// the first failure is returned after the others have been written.
func Run(ctx context.Context, c *Config) ([]string, error) {
	species := make([]*radas.SpeciesData, 0, len(c.Species))
	for _, name := range c.Species {
		s, err := readSpecies(c.InputFiles[name], c.Pipeline.Units)
		if err != nil {
			return nil, err
		}
		if s.Name != name {
			c.Log.WithFields(logrus.Fields{
				"species": name,
				"file":    c.InputFiles[name],
			}).Warnf("input file is for species %s", s.Name)
			s.Name = name
		}
		if err := checkAtomicNumber(name, s.AtomicNumber); err != nil {
			return nil, err
		}
		species = append(species, s)
	}

	var refs reference.Set
	if c.ReferenceFits != "" {
		f, err := os.Open(c.ReferenceFits)
		if err != nil {
			return nil, fmt.Errorf("radasutil: %v", err)
		}
		refs, err = reference.Read(f)
		f.Close()
		if err != nil {
			return nil, err
		}
	}

	var paths []string
	var firstErr error
	for _, sr := range c.Pipeline.RunAll(ctx, species) {
		if sr.Err != nil {
			if firstErr == nil {
				firstErr = sr.Err
			}
			continue
		}
		path, err := sr.Results.Save(c.OutputDir)
		if err != nil {
			return paths, err
		}
		c.Log.WithFields(logrus.Fields{"species": sr.Species, "file": path}).Info("wrote results")
		paths = append(paths, path)
		if refs != nil {
			if err := compareReference(c.Log, sr.Results, refs, c.ReferenceDensity); err != nil {
				return paths, err
			}
		}
	}
	return paths, firstErr
}

func readSpecies(path string, uc *radas.UnitConverter) (*radas.SpeciesData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("radasutil: %v", err)
	}
	defer f.Close()
	s, err := radas.ReadSpecies(f, uc)
	if err != nil {
		return nil, fmt.Errorf("radasutil: %s: %w", path, err)
	}
	return s, nil
}

// compareReference logs the deviation of r from the reference fits.
func compareReference(log logrus.FieldLogger, r *radas.Results, refs reference.Set, density float64) error {
	cmp, err := reference.Compare(r, refs, density, log)
	if err != nil {
		return err
	}
	if len(cmp) == 0 {
		log.WithField("species", r.Species).Info("no reference fits")
	}
	for _, c := range cmp {
		log.WithFields(logrus.Fields{
			"species":       c.Species,
			"quantity":      c.Quantity,
			"density":       c.Density,
			"max_deviation": c.MaxRelativeDeviation,
			"points":        c.Points,
			"skipped":       c.Skipped,
		}).Info("compared with reference fit")
	}
	return nil
}

// WriteSynthetic writes a rate coefficient file of synthetic,
// hydrogen-like rate coefficients for a species with atomic number z on
// the given grids.
func WriteSynthetic(path, name string, z int, density, temperature []float64) error {
	s, err := radas.SyntheticSpecies(name, z, density, temperature)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("radasutil: %v", err)
	}
	if err := radas.WriteSpecies(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
