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
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed species.toml
var speciesTOML string

// SpeciesInfo describes an entry in the species catalogue.
type SpeciesInfo struct {
	Symbol       string `toml:"symbol"`
	AtomicNumber int    `toml:"atomic_number"`
}

var (
	catalogue     map[string]SpeciesInfo
	catalogueErr  error
	catalogueOnce sync.Once
)

// Catalogue returns the built-in species catalogue, keyed by lower-case
// species name.
func Catalogue() (map[string]SpeciesInfo, error) {
	catalogueOnce.Do(func() {
		if _, err := toml.Decode(speciesTOML, &catalogue); err != nil {
			catalogueErr = fmt.Errorf("radasutil: reading species catalogue: %v", err)
		}
	})
	return catalogue, catalogueErr
}

// AtomicNumber returns the atomic number of the named species. ok is
// false if the species is not in the catalogue.
func AtomicNumber(name string) (z int, ok bool, err error) {
	c, err := Catalogue()
	if err != nil {
		return 0, false, err
	}
	s, ok := c[strings.ToLower(name)]
	return s.AtomicNumber, ok, nil
}

// checkAtomicNumber returns an error if the catalogue lists species with
// an atomic number other than z.
func checkAtomicNumber(species string, z int) error {
	want, ok, err := AtomicNumber(species)
	if err != nil || !ok {
		return err
	}
	if want != z {
		return fmt.Errorf("radasutil: %s has atomic number %d in its input file but %d in the species catalogue", species, z, want)
	}
	return nil
}
