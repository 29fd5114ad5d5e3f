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
	"strings"
	"sync"

	"github.com/ctessum/unit"
)

// electronVolt is the energy of one electron volt [J].
const electronVolt = 1.602176634e-19

var (
	perMeter3        = unit.Dimensions{unit.LengthDim: -3}
	wattMeter3       = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: 5, unit.TimeDim: -3}
	perMeter3Seconds = unit.Dimensions{unit.LengthDim: -3, unit.TimeDim: 1}
)

type unitDef struct {
	factor float64 // multiply by factor to get SI
	dims   unit.Dimensions
}

// UnitConverter converts values between named units, checking that
// the dimensions of the source and destination units match.
// It is safe for concurrent use.
type UnitConverter struct {
	mu   sync.RWMutex
	defs map[string]unitDef
}

// NewUnitConverter returns a UnitConverter that knows about the units
// used by rate coefficient tables and pipeline parameters.
func NewUnitConverter() *UnitConverter {
	return &UnitConverter{
		defs: map[string]unitDef{
			"":         {1, unit.Dimless},
			"m**-3":    {1, perMeter3},
			"cm**-3":   {1e6, perMeter3},
			"eV":       {electronVolt, unit.Joule},
			"J":        {1, unit.Joule},
			"s":        {1, unit.Second},
			"m**3/s":   {1, unit.Meter3PerSecond},
			"cm**3/s":  {1e-6, unit.Meter3PerSecond},
			"W m**3":   {1, wattMeter3},
			"W cm**3":  {1e-6, wattMeter3},
			"m**-3 s":  {1, perMeter3Seconds},
			"cm**-3 s": {1e6, perMeter3Seconds},
		},
	}
}

func normalizeUnits(u string) string {
	u = strings.Replace(u, "^", "**", -1)
	return strings.Join(strings.Fields(u), " ")
}

// Define adds or replaces the unit named name, where one of the new unit
// is equal to factor in the SI units with dimensions dims.
func (c *UnitConverter) Define(name string, factor float64, dims unit.Dimensions) {
	c.mu.Lock()
	c.defs[normalizeUnits(name)] = unitDef{factor: factor, dims: dims}
	c.mu.Unlock()
}

func (c *UnitConverter) lookup(name string) (unitDef, error) {
	c.mu.RLock()
	d, ok := c.defs[normalizeUnits(name)]
	c.mu.RUnlock()
	if !ok {
		return d, fmt.Errorf("radas: unknown units %q", name)
	}
	return d, nil
}

// Quantity returns v, in units u, as a dimensioned SI value.
func (c *UnitConverter) Quantity(v float64, u string) (*unit.Unit, error) {
	d, err := c.lookup(u)
	if err != nil {
		return nil, err
	}
	return unit.New(v*d.factor, d.dims), nil
}

// Convert converts v from units from to units to.
func (c *UnitConverter) Convert(v float64, from, to string) (float64, error) {
	q, err := c.Quantity(v, from)
	if err != nil {
		return 0, err
	}
	d, err := c.lookup(to)
	if err != nil {
		return 0, err
	}
	if err := q.Check(d.dims); err != nil {
		return 0, fmt.Errorf("radas: converting %s to %s: %v", from, to, err)
	}
	return q.Value() / d.factor, nil
}

// Factor returns the number that values in units from must be multiplied
// by to express them in units to.
func (c *UnitConverter) Factor(from, to string) (float64, error) {
	return c.Convert(1, from, to)
}

// ConvertSlice converts every element of v in place from units from to
// units to.
func (c *UnitConverter) ConvertSlice(v []float64, from, to string) error {
	f, err := c.Factor(from, to)
	if err != nil {
		return err
	}
	for i := range v {
		v[i] *= f
	}
	return nil
}
