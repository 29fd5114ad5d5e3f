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

// Package reference evaluates published polynomial fits of the
// radiated power coefficient and mean charge state of impurities as
// functions of electron temperature and ne_tau, and compares radas
// results against them.
package reference

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/plasmatools/radas"
	"github.com/sirupsen/logrus"
)

const (
	// MinNeTau is the smallest ne_tau the fits are valid for [m**-3 s].
	MinNeTau = 1e15

	// CoronalNeTau is the ne_tau above which the fits are treated as
	// coronal [m**-3 s].
	CoronalNeTau = 1e19
)

// Quantity is the quantity a fit describes.
type Quantity string

// Quantities with published fits.
const (
	Lz         Quantity = "Lz"
	MeanCharge Quantity = "mean_charge"
)

// Fit is a piecewise bivariate cubic polynomial in
// X = log10(Te/eV) and Y = log10(ne_tau/1e19 m**-3 s), with one set of
// coefficients per temperature bin. The fitted value is 10^F with
// F = A0 + A1 X + A2 Y + A3 X² + A4 XY + A5 Y² + A6 X³ + A7 X²Y + A8 XY² + A9 Y³.
type Fit struct {
	Tmin []float64 `toml:"Tmin_eV"`
	Tmax []float64 `toml:"Tmax_eV"`

	A0, A1, A2, A3, A4, A5, A6, A7, A8, A9 []float64

	// YLims are plotting limits carried through from the source.
	YLims []float64 `toml:"ylims"`
}

func (f *Fit) coefficients() [10][]float64 {
	return [10][]float64{f.A0, f.A1, f.A2, f.A3, f.A4, f.A5, f.A6, f.A7, f.A8, f.A9}
}

// Validate checks that f has the same number of entries in every
// coefficient list.
func (f *Fit) Validate() error {
	n := len(f.Tmin)
	if n == 0 {
		return fmt.Errorf("reference: fit has no temperature bins")
	}
	if len(f.Tmax) != n {
		return fmt.Errorf("reference: fit has %d Tmin_eV values but %d Tmax_eV values", n, len(f.Tmax))
	}
	for i, a := range f.coefficients() {
		if len(a) != n {
			return fmt.Errorf("reference: fit has %d temperature bins but %d A%d values", n, len(a), i)
		}
	}
	for i := 0; i < n; i++ {
		if !(f.Tmin[i] < f.Tmax[i]) {
			return fmt.Errorf("reference: temperature bin %d [%g, %g] eV is empty", i, f.Tmin[i], f.Tmax[i])
		}
	}
	return nil
}

// RangeWarning reports a point outside the range of a fit.
type RangeWarning struct {
	Te, NeTau float64
	Reason    string
}

func (w RangeWarning) Error() string {
	return fmt.Sprintf("reference: Te=%g eV, ne_tau=%g m**-3 s: %s", w.Te, w.NeTau, w.Reason)
}

// Evaluate returns the fitted value at electron temperature te [eV] and
// ne_tau [m**-3 s]. Points outside the fitted temperature range or below
// MinNeTau give NaN and a RangeWarning. Points above CoronalNeTau are
// evaluated at CoronalNeTau and also give a RangeWarning.
func (f *Fit) Evaluate(te, neTau float64) (float64, error) {
	n := len(f.Tmin)
	if !(f.Tmin[0] <= te && te <= f.Tmax[n-1]) {
		return math.NaN(), RangeWarning{Te: te, NeTau: neTau,
			Reason: fmt.Sprintf("outside fitted range %g eV to %g eV", f.Tmin[0], f.Tmax[n-1])}
	}
	if neTau < MinNeTau {
		return math.NaN(), RangeWarning{Te: te, NeTau: neTau,
			Reason: fmt.Sprintf("below fitted range %g m**-3 s", MinNeTau)}
	}
	var warn error
	x := math.Log10(te)
	y := math.Log10(neTau / CoronalNeTau)
	if y > 0 {
		y = 0
		warn = RangeWarning{Te: te, NeTau: neTau, Reason: "treated as coronal"}
	}
	bin := -1
	for i := 0; i < n; i++ {
		if f.Tmin[i] <= te && te <= f.Tmax[i] {
			bin = i
		}
	}
	if bin < 0 {
		return math.NaN(), RangeWarning{Te: te, NeTau: neTau, Reason: "in a gap between temperature bins"}
	}
	c := f.coefficients()
	a := func(i int) float64 { return c[i][bin] }
	F := a(0) + a(1)*x + a(2)*y + a(3)*x*x + a(4)*x*y + a(5)*y*y +
		a(6)*x*x*x + a(7)*x*x*y + a(8)*x*y*y + a(9)*y*y*y
	return math.Pow(10, F), warn
}

// Set holds fits keyed by "<species>_<quantity>", for example
// "helium_Lz" or "helium_mean_charge".
type Set map[string]*Fit

// Read reads a Set from TOML and validates every fit.
func Read(r io.Reader) (Set, error) {
	var s Set
	if _, err := toml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("reference: %v", err)
	}
	for name, f := range s {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("%v (%s)", err, name)
		}
	}
	return s, nil
}

// Get returns the fit of quantity q for species.
func (s Set) Get(species string, q Quantity) (*Fit, bool) {
	f, ok := s[species+"_"+string(q)]
	return f, ok
}

// Species returns the species with at least one fit, sorted by name.
func (s Set) Species() []string {
	seen := map[string]bool{}
	for k := range s {
		k = strings.TrimSuffix(strings.TrimSuffix(k, "_"+string(Lz)), "_"+string(MeanCharge))
		seen[k] = true
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Comparison summarises the deviation of a radas result from a fit.
type Comparison struct {
	Species  string
	Quantity Quantity
	Density  float64 // electron density the comparison was made at [m**-3]

	// MaxRelativeDeviation is the largest |radas-fit|/|fit| over the
	// points where the fit is defined.
	MaxRelativeDeviation float64

	// Points is the number of points compared, and Skipped the number
	// outside the range of the fit.
	Points, Skipped int
}

// fields maps each quantity to the radas equilibrium result it is
// compared with.
var fields = map[Quantity]string{
	Lz:         radas.EquilibriumLz,
	MeanCharge: radas.EquilibriumMeanCharge,
}

// Compare compares the equilibrium Lz and mean charge state in r at the
// result density closest to density [m**-3] with the fits for r's
// species in s. Range warnings are logged at debug level.
func Compare(r *radas.Results, s Set, density float64, log logrus.FieldLogger) ([]Comparison, error) {
	if len(r.Density) == 0 {
		return nil, fmt.Errorf("reference: %s: results have no density grid", r.Species)
	}
	id := 0
	for i, d := range r.Density {
		if math.Abs(math.Log(d/density)) < math.Abs(math.Log(r.Density[id]/density)) {
			id = i
		}
	}
	var out []Comparison
	for _, q := range []Quantity{Lz, MeanCharge} {
		fit, ok := s.Get(r.Species, q)
		if !ok {
			continue
		}
		field, ok := r.Field(fields[q])
		if !ok {
			return nil, fmt.Errorf("reference: %s: results have no %s field", r.Species, fields[q])
		}
		c := Comparison{Species: r.Species, Quantity: q, Density: r.Density[id]}
		for in, nt := range r.NeTau {
			for it, te := range r.Temperature {
				want, err := fit.Evaluate(te, nt)
				if err != nil {
					log.WithFields(logrus.Fields{
						"species":  r.Species,
						"quantity": q,
					}).Debug(err)
				}
				if math.IsNaN(want) {
					c.Skipped++
					continue
				}
				got := field.Data.Get(in, it, id)
				dev := math.Abs(got-want) / math.Abs(want)
				if dev > c.MaxRelativeDeviation || math.IsNaN(dev) {
					c.MaxRelativeDeviation = dev
				}
				c.Points++
			}
		}
		out = append(out, c)
	}
	return out, nil
}
