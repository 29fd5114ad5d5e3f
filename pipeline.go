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
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// SpeciesData holds the rate tables of one species as read from its
// input file.
type SpeciesData struct {
	Name         string
	AtomicNumber int
	Tables       []*RateTable
}

// Table returns the table of the given kind, or nil.
func (s *SpeciesData) Table(kind ReactionKind) *RateTable {
	for _, t := range s.Tables {
		if t.Kind == kind {
			return t
		}
	}
	return nil
}

// Field is a named result array tagged with its axes and units.
type Field struct {
	Name        string
	Dims        []string
	Units       string
	Description string
	Data        *sparse.DenseArray
}

// Results holds the outputs of the pipeline for one species.
type Results struct {
	Species      string
	AtomicNumber int

	// Coordinates of the result axes.
	Density     []float64 // [m**-3]
	Temperature []float64 // [eV]
	NeTau       []float64 // [m**-3 s]
	Times       []float64 // [s]

	Fields []*Field
}

// Field returns the result field called name.
func (r *Results) Field(name string) (*Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

func (r *Results) add(f *Field) { r.Fields = append(r.Fields, f) }

// Names of the result fields produced by Pipeline.Run.
const (
	CoronalFraction        = "coronal_charge_state_fraction"
	CoronalMeanChargeState = "coronal_mean_charge_state"
	CoronalLz              = "coronal_Lz"
	ResidenceTimeField     = "residence_time"
	ChargeStateEvolution   = "charge_state_evolution"
	EquilibriumFraction    = "equilibrium_charge_state_fraction"
	EquilibriumMeanCharge  = "equilibrium_mean_charge_state"
	EquilibriumLz          = "equilibrium_Lz"
)

const (
	defaultRegridCacheSize = 1000
	defaultGridResolution  = 100

	neTauUnits = "m**-3 s"
	neUnits    = "m**-3"
)

// Pipeline computes charge state distributions and radiated power
// coefficients from the rate tables of a species.
type Pipeline struct {
	// Log receives progress and normalization warnings. If nil,
	// logrus.StandardLogger is used.
	Log logrus.FieldLogger

	// Units converts between units. If nil, NewUnitConverter is used.
	Units *UnitConverter

	// Regridder resamples rate tables onto the query grid. If nil, a
	// cubic Regridder is created on first use.
	Regridder *Regridder

	// Density [m**-3] and Temperature [eV] are the query grids. When
	// empty, logarithmically spaced grids of DensityResolution and
	// TemperatureResolution points spanning the common grid of the input
	// tables are used.
	Density, Temperature                     []float64
	DensityResolution, TemperatureResolution int

	// Evolution configures the time evolution.
	Evolution EvolutionConfig

	// OutputVariables maps derived output names to expressions of the
	// equilibrium and coronal results.
	OutputVariables map[string]string

	// OutputFunctions are functions available to OutputVariables in
	// addition to the default ones.
	OutputFunctions map[string]govaluate.ExpressionFunction

	// Timeout bounds the time spent on each species. Zero means no bound.
	Timeout time.Duration

	// Serial disables parallel processing of species in RunAll.
	Serial bool

	once sync.Once
}

func (p *Pipeline) init() {
	p.once.Do(func() {
		if p.Log == nil {
			p.Log = logrus.StandardLogger()
		}
		if p.Units == nil {
			p.Units = NewUnitConverter()
		}
		if p.Regridder == nil {
			p.Regridder = NewRegridder(Cubic, defaultRegridCacheSize)
		}
	})
}

// grids returns the query grids for tables sharing the given source grid.
func (p *Pipeline) grids(density, temperature []float64) (qd, qt []float64, err error) {
	qd, qt = p.Density, p.Temperature
	if len(qd) == 0 {
		n := p.DensityResolution
		if n == 0 {
			n = defaultGridResolution
		}
		if qd, err = LogGrid(floats.Min(density), floats.Max(density), n); err != nil {
			return nil, nil, err
		}
	}
	if len(qt) == 0 {
		n := p.TemperatureResolution
		if n == 0 {
			n = defaultGridResolution
		}
		if qt, err = LogGrid(floats.Min(temperature), floats.Max(temperature), n); err != nil {
			return nil, nil, err
		}
	}
	return qd, qt, nil
}

// Run computes the results for one species: the interpolated rate
// coefficients, the coronal and time-evolved charge state fractions,
// their mean charge states and radiated power coefficients, the
// residence time and any derived output variables.
func (p *Pipeline) Run(ctx context.Context, s *SpeciesData) (*Results, error) {
	p.init()
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	log := p.Log.WithField("species", s.Name)
	start := time.Now()

	if len(s.Tables) == 0 {
		return nil, fmt.Errorf("radas: %s: no rate tables", s.Name)
	}
	if err := CheckCommonGrid(s.Tables...); err != nil {
		return nil, fmt.Errorf("radas: %s: %w", s.Name, err)
	}
	qd, qt, err := p.grids(s.Tables[0].Density, s.Tables[0].Temperature)
	if err != nil {
		return nil, fmt.Errorf("radas: %s: %w", s.Name, err)
	}

	log.WithFields(logrus.Fields{
		"tables":      len(s.Tables),
		"density":     len(qd),
		"temperature": len(qt),
		"order":       p.Regridder.Order(),
	}).Info("interpolating rate coefficients")
	fields := make([]*InterpolatedRateField, len(s.Tables))
	for i, t := range s.Tables {
		if fields[i], err = p.Regridder.Regrid(ctx, s.Name, t, qd, qt); err != nil {
			return nil, fmt.Errorf("radas: %s: %w", s.Name, err)
		}
	}
	ds, err := NewDataset(s.Name, s.AtomicNumber, fields...)
	if err != nil {
		return nil, err
	}
	a, err := ds.Align()
	if err != nil {
		return nil, err
	}

	r := &Results{
		Species:      s.Name,
		AtomicNumber: s.AtomicNumber,
		Density:      qd,
		Temperature:  qt,
	}
	for _, f := range fields {
		r.add(&Field{
			Name:        f.Kind.String(),
			Dims:        []string{DimChargeState, DimTemperature, DimDensity},
			Units:       f.Units,
			Description: f.Kind.Description(),
			Data:        a.rates[f.Kind],
		})
	}

	log.Info("calculating coronal equilibrium")
	coronal, err := a.Coronal()
	if err != nil {
		return nil, err
	}
	logNormalization(log, s.Name, CoronalFraction, coronal)
	if err := p.addFractionFields(r, a, coronal, "coronal", CoronalFraction, CoronalMeanChargeState, CoronalLz); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"ne_tau": p.Evolution.NeTau,
		"start":  p.Evolution.Start,
		"stop":   p.Evolution.Stop,
	}).Info("calculating time evolution")
	evo, err := a.Evolve(ctx, p.Evolution)
	if err != nil {
		return nil, err
	}
	r.NeTau = evo.NeTau
	r.Times = evo.Times
	logNormalization(log, s.Name, ChargeStateEvolution, evo.Fraction)
	r.add(&Field{
		Name:        ChargeStateEvolution,
		Dims:        evo.Fraction.Dims,
		Units:       "",
		Description: "charge state fractions as a function of time",
		Data:        evo.Fraction.Values,
	})

	rt, err := ResidenceTime(evo.NeTau, neTauUnits, qd, neUnits, p.Units)
	if err != nil {
		return nil, err
	}
	r.add(&Field{
		Name:        ResidenceTimeField,
		Dims:        []string{DimNeTau, DimDensity},
		Units:       "s",
		Description: "impurity residence time",
		Data:        rt,
	})

	if err := p.addFractionFields(r, a, evo.Equilibrium(), "equilibrium", EquilibriumFraction, EquilibriumMeanCharge, EquilibriumLz); err != nil {
		return nil, err
	}

	if len(p.OutputVariables) > 0 {
		if err := p.addDerived(r); err != nil {
			return nil, err
		}
	}

	log.WithField("duration", time.Since(start)).Info("finished")
	return r, nil
}

// addFractionFields adds the fractions f together with their mean charge
// state and, if the emission coefficients are present, their radiated
// power coefficient.
func (p *Pipeline) addFractionFields(r *Results, a *AlignedDataset, f *ChargeStateFraction, label, fracName, meanName, lzName string) error {
	r.add(&Field{
		Name:        fracName,
		Dims:        f.Dims,
		Units:       "",
		Description: label + " charge state fractions",
		Data:        f.Values,
	})
	r.add(&Field{
		Name:        meanName,
		Dims:        f.Dims[1:],
		Units:       "",
		Description: label + " mean charge state",
		Data:        f.MeanChargeState(),
	})
	if !a.Has(LineEmission) || !a.Has(ContinuumEmission) {
		p.Log.WithFields(logrus.Fields{
			"species": a.Species,
			"field":   lzName,
		}).Warn("missing emission coefficients; skipping radiated power")
		return nil
	}
	lz, err := a.Lz(f, p.Units)
	if err != nil {
		return err
	}
	r.add(&Field{
		Name:        lzName,
		Dims:        f.Dims[1:],
		Units:       LzUnits,
		Description: label + " radiated power coefficient",
		Data:        lz,
	})
	return nil
}

// SpeciesResult pairs the results of a species with any error.
type SpeciesResult struct {
	Species string
	Results *Results
	Err     error
}

// RunAll runs the pipeline for every species, in parallel unless
// p.Serial is set. The results are returned in the order of species.
// A failure of one species does not stop the others.
func (p *Pipeline) RunAll(ctx context.Context, species []*SpeciesData) []SpeciesResult {
	p.init()
	out := make([]SpeciesResult, len(species))
	run := func(i int) {
		r, err := p.Run(ctx, species[i])
		out[i] = SpeciesResult{Species: species[i].Name, Results: r, Err: err}
		if err != nil {
			p.Log.WithField("species", species[i].Name).Error(err)
		}
	}
	if p.Serial {
		for i := range species {
			run(i)
		}
		return out
	}
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for i := pp; i < len(species); i += nprocs {
				run(i)
			}
		}(pp)
	}
	wg.Wait()
	return out
}
