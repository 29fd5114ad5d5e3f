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
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/plasmatools/radas"
	"github.com/plasmatools/radas/ode"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config holds the settings of a radas run.
type Config struct {
	// InputFiles maps species names to the paths of their rate
	// coefficient files.
	InputFiles map[string]string

	// Species are the species to process, in order.
	Species []string

	// OutputDir is the directory results are written to.
	OutputDir string

	// ReferenceFits is the path of a file of reference polynomial fits
	// to compare the results with, and ReferenceDensity [m**-3] the
	// electron density the comparison is made at.
	ReferenceFits    string
	ReferenceDensity float64

	Log *logrus.Logger

	Pipeline *radas.Pipeline
}

// ParseConfig reads and validates the run configuration held in cfg.
func ParseConfig(cfg *viper.Viper) (*Config, error) {
	c := new(Config)

	level, err := logrus.ParseLevel(cfg.GetString("LogLevel"))
	if err != nil {
		return nil, fmt.Errorf("radasutil: LogLevel: %v", err)
	}
	c.Log = newLogger(level)

	inputFiles, err := GetStringMapString("InputFiles", cfg)
	if err != nil {
		return nil, err
	}
	if len(inputFiles) == 0 {
		return nil, fmt.Errorf("radasutil: there are no input files specified. Please fill in " +
			"the InputFiles configuration and try again")
	}
	c.InputFiles = make(map[string]string, len(inputFiles))
	for k, v := range inputFiles {
		c.InputFiles[k] = os.ExpandEnv(v)
	}
	c.Species, err = checkSpecies(expandStringSlice(cfg.GetStringSlice("Species")), c.InputFiles)
	if err != nil {
		return nil, err
	}
	c.OutputDir = os.ExpandEnv(cfg.GetString("OutputDir"))
	if c.OutputDir == "" {
		return nil, fmt.Errorf("radasutil: OutputDir must be specified")
	}
	c.ReferenceFits = os.ExpandEnv(cfg.GetString("ReferenceFits"))
	c.ReferenceDensity = cfg.GetFloat64("ReferenceDensity")
	if c.ReferenceFits != "" && c.ReferenceDensity <= 0 {
		return nil, fmt.Errorf("radasutil: ReferenceDensity=%g but should be >0", c.ReferenceDensity)
	}

	p := &radas.Pipeline{
		Log:   c.Log,
		Units: radas.NewUnitConverter(),
	}
	if p.Density, err = floatSlice("ElectronDensity", cfg); err != nil {
		return nil, err
	}
	if p.Temperature, err = floatSlice("ElectronTemperature", cfg); err != nil {
		return nil, err
	}
	for _, g := range []struct {
		name string
		v    []float64
	}{{"ElectronDensity", p.Density}, {"ElectronTemperature", p.Temperature}} {
		for i, x := range g.v {
			if !(x > 0) {
				return nil, fmt.Errorf("radasutil: %s[%d]=%g but should be >0", g.name, i, x)
			}
			if i > 0 && !(x > g.v[i-1]) {
				return nil, fmt.Errorf("radasutil: %s must be strictly increasing", g.name)
			}
		}
	}
	p.DensityResolution = cfg.GetInt("DensityResolution")
	p.TemperatureResolution = cfg.GetInt("TemperatureResolution")
	if len(p.Density) == 0 && p.DensityResolution < 2 {
		return nil, fmt.Errorf("radasutil: DensityResolution=%d but should be >=2", p.DensityResolution)
	}
	if len(p.Temperature) == 0 && p.TemperatureResolution < 2 {
		return nil, fmt.Errorf("radasutil: TemperatureResolution=%d but should be >=2", p.TemperatureResolution)
	}

	order, err := radas.ParseInterpolationOrder(cfg.GetString("InterpolationOrder"))
	if err != nil {
		return nil, fmt.Errorf("radasutil: InterpolationOrder: %v", err)
	}
	cacheSize := cfg.GetInt("RegridCacheSize")
	if cacheSize < 1 {
		return nil, fmt.Errorf("radasutil: RegridCacheSize=%d but should be >0", cacheSize)
	}
	p.Regridder = radas.NewRegridder(order, cacheSize)

	if p.Evolution, err = evolutionConfig(cfg); err != nil {
		return nil, err
	}

	vars, err := GetStringMapString("OutputVariables", cfg)
	if err != nil {
		return nil, err
	}
	p.OutputVariables = checkOutputVars(vars)

	if s := cfg.GetString("Timeout"); s != "" {
		if p.Timeout, err = cast.ToDurationE(s); err != nil {
			return nil, fmt.Errorf("radasutil: Timeout: %v", err)
		}
		if p.Timeout < 0 {
			return nil, fmt.Errorf("radasutil: Timeout=%v but should be >=0", p.Timeout)
		}
	}
	p.Serial = cfg.GetBool("Serial")
	c.Pipeline = p
	return c, nil
}

// evolutionConfig reads the time evolution settings.
func evolutionConfig(cfg *viper.Viper) (radas.EvolutionConfig, error) {
	e := radas.EvolutionConfig{
		Start:    cfg.GetFloat64("EvolutionStart"),
		Stop:     cfg.GetFloat64("EvolutionStop"),
		NumTimes: cfg.GetInt("NumTimes"),
		Settings: ode.DefaultSettings(),
	}
	e.Settings.RelTol = cfg.GetFloat64("RelTol")
	e.Settings.AbsTol = cfg.GetFloat64("AbsTol")
	switch {
	case !(e.Start > 0):
		return e, fmt.Errorf("radasutil: EvolutionStart=%g but should be >0", e.Start)
	case !(e.Stop > e.Start):
		return e, fmt.Errorf("radasutil: EvolutionStop=%g but should be > EvolutionStart", e.Stop)
	case e.NumTimes < 2:
		return e, fmt.Errorf("radasutil: NumTimes=%d but should be >=2", e.NumTimes)
	case !(e.Settings.RelTol > 0):
		return e, fmt.Errorf("radasutil: RelTol=%g but should be >0", e.Settings.RelTol)
	case !(e.Settings.AbsTol > 0):
		return e, fmt.Errorf("radasutil: AbsTol=%g but should be >0", e.Settings.AbsTol)
	}
	var err error
	if e.NeTau, err = floatSlice("NeTau", cfg); err != nil {
		return e, err
	}
	if len(e.NeTau) == 0 {
		e.NeTau = []float64{math.Inf(1)}
	}
	for i, nt := range e.NeTau {
		if !(nt > 0) {
			return e, fmt.Errorf("radasutil: NeTau[%d]=%g but should be >0", i, nt)
		}
	}
	return e, nil
}

// newLogger returns a logger writing text entries at the given level.
func newLogger(level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	})
	l.SetLevel(level)
	return l
}

// checkSpecies returns the species to process: all species in inputFiles,
// sorted by name, if species is empty, otherwise species after checking
// that each has an input file.
func checkSpecies(species []string, inputFiles map[string]string) ([]string, error) {
	if len(species) == 0 {
		for s := range inputFiles {
			species = append(species, s)
		}
		sort.Strings(species)
		return species, nil
	}
	seen := make(map[string]bool)
	for _, s := range species {
		if _, ok := inputFiles[s]; !ok {
			return nil, fmt.Errorf("radasutil: species %s has no entry in InputFiles", s)
		}
		if seen[s] {
			return nil, fmt.Errorf("radasutil: species %s is repeated", s)
		}
		seen[s] = true
	}
	return species, nil
}

// checkOutputVars joins multi-line expressions and expands environment
// variables in the names and expressions of vars.
func checkOutputVars(vars map[string]string) map[string]string {
	o := make(map[string]string, len(vars))
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		o[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return o
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// floatSlice returns the list of numbers held by varName. Entries may be
// numbers or strings, including "inf".
func floatSlice(varName string, cfg *viper.Viper) ([]float64, error) {
	ss := cfg.GetStringSlice(varName)
	o := make([]float64, 0, len(ss))
	for _, s := range ss {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		v, err := cast.ToFloat64E(s)
		if err != nil {
			return nil, fmt.Errorf("radasutil: %s: %v", varName, err)
		}
		o = append(o, v)
	}
	return o, nil
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if strings.TrimSpace(v) == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("radasutil: %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("radasutil: invalid type for map variable %s: %#v", varName, i)
	}
}
