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

// Package radasutil contains the radas command-line interface and its
// configuration.
package radasutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/plasmatools/radas"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to radas.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the least severe level of log messages to print:
              one of panic, fatal, error, warn, info, debug or trace.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "InputFiles",
			usage: `
              InputFiles maps species names to the paths of their rate
              coefficient files, for example {"helium":"$DATA/helium.nc"}.
              Paths can include environment variables.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Species",
			usage: `
              Species lists the species to process. If empty, every species
              in InputFiles is processed.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory that one results file per species
              is written to. It can include environment variables.`,
			shorthand:  "o",
			defaultVal: "radas_output",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ElectronDensity",
			usage: `
              ElectronDensity lists the electron densities [m**-3] to
              calculate results at. If empty, DensityResolution points
              evenly spaced in log space over the range of the input data
              are used.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), syntheticCmd.Flags()},
		},
		{
			name: "ElectronTemperature",
			usage: `
              ElectronTemperature lists the electron temperatures [eV] to
              calculate results at. If empty, TemperatureResolution points
              evenly spaced in log space over the range of the input data
              are used.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), syntheticCmd.Flags()},
		},
		{
			name: "DensityResolution",
			usage: `
              DensityResolution is the number of electron density points
              used when ElectronDensity is empty.`,
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), syntheticCmd.Flags()},
		},
		{
			name: "TemperatureResolution",
			usage: `
              TemperatureResolution is the number of electron temperature
              points used when ElectronTemperature is empty.`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), syntheticCmd.Flags()},
		},
		{
			name: "InterpolationOrder",
			usage: `
              InterpolationOrder is the order of the splines used to
              interpolate rate coefficients in log space: linear, cubic
              or akima.`,
			defaultVal: "cubic",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "RegridCacheSize",
			usage: `
              RegridCacheSize is the number of interpolated rate tables
              kept in memory.`,
			defaultVal: 1000,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NeTau",
			usage: `
              NeTau lists the products of electron density and impurity
              residence time [m**-3 s] to calculate the time evolution
              for. "inf" means no refuelling.`,
			defaultVal: []string{"inf"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "EvolutionStart",
			usage: `
              EvolutionStart is the first output time [s] of the time
              evolution.`,
			defaultVal: 1e-8,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "EvolutionStop",
			usage: `
              EvolutionStop is the last output time [s] of the time
              evolution. The charge state fractions at this time are
              reported as the equilibrium.`,
			defaultVal: 100.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NumTimes",
			usage: `
              NumTimes is the number of output times, evenly spaced in log
              space between EvolutionStart and EvolutionStop.`,
			defaultVal: radas.DefaultNumTimes,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "RelTol",
			usage: `
              RelTol is the relative error tolerance of the time integration.`,
			defaultVal: 1e-3,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "AbsTol",
			usage: `
              AbsTol is the absolute error tolerance of the time integration.`,
			defaultVal: 1e-12,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables maps the names of additional output variables
              to expressions of the results, for example
              {"Prad":"equilibrium_Lz * ne"}. Available variables are ne,
              Te, ne_tau, tau, the mean charge state, Lz and residence_time
              results and previously defined output variables. Available
              functions are exp, log10, sqrt and pow.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ReferenceFits",
			usage: `
              ReferenceFits is the path of a TOML file of polynomial fits of
              Lz and mean charge state to compare the results with. If
              empty, no comparison is made.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ReferenceDensity",
			usage: `
              ReferenceDensity is the electron density [m**-3] at which
              results are compared with ReferenceFits. The closest result
              density is used.`,
			defaultVal: 1e20,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Timeout",
			usage: `
              Timeout bounds the time spent on each species, for example
              "10m". If empty, there is no bound.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Serial",
			usage: `
              Serial specifies whether to process species one at a time
              instead of in parallel.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Synthetic.Name",
			usage: `
              Synthetic.Name is the species name written to the synthetic
              rate coefficient file.`,
			defaultVal: "synthetic",
			flagsets:   []*pflag.FlagSet{syntheticCmd.Flags()},
		},
		{
			name: "Synthetic.AtomicNumber",
			usage: `
              Synthetic.AtomicNumber is the atomic number of the synthetic
              species.`,
			defaultVal: 2,
			flagsets:   []*pflag.FlagSet{syntheticCmd.Flags()},
		},
		{
			name: "Synthetic.OutputFile",
			usage: `
              Synthetic.OutputFile is the path the synthetic rate
              coefficient file is written to.`,
			defaultVal: "synthetic.nc",
			flagsets:   []*pflag.FlagSet{syntheticCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("RADAS")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(syntheticCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("radas: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "radas",
	Short: "Impurity charge state distributions and radiated power.",
	Long: `radas calculates the charge state distributions and radiated power
coefficients of impurities in plasmas from tabulated atomic rate coefficients,
in coronal equilibrium and as they evolve in time with optional refuelling.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'RADAS_var' where 'var' is the
name of the variable to be set. Paths and output variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of radas.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("radas v%s (data version %s)\n", radas.Version, radas.DataVersion)
	},
	DisableAutoGenTag: true,
}

// runCmd calculates results for the configured species.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Calculate charge state distributions and radiated power.",
	Long: `run reads the rate coefficient file of each species, interpolates
the rate coefficients onto the requested grid, calculates the coronal
equilibrium and the time evolution of the charge state fractions, and writes
the results to one NetCDF file per species in OutputDir.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ParseConfig(Cfg)
		if err != nil {
			return err
		}
		ctx := context.Background()
		if cmd != nil {
			c.Log.SetOutput(cmd.ErrOrStderr())
			if cmd.Context() != nil {
				ctx = cmd.Context()
			}
		}
		_, err = Run(ctx, c)
		return err
	},
	DisableAutoGenTag: true,
}

// syntheticCmd writes a rate coefficient file with synthetic data.
var syntheticCmd = &cobra.Command{
	Use:   "synthetic",
	Short: "Write a synthetic rate coefficient file.",
	Long: `synthetic writes a rate coefficient file holding smooth, hydrogen-like
closed-form rate coefficients for a model species. The file can be used to try
out or test the run command; the values are not physical data.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		density, temperature, err := syntheticGrid(Cfg)
		if err != nil {
			return err
		}
		z := Cfg.GetInt("Synthetic.AtomicNumber")
		path := os.ExpandEnv(Cfg.GetString("Synthetic.OutputFile"))
		if err := WriteSynthetic(path, Cfg.GetString("Synthetic.Name"), z, density, temperature); err != nil {
			return err
		}
		if cmd != nil {
			cmd.Printf("wrote %s\n", path)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// Default synthetic grid bounds.
const (
	syntheticMinDensity     = 1e17 // m**-3
	syntheticMaxDensity     = 1e21
	syntheticMinTemperature = 1 // eV
	syntheticMaxTemperature = 1e4
)

// syntheticGrid returns the grids of the synthetic rate tables.
func syntheticGrid(cfg *viper.Viper) (density, temperature []float64, err error) {
	if density, err = floatSlice("ElectronDensity", cfg); err != nil {
		return nil, nil, err
	}
	if temperature, err = floatSlice("ElectronTemperature", cfg); err != nil {
		return nil, nil, err
	}
	if len(density) == 0 {
		if density, err = radas.LogGrid(syntheticMinDensity, syntheticMaxDensity, cfg.GetInt("DensityResolution")); err != nil {
			return nil, nil, err
		}
	}
	if len(temperature) == 0 {
		if temperature, err = radas.LogGrid(syntheticMinTemperature, syntheticMaxTemperature, cfg.GetInt("TemperatureResolution")); err != nil {
			return nil, nil, err
		}
	}
	return density, temperature, nil
}
