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
	"math"
	"sort"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/sparse"
)

// defaultOutputFunctions returns the functions available to output
// variable expressions.
func defaultOutputFunctions() map[string]govaluate.ExpressionFunction {
	unary := func(name string, f func(float64) float64) govaluate.ExpressionFunction {
		return func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("radas: got %d arguments for function '%s', but needs 1", len(arg), name)
			}
			x, ok := arg[0].(float64)
			if !ok {
				return nil, fmt.Errorf("radas: argument to '%s' is %T, not a number", name, arg[0])
			}
			return f(x), nil
		}
	}
	return map[string]govaluate.ExpressionFunction{
		"exp":   unary("exp", math.Exp),
		"log10": unary("log10", math.Log10),
		"sqrt":  unary("sqrt", math.Sqrt),
		"pow": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 2 {
				return nil, fmt.Errorf("radas: got %d arguments for function 'pow', but needs 2", len(arg))
			}
			x, ok1 := arg[0].(float64)
			y, ok2 := arg[1].(float64)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("radas: arguments to 'pow' must be numbers")
			}
			return math.Pow(x, y), nil
		},
	}
}

// derivedDims are the axes of derived output variables.
var derivedDims = []string{DimNeTau, DimTemperature, DimDensity}

// addDerived evaluates p.OutputVariables at every (ne_tau, temperature,
// density) point. Expressions may refer to ne, Te, ne_tau, tau, the mean
// charge states and Lz fields by name, and to earlier derived variables.
func (p *Pipeline) addDerived(r *Results) error {
	funcs := defaultOutputFunctions()
	for k, f := range p.OutputFunctions {
		funcs[k] = f
	}
	exprs, order, err := parseOutputVariables(p.OutputVariables, funcs)
	if err != nil {
		return err
	}

	nn, nt, nd := len(r.NeTau), len(r.Temperature), len(r.Density)
	sources := map[string]*Field{}
	for _, name := range []string{CoronalMeanChargeState, CoronalLz, EquilibriumMeanCharge, EquilibriumLz, ResidenceTimeField} {
		if f, ok := r.Field(name); ok {
			sources[name] = f
		}
	}
	out := make(map[string]*sparse.DenseArray, len(order))
	for _, name := range order {
		out[name] = sparse.ZerosDense(nn, nt, nd)
	}
	params := make(map[string]interface{})
	for in := 0; in < nn; in++ {
		for it := 0; it < nt; it++ {
			for id := 0; id < nd; id++ {
				params["ne"] = r.Density[id]
				params["Te"] = r.Temperature[it]
				params["ne_tau"] = r.NeTau[in]
				for name, f := range sources {
					params[name] = fieldAt(f, in, it, id)
				}
				params["tau"] = params[ResidenceTimeField]
				for _, name := range order {
					v, err := exprs[name].Evaluate(params)
					if err != nil {
						return fmt.Errorf("radas: %s: evaluating %s: %v", r.Species, name, err)
					}
					x, ok := v.(float64)
					if !ok {
						return fmt.Errorf("radas: %s: output variable %s is %T, not a number", r.Species, name, v)
					}
					out[name].Set(x, in, it, id)
					params[name] = x
				}
			}
		}
	}
	for _, name := range order {
		r.add(&Field{
			Name:        name,
			Dims:        append([]string(nil), derivedDims...),
			Description: p.OutputVariables[name],
			Data:        out[name],
		})
	}
	return nil
}

// fieldAt returns the value of f at the given (ne_tau, temperature,
// density) point, broadcasting over any of those axes f does not have.
func fieldAt(f *Field, in, it, id int) float64 {
	idx := make([]int, 0, len(f.Dims))
	for _, d := range f.Dims {
		switch d {
		case DimNeTau:
			idx = append(idx, in)
		case DimTemperature:
			idx = append(idx, it)
		case DimDensity:
			idx = append(idx, id)
		}
	}
	return f.Data.Get(idx...)
}

// parseOutputVariables compiles the expressions and returns them with
// their names ordered so that every variable comes after the derived
// variables it refers to.
func parseOutputVariables(vars map[string]string, funcs map[string]govaluate.ExpressionFunction) (map[string]*govaluate.EvaluableExpression, []string, error) {
	exprs := make(map[string]*govaluate.EvaluableExpression, len(vars))
	names := make([]string, 0, len(vars))
	for name, v := range vars {
		e, err := govaluate.NewEvaluableExpressionWithFunctions(v, funcs)
		if err != nil {
			return nil, nil, fmt.Errorf("radas: output variable %s: %v", name, err)
		}
		exprs[name] = e
		names = append(names, name)
	}
	sort.Strings(names)

	var order []string
	state := make(map[string]int) // 1: visiting, 2: done
	var visit func(string) error
	visit = func(name string) error {
		switch state[name] {
		case 1:
			return fmt.Errorf("radas: output variable %s refers to itself", name)
		case 2:
			return nil
		}
		state[name] = 1
		for _, dep := range exprs[name].Vars() {
			if _, ok := exprs[dep]; ok {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		state[name] = 2
		order = append(order, name)
		return nil
	}
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, nil, err
		}
	}
	return exprs, order, nil
}
