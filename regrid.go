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
	"math"
	"runtime"

	"github.com/ctessum/requestcache"
	"github.com/plasmatools/radas/internal/hash"
	"gonum.org/v1/gonum/floats"
)

// Regridder interpolates rate tables onto query grids, keeping recent
// results in memory so that repeated requests for the same table and
// grid are only computed once. It is safe for concurrent use.
type Regridder struct {
	order InterpolationOrder
	cache *requestcache.Cache
}

type regridRequest struct {
	table                *RateTable
	density, temperature []float64
	order                InterpolationOrder
}

// regridResult carries errors through the cache as values, so that
// failed requests are released by the deduplicator like successful ones.
type regridResult struct {
	field *InterpolatedRateField
	err   error
}

// NewRegridder returns a Regridder that interpolates with the given
// order and keeps up to cacheSize results in memory.
func NewRegridder(order InterpolationOrder, cacheSize int) *Regridder {
	r := &Regridder{order: order}
	r.cache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(*regridRequest)
		f, err := Interpolate(req.table, req.density, req.temperature, req.order)
		return &regridResult{field: f, err: err}, nil
	}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(cacheSize))
	return r
}

// Order returns the interpolation order used by r.
func (r *Regridder) Order() InterpolationOrder { return r.order }

// Regrid returns t interpolated onto the given density [m**-3] and
// temperature [eV] grids. species is part of the cache key.
func (r *Regridder) Regrid(ctx context.Context, species string, t *RateTable, density, temperature []float64) (*InterpolatedRateField, error) {
	key := hash.Key(species, t.Kind, r.order, t.Density, t.Temperature, t.Values.Shape, t.Values.Elements, density, temperature)
	res, err := r.cache.NewRequest(ctx, &regridRequest{
		table:       t,
		density:     density,
		temperature: temperature,
		order:       r.order,
	}, key).Result()
	if err != nil {
		return nil, err
	}
	rr := res.(*regridResult)
	if rr.err != nil {
		return nil, fmt.Errorf("radas: regridding %s for %s: %w", t.Kind, species, rr.err)
	}
	return rr.field, nil
}

// Computed returns the number of regridding requests that were not
// served from the cache.
func (r *Regridder) Computed() int {
	req := r.cache.Requests()
	return req[len(req)-1]
}

// LogGrid returns n points evenly spaced in log space from lo to hi,
// inclusive. The end points are exact.
func LogGrid(lo, hi float64, n int) ([]float64, error) {
	if !(lo > 0) || !(hi >= lo) || math.IsInf(hi, 0) {
		return nil, fmt.Errorf("radas: invalid log grid bounds [%g, %g]", lo, hi)
	}
	switch {
	case n < 1:
		return nil, fmt.Errorf("radas: log grid needs at least 1 point, got %d", n)
	case n == 1:
		return []float64{lo}, nil
	}
	g := floats.LogSpan(make([]float64, n), lo, hi)
	g[0], g[n-1] = lo, hi
	return g, nil
}
