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

import "testing"

func TestNeumaierSum(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "empty", want: 0},
		{name: "simple", values: []float64{1, 2, 3.5}, want: 6.5},
		{name: "cancellation", values: []float64{1e16, -1e16, 1, -1}, want: 0},
		{name: "small after large", values: []float64{1, 1e100, 1, -1e100}, want: 2},
		{name: "ion balance", values: []float64{-1e20 * 1e-14, 1e20 * 1e-14, 1e-3, -1e-3}, want: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := NeumaierSum(test.values...); got != test.want {
				t.Errorf("got %g, want %g", got, test.want)
			}
		})
	}
	t.Run("naive loses precision", func(t *testing.T) {
		v := []float64{1, 1e100, 1, -1e100}
		var naive float64
		for _, x := range v {
			naive += x
		}
		if naive == NeumaierSum(v...) {
			t.Errorf("naive sum %g should differ from compensated sum", naive)
		}
	})
}
