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


package hash

import "testing"

type kind int

func (k kind) String() string { return [...]string{"a", "b"}[k] }

func TestKey(t *testing.T) {
	x := []float64{1, 2, 3}
	k := Key("helium", kind(0), x, 4)
	if len(k) != 32 {
		t.Errorf("key %q has length %d, want 32", k, len(k))
	}
	if k2 := Key("helium", kind(0), []float64{1, 2, 3}, 4); k2 != k {
		t.Errorf("equal values give different keys %s and %s", k, k2)
	}
	for _, other := range [][]interface{}{
		{"neon", kind(0), x, 4},
		{"helium", kind(1), x, 4},
		{"helium", kind(0), []float64{1, 2, 3.0000001}, 4},
		{"helium", kind(0), x, 5},
		{"helium", kind(0), x},
	} {
		if Key(other...) == k {
			t.Errorf("%v gives the same key as the original", other)
		}
	}
	// Moving a value between parts changes the key.
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("part boundaries are not part of the key")
	}
}

func TestKeyUnencodable(t *testing.T) {
	var p *int
	ch := make(chan int)
	if Key(p) != Key(p) {
		t.Error("nil pointer key is not stable")
	}
	if Key(ch) == "" {
		t.Error("empty key")
	}
}
