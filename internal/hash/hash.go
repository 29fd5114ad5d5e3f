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
along with radas.  If not, see <http://www.gnu.org/licenses/>.*/

// Package hash creates cache keys from arbitrary values.
package hash

import (
	"encoding/gob"
	"fmt"
	"hash"
	"hash/fnv"

	"github.com/davecgh/go-spew/spew"
)

var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Key returns a hex-encoded 128-bit FNV-1a hash of parts. Each part is
// gob-encoded where possible, otherwise it is printed with spew.
// Values that are equal produce equal keys.
func Key(parts ...interface{}) string {
	h := fnv.New128a()
	for i, p := range parts {
		fmt.Fprintf(h, "|%d|", i)
		write(h, p)
	}
	b := h.Sum(nil)
	return fmt.Sprintf("%x", b[:h.Size()])
}

func write(h hash.Hash, p interface{}) {
	if s, ok := p.(fmt.Stringer); ok {
		fmt.Fprint(h, s.String())
		return
	}
	if err := gob.NewEncoder(h).Encode(p); err == nil {
		return
	}
	// gob cannot encode some values, such as nil pointers or
	// channels, so fall back to a printed representation.
	printer.Fprintf(h, "%#v", p)
}
