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

// Package radas calculates impurity charge state distributions and
// radiated power coefficients in plasmas from tabulated atomic rate
// coefficients, both in coronal equilibrium and as they evolve in time
// with optional refuelling.
package radas

// Version gives the version number.
const Version = "0.1.0"

// DataVersion is the version of the rate coefficient file format.
// Files written with a different version cannot be read.
const DataVersion = "1"
