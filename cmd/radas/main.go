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


// Command radas is a command-line interface for calculating impurity
// charge state distributions and radiated power coefficients.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/plasmatools/radas/radasutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := radasutil.Root.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
