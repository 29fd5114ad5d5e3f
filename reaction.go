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
	"strings"
)

// ReactionKind identifies the physical quantity held by a rate table.
type ReactionKind int

// The reaction kinds understood by radas.
const (
	EffectiveIonisation ReactionKind = iota
	EffectiveRecombination
	ChargeExchangeCrossCoupling
	LineEmission
	ContinuumEmission
	ChargeExchangeEmission
	MeanIonisationPotential
)

// Alignment is the direction of the transition a rate table describes,
// which determines whether the table is shifted along the charge-state axis
// during alignment.
type Alignment int

const (
	// IonisationType tables describe k->k+1 transitions and are
	// indexed by the reactant charge state as stored.
	IonisationType Alignment = iota
	// RecombinationType tables describe k+1->k transitions and are
	// stored indexed by the product charge state.
	RecombinationType
)

// reactionInfo bundles everything radas needs to know about a reaction kind.
type reactionInfo struct {
	name        string
	code        int // ADF11 class number
	adasClass   string
	storedUnits string
	units       string
	log10Stored bool
	alignment   Alignment
	description string
}

var reactionTable = []reactionInfo{
	EffectiveIonisation: {
		name: "effective_ionisation", code: 2, adasClass: "scd",
		storedUnits: "cm**3/s", units: "m**3/s", log10Stored: true,
		alignment:   IonisationType,
		description: "effective ionisation rate coefficient",
	},
	EffectiveRecombination: {
		name: "effective_recombination", code: 1, adasClass: "acd",
		storedUnits: "cm**3/s", units: "m**3/s", log10Stored: true,
		alignment:   RecombinationType,
		description: "effective recombination rate coefficient",
	},
	ChargeExchangeCrossCoupling: {
		name: "charge_exchange_cross_coupling", code: 3, adasClass: "ccd",
		storedUnits: "cm**3/s", units: "m**3/s", log10Stored: true,
		alignment:   RecombinationType,
		description: "charge exchange cross coupling coefficient",
	},
	LineEmission: {
		name: "line_emission_from_excitation", code: 8, adasClass: "plt",
		storedUnits: "W cm**3", units: "W m**3", log10Stored: false,
		alignment:   IonisationType,
		description: "line power from electron impact excitation",
	},
	ContinuumEmission: {
		name: "recombination_and_bremsstrahlung", code: 4, adasClass: "prb",
		storedUnits: "W cm**3", units: "W m**3", log10Stored: false,
		alignment:   RecombinationType,
		description: "continuum power from recombination and bremsstrahlung",
	},
	ChargeExchangeEmission: {
		name: "charge_exchange_emission", code: 5, adasClass: "prc",
		storedUnits: "W cm**3", units: "W m**3", log10Stored: false,
		alignment:   RecombinationType,
		description: "line power from charge exchange recombination",
	},
	MeanIonisationPotential: {
		name: "mean_ionisation_potential", code: 12, adasClass: "ecd",
		storedUnits: "eV", units: "eV", log10Stored: true,
		alignment:   IonisationType,
		description: "effective mean ionisation potential",
	},
}

// UnsupportedReactionKindError is returned when a reaction kind
// name or code has no known handler.
type UnsupportedReactionKindError struct {
	Name string
	Code int
}

func (e UnsupportedReactionKindError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("radas: unsupported reaction kind %q", e.Name)
	}
	return fmt.Sprintf("radas: unsupported reaction kind code %d", e.Code)
}

// ReactionKinds returns all supported reaction kinds in canonical order.
func ReactionKinds() []ReactionKind {
	o := make([]ReactionKind, len(reactionTable))
	for i := range reactionTable {
		o[i] = ReactionKind(i)
	}
	return o
}

func (k ReactionKind) valid() bool { return k >= 0 && int(k) < len(reactionTable) }

func (k ReactionKind) info() reactionInfo {
	if !k.valid() {
		panic(UnsupportedReactionKindError{Code: int(k)})
	}
	return reactionTable[k]
}

// String returns the variable name used for k in input and output files.
func (k ReactionKind) String() string {
	if !k.valid() {
		return fmt.Sprintf("ReactionKind(%d)", int(k))
	}
	return reactionTable[k].name
}

// Code returns the ADF11 class number of k.
func (k ReactionKind) Code() int { return k.info().code }

// StoredUnits returns the units that values of k are stored in.
func (k ReactionKind) StoredUnits() string { return k.info().storedUnits }

// Units returns the units that radas uses internally for k.
func (k ReactionKind) Units() string { return k.info().units }

// Log10Stored reports whether stored values of k are the base-10
// logarithm of the physical value.
func (k ReactionKind) Log10Stored() bool { return k.info().log10Stored }

// Alignment returns the transition direction of k.
func (k ReactionKind) Alignment() Alignment { return k.info().alignment }

// Description returns a human-readable description of k.
func (k ReactionKind) Description() string { return k.info().description }

// ParseReactionKind returns the reaction kind matching s, which may be
// either the file variable name (e.g. "effective_ionisation") or the
// ADAS class abbreviation (e.g. "scd"), case-insensitively.
func ParseReactionKind(s string) (ReactionKind, error) {
	ls := strings.ToLower(strings.TrimSpace(s))
	for i, r := range reactionTable {
		if ls == r.name || ls == r.adasClass {
			return ReactionKind(i), nil
		}
	}
	return -1, UnsupportedReactionKindError{Name: s}
}

// ReactionKindFromCode returns the reaction kind with the given ADF11
// class number.
func ReactionKindFromCode(code int) (ReactionKind, error) {
	for i, r := range reactionTable {
		if r.code == code {
			return ReactionKind(i), nil
		}
	}
	return -1, UnsupportedReactionKindError{Code: code}
}
