// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package rpsl

// AfiSafi is an address-family/subsequent-address-family pair, e.g.
// {Afi: "ipv4", Safi: "unicast"}.
type AfiSafi struct {
	Afi  string
	Safi string
}

// Protocol is an mp-import/mp-export protocol clause, e.g. "bgp4".
type Protocol string

// VersionKey selects one mp-import/mp-export "version" of an aut-num's
// policy: a protocol paired with the address family it applies to.
type VersionKey struct {
	Protocol Protocol
	AfiSafi  AfiSafi
}

// Entry is one ordered clause of a Versions list: a set of PeeringActions
// (who) bound to a Filter (what). The first PeeringAction whose Peering
// matches the concrete neighbor wins (spec §4.F).
type Entry struct {
	Peerings []PeeringAction
	Filter   *Filter
}

// Versions maps each address-family/protocol pair an aut-num declares a
// policy for to its ordered list of Entry clauses.
type Versions map[VersionKey][]Entry

// AutNum is one AS's complete mp-import/mp-export policy (spec §3).
type AutNum struct {
	Num     AsNum
	Body    string
	Imports Versions
	Exports Versions
	Errors  []string
}
