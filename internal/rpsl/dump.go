// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package rpsl

// Dump is the raw policy database an external RPSL lexer/parser produces
// (spec §3, §6). It is consumed exactly once to build a QueryDump and is
// not otherwise mutated.
type Dump struct {
	AutNums     map[AsNum]*AutNum
	AsSets      map[string]*AsSet
	RouteSets   map[string]*RouteSet
	PeeringSets map[string]*PeeringSet
	FilterSets  map[string]*FilterSet
	AsRoutes    map[AsNum][]IpNet
}

// NewDump returns an empty Dump with all maps initialized.
func NewDump() *Dump {
	return &Dump{
		AutNums:     make(map[AsNum]*AutNum),
		AsSets:      make(map[string]*AsSet),
		RouteSets:   make(map[string]*RouteSet),
		PeeringSets: make(map[string]*PeeringSet),
		FilterSets:  make(map[string]*FilterSet),
		AsRoutes:    make(map[AsNum][]IpNet),
	}
}

// GetAutNum looks up an aut-num by AS number.
func (d *Dump) GetAutNum(n AsNum) (*AutNum, bool) {
	a, ok := d.AutNums[n]
	return a, ok
}

// GetAsSet looks up an as-set, canonicalizing the name first so callers
// never have to re-case a lookup key themselves (spec §9).
func (d *Dump) GetAsSet(name string) (*AsSet, bool) {
	s, ok := d.AsSets[CanonicalSetName(name)]
	return s, ok
}

// GetRouteSet looks up a route-set by (canonicalized) name.
func (d *Dump) GetRouteSet(name string) (*RouteSet, bool) {
	s, ok := d.RouteSets[CanonicalSetName(name)]
	return s, ok
}

// GetPeeringSet looks up a peering-set by (canonicalized) name.
func (d *Dump) GetPeeringSet(name string) (*PeeringSet, bool) {
	s, ok := d.PeeringSets[CanonicalSetName(name)]
	return s, ok
}

// GetFilterSet looks up a filter-set by (canonicalized) name.
func (d *Dump) GetFilterSet(name string) (*FilterSet, bool) {
	s, ok := d.FilterSets[CanonicalSetName(name)]
	return s, ok
}

// GetAsRoutes looks up the routes an AS originates.
func (d *Dump) GetAsRoutes(n AsNum) ([]IpNet, bool) {
	r, ok := d.AsRoutes[n]
	return r, ok
}
