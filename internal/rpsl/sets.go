// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package rpsl

// AsSet is a named set of AS numbers and other as-set names (spec §3).
// Members is kept sorted ascending and duplicate-free (invariant I1).
type AsSet struct {
	Name       string
	Members    []AsNum
	SetMembers []string
}

// RouteSetMemberKind tags whether a RouteSetMember is a literal range or a
// reference to another named route-set.
type RouteSetMemberKind int

const (
	RouteSetMemberRange RouteSetMemberKind = iota
	RouteSetMemberNameOp
)

// RouteSetMember is one element of a RouteSet: either a literal
// AddrPfxRange, or a named sub-route-set under its own range operator
// (spec §3).
type RouteSetMember struct {
	Kind  RouteSetMemberKind
	Range AddrPfxRange
	Name  string
	Op    RangeOp
}

// RouteSet is a named set of prefix ranges and route-set names (spec §3).
type RouteSet struct {
	Name    string
	Members []RouteSetMember
}

// PeeringSet is a named, reusable set of peering expressions (spec §3).
type PeeringSet struct {
	Name     string
	Peerings []Peering
}

// FilterSet is a named, reusable filter expression (spec §3).
type FilterSet struct {
	Name    string
	Filters []*Filter
}
