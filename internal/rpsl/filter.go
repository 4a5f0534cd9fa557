// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package rpsl

// FilterKind tags the variant of a Filter node (spec §3, §4.D).
type FilterKind int

const (
	FilterAny FilterKind = iota
	FilterFilterSet
	FilterAddrPrefixSet
	FilterRouteSet
	FilterAsNum
	FilterAsSet
	FilterAsPathRE
	FilterCommunity
	FilterAnd
	FilterOr
	FilterNot
	FilterGroup
	FilterInvalid
)

// Filter is a node in the RPSL filter boolean algebra a mp-import/mp-export
// Entry evaluates a route against (spec §3, §4.D).
type Filter struct {
	Kind FilterKind

	// FilterFilterSet / FilterRouteSet / FilterAsSet: the (canonical) named
	// set this node resolves.
	SetName string

	// FilterAddrPrefixSet
	Prefixes []AddrPfxRange

	// FilterAsNum
	AsNumVal AsNum

	// FilterAsNum / FilterAsSet / FilterRouteSet: the range operator
	// qualifying the referenced routes.
	Op RangeOp

	// FilterAsPathRE
	AsPathRegex string

	// FilterCommunity
	CommunityCall string

	// FilterAnd / FilterOr
	Left, Right *Filter

	// FilterNot / FilterGroup
	Inner *Filter

	// FilterInvalid
	InvalidReason string
}

// AnyFilter is the trivial always-match filter.
func AnyFilter() *Filter { return &Filter{Kind: FilterAny} }

// FilterSetRef references a named, reusable filter-set.
func FilterSetRef(name string) *Filter {
	return &Filter{Kind: FilterFilterSet, SetName: CanonicalSetName(name)}
}

// AddrPrefixSet builds a filter matching any of the given prefix ranges.
func AddrPrefixSet(ranges []AddrPfxRange) *Filter {
	return &Filter{Kind: FilterAddrPrefixSet, Prefixes: ranges}
}

// RouteSetRef references a named route-set under the given range operator.
func RouteSetRef(name string, op RangeOp) *Filter {
	return &Filter{Kind: FilterRouteSet, SetName: CanonicalSetName(name), Op: op}
}

// AsNumFilter matches routes originated by a concrete AS under op.
func AsNumFilter(n AsNum, op RangeOp) *Filter {
	return &Filter{Kind: FilterAsNum, AsNumVal: n, Op: op}
}

// AsSetFilter references a named as-set under the given range operator.
func AsSetFilter(name string, op RangeOp) *Filter {
	return &Filter{Kind: FilterAsSet, SetName: CanonicalSetName(name), Op: op}
}

// AsPathRE builds the (currently unimplemented) AS-path regex filter.
func AsPathRE(expr string) *Filter { return &Filter{Kind: FilterAsPathRE, AsPathRegex: expr} }

// CommunityFilter builds the (currently unimplemented) community-call filter.
func CommunityFilter(call string) *Filter {
	return &Filter{Kind: FilterCommunity, CommunityCall: call}
}

// FilterAndOf builds a conjunction of two filters.
func FilterAndOf(l, r *Filter) *Filter { return &Filter{Kind: FilterAnd, Left: l, Right: r} }

// FilterOrOf builds a disjunction of two filters.
func FilterOrOf(l, r *Filter) *Filter { return &Filter{Kind: FilterOr, Left: l, Right: r} }

// FilterNotOf builds the negation of a filter.
func FilterNotOf(inner *Filter) *Filter { return &Filter{Kind: FilterNot, Inner: inner} }

// FilterGroupOf builds a transparent grouping node.
func FilterGroupOf(inner *Filter) *Filter { return &Filter{Kind: FilterGroup, Inner: inner} }

// InvalidFilter marks a filter sub-tree the parser could not make sense of.
func InvalidFilter(reason string) *Filter {
	return &Filter{Kind: FilterInvalid, InvalidReason: reason}
}
