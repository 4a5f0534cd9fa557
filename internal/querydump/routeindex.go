// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package querydump

import (
	"github.com/gaissmai/bart"

	"github.com/SichangHe/parse-rpsl-policy/internal/rpsl"
)

// RouteIndex is a bart-backed fast index over a fixed set of routes,
// answering the range-operator membership test of spec §4.A in time
// proportional to the address's bit length rather than to the number of
// routes in the set — the "evaluation-time O(1) membership test" spec
// §4.C asks the query-dump build phase to precompute.
//
// Supernets/Subnets walk only the trie ancestry/descendants of the query
// prefix, which is why this beats a linear scan of Holds over every route:
// the candidate set bart hands back is bounded by address width (32/128),
// never by how many routes the AS or as-set has.
type RouteIndex struct {
	table *bart.Table[struct{}]
}

// NewRouteIndex builds an index over routes. routes need not be
// pre-sorted; duplicates are harmless (bart dedupes identical prefixes).
func NewRouteIndex(routes []rpsl.IpNet) *RouteIndex {
	t := new(bart.Table[struct{}])
	for _, r := range routes {
		t.Insert(r, struct{}{})
	}
	return &RouteIndex{table: t}
}

// Holds reports whether some route r in the indexed set satisfies
// ranges.Holds(AddrPfxRange{r, op}, q) for at least one r — equivalent to
// ranges.HoldsAny but without the O(n) scan.
func (idx *RouteIndex) Holds(op rpsl.RangeOp, q rpsl.IpNet) bool {
	switch op.Kind {
	case rpsl.RangeNoOp:
		_, ok := idx.table.Get(q)
		return ok

	case rpsl.RangeLenExact:
		if q.Bits() != int(op.Len) {
			return false
		}
		return idx.hasSupernet(q)

	case rpsl.RangeLenRange:
		if q.Bits() < int(op.Len) || q.Bits() > int(op.Len2) {
			return false
		}
		return idx.hasSupernet(q)

	case rpsl.RangeMoreSpecific:
		for pfx := range idx.table.Supernets(q) {
			if pfx.Bits() < q.Bits() {
				return true
			}
		}
		return false

	case rpsl.RangeLessSpecific:
		for pfx := range idx.table.Subnets(q) {
			if pfx.Bits() > q.Bits() {
				return true
			}
		}
		return false

	case rpsl.RangeLessSpecificIncl:
		for pfx := range idx.table.Subnets(q) {
			if pfx.Bits() >= q.Bits() {
				return true
			}
		}
		return false

	default:
		return false
	}
}

func (idx *RouteIndex) hasSupernet(q rpsl.IpNet) bool {
	for range idx.table.Supernets(q) {
		return true
	}
	return false
}
