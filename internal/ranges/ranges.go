// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ranges implements the address-range predicate: deciding whether
// a concrete prefix lies within an RPSL <address-prefix-range> under a
// range operator (spec §4.A).
package ranges

import "github.com/SichangHe/parse-rpsl-policy/internal/rpsl"

// sameFamily reports whether two prefixes are both IPv4 or both IPv6.
func sameFamily(a, b rpsl.IpNet) bool {
	return a.Addr().Is4() == b.Addr().Is4()
}

// contains reports whether q is a sub-range of b: same family, q at least
// as specific as b, and the top b.Bits() bits of q's address equal b's
// address. b must be in canonical (masked) form, which every IpNet in this
// module's inputs is by construction.
func contains(q, b rpsl.IpNet) bool {
	if !sameFamily(q, b) {
		return false
	}
	if q.Bits() < b.Bits() {
		return false
	}
	return b.Contains(q.Addr())
}

// Holds reports whether the address-prefix-range rng admits the concrete
// prefix q, per the RFC 2622 semantics of spec §4.A.
func Holds(rng rpsl.AddrPfxRange, q rpsl.IpNet) bool {
	base := rng.Base
	if !sameFamily(base, q) {
		return false
	}

	switch rng.Op.Kind {
	case rpsl.RangeNoOp:
		return q == base
	case rpsl.RangeLenExact:
		return q.Bits() == int(rng.Op.Len) && contains(q, base)
	case rpsl.RangeLenRange:
		return int(rng.Op.Len) <= q.Bits() && q.Bits() <= int(rng.Op.Len2) && contains(q, base)
	case rpsl.RangeLessSpecific:
		return q.Bits() < base.Bits() && contains(base, q)
	case rpsl.RangeLessSpecificIncl:
		return q.Bits() <= base.Bits() && contains(base, q)
	case rpsl.RangeMoreSpecific:
		return q.Bits() > base.Bits() && contains(q, base)
	default:
		return false
	}
}

// HoldsAny reports whether any of rngs admits q.
func HoldsAny(rngs []rpsl.AddrPfxRange, q rpsl.IpNet) bool {
	for _, r := range rngs {
		if Holds(r, q) {
			return true
		}
	}
	return false
}
