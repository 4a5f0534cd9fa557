// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package rpsl

// RouterExpr is an RPSL router-expression qualifying a peering (the "at
// <router-expression>" / "action ..." clauses). Router expressions are not
// fully evaluated by this module; unimplemented shapes surface as skips at
// match time (spec §4.E).
type RouterExpr struct {
	// Raw holds the unparsed router-expression text for diagnostics.
	Raw string
	// SingleIP is set when the expression reduces to one concrete router
	// address, the only shape the peering matcher currently resolves.
	SingleIP   string
	IsSingleIP bool
}

// AsExprKind tags the variant of an AsExpr node (spec §3).
type AsExprKind int

const (
	AsExprSingle AsExprKind = iota
	AsExprPeeringSet
	AsExprAnd
	AsExprOr
	AsExprExcept
	AsExprGroup
)

// AsExpr is a node in the boolean tree an RPSL peering expression builds
// over AS numbers and as-set/peering-set names.
type AsExpr struct {
	Kind AsExprKind

	// AsExprSingle
	Name AsName

	// AsExprPeeringSet
	SetName string

	// AsExprAnd / AsExprOr / AsExprExcept
	Left, Right *AsExpr

	// AsExprGroup
	Inner *AsExpr
}

// Single builds a leaf AsExpr wrapping a concrete AS number or as-set name.
func Single(name AsName) *AsExpr { return &AsExpr{Kind: AsExprSingle, Name: name} }

// PeeringSetExpr builds an AsExpr referencing a named peering-set.
func PeeringSetExpr(name string) *AsExpr {
	return &AsExpr{Kind: AsExprPeeringSet, SetName: CanonicalSetName(name)}
}

// And builds a conjunction of two AsExpr trees.
func And(l, r *AsExpr) *AsExpr { return &AsExpr{Kind: AsExprAnd, Left: l, Right: r} }

// Or builds a disjunction of two AsExpr trees.
func Or(l, r *AsExpr) *AsExpr { return &AsExpr{Kind: AsExprOr, Left: l, Right: r} }

// Except builds l AND NOT r.
func Except(l, r *AsExpr) *AsExpr { return &AsExpr{Kind: AsExprExcept, Left: l, Right: r} }

// GroupExpr builds a transparent grouping node.
func GroupExpr(inner *AsExpr) *AsExpr { return &AsExpr{Kind: AsExprGroup, Inner: inner} }

// Peering is a concrete "who" clause in an Entry: an AsExpr tree optionally
// qualified by remote/local router expressions.
type Peering struct {
	Expr         *AsExpr
	RemoteRouter *RouterExpr
	LocalRouter  *RouterExpr
}

// PeeringAction binds a list of Peerings (who) to the raw action clauses
// RPSL allows on an mp-import/mp-export entry. Actions are carried
// verbatim; community-setting and similar action semantics are out of
// scope (spec §4.D, Community is a stub).
type PeeringAction struct {
	Peering Peering
	Actions []string
}
