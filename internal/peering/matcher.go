// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package peering implements the peering matcher of spec §4.E: deciding
// whether an observed BGP neighbor satisfies an RPSL peering expression
// (the "who" half of an mp-import/mp-export Entry), recursing over the
// AsExpr boolean tree and resolving named peering-set/as-set references.
//
// Router expressions beyond a single concrete address are not evaluated
// (spec §4.E): "at <router-expr>" clauses the matcher can't resolve
// surface as skips rather than silently passing or failing.
package peering

import (
	"github.com/SichangHe/parse-rpsl-policy/internal/querydump"
	"github.com/SichangHe/parse-rpsl-policy/internal/report"
	"github.com/SichangHe/parse-rpsl-policy/internal/rpsl"
)

// maxDepth bounds recursive as-expression and peering-set resolution.
const maxDepth = 32

// Neighbor is the observed BGP peer a Peering is checked against.
// RouterIP is the remote router address as seen on the session, or ""
// when unknown.
type Neighbor struct {
	AsNum    rpsl.AsNum
	RouterIP string
}

// Match decides whether p admits n.
func Match(qd *querydump.QueryDump, p rpsl.Peering, n Neighbor) report.Report {
	return matchPeering(qd, p, n, 0, nil)
}

func matchPeering(qd *querydump.QueryDump, p rpsl.Peering, n Neighbor, depth int, visited map[string]bool) report.Report {
	exprR := matchExpr(qd, p.Expr, n, depth, visited)
	remoteR := matchRouter(p.RemoteRouter, n.RouterIP)
	localR := matchLocalRouter(p.LocalRouter)
	return report.AllAggregate([]report.Report{exprR, remoteR, localR})
}

func matchExpr(qd *querydump.QueryDump, expr *rpsl.AsExpr, n Neighbor, depth int, visited map[string]bool) report.Report {
	if depth > maxDepth {
		return report.Recursion(report.RecursionCheckFilter)
	}

	switch expr.Kind {
	case rpsl.AsExprSingle:
		return matchAsName(qd, expr.Name, n, depth, visited)

	case rpsl.AsExprPeeringSet:
		return matchPeeringSet(qd, expr.SetName, n, depth, visited)

	case rpsl.AsExprAnd:
		left := matchExpr(qd, expr.Left, n, depth+1, visited)
		right := matchExpr(qd, expr.Right, n, depth, visited)
		return report.AllAggregate([]report.Report{left, right})

	case rpsl.AsExprOr:
		left := matchExpr(qd, expr.Left, n, depth+1, visited)
		right := matchExpr(qd, expr.Right, n, depth, visited)
		return report.AnyAggregate([]report.Report{left, right})

	case rpsl.AsExprExcept:
		left := matchExpr(qd, expr.Left, n, depth+1, visited)
		right := matchExpr(qd, expr.Right, n, depth, visited)
		return report.AllAggregate([]report.Report{left, invert(right)})

	case rpsl.AsExprGroup:
		return matchExpr(qd, expr.Inner, n, depth, visited)

	default:
		return report.BadRpsl(report.BadRpslError{Kind: report.BadInvalidAsName, Reason: "unrecognized as-expression kind"})
	}
}

// invert flips a match result for AsExprExcept's "AND NOT right" semantics,
// preserving skip-non-inversion (spec §7): a skip stays a skip.
func invert(r report.Report) report.Report {
	if report.IsSkip(r) {
		return r
	}
	if report.IsSuccess(r) {
		return report.NoMatch(report.NoMatchProblem{Kind: report.NoMatchNoNeighbor})
	}
	return report.Success()
}

func matchAsName(qd *querydump.QueryDump, name rpsl.AsName, n Neighbor, depth int, visited map[string]bool) report.Report {
	switch name.Kind {
	case rpsl.AsNameNum:
		if name.Num == n.AsNum {
			return report.Success()
		}
		return report.NoMatch(report.NoMatchProblem{Kind: report.NoMatchNoNeighbor, AsNum: name.Num})
	case rpsl.AsNameSet:
		return matchAsSetMembership(qd, name.Set, n, depth, visited)
	default:
		return report.BadRpsl(report.BadRpslError{Kind: report.BadInvalidAsName, Reason: "unrecognized as-name kind"})
	}
}

// matchAsSetMembership recurses over the as-set's raw (unflattened)
// Members/SetMembers, since this is a question of AS-number set
// membership, unrelated to the address-range flattening the query dump
// does for routes.
func matchAsSetMembership(qd *querydump.QueryDump, name string, n Neighbor, depth int, visited map[string]bool) report.Report {
	if depth > maxDepth {
		return report.Recursion(report.RecursionCheckFilter)
	}
	canon := rpsl.CanonicalSetName(name)
	key := "asset:" + canon
	if visited[key] {
		return report.CycleDetected(report.RecursionAsNameCycle)
	}
	set, ok := qd.Dump.GetAsSet(name)
	if !ok {
		return report.Skip(report.SkipReason{Kind: report.SkipAsSetUnrecorded, Name: name})
	}

	for _, m := range set.Members {
		if m == n.AsNum {
			return report.Success()
		}
	}
	if len(set.SetMembers) == 0 {
		return report.NoMatch(report.NoMatchProblem{Kind: report.NoMatchNoNeighbor, Name: name})
	}
	nextVisited := withVisited(visited, key)

	branches := make([]report.Report, 0, len(set.SetMembers))
	for _, child := range set.SetMembers {
		branches = append(branches, matchAsSetMembership(qd, child, n, depth+1, nextVisited))
	}
	return report.AnyAggregate(branches)
}

func matchPeeringSet(qd *querydump.QueryDump, name string, n Neighbor, depth int, visited map[string]bool) report.Report {
	if depth > maxDepth {
		return report.Recursion(report.RecursionCheckFilter)
	}
	ps, ok := qd.Dump.GetPeeringSet(name)
	if !ok {
		return report.Skip(report.SkipReason{Kind: report.SkipPeeringSetUnrecorded, Name: name})
	}
	if len(ps.Peerings) == 0 {
		return report.NoMatch(report.NoMatchProblem{Kind: report.NoMatchNoNeighbor, Name: name})
	}

	canon := rpsl.CanonicalSetName(name)
	key := "peeringset:" + canon
	if visited[key] {
		return report.CycleDetected(report.RecursionAsNameCycle)
	}
	nextVisited := withVisited(visited, key)

	branches := make([]report.Report, 0, len(ps.Peerings))
	for _, p := range ps.Peerings {
		branches = append(branches, matchPeering(qd, p, n, depth+1, nextVisited))
	}
	return report.AnyAggregate(branches)
}

func matchRouter(re *rpsl.RouterExpr, observedIP string) report.Report {
	if re == nil {
		return report.Success()
	}
	if !re.IsSingleIP || observedIP == "" {
		return report.Skip(report.SkipReason{Kind: report.SkipRouterUnimplemented, Name: re.Raw})
	}
	if re.SingleIP == observedIP {
		return report.Success()
	}
	return report.NoMatch(report.NoMatchProblem{Kind: report.NoMatchNoNeighbor, Name: re.Raw})
}

// matchLocalRouter never resolves: which local router is speaking isn't
// part of this module's observation model (spec §4.E, §6).
func matchLocalRouter(re *rpsl.RouterExpr) report.Report {
	if re == nil {
		return report.Success()
	}
	return report.Skip(report.SkipReason{Kind: report.SkipRouterUnimplemented, Name: re.Raw})
}

func withVisited(visited map[string]bool, key string) map[string]bool {
	next := make(map[string]bool, len(visited)+1)
	for k, v := range visited {
		next[k] = v
	}
	next[key] = true
	return next
}
