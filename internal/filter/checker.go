// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package filter implements the recursive filter checker of spec §4.D: it
// decides whether a concrete route matches an RPSL mp-import/mp-export
// filter expression, walking the Filter boolean algebra and resolving
// named filter-set/as-set/route-set references against a QueryDump.
//
// depth is a remaining-budget counter, not a hard constant: callers pick
// an initial value (spec §5: "typically in the tens") and every
// indirection through a named set spends one unit of it; a cycle among
// mutually referential sets is caught separately by a per-branch
// visited-name set. Running out of depth is skip-flavoured (spec §7):
// "inconclusive", never "the policy forbids this". Revisiting a name
// already on the current path is a definite failure (report.CycleDetected),
// which a sibling branch of an any-join can still override.
package filter

import (
	"github.com/SichangHe/parse-rpsl-policy/internal/querydump"
	"github.com/SichangHe/parse-rpsl-policy/internal/ranges"
	"github.com/SichangHe/parse-rpsl-policy/internal/report"
	"github.com/SichangHe/parse-rpsl-policy/internal/rpsl"
)

// DefaultDepth is a reasonable depth budget for callers that have no
// stronger opinion: deep enough for realistic IRR nesting, shallow enough
// that a pathological input still returns promptly.
const DefaultDepth = 16

// Query is the concrete route a Filter is checked against: the prefix and
// the AS path as observed (AS path regex matching is a stub — spec §4.D —
// so AsPath is carried through but not yet interpreted).
type Query struct {
	Prefix rpsl.IpNet
	AsPath []rpsl.AsNum
}

// Check decides whether f matches q against qd, allowing up to depth
// nested named-set indirections before giving up as inconclusive.
func Check(qd *querydump.QueryDump, f *rpsl.Filter, q Query, depth int) report.Report {
	return check(qd, f, q, depth, nil)
}

func check(qd *querydump.QueryDump, f *rpsl.Filter, q Query, depth int, visited map[string]bool) report.Report {
	if depth <= 0 {
		return report.Recursion(report.RecursionCheckFilter)
	}

	switch f.Kind {
	case rpsl.FilterAny:
		return report.Success()

	case rpsl.FilterInvalid:
		return report.BadRpsl(report.BadRpslError{Kind: report.BadInvalidFilter, Reason: f.InvalidReason})

	case rpsl.FilterGroup:
		return check(qd, f.Inner, q, depth, visited)

	case rpsl.FilterNot:
		inner := check(qd, f.Inner, q, depth, visited)
		if report.IsSkip(inner) {
			// Skip-non-inversion (spec §7): negating "I don't know" still
			// doesn't know, and says so with an extra SkippedNotFilterResult.
			items := append(append([]report.Item(nil), inner.Items...),
				report.Item{Kind: report.ItemSkip, Skip: report.SkipReason{Kind: report.SkippedNotFilterResult}})
			return &report.Data{Items: items, AllFail: false}
		}
		if report.IsSuccess(inner) {
			return report.NoMatch(report.NoMatchProblem{Kind: report.NoMatchNotFilterMatch})
		}
		return report.Success()

	case rpsl.FilterAnd:
		// Asymmetric depth decrement, preserved as a compatibility quirk
		// (spec §9, Open Questions): only the left branch spends a depth
		// unit.
		left := check(qd, f.Left, q, depth-1, visited)
		right := check(qd, f.Right, q, depth, visited)
		return report.AllAggregate([]report.Report{left, right})

	case rpsl.FilterOr:
		left := check(qd, f.Left, q, depth-1, visited)
		right := check(qd, f.Right, q, depth, visited)
		return report.AnyAggregate([]report.Report{left, right})

	case rpsl.FilterAddrPrefixSet:
		if ranges.HoldsAny(f.Prefixes, q.Prefix) {
			return report.Success()
		}
		return report.NoMatch(report.NoMatchProblem{Kind: report.NoMatchFilterPrefixes})

	case rpsl.FilterAsNum:
		return checkAsNum(qd, f.AsNumVal, f.Op, q)

	case rpsl.FilterAsSet:
		return checkAsSet(qd, f.SetName, f.Op, q, depth, visited)

	case rpsl.FilterRouteSet:
		return checkRouteSet(qd, f.SetName, f.Op, q, depth, visited)

	case rpsl.FilterFilterSet:
		return checkFilterSet(qd, f.SetName, q, depth, visited)

	case rpsl.FilterAsPathRE:
		return report.Skip(report.SkipReason{Kind: report.SkipAsRegexUnimplemented, Name: f.AsPathRegex})

	case rpsl.FilterCommunity:
		return report.Skip(report.SkipReason{Kind: report.SkipCommunityCheckUnimplemented, Name: f.CommunityCall})

	default:
		return report.BadRpsl(report.BadRpslError{Kind: report.BadInvalidFilter, Reason: "unrecognized filter kind"})
	}
}

// checkAsNum decides whether q.Prefix lies within AS n's originated
// routes under op, using the per-AS RouteIndex the query dump built
// up-front rather than a linear scan. A leaf check: it never recurses and
// so never spends depth.
func checkAsNum(qd *querydump.QueryDump, n rpsl.AsNum, op rpsl.RangeOp, q Query) report.Report {
	idx, ok := qd.AsRoutesIndex[n]
	if !ok {
		return report.Skip(report.SkipReason{Kind: report.SkipAsRoutesUnrecorded, AsNum: n})
	}
	if idx.Holds(op, q.Prefix) {
		return report.Success()
	}
	return report.NoMatch(report.NoMatchProblem{Kind: report.NoMatchFilterAsNum, AsNum: n, Op: op})
}

// checkAsSet decides whether q.Prefix lies within any AS reachable from
// the named as-set, under op. It deliberately recurses over the raw
// (unflattened) AsSet graph rather than consulting the query dump's
// one-pass AsSetRoutes cache: that cache is a build-time convenience for
// callers who want O(1) membership without recursion at all, but this
// checker's whole point is the depth/cycle-bounded walk, so the two
// members/set_members lists are resolved directly, one depth unit spent
// per nested as-set reference.
func checkAsSet(qd *querydump.QueryDump, name string, op rpsl.RangeOp, q Query, depth int, visited map[string]bool) report.Report {
	if depth <= 0 {
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
	nextVisited := withVisited(visited, key)

	branches := make([]report.Report, 0, len(set.Members)+len(set.SetMembers))
	for _, n := range set.Members {
		branches = append(branches, checkAsNum(qd, n, op, q))
	}
	for _, child := range set.SetMembers {
		branches = append(branches, checkAsSet(qd, child, op, q, depth-1, nextVisited))
	}

	if len(branches) == 0 {
		return report.NoMatch(report.NoMatchProblem{Kind: report.NoMatchFilterAsNum, Name: name})
	}
	return report.AnyAggregate(branches)
}

// checkRouteSet decides whether q.Prefix is admitted by the named
// route-set under op, recursing into nested route-set references.
//
// RFC 2622 lets both a route-set member and the reference to the
// route-set itself carry their own range operator; this module composes
// the two with "outer overrides" semantics — a non-trivial op on the
// reference replaces the member's own op rather than stacking with it.
func checkRouteSet(qd *querydump.QueryDump, name string, op rpsl.RangeOp, q Query, depth int, visited map[string]bool) report.Report {
	if depth <= 0 {
		return report.Recursion(report.RecursionCheckFilter)
	}
	rs, ok := qd.Dump.GetRouteSet(name)
	if !ok {
		return report.Skip(report.SkipReason{Kind: report.SkipRouteSetUnrecorded, Name: name})
	}

	canon := rpsl.CanonicalSetName(name)
	key := "routeset:" + canon
	if visited[key] {
		return report.CycleDetected(report.RecursionAsNameCycle)
	}
	nextVisited := withVisited(visited, key)

	if len(rs.Members) == 0 {
		return report.NoMatch(report.NoMatchProblem{Kind: report.NoMatchFilterRouteSet, Name: name})
	}

	branches := make([]report.Report, 0, len(rs.Members))
	for _, m := range rs.Members {
		switch m.Kind {
		case rpsl.RouteSetMemberRange:
			effOp := composeOp(m.Range.Op, op)
			rng := rpsl.AddrPfxRange{Base: m.Range.Base, Op: effOp}
			if ranges.Holds(rng, q.Prefix) {
				branches = append(branches, report.Success())
			} else {
				branches = append(branches, report.NoMatch(report.NoMatchProblem{Kind: report.NoMatchFilterRouteSet, Name: name, Op: effOp}))
			}
		case rpsl.RouteSetMemberNameOp:
			effOp := composeOp(m.Op, op)
			branches = append(branches, checkRouteSet(qd, m.Name, effOp, q, depth-1, nextVisited))
		}
	}
	return report.AnyAggregate(branches)
}

func composeOp(inner, outer rpsl.RangeOp) rpsl.RangeOp {
	if outer.Kind != rpsl.RangeNoOp {
		return outer
	}
	return inner
}

// checkFilterSet decides whether q matches the named filter-set, which
// resolves to the union (logical OR) of its constituent filters.
func checkFilterSet(qd *querydump.QueryDump, name string, q Query, depth int, visited map[string]bool) report.Report {
	if depth <= 0 {
		return report.Recursion(report.RecursionCheckFilter)
	}
	fs, ok := qd.Dump.GetFilterSet(name)
	if !ok {
		return report.Skip(report.SkipReason{Kind: report.SkipFilterSetUnrecorded, Name: name})
	}

	canon := rpsl.CanonicalSetName(name)
	key := "filterset:" + canon
	if visited[key] {
		return report.CycleDetected(report.RecursionAsNameCycle)
	}
	nextVisited := withVisited(visited, key)

	if len(fs.Filters) == 0 {
		return report.NoMatch(report.NoMatchProblem{Kind: report.NoMatchFilterPrefixes, Name: name})
	}

	branches := make([]report.Report, 0, len(fs.Filters))
	for _, f := range fs.Filters {
		branches = append(branches, check(qd, f, q, depth-1, nextVisited))
	}
	return report.AnyAggregate(branches)
}

// withVisited returns a copy of visited with key added, leaving the
// caller's map untouched so sibling branches don't see each other's path.
func withVisited(visited map[string]bool, key string) map[string]bool {
	next := make(map[string]bool, len(visited)+1)
	for k, v := range visited {
		next[k] = v
	}
	next[key] = true
	return next
}
