// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package report implements the three-valued verdict model of spec §4.B:
// a Report is either absent (every branch matched — "None", success) or
// present and carrying a list of explanatory Items plus a flag saying
// whether every item reflects a definite failure rather than a skip.
//
// Skip is not failure (spec §9): evaluation distinguishes "policy forbids"
// from "I don't know", and the two aggregators below must never collapse
// that distinction.
package report

import "github.com/SichangHe/parse-rpsl-policy/internal/rpsl"

// ItemKind tags the variant of a report Item (spec §4.B).
type ItemKind int

const (
	ItemSkip ItemKind = iota
	ItemNoMatch
	ItemBadRpsl
	ItemRecursion
	// ItemMatchAny and ItemMatchAll are sentinel tags the aggregators use
	// internally for short-circuit bookkeeping in the original design; this
	// implementation folds aggregation results directly into booleans
	// instead of synthesizing sentinel items, so these two variants are
	// never constructed, only kept in the tag set for a faithful mapping
	// of spec §4.B's closed ReportItem enum.
	ItemMatchAny
	ItemMatchAll
)

// SkipKind enumerates the reasons evaluation can be inconclusive (spec §7).
type SkipKind int

const (
	SkipAsRoutesUnrecorded SkipKind = iota
	SkipAsSetUnrecorded
	SkipRouteSetUnrecorded
	SkipFilterSetUnrecorded
	SkipPeeringSetUnrecorded
	SkipAsRegexUnimplemented
	SkipCommunityCheckUnimplemented
	SkippedNotFilterResult
	SkipRouterUnimplemented
	SkipMissingAutNum
	// SkipMissingVersion means the aut-num exists but declares no
	// mp-import/mp-export entries for the address family/protocol pair
	// being checked (spec §4.F).
	SkipMissingVersion
	// SkipNoMatchingEntry means the aut-num declares entries for the
	// address family/protocol pair but none of them lists any peering, so
	// no peering could be checked against the observed neighbor (spec §4.F).
	SkipNoMatchingEntry
)

// SkipReason carries a SkipKind plus whatever identifier explains it.
type SkipReason struct {
	Kind SkipKind
	AsNum rpsl.AsNum
	Name  string
}

// NoMatchKind enumerates the ways a filter predicate can come back false
// (spec §7).
type NoMatchKind int

const (
	NoMatchFilterPrefixes NoMatchKind = iota
	NoMatchFilterAsNum
	NoMatchFilterRouteSet
	NoMatchNotFilterMatch
	NoMatchNoNeighbor
)

// NoMatchProblem carries a NoMatchKind plus the identifier/operator that
// failed to match.
type NoMatchProblem struct {
	Kind  NoMatchKind
	AsNum rpsl.AsNum
	Op    rpsl.RangeOp
	Name  string
}

// BadRpslKind enumerates the ways the policy input itself can be malformed
// (spec §7).
type BadRpslKind int

const (
	BadInvalidFilter BadRpslKind = iota
	BadInvalidAsName
)

// BadRpslError carries a BadRpslKind plus a free-text reason.
type BadRpslError struct {
	Kind   BadRpslKind
	Reason string
}

// RecursionSource enumerates the cut-offs that can abort a recursive
// evaluation (spec §4.D): a plain depth-budget exhaustion, or a revisited
// as-name on the current recursion path (cycle detection).
type RecursionSource int

const (
	RecursionCheckFilter RecursionSource = iota
	RecursionAsNameCycle
)

// Item is one explanatory entry in a Report.
type Item struct {
	Kind      ItemKind
	Skip      SkipReason
	NoMatch   NoMatchProblem
	Bad       BadRpslError
	Recursion RecursionSource
}

// Data is the payload of a non-empty Report: the Items that explain the
// decision, and whether every one of them reflects a definite failure
// (AllFail) as opposed to at least one inconclusive skip.
type Data struct {
	Items   []Item
	AllFail bool
}

// Report is the optional verdict spec §4.B describes: nil means every
// branch matched (success, "None"); non-nil carries the explanation.
type Report = *Data

// Success is the "None" report: every branch matched.
func Success() Report { return nil }

// IsSuccess reports whether r represents a fully successful evaluation.
func IsSuccess(r Report) bool { return r == nil }

// IsFailure reports whether r is a definite failure (no skips mixed in).
func IsFailure(r Report) bool { return r != nil && r.AllFail }

// IsSkip reports whether r is present but inconclusive (AllFail is false:
// at least one branch was a skip, though NoMatch items may sit alongside it).
func IsSkip(r Report) bool { return r != nil && !r.AllFail }

// Skip builds a single-item inconclusive report.
func Skip(reason SkipReason) Report {
	return &Data{Items: []Item{{Kind: ItemSkip, Skip: reason}}, AllFail: false}
}

// NoMatch builds a single-item definite-failure report.
func NoMatch(problem NoMatchProblem) Report {
	return &Data{Items: []Item{{Kind: ItemNoMatch, NoMatch: problem}}, AllFail: true}
}

// BadRpsl builds a single-item definite-failure report for malformed RPSL.
func BadRpsl(err BadRpslError) Report {
	return &Data{Items: []Item{{Kind: ItemBadRpsl, Bad: err}}, AllFail: true}
}

// Recursion builds a single-item inconclusive report for a plain
// depth-budget cut-off. Recursion is skip-flavoured, never a definite
// failure (spec §7): running out of budget before reaching a conclusion is
// "I don't know", not "the policy forbids this".
func Recursion(source RecursionSource) Report {
	return &Data{Items: []Item{{Kind: ItemRecursion, Recursion: source}}, AllFail: false}
}

// CycleDetected builds a single-item definite-failure report for revisiting
// an already-seen name on the current recursion path (spec §4.D/§4.E). This
// is a different cut-off from Recursion's depth exhaustion: a cycle is a
// known structural fact about the policy graph (the reference walks it with
// a dedicated failed_any_report for exactly this case, separate from the
// recursion_any_report a budget exhaustion produces), not inconclusive data
// left over from giving up early — so it propagates as a failure an
// AllAggregate can't shrug off, while still letting sibling AnyAggregate
// branches that don't hit the cycle succeed.
func CycleDetected(source RecursionSource) Report {
	return &Data{Items: []Item{{Kind: ItemRecursion, Recursion: source}}, AllFail: true}
}

// AnyAggregate implements the "disjunction" aggregator (spec §4.B): success
// is absorbing. As soon as any report in the sequence is a Success, the
// fold short-circuits (the caller is expected to stop producing further
// reports once told to, via the early-exit shape of FoldAny below); over
// an already-materialized slice, AnyAggregate just returns Success the
// moment it sees one. Otherwise items union and AllFail is the AND of
// every branch's AllFail.
func AnyAggregate(reports []Report) Report {
	var items []Item
	allFail := true
	for _, r := range reports {
		if IsSuccess(r) {
			return Success()
		}
		items = append(items, r.Items...)
		if !r.AllFail {
			allFail = false
		}
	}
	return &Data{Items: items, AllFail: allFail}
}

// FoldAny lazily combines n branches via AnyAggregate, calling get(i) only
// until a success is found — the short-circuit spec §4.B calls for,
// avoiding evaluation of later branches once an earlier one matches.
func FoldAny(n int, get func(i int) Report) Report {
	var items []Item
	allFail := true
	for i := 0; i < n; i++ {
		r := get(i)
		if IsSuccess(r) {
			return Success()
		}
		items = append(items, r.Items...)
		if !r.AllFail {
			allFail = false
		}
	}
	return &Data{Items: items, AllFail: allFail}
}

// AllAggregate implements the "conjunction" aggregator (spec §4.B): failure
// is absorbing. The first definite failure propagates as-is; Skip-flavoured
// reports accumulate; full success (every branch Success) returns Success.
func AllAggregate(reports []Report) Report {
	var items []Item
	for _, r := range reports {
		if IsSuccess(r) {
			continue
		}
		if r.AllFail {
			return r
		}
		items = append(items, r.Items...)
	}
	if len(items) == 0 {
		return Success()
	}
	return &Data{Items: items, AllFail: false}
}
