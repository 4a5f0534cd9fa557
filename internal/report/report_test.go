// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package report

import "testing"

func TestAnyAggregate_SuccessAbsorbing(t *testing.T) {
	reports := []Report{
		NoMatch(NoMatchProblem{Kind: NoMatchFilterPrefixes}),
		Success(),
		NoMatch(NoMatchProblem{Kind: NoMatchFilterPrefixes}),
	}
	if got := AnyAggregate(reports); !IsSuccess(got) {
		t.Fatalf("expected success once any branch succeeds, got %+v", got)
	}
}

func TestAnyAggregate_AllFailAnds(t *testing.T) {
	reports := []Report{
		NoMatch(NoMatchProblem{Kind: NoMatchFilterPrefixes}),
		Skip(SkipReason{Kind: SkipAsRoutesUnrecorded}),
	}
	got := AnyAggregate(reports)
	if IsSuccess(got) {
		t.Fatal("expected non-success")
	}
	if got.AllFail {
		t.Fatal("one skip among branches should make AllFail false (neutral, not bad)")
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected items to union, got %d", len(got.Items))
	}
}

func TestAnyAggregate_AllFailureIsFailure(t *testing.T) {
	reports := []Report{
		NoMatch(NoMatchProblem{Kind: NoMatchFilterPrefixes}),
		NoMatch(NoMatchProblem{Kind: NoMatchFilterAsNum}),
	}
	got := AnyAggregate(reports)
	if !IsFailure(got) {
		t.Fatal("expected definite failure when every branch failed")
	}
}

func TestFoldAny_StopsAtFirstSuccess(t *testing.T) {
	calls := 0
	get := func(i int) Report {
		calls++
		if i == 1 {
			return Success()
		}
		return NoMatch(NoMatchProblem{Kind: NoMatchFilterPrefixes})
	}
	got := FoldAny(5, get)
	if !IsSuccess(got) {
		t.Fatal("expected success")
	}
	if calls != 2 {
		t.Fatalf("expected short-circuit after 2 calls, got %d", calls)
	}
}

func TestAllAggregate_FirstFailurePropagates(t *testing.T) {
	fail := NoMatch(NoMatchProblem{Kind: NoMatchFilterAsNum, AsNum: 64500})
	reports := []Report{Success(), fail, Skip(SkipReason{Kind: SkipAsSetUnrecorded})}
	got := AllAggregate(reports)
	if got != fail {
		t.Fatalf("expected the definite failure to propagate as-is, got %+v", got)
	}
}

func TestAllAggregate_SkipsAccumulate(t *testing.T) {
	reports := []Report{
		Success(),
		Skip(SkipReason{Kind: SkipAsSetUnrecorded}),
		Skip(SkipReason{Kind: SkipRouteSetUnrecorded}),
	}
	got := AllAggregate(reports)
	if IsSuccess(got) {
		t.Fatal("expected non-success when skips are present")
	}
	if got.AllFail {
		t.Fatal("accumulated skips should not be a definite failure")
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 accumulated items, got %d", len(got.Items))
	}
}

func TestAllAggregate_FullSuccess(t *testing.T) {
	got := AllAggregate([]Report{Success(), Success()})
	if !IsSuccess(got) {
		t.Fatal("expected success when every branch succeeds")
	}
}

func TestRecursion_IsSkip(t *testing.T) {
	if got := Recursion(RecursionCheckFilter); !IsSkip(got) {
		t.Fatalf("expected a depth cut-off to stay inconclusive, got %+v", got)
	}
}

func TestCycleDetected_IsFailure(t *testing.T) {
	if got := CycleDetected(RecursionAsNameCycle); !IsFailure(got) {
		t.Fatalf("expected a cycle revisit to be a definite failure, got %+v", got)
	}
}

// A cycle in one branch must not poison a sibling AnyAggregate branch that
// succeeds outright: Success stays absorbing regardless of what else is in
// the slice.
func TestAnyAggregate_CycleSiblingStillSucceeds(t *testing.T) {
	got := AnyAggregate([]Report{CycleDetected(RecursionAsNameCycle), Success()})
	if !IsSuccess(got) {
		t.Fatalf("expected a successful sibling branch to absorb a cycle failure, got %+v", got)
	}
}

// P4: replacing a Skip with a NoMatch never turns a neutral result into a
// worse-looking success, and never turns success into neutral.
func TestMonotonicity_SkipVsNoMatchInAny(t *testing.T) {
	withSkip := AnyAggregate([]Report{
		NoMatch(NoMatchProblem{Kind: NoMatchFilterPrefixes}),
		Skip(SkipReason{Kind: SkipAsRoutesUnrecorded}),
	})
	withNoMatch := AnyAggregate([]Report{
		NoMatch(NoMatchProblem{Kind: NoMatchFilterPrefixes}),
		NoMatch(NoMatchProblem{Kind: NoMatchFilterAsNum}),
	})
	if IsSuccess(withSkip) || IsSuccess(withNoMatch) {
		t.Fatal("neither case should succeed")
	}
	if IsFailure(withSkip) {
		t.Fatal("the skip-containing branch should stay neutral, not become a failure")
	}
	if !IsFailure(withNoMatch) {
		t.Fatal("replacing the skip with a NoMatch should turn the result into a definite failure")
	}
}
