// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package filter

import (
	"net/netip"
	"testing"

	"github.com/SichangHe/parse-rpsl-policy/internal/querydump"
	"github.com/SichangHe/parse-rpsl-policy/internal/report"
	"github.com/SichangHe/parse-rpsl-policy/internal/rpsl"
)

func pfx(s string) rpsl.IpNet {
	return netip.MustParsePrefix(s).Masked()
}

func mustBuild(t *testing.T, dump *rpsl.Dump) *querydump.QueryDump {
	t.Helper()
	qd, err := querydump.Build(dump)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return qd
}

func TestCheck_Any(t *testing.T) {
	qd := mustBuild(t, rpsl.NewDump())
	got := Check(qd, rpsl.AnyFilter(), Query{Prefix: pfx("10.0.0.0/24")}, DefaultDepth)
	if !report.IsSuccess(got) {
		t.Fatalf("expected Any to always match, got %+v", got)
	}
}

func TestCheck_AsNum(t *testing.T) {
	dump := rpsl.NewDump()
	dump.AsRoutes[64500] = []rpsl.IpNet{pfx("192.0.2.0/24")}
	qd := mustBuild(t, dump)

	f := rpsl.AsNumFilter(64500, rpsl.MoreSpecific())
	if got := Check(qd, f, Query{Prefix: pfx("192.0.2.128/25")}, DefaultDepth); !report.IsSuccess(got) {
		t.Fatalf("expected match, got %+v", got)
	}
	if got := Check(qd, f, Query{Prefix: pfx("198.51.100.0/24")}, DefaultDepth); !report.IsFailure(got) {
		t.Fatalf("expected definite failure, got %+v", got)
	}
}

func TestCheck_AsNum_UnrecordedIsSkip(t *testing.T) {
	qd := mustBuild(t, rpsl.NewDump())
	f := rpsl.AsNumFilter(64501, rpsl.NoOp)
	got := Check(qd, f, Query{Prefix: pfx("10.0.0.0/8")}, DefaultDepth)
	if !report.IsSkip(got) {
		t.Fatalf("expected skip for an AS with no recorded routes, got %+v", got)
	}
}

func TestCheck_AsSet_DirectMember(t *testing.T) {
	dump := rpsl.NewDump()
	dump.AsRoutes[1] = []rpsl.IpNet{pfx("203.0.113.0/24")}
	dump.AsSets["AS-CUSTOMERS"] = &rpsl.AsSet{Name: "AS-CUSTOMERS", Members: []rpsl.AsNum{1}}
	qd := mustBuild(t, dump)

	f := rpsl.AsSetFilter("AS-CUSTOMERS", rpsl.NoOp)
	got := Check(qd, f, Query{Prefix: pfx("203.0.113.0/24")}, DefaultDepth)
	if !report.IsSuccess(got) {
		t.Fatalf("expected match, got %+v", got)
	}
}

// spec §8 scenario 3: a cyclic as-set resolves given enough depth budget,
// and becomes inconclusive (never a hang, never a false NoMatch) once the
// budget runs out before reaching the matching AS.
func TestCheck_AsSet_CyclicDepthScenario(t *testing.T) {
	dump := rpsl.NewDump()
	dump.AsRoutes[64501] = []rpsl.IpNet{pfx("192.0.2.0/24")}
	dump.AsSets["AS-FOO"] = &rpsl.AsSet{Name: "AS-FOO", SetMembers: []string{"AS-BAR"}}
	dump.AsSets["AS-BAR"] = &rpsl.AsSet{Name: "AS-BAR", Members: []rpsl.AsNum{64501}, SetMembers: []string{"AS-FOO"}}
	qd := mustBuild(t, dump)

	f := rpsl.AsSetFilter("AS-FOO", rpsl.NoOp)
	q := Query{Prefix: pfx("192.0.2.0/24")}

	if got := Check(qd, f, q, 8); !report.IsSuccess(got) {
		t.Fatalf("expected a match at depth 8, got %+v", got)
	}
	if got := Check(qd, f, q, 1); report.IsSuccess(got) || report.IsFailure(got) {
		t.Fatalf("expected an inconclusive recursion cutoff at depth 1, got %+v", got)
	}
}

// A pure cycle with no escaping AS-number member anywhere in the graph must
// resolve as a definite failure, not an inconclusive skip: depth alone
// can't distinguish "budget ran out before finding an answer" from "this
// loop has no answer to find", so the cycle-revisit branch has to carry its
// own failure-flavoured report distinct from a depth cutoff.
func TestCheck_AsSet_PureCycle_IsDefiniteFailure(t *testing.T) {
	dump := rpsl.NewDump()
	dump.AsSets["AS-A"] = &rpsl.AsSet{Name: "AS-A", SetMembers: []string{"AS-B"}}
	dump.AsSets["AS-B"] = &rpsl.AsSet{Name: "AS-B", SetMembers: []string{"AS-A"}}
	qd := mustBuild(t, dump)

	f := rpsl.AsSetFilter("AS-A", rpsl.NoOp)
	got := Check(qd, f, Query{Prefix: pfx("192.0.2.0/24")}, DefaultDepth)
	if !report.IsFailure(got) {
		t.Fatalf("expected a definite failure for an escapeless cycle, got %+v", got)
	}
}

func TestCheck_RouteSet(t *testing.T) {
	dump := rpsl.NewDump()
	dump.RouteSets["RS-EXAMPLE"] = &rpsl.RouteSet{
		Name: "RS-EXAMPLE",
		Members: []rpsl.RouteSetMember{
			{Kind: rpsl.RouteSetMemberRange, Range: rpsl.AddrPfxRange{Base: pfx("192.0.2.0/24"), Op: rpsl.NoOp}},
		},
	}
	qd := mustBuild(t, dump)

	f := rpsl.RouteSetRef("RS-EXAMPLE", rpsl.NoOp)
	if got := Check(qd, f, Query{Prefix: pfx("192.0.2.0/24")}, DefaultDepth); !report.IsSuccess(got) {
		t.Fatalf("expected match, got %+v", got)
	}
	if got := Check(qd, f, Query{Prefix: pfx("192.0.2.0/25")}, DefaultDepth); !report.IsFailure(got) {
		t.Fatalf("expected NoOp to reject a more specific prefix, got %+v", got)
	}
}

func TestCheck_And_FailureWhenEitherFails(t *testing.T) {
	f := rpsl.FilterAndOf(rpsl.AnyFilter(), rpsl.InvalidFilter("bad syntax"))
	qd := mustBuild(t, rpsl.NewDump())
	got := Check(qd, f, Query{Prefix: pfx("10.0.0.0/8")}, DefaultDepth)
	if !report.IsFailure(got) {
		t.Fatalf("expected AND to fail when the right side is malformed, got %+v", got)
	}
}

func TestCheck_Or_SuccessWhenEitherSucceeds(t *testing.T) {
	f := rpsl.FilterOrOf(rpsl.InvalidFilter("bad syntax"), rpsl.AnyFilter())
	qd := mustBuild(t, rpsl.NewDump())
	got := Check(qd, f, Query{Prefix: pfx("10.0.0.0/8")}, DefaultDepth)
	if !report.IsSuccess(got) {
		t.Fatalf("expected OR to succeed when the right side matches, got %+v", got)
	}
}

func TestCheck_Not_InvertsMatch(t *testing.T) {
	qd := mustBuild(t, rpsl.NewDump())
	f := rpsl.FilterNotOf(rpsl.AnyFilter())
	got := Check(qd, f, Query{Prefix: pfx("10.0.0.0/8")}, DefaultDepth)
	if !report.IsFailure(got) {
		t.Fatalf("expected NOT Any to fail, got %+v", got)
	}
}

// spec §8 scenario 4: Not(AsNum unrecorded) carries both the original
// skip and a SkippedNotFilterResult skip, staying neutral rather than bad.
func TestCheck_Not_SkipStaysSkip(t *testing.T) {
	qd := mustBuild(t, rpsl.NewDump())
	f := rpsl.FilterNotOf(rpsl.AsNumFilter(64500, rpsl.NoOp))
	got := Check(qd, f, Query{Prefix: pfx("10.0.0.0/8")}, DefaultDepth)
	if !report.IsSkip(got) {
		t.Fatalf("expected negating an unrecorded AS to stay a skip, got %+v", got)
	}
}

func TestCheck_FilterSet_IsUnionOfFilters(t *testing.T) {
	dump := rpsl.NewDump()
	dump.FilterSets["FS-EXAMPLE"] = &rpsl.FilterSet{
		Name: "FS-EXAMPLE",
		Filters: []*rpsl.Filter{
			rpsl.InvalidFilter("placeholder"),
			rpsl.AnyFilter(),
		},
	}
	qd := mustBuild(t, dump)

	f := rpsl.FilterSetRef("FS-EXAMPLE")
	got := Check(qd, f, Query{Prefix: pfx("10.0.0.0/8")}, DefaultDepth)
	if !report.IsSuccess(got) {
		t.Fatalf("expected union semantics to pick the matching alternative, got %+v", got)
	}
}

func TestCheck_Invalid(t *testing.T) {
	qd := mustBuild(t, rpsl.NewDump())
	got := Check(qd, rpsl.InvalidFilter("unparseable clause"), Query{Prefix: pfx("10.0.0.0/8")}, DefaultDepth)
	if got == nil || !got.AllFail {
		t.Fatalf("expected a definite BadRpsl failure, got %+v", got)
	}
	if got.Items[0].Kind != report.ItemBadRpsl {
		t.Fatalf("expected a BadRpsl item, got %+v", got.Items[0])
	}
}
