// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package dispatch

import (
	"net/netip"
	"testing"

	"github.com/SichangHe/parse-rpsl-policy/internal/peering"
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

var ipv4Unicast = rpsl.AfiSafi{Afi: "ipv4", Safi: "unicast"}

func exportEntry(toAs rpsl.AsNum, f *rpsl.Filter) rpsl.Entry {
	return rpsl.Entry{
		Peerings: []rpsl.PeeringAction{{Peering: rpsl.Peering{Expr: rpsl.Single(rpsl.SingleAs(toAs))}}},
		Filter:   f,
	}
}

// spec §8 scenario 5's 3-AS shape: a single adjacency's export and import
// sides, plus the origin/destination-only records a longer path produces.
func TestDispatch_ThreeAsPath_ProducesThreeRecords(t *testing.T) {
	dump := rpsl.NewDump()
	dump.AsRoutes[64500] = []rpsl.IpNet{pfx("10.0.0.0/8")}
	dump.AutNums[64500] = &rpsl.AutNum{
		Num: 64500,
		Exports: rpsl.Versions{
			{Protocol: "bgp4", AfiSafi: ipv4Unicast}: {exportEntry(64501, rpsl.AnyFilter())},
		},
	}
	dump.AutNums[64501] = &rpsl.AutNum{
		Num: 64501,
		Imports: rpsl.Versions{
			{Protocol: "bgp4", AfiSafi: ipv4Unicast}: {exportEntry(64500, rpsl.AnyFilter())},
		},
		Exports: rpsl.Versions{
			{Protocol: "bgp4", AfiSafi: ipv4Unicast}: {exportEntry(64502, rpsl.AnyFilter())},
		},
	}
	dump.AutNums[64502] = &rpsl.AutNum{
		Num: 64502,
		Imports: rpsl.Versions{
			{Protocol: "bgp4", AfiSafi: ipv4Unicast}: {exportEntry(64501, rpsl.AnyFilter())},
		},
	}
	qd := mustBuild(t, dump)

	obs := Observation{
		Prefix:  pfx("10.0.0.0/8"),
		AsPath:  []rpsl.AsNum{64500, 64501, 64502},
		AfiSafi: ipv4Unicast,
	}
	got := Dispatch(qd, obs, Verbosity{ShowSkips: true, ShowSuccess: true})
	if len(got) != 3 {
		t.Fatalf("expected 3 records for a 3-AS path, got %d: %+v", len(got), got)
	}
	if got[0].Kind != GoodExport || got[0].From != 64500 || got[0].To != 64501 {
		t.Fatalf("expected origin export-only record first, got %+v", got[0])
	}
	if got[1].Kind != AsPathPair || got[1].At != 64501 {
		t.Fatalf("expected a transit AsPathPair record second, got %+v", got[1])
	}
	if !report.IsSuccess(got[1].ImportReport) || !report.IsSuccess(got[1].ExportReport) {
		t.Fatalf("expected both transit legs to succeed, got %+v", got[1])
	}
	if got[2].Kind != GoodImport || got[2].To != 64502 {
		t.Fatalf("expected destination import-only record last, got %+v", got[2])
	}
}

func TestDispatch_MissingAutNum_IsSkip(t *testing.T) {
	qd := mustBuild(t, rpsl.NewDump())
	obs := Observation{
		Prefix:  pfx("10.0.0.0/8"),
		AsPath:  []rpsl.AsNum{64500, 64501},
		AfiSafi: ipv4Unicast,
	}
	got := Dispatch(qd, obs, Verbosity{ShowSkips: true, ShowSuccess: true})
	if len(got) != 2 {
		t.Fatalf("expected export+import records for a 2-AS path, got %d", len(got))
	}
	for _, r := range got {
		if r.Kind != NeutralExport && r.Kind != NeutralImport {
			t.Fatalf("expected both sides to skip on an absent aut-num, got %+v", r)
		}
	}
}

func TestDispatch_BadExport_FailsClosed(t *testing.T) {
	dump := rpsl.NewDump()
	dump.AutNums[64500] = &rpsl.AutNum{
		Num: 64500,
		Exports: rpsl.Versions{
			{Protocol: "bgp4", AfiSafi: ipv4Unicast}: {exportEntry(64501, rpsl.InvalidFilter("bad"))},
		},
	}
	dump.AutNums[64501] = &rpsl.AutNum{Num: 64501}
	qd := mustBuild(t, dump)

	obs := Observation{
		Prefix:  pfx("10.0.0.0/8"),
		AsPath:  []rpsl.AsNum{64500, 64501},
		AfiSafi: ipv4Unicast,
	}
	got := Dispatch(qd, obs, Verbosity{ShowSkips: true, ShowSuccess: true})
	if len(got) == 0 || got[0].Kind != BadExport {
		t.Fatalf("expected a bad export verdict first, got %+v", got)
	}
}

func TestDispatch_SingleAsPath_ChecksRealNeighbors(t *testing.T) {
	dump := rpsl.NewDump()
	dump.AutNums[64500] = &rpsl.AutNum{
		Num: 64500,
		Exports: rpsl.Versions{
			{Protocol: "bgp4", AfiSafi: ipv4Unicast}: {exportEntry(64501, rpsl.AnyFilter())},
		},
	}
	qd := mustBuild(t, dump)

	obs := Observation{
		Prefix:    pfx("10.0.0.0/8"),
		AsPath:    []rpsl.AsNum{64500},
		AfiSafi:   ipv4Unicast,
		Neighbors: []peering.Neighbor{{AsNum: 64501}},
	}
	got := Dispatch(qd, obs, Verbosity{ShowSkips: true, ShowSuccess: true})
	if len(got) != 1 || got[0].Kind != GoodSingleExport {
		t.Fatalf("expected one GoodSingleExport record, got %+v", got)
	}
}

func TestDispatch_Verbosity_HidesNeutralsAndSuccesses(t *testing.T) {
	qd := mustBuild(t, rpsl.NewDump())
	obs := Observation{
		Prefix:  pfx("10.0.0.0/8"),
		AsPath:  []rpsl.AsNum{64500, 64501},
		AfiSafi: ipv4Unicast,
	}
	got := Dispatch(qd, obs, Verbosity{})
	if len(got) != 0 {
		t.Fatalf("expected skips hidden when neither flag is set, got %+v", got)
	}
}
