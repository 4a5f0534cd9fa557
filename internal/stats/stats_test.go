// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package stats

import (
	"testing"

	"github.com/SichangHe/parse-rpsl-policy/internal/dispatch"
	"github.com/SichangHe/parse-rpsl-policy/internal/report"
)

func TestRecord_ExportAttributedToSender(t *testing.T) {
	table := NewTable()
	table.Record(dispatch.AdjacencyReport{Kind: dispatch.GoodExport, From: 64500, To: 64501})

	got := table.Get(64500)
	if got.ExportOk != 1 {
		t.Fatalf("expected ExportOk=1 on the sender, got %+v", got)
	}
	if other := table.Get(64501); other != (AsCounters{}) {
		t.Fatalf("expected the receiver untouched by an export verdict, got %+v", other)
	}
}

func TestRecord_ImportAttributedToReceiver(t *testing.T) {
	table := NewTable()
	table.Record(dispatch.AdjacencyReport{Kind: dispatch.BadImport, From: 64500, To: 64501})

	got := table.Get(64501)
	if got.ImportErr != 1 {
		t.Fatalf("expected ImportErr=1 on the receiver, got %+v", got)
	}
}

func TestRecord_AsPathPair_AttributesBothLegsToTransitAs(t *testing.T) {
	table := NewTable()
	table.Record(dispatch.AdjacencyReport{
		Kind:         dispatch.AsPathPair,
		From:         64500,
		To:           64502,
		At:           64501,
		ImportReport: report.Success(),
		ExportReport: report.Skip(report.SkipReason{Kind: report.SkipMissingVersion}),
	})

	got := table.Get(64501)
	if got.ImportOk != 1 {
		t.Fatalf("expected the transit AS's import leg counted as ok, got %+v", got)
	}
	if got.ExportSkip != 1 {
		t.Fatalf("expected the transit AS's export leg counted as skip, got %+v", got)
	}
}

func TestFold_DrainsChannel(t *testing.T) {
	ch := make(chan dispatch.AdjacencyReport, 2)
	ch <- dispatch.AdjacencyReport{Kind: dispatch.GoodExport, From: 1, To: 2}
	ch <- dispatch.AdjacencyReport{Kind: dispatch.GoodImport, From: 1, To: 2}
	close(ch)

	table := Fold(ch)
	if table.Get(1).ExportOk != 1 || table.Get(2).ImportOk != 1 {
		t.Fatalf("expected both records folded in, got sender=%+v receiver=%+v", table.Get(1), table.Get(2))
	}
}
