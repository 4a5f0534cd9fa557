// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package stats implements the per-AS statistics roll-up of spec §4.G:
// folding a stream of dispatch.AdjacencyReport values into a concurrent
// map of named counters, attributing import verdicts to the receiving AS
// and export verdicts to the sending AS (spec §5: "Report aggregation into
// AsStats ... uses a concurrent map with per-key atomic increment
// semantics").
package stats

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/SichangHe/parse-rpsl-policy/internal/dispatch"
	"github.com/SichangHe/parse-rpsl-policy/internal/report"
	"github.com/SichangHe/parse-rpsl-policy/internal/rpsl"
)

// AsCounters is one AS's tally (spec §4.G): six unsigned 32-bit counters,
// wide enough for a full table run and chosen for downstream tabular
// export. Every field is only ever touched through atomic.AddUint32, so a
// *AsCounters may be read and written from multiple goroutines at once.
type AsCounters struct {
	ImportOk   uint32
	ExportOk   uint32
	ImportSkip uint32
	ExportSkip uint32
	ImportErr  uint32
	ExportErr  uint32
}

func (c *AsCounters) snapshot() AsCounters {
	return AsCounters{
		ImportOk:   atomic.LoadUint32(&c.ImportOk),
		ExportOk:   atomic.LoadUint32(&c.ExportOk),
		ImportSkip: atomic.LoadUint32(&c.ImportSkip),
		ExportSkip: atomic.LoadUint32(&c.ExportSkip),
		ImportErr:  atomic.LoadUint32(&c.ImportErr),
		ExportErr:  atomic.LoadUint32(&c.ExportErr),
	}
}

// Table is the concurrent per-AS counter map spec §4.G/§5 describes. The
// zero value is not usable; construct with NewTable.
type Table struct {
	counters sync.Map // rpsl.AsNum -> *AsCounters
	prom     *prometheus.CounterVec
}

// NewTable returns an empty Table. prom counts the same events a second
// way, labeled by AS and verdict kind, so a batch run can be scraped the
// way the rest of this module's domain stack exposes prometheus metrics;
// pass the result to Register to make it visible to a collector.
func NewTable() *Table {
	return &Table{
		prom: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpslpolicy_adjacency_verdicts_total",
			Help: "Count of policy-dispatch verdicts per AS and verdict kind.",
		}, []string{"as", "verdict"}),
	}
}

// Register exposes t's prometheus counters to reg. Optional: the plain Get
// accessor below works whether or not Register is ever called.
func (t *Table) Register(reg prometheus.Registerer) error {
	return reg.Register(t.prom)
}

func (t *Table) entry(as rpsl.AsNum) *AsCounters {
	v, _ := t.counters.LoadOrStore(as, &AsCounters{})
	return v.(*AsCounters)
}

// Get returns a point-in-time snapshot of as's counters, or the zero value
// if as has never been recorded.
func (t *Table) Get(as rpsl.AsNum) AsCounters {
	v, ok := t.counters.Load(as)
	if !ok {
		return AsCounters{}
	}
	return v.(*AsCounters).snapshot()
}

// Record folds one dispatch.AdjacencyReport into t. Import-flavoured kinds
// are attributed to the receiving AS (To), export-flavoured kinds to the
// sending AS (From); an AsPathPair attributes both legs to the transit AS
// (At), since a forwarding AS is simultaneously the importer and exporter
// of that one record.
func (t *Table) Record(r dispatch.AdjacencyReport) {
	switch r.Kind {
	case dispatch.GoodExport, dispatch.GoodSingleExport:
		t.bump(r.From, &t.entry(r.From).ExportOk, "export_ok")
	case dispatch.NeutralExport, dispatch.NeutralSingleExport:
		t.bump(r.From, &t.entry(r.From).ExportSkip, "export_skip")
	case dispatch.BadExport, dispatch.BadSingleExport:
		t.bump(r.From, &t.entry(r.From).ExportErr, "export_err")

	case dispatch.GoodImport:
		t.bump(r.To, &t.entry(r.To).ImportOk, "import_ok")
	case dispatch.NeutralImport:
		t.bump(r.To, &t.entry(r.To).ImportSkip, "import_skip")
	case dispatch.BadImport:
		t.bump(r.To, &t.entry(r.To).ImportErr, "import_err")

	case dispatch.AsPathPair:
		c := t.entry(r.At)
		t.bumpLeg(r.At, &c.ImportOk, &c.ImportSkip, &c.ImportErr, r.ImportReport, "import")
		t.bumpLeg(r.At, &c.ExportOk, &c.ExportSkip, &c.ExportErr, r.ExportReport, "export")
	}
}

func (t *Table) bump(as rpsl.AsNum, counter *uint32, verdict string) {
	atomic.AddUint32(counter, 1)
	t.prom.WithLabelValues(asLabel(as), verdict).Inc()
}

func (t *Table) bumpLeg(as rpsl.AsNum, ok, skip, err *uint32, leg report.Report, verdict string) {
	switch {
	case report.IsSuccess(leg):
		atomic.AddUint32(ok, 1)
		t.prom.WithLabelValues(asLabel(as), verdict+"_ok").Inc()
	case report.IsFailure(leg):
		atomic.AddUint32(err, 1)
		t.prom.WithLabelValues(asLabel(as), verdict+"_err").Inc()
	default:
		atomic.AddUint32(skip, 1)
		t.prom.WithLabelValues(asLabel(as), verdict+"_skip").Inc()
	}
}

// Fold drains reports, recording each into a fresh Table, and returns it
// once the channel closes. Grounded on the original's stats module (spec
// §4.G "Report aggregation... uses a concurrent map"), adapted to a
// channel so a long batch run can stream verdicts in rather than
// materializing the whole slice first.
func Fold(reports <-chan dispatch.AdjacencyReport) *Table {
	t := NewTable()
	for r := range reports {
		t.Record(r)
	}
	return t
}

func asLabel(as rpsl.AsNum) string {
	return strconv.FormatUint(uint64(as), 10)
}
