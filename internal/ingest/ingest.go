// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ingest parses the line-oriented `bgpdump -m` table-dump format
// (spec §6) into dispatch.Observation records: one BGP RIB entry per line,
// pipe-delimited, of which only the prefix and AS-path fields are
// semantically required. The raw line is retained verbatim on each parsed
// record for reporting, the way a failed evaluation can point back at
// exactly the input that produced it.
//
// Grounded on the pipe-split, field-indexed line parsing of
// Emeline-1-anaximander_simulator's parse_bgp_record (bgpreader's closely
// related "-|-|-|..." wire format), adapted to `bgpdump -m`'s own field
// layout and to this module's stronger types (rpsl.AsNum, rpsl.IpNet)
// instead of raw strings.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"strconv"
	"strings"

	"github.com/SichangHe/parse-rpsl-policy/internal/dispatch"
	"github.com/SichangHe/parse-rpsl-policy/internal/peering"
	"github.com/SichangHe/parse-rpsl-policy/internal/rpsl"
)

// minFields is the number of `|`-delimited fields a well-formed `bgpdump -m`
// RIB/update line carries, up through the AS-path field at index asPathField.
const minFields = 7

const (
	msgField    = 2
	prefixField = 5
	asPathField = 6
)

// Record is one parsed table-dump line: the Observation it reduces to, plus
// the raw text it came from for diagnostics.
type Record struct {
	Raw         string
	Observation dispatch.Observation
}

// ScanLines reads `bgpdump -m` output from r, parsing every RIB ("B") and
// announcement ("A") line into a Record. Malformed or
// non-RIB lines (headers, withdrawals, anything shorter than the AS-path
// field) are skipped rather than aborting the scan — a single corrupt line
// in a multi-million-line table dump must not sink the whole run.
func ScanLines(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var out []Record
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		rec, ok := parseLine(line)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ingest: scanning table dump: %w", err)
	}
	return out, nil
}

// parseLine parses one `bgpdump -m` line into a Record. ok is false for
// lines this parser doesn't recognize as a usable RIB entry.
func parseLine(line string) (Record, bool) {
	fields := strings.Split(line, "|")
	if len(fields) < minFields {
		return Record{}, false
	}
	// TABLE_DUMP2/BGP4MP lines mark RIB/announcement content with "B" or
	// "A"; "W" (withdrawal) carries no AS path worth checking.
	switch fields[msgField] {
	case "B", "A":
	default:
		return Record{}, false
	}
	prefix, err := netip.ParsePrefix(fields[prefixField])
	if err != nil {
		return Record{}, false
	}

	asPath, neighbors := parseAsPath(fields[asPathField])
	if len(asPath) == 0 {
		return Record{}, false
	}

	return Record{
		Raw: line,
		Observation: dispatch.Observation{
			Prefix:    prefix,
			AsPath:    asPath,
			AfiSafi:   afiSafiOf(prefix),
			Neighbors: neighbors,
		},
	}, true
}

// parseAsPath splits a space-separated AS-path field into an ordered
// rpsl.AsNum slice, collapsing AS-set segments ("{65000,65001}") to their
// first member and keeping the members of confederation segments
// ("(65002 65003)") with their parens removed — neither shape changes which AS
// originated the route, the only fact this module's dispatcher needs from
// the path beyond simple adjacency. Also builds the Neighbor slice dispatch
// uses to resolve a concrete peer for each hop (bare AS number, no known
// router IP — `bgpdump -m` doesn't carry per-hop router addresses).
func parseAsPath(field string) ([]rpsl.AsNum, []peering.Neighbor) {
	segments := strings.Fields(field)
	asPath := make([]rpsl.AsNum, 0, len(segments))
	var lastAs rpsl.AsNum
	haveLast := false
	for _, seg := range segments {
		seg = strings.Trim(seg, "{}()")
		seg = strings.SplitN(seg, ",", 2)[0]
		n, err := strconv.ParseUint(seg, 10, 32)
		if err != nil {
			continue
		}
		as := rpsl.AsNum(n)
		if haveLast && as == lastAs {
			// BGP path-prepending: collapse consecutive repeats, they
			// represent one logical hop, not a self-adjacency.
			continue
		}
		asPath = append(asPath, as)
		lastAs = as
		haveLast = true
	}

	neighbors := make([]peering.Neighbor, 0, len(asPath))
	for _, as := range asPath {
		neighbors = append(neighbors, peering.Neighbor{AsNum: as})
	}
	return asPath, neighbors
}

func afiSafiOf(p rpsl.IpNet) rpsl.AfiSafi {
	if p.Addr().Is4() {
		return rpsl.AfiSafi{Afi: "ipv4", Safi: "unicast"}
	}
	return rpsl.AfiSafi{Afi: "ipv6", Safi: "unicast"}
}
