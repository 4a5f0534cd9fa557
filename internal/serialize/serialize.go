// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package serialize implements the on-disk dump layout of spec §6: a
// directory of per-entity-kind files, each a zstd-compressed JSON array of
// records, round-tripping a Dump losslessly between a `parse` run and a
// later `read` run.
package serialize

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	rpslerrors "github.com/SichangHe/parse-rpsl-policy/internal/errors"
	"github.com/SichangHe/parse-rpsl-policy/internal/rpsl"
)

const (
	autNumsFile     = "aut_nums.json.zst"
	asSetsFile      = "as_sets.json.zst"
	routeSetsFile   = "route_sets.json.zst"
	peeringSetsFile = "peering_sets.json.zst"
	filterSetsFile  = "filter_sets.json.zst"
	asRoutesFile    = "as_routes.json.zst"
)

type autNumRecord struct {
	Num    rpsl.AsNum  `json:"num"`
	AutNum *rpsl.AutNum `json:"aut_num"`
}

type asSetRecord struct {
	Name string     `json:"name"`
	Set  *rpsl.AsSet `json:"set"`
}

type routeSetRecord struct {
	Name string        `json:"name"`
	Set  *rpsl.RouteSet `json:"set"`
}

type peeringSetRecord struct {
	Name string           `json:"name"`
	Set  *rpsl.PeeringSet `json:"set"`
}

type filterSetRecord struct {
	Name string          `json:"name"`
	Set  *rpsl.FilterSet `json:"set"`
}

type asRoutesRecord struct {
	Num    rpsl.AsNum   `json:"num"`
	Routes []rpsl.IpNet `json:"routes"`
}

// Save writes dump to dir as the file-per-entity-kind layout spec §6
// describes, creating dir if it doesn't already exist.
func Save(dir string, dump *rpsl.Dump) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return rpslerrors.Wrapf(err, rpslerrors.KindUnavailable, "serialize: creating %s", dir)
	}

	autNums := make([]autNumRecord, 0, len(dump.AutNums))
	for num, an := range dump.AutNums {
		autNums = append(autNums, autNumRecord{Num: num, AutNum: an})
	}
	if err := writeEntity(dir, autNumsFile, autNums); err != nil {
		return err
	}

	asSets := make([]asSetRecord, 0, len(dump.AsSets))
	for name, s := range dump.AsSets {
		asSets = append(asSets, asSetRecord{Name: name, Set: s})
	}
	if err := writeEntity(dir, asSetsFile, asSets); err != nil {
		return err
	}

	routeSets := make([]routeSetRecord, 0, len(dump.RouteSets))
	for name, s := range dump.RouteSets {
		routeSets = append(routeSets, routeSetRecord{Name: name, Set: s})
	}
	if err := writeEntity(dir, routeSetsFile, routeSets); err != nil {
		return err
	}

	peeringSets := make([]peeringSetRecord, 0, len(dump.PeeringSets))
	for name, s := range dump.PeeringSets {
		peeringSets = append(peeringSets, peeringSetRecord{Name: name, Set: s})
	}
	if err := writeEntity(dir, peeringSetsFile, peeringSets); err != nil {
		return err
	}

	filterSets := make([]filterSetRecord, 0, len(dump.FilterSets))
	for name, s := range dump.FilterSets {
		filterSets = append(filterSets, filterSetRecord{Name: name, Set: s})
	}
	if err := writeEntity(dir, filterSetsFile, filterSets); err != nil {
		return err
	}

	asRoutes := make([]asRoutesRecord, 0, len(dump.AsRoutes))
	for num, routes := range dump.AsRoutes {
		asRoutes = append(asRoutes, asRoutesRecord{Num: num, Routes: routes})
	}
	return writeEntity(dir, asRoutesFile, asRoutes)
}

// Load reads the file-per-entity-kind layout Save produced back into a
// Dump. Any entity file missing from dir is treated as empty rather than
// an error, so a dump built from a partial RPSL snapshot round-trips too.
func Load(dir string) (*rpsl.Dump, error) {
	dump := rpsl.NewDump()

	var autNums []autNumRecord
	if err := readEntity(dir, autNumsFile, &autNums); err != nil {
		return nil, err
	}
	for _, r := range autNums {
		dump.AutNums[r.Num] = r.AutNum
	}

	var asSets []asSetRecord
	if err := readEntity(dir, asSetsFile, &asSets); err != nil {
		return nil, err
	}
	for _, r := range asSets {
		dump.AsSets[r.Name] = r.Set
	}

	var routeSets []routeSetRecord
	if err := readEntity(dir, routeSetsFile, &routeSets); err != nil {
		return nil, err
	}
	for _, r := range routeSets {
		dump.RouteSets[r.Name] = r.Set
	}

	var peeringSets []peeringSetRecord
	if err := readEntity(dir, peeringSetsFile, &peeringSets); err != nil {
		return nil, err
	}
	for _, r := range peeringSets {
		dump.PeeringSets[r.Name] = r.Set
	}

	var filterSets []filterSetRecord
	if err := readEntity(dir, filterSetsFile, &filterSets); err != nil {
		return nil, err
	}
	for _, r := range filterSets {
		dump.FilterSets[r.Name] = r.Set
	}

	var asRoutes []asRoutesRecord
	if err := readEntity(dir, asRoutesFile, &asRoutes); err != nil {
		return nil, err
	}
	for _, r := range asRoutes {
		dump.AsRoutes[r.Num] = r.Routes
	}

	return dump, nil
}

func writeEntity(dir, name string, records any) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return rpslerrors.Wrapf(err, rpslerrors.KindInternal, "serialize: marshaling %s", name)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return rpslerrors.Wrap(err, rpslerrors.KindInternal, "serialize: building zstd encoder")
	}
	defer enc.Close()
	compressed := enc.EncodeAll(raw, nil)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, compressed, 0o644); err != nil {
		return rpslerrors.Wrapf(err, rpslerrors.KindUnavailable, "serialize: writing %s", path)
	}
	return nil
}

func readEntity(dir, name string, out any) error {
	path := filepath.Join(dir, name)
	compressed, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return rpslerrors.Wrapf(err, rpslerrors.KindUnavailable, "serialize: reading %s", path)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return rpslerrors.Wrap(err, rpslerrors.KindInternal, "serialize: building zstd decoder")
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return rpslerrors.Wrapf(err, rpslerrors.KindMalformedDump, "serialize: decompressing %s", path)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return rpslerrors.Wrapf(err, rpslerrors.KindMalformedDump, "serialize: unmarshaling %s", path)
	}
	return nil
}
