// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package querydump builds the QueryDump (spec §4.C, §5): a derived,
// evaluation-ready view of a raw rpsl.Dump where each AS's originated
// routes are sorted and deduplicated, and each as-set's transitively
// reachable routes are flattened one pass deep rather than to a true
// fixed point — a deliberate compatibility quirk (spec §9, Open
// Questions), not an oversight, so an as-set-of-as-sets-of-as-sets
// still leaves a dangling SetMembers entry after the build.
package querydump

import (
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/SichangHe/parse-rpsl-policy/internal/rpsl"
)

// AsSetRoute is the flattened view of one as-set: the union of routes
// originated by its direct AS members and by those of the as-sets it
// directly references, the AS numbers among those members that had no
// recorded routes at all, and whatever nested as-set names the one-pass
// flatten did not resolve (spec §4.C).
type AsSetRoute struct {
	Routes         []rpsl.IpNet
	UnrecordedNums []rpsl.AsNum
	SetMembers     []string
}

// QueryDump is the build output consumed by every downstream component
// (filter checker, peering matcher, dispatcher). It embeds the raw Dump
// so entity lookups (aut-nums, route-sets, peering-sets, filter-sets)
// keep going through the same accessors; AsRoutes and AsSetRoutes are
// the derived, evaluation-ready additions.
type QueryDump struct {
	Dump *rpsl.Dump

	AsRoutes      map[rpsl.AsNum][]rpsl.IpNet
	AsRoutesIndex map[rpsl.AsNum]*RouteIndex

	AsSetRoutes      map[string]*AsSetRoute
	AsSetRoutesIndex map[string]*RouteIndex
}

// Build runs the three build steps of spec §4.C: sort/dedup as_routes,
// compute each as-set's initial (one level) route union, then flatten
// set_members references one pass deep. Steps 1 and 2 are embarrassingly
// parallel across independent map keys; step 3 is too, since every
// goroutine only reads the step-2 snapshot and writes its own output
// slot. Each phase is fanned out with an errgroup (spec §5: "parallel
// by key, no shared mutable state across workers").
func Build(dump *rpsl.Dump) (*QueryDump, error) {
	qd := &QueryDump{
		Dump:             dump,
		AsRoutes:         make(map[rpsl.AsNum][]rpsl.IpNet, len(dump.AsRoutes)),
		AsRoutesIndex:    make(map[rpsl.AsNum]*RouteIndex, len(dump.AsRoutes)),
		AsSetRoutes:      make(map[string]*AsSetRoute, len(dump.AsSets)),
		AsSetRoutesIndex: make(map[string]*RouteIndex, len(dump.AsSets)),
	}

	if err := qd.buildAsRoutes(dump); err != nil {
		return nil, err
	}

	initial, err := buildInitialAsSetRoutes(dump, qd.AsRoutes)
	if err != nil {
		return nil, err
	}

	flattened, err := flattenAsSetRoutes(initial)
	if err != nil {
		return nil, err
	}
	qd.AsSetRoutes = flattened

	if err := qd.buildAsSetRoutesIndex(); err != nil {
		return nil, err
	}

	return qd, nil
}

// buildAsRoutes sorts and dedups dump.AsRoutes per AS number in parallel,
// then builds a RouteIndex per AS for the evaluation-time fast path.
func (qd *QueryDump) buildAsRoutes(dump *rpsl.Dump) error {
	type entry struct {
		num    rpsl.AsNum
		routes []rpsl.IpNet
	}
	nums := make([]rpsl.AsNum, 0, len(dump.AsRoutes))
	for n := range dump.AsRoutes {
		nums = append(nums, n)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })

	results := make([]entry, len(nums))
	var g errgroup.Group
	for i, n := range nums {
		i, n := i, n
		g.Go(func() error {
			results[i] = entry{num: n, routes: sortDedupRoutes(dump.AsRoutes[n])}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, e := range results {
		qd.AsRoutes[e.num] = e.routes
		qd.AsRoutesIndex[e.num] = NewRouteIndex(e.routes)
	}
	return nil
}

// buildAsSetRoutesIndex indexes each flattened as-set's routes.
func (qd *QueryDump) buildAsSetRoutesIndex() error {
	names := make([]string, 0, len(qd.AsSetRoutes))
	for name := range qd.AsSetRoutes {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]*RouteIndex, len(names))
	var g errgroup.Group
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			results[i] = NewRouteIndex(qd.AsSetRoutes[name].Routes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, name := range names {
		qd.AsSetRoutesIndex[name] = results[i]
	}
	return nil
}

// buildInitialAsSetRoutes computes, for every as-set, the union of routes
// its direct AS members originate (recording AS members with no recorded
// routes as UnrecordedNums), and carries SetMembers through untouched for
// the flatten step to resolve.
func buildInitialAsSetRoutes(dump *rpsl.Dump, asRoutes map[rpsl.AsNum][]rpsl.IpNet) (map[string]*AsSetRoute, error) {
	names := make([]string, 0, len(dump.AsSets))
	for name := range dump.AsSets {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]*AsSetRoute, len(names))
	var g errgroup.Group
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			set := dump.AsSets[name]
			var routes []rpsl.IpNet
			var unrecorded []rpsl.AsNum
			for _, n := range set.Members {
				r, ok := asRoutes[n]
				if !ok || len(r) == 0 {
					unrecorded = append(unrecorded, n)
					continue
				}
				routes = append(routes, r...)
			}
			setMembers := append([]string(nil), set.SetMembers...)
			results[i] = &AsSetRoute{
				Routes:         sortDedupRoutes(routes),
				UnrecordedNums: sortDedupAsNums(unrecorded),
				SetMembers:     sortDedupStrings(setMembers),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*AsSetRoute, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	return out, nil
}

// flattenAsSetRoutes performs the one-pass (not fixed-point) flatten: for
// each as-set, every nested set_members name present in the initial build
// is resolved against the *initial* snapshot and folded in once. Resolving
// a nested as-set folds in its routes AND carries forward whatever
// set_members names it couldn't itself resolve in the initial pass — so a
// grandchild left dangling one level down still surfaces in the parent's
// SetMembers rather than silently vanishing. A direct set_members name is
// left dangling (kept in the result's SetMembers) when it is not itself a
// known as-set; a resolved child's own set_members names are carried over
// as they are, whether or not they name known as-sets. Neither case is an
// error here.
func flattenAsSetRoutes(initial map[string]*AsSetRoute) (map[string]*AsSetRoute, error) {
	names := make([]string, 0, len(initial))
	for name := range initial {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]*AsSetRoute, len(names))
	var g errgroup.Group
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			self := initial[name]
			routes := append([]rpsl.IpNet(nil), self.Routes...)
			unrecorded := append([]rpsl.AsNum(nil), self.UnrecordedNums...)
			var dangling []string

			for _, member := range self.SetMembers {
				nested, ok := initial[member]
				if !ok {
					dangling = append(dangling, member)
					continue
				}
				routes = append(routes, nested.Routes...)
				unrecorded = append(unrecorded, nested.UnrecordedNums...)
				dangling = append(dangling, nested.SetMembers...)
			}

			results[i] = &AsSetRoute{
				Routes:         sortDedupRoutes(routes),
				UnrecordedNums: sortDedupAsNums(unrecorded),
				SetMembers:     sortDedupStrings(dangling),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*AsSetRoute, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	return out, nil
}

func sortDedupRoutes(routes []rpsl.IpNet) []rpsl.IpNet {
	if len(routes) == 0 {
		return nil
	}
	sorted := append([]rpsl.IpNet(nil), routes...)
	sort.Slice(sorted, func(i, j int) bool { return prefixLess(sorted[i], sorted[j]) })
	out := sorted[:1]
	for _, p := range sorted[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

func prefixLess(a, b rpsl.IpNet) bool {
	if a.Addr() != b.Addr() {
		return a.Addr().Less(b.Addr())
	}
	return a.Bits() < b.Bits()
}

func sortDedupAsNums(nums []rpsl.AsNum) []rpsl.AsNum {
	if len(nums) == 0 {
		return nil
	}
	sorted := append([]rpsl.AsNum(nil), nums...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	out := sorted[:1]
	for _, n := range sorted[1:] {
		if n != out[len(out)-1] {
			out = append(out, n)
		}
	}
	return out
}

func sortDedupStrings(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	out := sorted[:1]
	for _, s := range sorted[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}

// GetAsRoutes returns the sorted, deduplicated routes an AS originates.
func (qd *QueryDump) GetAsRoutes(n rpsl.AsNum) ([]rpsl.IpNet, bool) {
	r, ok := qd.AsRoutes[n]
	return r, ok
}

// GetAsSetRoutes returns the flattened AsSetRoute for a canonicalized
// as-set name.
func (qd *QueryDump) GetAsSetRoutes(name string) (*AsSetRoute, bool) {
	r, ok := qd.AsSetRoutes[rpsl.CanonicalSetName(name)]
	return r, ok
}
