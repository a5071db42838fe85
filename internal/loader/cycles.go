// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"errors"

	"github.com/loomkit/loom/internal/catalog"
	"github.com/loomkit/loom/internal/dag"
	"github.com/loomkit/loom/internal/report"
	"github.com/loomkit/loom/pkg/universe"
)

// annotateCycles finds dependency cycles among the candidates left unresolved
// for missing dependencies and attaches them to their failures. Cycles are
// strongly connected components, so a failure belongs to at most one; loops
// sharing a node are reported as a single cycle.
func (l *Loader) annotateCycles(rep *report.Report) {
	unresolved := make(map[string]int)
	for i, f := range rep.Failures {
		if f.Phase == report.PhaseInitialize && f.Kind == report.KindMissingDependency {
			unresolved[f.ID.String()] = i
		}
	}
	if len(unresolved) == 0 {
		return
	}
	g := dag.New()
	for _, f := range rep.Failures {
		if _, ok := unresolved[f.ID.String()]; !ok {
			continue
		}
		d, ok := l.catalog.Descriptor(f.ID)
		if !ok {
			continue
		}
		g.AddNode(f.ID.String())
		for _, dep := range d.Dependencies {
			if _, ok := unresolved[dep.String()]; ok {
				g.AddEdge(dep.String(), f.ID.String())
			}
		}
	}
	rep.Cycles = g.Cycles()
	for _, cycle := range rep.Cycles {
		for _, name := range cycle {
			rep.Failures[unresolved[name]].Cycle = cycle
		}
	}
}

// dependencyLevels groups the initialization candidates by declared dependency
// depth. Candidates on or behind a cycle are left out of the levels and the
// cycles are returned separately.
func dependencyLevels(cat *catalog.Catalog) ([][]string, [][]string) {
	candidates := make(map[universe.TypeID]bool)
	var descs []*catalog.Descriptor
	for _, c := range catalog.InitializationCategories {
		for _, d := range cat.All(c) {
			candidates[d.ID] = true
			descs = append(descs, d)
		}
	}
	build := func(skip map[string]bool) *dag.Graph {
		g := dag.New()
		for _, d := range descs {
			name := d.ID.String()
			if skip[name] {
				continue
			}
			g.AddNode(name)
			for _, dep := range d.Dependencies {
				if candidates[dep] && !skip[dep.String()] {
					g.AddEdge(dep.String(), name)
				}
			}
		}
		return g
	}

	g := build(nil)
	levels, err := g.Levels()
	var cycleErr *dag.CycleError
	if !errors.As(err, &cycleErr) {
		return levels, nil
	}
	skip := make(map[string]bool, len(cycleErr.Cycle))
	for _, name := range cycleErr.Cycle {
		skip[name] = true
	}
	levels, _ = build(skip).Levels()
	return levels, g.Cycles()
}
