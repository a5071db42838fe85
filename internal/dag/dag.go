// SPDX-License-Identifier: MPL-2.0

// Package dag orders declared type dependencies. The loader uses it for the
// plan preview (which pass each type is expected to initialize in) and for the
// cycle hint attached to a failure report once retries are exhausted.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError reports that the graph cannot be ordered.
	CycleError struct {
		// Cycle lists the nodes left with unresolved predecessors; it names at
		// least one cycle and may include nodes downstream of it.
		Cycle []string
	}

	// Graph is a directed graph keyed by node name. An edge from A to B means
	// A must be initialized before B.
	Graph struct {
		adjacency map[string][]string
		// nodes keeps insertion order so every result is deterministic.
		nodes   []string
		nodeSet map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge adds from -> to, adding both nodes as needed.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.adjacency[from] = append(g.adjacency[from], to)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// TopologicalSort returns an order in which every node follows its
// predecessors (Kahn's algorithm). Nodes that become ready together keep
// insertion order. A graph with a cycle returns a *CycleError.
func (g *Graph) TopologicalSort() ([]string, error) {
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}
	var order []string
	for _, level := range levels {
		order = append(order, level...)
	}
	return order, nil
}

// Levels groups nodes into waves: level 0 holds nodes without predecessors and
// level n holds nodes whose predecessors all sit in levels below n. Within a
// level nodes keep insertion order. A graph with a cycle returns a *CycleError.
func (g *Graph) Levels() ([][]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, neighbors := range g.adjacency {
		for _, n := range neighbors {
			inDegree[n]++
		}
	}

	var current []string
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			current = append(current, node)
		}
	}

	var levels [][]string
	placed := 0
	for len(current) > 0 {
		levels = append(levels, current)
		placed += len(current)
		ready := make(map[string]bool)
		for _, node := range current {
			for _, n := range g.adjacency[node] {
				inDegree[n]--
				if inDegree[n] == 0 {
					ready[n] = true
				}
			}
		}
		var next []string
		for _, node := range g.nodes {
			if ready[node] {
				next = append(next, node)
			}
		}
		current = next
	}

	if placed != len(g.nodes) {
		var stuck []string
		for _, node := range g.nodes {
			if inDegree[node] > 0 {
				stuck = append(stuck, node)
			}
		}
		return nil, &CycleError{Cycle: stuck}
	}
	return levels, nil
}

// Cycles returns the strongly connected components that form cycles: every
// component of two or more nodes, plus single nodes with a self-loop. Each
// cycle lists its nodes in insertion order and cycles are ordered by their
// first node.
func (g *Graph) Cycles() [][]string {
	index := make(map[string]int, len(g.nodes))
	for i, n := range g.nodes {
		index[n] = i
	}

	t := tarjan{
		g:       g,
		indices: make(map[string]int),
		low:     make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, n := range g.nodes {
		if _, seen := t.indices[n]; !seen {
			t.connect(n)
		}
	}

	var cycles [][]string
	for _, scc := range t.components {
		if len(scc) == 1 && !slices.Contains(g.adjacency[scc[0]], scc[0]) {
			continue
		}
		slices.SortFunc(scc, func(a, b string) int { return index[a] - index[b] })
		cycles = append(cycles, scc)
	}
	slices.SortFunc(cycles, func(a, b []string) int { return index[a[0]] - index[b[0]] })
	return cycles
}

type tarjan struct {
	g          *Graph
	next       int
	indices    map[string]int
	low        map[string]int
	stack      []string
	onStack    map[string]bool
	components [][]string
}

func (t *tarjan) connect(v string) {
	t.indices[v] = t.next
	t.low[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.adjacency[v] {
		if _, seen := t.indices[w]; !seen {
			t.connect(w)
			t.low[v] = min(t.low[v], t.low[w])
		} else if t.onStack[w] {
			t.low[v] = min(t.low[v], t.indices[w])
		}
	}

	if t.low[v] != t.indices[v] {
		return
	}
	var scc []string
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	t.components = append(t.components, scc)
}
