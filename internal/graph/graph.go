// Package graph orders named type definitions by their by-value
// dependencies.
package graph

import "slices"

// Graph is a dependency graph of names with forward edges.
type Graph struct {
	nodes map[string]struct{}
	edges map[string][]string
}

// New returns a graph with no nodes or edges.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]struct{}),
		edges: make(map[string][]string),
	}
}

// AddNode registers a name. Duplicate calls are no-ops.
func (g *Graph) AddNode(name string) {
	g.nodes[name] = struct{}{}
}

// AddEdge records that from depends on to, meaning to must be defined
// first. Missing nodes are created implicitly. Duplicate edges are
// ignored.
func (g *Graph) AddEdge(from, to string) {
	g.nodes[from] = struct{}{}
	g.nodes[to] = struct{}{}

	if slices.Contains(g.edges[from], to) {
		return
	}
	g.edges[from] = append(g.edges[from], to)
}

// ResolutionOrder returns names ordered so that dependencies come before
// dependents, using Tarjan's algorithm. Strongly connected components with
// more than one node, or a single node with a self-loop, are reported as
// cycles and excluded from the order. Output is deterministic.
func (g *Graph) ResolutionOrder() (order []string, cycles [][]string) {
	for _, scc := range g.tarjan() {
		if g.isCycle(scc) {
			slices.Sort(scc)
			cycles = append(cycles, scc)
		} else {
			order = append(order, scc[0])
		}
	}
	return order, cycles
}

func (g *Graph) isCycle(scc []string) bool {
	return len(scc) > 1 || slices.Contains(g.edges[scc[0]], scc[0])
}

// tarjan returns the strongly connected components in reverse topological
// order of the dependency edges, i.e. dependencies first.
func (g *Graph) tarjan() [][]string {
	var (
		index    int
		stack    []string
		sccs     [][]string
		onStack  = make(map[string]bool)
		indices  = make(map[string]int)
		lowlinks = make(map[string]int)
	)

	var strongConnect func(name string)
	strongConnect = func(name string) {
		indices[name] = index
		lowlinks[name] = index
		index++
		stack = append(stack, name)
		onStack[name] = true

		for _, dep := range g.edges[name] {
			if _, visited := indices[dep]; !visited {
				strongConnect(dep)
				lowlinks[name] = min(lowlinks[name], lowlinks[dep])
			} else if onStack[dep] {
				lowlinks[name] = min(lowlinks[name], indices[dep])
			}
		}

		if lowlinks[name] == indices[name] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == name {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	sorted := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		sorted = append(sorted, name)
	}
	slices.Sort(sorted)

	for _, name := range sorted {
		if _, visited := indices[name]; !visited {
			strongConnect(name)
		}
	}
	return sccs
}
