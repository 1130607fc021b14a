package graph

import (
	"sort"

	"github.com/cmyui/unused-import-linter-py/internal/parser"
)

// ModuleRecord is one node of the import graph: a parsed local file plus
// its dotted module name.
type ModuleRecord struct {
	Path       string
	ModuleName string
	IsPackage  bool
	File       *parser.File
}

// ImportEdge links an importing file to a resolved target. Imported is
// empty for external edges. Names holds the imported names of a
// from-import before aliasing; plain imports carry no names.
type ImportEdge struct {
	Importer   string
	Imported   string
	ModuleName string
	Names      map[string]bool
	IsExternal bool
}

// ImportGraph holds nodes keyed by file path and the edges between them.
type ImportGraph struct {
	Nodes map[string]*ModuleRecord
	Edges []*ImportEdge

	imports   map[string][]*ImportEdge
	importers map[string][]*ImportEdge
}

func NewImportGraph() *ImportGraph {
	return &ImportGraph{
		Nodes:     make(map[string]*ModuleRecord),
		imports:   make(map[string][]*ImportEdge),
		importers: make(map[string][]*ImportEdge),
	}
}

func (g *ImportGraph) AddNode(record *ModuleRecord) {
	g.Nodes[record.Path] = record
}

func (g *ImportGraph) AddEdge(edge *ImportEdge) {
	g.Edges = append(g.Edges, edge)
	g.imports[edge.Importer] = append(g.imports[edge.Importer], edge)
	if !edge.IsExternal {
		g.importers[edge.Imported] = append(g.importers[edge.Imported], edge)
	}
}

// pruneDanglingEdges drops local edges whose target has no node. A
// resolved target can be missing when its file failed to parse or was
// excluded from the scan; every surviving local edge endpoint is a
// declared node.
func (g *ImportGraph) pruneDanglingEdges() {
	var kept []*ImportEdge
	for _, edge := range g.Edges {
		if !edge.IsExternal {
			if _, ok := g.Nodes[edge.Imported]; !ok {
				continue
			}
		}
		kept = append(kept, edge)
	}
	if len(kept) == len(g.Edges) {
		return
	}

	g.Edges = kept
	g.imports = make(map[string][]*ImportEdge)
	g.importers = make(map[string][]*ImportEdge)
	for _, edge := range kept {
		g.imports[edge.Importer] = append(g.imports[edge.Importer], edge)
		if !edge.IsExternal {
			g.importers[edge.Imported] = append(g.importers[edge.Imported], edge)
		}
	}
}

// Imports returns the outgoing edges of a file.
func (g *ImportGraph) Imports(path string) []*ImportEdge {
	return g.imports[path]
}

// Importers returns the incoming local edges of a file.
func (g *ImportGraph) Importers(path string) []*ImportEdge {
	return g.importers[path]
}

// FindCycles runs a depth-first search over the local edges and reports
// every back edge as one cycle, listed as the file paths along the loop.
func (g *ImportGraph) FindCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, path := range g.sortedPaths() {
		if !visited[path] {
			g.findCycles(path, visited, onStack, []string{}, &cycles)
		}
	}
	return cycles
}

func (g *ImportGraph) findCycles(curr string, visited, onStack map[string]bool, path []string, cycles *[][]string) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, edge := range g.imports[curr] {
		if edge.IsExternal {
			continue
		}
		next := edge.Imported
		if onStack[next] {
			cycleStart := -1
			for i, p := range path {
				if p == next {
					cycleStart = i
					break
				}
			}
			if cycleStart != -1 {
				cycle := make([]string, len(path)-cycleStart)
				copy(cycle, path[cycleStart:])
				*cycles = append(*cycles, cycle)
			}
		} else if !visited[next] {
			g.findCycles(next, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}

// TopologicalOrder returns the nodes with dependencies before their
// dependents. Members of a cycle appear in traversal order relative to
// each other.
func (g *ImportGraph) TopologicalOrder() []string {
	var order []string
	visited := make(map[string]bool)

	var visit func(path string)
	visit = func(path string) {
		visited[path] = true
		for _, edge := range g.imports[path] {
			if edge.IsExternal || visited[edge.Imported] {
				continue
			}
			if _, ok := g.Nodes[edge.Imported]; !ok {
				continue
			}
			visit(edge.Imported)
		}
		order = append(order, path)
	}

	for _, path := range g.sortedPaths() {
		if !visited[path] {
			visit(path)
		}
	}
	return order
}

func (g *ImportGraph) sortedPaths() []string {
	paths := make([]string, 0, len(g.Nodes))
	for path := range g.Nodes {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
