package output

import (
	"sort"
	"strings"
	"unicode"

	"github.com/cmyui/unused-import-linter-py/internal/graph"
)

func moduleNameFor(g *graph.ImportGraph, path string) string {
	if record, ok := g.Nodes[path]; ok {
		return record.ModuleName
	}
	return ""
}

// edgeTarget names an edge's destination: the target's module name for
// local edges, the referenced module name for external ones.
func edgeTarget(g *graph.ImportGraph, edge *graph.ImportEdge) string {
	if edge.IsExternal {
		return edge.ModuleName
	}
	return moduleNameFor(g, edge.Imported)
}

func localModuleNames(g *graph.ImportGraph) []string {
	names := make([]string, 0, len(g.Nodes))
	for _, record := range g.Nodes {
		names = append(names, record.ModuleName)
	}
	sort.Strings(names)
	return names
}

func externalModuleNames(g *graph.ImportGraph) []string {
	seen := make(map[string]bool)
	for _, edge := range g.Edges {
		if edge.IsExternal {
			seen[edge.ModuleName] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sortedEdges dedupes edges per (from, to) module pair and orders them
// for stable output.
func sortedEdges(g *graph.ImportGraph) []*graph.ImportEdge {
	type pair struct{ from, to string }
	seen := make(map[pair]bool)
	var edges []*graph.ImportEdge
	for _, edge := range g.Edges {
		key := pair{moduleNameFor(g, edge.Importer), edgeTarget(g, edge)}
		if seen[key] {
			continue
		}
		seen[key] = true
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		fi, fj := moduleNameFor(g, edges[i].Importer), moduleNameFor(g, edges[j].Importer)
		if fi != fj {
			return fi < fj
		}
		return edgeTarget(g, edges[i]) < edgeTarget(g, edges[j])
	})
	return edges
}

// cycleModuleSet translates cycle file paths into module names.
func cycleModuleSet(g *graph.ImportGraph, cycles [][]string) map[string]bool {
	modules := make(map[string]bool)
	for _, cycle := range cycles {
		for _, path := range cycle {
			if name := moduleNameFor(g, path); name != "" {
				modules[name] = true
			}
		}
	}
	return modules
}

// sanitizeID makes a module name safe as a Mermaid or PlantUML node id.
func sanitizeID(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
