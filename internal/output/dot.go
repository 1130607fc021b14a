// Package output renders the import graph in exchange formats: Graphviz
// DOT, Mermaid, PlantUML, and TSV. Node identity is the dotted module
// name; external modules render in their own cluster.
package output

import (
	"fmt"
	"strings"

	"github.com/cmyui/unused-import-linter-py/internal/graph"
)

type DOTGenerator struct {
	graph *graph.ImportGraph
}

func NewDOTGenerator(g *graph.ImportGraph) *DOTGenerator {
	return &DOTGenerator{graph: g}
}

func (d *DOTGenerator) Generate(cycles [][]string) (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph imports {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  ranksep=1.5;\n")
	buf.WriteString("  nodesep=0.6;\n")
	buf.WriteString("  splines=polyline;\n")
	buf.WriteString("  overlap=false;\n\n")

	cycleModules := cycleModuleSet(d.graph, cycles)

	buf.WriteString("  subgraph cluster_local {\n")
	buf.WriteString("    label=\"Local Modules\";\n")
	buf.WriteString("    style=filled;\n")
	buf.WriteString("    color=\"whitesmoke\";\n")
	buf.WriteString("    node [fillcolor=\"white\", style=\"rounded,filled\"];\n")
	for _, name := range localModuleNames(d.graph) {
		if cycleModules[name] {
			buf.WriteString(fmt.Sprintf("    \"%s\" [fillcolor=\"mistyrose\", color=\"red\"];\n", name))
		} else {
			buf.WriteString(fmt.Sprintf("    \"%s\";\n", name))
		}
	}
	buf.WriteString("  }\n\n")

	externals := externalModuleNames(d.graph)
	if len(externals) > 0 {
		buf.WriteString("  subgraph cluster_external {\n")
		buf.WriteString("    label=\"External Modules\";\n")
		buf.WriteString("    style=dashed;\n")
		buf.WriteString("    node [style=\"rounded,dashed\"];\n")
		for _, name := range externals {
			buf.WriteString(fmt.Sprintf("    \"%s\";\n", name))
		}
		buf.WriteString("  }\n\n")
	}

	for _, edge := range sortedEdges(d.graph) {
		from := moduleNameFor(d.graph, edge.Importer)
		to := edgeTarget(d.graph, edge)
		if from == "" || to == "" {
			continue
		}
		if cycleModules[from] && cycleModules[to] {
			buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [color=\"red\", penwidth=2];\n", from, to))
		} else {
			buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\";\n", from, to))
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}
