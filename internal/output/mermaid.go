package output

import (
	"fmt"
	"strings"

	"github.com/cmyui/unused-import-linter-py/internal/graph"
)

type MermaidGenerator struct {
	graph *graph.ImportGraph
}

func NewMermaidGenerator(g *graph.ImportGraph) *MermaidGenerator {
	return &MermaidGenerator{graph: g}
}

func (m *MermaidGenerator) Generate(cycles [][]string) (string, error) {
	var b strings.Builder
	b.WriteString("%%{init: {'flowchart': {'nodeSpacing': 80, 'rankSpacing': 110, 'curve': 'basis'}}}%%\n")
	b.WriteString("flowchart LR\n")

	cycleModules := cycleModuleSet(m.graph, cycles)

	for _, name := range localModuleNames(m.graph) {
		b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", sanitizeID(name), name))
	}
	for _, name := range externalModuleNames(m.graph) {
		b.WriteString(fmt.Sprintf("    %s([\"%s\"])\n", sanitizeID(name), name))
	}

	for _, edge := range sortedEdges(m.graph) {
		from := moduleNameFor(m.graph, edge.Importer)
		to := edgeTarget(m.graph, edge)
		if from == "" || to == "" {
			continue
		}
		b.WriteString(fmt.Sprintf("    %s --> %s\n", sanitizeID(from), sanitizeID(to)))
	}

	if len(cycleModules) > 0 {
		b.WriteString("    classDef cycle fill:#ffe3e3,stroke:#c92a2a;\n")
		for _, name := range localModuleNames(m.graph) {
			if cycleModules[name] {
				b.WriteString(fmt.Sprintf("    class %s cycle\n", sanitizeID(name)))
			}
		}
	}

	return b.String(), nil
}
