package output

import (
	"fmt"
	"strings"

	"github.com/cmyui/unused-import-linter-py/internal/graph"
)

type PlantUMLGenerator struct {
	graph *graph.ImportGraph
}

func NewPlantUMLGenerator(g *graph.ImportGraph) *PlantUMLGenerator {
	return &PlantUMLGenerator{graph: g}
}

func (p *PlantUMLGenerator) Generate(cycles [][]string) (string, error) {
	var b strings.Builder
	b.WriteString("@startuml\n")
	b.WriteString("left to right direction\n")
	b.WriteString("skinparam componentStyle rectangle\n\n")

	cycleModules := cycleModuleSet(p.graph, cycles)

	for _, name := range localModuleNames(p.graph) {
		if cycleModules[name] {
			b.WriteString(fmt.Sprintf("component \"%s\" as %s #ffe3e3\n", name, sanitizeID(name)))
		} else {
			b.WriteString(fmt.Sprintf("component \"%s\" as %s\n", name, sanitizeID(name)))
		}
	}
	for _, name := range externalModuleNames(p.graph) {
		b.WriteString(fmt.Sprintf("component \"%s\" as %s <<external>>\n", name, sanitizeID(name)))
	}
	b.WriteString("\n")

	for _, edge := range sortedEdges(p.graph) {
		from := moduleNameFor(p.graph, edge.Importer)
		to := edgeTarget(p.graph, edge)
		if from == "" || to == "" {
			continue
		}
		b.WriteString(fmt.Sprintf("%s --> %s\n", sanitizeID(from), sanitizeID(to)))
	}

	b.WriteString("@enduml\n")
	return b.String(), nil
}
