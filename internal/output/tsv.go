package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cmyui/unused-import-linter-py/internal/graph"
	"github.com/cmyui/unused-import-linter-py/internal/parser"
)

type TSVGenerator struct {
	graph *graph.ImportGraph
}

func NewTSVGenerator(g *graph.ImportGraph) *TSVGenerator {
	return &TSVGenerator{graph: g}
}

func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("From\tTo\tExternal\tNames\n")
	for _, edge := range sortedEdges(t.graph) {
		from := moduleNameFor(t.graph, edge.Importer)
		to := edgeTarget(t.graph, edge)
		if from == "" || to == "" {
			continue
		}
		names := make([]string, 0, len(edge.Names))
		for name := range edge.Names {
			names = append(names, name)
		}
		sort.Strings(names)
		buf.WriteString(fmt.Sprintf("%s\t%s\t%t\t%s\n",
			from, to, edge.IsExternal, strings.Join(names, ",")))
	}

	return buf.String(), nil
}

// GenerateUnusedImports renders findings in a machine-readable row form.
func (t *TSVGenerator) GenerateUnusedImports(unused map[string][]parser.ImportDecl) (string, error) {
	var buf strings.Builder

	buf.WriteString("Type\tFile\tModule\tName\tLine\tColumn\n")

	paths := make([]string, 0, len(unused))
	for path := range unused {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		for _, imp := range unused[path] {
			buf.WriteString(fmt.Sprintf("unused_import\t%s\t%s\t%s\t%d\t%d\n",
				path,
				imp.Module,
				imp.Name,
				imp.Location.Line,
				imp.Location.Column,
			))
		}
	}

	return buf.String(), nil
}
