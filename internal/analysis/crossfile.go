package analysis

import (
	"context"
	"sort"
	"time"

	"github.com/cmyui/unused-import-linter-py/internal/graph"
	"github.com/cmyui/unused-import-linter-py/internal/observability"
	"github.com/cmyui/unused-import-linter-py/internal/parser"
)

// ImplicitReexport is an import that other files consume from a module
// even though the module does not list it in __all__.
type ImplicitReexport struct {
	SourceFile string
	ImportName string
	UsedBy     map[string]bool
}

// CrossFileResult aggregates project-wide findings.
type CrossFileResult struct {
	// Unused imports per file, after re-exports are accounted for.
	UnusedImports map[string][]parser.ImportDecl

	// Imports consumed by other files but absent from __all__.
	ImplicitReexports []ImplicitReexport

	// External module name -> files importing it.
	ExternalUsage map[string]map[string]bool

	// Circular import chains, as file paths along each loop.
	CircularImports [][]string
}

// CrossFileAnalyzer runs the project-wide analysis over a built graph.
type CrossFileAnalyzer struct {
	graph *graph.ImportGraph
}

func NewCrossFileAnalyzer(g *graph.ImportGraph) *CrossFileAnalyzer {
	return &CrossFileAnalyzer{graph: g}
}

// Analyze runs per-file detection, removes re-exported names from the
// unused sets, and collects implicit re-exports, external usage, and
// cycles.
func (a *CrossFileAnalyzer) Analyze(ctx context.Context) *CrossFileResult {
	_, span := observability.Tracer.Start(ctx, "CrossFileAnalyzer.Analyze")
	defer span.End()
	start := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues("cross_file").Observe(time.Since(start).Seconds())
	}()

	result := &CrossFileResult{
		UnusedImports: make(map[string][]parser.ImportDecl),
		ExternalUsage: make(map[string]map[string]bool),
	}

	reexported := a.findReexportedImports()

	for path, record := range a.graph.Nodes {
		var unused []parser.ImportDecl
		for _, imp := range FindUnusedImports(record.File) {
			if !reexported[path][imp.Name] {
				unused = append(unused, imp)
			}
		}
		if len(unused) > 0 {
			result.UnusedImports[path] = unused
		}
	}

	result.ImplicitReexports = a.findImplicitReexports(reexported)

	for _, edge := range a.graph.Edges {
		if !edge.IsExternal {
			continue
		}
		if result.ExternalUsage[edge.ModuleName] == nil {
			result.ExternalUsage[edge.ModuleName] = make(map[string]bool)
		}
		result.ExternalUsage[edge.ModuleName][edge.Importer] = true
	}

	result.CircularImports = a.graph.FindCycles()

	return result
}

// findReexportedImports maps each file to the set of its import names
// that other files pull from it. A name only counts when the target file
// binds it by import and does not define it itself.
func (a *CrossFileAnalyzer) findReexportedImports() map[string]map[string]bool {
	reexported := make(map[string]map[string]bool)

	for _, edge := range a.graph.Edges {
		if edge.IsExternal || edge.Imported == "" {
			continue
		}
		record, ok := a.graph.Nodes[edge.Imported]
		if !ok {
			continue
		}

		importNames := make(map[string]bool, len(record.File.Imports))
		for _, imp := range record.File.Imports {
			importNames[imp.Name] = true
		}

		for name := range edge.Names {
			if importNames[name] && !record.File.Defined[name] {
				if reexported[edge.Imported] == nil {
					reexported[edge.Imported] = make(map[string]bool)
				}
				reexported[edge.Imported][name] = true
			}
		}
	}
	return reexported
}

func (a *CrossFileAnalyzer) findImplicitReexports(reexported map[string]map[string]bool) []ImplicitReexport {
	var result []ImplicitReexport

	for path, names := range reexported {
		record, ok := a.graph.Nodes[path]
		if !ok {
			continue
		}
		for name := range names {
			if record.File.Exports[name] {
				continue
			}
			usedBy := make(map[string]bool)
			for _, edge := range a.graph.Importers(path) {
				if edge.Names[name] {
					usedBy[edge.Importer] = true
				}
			}
			result = append(result, ImplicitReexport{
				SourceFile: path,
				ImportName: name,
				UsedBy:     usedBy,
			})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].SourceFile != result[j].SourceFile {
			return result[i].SourceFile < result[j].SourceFile
		}
		return result[i].ImportName < result[j].ImportName
	})
	return result
}
