package analysis

import (
	"github.com/cmyui/unused-import-linter-py/internal/observability"
	"github.com/cmyui/unused-import-linter-py/internal/parser"
)

// FindUnusedImports returns the import declarations of one parsed file
// whose bound name is never used: not read at module scope, not
// referenced from a type context, and not listed in __all__.
func FindUnusedImports(file *parser.File) []parser.ImportDecl {
	var unused []parser.ImportDecl
	for _, imp := range file.Imports {
		if !file.IsUsed(imp.Name) {
			unused = append(unused, imp)
		}
	}
	if len(unused) > 0 {
		observability.UnusedImportsFound.Add(float64(len(unused)))
	}
	return unused
}

// AnalyzeSource is the single-file entry point: parse then detect.
func AnalyzeSource(p *parser.Parser, path string, content []byte) ([]parser.ImportDecl, error) {
	file, err := p.Analyze(path, content)
	if err != nil {
		return nil, err
	}
	return FindUnusedImports(file), nil
}
