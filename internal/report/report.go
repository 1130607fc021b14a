// Package report renders analysis results as the tool's text output:
// per-finding messages, warning sections, and the run summary.
package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cmyui/unused-import-linter-py/internal/analysis"
	"github.com/cmyui/unused-import-linter-py/internal/parser"
)

// Options controls which sections appear and how paths are shown.
type Options struct {
	BasePath              string
	Fix                   bool
	Quiet                 bool
	WarnImplicitReexports bool
	WarnCircular          bool
}

// longCycleThreshold is the cycle length beyond which members are
// elided in favor of a count.
const longCycleThreshold = 5

// UnusedMessage renders one finding as "file:line: Unused import 'X'",
// with the source module appended for from-imports.
func UnusedMessage(path string, imp parser.ImportDecl) string {
	if imp.IsFrom {
		module := strings.Repeat(".", imp.Level) + imp.Module
		return fmt.Sprintf("%s:%d: Unused import '%s' from '%s'", path, imp.Location.Line, imp.Name, module)
	}
	return fmt.Sprintf("%s:%d: Unused import '%s'", path, imp.Location.Line, imp.Name)
}

// MakeRelative shows path relative to base when it sits under base,
// otherwise unchanged.
func MakeRelative(path, base string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// FormatCrossFile renders a cross-file result as output lines: findings
// grouped by file, optional warning sections, and a trailing summary.
func FormatCrossFile(result *analysis.CrossFileResult, opts Options) []string {
	var lines []string
	total := 0

	paths := make([]string, 0, len(result.UnusedImports))
	for path := range result.UnusedImports {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		unused := result.UnusedImports[path]
		total += len(unused)
		if opts.Quiet {
			continue
		}
		display := MakeRelative(path, opts.BasePath)
		lines = append(lines, formatFileFindings(display, unused)...)
	}

	if opts.WarnImplicitReexports && len(result.ImplicitReexports) > 0 && !opts.Quiet {
		lines = append(lines, "", "Implicit Re-exports:")
		for _, re := range result.ImplicitReexports {
			consumers := make([]string, 0, len(re.UsedBy))
			for p := range re.UsedBy {
				consumers = append(consumers, filepath.Base(p))
			}
			sort.Strings(consumers)
			lines = append(lines, fmt.Sprintf(
				"%s: Implicit re-export '%s' (used by: %s, not in __all__)",
				MakeRelative(re.SourceFile, opts.BasePath), re.ImportName,
				strings.Join(consumers, ", ")))
		}
	}

	if opts.WarnCircular && len(result.CircularImports) > 0 && !opts.Quiet {
		lines = append(lines, "", "Circular Imports:")
		for _, cycle := range result.CircularImports {
			lines = append(lines, formatCycle(cycle))
		}
	}

	if len(lines) > 0 {
		lines = append(lines, "")
	}
	lines = append(lines, Summary(total, opts.Fix))
	return lines
}

// formatFileFindings groups same-statement names into one message, so a
// partially unused from-import reads as a single line.
func formatFileFindings(display string, unused []parser.ImportDecl) []string {
	var lines []string
	for i := 0; i < len(unused); {
		imp := unused[i]
		j := i + 1
		for j < len(unused) && unused[j].IsFrom && imp.IsFrom && unused[j].StmtLine == imp.StmtLine {
			j++
		}
		if imp.IsFrom && j-i > 1 {
			names := make([]string, 0, j-i)
			for _, decl := range unused[i:j] {
				names = append(names, "'"+decl.Name+"'")
			}
			module := strings.Repeat(".", imp.Level) + imp.Module
			lines = append(lines, fmt.Sprintf("%s:%d: Unused imports %s from '%s'",
				display, imp.Location.Line, strings.Join(names, ", "), module))
		} else {
			lines = append(lines, UnusedMessage(display, imp))
			j = i + 1
		}
		i = j
	}
	return lines
}

func formatCycle(cycle []string) string {
	if len(cycle) > longCycleThreshold {
		return fmt.Sprintf("Circular import: %s -> ... -> %s (%d files in cycle)",
			filepath.Base(cycle[0]), filepath.Base(cycle[0]), len(cycle))
	}
	names := make([]string, 0, len(cycle)+1)
	for _, p := range cycle {
		names = append(names, filepath.Base(p))
	}
	names = append(names, filepath.Base(cycle[0]))
	return "Circular import: " + strings.Join(names, " -> ")
}

// Summary is the final line of every run.
func Summary(total int, fix bool) string {
	if total == 0 {
		return "No unused imports found"
	}
	action := "Found"
	if fix {
		action = "Fixed"
	}
	return fmt.Sprintf("%s %d unused import(s)", action, total)
}
