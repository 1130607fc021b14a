// Package rewrite removes unused imports from Python source text while
// preserving the surrounding layout: statement order, aliases, relative
// import prefixes, and indentation all survive the edit.
package rewrite

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cmyui/unused-import-linter-py/internal/parser"
)

// Rewriter applies unused-import removals to source text.
type Rewriter struct {
	parser *parser.Parser
}

func NewRewriter(p *parser.Parser) *Rewriter {
	return &Rewriter{parser: p}
}

// stmtGroup collects every declaration of one import statement, keyed by
// the 0-based row of the statement's first line.
type stmtGroup struct {
	startRow int
	endRow   int
	decls    []parser.ImportDecl
	unused   map[string]bool
}

// RemoveUnused rewrites source so that the given unused declarations are
// gone. Statements whose names are all unused are deleted whole; mixed
// statements are rebuilt with only the surviving names. When a deletion
// would leave a block empty, the first removed statement becomes "pass"
// at the original indentation. Applying the result to its own findings
// is a no-op.
func (r *Rewriter) RemoveUnused(source []byte, file *parser.File, unused []parser.ImportDecl) ([]byte, error) {
	if len(unused) == 0 {
		return source, nil
	}

	groups := groupByStatement(file.Imports, unused)

	fullRemove := make(map[int]*stmtGroup)
	partial := make(map[int]*stmtGroup)
	for row, g := range groups {
		if len(g.unused) == 0 {
			continue
		}
		if len(g.unused) == len(g.decls) {
			fullRemove[row] = g
		} else {
			partial[row] = g
		}
	}
	if len(fullRemove) == 0 && len(partial) == 0 {
		return source, nil
	}

	root, tree, err := r.parser.ParseTree(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	needsPass := findEmptiedBlocks(root, fullRemove)

	lines := splitLines(source)
	var out strings.Builder
	i := 0
	for i < len(lines) {
		switch {
		case needsPass[i]:
			g := fullRemove[i]
			out.WriteString(leadingIndent(lines[i]))
			out.WriteString("pass\n")
			i = g.endRow + 1
		case fullRemove[i] != nil:
			i = fullRemove[i].endRow + 1
		case partial[i] != nil:
			g := partial[i]
			out.WriteString(rebuildStatement(lines[i], g))
			i = g.endRow + 1
		default:
			out.WriteString(lines[i])
			i++
		}
	}

	return collapseLeadingBlanks(out.String()), nil
}

func groupByStatement(all, unused []parser.ImportDecl) map[int]*stmtGroup {
	groups := make(map[int]*stmtGroup)
	for _, decl := range all {
		row := decl.StmtLine - 1
		g := groups[row]
		if g == nil {
			g = &stmtGroup{
				startRow: row,
				endRow:   decl.StmtEndLine - 1,
				unused:   make(map[string]bool),
			}
			groups[row] = g
		}
		g.decls = append(g.decls, decl)
	}
	for _, decl := range unused {
		if g := groups[decl.StmtLine-1]; g != nil {
			g.unused[decl.Name] = true
		}
	}
	return groups
}

// rebuildStatement keeps only the surviving names of a mixed statement,
// in their original order, collapsed onto one line at the original
// indentation.
func rebuildStatement(firstLine string, g *stmtGroup) string {
	var parts []string
	for _, decl := range g.decls {
		if !g.unused[decl.Name] {
			parts = append(parts, declSource(decl))
		}
	}

	first := g.decls[0]
	var b strings.Builder
	b.WriteString(leadingIndent(firstLine))
	if first.IsFrom {
		b.WriteString("from ")
		b.WriteString(strings.Repeat(".", first.Level))
		b.WriteString(first.Module)
		b.WriteString(" import ")
	} else {
		b.WriteString("import ")
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString("\n")
	return b.String()
}

// declSource renders one declaration back to its import-list form,
// reattaching the alias when the bound name differs from the original.
func declSource(decl parser.ImportDecl) string {
	implied := decl.Original
	if !decl.IsFrom {
		implied, _, _ = strings.Cut(decl.Original, ".")
	}
	if decl.Name == implied {
		return decl.Original
	}
	return decl.Original + " as " + decl.Name
}

// findEmptiedBlocks marks the first statement of every block whose
// statements are all import statements scheduled for removal. Module
// level is exempt: only indented blocks need a pass placeholder.
func findEmptiedBlocks(root *sitter.Node, fullRemove map[int]*stmtGroup) map[int]bool {
	needsPass := make(map[int]bool)

	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node.Kind() == "block" {
			checkBlock(node, fullRemove, needsPass)
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			walk(node.NamedChild(i))
		}
	}
	walk(root)

	return needsPass
}

func checkBlock(block *sitter.Node, fullRemove map[int]*stmtGroup, needsPass map[int]bool) {
	firstRow := -1
	for i := uint(0); i < block.NamedChildCount(); i++ {
		stmt := block.NamedChild(i)
		if stmt.Kind() == "comment" {
			continue
		}
		row := int(stmt.StartPosition().Row)
		if !isImportStatement(stmt.Kind()) || fullRemove[row] == nil {
			return
		}
		if firstRow < 0 {
			firstRow = row
		}
	}
	if firstRow >= 0 {
		needsPass[firstRow] = true
	}
}

func isImportStatement(kind string) bool {
	switch kind {
	case "import_statement", "import_from_statement", "future_import_statement":
		return true
	}
	return false
}

// splitLines splits source after every newline, keeping the terminators.
func splitLines(source []byte) []string {
	if len(source) == 0 {
		return nil
	}
	var lines []string
	text := string(source)
	for {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			if text != "" {
				lines = append(lines, text)
			}
			return lines
		}
		lines = append(lines, text[:idx+1])
		text = text[idx+1:]
	}
}

func leadingIndent(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// collapseLeadingBlanks keeps at most one blank line before the first
// line of code, cleaning up gaps left by removed import headers.
func collapseLeadingBlanks(source string) []byte {
	lines := splitLines([]byte(source))
	var out strings.Builder
	seenCode := false
	blanks := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if !seenCode {
				blanks++
				if blanks > 1 {
					continue
				}
			}
		} else {
			seenCode = true
			blanks = 0
		}
		out.WriteString(line)
	}
	return []byte(out.String())
}
