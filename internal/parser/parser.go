package parser

import (
	"errors"
	"path/filepath"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// ErrSyntax is returned when a file cannot be parsed as Python. Callers
// treat it as "no findings for this file", never as a batch failure.
var ErrSyntax = errors.New("syntax error")

type Parser struct {
	language *sitter.Language
}

func NewParser() *Parser {
	return &Parser{
		language: sitter.NewLanguage(tree_sitter_python.Language()),
	}
}

// Analyze parses one Python source file and runs every per-file visitor
// over the tree: import extraction, scope-aware usage resolution, type
// context extraction, and export/defined-name collection.
func (p *Parser) Analyze(path string, content []byte) (*File, error) {
	root, tree, err := p.parse(content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	file := &File{
		Path:      path,
		IsPackage: filepath.Base(path) == "__init__.py",
		Used:      make(map[string]bool),
		Defined:   make(map[string]bool),
		Exports:   make(map[string]bool),
		ParsedAt:  time.Now(),
	}

	file.Imports = extractImports(root, content, path)

	reads, shadows := collectModuleUsage(root, content)
	for name := range reads {
		if !shadows[name] {
			file.Used[name] = true
		}
	}

	tc := newTypeContextExtractor(p, content)
	tc.collect(root)
	for name := range tc.names {
		file.Used[name] = true
	}

	collectExports(root, content, file.Exports)
	collectModuleBindings(root, content, file.Defined)

	return file, nil
}

// ParseTree exposes the raw syntax tree for passes that need block
// structure beyond the per-file summary, such as the import rewriter.
// The caller owns the returned tree and must Close it.
func (p *Parser) ParseTree(content []byte) (*sitter.Node, *sitter.Tree, error) {
	return p.parse(content)
}

func (p *Parser) parse(content []byte) (*sitter.Node, *sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(p.language); err != nil {
		return nil, nil, err
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, nil, ErrSyntax
	}

	root := tree.RootNode()
	if root == nil || root.HasError() {
		tree.Close()
		return nil, nil, ErrSyntax
	}
	return root, tree, nil
}

// parseExpression parses a standalone type expression (the contents of a
// string annotation or type comment). A nil return means the text is not a
// valid expression and contributes nothing.
func (p *Parser) parseExpression(text string) (*sitter.Node, *sitter.Tree) {
	root, tree, err := p.parse([]byte(text))
	if err != nil {
		return nil, nil
	}
	return root, tree
}

func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

func nodeLocation(node *sitter.Node, path string) Location {
	return Location{
		File:   path,
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}
}
