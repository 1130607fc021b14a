package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// extractImports normalizes every import statement in the tree into
// declarations. "from __future__ import X" never produces a declaration
// (tree-sitter parses it as its own statement kind), and "from m import *"
// is skipped because star imports cannot be checked per name.
func extractImports(root *sitter.Node, source []byte, path string) []ImportDecl {
	var decls []ImportDecl
	walkTree(root, func(node *sitter.Node) bool {
		switch node.Kind() {
		case "import_statement":
			decls = append(decls, extractPlainImport(node, source, path)...)
			return false
		case "import_from_statement":
			decls = append(decls, extractFromImport(node, source, path)...)
			return false
		case "future_import_statement":
			return false
		}
		return true
	})
	return decls
}

func extractPlainImport(node *sitter.Node, source []byte, path string) []ImportDecl {
	var decls []ImportDecl
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "dotted_name", "identifier":
			// "import a.b.c" binds only "a".
			original := nodeText(child, source)
			decls = append(decls, ImportDecl{
				Name:        strings.SplitN(original, ".", 2)[0],
				Original:    original,
				Location:    nodeLocation(child, path),
				StmtLine:    int(node.StartPosition().Row) + 1,
				StmtEndLine: int(node.EndPosition().Row) + 1,
			})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			decls = append(decls, ImportDecl{
				Name:        nodeText(alias, source),
				Original:    nodeText(name, source),
				Location:    nodeLocation(alias, path),
				StmtLine:    int(node.StartPosition().Row) + 1,
				StmtEndLine: int(node.EndPosition().Row) + 1,
			})
		}
	}
	return decls
}

func extractFromImport(node *sitter.Node, source []byte, path string) []ImportDecl {
	module := ""
	level := 0

	if mod := node.ChildByFieldName("module_name"); mod != nil {
		switch mod.Kind() {
		case "relative_import":
			text := nodeText(mod, source)
			trimmed := strings.TrimLeft(text, ".")
			level = len(text) - len(trimmed)
			module = trimmed
		default:
			module = nodeText(mod, source)
		}
	}

	var decls []ImportDecl
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if node.FieldNameForChild(uint32(i)) != "name" {
			continue
		}

		switch child.Kind() {
		case "dotted_name", "identifier":
			original := nodeText(child, source)
			decls = append(decls, ImportDecl{
				Name:        original,
				Module:      module,
				Original:    original,
				Level:       level,
				IsFrom:      true,
				Location:    nodeLocation(child, path),
				StmtLine:    int(node.StartPosition().Row) + 1,
				StmtEndLine: int(node.EndPosition().Row) + 1,
			})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			decls = append(decls, ImportDecl{
				Name:        nodeText(alias, source),
				Module:      module,
				Original:    nodeText(name, source),
				Level:       level,
				IsFrom:      true,
				Location:    nodeLocation(alias, path),
				StmtLine:    int(node.StartPosition().Row) + 1,
				StmtEndLine: int(node.EndPosition().Row) + 1,
			})
		}
	}
	return decls
}

// collectExports gathers the string elements of module-level __all__
// assignments and augmented assignments.
func collectExports(root *sitter.Node, source []byte, exports map[string]bool) {
	walkTree(root, func(node *sitter.Node) bool {
		switch node.Kind() {
		case "assignment", "augmented_assignment":
			left := node.ChildByFieldName("left")
			if left == nil || left.Kind() != "identifier" || nodeText(left, source) != "__all__" {
				return true
			}
			right := node.ChildByFieldName("right")
			collectStringElements(right, source, exports)
		}
		return true
	})
}

func collectStringElements(node *sitter.Node, source []byte, out map[string]bool) {
	if node == nil {
		return
	}
	if node.Kind() != "list" && node.Kind() != "tuple" {
		return
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == "string" {
			if value, ok := stringLiteralValue(child, source); ok {
				out[value] = true
			}
		}
	}
}

// stringLiteralValue returns the raw content of a plain string literal.
// F-strings (anything with interpolations) do not count.
func stringLiteralValue(node *sitter.Node, source []byte) (string, bool) {
	var parts []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "string_content":
			parts = append(parts, nodeText(child, source))
		case "interpolation":
			return "", false
		}
	}
	return strings.Join(parts, ""), true
}

// collectModuleBindings records names bound at module level by non-import
// statements: def/class names, assignment targets, loop/with/except targets.
// Function and class bodies are not descended into.
func collectModuleBindings(root *sitter.Node, source []byte, out map[string]bool) {
	var visit func(node *sitter.Node)
	visit = func(node *sitter.Node) {
		for i := uint(0); i < node.NamedChildCount(); i++ {
			stmt := node.NamedChild(i)
			switch stmt.Kind() {
			case "decorated_definition":
				if def := stmt.ChildByFieldName("definition"); def != nil {
					bindDefinitionName(def, source, out)
				}
			case "function_definition", "class_definition":
				bindDefinitionName(stmt, source, out)
			case "expression_statement":
				for j := uint(0); j < stmt.NamedChildCount(); j++ {
					expr := stmt.NamedChild(j)
					if expr.Kind() == "assignment" {
						bindTargetNames(expr.ChildByFieldName("left"), source, out)
					}
				}
			case "for_statement":
				bindTargetNames(stmt.ChildByFieldName("left"), source, out)
				visitBlocks(stmt, visit)
			case "with_statement":
				bindWithTargets(stmt, source, out)
				visitBlocks(stmt, visit)
			case "if_statement", "while_statement", "try_statement",
				"elif_clause", "else_clause", "except_clause", "finally_clause", "block":
				visitBlocks(stmt, visit)
			}
		}
	}
	visit(root)
}

func bindDefinitionName(def *sitter.Node, source []byte, out map[string]bool) {
	if name := def.ChildByFieldName("name"); name != nil {
		out[nodeText(name, source)] = true
	}
}

func bindTargetNames(target *sitter.Node, source []byte, out map[string]bool) {
	if target == nil {
		return
	}
	switch target.Kind() {
	case "identifier":
		out[nodeText(target, source)] = true
	case "pattern_list", "tuple_pattern", "list_pattern", "list_splat_pattern", "tuple", "list":
		for i := uint(0); i < target.NamedChildCount(); i++ {
			bindTargetNames(target.NamedChild(i), source, out)
		}
	}
	// attribute and subscript targets bind nothing new
}

func bindWithTargets(stmt *sitter.Node, source []byte, out map[string]bool) {
	walkTree(stmt, func(node *sitter.Node) bool {
		if node.Kind() == "as_pattern" {
			if alias := node.ChildByFieldName("alias"); alias != nil {
				bindTargetNames(firstNamedChildOrSelf(alias), source, out)
			}
			return false
		}
		return node.Kind() != "block"
	})
}

func firstNamedChildOrSelf(node *sitter.Node) *sitter.Node {
	if node.NamedChildCount() > 0 {
		return node.NamedChild(0)
	}
	return node
}

// visitBlocks recurses into every block-valued child of a compound
// statement so module-level bindings inside if/try/for bodies are seen.
func visitBlocks(stmt *sitter.Node, visit func(*sitter.Node)) {
	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		child := stmt.NamedChild(i)
		switch child.Kind() {
		case "block":
			visit(child)
		case "elif_clause", "else_clause", "except_clause", "finally_clause":
			visitBlocks(child, visit)
		}
	}
}

// walkTree is depth-first pre-order traversal. The callback returns false
// to prune the subtree.
func walkTree(node *sitter.Node, fn func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walkTree(node.Child(i), fn)
	}
}
