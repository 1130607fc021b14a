package parser

import (
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// typeContextExtractor finds names that only appear inside type contexts:
// string annotations (forward references) and PEP 484 type comments. The
// regular usage walk never looks inside string literals, so without this
// pass an import referenced only as "pkg.Model" in an annotation would be
// reported unused.
type typeContextExtractor struct {
	parser *Parser
	source []byte
	names  map[string]bool
}

func newTypeContextExtractor(p *Parser, source []byte) *typeContextExtractor {
	return &typeContextExtractor{
		parser: p,
		source: source,
		names:  make(map[string]bool),
	}
}

func (t *typeContextExtractor) collect(root *sitter.Node) {
	t.walkAnnotations(root)
	t.walkTypeComments(root)
}

// walkAnnotations visits every node that can carry a string annotation:
// parameter and return annotations, annotated assignments, TypeAlias
// right-hand sides, typing.cast and TypeVar calls, and strings inside
// type subscripts like Optional["Foo"].
func (t *typeContextExtractor) walkAnnotations(node *sitter.Node) {
	switch node.Kind() {
	case "function_definition":
		t.parseAnnotation(node.ChildByFieldName("return_type"))
		if params := node.ChildByFieldName("parameters"); params != nil {
			for i := uint(0); i < params.NamedChildCount(); i++ {
				param := params.NamedChild(i)
				switch param.Kind() {
				case "typed_parameter", "typed_default_parameter":
					t.parseAnnotation(param.ChildByFieldName("type"))
				}
			}
		}

	case "assignment":
		annotation := node.ChildByFieldName("type")
		t.parseAnnotation(annotation)
		// "X: TypeAlias = ..." puts the right-hand side in annotation
		// context as well.
		if annotation != nil && isTypingName(firstNamedChildOrSelf(annotation), "TypeAlias", t.source) {
			t.parseAnnotation(node.ChildByFieldName("right"))
		}

	case "call":
		t.visitTypingCall(node)

	case "subscript":
		value := node.ChildByFieldName("value")
		switch {
		case isTypingName(value, "Literal", t.source):
			// Literal contents are values, not types.
		case isTypingName(value, "Annotated", t.source):
			if first := firstSubscriptChild(node); first != nil {
				t.parseAnnotation(first)
			}
		default:
			for _, sub := range subscriptChildren(node) {
				t.parseAnnotation(sub)
			}
		}
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		t.walkAnnotations(node.NamedChild(i))
	}
}

// visitTypingCall handles typing.cast(T, value), where the first argument
// is annotation context, and TypeVar("T", C1, C2, bound=B), where the
// constraints and the bound keyword are.
func (t *typeContextExtractor) visitTypingCall(node *sitter.Node) {
	fn := node.ChildByFieldName("function")
	args := node.ChildByFieldName("arguments")
	if fn == nil || args == nil {
		return
	}

	var positional []*sitter.Node
	var bound *sitter.Node
	for i := uint(0); i < args.NamedChildCount(); i++ {
		arg := args.NamedChild(i)
		if arg.Kind() == "keyword_argument" {
			name := arg.ChildByFieldName("name")
			if name != nil && nodeText(name, t.source) == "bound" {
				bound = arg.ChildByFieldName("value")
			}
			continue
		}
		if arg.Kind() == "comment" {
			continue
		}
		positional = append(positional, arg)
	}

	if isTypingName(fn, "cast", t.source) && len(positional) > 0 {
		t.parseAnnotation(positional[0])
	}
	if isTypingName(fn, "TypeVar", t.source) {
		for _, arg := range positional[1:] {
			t.parseAnnotation(arg)
		}
		t.parseAnnotation(bound)
	}
}

// parseAnnotation walks an annotation expression looking for string
// literals and parses each one as a forward reference. Non-string parts
// of the expression are already covered by the usage walk.
func (t *typeContextExtractor) parseAnnotation(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "type":
		t.parseAnnotation(firstNamedChildOrSelf(node))
	case "string":
		if value, ok := stringLiteralValue(node, t.source); ok {
			t.parseTypeString(value)
		}
	case "subscript":
		value := node.ChildByFieldName("value")
		switch {
		case isTypingName(value, "Literal", t.source):
			t.parseAnnotation(value)
		case isTypingName(value, "Annotated", t.source):
			if first := firstSubscriptChild(node); first != nil {
				t.parseAnnotation(first)
			}
			t.parseAnnotation(value)
		default:
			for _, sub := range subscriptChildren(node) {
				t.parseAnnotation(sub)
			}
			t.parseAnnotation(value)
		}
	case "tuple", "list", "expression_list":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			t.parseAnnotation(node.NamedChild(i))
		}
	case "binary_operator":
		t.parseAnnotation(node.ChildByFieldName("left"))
		t.parseAnnotation(node.ChildByFieldName("right"))
	}
}

// parseTypeString parses the contents of a string annotation or type
// comment as a standalone expression and records its names. Strings that
// do not parse contribute nothing.
func (t *typeContextExtractor) parseTypeString(text string) {
	// Leading whitespace makes a forward reference unparseable in Python
	// (IndentationError), so it contributes nothing.
	if text == "" || text[0] == ' ' || text[0] == '\t' {
		return
	}
	root, tree := t.parser.parseExpression(text)
	if root == nil {
		return
	}
	defer tree.Close()
	t.collectTypeNames(root, []byte(text))
}

// collectTypeNames records identifiers and attribute roots from a parsed
// type expression. Nested string literals are left alone.
func (t *typeContextExtractor) collectTypeNames(node *sitter.Node, source []byte) {
	switch node.Kind() {
	case "identifier":
		t.names[nodeText(node, source)] = true
	case "attribute":
		t.collectTypeNames(node.ChildByFieldName("object"), source)
	case "keyword_argument":
		t.collectTypeNames(node.ChildByFieldName("value"), source)
	case "string", "comment":
		return
	default:
		for i := uint(0); i < node.NamedChildCount(); i++ {
			t.collectTypeNames(node.NamedChild(i), source)
		}
	}
}

var typeCommentRe = regexp.MustCompile(`^#\s*type:\s*(.*)$`)

// walkTypeComments processes PEP 484 type comments. A signature comment
// in a function header is parsed as "(ARGS) -> RET" when the function has
// no real annotations; a trailing comment on an assignment, for, or with
// statement is parsed as a single type expression. Real annotations take
// precedence over type comments on the same construct.
func (t *typeContextExtractor) walkTypeComments(root *sitter.Node) {
	walkTree(root, func(node *sitter.Node) bool {
		if node.Kind() != "comment" {
			return true
		}
		m := typeCommentRe.FindStringSubmatch(nodeText(node, t.source))
		if m == nil {
			return true
		}
		body := strings.TrimSpace(m[1])
		if strings.HasPrefix(body, "ignore") {
			return true
		}
		t.attachTypeComment(root, node, body)
		return true
	})
}

func (t *typeContextExtractor) attachTypeComment(root, comment *sitter.Node, body string) {
	row := comment.StartPosition().Row

	// Function header comments: between the def line and the first body
	// statement.
	var handled bool
	walkTree(root, func(node *sitter.Node) bool {
		if handled || node.Kind() != "function_definition" {
			return true
		}
		fnBody := node.ChildByFieldName("body")
		if fnBody == nil {
			return true
		}
		if row < node.StartPosition().Row || row > fnBody.StartPosition().Row {
			return true
		}

		params := node.ChildByFieldName("parameters")
		if strings.Contains(body, "->") {
			if !functionHasAnnotations(node, params) {
				t.parseFuncTypeComment(body)
			}
			handled = true
			return false
		}
		// Per-argument comment inside a multi-line parameter list. Only
		// parameters without a real annotation take one.
		if params != nil && row <= params.EndPosition().Row {
			for i := uint(0); i < params.NamedChildCount(); i++ {
				param := params.NamedChild(i)
				if param.StartPosition().Row != row {
					continue
				}
				switch param.Kind() {
				case "typed_parameter", "typed_default_parameter":
				default:
					t.parseTypeString(body)
				}
				break
			}
			handled = true
			return false
		}
		return true
	})
	if handled {
		return
	}

	// Trailing comment on an assignment, for, or with statement. The
	// row-range check covers backslash continuations, where the comment
	// sits on the statement's last line.
	walkTree(root, func(node *sitter.Node) bool {
		if handled {
			return false
		}
		switch node.Kind() {
		case "assignment":
			if row < node.StartPosition().Row || row > node.EndPosition().Row {
				return true
			}
			// Annotated assignments keep their annotation; the comment is
			// ignored.
			if node.ChildByFieldName("type") == nil {
				t.parseTypeString(body)
			}
			handled = true
			return false
		case "for_statement", "with_statement":
			stmtBody := node.ChildByFieldName("body")
			if stmtBody == nil || row < node.StartPosition().Row || row > stmtBody.StartPosition().Row {
				return true
			}
			t.parseTypeString(body)
			handled = true
			return false
		}
		return true
	})
}

// functionHasAnnotations reports whether a function carries any real
// annotation. Type comments on such a function are ignored.
func functionHasAnnotations(fn, params *sitter.Node) bool {
	if fn.ChildByFieldName("return_type") != nil {
		return true
	}
	if params == nil {
		return false
	}
	for i := uint(0); i < params.NamedChildCount(); i++ {
		switch params.NamedChild(i).Kind() {
		case "typed_parameter", "typed_default_parameter":
			return true
		}
	}
	return false
}

// parseFuncTypeComment handles the signature form "(int, str) -> bool".
// "..." argument lists contribute nothing; "*" and "**" prefixes are
// stripped before parsing.
func (t *typeContextExtractor) parseFuncTypeComment(body string) {
	idx := strings.LastIndex(body, " -> ")
	if idx < 0 {
		t.parseTypeString(body)
		return
	}
	argsPart := strings.TrimSpace(body[:idx])
	returnPart := strings.TrimSpace(body[idx+len(" -> "):])
	t.parseTypeString(returnPart)

	if !strings.HasPrefix(argsPart, "(") || !strings.HasSuffix(argsPart, ")") {
		return
	}
	inner := strings.TrimSpace(argsPart[1 : len(argsPart)-1])
	if inner == "..." || inner == "" {
		return
	}
	for _, arg := range splitTypeArgs(inner) {
		arg = strings.TrimSpace(arg)
		arg = strings.TrimPrefix(arg, "**")
		arg = strings.TrimPrefix(arg, "*")
		if arg != "" {
			t.parseTypeString(arg)
		}
	}
}

// splitTypeArgs splits comma-separated type arguments at bracket depth
// zero, so "Dict[str, int], bool" yields two parts.
func splitTypeArgs(s string) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	for _, ch := range s {
		switch ch {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, current.String())
				current.Reset()
				continue
			}
		}
		current.WriteRune(ch)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// isTypingName reports whether an expression refers to a typing construct
// by name, either directly (Literal) or through an attribute
// (typing.Literal).
func isTypingName(node *sitter.Node, name string, source []byte) bool {
	if node == nil {
		return false
	}
	switch node.Kind() {
	case "identifier":
		return nodeText(node, source) == name
	case "attribute":
		attr := node.ChildByFieldName("attribute")
		return attr != nil && nodeText(attr, source) == name
	}
	return false
}

// subscriptChildren returns the elements between the brackets of a
// subscript expression. Dict[str, int] has two; tuple contents inside a
// single slice element are handled by parseAnnotation.
func subscriptChildren(node *sitter.Node) []*sitter.Node {
	var subs []*sitter.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if node.FieldNameForNamedChild(uint32(i)) == "subscript" {
			subs = append(subs, node.NamedChild(i))
		}
	}
	return subs
}

func firstSubscriptChild(node *sitter.Node) *sitter.Node {
	subs := subscriptChildren(node)
	if len(subs) == 0 {
		return nil
	}
	return subs[0]
}
