package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// usageResolver walks the tree with a scope stack and records which name
// reads resolve to module scope under Python's LEGB rule. It also records
// every module-level binding made by a non-import statement; the caller
// subtracts those afterwards, so a shadowing statement anywhere in the
// file invalidates reads that happened earlier, regardless of order.
type usageResolver struct {
	source  []byte
	stack   *ScopeStack
	reads   map[string]bool
	shadows map[string]bool
}

func collectModuleUsage(root *sitter.Node, source []byte) (reads, shadows map[string]bool) {
	r := &usageResolver{
		source:  source,
		stack:   NewScopeStack(),
		reads:   make(map[string]bool),
		shadows: make(map[string]bool),
	}
	r.visitChildren(root)
	return r.reads, r.shadows
}

func (r *usageResolver) visitChildren(node *sitter.Node) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		r.visit(node.NamedChild(i))
	}
}

func (r *usageResolver) visit(node *sitter.Node) {
	if node == nil {
		return
	}

	switch node.Kind() {
	// Import statements count neither as usage nor as bindings: shadowing
	// is only interesting when a non-import construct rebinds the name.
	case "import_statement", "import_from_statement", "future_import_statement":
		return

	// Global/nonlocal declarations bind nothing here; later reads resolve
	// through the outer scope because the name stays unbound locally.
	case "global_statement", "nonlocal_statement":
		return

	case "comment":
		return

	case "function_definition":
		r.visitFunction(node)

	case "lambda":
		r.visitLambda(node)

	case "class_definition":
		r.visitClass(node)

	case "assignment":
		r.visitAssignment(node)

	case "augmented_assignment":
		r.visitAugAssign(node)

	case "named_expression":
		r.visitWalrus(node)

	case "for_statement":
		r.visit(node.ChildByFieldName("right"))
		r.bindTarget(node.ChildByFieldName("left"))
		r.visit(node.ChildByFieldName("body"))
		r.visit(node.ChildByFieldName("alternative"))

	case "list_comprehension", "set_comprehension", "generator_expression", "dictionary_comprehension":
		r.visitComprehension(node)

	case "as_pattern":
		// "with open(f) as g", "except E as e", "case ... as c"
		r.visit(node.NamedChild(0))
		if alias := node.ChildByFieldName("alias"); alias != nil {
			r.bindTarget(firstNamedChildOrSelf(alias))
		}

	case "delete_statement":
		r.visitChildrenAsDeleteTargets(node)

	case "type_alias_statement":
		// PEP 695 "type X = ...": X is a binding, the value is read.
		if left := node.NamedChild(0); left != nil {
			r.bindTarget(firstNamedChildOrSelf(left))
		}
		if right := node.NamedChild(1); right != nil {
			r.visit(right)
		}

	case "identifier":
		r.readName(nodeText(node, r.source))

	case "attribute":
		// Only the root of a.b.c counts; the attribute names are opaque.
		r.visit(node.ChildByFieldName("object"))

	case "keyword_argument":
		r.visit(node.ChildByFieldName("value"))

	case "string":
		// Plain string contents are not names. F-string interpolations are
		// live expressions and are visited normally.
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child.Kind() == "interpolation" {
				r.visitChildren(child)
			}
		}

	default:
		r.visitChildren(node)
	}
}

func (r *usageResolver) readName(name string) {
	if r.stack.ResolvesToModuleScope(name) {
		r.reads[name] = true
	}
}

// bindName adds a binding to the current scope and, at module level,
// records it as a shadow for the post-walk subtraction.
func (r *usageResolver) bindName(name string) {
	r.stack.Bind(name)
	if r.stack.Current().Kind == ScopeModule {
		r.shadows[name] = true
	}
}

// bindTarget handles assignment-target shapes. Attribute and subscript
// targets bind nothing but do read their root object.
func (r *usageResolver) bindTarget(target *sitter.Node) {
	if target == nil {
		return
	}
	switch target.Kind() {
	case "identifier":
		r.bindName(nodeText(target, r.source))
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list", "list_splat_pattern", "list_splat":
		for i := uint(0); i < target.NamedChildCount(); i++ {
			r.bindTarget(target.NamedChild(i))
		}
	case "attribute":
		r.visit(target.ChildByFieldName("object"))
	case "subscript":
		r.visitChildren(target)
	}
}

// visitFunction implements Python's definition-time evaluation order:
// the function name, annotations, and defaults all belong to the
// enclosing scope; only the body runs in the new scope. Decorators are
// children of the surrounding decorated_definition node and are visited
// before this handler fires, which is exactly the order Python uses.
func (r *usageResolver) visitFunction(node *sitter.Node) {
	name := node.ChildByFieldName("name")
	if name != nil {
		r.bindName(nodeText(name, r.source))
	}

	params := node.ChildByFieldName("parameters")
	var paramNames []string
	if params != nil {
		paramNames = r.visitParameters(params)
	}
	r.visit(node.ChildByFieldName("return_type"))

	label := ""
	if name != nil {
		label = nodeText(name, r.source)
	}
	r.stack.Push(NewScope(ScopeFunction, label))
	for _, p := range paramNames {
		r.stack.Bind(p)
	}
	r.visit(node.ChildByFieldName("body"))
	r.stack.Pop()
}

// visitParameters evaluates annotations and default values in the
// current (enclosing) scope and returns the parameter names to bind in
// the function scope.
func (r *usageResolver) visitParameters(params *sitter.Node) []string {
	var names []string
	var collect func(node *sitter.Node)
	collect = func(node *sitter.Node) {
		switch node.Kind() {
		case "identifier":
			names = append(names, nodeText(node, r.source))
		case "typed_parameter":
			r.visit(node.ChildByFieldName("type"))
			if node.NamedChildCount() > 0 {
				collect(node.NamedChild(0))
			}
		case "default_parameter":
			r.visit(node.ChildByFieldName("value"))
			if name := node.ChildByFieldName("name"); name != nil {
				collect(name)
			}
		case "typed_default_parameter":
			r.visit(node.ChildByFieldName("type"))
			r.visit(node.ChildByFieldName("value"))
			if name := node.ChildByFieldName("name"); name != nil {
				collect(name)
			}
		case "list_splat_pattern", "dictionary_splat_pattern", "tuple_pattern":
			for i := uint(0); i < node.NamedChildCount(); i++ {
				collect(node.NamedChild(i))
			}
		}
	}
	for i := uint(0); i < params.NamedChildCount(); i++ {
		collect(params.NamedChild(i))
	}
	return names
}

func (r *usageResolver) visitLambda(node *sitter.Node) {
	params := node.ChildByFieldName("parameters")
	var paramNames []string
	if params != nil {
		paramNames = r.visitParameters(params)
	}

	r.stack.Push(NewScope(ScopeFunction, "<lambda>"))
	for _, p := range paramNames {
		r.stack.Bind(p)
	}
	r.visit(node.ChildByFieldName("body"))
	r.stack.Pop()
}

// visitClass evaluates base classes and keyword arguments in the
// enclosing scope, then runs the body under a class frame. The class
// frame is opaque to nested functions (see ScopeStack).
func (r *usageResolver) visitClass(node *sitter.Node) {
	name := node.ChildByFieldName("name")
	label := ""
	if name != nil {
		label = nodeText(name, r.source)
		r.bindName(label)
	}

	r.visit(node.ChildByFieldName("superclasses"))

	r.stack.Push(NewScope(ScopeClass, label))
	r.visit(node.ChildByFieldName("body"))
	r.stack.Pop()
}

func (r *usageResolver) visitAssignment(node *sitter.Node) {
	// Right-hand side and annotation are evaluated before the binding.
	r.visit(node.ChildByFieldName("type"))
	r.visit(node.ChildByFieldName("right"))
	r.bindTarget(node.ChildByFieldName("left"))
}

// visitAugAssign: "x += 1" both reads and writes x, and binds nothing
// new (the name must already exist).
func (r *usageResolver) visitAugAssign(node *sitter.Node) {
	left := node.ChildByFieldName("left")
	if left != nil {
		switch left.Kind() {
		case "identifier":
			r.readName(nodeText(left, r.source))
		default:
			r.visit(left)
		}
	}
	r.visit(node.ChildByFieldName("right"))
}

// visitWalrus binds the target in the nearest non-comprehension scope,
// matching Python's leak rule for ":=" inside comprehensions.
func (r *usageResolver) visitWalrus(node *sitter.Node) {
	r.visit(node.ChildByFieldName("value"))

	name := node.ChildByFieldName("name")
	if name == nil || name.Kind() != "identifier" {
		return
	}
	text := nodeText(name, r.source)
	for i := len(r.stack.scopes) - 1; i >= 0; i-- {
		scope := r.stack.scopes[i]
		if scope.Kind == ScopeComprehension {
			continue
		}
		scope.Bindings[text] = true
		if scope.Kind == ScopeModule {
			r.shadows[text] = true
		}
		break
	}
}

// visitComprehension: only the first iterable is evaluated in the
// enclosing scope; targets, filters, and later iterables live in a
// private frame.
func (r *usageResolver) visitComprehension(node *sitter.Node) {
	var clauses []*sitter.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "for_in_clause", "if_clause":
			clauses = append(clauses, child)
		}
	}
	if len(clauses) == 0 || clauses[0].Kind() != "for_in_clause" {
		r.visitChildren(node)
		return
	}

	r.visit(clauses[0].ChildByFieldName("right"))

	r.stack.Push(NewScope(ScopeComprehension, "<comprehension>"))
	r.bindTarget(clauses[0].ChildByFieldName("left"))
	for _, clause := range clauses[1:] {
		switch clause.Kind() {
		case "for_in_clause":
			r.visit(clause.ChildByFieldName("right"))
			r.bindTarget(clause.ChildByFieldName("left"))
		case "if_clause":
			r.visitChildren(clause)
		}
	}
	r.visit(node.ChildByFieldName("body"))
	r.stack.Pop()
}

// visitChildrenAsDeleteTargets: "del x" is neither a read nor a binding
// of x, but "del a.b" reads a and "del d[k]" reads d and k.
func (r *usageResolver) visitChildrenAsDeleteTargets(node *sitter.Node) {
	var target func(n *sitter.Node)
	target = func(n *sitter.Node) {
		switch n.Kind() {
		case "identifier":
			// deleted name, not a read
		case "attribute":
			r.visit(n.ChildByFieldName("object"))
		case "tuple", "list", "expression_list", "pattern_list":
			for i := uint(0); i < n.NamedChildCount(); i++ {
				target(n.NamedChild(i))
			}
		default:
			r.visit(n)
		}
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		target(node.NamedChild(i))
	}
}
