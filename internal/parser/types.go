package parser

import (
	"time"
)

// File is the per-file analysis result: everything later stages need,
// computed from a single parse.
type File struct {
	Path      string
	IsPackage bool // true when the file is a package __init__.py
	Imports   []ImportDecl
	Used      map[string]bool // names whose reads resolve to module scope, plus type-context names
	Defined   map[string]bool // module-level functions/classes/assignment targets
	Exports   map[string]bool // names listed in __all__
	ParsedAt  time.Time
}

// ImportDecl is one bound name produced by an import statement.
// A statement like "from x import a, b" yields two declarations sharing
// the same statement span.
type ImportDecl struct {
	Name     string // name as bound in the module namespace (alias if present)
	Module   string // source module path, empty for plain "import x"
	Original string // original name before aliasing
	Level    int    // relative import level (number of leading dots), 0 = absolute
	IsFrom   bool

	Location    Location
	StmtLine    int // first line of the enclosing import statement (1-based)
	StmtEndLine int // last line of the enclosing import statement (1-based)
}

type Location struct {
	File   string
	Line   int
	Column int
}

// IsUsed reports whether a bound import name counts as used: it is either
// read in a way that resolves to module scope (including deferred type
// contexts) or re-exported through __all__.
func (f *File) IsUsed(name string) bool {
	return f.Used[name] || f.Exports[name]
}
