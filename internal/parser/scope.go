package parser

// ScopeKind tags a frame on the scope stack. Class frames get special
// lookup treatment: Python methods do not see class attributes by bare name,
// so a class frame is consulted only while it is the innermost frame.
type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeFunction
	ScopeClass
	ScopeComprehension
)

type Scope struct {
	Kind     ScopeKind
	Bindings map[string]bool
	Label    string
}

func NewScope(kind ScopeKind, label string) *Scope {
	return &Scope{
		Kind:     kind,
		Bindings: make(map[string]bool),
		Label:    label,
	}
}

// ScopeStack manages the scope chain during tree traversal. The module
// scope is created up front and is never popped.
type ScopeStack struct {
	scopes []*Scope
}

func NewScopeStack() *ScopeStack {
	return &ScopeStack{
		scopes: []*Scope{NewScope(ScopeModule, "<module>")},
	}
}

func (s *ScopeStack) Push(scope *Scope) {
	s.scopes = append(s.scopes, scope)
}

func (s *ScopeStack) Pop() *Scope {
	last := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]
	return last
}

func (s *ScopeStack) Current() *Scope {
	return s.scopes[len(s.scopes)-1]
}

func (s *ScopeStack) Bind(name string) {
	s.Current().Bindings[name] = true
}

// ResolvesToModuleScope walks the chain innermost-first following LEGB.
// A name not bound anywhere is assumed to reach module scope (it is either
// a module-level binding we have not special-cased or a builtin; builtins
// never collide with import declarations, so the assumption is harmless).
func (s *ScopeStack) ResolvesToModuleScope(name string) bool {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		scope := s.scopes[i]

		if scope.Kind == ScopeClass && i < len(s.scopes)-1 {
			// Class bindings are invisible from nested scopes.
			continue
		}

		if scope.Bindings[name] {
			return scope.Kind == ScopeModule
		}
	}
	return true
}
