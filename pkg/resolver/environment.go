package resolver

import "pseudo9608/interpreter-go/pkg/types"

// Environment represents a lexical scope used during resolution: the global
// frame, or one child frame per callable body. Lookup walks outward;
// declaration always targets the current scope.
type Environment struct {
	parent  *Environment
	symbols map[string]types.Type
}

// NewEnvironment creates a new environment with an optional parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		parent:  parent,
		symbols: make(map[string]types.Type),
	}
}

// Define binds a name to a type in the current scope.
func (e *Environment) Define(name string, typ types.Type) {
	e.symbols[name] = typ
}

// Lookup searches for a name in the current scope chain.
func (e *Environment) Lookup(name string) (types.Type, bool) {
	if typ, ok := e.symbols[name]; ok {
		return typ, true
	}
	if e.parent != nil {
		return e.parent.Lookup(name)
	}
	return nil, false
}

// DefinedLocally reports whether name is declared in this scope itself.
func (e *Environment) DefinedLocally(name string) bool {
	_, ok := e.symbols[name]
	return ok
}

// Extend returns a child environment.
func (e *Environment) Extend() *Environment {
	return NewEnvironment(e)
}
