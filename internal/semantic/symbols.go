package semantic

import (
	"github.com/kolkov/cinema/internal/ast"
	"github.com/kolkov/cinema/internal/token"
	"github.com/kolkov/cinema/internal/types"
)

// BindingKind defines where a variable lives at run time.
type BindingKind int

const (
	BindGlobal BindingKind = iota // Top-level var: static field of the main class
	BindField                     // Setup field: instance field
	BindParam                     // Scene, method or constructor parameter
	BindLocal                     // Block-scoped var
)

// String returns a human-readable name for the binding kind.
func (k BindingKind) String() string {
	switch k {
	case BindGlobal:
		return "global"
	case BindField:
		return "field"
	case BindParam:
		return "param"
	case BindLocal:
		return "local"
	default:
		return "unknown"
	}
}

// IsLocal reports whether the binding occupies a local variable slot.
func (k BindingKind) IsLocal() bool {
	return k == BindParam || k == BindLocal
}

// Binding is one declared variable. Bindings are owned by the Context and
// referenced from the AST by ast.BindingID.
type Binding struct {
	Name  string
	Kind  BindingKind
	Type  types.Type
	Pos   token.Position // Declaration position
	Owner string         // Setup name for fields
	Decl  *ast.VarDecl   // nil for parameters
	Param *ast.Param     // nil for variables
}

// Scope implements a hierarchical symbol table for variables.
// Each scope can have a parent, enabling nested lookups.
type Scope struct {
	parent  *Scope
	symbols map[string]ast.BindingID
	name    string // Scope name (e.g., scene name or "global")
}

// NewScope creates a new scope with the given parent.
// Pass nil for the global scope.
func NewScope(parent *Scope, name string) *Scope {
	return &Scope{
		parent:  parent,
		symbols: make(map[string]ast.BindingID),
		name:    name,
	}
}

// Name returns the scope name.
func (s *Scope) Name() string {
	return s.name
}

// Parent returns the parent scope, or nil for the global scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Define adds name to the current scope.
// Returns false if a symbol with that name already exists here.
func (s *Scope) Define(name string, id ast.BindingID) bool {
	if _, exists := s.symbols[name]; exists {
		return false
	}
	s.symbols[name] = id
	return true
}

// Lookup searches for a symbol in this scope and all parent scopes.
func (s *Scope) Lookup(name string) (ast.BindingID, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if id, ok := scope.symbols[name]; ok {
			return id, true
		}
	}
	return ast.NoBinding, false
}

// LookupLocal searches for a symbol only in the current scope.
func (s *Scope) LookupLocal(name string) (ast.BindingID, bool) {
	id, ok := s.symbols[name]
	return id, ok
}

// Count returns the number of symbols in the current scope.
func (s *Scope) Count() int {
	return len(s.symbols)
}

// Builtin identifies a scene provided by the runtime rather than the program.
type Builtin int

const (
	NotBuiltin     Builtin = iota // declared by the program
	BuiltinProject                // project(value): print a value and a newline
	BuiltinCapture                // capture(): read one line of input
)

// SceneInfo holds the resolved signature of a scene or setup method.
type SceneInfo struct {
	Name    string
	Owner   string          // Setup name for methods, empty for scenes
	Decl    *ast.SceneDecl  // nil for builtins
	Params  []types.Type    // Parameter types; nil for project, which takes any value
	Result  types.Type
	Builtin Builtin
	Pos     token.Position
}

// IsMethod reports whether the scene belongs to a setup.
func (si *SceneInfo) IsMethod() bool {
	return si.Owner != ""
}

// describe names the scene in error messages.
func (si *SceneInfo) describe() string {
	if si.Owner != "" {
		return "scene " + si.Owner + "." + si.Name
	}
	return "scene " + si.Name
}

// SetupInfo holds the resolved members of a setup.
type SetupInfo struct {
	Name       string
	Decl       *ast.SetupDecl
	Fields     []ast.BindingID // Field bindings in declaration order
	CtorParams []types.Type
	Methods    []*SceneInfo // In declaration order

	fields  map[string]ast.BindingID
	methods map[string]*SceneInfo
}

// Type returns the type of instances of the setup.
func (si *SetupInfo) Type() types.Type {
	return types.SetupType(si.Name)
}

// Field returns the binding of the named field.
func (si *SetupInfo) Field(name string) (ast.BindingID, bool) {
	id, ok := si.fields[name]
	return id, ok
}

// Method returns the named method.
func (si *SetupInfo) Method(name string) (*SceneInfo, bool) {
	m, ok := si.methods[name]
	return m, ok
}

// builtinScenes lists the scenes every program can call without declaring.
var builtinScenes = []*SceneInfo{
	{Name: "project", Result: types.ScrapType, Builtin: BuiltinProject},
	{Name: "capture", Params: []types.Type{}, Result: types.StringType, Builtin: BuiltinCapture},
}

// IsBuiltinScene returns true if name is a built-in scene.
func IsBuiltinScene(name string) bool {
	for _, b := range builtinScenes {
		if b.Name == name {
			return true
		}
	}
	return false
}
