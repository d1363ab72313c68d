package ast

import (
	"strings"

	"github.com/kolkov/cinema/internal/token"
)

// Program represents a complete compilation unit: its top-level
// declarations in source order.
type Program struct {
	// Source file name (for error messages)
	Filename string

	// Decls holds *SetupDecl, *SceneDecl and *VarDecl nodes.
	Decls []Decl

	StartPos token.Position
	EndPos   token.Position
}

// Pos returns the position of the first token in the program.
func (p *Program) Pos() token.Position { return p.StartPos }

// End returns the position after the last token in the program.
func (p *Program) End() token.Position { return p.EndPos }

// Setups returns the top-level setup declarations in source order.
func (p *Program) Setups() []*SetupDecl {
	var out []*SetupDecl
	for _, d := range p.Decls {
		if s, ok := d.(*SetupDecl); ok {
			out = append(out, s)
		}
	}
	return out
}

// Scenes returns the top-level scene declarations in source order.
func (p *Program) Scenes() []*SceneDecl {
	var out []*SceneDecl
	for _, d := range p.Decls {
		if s, ok := d.(*SceneDecl); ok {
			out = append(out, s)
		}
	}
	return out
}

// Globals returns the top-level variable declarations in source order.
func (p *Program) Globals() []*VarDecl {
	var out []*VarDecl
	for _, d := range p.Decls {
		if v, ok := d.(*VarDecl); ok {
			out = append(out, v)
		}
	}
	return out
}

// TypeRef is a type as written in source: a base name and a number of
// "[]" pairs.
// Examples: int, double[], Point[][]
type TypeRef struct {
	StartPos token.Position
	EndPos   token.Position
	Name     string // "int", "double", "char", "string", "bool", "scrap" or a setup name
	Dims     int
}

func (t *TypeRef) Pos() token.Position { return t.StartPos }
func (t *TypeRef) End() token.Position { return t.EndPos }

// String returns the source spelling of the type.
func (t *TypeRef) String() string {
	return t.Name + strings.Repeat("[]", t.Dims)
}

// Param is a scene, method or constructor parameter.
// Example: var count: int
type Param struct {
	Bound
	StartPos token.Position
	EndPos   token.Position
	Name     string
	Type     *TypeRef
}

func (p *Param) Pos() token.Position { return p.StartPos }
func (p *Param) End() token.Position { return p.EndPos }

// VarDecl declares a global, a setup field or a local variable.
// Example: var x: int = 1;
type VarDecl struct {
	BaseDecl
	Bound
	Name    string
	NamePos token.Position
	Type    *TypeRef
	Init    Expr // nil if absent
}

// SceneDecl declares a scene (function) or a setup method.
// Example: scene add(a: int, b: int): int { cut a + b; }
type SceneDecl struct {
	BaseDecl
	Name     string
	NamePos  token.Position
	Params   []*Param
	Result   *TypeRef // "scrap" for void scenes
	Body     *BlockStmt
	IsMethod bool
	Owner    string // enclosing setup name for methods
}

// CtorDecl declares the constructor of a setup.
// Example: Point(x: int, y: int) { @.x = x; @.y = y; }
type CtorDecl struct {
	BaseDecl
	Owner  string
	Params []*Param
	Body   *BlockStmt
}

// SetupDecl declares a setup: fields, at most one constructor and methods.
type SetupDecl struct {
	BaseDecl
	Name    string
	NamePos token.Position
	Fields  []*VarDecl
	Ctor    *CtorDecl // nil if absent
	Methods []*SceneDecl
}

// Field returns the named field declaration, or nil.
func (s *SetupDecl) Field(name string) *VarDecl {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Method returns the named method declaration, or nil.
func (s *SetupDecl) Method(name string) *SceneDecl {
	for _, m := range s.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Compile-time interface checks.
var (
	_ Decl = (*VarDecl)(nil)
	_ Decl = (*SceneDecl)(nil)
	_ Decl = (*CtorDecl)(nil)
	_ Decl = (*SetupDecl)(nil)
	_ Node = (*Program)(nil)
	_ Node = (*Param)(nil)
	_ Node = (*TypeRef)(nil)
)
