// Package compiler lowers an analyzed program to JVM class files.
package compiler

import (
	"fmt"

	"github.com/kolkov/cinema/internal/ast"
	"github.com/kolkov/cinema/internal/classfile"
	"github.com/kolkov/cinema/internal/semantic"
	"github.com/kolkov/cinema/internal/token"
	"github.com/kolkov/cinema/internal/types"
)

// CompileError represents a code generation error.
type CompileError struct {
	Pos     token.Position
	Message string
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return e.Pos.String() + ": " + e.Message
	}
	return e.Message
}

func fail(pos token.Position, format string, args ...any) {
	panic(&CompileError{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Mode selects what the generator may emit.
type Mode int

const (
	// ModeClass emits the program class plus one class per setup.
	ModeClass Mode = iota
	// ModeSingle emits only the program class; setups and everything
	// that needs an object are rejected.
	ModeSingle
)

func (m Mode) String() string {
	switch m {
	case ModeClass:
		return "class"
	case ModeSingle:
		return "single"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name as accepted on the command line.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "class":
		return ModeClass, nil
	case "single":
		return ModeSingle, nil
	}
	return 0, fmt.Errorf("unknown generation mode %q (want class or single)", s)
}

// DefaultClassName names the program class when Options leave it empty.
const DefaultClassName = "Main"

// Options controls code generation.
type Options struct {
	Mode       Mode
	ClassName  string // program class; DefaultClassName if empty
	SourceFile string // recorded in every class when set
}

// Compile generates the classes for an analyzed program. The program
// class comes first, followed by setup classes in declaration order.
// Compiling the same Context twice yields identical classes.
func Compile(ctx *semantic.Context, opts Options) (prog *Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*CompileError); ok {
				prog, err = nil, ce
			} else {
				panic(r) // Re-panic for non-compile errors
			}
		}
	}()

	if opts.ClassName == "" {
		opts.ClassName = DefaultClassName
	}
	if !classfile.ValidIdentifier(opts.ClassName) {
		fail(token.NoPos, "invalid class name %q", opts.ClassName)
	}
	g := &generator{ctx: ctx, opts: opts}
	return g.run(), nil
}

// generator holds the state shared by all methods of one compilation.
type generator struct {
	ctx  *semantic.Context
	opts Options
	main *classfile.Class
}

func (g *generator) run() *Program {
	if g.opts.Mode == ModeSingle && len(g.ctx.Setups) > 0 {
		s := g.ctx.Setups[0]
		fail(s.Decl.NamePos, "setup %s is not supported in single-class mode", s.Name)
	}

	p := &Program{Mode: g.opts.Mode}
	g.main = g.newClass(g.opts.ClassName)
	p.Classes = append(p.Classes, g.main)

	g.main.AddField(classfile.AccPublic|classfile.AccStatic, scannerField, scannerDesc)
	for _, id := range g.ctx.GlobalVars {
		b := g.ctx.Binding(id)
		g.main.AddField(classfile.AccPublic|classfile.AccStatic, b.Name, descriptor(b.Type))
	}
	g.staticInit()
	g.captureMethod()
	g.mainMethod()
	for _, scene := range g.ctx.Scenes {
		g.sceneMethod(scene)
	}

	for _, s := range g.ctx.Setups {
		if s.Name == g.opts.ClassName {
			fail(s.Decl.NamePos, "setup %s has the same name as the program class", s.Name)
		}
		p.Classes = append(p.Classes, g.setupClass(s))
	}
	return p
}

func (g *generator) newClass(name string) *classfile.Class {
	c := classfile.NewClass(name)
	c.SourceFile = g.opts.SourceFile
	return c
}

// staticInit emits <clinit>: it opens the input scanner and runs global
// initializers in declaration order.
func (g *generator) staticInit() {
	m := g.main.AddMethod(classfile.AccStatic, "<clinit>", "()V")
	c := newCompiler(g, g.main.Name, m, nil, true)
	code := m.Code
	code.EmitClass(classfile.New, scannerClass)
	code.Emit(classfile.Dup)
	code.EmitMember(classfile.Getstatic, systemClass, "in", "Ljava/io/InputStream;")
	code.EmitMember(classfile.Invokespecial, scannerClass, "<init>", "(Ljava/io/InputStream;)V")
	code.EmitMember(classfile.Putstatic, g.main.Name, scannerField, scannerDesc)

	for _, id := range g.ctx.GlobalVars {
		b := g.ctx.Binding(id)
		if b.Decl.Init == nil {
			continue
		}
		c.exprAs(b.Decl.Init, b.Type)
		code.EmitMember(classfile.Putstatic, g.main.Name, b.Name, descriptor(b.Type))
	}
	c.finish(types.ScrapType)
}

// captureMethod emits capture(), which returns the next input line, or
// "" once input is exhausted.
func (g *generator) captureMethod() {
	m := g.main.AddMethod(classfile.AccPublic|classfile.AccStatic, "capture", "()L"+stringClass+";")
	code := m.Code
	eof := code.NewLabel()
	code.EmitMember(classfile.Getstatic, g.main.Name, scannerField, scannerDesc)
	code.EmitMember(classfile.Invokevirtual, scannerClass, "hasNextLine", "()Z")
	code.EmitJump(classfile.Ifeq, eof)
	code.EmitMember(classfile.Getstatic, g.main.Name, scannerField, scannerDesc)
	code.EmitMember(classfile.Invokevirtual, scannerClass, "nextLine", "()L"+stringClass+";")
	code.Emit(classfile.Areturn)
	code.Mark(eof)
	code.EmitConst("")
	code.Emit(classfile.Areturn)
}

// mainMethod emits the JVM entry point, which runs the entrance scene.
func (g *generator) mainMethod() {
	m := g.main.AddMethod(classfile.AccPublic|classfile.AccStatic, semantic.ReservedScene, "([L"+stringClass+";)V")
	m.MaxLocals = 1
	entrance := g.ctx.Entrance
	m.Code.EmitMember(classfile.Invokestatic, g.main.Name, entrance.Name, methodDescriptor(nil, entrance.Result))
	switch entrance.Result.Size() {
	case 1:
		m.Code.Emit(classfile.Pop)
	case 2:
		m.Code.Emit(classfile.Pop2)
	}
	m.Code.Emit(classfile.Return)
}

func (g *generator) sceneMethod(scene *semantic.SceneInfo) {
	m := g.main.AddMethod(classfile.AccPublic|classfile.AccStatic, scene.Name, methodDescriptor(scene.Params, scene.Result))
	c := newCompiler(g, g.main.Name, m, nil, true)
	c.result = scene.Result
	c.params(scene.Decl.Params, scene.Params)
	c.block(scene.Decl.Body)
	c.finish(scene.Result)
}

// setupClass emits the class of a setup: public fields, one constructor
// and the methods.
func (g *generator) setupClass(s *semantic.SetupInfo) *classfile.Class {
	cls := g.newClass(s.Name)
	for _, id := range s.Fields {
		b := g.ctx.Binding(id)
		cls.AddField(classfile.AccPublic, b.Name, descriptor(b.Type))
	}

	// Field initializers run after super() and before the body.
	ctor := cls.AddMethod(classfile.AccPublic, "<init>", methodDescriptor(s.CtorParams, types.ScrapType))
	c := newCompiler(g, s.Name, ctor, s, false)
	if s.Decl.Ctor != nil {
		c.params(s.Decl.Ctor.Params, s.CtorParams)
	}
	c.code.Emit(classfile.Aload0)
	c.code.EmitMember(classfile.Invokespecial, objectClass, "<init>", "()V")
	for _, id := range s.Fields {
		b := g.ctx.Binding(id)
		if b.Decl.Init == nil {
			continue
		}
		c.code.Emit(classfile.Aload0)
		c.exprAs(b.Decl.Init, b.Type)
		c.code.EmitMember(classfile.Putfield, s.Name, b.Name, descriptor(b.Type))
	}
	if s.Decl.Ctor != nil {
		c.block(s.Decl.Ctor.Body)
	}
	c.finish(types.ScrapType)

	for _, info := range s.Methods {
		m := cls.AddMethod(classfile.AccPublic, info.Name, methodDescriptor(info.Params, info.Result))
		c := newCompiler(g, s.Name, m, s, false)
		c.result = info.Result
		c.params(info.Decl.Params, info.Params)
		c.block(info.Decl.Body)
		c.finish(info.Result)
	}
	return cls
}

// requireClasses rejects constructs that need objects in single-class mode.
func (g *generator) requireClasses(pos token.Position, what string) {
	if g.opts.Mode == ModeSingle {
		fail(pos, "%s is not supported in single-class mode", what)
	}
}

// callee returns the scene a call resolved to.
func (g *generator) callee(call *ast.CallExpr) *semantic.SceneInfo {
	info := g.ctx.Callee(call)
	if info == nil {
		fail(call.StartPos, "call was not analyzed")
	}
	return info
}
