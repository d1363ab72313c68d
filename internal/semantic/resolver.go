package semantic

import (
	"fmt"

	"github.com/kolkov/cinema/internal/ast"
	"github.com/kolkov/cinema/internal/token"
	"github.com/kolkov/cinema/internal/types"
)

// EntranceName is the name of the scene a program starts in.
const EntranceName = "entrance"

// The program class also carries a JVM entry point and the input scanner,
// so programs may not declare a scene or global under those names.
const (
	ReservedScene  = "main"
	ReservedGlobal = "scanner"
)

// Context holds everything analysis learns about one program. A fresh
// Context is created per Analyze call, so independent compilations share
// no state.
type Context struct {
	Program *ast.Program

	// Globals is the top-level variable scope.
	Globals *Scope

	// GlobalVars lists global bindings in declaration order.
	GlobalVars []ast.BindingID

	// Setups and Scenes list user declarations in source order.
	Setups []*SetupInfo
	Scenes []*SceneInfo

	// Entrance is the scene main() calls.
	Entrance *SceneInfo

	setups   map[string]*SetupInfo
	scenes   map[string]*SceneInfo // includes builtins
	bindings []Binding             // index 0 is NoBinding
	calls    map[*ast.CallExpr]*SceneInfo
}

func newContext(prog *ast.Program) *Context {
	ctx := &Context{
		Program:  prog,
		Globals:  NewScope(nil, "global"),
		setups:   make(map[string]*SetupInfo),
		scenes:   make(map[string]*SceneInfo),
		bindings: make([]Binding, 1),
		calls:    make(map[*ast.CallExpr]*SceneInfo),
	}
	for _, b := range builtinScenes {
		info := *b
		ctx.scenes[info.Name] = &info
	}
	return ctx
}

// Binding returns the binding with the given id.
// It panics on NoBinding or an id from another Context.
func (c *Context) Binding(id ast.BindingID) *Binding {
	if id <= ast.NoBinding || int(id) >= len(c.bindings) {
		panic(fmt.Sprintf("semantic: invalid binding id %d", id))
	}
	return &c.bindings[id]
}

// NumBindings returns the number of bindings created so far.
func (c *Context) NumBindings() int {
	return len(c.bindings) - 1
}

// Setup returns the named setup.
func (c *Context) Setup(name string) (*SetupInfo, bool) {
	s, ok := c.setups[name]
	return s, ok
}

// Scene returns the named top-level or built-in scene.
func (c *Context) Scene(name string) (*SceneInfo, bool) {
	s, ok := c.scenes[name]
	return s, ok
}

// Callee returns the scene a call expression resolved to.
func (c *Context) Callee(call *ast.CallExpr) *SceneInfo {
	return c.calls[call]
}

func (c *Context) newBinding(b Binding) ast.BindingID {
	c.bindings = append(c.bindings, b)
	return ast.BindingID(len(c.bindings) - 1)
}

// Analyze performs semantic analysis on the given program and returns the
// Context describing it. The AST is annotated in place. The first error
// stops analysis and is returned as a *Error.
func Analyze(prog *ast.Program) (ctx *Context, err error) {
	ctx = newContext(prog)
	defer func() {
		if r := recover(); r != nil {
			semErr, ok := r.(*Error)
			if !ok {
				panic(r)
			}
			ctx, err = nil, semErr
		}
	}()

	r := &resolver{ctx: ctx, topLevel: make(map[string]topDecl)}

	// Phase 1: Register setup and scene names, so signatures may refer
	// to declarations that come later in the file
	r.collectNames(prog)

	// Phase 2: Resolve signatures, fields and globals
	r.resolveSignatures(prog)

	// Phase 3: Exactly one entrance
	r.checkEntrance(prog)

	// Phase 4: Type and bind every body
	newChecker(ctx).checkProgram(prog)

	return ctx, nil
}

type topDecl struct {
	kind string
	pos  token.Position
}

// resolver performs the declaration pass.
type resolver struct {
	ctx      *Context
	topLevel map[string]topDecl
	entrance *ast.SceneDecl
}

// collectNames registers setups and scenes without looking inside them.
func (r *resolver) collectNames(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.SetupDecl:
			r.declareTop("setup", d.Name, d.NamePos)
			info := &SetupInfo{
				Name:    d.Name,
				Decl:    d,
				fields:  make(map[string]ast.BindingID),
				methods: make(map[string]*SceneInfo),
			}
			r.ctx.setups[d.Name] = info
			r.ctx.Setups = append(r.ctx.Setups, info)

		case *ast.SceneDecl:
			if d.Name == EntranceName && r.entrance != nil {
				fail(d.NamePos, errDuplicateEntrance, r.entrance.NamePos)
			}
			if d.Name == ReservedScene {
				fail(d.NamePos, errReservedName, "scene", d.Name)
			}
			r.declareTop("scene", d.Name, d.NamePos)
			if d.Name == EntranceName {
				r.entrance = d
			}
			info := &SceneInfo{Name: d.Name, Decl: d, Pos: d.NamePos}
			r.ctx.scenes[d.Name] = info
			r.ctx.Scenes = append(r.ctx.Scenes, info)
		}
	}
}

func (r *resolver) declareTop(kind, name string, pos token.Position) {
	if IsBuiltinScene(name) {
		fail(pos, errRedeclareBuiltin, name)
	}
	if prev, ok := r.topLevel[name]; ok {
		fail(pos, errDuplicateDecl, prev.kind, name, prev.pos)
	}
	r.topLevel[name] = topDecl{kind: kind, pos: pos}
}

// resolveSignatures resolves every declared type outside scene bodies.
func (r *resolver) resolveSignatures(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.SetupDecl:
			r.resolveSetup(r.ctx.setups[d.Name])

		case *ast.SceneDecl:
			r.resolveScene(r.ctx.scenes[d.Name])

		case *ast.VarDecl:
			if d.Name == ReservedGlobal {
				fail(d.NamePos, errReservedName, "global variable", d.Name)
			}
			typ := resolveType(r.ctx, d.Type)
			id := r.ctx.newBinding(Binding{
				Name: d.Name,
				Kind: BindGlobal,
				Type: typ,
				Pos:  d.NamePos,
				Decl: d,
			})
			if !r.ctx.Globals.Define(d.Name, id) {
				prev, _ := r.ctx.Globals.LookupLocal(d.Name)
				fail(d.NamePos, errDuplicateDecl, "var", d.Name, r.ctx.Binding(prev).Pos)
			}
			d.Bind(id)
			r.ctx.GlobalVars = append(r.ctx.GlobalVars, id)
		}
	}
}

func (r *resolver) resolveSetup(info *SetupInfo) {
	decl := info.Decl
	for _, f := range decl.Fields {
		if _, dup := info.fields[f.Name]; dup {
			fail(f.NamePos, errDuplicateField, info.Name, f.Name)
		}
		id := r.ctx.newBinding(Binding{
			Name:  f.Name,
			Kind:  BindField,
			Type:  resolveType(r.ctx, f.Type),
			Pos:   f.NamePos,
			Owner: info.Name,
			Decl:  f,
		})
		f.Bind(id)
		info.fields[f.Name] = id
		info.Fields = append(info.Fields, id)
	}

	info.CtorParams = []types.Type{}
	if decl.Ctor != nil {
		info.CtorParams = r.resolveParams(decl.Ctor.Params)
	}

	for _, m := range decl.Methods {
		if _, dup := info.fields[m.Name]; dup {
			fail(m.NamePos, errDuplicateField, info.Name, m.Name)
		}
		if _, dup := info.methods[m.Name]; dup {
			fail(m.NamePos, errDuplicateField, info.Name, m.Name)
		}
		method := &SceneInfo{Name: m.Name, Owner: info.Name, Decl: m, Pos: m.NamePos}
		r.resolveScene(method)
		info.methods[m.Name] = method
		info.Methods = append(info.Methods, method)
	}
}

func (r *resolver) resolveScene(info *SceneInfo) {
	info.Params = r.resolveParams(info.Decl.Params)
	info.Result = resolveResult(r.ctx, info.Decl.Result)
}

// resolveParams resolves parameter types and checks for duplicate names.
// Parameter bindings are created by the checker when it enters the body.
func (r *resolver) resolveParams(params []*ast.Param) []types.Type {
	out := make([]types.Type, len(params))
	seen := make(map[string]bool, len(params))
	for i, p := range params {
		if seen[p.Name] {
			fail(p.StartPos, errDuplicateVar, p.Name)
		}
		seen[p.Name] = true
		out[i] = resolveType(r.ctx, p.Type)
	}
	return out
}

// checkEntrance verifies the program has exactly one parameterless
// entrance scene. Duplicates are caught while collecting names.
func (r *resolver) checkEntrance(prog *ast.Program) {
	if r.entrance == nil {
		fail(prog.EndPos, errMissingEntrance)
	}
	if len(r.entrance.Params) > 0 {
		fail(r.entrance.Params[0].StartPos, errEntranceParams)
	}
	r.ctx.Entrance = r.ctx.scenes[EntranceName]
}

// resolveType maps a written type to a resolved one. Setup names must be
// declared somewhere in the program.
func resolveType(ctx *Context, ref *ast.TypeRef) types.Type {
	base, ok := types.Primitive(ref.Name)
	if base.Kind == types.Scrap {
		fail(ref.StartPos, errScrapType)
	}
	if !ok {
		if _, ok := ctx.setups[ref.Name]; !ok {
			fail(ref.StartPos, errUnknownType, ref.Name)
		}
		base = types.SetupType(ref.Name)
	}
	return types.ArrayOf(base, ref.Dims)
}

func resolveResult(ctx *Context, ref *ast.TypeRef) types.Type {
	if ref == nil || (ref.Name == "scrap" && ref.Dims == 0) {
		return types.ScrapType
	}
	return resolveType(ctx, ref)
}
