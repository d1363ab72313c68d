// Package vm executes the class files the compiler emits. It interprets
// the instruction subset the code generator uses and provides the few
// library classes generated code calls: System.out, Scanner,
// StringBuilder and Objects.
package vm

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/kolkov/cinema/internal/classfile"
)

// MaxDepth bounds the call stack; deeper recursion raises
// StackOverflowError.
const MaxDepth = 4096

// Error is an uncaught Java exception, or a class the VM cannot execute.
type Error struct {
	Exception string // Java class name, e.g. "java.lang.ArithmeticException"
	Message   string
	Class     string // binary name of the class whose method raised it
	Method    string
}

func (e *Error) Error() string {
	s := e.Exception
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Method != "" {
		s += " (in " + e.Class + "." + e.Method + ")"
	}
	return s
}

func throw(exception, format string, args ...any) {
	panic(&Error{Exception: exception, Message: fmt.Sprintf(format, args...)})
}

// class is a loaded class.
type class struct {
	name        string
	methods     map[string]*method // keyed by name + descriptor
	statics     map[string]Value
	fields      []string // instance fields
	initialized bool
}

// method is a linked method: marks are removed and branch targets are
// instruction indexes.
type method struct {
	class     *class
	name      string
	desc      string
	static    bool
	code      []classfile.Instruction
	target    []int
	maxLocals int
	result    string
}

// signature caches the slot layout of a method descriptor.
type signature struct {
	argSlots int
	result   string
}

// VM executes a set of loaded classes.
type VM struct {
	classes map[string]*class
	sigs    map[string]signature

	output io.Writer
	input  *bufio.Scanner
	out    *printStream
	in     *inputStream

	frames []*frame
	nextID int
}

// frame is the activation of one method.
type frame struct {
	m      *method
	locals []Value
	stack  []Value
}

// Load decodes class files and links them.
func Load(files ...[]byte) (*VM, error) {
	classes := make([]*classfile.Class, 0, len(files))
	for _, data := range files {
		c, err := classfile.Read(data)
		if err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return New(classes)
}

// New links classes for execution. Output goes to os.Stdout and input is
// empty until SetOutput and SetInput say otherwise.
func New(classes []*classfile.Class) (*VM, error) {
	vm := &VM{
		classes: make(map[string]*class, len(classes)),
		sigs:    make(map[string]signature),
		output:  os.Stdout,
		in:      &inputStream{},
	}
	for _, cf := range classes {
		if _, dup := vm.classes[cf.Name]; dup {
			return nil, fmt.Errorf("vm: duplicate class %s", cf.Name)
		}
		c := &class{
			name:    cf.Name,
			methods: make(map[string]*method, len(cf.Methods)),
			statics: make(map[string]Value),
		}
		seen := make(map[string]bool, len(cf.Fields))
		for _, f := range cf.Fields {
			if seen[f.Name] {
				return nil, fmt.Errorf("vm: duplicate field %s.%s", cf.Name, f.Name)
			}
			seen[f.Name] = true
			if f.Access&classfile.AccStatic != 0 {
				c.statics[f.Name] = Value{}
			} else {
				c.fields = append(c.fields, f.Name)
			}
		}
		for _, m := range cf.Methods {
			lm, err := link(c, m)
			if err != nil {
				return nil, err
			}
			if _, dup := c.methods[m.Name+m.Desc]; dup {
				return nil, fmt.Errorf("vm: duplicate method %s.%s%s", cf.Name, m.Name, m.Desc)
			}
			c.methods[m.Name+m.Desc] = lm
		}
		vm.classes[cf.Name] = c
	}
	return vm, nil
}

func link(c *class, m *classfile.Method) (*method, error) {
	where := c.name + "." + m.Name + m.Desc
	params, result, err := classfile.ParseMethodDescriptor(m.Desc)
	if err != nil {
		return nil, fmt.Errorf("vm: %s: %w", where, err)
	}
	if m.Code == nil {
		return nil, fmt.Errorf("vm: %s has no code", where)
	}

	lm := &method{
		class:     c,
		name:      m.Name,
		desc:      m.Desc,
		static:    m.IsStatic(),
		maxLocals: m.MaxLocals,
		result:    result,
	}
	args := 0
	for _, p := range params {
		args += classfile.SlotSize(p)
	}
	if !lm.static {
		args++
	}
	lm.maxLocals = max(lm.maxLocals, args)

	pos := make(map[classfile.Label]int)
	for _, ins := range m.Code.Insns {
		if ins.Op == classfile.Mark {
			pos[ins.Label] = len(lm.code)
			continue
		}
		lm.code = append(lm.code, ins)
	}
	lm.target = make([]int, len(lm.code))
	for i, ins := range lm.code {
		if !ins.Op.IsBranch() {
			continue
		}
		t, ok := pos[ins.Label]
		if !ok {
			return nil, fmt.Errorf("vm: %s: branch to undefined label %d", where, ins.Label)
		}
		lm.target[i] = t
	}
	return lm, nil
}

// SetInput sets the reader Scanner(System.in) reads lines from.
func (vm *VM) SetInput(r io.Reader) {
	vm.input = bufio.NewScanner(r)
	vm.input.Buffer(make([]byte, 0, 64*1024), 1<<20)
}

// SetOutput sets the writer System.out prints to.
func (vm *VM) SetOutput(w io.Writer) {
	vm.output = w
}

// Run initializes mainClass and calls its main method.
func (vm *VM) Run(mainClass string) (err error) {
	vm.out = &printStream{w: bufio.NewWriter(vm.output)}
	defer func() {
		if ferr := vm.out.w.Flush(); err == nil && ferr != nil {
			err = ferr
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*Error)
			if !ok {
				panic(r) // Re-panic for VM bugs
			}
			if e.Method == "" && len(vm.frames) > 0 {
				f := vm.frames[len(vm.frames)-1]
				e.Class, e.Method = f.m.class.name, f.m.name
			}
			vm.frames = vm.frames[:0]
			err = e
		}
	}()

	c, ok := vm.classes[mainClass]
	if !ok {
		throw("java.lang.NoClassDefFoundError", "%s", mainClass)
	}
	vm.initialize(c)
	m := c.methods["main([Ljava/lang/String;)V"]
	if m == nil || !m.static {
		throw("java.lang.NoSuchMethodError", "%s.main([Ljava/lang/String;)V", mainClass)
	}
	args := &Array{Desc: "[Ljava/lang/String;", id: vm.newID()}
	vm.invoke(m, []Value{{Ref: args}})
	return nil
}

// Static returns the value of a static field, once its class has been
// initialized by Run.
func (vm *VM) Static(class, name string) (Value, bool) {
	c, ok := vm.classes[class]
	if !ok {
		return Value{}, false
	}
	v, ok := c.statics[name]
	return v, ok
}

// initialize runs the static initializer of c the first time c is used.
func (vm *VM) initialize(c *class) {
	if c.initialized {
		return
	}
	c.initialized = true
	if m := c.methods["<clinit>()V"]; m != nil {
		vm.invoke(m, nil)
	}
}

func (vm *VM) newID() int {
	vm.nextID++
	return vm.nextID
}

func (vm *VM) signature(desc string) signature {
	if s, ok := vm.sigs[desc]; ok {
		return s
	}
	params, result, err := classfile.ParseMethodDescriptor(desc)
	if err != nil {
		throw("java.lang.VerifyError", "%v", err)
	}
	s := signature{result: result}
	for _, p := range params {
		s.argSlots += classfile.SlotSize(p)
	}
	vm.sigs[desc] = s
	return s
}

// invoke runs m with args as its first local slots and returns its result.
func (vm *VM) invoke(m *method, args []Value) Value {
	if len(vm.frames) >= MaxDepth {
		throw("java.lang.StackOverflowError", "")
	}
	f := &frame{
		m:      m,
		locals: make([]Value, max(m.maxLocals, len(args))),
		stack:  make([]Value, 0, 8),
	}
	copy(f.locals, args)
	vm.frames = append(vm.frames, f)
	v := vm.execute(f)
	vm.frames = vm.frames[:len(vm.frames)-1]
	return v
}

// -----------------------------------------------------------------------------
// Frame stack operations
// -----------------------------------------------------------------------------

func (f *frame) push(v Value) {
	f.stack = append(f.stack, v)
}

func (f *frame) pushI(i int32) {
	f.stack = append(f.stack, Value{I: i})
}

func (f *frame) pushD(d float64) {
	f.stack = append(f.stack, Value{D: d}, Value{})
}

// pushTyped pushes a value with the given field descriptor.
func (f *frame) pushTyped(v Value, desc string) {
	switch classfile.SlotSize(desc) {
	case 1:
		f.push(v)
	case 2:
		f.pushD(v.D)
	}
}

func (f *frame) pop() Value {
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack = f.stack[:n]
	return v
}

func (f *frame) popI() int32 {
	return f.pop().I
}

func (f *frame) popD() float64 {
	n := len(f.stack) - 2
	d := f.stack[n].D
	f.stack = f.stack[:n]
	return d
}

func (f *frame) popTyped(desc string) Value {
	if classfile.SlotSize(desc) == 2 {
		return Value{D: f.popD()}
	}
	return f.pop()
}

// popN removes the top n slots and returns them, deepest first.
func (f *frame) popN(n int) []Value {
	top := len(f.stack)
	vs := append([]Value(nil), f.stack[top-n:]...)
	f.stack = f.stack[:top-n]
	return vs
}

func (f *frame) popArray() *Array {
	ref := f.pop().Ref
	if ref == nil {
		throw("java.lang.NullPointerException", "array is null")
	}
	a, ok := ref.(*Array)
	if !ok {
		throw("java.lang.VerifyError", "expected an array, got %s", stringOf(ref))
	}
	return a
}

func (f *frame) popInstance(action, field string) *Instance {
	ref := f.pop().Ref
	if ref == nil {
		throw("java.lang.NullPointerException", "Cannot %s field %q because value is null", action, field)
	}
	o, ok := ref.(*Instance)
	if !ok {
		throw("java.lang.VerifyError", "expected an object, got %s", stringOf(ref))
	}
	return o
}

func (f *frame) storeD(slot int) {
	f.locals[slot] = Value{D: f.popD()}
	f.locals[slot+1] = Value{}
}

// -----------------------------------------------------------------------------
// Interpreter
// -----------------------------------------------------------------------------

// execute runs the frame's method until it returns.
func (vm *VM) execute(f *frame) Value {
	code := f.m.code
	pc := 0
	for {
		if pc >= len(code) {
			throw("java.lang.VerifyError", "execution ran off the end of the code")
		}
		ins := &code[pc]
		pc++

		switch op := ins.Op; op {
		case classfile.Nop:
			// Do nothing

		// Constants
		case classfile.AconstNull:
			f.push(Value{})
		case classfile.IconstM1, classfile.Iconst0, classfile.Iconst1, classfile.Iconst2,
			classfile.Iconst3, classfile.Iconst4, classfile.Iconst5:
			f.pushI(int32(op) - int32(classfile.Iconst0))
		case classfile.Dconst0:
			f.pushD(0)
		case classfile.Dconst1:
			f.pushD(1)
		case classfile.Bipush, classfile.Sipush:
			f.pushI(int32(ins.Arg))
		case classfile.Ldc, classfile.LdcW, classfile.Ldc2W:
			switch c := ins.Const.(type) {
			case int32:
				f.pushI(c)
			case float64:
				f.pushD(c)
			case string:
				f.push(Value{Ref: &String{S: c}})
			default:
				throw("java.lang.VerifyError", "ldc of %T", c)
			}

		// Locals
		case classfile.Iload, classfile.Aload:
			f.push(f.locals[ins.Arg])
		case classfile.Iload0, classfile.Iload1, classfile.Iload2, classfile.Iload3:
			f.push(f.locals[op-classfile.Iload0])
		case classfile.Aload0, classfile.Aload1, classfile.Aload2, classfile.Aload3:
			f.push(f.locals[op-classfile.Aload0])
		case classfile.Dload:
			f.pushD(f.locals[ins.Arg].D)
		case classfile.Dload0, classfile.Dload1, classfile.Dload2, classfile.Dload3:
			f.pushD(f.locals[op-classfile.Dload0].D)
		case classfile.Istore, classfile.Astore:
			f.locals[ins.Arg] = f.pop()
		case classfile.Istore0, classfile.Istore1, classfile.Istore2, classfile.Istore3:
			f.locals[op-classfile.Istore0] = f.pop()
		case classfile.Astore0, classfile.Astore1, classfile.Astore2, classfile.Astore3:
			f.locals[op-classfile.Astore0] = f.pop()
		case classfile.Dstore:
			f.storeD(ins.Arg)
		case classfile.Dstore0, classfile.Dstore1, classfile.Dstore2, classfile.Dstore3:
			f.storeD(int(op - classfile.Dstore0))
		case classfile.Iinc:
			f.locals[ins.Arg].I += int32(ins.Inc)

		// Arrays
		case classfile.Iaload, classfile.Baload, classfile.Caload, classfile.Aaload:
			i := f.popI()
			a := f.popArray()
			f.push(a.Elems[checkIndex(a, i)])
		case classfile.Daload:
			i := f.popI()
			a := f.popArray()
			f.pushD(a.Elems[checkIndex(a, i)].D)
		case classfile.Iastore, classfile.Bastore, classfile.Castore, classfile.Aastore:
			v := f.pop()
			i := f.popI()
			a := f.popArray()
			switch op {
			case classfile.Bastore:
				v.I = int32(int8(v.I))
			case classfile.Castore:
				v.I = int32(uint16(v.I))
			}
			a.Elems[checkIndex(a, i)] = v
		case classfile.Dastore:
			d := f.popD()
			i := f.popI()
			a := f.popArray()
			a.Elems[checkIndex(a, i)] = Value{D: d}
		case classfile.Arraylength:
			f.pushI(int32(len(f.popArray().Elems)))
		case classfile.Newarray:
			f.push(Value{Ref: vm.newArray("["+atypeDescriptor(ins.Arg), f.popI())})
		case classfile.Anewarray:
			desc := "[L" + ins.Class + ";"
			if strings.HasPrefix(ins.Class, "[") {
				desc = "[" + ins.Class
			}
			f.push(Value{Ref: vm.newArray(desc, f.popI())})
		case classfile.Multianewarray:
			vs := f.popN(ins.Arg)
			counts := make([]int32, len(vs))
			for i, v := range vs {
				counts[i] = v.I
			}
			f.push(Value{Ref: vm.newMultiArray(ins.Class, counts)})

		// Stack
		case classfile.Pop:
			f.stack = f.stack[:len(f.stack)-1]
		case classfile.Pop2:
			f.stack = f.stack[:len(f.stack)-2]
		case classfile.Dup:
			f.push(f.stack[len(f.stack)-1])
		case classfile.DupX1:
			vs := f.popN(2)
			f.stack = append(f.stack, vs[1], vs[0], vs[1])
		case classfile.DupX2:
			vs := f.popN(3)
			f.stack = append(f.stack, vs[2], vs[0], vs[1], vs[2])
		case classfile.Dup2:
			n := len(f.stack)
			f.stack = append(f.stack, f.stack[n-2], f.stack[n-1])
		case classfile.Dup2X1:
			vs := f.popN(3)
			f.stack = append(f.stack, vs[1], vs[2], vs[0], vs[1], vs[2])
		case classfile.Dup2X2:
			vs := f.popN(4)
			f.stack = append(f.stack, vs[2], vs[3], vs[0], vs[1], vs[2], vs[3])
		case classfile.Swap:
			n := len(f.stack)
			f.stack[n-1], f.stack[n-2] = f.stack[n-2], f.stack[n-1]

		// Arithmetic
		case classfile.Iadd, classfile.Isub, classfile.Imul, classfile.Idiv, classfile.Irem:
			b := f.popI()
			a := f.popI()
			f.pushI(intArith(op, a, b))
		case classfile.Dadd, classfile.Dsub, classfile.Dmul, classfile.Ddiv, classfile.Drem:
			b := f.popD()
			a := f.popD()
			f.pushD(doubleArith(op, a, b))
		case classfile.Ineg:
			f.pushI(-f.popI())
		case classfile.Dneg:
			f.pushD(-f.popD())
		case classfile.I2d:
			f.pushD(float64(f.popI()))
		case classfile.D2i:
			f.pushI(d2i(f.popD()))
		case classfile.I2c:
			f.pushI(int32(uint16(f.popI())))
		case classfile.Dcmpl, classfile.Dcmpg:
			b := f.popD()
			a := f.popD()
			f.pushI(dcmp(a, b, op == classfile.Dcmpg))

		// Branches
		case classfile.Ifeq, classfile.Ifne, classfile.Iflt, classfile.Ifge, classfile.Ifgt, classfile.Ifle:
			if compare(op-classfile.Ifeq, f.popI(), 0) {
				pc = f.m.target[pc-1]
			}
		case classfile.IfIcmpeq, classfile.IfIcmpne, classfile.IfIcmplt,
			classfile.IfIcmpge, classfile.IfIcmpgt, classfile.IfIcmple:
			b := f.popI()
			a := f.popI()
			if compare(op-classfile.IfIcmpeq, a, b) {
				pc = f.m.target[pc-1]
			}
		case classfile.IfAcmpeq, classfile.IfAcmpne:
			b := f.pop().Ref
			a := f.pop().Ref
			if (a == b) == (op == classfile.IfAcmpeq) {
				pc = f.m.target[pc-1]
			}
		case classfile.Ifnull, classfile.Ifnonnull:
			if (f.pop().Ref == nil) == (op == classfile.Ifnull) {
				pc = f.m.target[pc-1]
			}
		case classfile.Goto:
			pc = f.m.target[pc-1]

		// Returns
		case classfile.Ireturn, classfile.Areturn:
			return f.pop()
		case classfile.Dreturn:
			return Value{D: f.popD()}
		case classfile.Return:
			return Value{}

		// Fields and objects
		case classfile.Getstatic:
			f.pushTyped(vm.getStatic(ins.Ref), ins.Ref.Desc)
		case classfile.Putstatic:
			vm.putStatic(ins.Ref, f.popTyped(ins.Ref.Desc))
		case classfile.Getfield:
			o := f.popInstance("read", ins.Ref.Name)
			v, ok := o.fields[ins.Ref.Name]
			if !ok {
				throw("java.lang.NoSuchFieldError", "%s", ins.Ref.Name)
			}
			f.pushTyped(v, ins.Ref.Desc)
		case classfile.Putfield:
			v := f.popTyped(ins.Ref.Desc)
			o := f.popInstance("assign", ins.Ref.Name)
			if _, ok := o.fields[ins.Ref.Name]; !ok {
				throw("java.lang.NoSuchFieldError", "%s", ins.Ref.Name)
			}
			o.fields[ins.Ref.Name] = v
		case classfile.New:
			f.push(Value{Ref: vm.allocate(ins.Class)})
		case classfile.Invokevirtual, classfile.Invokespecial, classfile.Invokestatic:
			vm.call(f, op, ins.Ref)

		default:
			throw("java.lang.VerifyError", "unsupported instruction %s", op)
		}
	}
}

// call performs an invoke instruction in frame f.
func (vm *VM) call(f *frame, op classfile.Opcode, ref classfile.MemberRef) {
	sig := vm.signature(ref.Desc)
	static := op == classfile.Invokestatic
	top := len(f.stack)
	base := top - sig.argSlots
	if !static {
		base--
	}
	var recv Object
	if !static {
		recv = f.stack[base].Ref
		if recv == nil {
			throw("java.lang.NullPointerException", "Cannot invoke \"%s.%s()\" because value is null",
				strings.ReplaceAll(ref.Owner, "/", "."), ref.Name)
		}
	}

	var result Value
	if c, ok := vm.classes[ref.Owner]; ok {
		if static {
			vm.initialize(c)
		}
		m := c.methods[ref.Name+ref.Desc]
		if m == nil || m.static != static {
			throw("java.lang.NoSuchMethodError", "%s.%s%s", ref.Owner, ref.Name, ref.Desc)
		}
		result = vm.invoke(m, f.stack[base:top])
	} else {
		var ok bool
		result, ok = vm.callNative(ref, recv, f.stack[top-sig.argSlots:top])
		if !ok {
			throw("java.lang.NoSuchMethodError", "%s.%s%s", ref.Owner, ref.Name, ref.Desc)
		}
	}
	f.stack = f.stack[:base]
	f.pushTyped(result, sig.result)
}

func (vm *VM) getStatic(ref classfile.MemberRef) Value {
	if c, ok := vm.classes[ref.Owner]; ok {
		vm.initialize(c)
		v, ok := c.statics[ref.Name]
		if !ok {
			throw("java.lang.NoSuchFieldError", "%s.%s", ref.Owner, ref.Name)
		}
		return v
	}
	v, ok := vm.getNativeStatic(ref)
	if !ok {
		throw("java.lang.NoSuchFieldError", "%s.%s", ref.Owner, ref.Name)
	}
	return v
}

func (vm *VM) putStatic(ref classfile.MemberRef, v Value) {
	c, ok := vm.classes[ref.Owner]
	if !ok {
		throw("java.lang.IllegalAccessError", "cannot assign %s.%s", ref.Owner, ref.Name)
	}
	vm.initialize(c)
	if _, ok := c.statics[ref.Name]; !ok {
		throw("java.lang.NoSuchFieldError", "%s.%s", ref.Owner, ref.Name)
	}
	c.statics[ref.Name] = v
}

// allocate creates an uninitialized object for the new instruction.
func (vm *VM) allocate(name string) Object {
	if c, ok := vm.classes[name]; ok {
		vm.initialize(c)
		o := &Instance{class: c, id: vm.newID(), fields: make(map[string]Value, len(c.fields))}
		for _, f := range c.fields {
			o.fields[f] = Value{}
		}
		return o
	}
	if o, ok := vm.newNative(name); ok {
		return o
	}
	throw("java.lang.NoClassDefFoundError", "%s", name)
	return nil
}

func (vm *VM) newArray(desc string, n int32) *Array {
	if n < 0 {
		throw("java.lang.NegativeArraySizeException", "%d", n)
	}
	return &Array{Desc: desc, Elems: make([]Value, n), id: vm.newID()}
}

// newMultiArray allocates nested arrays for the leading dimensions of
// desc; deeper dimensions stay null.
func (vm *VM) newMultiArray(desc string, counts []int32) *Array {
	for _, n := range counts {
		if n < 0 {
			throw("java.lang.NegativeArraySizeException", "%d", n)
		}
	}
	a := vm.newArray(desc, counts[0])
	if len(counts) > 1 {
		for i := range a.Elems {
			a.Elems[i].Ref = vm.newMultiArray(desc[1:], counts[1:])
		}
	}
	return a
}

func checkIndex(a *Array, i int32) int {
	if i < 0 || int(i) >= len(a.Elems) {
		throw("java.lang.ArrayIndexOutOfBoundsException", "Index %d out of bounds for length %d", i, len(a.Elems))
	}
	return int(i)
}

func atypeDescriptor(code int) string {
	switch code {
	case classfile.TBoolean:
		return "Z"
	case classfile.TChar:
		return "C"
	case classfile.TDouble:
		return "D"
	case classfile.TInt:
		return "I"
	}
	throw("java.lang.VerifyError", "unsupported array type %d", code)
	return ""
}

func intArith(op classfile.Opcode, a, b int32) int32 {
	switch op {
	case classfile.Iadd:
		return a + b
	case classfile.Isub:
		return a - b
	case classfile.Imul:
		return a * b
	}
	if b == 0 {
		throw("java.lang.ArithmeticException", "/ by zero")
	}
	if op == classfile.Idiv {
		return a / b
	}
	return a % b
}

func doubleArith(op classfile.Opcode, a, b float64) float64 {
	switch op {
	case classfile.Dadd:
		return a + b
	case classfile.Dsub:
		return a - b
	case classfile.Dmul:
		return a * b
	case classfile.Ddiv:
		return a / b
	}
	return math.Mod(a, b)
}

// d2i converts as the JVM does: NaN is 0 and out-of-range values saturate.
func d2i(d float64) int32 {
	switch {
	case math.IsNaN(d):
		return 0
	case d >= math.MaxInt32:
		return math.MaxInt32
	case d <= math.MinInt32:
		return math.MinInt32
	}
	return int32(d)
}

// dcmp compares two doubles; a NaN operand yields 1 for dcmpg and -1 for
// dcmpl.
func dcmp(a, b float64, g bool) int32 {
	switch {
	case a > b:
		return 1
	case a == b:
		return 0
	case a < b:
		return -1
	case g:
		return 1
	default:
		return -1
	}
}

// compare evaluates the condition of the if family; cond is the opcode's
// offset from ifeq (or if_icmpeq): eq, ne, lt, ge, gt, le.
func compare(cond classfile.Opcode, a, b int32) bool {
	switch cond {
	case 0:
		return a == b
	case 1:
		return a != b
	case 2:
		return a < b
	case 3:
		return a >= b
	case 4:
		return a > b
	default:
		return a <= b
	}
}
