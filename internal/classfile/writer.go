package classfile

import (
	"encoding/binary"
	"fmt"
	"math"
)

// assembled is the encoded form of a class together with what the listing
// needs to mirror it exactly.
type assembled struct {
	bytes   []byte
	methods []assembledMethod
}

type assembledMethod struct {
	ops      []Opcode // encoded opcode of each instruction (Mark for labels)
	offsets  []int    // byte offset of each instruction
	maxStack int
}

// Bytes encodes the class in the class file format. Encoding is
// deterministic: the same class always produces the same bytes.
func (c *Class) Bytes() ([]byte, error) {
	a, err := c.assemble()
	if err != nil {
		return nil, err
	}
	return a.bytes, nil
}

// assembler holds the state for encoding one class.
type assembler struct {
	class  *Class
	pool   *pool
	method string // current method, for errors
}

func (c *Class) assemble() (out *assembled, err error) {
	a := &assembler{class: c, pool: newPool()}
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			out, err = nil, &Error{Class: c.Name, Method: a.method, Message: e.Error()}
		}
	}()
	return a.run(), nil
}

func failf(format string, args ...any) {
	panic(fmt.Errorf(format, args...))
}

func (a *assembler) run() *assembled {
	c := a.class
	if !ValidBinaryName(c.Name) {
		failf("invalid class name %q", c.Name)
	}
	if !ValidBinaryName(c.Super) {
		failf("invalid superclass name %q", c.Super)
	}
	thisIdx := a.pool.class(c.Name)
	superIdx := a.pool.class(c.Super)

	// Members go to a separate buffer: the pool must be complete before it
	// is written ahead of them.
	var body []byte
	body = binary.BigEndian.AppendUint16(body, c.Access)
	body = binary.BigEndian.AppendUint16(body, thisIdx)
	body = binary.BigEndian.AppendUint16(body, superIdx)
	body = binary.BigEndian.AppendUint16(body, 0) // interfaces

	// Fields are looked up by name alone (Class.Field), so names must be
	// unique even where the JVM would accept differing descriptors.
	fieldNames := make(map[string]bool, len(c.Fields))
	body = binary.BigEndian.AppendUint16(body, uint16(len(c.Fields)))
	for _, f := range c.Fields {
		if f.Name == "" || !ValidFieldDescriptor(f.Desc) {
			failf("invalid field %s %q", f.Name, f.Desc)
		}
		if fieldNames[f.Name] {
			failf("duplicate field %s", f.Name)
		}
		fieldNames[f.Name] = true
		body = binary.BigEndian.AppendUint16(body, f.Access)
		body = binary.BigEndian.AppendUint16(body, a.pool.utf8(f.Name))
		body = binary.BigEndian.AppendUint16(body, a.pool.utf8(f.Desc))
		body = binary.BigEndian.AppendUint16(body, 0) // attributes
	}

	out := &assembled{}
	methods := make(map[string]bool, len(c.Methods))
	body = binary.BigEndian.AppendUint16(body, uint16(len(c.Methods)))
	for _, m := range c.Methods {
		a.method = m.Name + m.Desc
		if methods[a.method] {
			failf("duplicate method")
		}
		methods[a.method] = true
		var am assembledMethod
		body, am = a.encodeMethod(body, m)
		out.methods = append(out.methods, am)
	}
	a.method = ""

	if c.SourceFile != "" {
		body = binary.BigEndian.AppendUint16(body, 1)
		body = binary.BigEndian.AppendUint16(body, a.pool.utf8("SourceFile"))
		body = binary.BigEndian.AppendUint32(body, 2)
		body = binary.BigEndian.AppendUint16(body, a.pool.utf8(c.SourceFile))
	} else {
		body = binary.BigEndian.AppendUint16(body, 0)
	}

	b := make([]byte, 0, 10+len(body)+16*a.pool.count())
	b = binary.BigEndian.AppendUint32(b, Magic)
	b = binary.BigEndian.AppendUint16(b, MinorVersion)
	b = binary.BigEndian.AppendUint16(b, MajorVersion)
	b = binary.BigEndian.AppendUint16(b, uint16(a.pool.count()))
	b = a.pool.write(b)
	out.bytes = append(b, body...)
	return out
}

// encodeMethod appends a method_info with its Code attribute.
func (a *assembler) encodeMethod(b []byte, m *Method) ([]byte, assembledMethod) {
	if m.Name == "" || !ValidMethodDescriptor(m.Desc) {
		failf("invalid method descriptor %q", m.Desc)
	}
	if m.Code == nil {
		failf("method has no code")
	}
	if m.MaxLocals < 0 || m.MaxLocals > math.MaxUint16 {
		failf("max_locals %d out of range", m.MaxLocals)
	}
	b = binary.BigEndian.AppendUint16(b, m.Access)
	b = binary.BigEndian.AppendUint16(b, a.pool.utf8(m.Name))
	b = binary.BigEndian.AppendUint16(b, a.pool.utf8(m.Desc))
	b = binary.BigEndian.AppendUint16(b, 1) // attributes
	codeName := a.pool.utf8("Code")

	code, am := a.encodeCode(m)
	m.MaxStack = am.maxStack

	b = binary.BigEndian.AppendUint16(b, codeName)
	b = binary.BigEndian.AppendUint32(b, uint32(12+len(code)))
	b = binary.BigEndian.AppendUint16(b, uint16(am.maxStack))
	b = binary.BigEndian.AppendUint16(b, uint16(m.MaxLocals))
	b = binary.BigEndian.AppendUint32(b, uint32(len(code)))
	b = append(b, code...)
	b = binary.BigEndian.AppendUint16(b, 0) // exception table
	b = binary.BigEndian.AppendUint16(b, 0) // attributes
	return b, am
}

// encodeCode lays out and encodes the instruction list. Pool indices are
// resolved first because they decide between ldc and ldc_w, which changes
// every later offset.
func (a *assembler) encodeCode(m *Method) ([]byte, assembledMethod) {
	insns := m.Code.Insns
	n := len(insns)
	ops := make([]Opcode, n)
	operand := make([]uint16, n) // pool index per instruction
	offsets := make([]int, n+1)
	labelAt := make(map[Label]int)

	// Pass 1: validate, resolve constants, choose encodings and sizes.
	for i, ins := range insns {
		offsets[i+1] = offsets[i]
		if ins.Op == Mark {
			if ins.Label <= 0 {
				failf("mark without a label")
			}
			if _, dup := labelAt[ins.Label]; dup {
				failf("label L%d placed twice", ins.Label)
			}
			labelAt[ins.Label] = i
			ops[i] = Mark
			continue
		}
		a.validate(m, ins)
		op := ins.Op
		switch opTable[op].format {
		case fmtConst, fmtConstW:
			operand[i] = a.pool.constant(ins.Const)
			if op != Ldc2W {
				op = Ldc
				if operand[i] > math.MaxUint8 {
					op = LdcW
				}
			}
		case fmtMember:
			operand[i] = a.pool.member(op, ins.Ref)
		case fmtClass, fmtMulti:
			operand[i] = a.pool.class(ins.Class)
		}
		ops[i] = op
		offsets[i+1] += opTable[op].format.size()
	}
	length := offsets[n]
	if length > math.MaxUint16 {
		failf("code too large: %d bytes", length)
	}

	// Pass 2: encode.
	code := make([]byte, 0, length)
	for i, ins := range insns {
		op := ops[i]
		if op == Mark {
			continue
		}
		code = append(code, byte(op))
		switch opTable[op].format {
		case fmtByte, fmtLocal, fmtAtype:
			code = append(code, byte(ins.Arg))
		case fmtShort:
			code = binary.BigEndian.AppendUint16(code, uint16(int16(ins.Arg)))
		case fmtConst:
			code = append(code, byte(operand[i]))
		case fmtConstW, fmtMember, fmtClass:
			code = binary.BigEndian.AppendUint16(code, operand[i])
		case fmtMulti:
			code = binary.BigEndian.AppendUint16(code, operand[i])
			code = append(code, byte(ins.Arg))
		case fmtIinc:
			code = append(code, byte(ins.Arg), byte(int8(ins.Inc)))
		case fmtBranch:
			target, ok := labelAt[ins.Label]
			if !ok {
				failf("jump to unplaced label L%d", ins.Label)
			}
			delta := offsets[target] - offsets[i]
			if delta < math.MinInt16 || delta > math.MaxInt16 {
				failf("branch offset %d out of range", delta)
			}
			code = binary.BigEndian.AppendUint16(code, uint16(int16(delta)))
		}
	}

	return code, assembledMethod{
		ops:      ops,
		offsets:  offsets[:n],
		maxStack: maxStack(m.Code),
	}
}

// validate checks the operands of one instruction.
func (a *assembler) validate(m *Method, ins Instruction) {
	op := ins.Op
	if !op.Valid() {
		failf("unsupported opcode %s", op)
	}
	switch opTable[op].format {
	case fmtByte:
		if ins.Arg < math.MinInt8 || ins.Arg > math.MaxInt8 {
			failf("%s operand %d out of range", op, ins.Arg)
		}
	case fmtShort:
		if ins.Arg < math.MinInt16 || ins.Arg > math.MaxInt16 {
			failf("%s operand %d out of range", op, ins.Arg)
		}
	case fmtLocal, fmtIinc:
		if ins.Arg < 0 || ins.Arg > math.MaxUint8 {
			failf("local variable slot %d out of range", ins.Arg)
		}
		if ins.Arg >= m.MaxLocals {
			failf("local variable slot %d beyond max_locals %d", ins.Arg, m.MaxLocals)
		}
		if op == Iinc && (ins.Inc < math.MinInt8 || ins.Inc > math.MaxInt8) {
			failf("iinc increment %d out of range", ins.Inc)
		}
	case fmtConst, fmtConstW:
		switch ins.Const.(type) {
		case int32, string:
			if op == Ldc2W {
				failf("ldc2_w needs a double constant, got %T", ins.Const)
			}
		case float64:
			if op != Ldc2W {
				failf("%s cannot load a double constant", op)
			}
		default:
			failf("unsupported constant %T", ins.Const)
		}
	case fmtMember:
		ref := ins.Ref
		if !ValidClassRef(ref.Owner) || ref.Name == "" {
			failf("invalid member reference %s.%s", ref.Owner, ref.Name)
		}
		switch op {
		case Getstatic, Putstatic, Getfield, Putfield:
			if !ValidFieldDescriptor(ref.Desc) {
				failf("malformed field descriptor %q", ref.Desc)
			}
		default:
			if !ValidMethodDescriptor(ref.Desc) {
				failf("malformed method descriptor %q", ref.Desc)
			}
		}
	case fmtClass:
		if !ValidClassRef(ins.Class) {
			failf("invalid class name %q", ins.Class)
		}
	case fmtAtype:
		if ins.Arg < TBoolean || ins.Arg > 11 {
			failf("invalid newarray type %d", ins.Arg)
		}
	case fmtMulti:
		if ins.Arg < 1 || ins.Arg > math.MaxUint8 {
			failf("multianewarray dimensions %d out of range", ins.Arg)
		}
		if !ValidFieldDescriptor(ins.Class) || countDims(ins.Class) < ins.Arg {
			failf("multianewarray needs an array type of at least %d dimensions, got %q", ins.Arg, ins.Class)
		}
	}
}

func countDims(desc string) int {
	n := 0
	for n < len(desc) && desc[n] == '[' {
		n++
	}
	return n
}
