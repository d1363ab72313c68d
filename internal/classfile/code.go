package classfile

// Label names a position in a method's instruction list. Labels are
// created by Code.NewLabel and placed with Code.Mark. Zero is no label.
type Label int

// MemberRef refers to a field or method of a class.
type MemberRef struct {
	Owner string // binary class name, e.g. "java/io/PrintStream"
	Name  string
	Desc  string // field or method descriptor
}

// Instruction is one JVM instruction, or a Mark defining a label.
// Which operand fields are used depends on the opcode's format.
type Instruction struct {
	Op    Opcode
	Arg   int       // immediate, local index, array type code or dimension count
	Inc   int       // iinc increment
	Label Label     // branch target, or the label a Mark defines
	Const any       // ldc operand: int32, float64 or string
	Class string    // class operand of new, anewarray, checkcast, multianewarray
	Ref   MemberRef // field and method instructions
}

// Code is the instruction list of a method body.
type Code struct {
	Insns     []Instruction
	numLabels int
}

// NewLabel allocates a label that is not yet placed.
func (c *Code) NewLabel() Label {
	c.numLabels++
	return Label(c.numLabels)
}

// NumLabels returns the number of labels allocated so far.
func (c *Code) NumLabels() int {
	return c.numLabels
}

// Mark places l before the next instruction.
func (c *Code) Mark(l Label) {
	c.Insns = append(c.Insns, Instruction{Op: Mark, Label: l})
}

// Emit appends an instruction without operands.
func (c *Code) Emit(op Opcode) {
	c.Insns = append(c.Insns, Instruction{Op: op})
}

// EmitArg appends an instruction with an integer operand: bipush, sipush,
// a load or store with an explicit index, newarray.
func (c *Code) EmitArg(op Opcode, arg int) {
	c.Insns = append(c.Insns, Instruction{Op: op, Arg: arg})
}

// EmitIinc appends "iinc slot inc".
func (c *Code) EmitIinc(slot, inc int) {
	c.Insns = append(c.Insns, Instruction{Op: Iinc, Arg: slot, Inc: inc})
}

// EmitJump appends a branch to l.
func (c *Code) EmitJump(op Opcode, l Label) {
	c.Insns = append(c.Insns, Instruction{Op: op, Label: l})
}

// EmitConst appends a constant load. int32 and string values use ldc
// (widened to ldc_w when the pool index needs it); float64 uses ldc2_w.
func (c *Code) EmitConst(v any) {
	op := Ldc
	if _, ok := v.(float64); ok {
		op = Ldc2W
	}
	c.Insns = append(c.Insns, Instruction{Op: op, Const: v})
}

// EmitMember appends a field access or method invocation.
func (c *Code) EmitMember(op Opcode, owner, name, desc string) {
	c.Insns = append(c.Insns, Instruction{Op: op, Ref: MemberRef{Owner: owner, Name: name, Desc: desc}})
}

// EmitClass appends new, anewarray or checkcast.
func (c *Code) EmitClass(op Opcode, class string) {
	c.Insns = append(c.Insns, Instruction{Op: op, Class: class})
}

// EmitMultiNewArray appends "multianewarray desc dims".
func (c *Code) EmitMultiNewArray(desc string, dims int) {
	c.Insns = append(c.Insns, Instruction{Op: Multianewarray, Class: desc, Arg: dims})
}

// Last returns the last real instruction, skipping label marks.
func (c *Code) Last() (Instruction, bool) {
	for i := len(c.Insns) - 1; i >= 0; i-- {
		if c.Insns[i].Op != Mark {
			return c.Insns[i], true
		}
	}
	return Instruction{}, false
}

// Len returns the number of real instructions.
func (c *Code) Len() int {
	n := 0
	for _, ins := range c.Insns {
		if ins.Op != Mark {
			n++
		}
	}
	return n
}

// labelIndex maps each placed label to the index of its Mark.
func (c *Code) labelIndex() map[Label]int {
	idx := make(map[Label]int)
	for i, ins := range c.Insns {
		if ins.Op == Mark {
			idx[ins.Label] = i
		}
	}
	return idx
}
