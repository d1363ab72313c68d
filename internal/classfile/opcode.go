// Package classfile models JVM class files: a label-based instruction list
// per method, a writer that lays out and encodes the binary format, a reader
// that decodes it back, and a Jasmin-style listing rendered from the same
// instruction lists.
//
// Only the subset of the format that the code generator emits is supported:
// no exception tables, no stack map frames (major version 49), no wide or
// switch instructions.
package classfile

import "fmt"

// Opcode is a JVM instruction opcode.
type Opcode uint8

const (
	Nop        Opcode = 0x00
	AconstNull Opcode = 0x01
	IconstM1   Opcode = 0x02
	Iconst0    Opcode = 0x03
	Iconst1    Opcode = 0x04
	Iconst2    Opcode = 0x05
	Iconst3    Opcode = 0x06
	Iconst4    Opcode = 0x07
	Iconst5    Opcode = 0x08
	Dconst0    Opcode = 0x0e
	Dconst1    Opcode = 0x0f
	Bipush     Opcode = 0x10
	Sipush     Opcode = 0x11
	Ldc        Opcode = 0x12
	LdcW       Opcode = 0x13
	Ldc2W      Opcode = 0x14

	// Loads
	Iload  Opcode = 0x15
	Dload  Opcode = 0x18
	Aload  Opcode = 0x19
	Iload0 Opcode = 0x1a
	Iload1 Opcode = 0x1b
	Iload2 Opcode = 0x1c
	Iload3 Opcode = 0x1d
	Dload0 Opcode = 0x26
	Dload1 Opcode = 0x27
	Dload2 Opcode = 0x28
	Dload3 Opcode = 0x29
	Aload0 Opcode = 0x2a
	Aload1 Opcode = 0x2b
	Aload2 Opcode = 0x2c
	Aload3 Opcode = 0x2d
	Iaload Opcode = 0x2e
	Daload Opcode = 0x31
	Aaload Opcode = 0x32
	Baload Opcode = 0x33
	Caload Opcode = 0x34

	// Stores
	Istore  Opcode = 0x36
	Dstore  Opcode = 0x39
	Astore  Opcode = 0x3a
	Istore0 Opcode = 0x3b
	Istore1 Opcode = 0x3c
	Istore2 Opcode = 0x3d
	Istore3 Opcode = 0x3e
	Dstore0 Opcode = 0x47
	Dstore1 Opcode = 0x48
	Dstore2 Opcode = 0x49
	Dstore3 Opcode = 0x4a
	Astore0 Opcode = 0x4b
	Astore1 Opcode = 0x4c
	Astore2 Opcode = 0x4d
	Astore3 Opcode = 0x4e
	Iastore Opcode = 0x4f
	Dastore Opcode = 0x52
	Aastore Opcode = 0x53
	Bastore Opcode = 0x54
	Castore Opcode = 0x55

	// Stack
	Pop    Opcode = 0x57
	Pop2   Opcode = 0x58
	Dup    Opcode = 0x59
	DupX1  Opcode = 0x5a
	DupX2  Opcode = 0x5b
	Dup2   Opcode = 0x5c
	Dup2X1 Opcode = 0x5d
	Dup2X2 Opcode = 0x5e
	Swap   Opcode = 0x5f

	// Arithmetic
	Iadd Opcode = 0x60
	Dadd Opcode = 0x63
	Isub Opcode = 0x64
	Dsub Opcode = 0x67
	Imul Opcode = 0x68
	Dmul Opcode = 0x6b
	Idiv Opcode = 0x6c
	Ddiv Opcode = 0x6f
	Irem Opcode = 0x70
	Drem Opcode = 0x73
	Ineg Opcode = 0x74
	Dneg Opcode = 0x77
	Iinc Opcode = 0x84

	// Conversions
	I2d Opcode = 0x87
	D2i Opcode = 0x8e
	I2c Opcode = 0x92

	// Comparisons and branches
	Dcmpl    Opcode = 0x97
	Dcmpg    Opcode = 0x98
	Ifeq     Opcode = 0x99
	Ifne     Opcode = 0x9a
	Iflt     Opcode = 0x9b
	Ifge     Opcode = 0x9c
	Ifgt     Opcode = 0x9d
	Ifle     Opcode = 0x9e
	IfIcmpeq Opcode = 0x9f
	IfIcmpne Opcode = 0xa0
	IfIcmplt Opcode = 0xa1
	IfIcmpge Opcode = 0xa2
	IfIcmpgt Opcode = 0xa3
	IfIcmple Opcode = 0xa4
	IfAcmpeq Opcode = 0xa5
	IfAcmpne Opcode = 0xa6
	Goto     Opcode = 0xa7

	// Returns
	Ireturn Opcode = 0xac
	Dreturn Opcode = 0xaf
	Areturn Opcode = 0xb0
	Return  Opcode = 0xb1

	// Fields and methods
	Getstatic     Opcode = 0xb2
	Putstatic     Opcode = 0xb3
	Getfield      Opcode = 0xb4
	Putfield      Opcode = 0xb5
	Invokevirtual Opcode = 0xb6
	Invokespecial Opcode = 0xb7
	Invokestatic  Opcode = 0xb8

	// Objects and arrays
	New            Opcode = 0xbb
	Newarray       Opcode = 0xbc
	Anewarray      Opcode = 0xbd
	Arraylength    Opcode = 0xbe
	Athrow         Opcode = 0xbf
	Checkcast      Opcode = 0xc0
	Multianewarray Opcode = 0xc5
	Ifnull         Opcode = 0xc6
	Ifnonnull      Opcode = 0xc7

	// Mark is a pseudo-instruction that defines a label. It occupies no
	// bytes in the encoded method.
	Mark Opcode = 0xff
)

// Array type codes for newarray.
const (
	TBoolean = 4
	TChar    = 5
	TDouble  = 7
	TInt     = 10
)

// format describes the operand bytes that follow an opcode.
type format uint8

const (
	fmtNone   format = iota
	fmtByte          // signed byte immediate (bipush)
	fmtShort         // signed short immediate (sipush)
	fmtLocal         // u1 local variable index
	fmtConst         // u1 constant pool index (ldc)
	fmtConstW        // u2 constant pool index (ldc_w, ldc2_w)
	fmtMember        // u2 field or method reference
	fmtClass         // u2 class reference
	fmtIinc          // u1 local index, s1 increment
	fmtBranch        // s2 relative offset
	fmtAtype         // u1 primitive array type
	fmtMulti         // u2 class reference, u1 dimensions
)

// size returns the encoded length of an instruction with this format,
// opcode byte included.
func (f format) size() int {
	switch f {
	case fmtNone:
		return 1
	case fmtByte, fmtLocal, fmtConst, fmtAtype:
		return 2
	case fmtMulti:
		return 4
	default:
		return 3
	}
}

// variable marks a stack effect that depends on the operand.
const variable = -1

// opInfo describes one opcode: its mnemonic, operand format and the number
// of stack slots it pops and pushes.
type opInfo struct {
	name   string
	format format
	pop    int8
	push   int8
}

var opTable = [256]opInfo{
	Nop:        {"nop", fmtNone, 0, 0},
	AconstNull: {"aconst_null", fmtNone, 0, 1},
	IconstM1:   {"iconst_m1", fmtNone, 0, 1},
	Iconst0:    {"iconst_0", fmtNone, 0, 1},
	Iconst1:    {"iconst_1", fmtNone, 0, 1},
	Iconst2:    {"iconst_2", fmtNone, 0, 1},
	Iconst3:    {"iconst_3", fmtNone, 0, 1},
	Iconst4:    {"iconst_4", fmtNone, 0, 1},
	Iconst5:    {"iconst_5", fmtNone, 0, 1},
	Dconst0:    {"dconst_0", fmtNone, 0, 2},
	Dconst1:    {"dconst_1", fmtNone, 0, 2},
	Bipush:     {"bipush", fmtByte, 0, 1},
	Sipush:     {"sipush", fmtShort, 0, 1},
	Ldc:        {"ldc", fmtConst, 0, 1},
	LdcW:       {"ldc_w", fmtConstW, 0, 1},
	Ldc2W:      {"ldc2_w", fmtConstW, 0, 2},

	Iload:  {"iload", fmtLocal, 0, 1},
	Dload:  {"dload", fmtLocal, 0, 2},
	Aload:  {"aload", fmtLocal, 0, 1},
	Iload0: {"iload_0", fmtNone, 0, 1},
	Iload1: {"iload_1", fmtNone, 0, 1},
	Iload2: {"iload_2", fmtNone, 0, 1},
	Iload3: {"iload_3", fmtNone, 0, 1},
	Dload0: {"dload_0", fmtNone, 0, 2},
	Dload1: {"dload_1", fmtNone, 0, 2},
	Dload2: {"dload_2", fmtNone, 0, 2},
	Dload3: {"dload_3", fmtNone, 0, 2},
	Aload0: {"aload_0", fmtNone, 0, 1},
	Aload1: {"aload_1", fmtNone, 0, 1},
	Aload2: {"aload_2", fmtNone, 0, 1},
	Aload3: {"aload_3", fmtNone, 0, 1},
	Iaload: {"iaload", fmtNone, 2, 1},
	Daload: {"daload", fmtNone, 2, 2},
	Aaload: {"aaload", fmtNone, 2, 1},
	Baload: {"baload", fmtNone, 2, 1},
	Caload: {"caload", fmtNone, 2, 1},

	Istore:  {"istore", fmtLocal, 1, 0},
	Dstore:  {"dstore", fmtLocal, 2, 0},
	Astore:  {"astore", fmtLocal, 1, 0},
	Istore0: {"istore_0", fmtNone, 1, 0},
	Istore1: {"istore_1", fmtNone, 1, 0},
	Istore2: {"istore_2", fmtNone, 1, 0},
	Istore3: {"istore_3", fmtNone, 1, 0},
	Dstore0: {"dstore_0", fmtNone, 2, 0},
	Dstore1: {"dstore_1", fmtNone, 2, 0},
	Dstore2: {"dstore_2", fmtNone, 2, 0},
	Dstore3: {"dstore_3", fmtNone, 2, 0},
	Astore0: {"astore_0", fmtNone, 1, 0},
	Astore1: {"astore_1", fmtNone, 1, 0},
	Astore2: {"astore_2", fmtNone, 1, 0},
	Astore3: {"astore_3", fmtNone, 1, 0},
	Iastore: {"iastore", fmtNone, 3, 0},
	Dastore: {"dastore", fmtNone, 4, 0},
	Aastore: {"aastore", fmtNone, 3, 0},
	Bastore: {"bastore", fmtNone, 3, 0},
	Castore: {"castore", fmtNone, 3, 0},

	Pop:    {"pop", fmtNone, 1, 0},
	Pop2:   {"pop2", fmtNone, 2, 0},
	Dup:    {"dup", fmtNone, 1, 2},
	DupX1:  {"dup_x1", fmtNone, 2, 3},
	DupX2:  {"dup_x2", fmtNone, 3, 4},
	Dup2:   {"dup2", fmtNone, 2, 4},
	Dup2X1: {"dup2_x1", fmtNone, 3, 5},
	Dup2X2: {"dup2_x2", fmtNone, 4, 6},
	Swap:   {"swap", fmtNone, 2, 2},

	Iadd: {"iadd", fmtNone, 2, 1},
	Dadd: {"dadd", fmtNone, 4, 2},
	Isub: {"isub", fmtNone, 2, 1},
	Dsub: {"dsub", fmtNone, 4, 2},
	Imul: {"imul", fmtNone, 2, 1},
	Dmul: {"dmul", fmtNone, 4, 2},
	Idiv: {"idiv", fmtNone, 2, 1},
	Ddiv: {"ddiv", fmtNone, 4, 2},
	Irem: {"irem", fmtNone, 2, 1},
	Drem: {"drem", fmtNone, 4, 2},
	Ineg: {"ineg", fmtNone, 1, 1},
	Dneg: {"dneg", fmtNone, 2, 2},
	Iinc: {"iinc", fmtIinc, 0, 0},

	I2d: {"i2d", fmtNone, 1, 2},
	D2i: {"d2i", fmtNone, 2, 1},
	I2c: {"i2c", fmtNone, 1, 1},

	Dcmpl:    {"dcmpl", fmtNone, 4, 1},
	Dcmpg:    {"dcmpg", fmtNone, 4, 1},
	Ifeq:     {"ifeq", fmtBranch, 1, 0},
	Ifne:     {"ifne", fmtBranch, 1, 0},
	Iflt:     {"iflt", fmtBranch, 1, 0},
	Ifge:     {"ifge", fmtBranch, 1, 0},
	Ifgt:     {"ifgt", fmtBranch, 1, 0},
	Ifle:     {"ifle", fmtBranch, 1, 0},
	IfIcmpeq: {"if_icmpeq", fmtBranch, 2, 0},
	IfIcmpne: {"if_icmpne", fmtBranch, 2, 0},
	IfIcmplt: {"if_icmplt", fmtBranch, 2, 0},
	IfIcmpge: {"if_icmpge", fmtBranch, 2, 0},
	IfIcmpgt: {"if_icmpgt", fmtBranch, 2, 0},
	IfIcmple: {"if_icmple", fmtBranch, 2, 0},
	IfAcmpeq: {"if_acmpeq", fmtBranch, 2, 0},
	IfAcmpne: {"if_acmpne", fmtBranch, 2, 0},
	Goto:     {"goto", fmtBranch, 0, 0},

	Ireturn: {"ireturn", fmtNone, 1, 0},
	Dreturn: {"dreturn", fmtNone, 2, 0},
	Areturn: {"areturn", fmtNone, 1, 0},
	Return:  {"return", fmtNone, 0, 0},

	Getstatic:     {"getstatic", fmtMember, variable, variable},
	Putstatic:     {"putstatic", fmtMember, variable, variable},
	Getfield:      {"getfield", fmtMember, variable, variable},
	Putfield:      {"putfield", fmtMember, variable, variable},
	Invokevirtual: {"invokevirtual", fmtMember, variable, variable},
	Invokespecial: {"invokespecial", fmtMember, variable, variable},
	Invokestatic:  {"invokestatic", fmtMember, variable, variable},

	New:            {"new", fmtClass, 0, 1},
	Newarray:       {"newarray", fmtAtype, 1, 1},
	Anewarray:      {"anewarray", fmtClass, 1, 1},
	Arraylength:    {"arraylength", fmtNone, 1, 1},
	Athrow:         {"athrow", fmtNone, 1, 0},
	Checkcast:      {"checkcast", fmtClass, 1, 1},
	Multianewarray: {"multianewarray", fmtMulti, variable, 1},
	Ifnull:         {"ifnull", fmtBranch, 1, 0},
	Ifnonnull:      {"ifnonnull", fmtBranch, 1, 0},
}

// Valid reports whether op is an opcode this package can encode.
func (op Opcode) Valid() bool {
	return op != Mark && opTable[op].name != ""
}

// String returns the JVM mnemonic of the opcode.
func (op Opcode) String() string {
	if op == Mark {
		return "<label>"
	}
	if name := opTable[op].name; name != "" {
		return name
	}
	return fmt.Sprintf("Opcode(0x%02x)", uint8(op))
}

// IsBranch reports whether the opcode takes a branch offset.
func (op Opcode) IsBranch() bool {
	return opTable[op].format == fmtBranch
}

// IsReturn reports whether the opcode leaves the method.
func (op Opcode) IsReturn() bool {
	switch op {
	case Ireturn, Dreturn, Areturn, Return, Athrow:
		return true
	}
	return false
}

// endsBlock reports whether control never falls through to the next
// instruction.
func (op Opcode) endsBlock() bool {
	return op == Goto || op.IsReturn()
}

// ArrayTypeName returns the Jasmin name of a newarray type code.
func ArrayTypeName(code int) string {
	switch code {
	case TBoolean:
		return "boolean"
	case TChar:
		return "char"
	case TDouble:
		return "double"
	case TInt:
		return "int"
	default:
		return fmt.Sprintf("atype(%d)", code)
	}
}
