package compiler

import (
	"strings"

	"github.com/kolkov/cinema/internal/classfile"
	"github.com/kolkov/cinema/internal/semantic"
	"github.com/kolkov/cinema/internal/types"
)

// Runtime classes the generated code calls into.
const (
	stringClass        = "java/lang/String"
	objectClass        = classfile.ObjectClass
	systemClass        = "java/lang/System"
	printStreamClass   = "java/io/PrintStream"
	scannerClass       = "java/util/Scanner"
	stringBuilderClass = "java/lang/StringBuilder"
	objectsClass       = "java/util/Objects"

	scannerField = semantic.ReservedGlobal
	scannerDesc  = "L" + scannerClass + ";"
)

// descriptor returns the field descriptor of t. Setup types map to the
// class of the same name.
func descriptor(t types.Type) string {
	var base string
	switch t.Kind {
	case types.Int:
		base = "I"
	case types.Double:
		base = "D"
	case types.Char:
		base = "C"
	case types.Bool:
		base = "Z"
	case types.String:
		base = "L" + stringClass + ";"
	case types.Scrap:
		base = "V"
	case types.Setup:
		base = "L" + t.Name + ";"
	default:
		base = "L" + objectClass + ";"
	}
	return strings.Repeat("[", t.Dims) + base
}

// methodDescriptor returns the descriptor of a method taking params and
// returning result.
func methodDescriptor(params []types.Type, result types.Type) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range params {
		sb.WriteString(descriptor(p))
	}
	sb.WriteByte(')')
	sb.WriteString(descriptor(result))
	return sb.String()
}

// classRef returns how a reference type is named in a class constant:
// a binary name for objects, a descriptor for arrays.
func classRef(t types.Type) string {
	if t.IsArray() {
		return descriptor(t)
	}
	switch t.Kind {
	case types.String:
		return stringClass
	case types.Setup:
		return t.Name
	}
	return objectClass
}

// family groups types by the instruction variant that moves them.
type family int

const (
	famInt    family = iota // int, char, bool
	famDouble               // double
	famRef                  // string, setup, arrays, null
)

func familyOf(t types.Type) family {
	switch {
	case t.IsReference():
		return famRef
	case t.IsWide():
		return famDouble
	default:
		return famInt
	}
}

var (
	loadOps   = [...]classfile.Opcode{famInt: classfile.Iload, famDouble: classfile.Dload, famRef: classfile.Aload}
	storeOps  = [...]classfile.Opcode{famInt: classfile.Istore, famDouble: classfile.Dstore, famRef: classfile.Astore}
	returnOps = [...]classfile.Opcode{famInt: classfile.Ireturn, famDouble: classfile.Dreturn, famRef: classfile.Areturn}

	// Short forms for slots 0..3.
	loadShort = [...][4]classfile.Opcode{
		famInt:    {classfile.Iload0, classfile.Iload1, classfile.Iload2, classfile.Iload3},
		famDouble: {classfile.Dload0, classfile.Dload1, classfile.Dload2, classfile.Dload3},
		famRef:    {classfile.Aload0, classfile.Aload1, classfile.Aload2, classfile.Aload3},
	}
	storeShort = [...][4]classfile.Opcode{
		famInt:    {classfile.Istore0, classfile.Istore1, classfile.Istore2, classfile.Istore3},
		famDouble: {classfile.Dstore0, classfile.Dstore1, classfile.Dstore2, classfile.Dstore3},
		famRef:    {classfile.Astore0, classfile.Astore1, classfile.Astore2, classfile.Astore3},
	}
)

// arrayLoadOp and arrayStoreOp select the element access for an array
// whose elements have type elem.
func arrayLoadOp(elem types.Type) classfile.Opcode {
	switch {
	case elem.IsReference():
		return classfile.Aaload
	case elem.Is(types.Double):
		return classfile.Daload
	case elem.Is(types.Char):
		return classfile.Caload
	case elem.Is(types.Bool):
		return classfile.Baload
	default:
		return classfile.Iaload
	}
}

func arrayStoreOp(elem types.Type) classfile.Opcode {
	switch {
	case elem.IsReference():
		return classfile.Aastore
	case elem.Is(types.Double):
		return classfile.Dastore
	case elem.Is(types.Char):
		return classfile.Castore
	case elem.Is(types.Bool):
		return classfile.Bastore
	default:
		return classfile.Iastore
	}
}

// newarrayType returns the newarray type code for a primitive element
// type, or false for reference elements.
func newarrayType(elem types.Type) (int, bool) {
	switch {
	case elem.IsArray():
		return 0, false
	case elem.Is(types.Int):
		return classfile.TInt, true
	case elem.Is(types.Double):
		return classfile.TDouble, true
	case elem.Is(types.Char):
		return classfile.TChar, true
	case elem.Is(types.Bool):
		return classfile.TBoolean, true
	}
	return 0, false
}

// printDescriptor picks the println overload for a value of type t.
func printDescriptor(t types.Type) string {
	switch {
	case t.Is(types.Int), t.Is(types.Double), t.Is(types.Char), t.Is(types.Bool), t.Is(types.String):
		return "(" + descriptor(t) + ")V"
	}
	return "(L" + objectClass + ";)V"
}

// appendDescriptor picks the StringBuilder.append overload for t.
func appendDescriptor(t types.Type) string {
	arg := "L" + objectClass + ";"
	switch {
	case t.Is(types.Int), t.Is(types.Double), t.Is(types.Char), t.Is(types.Bool), t.Is(types.String):
		arg = descriptor(t)
	}
	return "(" + arg + ")L" + stringBuilderClass + ";"
}
