// Package types defines the resolved types of AbsoluteCinema expressions.
package types

import "strings"

// Kind is the base of a resolved type.
type Kind uint8

const (
	Invalid Kind = iota // not yet resolved
	Int                 // int
	Double              // double
	Char                // char
	String              // string
	Bool                // bool
	Scrap               // scrap (void)
	Null                // type of the null literal
	Setup               // user-defined setup, named by Type.Name
)

// String returns the source spelling of the kind.
func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Double:
		return "double"
	case Char:
		return "char"
	case String:
		return "string"
	case Bool:
		return "bool"
	case Scrap:
		return "scrap"
	case Null:
		return "null"
	case Setup:
		return "setup"
	default:
		return "invalid"
	}
}

// Type is a resolved type: a base and an array dimension count.
// Two types are equal iff their base names and dimensions match, so Type
// values compare with ==.
type Type struct {
	Kind Kind
	Name string // setup name, empty for other kinds
	Dims int    // array dimensions, 0 for scalars
}

// Predeclared scalar types.
var (
	IntType    = Type{Kind: Int}
	DoubleType = Type{Kind: Double}
	CharType   = Type{Kind: Char}
	StringType = Type{Kind: String}
	BoolType   = Type{Kind: Bool}
	ScrapType  = Type{Kind: Scrap}
	NullType   = Type{Kind: Null}
)

// SetupType returns the scalar type of the named setup.
func SetupType(name string) Type {
	return Type{Kind: Setup, Name: name}
}

// Primitive returns the type named by a primitive type keyword.
func Primitive(name string) (Type, bool) {
	switch name {
	case "int":
		return IntType, true
	case "double":
		return DoubleType, true
	case "char":
		return CharType, true
	case "string":
		return StringType, true
	case "bool":
		return BoolType, true
	case "scrap":
		return ScrapType, true
	}
	return Type{}, false
}

// ArrayOf returns t with n more dimensions.
func ArrayOf(t Type, n int) Type {
	t.Dims += n
	return t
}

// Elem returns the type produced by indexing t once.
// It panics if t is not an array.
func (t Type) Elem() Type {
	if t.Dims == 0 {
		panic("types: Elem of non-array type " + t.String())
	}
	t.Dims--
	return t
}

// Base returns t without its array dimensions.
func (t Type) Base() Type {
	t.Dims = 0
	return t
}

// IsValid reports whether t has been resolved.
func (t Type) IsValid() bool {
	return t.Kind != Invalid
}

// IsArray reports whether t has at least one dimension.
func (t Type) IsArray() bool {
	return t.Dims > 0
}

// Is reports whether t is the scalar of kind k.
func (t Type) Is(k Kind) bool {
	return t.Kind == k && t.Dims == 0
}

// IsNumeric reports whether t is int or double.
func (t Type) IsNumeric() bool {
	return t.Dims == 0 && (t.Kind == Int || t.Kind == Double)
}

// IsVoid reports whether t is scrap.
func (t Type) IsVoid() bool {
	return t.Is(Scrap)
}

// IsSetup reports whether t is a (non-array) setup instance.
func (t Type) IsSetup() bool {
	return t.Is(Setup)
}

// IsReference reports whether values of t are object references.
func (t Type) IsReference() bool {
	if t.Dims > 0 {
		return true
	}
	switch t.Kind {
	case String, Setup, Null:
		return true
	}
	return false
}

// IsWide reports whether values of t occupy two stack and local slots.
func (t Type) IsWide() bool {
	return t.Is(Double)
}

// Size returns the number of slots a value of t occupies: 0 for scrap,
// 2 for double and 1 otherwise.
func (t Type) Size() int {
	switch {
	case t.IsVoid():
		return 0
	case t.IsWide():
		return 2
	default:
		return 1
	}
}

// AssignableTo reports whether a value of type t may be stored in a
// location of type target. Beyond identity, int widens to double and null
// converts to any reference type.
func (t Type) AssignableTo(target Type) bool {
	if t == target {
		return !t.IsVoid()
	}
	if t.Is(Int) && target.Is(Double) {
		return true
	}
	if t.Is(Null) && target.IsReference() && !target.Is(Null) {
		return true
	}
	return false
}

// Comparable reports whether == and != accept operands of types a and b.
func Comparable(a, b Type) bool {
	if a.IsVoid() || b.IsVoid() {
		return false
	}
	if a == b {
		return true
	}
	if a.IsNumeric() && b.IsNumeric() {
		return true
	}
	return (a.Is(Null) && b.IsReference()) || (b.Is(Null) && a.IsReference())
}

// Arithmetic returns the result type of an arithmetic operator applied to
// numeric operands a and b.
func Arithmetic(a, b Type) Type {
	if a.Is(Double) || b.Is(Double) {
		return DoubleType
	}
	return IntType
}

// String returns the source spelling of t, e.g. "int[][]".
func (t Type) String() string {
	name := t.Kind.String()
	if t.Kind == Setup {
		name = t.Name
	}
	return name + strings.Repeat("[]", t.Dims)
}
