package vm

import (
	"strconv"
	"strings"
)

// Value is one operand stack slot, local variable slot, field or array
// element. On the stack and in locals a double takes two slots: the first
// holds D and the second is unused, so the dup and pop families work slot
// by slot as on the JVM. Fields and array elements hold a double in one
// Value.
type Value struct {
	I   int32   // int, char and boolean
	D   float64 // double
	Ref Object  // references; nil is null
}

// Object is a heap value the VM can reference.
type Object interface {
	// javaString is what String.valueOf(Object) yields for the object.
	javaString() string
}

// String is a java.lang.String.
type String struct {
	S string
}

func (s *String) javaString() string { return s.S }

// Instance is an object of a loaded class.
type Instance struct {
	class  *class
	id     int
	fields map[string]Value
}

func (o *Instance) javaString() string {
	return strings.ReplaceAll(o.class.name, "/", ".") + "@" + strconv.FormatInt(int64(o.id), 16)
}

// Field returns the value of an instance field.
func (o *Instance) Field(name string) Value {
	return o.fields[name]
}

// ClassName returns the binary name of the object's class.
func (o *Instance) ClassName() string {
	return o.class.name
}

// Array is a Java array. Desc is its field descriptor, such as "[I".
type Array struct {
	Desc  string
	Elems []Value
	id    int
}

func (a *Array) javaString() string {
	name := a.Desc
	if strings.HasSuffix(name, ";") {
		name = strings.ReplaceAll(name, "/", ".")
	}
	return name + "@" + strconv.FormatInt(int64(a.id), 16)
}

// elem returns the descriptor of the array's elements.
func (a *Array) elem() string {
	return a.Desc[1:]
}

// stringOf converts a reference as String.valueOf does.
func stringOf(o Object) string {
	if o == nil {
		return "null"
	}
	return o.javaString()
}

// stringValue converts a value with the given field descriptor to the
// text String.valueOf and StringBuilder.append produce.
func stringValue(v Value, desc string) string {
	switch desc {
	case "I":
		return strconv.FormatInt(int64(v.I), 10)
	case "D":
		return formatDouble(v.D)
	case "C":
		return string(rune(uint16(v.I)))
	case "Z":
		if v.I != 0 {
			return "true"
		}
		return "false"
	}
	return stringOf(v.Ref)
}
