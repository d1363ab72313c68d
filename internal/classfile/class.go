package classfile

import "fmt"

// Class file header values.
const (
	Magic        = 0xCAFEBABE
	MajorVersion = 49 // Java 5: the last version without mandatory stack map frames
	MinorVersion = 0
)

// Access flags.
const (
	AccPublic  uint16 = 0x0001
	AccPrivate uint16 = 0x0002
	AccStatic  uint16 = 0x0008
	AccFinal   uint16 = 0x0010
	AccSuper   uint16 = 0x0020
)

// ObjectClass is the default superclass.
const ObjectClass = "java/lang/Object"

// Class is one class file.
type Class struct {
	Name       string // binary name
	Super      string // binary name of the superclass
	Access     uint16
	SourceFile string // emitted as a SourceFile attribute when set
	Fields     []*Field
	Methods    []*Method
}

// Field is a field declaration.
type Field struct {
	Access uint16
	Name   string
	Desc   string
}

// Method is a method with its code.
type Method struct {
	Access    uint16
	Name      string
	Desc      string
	Code      *Code
	MaxLocals int
	MaxStack  int // computed when the class is encoded; read back by Read
}

// NewClass creates a public class extending java/lang/Object.
func NewClass(name string) *Class {
	return &Class{
		Name:   name,
		Super:  ObjectClass,
		Access: AccPublic | AccSuper,
	}
}

// AddField declares a field.
func (c *Class) AddField(access uint16, name, desc string) *Field {
	f := &Field{Access: access, Name: name, Desc: desc}
	c.Fields = append(c.Fields, f)
	return f
}

// AddMethod declares a method with an empty body.
func (c *Class) AddMethod(access uint16, name, desc string) *Method {
	m := &Method{Access: access, Name: name, Desc: desc, Code: &Code{}}
	c.Methods = append(c.Methods, m)
	return m
}

// Field returns the named field, or nil.
func (c *Class) Field(name string) *Field {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Method returns the method with the given name and descriptor, or nil.
func (c *Class) Method(name, desc string) *Method {
	for _, m := range c.Methods {
		if m.Name == name && m.Desc == desc {
			return m
		}
	}
	return nil
}

// IsStatic reports whether the method has no receiver.
func (m *Method) IsStatic() bool {
	return m.Access&AccStatic != 0
}

// Error describes a class that cannot be encoded or decoded.
type Error struct {
	Class   string
	Method  string // "name+desc", empty for class-level problems
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("class %s, method %s: %s", e.Class, e.Method, e.Message)
	}
	if e.Class != "" {
		return fmt.Sprintf("class %s: %s", e.Class, e.Message)
	}
	return e.Message
}
