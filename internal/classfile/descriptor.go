package classfile

import (
	"fmt"
	"strings"

	"github.com/coregx/coregex"
)

// Descriptor grammar (JVMS 4.3), restricted to what a class file may name.
const (
	binaryNamePattern = `[^;\[./()]+(?:/[^;\[./()]+)*`
	fieldTypePattern  = `\[*(?:[BCDFIJSZ]|L` + binaryNamePattern + `;)`
)

var (
	binaryNameRe = mustCompile(`^` + binaryNamePattern + `$`)
	fieldDescRe  = mustCompile(`^` + fieldTypePattern + `$`)
	methodDescRe = mustCompile(`^\((?:` + fieldTypePattern + `)*\)(?:V|` + fieldTypePattern + `)$`)
	paramRe      = mustCompile(fieldTypePattern)
	identifierRe = mustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
)

func mustCompile(pattern string) *coregex.Regexp {
	re, err := coregex.Compile(pattern)
	if err != nil {
		panic(fmt.Sprintf("classfile: bad descriptor pattern %q: %v", pattern, err))
	}
	return re
}

// ValidBinaryName reports whether s is a binary class name such as
// "java/lang/String".
func ValidBinaryName(s string) bool {
	return binaryNameRe.MatchString(s)
}

// ValidIdentifier reports whether s is an ASCII Java identifier, the form
// a top-level class name must have to be loadable by its simple name.
func ValidIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// ValidFieldDescriptor reports whether s is a field descriptor such as
// "I", "[D" or "Ljava/lang/String;".
func ValidFieldDescriptor(s string) bool {
	return fieldDescRe.MatchString(s)
}

// ValidMethodDescriptor reports whether s is a method descriptor such as
// "(ID)Ljava/lang/String;".
func ValidMethodDescriptor(s string) bool {
	return methodDescRe.MatchString(s)
}

// ValidClassRef reports whether s may name a class in a class constant:
// a binary name, or an array descriptor.
func ValidClassRef(s string) bool {
	if len(s) > 0 && s[0] == '[' {
		return ValidFieldDescriptor(s)
	}
	return ValidBinaryName(s)
}

// ParseMethodDescriptor splits a method descriptor into its parameter
// descriptors and its return descriptor.
func ParseMethodDescriptor(desc string) (params []string, result string, err error) {
	if !ValidMethodDescriptor(desc) {
		return nil, "", fmt.Errorf("malformed method descriptor %q", desc)
	}
	end := strings.IndexByte(desc, ')')
	for _, loc := range paramRe.FindAllStringIndex(desc[1:end], -1) {
		params = append(params, desc[1+loc[0]:1+loc[1]])
	}
	return params, desc[end+1:], nil
}

// SlotSize returns the number of stack or local slots a value with the
// given field descriptor occupies. "V" is zero.
func SlotSize(desc string) int {
	switch desc {
	case "V":
		return 0
	case "D", "J":
		return 2
	default:
		return 1
	}
}

// ArgSlots returns the total slot size of the parameters of a method
// descriptor, not counting the receiver.
func ArgSlots(desc string) (int, error) {
	params, _, err := ParseMethodDescriptor(desc)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range params {
		n += SlotSize(p)
	}
	return n, nil
}
