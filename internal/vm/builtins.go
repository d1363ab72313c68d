package vm

import (
	"bufio"
	"math"
	"strconv"
	"strings"

	"github.com/kolkov/cinema/internal/classfile"
)

// Library classes the generated code uses. Everything else outside the
// loaded classes is a NoSuchMethodError.
const (
	objectClass        = classfile.ObjectClass
	systemClass        = "java/lang/System"
	printStreamClass   = "java/io/PrintStream"
	scannerClass       = "java/util/Scanner"
	stringBuilderClass = "java/lang/StringBuilder"
	objectsClass       = "java/util/Objects"
)

// printStream is System.out.
type printStream struct {
	w *bufio.Writer
}

func (p *printStream) javaString() string { return "java.io.PrintStream@1" }

// inputStream is System.in.
type inputStream struct{}

func (*inputStream) javaString() string { return "java.io.BufferedInputStream@2" }

// scanner is a java.util.Scanner over System.in.
type scanner struct {
	vm   *VM
	line string
	have bool // line holds a line not yet returned
	done bool // input exhausted
}

func (s *scanner) javaString() string { return "java.util.Scanner" }

func (s *scanner) hasNextLine() bool {
	if s.have {
		return true
	}
	if s.done || s.vm.input == nil {
		return false
	}
	// Output written so far must be visible before blocking on input.
	s.vm.out.w.Flush()
	if !s.vm.input.Scan() {
		s.done = true
		return false
	}
	s.line, s.have = s.vm.input.Text(), true
	return true
}

func (s *scanner) nextLine() string {
	if !s.hasNextLine() {
		throw("java.util.NoSuchElementException", "No line found")
	}
	s.have = false
	return s.line
}

// builder is a java.lang.StringBuilder.
type builder struct {
	sb strings.Builder
}

func (b *builder) javaString() string { return b.sb.String() }

// newNative allocates an instance of a library class for the new
// instruction. The constructor call initializes it.
func (vm *VM) newNative(name string) (Object, bool) {
	switch name {
	case scannerClass:
		return &scanner{vm: vm}, true
	case stringBuilderClass:
		return &builder{}, true
	}
	return nil, false
}

// getNativeStatic reads a static field of a library class.
func (vm *VM) getNativeStatic(ref classfile.MemberRef) (Value, bool) {
	if ref.Owner != systemClass {
		return Value{}, false
	}
	switch ref.Name {
	case "out":
		return Value{Ref: vm.out}, true
	case "in":
		return Value{Ref: vm.in}, true
	}
	return Value{}, false
}

// callNative runs a library method. recv is nil for static methods; args
// are the argument slots as they were on the stack.
func (vm *VM) callNative(ref classfile.MemberRef, recv Object, args []Value) (Value, bool) {
	switch ref.Owner {
	case objectClass:
		if ref.Name == "<init>" && ref.Desc == "()V" {
			return Value{}, true
		}

	case printStreamClass:
		if ref.Name != "println" {
			break
		}
		p := recv.(*printStream)
		desc := paramOf(ref.Desc)
		if desc == "" {
			p.w.WriteByte('\n')
		} else {
			p.w.WriteString(stringValue(args[0], desc))
			p.w.WriteByte('\n')
		}
		return Value{}, true

	case scannerClass:
		s := recv.(*scanner)
		switch ref.Name + ref.Desc {
		case "<init>(Ljava/io/InputStream;)V":
			return Value{}, true
		case "hasNextLine()Z":
			return boolValue(s.hasNextLine()), true
		case "nextLine()Ljava/lang/String;":
			return Value{Ref: &String{S: s.nextLine()}}, true
		}

	case stringBuilderClass:
		b := recv.(*builder)
		switch ref.Name {
		case "<init>":
			if ref.Desc == "()V" {
				return Value{}, true
			}
		case "append":
			b.sb.WriteString(stringValue(args[0], paramOf(ref.Desc)))
			return Value{Ref: b}, true
		case "toString":
			return Value{Ref: &String{S: b.sb.String()}}, true
		}

	case objectsClass:
		if ref.Name == "equals" {
			return boolValue(objectsEqual(args[0].Ref, args[1].Ref)), true
		}
	}
	return Value{}, false
}

// paramOf returns the single parameter descriptor of a method descriptor,
// or "" when it takes none.
func paramOf(desc string) string {
	end := strings.IndexByte(desc, ')')
	return desc[1:end]
}

func boolValue(b bool) Value {
	if b {
		return Value{I: 1}
	}
	return Value{}
}

// objectsEqual implements Objects.equals for the objects the VM creates:
// strings compare by content, everything else by identity.
func objectsEqual(a, b Object) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if sa, ok := a.(*String); ok {
		sb, ok := b.(*String)
		return ok && sa.S == sb.S
	}
	return a == b
}

// formatDouble formats d as Double.toString does: plain decimal notation
// for magnitudes in [1e-3, 1e7), computerized scientific notation
// otherwise, always with at least one fractional digit.
func formatDouble(d float64) string {
	switch {
	case math.IsNaN(d):
		return "NaN"
	case math.IsInf(d, 1):
		return "Infinity"
	case math.IsInf(d, -1):
		return "-Infinity"
	case d == 0:
		if math.Signbit(d) {
			return "-0.0"
		}
		return "0.0"
	}

	if abs := math.Abs(d); abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(d, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	s := strconv.FormatFloat(d, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	n, _ := strconv.Atoi(exp)
	return mant + "E" + strconv.Itoa(n)
}
