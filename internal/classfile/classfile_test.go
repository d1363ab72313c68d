package classfile

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

const (
	mainDesc    = "([Ljava/lang/String;)V"
	printStream = "java/io/PrintStream"
)

// helloClass builds the class of a program that prints one line.
func helloClass() *Class {
	c := NewClass("Hello")
	c.SourceFile = "hello.cin"
	m := c.AddMethod(AccPublic|AccStatic, "main", mainDesc)
	m.MaxLocals = 1
	m.Code.EmitMember(Getstatic, "java/lang/System", "out", "L"+printStream+";")
	m.Code.EmitConst("hi")
	m.Code.EmitMember(Invokevirtual, printStream, "println", "(Ljava/lang/String;)V")
	m.Code.Emit(Return)
	return c
}

// mixedClass exercises every operand format the writer supports.
func mixedClass() *Class {
	c := NewClass("Mixed")
	c.SourceFile = "mixed.cin"
	c.AddField(AccPublic|AccStatic, "scanner", "Ljava/util/Scanner;")
	c.AddField(AccPublic, "count", "I")

	// static int loop() { int i = 0; while (i < 10) i++; return i; }
	loop := c.AddMethod(AccPublic|AccStatic, "loop", "()I")
	loop.MaxLocals = 1
	code := loop.Code
	top, done := code.NewLabel(), code.NewLabel()
	code.Emit(Iconst0)
	code.Emit(Istore0)
	code.Mark(top)
	code.Emit(Iload0)
	code.EmitArg(Bipush, 10)
	code.EmitJump(IfIcmpge, done)
	code.EmitIinc(0, 1)
	code.EmitJump(Goto, top)
	code.Mark(done)
	code.Emit(Iload0)
	code.Emit(Ireturn)

	half := c.AddMethod(AccPublic|AccStatic, "half", "()D")
	half.Code.EmitConst(2.5)
	half.Code.Emit(Dconst1)
	half.Code.Emit(Dadd)
	half.Code.Emit(Dreturn)

	grid := c.AddMethod(AccPublic|AccStatic, "grid", "()[[I")
	grid.Code.Emit(Iconst2)
	grid.Code.EmitArg(Sipush, 300)
	grid.Code.EmitMultiNewArray("[[I", 2)
	grid.Code.Emit(Areturn)

	length := c.AddMethod(AccPublic|AccStatic, "length", "()I")
	length.Code.Emit(Iconst3)
	length.Code.EmitArg(Newarray, TChar)
	length.Code.Emit(Arraylength)
	length.Code.Emit(Ireturn)

	names := c.AddMethod(AccPublic|AccStatic, "names", "()[Ljava/lang/String;")
	names.Code.Emit(Iconst1)
	names.Code.EmitClass(Anewarray, "java/lang/String")
	names.Code.Emit(Areturn)

	ctor := c.AddMethod(AccPublic, "<init>", "()V")
	ctor.MaxLocals = 1
	ctor.Code.Emit(Aload0)
	ctor.Code.EmitMember(Invokespecial, ObjectClass, "<init>", "()V")
	ctor.Code.Emit(Aload0)
	ctor.Code.EmitConst(int32(-70000))
	ctor.Code.EmitMember(Putfield, "Mixed", "count", "I")
	ctor.Code.Emit(Return)
	return c
}

func mustBytes(t *testing.T, c *Class) []byte {
	t.Helper()
	b, err := c.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	return b
}

func mustListing(t *testing.T, c *Class) string {
	t.Helper()
	s, err := c.Listing()
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}
	return s
}

func expectClassError(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got none", want)
	}
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if !strings.Contains(ce.Message, want) {
		t.Errorf("error = %q, want it to contain %q", ce.Message, want)
	}
}

func TestHeader(t *testing.T) {
	b := mustBytes(t, helloClass())
	if !bytes.Equal(b[:4], []byte{0xCA, 0xFE, 0xBA, 0xBE}) {
		t.Errorf("magic = % x", b[:4])
	}
	if minor, major := int(b[4])<<8|int(b[5]), int(b[6])<<8|int(b[7]); minor != 0 || major != 49 {
		t.Errorf("version = %d.%d, want 49.0", major, minor)
	}
}

func TestListing(t *testing.T) {
	want := `.source hello.cin
.class public Hello
.super java/lang/Object

.method public static main([Ljava/lang/String;)V
    .limit stack 2
    .limit locals 1
    getstatic java/lang/System/out Ljava/io/PrintStream;
    ldc "hi"
    invokevirtual java/io/PrintStream/println(Ljava/lang/String;)V
    return
.end method
`
	if got := mustListing(t, helloClass()); got != want {
		t.Errorf("listing mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestListingOperands(t *testing.T) {
	got := mustListing(t, mixedClass())
	for _, want := range []string{
		".field public static scanner Ljava/util/Scanner;",
		".field public count I",
		"  L0:\n    iload_0\n    bipush 10\n    if_icmpge L1\n    iinc 0 1\n    goto L0\n  L1:\n",
		"ldc2_w 2.5",
		"multianewarray [[I 2",
		"sipush 300",
		"newarray char",
		"anewarray java/lang/String",
		"invokespecial java/lang/Object/<init>()V",
		"ldc -70000",
		"putfield Mixed/count I",
		".method public <init>()V",
		".limit stack 4", // half: two doubles
	} {
		if !strings.Contains(got, want) {
			t.Errorf("listing lacks %q\n%s", want, got)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, c := range []*Class{helloClass(), mixedClass(), manyConstants(300)} {
		t.Run(c.Name, func(t *testing.T) {
			b := mustBytes(t, c)
			back, err := Read(b)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if got, want := mustListing(t, back), mustListing(t, c); got != want {
				t.Errorf("listing of decoded class differs\n got:\n%s\nwant:\n%s", got, want)
			}
			if again := mustBytes(t, back); !bytes.Equal(again, b) {
				t.Error("re-encoding a decoded class changed its bytes")
			}
			if back.SourceFile != c.SourceFile {
				t.Errorf("SourceFile = %q, want %q", back.SourceFile, c.SourceFile)
			}
			for i, m := range back.Methods {
				if m.MaxStack != c.Methods[i].MaxStack || m.MaxLocals != c.Methods[i].MaxLocals {
					t.Errorf("%s limits = %d/%d, want %d/%d", m.Name,
						m.MaxStack, m.MaxLocals, c.Methods[i].MaxStack, c.Methods[i].MaxLocals)
				}
			}
		})
	}
}

func TestDeterministic(t *testing.T) {
	a := mustBytes(t, mixedClass())
	b := mustBytes(t, mixedClass())
	if !bytes.Equal(a, b) {
		t.Error("encoding the same class twice gave different bytes")
	}
}

// manyConstants loads and drops n distinct strings, pushing late ones past
// the reach of ldc.
func manyConstants(n int) *Class {
	c := NewClass("Many")
	m := c.AddMethod(AccPublic|AccStatic, "main", mainDesc)
	m.MaxLocals = 1
	for i := range n {
		m.Code.EmitConst(fmt.Sprintf("s%d", i))
		m.Code.Emit(Pop)
	}
	m.Code.Emit(Return)
	return c
}

func TestLdcWidening(t *testing.T) {
	got := mustListing(t, manyConstants(300))
	if !strings.Contains(got, "    ldc \"s0\"\n") {
		t.Error("early constant should use ldc")
	}
	if !strings.Contains(got, "    ldc_w \"s299\"\n") {
		t.Error("late constant should use ldc_w")
	}
}

func TestBranchOutOfRange(t *testing.T) {
	c := NewClass("Far")
	m := c.AddMethod(AccPublic|AccStatic, "main", mainDesc)
	m.MaxLocals = 1
	end := m.Code.NewLabel()
	m.Code.EmitJump(Goto, end)
	for range 17000 {
		m.Code.Emit(Iconst0)
		m.Code.Emit(Pop)
	}
	m.Code.Mark(end)
	m.Code.Emit(Return)

	_, err := c.Bytes()
	expectClassError(t, err, "out of range")
}

func TestStackErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Code)
		want  string
	}{
		{"empty", func(*Code) {}, "no instructions"},
		{"underflow", func(c *Code) {
			c.Emit(Pop)
			c.Emit(Return)
		}, "stack underflow"},
		{"falls off end", func(c *Code) {
			c.Emit(Iconst0)
			c.Emit(Pop)
		}, "falls off the end"},
		{"inconsistent depth", func(c *Code) {
			l := c.NewLabel()
			c.Emit(Iconst0)
			c.EmitJump(Ifeq, l)
			c.Emit(Iconst1)
			c.Mark(l)
			c.Emit(Return)
		}, "inconsistent stack depth"},
		{"unplaced label", func(c *Code) {
			c.EmitJump(Goto, c.NewLabel())
		}, "unplaced label"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClass("Bad")
			m := c.AddMethod(AccPublic|AccStatic, "main", mainDesc)
			m.MaxLocals = 1
			tt.build(m.Code)
			_, err := c.Bytes()
			expectClassError(t, err, tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		ins  Instruction
		want string
	}{
		{"local beyond max", Instruction{Op: Iload, Arg: 3}, "beyond max_locals"},
		{"bipush range", Instruction{Op: Bipush, Arg: 200}, "out of range"},
		{"ldc2_w string", Instruction{Op: Ldc2W, Const: "x"}, "needs a double"},
		{"ldc double", Instruction{Op: Ldc, Const: 1.5}, "cannot load a double"},
		{"ldc int", Instruction{Op: Ldc, Const: 7}, "unsupported constant"},
		{"bad descriptor", Instruction{Op: Getstatic, Ref: MemberRef{Owner: "A", Name: "f", Desc: "Q"}}, "malformed field descriptor"},
		{"bad owner", Instruction{Op: Invokestatic, Ref: MemberRef{Owner: "a.b", Name: "f", Desc: "()V"}}, "invalid member reference"},
		{"bad atype", Instruction{Op: Newarray, Arg: 3}, "invalid newarray type"},
		{"multi dims", Instruction{Op: Multianewarray, Class: "[I", Arg: 2}, "at least 2 dimensions"},
		{"mark", Instruction{Op: Mark}, "mark without a label"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClass("Bad")
			m := c.AddMethod(AccPublic|AccStatic, "main", mainDesc)
			m.MaxLocals = 1
			m.Code.Insns = append(m.Code.Insns, tt.ins)
			m.Code.Emit(Return)
			_, err := c.Bytes()
			expectClassError(t, err, tt.want)
		})
	}
}

func TestDuplicateMembers(t *testing.T) {
	tests := []struct {
		name  string
		build func(c *Class)
		want  string
	}{
		{
			name: "field",
			build: func(c *Class) {
				c.AddField(AccPublic|AccStatic, "scanner", "Ljava/util/Scanner;")
				c.AddField(AccPublic|AccStatic, "scanner", "I")
			},
			want: "duplicate field scanner",
		},
		{
			name: "method",
			build: func(c *Class) {
				m := c.AddMethod(AccPublic|AccStatic, "main", mainDesc)
				m.MaxLocals = 1
				m.Code.Emit(Return)
			},
			want: "duplicate method",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := helloClass()
			tt.build(c)
			_, err := c.Bytes()
			expectClassError(t, err, tt.want)
		})
	}

	// Overloads differ in descriptor and stay legal.
	c := helloClass()
	m := c.AddMethod(AccPublic|AccStatic, "main", "()V")
	m.Code.Emit(Return)
	if _, err := c.Bytes(); err != nil {
		t.Errorf("overloaded main: %v", err)
	}
}

func TestMaxStack(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Code)
		want  int
	}{
		{"return only", func(c *Code) { c.Emit(Return) }, 0},
		{"doubles", func(c *Code) {
			c.Emit(Dconst1)
			c.Emit(Dconst1)
			c.Emit(Dadd)
			c.Emit(Pop2)
			c.Emit(Return)
		}, 4},
		{"dup_x2", func(c *Code) {
			c.Emit(Iconst1)
			c.EmitArg(Newarray, TInt)
			c.Emit(Iconst0)
			c.Emit(Iconst5)
			c.Emit(DupX2)
			c.Emit(Iastore)
			c.Emit(Pop)
			c.Emit(Return)
		}, 4},
		{"static call", func(c *Code) {
			c.Emit(Iconst1)
			c.Emit(Dconst0)
			c.EmitMember(Invokestatic, "Main", "f", "(ID)D")
			c.Emit(Pop2)
			c.Emit(Return)
		}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClass("Main")
			m := c.AddMethod(AccPublic|AccStatic, "main", mainDesc)
			m.MaxLocals = 1
			tt.build(m.Code)
			mustBytes(t, c)
			if m.MaxStack != tt.want {
				t.Errorf("MaxStack = %d, want %d", m.MaxStack, tt.want)
			}
		})
	}
}

func TestDescriptors(t *testing.T) {
	fields := map[string]bool{
		"I":                   true,
		"[D":                  true,
		"[[Z":                 true,
		"Ljava/lang/String;":  true,
		"[LPoint;":            true,
		"V":                   false,
		"L;":                  false,
		"Ljava.lang.String;":  false,
		"Ljava/lang/String":   false,
		"II":                  false,
		"":                    false,
		"[":                   false,
		"Ljava//lang/String;": false,
	}
	for desc, want := range fields {
		if got := ValidFieldDescriptor(desc); got != want {
			t.Errorf("ValidFieldDescriptor(%q) = %v, want %v", desc, got, want)
		}
	}

	methods := map[string]bool{
		"()V":                      true,
		"([Ljava/lang/String;)V":   true,
		"(ID[[CLPoint;)LPoint;":    true,
		"()":                       false,
		"(V)V":                     false,
		"I()V":                     false,
		"(I)VV":                    false,
		"(Ljava/lang/String)V":     false,
		"(Ljava/lang/Object;I)[[D": true,
	}
	for desc, want := range methods {
		if got := ValidMethodDescriptor(desc); got != want {
			t.Errorf("ValidMethodDescriptor(%q) = %v, want %v", desc, got, want)
		}
	}

	if !ValidClassRef("[[I") || !ValidClassRef("java/lang/String") || ValidClassRef("[java/lang/String") {
		t.Error("ValidClassRef misclassifies")
	}

	for name, want := range map[string]bool{"Main": true, "_x$1": true, "1Main": false, "a-b": false, "a/b": false, "": false} {
		if got := ValidIdentifier(name); got != want {
			t.Errorf("ValidIdentifier(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestParseMethodDescriptor(t *testing.T) {
	params, result, err := ParseMethodDescriptor("(ID[[CLPoint;Ljava/lang/String;)[I")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"I", "D", "[[C", "LPoint;", "Ljava/lang/String;"}
	if strings.Join(params, ",") != strings.Join(want, ",") {
		t.Errorf("params = %v, want %v", params, want)
	}
	if result != "[I" {
		t.Errorf("result = %q, want [I", result)
	}
	if n, _ := ArgSlots("(ID[[CLPoint;Ljava/lang/String;)[I"); n != 6 {
		t.Errorf("ArgSlots = %d, want 6", n)
	}
	if _, _, err := ParseMethodDescriptor("(I"); err == nil {
		t.Error("expected error for malformed descriptor")
	}
}

func TestModifiedUTF8(t *testing.T) {
	for _, s := range []string{"", "abc", "a\x00b", "é", "€uro", "😀", "line\nbreak"} {
		enc := encodeModifiedUTF8(s)
		if bytes.IndexByte(enc, 0) >= 0 {
			t.Errorf("%q: encoding contains a NUL byte", s)
		}
		dec, err := decodeModifiedUTF8(enc)
		if err != nil {
			t.Errorf("%q: %v", s, err)
			continue
		}
		if dec != s {
			t.Errorf("round trip of %q gave %q", s, dec)
		}
	}
	if got := encodeModifiedUTF8("\x00"); !bytes.Equal(got, []byte{0xc0, 0x80}) {
		t.Errorf("NUL encodes as % x", got)
	}
	if got := encodeModifiedUTF8("😀"); len(got) != 6 {
		t.Errorf("supplementary character encodes in %d bytes, want 6", len(got))
	}
	if _, err := decodeModifiedUTF8([]byte{0xe0, 0x80}); err == nil {
		t.Error("expected error for truncated sequence")
	}
}

func TestQuoting(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"plain", `"plain"`},
		{"a\"b\\c\n\t", `"a\"b\\c\n\t"`},
		{"\x01", `"\u0001"`},
		{int32(-5), "-5"},
		{2.0, "2.0"},
		{0.1, "0.1"},
		{1e21, "1e+21"},
	}
	for _, tt := range tests {
		if got := constString(tt.in); got != tt.want {
			t.Errorf("constString(%#v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestReadErrors(t *testing.T) {
	good := mustBytes(t, helloClass())
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"empty", nil, "truncated"},
		{"bad magic", []byte{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 49}, "bad magic"},
		{"truncated", good[:len(good)-3], "truncated"},
		{"trailing", append(append([]byte{}, good...), 0), "trailing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.data)
			expectClassError(t, err, tt.want)
		})
	}
}

func TestLabels(t *testing.T) {
	c := NewClass("Labels")
	m := c.AddMethod(AccPublic|AccStatic, "main", mainDesc)
	m.MaxLocals = 1
	unused, a, b := m.Code.NewLabel(), m.Code.NewLabel(), m.Code.NewLabel()
	m.Code.Mark(unused)
	m.Code.Emit(Iconst0)
	m.Code.EmitJump(Ifne, b)
	m.Code.Mark(a)
	m.Code.Mark(b) // same position as a
	m.Code.Emit(Return)
	if m.Code.NumLabels() != 3 || m.Code.Len() != 3 {
		t.Errorf("NumLabels = %d, Len = %d", m.Code.NumLabels(), m.Code.Len())
	}
	if last, ok := m.Code.Last(); !ok || last.Op != Return {
		t.Errorf("Last = %v", last.Op)
	}

	got := mustListing(t, c)
	if strings.Count(got, ":\n") != 1 || !strings.Contains(got, "ifne L0\n  L0:\n    return") {
		t.Errorf("only the targeted position should be labelled:\n%s", got)
	}
}

func FuzzRead(f *testing.F) {
	for _, c := range []*Class{helloClass(), mixedClass()} {
		b, err := c.Bytes()
		if err != nil {
			f.Fatal(err)
		}
		f.Add(b)
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		c, err := Read(data)
		if err != nil {
			return
		}
		// A decoded class either lists or reports why it cannot.
		_, _ = c.Listing()
	})
}
