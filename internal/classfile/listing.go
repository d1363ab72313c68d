package classfile

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Listing renders the class as Jasmin-style assembly. The listing is made
// from the encoded form: it shows ldc_w where the pool forced it, the
// computed stack limit, and only labels that some branch targets, named
// L0, L1, ... in code order. A class read back with Read lists the same.
func (c *Class) Listing() (string, error) {
	a, err := c.assemble()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if c.SourceFile != "" {
		fmt.Fprintf(&sb, ".source %s\n", c.SourceFile)
	}
	fmt.Fprintf(&sb, ".class %s%s\n", accessString(c.Access&^AccSuper), c.Name)
	fmt.Fprintf(&sb, ".super %s\n", c.Super)

	if len(c.Fields) > 0 {
		sb.WriteByte('\n')
	}
	for _, f := range c.Fields {
		fmt.Fprintf(&sb, ".field %s%s %s\n", accessString(f.Access), f.Name, f.Desc)
	}
	for i, m := range c.Methods {
		sb.WriteByte('\n')
		writeMethod(&sb, m, a.methods[i])
	}
	return sb.String(), nil
}

func writeMethod(sb *strings.Builder, m *Method, am assembledMethod) {
	fmt.Fprintf(sb, ".method %s%s%s\n", accessString(m.Access), m.Name, m.Desc)
	fmt.Fprintf(sb, "    .limit stack %d\n", am.maxStack)
	fmt.Fprintf(sb, "    .limit locals %d\n", m.MaxLocals)

	insns := m.Code.Insns
	markOffset := make(map[Label]int)
	for i, ins := range insns {
		if ins.Op == Mark {
			markOffset[ins.Label] = am.offsets[i]
		}
	}
	// Distinct targeted offsets, numbered in code order.
	seen := make(map[int]bool)
	var targets []int
	for _, ins := range insns {
		if ins.Op != Mark && ins.Op.IsBranch() {
			off := markOffset[ins.Label]
			if !seen[off] {
				seen[off] = true
				targets = append(targets, off)
			}
		}
	}
	sort.Ints(targets)
	names := make(map[int]string, len(targets))
	for i, off := range targets {
		names[off] = "L" + strconv.Itoa(i)
	}

	printed := make(map[int]bool)
	for i, ins := range insns {
		op := am.ops[i]
		if op == Mark {
			continue
		}
		off := am.offsets[i]
		if name, ok := names[off]; ok && !printed[off] {
			printed[off] = true
			fmt.Fprintf(sb, "  %s:\n", name)
		}
		sb.WriteString("    ")
		sb.WriteString(op.String())
		if operand := operandString(op, ins, names, markOffset); operand != "" {
			sb.WriteByte(' ')
			sb.WriteString(operand)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(".end method\n")
}

func operandString(op Opcode, ins Instruction, names map[int]string, markOffset map[Label]int) string {
	switch opTable[op].format {
	case fmtByte, fmtShort, fmtLocal:
		return strconv.Itoa(ins.Arg)
	case fmtConst, fmtConstW:
		return constString(ins.Const)
	case fmtMember:
		if strings.HasPrefix(ins.Ref.Desc, "(") {
			return ins.Ref.Owner + "/" + ins.Ref.Name + ins.Ref.Desc
		}
		return ins.Ref.Owner + "/" + ins.Ref.Name + " " + ins.Ref.Desc
	case fmtClass:
		return ins.Class
	case fmtMulti:
		return ins.Class + " " + strconv.Itoa(ins.Arg)
	case fmtIinc:
		return strconv.Itoa(ins.Arg) + " " + strconv.Itoa(ins.Inc)
	case fmtAtype:
		return ArrayTypeName(ins.Arg)
	case fmtBranch:
		return names[markOffset[ins.Label]]
	}
	return ""
}

func constString(v any) string {
	switch v := v.(type) {
	case int32:
		return strconv.Itoa(int(v))
	case float64:
		return doubleString(v)
	case string:
		return quoteJava(v)
	}
	return fmt.Sprint(v)
}

// doubleString formats a double so it always reads as one: it carries a
// decimal point or an exponent.
func doubleString(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// quoteJava quotes s as a Java string literal.
func quoteJava(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func accessString(access uint16) string {
	var sb strings.Builder
	for _, f := range []struct {
		flag uint16
		name string
	}{
		{AccPublic, "public"},
		{AccPrivate, "private"},
		{AccStatic, "static"},
		{AccFinal, "final"},
	} {
		if access&f.flag != 0 {
			sb.WriteString(f.name)
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
