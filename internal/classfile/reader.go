package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
)

// Read decodes a class file. It accepts the subset of the format that
// Bytes produces; anything else (exception handlers, switch or wide
// instructions, long and float constants) is reported as an error.
//
// Branch targets become labels numbered in code order, so
// Read(c.Bytes()) lists exactly like c.
func Read(data []byte) (*Class, error) {
	r := &reader{data: data}
	c, err := r.class()
	if err != nil {
		name := ""
		if c != nil {
			name = c.Name
		}
		return nil, &Error{Class: name, Method: r.method, Message: err.Error()}
	}
	return c, nil
}

var errTruncated = errors.New("truncated class file")

type reader struct {
	data   []byte
	pos    int
	pool   []poolEntry
	method string
}

func (r *reader) u1() (uint8, error) {
	if r.pos+1 > len(r.data) {
		return 0, errTruncated
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) u2() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, errTruncated
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u4() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, errTruncated
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, errTruncated
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// entry returns pool entry idx, checking its tag.
func (r *reader) entry(idx uint16, tags ...uint8) (poolEntry, error) {
	if idx == 0 || int(idx) >= len(r.pool) {
		return poolEntry{}, fmt.Errorf("constant pool index %d out of range", idx)
	}
	e := r.pool[idx]
	for _, t := range tags {
		if e.tag == t {
			return e, nil
		}
	}
	return poolEntry{}, fmt.Errorf("constant pool entry %d has tag %d, want %v", idx, e.tag, tags)
}

func (r *reader) utf8(idx uint16) (string, error) {
	e, err := r.entry(idx, tagUtf8)
	return e.str, err
}

func (r *reader) className(idx uint16) (string, error) {
	e, err := r.entry(idx, tagClass)
	if err != nil {
		return "", err
	}
	return r.utf8(e.a)
}

func (r *reader) memberRef(idx uint16) (MemberRef, error) {
	e, err := r.entry(idx, tagFieldref, tagMethodref, tagInterfaceMethodref)
	if err != nil {
		return MemberRef{}, err
	}
	owner, err := r.className(e.a)
	if err != nil {
		return MemberRef{}, err
	}
	nat, err := r.entry(e.b, tagNameAndType)
	if err != nil {
		return MemberRef{}, err
	}
	name, err := r.utf8(nat.a)
	if err != nil {
		return MemberRef{}, err
	}
	desc, err := r.utf8(nat.b)
	if err != nil {
		return MemberRef{}, err
	}
	return MemberRef{Owner: owner, Name: name, Desc: desc}, nil
}

func (r *reader) constant(idx uint16) (any, error) {
	e, err := r.entry(idx, tagInteger, tagDouble, tagString)
	if err != nil {
		return nil, err
	}
	switch e.tag {
	case tagInteger:
		return int32(uint32(e.num)), nil
	case tagDouble:
		return math.Float64frombits(e.num), nil
	default:
		return r.utf8(e.a)
	}
}

func (r *reader) class() (*Class, error) {
	magic, err := r.u4()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("bad magic 0x%08X", magic)
	}
	if _, err := r.u2(); err != nil { // minor
		return nil, err
	}
	if _, err := r.u2(); err != nil { // major
		return nil, err
	}
	if err := r.readPool(); err != nil {
		return nil, err
	}

	c := &Class{}
	if c.Access, err = r.u2(); err != nil {
		return nil, err
	}
	thisIdx, err := r.u2()
	if err != nil {
		return nil, err
	}
	if c.Name, err = r.className(thisIdx); err != nil {
		return nil, err
	}
	superIdx, err := r.u2()
	if err != nil {
		return c, err
	}
	if c.Super, err = r.className(superIdx); err != nil {
		return c, err
	}
	nInterfaces, err := r.u2()
	if err != nil {
		return c, err
	}
	if _, err := r.bytes(2 * int(nInterfaces)); err != nil {
		return c, err
	}

	nFields, err := r.u2()
	if err != nil {
		return c, err
	}
	for range nFields {
		f := &Field{}
		if f.Access, f.Name, f.Desc, err = r.memberHeader(); err != nil {
			return c, err
		}
		if err := r.skipAttributes(); err != nil {
			return c, err
		}
		c.Fields = append(c.Fields, f)
	}

	nMethods, err := r.u2()
	if err != nil {
		return c, err
	}
	for range nMethods {
		m, err := r.readMethod()
		if err != nil {
			return c, err
		}
		c.Methods = append(c.Methods, m)
	}
	r.method = ""

	nAttrs, err := r.u2()
	if err != nil {
		return c, err
	}
	for range nAttrs {
		name, body, err := r.attribute()
		if err != nil {
			return c, err
		}
		if name == "SourceFile" && len(body) == 2 {
			if c.SourceFile, err = r.utf8(binary.BigEndian.Uint16(body)); err != nil {
				return c, err
			}
		}
	}
	if r.pos != len(r.data) {
		return c, fmt.Errorf("%d trailing bytes", len(r.data)-r.pos)
	}
	return c, nil
}

func (r *reader) readPool() error {
	count, err := r.u2()
	if err != nil {
		return err
	}
	r.pool = make([]poolEntry, count)
	for i := 1; i < int(count); i++ {
		tag, err := r.u1()
		if err != nil {
			return err
		}
		e := poolEntry{tag: tag}
		switch tag {
		case tagUtf8:
			n, err := r.u2()
			if err != nil {
				return err
			}
			raw, err := r.bytes(int(n))
			if err != nil {
				return err
			}
			if e.str, err = decodeModifiedUTF8(raw); err != nil {
				return err
			}
		case tagInteger, tagFloat:
			v, err := r.u4()
			if err != nil {
				return err
			}
			e.num = uint64(v)
		case tagLong, tagDouble:
			hi, err := r.u4()
			if err != nil {
				return err
			}
			lo, err := r.u4()
			if err != nil {
				return err
			}
			e.num = uint64(hi)<<32 | uint64(lo)
		case tagClass, tagString:
			if e.a, err = r.u2(); err != nil {
				return err
			}
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType:
			if e.a, err = r.u2(); err != nil {
				return err
			}
			if e.b, err = r.u2(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported constant pool tag %d at index %d", tag, i)
		}
		r.pool[i] = e
		if tag == tagLong || tag == tagDouble {
			i++
		}
	}
	return nil
}

func (r *reader) memberHeader() (access uint16, name, desc string, err error) {
	if access, err = r.u2(); err != nil {
		return
	}
	nameIdx, err := r.u2()
	if err != nil {
		return
	}
	if name, err = r.utf8(nameIdx); err != nil {
		return
	}
	descIdx, err := r.u2()
	if err != nil {
		return
	}
	desc, err = r.utf8(descIdx)
	return
}

func (r *reader) attribute() (name string, body []byte, err error) {
	nameIdx, err := r.u2()
	if err != nil {
		return "", nil, err
	}
	if name, err = r.utf8(nameIdx); err != nil {
		return "", nil, err
	}
	n, err := r.u4()
	if err != nil {
		return "", nil, err
	}
	body, err = r.bytes(int(n))
	return name, body, err
}

func (r *reader) skipAttributes() error {
	n, err := r.u2()
	if err != nil {
		return err
	}
	for range n {
		if _, _, err := r.attribute(); err != nil {
			return err
		}
	}
	return nil
}

func (r *reader) readMethod() (*Method, error) {
	m := &Method{}
	var err error
	if m.Access, m.Name, m.Desc, err = r.memberHeader(); err != nil {
		return nil, err
	}
	r.method = m.Name + m.Desc
	nAttrs, err := r.u2()
	if err != nil {
		return nil, err
	}
	for range nAttrs {
		name, body, err := r.attribute()
		if err != nil {
			return nil, err
		}
		if name != "Code" {
			continue
		}
		if err := r.decodeCodeAttribute(m, body); err != nil {
			return nil, err
		}
	}
	if m.Code == nil {
		return nil, errors.New("method has no Code attribute")
	}
	return m, nil
}

func (r *reader) decodeCodeAttribute(m *Method, body []byte) error {
	if len(body) < 12 {
		return errTruncated
	}
	m.MaxStack = int(binary.BigEndian.Uint16(body))
	m.MaxLocals = int(binary.BigEndian.Uint16(body[2:]))
	n := int(binary.BigEndian.Uint32(body[4:]))
	if 8+n+4 > len(body) {
		return errTruncated
	}
	if handlers := binary.BigEndian.Uint16(body[8+n:]); handlers != 0 {
		return fmt.Errorf("exception handlers are not supported")
	}
	code, err := r.decodeCode(body[8 : 8+n])
	if err != nil {
		return err
	}
	m.Code = code
	return nil
}

// rawInsn is an instruction decoded at a byte offset, before branch
// targets are turned into labels.
type rawInsn struct {
	offset int
	ins    Instruction
	target int // absolute branch target offset
}

// decodeCode turns bytecode into an instruction list with labels.
func (r *reader) decodeCode(code []byte) (*Code, error) {
	var raws []rawInsn
	targets := make(map[int]bool)
	for pc := 0; pc < len(code); {
		op := Opcode(code[pc])
		if !op.Valid() {
			return nil, fmt.Errorf("unsupported opcode 0x%02x at offset %d", code[pc], pc)
		}
		size := opTable[op].format.size()
		if pc+size > len(code) {
			return nil, errTruncated
		}
		arg := code[pc+1 : pc+size]
		raw := rawInsn{offset: pc, ins: Instruction{Op: op}}
		ins := &raw.ins
		var err error
		switch opTable[op].format {
		case fmtByte:
			ins.Arg = int(int8(arg[0]))
		case fmtShort:
			ins.Arg = int(int16(binary.BigEndian.Uint16(arg)))
		case fmtLocal, fmtAtype:
			ins.Arg = int(arg[0])
		case fmtConst:
			ins.Const, err = r.constant(uint16(arg[0]))
		case fmtConstW:
			ins.Const, err = r.constant(binary.BigEndian.Uint16(arg))
		case fmtMember:
			ins.Ref, err = r.memberRef(binary.BigEndian.Uint16(arg))
		case fmtClass:
			ins.Class, err = r.className(binary.BigEndian.Uint16(arg))
		case fmtMulti:
			ins.Class, err = r.className(binary.BigEndian.Uint16(arg))
			ins.Arg = int(arg[2])
		case fmtIinc:
			ins.Arg = int(arg[0])
			ins.Inc = int(int8(arg[1]))
		case fmtBranch:
			raw.target = pc + int(int16(binary.BigEndian.Uint16(arg)))
			targets[raw.target] = true
		}
		if err != nil {
			return nil, fmt.Errorf("offset %d: %w", pc, err)
		}
		if op == LdcW {
			ins.Op = Ldc
		}
		raws = append(raws, raw)
		pc += size
	}

	// Labels are numbered in code order.
	offsets := make([]int, 0, len(targets))
	for off := range targets {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)
	labels := make(map[int]Label, len(offsets))
	for i, off := range offsets {
		labels[off] = Label(i + 1)
	}

	c := &Code{numLabels: len(offsets)}
	placed := 0
	for _, raw := range raws {
		if l, ok := labels[raw.offset]; ok {
			c.Mark(l)
			placed++
		}
		if raw.ins.Op.IsBranch() {
			raw.ins.Label = labels[raw.target]
		}
		c.Insns = append(c.Insns, raw.ins)
	}
	if placed != len(offsets) {
		return nil, errors.New("branch target is not an instruction boundary")
	}
	return c, nil
}
