package classfile

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"
	"unicode/utf8"
)

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
)

// maxPoolSize is the largest constant_pool_count a class file can hold.
const maxPoolSize = math.MaxUint16

// poolEntry is one constant. Entries are comparable so the pool can
// deduplicate them through a map.
type poolEntry struct {
	tag uint8
	str string // Utf8
	num uint64 // Integer (low 32 bits) or Double bits
	a   uint16 // Class/String: name index; refs: class index; NameAndType: name index
	b   uint16 // refs: NameAndType index; NameAndType: descriptor index
}

// pool accumulates constants in first-use order.
type pool struct {
	entries []poolEntry // index 0 is unused; a Double's second slot is a zero entry
	index   map[poolEntry]uint16
}

func newPool() *pool {
	return &pool{
		entries: make([]poolEntry, 1),
		index:   make(map[poolEntry]uint16),
	}
}

func (p *pool) add(e poolEntry) uint16 {
	if idx, ok := p.index[e]; ok {
		return idx
	}
	width := 1
	if e.tag == tagDouble || e.tag == tagLong {
		width = 2
	}
	if len(p.entries)+width > maxPoolSize {
		panic(fmt.Errorf("constant pool overflow: more than %d entries", maxPoolSize-1))
	}
	idx := uint16(len(p.entries))
	p.entries = append(p.entries, e)
	if width == 2 {
		p.entries = append(p.entries, poolEntry{})
	}
	p.index[e] = idx
	return idx
}

func (p *pool) utf8(s string) uint16 {
	if n := len(encodeModifiedUTF8(s)); n > math.MaxUint16 {
		panic(fmt.Errorf("string constant too long: %d bytes", n))
	}
	return p.add(poolEntry{tag: tagUtf8, str: s})
}

func (p *pool) class(name string) uint16 {
	return p.add(poolEntry{tag: tagClass, a: p.utf8(name)})
}

func (p *pool) string(s string) uint16 {
	return p.add(poolEntry{tag: tagString, a: p.utf8(s)})
}

func (p *pool) integer(v int32) uint16 {
	return p.add(poolEntry{tag: tagInteger, num: uint64(uint32(v))})
}

func (p *pool) double(v float64) uint16 {
	return p.add(poolEntry{tag: tagDouble, num: math.Float64bits(v)})
}

func (p *pool) nameAndType(name, desc string) uint16 {
	return p.add(poolEntry{tag: tagNameAndType, a: p.utf8(name), b: p.utf8(desc)})
}

func (p *pool) member(op Opcode, ref MemberRef) uint16 {
	tag := uint8(tagMethodref)
	switch op {
	case Getstatic, Putstatic, Getfield, Putfield:
		tag = tagFieldref
	}
	owner := p.class(ref.Owner)
	nat := p.nameAndType(ref.Name, ref.Desc)
	return p.add(poolEntry{tag: tag, a: owner, b: nat})
}

// constant adds an ldc operand.
func (p *pool) constant(v any) uint16 {
	switch v := v.(type) {
	case int32:
		return p.integer(v)
	case float64:
		return p.double(v)
	case string:
		return p.string(v)
	default:
		panic(fmt.Errorf("unsupported constant %T", v))
	}
}

// count returns constant_pool_count.
func (p *pool) count() int {
	return len(p.entries)
}

// write appends the encoded entries, without the count.
func (p *pool) write(b []byte) []byte {
	for i := 1; i < len(p.entries); i++ {
		e := p.entries[i]
		b = append(b, e.tag)
		switch e.tag {
		case tagUtf8:
			enc := encodeModifiedUTF8(e.str)
			b = binary.BigEndian.AppendUint16(b, uint16(len(enc)))
			b = append(b, enc...)
		case tagInteger:
			b = binary.BigEndian.AppendUint32(b, uint32(e.num))
		case tagDouble:
			b = binary.BigEndian.AppendUint64(b, e.num)
			i++ // second slot
		case tagClass, tagString:
			b = binary.BigEndian.AppendUint16(b, e.a)
		case tagFieldref, tagMethodref, tagNameAndType:
			b = binary.BigEndian.AppendUint16(b, e.a)
			b = binary.BigEndian.AppendUint16(b, e.b)
		}
	}
	return b
}

// encodeModifiedUTF8 encodes s the way class files store strings: NUL as
// two bytes and supplementary characters as surrogate pairs.
func encodeModifiedUTF8(s string) []byte {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r == 0:
			b = append(b, 0xc0, 0x80)
		case r < 0x80:
			b = append(b, byte(r))
		case r < 0x10000:
			b = appendUTF8Unit(b, uint16(r))
		default:
			hi, lo := utf16.EncodeRune(r)
			b = appendUTF8Unit(b, uint16(hi))
			b = appendUTF8Unit(b, uint16(lo))
		}
	}
	return b
}

// appendUTF8Unit encodes one UTF-16 code unit (never 0 or ASCII here) in
// two or three bytes.
func appendUTF8Unit(b []byte, u uint16) []byte {
	if u < 0x800 {
		return append(b, 0xc0|byte(u>>6), 0x80|byte(u&0x3f))
	}
	return append(b, 0xe0|byte(u>>12), 0x80|byte((u>>6)&0x3f), 0x80|byte(u&0x3f))
}

// decodeModifiedUTF8 reverses encodeModifiedUTF8.
func decodeModifiedUTF8(b []byte) (string, error) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80 && c != 0:
			units = append(units, uint16(c))
			i++
		case c&0xe0 == 0xc0 && i+1 < len(b) && b[i+1]&0xc0 == 0x80:
			units = append(units, uint16(c&0x1f)<<6|uint16(b[i+1]&0x3f))
			i += 2
		case c&0xf0 == 0xe0 && i+2 < len(b) && b[i+1]&0xc0 == 0x80 && b[i+2]&0xc0 == 0x80:
			units = append(units, uint16(c&0x0f)<<12|uint16(b[i+1]&0x3f)<<6|uint16(b[i+2]&0x3f))
			i += 3
		default:
			return "", fmt.Errorf("malformed modified UTF-8 at byte %d", i)
		}
	}
	runes := utf16.Decode(units)
	out := make([]byte, 0, len(runes))
	for _, r := range runes {
		out = utf8.AppendRune(out, r)
	}
	return string(out), nil
}
