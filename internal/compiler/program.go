package compiler

import (
	"fmt"
	"strings"

	"github.com/kolkov/cinema/internal/classfile"
)

// Program represents a compiled AbsoluteCinema program: the program class
// followed by one class per setup.
type Program struct {
	// Mode is the generation mode the classes were produced in.
	Mode Mode

	// Classes holds the program class first, then setup classes in
	// declaration order.
	Classes []*classfile.Class
}

// Main returns the program class, which holds main, capture and the scenes.
func (p *Program) Main() *classfile.Class {
	return p.Classes[0]
}

// Class returns the class with the given binary name, or nil.
func (p *Program) Class(name string) *classfile.Class {
	for _, c := range p.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Files returns the encoded class files keyed by file name (Name.class).
func (p *Program) Files() (map[string][]byte, error) {
	files := make(map[string][]byte, len(p.Classes))
	for _, c := range p.Classes {
		b, err := c.Bytes()
		if err != nil {
			return nil, err
		}
		files[c.Name+".class"] = b
	}
	return files, nil
}

// Listing returns the assembly listing of every class, separated by a
// blank line. It describes exactly the bytes Files produces.
func (p *Program) Listing() (string, error) {
	var sb strings.Builder
	for i, c := range p.Classes {
		text, err := c.Listing()
		if err != nil {
			return "", fmt.Errorf("listing %s: %w", c.Name, err)
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
