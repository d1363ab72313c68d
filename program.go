package cinema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kolkov/cinema/internal/ast"
	"github.com/kolkov/cinema/internal/compiler"
	"github.com/kolkov/cinema/internal/vm"
)

// Program represents a compiled AbsoluteCinema program: its encoded class
// files and their assembly listings. It is safe for concurrent use; each
// call to Run creates an independent VM.
type Program struct {
	source   string
	ast      *ast.Program
	compiled *compiler.Program
	classes  []classFile // program class first
}

// classFile is one generated class in both output forms.
type classFile struct {
	name    string
	data    []byte
	listing string
}

// Source returns the original source text.
func (p *Program) Source() string {
	return p.source
}

// Mode returns the generation mode the program was compiled in.
func (p *Program) Mode() Mode {
	return p.compiled.Mode
}

// MainClass returns the binary name of the program class, the one whose
// main method runs the entrance scene.
func (p *Program) MainClass() string {
	return p.classes[0].name
}

// ClassNames returns the binary names of all generated classes, the
// program class first and then setups in declaration order.
func (p *Program) ClassNames() []string {
	names := make([]string, len(p.classes))
	for i, c := range p.classes {
		names[i] = c.name
	}
	return names
}

// ClassFile returns the encoded class file of the named class.
func (p *Program) ClassFile(name string) ([]byte, bool) {
	for _, c := range p.classes {
		if c.name == name {
			return bytes.Clone(c.data), true
		}
	}
	return nil, false
}

// ClassListing returns the assembly listing of the named class.
func (p *Program) ClassListing(name string) (string, bool) {
	for _, c := range p.classes {
		if c.name == name {
			return c.listing, true
		}
	}
	return "", false
}

// Listing returns the assembly listing of every class, separated by a
// blank line. It mirrors the class files instruction for instruction.
func (p *Program) Listing() string {
	var sb strings.Builder
	for i, c := range p.classes {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(c.listing)
	}
	return sb.String()
}

// WriteFiles writes Name.class and Name.j for every class into dir and
// returns the paths written. Every file is first written to a temporary
// name and only renamed into place once all of them were written, so a
// failure leaves no partial artifacts behind.
func (p *Program) WriteFiles(dir string) (paths []string, err error) {
	type pending struct{ tmp, path string }
	var files []pending
	defer func() {
		if err != nil {
			for _, f := range files {
				os.Remove(f.tmp)
			}
		}
	}()

	write := func(name string, data []byte) error {
		f, err := os.CreateTemp(dir, "."+name+".*")
		if err != nil {
			return err
		}
		files = append(files, pending{tmp: f.Name(), path: filepath.Join(dir, name)})
		if _, err := f.Write(data); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	for _, c := range p.classes {
		if err := write(c.name+".class", c.data); err != nil {
			return nil, err
		}
		if err := write(c.name+".j", []byte(c.listing)); err != nil {
			return nil, err
		}
	}
	for _, f := range files {
		if err := os.Chmod(f.tmp, 0o644); err != nil {
			return nil, err
		}
	}
	for i, f := range files {
		if err := os.Rename(f.tmp, f.path); err != nil {
			files = files[i:]
			return nil, err
		}
		paths = append(paths, f.path)
	}
	return paths, nil
}

// Run executes the program with the given standard input. If input is nil,
// capture sees end of input at once.
//
// If config.Output is set, project writes there and the returned string
// is empty; otherwise the output is captured and returned, also when a
// runtime error stops the program.
func (p *Program) Run(input io.Reader, config *Config) (string, error) {
	c := withDefaults(config)
	log := c.Logger.With("class", p.MainClass())

	data := make([][]byte, len(p.classes))
	for i, cf := range p.classes {
		data[i] = cf.data
	}
	machine, err := vm.Load(data...)
	if err != nil {
		return "", convertError(err, c.SourceName)
	}
	if input != nil {
		machine.SetInput(input)
	}
	var buf *bytes.Buffer
	if c.Output == nil {
		buf = &bytes.Buffer{}
		machine.SetOutput(buf)
	} else {
		machine.SetOutput(c.Output)
	}

	log.Debug("running")
	err = machine.Run(p.MainClass())
	out := ""
	if buf != nil {
		out = buf.String()
	}
	if err != nil {
		err = convertError(err, c.SourceName)
		var re *RuntimeError
		if c.Stderr != nil && errors.As(err, &re) {
			reportException(c.Stderr, re)
		}
		log.Debug("run failed", "error", err)
		return out, err
	}
	log.Debug("run finished")
	return out, nil
}

// reportException prints an uncaught exception the way the JVM does.
func reportException(w io.Writer, e *RuntimeError) {
	fmt.Fprintf(w, "Exception in thread \"main\" %s", e.Exception)
	if e.Message != "" {
		fmt.Fprintf(w, ": %s", e.Message)
	}
	fmt.Fprintln(w)
	if e.Method != "" {
		fmt.Fprintf(w, "\tat %s.%s\n", strings.ReplaceAll(e.Class, "/", "."), e.Method)
	}
}
