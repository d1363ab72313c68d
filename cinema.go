package cinema

import (
	"io"
	"path/filepath"

	"github.com/kolkov/cinema/internal/ast"
	"github.com/kolkov/cinema/internal/compiler"
	"github.com/kolkov/cinema/internal/lexer"
	"github.com/kolkov/cinema/internal/parser"
	"github.com/kolkov/cinema/internal/semantic"
)

// Version is the cinema version string.
const Version = "0.1.0"

// Compile runs the whole pipeline on one source text: lexing, parsing,
// semantic analysis, code generation and encoding. Each stage stops at
// its first error, which is returned as one of the public error types.
// Nothing is written anywhere; use Program.WriteFiles for that.
//
// Example:
//
//	prog, err := cinema.Compile(`scene entrance(): scrap { project("hi"); }`, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = prog.WriteFiles("out")
func Compile(source string, config *Config) (*Program, error) {
	c := withDefaults(config)
	log := c.Logger.With("source", c.SourceName)

	fail := func(err error) (*Program, error) {
		err = convertError(err, c.SourceName)
		log.Debug("compilation failed", "error", err)
		return nil, err
	}

	toks, err := lexer.Tokenize([]byte(source))
	if err != nil {
		return fail(err)
	}
	log.Debug("tokenized", "tokens", len(toks))

	tree, err := parser.ParseTokens(toks)
	if err != nil {
		return fail(err)
	}
	tree.Filename = c.SourceName
	log.Debug("parsed", "declarations", len(tree.Decls))

	ctx, err := semantic.Analyze(tree)
	if err != nil {
		return fail(err)
	}
	log.Debug("analyzed", "setups", len(ctx.Setups), "scenes", len(ctx.Scenes), "globals", len(ctx.GlobalVars))

	opts := compiler.Options{Mode: c.Mode, ClassName: c.ClassName}
	if c.SourceName != "" {
		opts.SourceFile = filepath.Base(c.SourceName)
	}
	compiled, err := compiler.Compile(ctx, opts)
	if err != nil {
		return fail(err)
	}

	// Encoding computes max_stack and branch offsets, which can still fail.
	p := &Program{source: source, ast: tree, compiled: compiled}
	for _, cls := range compiled.Classes {
		data, err := cls.Bytes()
		if err != nil {
			return fail(err)
		}
		text, err := cls.Listing()
		if err != nil {
			return fail(err)
		}
		p.classes = append(p.classes, classFile{name: cls.Name, data: data, listing: text})
	}
	log.Debug("generated", "mode", c.Mode, "classes", len(p.classes))
	return p, nil
}

// MustCompile is like Compile but panics if the program cannot be compiled.
// It simplifies initialization of global program variables.
func MustCompile(source string) *Program {
	prog, err := Compile(source, nil)
	if err != nil {
		panic(err)
	}
	return prog
}

// Run compiles and runs a program with the given standard input.
// This is a convenience function for one-off execution.
//
// Example:
//
//	output, err := cinema.Run(`scene entrance(): scrap { project(capture()); }`,
//	    strings.NewReader("echo\n"), nil)
//	// output: "echo\n"
func Run(source string, input io.Reader, config *Config) (string, error) {
	prog, err := Compile(source, config)
	if err != nil {
		return "", err
	}
	return prog.Run(input, config)
}

// Exec compiles and runs a program, writing its standard output to output.
func Exec(source string, input io.Reader, output io.Writer, config *Config) error {
	c := withDefaults(config)
	c.Output = output
	_, err := Run(source, input, &c)
	return err
}

// PrintAST returns the source form of the parsed program, as the -d flag
// of the command prints it.
func (p *Program) PrintAST() string {
	return ast.String(p.ast)
}
