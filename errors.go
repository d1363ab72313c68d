package cinema

import (
	"errors"
	"fmt"

	"github.com/kolkov/cinema/internal/classfile"
	"github.com/kolkov/cinema/internal/compiler"
	"github.com/kolkov/cinema/internal/lexer"
	"github.com/kolkov/cinema/internal/parser"
	"github.com/kolkov/cinema/internal/semantic"
	"github.com/kolkov/cinema/internal/token"
	"github.com/kolkov/cinema/internal/vm"
)

// Stage names the pipeline stage that reported an error.
type Stage string

const (
	StageLex      Stage = "lexical"
	StageParse    Stage = "syntax"
	StageSemantic Stage = "semantic"
	StageCompile  Stage = "code generation"
	StageRuntime  Stage = "runtime"
)

// Error is implemented by every error Compile and Program.Run return.
type Error interface {
	error
	Stage() Stage
	// Position returns the 1-based line and column of the offending
	// source, or zeros when the error has no source position.
	Position() (line, column int)
}

// LexError represents a malformed token in the source.
type LexError struct {
	Source  string // Config.SourceName, may be empty
	Line    int    // 1-based line number
	Column  int    // 1-based column number
	Message string // Error description
}

func (e *LexError) Error() string {
	return format(StageLex, e.Source, e.Line, e.Column, e.Message)
}

func (e *LexError) Stage() Stage         { return StageLex }
func (e *LexError) Position() (int, int) { return e.Line, e.Column }

// ParseError represents a syntax error in the source.
type ParseError struct {
	Source  string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return format(StageParse, e.Source, e.Line, e.Column, e.Message)
}

func (e *ParseError) Stage() Stage         { return StageParse }
func (e *ParseError) Position() (int, int) { return e.Line, e.Column }

// SemanticError represents a violated typing or scoping rule.
type SemanticError struct {
	Source  string
	Line    int
	Column  int
	Message string
}

func (e *SemanticError) Error() string {
	return format(StageSemantic, e.Source, e.Line, e.Column, e.Message)
}

func (e *SemanticError) Stage() Stage         { return StageSemantic }
func (e *SemanticError) Position() (int, int) { return e.Line, e.Column }

// CompileError represents a construct the code generator cannot emit, such
// as a setup in single-class mode or a method with too many locals.
// Line and Column are zero when the problem is found while encoding the
// class files.
type CompileError struct {
	Source  string
	Line    int
	Column  int
	Message string
}

func (e *CompileError) Error() string {
	return format(StageCompile, e.Source, e.Line, e.Column, e.Message)
}

func (e *CompileError) Stage() Stage         { return StageCompile }
func (e *CompileError) Position() (int, int) { return e.Line, e.Column }

// RuntimeError represents an uncaught exception while running a program.
type RuntimeError struct {
	Exception string // Java class name, e.g. "java.lang.ArithmeticException"
	Message   string
	Class     string // class and method that raised it
	Method    string
}

func (e *RuntimeError) Error() string {
	s := "runtime error: " + e.Exception
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Method != "" {
		s += " (in " + e.Class + "." + e.Method + ")"
	}
	return s
}

func (e *RuntimeError) Stage() Stage         { return StageRuntime }
func (e *RuntimeError) Position() (int, int) { return 0, 0 }

func format(stage Stage, source string, line, column int, msg string) string {
	switch {
	case line == 0:
		return fmt.Sprintf("%s error: %s", stage, msg)
	case source != "":
		return fmt.Sprintf("%s:%d:%d: %s error: %s", source, line, column, stage, msg)
	default:
		return fmt.Sprintf("%d:%d: %s error: %s", line, column, stage, msg)
	}
}

// convertError maps an internal stage error to its public type.
func convertError(err error, source string) error {
	var (
		le *lexer.Error
		pe *parser.ParseError
		se *semantic.Error
		ce *compiler.CompileError
		fe *classfile.Error
		re *vm.Error
	)
	switch {
	case errors.As(err, &le):
		line, col := position(le.Pos)
		return &LexError{Source: source, Line: line, Column: col, Message: le.Message}
	case errors.As(err, &pe):
		line, col := position(pe.Pos)
		return &ParseError{Source: source, Line: line, Column: col, Message: pe.Message}
	case errors.As(err, &se):
		line, col := position(se.Pos)
		return &SemanticError{Source: source, Line: line, Column: col, Message: se.Message}
	case errors.As(err, &ce):
		line, col := position(ce.Pos)
		return &CompileError{Source: source, Line: line, Column: col, Message: ce.Message}
	case errors.As(err, &fe):
		return &CompileError{Source: source, Message: fe.Error()}
	case errors.As(err, &re):
		return &RuntimeError{Exception: re.Exception, Message: re.Message, Class: re.Class, Method: re.Method}
	}
	return err
}

func position(pos token.Position) (int, int) {
	return pos.Line, pos.Column
}
