// Package semantic provides semantic analysis for AbsoluteCinema programs.
//
// Analysis runs in two passes over the AST:
//   - Declaration pass: registers setups, scenes and global variables in the
//     run's Context, resolves their signatures and checks the entrance scene
//   - Enrichment pass: walks every body with nested scopes, resolves the
//     type of every expression and links every variable use to its binding
//
// The first violated rule stops analysis. The AST is annotated in place;
// everything else the code generator needs lives in the returned Context.
package semantic

import (
	"fmt"

	"github.com/kolkov/cinema/internal/token"
)

// Error represents a semantic analysis error with source location.
type Error struct {
	Pos     token.Position
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// errorf creates a new semantic error.
func errorf(pos token.Position, format string, args ...any) *Error {
	return &Error{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	}
}

// fail aborts analysis with a semantic error.
func fail(pos token.Position, format string, args ...any) {
	panic(errorf(pos, format, args...))
}

// Common error messages as constants for consistency.
const (
	errMissingEntrance   = "program has no entrance scene"
	errDuplicateEntrance = "duplicate entrance scene (first declared at %s)"
	errEntranceParams    = "entrance scene must not take parameters"
	errDuplicateDecl     = "%s %q already declared at %s"
	errRedeclareBuiltin  = "%q is a built-in scene and cannot be redeclared"
	errReservedName      = "%s name %q is reserved for the program class"
	errDuplicateVar      = "%q already declared in this scope"
	errDuplicateField    = "setup %s already has a member %q"
	errUnknownType       = "unknown type %q"
	errScrapType         = "scrap is not a value type"
	errUndefinedVar      = "undefined variable %q"
	errForwardRef        = "%q is read before its initializer runs"
	errUndefinedScene    = "undefined scene %q"
	errSceneAsValue      = "scene %q cannot be used as a value"
	errThisOutsideSetup  = "'@' can only be used inside a setup"
	errBreakOutsideLoop  = "exit must be inside a loop"
	errSkipOutsideLoop   = "skip must be inside a loop"
	errTypeMismatch      = "type mismatch: cannot use %s as %s"
	errCondition         = "condition must be bool, got %s"
	errNotArray          = "cannot index non-array type %s"
	errIndexType         = "array index must be int, got %s"
	errNotSetup          = "cannot access member %q of non-setup type %s"
	errNoField           = "setup %s has no field %q"
	errNoMethod          = "setup %s has no scene %q"
	errArgCount          = "wrong number of arguments to %s: want %d, got %d"
	errArgType           = "argument %d of %s: cannot use %s as %s"
	errVoidValue         = "%s has no value"
	errReturnMissing     = "%s returns %s: cut needs a value"
	errReturnValue       = "%s returns scrap: cut must not have a value"
	errCtorReturn        = "constructor of %s cannot return a value"
	errBinaryOperands    = "invalid operands for %s: %s and %s"
	errUnaryOperand      = "invalid operand for %s: %s"
	errCast              = "cannot convert %s to %s"
	errCastFraction      = "cannot convert %s to int: fractional part is not zero"
	errCastNotLiteral    = "cannot convert double to int: only a literal with zero fractional part can be narrowed"
	errNotConstructible  = "action needs a setup type, got %s"
	errCapacityType      = "array capacity must be int, got %s"
	errInitCapacity      = "array initializer needs exactly one capacity, got %d"
	errInitTooLong       = "array initializer has %d elements but capacity is %d"
	errBareElems         = "{...} cannot initialize an element of type %s"
	errLiteralType       = "array literal needs a type"
	errAssignLength      = "cannot assign to the length of an array"
)
