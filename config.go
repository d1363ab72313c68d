package cinema

import (
	"io"
	"log/slog"

	"github.com/kolkov/cinema/internal/compiler"
)

// Mode selects what the code generator may emit.
type Mode = compiler.Mode

const (
	// ModeClass emits the program class plus one class per setup.
	ModeClass = compiler.ModeClass
	// ModeSingle emits only the program class. Setups, @, field access and
	// object allocation are code generation errors.
	ModeSingle = compiler.ModeSingle
)

// ParseMode converts "class" or "single" to a Mode.
func ParseMode(s string) (Mode, error) {
	return compiler.ParseMode(s)
}

// Config holds configuration options for compilation and execution.
type Config struct {
	// Mode is the generation mode (default: ModeClass).
	Mode Mode

	// ClassName names the program class holding main, capture and the
	// scenes (default: "Main"). It must be a valid binary name and must
	// not clash with a setup.
	ClassName string

	// SourceName is the name of the source file. It prefixes error
	// positions and is recorded as the SourceFile attribute of every class.
	SourceName string

	// Output is the writer for project. If nil, output is captured and
	// returned from Run.
	Output io.Writer

	// Stderr receives the report of an uncaught exception, formatted as
	// the JVM prints it. If nil, the report is discarded.
	Stderr io.Writer

	// Logger receives stage progress at debug level. If nil, nothing is
	// logged.
	Logger *slog.Logger
}

// applyDefaults fills in default values for unset Config fields.
func (c *Config) applyDefaults() {
	if c.ClassName == "" {
		c.ClassName = compiler.DefaultClassName
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

// withDefaults returns a copy of config with defaults applied; config
// itself is never modified.
func withDefaults(config *Config) Config {
	var c Config
	if config != nil {
		c = *config
	}
	c.applyDefaults()
	return c
}
