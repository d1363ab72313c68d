// cinema - AbsoluteCinema compiler
//
// Compiles one AbsoluteCinema source file to JVM class files and their
// assembly listings, or runs it directly on the built-in VM.
// Uses manual argument parsing so flags and their values may be joined
// (-oout, -modesingle) as well as separated.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/kolkov/cinema"
)

// version is set by GoReleaser at build time via -ldflags.
// For development builds, it will be "dev".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	shortUsage = "usage: cinema [-o dir] [-mode class|single] [-class name] [-d | -da | -run] [-v] file"
	longUsage  = `Output:
  -o dir            directory for the .class and .j files (default ".")
  -mode mode        generation mode: class (default) or single
  -class name       name of the program class (default "Main")

Running:
  -run              run the program on the built-in VM instead of
                    writing files; standard input feeds capture()

Debugging arguments:
  -d                print the parsed program to stdout and exit
  -da               print the assembly listing to stdout and exit
  -v                log compilation stages to stderr

Other:
  -h, --help        show this help message
  -version          show cinema version and exit

A file named "-" reads the source from standard input.
`
)

//nolint:gocyclo,funlen // CLI argument parsing is inherently complex
func main() {
	outDir := "."
	mode := cinema.ModeClass
	className := ""
	debug := false
	debugAsm := false
	run := false
	verbose := false

	var i int
	for i = 1; i < len(os.Args); i++ {
		// Stop on explicit end of args or first arg not prefixed with "-"
		arg := os.Args[i]
		if arg == "--" {
			i++
			break
		}
		if arg == "-" || !strings.HasPrefix(arg, "-") {
			break
		}

		switch arg {
		case "-o":
			if i+1 >= len(os.Args) {
				errorExitf("flag needs an argument: -o")
			}
			i++
			outDir = os.Args[i]
		case "-mode":
			if i+1 >= len(os.Args) {
				errorExitf("flag needs an argument: -mode")
			}
			i++
			mode = parseMode(os.Args[i])
		case "-class":
			if i+1 >= len(os.Args) {
				errorExitf("flag needs an argument: -class")
			}
			i++
			className = os.Args[i]
		case "-d":
			debug = true
		case "-da":
			debugAsm = true
		case "-run":
			run = true
		case "-v":
			verbose = true
		case "-h", "--help":
			fmt.Printf("cinema %s - AbsoluteCinema compiler\n\n%s\n\n%s", version, shortUsage, longUsage)
			os.Exit(0)
		case "-version", "--version":
			fmt.Printf("cinema version %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
			os.Exit(0)
		default:
			// Handle flags with no space: -oout, -modesingle, -classDemo
			switch {
			case strings.HasPrefix(arg, "-mode"):
				mode = parseMode(arg[len("-mode"):])
			case strings.HasPrefix(arg, "-class"):
				className = arg[len("-class"):]
			case strings.HasPrefix(arg, "-o"):
				outDir = arg[2:]
			default:
				errorExitf("flag provided but not defined: %s", arg)
			}
		}
	}

	args := os.Args[i:]
	if len(args) != 1 {
		errorExitf(shortUsage)
	}
	path := args[0]

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	source, err := loadSource(path)
	if err != nil {
		errorExitf("cannot read source file %s: %v", path, err)
	}
	if run && path == "-" {
		errorExitf("-run needs a source file: standard input is the program's input")
	}

	config := &cinema.Config{
		Mode:       mode,
		ClassName:  className,
		SourceName: path,
		Stderr:     os.Stderr,
		Logger:     logger,
	}
	if path == "-" {
		config.SourceName = "<stdin>"
	}

	prog, err := cinema.Compile(source, config)
	if err != nil {
		errorExit(err)
	}

	// Debug output modes
	if debug {
		fmt.Println(prog.PrintAST())
		os.Exit(0)
	}
	if debugAsm {
		fmt.Print(prog.Listing())
		os.Exit(0)
	}

	if run {
		stdout := bufio.NewWriter(os.Stdout)
		config.Output = stdout
		_, err := prog.Run(os.Stdin, config)
		if ferr := stdout.Flush(); err == nil && ferr != nil {
			err = ferr
		}
		var re *cinema.RuntimeError
		if errors.As(err, &re) {
			// The exception was already reported on stderr.
			os.Exit(1)
		}
		if err != nil {
			errorExit(err)
		}
		return
	}

	paths, err := prog.WriteFiles(outDir)
	if err != nil {
		errorExitf("cannot write output: %v", err)
	}
	for _, p := range paths {
		logger.Info("wrote", "file", p)
	}
}

// loadSource reads the program text from a file, or from standard input
// when path is "-".
func loadSource(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	return string(data), err
}

func parseMode(s string) cinema.Mode {
	m, err := cinema.ParseMode(s)
	if err != nil {
		errorExitf("%v", err)
	}
	return m
}

// errorExitf prints formatted error message and exits with code 1
func errorExitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "cinema: "+format+"\n", args...)
	os.Exit(1)
}

// errorExit prints error and exits with code 1
func errorExit(err error) {
	fmt.Fprintf(os.Stderr, "cinema: %v\n", err)
	os.Exit(1)
}
