// Package cinema compiles AbsoluteCinema programs to JVM class files.
//
// AbsoluteCinema is a small statically typed language: top-level scenes
// (functions), setups (classes with fields, one constructor and methods)
// and global variables, with int, double, char, string and bool values and
// arrays of them. A program starts at the scene named entrance.
//
// The compiler produces, for every generated class, a class file the JVM
// loads directly and an assembly listing that mirrors it line for line.
// The package also carries a small VM that executes the generated classes,
// so programs can be run without a JVM.
//
// # Quick Start
//
// For simple one-off execution:
//
//	output, err := cinema.Run(`scene entrance(): scrap { project("hi"); }`, nil, nil)
//	// output: "hi\n"
//
// # Compiled Programs
//
// Compile runs the whole pipeline once; the result can be written out and
// run any number of times:
//
//	prog, err := cinema.Compile(source, &cinema.Config{SourceName: "hello.cin"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := prog.WriteFiles("out"); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(prog.Listing())
//
// # Configuration
//
// The [Config] type selects the generation mode ([ModeClass] or
// [ModeSingle]), the program class name, the source name used in error
// positions, the I/O writers and an optional [log/slog] logger.
//
// # Error Handling
//
// Every stage stops at its first error. Errors are returned as specific
// types that all implement [Error]:
//   - [LexError]: malformed tokens
//   - [ParseError]: syntax errors
//   - [SemanticError]: scoping and typing rules
//   - [CompileError]: constructs the generator cannot emit
//   - [RuntimeError]: uncaught exceptions raised by a running program
//
// # Thread Safety
//
// Compiled [Program] objects are safe for concurrent use.
// Each call to [Program.Run] creates an independent VM.
package cinema
