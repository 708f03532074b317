package compilation

import (
	"fmt"
	"strings"

	"github.com/crytic/solbuild/compilation/types"
)

// ReadError indicates the primary source file could not be read. The compiler is never invoked when this occurs.
type ReadError struct {
	// Path is the file path that was read.
	Path string

	// Err is the underlying read failure.
	Err error
}

// Error returns the error message string, implementing the `error` interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("could not read source file '%s': %v", e.Path, e.Err)
}

// Unwrap returns the underlying read failure.
func (e *ReadError) Unwrap() error {
	return e.Err
}

// ImportResolutionError indicates an import could not be found in any of the locations searched for it.
type ImportResolutionError struct {
	// Path is the import path as requested by the compiler.
	Path string

	// Attempted lists the file paths that were tried, in order.
	Attempted []string

	// Causes holds the read failure for each attempted path.
	Causes []error
}

// Error returns the error message string, implementing the `error` interface.
func (e *ImportResolutionError) Error() string {
	return fmt.Sprintf("could not resolve import '%s' (tried: %s)", e.Path, strings.Join(e.Attempted, ", "))
}

// Unwrap returns the read failures of every attempt.
func (e *ImportResolutionError) Unwrap() []error {
	return e.Causes
}

// CompilerError indicates the compiler reported error diagnostics, could not be invoked, or produced output that could
// not be used.
type CompilerError struct {
	// Diagnostics is the full list of diagnostics reported by the compiler, including warnings.
	Diagnostics []types.Diagnostic

	// Err is set when the failure is not described by diagnostics, e.g. the compiler process failed.
	Err error
}

// Error returns the error message string, implementing the `error` interface.
func (e *CompilerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compiler failed: %v", e.Err)
	}

	errs := e.ErrorDiagnostics()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	for _, diagnostic := range errs {
		sb.WriteString("\n")
		sb.WriteString(strings.TrimRight(diagnostic.String(), "\n"))
	}
	return sb.String()
}

// Unwrap returns the underlying failure, if any.
func (e *CompilerError) Unwrap() error {
	return e.Err
}

// ErrorDiagnostics returns only the diagnostics with error severity.
func (e *CompilerError) ErrorDiagnostics() []types.Diagnostic {
	return (&types.CompilationResult{Errors: e.Diagnostics}).ErrorDiagnostics()
}

// LookupError indicates compilation succeeded but the requested contract is absent from the output.
type LookupError struct {
	// ContractName is the contract that was requested.
	ContractName string

	// SourceName is the logical source the contract was looked up in.
	SourceName string

	// Available lists the contract names the source did produce.
	Available []string
}

// Error returns the error message string, implementing the `error` interface.
func (e *LookupError) Error() string {
	available := "none"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("contract '%s' was not found in the compilation output for source %q (available: %s)", e.ContractName, e.SourceName, available)
}
