package types

import (
	"encoding/json"
	"fmt"

	"golang.org/x/exp/slices"
)

const (
	// SeverityError marks a diagnostic that prevents output from being produced.
	SeverityError = "error"
	// SeverityWarning marks a non-fatal diagnostic.
	SeverityWarning = "warning"
	// SeverityInfo marks an informational diagnostic.
	SeverityInfo = "info"
)

// CompilationResult describes the compiler output in the solc standard JSON format, restricted to the fields this
// package reads.
// Reference: https://docs.soliditylang.org/en/latest/using-the-compiler.html#output-description
type CompilationResult struct {
	// Errors describes every diagnostic (errors, warnings, infos) reported by the compiler.
	Errors []Diagnostic `json:"errors,omitempty"`

	// Sources maps logical source names to their source unit identifiers.
	Sources map[string]SourceOutput `json:"sources,omitempty"`

	// Contracts maps logical source name -> contract name -> compiled output.
	Contracts map[string]map[string]ContractOutput `json:"contracts,omitempty"`
}

// SourceOutput describes the per-source section of a CompilationResult.
type SourceOutput struct {
	ID int `json:"id"`
}

// ContractOutput describes the compiled artifacts of a single contract as emitted by the compiler.
type ContractOutput struct {
	// Abi is the contract's interface description, kept verbatim.
	Abi json.RawMessage `json:"abi,omitempty"`

	// Evm holds the EVM-related outputs.
	Evm EVMOutput `json:"evm"`
}

// EVMOutput describes the "evm" section of a ContractOutput.
type EVMOutput struct {
	// Bytecode describes the creation bytecode.
	Bytecode BytecodeOutput `json:"bytecode"`

	// MethodIdentifiers maps function signatures to their 4-byte selector, hex-encoded without prefix.
	MethodIdentifiers map[string]string `json:"methodIdentifiers,omitempty"`
}

// BytecodeOutput describes a bytecode object. Object is hex-encoded and may contain unlinked library placeholders.
type BytecodeOutput struct {
	Object string `json:"object"`
}

// Diagnostic describes a single error, warning or info message reported by the compiler.
type Diagnostic struct {
	Severity         string          `json:"severity"`
	Type             string          `json:"type"`
	Component        string          `json:"component"`
	Message          string          `json:"message"`
	FormattedMessage string          `json:"formattedMessage,omitempty"`
	SourceLocation   *SourceLocation `json:"sourceLocation,omitempty"`
}

// SourceLocation describes the byte range a Diagnostic refers to.
type SourceLocation struct {
	File  string `json:"file"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// ParseCompilationResult parses a JSON-serialized CompilationResult.
func ParseCompilationResult(b []byte) (*CompilationResult, error) {
	var result CompilationResult
	if err := json.Unmarshal(b, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// IsError indicates whether the diagnostic prevents compilation output from being produced.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// String returns the compiler-formatted message when available, otherwise a "Type: message" rendering.
func (d Diagnostic) String() string {
	if d.FormattedMessage != "" {
		return d.FormattedMessage
	}
	if d.SourceLocation != nil {
		return fmt.Sprintf("%s: %s (%s:%d:%d)", d.Type, d.Message, d.SourceLocation.File, d.SourceLocation.Start, d.SourceLocation.End)
	}
	return fmt.Sprintf("%s: %s", d.Type, d.Message)
}

// HasErrors indicates whether any diagnostic in the result has error severity.
func (r *CompilationResult) HasErrors() bool {
	for _, diagnostic := range r.Errors {
		if diagnostic.IsError() {
			return true
		}
	}
	return false
}

// ErrorDiagnostics returns the diagnostics with error severity.
func (r *CompilationResult) ErrorDiagnostics() []Diagnostic {
	return r.filterDiagnostics(SeverityError)
}

// WarningDiagnostics returns the diagnostics with warning severity.
func (r *CompilationResult) WarningDiagnostics() []Diagnostic {
	return r.filterDiagnostics(SeverityWarning)
}

func (r *CompilationResult) filterDiagnostics(severity string) []Diagnostic {
	diagnostics := make([]Diagnostic, 0)
	for _, diagnostic := range r.Errors {
		if diagnostic.Severity == severity {
			diagnostics = append(diagnostics, diagnostic)
		}
	}
	return diagnostics
}

// ContractNames returns the sorted contract names emitted for the given logical source.
func (r *CompilationResult) ContractNames(sourceName string) []string {
	names := make([]string, 0, len(r.Contracts[sourceName]))
	for name := range r.Contracts[sourceName] {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
