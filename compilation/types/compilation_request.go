package types

import (
	"encoding/json"
	"maps"

	"golang.org/x/exp/slices"
)

const (
	// PrimarySourceKey is the logical source name under which the file being compiled is submitted. The empty string
	// denotes the primary, unnamed unit.
	PrimarySourceKey = ""

	// LanguageSolidity is the standard JSON language identifier for Solidity sources.
	LanguageSolidity = "Solidity"
)

// DefaultOutputSelection describes the per-contract outputs requested from the compiler unless configured otherwise:
// the contract ABI, the creation bytecode object and the function selector mapping.
var DefaultOutputSelection = []string{"abi", "evm.bytecode.object", "evm.methodIdentifiers"}

// CompilationRequest describes a compiler input descriptor in the solc standard JSON format.
// Reference: https://docs.soliditylang.org/en/latest/using-the-compiler.html#input-description
type CompilationRequest struct {
	// Language describes the source language dialect, e.g. LanguageSolidity.
	Language string `json:"language"`

	// Sources maps logical source names to their content.
	Sources map[string]SourceInput `json:"sources"`

	// Settings describes the optimizer, target EVM version and output selection.
	Settings CompilationSettings `json:"settings"`
}

// SourceInput describes the content of a single logical source unit.
type SourceInput struct {
	Content string `json:"content"`
}

// CompilationSettings describes the settings block of a CompilationRequest.
type CompilationSettings struct {
	// Optimizer describes whether the optimizer is enabled and how many runs it is tuned for.
	Optimizer OptimizerSettings `json:"optimizer"`

	// EVMVersion describes the target runtime version tag. Empty means the compiler default.
	EVMVersion string `json:"evmVersion,omitempty"`

	// OutputSelection maps source name -> contract name -> requested outputs. "*" matches all.
	OutputSelection map[string]map[string][]string `json:"outputSelection"`
}

// OptimizerSettings describes the optimizer section of CompilationSettings.
type OptimizerSettings struct {
	Enabled bool `json:"enabled"`
	Runs    int  `json:"runs"`
}

// NewOutputSelection returns an output selection requesting the provided outputs for every contract in every source.
func NewOutputSelection(outputs []string) map[string]map[string][]string {
	selected := slices.Clone(outputs)
	return map[string]map[string][]string{
		"*": {
			"*": selected,
		},
	}
}

// NewCompilationRequest creates a Solidity CompilationRequest whose only source is primaryContent, keyed by
// PrimarySourceKey.
func NewCompilationRequest(primaryContent string, settings CompilationSettings) *CompilationRequest {
	return &CompilationRequest{
		Language: LanguageSolidity,
		Sources: map[string]SourceInput{
			PrimarySourceKey: {Content: primaryContent},
		},
		Settings: settings,
	}
}

// AddSource adds or replaces a logical source in the request.
func (r *CompilationRequest) AddSource(name string, content string) {
	if r.Sources == nil {
		r.Sources = make(map[string]SourceInput)
	}
	r.Sources[name] = SourceInput{Content: content}
}

// HasSource reports whether a logical source with the given name is part of the request.
func (r *CompilationRequest) HasSource(name string) bool {
	_, ok := r.Sources[name]
	return ok
}

// Clone returns a deep copy of the request so backends can extend its sources without mutating the caller's value.
func (r *CompilationRequest) Clone() *CompilationRequest {
	clone := *r
	clone.Sources = maps.Clone(r.Sources)
	clone.Settings.OutputSelection = make(map[string]map[string][]string, len(r.Settings.OutputSelection))
	for sourceName, contracts := range r.Settings.OutputSelection {
		clone.Settings.OutputSelection[sourceName] = make(map[string][]string, len(contracts))
		for contractName, outputs := range contracts {
			clone.Settings.OutputSelection[sourceName][contractName] = slices.Clone(outputs)
		}
	}
	if clone.Sources == nil {
		clone.Sources = make(map[string]SourceInput)
	}
	return &clone
}

// Marshal serializes the request into the JSON document expected on the compiler's standard input.
func (r *CompilationRequest) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// ParseCompilationRequest parses a JSON-serialized CompilationRequest.
func ParseCompilationRequest(b []byte) (*CompilationRequest, error) {
	var request CompilationRequest
	if err := json.Unmarshal(b, &request); err != nil {
		return nil, err
	}
	if request.Sources == nil {
		request.Sources = make(map[string]SourceInput)
	}
	return &request, nil
}
