package compilation

import (
	"strings"

	"github.com/crytic/solbuild/compilation/platforms"
	"github.com/crytic/solbuild/compilation/types"
	"github.com/pkg/errors"
)

// CompilationConfig describes how a single contract is compiled: which compiler backend is used, where imports are
// looked up, and the settings sent to the compiler.
type CompilationConfig struct {
	// Platform references an identifier indicating which compiler backend to use.
	Platform string `json:"platform"`

	// CompilerPath is the path of the compiler executable. If empty, the platform's default binary name is resolved
	// through PATH.
	CompilerPath string `json:"compilerPath"`

	// SourceExtension is appended to the contract name to obtain the primary source file name.
	SourceExtension string `json:"sourceExtension"`

	// DependencyRoot is the directory, relative to the parent of the source directory, searched last when
	// resolving imports.
	DependencyRoot string `json:"dependencyRoot"`

	// Optimizer describes the optimizer settings sent to the compiler.
	Optimizer types.OptimizerSettings `json:"optimizer"`

	// EVMVersion is the EVM version the compiler targets. If empty, the compiler's default is used.
	EVMVersion string `json:"evmVersion"`

	// OutputSelection lists the per-contract outputs requested from the compiler.
	OutputSelection []string `json:"outputSelection"`

	// ArtifactHashDirectory is the directory holding the artifact hash database. If empty, artifact hash
	// notifications are disabled.
	ArtifactHashDirectory string `json:"artifactHashDirectory"`
}

// DefaultCompilationConfig returns a CompilationConfig with the default values used to compile a contract.
func DefaultCompilationConfig() CompilationConfig {
	return CompilationConfig{
		Platform:        platforms.SolcPlatform,
		CompilerPath:    "",
		SourceExtension: ".sol",
		DependencyRoot:  "node_modules",
		Optimizer: types.OptimizerSettings{
			Enabled: true,
			Runs:    200,
		},
		EVMVersion:            "istanbul",
		OutputSelection:       append([]string(nil), types.DefaultOutputSelection...),
		ArtifactHashDirectory: "",
	}
}

// Validate validates that the CompilationConfig meets certain requirements.
// Returns an error if one occurs.
func (c *CompilationConfig) Validate() error {
	if !IsSupportedCompilationPlatform(c.Platform) {
		return errors.Errorf("compilation platform '%s' is unsupported, supported platforms: %s", c.Platform, strings.Join(GetSupportedCompilationPlatforms(), ", "))
	}

	if c.SourceExtension == "" {
		return errors.New("source extension must not be empty")
	}

	if c.Optimizer.Enabled && c.Optimizer.Runs <= 0 {
		return errors.New("optimizer runs must be greater than zero when the optimizer is enabled")
	}

	if len(c.OutputSelection) == 0 {
		return errors.New("output selection must request at least one output")
	}

	return nil
}

// Settings returns the compiler settings described by this configuration.
func (c *CompilationConfig) Settings() types.CompilationSettings {
	return types.CompilationSettings{
		Optimizer:       c.Optimizer,
		EVMVersion:      c.EVMVersion,
		OutputSelection: types.NewOutputSelection(c.OutputSelection),
	}
}

// SourceFileName returns the primary source file name for a contract.
func (c *CompilationConfig) SourceFileName(contractName string) string {
	return contractName + c.SourceExtension
}
