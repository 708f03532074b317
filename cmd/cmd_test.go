package cmd

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/solbuild/cmd/exitcodes"
	"github.com/crytic/solbuild/compilation"
	"github.com/crytic/solbuild/config"
	"github.com/crytic/solbuild/logging"
	"github.com/crytic/solbuild/logging/colors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with the given arguments, capturing its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

// TestInitWritesConfig ensures init writes a default configuration updated with the provided flags.
func TestInitWritesConfig(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), DefaultProjectConfigFilename)
	_, err := executeCommand(t, "init", "solcjs", "--out", outputPath, "--evm-version", "london", "--dependency-root", "lib")
	require.NoError(t, err)

	projectConfig, err := config.ReadProjectConfigFromFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "solcjs", projectConfig.Compilation.Platform)
	assert.Equal(t, "london", projectConfig.Compilation.EVMVersion)
	assert.Equal(t, "lib", projectConfig.Compilation.DependencyRoot)
	assert.NoError(t, projectConfig.Validate())
}

// TestInitRejectsUnknownPlatform ensures init validates its platform argument.
func TestInitRejectsUnknownPlatform(t *testing.T) {
	_, err := executeCommand(t, "init", "hardhat")
	assert.Error(t, err)
}

// TestCompileRequiresDirectoryAndContract ensures compile validates its positional arguments.
func TestCompileRequiresDirectoryAndContract(t *testing.T) {
	_, err := executeCommand(t, "compile", "contracts")
	assert.Error(t, err)
}

// TestCompileMissingSource ensures a missing source file exits with the compilation exit code and that --no-color
// keeps escape codes out of console logs.
func TestCompileMissingSource(t *testing.T) {
	var stderr bytes.Buffer
	cmdLogger.AddWriter(&stderr, logging.UNSTRUCTURED, true)
	t.Cleanup(func() {
		cmdLogger.RemoveWriter(&stderr, logging.UNSTRUCTURED, true)
		colors.EnableColor()
	})

	out, err := executeCommand(t, "compile", t.TempDir(), "Missing", "--no-color")
	assert.Empty(t, out)
	assert.Contains(t, stderr.String(), "Could not read the source of Missing")
	assert.NotContains(t, stderr.String(), "\x1b[")

	var readErr *compilation.ReadError
	assert.True(t, errors.As(err, &readErr))

	_, exitCode := exitcodes.GetInnerErrorAndExitCode(err)
	assert.Equal(t, exitcodes.ExitCodeCompilationError, exitCode)
}

// TestCompileMissingConfig ensures an explicitly provided config file must exist.
func TestCompileMissingConfig(t *testing.T) {
	_, err := executeCommand(t, "compile", t.TempDir(), "Token", "--config", filepath.Join(t.TempDir(), "missing.json"))
	_, exitCode := exitcodes.GetInnerErrorAndExitCode(err)
	assert.Equal(t, exitcodes.ExitCodeHandledError, exitCode)
}

// TestCompileFlagReadFailure ensures a flag that cannot be read is reported with the handled exit code.
func TestCompileFlagReadFailure(t *testing.T) {
	err := cmdRunCompile(&cobra.Command{}, []string{t.TempDir(), "Token"})
	require.Error(t, err)
	_, exitCode := exitcodes.GetInnerErrorAndExitCode(err)
	assert.Equal(t, exitcodes.ExitCodeHandledError, exitCode)
}

// TestUpdateProjectConfigWithCompileFlags ensures compile flags override the project configuration.
func TestUpdateProjectConfigWithCompileFlags(t *testing.T) {
	require.NoError(t, compileCmd.ParseFlags([]string{
		"--compiler", "/opt/solc", "--evm-version", "paris", "--dependency-root", "lib", "--optimizer-runs", "500",
	}))

	projectConfig := config.GetDefaultProjectConfig()
	projectConfig.Compilation.Optimizer.Enabled = false
	require.NoError(t, updateProjectConfigWithCompileFlags(compileCmd, projectConfig))
	assert.Equal(t, "/opt/solc", projectConfig.Compilation.CompilerPath)
	assert.Equal(t, "paris", projectConfig.Compilation.EVMVersion)
	assert.Equal(t, "lib", projectConfig.Compilation.DependencyRoot)
	assert.Equal(t, 500, projectConfig.Compilation.Optimizer.Runs)
	assert.True(t, projectConfig.Compilation.Optimizer.Enabled)
}

// TestParseLibraryLinks ensures --link pairs must name a fully qualified library and a valid address.
func TestParseLibraryLinks(t *testing.T) {
	links, err := parseLibraryLinks(map[string]string{"Math.sol:Math": "0x00000000000000000000000000000000000000ff"})
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xff"), links["Math.sol:Math"])

	_, err = parseLibraryLinks(map[string]string{"Math": "0x00000000000000000000000000000000000000ff"})
	assert.Error(t, err)

	_, err = parseLibraryLinks(map[string]string{"Math.sol:Math": "0x1234"})
	assert.Error(t, err)
}

// TestVersionCommand ensures the version command prints build information.
func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "solbuild version")
}
