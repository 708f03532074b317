package compilation

import (
	"context"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/crytic/solbuild/compilation/platforms"
	"github.com/crytic/solbuild/compilation/platforms/platformtest"
	"github.com/crytic/solbuild/compilation/sources"
	"github.com/crytic/solbuild/utils/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompileFromDisk compiles the fixture project through the file system, resolving one relative import and one
// import from the dependency root.
func TestCompileFromDisk(t *testing.T) {
	projectPath := testutils.CopyToTestDirectory(t, "testdata/project")

	testutils.ExecuteInDirectory(t, projectPath, func() {
		fake := platformtest.NewFakeCompiler()
		compiler, err := NewSourceCompiler(DefaultCompilationConfig(), fake, sources.NewOSReader())
		require.NoError(t, err)

		contract, err := compiler.Compile(context.Background(), "contracts", "Token")
		require.NoError(t, err)
		assert.Contains(t, contract.MethodIdentifiers, "transfer(address,uint256)")
		assert.Contains(t, contract.MethodIdentifiers, "balanceOf(address)")

		requests := fake.Requests()
		require.Len(t, requests, 1)
		assert.True(t, requests[0].HasSource("@oz/Ownable.sol"))
		assert.True(t, requests[0].HasSource("Math.sol"))

		_, err = compiler.Compile(context.Background(), "contracts", "Missing")
		var readErr *ReadError
		assert.ErrorAs(t, err, &readErr)
		assert.Equal(t, filepath.Join("contracts", "Missing.sol"), readErr.Path)
	})
}

// TestCompileWithSystemSolc compiles the fixture project with a solc binary found on PATH.
func TestCompileWithSystemSolc(t *testing.T) {
	if _, err := exec.LookPath("solc"); err != nil {
		t.Skip("solc is not installed")
	}
	projectPath := testutils.CopyToTestDirectory(t, "testdata/project")

	compiler, err := NewSourceCompiler(DefaultCompilationConfig(), platforms.NewSolcCompiler(""), sources.NewOSReader())
	require.NoError(t, err)

	directory := filepath.Join(projectPath, "contracts")
	first, err := compiler.Compile(context.Background(), directory, "Token")
	if err != nil {
		// Releases older than the fixture's pragma report a CompilerError
		var compilerErr *CompilerError
		require.ErrorAs(t, err, &compilerErr)
		t.Skipf("installed solc cannot compile the fixture: %v", err)
	}

	assert.NotEmpty(t, first.Bytecode)
	assert.Contains(t, first.MethodIdentifiers, "transfer(address,uint256)")
	assert.Contains(t, first.MethodIdentifiers, "owner()")
	assert.NoError(t, first.VerifyMethodIdentifiers())

	second, err := compiler.Compile(context.Background(), directory, "Token")
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}
