package compilation

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver"
	"github.com/crytic/solbuild/compilation/platforms/platformtest"
	"github.com/crytic/solbuild/compilation/sources"
	"github.com/crytic/solbuild/compilation/types"
	"github.com/stretchr/testify/assert"
)

var (
	projectDirectory   = filepath.Join(string(filepath.Separator), "project")
	contractsDirectory = filepath.Join(projectDirectory, "contracts")
)

const tokenSource = `contract Token {
	function transfer(address to, uint256 amount) public {}
	function balanceOf(address owner) public {}
}`

// newTestCompiler creates a SourceCompiler backed by the fake compiler and an in-memory file system.
func newTestCompiler(t *testing.T, files map[string]string) (*SourceCompiler, *platformtest.FakeCompiler, *sources.MemoryReader) {
	fake := platformtest.NewFakeCompiler()
	reader := sources.NewMemoryReader(files)
	compiler, err := NewSourceCompiler(DefaultCompilationConfig(), fake, reader)
	assert.NoError(t, err)
	return compiler, fake, reader
}

// staticCompiler is a compiler backend that returns canned output.
type staticCompiler struct {
	output []byte
	err    error
}

func (s *staticCompiler) Platform() string {
	return "static"
}

func (s *staticCompiler) Version(ctx context.Context) (*semver.Version, error) {
	return nil, errors.New("no version")
}

func (s *staticCompiler) CompileStandardJSON(ctx context.Context, input []byte, callback types.ImportCallback) ([]byte, error) {
	return s.output, s.err
}

// TestCompileContract ensures a clean compile returns the ABI, bytecode object and selector mapping.
func TestCompileContract(t *testing.T) {
	compiler, fake, _ := newTestCompiler(t, map[string]string{
		filepath.Join(contractsDirectory, "Token.sol"): tokenSource,
	})

	contract, err := compiler.Compile(context.Background(), contractsDirectory, "Token")
	assert.NoError(t, err)
	assert.NotNil(t, contract)
	assert.Equal(t, 1, fake.Calls())

	assert.Len(t, contract.Abi.Methods, 2)
	assert.Contains(t, contract.Abi.Methods, "transfer")
	assert.NotEmpty(t, contract.Bytecode)
	assert.Equal(t, "a9059cbb", contract.MethodIdentifiers["transfer(address,uint256)"])
	assert.Equal(t, "70a08231", contract.MethodIdentifiers["balanceOf(address)"])
	assert.NoError(t, contract.VerifyMethodIdentifiers())
}

// TestCompileRequestLayout ensures the compiler receives the primary source under the empty key with default settings.
func TestCompileRequestLayout(t *testing.T) {
	compiler, fake, _ := newTestCompiler(t, map[string]string{
		filepath.Join(contractsDirectory, "Token.sol"): tokenSource,
	})

	_, err := compiler.Compile(context.Background(), contractsDirectory, "Token")
	assert.NoError(t, err)

	requests := fake.Requests()
	assert.Len(t, requests, 1)
	request := requests[0]
	assert.Equal(t, types.LanguageSolidity, request.Language)
	assert.Len(t, request.Sources, 1)
	assert.Equal(t, tokenSource, request.Sources[types.PrimarySourceKey].Content)
	assert.True(t, request.Settings.Optimizer.Enabled)
	assert.Equal(t, 200, request.Settings.Optimizer.Runs)
	assert.Equal(t, "istanbul", request.Settings.EVMVersion)
	assert.Equal(t, types.DefaultOutputSelection, request.Settings.OutputSelection["*"]["*"])
}

// TestCompileMissingPrimarySource ensures a missing primary file fails before the compiler is invoked.
func TestCompileMissingPrimarySource(t *testing.T) {
	compiler, fake, _ := newTestCompiler(t, map[string]string{})

	contract, err := compiler.Compile(context.Background(), contractsDirectory, "Missing")
	assert.Nil(t, contract)

	var readErr *ReadError
	assert.True(t, errors.As(err, &readErr))
	assert.Equal(t, filepath.Join(contractsDirectory, "Missing.sol"), readErr.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, 0, fake.Calls())
}

// TestCompileImportFromDependencyRoot ensures an import only present under the dependency root is found after the
// source directory and its parent were tried.
func TestCompileImportFromDependencyRoot(t *testing.T) {
	ownablePath := filepath.Join(projectDirectory, "node_modules", "@oz", "Ownable.sol")
	compiler, _, reader := newTestCompiler(t, map[string]string{
		filepath.Join(contractsDirectory, "Token.sol"): "import \"@oz/Ownable.sol\";\n" + tokenSource,
		ownablePath: `contract Ownable { function owner() public {} }`,
	})

	contract, err := compiler.Compile(context.Background(), contractsDirectory, "Token")
	assert.NoError(t, err)
	assert.NotNil(t, contract)

	assert.Equal(t, []string{
		filepath.Join(contractsDirectory, "Token.sol"),
		filepath.Join(contractsDirectory, "@oz", "Ownable.sol"),
		filepath.Join(projectDirectory, "@oz", "Ownable.sol"),
		ownablePath,
	}, reader.Reads())
}

// TestCompileUnresolvedImport ensures an import absent from every location fails with an error naming the import.
func TestCompileUnresolvedImport(t *testing.T) {
	compiler, _, _ := newTestCompiler(t, map[string]string{
		filepath.Join(contractsDirectory, "Token.sol"): "import \"lib/Missing.sol\";\n" + tokenSource,
	})

	contract, err := compiler.Compile(context.Background(), contractsDirectory, "Token")
	assert.Nil(t, contract)

	var importErr *ImportResolutionError
	assert.True(t, errors.As(err, &importErr))
	assert.Equal(t, "lib/Missing.sol", importErr.Path)
	assert.Len(t, importErr.Attempted, 3)
	assert.Contains(t, err.Error(), "lib/Missing.sol")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

// TestCompileContractNameMismatch ensures a successful compile without the requested contract yields a LookupError.
func TestCompileContractNameMismatch(t *testing.T) {
	compiler, _, _ := newTestCompiler(t, map[string]string{
		filepath.Join(contractsDirectory, "Token.sol"): `contract Coin { function mint(uint256 amount) public {} }`,
	})

	contract, err := compiler.Compile(context.Background(), contractsDirectory, "Token")
	assert.Nil(t, contract)

	var lookupErr *LookupError
	assert.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, "Token", lookupErr.ContractName)
	assert.Equal(t, types.PrimarySourceKey, lookupErr.SourceName)
	assert.Equal(t, []string{"Coin"}, lookupErr.Available)
	assert.Contains(t, err.Error(), "Token")
}

// TestCompileIsIdempotent ensures two compilations of unchanged inputs serialize to identical artifacts.
func TestCompileIsIdempotent(t *testing.T) {
	compiler, fake, _ := newTestCompiler(t, map[string]string{
		filepath.Join(contractsDirectory, "Token.sol"): "import \"./Base.sol\";\n" + tokenSource,
		filepath.Join(contractsDirectory, "Base.sol"):  `contract Base { function base() public {} }`,
	})

	first, err := compiler.Compile(context.Background(), contractsDirectory, "Token")
	assert.NoError(t, err)
	second, err := compiler.Compile(context.Background(), contractsDirectory, "Token")
	assert.NoError(t, err)
	assert.Equal(t, 2, fake.Calls())

	firstJSON, err := json.Marshal(first)
	assert.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	assert.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

// TestCompileErrorDiagnostics ensures compiler errors are returned as a CompilerError carrying the diagnostics.
func TestCompileErrorDiagnostics(t *testing.T) {
	compiler, _, _ := newTestCompiler(t, map[string]string{
		filepath.Join(contractsDirectory, "Token.sol"): `contract Token { function transfer(address to) public {}`,
	})

	contract, err := compiler.Compile(context.Background(), contractsDirectory, "Token")
	assert.Nil(t, contract)

	var compilerErr *CompilerError
	assert.True(t, errors.As(err, &compilerErr))
	assert.Len(t, compilerErr.Diagnostics, 1)
	assert.Equal(t, "ParserError", compilerErr.Diagnostics[0].Type)
	assert.Len(t, compilerErr.ErrorDiagnostics(), 1)
	assert.Contains(t, err.Error(), "1 error(s)")
}

// TestCompileWarningsAreNotFatal ensures warning diagnostics do not fail a compilation.
func TestCompileWarningsAreNotFatal(t *testing.T) {
	output := `{
		"errors": [{"severity": "warning", "type": "Warning", "component": "general", "message": "Unused local variable."}],
		"contracts": {"": {"Token": {"abi": [], "evm": {"bytecode": {"object": "6080"}, "methodIdentifiers": {}}}}}
	}`
	reader := sources.NewMemoryReader(map[string]string{filepath.Join(contractsDirectory, "Token.sol"): tokenSource})
	compiler, err := NewSourceCompiler(DefaultCompilationConfig(), &staticCompiler{output: []byte(output)}, reader)
	assert.NoError(t, err)

	contract, err := compiler.Compile(context.Background(), contractsDirectory, "Token")
	assert.NoError(t, err)
	assert.Equal(t, "6080", contract.Bytecode)
	assert.Len(t, contract.Abi.Methods, 0)
}

// TestCompileBackendFailures ensures malformed output and backend failures are reported as CompilerError.
func TestCompileBackendFailures(t *testing.T) {
	reader := sources.NewMemoryReader(map[string]string{filepath.Join(contractsDirectory, "Token.sol"): tokenSource})

	// Output that is not JSON produces a synthesized diagnostic
	compiler, err := NewSourceCompiler(DefaultCompilationConfig(), &staticCompiler{output: []byte("Segmentation fault")}, reader)
	assert.NoError(t, err)
	_, err = compiler.Compile(context.Background(), contractsDirectory, "Token")
	var compilerErr *CompilerError
	assert.True(t, errors.As(err, &compilerErr))
	assert.Len(t, compilerErr.Diagnostics, 1)
	assert.Equal(t, "MalformedOutputError", compilerErr.Diagnostics[0].Type)

	// A backend failure is wrapped
	backendErr := errors.New("exec: \"solc\": executable file not found in $PATH")
	compiler, err = NewSourceCompiler(DefaultCompilationConfig(), &staticCompiler{err: backendErr}, reader)
	assert.NoError(t, err)
	_, err = compiler.Compile(context.Background(), contractsDirectory, "Token")
	assert.True(t, errors.As(err, &compilerErr))
	assert.ErrorIs(t, err, backendErr)
}

// TestCompileEVMVersionGate ensures the configured EVM version is checked against the compiler version.
func TestCompileEVMVersionGate(t *testing.T) {
	files := map[string]string{filepath.Join(contractsDirectory, "Token.sol"): tokenSource}

	// istanbul was introduced in 0.5.13
	fake := platformtest.NewFakeCompiler()
	fake.VersionString = "0.5.12"
	compiler, err := NewSourceCompiler(DefaultCompilationConfig(), fake, sources.NewMemoryReader(files))
	assert.NoError(t, err)
	_, err = compiler.Compile(context.Background(), contractsDirectory, "Token")
	var compilerErr *CompilerError
	assert.True(t, errors.As(err, &compilerErr))
	assert.Contains(t, err.Error(), "0.5.13")
	assert.Equal(t, 0, fake.Calls())

	fake.VersionString = "0.5.13"
	_, err = compiler.Compile(context.Background(), contractsDirectory, "Token")
	assert.NoError(t, err)
	assert.Equal(t, 1, fake.Calls())

	// An unknown version is left to the compiler
	config := DefaultCompilationConfig()
	config.EVMVersion = "osaka"
	fake.VersionString = "0.4.0"
	compiler, err = NewSourceCompiler(config, fake, sources.NewMemoryReader(files))
	assert.NoError(t, err)
	_, err = compiler.Compile(context.Background(), contractsDirectory, "Token")
	assert.NoError(t, err)
}

// TestNewSourceCompilerValidation ensures invalid configurations and missing dependencies are rejected.
func TestNewSourceCompilerValidation(t *testing.T) {
	config := DefaultCompilationConfig()
	config.Optimizer.Runs = 0
	_, err := NewSourceCompiler(config, platformtest.NewFakeCompiler(), sources.NewMemoryReader(nil))
	assert.Error(t, err)

	_, err = NewSourceCompiler(DefaultCompilationConfig(), nil, sources.NewMemoryReader(nil))
	assert.Error(t, err)

	_, err = NewSourceCompiler(DefaultCompilationConfig(), platformtest.NewFakeCompiler(), nil)
	assert.Error(t, err)
}

// TestCompileNotifiesArtifactHashStore ensures the hash store records compiled artifacts without altering them.
func TestCompileNotifiesArtifactHashStore(t *testing.T) {
	compiler, _, _ := newTestCompiler(t, map[string]string{
		filepath.Join(contractsDirectory, "Token.sol"): tokenSource,
	})
	store, err := OpenArtifactHashStore(t.TempDir())
	assert.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	compiler.SetArtifactHashStore(store)

	first, err := compiler.Compile(context.Background(), contractsDirectory, "Token")
	assert.NoError(t, err)
	cache, err := store.Load(contractsDirectory, "Token")
	assert.NoError(t, err)
	assert.NotNil(t, cache)
	assert.Equal(t, ComputeArtifactHash("Token", first), cache.Hash)

	second, err := compiler.Compile(context.Background(), contractsDirectory, "Token")
	assert.NoError(t, err)
	assert.Equal(t, first.Bytecode, second.Bytecode)
	assert.Equal(t, first.MethodIdentifiers, second.MethodIdentifiers)
}
