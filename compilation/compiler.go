package compilation

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/crytic/solbuild/compilation/platforms"
	"github.com/crytic/solbuild/compilation/sources"
	"github.com/crytic/solbuild/compilation/types"
	"github.com/crytic/solbuild/logging"
	"github.com/crytic/solbuild/logging/colors"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
)

// SourceCompiler compiles a single named contract from a source directory.
type SourceCompiler struct {
	// config describes the compiler settings and import lookup.
	config CompilationConfig

	// compiler is the backend invoked with the standard JSON input.
	compiler platforms.Compiler

	// reader provides the content of the primary source and its imports.
	reader sources.Reader

	// hashStore, if set, is notified of every artifact produced.
	hashStore *ArtifactHashStore

	// logger describes the SourceCompiler's logger
	logger *logging.Logger
}

// NewSourceCompiler creates a SourceCompiler which uses the given compiler backend and source reader.
// Returns an error if the configuration is invalid.
func NewSourceCompiler(config CompilationConfig, compiler platforms.Compiler, reader sources.Reader) (*SourceCompiler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if compiler == nil {
		return nil, errors.New("a compiler backend must be provided")
	}
	if reader == nil {
		return nil, errors.New("a source reader must be provided")
	}

	return &SourceCompiler{
		config:   config,
		compiler: compiler,
		reader:   reader,
		logger:   logging.GlobalLogger.NewSubLogger("module", logging.COMPILATION_SERVICE),
	}, nil
}

// NewSourceCompilerFromConfig creates a SourceCompiler for the configured platform which reads sources from disk.
func NewSourceCompilerFromConfig(config CompilationConfig) (*SourceCompiler, error) {
	compiler, err := NewCompiler(config.Platform, config.CompilerPath)
	if err != nil {
		return nil, err
	}
	return NewSourceCompiler(config, compiler, sources.NewOSReader())
}

// Config returns the configuration used by the SourceCompiler.
func (s *SourceCompiler) Config() CompilationConfig {
	return s.config
}

// SetArtifactHashStore sets the store notified of produced artifacts. A nil store disables notifications.
func (s *SourceCompiler) SetArtifactHashStore(store *ArtifactHashStore) {
	s.hashStore = store
}

// CheckCompilerSupport verifies the compiler backend accepts the configured EVM version. If the compiler version
// cannot be determined, the check is skipped and the compiler is left to report the problem.
func (s *SourceCompiler) CheckCompilerSupport(ctx context.Context) error {
	if _, known := evmVersionMinimumCompiler[s.config.EVMVersion]; !known {
		return nil
	}

	version, err := s.compiler.Version(ctx)
	if err != nil {
		s.logger.Debug("Could not determine ", s.compiler.Platform(), " version, skipping evm version check", err)
		return nil
	}
	s.logger.Debug("Detected ", colors.Bold, s.compiler.Platform(), colors.Reset, " version ", version.String())

	if err := CheckEVMVersionSupport(s.config.EVMVersion, version); err != nil {
		return &CompilerError{Err: err}
	}
	return nil
}

// Compile reads directory/<contractName><ext>, compiles it with imports resolved relative to directory, and returns
// the contract named contractName from the compiler output.
//
// The returned error is a *ReadError, *ImportResolutionError, *CompilerError, or *LookupError.
func (s *SourceCompiler) Compile(ctx context.Context, directory string, contractName string) (*types.CompiledContract, error) {
	logger := s.logger.NewSubLogger("compilation", uuid.New().String())

	sourcePath := filepath.Join(directory, s.config.SourceFileName(contractName))
	logger.Info("Compiling ", colors.Bold, contractName, colors.Reset, " from ", colors.Bold, directory, colors.Reset)

	content, err := s.reader.ReadSource(sourcePath)
	if err != nil {
		return nil, &ReadError{Path: sourcePath, Err: err}
	}
	logger.Debug("Read ", len(content), " bytes from ", sourcePath, ":\n", content)

	if err := s.CheckCompilerSupport(ctx); err != nil {
		return nil, err
	}

	request := types.NewCompilationRequest(content, s.config.Settings())
	input, err := request.Marshal()
	if err != nil {
		return nil, &CompilerError{Err: pkgerrors.Wrap(err, "could not encode compiler input")}
	}

	// The first import failure is kept so it can be reported over the compiler's own diagnostics
	resolver := NewImportResolver(directory, s.config.DependencyRoot, s.reader)
	var importErr *ImportResolutionError
	callback := func(path string) types.ImportResult {
		result := resolver.Resolve(path)
		if result.Err != nil && importErr == nil {
			errors.As(result.Err, &importErr)
		} else if result.Err == nil {
			logger.Debug("Resolved import ", colors.Bold, path, colors.Reset)
		}
		return result
	}

	output, err := s.compiler.CompileStandardJSON(ctx, input, callback)
	if importErr != nil {
		return nil, importErr
	}
	if err != nil {
		return nil, &CompilerError{Err: err}
	}

	result, err := types.ParseCompilationResult(output)
	if err != nil {
		return nil, &CompilerError{
			Diagnostics: []types.Diagnostic{{
				Severity:         types.SeverityError,
				Type:             "MalformedOutputError",
				Component:        "general",
				Message:          err.Error(),
				FormattedMessage: "MalformedOutputError: " + err.Error(),
			}},
		}
	}

	if result.HasErrors() {
		return nil, &CompilerError{Diagnostics: result.Errors}
	}
	for _, warning := range result.WarningDiagnostics() {
		logger.Warn(colors.Yellow, warning.String())
	}

	contractOutput, ok := result.Contracts[types.PrimarySourceKey][contractName]
	if !ok {
		return nil, &LookupError{
			ContractName: contractName,
			SourceName:   types.PrimarySourceKey,
			Available:    result.ContractNames(types.PrimarySourceKey),
		}
	}

	contract, err := types.NewCompiledContract(contractOutput)
	if err != nil {
		return nil, &CompilerError{Err: err}
	}

	if s.hashStore != nil {
		s.hashStore.NotifyArtifactHashStatus(directory, contractName, contract, logger)
	}

	logger.Info(
		"Compiled ", colors.Bold, contractName, colors.Reset, ": ",
		len(contract.Abi.Methods), " method(s), ", len(contract.Bytecode)/2, " bytes of bytecode",
	)
	return contract, nil
}
