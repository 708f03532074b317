package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"

	"github.com/Masterminds/semver"
	"github.com/crytic/solbuild/compilation/types"
	"github.com/crytic/solbuild/logging"
	"github.com/crytic/solbuild/logging/colors"
	"github.com/crytic/solbuild/utils"
)

const (
	// SolcPlatform identifies the native solc executable backend.
	SolcPlatform = "solc"
	// SolcJSPlatform identifies the npm solcjs executable backend.
	SolcJSPlatform = "solcjs"
)

// missingSourceExp matches the diagnostic solc reports for an import that is not part of the submitted sources.
var missingSourceExp = regexp.MustCompile(`Source "([^"]+)" not found`)

// versionExp matches a semantic version in the output of `<compiler> --version`.
var versionExp = regexp.MustCompile(`\d+\.\d+\.\d+`)

// commandRunner executes a compiler process with the given standard input inside the provided working directory and
// returns its stdout and stderr.
type commandRunner func(ctx context.Context, workingDirectory string, name string, args []string, stdin []byte) ([]byte, []byte, error)

// SolcCompiler is a Compiler backed by a solc-compatible executable driven through its standard JSON interface.
//
// An executable cannot call back into this process, so the import callback is emulated: the compiler is run, every
// `Source "X" not found` diagnostic is resolved through the callback in the order reported, the resolved sources are
// added to the input and the compiler is run again. This repeats until the compiler requests no new sources.
type SolcCompiler struct {
	// platform is the identifier returned by Platform.
	platform string

	// binaryPath is the path or name of the compiler executable.
	binaryPath string

	// run executes the compiler process.
	run commandRunner

	// logger is used to report compiler invocations.
	logger *logging.Logger
}

// NewSolcCompiler creates a Compiler for the native solc executable. An empty binaryPath resolves "solc" from PATH.
func NewSolcCompiler(binaryPath string) *SolcCompiler {
	if binaryPath == "" {
		binaryPath = "solc"
	}
	return newSolcCompiler(SolcPlatform, binaryPath)
}

// NewSolcJSCompiler creates a Compiler for the npm solcjs executable. An empty binaryPath resolves "solcjs" from PATH.
func NewSolcJSCompiler(binaryPath string) *SolcCompiler {
	if binaryPath == "" {
		binaryPath = "solcjs"
	}
	return newSolcCompiler(SolcJSPlatform, binaryPath)
}

func newSolcCompiler(platform string, binaryPath string) *SolcCompiler {
	return &SolcCompiler{
		platform:   platform,
		binaryPath: binaryPath,
		run:        runCommand,
		logger:     logging.GlobalLogger.NewSubLogger("module", logging.PLATFORM_SERVICE),
	}
}

// Platform returns the identifier of the compiler backend.
func (s *SolcCompiler) Platform() string {
	return s.platform
}

// BinaryPath returns the path or name of the compiler executable.
func (s *SolcCompiler) BinaryPath() string {
	return s.binaryPath
}

// Version runs `<compiler> --version` and parses the semantic version out of its output.
func (s *SolcCompiler) Version(ctx context.Context) (*semver.Version, error) {
	stdout, stderr, err := s.run(ctx, "", s.binaryPath, []string{"--version"}, nil)
	if err != nil {
		return nil, fmt.Errorf("error while executing %s:\nOUTPUT:\n%s%s\nERROR: %s\n", s.binaryPath, string(stdout), string(stderr), err.Error())
	}
	return ParseCompilerVersion(string(stdout))
}

// ParseCompilerVersion extracts the first semantic version found in compiler version output.
func ParseCompilerVersion(output string) (*semver.Version, error) {
	versionStr := versionExp.FindString(output)
	if versionStr == "" {
		return nil, errors.New("could not parse compiler version from '--version' output")
	}
	return semver.NewVersion(versionStr)
}

// CompileStandardJSON runs the compiler on the given standard JSON input, resolving requested imports through the
// callback until the compiler stops asking for new sources.
func (s *SolcCompiler) CompileStandardJSON(ctx context.Context, input []byte, callback types.ImportCallback) ([]byte, error) {
	request, err := types.ParseCompilationRequest(input)
	if err != nil {
		return nil, fmt.Errorf("could not parse compiler input: %v", err)
	}

	// The compiler runs in an empty directory so it can only see the sources we hand it
	workingDirectory, err := os.MkdirTemp("", "solbuild-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(workingDirectory)

	requested := make(map[string]bool)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		b, err := request.Marshal()
		if err != nil {
			return nil, err
		}

		s.logger.Debug("Running ", colors.Bold, s.binaryPath, colors.Reset, " with ", len(request.Sources), " source(s)")
		stdout, stderr, err := s.run(ctx, workingDirectory, s.binaryPath, []string{"--standard-json"}, b)
		if err != nil {
			return nil, fmt.Errorf("error while executing %s:\n%s\n\nCommand Output:\n%s\n", s.binaryPath, err.Error(), string(stderr))
		}

		result, err := types.ParseCompilationResult(stdout)
		if err != nil {
			return nil, fmt.Errorf("could not parse %s output: %v\n\nCommand Output:\n%s%s\n", s.binaryPath, err, string(stdout), string(stderr))
		}

		// Determine which sources the compiler asked for that we have not supplied yet
		missing := missingSources(result, request, requested)
		if len(missing) == 0 {
			return stdout, nil
		}

		for _, path := range missing {
			requested[path] = true
			importResult := callback(path)
			if importResult.Err != nil {
				// Surface the failure as a well-formed diagnostic rather than an opaque fault
				result.Errors = append(result.Errors, types.Diagnostic{
					Severity:         types.SeverityError,
					Type:             "ImportResolutionError",
					Component:        "general",
					Message:          importResult.Err.Error(),
					FormattedMessage: fmt.Sprintf("ImportResolutionError: Source %q not found: %v", path, importResult.Err),
				})
				return json.Marshal(result)
			}
			s.logger.Debug("Resolved import ", colors.Bold, path, colors.Reset)
			request.AddSource(path, importResult.Contents)
		}
	}
}

// missingSources returns, in diagnostic order, the import paths the compiler reported as not found which are neither
// part of the request nor were requested before.
func missingSources(result *types.CompilationResult, request *types.CompilationRequest, requested map[string]bool) []string {
	missing := make([]string, 0)
	seen := make(map[string]bool)
	for _, diagnostic := range result.Errors {
		match := missingSourceExp.FindStringSubmatch(diagnostic.Message)
		if match == nil {
			continue
		}
		path := match[1]
		if seen[path] || requested[path] || request.HasSource(path) {
			continue
		}
		seen[path] = true
		missing = append(missing, path)
	}
	return missing
}

// runCommand is the commandRunner used outside of tests.
func runCommand(ctx context.Context, workingDirectory string, name string, args []string, stdin []byte) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = workingDirectory
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	stdout, stderr, _, err := utils.RunCommandWithOutputAndError(cmd)
	return stdout, stderr, err
}
