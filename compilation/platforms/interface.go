package platforms

import (
	"context"

	"github.com/Masterminds/semver"
	"github.com/crytic/solbuild/compilation/types"
)

// Compiler describes the compiler invocation boundary. Implementations accept a JSON-serialized
// types.CompilationRequest and return a JSON-serialized types.CompilationResult. Imports the compiler cannot find
// among the submitted sources are requested through the provided callback.
type Compiler interface {
	// Platform returns the identifier of the compiler backend.
	Platform() string

	// Version returns the version of the underlying compiler.
	Version(ctx context.Context) (*semver.Version, error)

	// CompileStandardJSON compiles the given standard JSON input synchronously. Diagnostics reported by the compiler
	// are part of the returned output and are not an error. An error is returned only if the compiler could not be
	// invoked or produced output that is not a standard JSON result.
	CompileStandardJSON(ctx context.Context, input []byte, callback types.ImportCallback) ([]byte, error)
}
