package compilation

import (
	"path/filepath"
	"strings"

	"github.com/crytic/solbuild/compilation/sources"
	"github.com/crytic/solbuild/compilation/types"
)

// ImportResolver locates the sources of imports requested by the compiler. For an import path it tries, in order:
//  1. <directory>/<path>
//  2. <directory>/../<path>
//  3. <directory>/../<dependencyRoot>/<path>
//
// The first readable location wins. The third location is skipped when no dependency root is configured.
type ImportResolver struct {
	directory      string
	dependencyRoot string
	reader         sources.Reader
}

// NewImportResolver creates an ImportResolver for sources compiled from directory.
func NewImportResolver(directory string, dependencyRoot string, reader sources.Reader) *ImportResolver {
	return &ImportResolver{
		directory:      directory,
		dependencyRoot: dependencyRoot,
		reader:         reader,
	}
}

// Candidates returns the file paths tried for an import path, in resolution order. The ".." segments are kept in the
// returned paths so the file system resolves them, following symlinks the same way the shell would.
func (r *ImportResolver) Candidates(path string) []string {
	path = filepath.FromSlash(path)
	candidates := []string{
		joinUncleaned(r.directory, path),
		joinUncleaned(r.directory, "..", path),
	}
	if r.dependencyRoot != "" {
		candidates = append(candidates, joinUncleaned(r.directory, "..", filepath.FromSlash(r.dependencyRoot), path))
	}
	return candidates
}

// joinUncleaned joins path elements with the separator without lexically resolving "." or ".." segments.
func joinUncleaned(elements ...string) string {
	return strings.Join(elements, string(filepath.Separator))
}

// Resolve returns the content of the first candidate location that can be read, or an *ImportResolutionError naming
// every location that was tried.
func (r *ImportResolver) Resolve(path string) types.ImportResult {
	candidates := r.Candidates(path)
	causes := make([]error, 0, len(candidates))
	for _, candidate := range candidates {
		content, err := r.reader.ReadSource(candidate)
		if err == nil {
			return types.ImportResult{Contents: content}
		}
		causes = append(causes, err)
	}
	return types.ImportResult{
		Err: &ImportResolutionError{
			Path:      path,
			Attempted: candidates,
			Causes:    causes,
		},
	}
}

// Callback adapts the resolver to the signature expected by the compiler boundary.
func (r *ImportResolver) Callback() types.ImportCallback {
	return r.Resolve
}
