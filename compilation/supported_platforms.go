package compilation

import (
	"fmt"

	"github.com/crytic/solbuild/compilation/platforms"
	"golang.org/x/exp/slices"
)

// compilerGenerators is a mapping of platform identifier to a function which creates a compiler backend for a given
// binary path. Each platform which provides a generator in this mapping is considered a supported compilation
// platform. Items are populated in the init method.
var compilerGenerators map[string]func(binaryPath string) platforms.Compiler

// init populates compilerGenerators with the supported platforms.
func init() {
	generators := []func(binaryPath string) platforms.Compiler{
		func(binaryPath string) platforms.Compiler { return platforms.NewSolcCompiler(binaryPath) },
		func(binaryPath string) platforms.Compiler { return platforms.NewSolcJSCompiler(binaryPath) },
	}

	compilerGenerators = make(map[string]func(binaryPath string) platforms.Compiler)
	for _, generator := range generators {
		platformId := generator("").Platform()

		// Each platform should have a unique identifier.
		if _, platformIdExists := compilerGenerators[platformId]; platformIdExists {
			panic(fmt.Errorf("the compilation platform '%s' is registered with more than one provider", platformId))
		}
		compilerGenerators[platformId] = generator
	}
}

// GetSupportedCompilationPlatforms obtains a sorted list of platform identifiers supported by this package.
func GetSupportedCompilationPlatforms() []string {
	platformIds := make([]string, 0, len(compilerGenerators))
	for platformId := range compilerGenerators {
		platformIds = append(platformIds, platformId)
	}
	slices.Sort(platformIds)
	return platformIds
}

// IsSupportedCompilationPlatform returns a boolean status indicating if a platform identifier is supported within this
// package.
func IsSupportedCompilationPlatform(platform string) bool {
	_, ok := compilerGenerators[platform]
	return ok
}

// NewCompiler creates the compiler backend for a platform. An empty binaryPath selects the platform's default binary.
func NewCompiler(platform string, binaryPath string) (platforms.Compiler, error) {
	generator, ok := compilerGenerators[platform]
	if !ok {
		return nil, fmt.Errorf("could not create compiler: platform '%s' is unsupported", platform)
	}
	return generator(binaryPath), nil
}
