package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	// CompilerPathEnvVar overrides the compiler executable path.
	CompilerPathEnvVar = "SOLBUILD_COMPILER_PATH"
	// EVMVersionEnvVar overrides the targeted EVM version.
	EVMVersionEnvVar = "SOLBUILD_EVM_VERSION"
	// DependencyRootEnvVar overrides the dependency root searched for imports.
	DependencyRootEnvVar = "SOLBUILD_DEPENDENCY_ROOT"
)

// ApplyEnvironment overrides configuration values with environment variables. Variables defined in the process
// environment take precedence over those in envFile, which is read with dotenv syntax if it exists. An empty envFile
// only consults the process environment.
func (p *ProjectConfig) ApplyEnvironment(envFile string) error {
	dotenv := make(map[string]string)
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			dotenv, err = godotenv.Read(envFile)
			if err != nil {
				return errors.Wrapf(err, "could not read environment file '%s'", envFile)
			}
		}
	}

	lookup := func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}
		value, ok := dotenv[key]
		return value, ok
	}

	if value, ok := lookup(CompilerPathEnvVar); ok {
		p.Compilation.CompilerPath = value
	}
	if value, ok := lookup(EVMVersionEnvVar); ok {
		p.Compilation.EVMVersion = value
	}
	if value, ok := lookup(DependencyRootEnvVar); ok {
		p.Compilation.DependencyRoot = value
	}
	return nil
}
