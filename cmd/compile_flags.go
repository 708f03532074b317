package cmd

import (
	"fmt"

	"github.com/crytic/solbuild/config"
	"github.com/spf13/cobra"
)

// addCompileFlags adds the various flags for the compile command
func addCompileFlags() error {
	defaultConfig := config.GetDefaultProjectConfig()

	// Prevent alphabetical sorting of usage message
	compileCmd.Flags().SortFlags = false

	// Config file
	compileCmd.Flags().String("config", "", "path to config file")

	// Output path
	compileCmd.Flags().String("out", "", "path to write the contract artifact to (default is stdout)")

	// Compiler executable
	compileCmd.Flags().String("compiler", "",
		fmt.Sprintf("path to the compiler executable (unless a config file is provided, default is %q resolved through PATH)", defaultConfig.Compilation.Platform))

	// EVM version
	compileCmd.Flags().String("evm-version", "",
		fmt.Sprintf("evm version to target (unless a config file is provided, default is %q)", defaultConfig.Compilation.EVMVersion))

	// Dependency root
	compileCmd.Flags().String("dependency-root", "",
		fmt.Sprintf("directory searched last for imports, relative to the parent of the source directory (unless a config file is provided, default is %q)", defaultConfig.Compilation.DependencyRoot))

	// Optimizer runs
	compileCmd.Flags().Int("optimizer-runs", 0,
		fmt.Sprintf("number of optimizer runs (unless a config file is provided, default is %d)", defaultConfig.Compilation.Optimizer.Runs))

	// Selector verification
	compileCmd.Flags().Bool("verify-selectors", false, "recompute the selector mapping from the ABI and fail on mismatches")

	// Library links
	compileCmd.Flags().StringToString("link", nil, "library addresses to link into the bytecode, as <source>:<library>=<address> pairs")

	// Colors
	compileCmd.Flags().Bool("no-color", false, "disable colored console output")
	return nil
}

// updateProjectConfigWithCompileFlags will update the given projectConfig with any CLI arguments that were provided to
// the compile command
func updateProjectConfigWithCompileFlags(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
	var err error

	// If --compiler was used
	if cmd.Flags().Changed("compiler") {
		projectConfig.Compilation.CompilerPath, err = cmd.Flags().GetString("compiler")
		if err != nil {
			return err
		}
	}

	// If --evm-version was used
	if cmd.Flags().Changed("evm-version") {
		projectConfig.Compilation.EVMVersion, err = cmd.Flags().GetString("evm-version")
		if err != nil {
			return err
		}
	}

	// If --dependency-root was used
	if cmd.Flags().Changed("dependency-root") {
		projectConfig.Compilation.DependencyRoot, err = cmd.Flags().GetString("dependency-root")
		if err != nil {
			return err
		}
	}

	// If --optimizer-runs was used
	if cmd.Flags().Changed("optimizer-runs") {
		projectConfig.Compilation.Optimizer.Runs, err = cmd.Flags().GetInt("optimizer-runs")
		if err != nil {
			return err
		}
		projectConfig.Compilation.Optimizer.Enabled = true
	}

	// If --no-color was used
	if cmd.Flags().Changed("no-color") {
		projectConfig.Logging.NoColor, err = cmd.Flags().GetBool("no-color")
		if err != nil {
			return err
		}
	}
	return nil
}
