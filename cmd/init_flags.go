package cmd

import (
	"github.com/crytic/solbuild/config"
	"github.com/spf13/cobra"
)

// addInitFlags adds the various flags for the init command
func addInitFlags() error {
	// Output path for configuration
	initCmd.Flags().String("out", "", "output path for the new project configuration file")

	// Compilation settings
	initCmd.Flags().String("compiler", "", "path to the compiler executable")
	initCmd.Flags().String("evm-version", "", "evm version to target")
	initCmd.Flags().String("dependency-root", "", "directory searched last for imports, relative to the parent of the source directory")
	return nil
}

// updateProjectConfigWithInitFlags will update the given projectConfig with any CLI arguments that were provided to the init command
func updateProjectConfigWithInitFlags(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
	var err error
	if cmd.Flags().Changed("compiler") {
		projectConfig.Compilation.CompilerPath, err = cmd.Flags().GetString("compiler")
		if err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("evm-version") {
		projectConfig.Compilation.EVMVersion, err = cmd.Flags().GetString("evm-version")
		if err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("dependency-root") {
		projectConfig.Compilation.DependencyRoot, err = cmd.Flags().GetString("dependency-root")
		if err != nil {
			return err
		}
	}
	return nil
}
