package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/crytic/solbuild/config"
	"github.com/crytic/solbuild/logging"
	"github.com/crytic/solbuild/logging/colors"
	"github.com/crytic/solbuild/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// unusedFlagCompletions returns every flag of the command which has not been set yet, for dynamic completion.
func unusedFlagCompletions(cmd *cobra.Command) []string {
	var unusedFlags []string
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed {
			// The "--" prefix marks these as flags rather than positional arguments
			unusedFlags = append(unusedFlags, "--"+flag.Name)
		}
	})
	return unusedFlags
}

// loadProjectConfig resolves the project configuration for a command:
// #1: If --config was provided, that file must exist and is read.
// #2: Otherwise solbuild.json in the working directory is read if it exists.
// #3: Otherwise the default project configuration is used.
// Environment overrides from the process and the working directory's .env file are applied last.
func loadProjectConfig(cmd *cobra.Command) (*config.ProjectConfig, error) {
	configFlagUsed := cmd.Flags().Changed("config")
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	workingDirectory, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if !configFlagUsed {
		configPath = filepath.Join(workingDirectory, DefaultProjectConfigFilename)
	}

	var projectConfig *config.ProjectConfig
	if _, existenceError := os.Stat(configPath); existenceError == nil {
		cmdLogger.Info("Reading the configuration file at: ", colors.Bold, configPath, colors.Reset)
		projectConfig, err = config.ReadProjectConfigFromFile(configPath)
		if err != nil {
			return nil, err
		}
	} else if configFlagUsed {
		return nil, existenceError
	} else {
		cmdLogger.Debug(fmt.Sprintf("Unable to find the config file at %v, will use the default project configuration", configPath))
		projectConfig = config.GetDefaultProjectConfig()
	}

	err = projectConfig.ApplyEnvironment(filepath.Join(workingDirectory, DefaultEnvironmentFilename))
	if err != nil {
		return nil, err
	}
	return projectConfig, nil
}

// configureLogging replaces the global logger with one honoring the project's logging configuration. The returned
// function releases any log file that was opened.
func configureLogging(projectConfig *config.ProjectConfig) (func(), error) {
	if projectConfig.Logging.NoColor {
		colors.DisableColor()
		cmdLogger.RemoveWriter(os.Stderr, logging.UNSTRUCTURED, true)
		cmdLogger.AddWriter(os.Stderr, logging.UNSTRUCTURED, false)
	}

	logging.GlobalLogger = logging.NewLogger(projectConfig.Logging.Level)
	logging.GlobalLogger.AddWriter(os.Stderr, logging.UNSTRUCTURED, !projectConfig.Logging.NoColor)
	cmdLogger.SetLevel(projectConfig.Logging.Level)

	if projectConfig.Logging.LogDirectory == "" {
		return func() {}, nil
	}

	file, err := utils.CreateFile(projectConfig.Logging.LogDirectory, fmt.Sprintf("solbuild-%d.log", time.Now().Unix()))
	if err != nil {
		return nil, err
	}
	logging.GlobalLogger.AddWriter(file, logging.STRUCTURED, false)
	return func() {
		logging.GlobalLogger.RemoveWriter(file, logging.STRUCTURED, false)
		_ = file.Close()
	}, nil
}
