package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/solbuild/cmd/exitcodes"
	"github.com/crytic/solbuild/compilation"
	"github.com/crytic/solbuild/compilation/types"
	"github.com/crytic/solbuild/logging/colors"
	"github.com/spf13/cobra"
)

// compileCmd represents the command provider for compile
var compileCmd = &cobra.Command{
	Use:   "compile <directory> <contract>",
	Short: "Compiles a single contract and emits its artifact",
	Long: `Compiles <directory>/<contract>.sol with solc's standard JSON interface and emits the artifact of the
contract named <contract>: its ABI, bytecode object and method identifiers.

Imports are resolved relative to <directory>, then its parent directory, then the dependency root.`,
	Args:              cmdValidateCompileArgs,
	ValidArgsFunction: cmdValidCompileArgs,
	RunE:              cmdRunCompile,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	// Add all the flags allowed for the compile command
	err := addCompileFlags()
	if err != nil {
		cmdLogger.Panic("Failed to initialize the compile command", err)
	}

	// Add the compile command and its associated flags to the root command
	rootCmd.AddCommand(compileCmd)
}

// cmdValidCompileArgs will return which flags are valid for dynamic completion for the compile command. The
// positional arguments complete as file paths.
func cmdValidCompileArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) < 2 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	return unusedFlagCompletions(cmd), cobra.ShellCompDirectiveNoFileComp
}

// cmdValidateCompileArgs makes sure that exactly a directory and a contract name were provided
func cmdValidateCompileArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(2)(cmd, args); err != nil {
		err = fmt.Errorf("compile requires exactly 2 positional arguments: <directory> <contract>")
		cmdLogger.Error("Failed to validate args to the compile command", err)
		return err
	}
	return nil
}

// cmdRunCompile executes the compile CLI command
func cmdRunCompile(cmd *cobra.Command, args []string) error {
	directory, contractName := args[0], args[1]

	verifySelectors, err := cmd.Flags().GetBool("verify-selectors")
	if err != nil {
		cmdLogger.Error("Failed to run the compile command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	projectConfig, err := loadProjectConfig(cmd)
	if err != nil {
		cmdLogger.Error("Failed to run the compile command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	// Update the project configuration given whatever flags were set using the CLI
	err = updateProjectConfigWithCompileFlags(cmd, projectConfig)
	if err != nil {
		cmdLogger.Error("Failed to run the compile command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	err = projectConfig.Validate()
	if err != nil {
		cmdLogger.Error("Failed to run the compile command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	closeLogs, err := configureLogging(projectConfig)
	if err != nil {
		cmdLogger.Error("Failed to run the compile command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}
	defer closeLogs()

	compiler, err := compilation.NewSourceCompilerFromConfig(projectConfig.Compilation)
	if err != nil {
		cmdLogger.Error("Failed to run the compile command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	// Artifact change notifications are optional
	if projectConfig.Compilation.ArtifactHashDirectory != "" {
		store, err := compilation.OpenArtifactHashStore(projectConfig.Compilation.ArtifactHashDirectory)
		if err != nil {
			cmdLogger.Warn("Artifact hash notifications are disabled", err)
		} else {
			defer store.Close()
			compiler.SetArtifactHashStore(store)
		}
	}

	// Stop the compiler on keyboard interrupts
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	contract, err := compiler.Compile(ctx, directory, contractName)
	if err != nil {
		logCompilationError(contractName, err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeCompilationError)
	}

	if metadata := contract.Metadata(); metadata != nil {
		cmdLogger.Debug("Contract metadata reports compiler version ", metadata.CompilerVersion(), " and metadata hash ", fmt.Sprintf("%x", metadata.ExtractBytecodeHash()))
	}

	if verifySelectors {
		if err = contract.VerifyMethodIdentifiers(); err != nil {
			cmdLogger.Error("Method identifiers of ", contractName, " do not match its ABI", err)
			return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeCompilationError)
		}
	}

	err = linkLibraries(cmd, contractName, contract)
	if err != nil {
		cmdLogger.Error("Failed to link libraries into ", contractName, err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	err = writeArtifact(cmd, contract)
	if err != nil {
		cmdLogger.Error("Failed to write the contract artifact", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}
	return nil
}

// logCompilationError reports a failed compilation with a message tailored to the kind of failure.
func logCompilationError(contractName string, err error) {
	var (
		readErr     *compilation.ReadError
		importErr   *compilation.ImportResolutionError
		compilerErr *compilation.CompilerError
		lookupErr   *compilation.LookupError
	)
	switch {
	case errors.As(err, &readErr):
		cmdLogger.Error("Could not read the source of ", colors.Bold, contractName, colors.Reset, err)
	case errors.As(err, &importErr):
		cmdLogger.Error("Could not resolve import ", colors.Bold, importErr.Path, colors.Reset, err)
	case errors.As(err, &compilerErr):
		for _, diagnostic := range compilerErr.ErrorDiagnostics() {
			cmdLogger.Error(colors.Red, diagnostic.String())
		}
		cmdLogger.Error("Failed to compile ", colors.Bold, contractName, colors.Reset, err)
	case errors.As(err, &lookupErr):
		cmdLogger.Error("Compilation succeeded but ", colors.Bold, contractName, colors.Reset, " was not produced", err)
	default:
		cmdLogger.Error("Failed to compile ", colors.Bold, contractName, colors.Reset, err)
	}
}

// linkLibraries links the libraries provided through --link into the contract bytecode and warns about any
// placeholders that remain.
func linkLibraries(cmd *cobra.Command, contractName string, contract *types.CompiledContract) error {
	links, err := cmd.Flags().GetStringToString("link")
	if err != nil {
		return err
	}
	deployedLibraries, err := parseLibraryLinks(links)
	if err != nil {
		return err
	}
	if len(deployedLibraries) > 0 {
		contract.LinkBytecode(deployedLibraries)
	}

	if !contract.IsLinked() {
		cmdLogger.Warn("Bytecode of ", colors.Bold, contractName, colors.Reset, " still contains ", len(contract.LibraryPlaceholders), " unlinked library placeholder(s)")
		return nil
	}
	bytecode, err := contract.InitBytecodeBytes()
	if err != nil {
		return err
	}
	cmdLogger.Debug("Creation bytecode of ", contractName, " is ", len(bytecode), " bytes")
	return nil
}

// parseLibraryLinks converts "<source>:<library>" to address pairs into deployed library addresses.
func parseLibraryLinks(links map[string]string) (map[string]common.Address, error) {
	deployedLibraries := make(map[string]common.Address, len(links))
	for libraryName, address := range links {
		if !strings.Contains(libraryName, ":") {
			return nil, fmt.Errorf("library '%s' must be fully qualified as <source>:<library>", libraryName)
		}
		if !common.IsHexAddress(address) {
			return nil, fmt.Errorf("invalid address '%s' for library '%s'", address, libraryName)
		}
		deployedLibraries[libraryName] = common.HexToAddress(address)
	}
	return deployedLibraries, nil
}

// writeArtifact writes the artifact JSON to the --out path, or to the command's output if none was provided.
func writeArtifact(cmd *cobra.Command, contract *types.CompiledContract) error {
	b, err := json.MarshalIndent(contract, "", "\t")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	outputPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	if outputPath == "" {
		_, err = cmd.OutOrStdout().Write(b)
		return err
	}

	err = os.WriteFile(outputPath, b, 0644)
	if err != nil {
		return err
	}
	cmdLogger.Info("Contract artifact written to: ", colors.Bold, outputPath, colors.Reset)
	return nil
}
