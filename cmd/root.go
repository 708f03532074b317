package cmd

import (
	"os"

	"github.com/crytic/solbuild/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "solbuild",
	Short: "A Solidity single-contract compiler front-end",
	Long:  "solbuild compiles a single Solidity contract with solc's standard JSON interface and emits its artifact",
}

// cmdLogger is the logger that will be used for the cmd package
var cmdLogger = logging.NewLogger(zerolog.InfoLevel)

func init() {
	// Artifacts may be written to stdout, so console logs go to stderr
	cmdLogger.AddWriter(os.Stderr, logging.UNSTRUCTURED, true)
}

// Execute provides an exportable function to invoke the CLI. Returns an error if one was encountered.
func Execute() error {
	return rootCmd.Execute()
}
