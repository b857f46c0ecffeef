package cmd

import (
	"github.com/crytic/codetwin/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "codetwin",
	Short: "A bytecode fingerprinting tool for deployed smart contracts",
	Long: "codetwin resolves proxies, normalizes deployed bytecode and scores it against a library of known contracts " +
		"to find clones",
}

// cmdLogger is the logger used by the CLI. It is replaced once a project configuration has been read.
var cmdLogger = logging.NewLogger(zerolog.InfoLevel, true).NewSubLogger("module", logging.CLI_SERVICE)

func Execute() error {
	return rootCmd.Execute()
}
