package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/crytic/codetwin/config"
	"github.com/crytic/codetwin/logging"
	"github.com/crytic/codetwin/logging/colors"
	"github.com/crytic/codetwin/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cmdValidUnusedFlags will return the flags which have not been used yet for dynamic completion of a command
func cmdValidUnusedFlags(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var unusedFlags []string

	// The "--" prefix marks the suggestions as flags rather than positional arguments
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed {
			unusedFlags = append(unusedFlags, "--"+flag.Name)
		}
	})
	return unusedFlags, cobra.ShellCompDirectiveNoFileComp
}

// loadProjectConfig resolves the project configuration of a command through the following possibilities:
// #1: We will search for either a custom config file (via --config) or the default (codetwin.json).
// If we find it, read it. If we can't read it, throw an error.
// #2: If a custom file was provided (--config was used), and we can't find the file, throw an error.
// #3: If codetwin.json can't be found, use the default project configuration.
func loadProjectConfig(cmd *cobra.Command) (*config.ProjectConfig, error) {
	configFlagUsed := cmd.Flags().Changed("config")
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If --config was not used, look for `codetwin.json` in the current work directory
	if !configFlagUsed {
		workingDirectory, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		configPath = filepath.Join(workingDirectory, DefaultProjectConfigFilename)
	}

	_, existenceError := os.Stat(configPath)

	// Possibility #1: File was found
	if existenceError == nil {
		cmdLogger.Info("Reading the configuration file at: ", colors.Bold, configPath, colors.Reset)
		return config.ReadProjectConfigFromFile(configPath)
	}

	// Possibility #2: If the --config flag was used, and we couldn't find the file, we'll throw an error
	if configFlagUsed {
		return nil, existenceError
	}

	// Possibility #3: --config flag was not used and codetwin.json was not found, so use the default project config
	cmdLogger.Debug(fmt.Sprintf("Unable to find the config file at %v, will use the default project configuration", configPath))
	return config.GetDefaultProjectConfig(), nil
}

// setupLogging replaces the global logger with one honoring the provided logging configuration. If a log directory is
// configured, structured logs are also written to a new file within it, which the caller must close.
func setupLogging(loggingConfig config.LoggingConfig) (io.Closer, error) {
	logger := logging.NewLogger(loggingConfig.Level, loggingConfig.EnableConsoleLogging)

	var logFile *os.File
	if loggingConfig.LogDirectory != "" {
		fileName := fmt.Sprintf("%s-%s.log", LogFilePrefix, time.Now().Format("2006-01-02-15-04-05"))
		var err error
		logFile, err = utils.CreateFile(loggingConfig.LogDirectory, fileName)
		if err != nil {
			return nil, err
		}
		logger.AddWriter(logFile, logging.STRUCTURED)
	}

	logging.GlobalLogger = logger
	cmdLogger = logger.NewSubLogger("module", logging.CLI_SERVICE)
	if logFile == nil {
		return io.NopCloser(nil), nil
	}
	return logFile, nil
}
