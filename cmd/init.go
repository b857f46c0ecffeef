package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/crytic/codetwin/config"
	"github.com/crytic/codetwin/logging/colors"
	"github.com/spf13/cobra"
)

// initCmd represents the command provider for init
var initCmd = &cobra.Command{
	Use:               "init",
	Short:             "Initializes a project configuration",
	Long:              `Writes the default project configuration, optionally updated with an RPC endpoint and library path`,
	Args:              cobra.NoArgs,
	ValidArgsFunction: cmdValidUnusedFlags,
	RunE:              cmdRunInit,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	initCmd.Flags().SortFlags = false
	initCmd.Flags().String("out", "", "output path for the new project configuration file")
	initCmd.Flags().String("rpc", "", "JSON-RPC endpoint contract code is read from")
	initCmd.Flags().String("library", "", "path to the legend library")

	// Add the init command and its associated flags to the root command
	rootCmd.AddCommand(initCmd)
}

// cmdRunInit executes the init CLI command and writes the project configuration with any flags applied
func cmdRunInit(cmd *cobra.Command, args []string) error {
	// Check to see if --out flag was used and store the value of --out flag
	outputFlagUsed := cmd.Flags().Changed("out")
	outputPath, err := cmd.Flags().GetString("out")
	if err != nil {
		cmdLogger.Error("Failed to run the init command", err)
		return err
	}
	// If we weren't provided an output path (flag was not used), we use our working directory
	if !outputFlagUsed {
		workingDirectory, err := os.Getwd()
		if err != nil {
			cmdLogger.Error("Failed to run the init command", err)
			return err
		}
		outputPath = filepath.Join(workingDirectory, DefaultProjectConfigFilename)
	}

	projectConfig := config.GetDefaultProjectConfig()
	if cmd.Flags().Changed("rpc") {
		if projectConfig.RPC.URL, err = cmd.Flags().GetString("rpc"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("library") {
		if projectConfig.Library.Path, err = cmd.Flags().GetString("library"); err != nil {
			return err
		}
	}

	if _, err = os.Stat(outputPath); err == nil {
		// Prompt user for overwrite confirmation
		fmt.Print("The file already exists. Overwrite? (y/n): ")
		var response string
		if _, err := fmt.Scan(&response); err != nil {
			cmdLogger.Error("Failed to scan input", err)
			return err
		}

		if response != "y" && response != "Y" {
			fmt.Println("Operation canceled.")
			return nil
		}
	}

	// Write our project configuration
	err = projectConfig.WriteToFile(outputPath)
	if err != nil {
		cmdLogger.Error("Failed to run the init command", err)
		return err
	}

	// Print a success message
	if absoluteOutputPath, err := filepath.Abs(outputPath); err == nil {
		outputPath = absoluteOutputPath
	}
	cmdLogger.Info("Project configuration successfully output to: ", colors.Bold, outputPath, colors.Reset)
	return nil
}
