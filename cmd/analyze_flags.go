package cmd

import (
	"fmt"

	"github.com/crytic/codetwin/config"
	"github.com/spf13/cobra"
)

// addAnalyzeFlags adds the various flags for the analyze command
func addAnalyzeFlags() error {
	defaultConfig := config.GetDefaultProjectConfig()

	// Prevent alphabetical sorting of usage message
	analyzeCmd.Flags().SortFlags = false

	// Config file
	analyzeCmd.Flags().String("config", "", "path to config file")

	// RPC endpoint
	analyzeCmd.Flags().String("rpc", "", "JSON-RPC endpoint contract code is read from")

	// Block number
	analyzeCmd.Flags().Uint64("block", 0,
		"block number chain reads are pinned to (unless a config file is provided, default reads at the latest block)")

	// Library path
	analyzeCmd.Flags().String("library", "",
		fmt.Sprintf("path to the legend library (unless a config file is provided, default is %q)", defaultConfig.Library.Path))

	// Max proxy depth
	analyzeCmd.Flags().Int("max-depth", 0,
		fmt.Sprintf("maximum amount of proxy hops to follow (unless a config file is provided, default is %d)", defaultConfig.Analysis.MaxProxyDepth))

	// Top matches
	analyzeCmd.Flags().Int("top", 0,
		fmt.Sprintf("number of best matches to report (unless a config file is provided, default is %d)", defaultConfig.Analysis.TopMatches))

	// Match threshold
	analyzeCmd.Flags().Float64("threshold", 0,
		fmt.Sprintf("score at or above which a match is a clone (unless a config file is provided, default is %v)", defaultConfig.Analysis.MatchThreshold))

	// Number of workers
	analyzeCmd.Flags().Int("workers", 0,
		fmt.Sprintf("number of addresses analyzed concurrently (unless a config file is provided, default is %d)", defaultConfig.Analysis.Workers))

	// Disable the result cache
	analyzeCmd.Flags().Bool("no-cache", false, "disable the analysis result cache")

	// JSON output
	analyzeCmd.Flags().Bool("json", false, "print reports as JSON")

	// Exit code on clones
	analyzeCmd.Flags().Bool("fail-on-match", false, "exit with a non-zero code if any contract is a clone")

	// Metrics summary
	analyzeCmd.Flags().Bool("metrics", false, "log a summary of the run's metrics once analysis completes")
	return nil
}

// updateProjectConfigWithAnalyzeFlags will update the given projectConfig with any CLI arguments that were provided to
// the analyze command
func updateProjectConfigWithAnalyzeFlags(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
	var err error

	// Update the RPC endpoint
	if cmd.Flags().Changed("rpc") {
		projectConfig.RPC.URL, err = cmd.Flags().GetString("rpc")
		if err != nil {
			return err
		}
	}

	// Update the block number
	if cmd.Flags().Changed("block") {
		projectConfig.RPC.BlockNumber, err = cmd.Flags().GetUint64("block")
		if err != nil {
			return err
		}
	}

	// Update the library path
	if cmd.Flags().Changed("library") {
		projectConfig.Library.Path, err = cmd.Flags().GetString("library")
		if err != nil {
			return err
		}
	}

	// Update the max proxy depth
	if cmd.Flags().Changed("max-depth") {
		projectConfig.Analysis.MaxProxyDepth, err = cmd.Flags().GetInt("max-depth")
		if err != nil {
			return err
		}
	}

	// Update the number of reported matches
	if cmd.Flags().Changed("top") {
		projectConfig.Analysis.TopMatches, err = cmd.Flags().GetInt("top")
		if err != nil {
			return err
		}
	}

	// Update the match threshold
	if cmd.Flags().Changed("threshold") {
		projectConfig.Analysis.MatchThreshold, err = cmd.Flags().GetFloat64("threshold")
		if err != nil {
			return err
		}
	}

	// Update number of workers
	if cmd.Flags().Changed("workers") {
		projectConfig.Analysis.Workers, err = cmd.Flags().GetInt("workers")
		if err != nil {
			return err
		}
	}

	// Disable the cache
	if cmd.Flags().Changed("no-cache") {
		noCache, err := cmd.Flags().GetBool("no-cache")
		if err != nil {
			return err
		}
		projectConfig.Cache.Enabled = !noCache
	}
	return nil
}
