package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/crytic/codetwin/analysis"
	"github.com/crytic/codetwin/cache"
	"github.com/crytic/codetwin/chain"
	"github.com/crytic/codetwin/cmd/exitcodes"
	"github.com/crytic/codetwin/config"
	"github.com/crytic/codetwin/library"
	"github.com/crytic/codetwin/logging/colors"
	"github.com/crytic/codetwin/metrics"
	"github.com/crytic/codetwin/similarity"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// analyzeCmd represents the command provider for analyzing deployed contracts
var analyzeCmd = &cobra.Command{
	Use:               "analyze <address>...",
	Short:             "Analyzes deployed contracts against the legend library",
	Long:              `Reads the code at each address, follows proxies to their implementation and scores the normalized bytecode against every legend in the library`,
	Args:              cmdValidateAnalyzeArgs,
	ValidArgsFunction: cmdValidUnusedFlags,
	RunE:              cmdRunAnalyze,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	// Add all the flags allowed for the analyze command
	err := addAnalyzeFlags()
	if err != nil {
		cmdLogger.Panic("Failed to initialize the analyze command", err)
	}

	// Add the analyze command and its associated flags to the root command
	rootCmd.AddCommand(analyzeCmd)
}

// cmdValidateAnalyzeArgs makes sure that at least one address is provided to the analyze command
func cmdValidateAnalyzeArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
		err = fmt.Errorf("analyze requires at least one contract address")
		cmdLogger.Error("Failed to validate args to the analyze command", err)
		return err
	}
	return nil
}

// analyzeResult describes the outcome of analyzing one address provided on the command line.
type analyzeResult struct {
	Target string           `json:"target"`
	Report *analysis.Report `json:"report,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// cmdRunAnalyze executes the CLI analyze command
func cmdRunAnalyze(cmd *cobra.Command, args []string) error {
	projectConfig, err := loadProjectConfig(cmd)
	if err != nil {
		cmdLogger.Error("Failed to run the analyze command", err)
		return err
	}

	// Update the project configuration given whatever flags were set using the CLI
	err = updateProjectConfigWithAnalyzeFlags(cmd, projectConfig)
	if err != nil {
		cmdLogger.Error("Failed to run the analyze command", err)
		return err
	}
	if err = projectConfig.Validate(); err != nil {
		cmdLogger.Error("Invalid project configuration", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}
	if projectConfig.RPC.URL == "" {
		err = errors.New("an RPC endpoint must be provided with --rpc or in the project configuration")
		cmdLogger.Error("Failed to run the analyze command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	failOnMatch, err := cmd.Flags().GetBool("fail-on-match")
	if err != nil {
		return err
	}
	printMetrics, err := cmd.Flags().GetBool("metrics")
	if err != nil {
		return err
	}

	logCloser, err := setupLogging(projectConfig.Logging)
	if err != nil {
		cmdLogger.Error("Failed to set up logging", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}
	defer logCloser.Close()

	// Stop analyzing on keyboard interrupts
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	lib, err := library.LoadLibraryFromFile(ctx, projectConfig.Library.Path, projectConfig.Analysis.ChunkSize)
	if err != nil {
		cmdLogger.Error("Failed to load the legend library", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}
	cmdLogger.Info("Loaded ", colors.Bold, lib.Len(), colors.Reset, " legends from ", projectConfig.Library.Path)

	backend, err := chain.NewRPCBackend(projectConfig.RPC.URL, projectConfig.RPC.BlockNumber, projectConfig.RPC.PoolSize,
		projectConfig.RPC.CacheDirectory, projectConfig.RPC.PersistCache)
	if err != nil {
		cmdLogger.Error("Failed to connect to the RPC endpoint", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}
	defer backend.Close()

	registry := prometheus.NewRegistry()
	analyzer := newAnalyzer(backend, lib, metrics.NewMetrics(registry), projectConfig)

	// Report progress as analyses complete
	var completed atomic.Int32
	analyzer.Events.AnalysisCompleted.Subscribe(func(event analysis.AnalysisCompletedEvent) {
		cmdLogger.Debug("Completed ", completed.Add(1), " of ", len(args), " analyses (", event.Duration.Round(time.Millisecond), ")")
	})

	results := analyzeAll(ctx, analyzer, args, projectConfig.Analysis.Workers)

	if jsonOutput {
		err = writeResultsJSON(os.Stdout, results)
	} else {
		err = writeResultsText(os.Stdout, results)
	}
	if err != nil {
		cmdLogger.Error("Failed to print the analysis results", err)
		return err
	}

	stats := analyzer.Cache().Stats()
	cmdLogger.Debug("Result cache holds ", stats.Size, " of ", stats.Capacity, " entries with ", stats.TotalHits, " hits")
	if printMetrics {
		lines, err := metrics.Summarize(registry)
		if err != nil {
			cmdLogger.Error("Failed to summarize metrics", err)
		}
		for _, line := range lines {
			cmdLogger.Info(line)
		}
	}

	failed, clones := 0, 0
	for _, result := range results {
		if result.Error != "" {
			failed++
		} else if result.Report.IsClone {
			clones++
		}
	}
	if failed > 0 {
		return exitcodes.NewErrorWithExitCode(errors.Errorf("%d of %d analyses failed", failed, len(results)),
			exitcodes.ExitCodeHandledError)
	}
	if failOnMatch && clones > 0 {
		return exitcodes.NewErrorWithExitCode(errors.Errorf("%d of %d contracts are clones", clones, len(results)),
			exitcodes.ExitCodeCloneDetected)
	}
	return nil
}

// newAnalyzer builds the analyzer described by the project configuration.
func newAnalyzer(backend chain.Backend, lib *library.Library, m *metrics.Metrics, projectConfig *config.ProjectConfig) *analysis.Analyzer {
	resultCache := cache.New[[]similarity.Match](projectConfig.Cache.Capacity, projectConfig.Cache.Enabled)
	return analysis.NewAnalyzer(backend, lib, resultCache, m, analysis.Config{
		MaxProxyDepth:  projectConfig.Analysis.MaxProxyDepth,
		TopMatches:     projectConfig.Analysis.TopMatches,
		MatchThreshold: projectConfig.Analysis.MatchThreshold,
	})
}

// analyzeAll analyzes every target with at most workers analyses in flight. Results keep the order of targets, and a
// failed analysis never stops the others.
func analyzeAll(ctx context.Context, analyzer *analysis.Analyzer, targets []string, workers int) []analyzeResult {
	results := make([]analyzeResult, len(targets))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			results[i].Target = target
			report, err := analyzer.Analyze(ctx, target)
			if err != nil {
				cmdLogger.Error("Failed to analyze ", colors.Bold, target, colors.Reset, err)
				results[i].Error = err.Error()
				return nil
			}
			results[i].Report = report
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// writeResultsJSON writes the results as an indented JSON array.
func writeResultsJSON(w io.Writer, results []analyzeResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return errors.WithStack(encoder.Encode(results))
}

// writeResultsText writes a human-readable summary of every result.
func writeResultsText(w io.Writer, results []analyzeResult) error {
	var sb strings.Builder
	for _, result := range results {
		sb.WriteString(formatResult(result))
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return errors.WithStack(err)
}

// formatResult formats a single result for console output.
func formatResult(result analyzeResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s\n", colors.GreenBold(colors.LEFT_ARROW), colors.Bold(result.Target)))

	if result.Error != "" {
		sb.WriteString(fmt.Sprintf("  %s %s\n", colors.RedBold("error:"), result.Error))
		return sb.String()
	}

	report := result.Report
	if report.NoCode {
		sb.WriteString("  no code at this address\n")
		return sb.String()
	}

	resolution := report.Resolution
	if resolution.Detection.IsProxy {
		sb.WriteString(fmt.Sprintf("  proxy:      %s via %s, %d hop(s), stopped: %s\n", resolution.Address.Hex(),
			resolution.Detection.Type, resolution.Hops, resolution.Stopped))
	}
	normalization := report.Normalization
	sb.WriteString(fmt.Sprintf("  bytecode:   %d bytes, %d normalized (%d metadata bytes stripped, %d addresses masked)\n",
		normalization.OriginalSize, normalization.NormalizedSize, normalization.MetadataStripped, normalization.AddressesMasked))
	if report.CompilerVersion != "" {
		sb.WriteString(fmt.Sprintf("  compiler:   %s\n", report.CompilerVersion))
	}
	sb.WriteString(fmt.Sprintf("  fingerprint: %s", report.Fingerprint.Hex()))
	if report.Cached {
		sb.WriteString(colors.DarkGray(" (cached)"))
	}
	sb.WriteString("\n")

	if len(report.Matches) == 0 {
		sb.WriteString("  matches:    none\n")
	} else {
		sb.WriteString("  matches:\n")
		for i, match := range report.Matches {
			line := fmt.Sprintf("    %d. %s [%s] %.2f%%", i+1, match.Name, match.Category, match.Score)
			if i == 0 && report.IsClone {
				line = colors.RedBold(line)
			}
			sb.WriteString(line + "\n")
		}
	}
	sb.WriteString(fmt.Sprintf("  verdict:    %s\n", report.Verdict))
	return sb.String()
}
