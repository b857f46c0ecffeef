package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/crytic/codetwin/library"
	"github.com/crytic/codetwin/logging/colors"
	"github.com/crytic/codetwin/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// libraryCmd represents the command provider for inspecting the legend library
var libraryCmd = &cobra.Command{
	Use:               "library",
	Short:             "Lists the legends in the library",
	Long:              `Loads the legend library and lists every legend along with its normalization statistics`,
	Args:              cobra.NoArgs,
	ValidArgsFunction: cmdValidUnusedFlags,
	RunE:              cmdRunLibrary,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	libraryCmd.Flags().SortFlags = false
	libraryCmd.Flags().String("config", "", "path to config file")
	libraryCmd.Flags().String("library", "", "path to the legend library (overrides the project configuration)")
	libraryCmd.Flags().String("category", "", "only list legends of this category")
	rootCmd.AddCommand(libraryCmd)
}

// cmdRunLibrary executes the library CLI command
func cmdRunLibrary(cmd *cobra.Command, args []string) error {
	projectConfig, err := loadProjectConfig(cmd)
	if err != nil {
		cmdLogger.Error("Failed to run the library command", err)
		return err
	}
	if cmd.Flags().Changed("library") {
		projectConfig.Library.Path, err = cmd.Flags().GetString("library")
		if err != nil {
			return err
		}
	}
	category, err := cmd.Flags().GetString("category")
	if err != nil {
		return err
	}

	lib, err := library.LoadLibraryFromFile(context.Background(), projectConfig.Library.Path, projectConfig.Analysis.ChunkSize)
	if err != nil {
		cmdLogger.Error("Failed to load the legend library", err)
		return err
	}

	legends := lib.Legends()
	if category != "" {
		legends = utils.SliceWhere(legends, func(legend library.ProcessedLegend) bool {
			return strings.EqualFold(legend.Category, category)
		})
	}
	return errors.WithStack(writeLegends(os.Stdout, legends))
}

// writeLegends writes one line per legend followed by the categories they span.
func writeLegends(w io.Writer, legends []library.ProcessedLegend) error {
	var sb strings.Builder
	for _, legend := range legends {
		sb.WriteString(fmt.Sprintf("%s %s [%s] %s, %d bytes normalized, %d chunks\n", colors.GreenBold(colors.LEFT_ARROW),
			colors.Bold(legend.ID), legend.Category, legend.Name, legend.Normalization.NormalizedSize, len(legend.Chunks)))
	}

	categories := uniqueStrings(utils.SliceSelect(legends, func(legend library.ProcessedLegend) string {
		return legend.Category
	}))
	sb.WriteString(fmt.Sprintf("%d legend(s) across %d categories: %s\n", len(legends), len(categories),
		strings.Join(categories, ", ")))

	_, err := io.WriteString(w, sb.String())
	return err
}

// uniqueStrings returns the distinct non-empty values in x, keeping the order they first appear in.
func uniqueStrings(x []string) []string {
	seen := make(map[string]struct{}, len(x))
	unique := make([]string, 0, len(x))
	for _, s := range x {
		if _, ok := seen[s]; ok || s == "" {
			continue
		}
		seen[s] = struct{}{}
		unique = append(unique, s)
	}
	return unique
}
