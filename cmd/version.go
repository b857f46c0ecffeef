package cmd

import (
	"fmt"

	"github.com/crytic/codetwin/version"
	"github.com/spf13/cobra"
)

// versionCmd represents the version command that displays build information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build information",
	Long: `Print the version of codetwin along with the git commit and Go version it was built from.

Pass --short for a single-line version suitable for scripts.`,
	Run: func(cmd *cobra.Command, args []string) {
		info := version.GetInfo()
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Println(info.Short())
			return
		}
		fmt.Print(info.String())
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "print a single-line version")
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version.GetInfo().Short()
}
