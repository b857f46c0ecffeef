package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/crytic/codetwin/bytecode"
	"github.com/crytic/codetwin/cache"
	"github.com/crytic/codetwin/logging/colors"
	"github.com/crytic/codetwin/utils"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// normalizeCmd represents the command provider for normalizing raw bytecode
var normalizeCmd = &cobra.Command{
	Use:   "normalize <hex|@file>",
	Short: "Normalizes raw bytecode",
	Long: `Strips the compiler metadata trailer from raw bytecode and masks its embedded addresses. The bytecode is ` +
		`provided as hex, or as a path to a file holding hex when prefixed with '@'`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: cmdValidUnusedFlags,
	RunE:              cmdRunNormalize,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	normalizeCmd.Flags().String("out", "", "path the normalized bytecode hex is written to")
	rootCmd.AddCommand(normalizeCmd)
}

// cmdRunNormalize executes the normalize CLI command
func cmdRunNormalize(cmd *cobra.Command, args []string) error {
	input, err := utils.ReadInput(args[0])
	if err != nil {
		cmdLogger.Error("Failed to read the bytecode", err)
		return err
	}

	raw, err := bytecode.DecodeHex(input)
	if err != nil {
		cmdLogger.Error("Failed to decode the bytecode", err)
		return err
	}
	result := bytecode.Normalize(raw)

	fmt.Print(formatNormalization(raw, result))

	outputPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	if outputPath == "" {
		fmt.Println(hexutil.Encode(result.Normalized))
		return nil
	}

	if err = os.WriteFile(outputPath, []byte(hexutil.Encode(result.Normalized)), 0644); err != nil {
		err = errors.WithStack(err)
		cmdLogger.Error("Failed to write the normalized bytecode", err)
		return err
	}
	if absoluteOutputPath, err := filepath.Abs(outputPath); err == nil {
		outputPath = absoluteOutputPath
	}
	cmdLogger.Info("Normalized bytecode written to: ", colors.Bold, outputPath, colors.Reset)
	return nil
}

// formatNormalization formats the normalization statistics of raw bytecode, along with its compiler metadata.
func formatNormalization(raw []byte, result bytecode.NormalizedResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("original size:     %d bytes\n", result.OriginalSize))
	sb.WriteString(fmt.Sprintf("normalized size:   %d bytes\n", result.NormalizedSize))
	sb.WriteString(fmt.Sprintf("metadata stripped: %d bytes\n", result.MetadataStripped))
	sb.WriteString(fmt.Sprintf("addresses masked:  %d\n", result.AddressesMasked))
	sb.WriteString(fmt.Sprintf("fingerprint:       %s\n", cache.Fingerprint(result.Normalized).Hex()))

	if metadata := bytecode.ExtractMetadata(raw); metadata != nil {
		if version, err := metadata.CompilerVersion(); err == nil {
			sb.WriteString(fmt.Sprintf("compiler:          %s\n", version.String()))
		}
		if hash := metadata.BytecodeHash(); hash != nil {
			sb.WriteString(fmt.Sprintf("source hash:       %s\n", hexutil.Encode(hash)))
		}
	}
	return sb.String()
}
