package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/crytic/codetwin/analysis"
	"github.com/crytic/codetwin/chain"
	"github.com/crytic/codetwin/config"
	"github.com/crytic/codetwin/library"
	"github.com/crytic/codetwin/logging"
	"github.com/crytic/codetwin/logging/colors"
	"github.com/crytic/codetwin/similarity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag of the command to its default once the test completes.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Cleanup(func() {
		cmd.Flags().VisitAll(func(flag *pflag.Flag) {
			_ = flag.Value.Set(flag.DefValue)
			flag.Changed = false
		})
	})
}

func TestUpdateProjectConfigWithAnalyzeFlags(t *testing.T) {
	resetFlags(t, analyzeCmd)
	require.NoError(t, analyzeCmd.ParseFlags([]string{
		"--rpc", "http://localhost:8545", "--block", "42", "--top", "3", "--threshold", "90.5", "--no-cache",
	}))

	projectConfig := config.GetDefaultProjectConfig()
	require.NoError(t, updateProjectConfigWithAnalyzeFlags(analyzeCmd, projectConfig))
	assert.Equal(t, "http://localhost:8545", projectConfig.RPC.URL)
	assert.EqualValues(t, 42, projectConfig.RPC.BlockNumber)
	assert.Equal(t, 3, projectConfig.Analysis.TopMatches)
	assert.Equal(t, 90.5, projectConfig.Analysis.MatchThreshold)
	assert.False(t, projectConfig.Cache.Enabled)

	// Flags which were not provided keep the configured values
	defaults := config.GetDefaultProjectConfig()
	assert.Equal(t, defaults.Analysis.Workers, projectConfig.Analysis.Workers)
	assert.Equal(t, defaults.Library.Path, projectConfig.Library.Path)
}

func TestLoadProjectConfig(t *testing.T) {
	resetFlags(t, libraryCmd)

	path := filepath.Join(t.TempDir(), "custom.json")
	projectConfig := config.GetDefaultProjectConfig()
	projectConfig.Library.Path = "custom-legends.json"
	require.NoError(t, projectConfig.WriteToFile(path))

	require.NoError(t, libraryCmd.ParseFlags([]string{"--config", path}))
	loaded, err := loadProjectConfig(libraryCmd)
	require.NoError(t, err)
	assert.Equal(t, "custom-legends.json", loaded.Library.Path)

	// An explicit config which does not exist is an error
	require.NoError(t, libraryCmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "missing.json")}))
	_, err = loadProjectConfig(libraryCmd)
	assert.Error(t, err)
}

func TestAnalyzeAllKeepsOrderAndErrors(t *testing.T) {
	colors.DisableColor()
	defer colors.EnableColor()

	code := common.FromHex("6080604052348015600f57600080fd5b506004361060285760003560e01c8063a9059cbb14602d575b600080fd5b")
	lib, err := library.NewLibrary(context.Background(), []library.Legend{
		{ID: "token", Name: "Token", Category: "token", Bytecode: code},
	}, similarity.DefaultChunkSize)
	require.NoError(t, err)

	target := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	backend := chain.NewStaticBackend().SetCode(target, code)
	projectConfig := config.GetDefaultProjectConfig()
	analyzer := newAnalyzer(backend, lib, nil, projectConfig)

	results := analyzeAll(context.Background(), analyzer, []string{target.Hex(), "not-an-address"}, 2)
	require.Len(t, results, 2)

	assert.Equal(t, target.Hex(), results[0].Target)
	require.NotNil(t, results[0].Report)
	assert.True(t, results[0].Report.IsClone)
	assert.Empty(t, results[0].Error)

	assert.Equal(t, "not-an-address", results[1].Target)
	assert.Nil(t, results[1].Report)
	assert.Contains(t, results[1].Error, "invalid address")

	text := formatResult(results[0])
	assert.Contains(t, text, "1. Token [token] 100.00%")
	assert.Contains(t, text, results[0].Report.Verdict)
	assert.Contains(t, formatResult(results[1]), "error:")

	var buf bytes.Buffer
	require.NoError(t, writeResultsJSON(&buf, results))
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Contains(t, decoded[0], "report")
	assert.NotContains(t, decoded[1], "report")
}

func TestFormatNoCodeResult(t *testing.T) {
	colors.DisableColor()
	defer colors.EnableColor()

	result := analyzeResult{Target: "0x01", Report: &analysis.Report{NoCode: true}}
	assert.Contains(t, formatResult(result), "no code at this address")
}

func TestWriteLegends(t *testing.T) {
	colors.DisableColor()
	defer colors.EnableColor()

	legends := []library.ProcessedLegend{
		{Legend: library.Legend{ID: "a", Name: "A", Category: "token"}},
		{Legend: library.Legend{ID: "b", Name: "B", Category: "dex"}},
		{Legend: library.Legend{ID: "c", Name: "C", Category: "token"}},
	}
	var buf bytes.Buffer
	require.NoError(t, writeLegends(&buf, legends))
	assert.Contains(t, buf.String(), "3 legend(s) across 2 categories: token, dex")
}

func TestSetupLoggingWritesLogFile(t *testing.T) {
	defer func(global, cli *logging.Logger) {
		logging.GlobalLogger, cmdLogger = global, cli
	}(logging.GlobalLogger, cmdLogger)

	dir := t.TempDir()
	closer, err := setupLogging(config.LoggingConfig{Level: config.GetDefaultProjectConfig().Logging.Level, LogDirectory: dir})
	require.NoError(t, err)

	cmdLogger.Info("hello")
	require.NoError(t, closer.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	b, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"message":"hello"`)
}
