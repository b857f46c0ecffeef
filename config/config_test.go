package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProjectConfigIsValid(t *testing.T) {
	t.Parallel()

	assert.NoError(t, GetDefaultProjectConfig().Validate())
}

func TestProjectConfigRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	projectConfig := GetDefaultProjectConfig()
	projectConfig.RPC.URL = "http://localhost:8545"
	projectConfig.RPC.BlockNumber = 19_000_000
	projectConfig.Analysis.MatchThreshold = 92.5
	projectConfig.Logging.Level = zerolog.DebugLevel
	require.NoError(t, projectConfig.WriteToFile(path))

	read, err := ReadProjectConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, projectConfig, read)
}

func TestReadProjectConfigKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(`{"analysis": {"topMatches": 10}}`), 0644))

	read, err := ReadProjectConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 10, read.Analysis.TopMatches)
	assert.Equal(t, GetDefaultProjectConfig().Analysis.ChunkSize, read.Analysis.ChunkSize)
	assert.Equal(t, GetDefaultProjectConfig().Cache, read.Cache)

	_, err = ReadProjectConfigFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0644))
	_, err = ReadProjectConfigFromFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		modify func(p *ProjectConfig)
	}{
		{"zero pool size", func(p *ProjectConfig) { p.RPC.PoolSize = 0 }},
		{"zero depth", func(p *ProjectConfig) { p.Analysis.MaxProxyDepth = 0 }},
		{"negative top", func(p *ProjectConfig) { p.Analysis.TopMatches = -1 }},
		{"zero chunk size", func(p *ProjectConfig) { p.Analysis.ChunkSize = 0 }},
		{"zero workers", func(p *ProjectConfig) { p.Analysis.Workers = 0 }},
		{"threshold too high", func(p *ProjectConfig) { p.Analysis.MatchThreshold = 100.5 }},
		{"negative threshold", func(p *ProjectConfig) { p.Analysis.MatchThreshold = -1 }},
		{"zero capacity", func(p *ProjectConfig) { p.Cache.Capacity = 0 }},
		{"missing library", func(p *ProjectConfig) { p.Library.Path = "" }},
	}
	for _, tc := range testCases {
		projectConfig := GetDefaultProjectConfig()
		tc.modify(projectConfig)
		assert.Error(t, projectConfig.Validate(), tc.name)
	}
}
