package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultConfigFile describes the file name a ProjectConfig is read from when no path is provided.
const DefaultConfigFile = "codetwin.json"

// ProjectConfig describes the full configuration of a codetwin run.
type ProjectConfig struct {
	// RPC describes the configuration used to read chain data.
	RPC RPCConfig `json:"rpc"`

	// Analysis describes the configuration used by the analysis pipeline.
	Analysis AnalysisConfig `json:"analysis"`

	// Cache describes the configuration of the analysis result cache.
	Cache CacheConfig `json:"cache"`

	// Library describes where the reference library is loaded from.
	Library LibraryConfig `json:"library"`

	// Logging describes the configuration used for logging
	Logging LoggingConfig `json:"logging"`
}

// RPCConfig describes the configuration options used by chain.RPCBackend.
type RPCConfig struct {
	// URL describes the JSON-RPC endpoint chain data is read from.
	URL string `json:"url"`

	// BlockNumber describes the block height reads are pinned to. A zero value reads at the latest block.
	BlockNumber uint64 `json:"blockNumber"`

	// PoolSize describes how many RPC clients are dialed and used in round-robin.
	PoolSize uint `json:"poolSize"`

	// CacheDirectory describes the directory persistent read caches are written under. Only used when PersistCache is
	// set and BlockNumber is pinned.
	CacheDirectory string `json:"cacheDirectory"`

	// PersistCache describes whether reads at a pinned block are persisted to disk across runs.
	PersistCache bool `json:"persistCache"`
}

// AnalysisConfig describes the configuration options used by analysis.Analyzer.
type AnalysisConfig struct {
	// MaxProxyDepth describes the maximum amount of proxy hops followed before comparison.
	MaxProxyDepth int `json:"maxProxyDepth"`

	// TopMatches describes how many of the best library matches are reported.
	TopMatches int `json:"topMatches"`

	// ChunkSize describes the window size used when chunking bytecode.
	ChunkSize int `json:"chunkSize"`

	// MatchThreshold describes the score, in [0, 100], at or above which a match is considered a clone.
	MatchThreshold float64 `json:"matchThreshold"`

	// Workers describes how many addresses are analyzed concurrently.
	Workers int `json:"workers"`
}

// CacheConfig describes the configuration options used by the analysis result cache.
type CacheConfig struct {
	// Enabled describes whether results are cached.
	Enabled bool `json:"enabled"`

	// Capacity describes the maximum amount of cached results.
	Capacity int `json:"capacity"`
}

// LibraryConfig describes the configuration options used to load the reference library.
type LibraryConfig struct {
	// Path describes the path of the JSON file holding the legend library.
	Path string `json:"path"`
}

// LoggingConfig describes the configuration options used for logging
type LoggingConfig struct {
	// Level describes whether logs of certain severity levels (eg info, warning, etc.) will be emitted or discarded.
	// Increasing level values represent more severe logs
	Level zerolog.Level `json:"level"`

	// EnableConsoleLogging describes whether console logging is enabled
	EnableConsoleLogging bool `json:"enableConsoleLogging"`

	// LogDirectory describes the directory where structured log _files_ will be outputted. If the string is empty, then
	// no log files are kept
	LogDirectory string `json:"logDirectory"`
}

// ReadProjectConfigFromFile reads a JSON-serialized ProjectConfig from a provided file path. Fields absent from the
// file keep their default values.
// Returns the ProjectConfig if it succeeds, or an error if one occurs.
func ReadProjectConfigFromFile(path string) (*ProjectConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	projectConfig := GetDefaultProjectConfig()
	if err = json.Unmarshal(b, projectConfig); err != nil {
		return nil, errors.Wrapf(err, "could not parse project config %s", path)
	}
	return projectConfig, nil
}

// WriteToFile writes the ProjectConfig to a provided file path in a JSON-serialized format.
// Returns an error if one occurs.
func (p *ProjectConfig) WriteToFile(path string) error {
	b, err := json.MarshalIndent(p, "", "\t")
	if err != nil {
		return errors.WithStack(err)
	}

	if err = os.WriteFile(path, b, 0644); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Validate validates that the ProjectConfig meets certain requirements.
// Returns an error if one occurs.
func (p *ProjectConfig) Validate() error {
	if p.RPC.PoolSize == 0 {
		return errors.Errorf("rpc pool size must be a positive number")
	}

	if p.Analysis.MaxProxyDepth <= 0 {
		return errors.Errorf("max proxy depth must be a positive number")
	}
	if p.Analysis.TopMatches <= 0 {
		return errors.Errorf("top match count must be a positive number")
	}
	if p.Analysis.ChunkSize <= 0 {
		return errors.Errorf("chunk size must be a positive number")
	}
	if p.Analysis.Workers <= 0 {
		return errors.Errorf("worker count must be a positive number")
	}
	if p.Analysis.MatchThreshold < 0 || p.Analysis.MatchThreshold > 100 {
		return errors.Errorf("match threshold must be within [0, 100], got %v", p.Analysis.MatchThreshold)
	}

	if p.Cache.Capacity <= 0 {
		return errors.Errorf("cache capacity must be a positive number")
	}

	if p.Library.Path == "" {
		return errors.Errorf("a library path must be provided")
	}
	return nil
}
