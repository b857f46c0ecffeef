package config

import (
	"github.com/crytic/codetwin/cache"
	"github.com/crytic/codetwin/proxy"
	"github.com/crytic/codetwin/similarity"
	"github.com/rs/zerolog"
)

// GetDefaultProjectConfig obtains a default configuration for a project.
func GetDefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		RPC: RPCConfig{
			URL:            "",
			BlockNumber:    0,
			PoolSize:       3,
			CacheDirectory: "",
			PersistCache:   false,
		},
		Analysis: AnalysisConfig{
			MaxProxyDepth:  proxy.DefaultMaxDepth,
			TopMatches:     5,
			ChunkSize:      similarity.DefaultChunkSize,
			MatchThreshold: 80,
			Workers:        4,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Capacity: cache.DefaultCapacity,
		},
		Library: LibraryConfig{
			Path: "legends.json",
		},
		Logging: LoggingConfig{
			Level:                zerolog.InfoLevel,
			EnableConsoleLogging: true,
			LogDirectory:         "",
		},
	}
}
