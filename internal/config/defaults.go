package config

import (
	"path/filepath"

	"github.com/stormlightlabs/memoria/internal/cache"
)

const (
	DefaultModel      = "cl-nagoya/ruri-v3-70m"
	DefaultDimensions = 384
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Default: defaultDatabasePath()},
		Embedding: EmbeddingConfig{
			Provider:           "none",
			Model:              DefaultModel,
			Dimensions:         DefaultDimensions,
			TimeoutSeconds:     30,
			LoadTimeoutSeconds: 60,
			BatchSize:          32,
			QueryCacheSize:     256,
		},
		Search:  SearchConfig{DefaultLimit: 10, Mode: "lexical", VectorWeight: 0.7, TextWeight: 0.3},
		Display: DisplayConfig{Width: 80, RenderMarkdown: false, ColorOutput: nil},
	}
}

func defaultDatabasePath() string {
	dataDir, err := cache.DataDir()
	if err != nil {
		return "memoria.db"
	}
	return filepath.Join(dataDir, "memoria.db")
}
