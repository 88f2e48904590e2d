package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Search    SearchConfig    `toml:"search"`
	Display   DisplayConfig   `toml:"display"`
}

// DatabaseConfig holds database-related settings.
type DatabaseConfig struct {
	Default string `toml:"default"` // Default database name or path
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider           string  `toml:"provider"`             // "none" or "openai" (any OpenAI-compatible endpoint)
	BaseURL            string  `toml:"base_url"`             // e.g. http://localhost:8080/v1
	APIKey             string  `toml:"api_key"`              // Falls back to MEMORIA_EMBEDDING_API_KEY
	Model              string  `toml:"model"`                // Model name sent to the provider
	Dimensions         int     `toml:"dimensions"`           // Vector length the provider must return
	TimeoutSeconds     int     `toml:"timeout_seconds"`      // Per-request HTTP timeout
	LoadTimeoutSeconds int     `toml:"load_timeout_seconds"` // Upper bound on the first load probe
	RequestsPerSecond  float64 `toml:"requests_per_second"`  // 0 disables rate limiting
	BatchSize          int     `toml:"batch_size"`           // Texts per request during backfill
	QueryCacheSize     int     `toml:"query_cache_size"`     // Cached query vectors, 0 disables
}

// SearchConfig holds search-related settings.
type SearchConfig struct {
	DefaultLimit int     `toml:"default_limit"` // Default number of search results
	Mode         string  `toml:"mode"`          // lexical, semantic or hybrid
	VectorWeight float64 `toml:"vector_weight"` // Hybrid weight of the vector score
	TextWeight   float64 `toml:"text_weight"`   // Hybrid weight of the bm25 score
}

// DisplayConfig holds display-related settings.
type DisplayConfig struct {
	Width          int   `toml:"width"`           // Default output width
	RenderMarkdown bool  `toml:"render_markdown"` // Render record bodies with glamour
	ColorOutput    *bool `toml:"color_output"`    // Enable colored output (nil = auto)
}

// Load reads the configuration from the XDG config path or uses defaults.
func Load() (*Config, error) {
	configPath, err := FilePath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("MEMORIA_EMBEDDING_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// Validate rejects values the services cannot run with.
func (cfg *Config) Validate() error {
	switch {
	case cfg.Embedding.Dimensions <= 0:
		return fmt.Errorf("embedding.dimensions must be positive, got %d", cfg.Embedding.Dimensions)
	case cfg.Embedding.BatchSize <= 0:
		return fmt.Errorf("embedding.batch_size must be positive, got %d", cfg.Embedding.BatchSize)
	case cfg.Embedding.RequestsPerSecond < 0:
		return fmt.Errorf("embedding.requests_per_second must not be negative, got %g", cfg.Embedding.RequestsPerSecond)
	case cfg.Search.DefaultLimit <= 0:
		return fmt.Errorf("search.default_limit must be positive, got %d", cfg.Search.DefaultLimit)
	case cfg.Search.VectorWeight < 0 || cfg.Search.TextWeight < 0:
		return errors.New("search weights must not be negative")
	case cfg.Search.VectorWeight+cfg.Search.TextWeight == 0:
		return errors.New("search.vector_weight and search.text_weight cannot both be zero")
	}
	return nil
}

// Save writes the configuration to the XDG config path.
func (cfg *Config) Save() error {
	configPath, err := FilePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0o600)
}

// FilePath returns the config file location, honouring MEMORIA_CONFIG.
func FilePath() (string, error) {
	if path := os.Getenv("MEMORIA_CONFIG"); path != "" {
		return path, nil
	}

	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "config.toml"), nil
}
