// Package config provides configuration loading and structs for the
// Mitsukeru server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Provider  ProviderConfig  `yaml:"provider"`
	Verify    VerifyConfig    `yaml:"verify"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and snippet files.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	SnippetsDir  string `yaml:"snippets_dir"`
}

// ProviderConfig holds settings for the embedding and generation backend.
// The API key comes from the MITSUKERU_API_KEY environment variable, never
// from the config file.
type ProviderConfig struct {
	BaseURL       string        `yaml:"base_url"`
	EmbedModel    string        `yaml:"embed_model"`
	GenerateModel string        `yaml:"generate_model"`
	Timeout       time.Duration `yaml:"timeout"`
	Temperature   float64       `yaml:"temperature"`
	MaxTokens     int           `yaml:"max_tokens"`

	APIKey string `yaml:"-"`
}

// VerifyConfig holds keyword verification settings.
type VerifyConfig struct {
	Keywords            []string `yaml:"keywords"`
	DefaultResults      int      `yaml:"default_results"`
	DefaultTopSentences int      `yaml:"default_top_sentences"`
}

// RetrievalConfig holds snippet retrieval settings. SimilarityThreshold
// is a pointer so an explicit zero survives defaulting.
type RetrievalConfig struct {
	TopK                int      `yaml:"top_k"`
	SimilarityThreshold *float64 `yaml:"similarity_threshold"`
	CollectionName      string   `yaml:"collection_name"`
}

// WatchConfig controls reloading the corpus when snippet files change.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Load reads and parses the config file at path, expands paths, and
// applies defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	cfg.Provider.APIKey = os.Getenv("MITSUKERU_API_KEY")

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.SnippetsDir = expandPath(cfg.Storage.SnippetsDir, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
