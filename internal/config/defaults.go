package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/snippets.db"
	}
	if cfg.Storage.SnippetsDir == "" {
		cfg.Storage.SnippetsDir = "./snippets"
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = "http://localhost:11434"
	}
	if cfg.Provider.EmbedModel == "" {
		cfg.Provider.EmbedModel = "nomic-embed-text"
	}
	if cfg.Provider.GenerateModel == "" {
		cfg.Provider.GenerateModel = "qwen2.5-coder"
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 120 * time.Second
	}
	if cfg.Provider.Temperature == 0 {
		cfg.Provider.Temperature = 0.7
	}
	if cfg.Provider.MaxTokens == 0 {
		cfg.Provider.MaxTokens = 2048
	}
	if cfg.Verify.DefaultResults == 0 {
		cfg.Verify.DefaultResults = 3
	}
	if cfg.Verify.DefaultTopSentences == 0 {
		cfg.Verify.DefaultTopSentences = 1
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.SimilarityThreshold == nil {
		threshold := 0.5
		cfg.Retrieval.SimilarityThreshold = &threshold
	}
	if cfg.Retrieval.CollectionName == "" {
		cfg.Retrieval.CollectionName = "code_snippets"
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 2 * time.Second
	}
}
