package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8081
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Dictionary.Source == "" {
		cfg.Dictionary.Source = "/usr/local/var/palilex/data/pali_dictionary.csv"
	}
	if cfg.Dictionary.Table == "" {
		cfg.Dictionary.Table = "dictionary"
	}
	if cfg.Index.Dir == "" {
		cfg.Index.Dir = "/usr/local/var/palilex/data/indices"
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "memory"
	}
	if cfg.Index.BatchSize == 0 {
		cfg.Index.BatchSize = 32
	}
	if cfg.Index.BuildTimeout == 0 {
		cfg.Index.BuildTimeout = 30 * time.Minute
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "ollama"
	}
	if cfg.Embedding.Endpoint == "" && cfg.Embedding.Provider == "ollama" {
		cfg.Embedding.Endpoint = "http://localhost:11434"
	}
	if cfg.Embedding.Provider == "vertex" {
		if cfg.Embedding.Model == "" {
			cfg.Embedding.Model = "text-multilingual-embedding-002"
		}
		if cfg.Embedding.Location == "" {
			cfg.Embedding.Location = "us-central1"
		}
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "bge-m3"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/palilex/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 && cfg.Embedding.Provider == "onnx" {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 60 * time.Second
	}
	if cfg.Translation.Provider == "" {
		cfg.Translation.Provider = "google"
	}
	if cfg.Translation.Model == "" && cfg.Translation.Provider == "ollama" {
		cfg.Translation.Model = "qwen3"
	}
	if cfg.Translation.Endpoint == "" && cfg.Translation.Provider == "ollama" {
		cfg.Translation.Endpoint = cfg.Embedding.Endpoint
	}
	if cfg.Translation.SourceLanguage == "" {
		cfg.Translation.SourceLanguage = "th"
	}
	if cfg.Translation.TargetLanguage == "" {
		cfg.Translation.TargetLanguage = "en"
	}
	if cfg.Translation.ScriptStart == 0 && cfg.Translation.ScriptEnd == 0 {
		cfg.Translation.ScriptStart = 0x0E00
		cfg.Translation.ScriptEnd = 0x0E7F
	}
	if cfg.Translation.Timeout == 0 {
		cfg.Translation.Timeout = 10 * time.Second
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 5
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 50
	}
	if cfg.Search.DefaultK == 0 {
		cfg.Search.DefaultK = 5
	}
	if cfg.Search.EnrichLimit == 0 {
		cfg.Search.EnrichLimit = cfg.Search.DefaultLimit
	}
	if cfg.Search.EnrichK == 0 {
		cfg.Search.EnrichK = cfg.Search.DefaultK
	}
	if cfg.MCP.Name == "" {
		cfg.MCP.Name = "palilex"
	}
}
