// Package config provides configuration loading and structs for the palilex server.
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
	Debug       bool              `yaml:"debug"`
	Server      ServerConfig      `yaml:"server"`
	Dictionary  DictionaryConfig  `yaml:"dictionary"`
	Index       IndexConfig       `yaml:"index"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Translation TranslationConfig `yaml:"translation"`
	Search      SearchConfig      `yaml:"search"`
	MCP         MCPConfig         `yaml:"mcp"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DictionaryConfig locates the source table. Source is a file path (.csv, .xlsx, .db)
// or a sqlite:// / postgres:// URL.
type DictionaryConfig struct {
	Source string `yaml:"source"`
	Table  string `yaml:"table"`
	Watch  bool   `yaml:"watch"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	Dir          string        `yaml:"dir"`
	Backend      string        `yaml:"backend"`
	BatchSize    int           `yaml:"batch_size"`
	BuildOnStart bool          `yaml:"build_on_start"`
	// BuildTimeout bounds builds started by a search or a dictionary reload.
	BuildTimeout time.Duration `yaml:"build_timeout"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"`
	Endpoint   string        `yaml:"endpoint"`
	Model      string        `yaml:"model"`
	Token      string        `yaml:"token"`
	ProjectID  string        `yaml:"project_id"`
	Location   string        `yaml:"location"`
	Dimensions int           `yaml:"dimensions"`
	ModelPath  string        `yaml:"model_path"`
	MaxTokens  int           `yaml:"max_tokens"`
	CacheSize  int           `yaml:"cache_size"`
	Timeout    time.Duration `yaml:"timeout"`
}

// TranslationConfig selects the query translation provider.
type TranslationConfig struct {
	Provider       string        `yaml:"provider"`
	ProjectID      string        `yaml:"project_id"`
	Endpoint       string        `yaml:"endpoint"`
	Token          string        `yaml:"token"`
	Model          string        `yaml:"model"`
	SourceLanguage string        `yaml:"source_language"`
	TargetLanguage string        `yaml:"target_language"`
	ScriptStart    int           `yaml:"script_start"`
	ScriptEnd      int           `yaml:"script_end"`
	Timeout        time.Duration `yaml:"timeout"`
}

// SearchConfig holds request defaults and bounds.
type SearchConfig struct {
	DefaultLimit       int     `yaml:"default_limit"`
	MaxLimit           int     `yaml:"max_limit"`
	DefaultScoreCutoff float64 `yaml:"default_score_cutoff"`
	DefaultK           int     `yaml:"default_k"`
	EnrichLimit        int     `yaml:"enrich_limit"`
	EnrichK            int     `yaml:"enrich_k"`
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	Name string `yaml:"name"`
}

// Load reads and parses the config file at path, overlays credentials from the
// environment (and .env files), applies defaults and expands paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	LoadEnvFiles(configDir)
	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	cfg.Dictionary.Source = expandSource(cfg.Dictionary.Source, configDir)
	cfg.Index.Dir = expandPath(cfg.Index.Dir, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	return &cfg, nil
}

// Default returns a configuration built from defaults and the environment only.
func Default() *Config {
	cfg := &Config{}
	LoadEnvFiles("")
	ApplyEnv(cfg)
	ApplyDefaults(cfg)
	return cfg
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// expandSource leaves URLs untouched and expands file paths.
func expandSource(source, configDir string) string {
	if strings.Contains(source, "://") {
		return source
	}
	return expandPath(source, configDir)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
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
