package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment variables overlaid onto the configuration.
const (
	EnvEmbedToken     = "PALILEX_EMBED_TOKEN"
	EnvOllamaBaseURL  = "OLLAMA_BASE_URL"
	EnvGoogleProject  = "GOOGLE_PROJECT_ID"
	EnvGoogleCloud    = "GOOGLE_CLOUD_PROJECT"
	EnvGoogleToken    = "GOOGLE_ACCESS_TOKEN"
	EnvTranslateToken = "PALILEX_TRANSLATE_TOKEN"
)

// LoadEnvFiles loads .env from configDir and the working directory. Variables already set
// in the process environment win; missing files are ignored.
func LoadEnvFiles(configDir string) {
	if configDir != "" {
		_ = godotenv.Load(filepath.Join(configDir, ".env"))
	}
	_ = godotenv.Load() // silently ignore if .env doesn't exist
}

// ApplyEnv fills empty credential and endpoint fields from the environment.
func ApplyEnv(cfg *Config) {
	setIfEmpty(&cfg.Embedding.Token, os.Getenv(EnvEmbedToken))
	if cfg.Embedding.Provider == "vertex" {
		setIfEmpty(&cfg.Embedding.ProjectID, os.Getenv(EnvGoogleProject))
		setIfEmpty(&cfg.Embedding.ProjectID, os.Getenv(EnvGoogleCloud))
		setIfEmpty(&cfg.Embedding.Token, os.Getenv(EnvGoogleToken))
	} else {
		setIfEmpty(&cfg.Embedding.Endpoint, os.Getenv(EnvOllamaBaseURL))
	}
	setIfEmpty(&cfg.Translation.ProjectID, os.Getenv(EnvGoogleProject))
	setIfEmpty(&cfg.Translation.ProjectID, os.Getenv(EnvGoogleCloud))
	setIfEmpty(&cfg.Translation.Token, os.Getenv(EnvGoogleToken))
	setIfEmpty(&cfg.Translation.Token, os.Getenv(EnvTranslateToken))
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}
