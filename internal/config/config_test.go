package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
  request_timeout: 5s
dictionary:
  source: "/data/pali.csv"
search:
  default_limit: 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.RequestTimeout != 5*time.Second {
		t.Errorf("request_timeout = %v, want 5s", cfg.Server.RequestTimeout)
	}
	if cfg.Dictionary.Source != "/data/pali.csv" {
		t.Errorf("source = %q", cfg.Dictionary.Source)
	}
	if cfg.Search.DefaultLimit != 10 {
		t.Errorf("default_limit = %d, want 10", cfg.Search.DefaultLimit)
	}
	if cfg.Search.EnrichLimit != 10 {
		t.Errorf("enrich_limit should follow default_limit, got %d", cfg.Search.EnrichLimit)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	path := writeConfig(t, "debug: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
dictionary:
  source: "./data/pali_dictionary.csv"
index:
  dir: "./data/indices"
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "pali_dictionary.csv"); cfg.Dictionary.Source != want {
		t.Errorf("source = %q, want %q", cfg.Dictionary.Source, want)
	}
	if want := filepath.Join(dir, "data", "indices"); cfg.Index.Dir != want {
		t.Errorf("index dir = %q, want %q", cfg.Index.Dir, want)
	}
}

func TestLoad_sourceURLNotExpanded(t *testing.T) {
	path := writeConfig(t, `
dictionary:
  source: "postgres://user@localhost/pali?sslmode=disable"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dictionary.Source != "postgres://user@localhost/pali?sslmode=disable" {
		t.Errorf("url source rewritten: %q", cfg.Dictionary.Source)
	}
}

func TestLoad_envOverlay(t *testing.T) {
	t.Setenv(EnvEmbedToken, "embed-secret")
	t.Setenv(EnvGoogleProject, "my-project")
	t.Setenv(EnvGoogleToken, "g-token")
	path := writeConfig(t, `
embedding:
  provider: ollama
translation:
  token: "from-file"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Embedding.Token != "embed-secret" {
		t.Errorf("embedding token = %q", cfg.Embedding.Token)
	}
	if cfg.Translation.ProjectID != "my-project" {
		t.Errorf("project id = %q", cfg.Translation.ProjectID)
	}
	if cfg.Translation.Token != "from-file" {
		t.Errorf("file value should win over env, got %q", cfg.Translation.Token)
	}
}

func TestLoad_vertexEmbeddingEnv(t *testing.T) {
	t.Setenv(EnvEmbedToken, "")
	t.Setenv(EnvGoogleProject, "vertex-project")
	t.Setenv(EnvGoogleToken, "g-token")
	t.Setenv(EnvOllamaBaseURL, "http://ollama:11434")
	path := writeConfig(t, `
embedding:
  provider: vertex
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	e := cfg.Embedding
	if e.ProjectID != "vertex-project" || e.Token != "g-token" {
		t.Errorf("vertex credentials = %q/%q", e.ProjectID, e.Token)
	}
	if e.Endpoint != "" {
		t.Errorf("ollama endpoint leaked into vertex config: %q", e.Endpoint)
	}
	if e.Location != "us-central1" || e.Model != "text-multilingual-embedding-002" {
		t.Errorf("vertex defaults = %s %s", e.Location, e.Model)
	}
}

func TestLoad_dotEnvInConfigDir(t *testing.T) {
	if _, ok := os.LookupEnv(EnvGoogleCloud); ok {
		t.Skip("GOOGLE_CLOUD_PROJECT set in environment")
	}
	t.Setenv(EnvGoogleProject, "")
	t.Cleanup(func() { os.Unsetenv(EnvGoogleCloud) })

	path := writeConfig(t, "debug: false\n")
	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := os.WriteFile(envFile, []byte(EnvGoogleCloud+"=dotenv-project\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Translation.ProjectID != "dotenv-project" {
		t.Errorf("project id = %q, want dotenv-project", cfg.Translation.ProjectID)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8081 {
		t.Errorf("server defaults: %+v", cfg.Server)
	}
	if cfg.Index.Backend != "memory" || cfg.Index.BatchSize != 32 || cfg.Index.BuildTimeout != 30*time.Minute {
		t.Errorf("index defaults: %+v", cfg.Index)
	}
	if cfg.Search.DefaultLimit != 5 || cfg.Search.MaxLimit != 50 || cfg.Search.DefaultK != 5 {
		t.Errorf("search defaults: %+v", cfg.Search)
	}
	if cfg.Search.DefaultScoreCutoff != 0 {
		t.Errorf("score cutoff default = %v", cfg.Search.DefaultScoreCutoff)
	}
	if cfg.Translation.ScriptStart != 0x0E00 || cfg.Translation.ScriptEnd != 0x0E7F {
		t.Errorf("script block = %x..%x", cfg.Translation.ScriptStart, cfg.Translation.ScriptEnd)
	}
	if cfg.Translation.SourceLanguage != "th" || cfg.Translation.TargetLanguage != "en" {
		t.Errorf("languages = %s->%s", cfg.Translation.SourceLanguage, cfg.Translation.TargetLanguage)
	}
	if cfg.Embedding.Endpoint != "http://localhost:11434" {
		t.Errorf("embedding endpoint = %q", cfg.Embedding.Endpoint)
	}
	if cfg.MCP.Name != "palilex" {
		t.Errorf("mcp name = %q", cfg.MCP.Name)
	}
}

func TestApplyDefaults_keepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Embedding: EmbeddingConfig{Provider: "mock", Dimensions: 16},
		Search:    SearchConfig{MaxLimit: 20},
	}
	ApplyDefaults(cfg)
	if cfg.Embedding.Dimensions != 16 || cfg.Embedding.Provider != "mock" {
		t.Errorf("embedding overwritten: %+v", cfg.Embedding)
	}
	if cfg.Embedding.Endpoint != "" {
		t.Errorf("mock provider should not get an endpoint, got %q", cfg.Embedding.Endpoint)
	}
	if cfg.Search.MaxLimit != 20 {
		t.Errorf("max_limit = %d", cfg.Search.MaxLimit)
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "0.0.0.0", Port: 8081}
	if got := s.Addr(); got != "0.0.0.0:8081" {
		t.Errorf("Addr() = %q", got)
	}
}
