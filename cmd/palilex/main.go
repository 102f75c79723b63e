// Package main is the palilex CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/palilex/internal/cli"
	"github.com/hyperjump/palilex/internal/config"
	"github.com/hyperjump/palilex/internal/mcpserver"
	"github.com/hyperjump/palilex/internal/server"
	"github.com/hyperjump/palilex/internal/watcher"
	"github.com/hyperjump/palilex/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/palilex/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development). A missing default config
// yields built-in defaults so the CLI works before anything is installed.
// Returns the config and the path that was actually loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "mcp":
		runMCP()
	case "search":
		runSearch(lexicalCommand)
	case "semantic":
		runSearch(semanticCommand)
	case "lookup":
		runSearch(lookupCommand)
	case "enrich":
		runEnrich()
	case "prompt":
		runPrompt()
	case "build-index":
		runBuildIndex()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("palilex version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config and builds a logger. Long-running commands log at info level;
// one-shot commands only surface warnings so stdout stays clean.
func setup(configPath string, debug, longRunning bool) (*config.Config, string, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || debug
	var logger *zap.Logger
	if longRunning {
		logger, err = utils.NewLogger(debugMode)
	} else {
		logger, err = utils.NewCommandLogger(debugMode)
	}
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	return cfg, resolved, logger
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// ensureIndexInBackground builds or loads the vector index without delaying startup.
func ensureIndexInBackground(ctx context.Context, components *Components, logger *zap.Logger) {
	go func() {
		resp, err := components.Engine.EnsureIndex(ctx)
		if err != nil {
			logger.Warn("vector index not ready", zap.Error(err))
			return
		}
		logger.Info("vector index ready",
			zap.String("build_id", resp.BuildID),
			zap.Int("count", resp.Count),
			zap.String("model", resp.Model))
	}()
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger := setup(*configPath, *debug, true)
	defer logger.Sync()
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", cfg.Debug || *debug))

	ctx, cancel := signalContext()
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if cfg.Index.BuildOnStart {
		ensureIndexInBackground(ctx, components, logger)
	}

	if cfg.Dictionary.Watch && watcher.Watchable(cfg.Dictionary.Source) {
		w := watcher.NewWatcher(
			cfg.Dictionary.Source,
			components.Reloader.OnChange(cfg.Server.RequestTimeout),
			watcher.WithLogger(logger),
		)
		if err := w.Start(ctx); err != nil {
			logger.Warn("dictionary watcher not started", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	srv := server.NewServer(components.Engine, components.Prompts, components.Reloader, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = srv.Stop(stopCtx)
}

func runMCP() {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	// zap writes to stderr; stdout carries the protocol.
	cfg, _, logger := setup(*configPath, *debug, true)
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if cfg.Index.BuildOnStart {
		ensureIndexInBackground(ctx, components, logger)
	}

	srv := mcpserver.New(components.Engine, components.Prompts, &cfg.MCP, version, logger)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("MCP server stopped", zap.Error(err))
	}
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchConfigPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func searchConfigPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

// searchDefaultsFromConfig loads config at path and returns its search defaults.
// On load failure the built-in defaults are returned.
func searchDefaultsFromConfig(path string) config.SearchConfig {
	cfg, _, err := loadConfig(path)
	if err != nil || cfg == nil {
		var sc config.Config
		config.ApplyDefaults(&sc)
		return sc.Search
	}
	return cfg.Search
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "palilex search ธรรม -limit 3"
// would otherwise leave -limit unparsed.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fatalf("%v", err)
	}
	return format
}

func printUsage() {
	fmt.Println(`palilex - Pali dictionary retrieval (lexical and semantic)

Usage:
  palilex server [flags]               Start the HTTP server
  palilex mcp [flags]                  Serve the MCP tools over stdio
  palilex search [flags] <query>       Fuzzy-match Thai spellings (lexical)
  palilex semantic [flags] <query>     Semantic search (builds the vector index on first use)
  palilex lookup [flags] <query>       Match romanized headwords
  palilex enrich [flags] <term>        Expand a term into related Thai spellings
  palilex prompt [flags] <wish>...     Assemble a chant generation prompt
  palilex build-index [flags]          Rebuild the vector index from the dictionary
  palilex status [flags]               Show dictionary/index/embedding status
  palilex version                      Show version
  palilex help                         Show this help

Server/MCP Flags:
  --config string    Config file path (default: /usr/local/etc/palilex/config.yaml)
  --debug            Enable debug logging

Query Flags (search, semantic, lookup, enrich, prompt, build-index, status):
  --config string    Config file path
  --server string    Server URL, e.g. http://localhost:8081. Empty (default) works on the dictionary directly.
  --output string    Output format: text, compact or json (default: text)
  --limit int        Number of results (search, semantic, lookup)
  --score-cutoff     Minimum lexical score 0-100 (search only)

Prompt Flags:
  --name string      Name of the person the chant is for
  --retrieve         Enrich wishes with dictionary terms (default: true)

Examples:
  palilex server
  palilex search ธัมมะ
  palilex search --limit 10 --score-cutoff 60 เมตตา
  palilex semantic "loving kindness"
  palilex lookup dhamma
  palilex enrich --output json health
  palilex prompt --name Somchai "good health" "success in work"
  palilex status --server http://localhost:8081`)
}
