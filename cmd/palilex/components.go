package main

import (
	"context"
	"fmt"

	"github.com/hyperjump/palilex/internal/config"
	"github.com/hyperjump/palilex/internal/dictionary"
	"github.com/hyperjump/palilex/internal/embedding"
	"github.com/hyperjump/palilex/internal/prompt"
	"github.com/hyperjump/palilex/internal/search"
	"github.com/hyperjump/palilex/internal/translate"
	"github.com/hyperjump/palilex/internal/vector"
	"github.com/hyperjump/palilex/internal/watcher"
	"go.uber.org/zap"
)

// Components holds initialized services.
type Components struct {
	Engine   *search.Engine
	Prompts  *prompt.Builder
	Reloader *watcher.Reloader
}

func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
}

func embeddingOptions(cfg config.EmbeddingConfig) embedding.Options {
	return embedding.Options{
		Provider:   cfg.Provider,
		Endpoint:   cfg.Endpoint,
		Model:      cfg.Model,
		Token:      cfg.Token,
		ProjectID:  cfg.ProjectID,
		Location:   cfg.Location,
		Dimensions: cfg.Dimensions,
		ModelPath:  cfg.ModelPath,
		MaxTokens:  cfg.MaxTokens,
		Timeout:    cfg.Timeout,
	}
}

func translateOptions(cfg config.TranslationConfig) translate.Options {
	return translate.Options{
		Provider:  cfg.Provider,
		ProjectID: cfg.ProjectID,
		Endpoint:  cfg.Endpoint,
		Token:     cfg.Token,
		Model:     cfg.Model,
		Timeout:   cfg.Timeout,
	}
}

// indexBackend returns the configured backend, falling back to memory when FAISS is not compiled in.
func indexBackend(cfg config.IndexConfig, logger *zap.Logger) string {
	if vector.IndexType(cfg.Backend) == vector.IndexTypeFAISS && !vector.IsFAISSAvailable() {
		logger.Warn("faiss backend requested but not available, falling back to memory")
		return string(vector.IndexTypeMemory)
	}
	return cfg.Backend
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	dictOpts := []dictionary.Option{dictionary.WithSQLTable(cfg.Dictionary.Table)}
	table, err := dictionary.Load(ctx, cfg.Dictionary.Source, dictOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary: %w", err)
	}
	logger.Info("dictionary loaded",
		zap.String("source", table.Source()),
		zap.Int("entries", table.Len()))

	embOpts := embeddingOptions(cfg.Embedding)
	factory := embedding.NewFactory(embOpts)
	identity, err := embedding.ResolveIdentity(embOpts)
	if err != nil {
		// Lexical search still works; semantic calls report the configuration error.
		logger.Warn("embedding provider not usable", zap.Error(err))
		resolveErr := err
		factory = func(context.Context, embedding.Identity) (embedding.Provider, error) {
			return nil, resolveErr
		}
	}
	clients := embedding.NewClientCache(factory, logger,
		embedding.WithBatchSize(cfg.Index.BatchSize),
		embedding.WithLogger(logger),
		embedding.WithQueryCache(cfg.Embedding.CacheSize),
	)

	translator, err := translate.New(translateOptions(cfg.Translation))
	if err != nil {
		_ = clients.Close()
		return nil, fmt.Errorf("failed to initialize translator: %w", err)
	}
	normalizer := translate.NewNormalizer(translator,
		translate.WithLanguages(cfg.Translation.SourceLanguage, cfg.Translation.TargetLanguage),
		translate.WithScript(rune(cfg.Translation.ScriptStart), rune(cfg.Translation.ScriptEnd)),
		translate.WithLogger(logger),
	)

	store := vector.NewStore(cfg.Index.Dir,
		vector.WithBackend(indexBackend(cfg.Index, logger)),
		vector.WithBatchSize(cfg.Index.BatchSize),
		vector.WithLogger(logger),
	)

	engine, err := search.NewEngine(ctx, table, clients, identity, normalizer, store, &cfg.Search, logger,
		search.WithBuildTimeout(cfg.Index.BuildTimeout))
	if err != nil {
		_ = store.Close()
		_ = clients.Close()
		return nil, fmt.Errorf("failed to initialize search engine: %w", err)
	}

	reloader := watcher.NewReloader(cfg.Dictionary.Source, engine, cfg.Index.BuildOnStart, logger, dictOpts...)

	return &Components{
		Engine:   engine,
		Prompts:  prompt.NewBuilder(engine, prompt.WithLogger(logger)),
		Reloader: reloader,
	}, nil
}
