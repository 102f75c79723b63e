// Package search provides the retrieval engine: lexical and semantic search over the
// dictionary plus term enrichment.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperjump/palilex/internal/config"
	"github.com/hyperjump/palilex/internal/dictionary"
	"github.com/hyperjump/palilex/internal/embedding"
	"github.com/hyperjump/palilex/internal/headword"
	"github.com/hyperjump/palilex/internal/lexical"
	"github.com/hyperjump/palilex/internal/models"
	"github.com/hyperjump/palilex/internal/translate"
	"github.com/hyperjump/palilex/internal/vector"
	"go.uber.org/zap"
)

// ErrInvalidQuery reports a caller constraint violation such as limit < 1.
var ErrInvalidQuery = lexical.ErrInvalidQuery

// tableState bundles a table with the structures derived from it so a reload swaps them together.
type tableState struct {
	table     *dictionary.Table
	matcher   *lexical.Matcher
	headwords *headword.Index
}

// Engine runs lexical, semantic and headword search against one dictionary table.
type Engine struct {
	state      atomic.Pointer[tableState]
	clients    *embedding.ClientCache
	identity   embedding.Identity
	normalizer *translate.Normalizer
	store      *vector.Store
	config     *config.SearchConfig
	logger     *zap.Logger

	// buildTimeout bounds index builds that run detached from a request. Zero means no bound.
	buildTimeout time.Duration

	reloadMu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithBuildTimeout bounds lazy and reload-triggered index builds. Those builds do not
// inherit the caller's deadline, so a short request timeout cannot abort them halfway.
func WithBuildTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.buildTimeout = d
	}
}

// NewEngine creates a search engine over table. The vector index is not touched until the
// first semantic search or an explicit BuildIndex/EnsureIndex.
func NewEngine(
	ctx context.Context,
	table *dictionary.Table,
	clients *embedding.ClientCache,
	identity embedding.Identity,
	normalizer *translate.Normalizer,
	store *vector.Store,
	cfg *config.SearchConfig,
	logger *zap.Logger,
	opts ...Option,
) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if normalizer == nil {
		normalizer = translate.NewNormalizer(nil)
	}
	e := &Engine{
		clients:    clients,
		identity:   identity,
		normalizer: normalizer,
		store:      store,
		config:     cfg,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	st, err := newTableState(ctx, table)
	if err != nil {
		return nil, err
	}
	e.state.Store(st)
	return e, nil
}

func newTableState(ctx context.Context, table *dictionary.Table) (*tableState, error) {
	headwords, err := headword.Build(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("headword index: %w", err)
	}
	return &tableState{
		table:     table,
		matcher:   lexical.NewMatcher(table),
		headwords: headwords,
	}, nil
}

// Table returns the current dictionary table.
func (e *Engine) Table() *dictionary.Table {
	return e.state.Load().table
}

// Config returns the search defaults and bounds.
func (e *Engine) Config() *config.SearchConfig {
	return e.config
}

// LexicalSearch matches query against native spellings. Scores are in [0,100].
func (e *Engine) LexicalSearch(query string, limit int, scoreCutoff float64) ([]*models.SearchResult, error) {
	if err := e.checkLimit(limit); err != nil {
		return nil, err
	}
	return e.state.Load().matcher.Search(query, limit, scoreCutoff)
}

// SemanticSearch embeds the (normalized) query and returns up to k nearest definitions by
// cosine similarity. A blank query returns an empty result without touching any provider.
func (e *Engine) SemanticSearch(ctx context.Context, query string, k int) ([]*models.SearchResult, error) {
	if err := e.checkLimit(k); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return []*models.SearchResult{}, nil
	}

	text := e.normalizer.NormalizeForEmbedding(ctx, query)
	client, err := e.clients.Get(ctx, e.identity)
	if err != nil {
		return nil, err
	}
	vec, err := client.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	table := e.Table()
	snap := e.store.Cached(table, client)
	if snap == nil {
		if snap, err = e.ensureDetached(ctx, table, client); err != nil {
			return nil, fmt.Errorf("vector index: %w", err)
		}
	}
	hits, err := snap.Query(vec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]*models.SearchResult, 0, len(hits))
	for _, h := range hits {
		entry := snap.Meta[h.Position]
		results = append(results, &models.SearchResult{
			NativeSpelling: entry.NativeSpelling,
			RomanSpelling:  entry.RomanSpelling,
			Definition:     entry.Definition,
			Score:          h.Score,
		})
	}
	return results, nil
}

// LookupRoman finds headwords by Roman spelling with typo and prefix tolerance.
func (e *Engine) LookupRoman(ctx context.Context, query string, limit int) ([]*models.SearchResult, error) {
	if err := e.checkLimit(limit); err != nil {
		return nil, err
	}
	return e.state.Load().headwords.Lookup(ctx, query, limit)
}

// Enrich expands one term into [term] + lexical native spellings + semantic native spellings.
// Order is preserved and duplicates are kept; scores from the two paths are never compared.
// A semantic failure is returned to the caller, who decides whether to fall back.
func (e *Engine) Enrich(ctx context.Context, term string) ([]string, error) {
	var (
		lexicalResults  []*models.SearchResult
		semanticResults []*models.SearchResult
		errChan         = make(chan error, 2)
		wg              sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		results, err := e.LexicalSearch(term, e.config.EnrichLimit, e.config.DefaultScoreCutoff)
		if err != nil {
			errChan <- fmt.Errorf("lexical search failed: %w", err)
			return
		}
		lexicalResults = results
	}()
	go func() {
		defer wg.Done()
		results, err := e.SemanticSearch(ctx, term, e.config.EnrichK)
		if err != nil {
			errChan <- fmt.Errorf("semantic search failed: %w", err)
			return
		}
		semanticResults = results
	}()

	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	terms := make([]string, 0, 1+len(lexicalResults)+len(semanticResults))
	terms = append(terms, term)
	for _, r := range lexicalResults {
		terms = append(terms, r.NativeSpelling)
	}
	for _, r := range semanticResults {
		terms = append(terms, r.NativeSpelling)
	}
	return terms, nil
}

// EnrichLexical is Enrich restricted to the lexical path. It never calls a provider.
func (e *Engine) EnrichLexical(term string) ([]string, error) {
	results, err := e.LexicalSearch(term, e.config.EnrichLimit, e.config.DefaultScoreCutoff)
	if err != nil {
		return nil, err
	}
	terms := make([]string, 0, 1+len(results))
	terms = append(terms, term)
	for _, r := range results {
		terms = append(terms, r.NativeSpelling)
	}
	return terms, nil
}

// BuildIndex embeds every defined entry and replaces the persisted vector index.
func (e *Engine) BuildIndex(ctx context.Context) (*models.BuildResponse, error) {
	client, err := e.clients.Get(ctx, e.identity)
	if err != nil {
		return nil, err
	}
	snap, err := e.store.Build(ctx, e.Table(), client)
	if err != nil {
		return nil, err
	}
	return buildResponse(snap), nil
}

// EnsureIndex loads the persisted vector index, building it when missing or stale.
func (e *Engine) EnsureIndex(ctx context.Context) (*models.BuildResponse, error) {
	client, err := e.clients.Get(ctx, e.identity)
	if err != nil {
		return nil, err
	}
	snap, err := e.store.EnsureReady(ctx, e.Table(), client)
	if err != nil {
		return nil, err
	}
	return buildResponse(snap), nil
}

// buildContext derives a context for an index build that outlives ctx's cancellation.
// Values such as request-scoped loggers are kept.
func (e *Engine) buildContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if e.buildTimeout > 0 {
		return context.WithTimeout(detached, e.buildTimeout)
	}
	return context.WithCancel(detached)
}

// ensureDetached loads or builds the index for table without tying the build to ctx.
// If ctx ends first the caller gets ctx's error while the build carries on and leaves
// a ready index for the next search.
func (e *Engine) ensureDetached(ctx context.Context, table *dictionary.Table, client *embedding.Client) (*vector.Snapshot, error) {
	type result struct {
		snap *vector.Snapshot
		err  error
	}
	done := make(chan result, 1)
	go func() {
		buildCtx, cancel := e.buildContext(ctx)
		defer cancel()
		snap, err := e.store.EnsureReady(buildCtx, table, client)
		if err != nil && ctx.Err() != nil {
			e.logger.Warn("background index build failed", zap.Error(err))
		}
		done <- result{snap, err}
	}()
	select {
	case r := <-done:
		return r.snap, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func buildResponse(snap *vector.Snapshot) *models.BuildResponse {
	return &models.BuildResponse{
		BuildID:    snap.Manifest.BuildID,
		Count:      len(snap.Meta),
		Dimensions: snap.Index.Dimensions(),
		Model:      snap.Manifest.Model,
	}
}

// ReloadTable swaps in a new table wholesale. Lexical and headword search see the new table
// immediately. When rebuild is true the vector index is rebuilt under the build timeout
// rather than ctx's deadline; otherwise the cached index is dropped and re-validated on
// the next semantic search.
func (e *Engine) ReloadTable(ctx context.Context, table *dictionary.Table, rebuild bool) error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	st, err := newTableState(ctx, table)
	if err != nil {
		return err
	}
	e.state.Store(st)
	e.store.Invalidate()
	e.logger.Info("Dictionary reloaded",
		zap.String("source", table.Source()),
		zap.Int("entries", table.Len()))

	if !rebuild {
		return nil
	}
	buildCtx, cancel := e.buildContext(ctx)
	defer cancel()
	resp, err := e.BuildIndex(buildCtx)
	if err != nil {
		return fmt.Errorf("rebuild vector index: %w", err)
	}
	e.logger.Info("Vector index rebuilt after reload",
		zap.String("build_id", resp.BuildID),
		zap.Int("count", resp.Count))
	return nil
}

// Close releases the vector index, the embedding client and the headword index.
func (e *Engine) Close() error {
	var firstErr error
	for _, closeFn := range []func() error{
		e.store.Close,
		e.clients.Close,
		e.state.Load().headwords.Close,
	} {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (e *Engine) checkLimit(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: limit must be >= 1, got %d", ErrInvalidQuery, n)
	}
	if e.config.MaxLimit > 0 && n > e.config.MaxLimit {
		return fmt.Errorf("%w: limit must be <= %d, got %d", ErrInvalidQuery, e.config.MaxLimit, n)
	}
	return nil
}
