package embedding

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hyperjump/palilex/pkg/utils"
	"go.uber.org/zap"
)

// DefaultBatchSize bounds the number of texts sent per provider call.
const DefaultBatchSize = 32

// Client wraps a Provider with batching, response validation and L2 normalization.
type Client struct {
	provider  Provider
	identity  Identity
	batchSize int
	logger    *zap.Logger
	queries   *EmbeddingCache
	dims      atomic.Int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBatchSize sets the default chunk size for EmbedBatch.
func WithBatchSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithLogger sets the logger for progress and diagnostics.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithQueryCache enables an LRU cache of the given size for EmbedQuery.
func WithQueryCache(size int) ClientOption {
	return func(c *Client) {
		c.queries = NewEmbeddingCache(size)
	}
}

// NewClient wraps provider. It does not probe the provider; see ClientCache.Get.
func NewClient(provider Provider, identity Identity, opts ...ClientOption) *Client {
	c := &Client{
		provider:  provider,
		identity:  identity,
		batchSize: DefaultBatchSize,
		logger:    zap.NewNop(),
		queries:   NewEmbeddingCache(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Identity returns the endpoint and model this client embeds with.
func (c *Client) Identity() Identity {
	return c.identity
}

// Dimensions returns the vector size observed so far, or 0 before the first call.
func (c *Client) Dimensions() int {
	return int(c.dims.Load())
}

// EmbedBatch embeds texts in chunks of batchSize (the client default when batchSize < 1).
// The result is position-aligned with texts and every vector is L2-normalized.
// Any chunk failure fails the whole call.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, batchSize int) ([][]float32, error) {
	if batchSize < 1 {
		batchSize = c.batchSize
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+batchSize, len(texts))
		chunk := texts[start:end]

		vecs, err := c.provider.EmbedBatch(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrProviderCall, c.identity, err)
		}
		if len(vecs) != len(chunk) {
			return nil, fmt.Errorf("%w: %s: got %d vectors for %d texts", ErrProviderCall, c.identity, len(vecs), len(chunk))
		}
		for i, v := range vecs {
			if err := c.checkDims(len(v)); err != nil {
				return nil, fmt.Errorf("%w: %s: text %d: %v", ErrProviderCall, c.identity, start+i, err)
			}
			utils.NormalizeL2(v)
		}
		out = append(out, vecs...)

		if len(texts) > batchSize {
			c.logger.Info("Embedding progress",
				zap.Int("embedded", end),
				zap.Int("total", len(texts)),
				zap.Float64("percent", 100*float64(end)/float64(len(texts))))
		}
	}
	return out, nil
}

// EmbedQuery embeds a single query text, consulting the query cache first.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.queries.Get(text); ok {
		return v, nil
	}
	vecs, err := c.EmbedBatch(ctx, []string{text}, 1)
	if err != nil {
		return nil, err
	}
	c.queries.Set(text, vecs[0])
	return vecs[0], nil
}

// Close releases the underlying provider.
func (c *Client) Close() error {
	return c.provider.Close()
}

func (c *Client) checkDims(n int) error {
	if n == 0 {
		return fmt.Errorf("empty vector")
	}
	if c.dims.CompareAndSwap(0, int64(n)) {
		return nil
	}
	if want := c.dims.Load(); int64(n) != want {
		return fmt.Errorf("dimension %d, want %d", n, want)
	}
	return nil
}
