package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ProbeText is embedded once when a client is constructed to fail fast on bad credentials or models.
const ProbeText = "test"

// Factory constructs a raw provider for an identity.
type Factory func(ctx context.Context, id Identity) (Provider, error)

// ClientCache holds at most one probed Client. Asking for a different identity replaces
// (and closes) the cached client; it is a single slot, not an LRU.
type ClientCache struct {
	factory Factory
	opts    []ClientOption
	logger  *zap.Logger

	mu      sync.Mutex
	current *Client
}

// NewClientCache returns an empty cache. opts are applied to every client it builds.
func NewClientCache(factory Factory, logger *zap.Logger, opts ...ClientOption) *ClientCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientCache{factory: factory, opts: opts, logger: logger}
}

// Get returns the client for id, constructing and probing it on a miss.
// Construction or probe failures are reported as ErrProviderInit and leave the slot unchanged.
func (c *ClientCache) Get(ctx context.Context, id Identity) (*Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && c.current.identity == id {
		return c.current, nil
	}

	provider, err := c.factory(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProviderInit) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrProviderInit, id, err)
	}
	client := NewClient(provider, id, c.opts...)
	if _, err := client.EmbedBatch(ctx, []string{ProbeText}, 1); err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("%w: %s: liveness probe: %v", ErrProviderInit, id, err)
	}

	if c.current != nil {
		c.logger.Info("Replacing embedding client",
			zap.String("old", c.current.identity.String()),
			zap.String("new", id.String()))
		if err := c.current.Close(); err != nil {
			c.logger.Warn("Failed to close embedding client", zap.Error(err))
		}
	}
	c.current = client
	c.logger.Debug("Embedding client ready",
		zap.String("identity", id.String()),
		zap.Int("dimensions", client.Dimensions()))
	return client, nil
}

// Current returns the cached client, or nil.
func (c *ClientCache) Current() *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Close closes the cached client, if any.
func (c *ClientCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	err := c.current.Close()
	c.current = nil
	return err
}
