package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/hyperjump/palilex/internal/dictionary"
	"go.uber.org/zap"
)

// TableSwapper installs a freshly loaded table.
type TableSwapper interface {
	ReloadTable(ctx context.Context, table *dictionary.Table, rebuild bool) error
}

// Reloader re-reads the dictionary source and hands the table to a TableSwapper.
// A failed load leaves the current table in service.
type Reloader struct {
	source  string
	opts    []dictionary.Option
	target  TableSwapper
	rebuild bool
	logger  *zap.Logger

	mu sync.Mutex
}

// NewReloader returns a Reloader for source. With rebuild set the vector index is rebuilt
// after every successful reload.
func NewReloader(source string, target TableSwapper, rebuild bool, logger *zap.Logger, opts ...dictionary.Option) *Reloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reloader{source: source, opts: opts, target: target, rebuild: rebuild, logger: logger}
}

// Reload loads the source and swaps it in. Concurrent calls are serialized.
func (r *Reloader) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	table, err := dictionary.Load(ctx, r.source, r.opts...)
	if err != nil {
		r.logger.Warn("Dictionary reload failed; keeping current table",
			zap.String("source", r.source),
			zap.Error(err))
		return err
	}
	if err := r.target.ReloadTable(ctx, table, r.rebuild); err != nil {
		return err
	}
	r.logger.Info("Dictionary reload complete",
		zap.String("source", r.source),
		zap.Int("entries", table.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// OnChange adapts Reload to a Watcher callback, logging instead of returning errors.
func (r *Reloader) OnChange(timeout time.Duration) func(path string) {
	return func(path string) {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		if err := r.Reload(ctx); err != nil {
			r.logger.Warn("watch reload failed", zap.String("path", path), zap.Error(err))
		}
	}
}
