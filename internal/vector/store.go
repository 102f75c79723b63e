package vector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/palilex/internal/dictionary"
	"github.com/hyperjump/palilex/internal/embedding"
	"github.com/hyperjump/palilex/internal/models"
	"go.uber.org/zap"
)

// State is the lifecycle state of a Store.
type State string

const (
	StateAbsent   State = "absent"
	StateBuilding State = "building"
	StateReady    State = "ready"
)

// Embedder is what a Store needs from an embedding client.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string, batchSize int) ([][]float32, error)
	Identity() embedding.Identity
	// Dimensions is the vector size the embedder produces, or 0 when not yet known.
	Dimensions() int
}

// Snapshot is an immutable, aligned (index, metadata) pair. Position i of Index
// corresponds to Meta[i].
type Snapshot struct {
	Index    Index
	Meta     []models.DictionaryEntry
	Manifest Manifest
}

// Query returns up to k neighbors of vec by descending score. Exhausted positions are omitted.
func (s *Snapshot) Query(vec []float32, k int) ([]Neighbor, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}
	hits, err := s.Index.Search(vec, k)
	if err != nil {
		return nil, err
	}
	out := hits[:0:0]
	for _, h := range hits {
		if h.Position >= 0 && h.Position < len(s.Meta) {
			out = append(out, h)
		}
	}
	return out, nil
}

// Stats summarizes a Store for status reporting.
type Stats struct {
	State      State     `json:"state"`
	Backend    string    `json:"backend"`
	Persisted  bool      `json:"persisted"`
	Count      int       `json:"count"`
	Dimensions int       `json:"dimensions"`
	BuildID    string    `json:"build_id,omitempty"`
	Model      string    `json:"model,omitempty"`
	BuiltAt    time.Time `json:"built_at,omitempty"`
	DiskBytes  int64     `json:"disk_bytes"`
}

// Store owns the cached index for one artifact directory. Readers load the current
// snapshot without locking; building and loading are serialized so at most one build
// runs per cache miss.
type Store struct {
	artifacts Artifacts
	batchSize int
	logger    *zap.Logger

	mu       sync.Mutex
	snap     atomic.Pointer[Snapshot]
	building atomic.Bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithBackend selects the index type ("memory" or "faiss").
func WithBackend(backend string) StoreOption {
	return func(s *Store) { s.artifacts.Backend = backend }
}

// WithBatchSize sets the embedding batch size used by Build.
func WithBatchSize(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore returns a Store persisting into dir. Nothing is loaded until EnsureReady or Build.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{
		artifacts: Artifacts{Dir: dir, Backend: string(IndexTypeMemory)},
		batchSize: embedding.DefaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Artifacts returns the store's artifact locations.
func (s *Store) Artifacts() Artifacts {
	return s.artifacts
}

// Snapshot returns the cached snapshot or nil.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Cached returns the cached snapshot when it was built from table with emb's model, or nil.
// It never blocks.
func (s *Store) Cached(table *dictionary.Table, emb Embedder) *Snapshot {
	snap := s.snap.Load()
	if !matches(snap, table, emb.Identity().String()) {
		return nil
	}
	return snap
}

func matches(snap *Snapshot, table *dictionary.Table, model string) bool {
	return snap != nil && snap.Manifest.Model == model && snap.Manifest.TableHash == table.Fingerprint()
}

// State reports the lifecycle state.
func (s *Store) State() State {
	if s.building.Load() {
		return StateBuilding
	}
	if s.snap.Load() != nil {
		return StateReady
	}
	return StateAbsent
}

// Build embeds every defined entry of table, persists the artifacts and installs the new
// snapshot. The previous snapshot stays visible until the new one is complete.
func (s *Store) Build(ctx context.Context, table *dictionary.Table, emb Embedder) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildLocked(ctx, table, emb)
}

// EnsureReady returns the cached snapshot when it was built from table with emb's identity;
// otherwise it loads persisted artifacts, or builds when they are missing, corrupt or stale.
func (s *Store) EnsureReady(ctx context.Context, table *dictionary.Table, emb Embedder) (*Snapshot, error) {
	if snap := s.Cached(table, emb); snap != nil {
		return snap, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if snap := s.Cached(table, emb); snap != nil {
		return snap, nil
	}

	if snap, err := s.loadLocked(table, emb); err == nil {
		return snap, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("Persisted vector index unusable, rebuilding",
			zap.String("dir", s.artifacts.Dir),
			zap.Error(err))
	}
	return s.buildLocked(ctx, table, emb)
}

// Invalidate drops the cached snapshot. Persisted artifacts are kept; EnsureReady
// re-validates them against the table it is given. The dropped index is not closed
// because readers may still hold the snapshot; see buildLocked.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Store(nil)
}

// Stats reports the current state.
func (s *Store) Stats() Stats {
	st := Stats{
		State:     s.State(),
		Backend:   s.artifacts.Backend,
		Persisted: s.artifacts.Exists(),
	}
	if snap := s.snap.Load(); snap != nil {
		st.Count = len(snap.Meta)
		st.Dimensions = snap.Index.Dimensions()
		st.BuildID = snap.Manifest.BuildID
		st.Model = snap.Manifest.Model
		st.BuiltAt = snap.Manifest.BuiltAt
	}
	if n, err := s.artifacts.DiskUsage(); err == nil {
		st.DiskBytes = n
	}
	return st
}

// Close drops the cached snapshot and releases its index.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap.Swap(nil)
	if snap == nil {
		return nil
	}
	return snap.Index.Close()
}

// errStale marks artifacts that parse but belong to another model, table or vector size.
var errStale = errors.New("stale artifacts")

func (s *Store) loadLocked(table *dictionary.Table, emb Embedder) (*Snapshot, error) {
	model := emb.Identity().String()
	if !s.artifacts.Exists() {
		return nil, fs.ErrNotExist
	}
	idx, meta, manifest, err := s.artifacts.Load()
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Index: idx, Meta: meta}
	if manifest != nil {
		snap.Manifest = *manifest
		if manifest.Model != model {
			_ = idx.Close()
			return nil, fmt.Errorf("%w: built with %s, client is %s", errStale, manifest.Model, model)
		}
	} else {
		// Artifacts without a manifest are adopted for the active model.
		snap.Manifest = Manifest{Model: model, Backend: idx.Type(), Dimensions: idx.Dimensions(), Count: len(meta)}
	}
	if dictionary.Fingerprint(meta) != table.Fingerprint() {
		_ = idx.Close()
		return nil, fmt.Errorf("%w: dictionary changed since build %s", errStale, snap.Manifest.BuildID)
	}
	if dims := emb.Dimensions(); dims > 0 && idx.Dimensions() != dims {
		_ = idx.Close()
		return nil, fmt.Errorf("%w: index has %d dimensions, client produces %d", errStale, idx.Dimensions(), dims)
	}
	snap.Manifest.TableHash = table.Fingerprint()

	s.snap.Store(snap)
	s.logger.Info("Loaded vector index",
		zap.String("dir", s.artifacts.Dir),
		zap.Int("count", len(meta)),
		zap.String("build_id", snap.Manifest.BuildID))
	return snap, nil
}

func (s *Store) buildLocked(ctx context.Context, table *dictionary.Table, emb Embedder) (*Snapshot, error) {
	s.building.Store(true)
	defer s.building.Store(false)

	meta := table.WithDefinition()
	if len(meta) == 0 {
		return nil, fmt.Errorf("%w: no entries with a definition to index", dictionary.ErrDataUnavailable)
	}
	buildID := uuid.NewString()
	start := time.Now()
	s.logger.Info("Building vector index",
		zap.String("build_id", buildID),
		zap.Int("entries", len(meta)),
		zap.String("model", emb.Identity().String()))

	texts := make([]string, len(meta))
	for i, e := range meta {
		texts[i] = e.Definition
	}
	vecs, err := emb.EmbedBatch(ctx, texts, s.batchSize)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(meta) {
		return nil, fmt.Errorf("%w: got %d vectors for %d definitions", embedding.ErrProviderCall, len(vecs), len(meta))
	}

	idx, err := NewIndex(s.artifacts.Backend, len(vecs[0]))
	if err != nil {
		return nil, err
	}
	if err := idx.Add(vecs); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("add vectors: %w", err)
	}

	manifest := Manifest{
		BuildID:    buildID,
		Model:      emb.Identity().String(),
		Backend:    idx.Type(),
		Dimensions: idx.Dimensions(),
		Count:      len(meta),
		TableHash:  table.Fingerprint(),
		BuiltAt:    time.Now().UTC(),
	}
	if err := s.artifacts.Save(idx, meta, manifest); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("persist vector index: %w", err)
	}

	// The replaced snapshot is not closed: lock-free readers may still be querying it.
	// Memory indexes need no release and FAISS indexes are freed by their finalizer.
	snap := &Snapshot{Index: idx, Meta: meta, Manifest: manifest}
	s.snap.Store(snap)
	s.logger.Info("Vector index ready",
		zap.String("build_id", buildID),
		zap.Int("count", len(meta)),
		zap.Int("dimensions", manifest.Dimensions),
		zap.Duration("elapsed", time.Since(start)))
	return snap, nil
}
