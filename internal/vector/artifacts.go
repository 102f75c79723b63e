package vector

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperjump/palilex/internal/models"
	"github.com/hyperjump/palilex/internal/storage"
)

// Artifact file names inside the index directory.
const (
	IndexFile    = "definitions.index"
	MetaFile     = "definitions.meta.json"
	ManifestFile = "definitions.manifest.json"
)

// Manifest describes how a persisted index was built.
type Manifest struct {
	BuildID    string    `json:"build_id"`
	Model      string    `json:"model"`
	Backend    string    `json:"backend"`
	Dimensions int       `json:"dimensions"`
	Count      int       `json:"count"`
	TableHash  string    `json:"table_hash"`
	BuiltAt    time.Time `json:"built_at"`
}

// Artifacts is the on-disk home of one index: the index blob, the aligned metadata array
// and the manifest.
type Artifacts struct {
	Dir     string
	Backend string
}

// IndexPath returns the index blob path.
func (a Artifacts) IndexPath() string { return filepath.Join(a.Dir, IndexFile) }

// MetaPath returns the metadata array path.
func (a Artifacts) MetaPath() string { return filepath.Join(a.Dir, MetaFile) }

// ManifestPath returns the manifest path.
func (a Artifacts) ManifestPath() string { return filepath.Join(a.Dir, ManifestFile) }

// Exists reports whether both the index blob and the metadata file are present.
func (a Artifacts) Exists() bool {
	return storage.Exists(a.IndexPath(), a.MetaPath())
}

// DiskUsage returns the total size of the artifact files.
func (a Artifacts) DiskUsage() (int64, error) {
	return storage.DiskUsageBytes(a.IndexPath(), a.MetaPath(), a.ManifestPath())
}

// Save persists index, meta and manifest. Each file is replaced atomically; the manifest
// is written last so its presence marks a completed build.
func (a Artifacts) Save(idx Index, meta []models.DictionaryEntry, manifest Manifest) error {
	if idx.Size() != len(meta) {
		return fmt.Errorf("refusing to persist misaligned index: %d vectors, %d metadata rows", idx.Size(), len(meta))
	}
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	_ = os.Remove(a.ManifestPath())

	if err := storage.WriteAtomic(a.IndexPath(), idx.Save); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := storage.WriteFileAtomic(a.MetaPath(), metaJSON); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := storage.WriteFileAtomic(a.ManifestPath(), manifestJSON); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Load reads the artifacts back. Parse failures and length mismatches are ErrIndexCorrupt.
// The returned manifest is nil when no manifest file exists.
func (a Artifacts) Load() (Index, []models.DictionaryEntry, *Manifest, error) {
	idx, err := LoadIndex(a.Backend, a.IndexPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrIndexCorrupt) {
			return nil, nil, nil, err
		}
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}

	fail := func(err error) (Index, []models.DictionaryEntry, *Manifest, error) {
		_ = idx.Close()
		return nil, nil, nil, err
	}

	data, err := os.ReadFile(a.MetaPath())
	if err != nil {
		return fail(err)
	}
	var meta []models.DictionaryEntry
	if err := json.Unmarshal(data, &meta); err != nil {
		return fail(fmt.Errorf("%w: metadata: %v", ErrIndexCorrupt, err))
	}
	if len(meta) != idx.Size() {
		return fail(fmt.Errorf("%w: %d vectors but %d metadata rows", ErrIndexCorrupt, idx.Size(), len(meta)))
	}

	var manifest *Manifest
	if data, err := os.ReadFile(a.ManifestPath()); err == nil {
		manifest = &Manifest{}
		if err := json.Unmarshal(data, manifest); err != nil {
			return fail(fmt.Errorf("%w: manifest: %v", ErrIndexCorrupt, err))
		}
		if manifest.Count != len(meta) {
			return fail(fmt.Errorf("%w: manifest count %d, metadata rows %d", ErrIndexCorrupt, manifest.Count, len(meta)))
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fail(fmt.Errorf("read manifest: %w", err))
	}
	return idx, meta, manifest, nil
}

// Remove deletes all artifact files. Missing files are ignored.
func (a Artifacts) Remove() error {
	for _, p := range []string{a.ManifestPath(), a.MetaPath(), a.IndexPath()} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
