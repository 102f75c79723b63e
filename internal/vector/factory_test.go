package vector

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestNewIndex_Memory(t *testing.T) {
	for _, typ := range []string{"memory", ""} {
		idx, err := NewIndex(typ, 3)
		if err != nil {
			t.Fatalf("NewIndex(%q): %v", typ, err)
		}
		if idx.Type() != string(IndexTypeMemory) {
			t.Errorf("Type = %s", idx.Type())
		}
		if err := idx.Add([][]float32{{1, 0, 0}}); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if idx.Size() != 1 {
			t.Errorf("Size=%d, want 1", idx.Size())
		}
		_ = idx.Close()
	}
}

func TestNewIndex_Unknown(t *testing.T) {
	if _, err := NewIndex("hnsw", 3); err == nil {
		t.Error("expected error for unknown index type")
	}
}

func TestNewIndex_FAISSMatchesAvailability(t *testing.T) {
	idx, err := NewIndex("faiss", 3)
	if IsFAISSAvailable() {
		if err != nil {
			t.Fatalf("NewIndex(faiss): %v", err)
		}
		_ = idx.Close()
		return
	}
	if err == nil {
		t.Error("expected error when FAISS is not compiled in")
	}
}

func TestLoadIndex_Missing(t *testing.T) {
	_, err := LoadIndex("memory", filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}
