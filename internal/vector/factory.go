package vector

import (
	"fmt"
	"os"
)

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeMemory uses in-memory brute-force search.
	IndexTypeMemory IndexType = "memory"
	// IndexTypeFAISS uses a FAISS IndexFlatIP. Requires the FAISS library and -tags=faiss.
	IndexTypeFAISS IndexType = "faiss"
)

// NewIndex creates an empty index of the given type ("" means memory).
func NewIndex(indexType string, dimensions int) (Index, error) {
	switch IndexType(indexType) {
	case IndexTypeMemory, "":
		return NewMemoryIndex(dimensions)
	case IndexTypeFAISS:
		return NewFAISSIndex(dimensions)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, faiss)", indexType)
	}
}

// LoadIndex reads a persisted index of the given type. Unparseable files yield ErrIndexCorrupt;
// a missing file is returned as is (os.ErrNotExist).
func LoadIndex(indexType, path string) (Index, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	switch IndexType(indexType) {
	case IndexTypeMemory, "":
		return LoadMemoryIndex(path)
	case IndexTypeFAISS:
		return LoadFAISSIndex(path)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, faiss)", indexType)
	}
}

// IsFAISSAvailable returns true if FAISS support is compiled in.
func IsFAISSAvailable() bool {
	idx, err := NewFAISSIndex(1)
	if err != nil {
		return false
	}
	_ = idx.Close()
	return true
}
