package vector

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
)

// indexMagic prefixes every serialized MemoryIndex.
const indexMagic = "PLXF"

// MemoryIndex is a flat index using brute-force inner product search.
type MemoryIndex struct {
	dimensions int
	vectors    [][]float32
	mu         sync.RWMutex
}

// NewMemoryIndex creates an empty flat index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{dimensions: dimensions}, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// Add appends copies of vectors. Either all vectors are added or none.
func (m *MemoryIndex) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != m.dimensions {
			return fmt.Errorf("vector %d dimension mismatch: got %d, expected %d", i, len(v), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vectors {
		m.vectors = append(m.vectors, append([]float32(nil), v...))
	}
	return nil
}

// Search returns up to k positions by descending inner product. Equal scores keep
// insertion order.
func (m *MemoryIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.vectors) == 0 {
		return nil, nil
	}
	scores := make([]Neighbor, len(m.vectors))
	for i, vec := range m.vectors {
		scores[i] = Neighbor{Position: i, Score: InnerProduct(query, vec)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k:k], nil
}

// MarshalBinary encodes: magic (4), dimension (u32), n (u32), then n*dimension float32s.
func (m *MemoryIndex) MarshalBinary() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]byte, 0, 12+len(m.vectors)*m.dimensions*4)
	out = append(out, indexMagic...)
	out = binary.LittleEndian.AppendUint32(out, uint32(m.dimensions))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(m.vectors)))
	for _, vec := range m.vectors {
		for _, x := range vec {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(x))
		}
	}
	return out, nil
}

// UnmarshalBinary replaces the index contents. Any structural problem is ErrIndexCorrupt.
func (m *MemoryIndex) UnmarshalBinary(data []byte) error {
	if len(data) < 12 || string(data[:4]) != indexMagic {
		return fmt.Errorf("%w: bad header", ErrIndexCorrupt)
	}
	dim := int(binary.LittleEndian.Uint32(data[4:8]))
	n := int(binary.LittleEndian.Uint32(data[8:12]))
	if dim <= 0 {
		return fmt.Errorf("%w: dimension %d", ErrIndexCorrupt, dim)
	}
	body := data[12:]
	if want := uint64(n) * uint64(dim) * 4; uint64(len(body)) != want {
		return fmt.Errorf("%w: truncated or oversized body: %d bytes, want %d", ErrIndexCorrupt, len(body), want)
	}
	vectors := make([][]float32, n)
	off := 0
	for i := range vectors {
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(body[off : off+4]))
			off += 4
		}
		vectors[i] = vec
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dimensions = dim
	m.vectors = vectors
	return nil
}

// Save writes the binary encoding to path.
func (m *MemoryIndex) Save(path string) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write index file: %w", err)
	}
	return nil
}

// LoadMemoryIndex reads an index written by Save.
func LoadMemoryIndex(path string) (*MemoryIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index file: %w", err)
	}
	m := &MemoryIndex{}
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return m, nil
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// Dimensions returns the vector dimension.
func (m *MemoryIndex) Dimensions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dimensions
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
