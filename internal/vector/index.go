// Package vector provides the inner-product index over definition embeddings and its
// persisted, cached lifecycle.
package vector

import "errors"

// ErrIndexCorrupt is returned when persisted artifacts cannot be parsed or are misaligned.
var ErrIndexCorrupt = errors.New("vector index corrupt")

// Index is an inner-product nearest-neighbor structure. Vectors are addressed by their
// insertion position, which is the alignment key into the metadata sequence.
// Search is safe for concurrent use; Add is not expected to race with Search.
type Index interface {
	Add(vectors [][]float32) error
	Search(query []float32, k int) ([]Neighbor, error)
	Save(path string) error
	Size() int
	Dimensions() int
	Type() string
	Close() error
}

// Neighbor is a single search hit.
type Neighbor struct {
	Position int
	Score    float64 // Inner product; cosine similarity for normalized vectors.
}
