//go:build !faiss || !cgo
// +build !faiss !cgo

package vector

import (
	"errors"
)

var errNoFAISS = errors.New("FAISS not available: build with -tags=faiss and install FAISS library")

// FAISSIndex is a stub that returns an error when FAISS is not available.
// Build with -tags=faiss to enable FAISS support.
type FAISSIndex struct{}

// NewFAISSIndex returns an error because FAISS is not available.
func NewFAISSIndex(int) (*FAISSIndex, error) {
	return nil, errNoFAISS
}

// LoadFAISSIndex returns an error because FAISS is not available.
func LoadFAISSIndex(string) (*FAISSIndex, error) {
	return nil, errNoFAISS
}

// Add is not implemented without FAISS.
func (f *FAISSIndex) Add([][]float32) error { return errNoFAISS }

// Search is not implemented without FAISS.
func (f *FAISSIndex) Search([]float32, int) ([]Neighbor, error) { return nil, errNoFAISS }

// Save is not implemented without FAISS.
func (f *FAISSIndex) Save(string) error { return errNoFAISS }

// Size returns 0 without FAISS.
func (f *FAISSIndex) Size() int { return 0 }

// Dimensions returns 0 without FAISS.
func (f *FAISSIndex) Dimensions() int { return 0 }

// Close is a no-op without FAISS.
func (f *FAISSIndex) Close() error { return nil }

// Type returns the index type identifier.
func (f *FAISSIndex) Type() string { return string(IndexTypeFAISS) }
