package embedding

import (
	"context"
	"strings"
	"sync"
)

// DefaultMockDimensions is used when NewMockProvider is given a non-positive size.
const DefaultMockDimensions = 64

// stopWords are ignored so that "the teaching" and "teaching" embed identically.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "of": {}, "to": {}, "in": {}, "is": {}, "or": {},
}

// MockProvider is a deterministic bag-of-words provider for tests and offline use.
// Each word is hashed into two signed buckets, so texts sharing words get similar vectors.
type MockProvider struct {
	dimensions int

	mu     sync.Mutex
	calls  int
	failOn func(texts []string) error
}

// NewMockProvider returns a provider that produces deterministic embeddings of the given dimensions.
func NewMockProvider(dimensions int) *MockProvider {
	if dimensions <= 0 {
		dimensions = DefaultMockDimensions
	}
	return &MockProvider{dimensions: dimensions}
}

// FailWith makes subsequent calls fail when fn returns an error. A nil fn clears it.
func (p *MockProvider) FailWith(fn func(texts []string) error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failOn = fn
}

// Calls returns how many EmbedBatch calls were made.
func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// EmbedBatch embeds each text independently.
func (p *MockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	p.calls++
	failOn := p.failOn
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failOn != nil {
		if err := failOn(texts); err != nil {
			return nil, err
		}
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = p.embed(text)
	}
	return out, nil
}

func (p *MockProvider) embed(text string) []float32 {
	emb := make([]float32, p.dimensions)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if _, skip := stopWords[word]; skip || word == "" {
			continue
		}
		h := HashString(word)
		emb[h%p.dimensions] += 1
		if h&1 == 0 {
			emb[(h/7)%p.dimensions] += 0.5
		} else {
			emb[(h/7)%p.dimensions] -= 0.5
		}
	}
	return emb
}

// Dimensions returns the embedding dimension.
func (p *MockProvider) Dimensions() int {
	return p.dimensions
}

// Close is a no-op for MockProvider.
func (p *MockProvider) Close() error {
	return nil
}
