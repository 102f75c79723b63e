package lexical

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/hyperjump/palilex/internal/dictionary"
	"github.com/hyperjump/palilex/internal/models"
)

// ErrInvalidQuery is returned for out-of-range limits or score cutoffs.
var ErrInvalidQuery = errors.New("invalid query")

// parallelThreshold is the candidate count above which scoring is split across goroutines.
const parallelThreshold = 2048

// Matcher ranks dictionary entries by similarity of their native spelling to a query.
type Matcher struct {
	table  *dictionary.Table
	scorer Scorer
	// native caches the candidate strings in table order.
	native []string
	idx    []int
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithScorer replaces the default WRatio scorer.
func WithScorer(s Scorer) Option {
	return func(m *Matcher) {
		if s != nil {
			m.scorer = s
		}
	}
}

// NewMatcher builds a matcher over the rows of table that carry a native spelling.
func NewMatcher(table *dictionary.Table, opts ...Option) *Matcher {
	m := &Matcher{table: table, scorer: WRatio}
	for _, opt := range opts {
		opt(m)
	}
	m.idx = table.NativeCandidates()
	m.native = make([]string, len(m.idx))
	for i, pos := range m.idx {
		m.native[i] = table.Entry(pos).NativeSpelling
	}
	return m
}

// Len returns the number of candidates.
func (m *Matcher) Len() int { return len(m.idx) }

type scored struct {
	pos   int
	score float64
}

// Search scores every candidate against query and returns at most limit results with
// score >= scoreCutoff, best first. Equal scores keep table order. A blank query yields
// an empty result.
func (m *Matcher) Search(query string, limit int, scoreCutoff float64) ([]*models.SearchResult, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be >= 1, got %d", ErrInvalidQuery, limit)
	}
	if math.IsNaN(scoreCutoff) || scoreCutoff < 0 || scoreCutoff > 100 {
		return nil, fmt.Errorf("%w: score cutoff must be within [0,100], got %g", ErrInvalidQuery, scoreCutoff)
	}
	query = strings.TrimSpace(query)
	results := make([]*models.SearchResult, 0)
	if query == "" || len(m.native) == 0 {
		return results, nil
	}

	scores := m.scoreAll(query)
	hits := make([]scored, 0, len(scores))
	for i, s := range scores {
		if s >= scoreCutoff {
			hits = append(hits, scored{pos: m.idx[i], score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	for _, h := range hits {
		e := m.table.Entry(h.pos)
		results = append(results, &models.SearchResult{
			NativeSpelling: e.NativeSpelling,
			RomanSpelling:  e.RomanSpelling,
			Definition:     e.Definition,
			Score:          h.score,
		})
	}
	return results, nil
}

func (m *Matcher) scoreAll(query string) []float64 {
	scores := make([]float64, len(m.native))
	workers := runtime.GOMAXPROCS(0)
	if len(m.native) < parallelThreshold || workers < 2 {
		for i, c := range m.native {
			scores[i] = m.scorer(query, c)
		}
		return scores
	}

	chunk := (len(m.native) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(m.native); start += chunk {
		end := min(start+chunk, len(m.native))
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				scores[i] = m.scorer(query, m.native[i])
			}
		}(start, end)
	}
	wg.Wait()
	return scores
}
