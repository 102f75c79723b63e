// Package headword provides typo-tolerant lookup of dictionary rows by their roman spelling.
package headword

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/palilex/internal/dictionary"
	"github.com/hyperjump/palilex/internal/lexical"
	"github.com/hyperjump/palilex/internal/models"
)

const (
	romanField    = "roman"
	minCandidates = 50
)

type headwordDoc struct {
	Roman string `json:"roman"`
}

// Index is an in-memory Bleve index over the roman spellings of a dictionary table.
type Index struct {
	index bleve.Index
	table *dictionary.Table
}

// Build indexes every row of table. Row positions are used as document ids.
func Build(ctx context.Context, table *dictionary.Table) (*Index, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	// Headwords are single terms; the keyword analyzer keeps diacritics and the whole spelling intact.
	romanMapping := bleve.NewTextFieldMapping()
	romanMapping.Analyzer = keyword.Name
	romanMapping.Store = false
	docMapping.AddFieldMappingsAt(romanField, romanMapping)
	im.DefaultMapping = docMapping

	idx, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create headword index: %w", err)
	}

	batch := idx.NewBatch()
	for i := 0; i < table.Len(); i++ {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				_ = idx.Close()
				return nil, err
			}
		}
		doc := headwordDoc{Roman: strings.ToLower(table.Entry(i).RomanSpelling)}
		if err := batch.Index(strconv.Itoa(i), doc); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("failed to index headword %d: %w", i, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("failed to commit headword index: %w", err)
	}
	return &Index{index: idx, table: table}, nil
}

// Lookup finds rows whose roman spelling equals, starts with, or is within a small edit
// distance of query. Results are scored by Levenshtein similarity in [0,100], best first.
func (x *Index) Lookup(ctx context.Context, query string, limit int) ([]*models.SearchResult, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be >= 1, got %d", lexical.ErrInvalidQuery, limit)
	}
	term := strings.ToLower(strings.TrimSpace(query))
	results := make([]*models.SearchResult, 0)
	if term == "" {
		return results, nil
	}

	exact := bleve.NewTermQuery(term)
	exact.SetField(romanField)
	exact.SetBoost(3)
	prefix := bleve.NewPrefixQuery(term)
	prefix.SetField(romanField)
	fuzzy := bleve.NewFuzzyQuery(term)
	fuzzy.SetField(romanField)
	fuzzy.SetFuzziness(fuzzinessFor(term))

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery([]blevequery.Query{exact, prefix, fuzzy}...))
	req.Size = max(limit*4, minCandidates)
	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("headword search failed: %w", err)
	}

	type scored struct {
		pos   int
		score float64
	}
	hits := make([]scored, 0, len(res.Hits))
	for _, hit := range res.Hits {
		pos, err := strconv.Atoi(hit.ID)
		if err != nil || pos < 0 || pos >= x.table.Len() {
			continue
		}
		hits = append(hits, scored{pos: pos, score: similarity(term, strings.ToLower(x.table.Entry(pos).RomanSpelling))})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].pos < hits[j].pos
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	for _, h := range hits {
		e := x.table.Entry(h.pos)
		results = append(results, &models.SearchResult{
			NativeSpelling: e.NativeSpelling,
			RomanSpelling:  e.RomanSpelling,
			Definition:     e.Definition,
			Score:          h.score,
		})
	}
	return results, nil
}

// DocCount returns the number of indexed headwords.
func (x *Index) DocCount() (uint64, error) {
	return x.index.DocCount()
}

// Close releases the index.
func (x *Index) Close() error {
	return x.index.Close()
}

// fuzzinessFor allows one edit for short headwords and two otherwise.
func fuzzinessFor(term string) int {
	if utf8.RuneCountInString(term) <= 4 {
		return 1
	}
	return 2
}

func similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 100
	}
	return 100 * (1 - float64(lexical.LevenshteinDistance(a, b))/float64(longest))
}
