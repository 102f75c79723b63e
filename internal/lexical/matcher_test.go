package lexical

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/hyperjump/palilex/internal/dictionary"
	"github.com/hyperjump/palilex/internal/models"
)

func sampleTable() *dictionary.Table {
	return dictionary.NewTable("test", []models.DictionaryEntry{
		{RomanSpelling: "dhamma", NativeSpelling: "ธรรม", Definition: "the teaching"},
		{RomanSpelling: "dhammo", NativeSpelling: "ธมฺโม"},
		{RomanSpelling: "sati", Definition: "mindfulness"},
		{RomanSpelling: "buddha", NativeSpelling: "พุทฺธ", Definition: "awakened one"},
		{RomanSpelling: "dhamma2", NativeSpelling: "ธรรม", Definition: "phenomenon"},
	})
}

func TestMatcher_SearchRanksExactFirst(t *testing.T) {
	m := NewMatcher(sampleTable())
	if m.Len() != 4 {
		t.Fatalf("candidates = %d, want 4", m.Len())
	}
	results, err := m.Search("ธรรม", 2, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len = %d, want 2", len(results))
	}
	// Equal scores keep table order.
	if results[0].RomanSpelling != "dhamma" || results[1].RomanSpelling != "dhamma2" {
		t.Errorf("order = %s, %s", results[0].RomanSpelling, results[1].RomanSpelling)
	}
	if results[0].Score != 100 {
		t.Errorf("score = %v, want 100", results[0].Score)
	}
}

func TestMatcher_VariantSpelling(t *testing.T) {
	m := NewMatcher(sampleTable())
	results, err := m.Search("ธัมมะ", 5, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted at %d", i)
		}
	}
	for _, r := range results {
		if r.NativeSpelling == "" {
			t.Errorf("result without native spelling: %+v", r)
		}
	}
}

func TestMatcher_Cutoff(t *testing.T) {
	m := NewMatcher(sampleTable())
	results, err := m.Search("ธรรม", 10, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len = %d, want 2", len(results))
	}
	for _, r := range results {
		if r.Score < 100 {
			t.Errorf("score %v below cutoff", r.Score)
		}
	}
}

func TestMatcher_BlankQuery(t *testing.T) {
	m := NewMatcher(sampleTable())
	results, err := m.Search("   ", 5, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", results)
	}
}

func TestMatcher_InvalidArguments(t *testing.T) {
	m := NewMatcher(sampleTable())
	if _, err := m.Search("ธรรม", 0, 0); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("limit 0: err = %v", err)
	}
	if _, err := m.Search("ธรรม", 5, 101); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("cutoff 101: err = %v", err)
	}
	if _, err := m.Search("ธรรม", 5, -1); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("cutoff -1: err = %v", err)
	}
	if _, err := m.Search("ธรรม", 5, math.NaN()); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("cutoff NaN: err = %v", err)
	}
}

func TestMatcher_ParallelMatchesSerial(t *testing.T) {
	entries := make([]models.DictionaryEntry, 0, parallelThreshold*2)
	for i := 0; i < parallelThreshold*2; i++ {
		entries = append(entries, models.DictionaryEntry{
			RomanSpelling:  fmt.Sprintf("w%d", i),
			NativeSpelling: fmt.Sprintf("ธ%dม", i%97),
		})
	}
	table := dictionary.NewTable("gen", entries)
	m := NewMatcher(table)

	got, err := m.Search("ธ42ม", 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	if got[0].RomanSpelling != "w42" || got[1].RomanSpelling != "w139" {
		t.Errorf("top hits = %s, %s; want w42, w139", got[0].RomanSpelling, got[1].RomanSpelling)
	}
}

func TestMatcher_CustomScorer(t *testing.T) {
	calls := 0
	m := NewMatcher(sampleTable(), WithScorer(func(q, c string) float64 {
		calls++
		return 50
	}))
	results, err := m.Search("x", 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if calls != 4 || len(results) != 4 {
		t.Errorf("calls = %d, results = %d", calls, len(results))
	}
	if results[0].RomanSpelling != "dhamma" {
		t.Errorf("ties should keep table order, got %s", results[0].RomanSpelling)
	}
}
