package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/palilex/internal/models"
	"github.com/hyperjump/palilex/internal/search"
	"github.com/hyperjump/palilex/internal/vector"
)

func sampleResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Query:     "ธัมมะ",
		Source:    models.SourceLexical,
		QueryTime: 42,
		Results: []*models.SearchResult{
			{NativeSpelling: "ธรรม", RomanSpelling: "dhamma", Definition: "the teaching", Score: 44.44},
			{NativeSpelling: "พุทธ", RomanSpelling: "buddha", Score: 12.5},
		},
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{" compact ", OutputCompact, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded models.SearchResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != "ธัมมะ" || decoded.QueryTime != 42 || len(decoded.Results) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Results[0].RomanSpelling != "dhamma" {
		t.Errorf("first result = %+v", decoded.Results[0])
	}
}

func TestWriteSearchResults_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatalf("WriteSearchResults(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"Found 2 lexical results", "42ms", "1. dhamma (ธรรม)", "Score: 44.4400", "the teaching", "2. buddha"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteSearchResults_compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[0] != "ธรรม\tdhamma\t44.4400" {
		t.Errorf("compact output = %q", buf.String())
	}
}

func TestWriteSearchResults_unknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, &models.SearchResponse{Query: "x"}, OutputFormat("unknown")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Found 0") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}

func TestWriteTerms(t *testing.T) {
	resp := &models.EnrichResponse{Term: "ธรรม", Terms: []string{"ธรรม", "ธรรม", "พุทธ"}}
	var buf bytes.Buffer
	if err := WriteTerms(&buf, resp, OutputCompact); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "ธรรม\tธรรม\tพุทธ\n" {
		t.Errorf("compact = %q", buf.String())
	}
	buf.Reset()
	if err := WriteTerms(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "3 terms") {
		t.Errorf("text = %q", buf.String())
	}
}

func TestWriteStatus(t *testing.T) {
	st := search.Status{
		Dictionary: search.DictionaryStatus{Source: "/data/pali.csv", Entries: 10, Searchable: 8, Defined: 9, Headwords: 10},
		Index: vector.Stats{
			State: vector.StateReady, Backend: "memory", Persisted: true, Count: 9, Dimensions: 384,
			BuildID: "b-1", Model: "http://localhost:11434#bge-m3", BuiltAt: time.Now(), DiskBytes: 2048,
		},
		Embedding: search.EmbeddingStatus{Identity: "http://localhost:11434#bge-m3", Connected: true},
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, st, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"/data/pali.csv", "entries 10", "ready (memory)", "9 vectors x 384 dims", "2.0 KiB", "connected true"} {
		if !strings.Contains(buf.String(), sub) {
			t.Errorf("status output missing %q:\n%s", sub, buf.String())
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
