// Package cli provides output formatting for the palilex command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/palilex/internal/models"
	"github.com/hyperjump/palilex/internal/search"
	"github.com/hyperjump/palilex/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one tab-separated line per result, for shell pipelines.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// DefinitionWidth caps definitions in text output.
const DefinitionWidth = 200

// ParseOutputFormat validates a --format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			fmt.Fprintf(w, "%s\t%s\t%.4f\n", r.NativeSpelling, r.RomanSpelling, r.Score)
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d %s results for %q in %dms\n\n",
		len(response.Results), response.Source, response.Query, response.QueryTime)
	for i, result := range response.Results {
		writeOneResult(w, i+1, result)
	}
}

func writeOneResult(w io.Writer, rank int, result *models.SearchResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "%d. %s", rank, result.RomanSpelling)
	if result.NativeSpelling != "" {
		fmt.Fprintf(w, " (%s)", result.NativeSpelling)
	}
	fmt.Fprintf(w, " | Score: %.4f\n", result.Score)
	if result.Definition != "" {
		fmt.Fprintf(w, "%s\n", utils.Truncate(result.Definition, DefinitionWidth))
	}
	fmt.Fprintln(w)
}

// WriteTerms writes an enrichment result.
func WriteTerms(w io.Writer, response *models.EnrichResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, response)
	case OutputCompact:
		fmt.Fprintln(w, strings.Join(response.Terms, "\t"))
		return nil
	default:
		fmt.Fprintf(w, "\n%d terms for %q\n\n", len(response.Terms), response.Term)
		for _, t := range response.Terms {
			fmt.Fprintf(w, "  %s\n", t)
		}
		return nil
	}
}

// WriteStatus writes an engine status report.
func WriteStatus(w io.Writer, st search.Status, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, st)
	}
	d, idx := st.Dictionary, st.Index
	fmt.Fprintf(w, "Dictionary: %s\n", d.Source)
	fmt.Fprintf(w, "  entries %d, searchable %d, defined %d, headwords %d\n", d.Entries, d.Searchable, d.Defined, d.Headwords)
	fmt.Fprintf(w, "Vector index: %s (%s)\n", idx.State, idx.Backend)
	if idx.Count > 0 {
		fmt.Fprintf(w, "  %d vectors x %d dims, build %s\n", idx.Count, idx.Dimensions, idx.BuildID)
		fmt.Fprintf(w, "  model %s, built %s\n", idx.Model, idx.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(w, "  persisted %t, %s on disk\n", idx.Persisted, FormatBytes(idx.DiskBytes))
	fmt.Fprintf(w, "Embedding: %s (connected %t)\n", st.Embedding.Identity, st.Embedding.Connected)
	return nil
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
