// Package dictionary loads the immutable, denormalized dictionary table that both
// search paths read from.
package dictionary

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"

	"github.com/hyperjump/palilex/internal/models"
)

// ErrDataUnavailable is returned when the source cannot be read or lacks the required columns.
var ErrDataUnavailable = errors.New("dictionary data unavailable")

// Source column names. Additional columns are ignored.
const (
	ColumnHeadword   = "headword"
	ColumnNative     = "headword_thai"
	ColumnDefinition = "definition"
)

// DefaultSQLTable is the table read from SQLite and Postgres sources.
const DefaultSQLTable = "dictionary"

// Table is an immutable in-memory dictionary. It is safe for concurrent reads.
type Table struct {
	source  string
	entries []models.DictionaryEntry
	native  []int
	defined []int
	// fingerprint of the defined rows, computed once.
	fingerprint string
}

// NewTable builds a table from entries, dropping rows with an empty roman spelling.
func NewTable(source string, entries []models.DictionaryEntry) *Table {
	t := &Table{source: source, entries: make([]models.DictionaryEntry, 0, len(entries))}
	for _, e := range entries {
		e.RomanSpelling = strings.TrimSpace(e.RomanSpelling)
		e.NativeSpelling = strings.TrimSpace(e.NativeSpelling)
		e.Definition = strings.TrimSpace(e.Definition)
		if e.RomanSpelling == "" {
			continue
		}
		pos := len(t.entries)
		t.entries = append(t.entries, e)
		if e.HasNativeSpelling() {
			t.native = append(t.native, pos)
		}
		if e.HasDefinition() {
			t.defined = append(t.defined, pos)
		}
	}
	t.fingerprint = Fingerprint(t.WithDefinition())
	return t
}

// Fingerprint hashes entries in order. Two tables index to the same vectors only when
// the fingerprints of their defined rows match.
func Fingerprint(entries []models.DictionaryEntry) string {
	h := fnv.New64a()
	for _, e := range entries {
		h.Write([]byte(e.RomanSpelling))
		h.Write([]byte{0})
		h.Write([]byte(e.NativeSpelling))
		h.Write([]byte{0})
		h.Write([]byte(e.Definition))
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Source returns where the table was loaded from.
func (t *Table) Source() string { return t.source }

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Entry returns the entry at position i in table order.
func (t *Table) Entry(i int) models.DictionaryEntry { return t.entries[i] }

// Entries returns a copy of all entries in table order.
func (t *Table) Entries() []models.DictionaryEntry {
	out := make([]models.DictionaryEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Fingerprint identifies the rows WithDefinition returns.
func (t *Table) Fingerprint() string { return t.fingerprint }

// NativeCandidates returns table positions of entries with a native spelling, in table order.
func (t *Table) NativeCandidates() []int { return t.native }

// WithDefinition returns entries that have a definition, in table order.
func (t *Table) WithDefinition() []models.DictionaryEntry {
	out := make([]models.DictionaryEntry, len(t.defined))
	for i, pos := range t.defined {
		out[i] = t.entries[pos]
	}
	return out
}

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	sqlTable string
}

// WithSQLTable sets the table name read from SQLite and Postgres sources.
func WithSQLTable(name string) Option {
	return func(o *loadOptions) {
		if name != "" {
			o.sqlTable = name
		}
	}
}

// Load reads a dictionary table from source. The format is chosen from the source:
// postgres:// and postgresql:// URLs, sqlite:// URLs or .db/.sqlite/.sqlite3 files,
// .xlsx workbooks, and CSV for anything else.
func Load(ctx context.Context, source string, opts ...Option) (*Table, error) {
	o := loadOptions{sqlTable: DefaultSQLTable}
	for _, opt := range opts {
		opt(&o)
	}
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%w: empty source", ErrDataUnavailable)
	}

	var (
		entries []models.DictionaryEntry
		err     error
	)
	switch {
	case strings.HasPrefix(source, "postgres://"), strings.HasPrefix(source, "postgresql://"):
		entries, err = loadSQL(ctx, "postgres", source, o.sqlTable)
	case strings.HasPrefix(source, "sqlite://"):
		entries, err = loadSQLite(ctx, strings.TrimPrefix(source, "sqlite://"), o.sqlTable)
	default:
		switch strings.ToLower(filepath.Ext(source)) {
		case ".db", ".sqlite", ".sqlite3":
			entries, err = loadSQLite(ctx, source, o.sqlTable)
		case ".xlsx":
			entries, err = loadXLSX(source)
		default:
			entries, err = loadCSV(source)
		}
	}
	if err != nil {
		if errors.Is(err, ErrDataUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, source, err)
	}
	return NewTable(source, entries), nil
}

// columnIndex maps the required columns to their positions in header.
type columnIndex struct {
	headword, native, definition int
}

func findColumns(header []string) (columnIndex, error) {
	idx := columnIndex{headword: -1, native: -1, definition: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case ColumnHeadword:
			idx.headword = i
		case ColumnNative:
			idx.native = i
		case ColumnDefinition:
			idx.definition = i
		}
	}
	var missing []string
	if idx.headword < 0 {
		missing = append(missing, ColumnHeadword)
	}
	if idx.native < 0 {
		missing = append(missing, ColumnNative)
	}
	if idx.definition < 0 {
		missing = append(missing, ColumnDefinition)
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("%w: missing column(s) %s", ErrDataUnavailable, strings.Join(missing, ", "))
	}
	return idx, nil
}

func (c columnIndex) entry(row []string) models.DictionaryEntry {
	return models.DictionaryEntry{
		RomanSpelling:  cell(row, c.headword),
		NativeSpelling: cell(row, c.native),
		Definition:     cell(row, c.definition),
	}
}

// cell tolerates short rows; spreadsheet readers drop trailing empty cells.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
