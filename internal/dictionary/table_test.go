package dictionary

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/palilex/internal/models"
)

const sampleCSV = `headword,headword_thai,definition,pos
dhamma,ธรรม,the teaching,masc
buddha,พุทธ,the awakened one,masc
,ว่าง,orphan row without headword,
sati,,mindfulness,fem
metta,เมตตา,,fem
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_CSV(t *testing.T) {
	path := writeFile(t, "dict.csv", sampleCSV)
	table, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 4 {
		t.Fatalf("Len=%d, want 4 (empty headword dropped)", table.Len())
	}
	if got := table.Entry(0); got.RomanSpelling != "dhamma" || got.NativeSpelling != "ธรรม" || got.Definition != "the teaching" {
		t.Errorf("Entry(0) = %+v", got)
	}
	if got := len(table.NativeCandidates()); got != 3 {
		t.Errorf("NativeCandidates=%d, want 3", got)
	}
	defs := table.WithDefinition()
	if len(defs) != 3 {
		t.Fatalf("WithDefinition=%d, want 3", len(defs))
	}
	if defs[2].RomanSpelling != "sati" {
		t.Errorf("WithDefinition should keep table order, got %v", defs)
	}
	if table.Source() != path {
		t.Errorf("Source=%q", table.Source())
	}
}

func TestLoad_MissingColumns(t *testing.T) {
	path := writeFile(t, "dict.csv", "headword,definition\ndhamma,the teaching\n")
	_, err := Load(context.Background(), path)
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestLoad_EmptySource(t *testing.T) {
	if _, err := Load(context.Background(), " "); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestLoad_EmptyCSV(t *testing.T) {
	path := writeFile(t, "dict.csv", "")
	if _, err := Load(context.Background(), path); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestLoad_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"headword", "headword_thai", "definition"},
		{"dhamma", "ธรรม", "the teaching"},
		{"sati", "สติ"},
	}
	for i, row := range rows {
		cellName, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cellName, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	table, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len=%d, want 2", table.Len())
	}
	if got := table.Entry(1); got.NativeSpelling != "สติ" || got.Definition != "" {
		t.Errorf("short row should leave definition empty, got %+v", got)
	}
}

func TestLoad_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.Exec(`CREATE TABLE lexicon (id INTEGER PRIMARY KEY, headword TEXT, headword_thai TEXT, definition TEXT);
		INSERT INTO lexicon (headword, headword_thai, definition) VALUES ('dhamma', 'ธรรม', 'the teaching');
		INSERT INTO lexicon (headword, headword_thai, definition) VALUES ('sati', NULL, 'mindfulness');`)
	if err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	table, err := Load(context.Background(), "sqlite://"+path, WithSQLTable("lexicon"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len=%d, want 2", table.Len())
	}
	if got := table.Entry(1); got.NativeSpelling != "" {
		t.Errorf("NULL native spelling should load as empty, got %+v", got)
	}

	if _, err := Load(context.Background(), path, WithSQLTable("lexicon; DROP TABLE lexicon")); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("invalid table name should be rejected, got %v", err)
	}
}

func TestNewTable_TrimsAndFilters(t *testing.T) {
	table := NewTable("mem", []models.DictionaryEntry{
		{RomanSpelling: "  ", NativeSpelling: "x"},
		{RomanSpelling: " dhamma ", NativeSpelling: " ธรรม ", Definition: " the teaching "},
	})
	if table.Len() != 1 {
		t.Fatalf("Len=%d", table.Len())
	}
	if e := table.Entry(0); e.RomanSpelling != "dhamma" || e.NativeSpelling != "ธรรม" || e.Definition != "the teaching" {
		t.Errorf("entry not trimmed: %+v", e)
	}
	entries := table.Entries()
	entries[0].RomanSpelling = "mutated"
	if table.Entry(0).RomanSpelling != "dhamma" {
		t.Error("Entries must return a copy")
	}
}
