package dictionary

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/palilex/internal/models"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// loadSQLite opens the database read-only so a missing file is not silently created.
func loadSQLite(ctx context.Context, path, table string) ([]models.DictionaryEntry, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return loadSQL(ctx, "sqlite3", fmt.Sprintf("file:%s?mode=ro", path), table)
}

func loadSQL(ctx context.Context, driver, dsn, table string) ([]models.DictionaryEntry, error) {
	if !identifierRe.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", ErrDataUnavailable, table)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	cols, err := findColumns(names)
	if err != nil {
		return nil, err
	}

	values := make([]sql.NullString, len(names))
	dest := make([]any, len(names))
	for i := range values {
		dest[i] = &values[i]
	}
	row := make([]string, len(names))
	var entries []models.DictionaryEntry
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			row[i] = v.String
		}
		entries = append(entries, cols.entry(row))
	}
	return entries, rows.Err()
}
