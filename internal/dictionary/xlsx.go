package dictionary

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/palilex/internal/models"
)

// loadXLSX reads the first sheet of a workbook; the first row is the header.
func loadXLSX(path string) ([]models.DictionaryEntry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: %s: workbook has no sheets", ErrDataUnavailable, path)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s: no header row", ErrDataUnavailable, path)
	}
	cols, err := findColumns(rows[0])
	if err != nil {
		return nil, err
	}
	entries := make([]models.DictionaryEntry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		entries = append(entries, cols.entry(row))
	}
	return entries, nil
}
