// Package source provides the tabular row sources a load reads from.
//
// A Spreadsheet is a titled, ordered list of Sheets; a Sheet is a titled
// list of rows whose first row is the header. Implementations:
//
//   - CSVDir reads <root>/<spreadsheet>/<sheet>.csv files
//   - Memory serves spreadsheets held in memory
//   - Cache wraps any RowSource with an on-disk YAML cache
package source

import (
	"context"
	"errors"
	"slices"
	"strings"
)

var (
	// ErrSpreadsheetNotFound is returned when a spreadsheet does not exist.
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
	// ErrSheetNotFound is returned when a spreadsheet has no sheet with the title.
	ErrSheetNotFound = errors.New("sheet not found")
)

// Sheet is one table of rows. Rows[0] is the header.
type Sheet struct {
	Title string     `yaml:"title"`
	Rows  [][]string `yaml:"rows"`
}

// Spreadsheet is an ordered collection of sheets.
type Spreadsheet struct {
	Title  string  `yaml:"title"`
	Sheets []Sheet `yaml:"sheets"`
}

// RowSource yields spreadsheets by title.
type RowSource interface {
	Spreadsheet(ctx context.Context, title string) (*Spreadsheet, error)
}

// Sheet returns the sheet with the given title.
func (s *Spreadsheet) Sheet(title string) (*Sheet, error) {
	for i := range s.Sheets {
		if strings.EqualFold(s.Sheets[i].Title, title) {
			return &s.Sheets[i], nil
		}
	}

	return nil, ErrSheetNotFound
}

// Header returns the header row, or nil for an empty sheet.
func (s *Sheet) Header() []string {
	if len(s.Rows) == 0 {
		return nil
	}

	return s.Rows[0]
}

// DataRows returns the rows after the header, dropping rows whose cells are
// all empty.
func (s *Sheet) DataRows() [][]string {
	if len(s.Rows) < 2 {
		return nil
	}

	rows := make([][]string, 0, len(s.Rows)-1)

	for _, row := range s.Rows[1:] {
		if IsBlankRow(row) {
			continue
		}

		rows = append(rows, row)
	}

	return rows
}

// IsBlankRow reports whether every cell of row is empty or whitespace.
func IsBlankRow(row []string) bool {
	return !slices.ContainsFunc(row, func(cell string) bool {
		return strings.TrimSpace(cell) != ""
	})
}
