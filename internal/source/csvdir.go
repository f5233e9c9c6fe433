package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

const csvExt = ".csv"

// CSVDir reads spreadsheets from a directory tree: each spreadsheet is a
// directory and each sheet a CSV file inside it. Sheets are ordered by file
// name.
type CSVDir struct {
	fsys fs.FS
}

// NewCSVDir creates a CSVDir rooted at dir.
func NewCSVDir(dir string) *CSVDir {
	return &CSVDir{fsys: os.DirFS(dir)}
}

// NewCSVFS creates a CSVDir over an arbitrary file system.
func NewCSVFS(fsys fs.FS) *CSVDir {
	return &CSVDir{fsys: fsys}
}

// Spreadsheet implements RowSource.
func (d *CSVDir) Spreadsheet(ctx context.Context, title string) (*Spreadsheet, error) {
	entries, err := fs.ReadDir(d.fsys, title)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrSpreadsheetNotFound, title)
		}

		return nil, fmt.Errorf("failed to list spreadsheet %s: %w", title, err)
	}

	var names []string

	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(path.Ext(e.Name()), csvExt) {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	result := &Spreadsheet{Title: title}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := d.readCSV(path.Join(title, name))
		if err != nil {
			return nil, err
		}

		result.Sheets = append(result.Sheets, Sheet{
			Title: strings.TrimSuffix(name, path.Ext(name)),
			Rows:  rows,
		})
	}

	return result, nil
}

func (d *CSVDir) readCSV(name string) ([][]string, error) {
	f, err := d.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse sheet %s: %w", name, err)
	}

	return rows, nil
}
