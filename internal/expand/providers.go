package expand

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"sheetgraph/internal/source"
)

// Provider keys.
const (
	FileKey        = "file"
	SpreadsheetKey = "spreadsheet"
)

// FileProvider expands to the text of <arg>.txt.
type FileProvider struct {
	fsys fs.FS
}

// NewFileProvider creates a FileProvider reading from dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{fsys: os.DirFS(dir)}
}

// NewFileProviderFS creates a FileProvider reading from fsys.
func NewFileProviderFS(fsys fs.FS) *FileProvider {
	return &FileProvider{fsys: fsys}
}

// Key implements Provider.
func (*FileProvider) Key() string { return FileKey }

// Expand implements Provider.
func (p *FileProvider) Expand(_ context.Context, arg string) (string, error) {
	data, err := fs.ReadFile(p.fsys, arg+".txt")
	if err != nil {
		return "", fmt.Errorf("missing file named %q: %w", arg, err)
	}

	return string(data), nil
}

// SheetProvider expands to a JSON document built from the first sheet of
// the spreadsheet named by arg:
//
//	{"objects":[{"<header>":"<cell>", ...}, ...]}
//
// Header cells are reduced to their first word.
type SheetProvider struct {
	rows source.RowSource
}

// NewSheetProvider creates a SheetProvider reading from rows.
func NewSheetProvider(rows source.RowSource) *SheetProvider {
	return &SheetProvider{rows: rows}
}

// Key implements Provider.
func (*SheetProvider) Key() string { return SpreadsheetKey }

var wordRe = regexp.MustCompile(`\w+`)

// Expand implements Provider.
func (p *SheetProvider) Expand(ctx context.Context, arg string) (string, error) {
	s, err := p.rows.Spreadsheet(ctx, arg)
	if err != nil {
		return "", fmt.Errorf("missing spreadsheet named %q: %w", arg, err)
	}

	if len(s.Sheets) == 0 {
		return "", fmt.Errorf("spreadsheet %q: %w", arg, source.ErrSheetNotFound)
	}

	sheet := s.Sheets[0]
	header := sheet.Header()

	fields := make([]string, len(header))
	for i, h := range header {
		fields[i] = wordRe.FindString(h)
	}

	objects := make([]map[string]string, 0)

	for _, row := range sheet.DataRows() {
		obj := make(map[string]string, len(fields))

		for i, f := range fields {
			if i < len(row) {
				obj[f] = row[i]
			} else {
				obj[f] = ""
			}
		}

		objects = append(objects, obj)
	}

	data, err := json.Marshal(map[string]any{"objects": objects})
	if err != nil {
		return "", fmt.Errorf("failed to encode spreadsheet %q: %w", arg, err)
	}

	return string(data), nil
}
