package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"sheetgraph/internal/naming"
)

// Cache wraps a RowSource with a directory of YAML snapshots, one per
// spreadsheet. A cached snapshot is served as-is; a miss is fetched from the
// wrapped source and written atomically.
type Cache struct {
	next   RowSource
	dir    string
	logger *zap.SugaredLogger
}

// NewCache wraps next with a cache in dir. An empty dir disables caching.
func NewCache(next RowSource, dir string, logger *zap.SugaredLogger) *Cache {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Cache{next: next, dir: dir, logger: logger}
}

// Spreadsheet implements RowSource.
func (c *Cache) Spreadsheet(ctx context.Context, title string) (*Spreadsheet, error) {
	if c.dir == "" {
		return c.next.Spreadsheet(ctx, title)
	}

	file := c.path(title)

	cached, err := readSnapshot(file)
	if err == nil {
		c.logger.Debugw("cache hit", "spreadsheet", title, "file", file)
		return cached, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	s, err := c.next.Spreadsheet(ctx, title)
	if err != nil {
		return nil, err
	}

	if err := writeSnapshot(file, s); err != nil {
		return nil, err
	}

	c.logger.Debugw("cached spreadsheet", "spreadsheet", title, "file", file)

	return s, nil
}

func (c *Cache) path(title string) string {
	return filepath.Join(c.dir, naming.Normalize(title)+".yml")
}

func readSnapshot(file string) (*Spreadsheet, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var s Spreadsheet
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse cached spreadsheet %s: %w", file, err)
	}

	return &s, nil
}

func writeSnapshot(file string, s *Spreadsheet) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal spreadsheet %s: %w", s.Title, err)
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	if err := atomic.WriteFile(file, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write cached spreadsheet %s: %w", file, err)
	}

	return nil
}
