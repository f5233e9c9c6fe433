// Package convert loads the rows described by a mapping file into an
// in-memory graph of linked records and commits them.
//
// A load runs in two phases. Convert reads every sheet in dependency order,
// builds one record per row and links records through their associations,
// keeping everything in a store.ModelStore. Commit then persists every
// stored record inside a single transaction. Nothing is committed unless
// conversion succeeded for every row.
package convert

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"sheetgraph/internal/expand"
	"sheetgraph/internal/graph"
	"sheetgraph/internal/mapping"
	"sheetgraph/internal/naming"
	"sheetgraph/internal/record"
	"sheetgraph/internal/source"
	"sheetgraph/internal/store"
)

// ErrNoRegistry is returned when a Loader is built without a record registry.
var ErrNoRegistry = errors.New("no record registry")

// Transactor runs fn in a transaction. persist.Sink implements it.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Config configures a Loader.
type Config struct {
	Mapping  *mapping.MappingFile
	Rows     source.RowSource
	Registry *record.Registry
	// Expander resolves {{token}} placeholders. Optional.
	Expander *expand.Expander
	// Transactor wraps Commit. Without one records are committed one by one.
	Transactor Transactor
	Logger     *zap.SugaredLogger
}

// Result summarizes a load.
type Result struct {
	Store     *store.ModelStore
	Sheets    []SheetStats
	Converted int
	Skipped   int
	Committed int
}

// Loader runs loads for one mapping file. Each call to Convert or Load
// starts from an empty store and resolver.
type Loader struct {
	cfg    Config
	logger *zap.SugaredLogger
}

// NewLoader validates cfg and creates a Loader.
func NewLoader(cfg Config) (*Loader, error) {
	if cfg.Mapping == nil {
		return nil, fmt.Errorf("%w: mapping file is nil", mapping.ErrValidation)
	}

	if cfg.Registry == nil {
		return nil, ErrNoRegistry
	}

	if cfg.Expander == nil {
		cfg.Expander = expand.New()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Loader{cfg: cfg, logger: logger}, nil
}

// Order returns the sources in conversion order.
func (l *Loader) Order() ([]*mapping.SourceMapping, error) {
	resolver := naming.NewResolver()
	l.cfg.Mapping.RegisterOverrides(resolver)

	return graph.Order(l.cfg.Mapping.Sources(), resolver)
}

// Convert builds and links every record without committing anything.
func (l *Loader) Convert(ctx context.Context) (*Result, error) {
	mf := l.cfg.Mapping

	if err := mapping.Check(mf, l.cfg.Registry); err != nil {
		return nil, err
	}

	resolver := naming.NewResolver()
	mf.RegisterOverrides(resolver)

	ordered, err := graph.Order(mf.Sources(), resolver)
	if err != nil {
		return nil, err
	}

	st := store.New(l.logger)
	deps := attachDeps{registry: l.cfg.Registry, store: st}
	conv := &sheetConverter{
		mapper:   NewMapper(l.cfg.Registry, st, resolver, l.logger),
		expander: l.cfg.Expander,
		logger:   l.logger,
	}

	res := &Result{Store: st}
	spreadsheets := map[string]*source.Spreadsheet{}

	for _, src := range ordered {
		l.logger.Infow("converting sheet", "spreadsheet", src.Spreadsheet, "source", src.Title)

		sheet, err := l.sheet(ctx, spreadsheets, src)
		if err != nil {
			return nil, err
		}

		stats, err := conv.convert(ctx, compileSource(mf, src, resolver, deps), sheet)
		if err != nil {
			return nil, err
		}

		res.Sheets = append(res.Sheets, stats)
		res.Converted += stats.Converted
		res.Skipped += stats.Skipped
	}

	return res, nil
}

func (l *Loader) sheet(ctx context.Context, cache map[string]*source.Spreadsheet, src *mapping.SourceMapping) (*source.Sheet, error) {
	ss, ok := cache[src.Spreadsheet]
	if !ok {
		var err error

		ss, err = l.cfg.Rows.Spreadsheet(ctx, src.Spreadsheet)
		if err != nil {
			return nil, fmt.Errorf("spreadsheet %q: %w", src.Spreadsheet, err)
		}

		cache[src.Spreadsheet] = ss
	}

	sheet, err := ss.Sheet(src.Title)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet %q sheet %q: %w", src.Spreadsheet, src.Title, err)
	}

	return sheet, nil
}

// Commit persists every record in st in insertion order and returns how many
// were committed.
func (l *Loader) Commit(ctx context.Context, st *store.ModelStore) (int, error) {
	var committed int

	commitAll := func(ctx context.Context) error {
		committed = 0

		for e := range st.All() {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := e.Record.Commit(ctx); err != nil {
				return fmt.Errorf("commit %s %q: %w", e.Type, e.Key, err)
			}

			committed++
		}

		return nil
	}

	var err error
	if l.cfg.Transactor == nil {
		err = commitAll(ctx)
	} else {
		err = l.cfg.Transactor.Transaction(ctx, commitAll)
	}

	if err != nil {
		return 0, err
	}

	return committed, nil
}

// Load converts and then commits. On any error nothing is committed.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	res, err := l.Convert(ctx)
	if err != nil {
		return nil, err
	}

	res.Committed, err = l.Commit(ctx, res.Store)
	if err != nil {
		return nil, err
	}

	l.logger.Infow("load complete",
		"converted", res.Converted, "skipped", res.Skipped, "committed", res.Committed)

	return res, nil
}
