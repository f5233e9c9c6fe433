package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sheetgraph/internal/config"
	"sheetgraph/internal/convert"
	"sheetgraph/internal/expand"
	"sheetgraph/internal/mapping"
	"sheetgraph/internal/persist"
	"sheetgraph/internal/source"
)

func newCheckCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate a mapping file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(false); err != nil {
				return err
			}

			mf, err := mapping.LoadFile(cfg.Mapping)
			if err != nil {
				return err
			}

			diags := mapping.Validate(mf, convert.NewDocumentRegistry(mf, nil))

			out := cmd.OutOrStdout()
			for _, d := range diags.All() {
				fmt.Fprintln(out, d.String())
			}

			if err := diags.Error(); err != nil {
				return fmt.Errorf("%w: %s", mapping.ErrValidation, cfg.Mapping)
			}

			fmt.Fprintf(out, "%s: %d worksheets OK\n", cfg.Mapping, len(mf.Sources()))

			return nil
		},
	}
}

func newOrderCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "order",
		Short: "Print the order worksheets are converted in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(false); err != nil {
				return err
			}

			mf, err := mapping.LoadFile(cfg.Mapping)
			if err != nil {
				return err
			}

			l, err := convert.NewLoader(convert.Config{
				Mapping:  mf,
				Registry: convert.NewDocumentRegistry(mf, nil),
			})
			if err != nil {
				return err
			}

			ordered, err := l.Order()
			if err != nil {
				return err
			}

			for i, src := range ordered {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", i+1, src.Spreadsheet, src.Title)
			}

			return nil
		},
	}
}

func newLoadCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Convert every worksheet and commit the records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(true); err != nil {
				return err
			}

			logger, err := newLogger(cfg.Debug)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return runLoad(cmd.Context(), cfg, logger, cmd.OutOrStdout())
		},
	}
}

func runLoad(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger, out io.Writer) error {
	mf, err := mapping.LoadFile(cfg.Mapping)
	if err != nil {
		return err
	}

	sink, err := openSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = sink.Close() }()

	var rows source.RowSource = source.NewCSVDir(cfg.DataDir)
	if cfg.CacheDir != "" {
		rows = source.NewCache(rows, cfg.CacheDir, logger)
	}

	l, err := convert.NewLoader(convert.Config{
		Mapping:    mf,
		Rows:       rows,
		Registry:   convert.NewDocumentRegistry(mf, sink),
		Expander:   expand.New(expand.NewFileProvider(cfg.TextDir), expand.NewSheetProvider(rows)),
		Transactor: sink,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	res, err := l.Load(ctx)
	if err != nil {
		return err
	}

	for _, s := range res.Sheets {
		fmt.Fprintf(out, "%s\t%d converted\t%d skipped\n", s.Source, s.Converted, s.Skipped)
	}

	fmt.Fprintf(out, "%d records committed to %s\n", res.Committed, cfg.SinkKind())

	return nil
}

func openSink(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (persist.Sink, error) {
	switch kind := cfg.SinkKind(); kind {
	case config.SinkPostgres, config.SinkMySQL:
		d, err := persist.DialectByName(kind)
		if err != nil {
			return nil, err
		}

		return persist.OpenSQL(ctx, d, cfg.DSN, logger)
	case config.SinkBSON:
		return persist.NewBSONSink(cfg.Output, logger), nil
	default:
		return persist.NewMemorySink(), nil
	}
}
