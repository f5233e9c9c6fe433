package convert

import (
	"context"

	"go.uber.org/zap"

	"sheetgraph/internal/expand"
	"sheetgraph/internal/model"
	"sheetgraph/internal/source"
)

// SheetStats counts what happened to a sheet's rows.
type SheetStats struct {
	Source    string
	Converted int
	Skipped   int
}

// sheetConverter feeds the data rows of one sheet through a Mapper.
type sheetConverter struct {
	mapper   *Mapper
	expander *expand.Expander
	logger   *zap.SugaredLogger
}

func (c *sheetConverter) convert(ctx context.Context, cs *compiledSource, sheet *source.Sheet) (SheetStats, error) {
	stats := SheetStats{Source: cs.mapping.Title}

	header := sheet.Header()
	if header == nil {
		c.logger.Warnw("sheet has no header row", "source", cs.mapping.Title)
		return stats, nil
	}

	for i, row := range sheet.Rows[1:] {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if source.IsBlankRow(row) {
			continue
		}

		def := model.New(cs.mapping, header, row, c.expander)

		ok, err := c.mapper.Convert(ctx, cs, def)
		if err != nil {
			rowErr := &RowError{Source: cs.mapping.Title, Row: i + 2, Err: err}
			if key, kerr := def.Key(); kerr == nil {
				rowErr.Key = key
			}

			return stats, rowErr
		}

		if ok {
			stats.Converted++
		} else {
			stats.Skipped++
		}
	}

	c.logger.Infow("converted sheet",
		"source", stats.Source, "type", cs.typeName,
		"converted", stats.Converted, "skipped", stats.Skipped)

	return stats, nil
}
