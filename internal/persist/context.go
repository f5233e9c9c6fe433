package persist

import (
	"context"
	"database/sql"
)

type txKey struct{}

// withTx returns a copy of ctx carrying tx.
func withTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// txFrom returns the transaction stored in ctx, or nil.
func txFrom(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}

	return nil
}

type joinRowsKey struct{}

type joinRow struct {
	table string
	query string
	args  []any
}

// joinRows collects join table rows until every main row of a transaction
// has been written.
type joinRows struct {
	rows []joinRow
}

// withJoinRows returns a copy of ctx carrying an empty join row buffer.
func withJoinRows(ctx context.Context) (context.Context, *joinRows) {
	j := &joinRows{}
	return context.WithValue(ctx, joinRowsKey{}, j), j
}

// joinRowsFrom returns the join row buffer stored in ctx, or nil.
func joinRowsFrom(ctx context.Context) *joinRows {
	if j, ok := ctx.Value(joinRowsKey{}).(*joinRows); ok {
		return j
	}

	return nil
}
