// Package persist commits record snapshots at the end of a load.
//
// Sinks:
//
//   - SQLSink inserts rows into PostgreSQL (pgx) or MySQL tables
//   - BSONSink writes a file of concatenated BSON documents
//   - MemorySink keeps snapshots in memory (dry runs and tests)
//
// Every sink commits all-or-nothing: records saved inside Transaction are
// only persisted when the transaction function succeeds.
package persist

import (
	"context"

	"sheetgraph/internal/record"
)

// Sink persists snapshots.
type Sink interface {
	record.Saver

	// Transaction runs fn; everything fn saves is persisted only if fn
	// returns nil.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	Close() error
}
