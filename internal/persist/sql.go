package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	// Registers the "mysql" database/sql driver.
	_ "github.com/go-sql-driver/mysql"
	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"sheetgraph/internal/naming"
	"sheetgraph/internal/record"
)

// Querier executes statements. *sql.DB and *sql.Tx satisfy it.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLSink inserts one row per record into a table named after the record
// type (snake_case plural), with singular associations as <name>_id columns
// and plural associations as rows of an <owner table>_<association> join
// table. Inside Transaction join rows are written after every main row, so
// they never reference a row that is not inserted yet. Tables must already
// exist.
type SQLSink struct {
	db     *sql.DB
	exec   Querier
	d      Dialect
	logger *zap.SugaredLogger
}

// OpenSQL opens and pings a database for the given dialect.
func OpenSQL(ctx context.Context, d Dialect, dsn string, logger *zap.SugaredLogger) (*SQLSink, error) {
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.Name(), err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", d.Name(), err)
	}

	return NewSQLSink(db, d, logger), nil
}

// NewSQLSink wraps an open database.
func NewSQLSink(db *sql.DB, d Dialect, logger *zap.SugaredLogger) *SQLSink {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &SQLSink{db: db, exec: db, d: d, logger: logger}
}

// Transaction implements Sink. Saves made with the ctx passed to fn run in
// one database transaction that is rolled back if fn fails or panics.
func (s *SQLSink) Transaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	ctx, pending := withJoinRows(ctx)

	if s.db == nil {
		if err := fn(ctx); err != nil {
			return err
		}

		return s.flushJoinRows(ctx, pending)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txCtx := withTx(ctx, tx)

	err = fn(txCtx)
	if err != nil {
		return err
	}

	if err = s.flushJoinRows(txCtx, pending); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Save implements record.Saver.
func (s *SQLSink) Save(ctx context.Context, snap record.Snapshot) error {
	q := s.querier(ctx)
	table := TableName(snap.Type)

	columns := []string{"id"}
	args := []any{snap.ID}

	for _, name := range snap.AttributeNames() {
		v, err := sqlValue(snap.Attributes[name])
		if err != nil {
			return fmt.Errorf("%s %q attribute %s: %w", snap.Type, snap.ID, name, err)
		}

		columns = append(columns, name)
		args = append(args, v)
	}

	for _, name := range snap.SingularNames() {
		columns = append(columns, name+"_id")
		args = append(args, snap.Singular[name].ID)
	}

	if err := s.execLogged(ctx, q, insertSQL(s.d, table, columns), args...); err != nil {
		return fmt.Errorf("failed to insert %s %q: %w", snap.Type, snap.ID, err)
	}

	pending := joinRowsFrom(ctx)
	owner := naming.Underscore(snap.Type) + "_id"

	for _, name := range snap.CollectionNames() {
		joinTable := table + "_" + name
		query := insertSQL(s.d, joinTable, []string{owner, naming.Singularize(name) + "_id"})

		for _, ref := range snap.Collections[name] {
			if pending != nil {
				pending.rows = append(pending.rows, joinRow{table: joinTable, query: query, args: []any{snap.ID, ref.ID}})
				continue
			}

			if err := s.execLogged(ctx, q, query, snap.ID, ref.ID); err != nil {
				return fmt.Errorf("failed to insert into %s: %w", joinTable, err)
			}
		}
	}

	return nil
}

func (s *SQLSink) flushJoinRows(ctx context.Context, pending *joinRows) error {
	q := s.querier(ctx)

	for _, row := range pending.rows {
		if err := s.execLogged(ctx, q, row.query, row.args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", row.table, err)
		}
	}

	pending.rows = nil

	return nil
}

// Close closes the database.
func (s *SQLSink) Close() error {
	if s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *SQLSink) querier(ctx context.Context) Querier {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}

	return s.exec
}

func (s *SQLSink) execLogged(ctx context.Context, q Querier, query string, args ...any) error {
	s.logger.Debugw("exec", "query", query, "args", args)

	_, err := q.ExecContext(ctx, query, args...)

	return err
}

// TableName returns the table for a record type: "BlogPost" -> "blog_posts".
func TableName(typeName string) string {
	return naming.Pluralize(naming.Underscore(typeName))
}

// sqlValue converts an attribute value into a driver value. Scalars pass
// through, references become their id and anything structured is stored as
// JSON text.
func sqlValue(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool, int, int64, float64:
		return val, nil
	case record.Ref:
		return val.ID, nil
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}

		return string(data), nil
	}
}
