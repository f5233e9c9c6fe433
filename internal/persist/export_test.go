package persist

import (
	"context"
	"database/sql"
	"sync"
)

type execCall struct {
	Query string
	Args  []any
}

// recordingQuerier captures statements instead of executing them.
type recordingQuerier struct {
	mu    sync.Mutex
	calls []execCall
	err   error
}

func (q *recordingQuerier) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.err != nil {
		return nil, q.err
	}

	q.calls = append(q.calls, execCall{Query: query, Args: args})

	return driverResult{}, nil
}

type driverResult struct{}

func (driverResult) LastInsertId() (int64, error) { return 0, nil }
func (driverResult) RowsAffected() (int64, error) { return 1, nil }

func newTestSQLSink(q Querier, d Dialect) *SQLSink {
	s := NewSQLSink(nil, d, nil)
	s.exec = q

	return s
}
