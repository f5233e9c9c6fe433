package persist

import (
	"context"
	"slices"
	"sync"

	"sheetgraph/internal/record"
)

// MemorySink keeps committed snapshots in memory.
type MemorySink struct {
	mu        sync.Mutex
	committed []record.Snapshot
	pending   []record.Snapshot
	inTx      bool
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Save implements record.Saver.
func (m *MemorySink) Save(_ context.Context, snap record.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inTx {
		m.pending = append(m.pending, snap)
	} else {
		m.committed = append(m.committed, snap)
	}

	return nil
}

// Transaction implements Sink.
func (m *MemorySink) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.inTx = true
	m.pending = nil
	m.mu.Unlock()

	err := fn(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.inTx = false

	if err == nil {
		m.committed = append(m.committed, m.pending...)
	}

	m.pending = nil

	return err
}

// Close implements Sink.
func (m *MemorySink) Close() error { return nil }

// Snapshots returns the committed snapshots in commit order.
func (m *MemorySink) Snapshots() []record.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.committed)
}
