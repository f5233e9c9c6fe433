package persist

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetgraph/internal/record"
)

var errAbort = errors.New("abort")

func TestMemorySink_Transaction(t *testing.T) {
	m := NewMemorySink()

	err := m.Transaction(context.Background(), func(ctx context.Context) error {
		require.NoError(t, m.Save(ctx, record.Snapshot{Type: "Tag", ID: "a"}))
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)
	assert.Empty(t, m.Snapshots())

	err = m.Transaction(context.Background(), func(ctx context.Context) error {
		require.NoError(t, m.Save(ctx, record.Snapshot{Type: "Tag", ID: "a"}))
		require.NoError(t, m.Save(ctx, record.Snapshot{Type: "Tag", ID: "b"}))

		// Nothing is visible before the transaction ends.
		assert.Empty(t, m.Snapshots())

		return nil
	})
	require.NoError(t, err)

	snaps := m.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, "b", snaps[1].ID)
}

func TestBSONSink_Transaction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.bson")
	s := NewBSONSink(path, nil)

	err := s.Transaction(context.Background(), func(ctx context.Context) error {
		require.NoError(t, s.Save(ctx, postSnapshot()))
		require.NoError(t, s.Save(ctx, record.Snapshot{Type: "Tag", ID: "go", Attributes: map[string]any{"name": "Go"}}))

		return nil
	})
	require.NoError(t, err)

	docs, err := ReadBSONFile(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "BlogPost:hello", docs[0]["_id"])
	assert.Equal(t, "BlogPost", docs[0]["type"])
	assert.Contains(t, docs[0], "singular")
	assert.Contains(t, docs[0], "collections")
	assert.Equal(t, "Tag:go", docs[1]["_id"])
	assert.NotContains(t, docs[1], "singular")
}

func TestBSONSink_FailedTransactionWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.bson")
	s := NewBSONSink(path, nil)

	err := s.Transaction(context.Background(), func(ctx context.Context) error {
		require.NoError(t, s.Save(ctx, record.Snapshot{Type: "Tag", ID: "go"}))
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)
	assert.NoFileExists(t, path)
}
