package persist

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/natefinch/atomic"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"sheetgraph/internal/record"
)

// BSONSink writes every committed record as one BSON document to a file, in
// the layout produced by mongodump, so the file can be fed to mongorestore.
// The file is replaced atomically when a transaction succeeds.
type BSONSink struct {
	path   string
	logger *zap.SugaredLogger

	mu      sync.Mutex
	pending [][]byte
	inTx    bool
}

// NewBSONSink creates a sink writing to path.
func NewBSONSink(path string, logger *zap.SugaredLogger) *BSONSink {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &BSONSink{path: path, logger: logger}
}

// Save implements record.Saver. Outside a transaction the document is
// written immediately.
func (s *BSONSink) Save(_ context.Context, snap record.Snapshot) error {
	data, err := bson.Marshal(snapshotDocument(snap))
	if err != nil {
		return fmt.Errorf("failed to encode %s %q: %w", snap.Type, snap.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, data)
	if s.inTx {
		return nil
	}

	return s.flushLocked()
}

// Transaction implements Sink.
func (s *BSONSink) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	s.inTx = true
	s.pending = nil
	s.mu.Unlock()

	err := fn(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inTx = false

	if err != nil {
		s.pending = nil
		return err
	}

	return s.flushLocked()
}

// Close implements Sink.
func (s *BSONSink) Close() error { return nil }

func (s *BSONSink) flushLocked() error {
	var buf bytes.Buffer
	for _, doc := range s.pending {
		buf.Write(doc)
	}

	if err := atomic.WriteFile(s.path, &buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}

	s.logger.Infow("wrote BSON dump", "file", s.path, "documents", len(s.pending))

	return nil
}

func snapshotDocument(snap record.Snapshot) bson.D {
	attrs := bson.M{}
	for k, v := range snap.Attributes {
		attrs[k] = v
	}

	doc := bson.D{
		{Key: "_id", Value: snap.Type + ":" + snap.ID},
		{Key: "type", Value: snap.Type},
		{Key: "key", Value: snap.ID},
		{Key: "attributes", Value: attrs},
	}

	if len(snap.Singular) > 0 {
		doc = append(doc, bson.E{Key: "singular", Value: snap.Singular})
	}

	if len(snap.Collections) > 0 {
		doc = append(doc, bson.E{Key: "collections", Value: snap.Collections})
	}

	return doc
}

// ReadBSONFile decodes every document in a file written by BSONSink.
func ReadBSONFile(path string) ([]bson.M, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var docs []bson.M

	r := bytes.NewReader(data)

	for {
		var size int32

		err := binary.Read(r, binary.LittleEndian, &size)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read document length: %w", err)
		}

		if size < 5 {
			return nil, fmt.Errorf("invalid document length %d", size)
		}

		raw := make([]byte, size)
		binary.LittleEndian.PutUint32(raw, uint32(size))

		if _, err := io.ReadFull(r, raw[4:]); err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}

		var doc bson.M
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}

		docs = append(docs, doc)
	}
}
