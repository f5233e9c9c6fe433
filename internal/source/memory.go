package source

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Memory is a RowSource over spreadsheets held in memory.
type Memory struct {
	mu           sync.RWMutex
	spreadsheets map[string]*Spreadsheet
}

// NewMemory creates a Memory source holding the given spreadsheets.
func NewMemory(spreadsheets ...*Spreadsheet) *Memory {
	m := &Memory{spreadsheets: make(map[string]*Spreadsheet)}
	for _, s := range spreadsheets {
		m.Put(s)
	}

	return m
}

// Put adds or replaces a spreadsheet.
func (m *Memory) Put(s *Spreadsheet) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.spreadsheets[strings.ToLower(s.Title)] = s
}

// Spreadsheet implements RowSource.
func (m *Memory) Spreadsheet(_ context.Context, title string) (*Spreadsheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.spreadsheets[strings.ToLower(title)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSpreadsheetNotFound, title)
	}

	return s, nil
}
