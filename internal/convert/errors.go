package convert

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAssociation is returned when a row lacks a value an
	// association needs.
	ErrMissingAssociation = errors.New("missing association")
	// ErrPolymorphicAssociation is returned when a row's type field names a
	// type the association does not list.
	ErrPolymorphicAssociation = errors.New("invalid polymorphic association")
)

// RowError locates a failure in the source data.
type RowError struct {
	// Source is the worksheet title.
	Source string
	// Row is the 1-based row number in the sheet; the header is row 1.
	Row int
	// Key is the row key, when it could be computed.
	Key string
	Err error
}

func (e *RowError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s row %d (%s): %v", e.Source, e.Row, e.Key, e.Err)
	}

	return fmt.Sprintf("%s row %d: %v", e.Source, e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
