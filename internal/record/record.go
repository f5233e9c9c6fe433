// Package record defines the records a load builds and the registry that
// creates them by type name.
//
// The converter only talks to records through the interfaces here; Document
// is the generic implementation used by the CLI and tests.
package record

import (
	"context"
	"errors"
)

var (
	// ErrUnknownType is returned when no factory is registered for a type.
	ErrUnknownType = errors.New("unknown record type")
	// ErrNoAssociation is returned when a record has no such association.
	ErrNoAssociation = errors.New("no such association")
	// ErrNoMethod is returned when a receiver has no such method.
	ErrNoMethod = errors.New("no such method")
	// ErrNoAttribute is returned when a record has no such attribute.
	ErrNoAttribute = errors.New("no such attribute")
)

// Attributes are a record's attribute values by name.
type Attributes map[string]any

// Receiver is anything a method can be invoked on.
type Receiver interface {
	// Invoke calls method with args. Accessor methods take no arguments and
	// return the next Receiver of a method path.
	Invoke(method string, args ...any) (any, error)
}

// Collection is a plural association of a record.
type Collection interface {
	Append(other Record) error
}

// Record is one built row.
type Record interface {
	Receiver

	// Type returns the record type name, without namespace.
	Type() string
	// Set assigns an attribute.
	Set(attr string, value any) error
	// SetSingular assigns a single-valued association.
	SetSingular(assoc string, other Record) error
	// Collection returns a plural association.
	Collection(assoc string) (Collection, error)
	// Commit persists the record.
	Commit(ctx context.Context) error
}

// Identifiable records accept the key they are stored under.
type Identifiable interface {
	SetID(id string)
	ID() string
}

// Factory creates a record of typeName with the given attributes.
type Factory func(typeName string, attrs Attributes) (Record, error)
