package record

import (
	"context"
	"fmt"
	"slices"
)

// Schema describes which attributes, associations and methods a Document
// accepts. An open schema accepts anything. A closed schema accepts only the
// listed associations and methods, and only the listed attributes when any
// are listed.
type Schema struct {
	Type        string
	Open        bool
	Attributes  []string
	Singular    []string
	Collections []string
	Methods     []string
}

func (s *Schema) allows(list []string, name string) bool {
	return s.Open || slices.Contains(list, name)
}

func (s *Schema) allowsAttribute(name string) bool {
	return s.Open || len(s.Attributes) == 0 || slices.Contains(s.Attributes, name)
}

// Saver persists record snapshots.
type Saver interface {
	Save(ctx context.Context, snap Snapshot) error
}

// Document is a generic Record backed by maps.
type Document struct {
	schema      *Schema
	id          string
	attrs       Attributes
	singular    map[string]Record
	collections map[string]*List
	saver       Saver
}

// DocumentFactory returns a Factory that builds Documents for schema and
// commits them through saver. A nil saver makes Commit a no-op.
func DocumentFactory(schema Schema, saver Saver) Factory {
	s := &schema

	return func(_ string, attrs Attributes) (Record, error) {
		return NewDocument(s, attrs, saver)
	}
}

// NewDocument creates a Document, applying attrs through Set.
func NewDocument(schema *Schema, attrs Attributes, saver Saver) (*Document, error) {
	d := &Document{
		schema:      schema,
		attrs:       make(Attributes, len(attrs)),
		singular:    make(map[string]Record),
		collections: make(map[string]*List),
		saver:       saver,
	}

	for name, v := range attrs {
		if err := d.Set(name, v); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Type implements Record.
func (d *Document) Type() string { return d.schema.Type }

// ID implements Identifiable.
func (d *Document) ID() string { return d.id }

// SetID implements Identifiable.
func (d *Document) SetID(id string) { d.id = id }

// Get returns an attribute value.
func (d *Document) Get(attr string) (any, bool) {
	v, ok := d.attrs[attr]
	return v, ok
}

// Attributes returns a copy of the attribute map.
func (d *Document) Attributes() Attributes {
	out := make(Attributes, len(d.attrs))
	for k, v := range d.attrs {
		out[k] = v
	}

	return out
}

// Singular returns a single-valued association.
func (d *Document) Singular(assoc string) (Record, bool) {
	r, ok := d.singular[assoc]
	return r, ok
}

// Set implements Record.
func (d *Document) Set(attr string, value any) error {
	if !d.schema.allowsAttribute(attr) {
		return fmt.Errorf("%w: %s.%s", ErrNoAttribute, d.schema.Type, attr)
	}

	d.attrs[attr] = value

	return nil
}

// SetSingular implements Record.
func (d *Document) SetSingular(assoc string, other Record) error {
	if !d.schema.allows(d.schema.Singular, assoc) {
		return fmt.Errorf("%w: %s.%s", ErrNoAssociation, d.schema.Type, assoc)
	}

	d.singular[assoc] = other

	return nil
}

// Collection implements Record.
func (d *Document) Collection(assoc string) (Collection, error) {
	return d.list(assoc)
}

// Items returns the records of a plural association.
func (d *Document) Items(assoc string) []Record {
	if l, ok := d.collections[assoc]; ok {
		return l.Items()
	}

	return nil
}

func (d *Document) list(assoc string) (*List, error) {
	if !d.schema.allows(d.schema.Collections, assoc) {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoAssociation, d.schema.Type, assoc)
	}

	l, ok := d.collections[assoc]
	if !ok {
		l = &List{}
		d.collections[assoc] = l
	}

	return l, nil
}

// Invoke implements Receiver. Without arguments the method is an accessor
// for a nested attribute group; with one argument it assigns the attribute.
func (d *Document) Invoke(method string, args ...any) (any, error) {
	if !d.schema.allows(d.schema.Methods, method) {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoMethod, d.schema.Type, method)
	}

	return d.attrs.Invoke(method, args...)
}

// Commit implements Record.
func (d *Document) Commit(ctx context.Context) error {
	if d.saver == nil {
		return nil
	}

	return d.saver.Save(ctx, d.Snapshot())
}

// Invoke makes an attribute group a Receiver: "meta" with no arguments
// returns the nested group stored under meta, creating it when absent, and
// "colour" with one argument stores it. Accessing a scalar as a group fails.
func (a Attributes) Invoke(method string, args ...any) (any, error) {
	switch len(args) {
	case 0:
		switch v := a[method].(type) {
		case Attributes:
			return v, nil
		case nil:
		default:
			return nil, fmt.Errorf("%w: %s holds %T, not an attribute group", ErrNoMethod, method, v)
		}

		nested := Attributes{}
		a[method] = nested

		return nested, nil
	case 1:
		a[method] = args[0]
		return nil, nil
	default:
		a[method] = append([]any(nil), args...)
		return nil, nil
	}
}

// List is a plural association.
type List struct {
	items []Record
}

// Append implements Collection.
func (l *List) Append(other Record) error {
	l.items = append(l.items, other)
	return nil
}

// Items returns the appended records in order.
func (l *List) Items() []Record {
	return slices.Clone(l.items)
}
