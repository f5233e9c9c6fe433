// Package model turns one row of a sheet into a Definition: the row's key,
// its coerced attributes and the method calls to make on its record.
package model

import (
	"context"
	"errors"
	"fmt"

	"sheetgraph/internal/builder"
	"sheetgraph/internal/expand"
	"sheetgraph/internal/mapping"
	"sheetgraph/internal/naming"
	"sheetgraph/internal/record"
)

var (
	// ErrMissingField is returned when a row has no such field.
	ErrMissingField = errors.New("missing field")
	// ErrNoFieldName is returned when the key field is absent or blank.
	ErrNoFieldName = errors.New("no value for key field")
	// ErrUnknownBuilder is returned for a key builder that does not exist.
	ErrUnknownBuilder = errors.New("unknown key builder")
)

// MethodCall is a method path to invoke on a record with a value.
type MethodCall struct {
	Methods mapping.MethodPath
	Value   any
}

// Definition is the view of one row through its source mapping.
// Derived values are computed on first use and memoized.
type Definition struct {
	mapping  *mapping.SourceMapping
	fields   map[string]string
	expander *expand.Expander

	key     string
	keyErr  error
	keyDone bool

	attrs record.Attributes
	calls []MethodCall
}

// New builds a Definition from a header and one data row. Header names are
// normalized; cells missing at the end of a short row read as empty.
func New(m *mapping.SourceMapping, header, row []string, expander *expand.Expander) *Definition {
	fields := make(map[string]string, len(header))

	for i, h := range header {
		name := naming.Normalize(h)
		if name == "" {
			continue
		}

		if i < len(row) {
			fields[name] = row[i]
		} else {
			fields[name] = ""
		}
	}

	if expander == nil {
		expander = expand.New()
	}

	return &Definition{mapping: m, fields: fields, expander: expander}
}

// Mapping returns the source mapping the row belongs to.
func (d *Definition) Mapping() *mapping.SourceMapping {
	return d.mapping
}

// Lookup implements builder.Lookup.
func (d *Definition) Lookup(field string) (string, bool) {
	v, ok := d.fields[naming.Normalize(field)]
	return v, ok
}

// ValueFor returns the raw value of field. An absent field is an error; an
// empty one is not.
func (d *Definition) ValueFor(field string) (string, error) {
	v, ok := d.Lookup(field)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingField, naming.Normalize(field))
	}

	return v, nil
}

// IsIncomplete reports whether the row's completion field is negative.
func (d *Definition) IsIncomplete() bool {
	field := d.mapping.CompleteField
	if field == "" {
		field = mapping.DefaultCompleteField
	}

	v, _ := d.Lookup(field)

	return IsNegative(v)
}

// Key returns the row's normalized key.
func (d *Definition) Key() (string, error) {
	if !d.keyDone {
		d.key, d.keyErr = d.buildKey()
		d.keyDone = true
	}

	return d.key, d.keyErr
}

func (d *Definition) buildKey() (string, error) {
	spec := d.mapping.Key

	if spec.IsBuilder() {
		b, ok := builder.ByName(spec.Builder)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownBuilder, spec.Builder)
		}

		return b.Build(spec.From, d)
	}

	raw, ok := d.Lookup(spec.Field)
	if !ok {
		return "", fmt.Errorf("%w: field %q is absent", ErrNoFieldName, spec.Field)
	}

	key := naming.Normalize(raw)
	if key == "" {
		return "", fmt.Errorf("%w: field %q is blank", ErrNoFieldName, spec.Field)
	}

	return key, nil
}

// Value runs a field through the coercion pipeline: token expansion, then
// boolean coercion, then blank to nil.
func (d *Definition) Value(ctx context.Context, field string) (any, error) {
	raw, err := d.ValueFor(field)
	if err != nil {
		return nil, err
	}

	if token, ok := expand.Placeholder(raw); ok {
		key, err := d.Key()
		if err != nil {
			return nil, err
		}

		raw, err = d.expander.Expand(ctx, token, key)
		if err != nil {
			return nil, err
		}
	}

	return Coerce(raw), nil
}

// Attributes returns the coerced attribute map, with the key stored under
// key_to when declared.
func (d *Definition) Attributes(ctx context.Context) (record.Attributes, error) {
	if d.attrs != nil {
		return d.attrs, nil
	}

	attrs := make(record.Attributes, len(d.mapping.Attributes)+1)

	for _, am := range d.mapping.Attributes {
		v, err := d.Value(ctx, am.Name)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", am.Name, err)
		}

		if s, ok := v.(string); ok && am.Markdown {
			v = RenderMarkdown(s)
		}

		attrs[am.Target()] = v
	}

	if d.mapping.KeyTo != "" {
		key, err := d.Key()
		if err != nil {
			return nil, err
		}

		attrs[d.mapping.KeyTo] = key
	}

	d.attrs = attrs

	return attrs, nil
}

// MethodCalls returns the method calls in declaration order.
func (d *Definition) MethodCalls(ctx context.Context) ([]MethodCall, error) {
	if d.calls != nil {
		return d.calls, nil
	}

	calls := make([]MethodCall, 0, len(d.mapping.Calls))

	for _, cm := range d.mapping.Calls {
		v, err := d.Value(ctx, cm.Name)
		if err != nil {
			return nil, fmt.Errorf("call %q: %w", cm.Name, err)
		}

		if cm.Builder == mapping.BuilderMulti {
			s, _ := v.(string)
			v = builder.MultiBuilder{}.Build(s)
		}

		calls = append(calls, MethodCall{Methods: cm.Methods, Value: v})
	}

	d.calls = calls

	return calls, nil
}
