// Package builder composes one or more cell values into a derived value:
// a key (Join, Name) or a list of association keys (Multi).
package builder

import (
	"errors"
	"fmt"
	"strings"

	"sheetgraph/internal/naming"
)

var (
	// ErrMissingField is returned when a named field is absent from the row.
	ErrMissingField = errors.New("missing field")
	// ErrNoFields is returned when none of the named fields holds a value.
	ErrNoFields = errors.New("no fields matched")
)

// Lookup gives access to the raw values of one row.
type Lookup interface {
	// Lookup returns the raw value of field and whether the field exists.
	Lookup(field string) (string, bool)
}

// Fields is a Lookup over a plain map.
type Fields map[string]string

// Lookup implements Lookup.
func (f Fields) Lookup(field string) (string, bool) {
	v, ok := f[field]
	return v, ok
}

// Builder composes the values of fields into one key.
type Builder interface {
	Build(fields []string, lookup Lookup) (string, error)
}

// Builder names as they appear in mapping files.
const (
	JoinName = "join"
	NameName = "name"
)

// ByName returns the key builder registered under name.
func ByName(name string) (Builder, bool) {
	switch name {
	case JoinName:
		return JoinBuilder{}, true
	case NameName:
		return NameBuilder{}, true
	default:
		return nil, false
	}
}

// JoinBuilder normalizes each non-empty field value and joins them with "_".
type JoinBuilder struct{}

// Build implements Builder.
func (JoinBuilder) Build(fields []string, lookup Lookup) (string, error) {
	values, err := collect(fields, lookup)
	if err != nil {
		return "", err
	}

	return strings.Join(values, "_"), nil
}

// NameBuilder works like JoinBuilder but marks single letters as initials:
// "George", "W", "Bush" -> "george_w._bush".
type NameBuilder struct{}

// Build implements Builder.
func (NameBuilder) Build(fields []string, lookup Lookup) (string, error) {
	values, err := collect(fields, lookup)
	if err != nil {
		return "", err
	}

	for i, v := range values {
		if len([]rune(v)) == 1 {
			values[i] = v + "."
		}
	}

	return strings.Join(values, "_"), nil
}

// collect returns the normalized, non-empty values of fields in order.
func collect(fields []string, lookup Lookup) ([]string, error) {
	values := make([]string, 0, len(fields))

	for _, field := range fields {
		raw, ok := lookup.Lookup(field)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingField, field)
		}

		if v := naming.Normalize(raw); v != "" {
			values = append(values, v)
		}
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFields, strings.Join(fields, ", "))
	}

	return values, nil
}

// MultiBuilder splits a comma-separated cell into its components.
type MultiBuilder struct{}

// Build strips newlines, then splits raw on ",". Components are trimmed and
// blank components dropped; an empty cell yields an empty list.
func (MultiBuilder) Build(raw string) []string {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "\n", ""))
	if raw == "" {
		return []string{}
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}

	return result
}
