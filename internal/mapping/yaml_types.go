package mapping

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"sheetgraph/internal/common"
)

// StringOrArray accepts either a single string or an array of strings.
type StringOrArray []string

// --- StringOrArray YAML methods ---

// UnmarshalYAML implements custom YAML unmarshaling for StringOrArray.
func (s *StringOrArray) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string

		err := node.Decode(&str)
		if err != nil {
			return err
		}

		if str != "" {
			*s = StringOrArray{str}
		} else {
			*s = StringOrArray{}
		}

		return nil

	case yaml.SequenceNode:
		var arr []string

		err := node.Decode(&arr)
		if err != nil {
			return err
		}

		*s = arr

		return nil

	default:
		return fmt.Errorf("expected string or array, got %v", node.Kind)
	}
}

// MarshalYAML outputs a single string if length is 1, otherwise an array.
func (s StringOrArray) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}

	return []string(s), nil
}

// First returns the first element or empty string if empty.
func (s StringOrArray) First() string {
	if v, ok := common.First(s); ok {
		return v
	}

	return ""
}

// IsEmpty returns true if the array is empty.
func (s StringOrArray) IsEmpty() bool {
	return common.IsEmpty(s)
}

// IsMultiple returns true if the array has more than one element.
func (s StringOrArray) IsMultiple() bool {
	return common.IsMultiple(s)
}

// Contains returns true if the array contains the given string.
func (s StringOrArray) Contains(str string) bool {
	return slices.Contains(s, str)
}

// --- KeySpec YAML methods ---

type keyBuilderYAML struct {
	Builder        string   `yaml:"builder"`
	From           []string `yaml:"from,omitempty"`
	FromAttributes []string `yaml:"from_attributes,omitempty"`
}

// UnmarshalYAML accepts a field name or a {builder, from} map.
// "from_attributes" is accepted as an alias of "from".
func (k *KeySpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var field string

		err := node.Decode(&field)
		if err != nil {
			return err
		}

		*k = KeySpec{Field: field}

		return nil

	case yaml.MappingNode:
		var raw keyBuilderYAML

		err := node.Decode(&raw)
		if err != nil {
			return err
		}

		from := raw.From
		if len(from) == 0 {
			from = raw.FromAttributes
		}

		*k = KeySpec{Builder: raw.Builder, From: from}

		return nil

	default:
		return fmt.Errorf("expected field name or builder map for key, got %v", node.Kind)
	}
}

// MarshalYAML implements custom YAML marshaling for KeySpec.
func (k KeySpec) MarshalYAML() (any, error) {
	if !k.IsBuilder() {
		return k.Field, nil
	}

	return keyBuilderYAML{Builder: k.Builder, From: k.From}, nil
}

// --- AttributeMapping YAML methods ---

// UnmarshalYAML accepts a bare field name or the full attribute map.
func (a *AttributeMapping) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var name string

		err := node.Decode(&name)
		if err != nil {
			return err
		}

		*a = AttributeMapping{Name: name}

		return nil
	}

	type plain AttributeMapping

	var p plain

	err := node.Decode(&p)
	if err != nil {
		return err
	}

	*a = AttributeMapping(p)

	return nil
}

// --- MethodPath YAML methods ---

// UnmarshalYAML accepts ["a", "b"] or "a.b".
func (m *MethodPath) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var dotted string

		err := node.Decode(&dotted)
		if err != nil {
			return err
		}

		*m = ParseMethodPath(dotted)

		return nil

	case yaml.SequenceNode:
		var arr []string

		err := node.Decode(&arr)
		if err != nil {
			return err
		}

		*m = arr

		return nil

	default:
		return fmt.Errorf("expected method list or dotted string, got %v", node.Kind)
	}
}

// MarshalYAML writes the path as a dotted string.
func (m MethodPath) MarshalYAML() (any, error) {
	return m.String(), nil
}

// ParseMethodPath splits "a.b.c" into its segments.
func ParseMethodPath(dotted string) MethodPath {
	if strings.TrimSpace(dotted) == "" {
		return MethodPath{}
	}

	parts := strings.Split(dotted, ".")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return parts
}

// String returns the dotted form.
func (m MethodPath) String() string {
	return strings.Join(m, ".")
}
