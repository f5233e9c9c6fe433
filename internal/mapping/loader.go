package mapping

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"sheetgraph/internal/naming"
)

// DefaultCompleteField is the field that marks incomplete rows.
const DefaultCompleteField = "complete"

// DefaultTypeField is the polymorphic discriminator field.
const DefaultTypeField = "type"

// LoadFile loads and parses a mapping file. Files ending in .json or .jsonc
// are read as JSON with comments and trailing commas; anything else as YAML.
func LoadFile(path string) (*MappingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return ParseJSON(data)
	default:
		return Parse(data)
	}
}

// Parse parses YAML data into a MappingFile.
func Parse(data []byte) (*MappingFile, error) {
	var mf MappingFile

	err := yaml.Unmarshal(data, &mf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping YAML: %w", err)
	}

	applyDefaults(&mf)

	return &mf, nil
}

// ParseJSON parses JSON (with comments and trailing commas) into a MappingFile.
func ParseJSON(data []byte) (*MappingFile, error) {
	v, err := hujson.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping JSON: %w", err)
	}

	v.Standardize()
	v.Minimize()

	// Minimized standard JSON is valid YAML, so the same decoders apply.
	return Parse(v.Pack())
}

// applyDefaults fills in default values for optional fields and normalizes
// field names so they match normalized row headers.
func applyDefaults(mf *MappingFile) {
	if mf.Version == "" {
		mf.Version = "1"
	}

	for i := range mf.Spreadsheets {
		ss := &mf.Spreadsheets[i]

		for j := range ss.Worksheets {
			src := &ss.Worksheets[j]
			src.Spreadsheet = ss.Title

			normalizeSource(src)
		}
	}
}

func normalizeSource(src *SourceMapping) {
	if src.CompleteField == "" {
		src.CompleteField = DefaultCompleteField
	}

	src.CompleteField = naming.Normalize(src.CompleteField)
	src.Key.Field = naming.Normalize(src.Key.Field)

	for i := range src.Key.From {
		src.Key.From[i] = naming.Normalize(src.Key.From[i])
	}

	for i := range src.Calls {
		src.Calls[i].Name = naming.Normalize(src.Calls[i].Name)
	}

	for i := range src.Associations {
		a := &src.Associations[i]
		a.Source = naming.Normalize(a.Source)

		for k := range a.AttributeNames {
			a.AttributeNames[k] = naming.Normalize(a.AttributeNames[k])
		}

		if a.Polymorphic != nil {
			if a.Polymorphic.TypeField == "" {
				a.Polymorphic.TypeField = DefaultTypeField
			}

			a.Polymorphic.TypeField = naming.Normalize(a.Polymorphic.TypeField)
			a.Polymorphic.AssociationField = naming.Normalize(a.Polymorphic.AssociationField)
		}
	}
}

// Marshal serializes a MappingFile to YAML.
func Marshal(mf *MappingFile) ([]byte, error) {
	return yaml.Marshal(mf)
}
