package mapping

// MappingFile represents the root of a mapping definition file.
type MappingFile struct {
	// Version of the mapping schema (for future compatibility).
	Version string `yaml:"version,omitempty"`

	// Namespace qualifies record type lookups: "<namespace>.<Type>".
	Namespace string `yaml:"namespace,omitempty"`

	// Spreadsheets lists the spreadsheets to load, each with its sheets.
	Spreadsheets []SpreadsheetMapping `yaml:"spreadsheets"`

	// Types optionally declares the record types and their shape.
	// Types referenced by sheets but not declared here are built as open
	// documents that accept any attribute, association or method.
	Types []TypeDef `yaml:"types,omitempty"`
}

// SpreadsheetMapping groups the sources read from one spreadsheet.
type SpreadsheetMapping struct {
	Title      string          `yaml:"title"`
	Worksheets []SourceMapping `yaml:"worksheets"`
}

// SourceMapping describes how the rows of one sheet become records.
type SourceMapping struct {
	// Title of the sheet. Unique per load; the record type is derived from it.
	Title string `yaml:"title"`

	// Key identifies each row: a field name or a builder over several fields.
	Key KeySpec `yaml:"key"`

	// KeyTo names an attribute that receives the computed key.
	KeyTo string `yaml:"key_to,omitempty"`

	// MapToClass overrides the record type derived from the title.
	MapToClass string `yaml:"map_to_class,omitempty"`

	// CompleteField names the field that marks a row as incomplete when it
	// holds a negative value. Defaults to "complete".
	CompleteField string `yaml:"complete_field,omitempty"`

	Attributes   []AttributeMapping   `yaml:"attributes,omitempty"`
	Calls        []CallMapping        `yaml:"calls,omitempty"`
	Associations []AssociationMapping `yaml:"associations,omitempty"`

	// Spreadsheet is the title of the owning spreadsheet, set on load.
	Spreadsheet string `yaml:"-"`
}

// KeySpec is either a plain field name or a builder over several fields.
// YAML formats supported:
//   - Field name: "name"
//   - Builder: {builder: join, from: [first, last]}
type KeySpec struct {
	Field   string
	Builder string
	From    []string
}

// IsBuilder reports whether the key is composed by a builder.
func (k KeySpec) IsBuilder() bool {
	return k.Builder != ""
}

// IsZero reports whether no key was declared.
func (k KeySpec) IsZero() bool {
	return k.Field == "" && k.Builder == "" && len(k.From) == 0
}

// AttributeMapping copies one field into a record attribute.
// A plain string is shorthand for {name: <string>}.
type AttributeMapping struct {
	// Name of the source field.
	Name string `yaml:"name"`
	// MapTo renames the attribute on the record.
	MapTo string `yaml:"map_to,omitempty"`
	// Markdown renders the value from Markdown to HTML.
	Markdown bool `yaml:"markdown,omitempty"`
}

// Target returns the attribute name on the record.
func (a AttributeMapping) Target() string {
	if a.MapTo != "" {
		return a.MapTo
	}

	return a.Name
}

// CallMapping invokes a method path on the record with a field's value.
type CallMapping struct {
	// Name of the source field supplying the value.
	Name string `yaml:"name"`
	// Methods is the method path: all but the last segment are accessors.
	Methods MethodPath `yaml:"methods"`
	// Builder "multi" splits the value into a list.
	Builder string `yaml:"builder,omitempty"`
}

// MethodPath is a method chain, written as a list or a dotted string.
type MethodPath []string

// Builder names accepted by associations.
const (
	BuilderMulti         = "multi"
	BuilderUseAttributes = "use_attributes"
)

// AssociationMapping describes how a row references records of other sources.
type AssociationMapping struct {
	// Name of the target source, or candidate names when polymorphic.
	Name StringOrArray `yaml:"name"`

	// MapToClass overrides the target record type.
	MapToClass string `yaml:"map_to_class,omitempty"`

	Singular bool `yaml:"singular,omitempty"`
	Inverse  bool `yaml:"inverse,omitempty"`
	Required bool `yaml:"required,omitempty"`
	Optional bool `yaml:"optional,omitempty"`

	// Builder is empty (direct field), "multi" or "use_attributes".
	Builder string `yaml:"builder,omitempty"`

	// Source overrides the field read by the multi builder.
	Source string `yaml:"source,omitempty"`

	// AttributeNames lists the yes/no columns read by use_attributes.
	AttributeNames []string `yaml:"attribute_names,omitempty"`

	Polymorphic *Polymorphic `yaml:"polymorphic,omitempty"`
	Through     *Through     `yaml:"through,omitempty"`
}

// IsPolymorphic reports whether the target type is chosen per row.
func (a *AssociationMapping) IsPolymorphic() bool {
	return a.Polymorphic != nil
}

// Polymorphic names the discriminator and key fields of a polymorphic association.
type Polymorphic struct {
	// TypeField holds the target type per row. Defaults to "type".
	TypeField string `yaml:"type_field,omitempty"`
	// AssociationField holds the target key per row.
	AssociationField string `yaml:"association_field"`
}

// Through materializes an association as a join record.
type Through struct {
	// Class is the join record type.
	Class string `yaml:"class"`
	// Attributes are static attributes set on every join record.
	Attributes map[string]any `yaml:"attributes,omitempty"`
	// As names the owner reference on the join record (polymorphic join).
	As string `yaml:"as,omitempty"`
}

// TypeDef declares a record type's shape.
type TypeDef struct {
	Name        string   `yaml:"name"`
	Attributes  []string `yaml:"attributes,omitempty"`
	Singular    []string `yaml:"singular,omitempty"`
	Collections []string `yaml:"collections,omitempty"`
	Methods     []string `yaml:"methods,omitempty"`
}

// Sources returns every source mapping in declaration order.
func (mf *MappingFile) Sources() []*SourceMapping {
	var out []*SourceMapping

	for i := range mf.Spreadsheets {
		for j := range mf.Spreadsheets[i].Worksheets {
			out = append(out, &mf.Spreadsheets[i].Worksheets[j])
		}
	}

	return out
}
