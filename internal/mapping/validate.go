package mapping

import (
	"errors"
	"fmt"

	"sheetgraph/internal/builder"
	"sheetgraph/internal/diagnostic"
	"sheetgraph/internal/naming"
)

// ErrValidation is wrapped by Check when a mapping has errors.
var ErrValidation = errors.New("invalid mapping")

// TypeSet reports which record types can be instantiated.
type TypeSet interface {
	Has(typeName string) bool
}

// Validate checks a mapping file for structural problems. When types is
// non-nil every record type the mapping builds must be in it; type names are
// namespace-qualified before the lookup.
func Validate(mf *MappingFile, types TypeSet) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if mf == nil {
		res.AddError("mapping_is_nil", "mapping file is nil", "", "")
		return res
	}

	if len(mf.Sources()) == 0 {
		res.AddWarning("no_sources", "mapping declares no worksheets", "", "")
	}

	validateTypeDefs(res, mf)

	resolver := naming.NewResolver()
	mf.RegisterOverrides(resolver)

	known := knownTypes(mf, resolver)
	seen := map[string]struct{}{}

	for i := range mf.Spreadsheets {
		ss := &mf.Spreadsheets[i]
		if ss.Title == "" {
			res.AddError("missing_spreadsheet_title", "spreadsheet must declare a title", "", fmt.Sprintf("spreadsheets[%d]", i))
		}

		for j := range ss.Worksheets {
			src := &ss.Worksheets[j]
			ctx := sourceContext(src, j)

			if src.Title != "" {
				norm := naming.Normalize(src.Title)
				if _, dup := seen[norm]; dup {
					res.AddError("duplicate_source", fmt.Sprintf("duplicate worksheet %q", src.Title), ctx, "title")
				}

				seen[norm] = struct{}{}
			}

			var sd diagnostic.Diagnostics
			validateSource(&sd, mf, src, ctx, types, resolver, known)
			res.Merge(sd)
		}
	}

	return res
}

// Check validates mf and returns an error wrapping ErrValidation if there
// are error diagnostics.
func Check(mf *MappingFile, types TypeSet) error {
	diags := Validate(mf, types)
	if err := diags.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

func validateSource(
	res *diagnostic.Diagnostics,
	mf *MappingFile,
	src *SourceMapping,
	ctx string,
	types TypeSet,
	resolver *naming.Resolver,
	known map[string]struct{},
) {
	if src.Title == "" {
		res.AddError("missing_title", "worksheet mapping must declare a title", ctx, "title")
	}

	validateKey(res, src, ctx)

	if src.Title != "" && src.MapToClass != "" && src.MapToClass != src.LogicalType() {
		res.AddInfo("class_override",
			fmt.Sprintf("%s rows are built as %s", src.LogicalType(), src.MapToClass), ctx, "map_to_class")
	}

	if types != nil && src.Title != "" {
		typeName := mf.Qualify(src.EffectiveType())
		if !types.Has(typeName) {
			res.AddError("type_not_found", fmt.Sprintf("record type %q does not exist", typeName), ctx, "map_to_class")
		}
	}

	for i, a := range src.Attributes {
		if a.Name == "" {
			res.AddError("missing_attribute_name", "attribute must declare a name", ctx, fmt.Sprintf("attributes[%d]", i))
		}
	}

	for i := range src.Calls {
		validateCall(res, &src.Calls[i], ctx, fmt.Sprintf("calls[%d]", i))
	}

	for i := range src.Associations {
		a := &src.Associations[i]
		path := fmt.Sprintf("associations[%d]", i)

		validateAssociation(res, a, ctx, path, resolver, known)

		if types != nil && a.Through != nil && a.Through.Class != "" {
			typeName := mf.Qualify(a.Through.Class)
			if !types.Has(typeName) {
				res.AddError("type_not_found", fmt.Sprintf("through type %q does not exist", typeName), ctx, path)
			}
		}
	}
}

func validateKey(res *diagnostic.Diagnostics, src *SourceMapping, ctx string) {
	if src.Key.IsZero() {
		res.AddError("missing_key", "worksheet mapping must declare a key", ctx, "key")
		return
	}

	if !src.Key.IsBuilder() {
		return
	}

	if _, ok := builder.ByName(src.Key.Builder); !ok {
		res.AddError("unknown_key_builder", fmt.Sprintf("unknown key builder %q", src.Key.Builder), ctx, "key.builder")
	}

	if len(src.Key.From) == 0 {
		res.AddError("missing_key_fields", "key builder must list the fields it reads", ctx, "key.from")
	}
}
