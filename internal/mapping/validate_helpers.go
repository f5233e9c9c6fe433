package mapping

import (
	"fmt"
	"maps"
	"slices"

	"sheetgraph/internal/diagnostic"
	"sheetgraph/internal/match"
	"sheetgraph/internal/naming"
)

// validateCall validates one method call declaration.
func validateCall(res *diagnostic.Diagnostics, c *CallMapping, ctx, path string) {
	if c.Name == "" {
		res.AddError("missing_call_name", "call must declare the field it reads", ctx, path)
	}

	if len(c.Methods) == 0 {
		res.AddError("missing_methods", fmt.Sprintf("call %q must declare methods", c.Name), ctx, path)
	}

	for _, m := range c.Methods {
		if m == "" {
			res.AddError("empty_method", fmt.Sprintf("call %q has an empty method segment", c.Name), ctx, path)
			break
		}
	}

	if c.Builder != "" && c.Builder != BuilderMulti {
		res.AddError("unknown_call_builder", fmt.Sprintf("unknown call builder %q", c.Builder), ctx, path)
	}
}

// validateAssociation validates one association declaration.
func validateAssociation(
	res *diagnostic.Diagnostics,
	a *AssociationMapping,
	ctx, path string,
	resolver *naming.Resolver,
	known map[string]struct{},
) {
	if a.Name.IsEmpty() {
		res.AddError("missing_association_name", "association must declare a name", ctx, path)
		return
	}

	switch a.Builder {
	case "", BuilderMulti:
	case BuilderUseAttributes:
		if len(a.AttributeNames) == 0 {
			res.AddError("missing_attribute_names", "use_attributes builder needs attribute_names", ctx, path)
		}
	default:
		res.AddError("unknown_association_builder", fmt.Sprintf("unknown association builder %q", a.Builder), ctx, path)
	}

	if a.Builder != "" && a.Singular {
		res.AddWarning("singular_builder", fmt.Sprintf("builder %q on a singular association attaches every value in turn", a.Builder), ctx, path)
	}

	validatePolymorphic(res, a, ctx, path)
	validateThrough(res, a, ctx, path)

	for _, candidate := range a.CandidateTypes() {
		target := resolver.ToEffective(candidate)
		if _, ok := known[target]; ok {
			continue
		}

		msg := fmt.Sprintf("association %q targets %q, which no worksheet builds", a.Name.First(), candidate)
		if hint, ok := match.Closest(target, slices.Sorted(maps.Keys(known))); ok {
			msg += fmt.Sprintf(" (did you mean %q?)", hint)
		}

		res.AddError("association_target_not_found", msg, ctx, path)
	}
}

func validatePolymorphic(res *diagnostic.Diagnostics, a *AssociationMapping, ctx, path string) {
	if a.Polymorphic == nil {
		if a.Name.IsMultiple() {
			res.AddError("multiple_names", "only polymorphic associations may list several names", ctx, path)
		}

		return
	}

	if a.Polymorphic.AssociationField == "" {
		res.AddError("missing_association_field", "polymorphic association must declare association_field", ctx, path)
	}

	if a.Builder != "" {
		res.AddError("polymorphic_builder", "polymorphic associations read a single field and take no builder", ctx, path)
	}

	if a.MapToClass != "" {
		res.AddWarning("polymorphic_map_to_class", "map_to_class is ignored on polymorphic associations", ctx, path)
	}
}

func validateThrough(res *diagnostic.Diagnostics, a *AssociationMapping, ctx, path string) {
	if a.Through == nil {
		return
	}

	if a.Through.Class == "" {
		res.AddError("missing_through_class", "through must declare a class", ctx, path)
	}

	if a.Singular || a.Inverse {
		res.AddError("invalid_through", "through is only valid on plural, non-inverse associations", ctx, path)
	}
}

// validateTypeDefs checks the types section for duplicates.
func validateTypeDefs(res *diagnostic.Diagnostics, mf *MappingFile) {
	seen := map[string]struct{}{}

	for i, td := range mf.Types {
		if td.Name == "" {
			res.AddError("missing_type_name", "type must declare a name", "", fmt.Sprintf("types[%d]", i))
			continue
		}

		if _, dup := seen[td.Name]; dup {
			res.AddError("duplicate_type", fmt.Sprintf("duplicate type %q", td.Name), "", fmt.Sprintf("types[%d]", i))
		}

		seen[td.Name] = struct{}{}
	}
}

// knownTypes returns the effective type of every source.
func knownTypes(mf *MappingFile, resolver *naming.Resolver) map[string]struct{} {
	known := map[string]struct{}{}

	for _, src := range mf.Sources() {
		if src.Title == "" {
			continue
		}

		known[resolver.ToEffective(src.LogicalType())] = struct{}{}
	}

	return known
}

// sourceContext identifies a worksheet in diagnostics.
func sourceContext(src *SourceMapping, index int) string {
	if src.Title != "" {
		return src.Title
	}

	return fmt.Sprintf("worksheets[%d]", index)
}
