package mapping

import "sheetgraph/internal/naming"

// LogicalType returns the record type derived from the source title.
func (s *SourceMapping) LogicalType() string {
	return naming.ClassNameFromTitle(s.Title)
}

// EffectiveType returns the record type rows are built as.
func (s *SourceMapping) EffectiveType() string {
	if s.MapToClass != "" {
		return s.MapToClass
	}

	return s.LogicalType()
}

// CandidateTypes returns the logical type of every possible target: one
// for a plain association, one per name for a polymorphic one. An explicit
// map_to_class on a plain association is returned as is.
func (a *AssociationMapping) CandidateTypes() []string {
	if a.MapToClass != "" && !a.IsPolymorphic() {
		return []string{a.MapToClass}
	}

	out := make([]string, 0, len(a.Name))
	for _, n := range a.Name {
		out = append(out, naming.ClassNameFromTitle(n))
	}

	return out
}

// Qualify prefixes typeName with the namespace, if any.
func (mf *MappingFile) Qualify(typeName string) string {
	if mf.Namespace == "" {
		return typeName
	}

	return mf.Namespace + "." + typeName
}

// RegisterOverrides records every source's map_to_class in r.
func (mf *MappingFile) RegisterOverrides(r *naming.Resolver) {
	for _, src := range mf.Sources() {
		r.Save(src.LogicalType(), src.MapToClass)
	}
}
