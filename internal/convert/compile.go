package convert

import (
	"slices"

	"sheetgraph/internal/mapping"
	"sheetgraph/internal/naming"
)

// compiledSource is a source mapping with every name resolved up front.
type compiledSource struct {
	mapping *mapping.SourceMapping
	// typeName is the effective record type; factoryName is its
	// namespace-qualified registry name.
	typeName     string
	factoryName  string
	associations []compiledAssociation
}

// compiledAssociation is an association with its targets resolved and its
// attacher chosen.
type compiledAssociation struct {
	mapping *mapping.AssociationMapping
	name    string
	// targets holds the effective type of each candidate.
	targets  []string
	attacher attacher
}

func compileSource(mf *mapping.MappingFile, src *mapping.SourceMapping, resolver *naming.Resolver, deps attachDeps) *compiledSource {
	typeName := resolver.ToEffective(src.LogicalType())

	cs := &compiledSource{
		mapping:     src,
		typeName:    typeName,
		factoryName: mf.Qualify(typeName),
	}

	for i := range src.Associations {
		a := &src.Associations[i]

		targets := make([]string, 0, len(a.Name))
		for _, c := range a.CandidateTypes() {
			targets = append(targets, resolver.ToEffective(c))
		}

		cs.associations = append(cs.associations, compiledAssociation{
			mapping:  a,
			name:     a.Name.First(),
			targets:  targets,
			attacher: newAttacher(a, mf, deps),
		})
	}

	return cs
}

func (ca *compiledAssociation) accepts(typeName string) bool {
	return slices.Contains(ca.targets, typeName)
}
