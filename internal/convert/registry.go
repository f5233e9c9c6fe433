package convert

import (
	"sheetgraph/internal/mapping"
	"sheetgraph/internal/record"
)

// NewDocumentRegistry registers a record.Document factory for every type mf
// can build. Types declared under types get a closed schema; source and
// join types that are not declared get an open one. Every document commits
// through saver, which may be nil.
func NewDocumentRegistry(mf *mapping.MappingFile, saver record.Saver) *record.Registry {
	reg := record.NewRegistry()

	for _, td := range mf.Types {
		reg.Register(mf.Qualify(td.Name), record.DocumentFactory(record.Schema{
			Type:        td.Name,
			Attributes:  td.Attributes,
			Singular:    td.Singular,
			Collections: td.Collections,
			Methods:     td.Methods,
		}, saver))
	}

	open := func(typeName string) {
		if typeName == "" || reg.Has(mf.Qualify(typeName)) {
			return
		}

		reg.Register(mf.Qualify(typeName), record.DocumentFactory(record.Schema{Type: typeName, Open: true}, saver))
	}

	for _, src := range mf.Sources() {
		open(src.EffectiveType())

		for _, a := range src.Associations {
			if a.Through != nil {
				open(a.Through.Class)
			}
		}
	}

	return reg
}
