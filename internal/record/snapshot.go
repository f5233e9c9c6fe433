package record

import "sort"

// Ref identifies a record by type and id.
type Ref struct {
	Type string `bson:"type" json:"type"`
	ID   string `bson:"id" json:"id"`
}

// RefOf returns the Ref of r. Records that are not Identifiable have an
// empty id.
func RefOf(r Record) Ref {
	ref := Ref{Type: r.Type()}
	if idr, ok := r.(Identifiable); ok {
		ref.ID = idr.ID()
	}

	return ref
}

// Snapshot is the persisted form of a record: attribute values with
// embedded records replaced by Refs, and associations as Refs.
type Snapshot struct {
	Type        string
	ID          string
	Attributes  map[string]any
	Singular    map[string]Ref
	Collections map[string][]Ref
}

// AttributeNames returns the attribute names, sorted.
func (s Snapshot) AttributeNames() []string {
	return sortedKeys(s.Attributes)
}

// SingularNames returns the singular association names, sorted.
func (s Snapshot) SingularNames() []string {
	return sortedKeys(s.Singular)
}

// CollectionNames returns the plural association names, sorted.
func (s Snapshot) CollectionNames() []string {
	return sortedKeys(s.Collections)
}

// Snapshot captures the document's current state.
func (d *Document) Snapshot() Snapshot {
	snap := Snapshot{
		Type:        d.schema.Type,
		ID:          d.id,
		Attributes:  make(map[string]any, len(d.attrs)),
		Singular:    make(map[string]Ref, len(d.singular)),
		Collections: make(map[string][]Ref, len(d.collections)),
	}

	for k, v := range d.attrs {
		snap.Attributes[k] = snapshotValue(v)
	}

	for k, r := range d.singular {
		snap.Singular[k] = RefOf(r)
	}

	for k, l := range d.collections {
		refs := make([]Ref, 0, len(l.items))
		for _, r := range l.items {
			refs = append(refs, RefOf(r))
		}

		snap.Collections[k] = refs
	}

	return snap
}

func snapshotValue(v any) any {
	switch val := v.(type) {
	case Record:
		return RefOf(val)
	case Attributes:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = snapshotValue(inner)
		}

		return out
	default:
		return v
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
