package convert

import (
	"context"
	"fmt"
	"maps"

	"github.com/google/uuid"

	"sheetgraph/internal/common"
	"sheetgraph/internal/mapping"
	"sheetgraph/internal/naming"
	"sheetgraph/internal/record"
	"sheetgraph/internal/store"
)

// attachKind selects how associated records are attached.
type attachKind int

const (
	attachSingular attachKind = iota
	attachCollection
	attachThrough
)

func (k attachKind) String() string {
	switch k {
	case attachSingular:
		return "singular"
	case attachCollection:
		return "collection"
	default:
		return "through"
	}
}

// linked is a record together with its store key.
type linked struct {
	rec record.Record
	key string
}

// attacher links an owner record with one associated record.
type attacher interface {
	kind() attachKind
	attach(ctx context.Context, owner, associated linked) error
}

// attachDeps are the collaborators through attachers need.
type attachDeps struct {
	registry *record.Registry
	store    *store.ModelStore
}

func newAttacher(a *mapping.AssociationMapping, mf *mapping.MappingFile, deps attachDeps) attacher {
	switch {
	case a.Through != nil:
		return &throughAttacher{
			through:     a.Through,
			factoryName: mf.Qualify(a.Through.Class),
			deps:        deps,
		}
	case a.Singular:
		return singularAttacher{inverse: a.Inverse}
	default:
		return collectionAttacher{inverse: a.Inverse}
	}
}

// singularAttacher sets a single-valued association named after the other
// record's type.
type singularAttacher struct {
	inverse bool
}

func (singularAttacher) kind() attachKind { return attachSingular }

func (s singularAttacher) attach(_ context.Context, owner, associated linked) error {
	target, other := owner.rec, associated.rec
	if s.inverse {
		target, other = other, target
	}

	return target.SetSingular(naming.Underscore(other.Type()), other)
}

// collectionAttacher appends to a plural association named after the other
// record's type.
type collectionAttacher struct {
	inverse bool
}

func (collectionAttacher) kind() attachKind { return attachCollection }

func (c collectionAttacher) attach(_ context.Context, owner, associated linked) error {
	target, other := owner.rec, associated.rec
	if c.inverse {
		target, other = other, target
	}

	coll, err := target.Collection(naming.Pluralize(naming.Underscore(other.Type())))
	if err != nil {
		return err
	}

	return coll.Append(other)
}

// throughKeySpace is the UUID namespace of join record keys.
var throughKeySpace = uuid.MustParse("6f1c0a53-43c4-4f7e-9d7c-2a7f3c1d5b90")

// throughAttacher builds a join record referencing both ends and stores it.
type throughAttacher struct {
	through     *mapping.Through
	factoryName string
	deps        attachDeps
}

func (throughAttacher) kind() attachKind { return attachThrough }

func (t *throughAttacher) attach(_ context.Context, owner, associated linked) error {
	attrs := make(record.Attributes, len(t.through.Attributes)+3)
	maps.Copy(attrs, t.through.Attributes)

	attrs[common.FirstNonEmpty(t.through.As, naming.Underscore(owner.rec.Type()))] = owner.rec
	if t.through.As != "" {
		// A polymorphic join names the owner's type next to the reference.
		attrs[t.through.As+"_type"] = owner.rec.Type()
	}
	attrs[naming.Underscore(associated.rec.Type())] = associated.rec

	rec, err := t.deps.registry.New(t.factoryName, attrs)
	if err != nil {
		return err
	}

	key := throughKey(t.through.Class, owner, associated)
	if idr, ok := rec.(record.Identifiable); ok {
		idr.SetID(key)
	}

	if err := t.deps.store.Add(t.through.Class, key, rec); err != nil {
		return fmt.Errorf("join %s: %w", t.through.Class, err)
	}

	return nil
}

// throughKey derives a join record key from both ends, so reloading the same
// data yields the same keys and a repeated pair is caught as a duplicate.
func throughKey(class string, owner, associated linked) string {
	name := fmt.Sprintf("%s|%s:%s|%s:%s",
		class, owner.rec.Type(), owner.key, associated.rec.Type(), associated.key)

	return uuid.NewSHA1(throughKeySpace, []byte(name)).String()
}
