package convert

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sheetgraph/internal/builder"
	"sheetgraph/internal/common"
	"sheetgraph/internal/mapping"
	"sheetgraph/internal/model"
	"sheetgraph/internal/naming"
	"sheetgraph/internal/record"
	"sheetgraph/internal/store"
)

// Mapper turns one row Definition into a stored record.
type Mapper struct {
	registry *record.Registry
	store    *store.ModelStore
	resolver *naming.Resolver
	logger   *zap.SugaredLogger
}

// NewMapper creates a Mapper writing into st.
func NewMapper(registry *record.Registry, st *store.ModelStore, resolver *naming.Resolver, logger *zap.SugaredLogger) *Mapper {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Mapper{registry: registry, store: st, resolver: resolver, logger: logger}
}

// Convert builds, links and stores the record for def. It reports false
// when the row is marked incomplete and was skipped.
func (m *Mapper) Convert(ctx context.Context, cs *compiledSource, def *model.Definition) (bool, error) {
	if def.IsIncomplete() {
		m.logger.Debugw("row marked incomplete, skipping", "source", cs.mapping.Title)
		return false, nil
	}

	key, err := def.Key()
	if err != nil {
		return false, err
	}

	attrs, err := def.Attributes(ctx)
	if err != nil {
		return false, err
	}

	calls, err := def.MethodCalls(ctx)
	if err != nil {
		return false, err
	}

	m.logger.Debugw("building record", "type", cs.typeName, "key", key, "attributes", attrs)

	rec, err := m.registry.New(cs.factoryName, attrs)
	if err != nil {
		return false, err
	}

	if idr, ok := rec.(record.Identifiable); ok {
		idr.SetID(key)
	}

	for _, call := range calls {
		if err := invokePath(rec, call.Methods, call.Value); err != nil {
			return false, err
		}
	}

	owner := linked{rec: rec, key: key}

	for i := range cs.associations {
		if err := m.associate(ctx, &cs.associations[i], def, owner); err != nil {
			return false, err
		}
	}

	if err := m.store.Add(cs.typeName, key, rec); err != nil {
		return false, err
	}

	return true, nil
}

// invokePath calls every segment but the last as an accessor, then calls the
// last one with value.
func invokePath(rec record.Receiver, path mapping.MethodPath, value any) error {
	recv := rec

	for i, method := range path {
		if i == len(path)-1 {
			_, err := recv.Invoke(method, value)
			return err
		}

		next, err := recv.Invoke(method)
		if err != nil {
			return err
		}

		r, ok := next.(record.Receiver)
		if !ok {
			return fmt.Errorf("%w: %s returned %T, not a receiver", record.ErrNoMethod, path[:i+1], next)
		}

		recv = r
	}

	return nil
}

func (m *Mapper) associate(ctx context.Context, ca *compiledAssociation, def *model.Definition, owner linked) error {
	target, err := m.targetType(ca, def)
	if err != nil {
		return err
	}

	keys, err := m.associationKeys(ca, def, target)
	if err != nil {
		return err
	}

	for _, key := range keys {
		rec, err := m.store.Get(target, naming.Normalize(key))
		if err != nil {
			return fmt.Errorf("association %q: %w", ca.name, err)
		}

		m.logger.Debugw("attaching association",
			"association", ca.name, "kind", ca.attacher.kind(), "inverse", ca.mapping.Inverse,
			"target", target, "key", key)

		if err := ca.attacher.attach(ctx, owner, linked{rec: rec, key: naming.Normalize(key)}); err != nil {
			return fmt.Errorf("association %q: %w", ca.name, err)
		}
	}

	return nil
}

// targetType returns the effective type the row's association points at.
func (m *Mapper) targetType(ca *compiledAssociation, def *model.Definition) (string, error) {
	if !ca.mapping.IsPolymorphic() {
		return ca.targets[0], nil
	}

	field := common.FirstNonEmpty(ca.mapping.Polymorphic.TypeField, mapping.DefaultTypeField)

	raw, err := def.ValueFor(field)
	if err != nil {
		return "", fmt.Errorf("polymorphic association %q: %w", ca.name, err)
	}

	target := m.resolver.ToEffective(naming.ClassNameFromTitle(raw))
	if !ca.accepts(target) {
		return "", fmt.Errorf("%w: %q is not one of %v", ErrPolymorphicAssociation, raw, ca.mapping.Name)
	}

	return target, nil
}

// associationKeys returns the raw keys of the records to associate.
func (m *Mapper) associationKeys(ca *compiledAssociation, def *model.Definition, target string) ([]string, error) {
	a := ca.mapping

	switch a.Builder {
	case mapping.BuilderMulti:
		field := common.FirstNonEmpty(a.Source, naming.Pluralize(naming.Underscore(target)))

		raw, _ := def.Lookup(field)
		keys := builder.MultiBuilder{}.Build(raw)

		if len(keys) == 0 && !a.Optional {
			return nil, fmt.Errorf("%w: no value in %q for %q", ErrMissingAssociation, naming.Normalize(field), ca.name)
		}

		return keys, nil
	case mapping.BuilderUseAttributes:
		var keys []string

		for _, name := range a.AttributeNames {
			if v, _ := def.Lookup(name); model.IsAffirmative(v) {
				keys = append(keys, name)
			}
		}

		return keys, nil
	default:
		field := naming.Normalize(ca.name)
		if a.IsPolymorphic() {
			field = a.Polymorphic.AssociationField
		}

		raw, _ := def.Lookup(field)
		if naming.Normalize(raw) == "" {
			if a.Required {
				return nil, fmt.Errorf("%w: no value in %q for %q", ErrMissingAssociation, naming.Normalize(field), ca.name)
			}

			return nil, nil
		}

		return []string{raw}, nil
	}
}
