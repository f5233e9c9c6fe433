package naming

import "sheetgraph/internal/common"

// Resolver maps logical type names (derived from source titles) to the
// effective type names records are built as, and back.
//
// An unmapped name resolves to itself in both directions.
type Resolver struct {
	names *common.BiMap[string, string]
}

// NewResolver creates an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{names: common.NewBiMap[string, string]()}
}

// Save records override as the effective name of logical and returns the
// effective name. An empty override leaves logical unmapped.
func (r *Resolver) Save(logical, override string) string {
	if override == "" {
		return logical
	}

	r.names.Put(logical, override)

	return override
}

// ToEffective returns the effective name for logical.
func (r *Resolver) ToEffective(logical string) string {
	if v, ok := r.names.Value(logical); ok {
		return v
	}

	return logical
}

// ToLogical returns the logical name for effective.
func (r *Resolver) ToLogical(effective string) string {
	if k, ok := r.names.Key(effective); ok {
		return k
	}

	return effective
}
