// Package graph orders sources so that every association target is fully
// converted before any source that looks records up in it.
package graph

import (
	"errors"
	"fmt"
	"strings"

	"sheetgraph/internal/mapping"
	"sheetgraph/internal/naming"
)

var (
	// ErrCycle is returned when sources depend on each other in a loop.
	ErrCycle = errors.New("dependency cycle")
	// ErrMissingAssociation is returned when an association targets a type
	// no source builds.
	ErrMissingAssociation = errors.New("missing association target")
)

// EdgeKind tells how the dependent source uses its dependency.
type EdgeKind int

const (
	// EdgeLookup: the source looks up target records and attaches them to
	// its own records.
	EdgeLookup EdgeKind = iota
	// EdgeInverse: the source looks up target records and attaches its own
	// records to them.
	EdgeInverse
)

// String returns the edge kind name.
func (k EdgeKind) String() string {
	if k == EdgeInverse {
		return "inverse"
	}

	return "lookup"
}

// Edge says that From must be converted after To.
type Edge struct {
	From int
	To   int
	Kind EdgeKind
	// Association is the first name of the association that created the edge.
	Association string
}

// Graph is the dependency graph of a set of sources.
type Graph struct {
	Sources []*mapping.SourceMapping
	// Types holds the effective record type of each source.
	Types []string
	Edges []Edge

	deps [][]int
}

// Build creates the dependency graph. resolver must already hold every
// source's type override.
func Build(sources []*mapping.SourceMapping, resolver *naming.Resolver) (*Graph, error) {
	g := &Graph{
		Sources: sources,
		Types:   make([]string, len(sources)),
		deps:    make([][]int, len(sources)),
	}

	byType := make(map[string]int, len(sources))

	for i, src := range sources {
		t := resolver.ToEffective(src.LogicalType())
		g.Types[i] = t
		byType[t] = i
	}

	for i, src := range sources {
		for k := range src.Associations {
			a := &src.Associations[k]

			for _, candidate := range a.CandidateTypes() {
				target := resolver.ToEffective(candidate)

				j, ok := byType[target]
				if !ok {
					return nil, fmt.Errorf("%w: %s association %q targets %q",
						ErrMissingAssociation, src.Title, a.Name.First(), target)
				}

				kind := EdgeLookup
				if a.Inverse {
					kind = EdgeInverse
				}

				g.Edges = append(g.Edges, Edge{From: i, To: j, Kind: kind, Association: a.Name.First()})
				g.deps[i] = append(g.deps[i], j)
			}
		}
	}

	return g, nil
}

// Order returns the sources in conversion order. Ties keep declaration order.
func (g *Graph) Order() ([]*mapping.SourceMapping, error) {
	idx, err := g.order()
	if err != nil {
		return nil, err
	}

	out := make([]*mapping.SourceMapping, len(idx))
	for i, n := range idx {
		out[i] = g.Sources[n]
	}

	return out, nil
}

func (g *Graph) order() ([]int, error) {
	for _, e := range g.Edges {
		if e.From == e.To {
			return nil, fmt.Errorf("%w: %s depends on itself", ErrCycle, g.Sources[e.From].Title)
		}
	}

	order, stuck, err := topoSort(len(g.Sources), func(i int) []int { return g.deps[i] })
	if err != nil {
		return nil, err
	}

	if len(stuck) > 0 {
		titles := make([]string, len(stuck))
		for i, n := range stuck {
			titles[i] = g.Sources[n].Title
		}

		return nil, fmt.Errorf("%w among: %s", ErrCycle, strings.Join(titles, ", "))
	}

	return order, nil
}

// Order builds the graph for sources and returns them in conversion order.
func Order(sources []*mapping.SourceMapping, resolver *naming.Resolver) ([]*mapping.SourceMapping, error) {
	g, err := Build(sources, resolver)
	if err != nil {
		return nil, err
	}

	return g.Order()
}
