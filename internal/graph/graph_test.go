package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetgraph/internal/mapping"
	"sheetgraph/internal/naming"
)

func src(title string, assocs ...mapping.AssociationMapping) *mapping.SourceMapping {
	return &mapping.SourceMapping{Title: title, Key: mapping.KeySpec{Field: "name"}, Associations: assocs}
}

func assoc(name string) mapping.AssociationMapping {
	return mapping.AssociationMapping{Name: mapping.StringOrArray{name}}
}

func titles(sources []*mapping.SourceMapping) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = s.Title
	}

	return out
}

func order(t *testing.T, sources ...*mapping.SourceMapping) []string {
	t.Helper()

	r := naming.NewResolver()
	for _, s := range sources {
		r.Save(s.LogicalType(), s.MapToClass)
	}

	got, err := Order(sources, r)
	require.NoError(t, err)

	return titles(got)
}

func TestOrder_InverseKeepsTargetFirst(t *testing.T) {
	inverse := assoc("B")
	inverse.Inverse = true

	// Declared in reverse to make sure ordering comes from the edges.
	got := order(t, src("C", inverse), src("B", assoc("A")), src("A"))

	if diff := cmp.Diff([]string{"A", "B", "C"}, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestOrder_DeclarationOrderBreaksTies(t *testing.T) {
	got := order(t, src("Posts", assoc("author")), src("Tags"), src("Authors"))
	assert.Equal(t, []string{"Tags", "Authors", "Posts"}, got)
}

func TestOrder_PolymorphicAddsEdgePerCandidate(t *testing.T) {
	poly := mapping.AssociationMapping{
		Name:        mapping.StringOrArray{"Photo", "Video"},
		Polymorphic: &mapping.Polymorphic{TypeField: "type", AssociationField: "ref"},
	}

	got := order(t, src("Comments", poly), src("Videos"), src("Photos"))
	assert.Equal(t, []string{"Videos", "Photos", "Comments"}, got)
}

func TestOrder_ResolvesOverrides(t *testing.T) {
	posts := src("Posts")
	posts.MapToClass = "Article"

	comments := src("Comments", assoc("post"))

	got := order(t, comments, posts)
	assert.Equal(t, []string{"Posts", "Comments"}, got)

	// An association may also name the overridden type directly.
	direct := assoc("x")
	direct.MapToClass = "Article"

	got = order(t, src("Likes", direct), posts)
	assert.Equal(t, []string{"Posts", "Likes"}, got)
}

func TestOrder_Cycle(t *testing.T) {
	r := naming.NewResolver()

	_, err := Order([]*mapping.SourceMapping{src("A", assoc("B")), src("B", assoc("A")), src("C")}, r)
	require.ErrorIs(t, err, ErrCycle)
	assert.Contains(t, err.Error(), "A, B")
	assert.NotContains(t, err.Error(), "C")
}

func TestOrder_SelfReferenceIsCycle(t *testing.T) {
	_, err := Order([]*mapping.SourceMapping{src("Categories", assoc("category"))}, naming.NewResolver())
	require.ErrorIs(t, err, ErrCycle)
}

func TestBuild_MissingTarget(t *testing.T) {
	_, err := Build([]*mapping.SourceMapping{src("Posts", assoc("author"))}, naming.NewResolver())
	require.ErrorIs(t, err, ErrMissingAssociation)
}

func TestBuild_Edges(t *testing.T) {
	inverse := assoc("A")
	inverse.Inverse = true

	g, err := Build([]*mapping.SourceMapping{src("A"), src("B", inverse)}, naming.NewResolver())
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, g.Types)
	assert.Equal(t, []Edge{{From: 1, To: 0, Kind: EdgeInverse, Association: "A"}}, g.Edges)
	assert.Equal(t, "inverse", g.Edges[0].Kind.String())
}

func TestTopoSort(t *testing.T) {
	order, stuck, err := topoSort(3, func(i int) []int {
		switch i {
		case 1:
			return []int{0}
		case 2:
			return []int{1}
		default:
			return nil
		}
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, order)
	assert.Empty(t, stuck)

	_, err = func() ([]int, error) {
		o, _, e := topoSort(1, func(int) []int { return []int{5} })
		return o, e
	}()
	require.Error(t, err)
}
