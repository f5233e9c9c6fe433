package convert

import (
	"context"
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetgraph/internal/expand"
	"sheetgraph/internal/graph"
	"sheetgraph/internal/mapping"
	"sheetgraph/internal/model"
	"sheetgraph/internal/persist"
	"sheetgraph/internal/record"
	"sheetgraph/internal/source"
	"sheetgraph/internal/store"
)

const blogMapping = `
namespace: blog
spreadsheets:
  - title: Blog
    worksheets:
      - title: Posts
        key: title
        attributes:
          - title
          - name: body
            markdown: true
        calls:
          - name: colour
            methods: meta.colour
          - name: keywords
            methods: [keywords]
            builder: multi
        associations:
          - name: author
            singular: true
            required: true
          - name: tag
            builder: multi
            optional: true
          - name: category
            builder: use_attributes
            attribute_names: [news, tech]
      - title: Authors
        key: name
        key_to: slug
        attributes: [name, bio]
      - title: Tags
        key: name
        attributes: [name]
      - title: Categories
        key: name
        attributes: [name]
      - title: Comments
        key:
          builder: join
          from: [post, number]
        attributes: [text]
        associations:
          - name: post
            inverse: true
`

func sheet(title string, rows ...[]string) source.Sheet {
	return source.Sheet{Title: title, Rows: rows}
}

func blogRows() *source.Memory {
	return source.NewMemory(&source.Spreadsheet{
		Title: "Blog",
		Sheets: []source.Sheet{
			sheet("Authors",
				[]string{"Name", "Bio"},
				[]string{"Ann Lee", "writes"},
				[]string{"", ""},
				[]string{"Bo", ""},
			),
			sheet("Tags",
				[]string{"Name"},
				[]string{"go"},
				[]string{"sql"},
			),
			sheet("Categories",
				[]string{"Name"},
				[]string{"News"},
				[]string{"Tech"},
			),
			sheet("Posts",
				[]string{"Title", "Body", "Author", "Tags", "News", "Tech", "Colour", "Keywords", "Complete"},
				[]string{"Hello", "*hi*", "Ann Lee", "go, sql", "yes", "no", "red", "a, b", "yes"},
				[]string{"Draft", "", "Bo", "", "", "", "", "", "no"},
				[]string{"Second", "", "bo", "", "n", "Y", "", "", ""},
			),
			sheet("Comments",
				[]string{"Post", "Number", "Text"},
				[]string{"Hello", "1", "first"},
				[]string{"Hello", "2", "second"},
			),
		},
	})
}

func newBlogLoader(t *testing.T, mappingYAML string, rows source.RowSource, sink persist.Sink) *Loader {
	t.Helper()

	mf, err := mapping.Parse([]byte(mappingYAML))
	require.NoError(t, err)

	var saver record.Saver
	if sink != nil {
		saver = sink
	}

	l, err := NewLoader(Config{
		Mapping:    mf,
		Rows:       rows,
		Registry:   NewDocumentRegistry(mf, saver),
		Transactor: sink,
	})
	require.NoError(t, err)

	return l
}

func get(t *testing.T, st *store.ModelStore, typeName, key string) *record.Document {
	t.Helper()

	rec, err := st.Get(typeName, key)
	require.NoError(t, err)

	d, ok := rec.(*record.Document)
	require.True(t, ok)

	return d
}

func TestLoader_Order(t *testing.T) {
	l := newBlogLoader(t, blogMapping, blogRows(), nil)

	ordered, err := l.Order()
	require.NoError(t, err)

	titles := make([]string, len(ordered))
	for i, s := range ordered {
		titles[i] = s.Title
	}

	assert.Equal(t, []string{"Authors", "Tags", "Categories", "Posts", "Comments"}, titles)
}

func TestLoader_Convert(t *testing.T) {
	l := newBlogLoader(t, blogMapping, blogRows(), nil)

	res, err := l.Convert(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, res.Converted, spew.Sdump(res.Sheets))
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 10, res.Store.Len())

	ann := get(t, res.Store, "Author", "ann_lee")
	assert.Equal(t, "ann_lee", ann.ID())

	slug, _ := ann.Get("slug")
	assert.Equal(t, "ann_lee", slug)

	bio, _ := get(t, res.Store, "Author", "bo").Get("bio")
	assert.Nil(t, bio)

	hello := get(t, res.Store, "Post", "hello")

	author, ok := hello.Singular("author")
	require.True(t, ok)
	assert.Same(t, ann, author)

	tags := hello.Items("tags")
	require.Len(t, tags, 2)
	assert.Same(t, get(t, res.Store, "Tag", "go"), tags[0])
	assert.Same(t, get(t, res.Store, "Tag", "sql"), tags[1])

	categories := hello.Items("categories")
	require.Len(t, categories, 1)
	assert.Equal(t, "Category", categories[0].Type())

	body, _ := hello.Get("body")
	assert.Contains(t, body, "<em>hi</em>")

	meta, _ := hello.Get("meta")
	assert.Equal(t, record.Attributes{"colour": "red"}, meta)

	keywords, _ := hello.Get("keywords")
	assert.Equal(t, []string{"a", "b"}, keywords)

	_, err = res.Store.Get("Post", "draft")
	require.ErrorIs(t, err, store.ErrNoModelWithKey)

	second := get(t, res.Store, "Post", "second")
	assert.Empty(t, second.Items("tags"))
	require.Len(t, second.Items("categories"), 1)
	assert.Same(t, get(t, res.Store, "Category", "tech"), second.Items("categories")[0])

	comments := hello.Items("comments")
	require.Len(t, comments, 2)
	assert.Same(t, get(t, res.Store, "Comment", "hello_1"), comments[0])
}

func TestLoader_ConvertMatchesDefinitions(t *testing.T) {
	l := newBlogLoader(t, blogMapping, blogRows(), nil)

	res, err := l.Convert(context.Background())
	require.NoError(t, err)

	ss, err := blogRows().Spreadsheet(context.Background(), "Blog")
	require.NoError(t, err)

	authors, err := ss.Sheet("Authors")
	require.NoError(t, err)

	src := l.cfg.Mapping.Spreadsheets[0].Worksheets[1]
	require.Equal(t, "Authors", src.Title)

	for _, row := range authors.DataRows() {
		def := model.New(&src, authors.Header(), row, nil)

		key, err := def.Key()
		require.NoError(t, err)

		want, err := def.Attributes(context.Background())
		require.NoError(t, err)

		assert.Equal(t, want, get(t, res.Store, "Author", key).Attributes(), key)
	}
}

func TestLoader_LoadCommitsEveryRecord(t *testing.T) {
	sink := persist.NewMemorySink()
	l := newBlogLoader(t, blogMapping, blogRows(), sink)

	res, err := l.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, res.Committed)

	snaps := sink.Snapshots()
	require.Len(t, snaps, 10)

	// Commit follows insertion order, which follows conversion order.
	assert.Equal(t, "Author", snaps[0].Type)
	assert.Equal(t, "Comment", snaps[len(snaps)-1].Type)
}

func TestLoader_FailureCommitsNothing(t *testing.T) {
	rows := blogRows()
	ss, err := rows.Spreadsheet(context.Background(), "Blog")
	require.NoError(t, err)

	// A post pointing at an unknown author.
	ss.Sheets[3].Rows = append(ss.Sheets[3].Rows,
		[]string{"Orphan", "", "Nobody", "", "", "", "", "", ""})

	sink := persist.NewMemorySink()
	l := newBlogLoader(t, blogMapping, rows, sink)

	_, err = l.Load(context.Background())
	require.ErrorIs(t, err, store.ErrNoModelWithKey)

	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, "Posts", rowErr.Source)
	assert.Equal(t, 5, rowErr.Row)
	assert.Equal(t, "orphan", rowErr.Key)

	assert.Empty(t, sink.Snapshots())
}

type failingSaver struct {
	*persist.MemorySink
	after int
	saved int
}

var errDiskFull = errors.New("disk full")

func (f *failingSaver) Save(ctx context.Context, snap record.Snapshot) error {
	if f.saved == f.after {
		return errDiskFull
	}

	f.saved++

	return f.MemorySink.Save(ctx, snap)
}

func TestLoader_CommitFailureRollsBack(t *testing.T) {
	sink := &failingSaver{MemorySink: persist.NewMemorySink(), after: 3}
	l := newBlogLoader(t, blogMapping, blogRows(), sink)

	_, err := l.Load(context.Background())
	require.ErrorIs(t, err, errDiskFull)

	assert.Empty(t, sink.Snapshots())
}

func TestLoader_MissingRequiredAssociation(t *testing.T) {
	rows := blogRows()
	ss, err := rows.Spreadsheet(context.Background(), "Blog")
	require.NoError(t, err)

	ss.Sheets[3].Rows = append(ss.Sheets[3].Rows,
		[]string{"Anonymous", "", "", "", "", "", "", "", ""})

	l := newBlogLoader(t, blogMapping, rows, nil)

	_, err = l.Convert(context.Background())
	require.ErrorIs(t, err, ErrMissingAssociation)
}

func TestLoader_MissingMultiValue(t *testing.T) {
	const m = `
spreadsheets:
  - title: S
    worksheets:
      - title: Tags
        key: name
      - title: Posts
        key: title
        associations:
          - name: tag
            builder: multi
`
	rows := source.NewMemory(&source.Spreadsheet{Title: "S", Sheets: []source.Sheet{
		sheet("Tags", []string{"Name"}, []string{"go"}),
		sheet("Posts", []string{"Title", "Tags"}, []string{"Hello", " "}),
	}})

	_, err := newBlogLoader(t, m, rows, nil).Convert(context.Background())
	require.ErrorIs(t, err, ErrMissingAssociation)
}

func TestLoader_Polymorphic(t *testing.T) {
	const m = `
spreadsheets:
  - title: S
    worksheets:
      - title: Posts
        key: title
      - title: Videos
        key: title
      - title: Likes
        key: id
        associations:
          - name: [post, video]
            singular: true
            polymorphic:
              association_field: target
`
	rows := source.NewMemory(&source.Spreadsheet{Title: "S", Sheets: []source.Sheet{
		sheet("Posts", []string{"Title"}, []string{"Hello"}),
		sheet("Videos", []string{"Title"}, []string{"Clip"}),
		sheet("Likes",
			[]string{"Id", "Type", "Target"},
			[]string{"1", "Post", "Hello"},
			[]string{"2", "video", "clip"},
		),
	}})

	res, err := newBlogLoader(t, m, rows, nil).Convert(context.Background())
	require.NoError(t, err)

	post, ok := get(t, res.Store, "Like", "1").Singular("post")
	require.True(t, ok)
	assert.Same(t, get(t, res.Store, "Post", "hello"), post)

	video, ok := get(t, res.Store, "Like", "2").Singular("video")
	require.True(t, ok)
	assert.Same(t, get(t, res.Store, "Video", "clip"), video)

	rows.Put(&source.Spreadsheet{Title: "S", Sheets: []source.Sheet{
		sheet("Posts", []string{"Title"}, []string{"Hello"}),
		sheet("Videos", []string{"Title"}, []string{"Clip"}),
		sheet("Likes", []string{"Id", "Type", "Target"}, []string{"1", "Podcast", "Hello"}),
	}})

	_, err = newBlogLoader(t, m, rows, nil).Convert(context.Background())
	require.ErrorIs(t, err, ErrPolymorphicAssociation)
}

func TestLoader_InverseSingular(t *testing.T) {
	const m = `
spreadsheets:
  - title: S
    worksheets:
      - title: Profiles
        key: handle
        associations:
          - name: author
            singular: true
            inverse: true
      - title: Authors
        key: name
`
	rows := source.NewMemory(&source.Spreadsheet{Title: "S", Sheets: []source.Sheet{
		sheet("Profiles", []string{"Handle", "Author"}, []string{"@ann", "Ann"}),
		sheet("Authors", []string{"Name"}, []string{"Ann"}),
	}})

	l := newBlogLoader(t, m, rows, nil)

	ordered, err := l.Order()
	require.NoError(t, err)
	assert.Equal(t, "Authors", ordered[0].Title)

	res, err := l.Convert(context.Background())
	require.NoError(t, err)

	profile, ok := get(t, res.Store, "Author", "ann").Singular("profile")
	require.True(t, ok)
	assert.Same(t, get(t, res.Store, "Profile", "ann"), profile)
}

func TestLoader_Through(t *testing.T) {
	const m = `
spreadsheets:
  - title: S
    worksheets:
      - title: Tags
        key: name
      - title: Posts
        key: title
        associations:
          - name: tag
            builder: multi
            through:
              class: Tagging
              attributes:
                weight: 1
`
	rows := source.NewMemory(&source.Spreadsheet{Title: "S", Sheets: []source.Sheet{
		sheet("Tags", []string{"Name"}, []string{"go"}, []string{"sql"}),
		sheet("Posts", []string{"Title", "Tags"}, []string{"Hello", "go, sql"}),
	}})

	res, err := newBlogLoader(t, m, rows, nil).Convert(context.Background())
	require.NoError(t, err)

	post := get(t, res.Store, "Post", "hello")
	assert.Empty(t, post.Items("tags"))

	var joins []*record.Document
	for e := range res.Store.All() {
		if e.Type == "Tagging" {
			joins = append(joins, e.Record.(*record.Document))
		}
	}

	require.Len(t, joins, 2)

	owner, _ := joins[0].Get("post")
	assert.Same(t, post, owner)

	tag, _ := joins[1].Get("tag")
	assert.Same(t, get(t, res.Store, "Tag", "sql"), tag)

	weight, _ := joins[0].Get("weight")
	assert.Equal(t, 1, weight)

	// Keys are stable across loads.
	again, err := newBlogLoader(t, m, rows, nil).Convert(context.Background())
	require.NoError(t, err)

	var againIDs []string
	for e := range again.Store.All() {
		if e.Type == "Tagging" {
			againIDs = append(againIDs, e.Record.(*record.Document).ID())
		}
	}

	assert.Equal(t, []string{joins[0].ID(), joins[1].ID()}, againIDs)
}

func TestLoader_DuplicateThroughPair(t *testing.T) {
	const m = `
spreadsheets:
  - title: S
    worksheets:
      - title: Tags
        key: name
      - title: Posts
        key: title
        associations:
          - name: tag
            builder: multi
            through:
              class: Tagging
`
	rows := source.NewMemory(&source.Spreadsheet{Title: "S", Sheets: []source.Sheet{
		sheet("Tags", []string{"Name"}, []string{"go"}),
		sheet("Posts", []string{"Title", "Tags"}, []string{"Hello", "go, Go"}),
	}})

	_, err := newBlogLoader(t, m, rows, nil).Convert(context.Background())
	require.ErrorIs(t, err, store.ErrModelAddedTwice)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mapping string
		rows    *source.Memory
		wantErr error
	}{
		{
			name: "cycle",
			mapping: `
spreadsheets:
  - title: S
    worksheets:
      - title: As
        key: id
        associations: [{name: b}]
      - title: Bs
        key: id
        associations: [{name: a}]
`,
			rows:    source.NewMemory(),
			wantErr: graph.ErrCycle,
		},
		{
			name: "unknown association target",
			mapping: `
spreadsheets:
  - title: S
    worksheets:
      - title: As
        key: id
        associations: [{name: nothing}]
`,
			rows:    source.NewMemory(),
			wantErr: mapping.ErrValidation,
		},
		{
			name: "missing spreadsheet",
			mapping: `
spreadsheets:
  - title: S
    worksheets:
      - title: As
        key: id
`,
			rows:    source.NewMemory(),
			wantErr: source.ErrSpreadsheetNotFound,
		},
		{
			name: "blank key",
			mapping: `
spreadsheets:
  - title: S
    worksheets:
      - title: As
        key: id
`,
			rows: source.NewMemory(&source.Spreadsheet{Title: "S", Sheets: []source.Sheet{
				sheet("As", []string{"Id", "Name"}, []string{"", "x"}),
			}}),
			wantErr: model.ErrNoFieldName,
		},
		{
			name: "unknown token",
			mapping: `
spreadsheets:
  - title: S
    worksheets:
      - title: As
        key: id
        attributes: [body]
`,
			rows: source.NewMemory(&source.Spreadsheet{Title: "S", Sheets: []source.Sheet{
				sheet("As", []string{"Id", "Body"}, []string{"a", "{{expand_nothing}}"}),
			}}),
			wantErr: expand.ErrTokenExpansion,
		},
		{
			name: "duplicate key",
			mapping: `
spreadsheets:
  - title: S
    worksheets:
      - title: As
        key: id
`,
			rows: source.NewMemory(&source.Spreadsheet{Title: "S", Sheets: []source.Sheet{
				sheet("As", []string{"Id"}, []string{"A b"}, []string{"a_B"}),
			}}),
			wantErr: store.ErrModelAddedTwice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newBlogLoader(t, tt.mapping, tt.rows, nil).Convert(context.Background())
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newBlogLoader(t, blogMapping, blogRows(), nil).Convert(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewLoader_RequiresRegistry(t *testing.T) {
	mf, err := mapping.Parse([]byte(blogMapping))
	require.NoError(t, err)

	_, err = NewLoader(Config{Mapping: mf})
	require.ErrorIs(t, err, ErrNoRegistry)
}
