package expand

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetgraph/internal/source"
)

type echoProvider struct{ key string }

func (p echoProvider) Key() string { return p.key }

func (p echoProvider) Expand(_ context.Context, arg string) (string, error) {
	if arg == "boom" {
		return "", errors.New("boom")
	}

	return p.key + ":" + arg, nil
}

func TestExpander_Expand(t *testing.T) {
	e := New(echoProvider{key: "file"})

	tests := []struct {
		name     string
		token    string
		expected string
		wantErr  bool
	}{
		{"default context", "expand_file", "file:post_1", false},
		{"override", "expand_file[intro]", "file:intro", false},
		{"unknown key", "expand_video", "", true},
		{"provider error", "expand_file[boom]", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Expand(context.Background(), tt.token, "post_1")
			if tt.wantErr {
				require.ErrorIs(t, err, ErrTokenExpansion)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExpander_UnknownKeyNamesKeyAndContext(t *testing.T) {
	_, err := New().Expand(context.Background(), "expand_video[clip]", "row")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"video"`)
	assert.Contains(t, err.Error(), `"clip"`)
}

func TestPlaceholder(t *testing.T) {
	tok, ok := Placeholder("{{expand_file[bio]}}")
	require.True(t, ok)
	assert.Equal(t, "expand_file[bio]", tok)

	tok, ok = Placeholder("see {{expand_file}} here")
	require.True(t, ok)
	assert.Equal(t, "expand_file", tok)

	_, ok = Placeholder("plain text")
	assert.False(t, ok)
}

func TestFileProvider(t *testing.T) {
	p := NewFileProviderFS(fstest.MapFS{"intro.txt": {Data: []byte("Hello")}})

	got, err := p.Expand(context.Background(), "intro")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got)

	_, err = p.Expand(context.Background(), "missing")
	require.Error(t, err)
}

func TestSheetProvider(t *testing.T) {
	rows := source.NewMemory(&source.Spreadsheet{
		Title: "faq",
		Sheets: []source.Sheet{{
			Title: "Sheet1",
			Rows: [][]string{
				{"Question (short)", "Answer"},
				{"Why?", "Because"},
				{"", ""},
				{"How?"},
			},
		}},
	})

	got, err := NewSheetProvider(rows).Expand(context.Background(), "faq")
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"objects":[{"Question":"Why?","Answer":"Because"},{"Question":"How?","Answer":""}]}`,
		got)

	_, err = NewSheetProvider(rows).Expand(context.Background(), "missing")
	require.Error(t, err)
}

func TestSheetProvider_EmptySheet(t *testing.T) {
	rows := source.NewMemory(&source.Spreadsheet{
		Title:  "empty",
		Sheets: []source.Sheet{{Title: "Sheet1", Rows: [][]string{{"A"}}}},
	})

	got, err := NewSheetProvider(rows).Expand(context.Background(), "empty")
	require.NoError(t, err)
	assert.JSONEq(t, `{"objects":[]}`, got)
}
