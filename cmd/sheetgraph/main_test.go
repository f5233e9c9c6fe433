package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"sheetgraph/internal/config"
	"sheetgraph/internal/mapping"
	"sheetgraph/internal/persist"
)

const testMapping = `
spreadsheets:
  - title: Blog
    worksheets:
      - title: Posts
        key: title
        attributes: [title, body]
        associations:
          - name: author
            singular: true
      - title: Authors
        key: name
        attributes: [name]
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func fixture(t *testing.T) (string, config.Config) {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "mapping.yml"), testMapping)
	writeFile(t, filepath.Join(dir, "data", "Blog", "Authors.csv"), "Name\nAnn\n")
	writeFile(t, filepath.Join(dir, "data", "Blog", "Posts.csv"), "Title,Body,Author\nHello,{{expand_file}},Ann\n")
	writeFile(t, filepath.Join(dir, "text", "hello.txt"), "from a file")

	cfg := config.Default()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.TextDir = filepath.Join(dir, "text")

	return dir, cfg
}

func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := newRootCmd(cfg)
	root.SetOut(&out)
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

func TestCheck(t *testing.T) {
	dir, cfg := fixture(t)

	out, err := execute(t, &cfg, "check", "-m", filepath.Join(dir, "mapping.yml"))
	require.NoError(t, err)
	assert.Contains(t, out, "2 worksheets OK")
}

func TestCheck_Invalid(t *testing.T) {
	dir, cfg := fixture(t)
	writeFile(t, filepath.Join(dir, "bad.yml"), "spreadsheets:\n  - title: S\n    worksheets:\n      - title: Posts\n")

	out, err := execute(t, &cfg, "check", "-m", filepath.Join(dir, "bad.yml"))
	require.ErrorIs(t, err, mapping.ErrValidation)
	assert.Contains(t, out, "missing_key")
}

func TestOrder(t *testing.T) {
	dir, cfg := fixture(t)

	out, err := execute(t, &cfg, "order", "--mapping", filepath.Join(dir, "mapping.yml"))
	require.NoError(t, err)
	assert.Equal(t, "1\tBlog\tAuthors\n2\tBlog\tPosts\n", out)
}

func TestLoad_DryRun(t *testing.T) {
	dir, cfg := fixture(t)

	out, err := execute(t, &cfg, "load", "-m", filepath.Join(dir, "mapping.yml"), "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Posts\t1 converted\t0 skipped")
	assert.Contains(t, out, "2 records committed to memory")
}

func TestLoad_BSON(t *testing.T) {
	dir, cfg := fixture(t)
	output := filepath.Join(dir, "out.bson")

	_, err := execute(t, &cfg, "load", "-m", filepath.Join(dir, "mapping.yml"), "--sink", "bson", "-o", output)
	require.NoError(t, err)

	docs, err := persist.ReadBSONFile(output)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Post:hello", docs[1]["_id"])

	attrs, ok := docs[1]["attributes"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "from a file", attrs["body"])
}

func TestLoad_RequiresDSN(t *testing.T) {
	dir, cfg := fixture(t)

	_, err := execute(t, &cfg, "load", "-m", filepath.Join(dir, "mapping.yml"), "--sink", "postgres")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN")
}

func TestEnvFileFromArgs(t *testing.T) {
	file, explicit := envFileFromArgs([]string{"load", "-m", "x.yml", "--env-file", "prod.env"})
	assert.Equal(t, "prod.env", file)
	assert.True(t, explicit)

	file, explicit = envFileFromArgs([]string{"check"})
	assert.Equal(t, config.DefaultEnvFile, file)
	assert.False(t, explicit)
}
