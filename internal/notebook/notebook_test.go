package notebook

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const musicNotebook = `title: Music
source:
  path: Music.csv
  delimiter: "~"
  relation: music
cells:
  - name: everything
    kind: scan
  - name: per genre
    kind: count
    column: genre
    alias: g
  - name: custom
    sql: SELECT count(*) AS n FROM music
`

func TestParse(t *testing.T) {
	nb, err := Parse([]byte(musicNotebook))
	require.NoError(t, err)

	assert.Equal(t, "Music", nb.Title)
	assert.Equal(t, "music", nb.Source.Name)
	assert.Equal(t, "~", nb.Source.Delimiter)
	assert.True(t, nb.Source.HasHeader())

	require.Len(t, nb.Cells, 3)
	assert.Equal(t, KindScan, nb.Cells[0].Kind)
	assert.Equal(t, KindCount, nb.Cells[1].Kind)
	assert.Equal(t, "genre", nb.Cells[1].Column)
	assert.Equal(t, KindSQL, nb.Cells[2].Kind, "kind defaults to sql when sql is set")
}

func TestParse_Defaults(t *testing.T) {
	nb, err := Parse([]byte("source: {path: data.csv}\ncells:\n  - {}\n"))
	require.NoError(t, err)

	assert.Equal(t, "data", nb.Source.Name)
	assert.Equal(t, ",", nb.Source.Delimiter)
	assert.Equal(t, "cell 1", nb.Cells[0].Name)
	assert.Equal(t, KindScan, nb.Cells[0].Kind)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "empty", input: "", wantErr: "empty"},
		{name: "not yaml", input: "title: [", wantErr: "invalid YAML"},
		{name: "unknown key", input: "title: x\nsorce: {path: a.csv}\ncells: [{kind: scan}]\n", wantErr: "invalid YAML"},
		{name: "no cells", input: "source: {path: a.csv}\n", wantErr: "no cells"},
		{name: "no source path", input: "cells: [{kind: scan}]\n", wantErr: "path is required"},
		{name: "bad delimiter", input: "source: {path: a.csv, delimiter: '::'}\ncells: [{kind: scan}]\n", wantErr: "single character"},
		{name: "count without column", input: "source: {path: a.csv}\ncells: [{kind: count}]\n", wantErr: "need a column"},
		{name: "sql kind without sql", input: "source: {path: a.csv}\ncells: [{kind: sql}]\n", wantErr: "need sql"},
		{name: "unknown kind", input: "source: {path: a.csv}\ncells: [{kind: pivot}]\n", wantErr: `unknown kind "pivot"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "expected *ParseError, got %T", err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	content := musicNotebook + `  - name: other file
    kind: scan
    source: {path: sub/other.csv, relation: other}
  - name: remote
    kind: scan
    source: {path: "s3://bucket/x.csv", relation: remote}
`
	path := filepath.Join(dir, "music"+Extension)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	nb, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, nb.Path)
	assert.Equal(t, filepath.Join(dir, "Music.csv"), nb.Source.Path)
	assert.Equal(t, filepath.Join(dir, "sub", "other.csv"), nb.Cells[3].Source.Path)
	assert.Equal(t, "s3://bucket/x.csv", nb.Cells[4].Source.Path)
	assert.Equal(t, "other", nb.Relation(nb.Cells[3]))
	assert.Equal(t, "music", nb.Relation(nb.Cells[0]))
}

func TestLoad_ParseErrorNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad"+Extension)
	require.NoError(t, os.WriteFile(path, []byte("cells: []\n"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"+Extension))
	require.ErrorIs(t, err, os.ErrNotExist)
}
