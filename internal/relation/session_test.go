package relation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/lenses/internal/testutil"
	"github.com/leapstack-labs/lenses/pkg/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const musicCSV = `title~artist~genre
So What~Miles Davis~jazz
Paranoid Android~Radiohead~rock
Blue in Green~Miles Davis~jazz
Karma Police~Radiohead~rock
Naima~John Coltrane~jazz
`

func openSession(t *testing.T) *Session {
	t.Helper()
	s, err := Open(context.Background(), Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestSession_ScanRowCountMatchesDataLines(t *testing.T) {
	tests := []struct {
		name      string
		delimiter string
		content   string
	}{
		{name: "tilde", delimiter: "~", content: musicCSV},
		{name: "comma", delimiter: ",", content: strings.ReplaceAll(musicCSV, "~", ",")},
		{name: "tab", delimiter: "\t", content: strings.ReplaceAll(musicCSV, "~", "\t")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := openSession(t)

			src := Source{Name: "music", Path: writeCSV(t, tt.content), Delimiter: tt.delimiter}
			require.NoError(t, s.Load(ctx, src))

			res, err := s.Scan(ctx, "music")
			require.NoError(t, err)

			dataLines := strings.Count(tt.content, "\n") - 1
			assert.Equal(t, dataLines, res.Len())
			assert.Equal(t, []string{"title", "artist", "genre"}, res.Columns)
		})
	}
}

func TestSession_CountByOrdersDescending(t *testing.T) {
	ctx := context.Background()
	s := openSession(t)
	require.NoError(t, s.Load(ctx, Source{Name: "music", Path: writeCSV(t, musicCSV), Delimiter: "~"}))

	res, err := s.CountBy(ctx, "music", "genre", "g")
	require.NoError(t, err)

	require.Equal(t, 2, res.Len())
	assert.Equal(t, "g", res.Columns[0])
	assert.Equal(t, "jazz", res.Rows[0][0])
	assert.EqualValues(t, 3, res.Rows[0][1])
	assert.Equal(t, "rock", res.Rows[1][0])
	assert.EqualValues(t, 2, res.Rows[1][1])
}

func TestSession_CountByAliasDefaultsToColumn(t *testing.T) {
	ctx := context.Background()
	s := openSession(t)
	require.NoError(t, s.Load(ctx, Source{Name: "music", Path: writeCSV(t, musicCSV), Delimiter: "~"}))

	res, err := s.CountBy(ctx, "music", "artist", "")
	require.NoError(t, err)
	assert.Equal(t, "artist", res.Columns[0])
	assert.Equal(t, 3, res.Len())
}

func TestSession_Errors(t *testing.T) {
	ctx := context.Background()
	s := openSession(t)

	t.Run("missing file names the path", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "missing.csv")
		err := s.Load(ctx, Source{Path: missing})
		require.Error(t, err)
		assert.Contains(t, err.Error(), missing)
	})

	t.Run("scan before load", func(t *testing.T) {
		_, err := s.Scan(ctx, "nothing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not loaded")
	})

	t.Run("count without column", func(t *testing.T) {
		require.NoError(t, s.Load(ctx, Source{Path: writeCSV(t, "a,b\n1,2\n")}))
		_, err := s.CountBy(ctx, DefaultName, "", "")
		require.Error(t, err)
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := s.CountBy(ctx, DefaultName, "nope", "")
		require.Error(t, err)
	})

	t.Run("bad sql", func(t *testing.T) {
		_, err := s.Query(ctx, "SELEC nonsense")
		require.Error(t, err)
	})
}

func TestSession_ReloadPicksUpChanges(t *testing.T) {
	ctx := context.Background()
	s := openSession(t)

	path := writeCSV(t, "n\n1\n2\n")
	require.NoError(t, s.Load(ctx, Source{Path: path}))

	require.NoError(t, os.WriteFile(path, []byte("n\n1\n2\n3\n4\n"), 0600))
	require.NoError(t, s.Reload(ctx))

	res, err := s.Scan(ctx, DefaultName)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Len())
}

func TestSession_DescribeAndSources(t *testing.T) {
	ctx := context.Background()
	s := openSession(t)
	require.NoError(t, s.Load(ctx, Source{Name: "music", Path: writeCSV(t, musicCSV), Delimiter: "~"}))

	meta, err := s.Describe(ctx, "music")
	require.NoError(t, err)
	assert.Equal(t, int64(5), meta.RowCount)
	require.Len(t, meta.Columns, 3)
	assert.Equal(t, "title", meta.Columns[0].Name)

	sources := s.Sources()
	require.Len(t, sources, 1)
	assert.Equal(t, "~", sources[0].Delimiter)
}

func TestOpen_UnknownEngine(t *testing.T) {
	_, err := Open(context.Background(), Options{Engine: adapter.Config{Type: "oracle"}})

	var unknown *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "oracle", unknown.Type)
	assert.Contains(t, unknown.Available, DefaultEngine)
}
