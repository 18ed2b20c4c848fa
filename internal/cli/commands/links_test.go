package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitest "github.com/leapstack-labs/lenses/internal/cli/testutil"
	"github.com/leapstack-labs/lenses/internal/dotgraph"
)

func writeNotes(t *testing.T, dir string) string {
	t.Helper()
	notes := filepath.Join(dir, "notes")
	require.NoError(t, os.MkdirAll(filepath.Join(notes, "sub"), 0o755))
	files := map[string]string{
		"index.md":    "See [[ideas]] and [the sub note](sub/deep.md). Also [[index]].",
		"ideas.md":    "Back to [[index]], and [[index]] again.",
		"sub/deep.md": "Nothing here.",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(notes, name), []byte(content), 0o644))
	}
	return notes
}

func TestLinksCommand_WritesGraphs(t *testing.T) {
	dir := clitest.SetupTestProject(t)
	notes := writeNotes(t, dir)
	dotPath := filepath.Join(dir, "notes.dot")
	mmdPath := filepath.Join(dir, "notes.mmd")

	out, _, err := clitest.ExecuteCommand(t, NewLinksCommand(), notes, "--dot", dotPath, "--mermaid", mmdPath)
	require.NoError(t, err)
	assert.Contains(t, out, "- **Links:** 3")

	dot, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	assert.Equal(t, "digraph {\n  \"ideas\" -> \"index\"\n  \"index\" -> \"ideas\"\n  \"index\" -> \"sub/deep\"\n}\n", string(dot))

	mmd, err := os.ReadFile(mmdPath)
	require.NoError(t, err)
	assert.Equal(t, "graph LR\n  ideas --> index\n  index --> ideas\n  index --> sub_deep\n", string(mmd))

	// The DOT output is readable by the viewer's parser.
	g, err := dotgraph.ReadFile(dotPath)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 3)
	assert.Len(t, g.Edges, 3)
}

func TestLinksCommand_SkipMermaidAndJSON(t *testing.T) {
	dir := clitest.SetupTestProject(t)
	notes := writeNotes(t, dir)
	dotPath := filepath.Join(dir, "out.dot")

	out, _, err := clitest.ExecuteCommand(t, NewLinksCommand(), notes, "--dot", dotPath, "--mermaid", "", "-o", "json")
	require.NoError(t, err)

	var report struct {
		Mermaid string `json:"mermaid"`
		Links   []struct {
			Source string `json:"source"`
			Target string `json:"target"`
		} `json:"links"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Empty(t, report.Mermaid)
	require.Len(t, report.Links, 3)
	assert.Equal(t, "ideas", report.Links[0].Source)

	assert.FileExists(t, dotPath)
	assert.NoFileExists(t, filepath.Join(dir, "graph.mmd"))
}

func TestLinksCommand_NotADirectory(t *testing.T) {
	dir := clitest.SetupTestProject(t)

	_, _, err := clitest.ExecuteCommand(t, NewLinksCommand(), filepath.Join(dir, "Music.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")

	_, _, err = clitest.ExecuteCommand(t, NewLinksCommand(), filepath.Join(dir, "missing"))
	require.Error(t, err)
}
