package figure

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/lenses/internal/dotgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func abc() *dotgraph.Graph {
	return &dotgraph.Graph{
		Directed: true,
		Nodes:    []string{"A", "B", "C"},
		Edges:    []dotgraph.Edge{{From: "A", To: "B"}, {From: "B", To: "C"}},
	}
}

func TestFromGraph(t *testing.T) {
	pos := map[string]Point{"A": {0, 0}, "B": {1, 0}, "C": {1, 1}}
	fig := FromGraph(abc(), pos, Options{})

	edges := fig.EdgeTraces()
	require.Len(t, edges, 2)
	for _, e := range edges {
		require.Len(t, e.X, 3)
		require.Len(t, e.Y, 3)
		assert.Nil(t, e.X[2], "third coordinate is the gap sentinel")
		assert.Nil(t, e.Y[2])
	}
	assert.InDelta(t, 0, *edges[0].X[0], 1e-9)
	assert.InDelta(t, 1, *edges[0].X[1], 1e-9)
	assert.InDelta(t, 1, *edges[1].Y[1], 1e-9)

	nodes := fig.NodeTrace()
	require.NotNil(t, nodes)
	assert.Equal(t, []string{"A", "B", "C"}, nodes.Text)
	assert.Len(t, nodes.X, 3)
	assert.Len(t, nodes.Y, 3)
	assert.Equal(t, "skyblue", nodes.Marker.Color)

	assert.Equal(t, DefaultTitle, fig.Layout.Title.Text)
	assert.Equal(t, "closest", fig.Layout.HoverMode)
	assert.Equal(t, Margin{B: 20, L: 5, R: 5, T: 40}, fig.Layout.Margin)
}

func TestFromGraph_CountsMatchGraph(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges []dotgraph.Edge
	}{
		{name: "empty"},
		{name: "isolated", nodes: []string{"a", "b"}},
		{
			name:  "parallel and self edges",
			nodes: []string{"a", "b"},
			edges: []dotgraph.Edge{{From: "a", To: "b"}, {From: "a", To: "b"}, {From: "a", To: "a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &dotgraph.Graph{Nodes: tt.nodes, Edges: tt.edges}
			fig := Build(g, Options{Title: "t"})

			assert.Len(t, fig.EdgeTraces(), len(tt.edges))
			require.NotNil(t, fig.NodeTrace())
			assert.Len(t, fig.NodeTrace().X, len(tt.nodes))
			assert.Len(t, fig.Data, len(tt.edges)+1)
		})
	}
}

func TestFigureJSON(t *testing.T) {
	fig := FromGraph(abc(), map[string]Point{"A": {0, 0}, "B": {1, 0}, "C": {1, 1}}, Options{Title: "demo"})

	data, err := json.Marshal(fig)
	require.NoError(t, err)

	var doc struct {
		Data []struct {
			Mode string `json:"mode"`
			X    []any  `json:"x"`
		} `json:"data"`
		Layout struct {
			Title struct {
				Text string `json:"text"`
			} `json:"title"`
			ShowLegend *bool `json:"showlegend"`
		} `json:"layout"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	require.Len(t, doc.Data, 3)
	assert.Equal(t, "lines", doc.Data[0].Mode)
	assert.Nil(t, doc.Data[0].X[2], "gap sentinel serializes as null")
	assert.Equal(t, "markers+text", doc.Data[2].Mode)
	assert.Equal(t, "demo", doc.Layout.Title.Text)
	require.NotNil(t, doc.Layout.ShowLegend)
	assert.False(t, *doc.Layout.ShowLegend)
}

func TestPlaceholder(t *testing.T) {
	fig := Placeholder(Options{Title: "waiting"})

	assert.Empty(t, fig.EdgeTraces())
	require.NotNil(t, fig.NodeTrace())
	assert.Empty(t, fig.NodeTrace().X)
	assert.Equal(t, "waiting", fig.Layout.Title.Text)

	data, err := json.Marshal(fig)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"x":[]`, "empty node trace encodes arrays, not null")
}

func TestSpringLayout(t *testing.T) {
	g := abc()
	g.Edges = append(g.Edges, dotgraph.Edge{From: "C", To: "C"}, dotgraph.Edge{From: "B", To: "A"})

	pos := SpringLayout(g)
	require.Len(t, pos, 3)
	for id, p := range pos {
		assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y), "node %s has NaN position", id)
	}

	assert.Empty(t, SpringLayout(&dotgraph.Graph{}))
}

func TestBuildFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.dot")
	require.NoError(t, os.WriteFile(path, []byte("digraph { A -> B; B -> C }\n"), 0600))

	first, err := BuildFromFile(context.Background(), path, Options{})
	require.NoError(t, err)
	second, err := BuildFromFile(context.Background(), path, Options{})
	require.NoError(t, err)

	for _, fig := range []*Figure{first, second} {
		assert.Len(t, fig.EdgeTraces(), 2)
		assert.Equal(t, []string{"A", "B", "C"}, fig.NodeTrace().Text)
	}
}

func TestBuildFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := BuildFromFile(context.Background(), filepath.Join(dir, "missing.dot"), Options{})
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.dot")
	require.NoError(t, os.WriteFile(bad, []byte("digraph { A -> "), 0600))
	_, err = BuildFromFile(context.Background(), bad, Options{})
	require.Error(t, err)

	ok := filepath.Join(dir, "ok.dot")
	require.NoError(t, os.WriteFile(ok, []byte("digraph { A }"), 0600))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = BuildFromFile(ctx, ok, Options{})
	require.ErrorIs(t, err, context.Canceled)
}
