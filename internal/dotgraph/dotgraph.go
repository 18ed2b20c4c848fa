// Package dotgraph reads Graphviz DOT files into a plain node and edge list.
package dotgraph

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gonum.org/v1/gonum/graph/formats/dot"
	"gonum.org/v1/gonum/graph/formats/dot/ast"
)

// Edge connects two node IDs.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the topology of a DOT graph. Attributes are dropped.
type Graph struct {
	Name     string
	Directed bool
	Strict   bool

	// Nodes holds unique node IDs in order of first appearance.
	Nodes []string

	// Edges holds edges in statement order. Parallel edges are kept unless
	// the graph is strict.
	Edges []Edge
}

// ErrNoGraph is returned when the input holds no graph statement.
var ErrNoGraph = errors.New("no graph found")

// ReadFile parses the first graph of a DOT file.
func ReadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return g, nil
}

// Parse parses the first graph in data.
func Parse(data []byte) (*Graph, error) {
	file, err := dot.ParseBytes(data)
	if err != nil {
		return nil, err
	}
	if len(file.Graphs) == 0 {
		return nil, ErrNoGraph
	}

	src := file.Graphs[0]
	b := &builder{
		g: &Graph{
			Name:     unquote(src.ID),
			Directed: src.Directed,
			Strict:   src.Strict,
		},
		seenNodes: make(map[string]bool),
		seenEdges: make(map[Edge]bool),
	}
	b.stmts(src.Stmts)
	return b.g, nil
}

type builder struct {
	g         *Graph
	seenNodes map[string]bool
	seenEdges map[Edge]bool
}

// stmts records the nodes and edges of stmts and returns the IDs of every
// node they mention, in order.
func (b *builder) stmts(stmts []ast.Stmt) []string {
	var mentioned []string
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.NodeStmt:
			id := unquote(s.Node.ID)
			b.node(id)
			mentioned = append(mentioned, id)
		case *ast.EdgeStmt:
			mentioned = append(mentioned, b.edgeStmt(s)...)
		case *ast.Subgraph:
			mentioned = append(mentioned, b.stmts(s.Stmts)...)
		}
	}
	return dedup(mentioned)
}

// edgeStmt expands an edge chain into consecutive pairs. Subgraph operands
// expand to the cross product of their nodes.
func (b *builder) edgeStmt(s *ast.EdgeStmt) []string {
	from := b.vertex(s.From)
	mentioned := append([]string(nil), from...)
	for e := s.To; e != nil; e = e.To {
		to := b.vertex(e.Vertex)
		for _, f := range from {
			for _, t := range to {
				b.edge(f, t)
			}
		}
		mentioned = append(mentioned, to...)
		from = to
	}
	return mentioned
}

func (b *builder) vertex(v ast.Vertex) []string {
	switch v := v.(type) {
	case *ast.Node:
		id := unquote(v.ID)
		b.node(id)
		return []string{id}
	case *ast.Subgraph:
		return b.stmts(v.Stmts)
	}
	return nil
}

func dedup(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (b *builder) node(id string) {
	if b.seenNodes[id] {
		return
	}
	b.seenNodes[id] = true
	b.g.Nodes = append(b.g.Nodes, id)
}

func (b *builder) edge(from, to string) {
	e := Edge{From: from, To: to}
	if b.g.Strict {
		key := e
		if !b.g.Directed && key.To < key.From {
			key = Edge{From: to, To: from}
		}
		if b.seenEdges[key] {
			return
		}
		b.seenEdges[key] = true
	}
	b.g.Edges = append(b.g.Edges, e)
}

var dotUnescaper = strings.NewReplacer("\\\n", "", `\\`, `\`, `\"`, `"`)

// unquote strips DOT string quoting. HTML-like IDs are returned as-is.
func unquote(id string) string {
	if len(id) >= 2 && strings.HasPrefix(id, `"`) && strings.HasSuffix(id, `"`) {
		return dotUnescaper.Replace(id[1 : len(id)-1])
	}
	return id
}
