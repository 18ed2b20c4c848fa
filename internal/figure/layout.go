package figure

import (
	"github.com/leapstack-labs/lenses/internal/dotgraph"
	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/graph/simple"
)

// Point is a 2D node position.
type Point struct {
	X, Y float64
}

// SpringLayout computes force-directed positions for every node of g.
// Edge direction, self-loops and parallel edges do not affect placement.
// Initial placement is random, so positions differ between calls.
func SpringLayout(g *dotgraph.Graph) map[string]Point {
	pos := make(map[string]Point, len(g.Nodes))
	if len(g.Nodes) == 0 {
		return pos
	}

	ids := make(map[string]int64, len(g.Nodes))
	ug := simple.NewUndirectedGraph()
	for i, name := range g.Nodes {
		ids[name] = int64(i)
		ug.AddNode(simple.Node(int64(i)))
	}
	for _, e := range g.Edges {
		from, okFrom := ids[e.From]
		to, okTo := ids[e.To]
		if !okFrom || !okTo || from == to || ug.HasEdgeBetween(from, to) {
			continue
		}
		ug.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}

	eades := layout.EadesR2{Repulsion: 1, Rate: 0.05, Updates: 30, Theta: 0.2}
	o := layout.NewOptimizerR2(ug, eades.Update)
	for o.Update() {
	}

	for name, id := range ids {
		v := o.Coord2(id)
		pos[name] = Point{X: v.X, Y: v.Y}
	}
	return pos
}
