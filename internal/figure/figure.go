// Package figure turns a parsed graph into a Plotly-compatible figure: one
// line trace per edge and one marker trace holding every node.
package figure

import (
	"context"

	"github.com/leapstack-labs/lenses/internal/dotgraph"
)

// DefaultTitle is the figure title when Options leaves it empty.
const DefaultTitle = "Interactive Graph from .dot File"

// Options controls figure presentation.
type Options struct {
	Title string
}

func (o Options) title() string {
	if o.Title == "" {
		return DefaultTitle
	}
	return o.Title
}

// Figure is the chart document sent to the browser.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is a single scatter series. A nil coordinate breaks the line.
type Trace struct {
	Type         string     `json:"type"`
	Mode         string     `json:"mode"`
	X            []*float64 `json:"x"`
	Y            []*float64 `json:"y"`
	Text         []string   `json:"text,omitempty"`
	TextPosition string     `json:"textposition,omitempty"`
	HoverInfo    string     `json:"hoverinfo,omitempty"`
	Line         *Line      `json:"line,omitempty"`
	Marker       *Marker    `json:"marker,omitempty"`
}

// Line styles a trace line or marker outline.
type Line struct {
	Width float64 `json:"width"`
	Color string  `json:"color,omitempty"`
}

// Marker styles node points.
type Marker struct {
	Size  int    `json:"size"`
	Color string `json:"color"`
	Line  *Line  `json:"line,omitempty"`
}

// Layout holds the figure-level settings.
type Layout struct {
	Title      Title  `json:"title"`
	ShowLegend bool   `json:"showlegend"`
	HoverMode  string `json:"hovermode"`
	Margin     Margin `json:"margin"`
	XAxis      Axis   `json:"xaxis"`
	YAxis      Axis   `json:"yaxis"`
}

// Title is the figure heading.
type Title struct {
	Text string `json:"text"`
	Font Font   `json:"font"`
}

// Font sets text size.
type Font struct {
	Size int `json:"size"`
}

// Margin is the plot margin in pixels.
type Margin struct {
	B int `json:"b"`
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
}

// Axis hides grid and zero lines.
type Axis struct {
	ShowGrid       bool `json:"showgrid"`
	ZeroLine       bool `json:"zeroline"`
	ShowTickLabels bool `json:"showticklabels"`
}

// Trace modes.
const (
	ModeLines       = "lines"
	ModeMarkersText = "markers+text"
)

// EdgeTraces returns the edge traces of f.
func (f *Figure) EdgeTraces() []Trace {
	var out []Trace
	for _, t := range f.Data {
		if t.Mode == ModeLines {
			out = append(out, t)
		}
	}
	return out
}

// NodeTrace returns the node trace of f, or nil if f has none.
func (f *Figure) NodeTrace() *Trace {
	for i := range f.Data {
		if f.Data[i].Mode == ModeMarkersText {
			return &f.Data[i]
		}
	}
	return nil
}

// FromGraph maps g and node positions to a figure. Nodes missing from pos
// are drawn at the origin.
func FromGraph(g *dotgraph.Graph, pos map[string]Point, opts Options) *Figure {
	fig := &Figure{
		Data:   make([]Trace, 0, len(g.Edges)+1),
		Layout: newLayout(opts.title()),
	}

	for _, e := range g.Edges {
		from, to := pos[e.From], pos[e.To]
		fig.Data = append(fig.Data, Trace{
			Type:      "scatter",
			Mode:      ModeLines,
			X:         []*float64{ptr(from.X), ptr(to.X), nil},
			Y:         []*float64{ptr(from.Y), ptr(to.Y), nil},
			HoverInfo: "none",
			Line:      &Line{Width: 1, Color: "#888"},
		})
	}

	nodes := Trace{
		Type:         "scatter",
		Mode:         ModeMarkersText,
		X:            make([]*float64, 0, len(g.Nodes)),
		Y:            make([]*float64, 0, len(g.Nodes)),
		Text:         make([]string, 0, len(g.Nodes)),
		TextPosition: "top center",
		HoverInfo:    "text",
		Marker: &Marker{
			Size:  20,
			Color: "skyblue",
			Line:  &Line{Width: 2},
		},
	}
	for _, id := range g.Nodes {
		p := pos[id]
		nodes.X = append(nodes.X, ptr(p.X))
		nodes.Y = append(nodes.Y, ptr(p.Y))
		nodes.Text = append(nodes.Text, id)
	}
	fig.Data = append(fig.Data, nodes)

	return fig
}

// Build lays out g and maps it to a figure.
func Build(g *dotgraph.Graph, opts Options) *Figure {
	return FromGraph(g, SpringLayout(g), opts)
}

// BuildFromFile reads, parses, lays out and maps the DOT file at path.
func BuildFromFile(ctx context.Context, path string, opts Options) (*Figure, error) {
	g, err := dotgraph.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Build(g, opts), nil
}

// Placeholder returns an empty, titled figure.
func Placeholder(opts Options) *Figure {
	return FromGraph(&dotgraph.Graph{}, nil, opts)
}

func newLayout(title string) Layout {
	axis := Axis{ShowGrid: false, ZeroLine: false, ShowTickLabels: false}
	return Layout{
		Title:      Title{Text: title, Font: Font{Size: 16}},
		ShowLegend: false,
		HoverMode:  "closest",
		Margin:     Margin{B: 20, L: 5, R: 5, T: 40},
		XAxis:      axis,
		YAxis:      axis,
	}
}

func ptr(v float64) *float64 {
	return &v
}
