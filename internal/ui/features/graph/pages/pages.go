// Package pages renders the live graph viewer page.
package pages

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/leapstack-labs/lenses/internal/figure"
	"github.com/leapstack-labs/lenses/internal/ui/resources"
)

// PageTitle is the browser tab title.
const PageTitle = "Live DOT Viewer (Interactive)"

// Heading is the default heading shown above the chart.
const Heading = "Interactive .dot Graph Viewer (Auto-Updating)"

// ChartID is the DOM id of the chart element.
const ChartID = "live-graph"

const (
	plotlyScript   = "https://cdn.plot.ly/plotly-2.35.2.min.js"
	datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"
)

// ViewerData holds everything the page needs.
type ViewerData struct {
	Heading    string
	Figure     *figure.Figure
	UpdatesURL string
}

// ViewerPage renders the full page with the initial figure embedded.
func ViewerPage(d ViewerData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<link rel="stylesheet" href="%s">
<script src="%s"></script>
<script type="module" src="%s"></script>
<script src="%s"></script>
</head>
<body>
<main class="viewer" data-init="@get('%s')">
<h1 class="viewer__heading">%s</h1>
<div id="%s" class="viewer__chart"></div>
</main>
`,
			templ.EscapeString(PageTitle),
			resources.StaticPath("viewer.css"),
			plotlyScript,
			datastarScript,
			resources.StaticPath("viewer.js"),
			templ.EscapeString(d.UpdatesURL),
			templ.EscapeString(d.Heading),
			ChartID,
		); err != nil {
			return err
		}

		if err := templ.JSONScript("initial-figure", d.Figure).Render(ctx, w); err != nil {
			return err
		}

		_, err := io.WriteString(w, "\n</body>\n</html>\n")
		return err
	})
}

// RenderScript returns the browser statement that redraws the chart with fig.
func RenderScript(fig *figure.Figure) (string, error) {
	data, err := json.Marshal(fig)
	if err != nil {
		return "", fmt.Errorf("failed to encode figure: %w", err)
	}
	return "window.lensesRender(" + string(data) + ")", nil
}
