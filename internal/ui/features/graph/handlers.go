// Package graph serves the live graph viewer: the page, its SSE update
// stream and the current figure as JSON.
package graph

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/leapstack-labs/lenses/internal/figure"
	"github.com/leapstack-labs/lenses/internal/ui/features/graph/pages"
	"github.com/leapstack-labs/lenses/internal/ui/notifier"
	"github.com/starfederation/datastar-go/datastar"
)

// Handlers provides HTTP handlers for the graph feature.
type Handlers struct {
	notifier *notifier.Notifier[*figure.Figure]
	heading  string
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(notify *notifier.Notifier[*figure.Figure], heading string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		notifier: notify,
		heading:  heading,
		logger:   logger,
	}
}

// GraphPage renders the viewer with the current figure. The page opens the
// update stream with the version it was rendered from.
func (h *Handlers) GraphPage(w http.ResponseWriter, r *http.Request) {
	fig, version := h.notifier.Latest()

	data := pages.ViewerData{
		Heading:    h.heading,
		Figure:     fig,
		UpdatesURL: fmt.Sprintf("/graph/updates?v=%d", version),
	}
	if err := pages.ViewerPage(data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GraphUpdates is the long-lived SSE endpoint. It pushes a redraw for every
// published figure, plus one on connect if the page is already stale.
func (h *Handlers) GraphUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	seen, _ := strconv.ParseUint(r.URL.Query().Get("v"), 10, 64)
	if _, version := h.notifier.Latest(); seen != 0 && version != seen {
		seen = h.sendLatest(sse)
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if _, version := h.notifier.Latest(); version == seen {
				continue
			}
			seen = h.sendLatest(sse)
		}
	}
}

func (h *Handlers) sendLatest(sse *datastar.ServerSentEventGenerator) uint64 {
	fig, version := h.notifier.Latest()
	script, err := pages.RenderScript(fig)
	if err == nil {
		err = sse.ExecuteScript(script)
	}
	if err != nil {
		h.logger.Debug("failed to push figure", "error", err)
		_ = sse.ConsoleError(err)
	}
	return version
}

// FigureJSON returns the current figure.
func (h *Handlers) FigureJSON(w http.ResponseWriter, _ *http.Request) {
	fig, _ := h.notifier.Latest()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(fig); err != nil {
		h.logger.Debug("failed to write figure", "error", err)
	}
}
