package graph

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/lenses/internal/figure"
	"github.com/leapstack-labs/lenses/internal/ui/notifier"
)

// SetupRoutes registers the graph feature routes.
func SetupRoutes(
	router chi.Router,
	notify *notifier.Notifier[*figure.Figure],
	heading string,
	logger *slog.Logger,
) error {
	handlers := NewHandlers(notify, heading, logger)

	// Page route (full page render with the current figure)
	router.Get("/", handlers.GraphPage)
	router.Get("/graph", handlers.GraphPage)

	// SSE route (live updates only)
	router.Get("/graph/updates", handlers.GraphUpdates)

	router.Get("/graph/figure.json", handlers.FigureJSON)

	return nil
}
