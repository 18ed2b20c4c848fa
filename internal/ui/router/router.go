// Package router sets up HTTP routes for the viewer server.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/lenses/internal/figure"
	graphFeature "github.com/leapstack-labs/lenses/internal/ui/features/graph"
	"github.com/leapstack-labs/lenses/internal/ui/notifier"
	"github.com/leapstack-labs/lenses/internal/ui/resources"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all routes for the viewer server.
func SetupRoutes(
	router chi.Router,
	notify *notifier.Notifier[*figure.Figure],
	heading string,
	logger *slog.Logger,
) error {
	// Static assets
	router.Handle("/static/*", resources.Handler())

	router.Handle("/metrics", promhttp.Handler())

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Feature routes
	return graphFeature.SetupRoutes(router, notify, heading, logger)
}
