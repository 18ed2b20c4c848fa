// Package ui serves the live graph viewer.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/lenses/internal/figure"
	"github.com/leapstack-labs/lenses/internal/ui/notifier"
	"github.com/leapstack-labs/lenses/internal/ui/router"
	"github.com/leapstack-labs/lenses/internal/watch"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Server is the viewer HTTP server plus the tick loop feeding it.
type Server struct {
	poller   *watch.Poller
	host     string
	port     int
	interval time.Duration
	watch    bool
	heading  string
	logger   *slog.Logger
	notifier *notifier.Notifier[*figure.Figure]
}

// Config holds configuration for the viewer server.
type Config struct {
	Poller   *watch.Poller
	Host     string
	Port     int
	Interval time.Duration
	Watch    bool
	Heading  string
	Logger   *slog.Logger
}

// NewServer creates a new viewer server. The poller's startup figure is the
// first figure served.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		poller:   cfg.Poller,
		host:     cfg.Host,
		port:     cfg.Port,
		interval: cfg.Interval,
		watch:    cfg.Watch,
		heading:  cfg.Heading,
		logger:   logger,
		notifier: notifier.New(cfg.Poller.Figure()),
	}
}

// Handler builds the HTTP handler with all routes and middleware.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Compress(5, "text/html", "text/css", "application/javascript", "application/json"),
	)

	if err := router.SetupRoutes(r, s.notifier, s.heading, s.logger); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Addr returns the configured listen address. Callers listen on it
// themselves and pass the listener to ServeListener.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.host, fmt.Sprint(s.port))
}

// ServeListener serves on ln and runs the tick loop until ctx is cancelled,
// then shuts the HTTP server down gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	handler, err := s.Handler()
	if err != nil {
		_ = ln.Close()
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting viewer", "addr", "http://"+ln.Addr().String(), "file", s.poller.Path(), "interval", s.interval)

	// Tick loop, sole owner of the poller
	eg.Go(func() error {
		return watch.Run(egctx, s.poller, watch.RunOptions{Interval: s.interval, Watch: s.watch}, s.publish)
	})

	// HTTP server
	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down viewer...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) publish(fig *figure.Figure) {
	s.notifier.Publish(fig)
	_, version := s.notifier.Latest()

	nodes := 0
	if nt := fig.NodeTrace(); nt != nil {
		nodes = len(nt.X)
	}
	s.logger.Info("figure updated", "version", version, "nodes", nodes, "edges", len(fig.EdgeTraces()))
}
