// Package watch polls a DOT file and rebuilds its figure when the file's
// modification time changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/leapstack-labs/lenses/internal/figure"
)

// StatFunc returns the modification time of path.
type StatFunc func(path string) (time.Time, error)

// BuildFunc rebuilds the figure for path.
type BuildFunc func(ctx context.Context, path string) (*figure.Figure, error)

// Config configures a Poller.
type Config struct {
	Path   string
	Title  string
	Logger *slog.Logger

	// PlaceholderOnError starts with an empty figure instead of failing
	// when the file cannot be read at startup.
	PlaceholderOnError bool

	// Stat and Build default to the filesystem and figure.BuildFromFile.
	Stat  StatFunc
	Build BuildFunc
}

// Update is the outcome of a tick. Figure is nil when nothing changed.
type Update struct {
	Figure  *figure.Figure
	ModTime time.Time
}

// Changed reports whether the tick produced a new figure.
func (u Update) Changed() bool {
	return u.Figure != nil
}

// Poller remembers the last observed modification time of one file.
// It is not safe for concurrent use; Run owns it from a single goroutine.
type Poller struct {
	path    string
	modTime time.Time
	initial *figure.Figure
	stat    StatFunc
	build   BuildFunc
	logger  *slog.Logger
}

// NewPoller records the file's current modification time and builds the
// first figure.
func NewPoller(ctx context.Context, cfg Config) (*Poller, error) {
	p := &Poller{
		path:   cfg.Path,
		stat:   cfg.Stat,
		build:  cfg.Build,
		logger: cfg.Logger,
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.stat == nil {
		p.stat = statModTime
	}
	opts := figure.Options{Title: cfg.Title}
	if p.build == nil {
		p.build = func(ctx context.Context, path string) (*figure.Figure, error) {
			return figure.BuildFromFile(ctx, path, opts)
		}
	}

	modTime, err := p.stat(p.path)
	if err == nil {
		var fig *figure.Figure
		fig, err = p.build(ctx, p.path)
		if err == nil {
			p.modTime = modTime
			p.initial = fig
			return p, nil
		}
	}

	if !cfg.PlaceholderOnError {
		return nil, fmt.Errorf("failed to build initial figure from %s: %w", p.path, err)
	}
	p.logger.Warn("starting with placeholder figure", "path", p.path, "error", err)
	p.initial = figure.Placeholder(opts)
	return p, nil
}

// Figure returns the figure built at startup.
func (p *Poller) Figure() *figure.Figure {
	return p.initial
}

// ModTime returns the last observed modification time.
func (p *Poller) ModTime() time.Time {
	return p.modTime
}

// Path returns the watched file.
func (p *Poller) Path() string {
	return p.path
}

// Tick stats the file and rebuilds the figure if its modification time
// differs from the stored one. Errors are logged and yield no update.
// The stored time advances before the rebuild, so a file that fails to
// parse is retried only after it is modified again.
func (p *Poller) Tick(ctx context.Context) Update {
	modTime, err := p.stat(p.path)
	if err != nil {
		ticksTotal.WithLabelValues(resultStatError).Inc()
		if errors.Is(err, fs.ErrNotExist) {
			p.logger.Warn("graph file not found", "path", p.path)
		} else {
			p.logger.Error("failed to stat graph file", "path", p.path, "error", err)
		}
		return Update{}
	}

	if modTime.Equal(p.modTime) {
		ticksTotal.WithLabelValues(resultUnchanged).Inc()
		return Update{ModTime: modTime}
	}
	p.modTime = modTime

	start := time.Now()
	fig, err := p.build(ctx, p.path)
	rebuildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		ticksTotal.WithLabelValues(resultBuildError).Inc()
		p.logger.Error("failed to rebuild figure", "path", p.path, "error", err)
		return Update{ModTime: modTime}
	}

	ticksTotal.WithLabelValues(resultRebuilt).Inc()
	p.logger.Debug("figure rebuilt", "path", p.path, "mod_time", modTime, "duration", time.Since(start))
	return Update{Figure: fig, ModTime: modTime}
}

func statModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
