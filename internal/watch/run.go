package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/lenses/internal/figure"
)

// DefaultInterval is the poll period when RunOptions leaves it zero.
const DefaultInterval = time.Second

const debounceDelay = 100 * time.Millisecond

// RunOptions configures the tick loop.
type RunOptions struct {
	Interval time.Duration

	// Watch adds filesystem notifications as an early nudge between ticks.
	// The rebuild decision is still keyed on the modification time.
	Watch bool
}

// Run ticks p until ctx is cancelled, passing every new figure to publish.
// Run is the only goroutine that touches p.
func Run(ctx context.Context, p *Poller, opts RunOptions, publish func(*figure.Figure)) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		events   <-chan fsnotify.Event
		errs     <-chan error
		debounce <-chan time.Time
	)
	if opts.Watch {
		watcher, err := newFileWatcher(p.Path())
		if err != nil {
			p.logger.Warn("file watching disabled, polling only", "path", p.Path(), "error", err)
		} else {
			defer func() { _ = watcher.Close() }()
			events, errs = watcher.Events, watcher.Errors
		}
	}

	target := absPath(p.Path())
	tick := func() {
		if u := p.Tick(ctx); u.Changed() {
			publish(u.Figure)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			tick()

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if absPath(event.Name) != target {
				continue
			}
			fileEvents.Inc()
			debounce = time.After(debounceDelay)

		case <-debounce:
			debounce = nil
			tick()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.logger.Error("watcher error", "error", err)
		}
	}
}

// newFileWatcher watches the directory holding path, so atomic replaces
// by editors are seen.
func newFileWatcher(path string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(absPath(path))); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
