package watch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ticksTotal counts poll ticks by outcome.
	// Labels: result (unchanged, rebuilt, stat_error, build_error)
	ticksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lenses",
		Subsystem: "viewer",
		Name:      "ticks_total",
		Help:      "Total poll ticks by result",
	}, []string{"result"})

	// rebuildDuration measures parse + layout + mapping time.
	rebuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "lenses",
		Subsystem: "viewer",
		Name:      "rebuild_duration_seconds",
		Help:      "Figure rebuild latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	// fileEvents counts fsnotify events seen for the watched file.
	fileEvents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lenses",
		Subsystem: "viewer",
		Name:      "file_events_total",
		Help:      "Filesystem events observed for the watched file",
	})
)

// Tick results.
const (
	resultUnchanged  = "unchanged"
	resultRebuilt    = "rebuilt"
	resultStatError  = "stat_error"
	resultBuildError = "build_error"
)
