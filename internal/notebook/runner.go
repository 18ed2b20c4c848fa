package notebook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/lenses/internal/relation"
	"github.com/leapstack-labs/lenses/pkg/adapter"
)

// CellResult is the outcome of one executed cell.
type CellResult struct {
	Index    int              `json:"index"`
	Name     string           `json:"name"`
	Kind     Kind             `json:"kind"`
	SQL      string           `json:"sql"`
	Result   *relation.Result `json:"result"`
	Duration time.Duration    `json:"duration_ns"`
}

// RunResult is the outcome of a complete notebook run.
type RunResult struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Path      string        `json:"path,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Cells     []CellResult  `json:"cells"`
}

// CellError wraps the failure of a cell. Cells after it did not run.
type CellError struct {
	Index int
	Name  string
	Err   error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("cell %d (%s): %v", e.Index+1, e.Name, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}

// Runner executes notebooks. Each Run opens a fresh engine session, so no
// state is shared between notebooks.
type Runner struct {
	// Engine configures the session; the path is ignored and an in-memory
	// database is always used.
	Engine adapter.Config
	Logger *slog.Logger

	// OnCell, if set, is called after each successful cell.
	OnCell func(CellResult)
}

// Run executes the cells of nb in order, stopping at the first failure.
// The partial RunResult is returned alongside a *CellError.
func (r *Runner) Run(ctx context.Context, nb *Notebook) (*RunResult, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	run := &RunResult{
		ID:        uuid.New().String(),
		Title:     nb.Title,
		Path:      nb.Path,
		StartedAt: time.Now(),
	}
	logger = logger.With("run_id", run.ID, "notebook", nb.Title)
	logger.Info("notebook run started", "cells", len(nb.Cells))

	engine := r.Engine
	engine.Path = ""
	session, err := relation.Open(ctx, relation.Options{Engine: engine, Logger: logger})
	if err != nil {
		return run, err
	}
	defer func() { _ = session.Close() }()

	if err := session.Load(ctx, nb.Source); err != nil {
		return run, fmt.Errorf("failed to load source: %w", err)
	}

	for i, cell := range nb.Cells {
		res, err := r.runCell(ctx, session, nb, i, cell)
		if err != nil {
			run.Duration = time.Since(run.StartedAt)
			logger.Error("cell failed", "cell", cell.Name, "error", err)
			return run, &CellError{Index: i, Name: cell.Name, Err: err}
		}
		run.Cells = append(run.Cells, res)
		if r.OnCell != nil {
			r.OnCell(res)
		}
	}

	run.Duration = time.Since(run.StartedAt)
	logger.Info("notebook run finished", "duration", run.Duration)
	return run, nil
}

func (r *Runner) runCell(ctx context.Context, s *relation.Session, nb *Notebook, i int, c Cell) (CellResult, error) {
	start := time.Now()
	out := CellResult{Index: i, Name: c.Name, Kind: c.Kind}

	if c.Source != nil {
		if err := s.Load(ctx, *c.Source); err != nil {
			return out, err
		}
	}

	rel := nb.Relation(c)
	switch c.Kind {
	case KindScan:
		out.SQL = relation.FullScanSQL(rel)
	case KindCount:
		out.SQL = relation.GroupCountSQL(rel, c.Column, c.Alias)
	default:
		out.SQL = c.SQL
	}

	res, err := s.Query(ctx, out.SQL)
	if err != nil {
		return out, err
	}
	out.Result = res
	out.Duration = time.Since(start)
	return out, nil
}
