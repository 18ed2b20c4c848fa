package relation

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/leapstack-labs/lenses/pkg/adapter"
	_ "github.com/leapstack-labs/lenses/pkg/adapters/duckdb" // registers the default engine
)

// DefaultEngine is the adapter type used when Options leaves it empty.
const DefaultEngine = "duckdb"

// Options configures a Session.
type Options struct {
	// Engine selects and configures the SQL engine. An empty path means an
	// in-memory database.
	Engine adapter.Config
	Logger *slog.Logger
}

// Session owns one engine connection and the relations loaded into it.
// A Session is not safe for concurrent use.
type Session struct {
	adp     adapter.Adapter
	sources map[string]Source
	logger  *slog.Logger
}

// Open connects a new engine session.
func Open(ctx context.Context, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	cfg := opts.Engine
	if cfg.Type == "" {
		cfg.Type = DefaultEngine
	}

	adp, err := adapter.NewAdapter(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := adp.Connect(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Type, err)
	}

	return NewSession(adp, logger), nil
}

// NewSession wraps an already connected adapter.
func NewSession(adp adapter.Adapter, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		adp:     adp,
		sources: make(map[string]Source),
		logger:  logger,
	}
}

// Load materializes src as a relation, replacing any relation of the same
// name. Missing files, wrong delimiters and malformed rows surface as the
// engine's error wrapped with the file path.
func (s *Session) Load(ctx context.Context, src Source) error {
	if err := src.Validate(); err != nil {
		return err
	}
	src = src.Normalize()

	opts := adapter.CSVOptions{Delimiter: src.Delimiter, Header: src.HasHeader()}
	if err := s.adp.LoadCSV(ctx, src.Name, src.Path, opts); err != nil {
		return err
	}

	s.sources[src.Name] = src
	s.logger.Debug("relation loaded", "relation", src.Name, "path", src.Path, "delimiter", src.Delimiter)
	return nil
}

// Reload re-reads every loaded relation from disk.
func (s *Session) Reload(ctx context.Context) error {
	for _, name := range slices.Sorted(maps.Keys(s.sources)) {
		if err := s.Load(ctx, s.sources[name]); err != nil {
			return err
		}
	}
	return nil
}

// Sources returns the loaded relations ordered by name.
func (s *Session) Sources() []Source {
	out := make([]Source, 0, len(s.sources))
	for _, name := range slices.Sorted(maps.Keys(s.sources)) {
		out = append(out, s.sources[name])
	}
	return out
}

// Scan returns every row of a loaded relation.
func (s *Session) Scan(ctx context.Context, relation string) (*Result, error) {
	if err := s.requireLoaded(relation); err != nil {
		return nil, err
	}
	return s.Query(ctx, FullScanSQL(relation))
}

// CountBy returns per-value row counts of column, highest count first.
func (s *Session) CountBy(ctx context.Context, relation, column, alias string) (*Result, error) {
	if err := s.requireLoaded(relation); err != nil {
		return nil, err
	}
	if column == "" {
		return nil, fmt.Errorf("count on %s: column is required", relation)
	}
	return s.Query(ctx, GroupCountSQL(relation, column, alias))
}

// Query runs arbitrary SQL and materializes the result.
func (s *Session) Query(ctx context.Context, sqlStr string) (*Result, error) {
	rows, err := s.adp.Query(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return Collect(rows.Rows)
}

// Describe returns the columns and row count of a loaded relation.
func (s *Session) Describe(ctx context.Context, relation string) (*adapter.Metadata, error) {
	if err := s.requireLoaded(relation); err != nil {
		return nil, err
	}
	return s.adp.GetTableMetadata(ctx, relation)
}

// Close releases the engine connection.
func (s *Session) Close() error {
	return s.adp.Close()
}

func (s *Session) requireLoaded(relation string) error {
	if _, ok := s.sources[relation]; !ok {
		return fmt.Errorf("relation %q is not loaded", relation)
	}
	return nil
}
