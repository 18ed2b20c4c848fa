// Package adapter defines the contract between lenses and the embedded SQL
// engines that back query cells.
//
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves with the registry in their init() functions.
package adapter

import (
	"context"
	"database/sql"
)

// Config holds configuration for connecting to an engine.
type Config struct {
	Type   string
	Path   string
	Params map[string]any
}

// Column describes a column of a loaded relation.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// Metadata holds metadata about a loaded relation.
type Metadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}

// CSVOptions controls how a CSV file is read into a relation.
type CSVOptions struct {
	// Delimiter is the single-character field separator. Empty means ",".
	Delimiter string
	// Header reports whether the first line holds column names.
	Header bool
}

// Adapter defines the interface that all engine adapters must implement.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	// The caller must close the returned rows and check rows.Err().
	Query(ctx context.Context, sql string) (*Rows, error)

	// GetTableMetadata retrieves metadata for a loaded relation.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// LoadCSV loads a CSV file into a relation named tableName,
	// replacing any existing relation with that name. The schema is
	// inferred by the engine.
	LoadCSV(ctx context.Context, tableName, filePath string, opts CSVOptions) error
}
