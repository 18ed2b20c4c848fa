// Package duckdb provides the DuckDB engine adapter that backs query cells.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/lenses/pkg/adapter"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

const defaultSchema = "main"

var settingName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Adapter implements adapter.Adapter for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger}}
}

// Connect opens DuckDB and applies extensions, secrets and settings from
// cfg.Params. Use ":memory:" or an empty path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.Logger.Debug("connected to duckdb", "path", path)

	if err := a.applyParams(ctx, params); err != nil {
		_ = a.Close()
		return err
	}
	return nil
}

func (a *Adapter) applyParams(ctx context.Context, p *Params) error {
	for _, ext := range p.Extensions {
		if !settingName.MatchString(ext) {
			return fmt.Errorf("invalid extension name %q", ext)
		}
		a.Logger.Debug("loading duckdb extension", "extension", ext)
		if err := a.Exec(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	for i, secret := range p.Secrets {
		if secret.Type == "" {
			return fmt.Errorf("secret %d: type is required", i)
		}
		if err := a.Exec(ctx, buildCreateSecretSQL(secret)); err != nil {
			return fmt.Errorf("failed to create %s secret: %w", secret.Type, err)
		}
	}

	for _, key := range slices.Sorted(maps.Keys(p.Settings)) {
		if !settingName.MatchString(key) {
			return fmt.Errorf("invalid setting name %q", key)
		}
		stmt := fmt.Sprintf("SET %s = %s", key, adapter.QuoteLiteral(p.Settings[key]))
		if err := a.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", key, err)
		}
	}
	return nil
}

// buildCreateSecretSQL renders a CREATE SECRET statement for cfg.
func buildCreateSecretSQL(cfg SecretConfig) string {
	opts := []string{"TYPE " + cfg.Type}
	if cfg.Provider != "" {
		opts = append(opts, "PROVIDER "+cfg.Provider)
	}
	if cfg.Region != "" {
		opts = append(opts, "REGION "+adapter.QuoteLiteral(cfg.Region))
	}
	if scope := formatScope(cfg.Scope); scope != "" {
		opts = append(opts, "SCOPE "+scope)
	}
	if cfg.KeyID != "" {
		opts = append(opts, "KEY_ID "+adapter.QuoteLiteral(cfg.KeyID))
	}
	if cfg.Secret != "" {
		opts = append(opts, "SECRET "+adapter.QuoteLiteral(cfg.Secret))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, "ENDPOINT "+adapter.QuoteLiteral(cfg.Endpoint))
	}
	if cfg.URLStyle != "" {
		opts = append(opts, "URL_STYLE "+adapter.QuoteLiteral(cfg.URLStyle))
	}
	if cfg.UseSSL != nil {
		opts = append(opts, fmt.Sprintf("USE_SSL %t", *cfg.UseSSL))
	}
	return "CREATE SECRET (\n    " + strings.Join(opts, ",\n    ") + "\n)"
}

func formatScope(scope any) string {
	var scopes []string
	switch v := scope.(type) {
	case nil:
		return ""
	case string:
		return adapter.QuoteLiteral(v)
	case []string:
		scopes = v
	case []any:
		for _, s := range v {
			scopes = append(scopes, fmt.Sprint(s))
		}
	default:
		return adapter.QuoteLiteral(fmt.Sprint(v))
	}
	quoted := make([]string, len(scopes))
	for i, s := range scopes {
		quoted[i] = adapter.QuoteLiteral(s)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

// GetTableMetadata retrieves metadata for a loaded relation.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.GetTableMetadataCommon(ctx, table, defaultSchema)
}

// LoadCSV materializes a CSV file as a table using DuckDB's read_csv with
// schema inference. Remote paths (anything with a scheme, e.g. s3://) are
// passed through unchanged.
func (a *Adapter) LoadCSV(ctx context.Context, tableName, filePath string, opts adapter.CSVOptions) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	query, err := buildLoadCSVSQL(tableName, filePath, opts)
	if err != nil {
		return err
	}

	a.Logger.Debug("loading csv", "table", tableName, "path", filePath, "delimiter", opts.Delimiter)
	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load CSV %s: %w", filePath, err)
	}
	return nil
}

func buildLoadCSVSQL(tableName, filePath string, opts adapter.CSVOptions) (string, error) {
	delim := opts.Delimiter
	if delim == "" {
		delim = ","
	}
	if utf8.RuneCountInString(delim) != 1 {
		return "", fmt.Errorf("delimiter must be a single character, got %q", delim)
	}

	path := filePath
	if !strings.Contains(filePath, "://") {
		abs, err := filepath.Abs(filePath)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = abs
	}

	return fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv(%s, delim = %s, header = %t)",
		adapter.QuoteIdent(tableName),
		adapter.QuoteLiteral(path),
		adapter.QuoteLiteral(delim),
		opts.Header,
	), nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
