// Package config loads the lenses CLI configuration from defaults, an
// optional lenses.yaml, LENSES_ environment variables and command flags.
package config

import (
	"time"

	"github.com/leapstack-labs/lenses/internal/figure"
	"github.com/leapstack-labs/lenses/internal/relation"
)

// Config holds all CLI configuration options.
type Config struct {
	Verbose      bool         `koanf:"verbose"`
	OutputFormat string       `koanf:"output" validate:"oneof=auto text markdown json"`
	LogLevel     string       `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat    string       `koanf:"log_format" validate:"oneof=text json"`
	Query        QueryConfig  `koanf:"query"`
	DuckDB       DuckDBConfig `koanf:"duckdb"`
	Viewer       ViewerConfig `koanf:"viewer"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// QueryConfig configures query cells.
type QueryConfig struct {
	CSV       string `koanf:"csv" validate:"required"`
	Delimiter string `koanf:"delimiter" validate:"len=1"`
	Relation  string `koanf:"relation" validate:"required"`
	Format    string `koanf:"format" validate:"oneof=table json csv md markdown"`
}

// DuckDBConfig holds engine settings applied on connect.
type DuckDBConfig struct {
	Threads     int               `koanf:"threads" validate:"gte=0"`
	MemoryLimit string            `koanf:"memory_limit"`
	Settings    map[string]string `koanf:"settings"`

	// Extensions are installed and loaded before any CSV is read, e.g.
	// httpfs for s3:// sources.
	Extensions []string `koanf:"extensions" validate:"dive,required"`

	// Secrets are passed to CREATE SECRET as-is (type, provider, region,
	// scope, key_id, secret, endpoint, url_style, use_ssl).
	Secrets []map[string]any `koanf:"secrets" validate:"dive,required"`
}

// ViewerConfig configures the live graph viewer.
type ViewerConfig struct {
	DotFile            string        `koanf:"dot_file" validate:"required"`
	Port               int           `koanf:"port" validate:"gte=0,lte=65535"`
	Interval           time.Duration `koanf:"interval" validate:"gt=0"`
	Watch              bool          `koanf:"watch"`
	AutoOpen           bool          `koanf:"auto_open"`
	Title              string        `koanf:"title"`
	PlaceholderOnError bool          `koanf:"placeholder_on_error"`
}

// Default configuration values.
const (
	DefaultOutput    = "auto" // TTY=text, otherwise markdown
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultCSV       = "Music.csv"
	DefaultFormat    = "table"
	DefaultDotFile   = "graph.dot"
	DefaultPort      = 8050
	DefaultInterval  = time.Second
)

func defaults() map[string]any {
	return map[string]any{
		"verbose":                     false,
		"output":                      DefaultOutput,
		"log_level":                   DefaultLogLevel,
		"log_format":                  DefaultLogFormat,
		"query.csv":                   DefaultCSV,
		"query.delimiter":             relation.DefaultDelimiter,
		"query.relation":              relation.DefaultName,
		"query.format":                DefaultFormat,
		"duckdb.threads":              0,
		"duckdb.memory_limit":         "",
		"viewer.dot_file":             DefaultDotFile,
		"viewer.port":                 DefaultPort,
		"viewer.interval":             DefaultInterval.String(),
		"viewer.watch":                true,
		"viewer.auto_open":            false,
		"viewer.title":                figure.DefaultTitle,
		"viewer.placeholder_on_error": false,
	}
}

// Default returns the configuration used when nothing has been loaded.
func Default() *Config {
	return &Config{
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		Query: QueryConfig{
			CSV:       DefaultCSV,
			Delimiter: relation.DefaultDelimiter,
			Relation:  relation.DefaultName,
			Format:    DefaultFormat,
		},
		Viewer: ViewerConfig{
			DotFile:  DefaultDotFile,
			Port:     DefaultPort,
			Interval: DefaultInterval,
			Watch:    true,
			Title:    figure.DefaultTitle,
		},
	}
}
