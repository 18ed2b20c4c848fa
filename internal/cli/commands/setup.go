package commands

import (
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/leapstack-labs/lenses/internal/cli/config"
	"github.com/leapstack-labs/lenses/internal/cli/output"
	"github.com/leapstack-labs/lenses/internal/relation"
	"github.com/leapstack-labs/lenses/pkg/adapter"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: r,
	}
}

// getConfig returns the current configuration, or the defaults when the
// command runs without the root's pre-run hook (as in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// engineConfig maps the duckdb section (settings, extensions and secrets)
// onto adapter params. The database
// is always in-memory: relations are rebuilt from their files each run.
func engineConfig(cfg *config.Config) adapter.Config {
	settings := make(map[string]any, len(cfg.DuckDB.Settings)+2)
	for name, value := range cfg.DuckDB.Settings {
		settings[name] = value
	}
	if cfg.DuckDB.Threads > 0 {
		settings["threads"] = strconv.Itoa(cfg.DuckDB.Threads)
	}
	if cfg.DuckDB.MemoryLimit != "" {
		settings["memory_limit"] = cfg.DuckDB.MemoryLimit
	}

	params := make(map[string]any, 3)
	if len(settings) > 0 {
		params["settings"] = settings
	}
	if len(cfg.DuckDB.Extensions) > 0 {
		params["extensions"] = slices.Clone(cfg.DuckDB.Extensions)
	}
	if len(cfg.DuckDB.Secrets) > 0 {
		secrets := make([]any, len(cfg.DuckDB.Secrets))
		for i, secret := range cfg.DuckDB.Secrets {
			secrets[i] = maps.Clone(secret)
		}
		params["secrets"] = secrets
	}

	ac := adapter.Config{Type: relation.DefaultEngine, Path: ":memory:"}
	if len(params) > 0 {
		ac.Params = params
	}
	return ac
}

// querySource builds the relation named by the query section.
func querySource(cfg *config.Config) relation.Source {
	return relation.Source{
		Name:      cfg.Query.Relation,
		Path:      cfg.Query.CSV,
		Delimiter: cfg.Query.Delimiter,
	}.Normalize()
}
