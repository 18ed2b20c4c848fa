package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/lenses/internal/cli/output"
	"github.com/leapstack-labs/lenses/internal/relation"
	"github.com/spf13/cobra"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Input string
	Alias string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run SQL against a CSV file",
		Long: `Load a CSV file into an in-memory DuckDB relation and query it.

The file's schema is inferred. SQL is taken from the arguments, from --input,
or from piped stdin. Without any of these on a terminal, an interactive REPL
is started.`,
		Example: `  # Everything in the default relation
  lenses query scan --csv Music.csv --delimiter "~"

  # Rows per genre, most frequent first
  lenses query count genre --alias g

  # Arbitrary SQL
  lenses query "SELECT artist, count(*) FROM data GROUP BY 1" --format md

  # Interactive mode
  lenses query --csv Music.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("csv", "", "CSV file to load (default: query.csv, Music.csv)")
	pf.StringP("delimiter", "d", "", "Single-character field delimiter (default ',')")
	pf.StringP("relation", "r", "", "Relation name the file is loaded as (default 'data')")
	pf.StringP("format", "f", "", "Result format: table, json, csv, md (default 'table')")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, len(relation.Formats))
		for i, f := range relation.Formats {
			names[i] = string(f)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.AddCommand(newQueryScanCommand())
	cmd.AddCommand(newQueryCountCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand())

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cc := NewCommandContext(cmd)
	format, err := relation.ParseFormat(cc.Cfg.Query.Format)
	if err != nil {
		return err
	}

	var sqlQuery string
	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !output.IsTerminal(cmd.InOrStdin()):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		return runQueryREPL(cmd, cc, format)
	}

	sqlQuery = strings.TrimSuffix(strings.TrimSpace(sqlQuery), ";")
	if sqlQuery == "" {
		return fmt.Errorf("no SQL given")
	}

	return withQuerySession(cmd.Context(), cc, func(s *relation.Session, _ string) error {
		res, err := s.Query(cmd.Context(), sqlQuery)
		if err != nil {
			return err
		}
		return relation.Render(cmd.OutOrStdout(), res, format)
	})
}

// withQuerySession opens an engine, loads the configured CSV and calls fn
// with the session and the relation name.
func withQuerySession(ctx context.Context, cc *CommandContext, fn func(*relation.Session, string) error) error {
	s, err := openQuerySession(ctx, cc)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return fn(s, cc.Cfg.Query.Relation)
}

func openQuerySession(ctx context.Context, cc *CommandContext) (*relation.Session, error) {
	s, err := relation.Open(ctx, relation.Options{Engine: engineConfig(cc.Cfg), Logger: cc.Logger})
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx, querySource(cc.Cfg)); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func newQueryScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Show every row of the relation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return renderCell(cmd, func(ctx context.Context, s *relation.Session, rel string) (*relation.Result, error) {
				return s.Scan(ctx, rel)
			})
		},
	}
}

func newQueryCountCommand(opts *QueryOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count <column>",
		Short: "Count rows per value of a column, most frequent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderCell(cmd, func(ctx context.Context, s *relation.Session, rel string) (*relation.Result, error) {
				return s.CountBy(ctx, rel, args[0], opts.Alias)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Alias, "alias", "", "Output name of the grouped column (default: the column name)")
	return cmd
}

func newQuerySchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the inferred columns of the relation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return renderCell(cmd, describeRelation)
		},
	}
}

type cellFunc func(ctx context.Context, s *relation.Session, rel string) (*relation.Result, error)

func renderCell(cmd *cobra.Command, fn cellFunc) error {
	cc := NewCommandContext(cmd)
	format, err := relation.ParseFormat(cc.Cfg.Query.Format)
	if err != nil {
		return err
	}
	return withQuerySession(cmd.Context(), cc, func(s *relation.Session, rel string) error {
		res, err := fn(cmd.Context(), s, rel)
		if err != nil {
			return err
		}
		return relation.Render(cmd.OutOrStdout(), res, format)
	})
}

// describeRelation returns the relation's columns as a result.
func describeRelation(ctx context.Context, s *relation.Session, rel string) (*relation.Result, error) {
	meta, err := s.Describe(ctx, rel)
	if err != nil {
		return nil, err
	}
	res := &relation.Result{
		Columns: []string{"column", "type", "nullable"},
		Rows:    make([][]any, 0, len(meta.Columns)),
	}
	for _, c := range meta.Columns {
		res.Rows = append(res.Rows, []any{c.Name, c.Type, c.Nullable})
	}
	return res, nil
}
