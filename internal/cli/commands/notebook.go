package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/lenses/internal/cli/output"
	"github.com/leapstack-labs/lenses/internal/notebook"
	"github.com/leapstack-labs/lenses/internal/relation"
	"github.com/leapstack-labs/lenses/pkg/adapter"
	"github.com/spf13/cobra"
)

// NewNotebookCommand creates the notebook command group.
func NewNotebookCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notebook",
		Short: "Run notebook files of query cells",
		Long: `Notebooks are YAML files (*` + notebook.Extension + `) holding a CSV source and an
ordered list of cells. Each run uses a fresh in-memory engine; cells execute
top to bottom and the first failing cell stops the run.`,
	}
	cmd.AddCommand(newNotebookRunCommand())
	cmd.AddCommand(newNotebookInitCommand())
	return cmd
}

func newNotebookRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>...",
		Short: "Execute notebooks in order",
		Example: `  lenses notebook run music` + notebook.Extension + `
  lenses notebook run *` + notebook.Extension + ` --output json`,
		Args: cobra.MinimumNArgs(1),
		RunE: runNotebooks,
	}
	cmd.Flags().StringP("format", "f", "", "Result format for cells: table, json, csv, md")
	return cmd
}

func runNotebooks(cmd *cobra.Command, args []string) error {
	cc := NewCommandContext(cmd)
	format, err := relation.ParseFormat(cc.Cfg.Query.Format)
	if err != nil {
		return err
	}
	r := cc.Renderer
	asJSON := r.EffectiveMode() == output.ModeJSON

	var runs []*notebook.RunResult
	for _, path := range args {
		nb, err := notebook.Load(path)
		if err != nil {
			return err
		}

		runner := &notebook.Runner{
			Engine: engineConfig(cc.Cfg),
			Logger: cc.Logger,
		}
		if !asJSON {
			r.Header(1, nb.Title)
			runner.OnCell = func(res notebook.CellResult) {
				r.CellHeader(res.Index+1, res.Name, res.SQL)
				if err := relation.Render(r.Writer(), res.Result, format); err != nil {
					r.Error(err.Error())
				}
				r.Println()
			}
		}

		run, err := runner.Run(cmd.Context(), nb)
		if run != nil {
			runs = append(runs, run)
		}
		if err != nil {
			if asJSON {
				_ = r.JSON(runs)
			}
			return fmt.Errorf("%s: %w", path, err)
		}
		if !asJSON {
			r.Muted(fmt.Sprintf("%d cells in %s (run %s)", len(run.Cells), run.Duration.Round(time.Millisecond), run.ID))
			r.Println()
		}
	}

	if asJSON {
		return r.JSON(runs)
	}
	return nil
}

func newNotebookInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create a starter notebook for the configured CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			path := args[0]
			if !strings.HasSuffix(path, notebook.Extension) {
				path += notebook.Extension
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			src := querySource(cc.Cfg)
			src.Path = relativeToNotebook(path, src.Path)
			content := starterNotebook(strings.TrimSuffix(filepath.Base(path), notebook.Extension), src)
			// Catch template mistakes before anything is written.
			if _, err := notebook.Parse([]byte(content)); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // project directory
				return fmt.Errorf("failed to create notebook directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil { //nolint:gosec // notebooks are not secret
				return fmt.Errorf("failed to write notebook: %w", err)
			}
			cc.Renderer.Success("created " + path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing notebook")
	cmd.Flags().String("csv", "", "CSV file the notebook reads")
	cmd.Flags().StringP("delimiter", "d", "", "Field delimiter of the CSV file")
	cmd.Flags().StringP("relation", "r", "", "Relation name for the CSV file")
	return cmd
}

// relativeToNotebook rewrites csvPath, given relative to the working
// directory, so that it resolves from the notebook's own directory the way
// notebook.Load reads it.
func relativeToNotebook(nbPath, csvPath string) string {
	if csvPath == "" || strings.Contains(csvPath, "://") {
		return csvPath
	}
	absCSV, err := filepath.Abs(csvPath)
	if err != nil {
		return csvPath
	}
	absDir, err := filepath.Abs(filepath.Dir(nbPath))
	if err != nil {
		return absCSV
	}
	rel, err := filepath.Rel(absDir, absCSV)
	if err != nil {
		return absCSV
	}
	return filepath.ToSlash(rel)
}

func starterNotebook(title string, src relation.Source) string {
	return fmt.Sprintf(`title: %q
source:
  path: %q
  delimiter: %q
  relation: %q
cells:
  - name: everything
    kind: scan
  - name: row count
    sql: SELECT count(*) AS row_count FROM %s
`, title, src.Path, src.Delimiter, src.Name, adapter.QuoteIdent(src.Name))
}
