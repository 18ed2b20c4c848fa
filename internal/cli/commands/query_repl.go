package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/lenses/internal/relation"
	"github.com/spf13/cobra"
)

const (
	promptMain = "lenses> "
	promptMore = "   ...> "
)

func runQueryREPL(cmd *cobra.Command, cc *CommandContext, format relation.Format) error {
	ctx := cmd.Context()

	session, err := openQuerySession(ctx, cc)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	r := newREPL(session, cc.Cfg.Query.Relation, format, cmd.OutOrStdout(), cmd.ErrOrStderr())

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptMain,
		HistoryFile:     historyFile(cc.Logger),
		AutoComplete:    r.completer(ctx),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	src := querySource(cc.Cfg)
	cc.Renderer.Println(cc.Renderer.Styles().Bold.Render("lenses query REPL"))
	cc.Renderer.Muted(fmt.Sprintf("%s loaded as %q (delimiter %q)", src.Path, src.Name, src.Delimiter))
	cc.Renderer.Muted("Type .help for commands, .quit to exit")
	cc.Renderer.Println()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			r.reset()
			rl.SetPrompt(promptMain)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if r.feed(ctx, line) {
			return nil
		}
		rl.SetPrompt(r.prompt())
	}
}

// historyFile returns the REPL history path in the user cache directory,
// or "" (no history) when it cannot be created.
func historyFile(logger *slog.Logger) string {
	dir, err := os.UserCacheDir()
	if err != nil {
		logger.Debug("no cache directory for REPL history", "error", err)
		return ""
	}
	dir = filepath.Join(dir, "lenses")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		logger.Debug("failed to create history directory", "dir", dir, "error", err)
		return ""
	}
	return filepath.Join(dir, "query_history")
}

// repl holds the state of one interactive session between lines.
type repl struct {
	session  *relation.Session
	relation string
	format   relation.Format
	out      io.Writer
	errOut   io.Writer
	pending  strings.Builder
}

func newREPL(s *relation.Session, rel string, format relation.Format, out, errOut io.Writer) *repl {
	return &repl{session: s, relation: rel, format: format, out: out, errOut: errOut}
}

func (r *repl) prompt() string {
	if r.pending.Len() > 0 {
		return promptMore
	}
	return promptMain
}

func (r *repl) reset() {
	r.pending.Reset()
}

// feed consumes one input line and reports whether the REPL should exit.
// SQL accumulates across lines until a terminating semicolon.
func (r *repl) feed(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if r.pending.Len() == 0 && strings.HasPrefix(line, ".") {
		return r.dot(ctx, line)
	}

	r.pending.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		r.pending.WriteString(" ")
		return false
	}

	query := strings.TrimSuffix(r.pending.String(), ";")
	r.reset()

	r.run(func() (*relation.Result, error) { return r.session.Query(ctx, query) })
	return false
}

func (r *repl) run(fn func() (*relation.Result, error)) {
	res, err := fn()
	if err == nil {
		err = relation.Render(r.out, res, r.format)
	}
	if err != nil {
		_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
	}
	_, _ = fmt.Fprintln(r.out)
}

func (r *repl) dot(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(r.out)

	case ".scan":
		r.run(func() (*relation.Result, error) { return r.session.Scan(ctx, r.relation) })

	case ".count":
		if len(args) == 0 || len(args) > 2 {
			_, _ = fmt.Fprintln(r.errOut, "Usage: .count <column> [alias]")
			return false
		}
		alias := ""
		if len(args) == 2 {
			alias = args[1]
		}
		r.run(func() (*relation.Result, error) { return r.session.CountBy(ctx, r.relation, args[0], alias) })

	case ".schema":
		rel := r.relation
		if len(args) > 0 {
			rel = args[0]
		}
		r.run(func() (*relation.Result, error) { return describeRelation(ctx, r.session, rel) })

	case ".format":
		if len(args) == 0 {
			_, _ = fmt.Fprintf(r.out, "format: %s\n", r.format)
			return false
		}
		f, err := relation.ParseFormat(args[0])
		if err != nil {
			_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
			return false
		}
		r.format = f
		_, _ = fmt.Fprintf(r.out, "format: %s\n", f)

	case ".reload":
		if err := r.session.Reload(ctx); err != nil {
			_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintln(r.out, "reloaded")

	case ".clear":
		_, _ = fmt.Fprint(r.out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(r.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help                   Show this help message
  .scan                   Show every row of the relation
  .count <col> [alias]    Count rows per value of a column
  .schema [relation]      Show the inferred columns
  .format [name]          Show or set the result format (table, json, csv, md)
  .reload                 Re-read the CSV file
  .clear                  Clear the screen
  .quit / .exit           Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for relation and column names
`
	_, _ = fmt.Fprintln(w, help)
}

// completer offers dot commands, loaded relations and their columns.
func (r *repl) completer(ctx context.Context) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, src := range r.session.Sources() {
		items = append(items, readline.PcItem(src.Name))
		// Column names are for completion only; a failure just means fewer items.
		if meta, err := r.session.Describe(ctx, src.Name); err == nil {
			for _, c := range meta.Columns {
				items = append(items, readline.PcItem(c.Name))
			}
		}
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".scan"),
		readline.PcItem(".count"),
		readline.PcItem(".schema"),
		readline.PcItem(".format",
			readline.PcItem("table"),
			readline.PcItem("json"),
			readline.PcItem("csv"),
			readline.PcItem("md"),
		),
		readline.PcItem(".reload"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
