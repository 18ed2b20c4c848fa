package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leapstack-labs/lenses/internal/cli/output"
	"github.com/leapstack-labs/lenses/internal/linkgraph"
	"github.com/spf13/cobra"
)

// LinksOptions holds options for the links command.
type LinksOptions struct {
	DotFile     string
	MermaidFile string
}

// NewLinksCommand creates the links command.
func NewLinksCommand() *cobra.Command {
	opts := &LinksOptions{}

	cmd := &cobra.Command{
		Use:   "links [dir]",
		Short: "Build a graph of the links between markdown notes",
		Long: `Scan a directory of markdown files for [[wikilinks]] and (relative.md) links
and write the link graph as Graphviz DOT and Mermaid. The DOT output is the
format "lenses view" watches.`,
		Example: `  # Scan the current directory into graph.dot and graph.mmd
  lenses links

  # Scan notes/, DOT only
  lenses links notes --mermaid ""`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runLinks(cmd, dir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DotFile, "dot", "graph.dot", "DOT output file (empty to skip)")
	cmd.Flags().StringVar(&opts.MermaidFile, "mermaid", "graph.mmd", "Mermaid output file (empty to skip)")

	return cmd
}

func runLinks(cmd *cobra.Command, dir string, opts *LinksOptions) error {
	cc := NewCommandContext(cmd)

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	links, err := linkgraph.Scan(os.DirFS(dir))
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	cc.Logger.Debug("scanned notes", "dir", dir, "links", len(links))

	if opts.DotFile != "" {
		if err := writeGraph(opts.DotFile, links, linkgraph.WriteDOT); err != nil {
			return err
		}
	}
	if opts.MermaidFile != "" {
		if err := writeGraph(opts.MermaidFile, links, linkgraph.WriteMermaid); err != nil {
			return err
		}
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{
			"dir":     dir,
			"dot":     opts.DotFile,
			"mermaid": opts.MermaidFile,
			"links":   links,
		})
	}

	r.KeyValue("Links", strconv.Itoa(len(links)))
	if opts.DotFile != "" {
		r.KeyValue("DOT", opts.DotFile)
	}
	if opts.MermaidFile != "" {
		r.KeyValue("Mermaid", opts.MermaidFile)
	}
	return nil
}

// writeGraph renders links with write and replaces path atomically, so a
// viewer polling the file never reads it half-written.
func writeGraph(path string, links []linkgraph.Link, write func(io.Writer, []linkgraph.Link) error) error {
	var buf bytes.Buffer
	if err := write(&buf, links); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // graph files are meant to be shared
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
