// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/lenses/internal/cli/config"
	"github.com/leapstack-labs/lenses/internal/cli/output"
	"github.com/leapstack-labs/lenses/internal/testutil"
	"github.com/spf13/cobra"
)

// MusicCSV is a tilde-delimited fixture: 5 rows, 3 jazz and 2 rock.
const MusicCSV = `title~artist~genre
So What~Miles Davis~jazz
Paranoid Android~Radiohead~rock
Blue in Green~Miles Davis~jazz
Karma Police~Radiohead~rock
Naima~John Coltrane~jazz
`

// GraphDOT is a three node chain.
const GraphDOT = `digraph G {
  A -> B;
  B -> C;
}
`

// SetupTestProject creates a temporary project holding Music.csv, graph.dot
// and a lenses.yaml selecting the tilde delimiter, and changes into it.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"Music.csv":   MusicCSV,
		"graph.dot":   GraphDOT,
		"lenses.yaml": "query:\n  delimiter: \"~\"\n  relation: music\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	t.Chdir(dir)
	return dir
}

// ExecuteCommand runs cmd below a minimal root that loads configuration and
// the logger the way the real root command does. Stdin is empty.
func ExecuteCommand(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	root := &cobra.Command{
		Use:           "lenses",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			if _, err := config.LoadConfig("", c.Flags()); err != nil {
				return err
			}
			c.SetContext(context.WithValue(c.Context(), config.LoggerKey(), testutil.NewTestLogger(t)))
			return nil
		},
	}
	root.PersistentFlags().StringP("output", "o", "", "Output format")
	root.AddCommand(cmd)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{cmd.Name()}, args...))

	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if n := strings.Count(md, "```"); n%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", n)
	}
	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
