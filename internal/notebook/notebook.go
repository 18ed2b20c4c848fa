// Package notebook provides the *.lenses.yaml notebook format: an ordered
// list of query cells over one or more delimited files.
package notebook

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/lenses/internal/relation"
	"gopkg.in/yaml.v3"
)

// Extension is the file suffix notebooks are discovered by.
const Extension = ".lenses.yaml"

// Kind selects what a cell executes.
type Kind string

// Cell kinds.
const (
	KindScan  Kind = "scan"
	KindCount Kind = "count"
	KindSQL   Kind = "sql"
)

// Notebook is a parsed notebook file.
type Notebook struct {
	Title  string          `yaml:"title"`
	Source relation.Source `yaml:"source"`
	Cells  []Cell          `yaml:"cells"`

	// Path is the file the notebook was loaded from, if any.
	Path string `yaml:"-"`
}

// Cell is one step of a notebook.
type Cell struct {
	Name   string `yaml:"name"`
	Kind   Kind   `yaml:"kind"`
	Column string `yaml:"column"`
	Alias  string `yaml:"alias"`
	SQL    string `yaml:"sql"`

	// Source overrides the notebook source for this cell.
	Source *relation.Source `yaml:"source"`
}

// ParseError reports a malformed notebook file.
type ParseError struct {
	File    string
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// Load reads and validates a notebook file. Relative source paths are
// resolved against the notebook's directory.
func Load(path string) (*Notebook, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied notebook path
	if err != nil {
		return nil, fmt.Errorf("failed to read notebook: %w", err)
	}

	nb, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.File = path
		}
		return nil, err
	}

	nb.Path = path
	nb.resolvePaths(filepath.Dir(path))
	return nb, nil
}

// Parse decodes and validates notebook YAML. Unknown keys are rejected.
func Parse(data []byte) (*Notebook, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var nb Notebook
	if err := dec.Decode(&nb); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Message: "notebook is empty"}
		}
		return nil, &ParseError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}

	nb.applyDefaults()
	if err := nb.Validate(); err != nil {
		return nil, err
	}
	return &nb, nil
}

func (nb *Notebook) applyDefaults() {
	nb.Source = nb.Source.Normalize()
	for i := range nb.Cells {
		c := &nb.Cells[i]
		if c.Name == "" {
			c.Name = fmt.Sprintf("cell %d", i+1)
		}
		if c.Kind == "" {
			if c.SQL != "" {
				c.Kind = KindSQL
			} else {
				c.Kind = KindScan
			}
		}
		c.Kind = Kind(strings.ToLower(string(c.Kind)))
		if c.Source != nil {
			src := c.Source.Normalize()
			c.Source = &src
		}
	}
}

// Validate checks every cell against its kind.
func (nb *Notebook) Validate() error {
	if len(nb.Cells) == 0 {
		return &ParseError{Message: "notebook has no cells"}
	}
	if err := nb.Source.Validate(); err != nil {
		return &ParseError{Message: fmt.Sprintf("source: %v", err)}
	}

	for i, c := range nb.Cells {
		var problem string
		switch c.Kind {
		case KindScan:
		case KindCount:
			if c.Column == "" {
				problem = "count cells need a column"
			}
		case KindSQL:
			if strings.TrimSpace(c.SQL) == "" {
				problem = "sql cells need sql"
			}
		default:
			problem = fmt.Sprintf("unknown kind %q (valid: scan, count, sql)", c.Kind)
		}
		if problem == "" && c.Source != nil {
			if err := c.Source.Validate(); err != nil {
				problem = "source: " + err.Error()
			}
		}
		if problem != "" {
			return &ParseError{Message: fmt.Sprintf("cell %d (%s): %s", i+1, c.Name, problem)}
		}
	}
	return nil
}

// Relation returns the relation a cell reads from.
func (nb *Notebook) Relation(c Cell) string {
	if c.Source != nil {
		return c.Source.Name
	}
	return nb.Source.Name
}

func (nb *Notebook) resolvePaths(dir string) {
	nb.Source.Path = resolve(dir, nb.Source.Path)
	for i := range nb.Cells {
		if src := nb.Cells[i].Source; src != nil {
			src.Path = resolve(dir, src.Path)
		}
	}
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) || strings.Contains(path, "://") {
		return path
	}
	return filepath.Join(dir, path)
}
