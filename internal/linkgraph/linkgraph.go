// Package linkgraph builds a directed graph from the links between markdown
// notes and writes it as Graphviz DOT or Mermaid.
package linkgraph

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strings"
)

// Link is a connection from one note to another, both named by their path
// relative to the scanned root without the .md extension.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

var linkPattern = regexp.MustCompile(`\[\[(.*?)\]\]|\((.*?\.md)\)`)

// ExtractTargets returns the link targets in content, in order, with any
// .md suffix removed. Both [[wikilinks]] and (relative.md) links count.
func ExtractTargets(content string) []string {
	var targets []string
	for _, m := range linkPattern.FindAllStringSubmatch(content, -1) {
		target := m[1]
		if target == "" {
			target = m[2]
		}
		if target == "" {
			continue
		}
		targets = append(targets, trimMD(target))
	}
	return targets
}

// Scan walks fsys for *.md files and returns the deduplicated links between
// them, sorted by source then target. Self links are dropped.
func Scan(fsys fs.FS) ([]Link, error) {
	seen := make(map[Link]bool)
	var links []Link

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(p), ".md") {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}

		source := trimMD(p)
		for _, target := range ExtractTargets(string(data)) {
			l := Link{Source: source, Target: target}
			if source == target || seen[l] {
				continue
			}
			seen[l] = true
			links = append(links, l)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(links, func(a, b Link) int {
		return cmp.Or(cmp.Compare(a.Source, b.Source), cmp.Compare(a.Target, b.Target))
	})
	return links, nil
}

// WriteDOT writes links as a Graphviz digraph.
func WriteDOT(w io.Writer, links []Link) error {
	bw := bufio.NewWriter(w)
	_, _ = fmt.Fprintln(bw, "digraph {")
	for _, l := range links {
		_, _ = fmt.Fprintf(bw, "  %s -> %s\n", quoteDOT(l.Source), quoteDOT(l.Target))
	}
	_, _ = fmt.Fprintln(bw, "}")
	return bw.Flush()
}

// WriteMermaid writes links as a left-to-right Mermaid flowchart.
func WriteMermaid(w io.Writer, links []Link) error {
	bw := bufio.NewWriter(w)
	_, _ = fmt.Fprintln(bw, "graph LR")
	for _, l := range links {
		_, _ = fmt.Fprintf(bw, "  %s --> %s\n", SanitizeMermaid(l.Source), SanitizeMermaid(l.Target))
	}
	return bw.Flush()
}

var mermaidReplacer = strings.NewReplacer(" ", "_", ".", "_", "/", "_", `\`, "_")

// SanitizeMermaid turns a note name into a Mermaid node id.
func SanitizeMermaid(s string) string {
	return mermaidReplacer.Replace(s)
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quoteDOT(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

func trimMD(s string) string {
	if len(s) >= 3 && strings.EqualFold(s[len(s)-3:], ".md") {
		return s[:len(s)-3]
	}
	return s
}
