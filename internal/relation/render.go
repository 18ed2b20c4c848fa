package relation

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// countPrinter groups digits in row counts: (12,345 rows).
var countPrinter = message.NewPrinter(language.English)

// Format selects how a Result is written.
type Format string

// Supported formats.
const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatTable, FormatJSON, FormatCSV, FormatMarkdown}

// ParseFormat resolves a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown format %q (valid: table, json, csv, md)", s)
}

// Render writes res to w in the given format.
func Render(w io.Writer, res *Result, format Format) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, res)
	case FormatCSV:
		return renderCSV(w, res)
	case FormatMarkdown:
		return renderMarkdown(w, res)
	default:
		return renderTable(w, res)
	}
}

func renderTable(w io.Writer, res *Result) error {
	if res.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, values := range res.Rows {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = FormatValue(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = countPrinter.Fprintf(w, "(%d rows)\n", res.Len())
	return nil
}

func renderJSON(w io.Writer, res *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Records())
}

func renderCSV(w io.Writer, res *Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Columns); err != nil {
		return err
	}
	for _, values := range res.Rows {
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = FormatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderMarkdown(w io.Writer, res *Result) error {
	if res.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(res.Columns, " | "))
	seps := make([]string, len(res.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, values := range res.Rows {
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = strings.ReplaceAll(FormatValue(v), "|", `\|`)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	return nil
}

// FormatValue renders a scanned value for text output.
func FormatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
