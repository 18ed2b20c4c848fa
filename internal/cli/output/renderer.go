package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// Renderer writes command output in the effective mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	styles Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return NewRendererWithTTY(out, errOut, IsTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit TTY state.
// Colors are off unless text mode goes to a TTY and NO_COLOR is unset.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	r := &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
		styles: PlainStyles(),
	}
	if r.EffectiveMode() == ModeText && isTTY && !termenv.EnvNoColor() {
		r.styles = DefaultStyles()
	}
	return r
}

// EffectiveMode returns the mode after resolving auto.
func (r *Renderer) EffectiveMode() Mode {
	return r.mode.Resolve(r.isTTY)
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool {
	return r.isTTY
}

// Styles returns the active styles.
func (r *Renderer) Styles() Styles {
	return r.styles
}

// Writer returns the stdout writer.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// Println writes a line to stdout.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to stdout.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a section heading.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeText {
		r.Println(r.styles.Header.Render(text))
		return
	}
	r.Println(FormatHeader(level, text))
}

// Success writes a confirmation line.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render("✓ " + msg))
}

// Muted writes secondary information.
func (r *Renderer) Muted(msg string) {
	r.Println(r.styles.Muted.Render(msg))
}

// Warning writes a warning to stderr.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("! "+msg))
}

// Error writes an error to stderr.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("✗ "+msg))
}

// CellHeader introduces a query cell's output.
func (r *Renderer) CellHeader(index int, name, detail string) {
	label := fmt.Sprintf("[%d] %s", index, name)
	if r.EffectiveMode() == ModeText {
		r.Println(r.styles.Cell.Render(label) + r.styles.Muted.Render(detail))
		return
	}
	r.Println(FormatHeader(3, label))
	if detail != "" {
		r.Println(FormatCodeBlock("sql", detail))
	}
}

// KeyValue writes an aligned key/value line.
func (r *Renderer) KeyValue(key, value string) {
	if r.EffectiveMode() == ModeText {
		r.Println(r.styles.Key.Render(key) + value)
		return
	}
	r.Println(FormatKeyValue(key, value))
}

// JSON writes v as indented JSON to stdout.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatHeader returns a markdown heading.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown list item.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s:** %s", key, value)
}

// FormatCodeBlock returns a fenced code block.
func FormatCodeBlock(lang, code string) string {
	return "```" + lang + "\n" + strings.TrimRight(code, "\n") + "\n```"
}
