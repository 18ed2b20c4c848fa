// Package output renders command output for terminals, markdown consumers
// and machines.
package output

import "golang.org/x/term"

// Mode selects the output style.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"     // text on a TTY, markdown otherwise
	ModeText     Mode = "text"     // styled terminal output
	ModeMarkdown Mode = "markdown" // plain markdown, no ANSI
	ModeJSON     Mode = "json"     // machine-readable
)

// Modes lists the accepted mode names.
var Modes = []string{string(ModeAuto), string(ModeText), string(ModeMarkdown), string(ModeJSON)}

// Resolve turns auto into text or markdown depending on isTTY.
func (m Mode) Resolve(isTTY bool) Mode {
	switch m {
	case ModeText, ModeMarkdown, ModeJSON:
		return m
	}
	if isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTerminal reports whether stream (a reader or writer) is an interactive
// terminal. Anything that is not backed by a file descriptor is not.
func IsTerminal(stream any) bool {
	f, ok := stream.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
