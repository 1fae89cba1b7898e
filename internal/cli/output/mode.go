// Package output renders command output for terminals, pipes and scripts.
package output

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Mode selects how commands format their output.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"     // Text on a terminal, markdown otherwise
	ModeText     Mode = "text"     // Styled text for humans
	ModeMarkdown Mode = "markdown" // Plain markdown for agents and pipes
	ModeJSON     Mode = "json"     // Machine-readable JSON
)

// Modes returns the accepted values of the --output flag.
func Modes() []string {
	return []string{string(ModeAuto), string(ModeText), string(ModeMarkdown), string(ModeJSON)}
}

// ParseMode parses a mode name. Empty means auto.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeAuto:
		return ModeAuto, true
	case ModeText, ModeMarkdown, ModeJSON:
		return Mode(s), true
	}
	return ModeAuto, false
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: file descriptors fit in int
}
