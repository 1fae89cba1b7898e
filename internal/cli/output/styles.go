package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used by text output.
type Styles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	// Domain styles
	ActionID lipgloss.Style
	Category lipgloss.Style
	Marker   lipgloss.Style
	Page     lipgloss.Style
}

// NewStyles builds styles for w. Colors are dropped when w is not a
// terminal or NO_COLOR is set.
func NewStyles(w io.Writer) *Styles {
	r := lipgloss.NewRenderer(w)
	if !isTerminal(w) || os.Getenv("NO_COLOR") != "" {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Styles{
		Title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		Header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5f87ff")),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("#888888")),
		Success: r.NewStyle().Foreground(lipgloss.Color("#04B575")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("#FFA500")),
		Error:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87")),
		Info:    r.NewStyle().Foreground(lipgloss.Color("#5fafff")),

		ActionID: r.NewStyle().Foreground(lipgloss.Color("#FFA500")),
		Category: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5f00d7")),
		Marker:   r.NewStyle().Underline(true).Foreground(lipgloss.Color("#AAAAAA")),
		Page:     r.NewStyle().Foreground(lipgloss.Color("#00afaf")),
	}
}
