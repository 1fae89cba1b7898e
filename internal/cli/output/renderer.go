package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	err    io.Writer
	mode   Mode
	styles *Styles
}

// NewRenderer creates a renderer writing results to out and diagnostics to
// errOut.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return &Renderer{
		out:    out,
		err:    errOut,
		mode:   mode,
		styles: NewStyles(out),
	}
}

// Mode returns the configured mode, which may be auto.
func (r *Renderer) Mode() Mode {
	return r.mode
}

// EffectiveMode resolves auto against the output stream.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto && r.mode != "" {
		return r.mode
	}
	if isTerminal(r.out) {
		return ModeText
	}
	return ModeMarkdown
}

// Styles returns the text styles.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Writer returns the result stream.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// ErrWriter returns the diagnostic stream.
func (r *Renderer) ErrWriter() io.Writer {
	return r.err
}

// Println writes a line to the result stream.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the result stream.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a section header. Level 1 is a title.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() != ModeText {
		r.Println(FormatHeader(level, text))
		r.Println("")
		return
	}
	if level <= 1 {
		r.Println(r.styles.Title.Render(text))
	} else {
		r.Println(r.styles.Header.Render(text))
	}
	r.Println("")
}

// Success writes a success message.
func (r *Renderer) Success(msg string) {
	r.status("✓", r.styles.Success.Render, msg)
}

// Warning writes a warning to the diagnostic stream.
func (r *Renderer) Warning(msg string) {
	r.statusTo(r.err, "!", r.styles.Warning.Render, msg)
}

// Error writes an error to the diagnostic stream.
func (r *Renderer) Error(msg string) {
	r.statusTo(r.err, "✗", r.styles.Error.Render, msg)
}

// Muted writes de-emphasized text.
func (r *Renderer) Muted(msg string) {
	if r.EffectiveMode() != ModeText {
		r.Println(msg)
		return
	}
	r.Println(r.styles.Muted.Render(msg))
}

// StatusLine writes "name status detail" with the status colored.
func (r *Renderer) StatusLine(name, status, detail string) {
	line := name
	if r.EffectiveMode() == ModeText {
		style := r.styles.Muted
		switch status {
		case "success", "ok":
			style = r.styles.Success
		case "warning":
			style = r.styles.Warning
		case "error", "failed":
			style = r.styles.Error
		}
		line = fmt.Sprintf("  %s %s", style.Render(fmt.Sprintf("%-8s", status)), name)
	} else {
		line = fmt.Sprintf("- %s: %s", name, status)
	}
	if detail != "" {
		line += " " + detail
	}
	r.Println(line)
}

func (r *Renderer) status(icon string, render func(...string) string, msg string) {
	r.statusTo(r.out, icon, render, msg)
}

func (r *Renderer) statusTo(w io.Writer, icon string, render func(...string) string, msg string) {
	if r.EffectiveMode() != ModeText {
		_, _ = fmt.Fprintln(w, msg)
		return
	}
	_, _ = fmt.Fprintln(w, render(icon+" "+msg))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatHeader returns a markdown header.
func FormatHeader(level int, text string) string {
	level = max(1, min(level, 6))
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown list item holding a key and value.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}

// FormatCode returns text fenced as a code block.
func FormatCode(lang, text string) string {
	return "```" + lang + "\n" + strings.TrimRight(text, "\n") + "\n```"
}
