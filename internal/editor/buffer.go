// Package editor defines the text buffer the builder drives and an in-memory
// implementation of it.
//
// Lines are 1-based. Columns are 1-based rune columns, and a range's end column
// is exclusive. Hosts that speak another coordinate system (LSP uses 0-based
// UTF-16) convert at their boundary.
package editor

import "fmt"

// Position is a point in the buffer.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// String implements fmt.Stringer.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before reports whether p sorts strictly before q.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Range is a half-open span [Start, End).
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// LineRange returns the span of columns [startCol, endCol) on one line.
func LineRange(line, startCol, endCol int) Range {
	return Range{
		Start: Position{Line: line, Column: startCol},
		End:   Position{Line: line, Column: endCol},
	}
}

// Point returns an empty range at p, i.e. an insertion point.
func Point(p Position) Range {
	return Range{Start: p, End: p}
}

// Empty reports whether the range covers no text.
func (r Range) Empty() bool {
	return r.Start == r.End
}

// Contains reports whether p lies inside the range. The end is inclusive so
// that a caret sitting right after the last rune still hits the range.
func (r Range) Contains(p Position) bool {
	return !p.Before(r.Start) && !r.End.Before(p)
}

// String implements fmt.Stringer.
func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// ScreenPos is a pixel position for popup placement.
type ScreenPos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Style is the visual state of a tracked range.
type Style int

// Placeholder styles.
const (
	StylePlaceholder Style = iota
	StylePlaceholderActive
	StylePlaceholderFilled
)

// String returns the decoration class name for the style.
func (s Style) String() string {
	switch s {
	case StylePlaceholder:
		return "placeholder"
	case StylePlaceholderActive:
		return "placeholder-active"
	case StylePlaceholderFilled:
		return "placeholder-filled"
	default:
		return "unknown"
	}
}

// Buffer is the text buffer collaborator.
//
// Tracked ranges are owned by the buffer: every edit adjusts them, so callers
// re-query a range instead of caching its offsets.
type Buffer interface {
	// LineText returns the text of a line without its newline, or "" when the
	// line does not exist.
	LineText(line int) string
	LineCount() int

	// InsertOrReplace replaces the text in r with text atomically.
	InsertOrReplace(r Range, text string)

	CreateTrackedRange(r Range, style Style) string
	RemoveTrackedRanges(ids ...string)
	UpdateTrackedRangeStyle(id string, style Style)
	// UpdateTrackedRange moves a range and restyles it. It returns false if
	// the id is unknown.
	UpdateTrackedRange(id string, r Range, style Style) bool
	QueryTrackedRange(id string) (Range, bool)

	CaretToScreenPosition(p Position) ScreenPos
}

// Edit is one InsertOrReplace call.
type Edit struct {
	Range Range  `json:"range"`
	Text  string `json:"text"`
}

// Recorder wraps a Buffer and records every edit made through it, so a host
// can forward server-side edits to its client. Edits are recorded in order;
// each one is expressed against the text left by the previous one.
type Recorder struct {
	Buffer

	// Before, if set, runs ahead of each edit while the wrapped buffer still
	// holds the pre-edit text.
	Before func(Edit)

	edits []Edit
}

// NewRecorder wraps buf.
func NewRecorder(buf Buffer) *Recorder {
	return &Recorder{Buffer: buf}
}

// InsertOrReplace records the edit and forwards it.
func (r *Recorder) InsertOrReplace(rng Range, text string) {
	e := Edit{Range: rng, Text: text}
	if r.Before != nil {
		r.Before(e)
	}
	r.edits = append(r.edits, e)
	r.Buffer.InsertOrReplace(rng, text)
}

// Take returns the recorded edits and resets the log.
func (r *Recorder) Take() []Edit {
	edits := r.edits
	r.edits = nil
	return edits
}
