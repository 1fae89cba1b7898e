package editor

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/width"
)

// Default cell size used by CaretToScreenPosition.
const (
	DefaultCellWidth  = 8
	DefaultCellHeight = 18
)

type trackedRange struct {
	start, end int // rune offsets, end exclusive
	style      Style
}

// Memory is an in-memory Buffer. It is not safe for concurrent use; each
// editing session owns its own Memory.
type Memory struct {
	text    []rune
	lines   []int // rune offset of each line start
	version int

	ranges map[string]*trackedRange

	cellWidth  int
	cellHeight int
}

// MemoryOption configures a Memory.
type MemoryOption func(*Memory)

// WithCellSize sets the pixel size of one character cell.
func WithCellSize(w, h int) MemoryOption {
	return func(m *Memory) {
		if w > 0 {
			m.cellWidth = w
		}
		if h > 0 {
			m.cellHeight = h
		}
	}
}

// NewMemory creates a buffer holding text.
func NewMemory(text string, opts ...MemoryOption) *Memory {
	m := &Memory{
		ranges:     make(map[string]*trackedRange),
		cellWidth:  DefaultCellWidth,
		cellHeight: DefaultCellHeight,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.setText(text)
	return m
}

// Text returns the whole buffer.
func (m *Memory) Text() string {
	return string(m.text)
}

// SetText replaces the whole buffer and drops every tracked range.
func (m *Memory) SetText(text string) {
	m.setText(text)
	m.ranges = make(map[string]*trackedRange)
	m.version++
}

// Version increments on every edit.
func (m *Memory) Version() int {
	return m.version
}

// TrackedRangeCount returns the number of live tracked ranges.
func (m *Memory) TrackedRangeCount() int {
	return len(m.ranges)
}

// Styles returns the live tracked ranges with their styles, keyed by id.
func (m *Memory) Styles() map[string]Style {
	out := make(map[string]Style, len(m.ranges))
	for id, tr := range m.ranges {
		out[id] = tr.style
	}
	return out
}

func (m *Memory) setText(text string) {
	m.text = []rune(text)
	m.reindex()
}

func (m *Memory) reindex() {
	m.lines = m.lines[:0]
	m.lines = append(m.lines, 0)
	for i, r := range m.text {
		if r == '\n' {
			m.lines = append(m.lines, i+1)
		}
	}
}

// LineCount returns the number of lines. An empty buffer has one line.
func (m *Memory) LineCount() int {
	return len(m.lines)
}

// LineText returns the text of a line without its newline.
func (m *Memory) LineText(line int) string {
	start, end, ok := m.lineSpan(line)
	if !ok {
		return ""
	}
	return string(m.text[start:end])
}

// lineSpan returns the rune offsets of a line's content, excluding the newline.
func (m *Memory) lineSpan(line int) (start, end int, ok bool) {
	if line < 1 || line > len(m.lines) {
		return 0, 0, false
	}
	start = m.lines[line-1]
	end = len(m.text)
	if line < len(m.lines) {
		end = m.lines[line] - 1
	}
	return start, end, true
}

// offset converts a position to a rune offset, clamping to the buffer.
func (m *Memory) offset(p Position) int {
	if p.Line < 1 {
		return 0
	}
	if p.Line > len(m.lines) {
		return len(m.text)
	}
	start, end, _ := m.lineSpan(p.Line)
	col := p.Column
	if col < 1 {
		col = 1
	}
	off := start + col - 1
	if off > end {
		off = end
	}
	return off
}

// position converts a rune offset to a position.
func (m *Memory) position(off int) Position {
	if off < 0 {
		off = 0
	}
	if off > len(m.text) {
		off = len(m.text)
	}
	// Binary search for the last line start <= off.
	lo, hi := 0, len(m.lines)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if m.lines[mid] <= off {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return Position{Line: lo + 1, Column: off - m.lines[lo] + 1}
}

// Offset returns the rune offset of p, clamped to the buffer.
func (m *Memory) Offset(p Position) int {
	return m.offset(p)
}

// PositionAt returns the position of a rune offset, clamped to the buffer.
func (m *Memory) PositionAt(off int) Position {
	return m.position(off)
}

// InsertOrReplace replaces the text in r and adjusts every tracked range.
//
// Ranges never grow when text is typed at their edges: an edit ending at or
// before a range's start shifts it, an edit starting at or after its end
// leaves it alone, an edit inside it resizes it, and an edit straddling a
// boundary clamps the range to the edit.
func (m *Memory) InsertOrReplace(r Range, text string) {
	es, ee := m.offset(r.Start), m.offset(r.End)
	if ee < es {
		es, ee = ee, es
	}
	ins := []rune(text)
	n := len(ins)
	delta := n - (ee - es)

	next := make([]rune, 0, len(m.text)+delta)
	next = append(next, m.text[:es]...)
	next = append(next, ins...)
	next = append(next, m.text[ee:]...)
	m.text = next
	m.reindex()
	m.version++

	for _, tr := range m.ranges {
		tr.start, tr.end = adjust(tr.start, tr.end, es, ee, n)
	}
}

// adjust maps a range [s, e) across the replacement of [es, ee) with n runes.
func adjust(s, e, es, ee, n int) (int, int) {
	delta := n - (ee - es)
	switch {
	case ee <= s:
		// Before, including a pure insertion at the start.
		return s + delta, e + delta
	case es >= e:
		// After, including a pure insertion at the end.
		return s, e
	case es >= s && ee <= e:
		// Inside, including an exact replacement of the range.
		return s, e + delta
	case es <= s && ee >= e:
		// Covers the whole range.
		return es, es + n
	case es < s:
		// Straddles the start.
		return es + n, e + delta
	default:
		// Straddles the end.
		return s, es
	}
}

// CreateTrackedRange starts tracking r and returns its id.
func (m *Memory) CreateTrackedRange(r Range, style Style) string {
	s, e := m.offset(r.Start), m.offset(r.End)
	if e < s {
		s, e = e, s
	}
	id := uuid.New().String()
	m.ranges[id] = &trackedRange{start: s, end: e, style: style}
	return id
}

// RemoveTrackedRanges stops tracking the given ranges. Unknown ids are ignored.
func (m *Memory) RemoveTrackedRanges(ids ...string) {
	for _, id := range ids {
		delete(m.ranges, id)
	}
}

// UpdateTrackedRangeStyle restyles a range.
func (m *Memory) UpdateTrackedRangeStyle(id string, style Style) {
	if tr, ok := m.ranges[id]; ok {
		tr.style = style
	}
}

// UpdateTrackedRange moves and restyles a range.
func (m *Memory) UpdateTrackedRange(id string, r Range, style Style) bool {
	tr, ok := m.ranges[id]
	if !ok {
		return false
	}
	s, e := m.offset(r.Start), m.offset(r.End)
	if e < s {
		s, e = e, s
	}
	tr.start, tr.end, tr.style = s, e, style
	return true
}

// QueryTrackedRange returns the current bounds of a range.
func (m *Memory) QueryTrackedRange(id string) (Range, bool) {
	tr, ok := m.ranges[id]
	if !ok {
		return Range{}, false
	}
	return Range{Start: m.position(tr.start), End: m.position(tr.end)}, true
}

// TrackedRangeStyle returns the style of a range.
func (m *Memory) TrackedRangeStyle(id string) (Style, bool) {
	tr, ok := m.ranges[id]
	if !ok {
		return 0, false
	}
	return tr.style, true
}

// CaretToScreenPosition maps a position to pixels. Wide runes (CJK, emoji)
// take two cells.
func (m *Memory) CaretToScreenPosition(p Position) ScreenPos {
	pos := m.position(m.offset(p))
	line := m.LineText(pos.Line)

	cells := 0
	for i, r := range []rune(line) {
		if i >= pos.Column-1 {
			break
		}
		cells += runeCells(r)
	}
	return ScreenPos{
		X: cells * m.cellWidth,
		Y: (pos.Line - 1) * m.cellHeight,
	}
}

func runeCells(r rune) int {
	if r == '\t' {
		return 4
	}
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// LeadingWhitespace returns the indentation of a line.
func LeadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
