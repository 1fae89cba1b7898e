// Package placeholder maps the visible ‹blanks› of an inserted template to
// tracked ranges in the buffer and navigates between them.
//
// The buffer owns every position. The tracker caches columns only for
// reporting and re-reads them from the buffer before any lookup.
package placeholder

import (
	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/pkg/catalog"
)

// Range is one managed blank.
type Range struct {
	SlotID         string `json:"slotId"`
	TrackedRangeID string `json:"trackedRangeId"`
	Line           int    `json:"line"`
	StartColumn    int    `json:"startColumn"`
	EndColumn      int    `json:"endColumn"`
	Filled         bool   `json:"filled"`
}

// Span returns the cached bounds as an editor range.
func (r Range) Span() editor.Range {
	return editor.LineRange(r.Line, r.StartColumn, r.EndColumn)
}

// Contains reports whether the cached span holds the point.
func (r Range) Contains(line, col int) bool {
	return r.Span().Contains(editor.Position{Line: line, Column: col})
}

// Tracker owns the placeholder list of one fill cycle.
type Tracker struct {
	buf    editor.Buffer
	ranges []Range
	active string
}

// NewTracker creates a tracker over buf.
func NewTracker(buf editor.Buffer) *Tracker {
	return &Tracker{buf: buf}
}

// Create scans a buffer line for markers and tracks one range per marker,
// pairing the Nth marker with the Nth slot of action. Pairing stops at the
// shorter list: extra markers stay unmanaged and extra slots get no range.
// Any previous list is cleared first.
func (t *Tracker) Create(line int, action catalog.ActionDef) []Range {
	t.Clear()

	markers := catalog.ScanMarkers(t.buf.LineText(line))
	n := min(len(markers), len(action.Slots))

	t.ranges = make([]Range, 0, n)
	for i := 0; i < n; i++ {
		m := markers[i]
		span := editor.LineRange(line, m.StartColumn, m.EndColumn)
		id := t.buf.CreateTrackedRange(span, editor.StylePlaceholder)
		t.ranges = append(t.ranges, Range{
			SlotID:         action.Slots[i].ID,
			TrackedRangeID: id,
			Line:           line,
			StartColumn:    m.StartColumn,
			EndColumn:      m.EndColumn,
		})
	}
	return t.List()
}

// Clear releases every tracked range.
func (t *Tracker) Clear() {
	if len(t.ranges) > 0 {
		ids := make([]string, len(t.ranges))
		for i, r := range t.ranges {
			ids[i] = r.TrackedRangeID
		}
		t.buf.RemoveTrackedRanges(ids...)
	}
	t.ranges = nil
	t.active = ""
}

// Len returns the number of managed ranges.
func (t *Tracker) Len() int {
	return len(t.ranges)
}

// List returns a copy of the ranges in slot order, with refreshed bounds.
func (t *Tracker) List() []Range {
	t.Refresh()
	out := make([]Range, len(t.ranges))
	copy(out, t.ranges)
	return out
}

// Refresh re-reads every range's bounds from the buffer.
func (t *Tracker) Refresh() {
	for i := range t.ranges {
		t.refreshOne(i)
	}
}

// Get returns the range of a slot with refreshed bounds.
func (t *Tracker) Get(slotID string) (Range, bool) {
	i := t.index(slotID)
	if i < 0 {
		return Range{}, false
	}
	t.refreshOne(i)
	return t.ranges[i], true
}

// Has reports whether a slot has a range.
func (t *Tracker) Has(slotID string) bool {
	return t.index(slotID) >= 0
}

// MarkFilled moves a slot's range to [startCol, endCol) on its current line
// and restyles it as filled. The range is kept so the user can click back
// onto it.
func (t *Tracker) MarkFilled(slotID string, startCol, endCol int) bool {
	i := t.index(slotID)
	if i < 0 {
		return false
	}
	t.refreshOne(i)
	r := &t.ranges[i]
	span := editor.LineRange(r.Line, startCol, endCol)
	if !t.buf.UpdateTrackedRange(r.TrackedRangeID, span, editor.StylePlaceholderFilled) {
		return false
	}
	r.StartColumn, r.EndColumn, r.Filled = startCol, endCol, true
	if t.active == slotID {
		t.active = ""
	}
	return true
}

// SetActive highlights one unfilled slot and un-highlights the others.
// An empty id clears the highlight.
func (t *Tracker) SetActive(slotID string) {
	t.active = slotID
	for _, r := range t.ranges {
		style := editor.StylePlaceholder
		switch {
		case r.Filled:
			style = editor.StylePlaceholderFilled
		case r.SlotID == slotID:
			style = editor.StylePlaceholderActive
		}
		t.buf.UpdateTrackedRangeStyle(r.TrackedRangeID, style)
	}
}

// Active returns the highlighted slot id, or "".
func (t *Tracker) Active() string {
	return t.active
}

// At returns the first unfilled range whose current span holds (line, col).
// Filled ranges are not click targets.
func (t *Tracker) At(line, col int) (Range, bool) {
	t.Refresh()
	for _, r := range t.ranges {
		if !r.Filled && r.Contains(line, col) {
			return r, true
		}
	}
	return Range{}, false
}

// Next returns the first unfilled range after currentSlotID, wrapping around
// the end of the list. An unknown or empty currentSlotID starts the scan
// from the beginning. It returns false only when every range is filled.
func (t *Tracker) Next(currentSlotID string) (Range, bool) {
	return t.scan(currentSlotID, 1)
}

// Prev is Next in reverse.
func (t *Tracker) Prev(currentSlotID string) (Range, bool) {
	return t.scan(currentSlotID, -1)
}

func (t *Tracker) scan(currentSlotID string, step int) (Range, bool) {
	n := len(t.ranges)
	if n == 0 {
		return Range{}, false
	}

	cur := t.index(currentSlotID)
	if cur < 0 {
		// Start just outside the list so the first probe lands on an end.
		if step > 0 {
			cur = -1
		} else {
			cur = n
		}
	}

	for k := 1; k <= n; k++ {
		i := ((cur+step*k)%n + n) % n
		if !t.ranges[i].Filled {
			t.refreshOne(i)
			return t.ranges[i], true
		}
	}
	return Range{}, false
}

// AllFilled reports whether every managed range is filled.
func (t *Tracker) AllFilled() bool {
	for _, r := range t.ranges {
		if !r.Filled {
			return false
		}
	}
	return true
}

func (t *Tracker) index(slotID string) int {
	if slotID == "" {
		return -1
	}
	for i, r := range t.ranges {
		if r.SlotID == slotID {
			return i
		}
	}
	return -1
}

func (t *Tracker) refreshOne(i int) {
	r, ok := t.buf.QueryTrackedRange(t.ranges[i].TrackedRangeID)
	if !ok {
		return
	}
	t.ranges[i].Line = r.Start.Line
	t.ranges[i].StartColumn = r.Start.Column
	t.ranges[i].EndColumn = r.End.Column
	if r.End.Line != r.Start.Line {
		// A range pushed across lines reports up to the end of its first line.
		t.ranges[i].EndColumn = len([]rune(t.buf.LineText(r.Start.Line))) + 1
	}
}
