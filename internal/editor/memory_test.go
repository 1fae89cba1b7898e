package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_Lines(t *testing.T) {
	m := NewMemory("FEATURE Login {\n    SCENARIO \"a\" {\n    }\n}")

	assert.Equal(t, 4, m.LineCount())
	assert.Equal(t, "FEATURE Login {", m.LineText(1))
	assert.Equal(t, "}", m.LineText(4))
	assert.Equal(t, "", m.LineText(0))
	assert.Equal(t, "", m.LineText(5))

	empty := NewMemory("")
	assert.Equal(t, 1, empty.LineCount())
	assert.Equal(t, "", empty.LineText(1))

	trailing := NewMemory("a\n")
	assert.Equal(t, 2, trailing.LineCount())
	assert.Equal(t, "", trailing.LineText(2))
}

func TestMemory_InsertOrReplace(t *testing.T) {
	m := NewMemory("hello\nworld")
	v := m.Version()

	m.InsertOrReplace(LineRange(2, 1, 6), "there")
	assert.Equal(t, "hello\nthere", m.Text())
	assert.Greater(t, m.Version(), v)

	m.InsertOrReplace(Point(Position{Line: 1, Column: 6}), ",\nbig")
	assert.Equal(t, "hello,\nbig\nthere", m.Text())
	assert.Equal(t, 3, m.LineCount())

	// Columns past the end of a line clamp to the line end.
	m.InsertOrReplace(Point(Position{Line: 2, Column: 99}), "!")
	assert.Equal(t, "big!", m.LineText(2))
}

func TestMemory_RuneColumns(t *testing.T) {
	m := NewMemory(`FILL ‹target› WITH "‹value›"`)

	// ‹target› spans columns 6..13 inclusive.
	m.InsertOrReplace(LineRange(1, 6, 14), "Login.email")
	assert.Equal(t, `FILL Login.email WITH "‹value›"`, m.Text())
}

func TestMemory_TrackedRanges(t *testing.T) {
	tests := []struct {
		name  string
		edit  Range
		text  string
		start int
		end   int
	}{
		{"insert before shifts", Point(Position{Line: 1, Column: 1}), "XX", 8, 12},
		{"insert at start shifts", Point(Position{Line: 1, Column: 6}), "XX", 8, 12},
		{"insert at end does not grow", Point(Position{Line: 1, Column: 10}), "XX", 6, 10},
		{"insert after leaves alone", Point(Position{Line: 1, Column: 12}), "XX", 6, 10},
		{"insert inside grows", Point(Position{Line: 1, Column: 8}), "XX", 6, 12},
		{"exact replacement resizes", LineRange(1, 6, 10), "abcdefgh", 6, 14},
		{"delete inside shrinks", LineRange(1, 7, 9), "", 6, 8},
		{"straddle start clamps", LineRange(1, 4, 8), "Z", 5, 7},
		{"straddle end clamps", LineRange(1, 8, 12), "Z", 6, 8},
		{"cover whole collapses to edit", LineRange(1, 2, 14), "QQ", 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			//                    123456789012345
			m := NewMemory("abcd ‹xy› efghij")
			id := m.CreateTrackedRange(LineRange(1, 6, 10), StylePlaceholder)

			m.InsertOrReplace(tt.edit, tt.text)

			got, ok := m.QueryTrackedRange(id)
			require.True(t, ok)
			assert.Equal(t, LineRange(1, tt.start, tt.end), got)
		})
	}
}

func TestMemory_TrackedRangeAcrossLines(t *testing.T) {
	m := NewMemory("a\nCLICK ‹target›")
	id := m.CreateTrackedRange(LineRange(2, 7, 15), StylePlaceholder)

	m.InsertOrReplace(Point(Position{Line: 1, Column: 1}), "line\n")

	got, ok := m.QueryTrackedRange(id)
	require.True(t, ok)
	assert.Equal(t, LineRange(3, 7, 15), got)
	assert.Equal(t, "CLICK ‹target›", m.LineText(3))
}

func TestMemory_TrackedRangeLifecycle(t *testing.T) {
	m := NewMemory("CLICK ‹target›")
	a := m.CreateTrackedRange(LineRange(1, 7, 15), StylePlaceholder)
	b := m.CreateTrackedRange(LineRange(1, 1, 6), StylePlaceholder)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, m.TrackedRangeCount())

	m.UpdateTrackedRangeStyle(a, StylePlaceholderActive)
	style, ok := m.TrackedRangeStyle(a)
	require.True(t, ok)
	assert.Equal(t, StylePlaceholderActive, style)

	assert.True(t, m.UpdateTrackedRange(a, LineRange(1, 7, 9), StylePlaceholderFilled))
	got, _ := m.QueryTrackedRange(a)
	assert.Equal(t, LineRange(1, 7, 9), got)
	assert.False(t, m.UpdateTrackedRange("missing", LineRange(1, 1, 1), StylePlaceholder))

	m.RemoveTrackedRanges(a, b, "missing")
	assert.Equal(t, 0, m.TrackedRangeCount())
	_, ok = m.QueryTrackedRange(a)
	assert.False(t, ok)
}

func TestMemory_SetTextDropsRanges(t *testing.T) {
	m := NewMemory("CLICK ‹target›")
	m.CreateTrackedRange(LineRange(1, 7, 15), StylePlaceholder)

	m.SetText("REFRESH")
	assert.Equal(t, 0, m.TrackedRangeCount())
	assert.Equal(t, "REFRESH", m.Text())
}

func TestMemory_CaretToScreenPosition(t *testing.T) {
	m := NewMemory("ab\n日本x", WithCellSize(10, 20))

	assert.Equal(t, ScreenPos{X: 0, Y: 0}, m.CaretToScreenPosition(Position{Line: 1, Column: 1}))
	assert.Equal(t, ScreenPos{X: 20, Y: 0}, m.CaretToScreenPosition(Position{Line: 1, Column: 3}))
	assert.Equal(t, ScreenPos{X: 40, Y: 20}, m.CaretToScreenPosition(Position{Line: 2, Column: 3}))
}

func TestMemory_OffsetPositionRoundTrip(t *testing.T) {
	m := NewMemory("one\ntwo ‹x›\n\nfour")
	for off := 0; off <= len([]rune(m.Text())); off++ {
		assert.Equal(t, off, m.Offset(m.PositionAt(off)), "offset %d", off)
	}
}

func TestRecorder(t *testing.T) {
	m := NewMemory("CLICK ‹target›")
	var seen []string
	rec := NewRecorder(m)
	rec.Before = func(e Edit) { seen = append(seen, m.Text()) }

	rec.InsertOrReplace(LineRange(1, 7, 15), "Home.link")
	rec.InsertOrReplace(Point(Position{Line: 1, Column: 1}), "    ")

	edits := rec.Take()
	require.Len(t, edits, 2)
	assert.Equal(t, "Home.link", edits[0].Text)
	assert.Equal(t, []string{"CLICK ‹target›", "CLICK Home.link"}, seen)
	assert.Equal(t, "    CLICK Home.link", m.Text())
	assert.Empty(t, rec.Take())
}

func TestRange(t *testing.T) {
	r := LineRange(2, 5, 9)
	assert.True(t, r.Contains(Position{Line: 2, Column: 5}))
	assert.True(t, r.Contains(Position{Line: 2, Column: 9}))
	assert.False(t, r.Contains(Position{Line: 2, Column: 10}))
	assert.False(t, r.Contains(Position{Line: 1, Column: 6}))
	assert.True(t, Point(Position{Line: 1, Column: 1}).Empty())
	assert.Equal(t, "2:5-2:9", r.String())
}

func TestLeadingWhitespace(t *testing.T) {
	assert.Equal(t, "    ", LeadingWhitespace("    CLICK x"))
	assert.Equal(t, "\t", LeadingWhitespace("\t/"))
	assert.Equal(t, "", LeadingWhitespace("x"))
}
