package placeholder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/pkg/catalog"
)

func fillAction(t *testing.T) catalog.ActionDef {
	t.Helper()
	a, ok := catalog.Default().Lookup("fill")
	require.True(t, ok)
	return a
}

func TestCreate_FillLine(t *testing.T) {
	buf := editor.NewMemory(`FILL ‹target› WITH "‹value›"`)
	tr := NewTracker(buf)

	ranges := tr.Create(1, fillAction(t))
	require.Len(t, ranges, 2)

	assert.Equal(t, "target", ranges[0].SlotID)
	assert.Equal(t, 1, ranges[0].Line)
	assert.Equal(t, 6, ranges[0].StartColumn)
	assert.Equal(t, 14, ranges[0].EndColumn)

	assert.Equal(t, "value", ranges[1].SlotID)
	assert.Equal(t, 21, ranges[1].StartColumn)
	assert.Equal(t, 28, ranges[1].EndColumn)

	line := []rune(buf.LineText(1))
	assert.Equal(t, "‹target›", string(line[ranges[0].StartColumn-1:ranges[0].EndColumn-1]))
	assert.Equal(t, "‹value›", string(line[ranges[1].StartColumn-1:ranges[1].EndColumn-1]))
	assert.Equal(t, 2, buf.TrackedRangeCount())
}

func TestCreate_CountMismatch(t *testing.T) {
	fill := fillAction(t)

	// Fewer markers than slots: the extra slot gets no range.
	buf := editor.NewMemory("FILL ‹target› WITH x")
	tr := NewTracker(buf)
	ranges := tr.Create(1, fill)
	require.Len(t, ranges, 1)
	assert.False(t, tr.Has("value"))

	// More markers than slots: extra markers stay unmanaged.
	buf = editor.NewMemory("FILL ‹a› ‹b› ‹c›")
	tr = NewTracker(buf)
	assert.Len(t, tr.Create(1, fill), 2)
	assert.Equal(t, 2, buf.TrackedRangeCount())
}

func TestClear_ReleasesRanges(t *testing.T) {
	buf := editor.NewMemory(`FILL ‹target› WITH "‹value›"`)
	tr := NewTracker(buf)
	tr.Create(1, fillAction(t))

	tr.Clear()
	assert.Equal(t, 0, buf.TrackedRangeCount())
	assert.Equal(t, 0, tr.Len())

	// Re-creating clears the previous list first.
	tr.Create(1, fillAction(t))
	tr.Create(1, fillAction(t))
	assert.Equal(t, 2, buf.TrackedRangeCount())
}

func TestRangesFollowEdits(t *testing.T) {
	buf := editor.NewMemory(`FILL ‹target› WITH "‹value›"`)
	tr := NewTracker(buf)
	tr.Create(1, fillAction(t))

	// Typing in front of the statement shifts both blanks.
	buf.InsertOrReplace(editor.Point(editor.Position{Line: 1, Column: 1}), "    ")
	// A new line above moves them down.
	buf.InsertOrReplace(editor.Point(editor.Position{Line: 1, Column: 1}), "USE Login\n")

	value, ok := tr.Get("value")
	require.True(t, ok)
	assert.Equal(t, 2, value.Line)
	assert.Equal(t, 25, value.StartColumn)
	assert.Equal(t, 32, value.EndColumn)
}

func TestMarkFilled(t *testing.T) {
	buf := editor.NewMemory(`FILL ‹target› WITH "‹value›"`)
	tr := NewTracker(buf)
	tr.Create(1, fillAction(t))

	target, _ := tr.Get("target")
	buf.InsertOrReplace(target.Span(), "Login.email")
	require.True(t, tr.MarkFilled("target", 6, 17))

	got, ok := tr.Get("target")
	require.True(t, ok)
	assert.True(t, got.Filled)
	assert.Equal(t, 6, got.StartColumn)
	assert.Equal(t, 17, got.EndColumn)

	style, _ := buf.TrackedRangeStyle(got.TrackedRangeID)
	assert.Equal(t, editor.StylePlaceholderFilled, style)
	assert.Equal(t, 2, buf.TrackedRangeCount(), "filled ranges are kept")

	// The value blank moved with the edit.
	value, _ := tr.Get("value")
	assert.Equal(t, 24, value.StartColumn)

	assert.False(t, tr.MarkFilled("nope", 1, 2))
}

func TestAt(t *testing.T) {
	buf := editor.NewMemory(`FILL ‹target› WITH "‹value›"`)
	tr := NewTracker(buf)
	tr.Create(1, fillAction(t))

	r, ok := tr.At(1, 8)
	require.True(t, ok)
	assert.Equal(t, "target", r.SlotID)

	r, ok = tr.At(1, 23)
	require.True(t, ok)
	assert.Equal(t, "value", r.SlotID)

	_, ok = tr.At(1, 16)
	assert.False(t, ok)
	_, ok = tr.At(2, 8)
	assert.False(t, ok)

	tr.MarkFilled("target", 6, 14)
	_, ok = tr.At(1, 8)
	assert.False(t, ok, "filled ranges are not click targets")
}

func TestNextPrev_Wraparound(t *testing.T) {
	buf := editor.NewMemory("DRAG ‹a› TO ‹b› AND ‹c›")
	action := catalog.ActionDef{
		ID:    "three",
		Slots: []catalog.SlotDef{{ID: "a"}, {ID: "b"}, {ID: "c"}},
	}
	tr := NewTracker(buf)
	require.Len(t, tr.Create(1, action), 3)

	next := func(id string) string {
		r, ok := tr.Next(id)
		require.True(t, ok)
		return r.SlotID
	}
	prev := func(id string) string {
		r, ok := tr.Prev(id)
		require.True(t, ok)
		return r.SlotID
	}

	assert.Equal(t, "b", next("a"))
	assert.Equal(t, "a", next("c"), "wraps past the end")
	assert.Equal(t, "c", prev("a"), "wraps past the start")
	assert.Equal(t, "a", next(""))
	assert.Equal(t, "c", prev(""))

	tr.MarkFilled("b", 13, 16)
	assert.Equal(t, "c", next("a"), "skips filled")
	assert.Equal(t, "a", prev("c"))

	tr.MarkFilled("a", 6, 9)
	tr.MarkFilled("c", 21, 24)
	_, ok := tr.Next("a")
	assert.False(t, ok)
	_, ok = tr.Prev("a")
	assert.False(t, ok)
	assert.True(t, tr.AllFilled())
}

func TestSetActive(t *testing.T) {
	buf := editor.NewMemory(`FILL ‹target› WITH "‹value›"`)
	tr := NewTracker(buf)
	ranges := tr.Create(1, fillAction(t))

	tr.SetActive("value")
	assert.Equal(t, "value", tr.Active())

	s0, _ := buf.TrackedRangeStyle(ranges[0].TrackedRangeID)
	s1, _ := buf.TrackedRangeStyle(ranges[1].TrackedRangeID)
	assert.Equal(t, editor.StylePlaceholder, s0)
	assert.Equal(t, editor.StylePlaceholderActive, s1)

	tr.SetActive("")
	s1, _ = buf.TrackedRangeStyle(ranges[1].TrackedRangeID)
	assert.Equal(t, editor.StylePlaceholder, s1)
}
