package slash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/internal/pages"
	"github.com/leapstack-labs/verokit/internal/testutil"
	"github.com/leapstack-labs/verokit/pkg/catalog"
	"github.com/leapstack-labs/verokit/pkg/snippet"
)

const featureWithTrigger = "feature Login {\n    /\n}\n"

func newSession(t *testing.T, text string, opts Options) (*Session, *editor.Memory) {
	t.Helper()
	buf := editor.NewMemory(text)
	if opts.Logger == nil {
		opts.Logger = testutil.NewTestLogger(t)
	}
	return NewSession(buf, opts), buf
}

func startFill(t *testing.T, s *Session, line int) {
	t.Helper()
	require.True(t, s.OpenPalette(editor.ScreenPos{}, line))
	_, err := s.SelectAction(lookup(t, "fill"), line)
	require.NoError(t, err)
}

func TestSession_FillCycle(t *testing.T) {
	s, buf := newSession(t, featureWithTrigger, Options{})

	require.True(t, s.OpenPalette(editor.ScreenPos{X: 32, Y: 18}, 2))
	sel, err := s.SelectAction(lookup(t, "fill"), 2)
	require.NoError(t, err)

	assert.Equal(t, `    FILL ‹target› WITH "‹value›"`, buf.LineText(2))
	assert.Equal(t, editor.Position{Line: 2, Column: 10}, sel.Cursor)
	assert.Equal(t, 2, buf.TrackedRangeCount())

	st := s.State()
	require.Equal(t, KindFilling, st.Kind)
	assert.Equal(t, "target", st.ActiveSlotID)
	require.Len(t, st.Placeholders, 2)
	assert.Equal(t, 10, st.Placeholders[0].StartColumn)
	assert.Equal(t, 25, st.Placeholders[1].StartColumn)

	require.NoError(t, s.FillSlot("target", snippet.Target(snippet.NewPageRef("LoginPage", "emailInput"))))
	assert.Equal(t, `    FILL LoginPage.emailInput WITH "‹value›"`, buf.LineText(2))

	st = s.State()
	assert.Equal(t, "value", st.ActiveSlotID)
	assert.True(t, st.Placeholders[0].Filled)
	assert.Equal(t, 30, st.Placeholders[0].EndColumn)
	assert.Equal(t, 37, st.Placeholders[1].StartColumn)

	_, ready := s.Compose()
	assert.False(t, ready)

	require.NoError(t, s.FillSlot("value", snippet.Text("a@b.com")))
	assert.Equal(t, `    FILL LoginPage.emailInput WITH "a@b.com"`, buf.LineText(2))
	assert.True(t, s.State().Closed())
	assert.Equal(t, 0, buf.TrackedRangeCount(), "ranges released when the cycle closes")
}

func TestSession_ComposeMatchesBuffer(t *testing.T) {
	s, buf := newSession(t, "  /\n", Options{})
	require.True(t, s.OpenPalette(editor.ScreenPos{}, 1))
	_, err := s.SelectAction(lookup(t, "drag"), 1)
	require.NoError(t, err)

	require.NoError(t, s.FillSlot("source", snippet.Text(`CSS "#a"`)))
	text, ready := s.Compose()
	assert.False(t, ready)
	assert.Empty(t, text)

	// The composed text is available right before the last fill.
	values := s.Values()
	values["destination"] = snippet.Target(snippet.NewPageRef("Board", "slot"))
	want, ok := snippet.Build(lookup(t, "drag"), values, "  ")
	require.True(t, ok)

	require.NoError(t, s.FillSlot("destination", snippet.Target(snippet.NewPageRef("Board", "slot"))))
	assert.Equal(t, want, buf.LineText(1))
	assert.Equal(t, `  DRAG CSS "#a" TO Board.slot`, buf.LineText(1))
}

func TestSession_EscapesQuotedText(t *testing.T) {
	s, buf := newSession(t, "/", Options{})
	require.True(t, s.OpenPalette(editor.ScreenPos{}, 1))
	_, err := s.SelectAction(lookup(t, "log"), 1)
	require.NoError(t, err)

	require.NoError(t, s.FillSlot("message", snippet.Text(`say "hi"`)))
	assert.Equal(t, `LOG "say \"hi\""`, buf.LineText(1))
}

func TestSession_OptionalEmptyDropsQuotes(t *testing.T) {
	s, buf := newSession(t, "/\n", Options{})
	require.True(t, s.OpenPalette(editor.ScreenPos{}, 1))
	_, err := s.SelectAction(lookup(t, "screenshot"), 1)
	require.NoError(t, err)
	assert.Equal(t, `TAKE SCREENSHOT "‹name›"`, buf.LineText(1))

	require.NoError(t, s.FillSlot("name", snippet.Text("")))
	assert.Equal(t, "TAKE SCREENSHOT", buf.LineText(1))
	assert.True(t, s.State().Closed())
}

func TestSession_NoSlotActionCompletesImmediately(t *testing.T) {
	s, buf := newSession(t, "    /\n", Options{})
	require.True(t, s.OpenPalette(editor.ScreenPos{}, 1))
	sel, err := s.SelectAction(lookup(t, "refresh"), 1)
	require.NoError(t, err)

	assert.Equal(t, "    REFRESH", buf.LineText(1))
	assert.Equal(t, editor.Position{Line: 1, Column: 12}, sel.Cursor)
	assert.True(t, s.State().Closed())
}

func TestSession_ValidationFailureChangesNothing(t *testing.T) {
	s, buf := newSession(t, "/\n", Options{})
	require.True(t, s.OpenPalette(editor.ScreenPos{}, 1))
	_, err := s.SelectAction(lookup(t, "wait"), 1)
	require.NoError(t, err)

	err = s.FillSlot("seconds", snippet.Text("soon"))
	require.ErrorIs(t, err, snippet.ErrNotInteger)
	assert.Equal(t, "WAIT ‹seconds› SECONDS", buf.LineText(1))
	assert.Equal(t, KindFilling, s.State().Kind)

	require.NoError(t, s.FillSlot("seconds", snippet.Text("007")))
	assert.Equal(t, "WAIT 7 SECONDS", buf.LineText(1))
}

func TestSession_FillErrors(t *testing.T) {
	s, _ := newSession(t, featureWithTrigger, Options{})
	assert.ErrorIs(t, s.FillSlot("target", snippet.Text("A.b")), ErrNotFilling)

	startFill(t, s, 2)
	assert.ErrorIs(t, s.FillSlot("nope", snippet.Text("x")), ErrUnknownSlot)

	_, err := s.OpenSlotPopup("nope", editor.ScreenPos{}, nil)
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestSession_SelectRequiresPalette(t *testing.T) {
	s, buf := newSession(t, featureWithTrigger, Options{})
	_, err := s.SelectAction(lookup(t, "fill"), 2)
	require.ErrorIs(t, err, ErrNotOpen)
	assert.Equal(t, featureWithTrigger, buf.Text())

	require.True(t, s.OpenPalette(editor.ScreenPos{}, 2))
	_, err = s.SelectAction(lookup(t, "fill"), 99)
	assert.ErrorIs(t, err, ErrBadLine)
}

func TestSession_TriggerIgnoredWhileFilling(t *testing.T) {
	s, _ := newSession(t, featureWithTrigger, Options{})
	startFill(t, s, 2)
	assert.False(t, s.OpenPalette(editor.ScreenPos{}, 1))
	assert.Equal(t, KindFilling, s.State().Kind)
}

func TestSession_CancelReleasesRanges(t *testing.T) {
	s, buf := newSession(t, featureWithTrigger, Options{})
	startFill(t, s, 2)
	require.Equal(t, 2, buf.TrackedRangeCount())

	s.Cancel()
	assert.True(t, s.State().Closed())
	assert.Equal(t, 0, buf.TrackedRangeCount())
	// The template text stays where it was.
	assert.Equal(t, `    FILL ‹target› WITH "‹value›"`, buf.LineText(2))
}

func TestSession_PlaceholdersFollowEdits(t *testing.T) {
	s, buf := newSession(t, featureWithTrigger, Options{})
	startFill(t, s, 2)

	buf.InsertOrReplace(editor.Point(editor.Position{Line: 2, Column: 1}), "  ")
	buf.InsertOrReplace(editor.Point(editor.Position{Line: 1, Column: 1}), "# login\n")

	st := s.State()
	require.Len(t, st.Placeholders, 2)
	assert.Equal(t, 3, st.Placeholders[0].Line)
	assert.Equal(t, 12, st.Placeholders[0].StartColumn)
	assert.Equal(t, 27, st.Placeholders[1].StartColumn)

	require.NoError(t, s.FillSlot("target", snippet.Text("LoginPage.email")))
	assert.Equal(t, `      FILL LoginPage.email WITH "‹value›"`, buf.LineText(3))
}

func TestSession_ClickAtAndNavigation(t *testing.T) {
	snap := pages.NewSnapshot([]pages.Page{{
		Name:   "LoginPage",
		Fields: []pages.Field{{Name: "email", Selector: "#email"}},
	}})
	s, _ := newSession(t, featureWithTrigger, Options{})
	startFill(t, s, 2)

	p, ok := s.ClickAt(editor.Position{Line: 2, Column: 12}, snap)
	require.True(t, ok)
	tp, ok := p.(TargetPopup)
	require.True(t, ok)
	assert.Equal(t, "target", tp.Slot().ID)
	assert.Equal(t, []PageChoice{{Name: "LoginPage", Members: []string{"email"}}}, tp.Pages)
	assert.Equal(t, "target", s.State().ActiveSlotID)
	require.NotNil(t, s.State().PopupPosition)

	_, ok = s.ClickAt(editor.Position{Line: 2, Column: 2}, snap)
	assert.False(t, ok)

	p, ok = s.NextSlot(snap)
	require.True(t, ok)
	_, isText := p.(TextPopup)
	assert.True(t, isText)
	assert.Equal(t, "value", s.State().ActiveSlotID)

	p, ok = s.NextSlot(snap)
	require.True(t, ok)
	assert.Equal(t, "target", p.Slot().ID, "wraps back to the first slot")

	p, ok = s.PrevSlot(snap)
	require.True(t, ok)
	assert.Equal(t, "value", p.Slot().ID)

	assert.True(t, s.CloseSlotPopup())
	st := s.State()
	assert.Equal(t, "", st.ActiveSlotID)
	assert.Nil(t, st.PopupPosition)
}

func TestSession_FilledRangeIsNotClickTarget(t *testing.T) {
	s, _ := newSession(t, featureWithTrigger, Options{})
	startFill(t, s, 2)
	require.NoError(t, s.FillSlot("target", snippet.Text("LoginPage.email")))

	_, ok := s.ClickAt(editor.Position{Line: 2, Column: 12}, nil)
	assert.False(t, ok)

	// It can still be reopened explicitly and shows its value.
	p, err := s.OpenSlotPopup("target", editor.ScreenPos{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "target", p.Slot().ID)
	assert.Equal(t, "LoginPage.email", p.(TargetPopup).Current)
}

func TestSession_HookAction(t *testing.T) {
	s, buf := newSession(t, "feature X {\n    /\n}\n", Options{})
	require.True(t, s.OpenPalette(editor.ScreenPos{}, 2))

	sel, err := s.SelectAction(lookup(t, "beforeEach"), 2)
	require.NoError(t, err)
	require.NotNil(t, sel.Hook)
	assert.True(t, sel.Hook.Inserted)

	assert.Equal(t, "feature X {\n    BEFORE EACH {\n        \n    }\n\n\n}\n", buf.Text())
	assert.Equal(t, editor.Position{Line: 3, Column: 9}, sel.Cursor)
	assert.True(t, s.State().Closed())
	assert.Equal(t, 0, buf.TrackedRangeCount())
}

func TestSession_HandoffLeavesBuffer(t *testing.T) {
	called := 0
	s, buf := newSession(t, featureWithTrigger, Options{
		OnHandoff: func(a catalog.ActionDef, line int) { called++ },
	})
	require.True(t, s.OpenPalette(editor.ScreenPos{}, 2))
	sel, err := s.SelectAction(lookup(t, catalog.RecordActionID), 2)
	require.NoError(t, err)

	assert.True(t, sel.Handoff)
	assert.Equal(t, 1, called)
	assert.Equal(t, featureWithTrigger, buf.Text())
	assert.True(t, s.State().Closed())
}

func TestSession_MarkerSlotMismatch(t *testing.T) {
	// Only one blank for two slots: the unmatched slot is skipped.
	action := catalog.ActionDef{
		ID:           "pair",
		Label:        "PAIR",
		Template:     "PAIR {a} {b}",
		SlotTemplate: "PAIR ‹a› b",
		Slots: []catalog.SlotDef{
			{ID: "a", Kind: catalog.SlotFreeText, Label: "a"},
			{ID: "b", Kind: catalog.SlotFreeText, Label: "b"},
		},
	}
	s, buf := newSession(t, "/\n", Options{})
	require.True(t, s.OpenPalette(editor.ScreenPos{}, 1))
	_, err := s.SelectAction(action, 1)
	require.NoError(t, err)
	require.Len(t, s.State().Placeholders, 1)

	assert.ErrorIs(t, s.FillSlot("b", snippet.Text("x")), ErrNoPlaceholder)
	require.NoError(t, s.FillSlot("a", snippet.Text("x")))
	assert.Equal(t, "PAIR x b", buf.LineText(1))
	assert.True(t, s.State().Closed())
}

func TestSession_IsTriggerLine(t *testing.T) {
	s, _ := newSession(t, featureWithTrigger, Options{})
	assert.True(t, s.IsTriggerLine(2))
	assert.False(t, s.IsTriggerLine(1))
}

func TestNewPopup_Kinds(t *testing.T) {
	snap := pages.NewSnapshot([]pages.Page{
		{Name: "Login", Fields: []pages.Field{{Name: "email"}}, Actions: []pages.Action{{Name: "signIn"}}},
		{Name: "Empty"},
	})

	tests := []struct {
		slot catalog.SlotDef
		want any
	}{
		{catalog.SlotDef{ID: "t", Kind: catalog.SlotTargetRef}, TargetPopup{}},
		{catalog.SlotDef{ID: "a", Kind: catalog.SlotActionRef}, ActionPopup{}},
		{catalog.SlotDef{ID: "f", Kind: catalog.SlotFreeText}, TextPopup{}},
		{catalog.SlotDef{ID: "c", Kind: catalog.SlotFixedChoice, Options: []string{"UP"}}, ChoicePopup{}},
		{catalog.SlotDef{ID: "n", Kind: catalog.SlotInteger}, IntegerPopup{}},
		{catalog.SlotDef{ID: "k", Kind: catalog.SlotKeyName}, KeyPopup{}},
	}

	for _, tt := range tests {
		t.Run(tt.slot.Kind.String(), func(t *testing.T) {
			p := NewPopup(tt.slot, editor.ScreenPos{X: 4}, snap, "")
			assert.IsType(t, tt.want, p)
			assert.Equal(t, tt.slot.ID, p.Slot().ID)
			assert.Equal(t, 4, p.Position().X)
		})
	}

	ap := NewPopup(catalog.SlotDef{ID: "a", Kind: catalog.SlotActionRef}, editor.ScreenPos{}, snap, "").(ActionPopup)
	assert.Equal(t, []PageChoice{{Name: "Login", Members: []string{"signIn"}}}, ap.Pages)

	kp := NewPopup(catalog.SlotDef{ID: "k", Kind: catalog.SlotKeyName}, editor.ScreenPos{}, nil, "").(KeyPopup)
	assert.Contains(t, kp.Keys, "Enter")
	v, err := kp.Resolve("enter")
	require.NoError(t, err)
	assert.Equal(t, "Enter", v.String())
}

func TestSuggestions(t *testing.T) {
	snap := pages.NewSnapshot([]pages.Page{
		{Name: "Login", Fields: []pages.Field{{Name: "email"}, {Name: "password"}}, Actions: []pages.Action{{Name: "signIn"}}},
	})

	target := NewPopup(catalog.SlotDef{ID: "t", Kind: catalog.SlotTargetRef}, editor.ScreenPos{}, snap, "")
	got := Suggestions(target)
	assert.Equal(t, []string{"Login.email", "Login.password"}, got[:2])
	assert.Contains(t, got, `CSS "`)

	action := NewPopup(catalog.SlotDef{ID: "a", Kind: catalog.SlotActionRef}, editor.ScreenPos{}, snap, "")
	assert.Equal(t, []string{"Login.signIn"}, Suggestions(action))

	choice := NewPopup(catalog.SlotDef{ID: "c", Kind: catalog.SlotFixedChoice, Options: []string{"UP", "DOWN"}}, editor.ScreenPos{}, nil, "")
	assert.Equal(t, []string{"UP", "DOWN"}, Suggestions(choice))

	text := NewPopup(catalog.SlotDef{ID: "f", Kind: catalog.SlotFreeText}, editor.ScreenPos{}, nil, "")
	assert.Empty(t, Suggestions(text))
}

func TestSession_FillOutOfOrderReturnsToFirstBlank(t *testing.T) {
	s, buf := newSession(t, featureWithTrigger, Options{})
	startFill(t, s, 2)

	_, err := s.OpenSlotPopup("value", editor.ScreenPos{}, nil)
	require.NoError(t, err)
	require.NoError(t, s.FillSlot("value", snippet.Text("a@b.com")))

	assert.Equal(t, `    FILL ‹target› WITH "a@b.com"`, buf.LineText(2))
	st := s.State()
	require.Equal(t, KindFilling, st.Kind)
	assert.Equal(t, "target", st.ActiveSlotID)
}
