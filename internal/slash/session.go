package slash

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/internal/hooks"
	"github.com/leapstack-labs/verokit/internal/pages"
	"github.com/leapstack-labs/verokit/internal/placeholder"
	"github.com/leapstack-labs/verokit/pkg/catalog"
	"github.com/leapstack-labs/verokit/pkg/snippet"
)

// DefaultTrigger is the character that opens the palette.
const DefaultTrigger = "/"

// Session errors.
var (
	ErrNotOpen       = errors.New("palette is not open")
	ErrNotFilling    = errors.New("no fill cycle in progress")
	ErrUnknownSlot   = errors.New("unknown slot")
	ErrNoPlaceholder = errors.New("slot has no placeholder in the buffer")
	ErrBadLine       = errors.New("line out of range")
)

// Options configures a Session.
type Options struct {
	// Trigger is the palette trigger text. Defaults to DefaultTrigger.
	Trigger string
	// IndentUnit is one indentation level for hook blocks.
	IndentUnit string
	// OnHandoff runs when the handoff action is selected.
	OnHandoff HandoffFunc
	Logger    *slog.Logger
}

// Session runs the builder for one editing session. It owns its machine and
// tracker; sessions never share them.
//
// A Session is not safe for concurrent use. Hosts feed it one event at a
// time.
type Session struct {
	buf      editor.Buffer
	machine  *Machine
	tracker  *placeholder.Tracker
	inserter *hooks.Inserter
	trigger  string
	logger   *slog.Logger

	// values holds the resolved slot values of the current cycle.
	values map[string]snippet.Value
	indent string
}

// NewSession creates a closed session over buf.
func NewSession(buf editor.Buffer, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	trigger := opts.Trigger
	if trigger == "" {
		trigger = DefaultTrigger
	}
	ins := hooks.NewInserter(buf, logger)
	if opts.IndentUnit != "" {
		ins.IndentUnit = opts.IndentUnit
	}
	return &Session{
		buf:      buf,
		machine:  NewMachine(opts.OnHandoff, logger),
		tracker:  placeholder.NewTracker(buf),
		inserter: ins,
		trigger:  trigger,
		logger:   logger,
		values:   make(map[string]snippet.Value),
	}
}

// State returns the builder state. Placeholder bounds are read from the
// buffer, so they reflect every edit made since the cycle began.
func (s *Session) State() State {
	st := s.machine.State()
	if st.Kind == KindFilling {
		st.Placeholders = s.tracker.List()
	}
	return st
}

// Trigger returns the palette trigger text.
func (s *Session) Trigger() string {
	return s.trigger
}

// IsTriggerLine reports whether line holds nothing but the trigger.
func (s *Session) IsTriggerLine(line int) bool {
	return strings.TrimSpace(s.buf.LineText(line)) == s.trigger
}

// OpenPalette opens the palette for line. It is ignored unless the builder
// is closed.
func (s *Session) OpenPalette(pos editor.ScreenPos, line int) bool {
	return s.machine.Trigger(pos, line)
}

// Selection reports what SelectAction did.
type Selection struct {
	// Cursor is where the caret should go.
	Cursor editor.Position `json:"cursor"`
	// Hook is set when a hook action ran.
	Hook *hooks.Result `json:"hook,omitempty"`
	// Handoff is true when the handoff callback fired.
	Handoff bool `json:"handoff,omitempty"`
}

// SelectAction applies the action picked in the palette to line.
//
// The handoff action fires the handoff callback and changes nothing. A hook
// action removes the trigger line and inserts or focuses the hook block with
// no fill cycle. Any other action replaces the line with its slot template,
// keeping the line's indentation, and starts tracking the blanks.
func (s *Session) SelectAction(action catalog.ActionDef, line int) (Selection, error) {
	if s.machine.State().Kind != KindPalette {
		return Selection{}, ErrNotOpen
	}
	if line < 1 || line > s.buf.LineCount() {
		return Selection{}, fmt.Errorf("line %d: %w", line, ErrBadLine)
	}

	switch {
	case action.Handoff:
		s.machine.Select(action, line)
		return Selection{Cursor: editor.Position{Line: line, Column: 1}, Handoff: true}, nil

	case action.IsHook():
		s.machine.Select(action, line)
		s.removeTriggerLine(line)
		res := s.inserter.Apply(min(line, s.buf.LineCount()), action.Hook)
		return Selection{Cursor: res.Cursor, Hook: &res}, nil
	}

	s.machine.Select(action, line)
	s.values = make(map[string]snippet.Value)
	s.indent = editor.LeadingWhitespace(s.buf.LineText(line))

	text := s.indent + action.SlotTemplate
	s.replaceLine(line, text)

	list := s.tracker.Create(line, action)
	s.machine.Register(list)
	s.logger.Debug("template inserted", "action", action.ID, "line", line, "placeholders", len(list))

	if len(list) == 0 {
		// Nothing to fill; the statement is already complete.
		s.finish()
		return Selection{Cursor: s.endOfLine(line)}, nil
	}

	first := list[0]
	s.tracker.SetActive(first.SlotID)
	return Selection{Cursor: editor.Position{Line: first.Line, Column: first.StartColumn}}, nil
}

// OpenSlotPopup activates a slot and returns its popup. snap supplies page
// completions and may be nil.
func (s *Session) OpenSlotPopup(slotID string, pos editor.ScreenPos, snap *pages.Snapshot) (Popup, error) {
	st := s.machine.State()
	if st.Kind != KindFilling {
		return nil, ErrNotFilling
	}
	slot, ok := st.Action.Slot(slotID)
	if !ok {
		return nil, fmt.Errorf("%s: %w", slotID, ErrUnknownSlot)
	}
	if !s.tracker.Has(slotID) {
		return nil, fmt.Errorf("%s: %w", slotID, ErrNoPlaceholder)
	}

	s.machine.OpenPopup(slotID, pos)
	s.tracker.SetActive(slotID)

	current := ""
	if v, ok := s.values[slotID]; ok {
		current = v.String()
	}
	return NewPopup(slot, pos, snap, current), nil
}

// FillSlot validates value, writes it over the slot's blank, and activates
// the first unfilled slot in catalog order. When every slot is filled the cycle closes and the
// tracked ranges are released.
//
// Text values are validated with snippet.Resolve. Target values are accepted
// as given for target slots. A failed validation changes nothing.
func (s *Session) FillSlot(slotID string, value snippet.Value) error {
	st := s.machine.State()
	if st.Kind != KindFilling {
		return ErrNotFilling
	}
	slot, ok := st.Action.Slot(slotID)
	if !ok {
		return fmt.Errorf("%s: %w", slotID, ErrUnknownSlot)
	}

	v, err := accept(slot, value)
	if err != nil {
		return err
	}

	r, ok := s.tracker.Get(slotID)
	if !ok {
		return fmt.Errorf("%s: %w", slotID, ErrNoPlaceholder)
	}

	runes := []rune(s.buf.LineText(r.Line))
	start, end := r.StartColumn, r.EndColumn
	quoted := start >= 2 && end-1 < len(runes) && runes[start-2] == '"' && runes[end-1] == '"'

	text := snippet.Render(v, quoted)
	if text == "" && quoted {
		// An empty quoted value drops its quotes too.
		start, end = start-1, end+1
	}

	s.buf.InsertOrReplace(editor.LineRange(r.Line, start, end), text)
	newEnd := start + utf8.RuneCountInString(text)
	s.tracker.MarkFilled(slotID, start, newEnd)
	s.values[slotID] = v
	s.logger.Debug("slot filled", "slot", slotID, "line", r.Line, "start", start, "end", newEnd)

	s.machine.Fill(slotID, start, newEnd)
	if s.machine.State().Kind == KindClosed {
		s.finish()
		return nil
	}
	s.tracker.SetActive(s.machine.State().ActiveSlotID)
	return nil
}

// accept checks a value against its slot.
func accept(slot catalog.SlotDef, v snippet.Value) (snippet.Value, error) {
	if t, ok := v.TargetValue(); ok {
		switch slot.Kind {
		case catalog.SlotTargetRef:
			return v, nil
		case catalog.SlotActionRef:
			if t.Kind == snippet.TargetPageRef {
				return v, nil
			}
			return snippet.Value{}, fmt.Errorf("%s: action must be Page.action: %w", slot.ID, snippet.ErrBadTarget)
		}
	}
	return snippet.Resolve(slot, v.String())
}

// CloseSlotPopup dismisses the popup and deactivates its slot.
func (s *Session) CloseSlotPopup() bool {
	if !s.machine.ClosePopup() {
		return false
	}
	s.tracker.SetActive("")
	return true
}

// Cancel ends the flow from any state and releases every tracked range. Text
// already written stays in the buffer.
func (s *Session) Cancel() {
	s.machine.Cancel()
	s.tracker.Clear()
	s.values = make(map[string]snippet.Value)
}

// ClickAt opens the popup of the unfilled blank under p, if any.
func (s *Session) ClickAt(p editor.Position, snap *pages.Snapshot) (Popup, bool) {
	if s.machine.State().Kind != KindFilling {
		return nil, false
	}
	r, ok := s.tracker.At(p.Line, p.Column)
	if !ok {
		return nil, false
	}
	return s.openAt(r, snap)
}

// NextSlot opens the popup of the next unfilled slot, wrapping around.
func (s *Session) NextSlot(snap *pages.Snapshot) (Popup, bool) {
	return s.step(s.tracker.Next, snap)
}

// PrevSlot opens the popup of the previous unfilled slot, wrapping around.
func (s *Session) PrevSlot(snap *pages.Snapshot) (Popup, bool) {
	return s.step(s.tracker.Prev, snap)
}

func (s *Session) step(scan func(string) (placeholder.Range, bool), snap *pages.Snapshot) (Popup, bool) {
	st := s.machine.State()
	if st.Kind != KindFilling {
		return nil, false
	}
	r, ok := scan(st.ActiveSlotID)
	if !ok {
		return nil, false
	}
	return s.openAt(r, snap)
}

func (s *Session) openAt(r placeholder.Range, snap *pages.Snapshot) (Popup, bool) {
	pos := s.buf.CaretToScreenPosition(editor.Position{Line: r.Line, Column: r.StartColumn})
	p, err := s.OpenSlotPopup(r.SlotID, pos, snap)
	if err != nil {
		return nil, false
	}
	return p, true
}

// Values returns a copy of the values resolved so far in this cycle.
func (s *Session) Values() map[string]snippet.Value {
	out := make(map[string]snippet.Value, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Compose returns the statement the current values build, or false while a
// required slot is still open.
func (s *Session) Compose() (string, bool) {
	st := s.machine.State()
	if st.Action == nil {
		return "", false
	}
	return snippet.Build(*st.Action, s.values, s.indent)
}

// finish closes the cycle after the last slot: it releases the ranges and
// trims whitespace left behind by empty optional slots.
func (s *Session) finish() {
	line := 0
	if st := s.machine.State(); st.Kind == KindFilling {
		s.machine.Cancel()
	}
	if r := s.tracker.List(); len(r) > 0 {
		line = r[0].Line
	}
	s.tracker.Clear()
	if line > 0 {
		s.trimTrailing(line)
	}
}

func (s *Session) trimTrailing(line int) {
	text := s.buf.LineText(line)
	trimmed := strings.TrimRight(text, " \t")
	if trimmed == text || strings.TrimSpace(trimmed) == "" {
		return
	}
	n := utf8.RuneCountInString(text)
	s.buf.InsertOrReplace(editor.LineRange(line, utf8.RuneCountInString(trimmed)+1, n+1), "")
}

func (s *Session) replaceLine(line int, text string) {
	n := utf8.RuneCountInString(s.buf.LineText(line))
	s.buf.InsertOrReplace(editor.LineRange(line, 1, n+1), text)
}

// removeTriggerLine deletes line when it holds only the trigger or nothing.
func (s *Session) removeTriggerLine(line int) {
	text := strings.TrimSpace(s.buf.LineText(line))
	if text != "" && text != s.trigger {
		return
	}
	if line < s.buf.LineCount() {
		s.buf.InsertOrReplace(editor.Range{
			Start: editor.Position{Line: line, Column: 1},
			End:   editor.Position{Line: line + 1, Column: 1},
		}, "")
		return
	}
	s.replaceLine(line, "")
}

func (s *Session) endOfLine(line int) editor.Position {
	return editor.Position{Line: line, Column: utf8.RuneCountInString(s.buf.LineText(line)) + 1}
}
