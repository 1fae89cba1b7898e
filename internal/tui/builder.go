// Package tui is a terminal front end for the slash builder: a palette to
// pick an action, then one prompt per blank until the statement is complete.
package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/internal/pages"
	"github.com/leapstack-labs/verokit/internal/slash"
	"github.com/leapstack-labs/verokit/pkg/catalog"
)

type screen int

const (
	screenPalette screen = iota
	screenSlot
	screenDone
)

// maxVisible caps the palette and suggestion lists.
const maxVisible = 8

// Result is what the builder left behind.
type Result struct {
	// Completed is true when a statement or hook was written.
	Completed bool
	// Cancelled is true when the user quit before finishing.
	Cancelled bool
	// Handoff is true when the recorder action was picked.
	Handoff bool
	// Action is the picked action, if any.
	Action string
	// Line is the line the statement ended up on.
	Line int
	// Statement is the text of Line.
	Statement string
}

// Model is the bubbletea model driving one slash.Session.
type Model struct {
	sess *slash.Session
	buf  *editor.Memory
	cat  *catalog.Catalog
	snap *pages.Snapshot
	line int
	keys keyMap

	screen   screen
	input    textinput.Model
	filtered []catalog.ActionDef
	selected int

	popup       slash.Popup
	suggestions []string
	typed       string // filters suggestions
	choice      int

	err    error
	result Result
}

// New creates a builder that opens the palette on line, which must hold
// only the trigger. The session must edit buf.
func New(sess *slash.Session, buf *editor.Memory, cat *catalog.Catalog, snap *pages.Snapshot, line int) *Model {
	in := textinput.New()
	in.Placeholder = "filter actions"
	in.Prompt = sess.Trigger()
	in.Focus()

	m := &Model{
		sess:  sess,
		buf:   buf,
		cat:   cat,
		snap:  snap,
		line:  line,
		keys:  defaultKeys(),
		input: in,
	}
	sess.OpenPalette(buf.CaretToScreenPosition(editor.Position{Line: line, Column: 1}), line)
	m.filtered = cat.Filter("")
	return m
}

// Result returns the outcome once the program has quit.
func (m *Model) Result() Result {
	return m.result
}

// Err returns the error that ended the program, if any.
func (m *Model) Err() error {
	if m.screen == screenDone && !m.result.Completed {
		return m.err
	}
	return nil
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update processes incoming events
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if key.Matches(keyMsg, m.keys.Quit) {
		return m.quit()
	}

	switch m.screen {
	case screenPalette:
		return m.updatePalette(keyMsg)
	case screenSlot:
		return m.updateSlot(keyMsg)
	}
	return m, nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	if m.screen != screenDone {
		m.sess.Cancel()
		m.result.Cancelled = true
	}
	m.screen = screenDone
	return m, tea.Quit
}

func (m *Model) updatePalette(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m.quit()

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.filtered)-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if len(m.filtered) == 0 {
			return m, nil
		}
		return m.selectAction(m.filtered[m.selected])
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.filtered = m.cat.Filter(m.input.Value())
	m.selected = 0
	return m, cmd
}

func (m *Model) selectAction(action catalog.ActionDef) (tea.Model, tea.Cmd) {
	sel, err := m.sess.SelectAction(action, m.line)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.result.Action = action.ID

	switch {
	case sel.Handoff:
		m.result.Handoff = true
		return m.finish(sel.Cursor.Line)
	case sel.Hook != nil:
		if !sel.Hook.Applied {
			m.err = fmt.Errorf("no FEATURE block around line %d", m.line)
			m.result.Cancelled = true
			m.screen = screenDone
			return m, tea.Quit
		}
		m.result.Completed = true
		return m.finish(sel.Hook.Line)
	}

	st := m.sess.State()
	if st.Kind != slash.KindFilling {
		// No slots: the statement is already complete.
		m.result.Completed = true
		return m.finish(m.line)
	}
	return m.openSlot(st.ActiveSlotID)
}

func (m *Model) openSlot(slotID string) (tea.Model, tea.Cmd) {
	r, ok := m.slotRange(slotID)
	if !ok {
		m.err = fmt.Errorf("%s: %w", slotID, slash.ErrNoPlaceholder)
		return m, nil
	}
	popup, err := m.sess.OpenSlotPopup(slotID, m.buf.CaretToScreenPosition(r.Start), m.snap)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.showPopup(popup)
	return m, nil
}

func (m *Model) showPopup(p slash.Popup) {
	m.screen = screenSlot
	m.popup = p
	m.suggestions = slash.Suggestions(p)
	m.typed = ""
	m.choice = -1
	m.err = nil

	slot := p.Slot()
	m.input.Reset()
	m.input.Prompt = slot.Label + ": "
	m.input.Placeholder = slot.Kind.String()
	if slot.Optional {
		m.input.Placeholder += " (optional)"
	}
}

func (m *Model) updateSlot(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m.quit()

	case key.Matches(msg, m.keys.Next), key.Matches(msg, m.keys.Prev):
		step := m.sess.NextSlot
		if key.Matches(msg, m.keys.Prev) {
			step = m.sess.PrevSlot
		}
		if p, ok := step(m.snap); ok {
			m.showPopup(p)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		visible := m.visibleSuggestions()
		if len(visible) == 0 {
			return m, nil
		}
		if key.Matches(msg, m.keys.Up) {
			m.choice = max(0, m.choice-1)
		} else {
			m.choice = min(len(visible)-1, m.choice+1)
		}
		m.input.SetValue(visible[m.choice])
		m.input.CursorEnd()
		return m, nil

	case key.Matches(msg, m.keys.Select):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.typed = m.input.Value()
	m.choice = -1
	return m, cmd
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	v, err := m.popup.Resolve(m.input.Value())
	if err != nil {
		m.err = err
		return m, nil
	}
	if err := m.sess.FillSlot(m.popup.Slot().ID, v); err != nil {
		m.err = err
		return m, nil
	}

	st := m.sess.State()
	if st.Kind != slash.KindFilling {
		m.result.Completed = true
		return m.finish(m.line)
	}
	if st.ActiveSlotID == "" {
		m.screen = screenSlot
		m.popup = nil
		return m, nil
	}
	return m.openSlot(st.ActiveSlotID)
}

func (m *Model) finish(line int) (tea.Model, tea.Cmd) {
	m.result.Line = line
	m.result.Statement = m.buf.LineText(line)
	m.screen = screenDone
	return m, tea.Quit
}

func (m *Model) slotRange(slotID string) (editor.Range, bool) {
	for _, p := range m.sess.State().Placeholders {
		if p.SlotID == slotID {
			return p.Span(), true
		}
	}
	return editor.Range{}, false
}

// visibleSuggestions are the suggestions matching what was typed.
func (m *Model) visibleSuggestions() []string {
	prefix := strings.ToLower(m.typed)
	var out []string
	for _, s := range m.suggestions {
		if strings.HasPrefix(strings.ToLower(s), prefix) {
			out = append(out, s)
		}
		if len(out) == maxVisible {
			break
		}
	}
	return out
}

// View is responsible for rendering the current UI
func (m *Model) View() string {
	if m.screen == screenDone {
		return ""
	}

	var b strings.Builder
	switch m.screen {
	case screenPalette:
		b.WriteString(titleStyle.Render("Insert statement") + "\n\n")
		b.WriteString(m.input.View() + "\n\n")
		m.viewPalette(&b)
		b.WriteString("\n" + helpStyle.Render(helpLine(m.keys.Up, m.keys.Down, m.keys.Select, m.keys.Cancel)))
	case screenSlot:
		b.WriteString(titleStyle.Render(m.sess.State().Action.Label) + "\n\n")
		b.WriteString(m.renderLine() + "\n\n")
		if m.popup != nil {
			b.WriteString(m.input.View() + "\n")
			for i, s := range m.visibleSuggestions() {
				if i == m.choice {
					b.WriteString(highlightStyle.Render("> "+s) + "\n")
				} else {
					b.WriteString(choiceStyle.Render("  "+s) + "\n")
				}
			}
		}
		b.WriteString("\n" + helpStyle.Render(helpLine(m.keys.Select, m.keys.Next, m.keys.Prev, m.keys.Cancel)))
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()))
	}
	return docStyle.Render(b.String())
}

func (m *Model) viewPalette(b *strings.Builder) {
	if len(m.filtered) == 0 {
		b.WriteString(choiceStyle.Render("No matching actions") + "\n")
		return
	}

	start := 0
	if m.selected >= maxVisible {
		start = m.selected - maxVisible + 1
	}
	end := min(len(m.filtered), start+maxVisible)

	last := ""
	for i := start; i < end; i++ {
		a := m.filtered[i]
		if title := a.Category.Title(); title != last {
			b.WriteString(categoryStyle.Render(title) + "\n")
			last = title
		}
		label := a.Label
		if a.Description != "" {
			label += "  " + choiceStyle.Render(a.Description)
		}
		if i == m.selected {
			b.WriteString(highlightStyle.Render("> "+a.Label) + strings.TrimPrefix(label, a.Label) + "\n")
		} else {
			b.WriteString("  " + label + "\n")
		}
	}
}

// renderLine shows the statement line with its blanks styled.
func (m *Model) renderLine() string {
	st := m.sess.State()
	runes := []rune(m.buf.LineText(st.Line))

	var b strings.Builder
	pos := 0
	for _, p := range st.Placeholders {
		if p.Filled || p.Line != st.Line {
			continue
		}
		start, end := p.StartColumn-1, p.EndColumn-1
		if start < pos || end > len(runes) {
			continue
		}
		b.WriteString(string(runes[pos:start]))
		style := blankStyle
		if p.SlotID == st.ActiveSlotID {
			style = activeBlankStyle
		}
		b.WriteString(style.Render(string(runes[start:end])))
		pos = end
	}
	b.WriteString(string(runes[pos:]))
	return b.String()
}

// PrepareTriggerLine puts the trigger on line, or on a new line below it
// when line already holds a statement, and returns the trigger's line. The
// new line takes line's indentation, one unit deeper after an opening brace.
func PrepareTriggerLine(buf *editor.Memory, line int, trigger, indentUnit string) int {
	text := buf.LineText(line)
	trimmed := strings.TrimSpace(text)
	indent := editor.LeadingWhitespace(text)
	end := utf8.RuneCountInString(text) + 1

	if trimmed == "" || trimmed == trigger {
		buf.InsertOrReplace(editor.LineRange(line, 1, end), indent+trigger)
		return line
	}
	if strings.HasSuffix(trimmed, "{") {
		indent += indentUnit
	}
	buf.InsertOrReplace(editor.Point(editor.Position{Line: line, Column: end}), "\n"+indent+trigger)
	return line + 1
}
