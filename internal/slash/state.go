// Package slash drives the slash-builder flow: a trigger opens the palette,
// picking an action writes its template with ‹blanks›, and popups resolve the
// blanks one by one until the statement is complete.
//
// Machine is the pure state holder. Session wires it to a buffer, a
// placeholder tracker and the hook inserter for one editing session.
package slash

import (
	"log/slog"

	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/internal/placeholder"
	"github.com/leapstack-labs/verokit/pkg/catalog"
)

// Kind is the variant of State.
type Kind int

// Builder states.
const (
	KindClosed Kind = iota
	KindPalette
	KindFilling
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindClosed:
		return "closed"
	case KindPalette:
		return "palette"
	case KindFilling:
		return "filling"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// State is the builder state. Which fields are meaningful depends on Kind:
//
//	closed   nothing
//	palette  Position, Line
//	filling  Action, Line, Placeholders, ActiveSlotID, PopupPosition
type State struct {
	Kind Kind `json:"kind"`

	// Position is where the palette opens.
	Position editor.ScreenPos `json:"position"`
	Line     int              `json:"line"`

	Action       *catalog.ActionDef  `json:"action,omitempty"`
	Placeholders []placeholder.Range `json:"placeholders,omitempty"`
	// ActiveSlotID is "" when no slot is active.
	ActiveSlotID  string            `json:"activeSlotId,omitempty"`
	PopupPosition *editor.ScreenPos `json:"popupPosition,omitempty"`
}

// Closed reports whether the builder is idle.
func (s State) Closed() bool {
	return s.Kind == KindClosed
}

// HandoffFunc is called when the handoff action is selected.
type HandoffFunc func(action catalog.ActionDef, line int)

// Machine holds the builder state and applies events to it.
//
// Every transition is total: an event that does not apply to the current
// state is ignored and reported as not accepted. A trigger is only accepted
// while closed, so flows never overlap. Cancel is accepted from any state.
type Machine struct {
	state     State
	onHandoff HandoffFunc
	logger    *slog.Logger
}

// NewMachine returns a closed machine.
func NewMachine(onHandoff HandoffFunc, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Machine{onHandoff: onHandoff, logger: logger}
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	s := m.state
	s.Placeholders = append([]placeholder.Range(nil), m.state.Placeholders...)
	if m.state.PopupPosition != nil {
		pos := *m.state.PopupPosition
		s.PopupPosition = &pos
	}
	return s
}

func (m *Machine) transition(event string, next State) {
	m.logger.Debug("slash transition",
		"event", event,
		"from", m.state.Kind.String(),
		"to", next.Kind.String(),
		"active", next.ActiveSlotID,
	)
	m.state = next
}

func (m *Machine) ignore(event string) bool {
	m.logger.Debug("slash event ignored", "event", event, "state", m.state.Kind.String())
	return false
}

// Trigger opens the palette at pos for line.
func (m *Machine) Trigger(pos editor.ScreenPos, line int) bool {
	if m.state.Kind != KindClosed {
		return m.ignore("triggerTyped")
	}
	m.transition("triggerTyped", State{Kind: KindPalette, Position: pos, Line: line})
	return true
}

// Select picks an action from the palette.
//
// The handoff action fires the handoff callback and closes. Hook actions
// close as well; the caller inserts the hook block. Any other action starts a
// fill cycle with no placeholders yet.
func (m *Machine) Select(action catalog.ActionDef, line int) bool {
	if m.state.Kind != KindPalette {
		return m.ignore("select")
	}
	switch {
	case action.Handoff:
		m.transition("select", State{Kind: KindClosed})
		if m.onHandoff != nil {
			m.onHandoff(action, line)
		}
	case action.IsHook():
		m.transition("select", State{Kind: KindClosed})
	default:
		a := action
		m.transition("select", State{Kind: KindFilling, Action: &a, Line: line})
	}
	return true
}

// Register stores the placeholder list of the fill cycle and activates its
// first slot.
func (m *Machine) Register(list []placeholder.Range) bool {
	if m.state.Kind != KindFilling {
		return m.ignore("placeholdersRegistered")
	}
	next := m.state
	next.Placeholders = append([]placeholder.Range(nil), list...)
	next.ActiveSlotID = ""
	if len(list) > 0 {
		next.ActiveSlotID = list[0].SlotID
	}
	m.transition("placeholdersRegistered", next)
	return true
}

// OpenPopup activates a slot and records where its popup is shown.
func (m *Machine) OpenPopup(slotID string, pos editor.ScreenPos) bool {
	if m.state.Kind != KindFilling {
		return m.ignore("openPopup")
	}
	next := m.state
	next.ActiveSlotID = slotID
	next.PopupPosition = &pos
	m.transition("openPopup", next)
	return true
}

// ClosePopup deactivates the current slot.
func (m *Machine) ClosePopup() bool {
	if m.state.Kind != KindFilling {
		return m.ignore("closePopup")
	}
	next := m.state
	next.ActiveSlotID = ""
	next.PopupPosition = nil
	m.transition("closePopup", next)
	return true
}

// Fill marks a slot filled at its new columns. Once every placeholder is
// filled the machine closes. Otherwise the first unfilled slot in list order
// becomes active, whichever slot was filled.
func (m *Machine) Fill(slotID string, startCol, endCol int) bool {
	if m.state.Kind != KindFilling {
		return m.ignore("fillSlot")
	}

	next := m.state
	next.Placeholders = append([]placeholder.Range(nil), m.state.Placeholders...)
	found := false
	for i := range next.Placeholders {
		if next.Placeholders[i].SlotID == slotID {
			p := &next.Placeholders[i]
			p.StartColumn, p.EndColumn, p.Filled = startCol, endCol, true
			found = true
			break
		}
	}
	if !found {
		return m.ignore("fillSlot")
	}

	next.ActiveSlotID = ""
	next.PopupPosition = nil
	for _, p := range next.Placeholders {
		if !p.Filled {
			next.ActiveSlotID = p.SlotID
			break
		}
	}

	if next.ActiveSlotID == "" {
		m.transition("fillSlot", State{Kind: KindClosed})
		return true
	}
	m.transition("fillSlot", next)
	return true
}

// Cancel closes the builder from any state.
func (m *Machine) Cancel() bool {
	m.transition("cancel", State{Kind: KindClosed})
	return true
}
