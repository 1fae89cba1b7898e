package lsp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/internal/hooks"
	"github.com/leapstack-labs/verokit/internal/slash"
	"github.com/leapstack-labs/verokit/pkg/catalog"
	"github.com/leapstack-labs/verokit/pkg/snippet"
)

// Commands handled by workspace/executeCommand.
const (
	CommandSelectAction = "vero.selectAction"
	CommandOpenSlot     = "vero.openSlot"
	CommandFillSlot     = "vero.fillSlot"
	CommandCloseSlot    = "vero.closeSlot"
	CommandNextSlot     = "vero.nextSlot"
	CommandPrevSlot     = "vero.prevSlot"
	CommandCancel       = "vero.cancel"
	CommandInsertHook   = "vero.insertHook"
)

// Commands returns every command name the server executes.
func Commands() []string {
	return []string{
		CommandSelectAction,
		CommandOpenSlot,
		CommandFillSlot,
		CommandCloseSlot,
		CommandNextSlot,
		CommandPrevSlot,
		CommandCancel,
		CommandInsertHook,
	}
}

var (
	errNoArguments     = errors.New("missing command arguments")
	errUnknownDocument = errors.New("unknown document")
)

// CommandArgs is the single argument object of every vero.* command.
// Line and Position are zero-based LSP coordinates.
type CommandArgs struct {
	URI      string         `json:"uri"`
	ActionID string         `json:"actionId,omitempty"`
	Line     uint32         `json:"line"`
	SlotID   string         `json:"slotId,omitempty"`
	Value    *snippet.Value `json:"value,omitempty"`
	Position *Position      `json:"position,omitempty"`
	Hook     string         `json:"hook,omitempty"`
}

// CommandResult reports the outcome of a command.
//
// Edits were already applied on the server and must be applied by the client
// in order; each one is expressed against the text the previous one left.
// Version is the document version after the edits. The client's didChange
// echoing them carries a version no newer than this and is ignored.
type CommandResult struct {
	Edits   []TextEdit   `json:"edits"`
	Version int          `json:"version"`
	Cursor  *Position    `json:"cursor,omitempty"`
	State   BuilderState `json:"state"`
	Popup   slash.Popup  `json:"popup,omitempty"`
}

// BuilderState is the client view of the builder state.
type BuilderState struct {
	Kind         slash.Kind        `json:"kind"`
	Line         *uint32           `json:"line,omitempty"`
	ActionID     string            `json:"actionId,omitempty"`
	ActiveSlotID string            `json:"activeSlotId,omitempty"`
	Placeholders []PlaceholderInfo `json:"placeholders,omitempty"`
}

// PlaceholderInfo is one tracked blank in LSP coordinates.
type PlaceholderInfo struct {
	SlotID string `json:"slotId"`
	Range  Range  `json:"range"`
	Filled bool   `json:"filled"`
}

func (s *Server) handleExecuteCommand(msg *JSONRPCMessage) error {
	var params ExecuteCommandParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendError(msg.ID, codeInvalidParams, err)
		return err
	}

	known := false
	for _, c := range Commands() {
		if c == params.Command {
			known = true
			break
		}
	}
	if !known {
		s.sendResponse(msg.ID, nil, &JSONRPCError{
			Code:    codeMethodNotFound,
			Message: "Unknown command: " + params.Command,
		})
		return nil
	}

	if len(params.Arguments) == 0 {
		s.sendError(msg.ID, codeInvalidParams, errNoArguments)
		return errNoArguments
	}
	var args CommandArgs
	if err := json.Unmarshal(params.Arguments[0], &args); err != nil {
		s.sendError(msg.ID, codeInvalidParams, err)
		return err
	}

	doc := s.documents.Get(args.URI)
	if doc == nil {
		err := fmt.Errorf("%s: %w", args.URI, errUnknownDocument)
		s.sendError(msg.ID, codeInvalidParams, err)
		return err
	}

	result, err := s.executeCommand(doc, params.Command, args)
	if err != nil {
		// The session rejected the command; whatever it wrote is still
		// reported so the client stays in sync.
		s.discardEdits(doc)
		s.sendError(msg.ID, codeInvalidParams, err)
		return nil
	}

	s.sendResponse(msg.ID, result, nil)
	s.publishDiagnostics(doc.URI)
	return nil
}

// executeCommand runs one command against a document and collects the edits
// it made.
func (s *Server) executeCommand(doc *Document, command string, args CommandArgs) (*CommandResult, error) {
	sess := doc.Session
	snap := s.snapshot()
	line := int(args.Line) + 1

	var cursor *editor.Position
	var popup slash.Popup

	switch command {
	case CommandSelectAction:
		action, ok := s.catalog.Lookup(args.ActionID)
		if !ok {
			return nil, fmt.Errorf("unknown action %q", args.ActionID)
		}
		if sess.State().Closed() {
			caret := editor.Position{Line: line, Column: 1}
			sess.OpenPalette(doc.Buffer.CaretToScreenPosition(caret), line)
		}
		sel, err := sess.SelectAction(action, line)
		if err != nil {
			return nil, err
		}
		cursor = &sel.Cursor

	case CommandOpenSlot:
		switch {
		case args.SlotID != "":
			r, ok := s.slotRange(doc, args.SlotID)
			if !ok {
				return nil, fmt.Errorf("%s: %w", args.SlotID, slash.ErrNoPlaceholder)
			}
			p, err := sess.OpenSlotPopup(args.SlotID, doc.Buffer.CaretToScreenPosition(r.Start), snap)
			if err != nil {
				return nil, err
			}
			popup = p
		case args.Position != nil:
			if p, ok := sess.ClickAt(doc.FromLSP(*args.Position), snap); ok {
				popup = p
			}
		default:
			return nil, errors.New("openSlot needs slotId or position")
		}

	case CommandFillSlot:
		if args.Value == nil {
			return nil, errors.New("fillSlot needs a value")
		}
		if err := sess.FillSlot(args.SlotID, *args.Value); err != nil {
			return nil, err
		}
		cursor = s.nextCursor(doc, line)

	case CommandCloseSlot:
		sess.CloseSlotPopup()

	case CommandNextSlot, CommandPrevSlot:
		step := sess.NextSlot
		if command == CommandPrevSlot {
			step = sess.PrevSlot
		}
		if p, ok := step(snap); ok {
			popup = p
			if r, ok := s.slotRange(doc, p.Slot().ID); ok {
				cursor = &r.Start
			}
		}

	case CommandCancel:
		sess.Cancel()

	case CommandInsertHook:
		kind, ok := catalog.ParseHookKind(args.Hook)
		if !ok {
			return nil, fmt.Errorf("unknown hook kind %q", args.Hook)
		}
		ins := hooks.NewInserter(doc.Editor(), s.logger)
		if s.opts.IndentUnit != "" {
			ins.IndentUnit = s.opts.IndentUnit
		}
		if res := ins.Apply(line, kind); res.Applied {
			cursor = &res.Cursor
		}
	}

	result := &CommandResult{Edits: doc.TakeEdits(), Popup: popup}
	if len(result.Edits) > 0 {
		doc.Version++
	}
	result.Version = doc.Version
	if cursor != nil {
		c := doc.ToLSP(*cursor)
		result.Cursor = &c
	}
	result.State = s.builderState(doc)
	return result, nil
}

// discardEdits drops edits recorded by a failed command. Sessions validate
// before writing, so this only matters for partial failures.
func (s *Server) discardEdits(doc *Document) {
	if edits := doc.TakeEdits(); len(edits) > 0 {
		doc.Version++
		s.logger.Warn("Command failed after editing", "uri", doc.URI, "edits", len(edits))
	}
}

// slotRange returns the current span of a tracked slot.
func (s *Server) slotRange(doc *Document, slotID string) (editor.Range, bool) {
	for _, p := range doc.Session.State().Placeholders {
		if p.SlotID == slotID {
			return p.Span(), true
		}
	}
	return editor.Range{}, false
}

// nextCursor puts the caret on the active slot, or at the end of the
// statement line once the cycle has closed.
func (s *Server) nextCursor(doc *Document, line int) *editor.Position {
	st := doc.Session.State()
	if st.Kind == slash.KindFilling && st.ActiveSlotID != "" {
		if r, ok := s.slotRange(doc, st.ActiveSlotID); ok {
			return &r.Start
		}
	}
	if st.Kind == slash.KindFilling {
		line = st.Line
	}
	end := editor.Position{Line: line, Column: len([]rune(doc.Buffer.LineText(line))) + 1}
	return &end
}

func (s *Server) builderState(doc *Document) BuilderState {
	st := doc.Session.State()
	out := BuilderState{Kind: st.Kind, ActiveSlotID: st.ActiveSlotID}
	if st.Kind != slash.KindClosed {
		line := uint32(max(0, st.Line-1)) //nolint:gosec // G115: line is always non-negative
		out.Line = &line
	}
	if st.Action != nil {
		out.ActionID = st.Action.ID
	}
	for _, p := range st.Placeholders {
		out.Placeholders = append(out.Placeholders, PlaceholderInfo{
			SlotID: p.SlotID,
			Range:  doc.ToLSPRange(p.Span()),
			Filled: p.Filled,
		})
	}
	return out
}
