package lsp

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/internal/slash"
	"github.com/leapstack-labs/verokit/pkg/catalog"
)

func (s *Server) handleCompletion(msg *JSONRPCMessage) error {
	var params CompletionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendError(msg.ID, codeInvalidParams, err)
		return err
	}

	items := s.getCompletions(params)
	s.sendResponse(msg.ID, &CompletionList{Items: items}, nil)
	return nil
}

// getCompletions opens the palette when the cursor sits on a line holding
// only the trigger, and returns one item per action. Accepting an item
// deletes the trigger and runs vero.selectAction.
func (s *Server) getCompletions(params CompletionParams) []CompletionItem {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return []CompletionItem{}
	}

	line := int(params.Position.Line) + 1
	text := doc.Buffer.LineText(line)
	trigger := s.trigger()
	if strings.TrimSpace(text) != trigger {
		return []CompletionItem{}
	}

	st := doc.Session.State()
	switch st.Kind {
	case slash.KindFilling:
		// Finish or cancel the current statement first.
		return []CompletionItem{}
	case slash.KindPalette:
		// A new request means the client dropped the previous menu.
		doc.Session.Cancel()
	}

	caret := doc.FromLSP(params.Position)
	doc.Session.OpenPalette(doc.Buffer.CaretToScreenPosition(caret), line)

	// The edit that removes the trigger text, leaving the indentation.
	indent := utf8.RuneCountInString(editor.LeadingWhitespace(text))
	triggerRange := doc.ToLSPRange(editor.LineRange(line, indent+1, utf8.RuneCountInString(text)+1))

	actions := s.catalog.Actions()
	items := make([]CompletionItem, 0, len(actions))
	for i, a := range actions {
		items = append(items, CompletionItem{
			Label:         a.Label,
			Kind:          completionKind(a),
			Detail:        a.Category.Title(),
			Documentation: a.Description,
			SortText:      fmt.Sprintf("%03d", i),
			FilterText:    trigger + a.Label + " " + strings.Join(a.Keywords, " "),
			TextEdit:      &TextEdit{Range: triggerRange, NewText: ""},
			Command: &Command{
				Title:   a.Label,
				Command: CommandSelectAction,
				Arguments: []any{CommandArgs{
					URI:      doc.URI,
					ActionID: a.ID,
					Line:     params.Position.Line,
				}},
			},
		})
	}
	return items
}

func completionKind(a catalog.ActionDef) CompletionItemKind {
	switch {
	case a.IsHook():
		return CompletionItemKindModule
	case a.Handoff:
		return CompletionItemKindEvent
	case len(a.Slots) == 0:
		return CompletionItemKindKeyword
	default:
		return CompletionItemKindSnippet
	}
}

func (s *Server) handleHover(msg *JSONRPCMessage) error {
	var params HoverParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendError(msg.ID, codeInvalidParams, err)
		return err
	}

	hover := s.getHover(params)
	s.sendResponse(msg.ID, hover, nil)
	return nil
}

// getHover describes the statement keyword under the cursor.
func (s *Server) getHover(params HoverParams) *Hover {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}

	word, rng := doc.GetWordAtPosition(params.Position)
	if word == "" {
		return nil
	}

	// Statements start with their first label word.
	first := strings.Fields(strings.TrimSpace(doc.GetLine(int(params.Position.Line))))
	if len(first) == 0 || !strings.EqualFold(first[0], word) {
		return nil
	}

	for _, a := range s.catalog.Actions() {
		label := strings.Fields(a.Label)
		if len(label) == 0 || !strings.EqualFold(label[0], word) {
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "**%s**\n\n", a.Label)
		if a.Description != "" {
			b.WriteString(a.Description + "\n\n")
		}
		fmt.Fprintf(&b, "```vero\n%s\n```", a.Template)
		return &Hover{
			Contents: MarkupContent{Kind: MarkupKindMarkdown, Value: b.String()},
			Range:    &rng,
		}
	}
	return nil
}
