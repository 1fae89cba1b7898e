package lsp

import (
	"encoding/json"

	"github.com/leapstack-labs/verokit/internal/hooks"
	"github.com/leapstack-labs/verokit/pkg/catalog"
)

// handleCodeAction handles the textDocument/codeAction request.
func (s *Server) handleCodeAction(msg *JSONRPCMessage) error {
	var params CodeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendError(msg.ID, codeInvalidParams, err)
		return err
	}

	actions := s.getCodeActions(params)
	s.sendResponse(msg.ID, actions, nil)
	return nil
}

// getCodeActions offers one hook command per lifecycle kind when the range
// starts inside a FEATURE container. Hooks that already exist are offered as
// "Go to" since running the command only moves the cursor.
func (s *Server) getCodeActions(params CodeActionParams) []CodeAction {
	actions := []CodeAction{}

	if !wantsKind(params.Context.Only, CodeActionKindRefactor) {
		return actions
	}

	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return actions
	}

	line := int(params.Range.Start.Line) + 1
	bounds, ok := hooks.FindFeatureBounds(doc.Buffer, line)
	if !ok || !bounds.Contains(line) {
		return actions
	}
	analysis := hooks.Analyze(doc.Buffer, bounds, s.opts.IndentUnit)

	for _, kind := range catalog.HookKinds() {
		title := "Insert " + kind.Header()
		if _, exists := analysis.Hooks[kind]; exists {
			title = "Go to " + kind.Header()
		}
		actions = append(actions, CodeAction{
			Title: title,
			Kind:  CodeActionKindRefactor,
			Command: &Command{
				Title:   title,
				Command: CommandInsertHook,
				Arguments: []any{CommandArgs{
					URI:  doc.URI,
					Line: params.Range.Start.Line,
					Hook: kind.String(),
				}},
			},
		})
	}
	return actions
}

// wantsKind reports whether a code action kind passes the client's filter.
func wantsKind(only []CodeActionKind, kind CodeActionKind) bool {
	if len(only) == 0 {
		return true
	}
	for _, k := range only {
		if k == kind {
			return true
		}
	}
	return false
}
