package lsp

import (
	"fmt"

	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/internal/slash"
	"github.com/leapstack-labs/verokit/pkg/catalog"
)

// Diagnostic identity.
const (
	diagnosticSource  = "verokit"
	codeUnfilledBlank = "unfilled-blank"
)

// publishDiagnostics reports every ‹…› blank left in the document. The line
// being filled is skipped; its blanks are expected.
func (s *Server) publishDiagnostics(uri string) {
	doc := s.documents.Get(uri)
	if doc == nil {
		return
	}

	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Version:     doc.Version,
		Diagnostics: s.getDiagnostics(doc),
	})
}

func (s *Server) getDiagnostics(doc *Document) []Diagnostic {
	diagnostics := []Diagnostic{}

	skip := 0
	if st := doc.Session.State(); st.Kind == slash.KindFilling {
		skip = st.Line
	}

	for line := 1; line <= doc.Buffer.LineCount(); line++ {
		if line == skip {
			continue
		}
		for _, m := range catalog.ScanMarkers(doc.Buffer.LineText(line)) {
			diagnostics = append(diagnostics, Diagnostic{
				Range:    doc.ToLSPRange(editor.LineRange(line, m.StartColumn, m.EndColumn)),
				Severity: DiagnosticSeverityHint,
				Code:     codeUnfilledBlank,
				Source:   diagnosticSource,
				Message:  fmt.Sprintf("Unfilled blank %q", m.Label),
			})
		}
	}
	return diagnostics
}
