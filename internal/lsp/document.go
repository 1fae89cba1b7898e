package lsp

import (
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/internal/slash"
)

// Document represents an open text document in the editor.
//
// Each document owns its buffer and its builder session. Edits the session
// makes go through the recorder, which converts them to LSP text edits while
// the buffer still holds the pre-edit text.
type Document struct {
	URI     string // Document URI (file:///path/to/file.vero)
	Version int    // Version number, bumped by client changes and server edits

	Buffer  *editor.Memory
	Session *slash.Session

	rec     *editor.Recorder
	pending []TextEdit
}

// SessionFactory builds the builder session of a new document.
type SessionFactory func(uri string, buf editor.Buffer) *slash.Session

// DocumentStore manages open documents in memory.
type DocumentStore struct {
	mu         sync.RWMutex
	documents  map[string]*Document
	newSession SessionFactory
	bufOpts    []editor.MemoryOption
}

// NewDocumentStore creates a new document store. A nil factory gives each
// document a session with default options.
func NewDocumentStore(factory SessionFactory, opts ...editor.MemoryOption) *DocumentStore {
	if factory == nil {
		factory = func(_ string, buf editor.Buffer) *slash.Session {
			return slash.NewSession(buf, slash.Options{})
		}
	}
	return &DocumentStore{
		documents:  make(map[string]*Document),
		newSession: factory,
		bufOpts:    opts,
	}
}

// Open adds or replaces a document in the store.
func (s *DocumentStore) Open(uri string, content string, version int) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &Document{
		URI:     uri,
		Version: version,
		Buffer:  editor.NewMemory(content, s.bufOpts...),
	}
	doc.rec = editor.NewRecorder(doc.Buffer)
	doc.rec.Before = func(e editor.Edit) {
		doc.pending = append(doc.pending, TextEdit{
			Range:   doc.ToLSPRange(e.Range),
			NewText: e.Text,
		})
	}
	doc.Session = s.newSession(uri, doc.rec)
	s.documents[uri] = doc
	return doc
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, ok := s.documents[uri]; ok {
		doc.Session.Cancel()
	}
	delete(s.documents, uri)
}

// Get retrieves a document by URI.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.documents[uri]
}

// List returns all open document URIs.
func (s *DocumentStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uris := make([]string, 0, len(s.documents))
	for uri := range s.documents {
		uris = append(uris, uri)
	}
	return uris
}

// Content returns the full document text.
func (d *Document) Content() string {
	return d.Buffer.Text()
}

// Editor returns the buffer that records server-side edits. Anything that
// edits on behalf of the server must go through it.
func (d *Document) Editor() editor.Buffer {
	return d.rec
}

// TakeEdits returns the LSP edits recorded since the last call, in the order
// they must be applied.
func (d *Document) TakeEdits() []TextEdit {
	d.rec.Take()
	edits := d.pending
	d.pending = nil
	if edits == nil {
		edits = []TextEdit{}
	}
	return edits
}

// ApplyChange applies a client change without recording it. Tracked ranges
// follow the edit. A change without a range replaces the document and drops
// any fill cycle, since its ranges no longer exist.
func (d *Document) ApplyChange(change TextDocumentContentChangeEvent) {
	if change.Range == nil {
		d.Session.Cancel()
		d.Buffer.SetText(change.Text)
		return
	}
	d.Buffer.InsertOrReplace(d.FromLSPRange(*change.Range), change.Text)
}

// GetLine returns the content of a zero-based line.
func (d *Document) GetLine(line int) string {
	if d == nil || line < 0 {
		return ""
	}
	return d.Buffer.LineText(line + 1)
}

// FromLSP converts a zero-based UTF-16 position to a buffer position.
func (d *Document) FromLSP(p Position) editor.Position {
	line := int(p.Line) + 1
	return editor.Position{Line: line, Column: utf16ToColumn(d.Buffer.LineText(line), int(p.Character))}
}

// ToLSP converts a buffer position to a zero-based UTF-16 position.
func (d *Document) ToLSP(p editor.Position) Position {
	line := max(0, p.Line-1)
	char := columnToUTF16(d.Buffer.LineText(p.Line), p.Column)
	return Position{
		Line:      uint32(line), //nolint:gosec // G115: line is always non-negative
		Character: uint32(char), //nolint:gosec // G115: char is always non-negative
	}
}

// FromLSPRange converts an LSP range to a buffer range.
func (d *Document) FromLSPRange(r Range) editor.Range {
	return editor.Range{Start: d.FromLSP(r.Start), End: d.FromLSP(r.End)}
}

// ToLSPRange converts a buffer range to an LSP range.
func (d *Document) ToLSPRange(r editor.Range) Range {
	return Range{Start: d.ToLSP(r.Start), End: d.ToLSP(r.End)}
}

// utf16ToColumn maps a UTF-16 offset within line to a 1-based rune column.
// Offsets past the end clamp to the end of the line.
func utf16ToColumn(line string, units int) int {
	col := 1
	n := 0
	for _, r := range line {
		if n >= units {
			return col
		}
		n += utf16.RuneLen(r)
		col++
	}
	return col
}

// columnToUTF16 maps a 1-based rune column to a UTF-16 offset within line.
func columnToUTF16(line string, col int) int {
	n := 0
	i := 1
	for _, r := range line {
		if i >= col {
			break
		}
		n += utf16.RuneLen(r)
		i++
	}
	return n
}

// GetWordAtPosition returns the word at the given position and its range.
func (d *Document) GetWordAtPosition(pos Position) (string, Range) {
	runes := []rune(d.GetLine(int(pos.Line)))
	at := d.FromLSP(pos).Column - 1
	if at >= len(runes) {
		return "", Range{Start: pos, End: pos}
	}

	start := at
	for start > 0 && isWordChar(runes[start-1]) {
		start--
	}
	end := at
	for end < len(runes) && isWordChar(runes[end]) {
		end++
	}
	if start == end {
		return "", Range{Start: pos, End: pos}
	}

	line := int(pos.Line) + 1
	return string(runes[start:end]), d.ToLSPRange(editor.LineRange(line, start+1, end+1))
}

// isWordChar returns true if the character is part of a word.
func isWordChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_'
}

// URIToPath converts a file:// URI to a file system path.
func URIToPath(uri string) string {
	const prefix = "file://"
	if strings.HasPrefix(uri, prefix) {
		return uri[len(prefix):]
	}
	return uri
}

// PathToURI converts a file system path to a file:// URI.
func PathToURI(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return "file://" + path
}
