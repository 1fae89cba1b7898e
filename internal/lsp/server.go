package lsp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/internal/pages"
	"github.com/leapstack-labs/verokit/internal/slash"
	"github.com/leapstack-labs/verokit/pkg/catalog"
)

// JSON-RPC error codes.
const (
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Options configures a Server.
type Options struct {
	// Catalog is the palette. Defaults to catalog.Default().
	Catalog *catalog.Catalog
	// Pages is the page index. When nil, initialize builds one over
	// PagesDir below the client's root.
	Pages    *pages.Index
	PagesDir string

	IndentUnit string
	Trigger    string

	// CellWidth and CellHeight size one character cell for popup placement.
	CellWidth  int
	CellHeight int

	Version string
	Logger  *slog.Logger
}

// Server implements the Language Server Protocol for Vero scripts.
type Server struct {
	opts Options

	// Document management
	documents *DocumentStore
	catalog   *catalog.Catalog
	index     *pages.Index

	// Project context
	projectRoot string
	initialized bool

	// I/O
	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex

	// Logging
	logger *slog.Logger

	// Shutdown state
	shutdown   bool
	exited     bool
	shutdownMu sync.RWMutex
}

// NewServer creates a new LSP server instance.
func NewServer(reader io.Reader, writer io.Writer, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}

	s := &Server{
		opts:    opts,
		catalog: cat,
		index:   opts.Pages,
		reader:  bufio.NewReader(reader),
		writer:  writer,
		logger:  logger,
	}

	var bufOpts []editor.MemoryOption
	if opts.CellWidth > 0 && opts.CellHeight > 0 {
		bufOpts = append(bufOpts, editor.WithCellSize(opts.CellWidth, opts.CellHeight))
	}
	s.documents = NewDocumentStore(s.newSession, bufOpts...)
	return s
}

// newSession builds the builder session of one document.
func (s *Server) newSession(uri string, buf editor.Buffer) *slash.Session {
	return slash.NewSession(buf, slash.Options{
		Trigger:    s.opts.Trigger,
		IndentUnit: s.opts.IndentUnit,
		Logger:     s.logger.With("uri", uri),
		OnHandoff: func(action catalog.ActionDef, line int) {
			s.sendNotification("vero/handoff", &HandoffParams{
				URI:      uri,
				ActionID: action.ID,
				Line:     uint32(max(0, line-1)), //nolint:gosec // G115: line is always non-negative
			})
		},
	})
}

// HandoffParams is sent with the vero/handoff notification when the user
// picks the handoff action.
type HandoffParams struct {
	URI      string `json:"uri"`
	ActionID string `json:"actionId"`
	Line     uint32 `json:"line"`
}

// Documents returns the document store.
func (s *Server) Documents() *DocumentStore {
	return s.documents
}

// Run starts the server's main loop, processing JSON-RPC messages until the
// client disconnects or sends exit.
func (s *Server) Run() error {
	s.logger.Info("verokit LSP server starting")

	for {
		s.shutdownMu.RLock()
		if s.exited {
			s.shutdownMu.RUnlock()
			return nil
		}
		s.shutdownMu.RUnlock()

		// Read message
		msg, err := s.readMessage()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				s.logger.Info("Client disconnected")
				return nil
			}
			s.logger.Error("Error reading message", "error", err)
			continue
		}

		// Handle message
		if err := s.handleMessage(msg); err != nil {
			s.logger.Error("Error handling message", "method", msg.Method, "error", err)
		}
	}
}

// JSONRPCMessage represents a JSON-RPC 2.0 message.
type JSONRPCMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *JSONRPCError    `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// readMessage reads a JSON-RPC message from the input stream.
func (s *Server) readMessage() (*JSONRPCMessage, error) {
	// Read headers
	var contentLength int
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			break // End of headers
		}

		if strings.HasPrefix(line, "Content-Length: ") {
			lengthStr := strings.TrimPrefix(line, "Content-Length: ")
			contentLength, err = strconv.Atoi(lengthStr)
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
		}
	}

	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	// Read body
	body := make([]byte, contentLength)
	_, err := io.ReadFull(s.reader, body)
	if err != nil {
		return nil, fmt.Errorf("error reading body: %w", err)
	}

	// Parse message
	var msg JSONRPCMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("error parsing message: %w", err)
	}

	return &msg, nil
}

// sendResponse sends a JSON-RPC response.
func (s *Server) sendResponse(id *json.RawMessage, result any, err *JSONRPCError) {
	msg := JSONRPCMessage{
		JSONRPC: "2.0",
		ID:      id,
	}

	if err != nil {
		msg.Error = err
	} else {
		resultBytes, _ := json.Marshal(result)
		msg.Result = resultBytes
	}

	s.writeMessage(&msg)
}

// sendError answers a request with an error.
func (s *Server) sendError(id *json.RawMessage, code int, err error) {
	s.sendResponse(id, nil, &JSONRPCError{Code: code, Message: err.Error()})
}

// sendNotification sends a JSON-RPC notification (no ID).
func (s *Server) sendNotification(method string, params any) {
	msg := JSONRPCMessage{
		JSONRPC: "2.0",
		Method:  method,
	}

	if params != nil {
		paramsBytes, _ := json.Marshal(params)
		msg.Params = paramsBytes
	}

	s.writeMessage(&msg)
}

// writeMessage writes a JSON-RPC message to the output stream.
func (s *Server) writeMessage(msg *JSONRPCMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	body, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("Error marshaling message", "error", err)
		return
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))
	_, _ = s.writer.Write([]byte(header))
	_, _ = s.writer.Write(body)
}

// handleMessage dispatches a message to the appropriate handler.
func (s *Server) handleMessage(msg *JSONRPCMessage) error {
	s.logger.Debug("Received", "method", msg.Method)

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return s.handleInitialized(msg)
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		return s.handleExit(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/codeAction":
		return s.handleCodeAction(msg)
	case "workspace/executeCommand":
		return s.handleExecuteCommand(msg)
	default:
		if msg.ID != nil {
			// Unknown method with ID - respond with method not found
			s.sendResponse(msg.ID, nil, &JSONRPCError{
				Code:    codeMethodNotFound,
				Message: "Method not found: " + msg.Method,
			})
		}
		return nil
	}
}

// --- Lifecycle handlers ---

func (s *Server) handleInitialize(msg *JSONRPCMessage) error {
	var params InitializeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendError(msg.ID, codeInvalidParams, err)
		return err
	}

	s.projectRoot = URIToPath(params.RootURI)
	s.logger.Info("Project root", "path", s.projectRoot)

	if s.index == nil && s.projectRoot != "" {
		dir := s.opts.PagesDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(s.projectRoot, dir)
		}
		s.index = pages.NewIndex(dir, s.logger)
		if err := s.index.Load(); err != nil {
			s.logger.Warn("Failed to load page index", "dir", dir, "error", err)
		}
	}

	result := InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: &TextDocumentSyncOptions{
				OpenClose: true,
				Change:    TextDocumentSyncKindIncremental,
				Save: &SaveOptions{
					IncludeText: false,
				},
			},
			CompletionProvider: &CompletionOptions{
				TriggerCharacters: []string{s.trigger()},
			},
			HoverProvider: true,
			CodeActionProvider: &CodeActionOptions{
				CodeActionKinds: []CodeActionKind{CodeActionKindRefactor},
			},
			ExecuteCommandProvider: &ExecuteCommandOptions{
				Commands: Commands(),
			},
		},
		ServerInfo: &ServerInfo{Name: "verokit", Version: s.opts.Version},
	}

	s.sendResponse(msg.ID, result, nil)
	return nil
}

func (s *Server) handleInitialized(_ *JSONRPCMessage) error {
	s.initialized = true
	s.logger.Info("Server initialized", "pages", s.snapshot().Len())

	if s.snapshot().Len() == 0 {
		s.sendNotification("window/showMessage", &ShowMessageParams{
			Type:    MessageTypeInfo,
			Message: "No page objects found. Target popups will only offer raw selectors.",
		})
	}
	return nil
}

func (s *Server) handleShutdown(msg *JSONRPCMessage) error {
	s.shutdownMu.Lock()
	s.shutdown = true
	s.shutdownMu.Unlock()

	for _, uri := range s.documents.List() {
		s.documents.Close(uri)
	}

	s.sendResponse(msg.ID, nil, nil)
	s.logger.Info("Server shutdown")
	return nil
}

func (s *Server) handleExit(_ *JSONRPCMessage) error {
	s.shutdownMu.Lock()
	s.exited = true
	s.shutdownMu.Unlock()
	s.logger.Info("Server exit")
	return nil
}

// --- Document handlers ---

func (s *Server) handleDidOpen(msg *JSONRPCMessage) error {
	var params DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	s.documents.Open(params.TextDocument.URI, params.TextDocument.Text, params.TextDocument.Version)
	s.logger.Info("Opened", "uri", params.TextDocument.URI)

	s.publishDiagnostics(params.TextDocument.URI)
	return nil
}

func (s *Server) handleDidClose(msg *JSONRPCMessage) error {
	var params DidCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	s.documents.Close(params.TextDocument.URI)
	s.logger.Info("Closed", "uri", params.TextDocument.URI)

	// Clear diagnostics
	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []Diagnostic{},
	})

	return nil
}

// handleDidChange applies incremental changes. A version that is not newer
// than the document's is an echo of edits the server already applied and is
// dropped.
func (s *Server) handleDidChange(msg *JSONRPCMessage) error {
	var params DidChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return fmt.Errorf("didChange for unknown document %s", params.TextDocument.URI)
	}
	if params.TextDocument.Version <= doc.Version {
		s.logger.Debug("Ignoring stale change",
			"uri", doc.URI, "version", params.TextDocument.Version, "current", doc.Version)
		return nil
	}

	for _, change := range params.ContentChanges {
		doc.ApplyChange(change)
	}
	doc.Version = params.TextDocument.Version

	s.publishDiagnostics(doc.URI)
	return nil
}

func (s *Server) handleDidSave(msg *JSONRPCMessage) error {
	var params DidSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	path := URIToPath(params.TextDocument.URI)
	s.logger.Debug("Saved", "path", path)

	// Saved scripts may declare pages; refresh the index.
	if filepath.Ext(path) == pages.Extension && s.index != nil {
		if err := s.index.Load(); err != nil {
			s.logger.Warn("Failed to reload page index", "error", err)
		}
	}
	return nil
}

// --- Helper methods ---

func (s *Server) trigger() string {
	if s.opts.Trigger == "" {
		return slash.DefaultTrigger
	}
	return s.opts.Trigger
}

// snapshot returns the current page snapshot, never nil.
func (s *Server) snapshot() *pages.Snapshot {
	if s.index == nil {
		return pages.Empty()
	}
	return s.index.Snapshot()
}
