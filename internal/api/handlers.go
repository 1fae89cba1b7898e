package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/internal/hooks"
	"github.com/leapstack-labs/verokit/internal/pages"
	"github.com/leapstack-labs/verokit/pkg/catalog"
	"github.com/leapstack-labs/verokit/pkg/snippet"
)

const (
	sessionName = "verokit"
	recentKey   = "recent"
	maxRecent   = 8
)

// GroupResponse is one palette section.
type GroupResponse struct {
	Category catalog.Category    `json:"category"`
	Title    string              `json:"title"`
	Actions  []catalog.ActionDef `json:"actions"`
}

// ComposeRequest asks for the statement an action builds from values.
type ComposeRequest struct {
	ActionID string                   `json:"actionId"`
	Values   map[string]snippet.Value `json:"values"`
	Indent   string                   `json:"indent,omitempty"`
}

// ComposeResponse is the built statement.
type ComposeResponse struct {
	Text string `json:"text"`
}

// NotReadyResponse lists the required slots still missing a value.
type NotReadyResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing"`
}

// HookRequest applies a hook action to a script.
type HookRequest struct {
	Text string `json:"text"`
	Line int    `json:"line"`
	Kind string `json:"kind"`
}

// HookResponse is the script after the hook action.
type HookResponse struct {
	Text     string          `json:"text"`
	Cursor   editor.Position `json:"cursor"`
	Applied  bool            `json:"applied"`
	Inserted bool            `json:"inserted"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Filter(r.URL.Query().Get("q")))
}

func (s *Server) handleGroupedActions(w http.ResponseWriter, r *http.Request) {
	groups := catalog.GroupByCategory(s.catalog.Filter(r.URL.Query().Get("q")))
	out := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupResponse{Category: g.Category, Title: g.Category.Title(), Actions: g.Actions})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleRecentActions returns the actions this client composed last, most
// recent first.
func (s *Server) handleRecentActions(w http.ResponseWriter, r *http.Request) {
	out := []catalog.ActionDef{}
	for _, id := range s.recent(r) {
		if a, ok := s.catalog.Lookup(id); ok {
			out = append(out, a)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	var req ComposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	action, ok := s.catalog.Lookup(req.ActionID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown action %q", req.ActionID))
		return
	}

	values, err := resolveValues(action, req.Values)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	text, ready := snippet.Build(action, values, req.Indent)
	if !ready {
		writeJSON(w, http.StatusUnprocessableEntity, NotReadyResponse{
			Error:   "not ready",
			Missing: missingSlots(action, values),
		})
		return
	}

	s.remember(w, r, action.ID)
	writeJSON(w, http.StatusOK, ComposeResponse{Text: text})
}

// resolveValues validates the supplied values. Targets pass as given for
// target and action slots; everything else is resolved from its text.
func resolveValues(action catalog.ActionDef, in map[string]snippet.Value) (map[string]snippet.Value, error) {
	out := make(map[string]snippet.Value, len(in))
	var errs []error
	for _, slot := range action.Slots {
		v, ok := in[slot.ID]
		if !ok {
			continue
		}
		if !v.IsTarget() && strings.TrimSpace(v.String()) == "" {
			// A blank answer is the same as no answer.
			continue
		}
		if v.IsTarget() && (slot.Kind == catalog.SlotTargetRef || slot.Kind == catalog.SlotActionRef) {
			out[slot.ID] = v
			continue
		}
		resolved, err := snippet.Resolve(slot, v.String())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[slot.ID] = resolved
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func missingSlots(action catalog.ActionDef, values map[string]snippet.Value) []string {
	missing := []string{}
	for _, slot := range action.Slots {
		if _, ok := values[slot.ID]; !ok && !slot.Optional {
			missing = append(missing, slot.ID)
		}
	}
	return missing
}

func (s *Server) handleHooks(w http.ResponseWriter, r *http.Request) {
	var req HookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	kind, ok := catalog.ParseHookKind(req.Kind)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown hook kind %q", req.Kind))
		return
	}

	buf := editor.NewMemory(req.Text)
	ins := hooks.NewInserter(buf, s.logger)
	if s.indentUnit != "" {
		ins.IndentUnit = s.indentUnit
	}
	res := ins.Apply(max(1, req.Line), kind)

	writeJSON(w, http.StatusOK, HookResponse{
		Text:     buf.Text(),
		Cursor:   res.Cursor,
		Applied:  res.Applied,
		Inserted: res.Inserted,
	})
}

func (s *Server) handlePages(w http.ResponseWriter, _ *http.Request) {
	all := s.index.Snapshot().All()
	if all == nil {
		all = []pages.Page{}
	}
	writeJSON(w, http.StatusOK, all)
}

// handlePageEvents is the long-lived SSE endpoint for the page index. It
// sends the page names once and again after every reload.
func (s *Server) handlePageEvents(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := s.index.Subscribe()
	defer s.index.Unsubscribe(updates)

	send := func() {
		if err := sse.MarshalAndPatchSignals(map[string]any{"pages": s.index.Snapshot().Pages()}); err != nil {
			_ = sse.ConsoleError(err)
		}
	}
	send()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			send()
		}
	}
}

// recent returns the action IDs stored in the client's session.
func (s *Server) recent(r *http.Request) []string {
	sess, err := s.sessionStore.Get(r, sessionName)
	if err != nil {
		s.logger.Debug("ignoring bad session", "error", err)
		return nil
	}
	ids, _ := sess.Values[recentKey].([]string)
	return ids
}

// remember moves id to the front of the client's recent actions.
func (s *Server) remember(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := s.sessionStore.Get(r, sessionName)
	if err != nil && sess == nil {
		return
	}
	ids, _ := sess.Values[recentKey].([]string)
	ids = slices.DeleteFunc(slices.Clone(ids), func(v string) bool { return v == id })
	ids = append([]string{id}, ids...)
	if len(ids) > maxRecent {
		ids = ids[:maxRecent]
	}
	sess.Values[recentKey] = ids
	if err := sess.Save(r, w); err != nil {
		s.logger.Warn("failed to save session", "error", err)
	}
}
