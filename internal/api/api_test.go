package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/verokit/internal/pages"
	"github.com/leapstack-labs/verokit/internal/testutil"
	"github.com/leapstack-labs/verokit/pkg/catalog"
)

const loginPage = `page LoginPage {
    field email = "#email"
}
`

func setupServer(t *testing.T) (*Server, *pages.Index, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "login.vero"), []byte(loginPage), 0o600))
	idx := pages.NewIndex(dir, testutil.NewTestLogger(t))
	require.NoError(t, idx.Load())
	return NewServer(Config{Pages: idx, SessionSecret: "test-secret"}), idx, dir
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _, _ := setupServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestActions(t *testing.T) {
	s, _, _ := setupServer(t)
	h := s.Handler()

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{name: "all", target: "/api/actions", want: catalog.Default().Len()},
		{name: "filtered", target: "/api/actions?q=wait", want: len(catalog.Default().Filter("wait"))},
		{name: "no match", target: "/api/actions?q=zzzz", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code)
			var actions []catalog.ActionDef
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &actions))
			assert.Len(t, actions, tt.want)
		})
	}
}

func TestGroupedActions(t *testing.T) {
	s, _, _ := setupServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/api/actions/grouped", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var groups []struct {
		Category string              `json:"category"`
		Title    string              `json:"title"`
		Actions  []catalog.ActionDef `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.NotEmpty(t, groups)

	total := 0
	for _, g := range groups {
		assert.NotEmpty(t, g.Title)
		total += len(g.Actions)
	}
	assert.Equal(t, catalog.Default().Len(), total)
}

func TestCompose(t *testing.T) {
	s, _, _ := setupServer(t)
	h := s.Handler()

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantText string
	}{
		{
			name:     "target and text",
			body:     `{"actionId":"fill","values":{"target":{"kind":"pageRef","page":"LoginPage","field":"email"},"value":"a@b.com"}}`,
			wantCode: http.StatusOK,
			wantText: `FILL LoginPage.email WITH "a@b.com"`,
		},
		{
			name:     "indent",
			body:     `{"actionId":"wait","values":{"seconds":"007"},"indent":"    "}`,
			wantCode: http.StatusOK,
			wantText: "    WAIT 7 SECONDS",
		},
		{
			name:     "missing slot",
			body:     `{"actionId":"fill","values":{"value":"x"}}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "invalid value",
			body:     `{"actionId":"wait","values":{"seconds":"soon"}}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown action",
			body:     `{"actionId":"nope"}`,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "bad json",
			body:     `{`,
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/compose", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantText == "" {
				return
			}
			var resp ComposeResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantText, resp.Text)
		})
	}
}

func TestCompose_NotReadyListsMissing(t *testing.T) {
	s, _, _ := setupServer(t)
	rec := do(t, s.Handler(), http.MethodPost, "/api/compose", `{"actionId":"fill","values":{}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp NotReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"target", "value"}, resp.Missing)
}

func TestCompose_BlankValueIsMissing(t *testing.T) {
	s, _, _ := setupServer(t)
	body := `{"actionId":"fill","values":{"target":{"kind":"pageRef","page":"LoginPage","field":"email"},"value":"  "}}`
	rec := do(t, s.Handler(), http.MethodPost, "/api/compose", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp NotReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"value"}, resp.Missing)
}

func TestRecentActions(t *testing.T) {
	s, _, _ := setupServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/compose", `{"actionId":"refresh"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/actions/recent", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var actions []catalog.ActionDef
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &actions))
	require.Len(t, actions, 1)
	assert.Equal(t, "refresh", actions[0].ID)

	rec = do(t, h, http.MethodGet, "/api/actions/recent", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &actions))
	assert.Empty(t, actions, "no cookie, no history")
}

func TestHooks(t *testing.T) {
	s, _, _ := setupServer(t)
	h := s.Handler()

	body := `{"text":"feature X {\n    scenario \"a\" {\n    }\n}\n","line":2,"kind":"beforeEach"}`
	rec := do(t, h, http.MethodPost, "/api/hooks", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Applied)
	assert.True(t, resp.Inserted)
	assert.Contains(t, resp.Text, "    BEFORE EACH {\n")

	rec = do(t, h, http.MethodPost, "/api/hooks", `{"text":"","line":1,"kind":"beforeEach"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Applied, "no container is a no-op")

	rec = do(t, h, http.MethodPost, "/api/hooks", `{"text":"","line":1,"kind":"later"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPages(t *testing.T) {
	s, _, _ := setupServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/api/pages", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []pages.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "LoginPage", got[0].Name)
	assert.Equal(t, []pages.Field{{Name: "email", Selector: "#email"}}, got[0].Fields)
}

func TestPageEvents(t *testing.T) {
	s, idx, dir := setupServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/pages/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := bufio.NewScanner(resp.Body)
	waitFor := func(want string) {
		t.Helper()
		for lines.Scan() {
			line := lines.Text()
			if strings.HasPrefix(line, "data:") && strings.Contains(line, want) {
				return
			}
		}
		t.Fatalf("stream ended before %q", want)
	}

	waitFor("LoginPage")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cart.vero"), []byte("page CartPage {\n    total = \".sum\"\n}\n"), 0o600))
	require.NoError(t, idx.Load())
	waitFor("CartPage")
}
