package pages

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/verokit/internal/testutil"
)

const loginScript = `page LoginPage {
    field email = "#email"
    field password = "[type=password]"
    submit = "Sign in"
    text greeting = "Hello {user}"
}

PAGEACTIONS LoginActions FOR LoginPage {
    loginAs with user, pass {
        fill LoginPage.email with user
        click LoginPage.submit
    }
    logout {
    }
}

feature Login {
    scenario "ok" {
        open "/"
    }
}
`

func TestParse(t *testing.T) {
	pages := Parse(loginScript)
	require.Len(t, pages, 1)

	p := pages[0]
	assert.Equal(t, "LoginPage", p.Name)
	assert.Equal(t, 1, p.Line)
	assert.Equal(t, []Field{
		{Name: "email", Selector: "#email"},
		{Name: "password", Selector: "[type=password]"},
		{Name: "submit", Selector: "Sign in"},
		{Name: "greeting", Selector: "Hello {user}"},
	}, p.Fields)
	assert.Equal(t, []Action{
		{Name: "loginAs", Params: []string{"user", "pass"}},
		{Name: "logout"},
	}, p.Actions)
}

func TestParse_NestedMembersIgnored(t *testing.T) {
	pages := Parse("page Home {\n    action search {\n        inner = \"x\"\n    }\n    banner = \".hero\"\n}\n")
	require.Len(t, pages, 1)
	assert.Equal(t, []Field{{Name: "banner", Selector: ".hero"}}, pages[0].Fields)
	assert.Equal(t, []Action{{Name: "search"}}, pages[0].Actions)
}

func TestSnapshot(t *testing.T) {
	s := NewSnapshot([]Page{
		{Name: "A", Fields: []Field{{Name: "x"}}},
		{Name: "B", Actions: []Action{{Name: "go"}}},
		{Name: "A", Fields: []Field{{Name: "x", Selector: "dup"}, {Name: "y"}}},
	})

	assert.Equal(t, []string{"A", "B"}, s.Pages())
	assert.Equal(t, []Field{{Name: "x"}, {Name: "y"}}, s.Fields("A"))
	assert.True(t, s.Has("B", "go"))
	assert.True(t, s.Has("A", "y"))
	assert.False(t, s.Has("A", "go"))
	assert.False(t, s.Has("C", "x"))
	assert.Empty(t, s.Fields("C"))

	// Returned slices are copies.
	f := s.Fields("A")
	f[0].Name = "changed"
	assert.Equal(t, "x", s.Fields("A")[0].Name)

	var nilSnap *Snapshot
	assert.Equal(t, 0, nilSnap.Len())
	assert.Empty(t, nilSnap.Pages())
}

func TestIndex_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "login.vero"), []byte(loginScript), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "home.vero"), []byte("page Home {\n  banner = \".hero\"\n}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("page Ignored {\n}\n"), 0o644))

	idx := NewIndex(dir, testutil.NewTestLogger(t))
	assert.Equal(t, 0, idx.Snapshot().Len())

	require.NoError(t, idx.Load())
	snap := idx.Snapshot()
	assert.ElementsMatch(t, []string{"LoginPage", "Home"}, snap.Pages())

	p, ok := snap.Page("Home")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "sub", "home.vero"), p.File)
}

func TestIndex_LoadMissingDir(t *testing.T) {
	idx := NewIndex(filepath.Join(t.TempDir(), "nope"), nil)
	require.NoError(t, idx.Load())
	assert.Equal(t, 0, idx.Snapshot().Len())
}

func TestIndex_SubscribeGetsPing(t *testing.T) {
	idx := NewIndex(t.TempDir(), testutil.NewTestLogger(t))
	ch := idx.Subscribe()
	defer idx.Unsubscribe(ch)

	require.NoError(t, idx.Load())
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a ping after Load")
	}
}

func TestIndex_Watch(t *testing.T) {
	dir := t.TempDir()
	idx := NewIndex(dir, testutil.NewTestLogger(t))
	require.NoError(t, idx.Load())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := idx.Subscribe()
	defer idx.Unsubscribe(ch)

	done := make(chan error, 1)
	go func() { done <- idx.Watch(ctx) }()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cart.vero"), []byte("page Cart {\n  total = \"#total\"\n}\n"), 0o644))

	require.Eventually(t, func() bool {
		return idx.Snapshot().Has("Cart", "total")
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
