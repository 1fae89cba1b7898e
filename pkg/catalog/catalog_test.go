package catalog

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	for _, a := range c.Actions() {
		assert.Equal(t, len(a.Slots), CountMarkers(a.SlotTemplate), "markers for %s", a.ID)
		holes := TemplateHoles(a.Template)
		require.Len(t, holes, len(a.Slots), "holes for %s", a.ID)
		for i, h := range holes {
			assert.Equal(t, a.Slots[i].ID, h, "%s hole %d", a.ID, i)
		}
	}
}

func TestDefaultCatalog_Handoff(t *testing.T) {
	a, ok := Default().Handoff()
	require.True(t, ok)
	assert.Equal(t, RecordActionID, a.ID)
}

func TestDefaultCatalog_Hooks(t *testing.T) {
	c := Default()
	for _, kind := range HookKinds() {
		a, ok := c.Lookup(kind.String())
		require.True(t, ok, kind.String())
		assert.True(t, a.IsHook())
		assert.Equal(t, kind, a.Hook)
		assert.Equal(t, CategoryHooks, a.Category)
		assert.Empty(t, a.Slots)
	}
}

func TestFilter(t *testing.T) {
	c := Default()

	tests := []struct {
		name    string
		query   string
		wantIDs []string
		wantNot []string
	}{
		{name: "label substring", query: "FILL", wantIDs: []string{"fill"}},
		{name: "lowercase query", query: "fill", wantIDs: []string{"fill"}},
		{name: "keyword prefix", query: "nav", wantIDs: []string{"open"}},
		{name: "description", query: "dropdown", wantIDs: []string{"select"}},
		{name: "label substring inside", query: "CLICK", wantIDs: []string{"click", "doubleClick", "rightClick"}},
		{name: "keyword not substring", query: "BLCLICK", wantNot: []string{"doubleClick"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(c.Filter(tt.query))
			for _, id := range tt.wantIDs {
				assert.Contains(t, got, id)
			}
			for _, id := range tt.wantNot {
				assert.NotContains(t, got, id)
			}
		})
	}
}

func TestFilter_BlankReturnsAll(t *testing.T) {
	c := Default()
	assert.Len(t, c.Filter(""), c.Len())
	assert.Len(t, c.Filter("   "), c.Len())
}

func TestFilter_KeepsCatalogOrder(t *testing.T) {
	got := ids(Default().Filter("CLICK"))
	assert.Equal(t, []string{"click", "doubleClick", "rightClick"}, got[:3])
}

func TestFilter_NoMatch(t *testing.T) {
	assert.Empty(t, Default().Filter("zzzz-nothing"))
}

func TestGroupByCategory(t *testing.T) {
	groups := GroupByCategory(Default().Actions())
	require.NotEmpty(t, groups)

	// Fixed order, no empty groups.
	last := Category(-1)
	total := 0
	for _, g := range groups {
		assert.Greater(t, int(g.Category), int(last))
		assert.NotEmpty(t, g.Actions)
		for _, a := range g.Actions {
			assert.Equal(t, g.Category, a.Category)
		}
		last = g.Category
		total += len(g.Actions)
	}
	assert.Equal(t, Default().Len(), total)
	assert.Equal(t, CategoryNavigation, groups[0].Category)
}

func TestGroupByCategory_Idempotent(t *testing.T) {
	actions := Default().Filter("VERIFY")
	first := GroupByCategory(actions)

	var flat []ActionDef
	for _, g := range first {
		flat = append(flat, g.Actions...)
	}
	assert.Equal(t, first, GroupByCategory(flat))
}

func TestGroupByCategory_OmitsEmpty(t *testing.T) {
	groups := GroupByCategory(Default().Filter("WAIT"))
	for _, g := range groups {
		assert.NotEqual(t, CategoryHooks, g.Category)
	}
}

func TestGroupByCategory_UnknownCategories(t *testing.T) {
	actions := []ActionDef{
		{ID: "note", Category: CategoryUtility},
		{ID: "odd", Category: Category(42)},
		{ID: "odder", Category: Category(43)},
	}

	groups := GroupByCategory(actions)
	require.Len(t, groups, 2)
	assert.Equal(t, "Utilities", groups[0].Category.Title())
	assert.Len(t, groups[0].Actions, 1)
	assert.Equal(t, "Other", groups[1].Category.Title())
	require.Len(t, groups[1].Actions, 2)
	assert.Equal(t, "odd", groups[1].Actions[0].ID)
	assert.Equal(t, "odder", groups[1].Actions[1].ID)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		action ActionDef
		want   error
	}{
		{
			name: "marker mismatch",
			action: ActionDef{ID: "x", Template: "X {a}", SlotTemplate: "X",
				Slots: []SlotDef{{ID: "a", Kind: SlotFreeText}}},
			want: ErrMarkerMismatch,
		},
		{
			name: "hole order",
			action: ActionDef{ID: "x", Template: "X {b} {a}", SlotTemplate: "X ‹a› ‹b›",
				Slots: []SlotDef{{ID: "a"}, {ID: "b"}}},
			want: ErrTemplateMismatch,
		},
		{
			name: "choice without options",
			action: ActionDef{ID: "x", Template: "X {a}", SlotTemplate: "X ‹a›",
				Slots: []SlotDef{{ID: "a", Kind: SlotFixedChoice}}},
			want: ErrMissingOptions,
		},
		{
			name: "duplicate slot",
			action: ActionDef{ID: "x", Template: "X {a} {a}", SlotTemplate: "X ‹a› ‹a›",
				Slots: []SlotDef{{ID: "a"}, {ID: "a"}}},
			want: ErrDuplicateSlot,
		},
		{
			name: "hook with slots",
			action: ActionDef{ID: "x", Template: "X {a}", SlotTemplate: "X ‹a›", Hook: HookBeforeAll,
				Slots: []SlotDef{{ID: "a"}}},
			want: ErrHookWithSlots,
		},
		{
			name:   "multiline",
			action: ActionDef{ID: "x", Template: "X\nY", SlotTemplate: "X\nY"},
			want:   ErrMultilineTemplate,
		},
		{
			name:   "empty id",
			action: ActionDef{Label: "NO ID"},
			want:   ErrEmptyActionID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New([]ActionDef{tt.action}).Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestExtend(t *testing.T) {
	base := Default()
	extra := ActionDef{
		ID:           "login",
		Label:        "LOGIN AS",
		Template:     `PERFORM LoginPage.login WITH "{user}"`,
		SlotTemplate: `PERFORM LoginPage.login WITH "‹user›"`,
		Slots:        []SlotDef{{ID: "user", Kind: SlotFreeText, Label: "user"}},
		Category:     CategoryStructure,
	}

	next, err := base.Extend(extra)
	require.NoError(t, err)
	assert.Equal(t, base.Len()+1, next.Len())

	_, ok := base.Lookup("login")
	assert.False(t, ok, "receiver must not change")
	_, ok = next.Lookup("login")
	assert.True(t, ok)

	_, err = base.Extend(ActionDef{ID: "click", Template: "CLICK", SlotTemplate: "CLICK"})
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = base.Extend(ActionDef{ID: "rec2", Handoff: true})
	assert.ErrorIs(t, err, ErrMultipleHandoff)
}

func TestParseEnums(t *testing.T) {
	k, ok := ParseSlotKind("free_text")
	assert.True(t, ok)
	assert.Equal(t, SlotFreeText, k)

	_, ok = ParseSlotKind("bogus")
	assert.False(t, ok)

	c, ok := ParseCategory("Assertion")
	assert.True(t, ok)
	assert.Equal(t, CategoryAssertion, c)

	for _, in := range []string{"beforeEach", "before-each", "BEFORE EACH", "before_each"} {
		h, ok := ParseHookKind(in)
		assert.True(t, ok, in)
		assert.Equal(t, HookBeforeEach, h, in)
	}
	_, ok = ParseHookKind("during")
	assert.False(t, ok)

	assert.Equal(t, "AFTER ALL", HookAfterAll.Header())
	assert.False(t, HookNone.Valid())
	assert.True(t, HookBeforeAll < HookBeforeEach && HookBeforeEach < HookAfterEach && HookAfterEach < HookAfterAll)
}

func TestCanonicalKey(t *testing.T) {
	k, ok := CanonicalKey("enter")
	assert.True(t, ok)
	assert.Equal(t, "Enter", k)

	_, ok = CanonicalKey("Hyper")
	assert.False(t, ok)
}

func ids(actions []ActionDef) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.ID
	}
	return out
}

func TestActionDef_JSONDecode(t *testing.T) {
	want, ok := Default().Lookup("beforeEach")
	require.True(t, ok)

	data, err := json.Marshal(want)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"category":"hooks"`)
	assert.Contains(t, string(data), `"hook":"beforeEach"`)

	var got ActionDef
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, want.Category, got.Category)
	assert.Equal(t, want.Hook, got.Hook)

	var kind SlotKind
	require.NoError(t, json.Unmarshal([]byte(`"keyName"`), &kind))
	assert.Equal(t, SlotKeyName, kind)
	require.Error(t, json.Unmarshal([]byte(`"colour"`), &kind))
}
