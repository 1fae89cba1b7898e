package snippet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/verokit/pkg/catalog"
)

func action(t *testing.T, id string) catalog.ActionDef {
	t.Helper()
	a, ok := catalog.Default().Lookup(id)
	require.True(t, ok, "missing action %s", id)
	return a
}

func TestBuild_Fill(t *testing.T) {
	values := map[string]Value{
		"target": Target(NewPageRef("LoginPage", "emailInput")),
		"value":  Text("user@test.com"),
	}

	got, ok := Build(action(t, "fill"), values, "    ")
	require.True(t, ok)
	assert.Equal(t, `    FILL LoginPage.emailInput WITH "user@test.com"`, got)
}

func TestBuild_MissingRequired(t *testing.T) {
	fill := action(t, "fill")

	tests := []struct {
		name   string
		values map[string]Value
	}{
		{"nothing", nil},
		{"empty value", map[string]Value{
			"target": Target(NewPageRef("LoginPage", "emailInput")),
			"value":  Text(""),
		}},
		{"whitespace value", map[string]Value{
			"target": Target(NewPageRef("LoginPage", "emailInput")),
			"value":  Text("   "),
		}},
		{"placeholder value", map[string]Value{
			"target": Target(NewPageRef("LoginPage", "emailInput")),
			"value":  Text("‹value›"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Build(fill, tt.values, "")
			assert.False(t, ok)
			assert.Empty(t, got)
		})
	}
}

func TestBuild_Escaping(t *testing.T) {
	got, ok := Build(action(t, "log"), map[string]Value{"message": Text(`say "hi" \o/`)}, "")
	require.True(t, ok)
	assert.Equal(t, `LOG "say \"hi\" \\o/"`, got)
}

func TestBuild_SelectorNotReescaped(t *testing.T) {
	values := map[string]Value{"target": Target(NewSelector("css", `button[name="go"]`))}
	got, ok := Build(action(t, "click"), values, "")
	require.True(t, ok)
	assert.Equal(t, `CLICK CSS "button[name=\"go\"]"`, got)
}

func TestBuild_OptionalCollapses(t *testing.T) {
	shot := action(t, "screenshot")

	got, ok := Build(shot, nil, "  ")
	require.True(t, ok)
	assert.Equal(t, "  TAKE SCREENSHOT", got)

	got, ok = Build(shot, map[string]Value{"name": Text("home")}, "")
	require.True(t, ok)
	assert.Equal(t, `TAKE SCREENSHOT "home"`, got)
}

func TestBuild_TrimsTrailingBlankNotIndent(t *testing.T) {
	wait := catalog.ActionDef{
		ID:       "waitFor",
		Template: "WAIT FOR {seconds}",
		Slots: []catalog.SlotDef{
			{ID: "seconds", Kind: catalog.SlotFreeText, Label: "seconds", Optional: true},
		},
	}

	got, ok := Build(wait, nil, "\t  ")
	require.True(t, ok)
	assert.Equal(t, "\t  WAIT FOR", got)

	got, ok = Build(wait, map[string]Value{"seconds": Text("3")}, "\t  ")
	require.True(t, ok)
	assert.Equal(t, "\t  WAIT FOR 3", got)
}

func TestBuild_NoSlots(t *testing.T) {
	got, ok := Build(action(t, "refresh"), nil, "\t")
	require.True(t, ok)
	assert.Equal(t, "\tREFRESH", got)
}

// Filling the visible blanks one by one must give the same text as composing
// from values, for every action in the catalog.
func TestFillSlotTemplate_MatchesBuild(t *testing.T) {
	sample := map[catalog.SlotKind]Value{
		catalog.SlotTargetRef:   Target(NewPageRef("HomePage", "banner")),
		catalog.SlotActionRef:   Target(NewPageRef("LoginPage", "login")),
		catalog.SlotFreeText:    Text(`a "quoted" value`),
		catalog.SlotInteger:     Text("3"),
		catalog.SlotKeyName:     Text("Enter"),
		catalog.SlotFixedChoice: Text(""),
	}

	for _, a := range catalog.Default().Actions() {
		if a.IsHook() || a.Handoff {
			continue
		}
		t.Run(a.ID, func(t *testing.T) {
			values := make(map[string]Value, len(a.Slots))
			for _, s := range a.Slots {
				v := sample[s.Kind]
				if s.Kind == catalog.SlotFixedChoice {
					v = Text(s.Options[0])
				}
				values[s.ID] = v
			}

			built, ok := Build(a, values, "  ")
			require.True(t, ok)
			filled, ok := FillSlotTemplate(a, values, "  ")
			require.True(t, ok)
			assert.Equal(t, built, filled)
			assert.Zero(t, catalog.CountMarkers(built))

			// The optional collapse path must agree too.
			for _, s := range a.Slots {
				if s.Optional {
					delete(values, s.ID)
				}
			}
			built, _ = Build(a, values, "")
			filled, _ = FillSlotTemplate(a, values, "")
			assert.Equal(t, built, filled)
		})
	}
}

func TestFillSlotTemplate_MissingRequired(t *testing.T) {
	_, ok := FillSlotTemplate(action(t, "drag"), map[string]Value{
		"source": Target(NewPageRef("Board", "card")),
	}, "")
	assert.False(t, ok)
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Value{
		"target": Target(NewPageRef("LoginPage", "emailInput")),
		"value":  Text("x"),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"target":{"kind":"pageRef","page":"LoginPage","field":"emailInput"},"value":"x"}`, string(data))

	var back map[string]Value
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back["target"].IsTarget())
	assert.Equal(t, "LoginPage.emailInput", back["target"].String())
	assert.Equal(t, "x", back["value"].String())
}
