package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanMarkers(t *testing.T) {
	tests := []struct {
		line string
		want []Marker
	}{
		{"", nil},
		{"CLICK Login.submit", nil},
		{"CLICK ‹target›", []Marker{{Label: "target", StartColumn: 7, EndColumn: 15}}},
		{
			`    FILL ‹target› WITH "‹value›"`,
			[]Marker{
				{Label: "target", StartColumn: 10, EndColumn: 18},
				{Label: "value", StartColumn: 25, EndColumn: 32},
			},
		},
		{"‹a ‹b›", []Marker{{Label: "b", StartColumn: 4, EndColumn: 7}}},
		{"‹open only", nil},
		{"close only›", nil},
		{"‹›", []Marker{{Label: "", StartColumn: 1, EndColumn: 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, ScanMarkers(tt.line))
		})
	}
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder("‹value›"))
	assert.True(t, IsPlaceholder("  ‹value› "))
	assert.False(t, IsPlaceholder("value"))
	assert.False(t, IsPlaceholder("‹a› ‹b›"))
	assert.False(t, IsPlaceholder("x‹a›"))
	assert.False(t, IsPlaceholder("‹a›x›"))
	assert.False(t, IsPlaceholder("‹"))
}

func TestMarkerText(t *testing.T) {
	assert.Equal(t, "‹url›", MarkerText("url"))
}

func TestParse(t *testing.T) {
	data := []byte(`
actions:
  - id: login
    label: LOGIN AS
    category: structure
    keywords: [SIGN IN]
    template: 'PERFORM LoginPage.loginAs WITH "{user}"'
    slots:
      - id: user
        label: username
  - id: setup
    hook: beforeEach
`)

	defs, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	login := defs[0]
	assert.Equal(t, CategoryStructure, login.Category)
	assert.Equal(t, `PERFORM LoginPage.loginAs WITH "‹username›"`, login.SlotTemplate)
	require.Len(t, login.Slots, 1)
	assert.Equal(t, SlotFreeText, login.Slots[0].Kind)

	setup := defs[1]
	assert.Equal(t, "setup", setup.Label)
	assert.Equal(t, HookBeforeEach, setup.Hook)
	assert.Equal(t, CategoryHooks, setup.Category)

	_, err = Default().Extend(defs[0])
	assert.NoError(t, err)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "actions: [:"},
		{"bad category", "actions:\n  - id: x\n    category: nope\n"},
		{"bad hook", "actions:\n  - id: x\n    hook: during\n"},
		{"bad slot kind", "actions:\n  - id: x\n    slots:\n      - id: a\n        kind: blob\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
