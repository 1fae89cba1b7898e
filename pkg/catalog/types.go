// Package catalog defines the registry of Vero statement templates offered by
// the slash builder.
//
// An ActionDef pairs two renderings of the same statement:
//   - Template holds {slotID} markers and is consumed by the snippet composer.
//   - SlotTemplate holds the same slots as visible ‹label› blanks and is
//     inserted into the buffer, where the placeholder tracker finds them.
//
// Slots appear in both strings in the same order as ActionDef.Slots. The
// catalog checks this in Validate; a misaligned entry would pair the wrong
// blank with the wrong slot.
package catalog

import (
	"fmt"
	"strings"
)

// =============================================================================
// SlotKind
// =============================================================================

// SlotKind determines which popup resolves a slot and how its raw value is
// validated.
type SlotKind int

// Slot kinds.
const (
	// SlotTargetRef is a page element (Page.field) or a raw selector.
	SlotTargetRef SlotKind = iota
	// SlotActionRef is a reusable page action (Page.action).
	SlotActionRef
	// SlotFreeText is arbitrary single-line text.
	SlotFreeText
	// SlotFixedChoice is one of SlotDef.Options.
	SlotFixedChoice
	// SlotInteger is a non-negative integer.
	SlotInteger
	// SlotKeyName is a key picked from KeyNames.
	SlotKeyName
)

var slotKindNames = map[SlotKind]string{
	SlotTargetRef:   "targetRef",
	SlotActionRef:   "actionRef",
	SlotFreeText:    "freeText",
	SlotFixedChoice: "fixedChoice",
	SlotInteger:     "integer",
	SlotKeyName:     "keyName",
}

// String returns the string representation of the slot kind.
func (k SlotKind) String() string {
	if name, ok := slotKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseSlotKind converts a string to a SlotKind.
// Matching ignores case, dashes and underscores ("free_text" == "freeText").
func ParseSlotKind(s string) (SlotKind, bool) {
	want := normalizeName(s)
	for kind, name := range slotKindNames {
		if normalizeName(name) == want {
			return kind, true
		}
	}
	return SlotFreeText, false
}

// MarshalText implements encoding.TextMarshaler.
func (k SlotKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SlotKind) UnmarshalText(text []byte) error {
	kind, ok := ParseSlotKind(string(text))
	if !ok {
		return fmt.Errorf("unknown slot kind %q", text)
	}
	*k = kind
	return nil
}

// =============================================================================
// Category
// =============================================================================

// Category groups actions in the palette. Declaration order is display order.
type Category int

// Categories in display order.
const (
	CategoryNavigation Category = iota
	CategoryInteraction
	CategoryInput
	CategoryAssertion
	CategoryWait
	CategoryStructure
	CategoryHooks
	CategoryUtility
)

// categoryOrder is the fixed palette display order.
var categoryOrder = []Category{
	CategoryNavigation,
	CategoryInteraction,
	CategoryInput,
	CategoryAssertion,
	CategoryWait,
	CategoryStructure,
	CategoryHooks,
	CategoryUtility,
}

var categoryNames = map[Category]string{
	CategoryNavigation:  "navigation",
	CategoryInteraction: "interaction",
	CategoryInput:       "input",
	CategoryAssertion:   "assertion",
	CategoryWait:        "wait",
	CategoryStructure:   "structure",
	CategoryHooks:       "hooks",
	CategoryUtility:     "utility",
}

var categoryTitles = map[Category]string{
	CategoryNavigation:  "Navigation",
	CategoryInteraction: "Interaction",
	CategoryInput:       "Input",
	CategoryAssertion:   "Assertions",
	CategoryWait:        "Waits",
	CategoryStructure:   "Structure",
	CategoryHooks:       "Lifecycle Hooks",
	CategoryUtility:     "Utilities",
}

// Categories returns all categories in display order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// String returns the config/wire name of the category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// Title returns the display name shown as a palette group header.
func (c Category) Title() string {
	if title, ok := categoryTitles[c]; ok {
		return title
	}
	return "Other"
}

// ParseCategory converts a string to a Category.
func ParseCategory(s string) (Category, bool) {
	want := normalizeName(s)
	for cat, name := range categoryNames {
		if name == want {
			return cat, true
		}
	}
	return CategoryUtility, false
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	cat, ok := ParseCategory(string(text))
	if !ok {
		return fmt.Errorf("unknown category %q", text)
	}
	*c = cat
	return nil
}

// =============================================================================
// HookKind
// =============================================================================

// HookKind identifies a lifecycle block inside a FEATURE container.
// The zero value means "not a hook". Valid kinds are totally ordered
// BeforeAll < BeforeEach < AfterEach < AfterAll, which is also the canonical
// textual order of hook blocks.
type HookKind int

// Hook kinds in canonical order.
const (
	HookNone HookKind = iota
	HookBeforeAll
	HookBeforeEach
	HookAfterEach
	HookAfterAll
)

// HookKinds returns the valid hook kinds in canonical order.
func HookKinds() []HookKind {
	return []HookKind{HookBeforeAll, HookBeforeEach, HookAfterEach, HookAfterAll}
}

var hookNames = map[HookKind]string{
	HookBeforeAll:  "beforeAll",
	HookBeforeEach: "beforeEach",
	HookAfterEach:  "afterEach",
	HookAfterAll:   "afterAll",
}

var hookHeaders = map[HookKind]string{
	HookBeforeAll:  "BEFORE ALL",
	HookBeforeEach: "BEFORE EACH",
	HookAfterEach:  "AFTER EACH",
	HookAfterAll:   "AFTER ALL",
}

// Valid reports whether k names a real hook.
func (k HookKind) Valid() bool {
	return k >= HookBeforeAll && k <= HookAfterAll
}

// String returns the camel-case name of the hook kind.
func (k HookKind) String() string {
	if name, ok := hookNames[k]; ok {
		return name
	}
	return "none"
}

// Header returns the block header keyword text, e.g. "BEFORE EACH".
func (k HookKind) Header() string {
	return hookHeaders[k]
}

// ParseHookKind accepts "beforeAll", "before-all", "before_all" or
// "BEFORE ALL" (any case).
func ParseHookKind(s string) (HookKind, bool) {
	want := normalizeName(strings.ReplaceAll(s, " ", ""))
	for kind, name := range hookNames {
		if normalizeName(name) == want {
			return kind, true
		}
	}
	return HookNone, false
}

// MarshalText implements encoding.TextMarshaler.
func (k HookKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. "none" is the zero kind.
func (k *HookKind) UnmarshalText(text []byte) error {
	if string(text) == "none" {
		*k = HookNone
		return nil
	}
	kind, ok := ParseHookKind(string(text))
	if !ok {
		return fmt.Errorf("unknown hook kind %q", text)
	}
	*k = kind
	return nil
}

// =============================================================================
// SlotDef / ActionDef
// =============================================================================

// SlotDef describes one blank of an action template.
type SlotDef struct {
	ID       string   `json:"id"`
	Kind     SlotKind `json:"kind"`
	Label    string   `json:"label"`
	Options  []string `json:"options,omitempty"`
	Optional bool     `json:"optional,omitempty"`
}

// ActionDef is one palette entry.
type ActionDef struct {
	ID           string    `json:"id"`
	Label        string    `json:"label"`
	Keywords     []string  `json:"keywords,omitempty"`
	Template     string    `json:"template"`
	SlotTemplate string    `json:"slotTemplate"`
	Slots        []SlotDef `json:"slots"`
	Category     Category  `json:"category"`
	Description  string    `json:"description,omitempty"`

	// Hook is set for actions that insert a lifecycle block instead of a
	// statement. Hook actions have no slots and skip the fill cycle.
	Hook HookKind `json:"hook,omitempty"`

	// Handoff marks the action that leaves the builder and hands control to
	// a host callback (e.g. the browser recorder).
	Handoff bool `json:"handoff,omitempty"`
}

// Slot returns the slot with the given ID.
func (a *ActionDef) Slot(id string) (SlotDef, bool) {
	for _, s := range a.Slots {
		if s.ID == id {
			return s, true
		}
	}
	return SlotDef{}, false
}

// SlotIndex returns the position of a slot in declared order, or -1.
func (a *ActionDef) SlotIndex(id string) int {
	for i, s := range a.Slots {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// IsHook reports whether the action inserts a lifecycle hook block.
func (a *ActionDef) IsHook() bool {
	return a.Hook.Valid()
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "")
	return strings.ReplaceAll(s, "_", "")
}
