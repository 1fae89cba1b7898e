package slash

import (
	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/internal/pages"
	"github.com/leapstack-labs/verokit/pkg/catalog"
	"github.com/leapstack-labs/verokit/pkg/snippet"
)

// Popup describes the form a host shows to resolve one slot. The set of
// popups is closed: there is exactly one per catalog.SlotKind.
type Popup interface {
	// Slot returns the slot the popup resolves.
	Slot() catalog.SlotDef
	// Position returns where the popup opens.
	Position() editor.ScreenPos
	// Resolve validates raw input the way FillSlot will.
	Resolve(raw string) (snippet.Value, error)

	popup()
}

// popupBase holds the fields shared by every popup.
type popupBase struct {
	Kind    catalog.SlotKind `json:"kind"`
	SlotID  string           `json:"slotId"`
	Label   string           `json:"label"`
	Current string           `json:"current,omitempty"`
	At      editor.ScreenPos `json:"position"`

	slot catalog.SlotDef
}

func (p popupBase) Slot() catalog.SlotDef      { return p.slot }
func (p popupBase) Position() editor.ScreenPos { return p.At }
func (popupBase) popup()                       {}

func (p popupBase) Resolve(raw string) (snippet.Value, error) {
	return snippet.Resolve(p.slot, raw)
}

// PageChoice is one page in a cascading popup, with the members it offers.
type PageChoice struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// TargetPopup cascades page -> field, or takes a raw selector.
type TargetPopup struct {
	popupBase
	Pages         []PageChoice `json:"pages"`
	SelectorTypes []string     `json:"selectorTypes"`
}

// PageRef returns the value for a picked page field.
func (p TargetPopup) PageRef(page, field string) snippet.Value {
	return snippet.Target(snippet.NewPageRef(page, field))
}

// Selector returns the value for a raw selector.
func (p TargetPopup) Selector(typ, value string) snippet.Value {
	return snippet.Target(snippet.NewSelector(typ, value))
}

// ActionPopup cascades page -> reusable action.
type ActionPopup struct {
	popupBase
	Pages []PageChoice `json:"pages"`
}

// PageAction returns the value for a picked page action.
func (p ActionPopup) PageAction(page, action string) snippet.Value {
	return snippet.Target(snippet.NewPageRef(page, action))
}

// TextPopup is a single-line text input.
type TextPopup struct {
	popupBase
	Optional bool `json:"optional,omitempty"`
}

// ChoicePopup lists the slot's fixed options.
type ChoicePopup struct {
	popupBase
	Options []string `json:"options"`
}

// IntegerPopup is a numeric input.
type IntegerPopup struct {
	popupBase
	Min int `json:"min"`
}

// KeyPopup lists the supported key names.
type KeyPopup struct {
	popupBase
	Keys []string `json:"keys"`
}

// NewPopup builds the popup for a slot. snap supplies the pages offered by
// cascading popups; it may be nil. current is the slot's present value, if
// it was filled before.
func NewPopup(slot catalog.SlotDef, pos editor.ScreenPos, snap *pages.Snapshot, current string) Popup {
	base := popupBase{
		Kind:    slot.Kind,
		SlotID:  slot.ID,
		Label:   slot.Label,
		Current: current,
		At:      pos,
		slot:    slot,
	}

	switch slot.Kind {
	case catalog.SlotTargetRef:
		return TargetPopup{
			popupBase:     base,
			Pages:         pageChoices(snap, false),
			SelectorTypes: append([]string(nil), snippet.SelectorTypes...),
		}
	case catalog.SlotActionRef:
		return ActionPopup{popupBase: base, Pages: pageChoices(snap, true)}
	case catalog.SlotFixedChoice:
		return ChoicePopup{popupBase: base, Options: append([]string(nil), slot.Options...)}
	case catalog.SlotInteger:
		return IntegerPopup{popupBase: base}
	case catalog.SlotKeyName:
		return KeyPopup{popupBase: base, Keys: catalog.KeyNames()}
	default:
		return TextPopup{popupBase: base, Optional: slot.Optional}
	}
}

// pageChoices lists pages with their fields, or with their actions when
// actions is set. Pages with nothing to offer are left out.
func pageChoices(snap *pages.Snapshot, actions bool) []PageChoice {
	var out []PageChoice
	for _, p := range snap.All() {
		var members []string
		if actions {
			for _, a := range p.Actions {
				members = append(members, a.Name)
			}
		} else {
			for _, f := range p.Fields {
				members = append(members, f.Name)
			}
		}
		if len(members) == 0 {
			continue
		}
		out = append(out, PageChoice{Name: p.Name, Members: members})
	}
	return out
}

// Suggestions flattens a popup into the text values it offers, in the form
// Resolve accepts: Page.member for cascading popups, then one selector
// prefix per locator type for targets, or the listed options.
func Suggestions(p Popup) []string {
	var out []string
	switch p := p.(type) {
	case TargetPopup:
		out = flattenPages(p.Pages)
		for _, typ := range p.SelectorTypes {
			out = append(out, typ+` "`)
		}
	case ActionPopup:
		out = flattenPages(p.Pages)
	case ChoicePopup:
		out = append(out, p.Options...)
	case KeyPopup:
		out = append(out, p.Keys...)
	}
	return out
}

func flattenPages(choices []PageChoice) []string {
	var out []string
	for _, c := range choices {
		for _, m := range c.Members {
			out = append(out, c.Name+"."+m)
		}
	}
	return out
}
