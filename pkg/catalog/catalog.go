package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Catalog is an immutable, ordered set of actions.
// Catalog order is the palette order and the tie-break order for filtering.
type Catalog struct {
	actions []ActionDef
	byID    map[string]int
}

// Group is one palette section.
type Group struct {
	Category Category
	Actions  []ActionDef
}

// templateHole matches {slotID} in ActionDef.Template.
var templateHole = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

var upper = cases.Upper(language.Und)

// New builds a catalog from the given actions without validating them.
func New(actions []ActionDef) *Catalog {
	c := &Catalog{
		actions: make([]ActionDef, len(actions)),
		byID:    make(map[string]int, len(actions)),
	}
	copy(c.actions, actions)
	for i, a := range c.actions {
		if _, dup := c.byID[a.ID]; !dup {
			c.byID[a.ID] = i
		}
	}
	return c
}

// Default returns the builtin catalog.
func Default() *Catalog {
	return New(builtinActions)
}

// Actions returns a copy of all actions in catalog order.
func (c *Catalog) Actions() []ActionDef {
	out := make([]ActionDef, len(c.actions))
	copy(out, c.actions)
	return out
}

// Len returns the number of actions.
func (c *Catalog) Len() int {
	return len(c.actions)
}

// Lookup returns the action with the given ID.
func (c *Catalog) Lookup(id string) (ActionDef, bool) {
	i, ok := c.byID[id]
	if !ok {
		return ActionDef{}, false
	}
	return c.actions[i], true
}

// Handoff returns the designated handoff action, if the catalog has one.
func (c *Catalog) Handoff() (ActionDef, bool) {
	for _, a := range c.actions {
		if a.Handoff {
			return a, true
		}
	}
	return ActionDef{}, false
}

// Filter returns the actions matching a palette query.
//
// A blank query returns the whole catalog. Otherwise an action matches when
// the uppercased query is a substring of its label, when one of its keywords
// starts with the uppercased query, or when the query appears in its
// description. Matches keep catalog order; there is no ranking.
func (c *Catalog) Filter(query string) []ActionDef {
	if strings.TrimSpace(query) == "" {
		return c.Actions()
	}

	q := upper.String(strings.TrimSpace(query))
	lowerQ := strings.ToLower(strings.TrimSpace(query))

	var out []ActionDef
	for _, a := range c.actions {
		if matches(a, q, lowerQ) {
			out = append(out, a)
		}
	}
	return out
}

func matches(a ActionDef, upperQ, lowerQ string) bool {
	if strings.Contains(upper.String(a.Label), upperQ) {
		return true
	}
	for _, kw := range a.Keywords {
		if strings.HasPrefix(upper.String(kw), upperQ) {
			return true
		}
	}
	return a.Description != "" && strings.Contains(strings.ToLower(a.Description), lowerQ)
}

// GroupByCategory splits actions into palette sections in the fixed category
// display order. Empty categories are omitted; each group keeps input order.
func GroupByCategory(actions []ActionDef) []Group {
	buckets := make(map[Category][]ActionDef)
	for _, a := range actions {
		buckets[a.Category] = append(buckets[a.Category], a)
	}

	groups := make([]Group, 0, len(buckets))
	for _, cat := range categoryOrder {
		if list := buckets[cat]; len(list) > 0 {
			groups = append(groups, Group{Category: cat, Actions: list})
			delete(buckets, cat)
		}
	}

	// Unknown categories share one trailing "Other" group, in input order.
	if len(buckets) > 0 {
		var rest []ActionDef
		for _, a := range actions {
			if _, ok := buckets[a.Category]; ok {
				rest = append(rest, a)
			}
		}
		groups = append(groups, Group{Category: rest[0].Category, Actions: rest})
	}
	return groups
}

// Extend returns a new catalog with extra actions appended after the
// existing ones. The result is validated; the receiver is never modified.
func (c *Catalog) Extend(extra ...ActionDef) (*Catalog, error) {
	all := make([]ActionDef, 0, len(c.actions)+len(extra))
	all = append(all, c.actions...)
	all = append(all, extra...)

	next := New(all)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// Validation errors.
var (
	ErrDuplicateID       = errors.New("duplicate action id")
	ErrMarkerMismatch    = errors.New("slot template markers do not match slots")
	ErrTemplateMismatch  = errors.New("template holes do not match slots")
	ErrMissingOptions    = errors.New("fixed choice slot has no options")
	ErrDuplicateSlot     = errors.New("duplicate slot id")
	ErrMultipleHandoff   = errors.New("more than one handoff action")
	ErrHookWithSlots     = errors.New("hook action declares slots")
	ErrEmptyActionID     = errors.New("action id is required")
	ErrMultilineTemplate = errors.New("template spans multiple lines")
)

// Validate checks the static invariants of every entry:
//   - IDs are present and unique, and slot IDs are unique per action;
//   - SlotTemplate has exactly one ‹…› marker per slot;
//   - Template has one {slotID} hole per slot, in slot order;
//   - fixed choice slots carry options;
//   - hook actions have no slots and at most one action is a handoff.
func (c *Catalog) Validate() error {
	var errs []error

	seen := make(map[string]bool, len(c.actions))
	handoffs := 0
	for _, a := range c.actions {
		if a.ID == "" {
			errs = append(errs, fmt.Errorf("%q: %w", a.Label, ErrEmptyActionID))
			continue
		}
		if seen[a.ID] {
			errs = append(errs, fmt.Errorf("%s: %w", a.ID, ErrDuplicateID))
		}
		seen[a.ID] = true
		if a.Handoff {
			handoffs++
		}
		errs = append(errs, validateAction(a)...)
	}

	if handoffs > 1 {
		errs = append(errs, ErrMultipleHandoff)
	}
	return errors.Join(errs...)
}

func validateAction(a ActionDef) []error {
	var errs []error

	if strings.ContainsAny(a.Template, "\n\r") || strings.ContainsAny(a.SlotTemplate, "\n\r") {
		errs = append(errs, fmt.Errorf("%s: %w", a.ID, ErrMultilineTemplate))
	}

	if a.IsHook() && len(a.Slots) > 0 {
		errs = append(errs, fmt.Errorf("%s: %w", a.ID, ErrHookWithSlots))
	}

	slotIDs := make(map[string]bool, len(a.Slots))
	for _, s := range a.Slots {
		if slotIDs[s.ID] {
			errs = append(errs, fmt.Errorf("%s.%s: %w", a.ID, s.ID, ErrDuplicateSlot))
		}
		slotIDs[s.ID] = true
		if s.Kind == SlotFixedChoice && len(s.Options) == 0 {
			errs = append(errs, fmt.Errorf("%s.%s: %w", a.ID, s.ID, ErrMissingOptions))
		}
	}

	if got := CountMarkers(a.SlotTemplate); got != len(a.Slots) {
		errs = append(errs, fmt.Errorf("%s: %d markers for %d slots: %w",
			a.ID, got, len(a.Slots), ErrMarkerMismatch))
	}

	holes := TemplateHoles(a.Template)
	if len(holes) != len(a.Slots) {
		errs = append(errs, fmt.Errorf("%s: %d holes for %d slots: %w",
			a.ID, len(holes), len(a.Slots), ErrTemplateMismatch))
	} else {
		for i, h := range holes {
			if h != a.Slots[i].ID {
				errs = append(errs, fmt.Errorf("%s: hole %d is {%s}, want {%s}: %w",
					a.ID, i+1, h, a.Slots[i].ID, ErrTemplateMismatch))
			}
		}
	}
	return errs
}

// TemplateHoles returns the slot IDs referenced by a template, in order.
func TemplateHoles(template string) []string {
	matches := templateHole.FindAllStringSubmatch(template, -1)
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m[1])
	}
	return ids
}
