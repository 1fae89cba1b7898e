package snippet

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/leapstack-labs/verokit/pkg/catalog"
)

// Value is a resolved slot value: plain text or a target.
type Value struct {
	text   string
	target *TargetValue
}

// Text wraps a plain string value.
func Text(s string) Value {
	return Value{text: s}
}

// Target wraps a target value.
func Target(t TargetValue) Value {
	return Value{target: &t}
}

// IsTarget reports whether the value holds a target.
func (v Value) IsTarget() bool {
	return v.target != nil
}

// TargetValue returns the wrapped target, if any.
func (v Value) TargetValue() (TargetValue, bool) {
	if v.target == nil {
		return TargetValue{}, false
	}
	return *v.target, true
}

// String renders the value as it appears in script text (unquoted).
func (v Value) String() string {
	if v.target != nil {
		return FormatTarget(*v.target)
	}
	return v.text
}

// MarshalJSON encodes text values as strings and targets as objects.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.target != nil {
		return json.Marshal(v.target)
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON accepts a JSON string or a target object.
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Text(s)
		return nil
	}
	var t TargetValue
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	*v = Target(t)
	return nil
}

// quotedHole matches {slotID} together with any directly adjacent quotes.
var quotedHole = regexp.MustCompile(`("?)\{([A-Za-z_][A-Za-z0-9_]*)\}("?)`)

// resolved is the per-slot outcome shared by Build and FillSlotTemplate.
type resolved struct {
	text   string
	empty  bool
	escape bool
}

// resolve checks every slot and returns its rendering, or false when a
// required slot is missing, empty, or still a visible blank.
func resolve(action catalog.ActionDef, values map[string]Value) (map[string]resolved, bool) {
	out := make(map[string]resolved, len(action.Slots))
	for _, slot := range action.Slots {
		v, ok := values[slot.ID]
		text := ""
		if ok {
			text = v.String()
		}
		if strings.TrimSpace(text) == "" || catalog.IsPlaceholder(text) {
			if !slot.Optional {
				return nil, false
			}
			out[slot.ID] = resolved{empty: true}
			continue
		}
		out[slot.ID] = resolved{text: text, escape: !v.IsTarget()}
	}
	return out, true
}

// Render returns the text that replaces one blank. quoted reports whether
// the blank sits between double quotes, in which case text values are
// escaped.
func Render(v Value, quoted bool) string {
	return resolved{text: v.String(), escape: !v.IsTarget()}.render(quoted)
}

func (r resolved) render(quoted bool) string {
	if r.escape && quoted {
		return escapeQuoted(r.text)
	}
	return r.text
}

// Build composes the final statement for an action.
//
// Each {slotID} in action.Template is replaced with its value. An empty
// optional slot becomes the empty string, and a "{slot}" wrapped in quotes
// loses its quotes too. A required slot that is missing, empty, or still a
// ‹placeholder› makes Build return false; nothing partial is ever returned.
// Text values that sit inside quotes are escaped. The result is prefixed
// with indent and has trailing spaces trimmed.
func Build(action catalog.ActionDef, values map[string]Value, indent string) (string, bool) {
	res, ok := resolve(action, values)
	if !ok {
		return "", false
	}

	text := quotedHole.ReplaceAllStringFunc(action.Template, func(m string) string {
		sub := quotedHole.FindStringSubmatch(m)
		open, id, closing := sub[1], sub[2], sub[3]
		r, known := res[id]
		if !known {
			return m
		}
		quoted := open == `"` && closing == `"`
		if r.empty {
			if quoted {
				return ""
			}
			return open + closing
		}
		return open + r.render(quoted) + closing
	})

	return indent + strings.TrimRight(text, " \t"), true
}

// FillSlotTemplate produces the same text as Build by filling the visible
// blanks of action.SlotTemplate left to right, the way a user resolving each
// popup would. The Nth blank takes the Nth slot's value.
func FillSlotTemplate(action catalog.ActionDef, values map[string]Value, indent string) (string, bool) {
	res, ok := resolve(action, values)
	if !ok {
		return "", false
	}

	runes := []rune(action.SlotTemplate)
	markers := catalog.ScanMarkers(action.SlotTemplate)

	var b strings.Builder
	pos := 0 // rune index of the next unconsumed rune
	for i, m := range markers {
		if i >= len(action.Slots) {
			break
		}
		start, end := m.StartColumn-1, m.EndColumn-1
		quoted := start > 0 && end < len(runes) && runes[start-1] == '"' && runes[end] == '"'

		r := res[action.Slots[i].ID]
		switch {
		case r.empty && quoted:
			// Drop the surrounding quotes along with the blank.
			b.WriteString(string(runes[pos : start-1]))
			pos = end + 1
		case r.empty:
			b.WriteString(string(runes[pos:start]))
			pos = end
		default:
			b.WriteString(string(runes[pos:start]))
			b.WriteString(r.render(quoted))
			pos = end
		}
	}
	b.WriteString(string(runes[pos:]))

	return indent + strings.TrimRight(b.String(), " \t"), true
}
