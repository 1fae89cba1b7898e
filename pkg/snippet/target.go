// Package snippet turns catalog templates and resolved slot values into Vero
// script text. Everything here is pure; nothing touches an editor buffer.
package snippet

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// TargetKind discriminates TargetValue.
type TargetKind int

// Target kinds.
const (
	// TargetPageRef references a named member of a page object.
	TargetPageRef TargetKind = iota
	// TargetSelector is a raw locator, e.g. CSS "#login".
	TargetSelector
)

// String returns the wire name of the target kind.
func (k TargetKind) String() string {
	switch k {
	case TargetPageRef:
		return "pageRef"
	case TargetSelector:
		return "selector"
	default:
		return "unknown"
	}
}

// TargetValue is what a target popup produces: either Page.field or a typed
// raw selector. Values are immutable once built.
type TargetValue struct {
	Kind TargetKind

	// PageRef
	Page  string
	Field string

	// Selector
	Type  string
	Value string
}

// NewPageRef builds a reference to a page member.
func NewPageRef(page, field string) TargetValue {
	return TargetValue{Kind: TargetPageRef, Page: page, Field: field}
}

// NewSelector builds a raw selector target. The selector type is uppercased.
func NewSelector(typ, value string) TargetValue {
	return TargetValue{Kind: TargetSelector, Type: strings.ToUpper(typ), Value: value}
}

// SelectorTypes lists the locator types offered by the target popup.
var SelectorTypes = []string{"CSS", "XPATH", "TEXT", "TESTID", "ROLE", "LABEL", "PLACEHOLDER"}

// FormatTarget renders a target as script text.
//
//	pageRef   -> LoginPage.emailInput
//	selector  -> CSS "#login \"btn\""
func FormatTarget(t TargetValue) string {
	switch t.Kind {
	case TargetSelector:
		return strings.ToUpper(t.Type) + ` "` + escapeQuoted(t.Value) + `"`
	default:
		return t.Page + "." + t.Field
	}
}

// String implements fmt.Stringer.
func (t TargetValue) String() string {
	return FormatTarget(t)
}

// escapeQuoted escapes backslashes, then double quotes.
func escapeQuoted(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// unescapeQuoted reverses escapeQuoted.
func unescapeQuoted(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	if escaped {
		b.WriteRune('\\')
	}
	return b.String()
}

var (
	pageRefPattern  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)$`)
	selectorPattern = regexp.MustCompile(`^([A-Za-z]+)\s+"((?:[^"\\]|\\.)*)"$`)
)

// ParseTarget parses the text form produced by FormatTarget.
func ParseTarget(raw string) (TargetValue, error) {
	raw = strings.TrimSpace(raw)
	if m := pageRefPattern.FindStringSubmatch(raw); m != nil {
		return NewPageRef(m[1], m[2]), nil
	}
	if m := selectorPattern.FindStringSubmatch(raw); m != nil {
		return NewSelector(m[1], unescapeQuoted(m[2])), nil
	}
	return TargetValue{}, fmt.Errorf("%q: %w", raw, ErrBadTarget)
}

type targetJSON struct {
	Kind  string `json:"kind"`
	Page  string `json:"page,omitempty"`
	Field string `json:"field,omitempty"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value,omitempty"`
}

// MarshalJSON encodes the tagged variant as {"kind":"pageRef",...}.
func (t TargetValue) MarshalJSON() ([]byte, error) {
	out := targetJSON{Kind: t.Kind.String()}
	if t.Kind == TargetSelector {
		out.Type, out.Value = t.Type, t.Value
	} else {
		out.Page, out.Field = t.Page, t.Field
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes {"kind":"pageRef","page":..,"field":..} or
// {"kind":"selector","type":..,"value":..}.
func (t *TargetValue) UnmarshalJSON(data []byte) error {
	var in targetJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Kind {
	case "pageRef":
		if in.Page == "" || in.Field == "" {
			return fmt.Errorf("pageRef needs page and field: %w", ErrBadTarget)
		}
		*t = NewPageRef(in.Page, in.Field)
	case "selector":
		if in.Type == "" {
			return fmt.Errorf("selector needs a type: %w", ErrBadTarget)
		}
		*t = NewSelector(in.Type, in.Value)
	default:
		return fmt.Errorf("unknown target kind %q: %w", in.Kind, ErrBadTarget)
	}
	return nil
}
