// Package pages indexes the page objects of a workspace so popups can offer
// Page.field and Page.action completions.
//
// Parsing is a line scan with brace-depth tracking, in the same spirit as the
// hook scanner. It understands these forms, case-insensitively:
//
//	page LoginPage {
//	    field email = "#email"
//	    submit = "Sign in"
//	}
//	pageactions LoginActions for LoginPage {
//	    loginAs with user, pass {
//	        ...
//	    }
//	}
package pages

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/verokit/internal/hooks"
)

// Field is one named element of a page.
type Field struct {
	Name     string `json:"name"`
	Selector string `json:"selector"`
}

// Action is one reusable page action.
type Action struct {
	Name   string   `json:"name"`
	Params []string `json:"params,omitempty"`
}

// Page is one page object.
type Page struct {
	Name    string   `json:"name"`
	File    string   `json:"file,omitempty"`
	Line    int      `json:"line"`
	Fields  []Field  `json:"fields"`
	Actions []Action `json:"actions"`
}

var (
	pagePattern        = regexp.MustCompile(`(?i)^\s*page\s+([A-Za-z_][A-Za-z0-9_]*)\s*\{`)
	pageActionsPattern = regexp.MustCompile(`(?i)^\s*pageactions\s+[A-Za-z_][A-Za-z0-9_]*\s+for\s+([A-Za-z_][A-Za-z0-9_]*)\s*\{`)
	fieldPattern       = regexp.MustCompile(`(?i)^\s*(?:field\s+|text\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.*?)\s*$`)
	actionPattern      = regexp.MustCompile(`(?i)^\s*(?:action\s+)?([A-Za-z_][A-Za-z0-9_]*)(?:\s+with\s+([^{]*))?\s*\{`)
)

// Parse extracts the pages declared in one file.
// Members declared in a pageactions block are attached to the page it names.
func Parse(text string) []Page {
	var out []Page
	index := make(map[string]int)

	pageFor := func(name string, line int) *Page {
		if i, ok := index[name]; ok {
			return &out[i]
		}
		index[name] = len(out)
		out = append(out, Page{Name: name, Line: line})
		return &out[len(out)-1]
	}

	var current string
	actionsBlock := false
	depth := 0

	for i, text := range strings.Split(text, "\n") {
		line := i + 1
		switch {
		case depth == 0:
			if m := pagePattern.FindStringSubmatch(text); m != nil {
				pageFor(m[1], line)
				current, actionsBlock = m[1], false
			} else if m := pageActionsPattern.FindStringSubmatch(text); m != nil {
				pageFor(m[1], line)
				current, actionsBlock = m[1], true
			}

		case depth == 1 && current != "":
			p := pageFor(current, line)
			if m := actionPattern.FindStringSubmatch(text); m != nil && (actionsBlock || hasKeyword(text, "action")) {
				p.Actions = append(p.Actions, Action{Name: m[1], Params: splitParams(m[2])})
			} else if m := fieldPattern.FindStringSubmatch(text); m != nil && !actionsBlock {
				p.Fields = append(p.Fields, Field{Name: m[1], Selector: unquote(m[2])})
			}
		}

		depth += hooks.BraceDelta(text)
		if depth <= 0 {
			depth = 0
			current = ""
		}
	}
	return out
}

func hasKeyword(line, kw string) bool {
	fields := strings.Fields(line)
	return len(fields) > 0 && strings.EqualFold(fields[0], kw)
}

func splitParams(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
		s = strings.ReplaceAll(s, `\"`, `"`)
		s = strings.ReplaceAll(s, `\\`, `\`)
	}
	return s
}
