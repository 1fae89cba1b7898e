package hooks

import (
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/pkg/catalog"
)

// DefaultIndentUnit is one level of indentation.
const DefaultIndentUnit = "    "

// HookBlock is one lifecycle block found directly inside a container.
type HookBlock struct {
	Kind            catalog.HookKind `json:"kind"`
	StartLine       int              `json:"startLine"`
	OpenBraceLine   int              `json:"openBraceLine"`
	OpenBraceColumn int              `json:"openBraceColumn"`
	CloseLine       int              `json:"closeLine"`
	BodyLine        int              `json:"bodyLine"`
}

// Analysis describes the direct children of a container.
type Analysis struct {
	Bounds FeatureBounds

	// Hooks holds the first block of each kind present. Absent kinds are
	// missing from the map.
	Hooks map[catalog.HookKind]HookBlock

	// Scenarios lists the header lines of direct-child scenarios.
	Scenarios []int

	// FirstScenarioLine is 0 when the container has no scenario.
	FirstScenarioLine int

	// MemberIndent is the indentation of the first non-blank direct child,
	// defaulting to the container indent plus one unit.
	MemberIndent string
}

// Analyze walks the lines strictly between a container's braces and records
// hook and scenario headers at depth one. Headers nested deeper belong to
// other blocks and are ignored.
func Analyze(buf editor.Buffer, bounds FeatureBounds, indentUnit string) Analysis {
	if indentUnit == "" {
		indentUnit = DefaultIndentUnit
	}
	a := Analysis{
		Bounds: bounds,
		Hooks:  make(map[catalog.HookKind]HookBlock),
	}

	memberIndent := ""
	haveIndent := false
	depth := 1
	for line := bounds.OpenBraceLine + 1; line < bounds.CloseBraceLine; line++ {
		text := buf.LineText(line)

		if depth == 1 && strings.TrimSpace(text) != "" {
			if !haveIndent {
				memberIndent = editor.LeadingWhitespace(text)
				haveIndent = true
			}
			if block, ok := hookAt(buf, line, text); ok {
				if _, seen := a.Hooks[block.Kind]; !seen {
					a.Hooks[block.Kind] = block
				}
			} else if scenarioPattern.MatchString(text) {
				a.Scenarios = append(a.Scenarios, line)
				if a.FirstScenarioLine == 0 {
					a.FirstScenarioLine = line
				}
			}
		}

		depth += BraceDelta(text)
		if depth < 1 {
			// The container closed early; the bounds no longer match the text.
			break
		}
	}

	if !haveIndent {
		memberIndent = bounds.ContainerIndent + indentUnit
	}
	a.MemberIndent = memberIndent
	return a
}

func hookAt(buf editor.Buffer, line int, text string) (HookBlock, bool) {
	m := hookPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return HookBlock{}, false
	}
	kind, ok := catalog.ParseHookKind(text[m[2]:m[3]] + text[m[4]:m[5]])
	if !ok {
		return HookBlock{}, false
	}

	openCol := utf8.RuneCountInString(text[:m[1]-1]) + 1
	block := HookBlock{
		Kind:            kind,
		StartLine:       line,
		OpenBraceLine:   line,
		OpenBraceColumn: openCol,
		CloseLine:       line,
		BodyLine:        line,
	}
	if closePos, ok := FindMatchingBrace(buf, line, openCol); ok {
		block.CloseLine = closePos.Line
	}
	if block.CloseLine > block.OpenBraceLine {
		block.BodyLine = block.OpenBraceLine + 1
	}
	return block, true
}

// InsertLine returns the line before which a new hook of the given kind goes.
//
// Hooks keep the canonical order BEFORE ALL, BEFORE EACH, AFTER EACH,
// AFTER ALL, all ahead of the first scenario. The result is the smallest of
// the start lines of later hook kinds, the first scenario line and the close
// brace line, but never earlier than the line after the close of every
// earlier hook kind (or the line after the open brace).
func InsertLine(a Analysis, kind catalog.HookKind) int {
	upper := a.Bounds.CloseBraceLine
	if a.FirstScenarioLine > 0 && a.FirstScenarioLine < upper {
		upper = a.FirstScenarioLine
	}

	lower := a.Bounds.OpenBraceLine + 1
	for k, block := range a.Hooks {
		switch {
		case k > kind:
			if block.StartLine < upper {
				upper = block.StartLine
			}
		case k < kind:
			if block.CloseLine+1 > lower {
				lower = block.CloseLine + 1
			}
		}
	}

	return max(upper, lower)
}
