// Package hooks inserts lifecycle blocks (BEFORE ALL, BEFORE EACH, AFTER EACH,
// AFTER ALL) into a FEATURE container.
//
// Block boundaries come from brace-depth scanning, not from a parse. The
// scanner skips braces inside double-quoted literals and after a # comment,
// which keeps quoted selectors such as "div{x}" from upsetting the depth.
// Results are recomputed on every call; nothing is cached across edits.
package hooks

import (
	"regexp"
	"unicode/utf8"

	"github.com/leapstack-labs/verokit/internal/editor"
)

var (
	featurePattern  = regexp.MustCompile(`(?i)^(\s*)feature\s+[A-Za-z_][A-Za-z0-9_]*\s*\{`)
	scenarioPattern = regexp.MustCompile(`(?i)^\s*scenario\b[^{]*\{`)
	hookPattern     = regexp.MustCompile(`(?i)^\s*(before|after)\s+(all|each)\s*\{`)
)

// FeatureBounds locates one FEATURE container.
type FeatureBounds struct {
	DeclarationLine  int    `json:"declarationLine"`
	OpenBraceLine    int    `json:"openBraceLine"`
	OpenBraceColumn  int    `json:"openBraceColumn"`
	CloseBraceLine   int    `json:"closeBraceLine"`
	CloseBraceColumn int    `json:"closeBraceColumn"`
	ContainerIndent  string `json:"containerIndent"`
}

// Contains reports whether line falls inside [DeclarationLine, CloseBraceLine].
func (b FeatureBounds) Contains(line int) bool {
	return line >= b.DeclarationLine && line <= b.CloseBraceLine
}

// lineScanner tracks quote state across one line.
type lineScanner struct {
	inQuote bool
	escaped bool
}

// code reports whether r at the current point is outside a literal, and
// whether the rest of the line is a comment.
func (s *lineScanner) code(r rune) (isCode, comment bool) {
	if s.inQuote {
		switch {
		case s.escaped:
			s.escaped = false
		case r == '\\':
			s.escaped = true
		case r == '"':
			s.inQuote = false
		}
		return false, false
	}
	switch r {
	case '"':
		s.inQuote = true
		return false, false
	case '#':
		return false, true
	}
	return true, false
}

// BraceDelta returns the net brace depth change of a line, ignoring literals
// and comments.
func BraceDelta(line string) int {
	var sc lineScanner
	delta := 0
	for _, r := range line {
		isCode, comment := sc.code(r)
		if comment {
			break
		}
		if !isCode {
			continue
		}
		switch r {
		case '{':
			delta++
		case '}':
			delta--
		}
	}
	return delta
}

// FindMatchingBrace scans forward from the brace at (openLine, openCol) and
// returns the position of the brace that brings the depth back to zero. It
// returns false when the scan reaches the end of the buffer first.
func FindMatchingBrace(buf editor.Buffer, openLine, openCol int) (editor.Position, bool) {
	depth := 0
	for line := openLine; line <= buf.LineCount(); line++ {
		var sc lineScanner
		col := 0
		for _, r := range buf.LineText(line) {
			col++
			isCode, comment := sc.code(r)
			if comment {
				break
			}
			if !isCode || (line == openLine && col < openCol) {
				continue
			}
			switch r {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return editor.Position{Line: line, Column: col}, true
				}
				if depth < 0 {
					return editor.Position{}, false
				}
			}
		}
	}
	return editor.Position{}, false
}

// FindFeatureBounds returns the container whose span holds cursorLine, or,
// failing that, the first container in the buffer. Containers whose braces
// never balance are skipped. It returns false when there is no container.
func FindFeatureBounds(buf editor.Buffer, cursorLine int) (FeatureBounds, bool) {
	var first *FeatureBounds
	for line := 1; line <= buf.LineCount(); line++ {
		b, ok := featureAt(buf, line)
		if !ok {
			continue
		}
		if b.Contains(cursorLine) {
			return b, true
		}
		if first == nil {
			first = &b
		}
		// Containers do not nest; resume after this one.
		line = b.CloseBraceLine
	}
	if first == nil {
		return FeatureBounds{}, false
	}
	return *first, true
}

// Features returns every balanced container in the buffer, in order.
func Features(buf editor.Buffer) []FeatureBounds {
	var out []FeatureBounds
	for line := 1; line <= buf.LineCount(); line++ {
		b, ok := featureAt(buf, line)
		if !ok {
			continue
		}
		out = append(out, b)
		line = b.CloseBraceLine
	}
	return out
}

func featureAt(buf editor.Buffer, line int) (FeatureBounds, bool) {
	text := buf.LineText(line)
	m := featurePattern.FindStringSubmatchIndex(text)
	if m == nil {
		return FeatureBounds{}, false
	}
	// The match ends just past the opening brace.
	openCol := utf8.RuneCountInString(text[:m[1]-1]) + 1
	closePos, ok := FindMatchingBrace(buf, line, openCol)
	if !ok {
		return FeatureBounds{}, false
	}
	return FeatureBounds{
		DeclarationLine:  line,
		OpenBraceLine:    line,
		OpenBraceColumn:  openCol,
		CloseBraceLine:   closePos.Line,
		CloseBraceColumn: closePos.Column,
		ContainerIndent:  text[m[2]:m[3]],
	}, true
}
