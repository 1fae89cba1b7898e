package catalog

import (
	"strings"
	"unicode/utf8"
)

// Blank delimiters used in SlotTemplate and in buffer text.
const (
	MarkerOpen  = '‹' // U+2039
	MarkerClose = '›' // U+203A
)

// Marker is one ‹label› blank found on a line.
// Columns are 1-based rune columns; EndColumn is exclusive and includes the
// closing delimiter, so the marker occupies [StartColumn, EndColumn).
type Marker struct {
	Label       string
	StartColumn int
	EndColumn   int
}

// ScanMarkers returns the ‹…› markers on a line, left to right.
// An opening delimiter without a matching close is ignored, as is a second
// opening delimiter before the close (markers do not nest; the scan restarts
// at the inner one).
func ScanMarkers(line string) []Marker {
	var markers []Marker

	col := 0
	start := -1
	var label strings.Builder
	for _, r := range line {
		col++
		switch {
		case r == MarkerOpen:
			start = col
			label.Reset()
		case r == MarkerClose && start > 0:
			markers = append(markers, Marker{
				Label:       label.String(),
				StartColumn: start,
				EndColumn:   col + 1,
			})
			start = -1
		case start > 0:
			label.WriteRune(r)
		}
	}
	return markers
}

// CountMarkers returns the number of markers ScanMarkers would find.
func CountMarkers(line string) int {
	return len(ScanMarkers(line))
}

// IsPlaceholder reports whether s is exactly one visible blank, i.e. a value
// that was never actually filled in.
func IsPlaceholder(s string) bool {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < 2 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	if first != MarkerOpen || last != MarkerClose {
		return false
	}
	markers := ScanMarkers(s)
	return len(markers) == 1 &&
		markers[0].StartColumn == 1 &&
		markers[0].EndColumn == utf8.RuneCountInString(s)+1
}

// MarkerText renders a blank for the given label.
func MarkerText(label string) string {
	return string(MarkerOpen) + label + string(MarkerClose)
}
