package catalog

import "strings"

// keyNames is the fixed key list offered for keyName slots.
var keyNames = []string{
	"Enter",
	"Tab",
	"Escape",
	"Backspace",
	"Delete",
	"Space",
	"ArrowUp",
	"ArrowDown",
	"ArrowLeft",
	"ArrowRight",
	"Home",
	"End",
	"PageUp",
	"PageDown",
	"F1", "F2", "F3", "F4", "F5", "F6",
	"F7", "F8", "F9", "F10", "F11", "F12",
	"Control+A",
	"Control+C",
	"Control+V",
	"Meta+A",
}

// KeyNames returns the keys a keyName slot may take, in popup order.
func KeyNames() []string {
	out := make([]string, len(keyNames))
	copy(out, keyNames)
	return out
}

// CanonicalKey returns the canonical spelling of a key name, matching
// case-insensitively.
func CanonicalKey(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, k := range keyNames {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}
