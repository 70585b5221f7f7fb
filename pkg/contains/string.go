package contains

import (
	"strings"
)

// StringFold reports whether items holds s under Unicode case-folding,
// ignoring surrounding whitespace.
func StringFold(items []string, s string) bool {
	s = strings.TrimSpace(s)
	for _, item := range items {
		if strings.EqualFold(strings.TrimSpace(item), s) {
			return true
		}
	}
	return false
}
