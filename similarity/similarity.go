// Package similarity scores how alike two texts are on a [0, 1] scale, using
// the same sequence matching heuristics as Python's difflib.
package similarity

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Algorithm selects how a ratio is computed.
type Algorithm string

const (
	// Quick is an upper bound on Full computed from character multiset
	// overlap alone.  Linear time; insensitive to character order.
	Quick Algorithm = "quick"

	// Full is the Ratcliff/Obershelp ratio over longest matching blocks.
	Full Algorithm = "full"

	DefaultAlgorithm = Quick
)

// ParseAlgorithm maps a configuration value onto an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch alg := Algorithm(strings.ToLower(strings.TrimSpace(s))); alg {
	case "":
		return DefaultAlgorithm, nil
	case Quick, Full:
		return alg, nil
	default:
		return "", fmt.Errorf("unrecognized similarity algorithm %q (expected %q or %q)", s, Quick, Full)
	}
}

// Compare scores a against b.  Two empty texts are identical (1.0).
func Compare(alg Algorithm, a string, b string) float64 {
	switch alg {
	case Full:
		return Ratio(a, b)
	default:
		return QuickRatio(a, b)
	}
}

// QuickRatio returns 2*M/T where M is the number of characters the texts have
// in common regardless of position and T is their combined length.
func QuickRatio(a string, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).QuickRatio()
}

// Ratio returns 2*M/T where M is the total size of the matching blocks found
// by recursively taking the longest common substring.
func Ratio(a string, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

// runes splits s into one element per code point, which is the sequence
// difflib compares.
func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
