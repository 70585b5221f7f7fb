package unique

import (
	"sort"
)

// Strings drops repeated values from input, keeping the first occurrence of
// each so that the original ordering survives.
func Strings(input []string) []string {
	return StringsFunc(input, func(s string) string { return s })
}

// StringsFunc is Strings with values compared by keyFn(value) rather than by
// the value itself.
func StringsFunc(input []string, keyFn func(string) string) []string {
	var (
		out  = make([]string, 0, len(input))
		seen = make(map[string]struct{}, len(input))
	)
	for _, val := range input {
		k := keyFn(val)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, val)
	}
	return out
}

// StringsSorted is Strings followed by a lexical sort.
func StringsSorted(input []string) []string {
	u := Strings(input)
	sort.Strings(u)
	return u
}
