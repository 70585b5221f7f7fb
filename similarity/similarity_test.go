package similarity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuickRatio(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{name: "identical", a: "The Ball Player", b: "The Ball Player", expected: 1.0},
		{name: "both empty", a: "", b: "", expected: 1.0},
		{name: "one empty", a: "", b: "The Ball Player", expected: 0.0},
		{name: "trailing period", a: "The Ball Player.", b: "The Ball Player", expected: 30.0 / 31.0},
		{name: "disjoint", a: "abc", b: "xyz", expected: 0.0},
		{name: "anagram", a: "listen", b: "silent", expected: 1.0},
		{name: "multibyte", a: "héllo", b: "hello", expected: 0.8},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.InDelta(t, testCase.expected, QuickRatio(testCase.a, testCase.b), 1e-9)
			assert.InDelta(t, testCase.expected, QuickRatio(testCase.b, testCase.a), 1e-9, "quick ratio is symmetric")
		})
	}
}

func TestRatio(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{name: "identical", a: "The Ball Player", b: "The Ball Player", expected: 1.0},
		{name: "both empty", a: "", b: "", expected: 1.0},
		{name: "trailing period", a: "The Ball Player.", b: "The Ball Player", expected: 30.0 / 31.0},
		{name: "anagram", a: "listen", b: "silent", expected: 2.0 * 3.0 / 12.0},
		{name: "abcd", a: "abcd", b: "bcde", expected: 0.75},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.InDelta(t, testCase.expected, Ratio(testCase.a, testCase.b), 1e-9)
		})
	}
}

func TestQuickRatioBoundsRatio(t *testing.T) {
	pairs := [][2]string{
		{"The Ball Player", "Player Ball The"},
		{"Go is expressive, concise, clean, and efficient.", "Go is concise and efficient."},
		{strings.Repeat("lorem ipsum ", 50), strings.Repeat("ipsum lorem ", 50)},
	}
	for _, pair := range pairs {
		assert.GreaterOrEqual(t, QuickRatio(pair[0], pair[1]), Ratio(pair[0], pair[1]))
	}
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, Quick, alg)

	alg, err = ParseAlgorithm(" FULL ")
	require.NoError(t, err)
	assert.Equal(t, Full, alg)

	_, err = ParseAlgorithm("levenshtein")
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	assert.InDelta(t, 1.0, Compare(Quick, "listen", "silent"), 1e-9)
	assert.InDelta(t, 0.5, Compare(Full, "listen", "silent"), 1e-9)
}
