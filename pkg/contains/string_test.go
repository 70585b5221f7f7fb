package contains

import (
	"testing"
)

func TestStringFold(t *testing.T) {
	items := []string{"C++", "Go", "F#"}

	testCases := []struct {
		s        string
		expected bool
	}{
		{s: "Go", expected: true},
		{s: "go", expected: true},
		{s: " c++ ", expected: true},
		{s: "f#", expected: true},
		{s: "Rust", expected: false},
		{s: "", expected: false},
	}

	for i, testCase := range testCases {
		if expected, actual := testCase.expected, StringFold(items, testCase.s); actual != expected {
			t.Errorf("[i=%v] Expected StringFold(%q)=%v but actual=%v", i, testCase.s, expected, actual)
		}
	}
}
