package unique

import (
	"reflect"
	"strings"
	"testing"
)

func TestStrings(t *testing.T) {
	testCases := []struct {
		in  []string
		out []string
	}{
		{
			in:  []string{},
			out: []string{},
		},
		{
			in:  []string{"go"},
			out: []string{"go"},
		},
		{
			in:  []string{"rust", "go"},
			out: []string{"rust", "go"},
		},
		{
			in:  []string{"rust", "go", "rust", "go", "c"},
			out: []string{"rust", "go", "c"},
		},
		{
			in:  []string{"r", "r", "r"},
			out: []string{"r"},
		},
	}
	for i, testCase := range testCases {
		if expected, actual := testCase.out, Strings(testCase.in); !reflect.DeepEqual(actual, expected) {
			t.Errorf("[i=%v] Expected result=%+v but actual=%+v", i, expected, actual)
		}
	}
}

func TestStringsFunc(t *testing.T) {
	in := []string{"Go", "go", " GO", "Rust", "rust"}
	fold := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	if expected, actual := []string{"Go", "Rust"}, StringsFunc(in, fold); !reflect.DeepEqual(actual, expected) {
		t.Errorf("Expected result=%+v but actual=%+v", expected, actual)
	}
}

func TestStringsSorted(t *testing.T) {
	testCases := []struct {
		in  []string
		out []string
	}{
		{
			in:  []string{"go"},
			out: []string{"go"},
		},
		{
			in:  []string{"rust", "go"},
			out: []string{"go", "rust"},
		},
		{
			in:  []string{"rust", "go", "rust"},
			out: []string{"go", "rust"},
		},
	}
	for i, testCase := range testCases {
		if expected, actual := testCase.out, StringsSorted(testCase.in); !reflect.DeepEqual(actual, expected) {
			t.Errorf("[i=%v] Expected result=%+v but actual=%+v", i, expected, actual)
		}
	}
}
