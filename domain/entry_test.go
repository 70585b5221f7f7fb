package domain

import (
	"testing"
	"time"
)

func TestNormalizeKey(t *testing.T) {
	testCases := []struct {
		in  string
		out string
	}{
		{in: "go", out: "go"},
		{in: "  Go\n", out: "go"},
		{in: "C++", out: "c++"},
		{in: "F#", out: "f#"},
		{in: "", out: ""},
	}
	for i, testCase := range testCases {
		if expected, actual := testCase.out, NormalizeKey(testCase.in); actual != expected {
			t.Errorf("[i=%v] Expected key=%q but actual=%q", i, expected, actual)
		}
	}
}

func TestDate(t *testing.T) {
	in := time.Date(2023, 3, 14, 23, 59, 58, 1000, time.UTC)
	if expected, actual := time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC), Date(in); !actual.Equal(expected) {
		t.Errorf("Expected date=%v but actual=%v", expected, actual)
	}
}

func TestCapacityExceeded(t *testing.T) {
	testCases := []struct {
		capacity Capacity
		n        int
		size     int64
		exceeded bool
	}{
		{capacity: DefaultCapacity(), n: 1000, size: DefaultMaxBytes, exceeded: false},
		{capacity: DefaultCapacity(), n: 1001, size: 10, exceeded: true},
		{capacity: DefaultCapacity(), n: 1, size: DefaultMaxBytes + 1, exceeded: true},
		{capacity: Capacity{}, n: 1 << 20, size: 1 << 40, exceeded: false},
		{capacity: Capacity{MaxEntries: 2}, n: 3, size: 0, exceeded: true},
	}
	for i, testCase := range testCases {
		if expected, actual := testCase.exceeded, testCase.capacity.Exceeded(testCase.n, testCase.size); actual != expected {
			t.Errorf("[i=%v] Expected exceeded=%v but actual=%v", i, expected, actual)
		}
	}
}
