package domain

import (
	"testing"
	"time"
)

func TestEncodeValue(t *testing.T) {
	date := time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		content  string
		expected string
	}{
		{
			content:  "The Ball Player",
			expected: `["The Ball Player", "2023-03-14"]`,
		},
		{
			content:  "",
			expected: `["", "2023-03-14"]`,
		},
		{
			content:  `quote " and \ backslash`,
			expected: `["quote \" and \\ backslash", "2023-03-14"]`,
		},
		{
			content:  "<b>R&D</b>",
			expected: `["<b>R&D</b>", "2023-03-14"]`,
		},
		{
			content:  "line\nbreak\ttab",
			expected: `["line\nbreak\ttab", "2023-03-14"]`,
		},
		{
			content:  "Erlang's Elixir é —",
			expected: `["Erlang's Elixir \u00e9 \u2014", "2023-03-14"]`,
		},
		{
			content:  "emoji \U0001F600",
			expected: `["emoji \ud83d\ude00", "2023-03-14"]`,
		},
	}

	for i, testCase := range testCases {
		actual, err := EncodeValue(testCase.content, date)
		if err != nil {
			t.Errorf("[i=%v] %s", i, err)
			continue
		}
		if expected := testCase.expected; actual != expected {
			t.Errorf("[i=%v] Expected value=%v but actual=%v", i, expected, actual)
		}
	}
}

func TestDecodeValue(t *testing.T) {
	testCases := []struct {
		value   string
		content string
		date    time.Time
		err     bool
	}{
		{
			value:   `["some text", "2023-03-14"]`,
			content: "some text",
			date:    time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			value:   `["hé", "2021-01-02T03:04:05.123456"]`,
			content: "hé",
			date:    time.Date(2021, 1, 2, 3, 4, 5, 123456000, time.UTC),
		},
		{
			value:   `["tz", "2021-01-02T03:04:05+00:00"]`,
			content: "tz",
			date:    time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			value: `["only one element"]`,
			err:   true,
		},
		{
			value: `{"text": "x", "date": "2023-03-14"}`,
			err:   true,
		},
		{
			value: `["text", "yesterday"]`,
			err:   true,
		},
		{
			value: `not json`,
			err:   true,
		},
	}

	for i, testCase := range testCases {
		content, date, err := DecodeValue(testCase.value)
		if testCase.err {
			if err == nil {
				t.Errorf("[i=%v] Expected an error for value=%v but got none", i, testCase.value)
			}
			continue
		}
		if err != nil {
			t.Errorf("[i=%v] %s", i, err)
			continue
		}
		if expected, actual := testCase.content, content; actual != expected {
			t.Errorf("[i=%v] Expected content=%q but actual=%q", i, expected, actual)
		}
		if expected, actual := testCase.date, date; !actual.Equal(expected) {
			t.Errorf("[i=%v] Expected date=%v but actual=%v", i, expected, actual)
		}
	}
}

func TestRecordRoundTrip(t *testing.T) {
	entry := NewEntry("  Rust ", "fearless é concurrency", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))

	rec, err := NewRecord(entry)
	if err != nil {
		t.Fatal(err)
	}
	if expected, actual := "rust", rec.Name; actual != expected {
		t.Errorf("Expected record name=%v but actual=%v", expected, actual)
	}
	if expected, actual := int64(len(rec.Name)+len(rec.Value)), rec.Size(); actual != expected {
		t.Errorf("Expected record size=%v but actual=%v", expected, actual)
	}

	decoded, err := rec.Entry()
	if err != nil {
		t.Fatal(err)
	}
	if expected, actual := entry.Content, decoded.Content; actual != expected {
		t.Errorf("Expected content=%q but actual=%q", expected, actual)
	}
	if expected, actual := entry.VersionDate, decoded.VersionDate; !actual.Equal(expected) {
		t.Errorf("Expected version date=%v but actual=%v", expected, actual)
	}
}
