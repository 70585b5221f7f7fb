package domain

import (
	"strings"
	"time"
)

// Entry is one stored language article: its normalized name, the raw article
// body and the date the body was last judged to have changed.
type Entry struct {
	Key         string
	Content     string
	VersionDate time.Time
}

func NewEntry(key string, content string, versionDate time.Time) *Entry {
	entry := &Entry{
		Key:         NormalizeKey(key),
		Content:     content,
		VersionDate: versionDate,
	}
	return entry
}

// NormalizeKey lower-cases and trims a language name so that "  Go" and "go"
// address the same entry.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Date truncates t to its calendar date at midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date.
func Today() time.Time {
	return Date(time.Now())
}
