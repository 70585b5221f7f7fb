package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf16"
)

const DateLayout = "2006-01-02"

var (
	ErrMalformedRecord = errors.New("malformed record value: expected a [content, date] pair")

	// dateLayouts are tried in order when decoding a stored version date.
	// Older records may carry a full ISO-8601 datetime instead of a date.
	dateLayouts = []string{
		DateLayout,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05",
	}
)

// Record is the persisted form of an Entry:
//
//     {"name": "go", "value": "[\"<article body>\", \"2023-03-14\"]"}
//
// Value holds the JSON text of a two element array, not a nested object.
type Record struct {
	Name  string `json:"name" bson:"name"`
	Value string `json:"value" bson:"value"`
}

// NewRecord encodes an entry into its persisted form.
func NewRecord(entry *Entry) (*Record, error) {
	value, err := EncodeValue(entry.Content, entry.VersionDate)
	if err != nil {
		return nil, err
	}
	rec := &Record{
		Name:  entry.Key,
		Value: value,
	}
	return rec, nil
}

// Size is the number of bytes the record accounts for against a namespace
// capacity.
func (rec *Record) Size() int64 {
	return int64(len(rec.Name) + len(rec.Value))
}

// Entry decodes the record back into an Entry.
func (rec *Record) Entry() (*Entry, error) {
	content, versionDate, err := DecodeValue(rec.Value)
	if err != nil {
		return nil, fmt.Errorf("decoding record %q: %s", rec.Name, err)
	}
	entry := &Entry{
		Key:         rec.Name,
		Content:     content,
		VersionDate: versionDate,
	}
	return entry, nil
}

// EncodeValue produces the same text json.dumps([content, date.isoformat()])
// emits, so that records written here are byte-for-byte interchangeable with
// the ones already in the store.
func EncodeValue(content string, versionDate time.Time) (string, error) {
	c, err := asciiJSON(content)
	if err != nil {
		return "", err
	}
	d, err := asciiJSON(versionDate.Format(DateLayout))
	if err != nil {
		return "", err
	}
	buf := bytes.Buffer{}
	buf.Grow(len(c) + len(d) + 4)
	buf.WriteByte('[')
	buf.Write(c)
	buf.WriteString(", ")
	buf.Write(d)
	buf.WriteByte(']')
	return buf.String(), nil
}

// DecodeValue parses a stored [content, date] pair.
func DecodeValue(value string) (string, time.Time, error) {
	var pair []string
	if err := json.Unmarshal([]byte(value), &pair); err != nil {
		return "", time.Time{}, ErrMalformedRecord
	}
	if len(pair) != 2 {
		return "", time.Time{}, ErrMalformedRecord
	}
	versionDate, err := ParseDate(pair[1])
	if err != nil {
		return "", time.Time{}, err
	}
	return pair[0], versionDate, nil
}

// ParseDate accepts a bare ISO-8601 date or datetime.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized version date %q", s)
}

// asciiJSON encodes s as a JSON string with every rune outside printable
// ASCII escaped as \uXXXX (surrogate pairs above the BMP) and HTML characters
// left alone.
func asciiJSON(s string) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	raw := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	out := make([]byte, 0, len(raw))
	for _, r := range string(raw) {
		switch {
		case r < 0x7f:
			out = append(out, byte(r))
		case r > 0xffff:
			r1, r2 := utf16.EncodeRune(r)
			out = fmt.Appendf(out, `\u%04x\u%04x`, r1, r2)
		default:
			out = fmt.Appendf(out, `\u%04x`, r)
		}
	}
	return out, nil
}
