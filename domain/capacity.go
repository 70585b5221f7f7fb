package domain

const (
	DefaultMaxBytes   int64 = 50000000
	DefaultMaxEntries       = 1000
)

// Capacity bounds the size of a namespace.  A zero value for either field
// disables that particular limit.
type Capacity struct {
	MaxBytes   int64 `json:"max_bytes" toml:"max_bytes"`
	MaxEntries int   `json:"max_entries" toml:"max_entries"`
}

func DefaultCapacity() Capacity {
	c := Capacity{
		MaxBytes:   DefaultMaxBytes,
		MaxEntries: DefaultMaxEntries,
	}
	return c
}

// Exceeded reports whether a namespace holding n records totalling size bytes
// is over either limit.
func (c Capacity) Exceeded(n int, size int64) bool {
	if c.MaxEntries > 0 && n > c.MaxEntries {
		return true
	}
	if c.MaxBytes > 0 && size > c.MaxBytes {
		return true
	}
	return false
}
