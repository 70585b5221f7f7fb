package db

import (
	"jaytaylor.com/polyglot/domain"
)

// Backend is a namespaced record persistence interface.
//
// Records are not unique by name at this layer: Insert always appends, and
// Count/Get/Update/Delete act on the first matching record in storage order.
// Uniqueness is the Store's job, which keeps duplicates detectable instead of
// silently collapsing them.
type Backend interface {
	Open() error
	Close() error
	Ping() error
	EnsureNamespace(namespace string, capacity domain.Capacity) (created bool, err error) // Idempotent.
	HasNamespace(namespace string) (bool, error)
	Namespaces() ([]string, error)
	DropNamespace(namespace string) error                          // No-op when absent.
	Count(namespace string, key string) (int, error)               // Number of records named key.
	Get(namespace string, key string) (value string, err error)    // ErrKeyNotFound when absent.
	Insert(namespace string, rec *domain.Record) error             // Evicts oldest records past capacity.
	Update(namespace string, key string, value string) error       // Overwrites the first matching record's value.
	Delete(namespace string, key string) error                     // Removes the first matching record, if any.
	Keys(namespace string) ([]string, error)                       // Distinct names in storage order.
	EachRecord(namespace string, fn func(rec *domain.Record)) error // Invoke a callback for every record in storage order.
	Len(namespace string) (int, error)                             // Total number of records.
}
