package db

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"jaytaylor.com/polyglot/domain"
)

// Reader is the read-only view of a Store handed to corpus consumers.
type Reader interface {
	Keys() ([]string, error)
	Find(key string) (*domain.Entry, error)
	EachEntry(fn func(entry *domain.Entry)) error
}

// Outcome reports what InsertOrUpdate did.
type Outcome int

const (
	Inserted Outcome = iota
	Updated
)

func (o Outcome) String() string {
	if o == Inserted {
		return "inserted"
	}
	return "updated"
}

// Store is a namespaced entry store which holds at most one record per key.
//
// Uniqueness is enforced by counting before writing.  That check-then-act
// sequence is not atomic, so a Store assumes it is the only writer to its
// namespace.  A second writer can still be noticed after the fact:
// InsertOrUpdate refuses to touch a key with more than one record and
// returns ErrInvariantViolation.
type Store struct {
	// Capacity is applied to namespaces created by OpenOrCreate.
	Capacity domain.Capacity

	be        Backend
	namespace string
	err       error // Connection failure captured at construction time, or errClosed.
}

var errClosed = errors.New("store closed")

// NewStore constructs and opens a store.  It never fails: if the backend
// cannot be reached the problem is logged and kept, every subsequent
// operation returns ErrNotConnected, and Connected reports false.
func NewStore(config Config) *Store {
	return NewStoreWithBackend(NewBackend(config))
}

// NewStoreWithBackend is NewStore for an already constructed backend.
func NewStoreWithBackend(be Backend) *Store {
	s := &Store{
		Capacity: domain.DefaultCapacity(),
		be:       be,
	}
	if err := be.Open(); err != nil {
		log.WithField("backend", fmt.Sprintf("%T", be)).Errorf("Opening store failed, continuing disconnected: %s", err)
		s.err = err
	}
	return s
}

// Connected reports whether the backend was opened successfully.
func (s *Store) Connected() bool {
	return s.err == nil
}

// Err returns the construction-time connection failure, if any.
func (s *Store) Err() error {
	return s.err
}

// Ping actively checks the backend connection.
func (s *Store) Ping() error {
	if err := s.check(); err != nil {
		return err
	}
	return s.be.Ping()
}

// Close releases the backend.  Every later operation returns
// ErrNotConnected.
func (s *Store) Close() error {
	if s.err != nil {
		return nil
	}
	if err := s.be.Close(); err != nil {
		return err
	}
	s.err = errClosed
	return nil
}

// Backend exposes the underlying backend impl.
func (s *Store) Backend() Backend {
	return s.be
}

// Namespace returns the currently bound namespace, or "" when none is.
func (s *Store) Namespace() string {
	return s.namespace
}

// OpenOrCreate makes sure namespace exists, creating it with s.Capacity when
// it doesn't, then binds it for subsequent operations.  Safe to call
// repeatedly.
func (s *Store) OpenOrCreate(namespace string) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := ValidateNamespace(namespace); err != nil {
		return err
	}
	created, err := s.be.EnsureNamespace(namespace, s.Capacity)
	if err != nil {
		return errors.Wrapf(err, "opening namespace %q", namespace)
	}
	if created {
		log.WithField("namespace", namespace).Info("Namespace did not exist, created it")
	}
	s.namespace = namespace
	return nil
}

// Use binds an existing namespace without creating it, failing with
// ErrNamespaceNotFound when it is absent.
func (s *Store) Use(namespace string) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := ValidateNamespace(namespace); err != nil {
		return err
	}
	exists, err := s.be.HasNamespace(namespace)
	if err != nil {
		return errors.Wrapf(err, "checking namespace %q", namespace)
	}
	if !exists {
		return errors.Wrapf(ErrNamespaceNotFound, "%q", namespace)
	}
	s.namespace = namespace
	return nil
}

// Namespaces lists every namespace known to the backend.
func (s *Store) Namespaces() ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.be.Namespaces()
}

// Keys returns the distinct keys in the active namespace.
func (s *Store) Keys() ([]string, error) {
	namespace, err := s.active()
	if err != nil {
		return nil, err
	}
	return s.be.Keys(namespace)
}

// Find looks up the entry for key.  A missing key yields (nil, nil).
func (s *Store) Find(key string) (*domain.Entry, error) {
	namespace, err := s.active()
	if err != nil {
		return nil, err
	}
	key = domain.NormalizeKey(key)
	value, err := s.be.Get(namespace, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "finding %q", key)
	}
	rec := &domain.Record{
		Name:  key,
		Value: value,
	}
	return rec.Entry()
}

// InsertOrUpdate writes an entry for key, inserting it when absent and
// overwriting content and version date in place when present.
//
// More than one existing record for key is a corrupted namespace: nothing is
// written and ErrInvariantViolation is returned.
func (s *Store) InsertOrUpdate(key string, content string, versionDate time.Time) (Outcome, error) {
	namespace, err := s.active()
	if err != nil {
		return Inserted, err
	}
	entry := domain.NewEntry(key, content, versionDate)
	if len(entry.Key) == 0 {
		return Inserted, errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	rec, err := domain.NewRecord(entry)
	if err != nil {
		return Inserted, errors.Wrapf(err, "encoding %q", entry.Key)
	}

	n, err := s.be.Count(namespace, entry.Key)
	if err != nil {
		return Inserted, errors.Wrapf(err, "counting %q", entry.Key)
	}

	switch {
	case n == 0:
		if err := s.be.Insert(namespace, rec); err != nil {
			return Inserted, errors.Wrapf(err, "inserting %q", entry.Key)
		}
		log.WithField("namespace", namespace).WithField("key", entry.Key).Debug("Inserted entry")
		return Inserted, nil

	case n == 1:
		if err := s.be.Update(namespace, entry.Key, rec.Value); err != nil {
			return Updated, errors.Wrapf(err, "updating %q", entry.Key)
		}
		log.WithField("namespace", namespace).WithField("key", entry.Key).Debug("Updated entry")
		return Updated, nil

	default:
		log.WithField("namespace", namespace).WithField("key", entry.Key).WithField("count", n).Error("Duplicate records detected")
		return Inserted, errors.Wrapf(ErrInvariantViolation, "namespace %q holds %v records for key %q", namespace, n, entry.Key)
	}
}

// Delete removes the entry for key.  Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	namespace, err := s.active()
	if err != nil {
		return err
	}
	return s.be.Delete(namespace, domain.NormalizeKey(key))
}

// Len returns the number of records in the active namespace.
func (s *Store) Len() (int, error) {
	namespace, err := s.active()
	if err != nil {
		return 0, err
	}
	return s.be.Len(namespace)
}

// EachEntry invokes fn for every decodable entry in the active namespace.
// Records which cannot be decoded are logged and skipped.
func (s *Store) EachEntry(fn func(entry *domain.Entry)) error {
	namespace, err := s.active()
	if err != nil {
		return err
	}
	return s.be.EachRecord(namespace, func(rec *domain.Record) {
		entry, err := rec.Entry()
		if err != nil {
			log.WithField("namespace", namespace).Warnf("Skipping undecodable record: %s", err)
			return
		}
		fn(entry)
	})
}

// DeleteCollection irreversibly destroys namespace and every entry in it.
// When namespace is the bound namespace the store is left unbound.
func (s *Store) DeleteCollection(namespace string) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := ValidateNamespace(namespace); err != nil {
		return err
	}
	if err := s.be.DropNamespace(namespace); err != nil {
		return errors.Wrapf(err, "dropping namespace %q", namespace)
	}
	log.WithField("namespace", namespace).Info("Dropped namespace")
	if s.namespace == namespace {
		s.namespace = ""
	}
	return nil
}

func (s *Store) check() error {
	if s.err != nil {
		return fmt.Errorf("%w: %s", ErrNotConnected, s.err)
	}
	return nil
}

// active returns the bound namespace, failing fast when there is none.
func (s *Store) active() (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	if len(s.namespace) == 0 {
		return "", ErrNamespaceNotOpen
	}
	return s.namespace, nil
}

// WithStore is a convenience utility which handles store construction,
// namespace binding and close.  Unlike NewStore it returns connection
// failures.
func WithStore(config Config, namespace string, fn func(store *Store) error) error {
	return withStore(config, namespace, (*Store).OpenOrCreate, fn)
}

// WithReader is WithStore for consumers which only read: the namespace must
// already exist and is never created.
func WithReader(config Config, namespace string, fn func(store *Store) error) error {
	return withStore(config, namespace, (*Store).Use, fn)
}

func withStore(config Config, namespace string, bind func(s *Store, namespace string) error, fn func(store *Store) error) (err error) {
	store := NewStore(config)
	if !store.Connected() {
		return fmt.Errorf("%w: %s", ErrNotConnected, store.Err())
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			if err == nil {
				err = fmt.Errorf("closing store: %s", closeErr)
			} else {
				log.Errorf("Existing error before attempt to close store: %s", err)
				log.Errorf("Also encountered problem closing store: %s", closeErr)
			}
		}
	}()

	if len(namespace) > 0 {
		if err = bind(store, namespace); err != nil {
			return
		}
	}

	if err = fn(store); err != nil {
		return
	}

	return
}
