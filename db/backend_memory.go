package db

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"jaytaylor.com/polyglot/domain"
	"jaytaylor.com/polyglot/pkg/unique"
)

type MemoryConfig struct{}

func NewMemoryConfig() *MemoryConfig {
	return &MemoryConfig{}
}

func (cfg MemoryConfig) Type() Type {
	return Memory
}

type memoryNamespace struct {
	capacity domain.Capacity
	records  []domain.Record
}

// MemoryBackend is a process-local Backend.  Nothing survives Close.
type MemoryBackend struct {
	namespaces map[string]*memoryNamespace
	mu         sync.RWMutex
}

func NewMemoryBackend() *MemoryBackend {
	be := &MemoryBackend{}
	return be
}

func (be *MemoryBackend) Open() error {
	be.mu.Lock()
	defer be.mu.Unlock()

	if be.namespaces == nil {
		be.namespaces = map[string]*memoryNamespace{}
	}
	return nil
}

func (be *MemoryBackend) Close() error {
	be.mu.Lock()
	defer be.mu.Unlock()

	be.namespaces = nil
	return nil
}

func (be *MemoryBackend) Ping() error {
	be.mu.RLock()
	defer be.mu.RUnlock()

	if be.namespaces == nil {
		return ErrNotConnected
	}
	return nil
}

func (be *MemoryBackend) EnsureNamespace(namespace string, capacity domain.Capacity) (bool, error) {
	be.mu.Lock()
	defer be.mu.Unlock()

	if be.namespaces == nil {
		return false, ErrNotConnected
	}
	if _, ok := be.namespaces[namespace]; ok {
		return false, nil
	}
	be.namespaces[namespace] = &memoryNamespace{
		capacity: capacity,
		records:  []domain.Record{},
	}
	return true, nil
}

func (be *MemoryBackend) HasNamespace(namespace string) (bool, error) {
	be.mu.RLock()
	defer be.mu.RUnlock()

	_, ok := be.namespaces[namespace]
	return ok, nil
}

func (be *MemoryBackend) Namespaces() ([]string, error) {
	be.mu.RLock()
	defer be.mu.RUnlock()

	namespaces := make([]string, 0, len(be.namespaces))
	for name := range be.namespaces {
		namespaces = append(namespaces, name)
	}
	sort.Strings(namespaces)
	return namespaces, nil
}

func (be *MemoryBackend) DropNamespace(namespace string) error {
	be.mu.Lock()
	defer be.mu.Unlock()

	delete(be.namespaces, namespace)
	return nil
}

func (be *MemoryBackend) Count(namespace string, key string) (int, error) {
	be.mu.RLock()
	defer be.mu.RUnlock()

	ns, err := be.get(namespace)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, rec := range ns.records {
		if rec.Name == key {
			n++
		}
	}
	return n, nil
}

func (be *MemoryBackend) Get(namespace string, key string) (string, error) {
	be.mu.RLock()
	defer be.mu.RUnlock()

	ns, err := be.get(namespace)
	if err != nil {
		return "", err
	}
	if i := ns.index(key); i >= 0 {
		return ns.records[i].Value, nil
	}
	return "", ErrKeyNotFound
}

func (be *MemoryBackend) Insert(namespace string, rec *domain.Record) error {
	be.mu.Lock()
	defer be.mu.Unlock()

	ns, err := be.get(namespace)
	if err != nil {
		return err
	}
	ns.records = append(ns.records, *rec)

	var total int64
	for _, r := range ns.records {
		total += r.Size()
	}
	for len(ns.records) > 1 && ns.capacity.Exceeded(len(ns.records), total) {
		total -= ns.records[0].Size()
		ns.records = ns.records[1:]
	}
	return nil
}

func (be *MemoryBackend) Update(namespace string, key string, value string) error {
	be.mu.Lock()
	defer be.mu.Unlock()

	ns, err := be.get(namespace)
	if err != nil {
		return err
	}
	i := ns.index(key)
	if i < 0 {
		return ErrKeyNotFound
	}
	ns.records[i].Value = value
	return nil
}

func (be *MemoryBackend) Delete(namespace string, key string) error {
	be.mu.Lock()
	defer be.mu.Unlock()

	ns, err := be.get(namespace)
	if err != nil {
		return err
	}
	if i := ns.index(key); i >= 0 {
		ns.records = append(ns.records[:i], ns.records[i+1:]...)
	}
	return nil
}

func (be *MemoryBackend) Keys(namespace string) ([]string, error) {
	be.mu.RLock()
	defer be.mu.RUnlock()

	ns, err := be.get(namespace)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ns.records))
	for _, rec := range ns.records {
		names = append(names, rec.Name)
	}
	return unique.Strings(names), nil
}

func (be *MemoryBackend) EachRecord(namespace string, fn func(rec *domain.Record)) error {
	be.mu.RLock()
	ns, err := be.get(namespace)
	if err != nil {
		be.mu.RUnlock()
		return err
	}
	records := append([]domain.Record{}, ns.records...)
	be.mu.RUnlock()

	for i := range records {
		fn(&records[i])
	}
	return nil
}

func (be *MemoryBackend) Len(namespace string) (int, error) {
	be.mu.RLock()
	defer be.mu.RUnlock()

	ns, err := be.get(namespace)
	if err != nil {
		return 0, err
	}
	return len(ns.records), nil
}

// get must be called with be.mu held.
func (be *MemoryBackend) get(namespace string) (*memoryNamespace, error) {
	if be.namespaces == nil {
		return nil, ErrNotConnected
	}
	ns, ok := be.namespaces[namespace]
	if !ok {
		return nil, errors.Wrapf(ErrNamespaceNotFound, "%q", namespace)
	}
	return ns, nil
}

func (ns *memoryNamespace) index(key string) int {
	for i, rec := range ns.records {
		if rec.Name == key {
			return i
		}
	}
	return -1
}
