package db

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"jaytaylor.com/polyglot/domain"
	"jaytaylor.com/polyglot/pkg/unique"
)

var DefaultBoltFile = "polyglot.bolt"

type BoltConfig struct {
	DBFile      string
	BoltOptions *bolt.Options
}

func NewBoltConfig(dbFilename string) *BoltConfig {
	if len(dbFilename) == 0 {
		dbFilename = DefaultBoltFile
	}
	cfg := &BoltConfig{
		DBFile: dbFilename,
		BoltOptions: &bolt.Options{
			Timeout: 1 * time.Second,
		},
	}
	return cfg
}

func (cfg BoltConfig) Type() Type {
	return Bolt
}

// BoltBackend keeps one bucket per namespace.  Records are stored under their
// big-endian bucket sequence number, so cursor order is insertion order and
// the first key is always the oldest record.
type BoltBackend struct {
	config *BoltConfig
	db     *bolt.DB
	mu     sync.Mutex
}

func NewBoltBackend(config *BoltConfig) *BoltBackend {
	be := &BoltBackend{
		config: config,
	}
	return be
}

func (be *BoltBackend) Open() error {
	be.mu.Lock()
	defer be.mu.Unlock()

	if be.db != nil {
		return nil
	}

	db, err := bolt.Open(be.config.DBFile, 0600, be.config.BoltOptions)
	if err != nil {
		return err
	}
	be.db = db

	if err := be.initDB(); err != nil {
		be.db.Close()
		be.db = nil
		return err
	}

	return nil
}

func (be *BoltBackend) Close() error {
	be.mu.Lock()
	defer be.mu.Unlock()

	if be.db == nil {
		return nil
	}

	if err := be.db.Close(); err != nil {
		return err
	}

	be.db = nil

	return nil
}

func (be *BoltBackend) initDB() error {
	return be.db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(TableNamespaces)); err != nil {
			return fmt.Errorf("initDB: creating bucket %q: %s", TableNamespaces, err)
		}
		return nil
	})
}

func (be *BoltBackend) Ping() error {
	return be.txView(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(TableNamespaces)) == nil {
			return fmt.Errorf("bucket %q missing", TableNamespaces)
		}
		return nil
	})
}

func (be *BoltBackend) EnsureNamespace(namespace string, capacity domain.Capacity) (bool, error) {
	var created bool
	if err := be.txUpdate(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(namespace)) != nil {
			return nil
		}
		if _, err := tx.CreateBucket([]byte(namespace)); err != nil {
			return errors.Wrapf(err, "creating bucket %q", namespace)
		}
		v, err := json.Marshal(capacity)
		if err != nil {
			return err
		}
		if err := tx.Bucket([]byte(TableNamespaces)).Put([]byte(namespace), v); err != nil {
			return errors.Wrapf(err, "saving capacity for %q", namespace)
		}
		created = true
		return nil
	}); err != nil {
		return false, err
	}
	return created, nil
}

func (be *BoltBackend) HasNamespace(namespace string) (bool, error) {
	var exists bool
	if err := be.txView(func(tx *bolt.Tx) error {
		exists = tx.Bucket([]byte(namespace)) != nil
		return nil
	}); err != nil {
		return false, err
	}
	return exists, nil
}

func (be *BoltBackend) Namespaces() ([]string, error) {
	namespaces := []string{}
	if err := be.txView(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(TableNamespaces)).ForEach(func(k []byte, _ []byte) error {
			namespaces = append(namespaces, string(k))
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return namespaces, nil
}

func (be *BoltBackend) DropNamespace(namespace string) error {
	return be.txUpdate(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(namespace)) != nil {
			if err := tx.DeleteBucket([]byte(namespace)); err != nil {
				return err
			}
		}
		return tx.Bucket([]byte(TableNamespaces)).Delete([]byte(namespace))
	})
}

func (be *BoltBackend) Count(namespace string, key string) (int, error) {
	var n int
	if err := be.view(namespace, func(b *bolt.Bucket) error {
		return eachBoltRecord(b, func(_ []byte, rec *domain.Record) bool {
			if rec.Name == key {
				n++
			}
			return true
		})
	}); err != nil {
		return 0, err
	}
	return n, nil
}

func (be *BoltBackend) Get(namespace string, key string) (string, error) {
	var (
		value string
		found bool
	)
	if err := be.view(namespace, func(b *bolt.Bucket) error {
		return eachBoltRecord(b, func(_ []byte, rec *domain.Record) bool {
			if rec.Name == key {
				value = rec.Value
				found = true
				return false
			}
			return true
		})
	}); err != nil {
		return "", err
	}
	if !found {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func (be *BoltBackend) Insert(namespace string, rec *domain.Record) error {
	return be.update(namespace, func(b *bolt.Bucket) error {
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		v, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := b.Put(itob(seq), v); err != nil {
			return errors.Wrapf(err, "inserting record %q", rec.Name)
		}
		return be.evict(namespace, b)
	})
}

func (be *BoltBackend) Update(namespace string, key string, value string) error {
	return be.update(namespace, func(b *bolt.Bucket) error {
		var k []byte
		if err := eachBoltRecord(b, func(rk []byte, rec *domain.Record) bool {
			if rec.Name == key {
				k = append([]byte{}, rk...)
				return false
			}
			return true
		}); err != nil {
			return err
		}
		if k == nil {
			return ErrKeyNotFound
		}
		v, err := json.Marshal(&domain.Record{Name: key, Value: value})
		if err != nil {
			return err
		}
		return b.Put(k, v)
	})
}

func (be *BoltBackend) Delete(namespace string, key string) error {
	return be.update(namespace, func(b *bolt.Bucket) error {
		var k []byte
		if err := eachBoltRecord(b, func(rk []byte, rec *domain.Record) bool {
			if rec.Name == key {
				k = append([]byte{}, rk...)
				return false
			}
			return true
		}); err != nil {
			return err
		}
		if k == nil {
			return nil
		}
		return b.Delete(k)
	})
}

func (be *BoltBackend) Keys(namespace string) ([]string, error) {
	names := []string{}
	if err := be.view(namespace, func(b *bolt.Bucket) error {
		return eachBoltRecord(b, func(_ []byte, rec *domain.Record) bool {
			names = append(names, rec.Name)
			return true
		})
	}); err != nil {
		return nil, err
	}
	return unique.Strings(names), nil
}

func (be *BoltBackend) EachRecord(namespace string, fn func(rec *domain.Record)) error {
	return be.view(namespace, func(b *bolt.Bucket) error {
		return eachBoltRecord(b, func(_ []byte, rec *domain.Record) bool {
			fn(rec)
			return true
		})
	})
}

func (be *BoltBackend) Len(namespace string) (int, error) {
	var n int
	if err := be.view(namespace, func(b *bolt.Bucket) error {
		n = b.Stats().KeyN
		return nil
	}); err != nil {
		return 0, err
	}
	return n, nil
}

// evict drops the oldest records until the bucket fits within the
// namespace's capacity.
func (be *BoltBackend) evict(namespace string, b *bolt.Bucket) error {
	capacity, err := boltCapacity(b.Tx(), namespace)
	if err != nil {
		return err
	}
	var (
		keys  = [][]byte{}
		sizes = []int64{}
		total int64
	)
	if err := eachBoltRecord(b, func(k []byte, rec *domain.Record) bool {
		keys = append(keys, append([]byte{}, k...))
		sizes = append(sizes, rec.Size())
		total += rec.Size()
		return true
	}); err != nil {
		return err
	}
	for i := 0; i < len(keys)-1 && capacity.Exceeded(len(keys)-i, total); i++ {
		if err := b.Delete(keys[i]); err != nil {
			return err
		}
		total -= sizes[i]
	}
	return nil
}

func (be *BoltBackend) view(namespace string, fn func(b *bolt.Bucket) error) error {
	return be.txView(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(namespace))
		if b == nil {
			return errors.Wrapf(ErrNamespaceNotFound, "%q", namespace)
		}
		return fn(b)
	})
}

func (be *BoltBackend) update(namespace string, fn func(b *bolt.Bucket) error) error {
	return be.txUpdate(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(namespace))
		if b == nil {
			return errors.Wrapf(ErrNamespaceNotFound, "%q", namespace)
		}
		return fn(b)
	})
}

// conn returns the open database handle, or ErrNotConnected once the backend
// has been closed.
func (be *BoltBackend) conn() (*bolt.DB, error) {
	be.mu.Lock()
	defer be.mu.Unlock()

	if be.db == nil {
		return nil, ErrNotConnected
	}
	return be.db, nil
}

func (be *BoltBackend) txView(fn func(tx *bolt.Tx) error) error {
	db, err := be.conn()
	if err != nil {
		return err
	}
	return db.View(fn)
}

func (be *BoltBackend) txUpdate(fn func(tx *bolt.Tx) error) error {
	db, err := be.conn()
	if err != nil {
		return err
	}
	return db.Update(fn)
}

func boltCapacity(tx *bolt.Tx, namespace string) (domain.Capacity, error) {
	capacity := domain.Capacity{}
	v := tx.Bucket([]byte(TableNamespaces)).Get([]byte(namespace))
	if v == nil {
		return capacity, nil
	}
	if err := json.Unmarshal(v, &capacity); err != nil {
		return capacity, errors.Wrapf(err, "decoding capacity for %q", namespace)
	}
	return capacity, nil
}

// eachBoltRecord walks the bucket in key order until fn returns false.
func eachBoltRecord(b *bolt.Bucket, fn func(k []byte, rec *domain.Record) bool) error {
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		rec := &domain.Record{}
		if err := json.Unmarshal(v, rec); err != nil {
			return errors.Wrapf(err, "decoding record at seq=%v", binary.BigEndian.Uint64(k))
		}
		if !fn(k, rec) {
			break
		}
	}
	return nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
