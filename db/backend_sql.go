package db

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"jaytaylor.com/polyglot/domain"
)

// sqlDialect captures the few places postgres and sqlite disagree.
type sqlDialect struct {
	driver   string
	maxConns int              // Zero leaves the pool unbounded.
	serial   string           // Auto-incrementing primary key column definition.
	byteLen  string           // Expression template measuring a text column in bytes.
	bind     func(int) string // Positional placeholder for the n'th (1-indexed) argument.
	quoteIdf func(string) string
}

// sqlBackend stores each namespace in its own table named "ns_<namespace>"
// with an ascending surrogate id, so ORDER BY id is insertion order.
type sqlBackend struct {
	dialect sqlDialect
	dsn     string
	db      *sql.DB
	mu      sync.Mutex
}

func newSQLBackend(dialect sqlDialect, dsn string) *sqlBackend {
	be := &sqlBackend{
		dialect: dialect,
		dsn:     dsn,
	}
	return be
}

func (be *sqlBackend) Open() error {
	be.mu.Lock()
	defer be.mu.Unlock()

	if be.db != nil {
		return nil
	}

	db, err := sql.Open(be.dialect.driver, be.dsn)
	if err != nil {
		return err
	}
	if be.dialect.maxConns > 0 {
		db.SetMaxOpenConns(be.dialect.maxConns)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return errors.Wrapf(err, "connecting to %v", be.dialect.driver)
	}
	be.db = db

	if err := be.initDB(); err != nil {
		be.db.Close()
		be.db = nil
		return err
	}

	return nil
}

func (be *sqlBackend) Close() error {
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

func (be *sqlBackend) initDB() error {
	_, err := be.db.Exec(fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	name TEXT PRIMARY KEY,
	max_bytes BIGINT NOT NULL,
	max_entries BIGINT NOT NULL
)`, be.dialect.quoteIdf(TableNamespaces)))
	if err != nil {
		return fmt.Errorf("initDB: creating table %q: %s", TableNamespaces, err)
	}
	return nil
}

func (be *sqlBackend) Ping() error {
	if be.db == nil {
		return ErrNotConnected
	}
	return be.db.Ping()
}

func (be *sqlBackend) EnsureNamespace(namespace string, capacity domain.Capacity) (bool, error) {
	var created bool
	if err := be.withTx(func(tx *sql.Tx) error {
		exists, err := be.hasNamespace(tx, namespace)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		table := be.table(namespace)
		if _, err := tx.Exec(fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id %s,
	name TEXT NOT NULL,
	value TEXT NOT NULL
)`, table, be.dialect.serial)); err != nil {
			return errors.Wrapf(err, "creating table for namespace %q", namespace)
		}
		// Deliberately not UNIQUE: duplicates have to stay observable.
		if _, err := tx.Exec(fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS %s ON %s (name)`,
			be.dialect.quoteIdf("ns_"+namespace+"_name_idx"),
			table,
		)); err != nil {
			return errors.Wrapf(err, "creating index for namespace %q", namespace)
		}
		if _, err := tx.Exec(
			fmt.Sprintf(`INSERT INTO %s (name, max_bytes, max_entries) VALUES (%s, %s, %s)`,
				be.dialect.quoteIdf(TableNamespaces), be.bind(1), be.bind(2), be.bind(3)),
			namespace,
			capacity.MaxBytes,
			capacity.MaxEntries,
		); err != nil {
			return errors.Wrapf(err, "saving capacity for namespace %q", namespace)
		}
		created = true
		return nil
	}); err != nil {
		return false, err
	}
	return created, nil
}

func (be *sqlBackend) HasNamespace(namespace string) (bool, error) {
	var exists bool
	if err := be.withTx(func(tx *sql.Tx) error {
		var err error
		exists, err = be.hasNamespace(tx, namespace)
		return err
	}); err != nil {
		return false, err
	}
	return exists, nil
}

func (be *sqlBackend) Namespaces() ([]string, error) {
	if be.db == nil {
		return nil, ErrNotConnected
	}
	rows, err := be.db.Query(fmt.Sprintf(`SELECT name FROM %s ORDER BY name ASC`, be.dialect.quoteIdf(TableNamespaces)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (be *sqlBackend) DropNamespace(namespace string) error {
	return be.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, be.table(namespace))); err != nil {
			return fmt.Errorf("dropping namespace=%v: %s", namespace, err)
		}
		if _, err := tx.Exec(
			fmt.Sprintf(`DELETE FROM %s WHERE name = %s`, be.dialect.quoteIdf(TableNamespaces), be.bind(1)),
			namespace,
		); err != nil {
			return fmt.Errorf("removing capacity for namespace=%v: %s", namespace, err)
		}
		return nil
	})
}

func (be *sqlBackend) Count(namespace string, key string) (int, error) {
	var n int64
	if err := be.withNamespace(namespace, func(tx *sql.Tx, table string) error {
		row := tx.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE name = %s`, table, be.bind(1)), key)
		if err := row.Scan(&n); err != nil {
			return fmt.Errorf("counting key=%q in %v: %s", key, namespace, err)
		}
		return nil
	}); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (be *sqlBackend) Get(namespace string, key string) (string, error) {
	var v string
	if err := be.withNamespace(namespace, func(tx *sql.Tx, table string) error {
		row := tx.QueryRow(fmt.Sprintf(`SELECT value FROM %s WHERE name = %s ORDER BY id ASC LIMIT 1`, table, be.bind(1)), key)
		if err := row.Scan(&v); err != nil {
			if err == sql.ErrNoRows {
				return ErrKeyNotFound
			}
			return fmt.Errorf("getting key=%q from %v: %s", key, namespace, err)
		}
		return nil
	}); err != nil {
		return "", err
	}
	return v, nil
}

func (be *sqlBackend) Insert(namespace string, rec *domain.Record) error {
	return be.withNamespace(namespace, func(tx *sql.Tx, table string) error {
		if _, err := tx.Exec(
			fmt.Sprintf(`INSERT INTO %s (name, value) VALUES (%s, %s)`, table, be.bind(1), be.bind(2)),
			rec.Name,
			rec.Value,
		); err != nil {
			return fmt.Errorf("inserting key=%q into %v: %s", rec.Name, namespace, err)
		}
		return be.evict(tx, namespace, table)
	})
}

func (be *sqlBackend) Update(namespace string, key string, value string) error {
	return be.withNamespace(namespace, func(tx *sql.Tx, table string) error {
		res, err := tx.Exec(
			fmt.Sprintf(`UPDATE %[1]s SET value = %[2]s WHERE id = (SELECT id FROM %[1]s WHERE name = %[3]s ORDER BY id ASC LIMIT 1)`,
				table, be.bind(1), be.bind(2)),
			value,
			key,
		)
		if err != nil {
			return fmt.Errorf("updating key=%q in %v: %s", key, namespace, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrKeyNotFound
		}
		return nil
	})
}

func (be *sqlBackend) Delete(namespace string, key string) error {
	return be.withNamespace(namespace, func(tx *sql.Tx, table string) error {
		if _, err := tx.Exec(
			fmt.Sprintf(`DELETE FROM %[1]s WHERE id = (SELECT id FROM %[1]s WHERE name = %[2]s ORDER BY id ASC LIMIT 1)`,
				table, be.bind(1)),
			key,
		); err != nil {
			return fmt.Errorf("deleting key=%q from %v: %s", key, namespace, err)
		}
		return nil
	})
}

func (be *sqlBackend) Keys(namespace string) ([]string, error) {
	var keys []string
	if err := be.withNamespace(namespace, func(tx *sql.Tx, table string) error {
		rows, err := tx.Query(fmt.Sprintf(`SELECT name FROM %s GROUP BY name ORDER BY MIN(id) ASC`, table))
		if err != nil {
			return err
		}
		defer rows.Close()
		keys, err = scanStrings(rows)
		return err
	}); err != nil {
		return nil, err
	}
	return keys, nil
}

func (be *sqlBackend) EachRecord(namespace string, fn func(rec *domain.Record)) error {
	return be.withNamespace(namespace, func(tx *sql.Tx, table string) error {
		rows, err := tx.Query(fmt.Sprintf(`SELECT name, value FROM %s ORDER BY id ASC`, table))
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			rec := &domain.Record{}
			if err := rows.Scan(&rec.Name, &rec.Value); err != nil {
				return err
			}
			fn(rec)
		}
		return rows.Err()
	})
}

func (be *sqlBackend) Len(namespace string) (int, error) {
	var n int64
	if err := be.withNamespace(namespace, func(tx *sql.Tx, table string) error {
		row := tx.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table))
		if err := row.Scan(&n); err != nil {
			return fmt.Errorf("getting length of namespace=%v: %s", namespace, err)
		}
		return nil
	}); err != nil {
		return 0, err
	}
	return int(n), nil
}

// evict drops the oldest rows until the table fits within the namespace's
// capacity.  The newest row is never evicted.
func (be *sqlBackend) evict(tx *sql.Tx, namespace string, table string) error {
	capacity, err := be.capacity(tx, namespace)
	if err != nil {
		return err
	}
	rows, err := tx.Query(fmt.Sprintf(`SELECT id, %s FROM %s ORDER BY id ASC`,
		fmt.Sprintf(be.dialect.byteLen, "name")+" + "+fmt.Sprintf(be.dialect.byteLen, "value"), table))
	if err != nil {
		return err
	}
	var (
		ids   = []int64{}
		sizes = []int64{}
		total int64
	)
	for rows.Next() {
		var id, size int64
		if err := rows.Scan(&id, &size); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
		sizes = append(sizes, size)
		total += size
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for i := 0; i < len(ids)-1 && capacity.Exceeded(len(ids)-i, total); i++ {
		log.WithField("namespace", namespace).WithField("id", ids[i]).Debug("Evicting record past capacity")
		if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE id = %s`, table, be.bind(1)), ids[i]); err != nil {
			return err
		}
		total -= sizes[i]
	}
	return nil
}

func (be *sqlBackend) capacity(tx *sql.Tx, namespace string) (domain.Capacity, error) {
	var (
		capacity   domain.Capacity
		maxEntries int64
		row        = tx.QueryRow(
			fmt.Sprintf(`SELECT max_bytes, max_entries FROM %s WHERE name = %s`, be.dialect.quoteIdf(TableNamespaces), be.bind(1)),
			namespace,
		)
	)
	if err := row.Scan(&capacity.MaxBytes, &maxEntries); err != nil {
		if err == sql.ErrNoRows {
			return capacity, errors.Wrapf(ErrNamespaceNotFound, "%q", namespace)
		}
		return capacity, err
	}
	capacity.MaxEntries = int(maxEntries)
	return capacity, nil
}

func (be *sqlBackend) hasNamespace(tx *sql.Tx, namespace string) (bool, error) {
	var n int64
	row := tx.QueryRow(
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE name = %s`, be.dialect.quoteIdf(TableNamespaces), be.bind(1)),
		namespace,
	)
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// withNamespace runs fn in a transaction after confirming the namespace
// exists.
func (be *sqlBackend) withNamespace(namespace string, fn func(tx *sql.Tx, table string) error) error {
	return be.withTx(func(tx *sql.Tx) error {
		exists, err := be.hasNamespace(tx, namespace)
		if err != nil {
			return err
		}
		if !exists {
			return errors.Wrapf(ErrNamespaceNotFound, "%q", namespace)
		}
		return fn(tx, be.table(namespace))
	})
}

func (be *sqlBackend) withTx(fn func(tx *sql.Tx) error) error {
	if be.db == nil {
		return ErrNotConnected
	}
	tx, err := be.db.Begin()
	if err != nil {
		return fmt.Errorf("obtaining tx: %s", err)
	}
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Errorf("Rollback failed after error=%s: %s", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func (be *sqlBackend) table(namespace string) string {
	return be.dialect.quoteIdf("ns_" + namespace)
}

func (be *sqlBackend) bind(n int) string {
	return be.dialect.bind(n)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// doubleQuote quotes an SQL identifier the ANSI way.
func doubleQuote(identifier string) string {
	return `"` + strings.Replace(identifier, `"`, `""`, -1) + `"`
}
