package db

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultNamespace = "languages"

	// TableNamespaces names the bucket / table / collection holding
	// per-namespace capacity metadata.
	TableNamespaces = "polyglot_namespaces"
)

var (
	ErrKeyNotFound        = errors.New("requested key not found")
	ErrNamespaceNotFound  = errors.New("namespace does not exist")
	ErrNamespaceNotOpen   = errors.New("no namespace is open: call OpenOrCreate first")
	ErrInvalidNamespace   = errors.New("invalid namespace name")
	ErrInvalidKey         = errors.New("invalid entry key")
	ErrInvariantViolation = errors.New("invariant violation: more than one record shares a key")
	ErrNotConnected       = errors.New("store is not connected")
	ErrUnsupportedDriver  = errors.New("unrecognized or unsupported DB driver")

	namespaceExpr = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Type identifies a storage driver.
type Type int

const (
	Bolt Type = iota
	Postgres
	Sqlite
	Mongo
	Memory
)

func (typ Type) String() string {
	switch typ {
	case Bolt:
		return "bolt"
	case Postgres:
		return "postgres"
	case Sqlite:
		return "sqlite"
	case Mongo:
		return "mongo"
	case Memory:
		return "memory"
	default:
		return fmt.Sprintf("Type(%d)", int(typ))
	}
}

type Config interface {
	Type() Type // Configuration type specifier.
}

// NewConfig maps a driver name and its data source string (a file path, a
// connection string or a URI, depending on the driver) onto a Config.
func NewConfig(driver string, dsn string) (Config, error) {
	switch strings.ToLower(driver) {
	case "bolt", "boltdb", "bbolt":
		return NewBoltConfig(dsn), nil

	case "postgres", "postgresql", "pg":
		return NewPostgresConfig(dsn), nil

	case "sqlite", "sqlite3":
		return NewSqliteConfig(dsn), nil

	case "mongo", "mongodb":
		return NewMongoConfig(dsn), nil

	case "memory", "mem":
		return NewMemoryConfig(), nil

	default:
		return nil, errors.Wrapf(ErrUnsupportedDriver, "%q", driver)
	}
}

// NewBackend constructs an unopened backend for the passed configuration.
func NewBackend(config Config) Backend {
	switch config.Type() {
	case Bolt:
		return NewBoltBackend(config.(*BoltConfig))

	case Postgres:
		return NewPostgresBackend(config.(*PostgresConfig))

	case Sqlite:
		return NewSqliteBackend(config.(*SqliteConfig))

	case Mongo:
		return NewMongoBackend(config.(*MongoConfig))

	case Memory:
		return NewMemoryBackend()

	default:
		panic(fmt.Errorf("no backend constructor available for db configuration type: %v", config.Type()))
	}
}

// ValidateNamespace rejects names which cannot safely be used as a bucket,
// table or collection name by every driver.
func ValidateNamespace(namespace string) error {
	if !namespaceExpr.MatchString(namespace) || namespace == TableNamespaces {
		return errors.Wrapf(ErrInvalidNamespace, "%q", namespace)
	}
	return nil
}
