package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"jaytaylor.com/polyglot/domain"
)

var (
	DefaultMongoURI      = "mongodb://localhost:27017/prod"
	DefaultMongoDatabase = "prod"
	DefaultMongoTimeout  = 10 * time.Second
)

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// NewMongoConfig takes the database name from the URI path, falling back to
// DefaultMongoDatabase.
func NewMongoConfig(uri string) *MongoConfig {
	if len(uri) == 0 {
		uri = DefaultMongoURI
	}
	cfg := &MongoConfig{
		URI:      uri,
		Database: DefaultMongoDatabase,
		Timeout:  DefaultMongoTimeout,
	}
	if u, err := url.Parse(uri); err == nil {
		if name := strings.Trim(u.Path, "/"); len(name) > 0 {
			cfg.Database = name
		}
	}
	return cfg
}

func (cfg MongoConfig) Type() Type {
	return Mongo
}

// MongoBackend maps each namespace onto a capped collection, leaving capacity
// enforcement to the server.
type MongoBackend struct {
	config *MongoConfig
	client *mongo.Client
	db     *mongo.Database
	mu     sync.Mutex
}

func NewMongoBackend(config *MongoConfig) *MongoBackend {
	be := &MongoBackend{
		config: config,
	}
	return be
}

func (be *MongoBackend) Open() error {
	be.mu.Lock()
	defer be.mu.Unlock()

	if be.client != nil {
		return nil
	}

	ctx, cancel := be.ctx()
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(be.config.URI))
	if err != nil {
		return errors.Wrap(err, "connecting to mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return errors.Wrap(err, "pinging mongo")
	}
	be.client = client
	be.db = client.Database(be.config.Database)
	return nil
}

func (be *MongoBackend) Close() error {
	be.mu.Lock()
	defer be.mu.Unlock()

	if be.client == nil {
		return nil
	}

	ctx, cancel := be.ctx()
	defer cancel()

	if err := be.client.Disconnect(ctx); err != nil {
		return err
	}

	be.client = nil
	be.db = nil

	return nil
}

func (be *MongoBackend) Ping() error {
	be.mu.Lock()
	client := be.client
	be.mu.Unlock()

	if client == nil {
		return ErrNotConnected
	}
	ctx, cancel := be.ctx()
	defer cancel()
	return client.Ping(ctx, readpref.Primary())
}

func (be *MongoBackend) EnsureNamespace(namespace string, capacity domain.Capacity) (bool, error) {
	exists, err := be.HasNamespace(namespace)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	db, err := be.database()
	if err != nil {
		return false, err
	}

	ctx, cancel := be.ctx()
	defer cancel()

	opts := options.CreateCollection()
	if capacity.MaxBytes > 0 {
		opts.SetCapped(true).SetSizeInBytes(capacity.MaxBytes)
		if capacity.MaxEntries > 0 {
			opts.SetMaxDocuments(int64(capacity.MaxEntries))
		}
	}
	if err := db.CreateCollection(ctx, namespace, opts); err != nil {
		return false, errors.Wrapf(err, "creating collection %q", namespace)
	}
	if _, err := db.Collection(namespace).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}},
	}); err != nil {
		return false, errors.Wrapf(err, "creating name index on %q", namespace)
	}
	return true, nil
}

func (be *MongoBackend) HasNamespace(namespace string) (bool, error) {
	db, err := be.database()
	if err != nil {
		return false, err
	}

	ctx, cancel := be.ctx()
	defer cancel()

	names, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: namespace}})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

func (be *MongoBackend) Namespaces() ([]string, error) {
	db, err := be.database()
	if err != nil {
		return nil, err
	}

	ctx, cancel := be.ctx()
	defer cancel()

	return db.ListCollectionNames(ctx, bson.D{})
}

func (be *MongoBackend) DropNamespace(namespace string) error {
	db, err := be.database()
	if err != nil {
		return err
	}

	ctx, cancel := be.ctx()
	defer cancel()

	return db.Collection(namespace).Drop(ctx)
}

func (be *MongoBackend) Count(namespace string, key string) (int, error) {
	db, err := be.database()
	if err != nil {
		return 0, err
	}

	ctx, cancel := be.ctx()
	defer cancel()

	n, err := db.Collection(namespace).CountDocuments(ctx, bson.M{"name": key})
	if err != nil {
		return 0, fmt.Errorf("counting key=%q in %v: %s", key, namespace, err)
	}
	return int(n), nil
}

func (be *MongoBackend) Get(namespace string, key string) (string, error) {
	db, err := be.database()
	if err != nil {
		return "", err
	}

	ctx, cancel := be.ctx()
	defer cancel()

	rec := &domain.Record{}
	if err := db.Collection(namespace).FindOne(ctx, bson.M{"name": key}).Decode(rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("getting key=%q from %v: %s", key, namespace, err)
	}
	return rec.Value, nil
}

// Insert refuses to write into a missing collection, which mongo would
// otherwise create implicitly without the cap.
func (be *MongoBackend) Insert(namespace string, rec *domain.Record) error {
	exists, err := be.HasNamespace(namespace)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Wrapf(ErrNamespaceNotFound, "%q", namespace)
	}

	db, err := be.database()
	if err != nil {
		return err
	}

	ctx, cancel := be.ctx()
	defer cancel()

	if _, err := db.Collection(namespace).InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("inserting key=%q into %v: %s", rec.Name, namespace, err)
	}
	return nil
}

func (be *MongoBackend) Update(namespace string, key string, value string) error {
	db, err := be.database()
	if err != nil {
		return err
	}

	ctx, cancel := be.ctx()
	defer cancel()

	res, err := db.Collection(namespace).UpdateOne(ctx, bson.M{"name": key}, bson.M{"$set": bson.M{"value": value}})
	if err != nil {
		return fmt.Errorf("updating key=%q in %v: %s", key, namespace, err)
	}
	if res.MatchedCount == 0 {
		return ErrKeyNotFound
	}
	return nil
}

func (be *MongoBackend) Delete(namespace string, key string) error {
	db, err := be.database()
	if err != nil {
		return err
	}

	ctx, cancel := be.ctx()
	defer cancel()

	if _, err := db.Collection(namespace).DeleteOne(ctx, bson.M{"name": key}); err != nil {
		return fmt.Errorf("deleting key=%q from %v: %s", key, namespace, err)
	}
	return nil
}

func (be *MongoBackend) Keys(namespace string) ([]string, error) {
	db, err := be.database()
	if err != nil {
		return nil, err
	}

	ctx, cancel := be.ctx()
	defer cancel()

	values, err := db.Collection(namespace).Distinct(ctx, "name", bson.D{})
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			keys = append(keys, s)
		}
	}
	return keys, nil
}

func (be *MongoBackend) EachRecord(namespace string, fn func(rec *domain.Record)) error {
	db, err := be.database()
	if err != nil {
		return err
	}

	ctx, cancel := be.ctx()
	defer cancel()

	cur, err := db.Collection(namespace).Find(ctx, bson.D{})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		rec := &domain.Record{}
		if err := cur.Decode(rec); err != nil {
			return err
		}
		fn(rec)
	}
	return cur.Err()
}

func (be *MongoBackend) Len(namespace string) (int, error) {
	db, err := be.database()
	if err != nil {
		return 0, err
	}

	ctx, cancel := be.ctx()
	defer cancel()

	n, err := db.Collection(namespace).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("getting length of namespace=%v: %s", namespace, err)
	}
	return int(n), nil
}

// database returns the connected database, or ErrNotConnected once the
// backend has been closed.
func (be *MongoBackend) database() (*mongo.Database, error) {
	be.mu.Lock()
	defer be.mu.Unlock()

	if be.db == nil {
		return nil, ErrNotConnected
	}
	return be.db, nil
}

func (be *MongoBackend) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), be.config.Timeout)
}
