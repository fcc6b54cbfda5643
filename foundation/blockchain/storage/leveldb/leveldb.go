// Package leveldb implements the durable store on disk using LevelDB.
// Change notifications are delivered to watchers in the same process.
package leveldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// keyPrefix namespaces the documents inside the database.
const keyPrefix = "cisp:"

// LevelDB represents the storage implementation for reading and storing
// documents in a LevelDB database. This implements the storage.Store
// interface.
type LevelDB struct {
	storage.Watchers
	db *leveldb.DB
}

// New opens (or creates) a LevelDB database at path.
func New(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %q: %w", path, err)
	}

	return &LevelDB{db: db}, nil
}

// Close releases any watchers and closes the database.
func (l *LevelDB) Close() error {
	l.CloseAll()
	return l.db.Close()
}

// Get returns the document stored under key.
func (l *LevelDB) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := l.db.Get([]byte(keyPrefix+key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return val, nil
}

// Set replaces the document stored under key and notifies watchers.
func (l *LevelDB) Set(ctx context.Context, key string, value []byte) error {
	if err := l.db.Put([]byte(keyPrefix+key), value, nil); err != nil {
		return err
	}

	l.Notify(key)
	return nil
}

// Delete removes the key and notifies watchers.
func (l *LevelDB) Delete(ctx context.Context, key string) error {
	if err := l.db.Delete([]byte(keyPrefix+key), nil); err != nil {
		return err
	}

	l.Notify(key)
	return nil
}

// Keys returns the set of keys currently stored in key order.
func (l *LevelDB) Keys(ctx context.Context) ([]string, error) {
	iter := l.db.NewIterator(util.BytesPrefix([]byte(keyPrefix)), nil)
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()[len(keyPrefix):]))
	}

	if err := iter.Error(); err != nil {
		return nil, err
	}

	return keys, nil
}
