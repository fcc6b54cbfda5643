// Package database provides support for opening the durable store the
// ledger system runs on.
package database

import (
	"context"
	"fmt"

	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage/leveldb"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage/memory"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage/redis"
)

// Set of supported storage backends.
const (
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
	BackendRedis   = "redis"
)

// Config is the required properties to open the store.
type Config struct {
	Backend        string
	LevelDBPath    string
	RedisURL       string
	RedisNamespace string
	RedisChannel   string
}

// Open knows how to open the configured store.
func Open(ctx context.Context, cfg Config) (storage.Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return memory.New(), nil

	case BackendLevelDB:
		db, err := leveldb.New(cfg.LevelDBPath)
		if err != nil {
			return nil, fmt.Errorf("open leveldb %q: %w", cfg.LevelDBPath, err)
		}
		return db, nil

	case BackendRedis:
		db, err := redis.New(ctx, redis.Config{
			URL:       cfg.RedisURL,
			Namespace: cfg.RedisNamespace,
			Channel:   cfg.RedisChannel,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		return db, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
