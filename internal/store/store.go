package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var bucketKV = []byte("kv")

// Backend implements domain.Backend using BoltDB.
type Backend struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access).
	// In memory-only mode it is the only copy.
	cache map[string][]byte
}

// Open opens (or creates) the database at path.
// An empty path selects memory-only mode (no persistence).
func Open(path string) (*Backend, error) {
	if path == "" {
		return &Backend{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketKV)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Backend{db: db, cache: make(map[string][]byte)}, nil
}

func (b *Backend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	// Check memory cache first
	b.mu.RLock()
	if data, ok := b.cache[key]; ok {
		b.mu.RUnlock()
		return clone(data), true, nil
	}
	b.mu.RUnlock()

	if b.db == nil {
		return nil, false, nil
	}

	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketKV).Get([]byte(key)); v != nil {
			data = clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return nil, false, nil
	}

	// Promote to memory cache
	b.mu.Lock()
	b.cache[key] = data
	b.mu.Unlock()

	return clone(data), true, nil
}

func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data := clone(value)

	if b.db != nil {
		err := b.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketKV).Put([]byte(key), data)
		})
		if err != nil {
			return err
		}
	}

	// Cache only after the durable write succeeded
	b.mu.Lock()
	b.cache[key] = data
	b.mu.Unlock()
	return nil
}

func (b *Backend) Remove(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	for _, k := range keys {
		delete(b.cache, k)
	}
	b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketKV)
		for _, k := range keys {
			if err := bucket.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Keys returns every key in byte order.
func (b *Backend) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if b.db == nil {
		b.mu.RLock()
		keys := make([]string, 0, len(b.cache))
		for k := range b.cache {
			keys = append(keys, k)
		}
		b.mu.RUnlock()
		sort.Strings(keys)
		return keys, nil
	}

	var keys []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketKV).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func clone(v []byte) []byte {
	out := make([]byte, len(v))
	copy(out, v)
	return out
}
