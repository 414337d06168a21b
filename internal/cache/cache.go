// Package cache is a content-addressed response cache with TTL-based
// invalidation, backed by badger. Repeated identical requests within the
// freshness window are served locally instead of re-querying the network.
// Badger serializes concurrent access to a key itself.
package cache

import (
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// DefaultTTL keeps a cached response fresh for three days, matching how
// often historical quote data is worth re-fetching.
const DefaultTTL = 3 * 24 * time.Hour

// Cache stores raw response bodies keyed by request identity.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens (or creates) the cache at dir. An empty dir opens an in-memory
// cache, used by tests and by runs that opt out of persistence.
func Open(dir string, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open response cache: %w", err)
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Get returns the cached body for key, or false when absent or expired.
func (c *Cache) Get(key string) ([]byte, bool) {
	var body []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		body, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		// Anything other than a clean hit, including a corrupt entry, is a
		// miss; the fetch re-populates it.
		return nil, false
	}
	return body, true
}

// Set stores body under key with the cache's TTL.
func (c *Cache) Set(key string, body []byte) error {
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), body).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}
