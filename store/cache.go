package store

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheKey identifies one TRANSACTION_QUERY scan result.
type cacheKey struct {
	customerID uint64
	startID    uint32
	count      uint16
}

// queryCache is a bounded cache of recent scan() results, keyed by the
// query's parameters. It is a pure read-path optimization: a miss always
// falls through to the same locked linear scan, and append() purges every
// cached entry for the affected customer so a cache hit can never return
// stale data.
type queryCache struct {
	lru   *lru.Cache[cacheKey, []Transaction]
	byCust map[uint64][]cacheKey
}

func newQueryCache(size int) *queryCache {
	c, err := lru.New[cacheKey, []Transaction](size)
	if err != nil {
		// size is a compile-time constant > 0; New only fails for size <= 0.
		panic(err)
	}
	return &queryCache{lru: c, byCust: make(map[uint64][]cacheKey)}
}

func (c *queryCache) get(key cacheKey) ([]Transaction, bool) {
	return c.lru.Get(key)
}

func (c *queryCache) put(key cacheKey, records []Transaction) {
	c.lru.Add(key, records)
	c.byCust[key.customerID] = append(c.byCust[key.customerID], key)
}

// invalidate purges every cached scan result for customerID.
func (c *queryCache) invalidate(customerID uint64) {
	for _, key := range c.byCust[customerID] {
		c.lru.Remove(key)
	}
	delete(c.byCust, customerID)
}
