// Package hazardcache memoizes whole-scenario ProbabilityMap results by
// request hash, grounded on the teacher's internal/cache package
// (github.com/dgraph-io/ristretto, used by cmd/query/main.go's
// cache.NewCache(opts.cacheSize) and the Endpoint.Cache.Get/Set pair in
// api/endpoint.go).
package hazardcache

import (
	"github.com/dgraph-io/ristretto"

	"github.com/j-gaspar/oq-engine/internal/hazard"
)

// Entry is one cached scenario result.
type Entry struct {
	Pmap *hazard.ProbabilityMap
}

// Cache is the engine's result cache.
type Cache struct {
	rc *ristretto.Cache
}

// NewCache builds a cache sized at maxCostBytes of estimated cost. Mirrors
// the teacher's cache.NewCache(opts.cacheSize) shape, where size is given
// in bytes (megabytes * 1e6 at the CLI layer, see cmd/hazardd).
func NewCache(maxCostBytes int64) (*Cache, error) {
	// ristretto rejects zero NumCounters/MaxCost; the floors below keep a
	// size-zero cache constructible (it admits nothing, Get always misses).
	numCounters := maxCostBytes / 100 * 10 // ~10x entries expected, ristretto's own sizing rule of thumb
	if numCounters <= 0 {
		numCounters = 10
	}
	maxCost := maxCostBytes
	if maxCost <= 0 {
		maxCost = 1
	}
	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{rc: rc}, nil
}

// Get returns the cached entry for key, and whether it was present.
func (c *Cache) Get(key string) (*Entry, bool) {
	v, ok := c.rc.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

// Set stores entry under key, costed by its ProbabilityMap's sid count —
// a cheap proxy for the (L*G) arrays backing it.
func (c *Cache) Set(key string, entry *Entry) {
	cost := int64(1)
	if entry.Pmap != nil {
		cost = int64(len(entry.Pmap.Sids())*entry.Pmap.L*entry.Pmap.G) + 1
	}
	c.rc.Set(key, entry, cost)
}
