package qa

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"docqa-backend/internal/llm"
)

// ResultCache memoizes finalized QA extraction results keyed by content
// hash. Concurrent extractions for the same hash share one in-flight
// computation. Entries live for the process lifetime.
type ResultCache struct {
	mu      sync.RWMutex
	results map[string][]llm.QAPair
	group   singleflight.Group
}

// NewResultCache constructs an empty cache.
func NewResultCache() *ResultCache {
	return &ResultCache{
		results: make(map[string][]llm.QAPair),
	}
}

// Get returns the cached result for hash, if any.
func (c *ResultCache) Get(hash string) ([]llm.QAPair, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pairs, ok := c.results[hash]
	return pairs, ok
}

// Put stores the result for hash unconditionally (write-through).
func (c *ResultCache) Put(hash string, pairs []llm.QAPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[hash] = pairs
}

// Do returns the cached result for hash or computes it, deduplicating
// concurrent identical requests so the computation runs at most once per
// key at a time. The computed result is written through before returning.
func (c *ResultCache) Do(hash string, compute func() ([]llm.QAPair, error)) ([]llm.QAPair, error) {
	result, err, _ := c.group.Do(hash, func() (any, error) {
		if pairs, ok := c.Get(hash); ok {
			return pairs, nil
		}
		pairs, err := compute()
		if err != nil {
			return nil, err
		}
		c.Put(hash, pairs)
		return pairs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]llm.QAPair), nil
}

// Len reports the number of cached entries.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}
