// Package wordcache provides the bounded in-memory cache of word definitions.
package wordcache

import (
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/starford/wordhoard/internal/models"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 100

// Cache is a least-recently-used map from word to its ordered entries.
//
// All state lives behind a single mutex that is held only for the duration
// of the in-memory list operation. Callers must treat returned slices as
// read-only since they are shared with the cache.
type Cache struct {
	mu  sync.Mutex
	lru *simplelru.LRU[string, []models.WordEntry]
}

// New creates a cache holding at most capacity words.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	lru, err := simplelru.NewLRU[string, []models.WordEntry](capacity, nil)
	if err != nil {
		// Only returned for a non-positive size, which is guarded above.
		panic(fmt.Sprintf("wordcache: %v", err))
	}
	return &Cache{lru: lru}
}

// Get returns the entries for word and marks it most recently used.
func (c *Cache) Get(word string) ([]models.WordEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(word)
}

// Put stores entries under word, evicting the least recently used word when full.
func (c *Cache) Put(word string, entries []models.WordEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(word, entries)
}

// Contains reports whether word is cached without touching its recency.
func (c *Cache) Contains(word string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Contains(word)
}

// Len returns the number of cached words.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
