// Package cache implements the in-memory TTL cache shared by all provider
// adapters. Entries live for the process lifetime at most; nothing is ever
// serialized or persisted.
package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// TTL presets matched to upstream data volatility. Adapters pick the preset
// that fits what they fetch; price and quote data goes stale in seconds while
// token metadata barely changes.
const (
	TTLShort  = 15 * time.Second
	TTLMedium = 5 * time.Minute
	TTLLong   = 6 * time.Hour
)

// Stats reports cache activity counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

type entry struct {
	value     any
	createdAt time.Time
	expiresAt time.Time
	seq       uint64 // insertion order, used for capacity eviction
}

// TTLCache is a capacity-bounded key/value store with per-entry expiry.
// All operations are safe for concurrent use.
type TTLCache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	maxEntries int
	seq        uint64
	hits       int64
	misses     int64
	evictions  int64
}

// NewTTLCache creates a cache holding at most maxEntries live entries.
func NewTTLCache(maxEntries int) *TTLCache {
	return &TTLCache{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
	}
}

// Get returns the cached value for key, or false on a miss. Reading an
// expired entry counts as a miss, removes the entry and counts an eviction.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		c.evictions++
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Has reports whether key holds a live entry without touching the counters.
func (c *TTLCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return ok && !time.Now().After(e.expiresAt)
}

// Set stores value under key for ttl. When the cache is full it first drops
// expired entries, then the oldest-inserted live entry.
func (c *TTLCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictExpiredLocked()
		if len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}

	now := time.Now()
	c.seq++
	c.entries[key] = &entry{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
		seq:       c.seq,
	}
}

// Delete removes key if present.
func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry and resets the counters.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.hits, c.misses, c.evictions = 0, 0, 0
}

// EvictExpired removes every expired entry and returns how many were dropped.
func (c *TTLCache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictExpiredLocked()
}

func (c *TTLCache) evictExpiredLocked() int {
	now := time.Now()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.evictions += int64(removed)
	return removed
}

func (c *TTLCache) evictOldestLocked() {
	if len(c.entries) == 0 {
		return
	}
	var oldestKey string
	var oldestSeq uint64
	for key, e := range c.entries {
		if oldestKey == "" || e.seq < oldestSeq {
			oldestKey = key
			oldestSeq = e.seq
		}
	}
	delete(c.entries, oldestKey)
	c.evictions++
}

// Stats returns a snapshot of the activity counters.
func (c *TTLCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      len(c.entries),
	}
}

// Len returns the number of entries currently stored, expired or not.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Key builds a deterministic cache key from a provider, method and parameter
// set. Parameters are sorted so identical logical requests collapse to one
// slot regardless of argument ordering at the call site.
func Key(provider, method string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(provider)
	b.WriteByte(':')
	b.WriteString(method)
	for _, name := range names {
		b.WriteByte(':')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	return b.String()
}

// Lookup fetches a typed value from the cache, treating a type mismatch as a
// miss. Adapters store their own DTO types, so a mismatch only happens when
// two adapters collide on a key, which the provider prefix prevents.
func Lookup[T any](c *TTLCache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
