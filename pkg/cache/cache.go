package cache

import (
	"sync"
	"time"
)

// Config contains configuration for a Cache.
type Config struct {
	// MaxEntries is the maximum number of live entries. When an insert of a
	// new key would exceed it, the least-recently-accessed entry is evicted.
	// Default: 1024.
	MaxEntries int `yaml:"max_entries"`

	// DefaultTTL is applied to entries inserted with Set. Zero means
	// entries never expire unless a TTL is given at the call site.
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// entry is a single cached value with its bookkeeping.
type entry[V any] struct {
	value        V
	createdAt    time.Time
	expiresAt    time.Time // zero means never expires
	lastAccessed time.Time
}

// expired reports whether the entry is past its expiry at the given time.
func (e *entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Stats contains cache observability counters.
// Counters increase monotonically until ResetStats.
type Stats struct {
	// Hits is the number of Get calls that returned a live value.
	Hits int64

	// Misses is the number of Get calls that found no live value.
	Misses int64

	// Evictions is the number of entries removed to make room for inserts.
	Evictions int64

	// Entries is the number of live entries at the time of the snapshot.
	Entries int
}

// HitRate returns hits/(hits+misses), or 0.0 if no lookups have been made.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a thread-safe TTL + LRU cache.
//
// All state is guarded by a single mutex; see the package documentation for
// the concurrency model.
type Cache[K comparable, V any] struct {
	config  Config
	entries map[K]*entry[V]

	hits      int64
	misses    int64
	evictions int64

	mu sync.Mutex
}

// New creates a Cache with the given configuration.
// A non-positive MaxEntries falls back to the default of 1024.
func New[K comparable, V any](config Config) *Cache[K, V] {
	if config.MaxEntries <= 0 {
		config.MaxEntries = 1024
	}

	return &Cache[K, V]{
		config:  config,
		entries: make(map[K]*entry[V]),
	}
}

// Set stores a value using the cache's default TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL stores a value with an explicit TTL. A zero TTL means the
// entry never expires. If inserting a new key would exceed MaxEntries,
// least-recently-accessed entries are evicted first. Set never fails.
func (c *Cache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	// Replacing an existing key never changes the entry count.
	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.config.MaxEntries {
			c.evictOldestLocked()
		}
	}

	e := &entry[V]{
		value:        value,
		createdAt:    now,
		lastAccessed: now,
	}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}

	c.entries[key] = e
}

// Get returns the live value for key.
//
// A present but expired entry is removed and counted as a miss. A live hit
// updates the entry's last-accessed time. The second return value reports
// whether a live value was found.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	now := time.Now()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}

	if e.expired(now) {
		delete(c.entries, key)
		c.misses++
		return zero, false
	}

	e.lastAccessed = now
	c.hits++
	return e.value, true
}

// Contains reports whether a live entry exists for key.
// Unlike Get it does not update last-accessed time or hit/miss counters,
// and it leaves expired entries in place for lazy removal.
func (c *Cache[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return ok && !e.expired(time.Now())
}

// Remove deletes the entry for key and returns its value if one existed.
// An expired entry is removed but not returned.
func (c *Cache[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	delete(c.entries, key)
	if e.expired(time.Now()) {
		return zero, false
	}
	return e.value, true
}

// Clear removes all entries. Stats counters are not reset.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*entry[V])
}

// CleanupExpired removes every expired entry and returns the count removed.
// Correctness does not require calling this; it exists for callers that
// want proactive memory reclamation.
func (c *Cache[K, V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}

	return removed
}

// Len returns the number of entries currently stored, including entries
// that have expired but not yet been lazily removed.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   len(c.entries),
	}
}

// ResetStats zeroes the hit, miss, and eviction counters.
func (c *Cache[K, V]) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hits = 0
	c.misses = 0
	c.evictions = 0
}

// evictOldestLocked removes the entry with the oldest last-accessed time.
// Ties are broken arbitrarily. Caller must hold lock and guarantee the
// cache is non-empty.
func (c *Cache[K, V]) evictOldestLocked() {
	var oldestKey K
	var oldestTime time.Time
	first := true

	for key, e := range c.entries {
		if first || e.lastAccessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.lastAccessed
			first = false
		}
	}

	delete(c.entries, oldestKey)
	c.evictions++
}
