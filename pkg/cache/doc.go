// Package cache provides a thread-safe in-memory cache with TTL expiry and
// LRU eviction.
//
// # Overview
//
// Cache is a generic key/value store bounded by a maximum entry count.
// Entries expire lazily: an expired entry is removed the next time it is
// looked up, not by a background sweeper. When an insert would exceed the
// entry bound, the least-recently-accessed entry is evicted.
//
//	c := cache.New[string, string](cache.Config{
//	    MaxEntries: 1000,
//	    DefaultTTL: 5 * time.Minute,
//	})
//	c.Set("prompt-hash", response)
//	if v, ok := c.Get("prompt-hash"); ok {
//	    // cache hit
//	}
//
// # Expiry
//
// Expiry is checked on access. CleanupExpired is available for callers that
// want proactive memory reclamation, but is not required for correctness.
//
// # Thread Safety
//
// All operations are safe for concurrent callers. Get takes the write lock
// because it updates last-accessed bookkeeping and hit/miss counters.
package cache
