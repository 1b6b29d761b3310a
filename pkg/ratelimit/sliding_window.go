package ratelimit

import (
	"sync"
	"time"
)

// slidingWindow implements a sliding window counter for rate limiting.
//
// The window records the timestamp of every accepted request, oldest first.
// On each check, timestamps older than the window duration are pruned; the
// request is allowed if fewer than maxRequests remain.
//
// Storing raw timestamps keeps the window exact. Memory is bounded by
// maxRequests since only accepted requests are recorded.
//
// # Thread Safety
//
// slidingWindow is thread-safe using sync.Mutex for all operations.
type slidingWindow struct {
	window      time.Duration // Window duration
	maxRequests int           // Maximum accepted requests per window
	timestamps  []time.Time   // Accepted request times, oldest first

	total    int64 // Total Allow calls
	rejected int64 // Rejected Allow calls

	mu sync.Mutex
}

// newSlidingWindow creates a sliding window limiter.
func newSlidingWindow(maxRequests int, window time.Duration) *slidingWindow {
	return &slidingWindow{
		window:      window,
		maxRequests: maxRequests,
		timestamps:  make([]time.Time, 0, maxRequests),
	}
}

// allow records the request time and admits it if the window has room.
func (sw *slidingWindow) allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.pruneLocked(now)
	sw.total++

	if len(sw.timestamps) < sw.maxRequests {
		sw.timestamps = append(sw.timestamps, now)
		return true
	}

	sw.rejected++
	return false
}

// stats returns the request counters.
func (sw *slidingWindow) stats() Stats {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	return Stats{
		TotalRequests:    sw.total,
		RejectedRequests: sw.rejected,
	}
}

// reset clears the window and counters.
func (sw *slidingWindow) reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.timestamps = sw.timestamps[:0]
	sw.total = 0
	sw.rejected = 0
}

// pruneLocked drops timestamps that have fallen out of the window.
// Caller must hold lock.
func (sw *slidingWindow) pruneLocked(now time.Time) {
	cutoff := now.Add(-sw.window)

	// Timestamps are ordered oldest first, so find the first live entry.
	i := 0
	for i < len(sw.timestamps) && !sw.timestamps[i].After(cutoff) {
		i++
	}

	if i > 0 {
		sw.timestamps = append(sw.timestamps[:0], sw.timestamps[i:]...)
	}
}
