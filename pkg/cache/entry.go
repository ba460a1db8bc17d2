package cache

import (
	"encoding/json"
	"time"
)

// DefaultTTL is how long a fetched result stays fresh.
const DefaultTTL = 24 * time.Hour

// CacheEntry represents a cached MET result.
// Entries are replaced wholesale on write and never mutated in place.
type CacheEntry struct {
	// Key is the canonical request key (see CacheKey.String)
	Key string `json:"key"`

	// ETag for conditional requests (If-None-Match), empty if the server sent none
	ETag string `json:"etag,omitempty"`

	// Result is the extracted "results" or "metadata" sub-tree of the response
	Result json.RawMessage `json:"result"`

	// Expires is when the entry stops being served as a hit
	Expires time.Time `json:"expires"`

	// CachedAt is when the entry was written
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired reports whether the entry is stale at now.
// An entry expiring exactly at now is stale.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return !now.Before(e.Expires)
}

// TTL returns the time remaining until expiry at now.
// Returns 0 if already expired.
func (e *CacheEntry) TTL(now time.Time) time.Duration {
	ttl := e.Expires.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

func (e *CacheEntry) clone() *CacheEntry {
	c := *e
	return &c
}
