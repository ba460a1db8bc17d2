// Package cache provides the MET response cache: an in-memory store of
// decoded API results keyed by request, with per-entry expiry, ETag support
// for conditional requests, and pluggable persistence.
//
// # Basic Usage
//
//	store := cache.NewStore(logger)
//
//	key := cache.CacheKey{
//		Host:        "api.met.gov.my",
//		Endpoint:    "/v2.1/locations",
//		QueryParams: url.Values{"locationcategoryid": []string{"STATE"}},
//	}
//
//	if entry, ok := store.Lookup(key.String(), time.Now()); ok {
//		// Fresh hit - revalidate with If-None-Match
//		cache.AddConditionalHeaders(req, entry)
//	}
//
//	store.Put(key.String(), etag, results, time.Now(), cache.DefaultTTL)
//
// # Expiry
//
// Every entry carries its own expiry timestamp. An entry whose expiry is at
// or before the lookup time is never returned as a hit; it is dropped on
// lookup, on Prune, on Load and before every Persist.
//
// # Persistence
//
// A Store is hydrated from and saved to a Persister:
//
//   - FileStore - a versioned JSON snapshot in a directory
//   - RedisStore - the same snapshot under a single Redis key
//   - SQLiteStore - one row per entry in an SQLite database
//
// Missing or corrupt snapshots load as an empty cache. Save failures are
// returned to the caller as *PersistenceError.
//
// # Metrics
//
//   - met_cache_hits_total - Fresh lookups
//   - met_cache_misses_total{reason} - Lookups that found nothing usable
//   - met_cache_entries - Entries currently held
//   - met_304_responses_total - Revalidations answered with 304
//   - met_conditional_requests_total - Requests sent with If-None-Match
//   - met_cache_persistence_errors_total{operation} - Load/save failures
package cache
