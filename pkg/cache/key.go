package cache

import (
	"net/url"
	"sort"
	"strings"
)

// CacheKey represents a unique identifier for a cached MET response.
type CacheKey struct {
	// Host is the API host (e.g., "api.met.gov.my")
	Host string

	// Endpoint is the request path (e.g., "/v2.1/locations")
	Endpoint string

	// QueryParams are the query parameters (e.g., {"locationcategoryid": "STATE"})
	QueryParams url.Values
}

// String generates a deterministic cache key string.
// Format: met:host/endpoint:param1=val1:param2=val2
//
// Example:
//
//	met:api.met.gov.my/v2.1/locations:locationcategoryid=STATE:offset=50
//
// Keys and values are query-escaped so that separators inside a value
// cannot make two distinct requests collide.
func (k CacheKey) String() string {
	parts := []string{"met"}

	target := strings.Trim(k.Endpoint, "/")
	if k.Host != "" {
		target = strings.TrimRight(k.Host, "/") + "/" + target
	}
	if target != "" {
		parts = append(parts, target)
	}

	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			values := make([]string, 0, len(k.QueryParams[key]))
			for _, v := range k.QueryParams[key] {
				values = append(values, url.QueryEscape(v))
			}
			parts = append(parts, url.QueryEscape(key)+"="+strings.Join(values, ","))
		}
	}

	return strings.Join(parts, ":")
}
