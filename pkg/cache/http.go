package cache

import (
	"net/http"
)

// ShouldMakeConditionalRequest determines if an If-None-Match header can be
// sent for the cache entry.
func ShouldMakeConditionalRequest(entry *CacheEntry) bool {
	return entry != nil && entry.ETag != ""
}

// AddConditionalHeaders adds If-None-Match to the request when the cache
// entry carries an ETag.
func AddConditionalHeaders(req *http.Request, entry *CacheEntry) {
	if req == nil || !ShouldMakeConditionalRequest(entry) {
		return
	}
	req.Header.Set("If-None-Match", entry.ETag)
}

// ResponseETag returns the ETag header of a response, or "" if absent.
func ResponseETag(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	return resp.Header.Get("ETag")
}
