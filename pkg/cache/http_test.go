package cache

import (
	"net/http"
	"testing"
)

func TestShouldMakeConditionalRequest(t *testing.T) {
	tests := []struct {
		name  string
		entry *CacheEntry
		want  bool
	}{
		{
			name:  "nil entry",
			entry: nil,
			want:  false,
		},
		{
			name: "entry with ETag",
			entry: &CacheEntry{
				ETag: `"abc123"`,
			},
			want: true,
		},
		{
			name:  "entry without ETag",
			entry: &CacheEntry{},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldMakeConditionalRequest(tt.entry); got != tt.want {
				t.Errorf("ShouldMakeConditionalRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	tests := []struct {
		name  string
		entry *CacheEntry
		want  string
	}{
		{
			name:  "with ETag",
			entry: &CacheEntry{ETag: `"abc"`},
			want:  `"abc"`,
		},
		{
			name:  "without ETag",
			entry: &CacheEntry{},
			want:  "",
		},
		{
			name:  "nil entry",
			entry: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://example.com/v2.1/locations", nil)
			AddConditionalHeaders(req, tt.entry)
			if got := req.Header.Get("If-None-Match"); got != tt.want {
				t.Errorf("If-None-Match = %q, want %q", got, tt.want)
			}
		})
	}

	// nil request must not panic
	AddConditionalHeaders(nil, &CacheEntry{ETag: `"abc"`})
}

func TestResponseETag(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Etag": []string{`W/"v1"`}}}
	if got := ResponseETag(resp); got != `W/"v1"` {
		t.Errorf("ResponseETag() = %q, want %q", got, `W/"v1"`)
	}
	if got := ResponseETag(nil); got != "" {
		t.Errorf("ResponseETag(nil) = %q, want empty", got)
	}
}
