// Package testutil provides testing utilities for the MET client.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockMETResponse defines the behavior for a mock MET endpoint response.
type MockMETResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockMET is a configurable mock MET server for testing.
type MockMET struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	requestCount      int
	conditionalCount  int
	lastRequestHeader http.Header
	lastQuery         string
}

// NewMockMET creates a new mock MET server. Paths are matched without the
// API version prefix, e.g. "/locations" serves "/v2.1/locations".
func NewMockMET() *MockMET {
	mock := &MockMET{
		handlers: make(map[string]http.HandlerFunc),
	}

	mux := http.NewServeMux()
	mux.Handle("/v2.1/", http.StripPrefix("/v2.1", http.HandlerFunc(mock.serve)))
	mock.server = httptest.NewServer(mux)

	return mock
}

func (m *MockMET) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requestCount++
	m.lastRequestHeader = r.Header.Clone()
	m.lastQuery = r.URL.RawQuery
	if r.Header.Get("If-None-Match") != "" {
		m.conditionalCount++
	}
	handler, exists := m.handlers[r.URL.Path]
	m.mu.Unlock()

	if exists {
		handler(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"not found"}`))
}

// URL returns the API base URL of the mock server (with version prefix).
func (m *MockMET) URL() string {
	return m.server.URL + "/v2.1/"
}

// Close shuts down the mock server.
func (m *MockMET) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockMET) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.conditionalCount = 0
	m.lastRequestHeader = nil
	m.lastQuery = ""
}

// SetHandler sets a custom handler for a specific path.
func (m *MockMET) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockMET) SetResponse(path string, resp MockMETResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the number of requests made to the server.
func (m *MockMET) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// ConditionalCount returns the number of requests carrying If-None-Match.
func (m *MockMET) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockMET) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// LastQuery returns the raw query string of the most recent request.
func (m *MockMET) LastQuery() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}

// NewResultsResponse creates a 200 OK response with the given JSON body
// and ETag.
func NewResultsResponse(body, etag string) MockMETResponse {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if etag != "" {
		headers["ETag"] = etag
	}
	return MockMETResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    headers,
	}
}

// NewUnauthorizedResponse creates a 401 response like MET sends for a bad token.
func NewUnauthorizedResponse() MockMETResponse {
	return MockMETResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"error":"Invalid token"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockMETResponse {
	return MockMETResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error":"Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewConditionalHandler creates a handler that responds with 304 when the
// request carries etag in If-None-Match and with body otherwise.
func NewConditionalHandler(etag string, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}
}
