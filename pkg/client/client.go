// Package client provides the MET API client: request execution with an
// ETag-revalidated response cache, and typed accessors for locations,
// forecasts and warnings.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cuaca/cuaca-go/pkg/cache"
	"github.com/cuaca/cuaca-go/pkg/logging"
	"github.com/cuaca/cuaca-go/pkg/request"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for MET client operations.
var (
	metRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "met_requests_total",
		Help: "Total MET requests by endpoint and status",
	}, []string{"endpoint", "status"})

	metRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "met_request_duration_seconds",
		Help:    "MET request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	metErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "met_errors_total",
		Help: "Total MET errors by class",
	}, []string{"class"})
)

// Defaults for Config.
const (
	DefaultBaseURL    = "https://api.met.gov.my/v2.1/"
	DefaultOffsetSize = 50
	DefaultUserAgent  = "cuaca-go/0.1.0"
	DefaultTimeout    = 30 * time.Second
)

// ErrorClass represents a classification of failed requests.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// RevalidationPolicy decides what happens when a request finds a fresh
// cache entry.
type RevalidationPolicy int

const (
	// RevalidateAlways sends a conditional GET (If-None-Match) for every
	// fresh hit that has an ETag; the server answers 304 or new data.
	// Hits without an ETag are fetched in full.
	RevalidateAlways RevalidationPolicy = iota

	// RevalidateNever serves fresh hits straight from the cache without
	// touching the network.
	RevalidateNever
)

// Client is the MET API client.
// A Client must be closed to persist its cache.
type Client struct {
	httpClient *http.Client
	builder    *request.Builder
	cache      *cache.Store
	persister  cache.Persister
	config     Config
	logger     zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Config holds the client configuration. It is fixed for the lifetime of a
// Client.
type Config struct {
	// APIKey is sent as "Authorization: METToken <key>" (REQUIRED)
	APIKey string

	// BaseURL of the API (default: DefaultBaseURL)
	BaseURL string

	// OffsetSize is the page size used for the offset parameter (default: 50)
	OffsetSize int

	// CacheDir enables the file persister (dir/cuaca.json). Empty keeps the
	// cache in memory only.
	CacheDir string

	// Persister overrides CacheDir with any cache.Persister (Redis, SQLite, ...)
	Persister cache.Persister

	// Revalidation selects the fresh-hit policy (default: RevalidateAlways)
	Revalidation RevalidationPolicy

	// UserAgent header (default: DefaultUserAgent)
	UserAgent string

	// Timeout per HTTP request, used when HTTPClient is nil (default: 30s)
	Timeout time.Duration

	// HTTPClient replaces the default HTTP client
	HTTPClient *http.Client

	// Logger replaces the default component logger
	Logger *zerolog.Logger

	// Now replaces time.Now for cache expiry decisions
	Now func() time.Time
}

// DefaultConfig returns a configuration with every default filled in.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:       apiKey,
		BaseURL:      DefaultBaseURL,
		OffsetSize:   DefaultOffsetSize,
		Revalidation: RevalidateAlways,
		UserAgent:    DefaultUserAgent,
		Timeout:      DefaultTimeout,
	}
}

// New creates a new MET client.
//
// When a persister is configured the cache is hydrated from it. A missing or
// corrupt snapshot starts an empty cache; an unreachable backend is logged
// and also starts empty, so construction never fails because of the cache.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.OffsetSize == 0 {
		cfg.OffsetSize = DefaultOffsetSize
	}
	if cfg.OffsetSize < 0 {
		return nil, fmt.Errorf("offset_size must be > 0 (got %d)", cfg.OffsetSize)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	builder, err := request.NewBuilder(cfg.BaseURL, cfg.OffsetSize)
	if err != nil {
		return nil, err
	}

	// Initialize logger
	logger := logging.NewLogger("met-client")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	persister := cfg.Persister
	if persister == nil && cfg.CacheDir != "" {
		fs, err := cache.NewFileStore(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		persister = fs
	}

	store := cache.NewStore(logger.With().Str("component", "met-cache").Logger())
	if persister != nil {
		if err := store.Load(context.Background(), persister, cfg.Now()); err != nil {
			logger.Error().Err(err).Msg("Cache snapshot unavailable, starting with empty cache")
		}
	}

	return &Client{
		httpClient: httpClient,
		builder:    builder,
		cache:      store,
		persister:  persister,
		config:     cfg,
		logger:     logger,
	}, nil
}

// Call executes req and returns the part of the body selected by view.
//
//   - 200: the member is extracted, cached with the response ETag for one
//     day, and returned as KindResults/KindMetadata. A body without the
//     member is returned as KindUnrecognized and not cached.
//   - 304: the cached value is returned unchanged; the cache is not touched.
//   - anything else: the raw body is returned as KindUnrecognized, uncached.
//
// Transport failures are returned as *NetworkError.
func (c *Client) Call(ctx context.Context, req request.Request, view View) (*Response, error) {
	endpoint := req.URL.Path
	key := cacheKey(req, view)

	// Start request timing
	startTime := time.Now()
	defer func() {
		metRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check Cache
	cachedEntry, hit := c.cache.Lookup(key, c.config.Now())
	if hit && c.config.Revalidation == RevalidateNever {
		c.logger.Debug().Str("endpoint", endpoint).Msg("Serving fresh cache hit")
		metRequestsTotal.WithLabelValues(endpoint, "cache").Inc()
		return &Response{
			Kind:       view.kind(),
			StatusCode: http.StatusOK,
			Value:      cachedEntry.Result,
			FromCache:  true,
		}, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Step 2: Make Conditional Request if cache hit
	if hit && cache.ShouldMakeConditionalRequest(cachedEntry) {
		cache.AddConditionalHeaders(httpReq, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	// Step 3: Set headers
	httpReq.Header.Set("Authorization", "METToken "+c.config.APIKey)
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	httpReq.Header.Set("Accept", "application/json")

	// Step 4: Execute HTTP Request
	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("params", req.Params.Encode()).
		Msg("Executing MET request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		metErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		metRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, &NetworkError{Op: http.MethodGet, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	metRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	// Step 5: Handle 304 Not Modified
	if resp.StatusCode == http.StatusNotModified {
		cache.NotModifiedResponses.Inc()
		if cachedEntry == nil {
			// Only possible if the server answers 304 to an unconditional request.
			c.logger.Warn().Str("endpoint", endpoint).Msg("304 Not Modified without a cached entry")
			return &Response{Kind: KindUnrecognized, StatusCode: resp.StatusCode}, nil
		}
		c.logger.Info().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		return &Response{
			Kind:       view.kind(),
			StatusCode: resp.StatusCode,
			Value:      cachedEntry.Result,
			FromCache:  true,
		}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &NetworkError{Op: "read body", URL: req.URL.String(), Err: err}
	}

	// Step 6: Pass through anything but 200
	if resp.StatusCode != http.StatusOK {
		errClass := c.classifyError(resp)
		if errClass != "" {
			metErrorsTotal.WithLabelValues(string(errClass)).Inc()
		}
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("MET request returned non-200 status")
		return &Response{Kind: KindUnrecognized, StatusCode: resp.StatusCode, Value: body}, nil
	}

	// Step 7: Extract and cache
	value, ok := extract(body, view)
	if !ok {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Str("member", view.String()).
			Msg("Response body lacks expected member, not caching")
		return &Response{Kind: KindUnrecognized, StatusCode: resp.StatusCode, Value: body}, nil
	}

	if stored, ok := c.cache.Put(key, cache.ResponseETag(resp), value, c.config.Now(), cache.DefaultTTL); ok {
		value = stored
	}
	c.logger.Info().
		Str("endpoint", endpoint).
		Int("status_code", resp.StatusCode).
		Dur("duration", time.Since(startTime)).
		Msg("MET request succeeded")

	return &Response{
		Kind:       view.kind(),
		StatusCode: resp.StatusCode,
		Value:      value,
	}, nil
}

// cacheKey keys results and metadata views of the same request apart.
// "#" is always escaped inside CacheKey parameters, so the suffix cannot
// collide with a real parameter.
func cacheKey(req request.Request, view View) string {
	key := req.Key().String()
	if view == ViewMetadata {
		key += "#metadata"
	}
	return key
}

// classifyError categorizes a non-200 response for observability.
func (c *Client) classifyError(resp *http.Response) ErrorClass {
	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// Builder returns the request builder bound to this client's base URL.
func (c *Client) Builder() *request.Builder {
	return c.builder
}

// Cache returns the client's cache store.
func (c *Client) Cache() *cache.Store {
	return c.cache
}

// Persist writes the cache to the configured persister. It is a no-op for
// an in-memory client. Failures are returned as *cache.PersistenceError.
func (c *Client) Persist(ctx context.Context) error {
	if c.persister == nil {
		return nil
	}
	return c.cache.Persist(ctx, c.persister, c.config.Now())
}

// Close persists the cache. Only the first call does any work; later calls
// return the first result. A persister supplied through Config is not
// closed; its owner closes it after the client.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.Persist(context.Background())
	})
	return c.closeErr
}
