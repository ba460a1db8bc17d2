package request

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cuaca/cuaca-go/pkg/cache"
)

// Dataset identifiers of the /data endpoint.
const (
	DatasetForecast = "FORECAST"
	DatasetWarning  = "WARNING"
)

// Request is a fully shaped MET GET request.
type Request struct {
	// URL is the endpoint URL without query string
	URL *url.URL

	// Params are the query parameters
	Params url.Values
}

// Key returns the cache key identifying this request.
func (r Request) Key() cache.CacheKey {
	return cache.CacheKey{
		Host:        r.URL.Host,
		Endpoint:    r.URL.Path,
		QueryParams: r.Params,
	}
}

// String returns the full request URL including the encoded query.
func (r Request) String() string {
	u := *r.URL
	u.RawQuery = r.Params.Encode()
	return u.String()
}

// Builder shapes requests against one API base URL.
type Builder struct {
	base       *url.URL
	offsetSize int
}

// NewBuilder parses baseURL and returns a Builder. offsetSize is the page
// size used to compute the offset parameter and must be positive.
func NewBuilder(baseURL string, offsetSize int) (*Builder, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if offsetSize <= 0 {
		return nil, fmt.Errorf("offset size must be > 0 (got %d)", offsetSize)
	}
	u.RawQuery = ""
	u.Fragment = ""
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &Builder{base: u, offsetSize: offsetSize}, nil
}

// OffsetSize returns the page size used for pagination.
func (b *Builder) OffsetSize() int {
	return b.offsetSize
}

func (b *Builder) endpoint(name string) *url.URL {
	return b.base.JoinPath(name)
}

// Forecast builds a FORECAST data request. Dates are passed through as-is
// (yyyy-mm-dd); the service validates them.
func (b *Builder) Forecast(locationID, startDate, endDate string, ft ForecastType) (Request, error) {
	if err := ft.Validate(); err != nil {
		return Request{}, err
	}
	return Request{
		URL: b.endpoint("data"),
		Params: url.Values{
			"datasetid":      {DatasetForecast},
			"datacategoryid": {string(ft)},
			"locationid":     {locationID},
			"start_date":     {startDate},
			"end_date":       {endDate},
		},
	}, nil
}

// Locations builds a request for one page of locations of type lt.
// Page 0 carries no offset; page n>0 carries offset=n*offsetSize.
func (b *Builder) Locations(lt LocationType, page int) (Request, error) {
	if err := lt.Validate(); err != nil {
		return Request{}, err
	}
	if page < 0 {
		return Request{}, fmt.Errorf("%w: page %d must be >= 0", ErrInvalidArgument, page)
	}

	params := url.Values{
		"locationcategoryid": {string(lt)},
	}
	if page > 0 {
		params.Set("offset", strconv.Itoa(page*b.offsetSize))
	}

	return Request{
		URL:    b.endpoint("locations"),
		Params: params,
	}, nil
}

// Warning builds a WARNING data request.
func (b *Builder) Warning(cat WarningCategory, startDate, endDate string) (Request, error) {
	if err := cat.Validate(); err != nil {
		return Request{}, err
	}
	return Request{
		URL: b.endpoint("data"),
		Params: url.Values{
			"datasetid":      {DatasetWarning},
			"datacategoryid": {string(cat)},
			"start_date":     {startDate},
			"end_date":       {endDate},
		},
	}, nil
}

// DataTypes builds a request listing the data types of the /data endpoint.
func (b *Builder) DataTypes() Request {
	return Request{URL: b.endpoint("datatypes"), Params: url.Values{}}
}

// Stations builds a request listing weather stations.
func (b *Builder) Stations() Request {
	return Request{URL: b.endpoint("stations"), Params: url.Values{}}
}
