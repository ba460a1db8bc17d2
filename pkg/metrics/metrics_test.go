package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cuaca/cuaca-go/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
)

func TestGatherer(t *testing.T) {
	if Gatherer != prometheus.DefaultGatherer {
		t.Error("Gatherer should be the default Prometheus gatherer")
	}
}

func TestHandler(t *testing.T) {
	cache.CacheHits.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{"met_cache_hits_total", "met_cache_entries", "met_conditional_requests_total"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("Expected exposition to contain %s", name)
		}
	}
}
