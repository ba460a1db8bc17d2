package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cuaca/cuaca-go/pkg/client"
	"github.com/cuaca/cuaca-go/pkg/metrics"
	"github.com/cuaca/cuaca-go/pkg/request"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

const upstreamTimeout = 30 * time.Second

type server struct {
	met *client.Client
}

// newRouter wires the proxy routes onto a chi router.
func newRouter(met *client.Client, logger zerolog.Logger) http.Handler {
	s := &server{met: met}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status_code", status).
			Int("size", size).
			Dur("duration", duration).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("Request handled")
	}))
	r.Use(chimw.Recoverer)

	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/locations/{type}", s.handleLocations)
	r.Get("/locations/{type}/{name}", s.handleLocation)
	r.Get("/forecast/{locationID}", s.handleForecast)
	r.Get("/warnings/{category}", s.handleWarnings)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *server) handleLocations(w http.ResponseWriter, r *http.Request) {
	lt := request.LocationType(strings.ToUpper(chi.URLParam(r, "type")))

	page := 0
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "page must be an integer")
			return
		}
		page = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	locations, err := s.met.Locations(ctx, lt, page)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

func (s *server) handleLocation(w http.ResponseWriter, r *http.Request) {
	lt := request.LocationType(strings.ToUpper(chi.URLParam(r, "type")))
	name := chi.URLParam(r, "name")

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	id, found, err := s.met.Location(ctx, name, lt)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "name": name, "type": string(lt)})
}

func (s *server) handleForecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	if start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "start and end are required (yyyy-mm-dd)")
		return
	}
	ft := request.ForecastGeneral
	if t := q.Get("type"); t != "" {
		ft = request.ForecastType(strings.ToUpper(t))
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	observations, err := s.met.Forecast(ctx, chi.URLParam(r, "locationID"), start, end, ft)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, observations)
}

func (s *server) handleWarnings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	if start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "start and end are required (yyyy-mm-dd)")
		return
	}
	cat := request.WarningCategory(strings.ToUpper(chi.URLParam(r, "category")))

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	warnings, err := s.met.Warning(ctx, cat, start, end)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, warnings)
}

// writeUpstreamError maps client errors onto proxy status codes.
func (s *server) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		netErr     *client.NetworkError
		unexpected *client.UnexpectedResponseError
	)

	switch {
	case errors.Is(err, client.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unexpected):
		hlog.FromRequest(r).Warn().Int("status_code", unexpected.StatusCode).Msg("MET returned unexpected response")
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":           "unexpected MET response",
			"upstream_status": unexpected.StatusCode,
		})
	case errors.As(err, &netErr):
		hlog.FromRequest(r).Error().Err(err).Msg("MET unreachable")
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeError(w, status, "MET service unreachable")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
