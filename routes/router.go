package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"vodforge/job"
	"vodforge/logger"
	"vodforge/metrics"
	"vodforge/models"
	"vodforge/status"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Converter runs a conversion job to completion.
type Converter interface {
	Run(ctx context.Context, rawID string, src job.Source) (*models.ConversionJob, error)
}

// Handlers carries the dependencies of the HTTP surface.
type Handlers struct {
	Jobs   Converter
	Status *status.Register
	// Source returns where the object's original comes from.
	Source func() job.Source
	// ServeDir, when set, is exposed under /files/ for the directServe backend.
	ServeDir string
}

// NewRouter wires every route.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestMetrics)

	r.HandleFunc("/objects", h.ObjectsHandler).Methods(http.MethodGet)
	r.HandleFunc("/status", h.StatusHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/version", VersionHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	if h.ServeDir != "" {
		r.PathPrefix("/files/").Handler(http.StripPrefix("/files/", http.FileServer(http.Dir(h.ServeDir)))).Methods(http.MethodGet, http.MethodHead)
	}
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// requestMetrics records count and latency per route template, so ids in
// query strings or file paths never become label values.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)

		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		path := "unmatched"
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.code)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		logger.Debugf("%s %s -> %d in %s (request %s)", r.Method, r.URL.Path, rec.code, time.Since(start).Round(time.Millisecond), reqID)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}
