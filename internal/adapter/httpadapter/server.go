package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/storm-data-geocoder/internal/domain"
	"github.com/couchcryptid/storm-data-geocoder/internal/geocoder"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBatchBody = 1 << 20

// Geocoder is the subset of *geocoder.Geocoder served over HTTP.
type Geocoder interface {
	Point(ctx context.Context, address string) (*domain.Coordinate, error)
	Points(ctx context.Context, address string) ([]domain.Coordinate, error)
	PointsByAddresses(ctx context.Context, addresses []string, progress geocoder.Progress) (map[string][]domain.Coordinate, error)
	RequestCount() int64
	Store() domain.CacheStore
}

// Server exposes the geocoding API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	geocoder   Geocoder
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and /v1 routes.
func NewServer(addr string, g Geocoder, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		geocoder: g,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/point", s.handlePoint)
	mux.HandleFunc("GET /v1/points", s.handlePoints)
	mux.HandleFunc("POST /v1/points", s.handleBatch)
	mux.HandleFunc("GET /v1/stats", s.handleStats)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type pointResponse struct {
	Address string             `json:"address"`
	Point   *domain.Coordinate `json:"point"`
}

type pointsResponse struct {
	Address string              `json:"address"`
	Points  []domain.Coordinate `json:"points"`
}

type batchRequest struct {
	Addresses []string `json:"addresses"`
}

type batchResponse struct {
	Results map[string][]domain.Coordinate `json:"results"`
}

type statsResponse struct {
	RequestCount int64 `json:"request_count"`
	CacheEntries int   `json:"cache_entries"`
}

func (s *Server) handlePoint(w http.ResponseWriter, r *http.Request) {
	address, ok := requireAddress(w, r)
	if !ok {
		return
	}
	p, err := s.geocoder.Point(r.Context(), address)
	if err != nil {
		s.writeResolveError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, pointResponse{Address: address, Point: p})
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	address, ok := requireAddress(w, r)
	if !ok {
		return
	}
	points, err := s.geocoder.Points(r.Context(), address)
	if err != nil {
		s.writeResolveError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, pointsResponse{Address: address, Points: points})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Addresses) == 0 {
		writeError(w, http.StatusBadRequest, "addresses must not be empty")
		return
	}
	results, err := s.geocoder.PointsByAddresses(r.Context(), req.Addresses, nil)
	if err != nil {
		s.writeResolveError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, batchResponse{Results: results})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, statsResponse{
		RequestCount: s.geocoder.RequestCount(),
		CacheEntries: s.geocoder.Store().Len(),
	})
}

func (s *Server) writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, domain.ErrParse):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("geocode failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func requireAddress(w http.ResponseWriter, r *http.Request) (string, bool) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "address query parameter is required")
		return "", false
	}
	return address, true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
