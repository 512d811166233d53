// Package api provides the HTTP server for the ProductLobby signal service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/productlobby/signal/internal/app/intake"
	"github.com/productlobby/signal/internal/app/signal"
	"github.com/productlobby/signal/internal/domain"
	"github.com/productlobby/signal/internal/infra/observability"
)

// CampaignReader lists campaigns for the trending endpoint.
type CampaignReader interface {
	TopCampaigns(ctx context.Context, status domain.CampaignStatus, limit int) ([]domain.Campaign, error)
}

// Server is the HTTP API server.
type Server struct {
	scores         *signal.Service
	campaigns      CampaignReader
	intake         *intake.Service // nil disables the write endpoints
	limiter        *RateLimiter    // nil disables rate limiting
	logger         *slog.Logger
	metricsEnabled bool
	requestTimeout time.Duration
}

// NewServer creates a new API server.
func NewServer(scores *signal.Service, campaigns CampaignReader) *Server {
	return &Server{
		scores:         scores,
		campaigns:      campaigns,
		logger:         slog.Default().With("module", "api"),
		requestTimeout: 30 * time.Second,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetIntake mounts the lobby and pledge endpoints.
func (s *Server) SetIntake(svc *intake.Service) { s.intake = svc }

// SetRateLimiter applies per-client rate limiting to /api routes.
func (s *Server) SetRateLimiter(l *RateLimiter) { s.limiter = l }

// SetLogger replaces the server logger.
func (s *Server) SetLogger(l *slog.Logger) { s.logger = l.With("module", "api") }

// SetRequestTimeout bounds every request.
func (s *Server) SetRequestTimeout(d time.Duration) {
	if d > 0 {
		s.requestTimeout = d
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(corsMiddleware)
	r.Use(metricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Route("/api/campaigns", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Get("/trending", s.handleTrending)
		r.Get("/{id}/signal-score", s.handleSignalScore)

		if s.intake != nil {
			r.Post("/{id}/lobbies", s.handleCreateLobby)
			r.Post("/{id}/pledges", s.handleCreatePledge)
		}
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Responses ──────────────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errorType(status),
		},
	})
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "error"
	}
}

// writeDomainError maps domain errors onto HTTP status codes. Anything not
// recognized is an upstream failure: logged, and reported without detail.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrCampaignNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidIntensity),
		errors.Is(err, domain.ErrInvalidPledgeType),
		errors.Is(err, domain.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrPhoneVerificationRequired):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrDuplicateLobby),
		errors.Is(err, domain.ErrDuplicatePledge),
		errors.Is(err, domain.ErrCampaignNotLive):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "request failed",
			"operation", op,
			"request_id", middleware.GetReqID(r.Context()),
			"outcome", "error",
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// ─── Middleware ─────────────────────────────────────────────────────────────

// corsMiddleware adds CORS headers for browser clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records request counts and latency by route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := ""
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.ObserveHTTP(route, status, time.Since(start))
	})
}
