// Package web exposes the kiosk state and controls over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"kiosk/internal/config"
	"kiosk/internal/kiosk"
	"kiosk/internal/logger"
	"kiosk/internal/models"
	"kiosk/internal/panels"
	"kiosk/internal/pipeline"
)

// HistoryReader returns persisted fetch attempts, newest first.
type HistoryReader interface {
	History(ctx context.Context, limit int) ([]models.FetchAttempt, error)
}

// Deps are the collaborators of the HTTP surface. A nil Diagnostics
// leaves the /debug routes unregistered.
type Deps struct {
	Service     *kiosk.Service
	Surface     *Surface
	Panels      *panels.Catalog
	Attempts    *pipeline.AttemptLog
	Diagnostics *kiosk.Diagnostics
	History     HistoryReader
	Logger      *logger.Logger
}

// Server serves the kiosk API.
type Server struct {
	deps    Deps
	limiter *rate.Limiter
	log     *logger.Logger
	display config.DisplayConfig
}

// NewServer creates the HTTP surface. Manual refreshes are limited to
// server.refresh_per_minute with server.refresh_burst.
func NewServer(deps Deps, srv config.ServerConfig, display config.DisplayConfig) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}

	if deps.Surface == nil {
		deps.Surface = NewSurface()
	}

	if deps.Panels == nil {
		deps.Panels = panels.Default()
	}

	limit := rate.Inf
	if srv.RefreshPerMinute > 0 {
		limit = rate.Limit(srv.RefreshPerMinute / 60)
	}

	burst := srv.RefreshBurst
	if burst < 1 {
		burst = 1
	}

	return &Server{
		deps:    deps,
		limiter: rate.NewLimiter(limit, burst),
		log:     deps.Logger.With("component", "web"),
		display: display,
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/slides", s.handleSlides)
		r.Get("/menu", s.handleMenu)
		r.Get("/panels/{section}", s.handlePanel)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/interaction", s.handleInteraction)
		r.Get("/clock", s.handleClock)
	})

	if s.deps.Diagnostics != nil {
		r.Route("/debug", s.debugRoutes)
	}

	return r
}

// slidesResponse is the display's view of the service.
type slidesResponse struct {
	UpdatedAt        time.Time      `json:"updatedAt"`
	Slides           []models.Slide `json:"slides"`
	Error            string         `json:"error,omitempty"`
	Surface          SurfaceState   `json:"surface"`
	SlideIntervalSec int            `json:"slideIntervalSec"`
	Loading          bool           `json:"loading"`
}

func (s *Server) slides() slidesResponse {
	state := s.deps.Service.State()

	return slidesResponse{
		UpdatedAt:        state.UpdatedAt,
		Slides:           state.Slides(),
		Error:            state.Error,
		Loading:          state.Loading,
		Surface:          s.deps.Surface.State(),
		SlideIntervalSec: s.display.SlideIntervalSec,
	}
}

func (s *Server) handleSlides(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.slides())
}

func (s *Server) handleMenu(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Panels.Menu())
}

// handlePanel answers unknown sections with the fallback panel, as the menu does.
func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	s.deps.Service.Interaction()

	panel, _ := s.deps.Panels.Get(chi.URLParam(r, "section"))
	writeJSON(w, http.StatusOK, panel)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "too many refresh requests, try again shortly")

		return
	}

	// The service owns the run; a client that goes away must not abort it.
	err := s.deps.Service.Refresh(context.WithoutCancel(r.Context()))

	switch {
	case errors.Is(err, kiosk.ErrRefreshInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.log.Warn("manual refresh failed", "error", err)
		writeJSON(w, http.StatusBadGateway, s.slides())
	default:
		writeJSON(w, http.StatusOK, s.slides())
	}
}

func (s *Server) handleInteraction(w http.ResponseWriter, _ *http.Request) {
	s.deps.Service.Interaction()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClock(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, kiosk.Face(s.deps.Service.Now()))
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
