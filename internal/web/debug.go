package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kiosk/internal/kiosk"
	"kiosk/internal/models"
	"kiosk/internal/pipeline"
)

func (s *Server) debugRoutes(r chi.Router) {
	d := s.deps.Diagnostics

	r.Get("/connection", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.TestConnection(r.Context()))
	})

	r.Post("/refresh", func(w http.ResponseWriter, r *http.Request) {
		if err := d.RefreshData(r.Context()); err != nil {
			writeError(w, http.StatusBadGateway, err.Error())

			return
		}

		writeJSON(w, http.StatusOK, d.CurrentSlides())
	})

	r.Get("/slides", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, d.CurrentSlides())
	})

	r.Get("/format", func(w http.ResponseWriter, r *http.Request) {
		live, _ := strconv.ParseBool(r.URL.Query().Get("live"))
		writeJSON(w, http.StatusOK, d.CheckSpreadsheetFormat(r.Context(), live))
	})

	r.Get("/image", func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("url")
		if raw == "" {
			writeError(w, http.StatusBadRequest, "url query parameter is required")

			return
		}

		writeJSON(w, http.StatusOK, d.TestImageURL(r.Context(), raw))
	})

	r.Get("/images", func(w http.ResponseWriter, r *http.Request) {
		tests, err := d.TestAllImages(r.Context())
		if errors.Is(err, kiosk.ErrNoSlides) {
			writeError(w, http.StatusNotFound, err.Error())

			return
		}

		writeJSON(w, http.StatusOK, tests)
	})

	r.Get("/url-types", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, d.TestURLTypes())
	})

	r.Get("/attempts", s.handleAttempts)
}

type attemptsResponse struct {
	Stats   *pipeline.AttemptStats `json:"stats,omitempty"`
	Recent  []models.FetchAttempt  `json:"recent"`
	History []models.FetchAttempt  `json:"history,omitempty"`
}

func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	resp := attemptsResponse{Recent: []models.FetchAttempt{}}

	if s.deps.Attempts != nil {
		stats := s.deps.Attempts.GetAttemptStats()
		resp.Stats = &stats
		resp.Recent = s.deps.Attempts.Attempts()
	}

	if s.deps.History != nil {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		history, err := s.deps.History.History(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())

			return
		}

		resp.History = history
	}

	writeJSON(w, http.StatusOK, resp)
}
