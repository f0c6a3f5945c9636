package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dailybrief/internal/domain"
	"dailybrief/internal/usecase"
)

const userIDHeader = "X-User-ID"

// Server exposes the cached read path: today's bundle, today's companion
// script, and feedback intake. It never triggers scoring work itself.
type Server struct {
	feed   *usecase.Feed
	logger *slog.Logger
	now    func() time.Time
}

// NewServer builds the HTTP surface over the feed service.
func NewServer(feed *usecase.Feed, logger *slog.Logger) *Server {
	return &Server{feed: feed, logger: logger, now: time.Now}
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/news/today", s.handleNewsToday)
		r.Get("/podcast/script/today", s.handleScriptToday)
		r.Post("/feedback", s.handleFeedback)
	})
	return r
}

func (s *Server) handleNewsToday(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	bundle, err := s.feed.CachedBundle(r.Context(), userID, s.now())
	switch {
	case errors.Is(err, domain.ErrBundleNotReady):
		s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "preparing"})
	case err != nil:
		s.serverError(w, r, err)
	default:
		s.writeJSON(w, http.StatusOK, bundle)
	}
}

func (s *Server) handleScriptToday(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	script, err := s.feed.CachedScript(r.Context(), userID, s.now())
	switch {
	case errors.Is(err, domain.ErrBundleNotReady):
		s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "preparing"})
	case errors.Is(err, domain.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no companion script available"})
	case err != nil:
		s.serverError(w, r, err)
	default:
		s.writeJSON(w, http.StatusOK, map[string]string{"script": script})
	}
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		ArticleID int64  `json:"article_id"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	err := s.feed.SubmitFeedback(r.Context(), userID, req.ArticleID, req.Rating, req.Comment, s.now())
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown user"})
	case err != nil:
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": userIDHeader + " header is required"})
		return "", false
	}
	return userID, true
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	if s.logger != nil {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && s.logger != nil {
		s.logger.Error("encode response", "error", err)
	}
}
