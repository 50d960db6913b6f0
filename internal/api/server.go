// Package api is the HTTP surface of the photo frame: review listing over the
// scored library, image serving, the device download endpoints and render run
// control.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inktime/inktime/internal/config"
	"github.com/inktime/inktime/internal/photos"
	"github.com/inktime/inktime/internal/runner"
	"github.com/inktime/inktime/internal/runs"
	"github.com/inktime/inktime/internal/version"
)

type Server struct {
	cfg    config.Config
	photos *photos.Store
	runs   *runs.Store
	runner *runner.Runner
	log    *slog.Logger
	mux    chi.Router
}

type Options struct {
	Photos *photos.Store
	Runs   *runs.Store
	Runner *runner.Runner
	Log    *slog.Logger
}

func New(cfg config.Config, opts Options) *Server {
	s := &Server{
		cfg:    cfg,
		photos: opts.Photos,
		runs:   opts.Runs,
		runner: opts.Runner,
		log:    opts.Log,
		mux:    chi.NewRouter(),
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	s.mux.Get("/live", s.handleLive)
	s.mux.Get("/", s.handleIndex)

	// Review WebUI data; everything here 404s when review is disabled.
	s.mux.Group(func(r chi.Router) {
		r.Use(s.requireReview)
		r.Get("/review", s.handleReview)
		r.Get("/images/*", s.handleImage)
		r.Get("/files", s.handleFiles)
		r.Get("/files/*", s.handleFiles)
	})

	// Device download endpoints, gated by the download key.
	s.mux.Get("/static/inktime/{key}/photo_{idx}.bin", s.handleDevicePhoto)
	s.mux.Get("/static/inktime/{key}/latest.bin", s.handleDeviceFile("latest.bin"))
	s.mux.Get("/static/inktime/{key}/preview.png", s.handleDeviceFile("preview.png"))

	// Render run control and history.
	s.mux.Get("/api/v1/runs", s.handleRunsList)
	s.mux.Get("/api/v1/runs/{id}/log", s.handleRunLog)
	s.mux.Post("/api/v1/render", s.handleRender)

	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"time":    time.Now().Format(time.RFC3339),
		"version": version.Version,
		"commit":  version.Commit,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Server.EnableReview {
		http.Redirect(w, r, "/review", http.StatusFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("InkTime server running. Review disabled.\n"))
}

// requireReview hides the review surface entirely when disabled; 404 rather
// than 403 so the routes do not advertise themselves.
func (s *Server) requireReview(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.Server.EnableReview {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
