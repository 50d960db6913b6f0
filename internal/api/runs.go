package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/inktime/inktime/internal/runs"
)

func (s *Server) handleRunsList(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, http.StatusServiceUnavailable, "run history not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := s.runs.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleRunLog(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, http.StatusServiceUnavailable, "run history not configured")
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := s.runs.Get(r.Context(), id); err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	lines, err := s.runs.Logs(r.Context(), id, 0)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "lines": lines})
}

// handleRender triggers a render through the same single-instance runner the
// cron entry uses, so a manual trigger can never overlap a scheduled one.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.writeError(w, http.StatusServiceUnavailable, "runner not configured")
		return
	}
	res, err := s.runner.Run(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}
