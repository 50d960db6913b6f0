package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// keyOK checks the download key from the URL. A blank configured key keeps
// the endpoints closed. Wrong keys get 404, not 403: the path should look
// like it simply does not exist.
func (s *Server) keyOK(r *http.Request) bool {
	want := s.cfg.Server.DownloadKey
	if want == "" {
		return false
	}
	got := chi.URLParam(r, "key")
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func (s *Server) handleDevicePhoto(w http.ResponseWriter, r *http.Request) {
	if !s.keyOK(r) {
		http.NotFound(w, r)
		return
	}
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil || idx < 0 || idx >= s.cfg.Photos.DailyQuantity {
		http.NotFound(w, r)
		return
	}
	s.serveFile(w, r, filepath.Join(s.cfg.OutputDir(), fmt.Sprintf("photo_%d.bin", idx)))
}

func (s *Server) handleDeviceFile(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.keyOK(r) {
			http.NotFound(w, r)
			return
		}
		s.serveFile(w, r, filepath.Join(s.cfg.OutputDir(), name))
	}
}
