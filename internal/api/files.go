package api

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	sub := chi.URLParam(r, "*")
	full, err := safeJoin(s.cfg.ImageDir(), sub)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.serveFile(w, r, full)
}

type fileEntry struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	IsDir   bool   `json:"is_dir"`
	Size    int64  `json:"size"`
	ModTime string `json:"mod_time"`
}

// handleFiles browses the renderer output dir: JSON listing for directories,
// file contents for files.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	sub := chi.URLParam(r, "*")
	root := s.cfg.OutputDir()
	full, err := safeJoin(root, sub)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid path")
		return
	}

	st, err := os.Stat(full)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if !st.IsDir() {
		s.serveFile(w, r, full)
		return
	}

	dirents, err := os.ReadDir(full)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	entries := make([]fileEntry, 0, len(dirents))
	for _, de := range dirents {
		info, err := de.Info()
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(root, filepath.Join(full, de.Name()))
		if err != nil {
			continue
		}
		entries = append(entries, fileEntry{
			Name:    de.Name(),
			Path:    "/files/" + filepath.ToSlash(rel),
			IsDir:   de.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime().Format(time.RFC3339),
		})
	}
	// Directories first, then case-insensitive by name.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	s.writeJSON(w, http.StatusOK, map[string]any{
		"path":    "/" + filepath.ToSlash(strings.TrimPrefix(sub, "/")),
		"entries": entries,
	})
}
