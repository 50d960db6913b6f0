package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var errPathEscape = errors.New("path escapes base directory")

// safeJoin resolves a request subpath inside base and refuses anything that
// climbs out of it. Subpaths are NFC-normalized so differently composed
// unicode spellings resolve to the same file.
func safeJoin(base, rel string) (string, error) {
	rel = norm.NFC.String(rel)
	if strings.ContainsRune(rel, 0) {
		return "", errPathEscape
	}
	rel = strings.TrimPrefix(rel, "/")

	full := filepath.Clean(filepath.Join(base, filepath.FromSlash(rel)))
	baseClean := filepath.Clean(base)
	if full != baseClean && !strings.HasPrefix(full, baseClean+string(os.PathSeparator)) {
		return "", errPathEscape
	}
	return full, nil
}

// serveFile sends a regular file, with .bin forced to octet-stream for the
// device firmware's sake.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, path string) {
	st, err := os.Stat(path)
	if err != nil || !st.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}
	if strings.EqualFold(filepath.Ext(path), ".bin") {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	http.ServeFile(w, r, path)
}
