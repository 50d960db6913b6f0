package api

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/inktime/inktime/internal/photos"
)

type reviewItem struct {
	photos.Photo
	ImageURL    string `json:"image_url"`
	Date        string `json:"date,omitempty"`
	ExifSummary string `json:"exif_summary,omitempty"`
}

type reviewPage struct {
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	Total      int          `json:"total"`
	TotalPages int          `json:"total_pages"`
	Items      []reviewItem `json:"items"`
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	if s.photos == nil {
		s.writeError(w, http.StatusServiceUnavailable, "photo db not configured")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	size := s.cfg.Server.ReviewPageSize

	total, err := s.photos.Count(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rows, err := s.photos.Page(r.Context(), page, size)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]reviewItem, 0, len(rows))
	for _, p := range rows {
		url := s.imageURL(p.Path)
		if url == "" {
			// Outside the image dir; nothing the browser could fetch.
			continue
		}
		items = append(items, reviewItem{
			Photo:       p,
			ImageURL:    url,
			Date:        photos.DateFromExif(p.ExifJSON),
			ExifSummary: photos.SummarizeExif(p.ExifJSON),
		})
	}

	if len(items) == 0 {
		s.writeError(w, http.StatusNotFound, "no photos to review; run the scoring pipeline first")
		return
	}

	s.writeJSON(w, http.StatusOK, reviewPage{
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: (total + size - 1) / size,
		Items:      items,
	})
}

// imageURL maps a stored photo path to its /images URL, or "" when the photo
// lives outside the image dir.
func (s *Server) imageURL(path string) string {
	rel, err := filepath.Rel(s.cfg.ImageDir(), path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return "/images/" + filepath.ToSlash(rel)
}
