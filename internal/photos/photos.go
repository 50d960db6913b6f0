// Package photos is the read side of the scored photo library. The analysis
// pipeline writes photo_scores; this process only queries it for review
// listing and render metadata.
package photos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/inktime/inktime/internal/db"
)

var ErrNotFound = errors.New("photo not found")

type Photo struct {
	Path        string   `json:"path"`
	Caption     string   `json:"caption,omitempty"`
	Type        string   `json:"type,omitempty"`
	MemoryScore *float64 `json:"memory_score,omitempty"`
	BeautyScore *float64 `json:"beauty_score,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	ExifJSON    string   `json:"exif_json,omitempty"`
	Width       *int64   `json:"width,omitempty"`
	Height      *int64   `json:"height,omitempty"`
	Orientation string   `json:"orientation,omitempty"`
	UsedAt      string   `json:"used_at,omitempty"`
	SideCaption string   `json:"side_caption,omitempty"`
	GPSLat      *float64 `json:"gps_lat,omitempty"`
	GPSLon      *float64 `json:"gps_lon,omitempty"`
	City        string   `json:"city,omitempty"`
}

// Meta carries the fields the renderer needs for one photo. Photos without an
// EXIF date have no usable metadata.
type Meta struct {
	Path   string   `json:"path"`
	Date   string   `json:"date"`
	Side   string   `json:"side"`
	Memory *float64 `json:"memory,omitempty"`
	Lat    *float64 `json:"lat,omitempty"`
	Lon    *float64 `json:"lon,omitempty"`
	City   string   `json:"city"`
}

type Store struct {
	db *db.DB
}

func NewStore(d *db.DB) *Store { return &Store{db: d} }

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.SQL.QueryRowContext(ctx, `SELECT COUNT(1) FROM photo_scores`).Scan(&n)
	return n, err
}

const photoCols = `path, caption, type, memory_score, beauty_score, reason, exif_json,
	width, height, orientation, used_at, side_caption, exif_gps_lat, exif_gps_lon, exif_city`

// Page lists photos ranked by memory then beauty score, unscored last, path
// as the tiebreak. page is 1-based.
func (s *Store) Page(ctx context.Context, page, size int) ([]Photo, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 100
	}
	rows, err := s.db.SQL.QueryContext(ctx, `SELECT `+photoCols+` FROM photo_scores
		ORDER BY COALESCE(memory_score, -1) DESC, COALESCE(beauty_score, -1) DESC, path
		LIMIT ? OFFSET ?`, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Photo, 0)
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) ByPath(ctx context.Context, path string) (*Photo, error) {
	row := s.db.SQL.QueryRowContext(ctx, `SELECT `+photoCols+` FROM photo_scores WHERE path=? LIMIT 1`, path)
	p, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// MetaByPath resolves render metadata for a stored photo path. Returns
// ErrNotFound when the row is missing or carries no EXIF date.
func (s *Store) MetaByPath(ctx context.Context, path string) (*Meta, error) {
	p, err := s.ByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	date := DateFromExif(p.ExifJSON)
	if date == "" {
		return nil, ErrNotFound
	}
	return &Meta{
		Path:   p.Path,
		Date:   date,
		Side:   p.SideCaption,
		Memory: p.MemoryScore,
		Lat:    p.GPSLat,
		Lon:    p.GPSLon,
		City:   p.City,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row scanner) (*Photo, error) {
	var (
		p                                          Photo
		caption, typ, reason, exifJSON             sql.NullString
		orientation, usedAt, sideCaption, exifCity sql.NullString
		width, height                              sql.NullInt64
		memory, beauty, lat, lon                   sql.NullFloat64
	)
	err := row.Scan(&p.Path, &caption, &typ, &memory, &beauty, &reason, &exifJSON,
		&width, &height, &orientation, &usedAt, &sideCaption, &lat, &lon, &exifCity)
	if err != nil {
		return nil, err
	}
	p.Caption = caption.String
	p.Type = typ.String
	p.Reason = reason.String
	p.ExifJSON = exifJSON.String
	p.Orientation = orientation.String
	p.UsedAt = usedAt.String
	p.SideCaption = sideCaption.String
	p.City = exifCity.String
	if memory.Valid {
		p.MemoryScore = &memory.Float64
	}
	if beauty.Valid {
		p.BeautyScore = &beauty.Float64
	}
	if width.Valid {
		p.Width = &width.Int64
	}
	if height.Valid {
		p.Height = &height.Int64
	}
	if lat.Valid {
		p.GPSLat = &lat.Float64
	}
	if lon.Valid {
		p.GPSLon = &lon.Float64
	}
	return &p, nil
}
