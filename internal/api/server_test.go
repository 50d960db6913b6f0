package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/inktime/inktime/internal/api"
	"github.com/inktime/inktime/internal/config"
	"github.com/inktime/inktime/internal/db"
	"github.com/inktime/inktime/internal/photos"
	"github.com/inktime/inktime/internal/runner"
	"github.com/inktime/inktime/internal/runs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	cfg config.Config
	db  *db.DB
	srv *api.Server
}

func newEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.Paths.Root = root
	cfg.Server.DownloadKey = "sesame"
	cfg.Photos.DailyQuantity = 2
	if mutate != nil {
		mutate(&cfg)
	}

	require.NoError(t, os.MkdirAll(cfg.ImageDir(), 0o755))
	require.NoError(t, os.MkdirAll(cfg.OutputDir(), 0o755))

	d, err := db.Open(cfg.DBPath())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	srv := api.New(cfg, api.Options{
		Photos: photos.NewStore(d),
		Runs:   runs.NewStore(d),
		Runner: runner.New(cfg, runner.WithHistory(runs.NewStore(d))),
	})
	return &testEnv{cfg: cfg, db: d, srv: srv}
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (e *testEnv) seedPhoto(t *testing.T, path string, memory float64, exifJSON string) {
	t.Helper()
	_, err := e.db.SQL.Exec(`INSERT INTO photo_scores(path,memory_score,exif_json) VALUES(?,?,?)`,
		path, memory, exifJSON)
	require.NoError(t, err)
}

func TestLive(t *testing.T) {
	e := newEnv(t, nil)
	rec := e.get(t, "/live")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
}

func TestIndex(t *testing.T) {
	e := newEnv(t, nil)
	rec := e.get(t, "/")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/review", rec.Header().Get("Location"))

	off := newEnv(t, func(c *config.Config) { c.Server.EnableReview = false })
	rec = off.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Review disabled")
}

func TestReview(t *testing.T) {
	e := newEnv(t, nil)
	e.seedPhoto(t, filepath.Join(e.cfg.ImageDir(), "a.jpg"), 90, `{"datetime":"2018:03:18 10:00:00"}`)
	e.seedPhoto(t, filepath.Join(e.cfg.ImageDir(), "b.jpg"), 50, ``)
	// Outside the image dir: listed rows skip it.
	e.seedPhoto(t, "/elsewhere/c.jpg", 99, ``)

	rec := e.get(t, "/review")
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Page  int `json:"page"`
		Total int `json:"total"`
		Items []struct {
			Path     string `json:"path"`
			ImageURL string `json:"image_url"`
			Date     string `json:"date"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "/images/a.jpg", page.Items[0].ImageURL)
	assert.Equal(t, "2018-03-18", page.Items[0].Date)

	// An empty page is a 404, matching the "nothing to show" behavior.
	rec = e.get(t, "/review?page=99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewDisabledHidesRoutes(t *testing.T) {
	e := newEnv(t, func(c *config.Config) { c.Server.EnableReview = false })
	for _, path := range []string{"/review", "/images/a.jpg", "/files"} {
		rec := e.get(t, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestImages(t *testing.T) {
	e := newEnv(t, nil)
	pic := filepath.Join(e.cfg.ImageDir(), "sub", "pic.jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(pic), 0o755))
	require.NoError(t, os.WriteFile(pic, []byte("jpeg-bytes"), 0o644))

	rec := e.get(t, "/images/sub/pic.jpg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg-bytes", rec.Body.String())

	rec = e.get(t, "/images/sub/missing.jpg")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeviceDownloads(t *testing.T) {
	e := newEnv(t, nil)
	for _, name := range []string{"photo_0.bin", "latest.bin", "preview.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(e.cfg.OutputDir(), name), []byte("payload"), 0o644))
	}

	rec := e.get(t, "/static/inktime/sesame/photo_0.bin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))

	rec = e.get(t, "/static/inktime/sesame/latest.bin")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = e.get(t, "/static/inktime/sesame/preview.png")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Wrong key looks like a missing path, never a 403.
	rec = e.get(t, "/static/inktime/wrong/photo_0.bin")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Index outside the daily quantity.
	rec = e.get(t, "/static/inktime/sesame/photo_9.bin")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// No key configured: endpoints stay closed.
	closed := newEnv(t, func(c *config.Config) { c.Server.DownloadKey = "" })
	require.NoError(t, os.WriteFile(filepath.Join(closed.cfg.OutputDir(), "latest.bin"), []byte("x"), 0o644))
	rec = closed.get(t, "/static/inktime//latest.bin")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFilesBrowser(t *testing.T) {
	e := newEnv(t, nil)
	out := e.cfg.OutputDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "archive"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "latest.bin"), []byte("bin"), 0o644))

	rec := e.get(t, "/files")
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Entries []struct {
			Name  string `json:"name"`
			Path  string `json:"path"`
			IsDir bool   `json:"is_dir"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Entries, 2)
	assert.True(t, listing.Entries[0].IsDir)
	assert.Equal(t, "archive", listing.Entries[0].Name)
	assert.Equal(t, "/files/latest.bin", listing.Entries[1].Path)

	rec = e.get(t, "/files/latest.bin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bin", rec.Body.String())

	rec = e.get(t, "/files/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenderTriggerAndHistory(t *testing.T) {
	e := newEnv(t, nil)
	root := e.cfg.Paths.Root
	py := filepath.Join(root, "venv", "bin", "python")
	require.NoError(t, os.MkdirAll(filepath.Dir(py), 0o755))
	require.NoError(t, os.WriteFile(py, []byte("#!/bin/sh\necho \"frame rendered\"\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.py"), []byte("KEY='k'\n"), 0o644))

	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/render", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res runner.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Skipped)
	require.NotEmpty(t, res.RunID)

	rec = e.get(t, "/api/v1/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []runs.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, runs.StateDone, list[0].State)

	rec = e.get(t, "/api/v1/runs/"+res.RunID+"/log")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "frame rendered")

	rec = e.get(t, "/api/v1/runs/nope/log")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
