package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

type Paths struct {
	Root      string `json:"root"`       // project root; every relative path below resolves against it
	LogsDir   string `json:"logs_dir"`   // render log directory
	TmpDir    string `json:"tmp_dir"`    // lock markers and scratch space
	ImageDir  string `json:"image_dir"`  // photo library served under /images
	OutputDir string `json:"output_dir"` // renderer output (device binaries, preview)
	DBPath    string `json:"db_path"`
}

type Render struct {
	Interpreter    string `json:"interpreter"` // python binary used to run the render script
	Script         string `json:"script"`
	ConfigFile     string `json:"config_file"` // renderer's own config artifact; existence-only check
	LockName       string `json:"lock_name"`
	LockTTLMinutes int    `json:"lock_ttl_minutes"` // stale-lock cutoff; 0 uses the default
}

type Server struct {
	Addr           string `json:"addr"`
	DownloadKey    string `json:"download_key"` // gates the device download endpoints
	EnableReview   bool   `json:"enable_review"`
	ReviewPageSize int    `json:"review_page_size"`
}

type Photos struct {
	DailyQuantity   int     `json:"daily_quantity"`
	MemoryThreshold float64 `json:"memory_threshold"`
}

type Config struct {
	Paths  Paths  `json:"paths"`
	Render Render `json:"render"`
	Server Server `json:"server"`
	Photos Photos `json:"photos"`
}

func Default() Config {
	return Config{
		Paths: Paths{
			Root:      ".",
			LogsDir:   "logs",
			TmpDir:    "tmp",
			ImageDir:  "images",
			OutputDir: "output",
			DBPath:    "photos.db",
		},
		Render: Render{
			Interpreter:    "venv/bin/python",
			Script:         "render_daily_photo.py",
			ConfigFile:     "config.py",
			LockName:       "render.lock",
			LockTTLMinutes: 360,
		},
		Server: Server{
			Addr:           ":8765",
			EnableReview:   true,
			ReviewPageSize: 100,
		},
		Photos: Photos{
			DailyQuantity:   5,
			MemoryThreshold: 70,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Paths.Root == "" {
		return errors.New("paths.root required")
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr required")
	}
	if c.Render.Interpreter == "" {
		return errors.New("render.interpreter required")
	}
	if c.Render.Script == "" {
		return errors.New("render.script required")
	}
	if c.Render.LockName == "" {
		return errors.New("render.lock_name required")
	}
	if c.Photos.DailyQuantity < 1 {
		return errors.New("photos.daily_quantity must be >= 1")
	}
	if c.Server.ReviewPageSize < 1 {
		return errors.New("server.review_page_size must be >= 1")
	}
	return nil
}

// Resolve joins a configured path to the project root unless it is absolute.
func (c Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Paths.Root, p)
}

func (c Config) LogDir() string    { return c.Resolve(c.Paths.LogsDir) }
func (c Config) TmpDir() string    { return c.Resolve(c.Paths.TmpDir) }
func (c Config) ImageDir() string  { return c.Resolve(c.Paths.ImageDir) }
func (c Config) OutputDir() string { return c.Resolve(c.Paths.OutputDir) }
func (c Config) DBPath() string    { return c.Resolve(c.Paths.DBPath) }

func (c Config) RenderLog() string { return filepath.Join(c.LogDir(), "render.log") }
func (c Config) LockPath() string  { return filepath.Join(c.TmpDir(), c.Render.LockName) }

func (c Config) Interpreter() string    { return c.Resolve(c.Render.Interpreter) }
func (c Config) RenderScript() string   { return c.Resolve(c.Render.Script) }
func (c Config) RendererConfig() string { return c.Resolve(c.Render.ConfigFile) }

func (c Config) LockTTL() time.Duration {
	if c.Render.LockTTLMinutes <= 0 {
		return 6 * time.Hour
	}
	return time.Duration(c.Render.LockTTLMinutes) * time.Minute
}
