package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	SQL *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	s, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Concurrent readers are fine under WAL; writes serialize.
	s.SetMaxOpenConns(4)
	s.SetMaxIdleConns(4)

	d := &DB{SQL: s}
	if err := d.migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) Close() error { return d.SQL.Close() }

func (d *DB) migrate() error {
	stmts := []string{
		// Scored photo library. The analysis pipeline owns the writes; this
		// process only reads, but the schema lives here so a fresh install
		// boots against an empty database.
		`CREATE TABLE IF NOT EXISTS photo_scores (
			path TEXT PRIMARY KEY,
			caption TEXT,
			type TEXT,
			memory_score REAL,
			beauty_score REAL,
			reason TEXT,
			exif_json TEXT,
			width INTEGER,
			height INTEGER,
			orientation TEXT,
			used_at TEXT,
			side_caption TEXT,
			exif_gps_lat REAL,
			exif_gps_lon REAL,
			exif_city TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_photo_scores_memory ON photo_scores(memory_score);`,

		// Render run history.
		`CREATE TABLE IF NOT EXISTS render_runs (
			id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER,
			error TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_render_runs_started ON render_runs(started_at);`,
		`CREATE TABLE IF NOT EXISTS render_run_logs (
			run_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			line TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_render_run_logs_run_ts ON render_run_logs(run_id, ts);`,
	}
	for _, s := range stmts {
		if _, err := d.SQL.Exec(s); err != nil {
			es := err.Error()
			if strings.Contains(es, "duplicate") || strings.Contains(es, "already exists") {
				continue
			}
			return err
		}
	}

	// Recovery: a run left in "running" means the process died mid-render.
	// The lock marker covers liveness; history should not claim otherwise.
	_, _ = d.SQL.Exec(`UPDATE render_runs SET state='failed', finished_at=?, error='interrupted' WHERE state='running'`, nowUnix())
	return nil
}

func nowUnix() int64 { return time.Now().Unix() }
