// Package runner wraps one guarded invocation of the external photo
// renderer: provision directories, take the single-instance lock, check
// preconditions, run the interpreter with output captured into the render
// log, release the lock on every exit path.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/inktime/inktime/internal/config"
	"github.com/inktime/inktime/internal/lockdir"
	"github.com/inktime/inktime/internal/logbook"
	"github.com/inktime/inktime/internal/runs"
)

type Runner struct {
	cfg  config.Config
	hist *runs.Store // optional run history, nil disables it
	log  *slog.Logger
}

type Result struct {
	// Skipped is the benign path: another instance held the lock, nothing ran.
	Skipped bool   `json:"skipped"`
	RunID   string `json:"run_id,omitempty"`
}

func New(cfg config.Config, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, log: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

type Option func(*Runner)

func WithHistory(s *runs.Store) Option { return func(r *Runner) { r.hist = s } }

func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.log = l } }

// Run performs one render cycle. A nil error with Skipped set means the lock
// was held; any returned error is fatal and maps to exit code 1 at the CLI.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	cfg := r.cfg

	// Nothing downstream is safe without the directories.
	for _, dir := range []string{cfg.LogDir(), cfg.TmpDir(), cfg.OutputDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{}, fmt.Errorf("provision %s: %w", dir, err)
		}
	}

	book, err := logbook.Open(cfg.RenderLog())
	if err != nil {
		return Result{}, fmt.Errorf("open render log: %w", err)
	}
	defer book.Close()

	lock, err := lockdir.Acquire(cfg.LockPath(), cfg.LockTTL())
	if errors.Is(err, lockdir.ErrHeld) {
		_ = book.Line("another render is running, skip.")
		r.recordSkip(ctx)
		return Result{Skipped: true}, nil
	}
	if err != nil {
		// A real filesystem problem, not a concurrent run.
		_ = book.Line("lock error: " + err.Error())
		return Result{}, fmt.Errorf("acquire lock: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			r.log.Error("lock release failed", "path", lock.Path(), "err", err)
		}
	}()

	if err := r.checkPreconditions(book); err != nil {
		return Result{}, err
	}

	runID := r.beginRun(ctx)

	_ = book.Line("render start")
	if err := r.execRenderer(ctx, book, runID); err != nil {
		msg := "render failed: " + err.Error()
		_ = book.Line(msg)
		r.finishRun(ctx, runID, err)
		return Result{RunID: runID}, fmt.Errorf("render: %w", err)
	}
	_ = book.Line("render done")
	r.finishRun(ctx, runID, nil)

	return Result{RunID: runID}, nil
}

func (r *Runner) checkPreconditions(book *logbook.Book) error {
	interp := r.cfg.Interpreter()
	st, err := os.Stat(interp)
	if err != nil || !st.Mode().IsRegular() || st.Mode().Perm()&0o111 == 0 {
		_ = book.Line("interpreter not found or not executable: " + interp)
		return fmt.Errorf("interpreter not found or not executable: %s", interp)
	}

	rcfg := r.cfg.RendererConfig()
	if _, err := os.Stat(rcfg); err != nil {
		_ = book.Line("renderer config not found: " + rcfg)
		return fmt.Errorf("renderer config not found: %s", rcfg)
	}
	return nil
}

func (r *Runner) execRenderer(ctx context.Context, book *logbook.Book, runID string) error {
	onLine := func(line string) {
		_ = book.Append(line)
		if r.hist != nil && runID != "" {
			_ = r.hist.AppendLog(ctx, runID, line)
		}
	}
	return runCommand(ctx, r.cfg.Paths.Root, onLine, r.cfg.Interpreter(), r.cfg.RenderScript())
}

// Run history is strictly best-effort: a render never fails because history
// could not be written.

func (r *Runner) recordSkip(ctx context.Context) {
	if r.hist == nil {
		return
	}
	if err := r.hist.RecordSkip(ctx); err != nil {
		r.log.Warn("record skip failed", "err", err)
	}
}

func (r *Runner) beginRun(ctx context.Context) string {
	if r.hist == nil {
		return ""
	}
	run, err := r.hist.Begin(ctx)
	if err != nil {
		r.log.Warn("record run failed", "err", err)
		return ""
	}
	return run.ID
}

func (r *Runner) finishRun(ctx context.Context, runID string, runErr error) {
	if r.hist == nil || runID == "" {
		return
	}
	// Outcome still gets recorded when the run was canceled by a signal.
	ctx = context.WithoutCancel(ctx)
	var err error
	if runErr != nil {
		err = r.hist.SetFailed(ctx, runID, runErr.Error())
	} else {
		err = r.hist.SetDone(ctx, runID)
	}
	if err != nil {
		r.log.Warn("finish run failed", "run", runID, "err", err)
	}
}
