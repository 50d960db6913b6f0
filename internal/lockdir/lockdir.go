// Package lockdir implements mutual exclusion between process instances with
// a filesystem directory as the lock marker. Creation is atomic (mkdir fails
// if the marker exists), so there is no check-then-create race.
package lockdir

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// ErrHeld means another instance currently owns the marker. Callers treat it
// as a benign skip, not a failure.
var ErrHeld = errors.New("lock held by another instance")

const pidFile = "owner.pid"

type Lock struct {
	path    string
	release sync.Once
	err     error
}

// Acquire tries to create the lock marker at path. A marker left behind by a
// previous holder is broken and re-acquired when it is older than ttl or its
// recorded owner pid is no longer alive. Any mkdir failure other than
// "already exists" is returned as-is; it is a real filesystem error, not a
// concurrent run.
func Acquire(path string, ttl time.Duration) (*Lock, error) {
	if path == "" {
		return nil, errors.New("lock path required")
	}
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}

	err := os.Mkdir(path, 0o755)
	if err == nil {
		return newLock(path), nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return nil, err
	}

	if !stale(path, ttl) {
		return nil, ErrHeld
	}
	// Stale marker: break it and retry once. Losing the retry means another
	// instance won the race in the meantime.
	_ = os.RemoveAll(path)
	if err := os.Mkdir(path, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, ErrHeld
		}
		return nil, err
	}
	return newLock(path), nil
}

func newLock(path string) *Lock {
	l := &Lock{path: path}
	// Best-effort owner identity for staleness probes by later instances.
	_ = os.WriteFile(filepath.Join(path, pidFile), []byte(strconv.Itoa(os.Getpid())), 0o644)
	return l
}

// Release removes the marker. Safe to call more than once; only the first
// call does the removal.
func (l *Lock) Release() error {
	l.release.Do(func() {
		l.err = os.RemoveAll(l.path)
	})
	return l.err
}

func (l *Lock) Path() string { return l.path }

func stale(path string, ttl time.Duration) bool {
	st, err := os.Stat(path)
	if err != nil {
		// Holder released between our mkdir and stat; let the retry decide.
		return true
	}
	if time.Since(st.ModTime()) > ttl {
		return true
	}
	b, err := os.ReadFile(filepath.Join(path, pidFile))
	if err != nil {
		// No readable owner record; only the TTL applies.
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || pid <= 0 {
		return false
	}
	return !alive(pid)
}

// alive reports whether pid still exists, using a signal-0 probe. EPERM means
// the process exists but belongs to someone else.
func alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
