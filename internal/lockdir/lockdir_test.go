package lockdir_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/inktime/inktime/internal/lockdir"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.lock")

	l, err := lockdir.Acquire(path, time.Hour)
	require.NoError(t, err)
	require.DirExists(t, path)

	// Overlapping instance observes the held marker.
	_, err = lockdir.Acquire(path, time.Hour)
	require.ErrorIs(t, err, lockdir.ErrHeld)

	require.NoError(t, l.Release())
	require.NoDirExists(t, path)

	// Idempotent release.
	require.NoError(t, l.Release())

	// A fresh non-overlapping run acquires cleanly.
	l2, err := lockdir.Acquire(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, l2.Release())
}

func TestAcquireMissingParentEscalates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "render.lock")

	_, err := lockdir.Acquire(path, time.Hour)
	require.Error(t, err)
	require.NotErrorIs(t, err, lockdir.ErrHeld)
}

func TestStaleByAge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.lock")
	require.NoError(t, os.Mkdir(path, 0o755))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	l, err := lockdir.Acquire(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, l.Release())
}

func TestStaleByDeadOwner(t *testing.T) {
	// Run a short-lived child so we hold a pid that is guaranteed dead.
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())
	deadPid := cmd.Process.Pid

	path := filepath.Join(t.TempDir(), "render.lock")
	require.NoError(t, os.Mkdir(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "owner.pid"), []byte(strconv.Itoa(deadPid)), 0o644))

	l, err := lockdir.Acquire(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, l.Release())
}

func TestLiveOwnerHolds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.lock")
	require.NoError(t, os.Mkdir(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "owner.pid"), []byte(strconv.Itoa(os.Getpid())), 0o644))

	_, err := lockdir.Acquire(path, time.Hour)
	require.ErrorIs(t, err, lockdir.ErrHeld)
}
