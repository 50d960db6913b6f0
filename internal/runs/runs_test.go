package runs_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/inktime/inktime/internal/db"
	"github.com/inktime/inktime/internal/runs"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) (*db.DB, *runs.Store) {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "photos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d, runs.NewStore(d)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	_, s := openStore(t)

	r, err := s.Begin(ctx)
	require.NoError(t, err)
	require.Equal(t, runs.StateRunning, r.State)
	require.NotEmpty(t, r.ID)

	require.NoError(t, s.AppendLog(ctx, r.ID, "render start"))
	require.NoError(t, s.AppendLog(ctx, r.ID, "frame rendered"))
	require.NoError(t, s.SetDone(ctx, r.ID))

	got, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, runs.StateDone, got.State)
	require.NotNil(t, got.FinishedAt)
	require.Nil(t, got.Error)

	lines, err := s.Logs(ctx, r.ID, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"render start", "frame rendered"}, lines)
}

func TestFailedAndSkipped(t *testing.T) {
	ctx := context.Background()
	_, s := openStore(t)

	r, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SetFailed(ctx, r.ID, "renderer exited 2"))

	require.NoError(t, s.RecordSkip(ctx))

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)

	var states []runs.State
	for _, it := range list {
		states = append(states, it.State)
	}
	require.Contains(t, states, runs.StateFailed)
	require.Contains(t, states, runs.StateSkipped)
}

func TestGetNotFound(t *testing.T) {
	_, s := openStore(t)
	_, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, runs.ErrNotFound)
}

func TestReopenNormalizesRunning(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "photos.db")

	d, err := db.Open(path)
	require.NoError(t, err)
	s := runs.NewStore(d)
	r, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	// Simulates a process death mid-render: reopening marks the run failed.
	d2, err := db.Open(path)
	require.NoError(t, err)
	defer d2.Close()

	got, err := runs.NewStore(d2).Get(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, runs.StateFailed, got.State)
	require.NotNil(t, got.Error)
	require.Equal(t, "interrupted", *got.Error)
}
