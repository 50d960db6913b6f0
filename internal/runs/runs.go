package runs

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/inktime/inktime/internal/db"
)

type State string

const (
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
	StateSkipped State = "skipped"
)

var ErrNotFound = errors.New("run not found")

type Run struct {
	ID         string     `json:"id"`
	State      State      `json:"state"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      *string    `json:"error,omitempty"`
}

// Store keeps render run history. Every write is best-effort from the
// runner's point of view: a render must not fail because history could not
// be persisted.
type Store struct {
	db *db.DB
}

func NewStore(d *db.DB) *Store { return &Store{db: d} }

// Begin records a new running render attempt and returns it.
func (s *Store) Begin(ctx context.Context) (*Run, error) {
	id := uuid.NewString()
	now := time.Now()
	_, err := s.db.SQL.ExecContext(ctx, `INSERT INTO render_runs(id,state,started_at) VALUES(?,?,?)`,
		id, string(StateRunning), now.Unix())
	if err != nil {
		return nil, err
	}
	return &Run{ID: id, State: StateRunning, StartedAt: now}, nil
}

// RecordSkip notes an invocation that found the lock held and exited.
func (s *Store) RecordSkip(ctx context.Context) error {
	now := time.Now().Unix()
	_, err := s.db.SQL.ExecContext(ctx, `INSERT INTO render_runs(id,state,started_at,finished_at) VALUES(?,?,?,?)`,
		uuid.NewString(), string(StateSkipped), now, now)
	return err
}

func (s *Store) SetDone(ctx context.Context, id string) error {
	_, err := s.db.SQL.ExecContext(ctx, `UPDATE render_runs SET state=?, finished_at=?, error=NULL WHERE id=?`,
		string(StateDone), time.Now().Unix(), id)
	return err
}

func (s *Store) SetFailed(ctx context.Context, id, errMsg string) error {
	_, err := s.db.SQL.ExecContext(ctx, `UPDATE render_runs SET state=?, finished_at=?, error=? WHERE id=?`,
		string(StateFailed), time.Now().Unix(), errMsg, id)
	return err
}

func (s *Store) AppendLog(ctx context.Context, id, line string) error {
	_, err := s.db.SQL.ExecContext(ctx, `INSERT INTO render_run_logs(run_id,ts,line) VALUES(?,?,?)`,
		id, time.Now().UnixNano(), line)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.SQL.QueryRowContext(ctx, `SELECT id,state,started_at,finished_at,error FROM render_runs WHERE id=?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.SQL.QueryContext(ctx, `SELECT id,state,started_at,finished_at,error FROM render_runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) Logs(ctx context.Context, id string, limit int) ([]string, error) {
	if limit <= 0 || limit > 5000 {
		limit = 500
	}
	rows, err := s.db.SQL.QueryContext(ctx, `SELECT line FROM render_run_logs WHERE run_id=? ORDER BY ts LIMIT ?`, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		id, st   string
		started  int64
		finished *int64
		errStr   *string
	)
	if err := row.Scan(&id, &st, &started, &finished, &errStr); err != nil {
		return nil, err
	}
	r := &Run{ID: id, State: State(st), StartedAt: time.Unix(started, 0), Error: errStr}
	if finished != nil {
		t := time.Unix(*finished, 0)
		r.FinishedAt = &t
	}
	return r, nil
}
