package schedule

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// TaskKind identifies the shape of a persisted timer.
type TaskKind string

const (
	TaskPeriodic TaskKind = "periodic"
	TaskOnce     TaskKind = "once"
	TaskCron     TaskKind = "cron"
)

// Task is the persisted form of a command timer. Interval tasks carry
// PeriodMS; cron tasks carry Expr.
type Task struct {
	ID        string
	Kind      TaskKind
	PeriodMS  int64
	Expr      string
	Command   string
	CreatedAt time.Time
}

// Store persists command timers and their execution history in sqlite,
// so scheduled work survives an agent restart.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and migrates) the timer store at dbPath.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open timer store: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate timer store: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		period_ms INTEGER NOT NULL DEFAULT 0,
		expr TEXT NOT NULL DEFAULT '',
		command TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS executions (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		fired_at TEXT NOT NULL,
		result TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_executions_task_id ON executions(task_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// NewID generates a task or execution identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// CreateTask persists a task, assigning an id when absent.
func (s *Store) CreateTask(t *Task) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO tasks (id, kind, period_ms, expr, command, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, string(t.Kind), t.PeriodMS, t.Expr, t.Command,
		t.CreatedAt.Format(time.RFC3339Nano))
	return err
}

// DeleteTask removes a task and its executions.
func (s *Store) DeleteTask(id string) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ListTasks returns all persisted tasks, oldest first.
func (s *Store) ListTasks() ([]*Task, error) {
	rows, err := s.db.Query(`
		SELECT id, kind, period_ms, expr, command, created_at
		FROM tasks ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		var t Task
		var createdAt string
		if err := rows.Scan(&t.ID, (*string)(&t.Kind), &t.PeriodMS, &t.Expr, &t.Command, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

// RecordExecution appends one execution row for a task.
func (s *Store) RecordExecution(taskID string, firedAt time.Time, result string) error {
	_, err := s.db.Exec(`
		INSERT INTO executions (id, task_id, fired_at, result)
		VALUES (?, ?, ?, ?)
	`, NewID(), taskID, firedAt.Format(time.RFC3339Nano), result)
	return err
}

// ExecutionCount returns the number of recorded executions for a task.
func (s *Store) ExecutionCount(taskID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM executions WHERE task_id = ?`, taskID).Scan(&n)
	return n, err
}

// Timer materialises a task into a registry timer, linking it back via
// the task id. Cron tasks with a bad expression yield an invalid timer
// and the parse error.
func (t *Task) Timer() (*Timer, error) {
	var tm *Timer
	var err error
	switch t.Kind {
	case TaskCron:
		tm, err = NewCron(t.Expr, t.Command, nil)
	case TaskOnce:
		tm = NewOnce(t.PeriodMS, t.Command, nil)
	default:
		tm = NewPeriodic(t.PeriodMS, t.Command, nil)
	}
	tm.SetTaskID(t.ID)
	return tm, err
}
