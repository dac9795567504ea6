package schedule

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "timers.db"))
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_CreateListDelete(t *testing.T) {
	s := testStore(t)

	task := &Task{Kind: TaskCron, Expr: "*/5 * * * *", Command: "log level 3"}
	if err := s.CreateTask(task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.ID == "" {
		t.Fatal("CreateTask() did not assign an id")
	}

	tasks, err := s.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("ListTasks() returned %d tasks, want 1", len(tasks))
	}
	got := tasks[0]
	if got.Kind != TaskCron || got.Expr != "*/5 * * * *" || got.Command != "log level 3" {
		t.Errorf("round-tripped task = %+v", got)
	}

	if err := s.DeleteTask(task.ID); err != nil {
		t.Errorf("DeleteTask() error = %v", err)
	}
	if err := s.DeleteTask(task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("second DeleteTask() error = %v, want ErrTaskNotFound", err)
	}
}

func TestStore_Executions(t *testing.T) {
	s := testStore(t)

	task := &Task{Kind: TaskPeriodic, PeriodMS: 1000, Command: "df"}
	if err := s.CreateTask(task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.RecordExecution(task.ID, time.Now(), "ok"); err != nil {
			t.Fatalf("RecordExecution() error = %v", err)
		}
	}

	n, err := s.ExecutionCount(task.ID)
	if err != nil {
		t.Fatalf("ExecutionCount() error = %v", err)
	}
	if n != 3 {
		t.Errorf("ExecutionCount() = %d, want 3", n)
	}
}

func TestTask_Timer(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr bool
		cron    bool
	}{
		{"periodic", Task{ID: "a", Kind: TaskPeriodic, PeriodMS: 500, Command: "df"}, false, false},
		{"once", Task{ID: "b", Kind: TaskOnce, PeriodMS: 500, Command: "df"}, false, false},
		{"cron", Task{ID: "c", Kind: TaskCron, Expr: "0 * * * *", Command: "df"}, false, true},
		{"bad cron", Task{ID: "d", Kind: TaskCron, Expr: "bogus", Command: "df"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm, err := tt.task.Timer()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Timer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tm.TaskID() != tt.task.ID {
				t.Errorf("TaskID() = %q, want %q", tm.TaskID(), tt.task.ID)
			}
			if tm.IsCron() != tt.cron {
				t.Errorf("IsCron() = %v, want %v", tm.IsCron(), tt.cron)
			}
		})
	}
}
