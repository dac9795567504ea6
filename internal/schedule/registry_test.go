package schedule

import (
	"testing"
	"time"
)

// tickRange ticks the registry once per simulated millisecond across the
// given duration.
func tickRange(r *Registry, start time.Time, duration, step time.Duration) {
	for at := start; at.Before(start.Add(duration)); at = at.Add(step) {
		r.Tick(at)
	}
}

func TestRegistry_PeriodicFireCount(t *testing.T) {
	fires := 0
	r := NewRegistry(nil)
	r.Add(NewPeriodic(100, "", func() { fires++ }))

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// 1050ms of 10ms ticks; the first tick only anchors the baseline.
	tickRange(r, start, 1050*time.Millisecond, 10*time.Millisecond)

	if fires < 10 || fires > 11 {
		t.Errorf("periodic timer fired %d times over 1050ms at period 100ms, want 10 or 11", fires)
	}
}

func TestRegistry_OneShotFiresOnce(t *testing.T) {
	fires := 0
	r := NewRegistry(nil)
	tm := r.Add(NewOnce(50, "", func() { fires++ }))

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tickRange(r, start, 500*time.Millisecond, 10*time.Millisecond)

	if fires != 1 {
		t.Errorf("one-shot fired %d times, want 1", fires)
	}
	if !tm.OnHold() {
		t.Error("one-shot timer not on hold after firing")
	}
	if tm.Running() {
		t.Error("Running() = true for held one-shot")
	}
}

func TestRegistry_MakeDue(t *testing.T) {
	fires := 0
	r := NewRegistry(nil)
	tm := r.Add(NewPeriodic(60_000, "", func() { fires++ }))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.Tick(now)
	if fires != 0 {
		t.Fatalf("fired before MakeDue")
	}

	tm.MakeDue()
	r.Tick(now.Add(10 * time.Millisecond))
	if fires != 1 {
		t.Errorf("fires = %d after MakeDue, want 1", fires)
	}

	// Normal scheduling resumes: no immediate second fire.
	r.Tick(now.Add(20 * time.Millisecond))
	if fires != 1 {
		t.Errorf("fires = %d, want still 1", fires)
	}
}

func TestRegistry_StartOnChange(t *testing.T) {
	tm := NewPeriodic(100, "", nil)
	r := NewRegistry(nil)
	r.Add(tm)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.Tick(now) // anchor baseline

	// Same period: phase preserved (baseline stays anchored).
	tm.StartOnChange(100)
	r.Tick(now.Add(100 * time.Millisecond))
	if !tm.Running() {
		t.Fatal("timer stopped by StartOnChange with equal period")
	}

	// Changed period: restart.
	tm.StartOnChange(250)
	if got := tm.Period(); got != 250 {
		t.Errorf("Period() = %d, want 250", got)
	}
}

func TestRegistry_CommandRunner(t *testing.T) {
	var ran []string
	r := NewRegistry(func(cmd string) { ran = append(ran, cmd) })
	tm := r.Add(NewPeriodic(10, "mqtt list", nil))
	tm.MakeDue()

	r.Tick(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	if len(ran) != 1 || ran[0] != "mqtt list" {
		t.Errorf("runner received %v, want [mqtt list]", ran)
	}
}

func TestRegistry_RecordsTaskLinkedExecutions(t *testing.T) {
	var ran []string
	r := NewRegistry(func(cmd string) { ran = append(ran, cmd) })

	type record struct {
		taskID  string
		firedAt time.Time
	}
	var records []record
	r.SetRecorder(func(taskID string, firedAt time.Time) {
		records = append(records, record{taskID, firedAt})
	})

	linked := NewPeriodic(10, "mqtt list", nil)
	linked.SetTaskID("task-1")
	linked.MakeDue()
	r.Add(linked)

	unlinked := NewPeriodic(10, "info", nil)
	unlinked.MakeDue()
	r.Add(unlinked)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.Tick(now)

	if len(ran) != 2 {
		t.Fatalf("runner calls = %v, want both commands", ran)
	}
	if len(records) != 1 {
		t.Fatalf("records = %v, want only the task-linked timer", records)
	}
	if records[0].taskID != "task-1" || !records[0].firedAt.Equal(now) {
		t.Errorf("record = %+v, want task-1 at tick time", records[0])
	}
}

func TestRegistry_InsertionOrderFiring(t *testing.T) {
	var order []int
	r := NewRegistry(nil)
	for i := 1; i <= 3; i++ {
		i := i
		tm := NewPeriodic(10, "", func() { order = append(order, i) })
		tm.MakeDue()
		r.Add(tm)
	}

	r.Tick(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("fire order = %v, want [1 2 3]", order)
	}
}

func TestRegistry_CallbackMayMutateRegistry(t *testing.T) {
	r := NewRegistry(nil)
	var added *Timer
	first := NewPeriodic(10, "", func() {
		added = r.Add(NewPeriodic(10, "", nil))
	})
	first.MakeDue()
	r.Add(first)

	r.Tick(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	if added == nil {
		t.Fatal("callback did not run")
	}
	if got := r.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	if added.ID() == first.ID() {
		t.Error("identifier reused within registry")
	}
}

func TestRegistry_CronFiresOncePerMinute(t *testing.T) {
	r := NewRegistry(nil)
	fires := 0
	tm, err := NewCron("* * * * *", "", func() { fires++ })
	if err != nil {
		t.Fatalf("NewCron() error = %v", err)
	}
	r.Add(tm)

	// Tick every second across three minutes.
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	for at := start; at.Before(start.Add(3 * time.Minute)); at = at.Add(time.Second) {
		r.Tick(at)
	}

	if fires != 3 {
		t.Errorf("cron fired %d times over 3 minutes, want 3", fires)
	}
}

func TestRegistry_InvalidCronNeverFires(t *testing.T) {
	r := NewRegistry(nil)
	fired := false
	tm, err := NewCron("nonsense", "", func() { fired = true })
	if err == nil {
		t.Fatal("NewCron(nonsense) returned nil error")
	}
	r.Add(tm)

	tickRange(r, time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local), 2*time.Minute, time.Second)

	if fired {
		t.Error("invalid cron timer fired")
	}
	if tm.Running() {
		t.Error("Running() = true for invalid cron timer")
	}
}

func TestRegistry_RemoveAndLookup(t *testing.T) {
	r := NewRegistry(nil)
	tm := r.Add(NewPeriodic(10, "", nil))

	if _, err := r.Get(tm.ID()); err != nil {
		t.Errorf("Get(%d) error = %v", tm.ID(), err)
	}
	if err := r.Remove(tm.ID()); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
	if err := r.Remove(tm.ID()); err != ErrTimerNotFound {
		t.Errorf("second Remove() error = %v, want ErrTimerNotFound", err)
	}
	if _, err := r.Get(tm.ID()); err != ErrTimerNotFound {
		t.Errorf("Get() after remove error = %v, want ErrTimerNotFound", err)
	}
}
