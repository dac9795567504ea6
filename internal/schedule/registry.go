package schedule

import "time"

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Runner executes a timer's command line when it fires.
type Runner func(command string)

// Recorder observes command timers firing. It is only called for timers
// linked to a persisted task.
type Recorder func(taskID string, firedAt time.Time)

// Registry owns a heterogeneous set of timers and fires them from the
// main loop.
//
// Tick iterates timers in insertion order; a fired timer's callback runs
// inline and may add or remove timers, with such changes taking effect
// from the next tick. The registry is not safe for concurrent use; it
// belongs to the single loop that ticks it.
type Registry struct {
	timers   []*Timer
	nextID   int
	runner   Runner
	recorder Recorder
	logger   Logger
}

// NewRegistry creates an empty registry. runner receives the command
// line of any command timer that fires and may be nil when only callback
// timers are used.
func NewRegistry(runner Runner) *Registry {
	return &Registry{
		nextID: 1,
		runner: runner,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetRecorder sets the execution recorder for task-linked command timers.
func (r *Registry) SetRecorder(rec Recorder) {
	r.recorder = rec
}

// Add registers a timer, assigning the next free identifier when the
// timer does not carry one (or carries a colliding one). Returns the
// same timer for chaining.
func (r *Registry) Add(t *Timer) *Timer {
	if t.id == 0 || r.find(t.id) != nil {
		t.id = r.nextID
	}
	if t.id >= r.nextID {
		r.nextID = t.id + 1
	}
	r.timers = append(r.timers, t)
	return t
}

// Remove deletes the timer with the given id.
func (r *Registry) Remove(id int) error {
	for i, t := range r.timers {
		if t.id == id {
			r.timers = append(r.timers[:i], r.timers[i+1:]...)
			return nil
		}
	}
	return ErrTimerNotFound
}

// Get returns the timer with the given id.
func (r *Registry) Get(id int) (*Timer, error) {
	if t := r.find(id); t != nil {
		return t, nil
	}
	return nil, ErrTimerNotFound
}

// Timers returns a snapshot of the registered timers in insertion order.
func (r *Registry) Timers() []*Timer {
	out := make([]*Timer, len(r.timers))
	copy(out, r.timers)
	return out
}

// Len returns the number of registered timers.
func (r *Registry) Len() int { return len(r.timers) }

// Tick advances every timer once against the given wall clock.
//
// Timers fire in insertion order. The timer set is snapshotted first, so
// callbacks adding or removing timers do not affect the current tick.
func (r *Registry) Tick(now time.Time) {
	nowMS := now.UnixMilli()
	snapshot := r.Timers()

	for _, t := range snapshot {
		if !t.tick(now, nowMS) {
			continue
		}
		if t.callback != nil {
			t.callback()
		}
		if t.command != "" && r.runner != nil {
			r.logger.Debug("timer fired", "id", t.id, "command", t.command)
			r.runner(t.command)
			if r.recorder != nil && t.taskID != "" {
				r.recorder(t.taskID, now)
			}
		}
	}
}

func (r *Registry) find(id int) *Timer {
	for _, t := range r.timers {
		if t.id == id {
			return t
		}
	}
	return nil
}
