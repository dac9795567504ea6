package schedule

import "time"

// Mode selects a timer's rearm behaviour after firing.
type Mode int

const (
	// Repeat rearms the timer for another full period after each fire.
	Repeat Mode = iota

	// Once holds the timer after its first fire.
	Once
)

// lastUnset marks a timer whose baseline has not been anchored to the
// loop clock yet; the first tick sets it without firing.
const lastUnset = int64(-1)

// Timer is one entry in a Registry.
//
// A timer is either interval-driven (period in milliseconds) or
// cron-driven (five-field expression matched against local wall-clock
// minutes). On fire it invokes its callback, hands its command line to
// the registry's runner, or both.
//
// Timers are not safe for concurrent use; they are owned by the single
// loop that ticks the registry.
type Timer struct {
	id     int
	taskID string

	periodMS int64
	lastMS   int64

	hold          bool
	due           bool
	holdAfterFire bool

	mode     Mode
	command  string
	callback func()

	cron       *CronSpec
	cronExpr   string
	lastMinute int64
	invalid    bool
}

// NewPeriodic returns a repeating timer firing every periodMS
// milliseconds. A period of 0 leaves the timer inactive.
func NewPeriodic(periodMS int64, command string, callback func()) *Timer {
	return &Timer{
		periodMS: periodMS,
		lastMS:   lastUnset,
		command:  command,
		callback: callback,
	}
}

// NewOnce returns a one-shot timer firing once after delayMS
// milliseconds, then transitioning to hold.
func NewOnce(delayMS int64, command string, callback func()) *Timer {
	return &Timer{
		periodMS:      delayMS,
		lastMS:        lastUnset,
		mode:          Once,
		holdAfterFire: true,
		command:       command,
		callback:      callback,
	}
}

// NewCron returns a cron timer for the given expression.
//
// An unparseable expression marks the timer invalid; it registers
// normally but never fires. The parse error is also returned so callers
// can report it.
func NewCron(expr, command string, callback func()) (*Timer, error) {
	t := &Timer{
		lastMS:     lastUnset,
		cronExpr:   expr,
		lastMinute: -1,
		command:    command,
		callback:   callback,
	}
	spec, err := ParseCron(expr)
	if err != nil {
		t.invalid = true
		return t, err
	}
	t.cron = &spec
	return t, nil
}

// ID returns the registry-assigned identifier (0 before registration).
func (t *Timer) ID() int { return t.id }

// TaskID returns the persisted task id this timer mirrors, if any.
func (t *Timer) TaskID() string { return t.taskID }

// SetTaskID links the timer to a persisted task.
func (t *Timer) SetTaskID(id string) { t.taskID = id }

// Period returns the timer period in milliseconds (0 for cron timers).
func (t *Timer) Period() int64 { return t.periodMS }

// Command returns the command line fired by this timer, if any.
func (t *Timer) Command() string { return t.command }

// Mode returns the rearm behaviour.
func (t *Timer) Mode() Mode { return t.mode }

// CronExpr returns the source cron expression, empty for interval timers.
func (t *Timer) CronExpr() string { return t.cronExpr }

// IsCron reports whether this is a cron-driven timer (valid or not).
func (t *Timer) IsCron() bool { return t.cronExpr != "" }

// Running reports whether the timer can still fire: not on hold, and
// either carrying a non-zero period or a valid cron expression.
func (t *Timer) Running() bool {
	if t.hold || t.invalid {
		return false
	}
	return t.periodMS != 0 || t.cron != nil
}

// OnHold reports whether the timer is held.
func (t *Timer) OnHold() bool { return t.hold }

// Start activates the timer with a new period, re-anchoring its baseline
// to the next tick.
func (t *Timer) Start(periodMS int64) {
	t.periodMS = periodMS
	t.lastMS = lastUnset
	t.hold = false
	t.due = false
}

// StartOnChange restarts the timer only when the period value actually
// changed, leaving an already-running timer's phase untouched otherwise.
func (t *Timer) StartOnChange(periodMS int64) {
	if t.periodMS != periodMS {
		t.Start(periodMS)
	}
}

// MakeDue marks the timer due at the next tick regardless of elapsed
// time. Normal period scheduling resumes after that fire.
func (t *Timer) MakeDue() { t.due = true }

// Hold suspends firing without losing configuration.
func (t *Timer) Hold() { t.hold = true }

// Resume lifts a hold; the next full period starts at the next tick.
func (t *Timer) Resume() {
	t.hold = false
	t.lastMS = lastUnset
}

// tick advances the timer against the loop clock and reports whether it
// fired. now is the wall clock used for cron matching; nowMS is the
// monotonic-ish loop millisecond.
func (t *Timer) tick(now time.Time, nowMS int64) bool {
	if t.hold || t.invalid {
		return false
	}

	if t.cron != nil {
		minute := now.Unix() / 60
		if minute == t.lastMinute || !t.cron.Matches(now) {
			return false
		}
		t.lastMinute = minute
		t.fired()
		return true
	}

	if t.due {
		t.due = false
		t.lastMS = nowMS
		t.fired()
		return true
	}

	if t.periodMS == 0 {
		return false
	}
	if t.lastMS == lastUnset {
		t.lastMS = nowMS
		return false
	}
	if nowMS-t.lastMS < t.periodMS {
		return false
	}

	t.lastMS += t.periodMS
	t.fired()
	return true
}

// fired applies post-fire state transitions.
func (t *Timer) fired() {
	if t.holdAfterFire {
		t.hold = true
	}
}
