package schedule

import "errors"

// Domain-specific errors for the scheduler.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrBadCronExpr is returned when a cron expression cannot be parsed.
	ErrBadCronExpr = errors.New("schedule: bad cron expression")

	// ErrTimerNotFound is returned when a timer id is not in the registry.
	ErrTimerNotFound = errors.New("schedule: timer not found")

	// ErrTaskNotFound is returned when a persisted task id does not exist.
	ErrTaskNotFound = errors.New("schedule: task not found")
)
