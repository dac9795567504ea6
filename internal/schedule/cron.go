package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CronSpec is a parsed five-field cron expression, one bitmask per field.
//
// Bit n of a mask is set when value n is allowed. Field ranges follow
// classic cron: minute 0-59, hour 0-23, day of month 1-31, month 1-12,
// weekday 0-6 (Sunday = 0).
type CronSpec struct {
	Minute  uint64
	Hour    uint32
	Day     uint32
	Month   uint16
	Weekday uint8
}

// cron field boundaries, in field order.
var cronBounds = [5]struct{ min, max int }{
	{0, 59}, // minute
	{0, 23}, // hour
	{1, 31}, // day of month
	{1, 12}, // month
	{0, 6},  // weekday
}

// ParseCron parses a five-field cron expression.
//
// Each whitespace-separated field is "*" or a comma list of parts; a part
// is a single value or a range "a-b", either optionally suffixed with
// "/step". Values outside the field's range are rejected.
func ParseCron(expr string) (CronSpec, error) {
	fields := strings.Fields(expr)
	if len(fields) != len(cronBounds) {
		return CronSpec{}, fmt.Errorf("%w: want 5 fields, got %d", ErrBadCronExpr, len(fields))
	}

	var masks [5]uint64
	for i, field := range fields {
		mask, err := parseCronField(field, cronBounds[i].min, cronBounds[i].max)
		if err != nil {
			return CronSpec{}, fmt.Errorf("%w: field %d %q: %v", ErrBadCronExpr, i+1, field, err)
		}
		masks[i] = mask
	}

	return CronSpec{
		Minute:  masks[0],
		Hour:    uint32(masks[1]),
		Day:     uint32(masks[2]),
		Month:   uint16(masks[3]),
		Weekday: uint8(masks[4]),
	}, nil
}

// parseCronField builds the bitmask for one field.
func parseCronField(field string, min, max int) (uint64, error) {
	var mask uint64
	for _, part := range strings.Split(field, ",") {
		spec, stepStr, hasStep := strings.Cut(part, "/")
		step := 1
		if hasStep {
			n, err := strconv.Atoi(stepStr)
			if err != nil || n < 1 {
				return 0, fmt.Errorf("bad step %q", stepStr)
			}
			step = n
		}

		lo, hi := min, max
		switch {
		case spec == "*":
			// full range
		case strings.Contains(spec, "-"):
			loStr, hiStr, _ := strings.Cut(spec, "-")
			var err error
			if lo, err = cronValue(loStr, min, max); err != nil {
				return 0, err
			}
			if hi, err = cronValue(hiStr, min, max); err != nil {
				return 0, err
			}
			if lo > hi {
				return 0, fmt.Errorf("reversed range %q", spec)
			}
		default:
			v, err := cronValue(spec, min, max)
			if err != nil {
				return 0, err
			}
			lo, hi = v, v
		}

		for v := lo; v <= hi; v += step {
			mask |= 1 << uint(v)
		}
	}
	if mask == 0 {
		return 0, fmt.Errorf("empty field")
	}
	return mask, nil
}

// cronValue parses a single bounded numeric value.
func cronValue(s string, min, max int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad value %q", s)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("value %d out of range %d-%d", v, min, max)
	}
	return v, nil
}

// Matches reports whether all five masks match the broken-down local
// time t.
func (c CronSpec) Matches(t time.Time) bool {
	return c.Minute&(1<<uint(t.Minute())) != 0 &&
		c.Hour&(1<<uint(t.Hour())) != 0 &&
		c.Day&(1<<uint(t.Day())) != 0 &&
		c.Month&(1<<uint(int(t.Month()))) != 0 &&
		c.Weekday&(1<<uint(int(t.Weekday()))) != 0
}
