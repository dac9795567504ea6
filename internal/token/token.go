package token

import (
	"strconv"
	"strings"
)

// MaxFields is the fixed field capacity of a Tokenizer.
// Splitting stops silently once this many fields have been collected.
const MaxFields = 8

// Tokenizer holds the fields split from a single source line.
//
// The zero value is an empty tokenizer; all accessors are total on it.
type Tokenizer struct {
	fields []string
}

// New splits source on any of the delimiter characters in delims.
//
// Runs of delimiters collapse, an empty source yields zero fields, and a
// double quote toggles quoting mode (delimiters are preserved and the
// quotes dropped while it is active). At most MaxFields fields are kept;
// the remainder of the line is discarded.
func New(source, delims string) *Tokenizer {
	t := &Tokenizer{}
	if source == "" || delims == "" {
		return t
	}

	var field strings.Builder
	started := false
	quoted := false

	flush := func() {
		if started {
			t.fields = append(t.fields, field.String())
			field.Reset()
			started = false
		}
	}

	for i := 0; i < len(source) && len(t.fields) < MaxFields; i++ {
		c := source[i]
		switch {
		case c == '"':
			quoted = !quoted
			started = true
		case !quoted && strings.IndexByte(delims, c) >= 0:
			flush()
		default:
			field.WriteByte(c)
			started = true
		}
	}
	if len(t.fields) < MaxFields {
		flush()
	}
	return t
}

// Count returns the number of fields (0 to MaxFields).
func (t *Tokenizer) Count() int {
	return len(t.fields)
}

// Item returns field i, or the empty string when i is out of range.
func (t *Tokenizer) Item(i int) string {
	if i < 0 || i >= len(t.fields) {
		return ""
	}
	return t.fields[i]
}

// Int extracts field i as a signed 32-bit integer.
//
// The base is detected automatically (decimal, 0x hex, 0 octal). An empty,
// missing or partially numeric field yields def.
func (t *Tokenizer) Int(i int, def int32) int32 {
	s := t.Item(i)
	if s == "" {
		return def
	}
	v, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return def
	}
	return int32(v)
}

// Float extracts field i as a 32-bit float, yielding def on any parse
// failure.
func (t *Tokenizer) Float(i int, def float32) float32 {
	s := t.Item(i)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return def
	}
	return float32(v)
}

// StringAfter returns fields i through the last one rejoined with single
// spaces. Out-of-range i yields the empty string.
func (t *Tokenizer) StringAfter(i int) string {
	if i < 0 || i >= len(t.fields) {
		return ""
	}
	return strings.Join(t.fields[i:], " ")
}
