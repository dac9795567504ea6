package envstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-node-agent/internal/flashfs"
)

// Known record names. Arbitrary names are accepted; these are the ones the
// agent restores at boot.
const (
	NameNTP   = "ntp"
	NameTZ    = "tz"
	NameLed   = "led"
	NameLog   = "log"
	NameMQTT  = "mqtt"
	NameHA    = "ha"
	NameI2C   = "i2c"
	NameTimer = "timer"
)

// ErrBadLed is returned when a led record does not parse.
var ErrBadLed = errors.New("bad led record")

// Store reads and writes env records on a flash store.
type Store struct {
	fs *flashfs.Store
}

// New returns a Store backed by fs.
func New(fs *flashfs.Store) *Store {
	return &Store{fs: fs}
}

// Save truncate-writes value as the named record.
func (s *Store) Save(name, value string) error {
	return s.fs.WriteFile(recordPath(name), []byte(value))
}

// Load returns the named record's value.
func (s *Store) Load(name string) (string, error) {
	b, err := s.fs.ReadFile(recordPath(name))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

// Exists reports whether the named record is present.
func (s *Store) Exists(name string) bool {
	return s.fs.Exists(recordPath(name))
}

// Remove deletes the named record.
func (s *Store) Remove(name string) error {
	return s.fs.Remove(recordPath(name))
}

func recordPath(name string) string {
	return "/." + name
}

// Led is the status LED wiring stored in the "led" record.
type Led struct {
	Pin      int
	Inverted bool
}

// String renders the compact Pin:<n>[,inverted] form.
func (l Led) String() string {
	if l.Inverted {
		return fmt.Sprintf("Pin:%d,inverted", l.Pin)
	}
	return fmt.Sprintf("Pin:%d", l.Pin)
}

// ParseLed decodes the compact led record form.
func ParseLed(s string) (Led, error) {
	body, ok := strings.CutPrefix(strings.TrimSpace(s), "Pin:")
	if !ok {
		return Led{}, fmt.Errorf("%w: %q", ErrBadLed, s)
	}
	numPart, rest, hasRest := strings.Cut(body, ",")
	pin, err := strconv.Atoi(strings.TrimSpace(numPart))
	if err != nil {
		return Led{}, fmt.Errorf("%w: %q", ErrBadLed, s)
	}
	led := Led{Pin: pin}
	if hasRest {
		if strings.TrimSpace(rest) != "inverted" {
			return Led{}, fmt.Errorf("%w: %q", ErrBadLed, s)
		}
		led.Inverted = true
	}
	return led, nil
}
