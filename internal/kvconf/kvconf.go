package kvconf

import (
	"sort"
	"strconv"
	"strings"
)

const (
	assigner  = '='
	delimiter = ';'

	// DefaultPrecision is the fractional digit count used by AddFloat
	// unless the caller overrides it.
	DefaultPrecision = 2
)

// Map is a flat string-to-string configuration store with typed accessors.
//
// The zero value is empty and ready for use.
type Map struct {
	values map[string]string
}

// New returns an empty Map.
func New() *Map {
	return &Map{values: make(map[string]string)}
}

// Parse decodes a "key=value;" blob into a Map.
//
// Whitespace around keys and values is trimmed, pairs without an assigner
// are skipped, and a later key overwrites an earlier one. Parse never
// fails; a malformed blob simply yields fewer pairs.
func Parse(blob string) *Map {
	m := New()
	for _, pair := range strings.Split(blob, string(delimiter)) {
		key, value, ok := strings.Cut(pair, string(assigner))
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		m.values[key] = strings.TrimSpace(value)
	}
	return m
}

// Add sets key to a text value.
func (m *Map) Add(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
}

// AddInt sets key to a decimal integer value.
func (m *Map) AddInt(key string, value int32) {
	m.Add(key, strconv.FormatInt(int64(value), 10))
}

// AddUint8 sets key to a decimal value in the uint8 range.
func (m *Map) AddUint8(key string, value uint8) {
	m.Add(key, strconv.FormatUint(uint64(value), 10))
}

// AddUint16 sets key to a decimal value in the uint16 range.
func (m *Map) AddUint16(key string, value uint16) {
	m.Add(key, strconv.FormatUint(uint64(value), 10))
}

// AddFloat sets key to a fixed-point rendering of value with the given
// number of fractional digits; precision < 0 selects DefaultPrecision.
func (m *Map) AddFloat(key string, value float32, precision int) {
	if precision < 0 {
		precision = DefaultPrecision
	}
	m.Add(key, strconv.FormatFloat(float64(value), 'f', precision, 32))
}

// GetStr returns the value for key, or def when absent.
func (m *Map) GetStr(key, def string) string {
	if v, ok := m.values[key]; ok {
		return v
	}
	return def
}

// GetSz is an alias of GetStr kept for parity with the classic env API.
func (m *Map) GetSz(key, def string) string {
	return m.GetStr(key, def)
}

// GetInt returns the value for key as an int32, or def when the key is
// absent or not an integer (auto base).
func (m *Map) GetInt(key string, def int32) int32 {
	v, ok := m.values[key]
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 0, 32)
	if err != nil {
		return def
	}
	return int32(n)
}

// GetFloat returns the value for key as a float32, or def on absence or
// parse failure.
func (m *Map) GetFloat(key string, def float32) float32 {
	v, ok := m.values[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return def
	}
	return float32(f)
}

// GetBool returns the value for key interpreted as a boolean.
//
// "1", "true", "yes" and "on" (case-insensitive) are true; "0", "false",
// "no" and "off" are false; anything else yields def.
func (m *Map) GetBool(key string, def bool) bool {
	v, ok := m.values[key]
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

// Len returns the number of stored pairs.
func (m *Map) Len() int {
	return len(m.values)
}

// String serialises the Map to its canonical "k=v;" blob, ordered by key.
func (m *Map) String() string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte(assigner)
		b.WriteString(m.values[k])
		b.WriteByte(delimiter)
	}
	return b.String()
}
