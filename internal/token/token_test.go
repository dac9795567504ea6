package token

import (
	"strings"
	"testing"
)

func TestNew_QuotedFields(t *testing.T) {
	tok := New(`set name "hello world" 42`, " ")

	if got := tok.Count(); got != 4 {
		t.Fatalf("Count() = %d, want 4", got)
	}

	want := []string{"set", "name", "hello world", "42"}
	for i, w := range want {
		if got := tok.Item(i); got != w {
			t.Errorf("Item(%d) = %q, want %q", i, got, w)
		}
	}

	if got := tok.Int(3, -1); got != 42 {
		t.Errorf("Int(3) = %d, want 42", got)
	}
}

func TestNew_CollapsesDelimiterRuns(t *testing.T) {
	tok := New("a   b\t\tc", " \t")

	if got := tok.Count(); got != 3 {
		t.Fatalf("Count() = %d, want 3", got)
	}
	if got := tok.Item(2); got != "c" {
		t.Errorf("Item(2) = %q, want %q", got, "c")
	}
}

func TestNew_EmptyAndNilInputs(t *testing.T) {
	tests := []struct {
		name   string
		source string
		delims string
	}{
		{"empty source", "", " "},
		{"empty delims", "a b c", ""},
		{"only delimiters", "   ", " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := New(tt.source, tt.delims)
			if got := tok.Count(); got != 0 {
				t.Errorf("Count() = %d, want 0", got)
			}
			// Accessors must stay total on an empty tokenizer.
			if got := tok.Item(0); got != "" {
				t.Errorf("Item(0) = %q, want empty", got)
			}
			if got := tok.Int(0, -7); got != -7 {
				t.Errorf("Int(0) = %d, want default -7", got)
			}
			if got := tok.StringAfter(0); got != "" {
				t.Errorf("StringAfter(0) = %q, want empty", got)
			}
		})
	}
}

func TestNew_FieldLimit(t *testing.T) {
	tok := New("1 2 3 4 5 6 7 8 9 10", " ")

	if got := tok.Count(); got != MaxFields {
		t.Fatalf("Count() = %d, want %d", got, MaxFields)
	}
	if got := tok.Item(7); got != "8" {
		t.Errorf("Item(7) = %q, want %q", got, "8")
	}
}

func TestInt_Bases(t *testing.T) {
	tests := []struct {
		field string
		want  int32
	}{
		{"42", 42},
		{"-13", -13},
		{"0x1f", 31},
		{"0755", 493},
		{"4.2", -1},   // trailing garbage
		{"42abc", -1}, // trailing garbage
		{"", -1},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			tok := New(tt.field, " ")
			if got := tok.Int(0, -1); got != tt.want {
				t.Errorf("Int(0) on %q = %d, want %d", tt.field, got, tt.want)
			}
		})
	}
}

func TestFloat(t *testing.T) {
	tok := New("3.25 x", " ")

	if got := tok.Float(0, -1); got != 3.25 {
		t.Errorf("Float(0) = %v, want 3.25", got)
	}
	if got := tok.Float(1, -1); got != -1 {
		t.Errorf("Float(1) = %v, want default -1", got)
	}
}

func TestStringAfter(t *testing.T) {
	tok := New("log  server   192.168.1.10", " ")

	if got := tok.StringAfter(1); got != "server 192.168.1.10" {
		t.Errorf("StringAfter(1) = %q", got)
	}
	if got := tok.StringAfter(2); got != "192.168.1.10" {
		t.Errorf("StringAfter(2) = %q", got)
	}
}

// Joining the fields with a single delimiter must reproduce the source
// modulo delimiter runs and quoting.
func TestRoundTrip(t *testing.T) {
	sources := []string{
		"mqtt server mqtt.local 1883",
		"  leading and   trailing  ",
		"one",
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			tok := New(src, " ")
			fields := make([]string, 0, tok.Count())
			for i := 0; i < tok.Count(); i++ {
				fields = append(fields, tok.Item(i))
			}
			want := strings.Join(strings.Fields(src), " ")
			if got := strings.Join(fields, " "); got != want {
				t.Errorf("rejoined = %q, want %q", got, want)
			}
		})
	}
}
