package token

import "testing"

func TestNewSplit_RecordsTerminators(t *testing.T) {
	tok := NewSplit("a=b;c", []string{"=", ";"})

	if got := tok.Count(); got != 3 {
		t.Fatalf("Count() = %d, want 3", got)
	}

	tests := []struct {
		i     int
		field string
		term  int
	}{
		{0, "a", 1}, // ended by "="
		{1, "b", 2}, // ended by ";"
		{2, "c", 0}, // ended by end-of-input
	}
	for _, tt := range tests {
		if got := tok.Item(tt.i); got != tt.field {
			t.Errorf("Item(%d) = %q, want %q", tt.i, got, tt.field)
		}
		if got := tok.Terminator(tt.i); got != tt.term {
			t.Errorf("Terminator(%d) = %d, want %d", tt.i, got, tt.term)
		}
	}
}

func TestNewSplit_MultiCharDelimiter(t *testing.T) {
	tok := NewSplit("key->value", []string{"->"})

	if got := tok.Count(); got != 2 {
		t.Fatalf("Count() = %d, want 2", got)
	}
	if got := tok.Item(1); got != "value" {
		t.Errorf("Item(1) = %q, want %q", got, "value")
	}
	if got := tok.Terminator(0); got != 1 {
		t.Errorf("Terminator(0) = %d, want 1", got)
	}
}

func TestNewSplit_QuotedDelimiter(t *testing.T) {
	tok := NewSplit(`a="x;y";b`, []string{"=", ";"})

	if got := tok.Count(); got != 3 {
		t.Fatalf("Count() = %d, want 3", got)
	}
	if got := tok.Item(1); got != "x;y" {
		t.Errorf("Item(1) = %q, want %q", got, "x;y")
	}
}

func TestNewSplit_EmptyInputs(t *testing.T) {
	tok := NewSplit("", []string{";"})
	if got := tok.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
	if got := tok.Terminator(5); got != 0 {
		t.Errorf("Terminator(5) = %d, want 0", got)
	}
}
