package envstore

import (
	"errors"
	"testing"

	"github.com/nerrad567/gray-node-agent/internal/flashfs"
)

func newStore(t *testing.T) (*Store, *flashfs.Store) {
	t.Helper()
	fs := flashfs.New(t.TempDir(), 0)
	if err := fs.Mount(); err != nil {
		t.Fatal(err)
	}
	return New(fs), fs
}

func TestStore_SaveLoad(t *testing.T) {
	s, fs := newStore(t)

	if err := s.Save(NameNTP, "pool.ntp.org"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(NameNTP)
	if err != nil || got != "pool.ntp.org" {
		t.Fatalf("Load = %q, %v", got, err)
	}

	// Records are dotfiles on the flash store.
	if !fs.Exists("/.ntp") {
		t.Error("/.ntp not present on flash store")
	}

	// Save truncates the previous value.
	if err := s.Save(NameNTP, "time.gray.local"); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Load(NameNTP)
	if got != "time.gray.local" {
		t.Errorf("Load after overwrite = %q", got)
	}
}

func TestStore_TrailingNewlineStripped(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Save(NameTZ, "GMT0BST,M3.5.0/1,M10.5.0\n"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(NameTZ)
	if err != nil || got != "GMT0BST,M3.5.0/1,M10.5.0" {
		t.Errorf("Load = %q, %v", got, err)
	}
}

func TestStore_Unmounted(t *testing.T) {
	fs := flashfs.New(t.TempDir(), 0)
	s := New(fs)

	if err := s.Save(NameLog, "level=2;"); !errors.Is(err, flashfs.ErrNotMounted) {
		t.Errorf("Save = %v, want ErrNotMounted", err)
	}
	if _, err := s.Load(NameLog); !errors.Is(err, flashfs.ErrNotMounted) {
		t.Errorf("Load = %v, want ErrNotMounted", err)
	}
}

func TestStore_MissingRecord(t *testing.T) {
	s, _ := newStore(t)
	if _, err := s.Load(NameHA); !errors.Is(err, flashfs.ErrNotFound) {
		t.Errorf("Load missing = %v, want ErrNotFound", err)
	}
	if s.Exists(NameHA) {
		t.Error("Exists on missing record")
	}
}

func TestLed_Codec(t *testing.T) {
	tests := []struct {
		in      string
		want    Led
		wantErr bool
	}{
		{"Pin:2", Led{Pin: 2}, false},
		{"Pin:13,inverted", Led{Pin: 13, Inverted: true}, false},
		{" Pin:4 ", Led{Pin: 4}, false},
		{"Pin:4,blink", Led{}, true},
		{"pin:4", Led{}, true},
		{"Pin:x", Led{}, true},
		{"", Led{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLed(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrBadLed) {
					t.Fatalf("ParseLed(%q) err = %v, want ErrBadLed", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseLed(%q) = %+v, %v, want %+v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestLed_String(t *testing.T) {
	if got := (Led{Pin: 2}).String(); got != "Pin:2" {
		t.Errorf("String = %q", got)
	}
	if got := (Led{Pin: 13, Inverted: true}).String(); got != "Pin:13,inverted" {
		t.Errorf("String = %q", got)
	}
}
