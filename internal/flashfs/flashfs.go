package flashfs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry describes one stored file.
type Entry struct {
	Path    string
	Size    int64
	ModTime time.Time
	Dir     bool
}

// Info reports capacity accounting in bytes.
type Info struct {
	Capacity int64
	Used     int64
	Free     int64
}

// Store is a directory-backed file store with a capacity quota and an
// explicit mount lifecycle.
type Store struct {
	root     string
	capacity int64
	mounted  bool
}

// New returns an unmounted Store rooted at dir with the given capacity in
// bytes. A capacity of 0 or less disables the quota.
func New(dir string, capacity int64) *Store {
	return &Store{root: dir, capacity: capacity}
}

// Mount creates the root directory if needed and enables file operations.
func (s *Store) Mount() error {
	if s.mounted {
		return nil
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("mount %s: %w", s.root, err)
	}
	s.mounted = true
	return nil
}

// Unmount disables file operations. Stored data is untouched.
func (s *Store) Unmount() { s.mounted = false }

// Mounted reports whether file operations are enabled.
func (s *Store) Mounted() bool { return s.mounted }

// Format removes every entry under the root. The store must be unmounted.
func (s *Store) Format() error {
	if s.mounted {
		return ErrMounted
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("format: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.root, e.Name())); err != nil {
			return fmt.Errorf("format: %w", err)
		}
	}
	return nil
}

// Info returns capacity, used and free bytes.
func (s *Store) Info() (Info, error) {
	if !s.mounted {
		return Info{}, ErrNotMounted
	}
	used, err := s.used()
	if err != nil {
		return Info{}, err
	}
	info := Info{Capacity: s.capacity, Used: used}
	if s.capacity > 0 {
		info.Free = s.capacity - used
		if info.Free < 0 {
			info.Free = 0
		}
	}
	return info, nil
}

// Free returns the remaining quota in bytes, or -1 when the quota is
// disabled.
func (s *Store) Free() (int64, error) {
	if s.capacity <= 0 {
		return -1, nil
	}
	info, err := s.Info()
	if err != nil {
		return 0, err
	}
	return info.Free, nil
}

// Open opens the named file for reading.
func (s *Store) Open(name string) (io.ReadCloser, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return f, nil
}

// ReadFile returns the full contents of the named file.
func (s *Store) ReadFile(name string) ([]byte, error) {
	f, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Create opens the named file for writing, truncating it if it exists.
// Writes through the returned writer count against the quota; a write that
// would exceed it fails with ErrNoSpace, leaving a partial file behind.
func (s *Store) Create(name string) (io.WriteCloser, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	budget := int64(-1)
	if s.capacity > 0 {
		used, err := s.used()
		if err != nil {
			return nil, err
		}
		// Truncating the target frees its current size first.
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			used -= st.Size()
		}
		budget = s.capacity - used
		if budget < 0 {
			budget = 0
		}
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(p)
	if err != nil {
		return nil, err
	}
	return &quotaWriter{f: f, budget: budget}, nil
}

// WriteFile truncate-writes data to the named file under the quota.
func (s *Store) WriteFile(name string, data []byte) error {
	w, err := s.Create(name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Stat returns the entry for the named file.
func (s *Store) Stat(name string) (Entry, error) {
	p, err := s.resolve(name)
	if err != nil {
		return Entry{}, err
	}
	st, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return Entry{}, err
	}
	return Entry{Path: path.Clean("/" + strings.TrimPrefix(name, "/")), Size: st.Size(), ModTime: st.ModTime(), Dir: st.IsDir()}, nil
}

// Exists reports whether the named file is present.
func (s *Store) Exists(name string) bool {
	_, err := s.Stat(name)
	return err == nil
}

// Remove deletes the named file.
func (s *Store) Remove(name string) error {
	p, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return err
	}
	return nil
}

// Copy duplicates src to dst under the quota.
func (s *Store) Copy(src, dst string) error {
	r, err := s.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := s.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Touch creates the named file empty when missing, otherwise updates its
// modification time without altering the contents.
func (s *Store) Touch(name string) error {
	p, err := s.resolve(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); os.IsNotExist(err) {
		w, err := s.Create(name)
		if err != nil {
			return err
		}
		return w.Close()
	}
	now := time.Now()
	return os.Chtimes(p, now, now)
}

// List returns every stored file, dotfiles included, sorted by path.
func (s *Store) List() ([]Entry, error) {
	if !s.mounted {
		return nil, ErrNotMounted
	}
	var out []Entry
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == s.root {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, Entry{
			Path:    "/" + filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Dir:     d.IsDir(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// resolve maps an absolute store path onto the backing directory.
func (s *Store) resolve(name string) (string, error) {
	if !s.mounted {
		return "", ErrNotMounted
	}
	if name == "" || !strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%s: %w", name, ErrBadPath)
	}
	clean := path.Clean(name)
	if clean == "/" || strings.HasPrefix(clean, "/..") {
		return "", fmt.Errorf("%s: %w", name, ErrBadPath)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean[1:])), nil
}

func (s *Store) used() (int64, error) {
	var total int64
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

type quotaWriter struct {
	f      *os.File
	budget int64
	full   bool
}

func (w *quotaWriter) Write(p []byte) (int, error) {
	if w.full {
		return 0, ErrNoSpace
	}
	if w.budget >= 0 && int64(len(p)) > w.budget {
		n, _ := w.f.Write(p[:w.budget])
		w.budget = 0
		w.full = true
		return n, ErrNoSpace
	}
	n, err := w.f.Write(p)
	if w.budget >= 0 {
		w.budget -= int64(n)
	}
	return n, err
}

func (w *quotaWriter) Close() error { return w.f.Close() }
