package flashfs

import "errors"

var (
	// ErrNotMounted is returned by file operations on an unmounted store.
	ErrNotMounted = errors.New("filesystem not mounted")

	// ErrMounted is returned by Format while the store is still mounted.
	ErrMounted = errors.New("filesystem mounted")

	// ErrNotFound is returned when the named file does not exist.
	ErrNotFound = errors.New("no such file or directory")

	// ErrBadPath is returned for paths that are relative or escape the root.
	ErrBadPath = errors.New("bad path")

	// ErrNoSpace is returned when a write would exceed the capacity quota.
	ErrNoSpace = errors.New("no space left on device")
)
