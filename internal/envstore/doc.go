// Package envstore persists subsystem settings as dotfiles on the flash
// store.
//
// Each subsystem owns one record named after it: the value of record "mqtt"
// lives in the file "/.mqtt". Values are opaque text; most subsystems store
// a kvconf blob, while "ntp" and "tz" hold raw strings and "led" a compact
// Pin:<n>[,inverted] form for which this package provides a typed codec.
//
// When the flash store is unmounted every operation fails with
// flashfs.ErrNotMounted and callers surface the usual "no FS" message.
package envstore
