// Package flashfs provides the quota-managed file store behind the console's
// filesystem verbs.
//
// On the microcontroller-class devices this agent mirrors, files live on a
// small SPI flash partition with explicit mount/unmount/format lifecycle and
// a hard capacity ceiling. The agent reproduces that model on top of a plain
// directory: a Store is bound to a root directory and a capacity in bytes,
// and refuses writes that would push usage past the ceiling.
//
// # Lifecycle
//
// A Store starts unmounted. Mount creates the root directory if needed and
// enables all file operations; Unmount disables them again without touching
// the data. Format wipes every entry and requires the store to be unmounted
// first, matching the console's umount-then-format flow.
//
// # Paths
//
// All paths are absolute within the store ("/hello.txt", "/conf/mqtt").
// Dotfiles are ordinary files; listing returns them and callers decide
// whether to display them. Traversal outside the root is rejected.
//
// # Thread Safety
//
// A Store is not safe for concurrent use. The agent drives it from the
// single cooperative loop, which is the only writer.
package flashfs
