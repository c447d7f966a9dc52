// Package watcher owns the OS watch subscription for the configured inode.
//
// On Linux the handle wraps a raw inotify descriptor and its Read returns
// wire records straight from the kernel. On other platforms an
// fsnotify-backed handle re-encodes events into the same wire format, so the
// dispatcher decodes one representation everywhere.
package watcher

import "errors"

var (
	// ErrInit reports that the notification subsystem could not be
	// initialized.
	ErrInit = errors.New("watcher: notification subsystem unavailable")
	// ErrSubscribe reports that the target path could not be subscribed.
	ErrSubscribe = errors.New("watcher: cannot subscribe path")
	// ErrClosed reports a read against a released handle.
	ErrClosed = errors.New("watcher: handle closed")
)

// ReadBufferSize holds a full read burst of back-to-back records, name
// payloads included.
const ReadBufferSize = 64 * 1024

// Handle is one open watch subscription. Close is idempotent: both the
// error path and the shutdown path may release it, and releasing it during
// a blocking Read unblocks that Read.
type Handle interface {
	// Read blocks until notification bytes arrive and reports how many
	// bytes of buf are valid. A zero count is informational, not an error.
	Read(buf []byte) (int, error)
	Close() error
	Path() string
}
