//go:build linux

package watcher

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

type inotifyHandle struct {
	path string

	mutex  sync.Mutex
	closed bool
	fd     int
	wd     int32
}

// Open subscribes path to the full event set through a dedicated inotify
// descriptor.
func Open(path string) (Handle, error) {
	fd, err := unix.InotifyInit1(0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}

	wd, err := unix.InotifyAddWatch(fd, path, unix.IN_ALL_EVENTS)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: %q: %v", ErrSubscribe, path, err)
	}

	return &inotifyHandle{
		path: path,
		fd:   fd,
		wd:   int32(wd),
	}, nil
}

func (handle *inotifyHandle) Read(buf []byte) (int, error) {
	for {
		count, err := unix.Read(handle.fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			handle.mutex.Lock()
			closed := handle.closed
			handle.mutex.Unlock()
			if closed {
				return 0, ErrClosed
			}
			return 0, fmt.Errorf("watcher: read: %w", err)
		}
		return count, nil
	}
}

// Close removes the watch and releases the descriptor. Safe to call more
// than once and safe to call while a Read is blocked; the blocked Read
// returns ErrClosed.
func (handle *inotifyHandle) Close() error {
	handle.mutex.Lock()
	defer handle.mutex.Unlock()
	if handle.closed {
		return nil
	}
	handle.closed = true

	// The watch dies with the descriptor anyway; removing it first keeps
	// the kernel from queueing further records while we tear down.
	_, _ = unix.InotifyRmWatch(handle.fd, uint32(handle.wd))
	return unix.Close(handle.fd)
}

func (handle *inotifyHandle) Path() string {
	return handle.path
}
