//go:build !linux

package watcher

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"fileguard/internal/event"
)

// fsnotifyHandle adapts an fsnotify watch to the raw-record Read contract.
// Incoming events are re-encoded as wire records so the dispatcher's decode
// path is identical on every platform.
type fsnotifyHandle struct {
	path    string
	watcher *fsnotify.Watcher
	records chan []byte
	done    chan struct{}
	once    sync.Once

	pending []byte
}

// Open subscribes path through fsnotify.
func Open(path string) (Handle, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("%w: %q: %v", ErrSubscribe, path, err)
	}

	handle := &fsnotifyHandle{
		path:    path,
		watcher: watcher,
		records: make(chan []byte, 64),
		done:    make(chan struct{}),
	}
	go handle.encodeLoop()
	return handle, nil
}

func (handle *fsnotifyHandle) encodeLoop() {
	for {
		select {
		case <-handle.done:
			return
		case notification, ok := <-handle.watcher.Events:
			if !ok {
				return
			}
			mask := opMask(notification.Op)
			if mask == 0 {
				continue
			}
			payload := append([]byte(filepath.Base(notification.Name)), 0)
			record := event.AppendRecord(nil, mask, 0, payload)
			select {
			case handle.records <- record:
			case <-handle.done:
				return
			}
		case _, ok := <-handle.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (handle *fsnotifyHandle) Read(buf []byte) (int, error) {
	if len(handle.pending) == 0 {
		select {
		case <-handle.done:
			return 0, ErrClosed
		case record := <-handle.records:
			handle.pending = record
		}
	}
	count := copy(buf, handle.pending)
	handle.pending = handle.pending[count:]
	return count, nil
}

// Close releases the fsnotify watch. Idempotent; a blocked Read returns
// ErrClosed.
func (handle *fsnotifyHandle) Close() error {
	var err error
	handle.once.Do(func() {
		close(handle.done)
		err = handle.watcher.Close()
	})
	return err
}

func (handle *fsnotifyHandle) Path() string {
	return handle.path
}
