package watcher

import (
	"github.com/fsnotify/fsnotify"

	"fileguard/internal/event"
)

// opMask maps a portable fsnotify op onto the wire event bits. Platforms
// without inotify only observe this reduced vocabulary.
func opMask(op fsnotify.Op) uint32 {
	var mask uint32
	if op.Has(fsnotify.Create) {
		mask |= event.MaskCreate
	}
	if op.Has(fsnotify.Write) {
		mask |= event.MaskModify
	}
	if op.Has(fsnotify.Remove) {
		mask |= event.MaskDelete
	}
	if op.Has(fsnotify.Rename) {
		mask |= event.MaskMovedFrom
	}
	if op.Has(fsnotify.Chmod) {
		mask |= event.MaskAttrib
	}
	return mask
}
