// Package event defines the canonical filesystem event vocabulary and the
// decoder for raw notification records.
package event

// Canonical event names. The set is closed: configuration naming anything
// else is rejected at load time.
const (
	Access       = "IN_ACCESS"
	Attrib       = "IN_ATTRIB"
	CloseWrite   = "IN_CLOSE_WRITE"
	CloseNoWrite = "IN_CLOSE_NOWRITE"
	Create       = "IN_CREATE"
	Delete       = "IN_DELETE"
	DeleteSelf   = "IN_DELETE_SELF"
	Modify       = "IN_MODIFY"
	MoveSelf     = "IN_MOVE_SELF"
	MovedFrom    = "IN_MOVED_FROM"
	MovedTo      = "IN_MOVED_TO"
	Open         = "IN_OPEN"
	Unmount      = "IN_UNMOUNT"
)

// Unrecognized marks a record whose type code has no canonical name.
const Unrecognized = "UNRECOGNIZED"

// Event type bits as they appear on the inotify wire. Declared locally so
// decoding stays portable across build targets.
const (
	MaskAccess       uint32 = 0x00000001
	MaskModify       uint32 = 0x00000002
	MaskAttrib       uint32 = 0x00000004
	MaskCloseWrite   uint32 = 0x00000008
	MaskCloseNoWrite uint32 = 0x00000010
	MaskOpen         uint32 = 0x00000020
	MaskMovedFrom    uint32 = 0x00000040
	MaskMovedTo      uint32 = 0x00000080
	MaskCreate       uint32 = 0x00000100
	MaskDelete       uint32 = 0x00000200
	MaskDeleteSelf   uint32 = 0x00000400
	MaskMoveSelf     uint32 = 0x00000800
	MaskUnmount      uint32 = 0x00002000

	// MaskAll covers every event bit the vocabulary names.
	MaskAll = MaskAccess | MaskModify | MaskAttrib | MaskCloseWrite |
		MaskCloseNoWrite | MaskOpen | MaskMovedFrom | MaskMovedTo |
		MaskCreate | MaskDelete | MaskDeleteSelf | MaskMoveSelf | MaskUnmount
)

var maskNames = map[uint32]string{
	MaskAccess:       Access,
	MaskModify:       Modify,
	MaskAttrib:       Attrib,
	MaskCloseWrite:   CloseWrite,
	MaskCloseNoWrite: CloseNoWrite,
	MaskOpen:         Open,
	MaskMovedFrom:    MovedFrom,
	MaskMovedTo:      MovedTo,
	MaskCreate:       Create,
	MaskDelete:       Delete,
	MaskDeleteSelf:   DeleteSelf,
	MaskMoveSelf:     MoveSelf,
	MaskUnmount:      Unmount,
}

var names = map[string]struct{}{
	Access:       {},
	Attrib:       {},
	CloseWrite:   {},
	CloseNoWrite: {},
	Create:       {},
	Delete:       {},
	DeleteSelf:   {},
	Modify:       {},
	MoveSelf:     {},
	MovedFrom:    {},
	MovedTo:      {},
	Open:         {},
	Unmount:      {},
}

var maskOrder = []uint32{
	MaskAccess, MaskAttrib, MaskCloseWrite, MaskCloseNoWrite, MaskCreate,
	MaskDelete, MaskDeleteSelf, MaskModify, MaskMoveSelf, MaskMovedFrom,
	MaskMovedTo, MaskOpen, MaskUnmount,
}

// Lookup maps a record's event bits to its canonical name. A mask carrying
// none of the known bits yields Unrecognized and false. When several event
// bits are set the first in vocabulary order wins.
func Lookup(mask uint32) (string, bool) {
	if name, ok := maskNames[mask&MaskAll]; ok {
		return name, true
	}
	// A record may carry extra flag bits alongside the event bit.
	for _, bit := range maskOrder {
		if mask&bit != 0 {
			return maskNames[bit], true
		}
	}
	return Unrecognized, false
}

// Supported reports whether name is one of the canonical event names.
// Matching is exact and case-sensitive.
func Supported(name string) bool {
	_, ok := names[name]
	return ok
}

// Names returns the canonical vocabulary in a stable order.
func Names() []string {
	return []string{
		Access, Attrib, CloseWrite, CloseNoWrite, Create, Delete,
		DeleteSelf, Modify, MoveSelf, MovedFrom, MovedTo, Open, Unmount,
	}
}
