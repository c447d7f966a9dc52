package event

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed portion of one wire record: watch descriptor
// (int32), mask, cookie, and payload length (uint32 each), little-endian.
const HeaderSize = 16

// ErrTruncatedRecord reports a buffer that ends inside a record.
var ErrTruncatedRecord = fmt.Errorf("event: truncated notification record")

// Event is one decoded notification record. RawLen is the size of the
// variable-length payload following the header; the payload bytes themselves
// are never interpreted, only skipped.
type Event struct {
	Name   string
	Mask   uint32
	Cookie uint32
	RawLen uint32
}

// Cursor walks back-to-back wire records in one notification buffer. It is
// scoped to a single read: bind it to the bytes that read reported valid.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a cursor over buf, which must hold only bytes the read
// call reported as valid.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// More reports whether any undecoded bytes remain.
func (c *Cursor) More() bool {
	return c != nil && c.off < len(c.buf)
}

// Offset returns the current decode position.
func (c *Cursor) Offset() int {
	if c == nil {
		return 0
	}
	return c.off
}

// Next decodes the record at the cursor and advances past its payload. The
// new offset is always strictly greater than the old one, so a finite buffer
// terminates. An unrecognized type code still advances; it is reported
// through Event.Name, not as an error.
func (c *Cursor) Next() (Event, error) {
	if c == nil || c.off+HeaderSize > len(c.buf) {
		return Event{}, ErrTruncatedRecord
	}

	header := c.buf[c.off:]
	mask := binary.LittleEndian.Uint32(header[4:8])
	cookie := binary.LittleEndian.Uint32(header[8:12])
	rawLen := binary.LittleEndian.Uint32(header[12:16])

	next := c.off + HeaderSize + int(rawLen)
	if next > len(c.buf) {
		return Event{}, ErrTruncatedRecord
	}
	c.off = next

	name, _ := Lookup(mask)
	return Event{
		Name:   name,
		Mask:   mask,
		Cookie: cookie,
		RawLen: rawLen,
	}, nil
}

// AppendRecord encodes one wire record onto dst. The watch descriptor is
// fixed at zero; payload is copied verbatim and its length recorded in the
// header. Used by the portable watch backend and by tests.
func AppendRecord(dst []byte, mask, cookie uint32, payload []byte) []byte {
	var header [HeaderSize]byte
	binary.LittleEndian.PutUint32(header[4:8], mask)
	binary.LittleEndian.PutUint32(header[8:12], cookie)
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(payload)))
	dst = append(dst, header[:]...)
	return append(dst, payload...)
}
