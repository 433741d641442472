package storage

import (
	"encoding/binary"
	"sync"

	"mit.edu/dsg/godb/common"
)

// pageFrameMetadata holds the buffer-pool bookkeeping for a page frame. It is
// deliberately kept separate from the page bytes: the core never inspects it,
// it exists purely so the page cache can pin/evict frames.
type pageFrameMetadata struct {
	pageID   common.PageID
	pinCount int
	refBit   bool
	dirty    bool
	sync.Mutex
}

// PageFrame is a fixed-size, mutable byte buffer holding the physical contents
// of one page. The core borrows a PageFrame for the duration of one logical
// operation; it does not own the memory and must not retain a reference to it
// past a ReleasePage call.
type PageFrame struct {
	// Bytes holds the raw physical data of the page.
	Bytes [common.PageSize]byte
	// PageLatch protects the content of the page from concurrent access.
	PageLatch sync.RWMutex

	pageFrameMetadata
}

// PageNum returns the page number this frame is currently bound to.
func (frame *PageFrame) PageNum() int32 {
	return frame.pageID.PageNum
}

// ReadUint16 reads a big-endian unsigned 16-bit value at the given byte offset.
func (frame *PageFrame) ReadUint16(offset int) uint16 {
	common.Assert(offset >= 0 && offset+2 <= common.PageSize, "ReadUint16: offset %d out of bounds", offset)
	return binary.BigEndian.Uint16(frame.Bytes[offset:])
}

// WriteUint16 writes v as a big-endian unsigned 16-bit value at the given byte offset.
func (frame *PageFrame) WriteUint16(offset int, v uint16) {
	common.Assert(offset >= 0 && offset+2 <= common.PageSize, "WriteUint16: offset %d out of bounds", offset)
	binary.BigEndian.PutUint16(frame.Bytes[offset:], v)
}

// ReadInt32 reads a big-endian signed 32-bit value at the given byte offset.
func (frame *PageFrame) ReadInt32(offset int) int32 {
	common.Assert(offset >= 0 && offset+4 <= common.PageSize, "ReadInt32: offset %d out of bounds", offset)
	return int32(binary.BigEndian.Uint32(frame.Bytes[offset:]))
}

// WriteInt32 writes v as a big-endian signed 32-bit value at the given byte offset.
func (frame *PageFrame) WriteInt32(offset int, v int32) {
	common.Assert(offset >= 0 && offset+4 <= common.PageSize, "WriteInt32: offset %d out of bounds", offset)
	binary.BigEndian.PutUint32(frame.Bytes[offset:], uint32(v))
}

// ReadValue reads a tagged common.Value of the supplied type at the given offset.
// This is the hook concrete data-type encodings plug in through; the page itself knows
// nothing about value representations beyond raw bytes.
func (frame *PageFrame) ReadValue(offset int, t common.Type) common.Value {
	return common.AsValue(t, frame.Bytes[offset:])
}

// WriteValue writes a tagged common.Value at the given offset.
func (frame *PageFrame) WriteValue(offset int, v common.Value) {
	v.WriteTo(frame.Bytes[offset:])
}

// RawBytes returns the full backing array for bulk moves (slides, zeroing, copies).
func (frame *PageFrame) RawBytes() []byte {
	return frame.Bytes[:]
}

// Size returns the fixed size of the page in bytes.
func (frame *PageFrame) Size() int {
	return common.PageSize
}

// Page is the minimal capability the slotted-page layout needs from a
// physical page buffer: byte-addressable reads/writes of the slot directory
// header, and raw access to the backing array for bulk moves. PageFrame is
// the production implementation; tests may supply a smaller buffer to
// exercise layout edge cases without the overhead of a full-size page.
type Page interface {
	Size() int
	ReadUint16(offset int) uint16
	WriteUint16(offset int, v uint16)
	RawBytes() []byte
}
