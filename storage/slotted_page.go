package storage

import "mit.edu/dsg/godb/common"

// Slotted-page layout:
//
//	byte 0..1     : numSlots (unsigned 16-bit)
//	byte 2..2N+1  : N slot entries, each an unsigned 16-bit offset into the
//	                page pointing at the first byte of that slot's tuple,
//	                or the sentinel 0 meaning "empty slot"
//	...free space...
//	high end      : tuple bodies, packed downward; earlier slots have HIGHER
//	                offsets than later slots among non-empty slots
//
// Offset 0 is reserved for numSlots, so 0 is never a valid tuple offset and
// doubles unambiguously as the empty-slot sentinel.
const (
	offsetNumSlots = 0
	emptySlot      = 0
)

// SlottedPage manages the slot directory and tuple heap inside one physical
// page. None of its operations perform I/O; the caller is responsible for
// fetching and releasing the underlying Page.
type SlottedPage struct {
	Page
}

// AsSlottedPage wraps an already-initialized Page for slot-directory access.
func AsSlottedPage(p Page) SlottedPage {
	return SlottedPage{Page: p}
}

// InitializeSlottedPage sets numSlots to 0 on a freshly allocated page. The
// layout invariants hold trivially on an empty page.
func InitializeSlottedPage(p Page) {
	p.WriteUint16(offsetNumSlots, 0)
}

// NumSlots returns the number of slot-directory entries, live or empty.
func (sp SlottedPage) NumSlots() int {
	return int(sp.ReadUint16(offsetNumSlots))
}

func (sp SlottedPage) setNumSlots(n int) {
	sp.WriteUint16(offsetNumSlots, uint16(n))
}

// slotsEndIndex returns the byte offset just past the slot directory: the
// count at the start is two bytes, and each slot's offset is two bytes.
func (sp SlottedPage) slotsEndIndex() int {
	return 2 * (sp.NumSlots() + 1)
}

// SlotOffset returns the tuple offset stored at slot i, or 0 if the slot is empty.
func (sp SlottedPage) SlotOffset(i int) int {
	numSlots := sp.NumSlots()
	if i < 0 || i >= numSlots {
		panic(common.NewGoDBError(common.BadSlotError,
			"valid slots are in range [0, %d), got %d", numSlots, i))
	}
	return int(sp.ReadUint16(2 * (i + 1)))
}

func (sp SlottedPage) setSlotOffset(i int, offset int) {
	numSlots := sp.NumSlots()
	if i < 0 || i >= numSlots {
		panic(common.NewGoDBError(common.BadSlotError,
			"valid slots are in range [0, %d), got %d", numSlots, i))
	}
	sp.WriteUint16(2*(i+1), uint16(offset))
}

// TupleDataStart returns the lowest offset occupied by a live tuple, scanning
// from the last slot downward until a non-empty one is found. If the page
// holds no live tuples, it returns the page size.
func (sp SlottedPage) TupleDataStart() int {
	numSlots := sp.NumSlots()
	dataStart := sp.Size()

	for slot := numSlots - 1; slot >= 0; slot-- {
		if offset := sp.SlotOffset(slot); offset != emptySlot {
			dataStart = offset
			break
		}
	}
	return dataStart
}

// TupleLength returns the length of the tuple occupying slot i, computed by
// walking toward lower slot indices for the nearest non-empty predecessor
// (earlier slots have higher offsets); if none is found, slot i holds the
// highest-offset tuple and its length runs to the end of the page.
//
// The caller is told the true valid slot range on failure, not the slot
// index itself -- reporting the index back as the bound would tell the
// caller nothing about what a valid slot looks like.
func (sp SlottedPage) TupleLength(i int) int {
	numSlots := sp.NumSlots()
	if i < 0 || i >= numSlots {
		panic(common.NewGoDBError(common.BadSlotError,
			"valid slots are in range [0, %d), got %d", numSlots, i))
	}

	tupleStart := sp.SlotOffset(i)
	if tupleStart == emptySlot {
		panic(common.NewGoDBError(common.EmptySlotError, "slot %d is empty", i))
	}

	for prev := i - 1; prev >= 0; prev-- {
		if prevStart := sp.SlotOffset(prev); prevStart != emptySlot {
			// Earlier slots have higher offsets, so this is positive.
			return prevStart - tupleStart
		}
	}

	// Slot i held the last (highest-offset) tuple in the page.
	return sp.Size() - tupleStart
}

// FreeSpace returns the number of unused bytes between the slot directory
// and the tuple heap.
func (sp SlottedPage) FreeSpace() int {
	return sp.TupleDataStart() - sp.slotsEndIndex()
}

// insertTupleDataRange slides tuple data below off down by len bytes,
// creating a zeroed gap at [off-len, off), and shifts every affected slot's
// offset to track the tuples it points at.
func (sp SlottedPage) insertTupleDataRange(off int, length int) {
	tupDataStart := sp.TupleDataStart()

	if off < tupDataStart {
		panic(common.NewGoDBError(common.BadRangeError,
			"offset %d is not in the tuple-data region (data starts at %d)", off, tupDataStart))
	}
	if length < 0 {
		panic(common.NewGoDBError(common.BadRangeError, "length must not be negative, got %d", length))
	}
	if length > sp.FreeSpace() {
		panic(common.NewGoDBError(common.BadRangeError,
			"length %d exceeds free space in page (%d bytes)", length, sp.FreeSpace()))
	}

	data := sp.RawBytes()

	if off > tupDataStart {
		copy(data[tupDataStart-length:off-length], data[tupDataStart:off])
	}

	startOff := off - length
	for i := 0; i < length; i++ {
		data[startOff+i] = 0
	}

	numSlots := sp.NumSlots()
	for slot := 0; slot < numSlots; slot++ {
		offset := sp.SlotOffset(slot)
		if offset == emptySlot {
			continue
		}
		if offset < off {
			sp.setSlotOffset(slot, offset-length)
		}
	}
}

// deleteTupleDataRange slides tuple data below off up by len bytes, closing
// the gap left by a deleted tuple, and shifts every affected slot's offset.
func (sp SlottedPage) deleteTupleDataRange(off int, length int) {
	tupDataStart := sp.TupleDataStart()

	if off < tupDataStart {
		panic(common.NewGoDBError(common.BadRangeError,
			"offset %d is not in the tuple-data region (data starts at %d)", off, tupDataStart))
	}
	if length < 0 {
		panic(common.NewGoDBError(common.BadRangeError, "length must not be negative, got %d", length))
	}
	if sp.Size()-off < length {
		panic(common.NewGoDBError(common.BadRangeError,
			"length %d exceeds occupied tuple data (%d bytes)", length, sp.Size()-off))
	}

	data := sp.RawBytes()
	copy(data[tupDataStart+length:off+length], data[tupDataStart:off])

	numSlots := sp.NumSlots()
	for slot := 0; slot < numSlots; slot++ {
		offset := sp.SlotOffset(slot)
		if offset == emptySlot {
			continue
		}
		if offset <= off {
			// The victim's own slot is included here -- it is cleared by the
			// caller right after this call returns.
			sp.setSlotOffset(slot, offset+length)
		}
	}
}

// AllocateTuple reserves len bytes of tuple-heap space and returns the slot
// index assigned to it. The new space is zero-filled; the caller writes the
// tuple's bytes in afterward. It fails with NoPageSpaceError if the page
// cannot satisfy the request -- an expected condition the caller should
// handle by allocating on a new page.
func (sp SlottedPage) AllocateTuple(length int) (int, error) {
	if length < 0 {
		panic(common.NewGoDBError(common.BadRangeError, "length must be nonnegative, got %d", length))
	}

	numSlots := sp.NumSlots()

	// newTupleEnd tracks where the new tuple should end: it starts at the
	// page size and is pulled down past each live tuple until either an
	// empty slot is found or the slot list is exhausted. Because non-empty
	// slots are stored in decreasing offset order, the first empty slot we
	// hit is guaranteed to need no offset past it -- later non-empty slots
	// (if any) are already below every earlier one.
	newTupleEnd := sp.Size()
	slot := 0
	for ; slot < numSlots; slot++ {
		offset := sp.SlotOffset(slot)
		if offset == emptySlot {
			break
		}
		newTupleEnd = offset
	}

	spaceNeeded := length
	if slot == numSlots {
		spaceNeeded += 2
	}
	if spaceNeeded > sp.FreeSpace() {
		return 0, common.NewGoDBError(common.NoPageSpaceError,
			"need %d bytes for new tuple, only %d available", spaceNeeded, sp.FreeSpace())
	}

	if slot == numSlots {
		numSlots++
		sp.setNumSlots(numSlots)
	}

	newTupleStart := newTupleEnd - length

	// Slide existing tuple data to make room before recording the new
	// slot's offset: insertTupleDataRange only rewrites slots that already
	// have a live offset, so doing this first would have nothing to
	// clobber. Doing it the other way around would immediately shift the
	// new slot's own offset by -length.
	sp.insertTupleDataRange(newTupleEnd, length)
	sp.setSlotOffset(slot, newTupleStart)

	return slot, nil
}

// DeleteTuple removes the tuple at slot i, closing the gap it leaves in the
// tuple heap and marking the slot empty. Trailing empty slots are trimmed
// from the end of the directory.
func (sp SlottedPage) DeleteTuple(i int) {
	numSlots := sp.NumSlots()
	if i < 0 || i >= numSlots {
		panic(common.NewGoDBError(common.BadSlotError,
			"valid slots are in range [0, %d), got %d", numSlots, i))
	}

	tupleStart := sp.SlotOffset(i)
	if tupleStart == emptySlot {
		panic(common.NewGoDBError(common.EmptySlotError, "slot %d is already deleted", i))
	}
	length := sp.TupleLength(i)

	sp.deleteTupleDataRange(tupleStart, length)
	sp.setSlotOffset(i, emptySlot)

	for slot := numSlots - 1; slot >= 0; slot-- {
		if sp.SlotOffset(slot) != emptySlot {
			break
		}
		numSlots--
	}
	if numSlots != sp.NumSlots() {
		sp.setNumSlots(numSlots)
	}
}

// TupleBytes returns the raw byte range backing the tuple at slot i. Callers
// must not retain the returned slice past the page's pin.
func (sp SlottedPage) TupleBytes(i int) []byte {
	start := sp.SlotOffset(i)
	if start == emptySlot {
		panic(common.NewGoDBError(common.EmptySlotError, "slot %d is empty", i))
	}
	length := sp.TupleLength(i)
	return sp.RawBytes()[start : start+length]
}
