package storage

import (
	"mit.edu/dsg/godb/common"
)

// TupleCursor walks the live tuples of a HeapFile in RecordID order: by
// increasing page number, then by increasing slot index within a page. It
// is the primitive a table-scan plan node is built on; it keeps no
// execution state of its own (no position, marks, or re-initialization):
// callers pass in the position to continue from.
type TupleCursor struct {
	heapFile *HeapFile
}

// NewTupleCursor returns a cursor over heapFile.
func NewTupleCursor(heapFile *HeapFile) *TupleCursor {
	return &TupleCursor{heapFile: heapFile}
}

// First returns the RecordID of the first live tuple in the file. ok is
// false if the file contains no tuples at all.
func (c *TupleCursor) First() (rid common.RecordID, ok bool, err error) {
	return c.scanFrom(0, -1)
}

// NextAfter returns the RecordID of the first live tuple strictly after
// position, scanning forward across page boundaries as needed. ok is false
// once the end of the file is reached.
func (c *TupleCursor) NextAfter(position common.RecordID) (rid common.RecordID, ok bool, err error) {
	return c.scanFrom(position.PageID.PageNum, position.Slot)
}

// TupleAt materializes the tuple at position. The caller is responsible for
// knowing the position is live, e.g. because it was produced by First or
// NextAfter.
func (c *TupleCursor) TupleAt(position common.RecordID) (Tuple, error) {
	return c.heapFile.ReadTuple(position)
}

func (c *TupleCursor) scanFrom(startPage int32, afterSlot int32) (common.RecordID, bool, error) {
	numPages, err := c.heapFile.NumPages()
	if err != nil {
		return common.RecordID{}, false, err
	}

	for pageNum := startPage; int(pageNum) < numPages; pageNum++ {
		pageID := common.PageID{Oid: c.heapFile.oid, PageNum: pageNum}
		frame, err := c.heapFile.bufferPool.FetchPage(pageID)
		if err != nil {
			return common.RecordID{}, false, err
		}

		frame.PageLatch.RLock()
		sp := AsSlottedPage(frame)
		numSlots := sp.NumSlots()

		from := 0
		if pageNum == startPage {
			from = int(afterSlot) + 1
		}

		foundSlot := -1
		for slot := from; slot < numSlots; slot++ {
			if sp.SlotOffset(slot) != emptySlot {
				foundSlot = slot
				break
			}
		}
		frame.PageLatch.RUnlock()
		c.heapFile.bufferPool.ReleasePage(frame, false)

		if foundSlot != -1 {
			return common.RecordID{PageID: pageID, Slot: int32(foundSlot)}, true, nil
		}
	}

	return common.RecordID{}, false, nil
}
