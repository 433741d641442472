package storage

import (
	"mit.edu/dsg/godb/common"
)

// HeapFile ties a RawTupleCodec, a BufferPool, and the slotted-page layout
// together into insert/delete/read operations over one on-disk table. It
// holds no transactional state: callers needing isolation or durability
// across crashes are expected to layer that on top.
type HeapFile struct {
	oid        common.ObjectID
	codec      *RawTupleCodec
	bufferPool *BufferPool

	// tailPage is a hint for where to try inserting next, not a source of
	// truth -- it may lag behind the file's true page count under concurrent
	// inserts, in which case InsertTuple simply allocates past it.
	tailPage int32
}

// NewHeapFile opens (or creates, if empty) the heap file for oid. A freshly
// created file starts with a single, empty slotted page.
func NewHeapFile(oid common.ObjectID, codec *RawTupleCodec, bufferPool *BufferPool) (*HeapFile, error) {
	hf := &HeapFile{oid: oid, codec: codec, bufferPool: bufferPool}

	file, err := bufferPool.StorageManager().GetDBFile(oid)
	if err != nil {
		return nil, err
	}

	numPages, err := file.NumPages()
	if err != nil {
		return nil, err
	}

	if numPages == 0 {
		frame, err := bufferPool.AllocatePage(oid)
		if err != nil {
			return nil, err
		}
		InitializeSlottedPage(frame)
		bufferPool.ReleasePage(frame, true)
		hf.tailPage = 0
		return hf, nil
	}

	hf.tailPage = int32(numPages - 1)
	return hf, nil
}

// Codec returns the physical row layout used by this heap file.
func (hf *HeapFile) Codec() *RawTupleCodec {
	return hf.codec
}

// NumPages returns the current number of pages backing this heap file.
func (hf *HeapFile) NumPages() (int, error) {
	file, err := hf.bufferPool.StorageManager().GetDBFile(hf.oid)
	if err != nil {
		return 0, err
	}
	return file.NumPages()
}

// InsertTuple appends row to the heap file, preferring the current tail page
// and allocating a new page when it is full. The returned RecordID is the
// tuple's permanent identity until it is deleted.
func (hf *HeapFile) InsertTuple(row RawTuple) (common.RecordID, error) {
	common.Assert(len(row) == hf.codec.BytesPerTuple(), "row length %d does not match codec's %d bytes per tuple", len(row), hf.codec.BytesPerTuple())

	for {
		pageID := common.PageID{Oid: hf.oid, PageNum: hf.tailPage}
		frame, err := hf.bufferPool.FetchPage(pageID)
		if err != nil {
			return common.RecordID{}, err
		}

		frame.PageLatch.Lock()
		sp := AsSlottedPage(frame)
		slot, err := sp.AllocateTuple(len(row))
		if err == nil {
			copy(sp.TupleBytes(slot), row)
		}
		frame.PageLatch.Unlock()

		if err == nil {
			hf.bufferPool.ReleasePage(frame, true)
			return common.RecordID{PageID: pageID, Slot: int32(slot)}, nil
		}

		hf.bufferPool.ReleasePage(frame, false)
		if !common.IsCode(err, common.NoPageSpaceError) {
			return common.RecordID{}, err
		}

		// Page is full: allocate a new tail page and retry against it. A
		// fresh page is allocated even if another inserter has already
		// advanced the tail.
		newFrame, err := hf.bufferPool.AllocatePage(hf.oid)
		if err != nil {
			return common.RecordID{}, err
		}
		InitializeSlottedPage(newFrame)
		newTail := newFrame.PageNum()
		hf.bufferPool.ReleasePage(newFrame, true)
		hf.tailPage = newTail
	}
}

// DeleteTuple removes the tuple identified by rid from the heap file.
func (hf *HeapFile) DeleteTuple(rid common.RecordID) error {
	frame, err := hf.bufferPool.FetchPage(rid.PageID)
	if err != nil {
		return err
	}
	defer hf.bufferPool.ReleasePage(frame, true)

	frame.PageLatch.Lock()
	defer frame.PageLatch.Unlock()
	AsSlottedPage(frame).DeleteTuple(int(rid.Slot))
	return nil
}

// ReadTuple returns a Tuple view over the bytes stored at rid. The bytes are
// copied out of the page before it is released, so the result remains valid
// after the call returns.
func (hf *HeapFile) ReadTuple(rid common.RecordID) (Tuple, error) {
	frame, err := hf.bufferPool.FetchPage(rid.PageID)
	if err != nil {
		return Tuple{}, err
	}
	defer hf.bufferPool.ReleasePage(frame, false)

	frame.PageLatch.RLock()
	defer frame.PageLatch.RUnlock()
	raw := AsSlottedPage(frame).TupleBytes(int(rid.Slot))
	owned := make(RawTuple, len(raw))
	copy(owned, raw)
	return FromRawTuple(owned, hf.codec, rid), nil
}
