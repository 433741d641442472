package storage

import (
	"runtime"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"mit.edu/dsg/godb/common"
)

const maxScanSize = 64

// Amount of entries we loop through before yielding to avoid busy loop.
const strideSize = 64

// BufferPool is the page cache the execution core borrows pages from. It
// keeps "hot" pages in memory with fixed capacity and selectively evicts
// pages to disk when the pool becomes full, using clock-style second-chance
// eviction. The core itself never inspects eviction policy; it only calls
// FetchPage, ReleasePage, and AllocatePage.
type BufferPool struct {
	storageManager DBFileManager
	frames         []PageFrame
	clockHand      uint64
	pageTable      *xsync.MapOf[common.PageID, *PageFrame]
}

// NewBufferPool creates a new BufferPool with a fixed capacity defined by numPages. It requires a
// storageManager to handle the underlying disk I/O operations.
func NewBufferPool(numPages int, storageManager DBFileManager) *BufferPool {
	return &BufferPool{
		storageManager: storageManager,
		frames:         make([]PageFrame, numPages),
		clockHand:      0,
		pageTable:      xsync.NewMapOf[common.PageID, *PageFrame](),
	}
}

// StorageManager returns the underlying disk manager.
func (bp *BufferPool) StorageManager() DBFileManager {
	return bp.storageManager
}

func tryTouchPage(frame *PageFrame, pageID common.PageID) bool {
	frame.Lock()
	defer frame.Unlock()
	// Must check if this is the page we are looking for! Another thread may have evicted the page after we grabbed
	// this page frame but before we locked it.
	if frame.pageID != pageID {
		return false
	}
	frame.pinCount++
	frame.refBit = true
	return true
}

func (bp *BufferPool) findVictim() *PageFrame {
	numFrames := uint64(len(bp.frames))
	numIters := 0
	for {
		for i := uint64(0); i < strideSize; i++ {
			idx := atomic.AddUint64(&bp.clockHand, 1) % numFrames

			frame := &bp.frames[idx]
			if !frame.TryLock() {
				// If someone has locked it, we probably cannot evict it!
				continue
			}

			if frame.pinCount > 0 {
				frame.Unlock()
				continue
			}

			// Stop respecting the ref bit if we have scanned for a while and couldn't find a victim
			if numIters >= maxScanSize || !frame.refBit {
				// Return it LOCKED so the caller can safely swap the contents.
				return frame
			}

			// Second chance: clear refBit, unlock, and move on
			frame.refBit = false
			frame.Unlock()
			numIters++
		}
		runtime.Gosched()
	}
}

func (bp *BufferPool) evict(victim *PageFrame) error {
	// victim should be passed in LOCKED
	if victim.pageID.IsNil() {
		return nil
	}
	// Flush the page while holding the latch so others cannot concurrently load it
	if victim.dirty {
		file, err := bp.storageManager.GetDBFile(victim.pageID.Oid)
		if err != nil {
			// frame is returned LOCKED
			return err
		}
		if err = file.WritePage(int(victim.pageID.PageNum), victim.Bytes[:]); err != nil {
			return err
		}
		victim.dirty = false
	}
	return nil
}

// FetchPage retrieves a page from the buffer pool, pinning it so it cannot be evicted until
// ReleasePage is called. If the page is already cached, the cached frame is returned directly.
// Otherwise the pool selects a victim frame to evict (flushing it first if dirty) and reads the
// requested page from disk into that frame.
func (bp *BufferPool) FetchPage(pageID common.PageID) (*PageFrame, error) {
	for {
		if frame, ok := bp.pageTable.Load(pageID); ok {
			if tryTouchPage(frame, pageID) {
				return frame, nil
			}
			continue
		}

		file, err := bp.storageManager.GetDBFile(pageID.Oid)
		if err != nil {
			return nil, err
		}

		victimFrame := bp.findVictim()
		// victimFrame is returned LOCKED

		// Others may be concurrently loading this page. Attempt to install our victim as the only "official" frame
		// for this PageID before loading. Only the winner loads the page
		actualFrame, loaded := bp.pageTable.LoadOrStore(pageID, victimFrame)

		if loaded {
			// Someone else declared an official frame. We should unlock and wait for them to load it
			victimFrame.Unlock()
			if tryTouchPage(actualFrame, pageID) {
				return actualFrame, nil
			}
			continue
		}

		if err = bp.evict(victimFrame); err != nil {
			victimFrame.Unlock()
			bp.pageTable.Delete(pageID)
			return nil, common.NewGoDBError(common.IoErrorCode, "evicting victim frame: %v", err)
		}

		// Evict AFTER flushing so we don't read the page from disk while flushing it
		bp.pageTable.Delete(victimFrame.pageID)

		if err = file.ReadPage(int(pageID.PageNum), victimFrame.Bytes[:]); err != nil {
			victimFrame.Unlock()
			bp.pageTable.Delete(pageID)
			return nil, common.NewGoDBError(common.IoErrorCode, "reading page %s: %v", pageID.String(), err)
		}

		victimFrame.pageID = pageID
		victimFrame.pinCount = 1
		// Do not initially set the ref bit -- only on second access do we consider it a true hot page
		victimFrame.refBit = false
		victimFrame.dirty = false
		victimFrame.Unlock()
		return victimFrame, nil
	}
}

// ReleasePage indicates that the caller is done using a page. It unpins the page, making the page
// potentially evictable if no other caller is accessing it. If dirty is true, the page is marked as
// modified, ensuring it will be written back to disk before eviction.
func (bp *BufferPool) ReleasePage(frame *PageFrame, dirty bool) {
	frame.Lock()
	defer frame.Unlock()

	common.Assert(frame.pinCount > 0, "attempting to release a page that is not pinned")
	frame.pinCount--
	if dirty {
		frame.dirty = true
	}
}

// AllocatePage grows the table's file by one page, zero-fills it, and returns it pinned and ready
// for the caller to call InitializeSlottedPage on. The returned frame must be released exactly
// like one obtained from FetchPage.
func (bp *BufferPool) AllocatePage(oid common.ObjectID) (*PageFrame, error) {
	file, err := bp.storageManager.GetDBFile(oid)
	if err != nil {
		return nil, err
	}

	pageNum, err := file.AllocatePage(1)
	if err != nil {
		return nil, common.NewGoDBError(common.IoErrorCode, "allocating page: %v", err)
	}

	pageID := common.PageID{Oid: oid, PageNum: int32(pageNum)}
	return bp.FetchPage(pageID)
}

// FlushAllPages flushes every dirty page to disk regardless of pins. Typically called during an
// orderly shutdown to ensure durability, and useful for tests that want to inspect on-disk state.
func (bp *BufferPool) FlushAllPages() error {
	for i := 0; i < len(bp.frames); i++ {
		frame := &bp.frames[i]
		frame.Lock()

		if frame.pageID.IsNil() || !frame.dirty {
			frame.Unlock()
			continue
		}

		// Flush under Read latch and pin to avoid concurrent modification or eviction
		frame.pinCount++
		pageID := frame.pageID
		frame.PageLatch.RLock()
		frame.Unlock()

		file, err := bp.storageManager.GetDBFile(frame.pageID.Oid)
		if err != nil {
			return err
		}
		if err = file.WritePage(int(pageID.PageNum), frame.Bytes[:]); err != nil {
			return err
		}

		frame.Lock()
		common.Assert(frame.pageID == pageID, "pageID should not change during flush")
		frame.pinCount--
		frame.dirty = false
		frame.PageLatch.RUnlock()
		frame.Unlock()
	}
	return nil
}
