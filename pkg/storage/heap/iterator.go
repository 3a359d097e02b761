package heap

import (
	"minidb/pkg/primitives"
)

// Record is one live heap entry: its RID and a view of its serialized
// bytes. The view is valid until the iterator advances to another page
// or is closed.
type Record struct {
	RID  primitives.RID
	Data []byte
}

// Iterator walks every live record of a heap file in page order, slot
// order within a page. The current page stays pinned while records from
// it are being yielded and is unpinned on advance; Close unpins whatever
// page is still held.
//
// The iterator borrows the file. Inserts or deletes performed while
// iterating give implementation-defined visibility.
type Iterator struct {
	file     *File
	pid      primitives.PageID
	slot     int
	sp       *SlottedPage
	pinned   bool
	finished bool
}

func newIterator(f *File) *Iterator {
	return &Iterator{file: f}
}

// Next returns the next live record, or nil when the scan is exhausted.
func (it *Iterator) Next() (*Record, error) {
	if it.finished {
		return nil, nil
	}
	for {
		if !it.pinned {
			if it.pid >= it.file.pageCount {
				it.finished = true
				return nil, nil
			}
			pg, err := it.file.pool.FetchPage(it.pid)
			if err != nil {
				it.finished = true
				return nil, err
			}
			it.sp = AsSlotted(pg)
			it.pinned = true
			it.slot = 0
		}

		for it.slot < it.sp.directorySlots() {
			slot := primitives.SlotID(it.slot)
			it.slot++
			if data := it.sp.Get(slot); data != nil {
				return &Record{RID: primitives.RID{PageID: it.pid, SlotID: slot}, Data: data}, nil
			}
		}

		it.file.pool.UnpinPage(it.pid, false)
		it.pinned = false
		it.sp = nil
		it.pid++
	}
}

// Close releases the currently pinned page, if any. Safe to call more
// than once.
func (it *Iterator) Close() {
	if it.pinned {
		it.file.pool.UnpinPage(it.pid, false)
		it.pinned = false
		it.sp = nil
	}
	it.finished = true
}
