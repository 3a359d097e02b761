// Package heap implements the slotted page layout and the multi-page heap
// file that stores a table's rows.
//
// Slotted page layout:
//   - Header (6 bytes): num_slots:u16, free_space_start:u16,
//     free_space_end:u16, all little-endian.
//   - Slot directory grows forward from offset 6, 4 bytes per slot:
//     (record_offset:u16, record_length:u16). A slot whose record_offset
//     is 0 is empty/deleted.
//   - Record payloads grow backward from the page end.
//
// num_slots counts live records, not directory capacity. Slot ids, once
// assigned, stay stable across compaction; compaction only moves record
// payloads and rewrites the offset field of each live slot.
package heap

import (
	"encoding/binary"

	"minidb/pkg/dberr"
	"minidb/pkg/primitives"
	"minidb/pkg/storage/page"
)

const (
	// HeaderSize is the slotted page header length in bytes.
	HeaderSize = 6
	// SlotSize is the size of one slot directory entry.
	SlotSize = 4
)

// SlottedPage is a view over one Page interpreting it with the slotted
// layout above. It holds no state of its own; every accessor reads or
// writes the underlying page bytes directly, so the page image is always
// current.
type SlottedPage struct {
	page *page.Page
}

// AsSlotted wraps an already-initialized page.
func AsSlotted(p *page.Page) *SlottedPage {
	return &SlottedPage{page: p}
}

// InitSlotted formats a fresh page with an empty slot directory and
// returns the view. The header becomes (0, HeaderSize, PageSize).
func InitSlotted(p *page.Page) *SlottedPage {
	sp := &SlottedPage{page: p}
	sp.setNumSlots(0)
	sp.setFreeSpaceStart(HeaderSize)
	sp.setFreeSpaceEnd(page.Size)
	return sp
}

func (sp *SlottedPage) u16At(offset int) uint16 {
	return binary.LittleEndian.Uint16(sp.page.Read(offset, 2))
}

func (sp *SlottedPage) putU16At(offset int, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	sp.page.Write(offset, b[:])
}

// NumSlots returns the number of live records on the page.
func (sp *SlottedPage) NumSlots() uint16 { return sp.u16At(0) }

func (sp *SlottedPage) setNumSlots(v uint16) { sp.putU16At(0, v) }

func (sp *SlottedPage) freeSpaceStart() uint16 { return sp.u16At(2) }

func (sp *SlottedPage) setFreeSpaceStart(v uint16) { sp.putU16At(2, v) }

func (sp *SlottedPage) freeSpaceEnd() uint16 { return sp.u16At(4) }

func (sp *SlottedPage) setFreeSpaceEnd(v uint16) { sp.putU16At(4, v) }

// FreeSpace returns the bytes available between the slot directory and
// the record area.
func (sp *SlottedPage) FreeSpace() int {
	return int(sp.freeSpaceEnd()) - int(sp.freeSpaceStart())
}

// directorySlots returns the number of slot entries in the directory,
// live or dead.
func (sp *SlottedPage) directorySlots() int {
	return (int(sp.freeSpaceStart()) - HeaderSize) / SlotSize
}

func (sp *SlottedPage) slotEntry(slot primitives.SlotID) (offset, length uint16) {
	base := HeaderSize + int(slot)*SlotSize
	return sp.u16At(base), sp.u16At(base + 2)
}

func (sp *SlottedPage) setSlotEntry(slot primitives.SlotID, offset, length uint16) {
	base := HeaderSize + int(slot)*SlotSize
	sp.putU16At(base, offset)
	sp.putU16At(base+2, length)
}

// Insert stores record and returns the slot id it landed in. If the free
// region cannot hold the record plus a directory entry, the page is first
// compacted in place; if space is still insufficient the insert fails
// with dberr.NotEnoughFreeSpace.
func (sp *SlottedPage) Insert(record []byte) (primitives.SlotID, error) {
	need := len(record) + SlotSize
	if need > sp.FreeSpace() {
		sp.Compact()
		if need > sp.FreeSpace() {
			return 0, dberr.New(dberr.NotEnoughFreeSpace,
				"record of %d bytes does not fit in %d free bytes", len(record), sp.FreeSpace())
		}
	}

	newEnd := sp.freeSpaceEnd() - uint16(len(record))
	sp.page.Write(int(newEnd), record)
	sp.setFreeSpaceEnd(newEnd)

	slot := sp.findFreeSlot()
	if int(slot) == sp.directorySlots() {
		sp.setFreeSpaceStart(sp.freeSpaceStart() + SlotSize)
	}
	sp.setSlotEntry(slot, newEnd, uint16(len(record)))
	sp.setNumSlots(sp.NumSlots() + 1)
	return slot, nil
}

// findFreeSlot returns the lowest-indexed dead slot, or the index one
// past the directory when every existing slot is live.
func (sp *SlottedPage) findFreeSlot() primitives.SlotID {
	n := sp.directorySlots()
	for i := 0; i < n; i++ {
		if offset, _ := sp.slotEntry(primitives.SlotID(i)); offset == 0 {
			return primitives.SlotID(i)
		}
	}
	return primitives.SlotID(n)
}

// Get returns a borrowed view of the record in slot, or nil if the slot
// is outside the directory or dead.
func (sp *SlottedPage) Get(slot primitives.SlotID) []byte {
	if int(slot) >= sp.directorySlots() {
		return nil
	}
	offset, length := sp.slotEntry(slot)
	if offset == 0 {
		return nil
	}
	return sp.page.Read(int(offset), int(length))
}

// Delete zeroes the slot entry. If the deleted slot was the directory's
// final entry the directory shrinks by one slot. The record payload is
// not reclaimed until the next compaction.
func (sp *SlottedPage) Delete(slot primitives.SlotID) {
	if int(slot) >= sp.directorySlots() {
		return
	}
	offset, _ := sp.slotEntry(slot)
	if offset == 0 {
		return
	}
	sp.setSlotEntry(slot, 0, 0)
	if int(slot) == sp.directorySlots()-1 {
		sp.setFreeSpaceStart(sp.freeSpaceStart() - SlotSize)
	}
	sp.setNumSlots(sp.NumSlots() - 1)
}

// Compact rewrites live records contiguously against the page end,
// updating each live slot's offset and resetting free_space_end. Slot ids
// are unchanged.
func (sp *SlottedPage) Compact() {
	n := sp.directorySlots()
	type rec struct {
		slot primitives.SlotID
		data []byte
	}
	live := make([]rec, 0, n)
	for i := 0; i < n; i++ {
		slot := primitives.SlotID(i)
		offset, length := sp.slotEntry(slot)
		if offset == 0 {
			continue
		}
		data := make([]byte, length)
		copy(data, sp.page.Read(int(offset), int(length)))
		live = append(live, rec{slot: slot, data: data})
	}

	end := uint16(page.Size)
	for _, r := range live {
		end -= uint16(len(r.data))
		sp.page.Write(int(end), r.data)
		sp.setSlotEntry(r.slot, end, uint16(len(r.data)))
	}
	sp.setFreeSpaceEnd(end)
}
