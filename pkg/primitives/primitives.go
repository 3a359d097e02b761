// Package primitives holds the small identifier types shared across every
// storage layer: page ids, slot ids, and the record id (RID) pair that
// locates a tuple inside a heap file.
package primitives

import "fmt"

// PageID identifies a page within a single heap file or B+Tree. Page
// ids are assigned sequentially starting at 0 in the order pages are
// allocated.
type PageID uint16

// SlotID identifies a slot within a slotted page's directory.
type SlotID uint16

// RID (record id) locates a tuple inside a heap file. It is stable for as
// long as the record is not deleted; deleting a record invalidates its
// RID, and inserting never renumbers existing RIDs.
type RID struct {
	PageID PageID
	SlotID SlotID
}

func (r RID) String() string {
	return fmt.Sprintf("RID(%d,%d)", r.PageID, r.SlotID)
}

// Equals reports whether two RIDs name the same slot.
func (r RID) Equals(other RID) bool {
	return r.PageID == other.PageID && r.SlotID == other.SlotID
}

// PageSize is the fixed size of every on-disk page, in bytes.
const PageSize = 4096
