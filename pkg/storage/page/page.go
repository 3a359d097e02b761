// Package page implements the fixed-size byte block (Page) and the
// DiskManager that maps logical page ids to offsets in a backing file.
// Page itself imposes no internal structure; the slotted-page and B+Tree
// node layouts are layered on top of it elsewhere.
package page

import "minidb/pkg/primitives"

// Size is the fixed size of every page, in bytes.
const Size = primitives.PageSize

// Page is a fixed Size-byte buffer. A freshly constructed Page is
// zero-filled. Read borrows a byte range; Write copies bytes in at an
// offset.
type Page struct {
	data [Size]byte
}

// NewPage returns a zero-filled page.
func NewPage() *Page {
	return &Page{}
}

// Bytes returns the full backing array as a slice, for callers (the
// B+Tree node codec and the disk manager) that need to read or write the
// whole page at once.
func (p *Page) Bytes() []byte {
	return p.data[:]
}

// Read returns a borrowed view of [offset, offset+length).
func (p *Page) Read(offset, length int) []byte {
	return p.data[offset : offset+length]
}

// Write copies b into the page starting at offset.
func (p *Page) Write(offset int, b []byte) {
	copy(p.data[offset:], b)
}
