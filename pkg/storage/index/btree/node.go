// Package btree implements an order-4 B+Tree over integer keys, mapping
// each key to the RID of the row it indexes. All data live in the leaves;
// internal nodes hold separator keys only, and leaves are singly linked
// left to right to support range scans.
//
// Node layout on a 4 KiB page:
//   - byte 0: node type tag (0 = internal, 1 = leaf)
//   - bytes 1-2: num_keys, u16 little-endian
//   - internal: alternating child_page_id:u16, key:i64 for num_keys
//     pairs, then one trailing child_page_id:u16. Child i covers keys
//     below keys[i]; the last child covers the rest.
//   - leaf: bytes 3-4 are next_leaf_page_id:u16 (0 = none), then
//     num_keys entries of key:i64, rid.page_id:u16, rid.slot_id:u16.
package btree

import (
	"encoding/binary"

	"minidb/pkg/primitives"
	"minidb/pkg/storage/page"
)

const (
	tagInternal byte = 0
	tagLeaf     byte = 1

	// maxKeys is the most keys a node may hold; reaching maxKeys+1 on
	// insert triggers a split.
	maxKeys = 4
)

// node is the in-memory form of one tree page. For internal nodes
// children has len(keys)+1 entries and rids is unused; for leaves rids
// parallels keys and next links to the right sibling (0 = none).
type node struct {
	kind     byte
	keys     []int64
	children []primitives.PageID
	rids     []primitives.RID
	next     primitives.PageID
}

func (n *node) isLeaf() bool { return n.kind == tagLeaf }

// serialize writes n into p using the layout above.
func (n *node) serialize(p *page.Page) {
	buf := p.Bytes()
	for i := range buf {
		buf[i] = 0
	}
	buf[0] = n.kind
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(n.keys)))

	if n.isLeaf() {
		binary.LittleEndian.PutUint16(buf[3:5], uint16(n.next))
		off := 5
		for i, k := range n.keys {
			binary.LittleEndian.PutUint64(buf[off:off+8], uint64(k))
			binary.LittleEndian.PutUint16(buf[off+8:off+10], uint16(n.rids[i].PageID))
			binary.LittleEndian.PutUint16(buf[off+10:off+12], uint16(n.rids[i].SlotID))
			off += 12
		}
		return
	}

	off := 3
	for i, k := range n.keys {
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(n.children[i]))
		binary.LittleEndian.PutUint64(buf[off+2:off+10], uint64(k))
		off += 10
	}
	binary.LittleEndian.PutUint16(buf[off:off+2], uint16(n.children[len(n.keys)]))
}

// deserialize reads the node stored in p.
func deserialize(p *page.Page) *node {
	buf := p.Bytes()
	n := &node{kind: buf[0]}
	numKeys := int(binary.LittleEndian.Uint16(buf[1:3]))

	if n.isLeaf() {
		n.next = primitives.PageID(binary.LittleEndian.Uint16(buf[3:5]))
		n.keys = make([]int64, numKeys)
		n.rids = make([]primitives.RID, numKeys)
		off := 5
		for i := 0; i < numKeys; i++ {
			n.keys[i] = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
			n.rids[i] = primitives.RID{
				PageID: primitives.PageID(binary.LittleEndian.Uint16(buf[off+8 : off+10])),
				SlotID: primitives.SlotID(binary.LittleEndian.Uint16(buf[off+10 : off+12])),
			}
			off += 12
		}
		return n
	}

	n.keys = make([]int64, numKeys)
	n.children = make([]primitives.PageID, numKeys+1)
	off := 3
	for i := 0; i < numKeys; i++ {
		n.children[i] = primitives.PageID(binary.LittleEndian.Uint16(buf[off : off+2]))
		n.keys[i] = int64(binary.LittleEndian.Uint64(buf[off+2 : off+10]))
		off += 10
	}
	n.children[numKeys] = primitives.PageID(binary.LittleEndian.Uint16(buf[off : off+2]))
	return n
}
