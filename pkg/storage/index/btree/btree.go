package btree

import (
	"sort"

	"minidb/pkg/primitives"
	"minidb/pkg/storage/page"
)

// BTree is a sequence of node pages plus the id of the root page. Pages
// are created in insertion order and addressed by their index in the
// sequence; no node holds a reference to another node beyond that id.
// Duplicate keys are ruled out by the callers' insert contract, not
// enforced structurally.
type BTree struct {
	pages []*page.Page
	root  int // -1 while the tree is empty
}

// New returns an empty tree.
func New() *BTree {
	return &BTree{root: -1}
}

// Empty reports whether the tree has no entries.
func (t *BTree) Empty() bool { return t.root == -1 }

// PageCount returns the number of node pages the tree has allocated.
func (t *BTree) PageCount() int { return len(t.pages) }

func (t *BTree) readNode(pid primitives.PageID) *node {
	return deserialize(t.pages[pid])
}

func (t *BTree) writeNode(pid primitives.PageID, n *node) {
	n.serialize(t.pages[pid])
}

func (t *BTree) appendNode(n *node) primitives.PageID {
	pid := primitives.PageID(len(t.pages))
	t.pages = append(t.pages, page.NewPage())
	t.writeNode(pid, n)
	return pid
}

// descend walks from the root to the leaf that would hold key, returning
// the leaf's page id and the page ids visited on the way down (root
// first, leaf last).
func (t *BTree) descend(key int64) (primitives.PageID, []primitives.PageID) {
	pid := primitives.PageID(t.root)
	path := []primitives.PageID{pid}
	for {
		n := t.readNode(pid)
		if n.isLeaf() {
			return pid, path
		}
		// First child whose separator exceeds key; the last child covers
		// everything from the final separator up.
		idx := len(n.keys)
		for i, k := range n.keys {
			if key < k {
				idx = i
				break
			}
		}
		pid = n.children[idx]
		path = append(path, pid)
	}
}

// Search returns the RID paired with key, or false when the key is
// absent (including on an empty tree).
func (t *BTree) Search(key int64) (primitives.RID, bool) {
	if t.Empty() {
		return primitives.RID{}, false
	}
	leafPid, _ := t.descend(key)
	leaf := t.readNode(leafPid)
	for i, k := range leaf.keys {
		if k == key {
			return leaf.rids[i], true
		}
	}
	return primitives.RID{}, false
}

// RangeScan returns the RIDs of every key in [lo, hi], ascending. It
// descends to the leaf that would hold lo and walks the leaf chain,
// stopping at the first key above hi.
func (t *BTree) RangeScan(lo, hi int64) []primitives.RID {
	var out []primitives.RID
	if t.Empty() || lo > hi {
		return out
	}

	leafPid, _ := t.descend(lo)
	for {
		leaf := t.readNode(leafPid)
		for i, k := range leaf.keys {
			if k < lo {
				continue
			}
			if k > hi {
				return out
			}
			out = append(out, leaf.rids[i])
		}
		if leaf.next == 0 {
			return out
		}
		leafPid = leaf.next
	}
}

// Insert adds (key, rid), splitting nodes bottom-up as they overflow. A
// split leaf keeps its left half in place, appends the right half as a
// new page, and relinks the leaf chain; the right half's first key
// becomes the separator in the parent. An overflowing internal node
// pushes its middle key up instead of duplicating it. When the root
// splits, a new one-key internal root is created.
func (t *BTree) Insert(key int64, rid primitives.RID) {
	if t.Empty() {
		pid := t.appendNode(&node{kind: tagLeaf, keys: []int64{key}, rids: []primitives.RID{rid}})
		t.root = int(pid)
		return
	}

	leafPid, path := t.descend(key)
	leaf := t.readNode(leafPid)

	pos := sort.Search(len(leaf.keys), func(i int) bool { return leaf.keys[i] >= key })
	leaf.keys = insertInt64(leaf.keys, pos, key)
	leaf.rids = insertRID(leaf.rids, pos, rid)

	if len(leaf.keys) <= maxKeys {
		t.writeNode(leafPid, leaf)
		return
	}

	sep, rightPid := t.splitLeaf(leafPid, leaf)
	t.propagate(path[:len(path)-1], leafPid, sep, rightPid)
}

// splitLeaf divides an overfull leaf, writing both halves, and returns
// the separator key plus the new right page id.
func (t *BTree) splitLeaf(leftPid primitives.PageID, leaf *node) (int64, primitives.PageID) {
	mid := len(leaf.keys) / 2
	right := &node{
		kind: tagLeaf,
		keys: append([]int64(nil), leaf.keys[mid:]...),
		rids: append([]primitives.RID(nil), leaf.rids[mid:]...),
		next: leaf.next,
	}
	rightPid := t.appendNode(right)

	leaf.keys = leaf.keys[:mid]
	leaf.rids = leaf.rids[:mid]
	leaf.next = rightPid
	t.writeNode(leftPid, leaf)

	return right.keys[0], rightPid
}

// propagate inserts a separator produced by splitting child into the
// parents along the descent path, splitting them in turn as needed.
// parents holds the path above the split node, root first.
func (t *BTree) propagate(parents []primitives.PageID, childPid primitives.PageID, sep int64, rightPid primitives.PageID) {
	for {
		if len(parents) == 0 {
			newRoot := &node{
				kind:     tagInternal,
				keys:     []int64{sep},
				children: []primitives.PageID{childPid, rightPid},
			}
			t.root = int(t.appendNode(newRoot))
			return
		}

		parentPid := parents[len(parents)-1]
		parents = parents[:len(parents)-1]
		parent := t.readNode(parentPid)

		pos := sort.Search(len(parent.keys), func(i int) bool { return parent.keys[i] >= sep })
		parent.keys = insertInt64(parent.keys, pos, sep)
		parent.children = insertPageID(parent.children, pos+1, rightPid)

		if len(parent.keys) <= maxKeys {
			t.writeNode(parentPid, parent)
			return
		}

		// Internal split pushes the middle key up rather than copying it:
		// left keeps keys [0,mid) with children [0,mid], right takes keys
		// (mid,n) with children [mid+1,n+1).
		mid := len(parent.keys) / 2
		pushed := parent.keys[mid]
		right := &node{
			kind:     tagInternal,
			keys:     append([]int64(nil), parent.keys[mid+1:]...),
			children: append([]primitives.PageID(nil), parent.children[mid+1:]...),
		}
		newRightPid := t.appendNode(right)

		parent.keys = parent.keys[:mid]
		parent.children = parent.children[:mid+1]
		t.writeNode(parentPid, parent)

		childPid, sep, rightPid = parentPid, pushed, newRightPid
	}
}

func insertInt64(s []int64, i int, v int64) []int64 {
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func insertRID(s []primitives.RID, i int, v primitives.RID) []primitives.RID {
	s = append(s, primitives.RID{})
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func insertPageID(s []primitives.PageID, i int, v primitives.PageID) []primitives.PageID {
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
