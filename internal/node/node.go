// Package node implements the B+ tree node: its wire layout, the fan-out
// bounds derived from a page size, and the node-level operations (key
// position, insertion, split) that the tree package recurses over.
package node

import "github.com/btree-query-bench/catalog/internal/pager"

// ID is a page/node identifier. Nodes are addressed purely by id, never by
// in-memory pointer, so the cyclic parent/child/sibling graph lives only on
// disk and is resolved by loading pages on demand (spec.md §9 Design Notes).
type ID = pager.ID

// NoneID is the sentinel for an absent parent or leaf-chain neighbor.
const NoneID ID = -1

// Kind tags whether a Node is a Leaf or an Internal node. Both kinds share
// the header and key vector; they diverge only in their tail sequence
// (record ids vs child ids) — a tagged variant, not a base-class hierarchy.
type Kind uint8

const (
	KindInternal Kind = 0
	KindLeaf     Kind = 1
)

// Node is the in-memory, decoded view of one page.
type Node struct {
	PageID     ID
	Kind       Kind
	ParentID   ID
	PrevLeafID ID // meaningful only for Leaf
	NextLeafID ID // meaningful only for Leaf
	Keys       []float64

	RecordIDs []int64 // Leaf only, len == len(Keys)
	ChildIDs  []ID    // Internal only, len == len(Keys)+1
}

// IsLeaf reports whether n is a leaf node.
func (n *Node) IsLeaf() bool { return n.Kind == KindLeaf }

// NewLeaf returns a freshly allocated, empty leaf with no siblings yet.
func NewLeaf(id ID) *Node {
	return &Node{
		PageID:     id,
		Kind:       KindLeaf,
		ParentID:   NoneID,
		PrevLeafID: NoneID,
		NextLeafID: NoneID,
	}
}

// NewInternal returns a freshly allocated internal node with a single
// separator and two children.
func NewInternal(id ID, separator float64, left, right ID) *Node {
	return &Node{
		PageID:   id,
		Kind:     KindInternal,
		ParentID: NoneID,
		Keys:     []float64{separator},
		ChildIDs: []ID{left, right},
	}
}

// Fanout holds the maximum (U) and minimum (L) number of keys a non-root
// node may hold, derived once from a page size (spec.md §4.3, Open Question
// #2). U = 2L per the tree invariant.
type Fanout struct {
	L int
	U int
}

// headerSize is the fixed byte cost of every page's header, per the wire
// layout in spec.md §4.3: page_id(8) + kind(1) + parent_id(8) +
// prev_leaf_id(8) + next_leaf_id(8) + num_keys(8).
const headerSize = 8 + 1 + 8 + 8 + 8 + 8

const (
	keySize = 8 // float64
	idSize  = 8 // int64 page/record id
)

// DeriveFanout computes U and L from pageSize so that the largest legal
// internal node (k keys, k+1 child ids) and the largest legal leaf (k keys,
// k record ids) both still fit in one page. An explicit override (used only
// by tests, per spec.md §4.3) bypasses the derivation.
func DeriveFanout(pageSize int, lOverride int) (Fanout, error) {
	if lOverride > 0 {
		return Fanout{L: lOverride, U: lOverride * 2}, nil
	}

	avail := pageSize - headerSize
	if avail <= 0 {
		return Fanout{}, errInvalidPageSize(pageSize)
	}

	// Internal node with k keys costs k*keySize + (k+1)*idSize.
	// Leaf node with k keys costs k*keySize + k*idSize.
	// U must satisfy both; the internal bound is the tighter one.
	uInternal := (avail - idSize) / (keySize + idSize)
	uLeaf := avail / (keySize + idSize)

	u := uInternal
	if uLeaf < u {
		u = uLeaf
	}
	if u%2 != 0 {
		u--
	}
	if u < 4 {
		return Fanout{}, errInvalidPageSize(pageSize)
	}
	return Fanout{L: u / 2, U: u}, nil
}
