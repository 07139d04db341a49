package node

import (
	"encoding/binary"

	"github.com/btree-query-bench/catalog/internal/pager"
	"github.com/cockroachdb/errors"
)

// Wire offsets, per spec.md §4.3. All multi-byte fields are little-endian.
const (
	offPageID     = 0
	offKind       = offPageID + 8
	offParentID   = offKind + 1
	offPrevLeafID = offParentID + 8
	offNextLeafID = offPrevLeafID + 8
	offNumKeys    = offNextLeafID + 8
	offKeys       = offNumKeys + 8
)

// Encode serializes n into a page-sized buffer. encode(decode(page)) ==
// page for any page produced by this function (spec.md §8 round-trip law).
func Encode(n *Node, pageSize int) (pager.Page, error) {
	numKeys := len(n.Keys)
	var tailLen int
	if n.Kind == KindLeaf {
		tailLen = numKeys * idSize
	} else {
		tailLen = (numKeys + 1) * idSize
	}
	need := offKeys + numKeys*keySize + tailLen
	if need > pageSize {
		return nil, errors.Newf("node: encode: node needs %d bytes, page holds %d", need, pageSize)
	}

	pg := make(pager.Page, pageSize)
	binary.LittleEndian.PutUint64(pg[offPageID:], uint64(n.PageID))
	pg[offKind] = byte(n.Kind)
	binary.LittleEndian.PutUint64(pg[offParentID:], uint64(n.ParentID))
	binary.LittleEndian.PutUint64(pg[offPrevLeafID:], uint64(n.PrevLeafID))
	binary.LittleEndian.PutUint64(pg[offNextLeafID:], uint64(n.NextLeafID))
	binary.LittleEndian.PutUint64(pg[offNumKeys:], uint64(numKeys))

	off := offKeys
	for _, k := range n.Keys {
		binary.LittleEndian.PutUint64(pg[off:], floatBits(k))
		off += keySize
	}

	if n.Kind == KindLeaf {
		for _, rid := range n.RecordIDs {
			binary.LittleEndian.PutUint64(pg[off:], uint64(rid))
			off += idSize
		}
	} else {
		for _, cid := range n.ChildIDs {
			binary.LittleEndian.PutUint64(pg[off:], uint64(cid))
			off += idSize
		}
	}

	return pg, nil
}

// Decode parses a page-sized buffer back into a Node.
func Decode(pg pager.Page) (*Node, error) {
	if len(pg) < offKeys {
		return nil, ErrCorruptPage
	}

	n := &Node{
		PageID:     ID(binary.LittleEndian.Uint64(pg[offPageID:])),
		Kind:       Kind(pg[offKind]),
		ParentID:   ID(binary.LittleEndian.Uint64(pg[offParentID:])),
		PrevLeafID: ID(binary.LittleEndian.Uint64(pg[offPrevLeafID:])),
		NextLeafID: ID(binary.LittleEndian.Uint64(pg[offNextLeafID:])),
	}
	if n.Kind != KindLeaf && n.Kind != KindInternal {
		return nil, ErrCorruptPage
	}

	numKeys := int(binary.LittleEndian.Uint64(pg[offNumKeys:]))
	if numKeys < 0 {
		return nil, ErrCorruptPage
	}

	// numKeys is read straight off the page and may be corrupt or hostile, so
	// its upper bound must be computed with division rather than by forming
	// offKeys + numKeys*keySize + tailCount*idSize directly — that sum
	// overflows int64 and wraps for large numKeys, which would let an
	// oversized numKeys slip past the bounds check and crash the make()
	// calls below instead of returning ErrCorruptPage.
	room := len(pg) - offKeys
	if room < 0 {
		return nil, ErrCorruptPage
	}
	var maxNumKeys int
	if n.Kind == KindLeaf {
		maxNumKeys = room / (keySize + idSize)
	} else {
		if room < idSize {
			return nil, ErrCorruptPage
		}
		maxNumKeys = (room - idSize) / (keySize + idSize)
	}
	if numKeys > maxNumKeys {
		return nil, ErrCorruptPage
	}

	var tailCount int
	if n.Kind == KindLeaf {
		tailCount = numKeys
	} else {
		tailCount = numKeys + 1
	}
	need := offKeys + numKeys*keySize + tailCount*idSize
	if need > len(pg) {
		return nil, ErrCorruptPage
	}

	off := offKeys
	n.Keys = make([]float64, numKeys)
	for i := 0; i < numKeys; i++ {
		n.Keys[i] = floatFromBits(binary.LittleEndian.Uint64(pg[off:]))
		off += keySize
	}

	if n.Kind == KindLeaf {
		n.RecordIDs = make([]int64, numKeys)
		for i := 0; i < numKeys; i++ {
			n.RecordIDs[i] = int64(binary.LittleEndian.Uint64(pg[off:]))
			off += idSize
		}
	} else {
		n.ChildIDs = make([]ID, numKeys+1)
		for i := 0; i < numKeys+1; i++ {
			n.ChildIDs[i] = ID(binary.LittleEndian.Uint64(pg[off:]))
			off += idSize
		}
	}

	return n, nil
}
