// Package tree implements the tree-level recursions over nodes: insert and
// the four query algorithms (point, window, range, kNN).
package tree

import (
	"math"
	"sort"

	"github.com/btree-query-bench/catalog/internal/node"
)

// Record is one (key, recordID) pair returned by a query, in the order the
// tree produced it.
type Record struct {
	Key      float64
	RecordID int64
}

// Tree recurses a node.PageStore rooted at RootID. It does not own the
// store or the fan-out bounds — those are configured once by the catalogue
// that wires pager, node, and session together (spec.md §4.7).
type Tree struct {
	Store  node.PageStore
	Fanout node.Fanout
	RootID node.ID
}

// Insert adds (key, recordID) to the tree, descending to the owning leaf,
// inserting, and splitting on overflow. If a split anywhere in the chain
// creates a new root, RootID is updated.
func (t *Tree) Insert(key float64, recordID int64) error {
	newRootID, err := t.insert(t.RootID, key, recordID)
	if err != nil {
		return err
	}
	if newRootID != node.NoneID {
		t.RootID = newRootID
	}
	return nil
}

func (t *Tree) insert(id node.ID, key float64, recordID int64) (node.ID, error) {
	n, err := node.Load(t.Store, id)
	if err != nil {
		return node.NoneID, err
	}

	if n.IsLeaf() {
		if err := node.InsertObject(t.Store, n, key, recordID); err != nil {
			return node.NoneID, err
		}
		if len(n.Keys) > t.Fanout.U {
			return node.SplitLeaf(t.Store, n, t.Fanout)
		}
		return node.NoneID, nil
	}

	childIdx := node.ChildIndex(n.Keys, key)
	return t.insert(n.ChildIDs[childIdx], key, recordID)
}

// PointQuery returns every record whose key equals k, following duplicate
// keys that straddle a leaf boundary (spec.md §4.5).
func (t *Tree) PointQuery(k float64) ([]Record, error) {
	leaf, err := t.descendToLeaf(k)
	if err != nil {
		return nil, err
	}

	var out []Record
	for {
		for i, key := range leaf.Keys {
			if key == k {
				out = append(out, Record{Key: key, RecordID: leaf.RecordIDs[i]})
			}
		}
		if leaf.NextLeafID == node.NoneID {
			break
		}
		next, err := node.Load(t.Store, leaf.NextLeafID)
		if err != nil {
			return nil, err
		}
		if len(next.Keys) == 0 || next.Keys[0] != k {
			break
		}
		leaf = next
	}
	return out, nil
}

// WindowQuery returns every record whose key lies in [lo, hi], in ascending
// key order, by following the leaf chain forward from the landing leaf
// (spec.md §4.5).
func (t *Tree) WindowQuery(lo, hi float64) ([]Record, error) {
	leaf, err := t.descendToLeaf(lo)
	if err != nil {
		return nil, err
	}

	var out []Record
	for {
		for i, key := range leaf.Keys {
			if key >= lo && key <= hi {
				out = append(out, Record{Key: key, RecordID: leaf.RecordIDs[i]})
			}
		}
		if leaf.NextLeafID == node.NoneID {
			break
		}
		next, err := node.Load(t.Store, leaf.NextLeafID)
		if err != nil {
			return nil, err
		}
		if len(next.Keys) == 0 || next.Keys[0] < lo || next.Keys[0] > hi {
			break
		}
		leaf = next
	}
	return out, nil
}

// RangeQuery is a window query centered on c with radius r, clamped at zero
// on the low end since keys are non-negative (spec.md §4.5).
func (t *Tree) RangeQuery(c, r float64) ([]Record, error) {
	lo := c - r
	if lo < 0 {
		lo = 0
	}
	return t.WindowQuery(lo, c+r)
}

// KNNQuery returns the k records nearest to c, walking the leaf chain
// outward from the landing position in both directions and sorting the
// combined candidate set by distance (ties broken by the order in which
// candidates were gathered: outward-forward candidates before
// outward-backward ones) (spec.md §4.5).
func (t *Tree) KNNQuery(c float64, k int) ([]Record, error) {
	if k <= 0 {
		return nil, nil
	}

	leaf, err := t.descendToLeaf(c)
	if err != nil {
		return nil, err
	}
	pos := node.KeyPosition(leaf.Keys, c)

	var candidates []Record

	// Forward: from pos to the end of the landing leaf, then successor
	// leaves, until k candidates gathered on this side or the chain ends.
	count := 0
	cur := leaf
	i := pos
	for count < k {
		if i >= len(cur.Keys) {
			if cur.NextLeafID == node.NoneID {
				break
			}
			cur, err = node.Load(t.Store, cur.NextLeafID)
			if err != nil {
				return nil, err
			}
			i = 0
			continue
		}
		candidates = append(candidates, Record{Key: cur.Keys[i], RecordID: cur.RecordIDs[i]})
		i++
		count++
	}

	// Backward: from pos-1 down to the start of the landing leaf, then
	// predecessor leaves, until k candidates gathered on this side or the
	// chain ends.
	count = 0
	cur = leaf
	i = pos - 1
	for count < k {
		if i < 0 {
			if cur.PrevLeafID == node.NoneID {
				break
			}
			cur, err = node.Load(t.Store, cur.PrevLeafID)
			if err != nil {
				return nil, err
			}
			i = len(cur.Keys) - 1
			continue
		}
		candidates = append(candidates, Record{Key: cur.Keys[i], RecordID: cur.RecordIDs[i]})
		i--
		count++
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return math.Abs(candidates[a].Key-c) < math.Abs(candidates[b].Key-c)
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// descendToLeaf follows KeyPosition from the root down to the leftmost leaf
// that may contain key. A leaf split can leave keys equal to the promoted
// separator in the left leaf, so queries descend left of an equal separator
// and then follow the leaf chain forward.
func (t *Tree) descendToLeaf(key float64) (*node.Node, error) {
	id := t.RootID
	for {
		n, err := node.Load(t.Store, id)
		if err != nil {
			return nil, err
		}
		if n.IsLeaf() {
			return n, nil
		}
		id = n.ChildIDs[node.KeyPosition(n.Keys, key)]
	}
}
