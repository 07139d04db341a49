package node

// splitCounter is an optional hook a caller can install with
// SetSplitCounter so split frequency is observable without this package
// depending on a metrics library directly.
var splitCounter func()

// SetSplitCounter installs f to be called once per SplitLeaf/SplitInternal
// invocation. Pass nil to disable.
func SetSplitCounter(f func()) {
	splitCounter = f
}

func countSplit() {
	if splitCounter != nil {
		splitCounter()
	}
}

// KeyPosition returns the smallest index i such that key <= K[i] (or
// len(K) if key exceeds every key). This is the leaf insertion position and
// the child index queries descend by: equal keys land to the left
// (spec.md §4.4).
func KeyPosition(keys []float64, key float64) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if keys[mid] < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// ChildIndex returns the internal-node child index to descend into for key:
// the smallest index i such that key < K[i] (or len(K) if key is >= every
// key). Unlike KeyPosition, this uses strict '<' so an inserted key equal to
// a separator routes to the right of it (spec.md §9, Open Question #1,
// resolved as option (b)). A leaf split can still leave keys equal to the
// separator in the left child, so queries descend with KeyPosition instead.
func ChildIndex(keys []float64, key float64) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if keys[mid] <= key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// InsertObject inserts (key, recordID) into a leaf at its key position and
// commits the page. It never splits — the caller checks for overflow and
// triggers SplitLeaf itself (spec.md §4.4).
func InsertObject(ps PageStore, leaf *Node, key float64, recordID int64) error {
	if !leaf.IsLeaf() {
		return ErrInvariant
	}
	pos := KeyPosition(leaf.Keys, key)
	leaf.Keys = insertFloat(leaf.Keys, pos, key)
	leaf.RecordIDs = insertInt(leaf.RecordIDs, pos, recordID)
	return Commit(ps, leaf)
}

// InsertNode inserts separator and rightChild into an internal node
// (leftChild must already occupy the slot at the insertion position). If
// the node now overflows it is split, and SplitInternal commits both halves
// (an overflowing internal node need not fit in one page); otherwise the
// page is committed as is. It returns the id of
// a newly created root, or NoneID if no new root was created anywhere in
// the chain of splits this call triggers.
func InsertNode(ps PageStore, parent *Node, fanout Fanout, separator float64, rightChild ID) (ID, error) {
	if parent.IsLeaf() {
		return NoneID, ErrInvariant
	}
	pos := ChildIndex(parent.Keys, separator)
	parent.Keys = insertFloat(parent.Keys, pos, separator)
	parent.ChildIDs = insertID(parent.ChildIDs, pos+1, rightChild)
	if len(parent.Keys) <= fanout.U {
		return NoneID, Commit(ps, parent)
	}
	return SplitInternal(ps, parent, fanout)
}

// SplitLeaf splits an overflowing leaf: the suffix starting at fanout.L
// moves to a new sibling, spliced into the leaf chain, and the separator
// (the sibling's first key) is promoted to the parent — creating a new root
// if this leaf had none (spec.md §4.4).
func SplitLeaf(ps PageStore, leaf *Node, fanout Fanout) (ID, error) {
	countSplit()
	mid := fanout.L
	siblingID, err := ps.Allocate()
	if err != nil {
		return NoneID, err
	}
	sibling := NewLeaf(siblingID)
	sibling.Keys = append([]float64(nil), leaf.Keys[mid:]...)
	sibling.RecordIDs = append([]int64(nil), leaf.RecordIDs[mid:]...)
	leaf.Keys = leaf.Keys[:mid]
	leaf.RecordIDs = leaf.RecordIDs[:mid]

	sibling.PrevLeafID = leaf.PageID
	sibling.NextLeafID = leaf.NextLeafID
	if leaf.NextLeafID != NoneID {
		successor, err := Load(ps, leaf.NextLeafID)
		if err != nil {
			return NoneID, err
		}
		successor.PrevLeafID = sibling.PageID
		if err := Commit(ps, successor); err != nil {
			return NoneID, err
		}
	}
	leaf.NextLeafID = sibling.PageID

	separator := sibling.Keys[0]

	if leaf.ParentID != NoneID {
		sibling.ParentID = leaf.ParentID
		if err := Commit(ps, leaf); err != nil {
			return NoneID, err
		}
		if err := Commit(ps, sibling); err != nil {
			return NoneID, err
		}
		parent, err := Load(ps, leaf.ParentID)
		if err != nil {
			return NoneID, err
		}
		return InsertNode(ps, parent, fanout, separator, sibling.PageID)
	}

	rootID, err := ps.Allocate()
	if err != nil {
		return NoneID, err
	}
	root := NewInternal(rootID, separator, leaf.PageID, sibling.PageID)
	leaf.ParentID = rootID
	sibling.ParentID = rootID
	if err := Commit(ps, leaf); err != nil {
		return NoneID, err
	}
	if err := Commit(ps, sibling); err != nil {
		return NoneID, err
	}
	if err := Commit(ps, root); err != nil {
		return NoneID, err
	}
	return rootID, nil
}

// SplitInternal splits an overflowing internal node: keys[L] is promoted as
// separator, keys[L+1:] and children[L+1:] move to a new sibling, and the
// moved children are re-parented (spec.md §4.4).
func SplitInternal(ps PageStore, n *Node, fanout Fanout) (ID, error) {
	countSplit()
	m := fanout.L
	separator := n.Keys[m]

	siblingID, err := ps.Allocate()
	if err != nil {
		return NoneID, err
	}
	sibling := &Node{PageID: siblingID, Kind: KindInternal, ParentID: n.ParentID}
	sibling.Keys = append([]float64(nil), n.Keys[m+1:]...)
	sibling.ChildIDs = append([]ID(nil), n.ChildIDs[m+1:]...)

	n.Keys = n.Keys[:m]
	n.ChildIDs = n.ChildIDs[:m+1]

	for _, childID := range sibling.ChildIDs {
		child, err := Load(ps, childID)
		if err != nil {
			return NoneID, err
		}
		child.ParentID = siblingID
		if err := Commit(ps, child); err != nil {
			return NoneID, err
		}
	}

	if n.ParentID != NoneID {
		if err := Commit(ps, n); err != nil {
			return NoneID, err
		}
		if err := Commit(ps, sibling); err != nil {
			return NoneID, err
		}
		parent, err := Load(ps, n.ParentID)
		if err != nil {
			return NoneID, err
		}
		return InsertNode(ps, parent, fanout, separator, sibling.PageID)
	}

	rootID, err := ps.Allocate()
	if err != nil {
		return NoneID, err
	}
	root := NewInternal(rootID, separator, n.PageID, sibling.PageID)
	n.ParentID = rootID
	sibling.ParentID = rootID
	if err := Commit(ps, n); err != nil {
		return NoneID, err
	}
	if err := Commit(ps, sibling); err != nil {
		return NoneID, err
	}
	if err := Commit(ps, root); err != nil {
		return NoneID, err
	}
	return rootID, nil
}

func insertFloat(s []float64, pos int, v float64) []float64 {
	s = append(s, 0)
	copy(s[pos+1:], s[pos:])
	s[pos] = v
	return s
}

func insertInt(s []int64, pos int, v int64) []int64 {
	s = append(s, 0)
	copy(s[pos+1:], s[pos:])
	s[pos] = v
	return s
}

func insertID(s []ID, pos int, v ID) []ID {
	s = append(s, 0)
	copy(s[pos+1:], s[pos:])
	s[pos] = v
	return s
}
