package node

import "github.com/cockroachdb/errors"

// ErrCorruptPage marks a decode failure: a page's header is inconsistent
// with its payload length (spec.md §7, Decode error).
var ErrCorruptPage = errors.New("node: corrupt page")

// ErrInvariant marks an attempt to violate a node invariant, e.g. inserting
// a child into a leaf (spec.md §7, Invariant violation).
var ErrInvariant = errors.New("node: invariant violation")

func errInvalidPageSize(pageSize int) error {
	return errors.Newf("node: page size %d too small to hold a legal node (L>=2)", pageSize)
}
