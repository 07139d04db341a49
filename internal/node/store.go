package node

import "github.com/btree-query-bench/catalog/internal/pager"

// PageStore is the subset of pager.Store that node operations need. It lets
// node operations be tested against a fake without pulling in the real
// pager package's file I/O.
type PageStore interface {
	PageSize() int
	Allocate() (ID, error)
	Read(id ID) (pager.Page, error)
	Write(id ID, pg pager.Page) error
}

// Load reads and decodes the node at id.
func Load(ps PageStore, id ID) (*Node, error) {
	pg, err := ps.Read(id)
	if err != nil {
		return nil, err
	}
	return Decode(pg)
}

// Commit encodes and writes n back to its own page. Every mutated node must
// be committed before its in-memory value is released (spec.md §5).
func Commit(ps PageStore, n *Node) error {
	pg, err := Encode(n, ps.PageSize())
	if err != nil {
		return err
	}
	return ps.Write(n.PageID, pg)
}
